package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/bloghub/apiserver/types"
)

func (e *testEnv) addComment(t *testing.T, userID int, postID, content string) types.Comment {
	t.Helper()
	comment, err := e.comments.Create(t.Context(), types.Comment{
		UserID: userID, PostID: postID, Content: content,
	})
	if err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	return comment
}

func TestCreateComment(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser("a", "a@x.com", false)

	rec := env.doJSON(http.MethodPost, "/comments", CreateCommentRequest{
		PostID: "42", Content: "nice post",
	}, env.cookieFor(user))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	comment := decodeBody[types.Comment](t, rec)
	if comment.UserID != user.ID || comment.PostID != "42" || comment.Content != "nice post" {
		t.Fatalf("unexpected comment %+v", comment)
	}
	if comment.NumberOfLikes != 0 || len(comment.Likes) != 0 {
		t.Fatal("new comment must start unliked")
	}

	rec = env.doJSON(http.MethodPost, "/comments", CreateCommentRequest{PostID: "42"}, env.cookieFor(user))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty content: expected 400, got %d", rec.Code)
	}
}

func TestToggleLikeIsItsOwnInverse(t *testing.T) {
	env := newTestEnv(t)
	author := env.addUser("author", "author@x.com", false)
	liker := env.addUser("liker", "liker@x.com", false)
	comment := env.addComment(t, author.ID, "1", "hello")

	path := fmt.Sprintf("/comments/like/%d", comment.ID)
	cookie := env.cookieFor(liker)

	first := decodeBody[types.Comment](t, env.doJSON(http.MethodPut, path, nil, cookie))
	if first.NumberOfLikes != 1 || len(first.Likes) != 1 || first.Likes[0] != liker.ID {
		t.Fatalf("after first toggle: %+v", first)
	}

	second := decodeBody[types.Comment](t, env.doJSON(http.MethodPut, path, nil, cookie))
	if second.NumberOfLikes != 0 || len(second.Likes) != 0 {
		t.Fatalf("second toggle must undo the first: %+v", second)
	}
}

func TestToggleLikeCounterMatchesSet(t *testing.T) {
	env := newTestEnv(t)
	author := env.addUser("author", "author@x.com", false)
	comment := env.addComment(t, author.ID, "1", "hello")
	path := fmt.Sprintf("/comments/like/%d", comment.ID)

	var last types.Comment
	for i := 0; i < 3; i++ {
		liker := env.addUser(fmt.Sprintf("u%d", i), fmt.Sprintf("u%d@x.com", i), false)
		last = decodeBody[types.Comment](t, env.doJSON(http.MethodPut, path, nil, env.cookieFor(liker)))
		if last.NumberOfLikes != len(last.Likes) {
			t.Fatalf("counter %d out of sync with set %v", last.NumberOfLikes, last.Likes)
		}
	}
	if last.NumberOfLikes != 3 {
		t.Fatalf("expected 3 likes, got %d", last.NumberOfLikes)
	}

	// The author toggling their own comment is allowed too.
	last = decodeBody[types.Comment](t, env.doJSON(http.MethodPut, path, nil, env.cookieFor(author)))
	if last.NumberOfLikes != 4 || len(last.Likes) != 4 {
		t.Fatalf("author like not counted: %+v", last)
	}
}

func TestToggleLikeMissingComment(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser("a", "a@x.com", false)

	rec := env.doJSON(http.MethodPut, "/comments/like/999", nil, env.cookieFor(user))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEditCommentOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner", "owner@x.com", false)
	other := env.addUser("other", "other@x.com", false)
	admin := env.addUser("admin", "admin@x.com", true)
	comment := env.addComment(t, owner.ID, "1", "original")
	path := fmt.Sprintf("/comments/%d", comment.ID)

	// Neither another user nor an admin may edit the comment body.
	for _, caller := range []types.User{other, admin} {
		rec := env.doJSON(http.MethodPut, path, EditCommentRequest{Content: "tampered"}, env.cookieFor(caller))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s edit: expected 403, got %d", caller.Username, rec.Code)
		}
	}
	if got, _ := env.comments.Get(t.Context(), comment.ID); got.Content != "original" {
		t.Fatalf("content changed by forbidden edit: %q", got.Content)
	}

	rec := env.doJSON(http.MethodPut, path, EditCommentRequest{Content: "revised"}, env.cookieFor(owner))
	if rec.Code != http.StatusOK {
		t.Fatalf("owner edit: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if updated := decodeBody[types.Comment](t, rec); updated.Content != "revised" {
		t.Fatalf("edit not applied: %q", updated.Content)
	}
}

func TestDeleteCommentOwnerOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.addUser("owner", "owner@x.com", false)
	other := env.addUser("other", "other@x.com", false)
	comment := env.addComment(t, owner.ID, "1", "hello")
	path := fmt.Sprintf("/comments/%d", comment.ID)

	rec := env.doJSON(http.MethodDelete, path, nil, env.cookieFor(other))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner delete: expected 403, got %d", rec.Code)
	}
	if _, err := env.comments.Get(t.Context(), comment.ID); err != nil {
		t.Fatal("comment must survive a forbidden delete")
	}

	rec = env.doJSON(http.MethodDelete, path, nil, env.cookieFor(owner))
	if rec.Code != http.StatusOK {
		t.Fatalf("owner delete: expected 200, got %d", rec.Code)
	}
	if _, err := env.comments.Get(t.Context(), comment.ID); err == nil {
		t.Fatal("comment should be gone")
	}
}

func TestListPostComments(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser("a", "a@x.com", false)
	env.addComment(t, user.ID, "p1", "first")
	env.addComment(t, user.ID, "p1", "second")
	env.addComment(t, user.ID, "p2", "elsewhere")

	rec := env.doJSON(http.MethodGet, "/comments/p1", nil, env.cookieFor(user))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	comments := decodeBody[[]types.Comment](t, rec)
	if len(comments) != 2 {
		t.Fatalf("expected 2 comments, got %d", len(comments))
	}
	if comments[0].Content != "second" || comments[1].Content != "first" {
		t.Fatalf("comments not newest-first: %+v", comments)
	}
}

func TestListCommentsAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	user := env.addUser("a", "a@x.com", false)
	admin := env.addUser("admin", "admin@x.com", true)
	env.addComment(t, user.ID, "1", "one")
	env.addComment(t, user.ID, "2", "two")

	rec := env.doJSON(http.MethodGet, "/comments", nil, env.cookieFor(user))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin list: expected 403, got %d", rec.Code)
	}

	rec = env.doJSON(http.MethodGet, "/comments", nil, env.cookieFor(admin))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin list: expected 200, got %d", rec.Code)
	}
	page := decodeBody[CommentListResponse](t, rec)
	if page.TotalComments != 2 || len(page.Comments) != 2 {
		t.Fatalf("unexpected page: total %d, %d comments", page.TotalComments, len(page.Comments))
	}
}
