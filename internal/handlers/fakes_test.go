package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bloghub/apiserver/internal/store"
	"github.com/bloghub/apiserver/types"
)

// The fakes below implement the service repository interfaces with the same
// semantics as the SQL repositories: sentinel errors, uniqueness conflicts,
// sorted pagination, and the likes-set/counter invariant.

var fakeClock = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func nextTimestamp(seq int) time.Time {
	return fakeClock.Add(time.Duration(seq) * time.Second)
}

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[int]types.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int]types.User)}
}

func (r *memUserRepo) GetByID(ctx context.Context, id int) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (r *memUserRepo) List(ctx context.Context, offset, limit int, ascending bool) ([]types.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]types.User, 0, len(r.users))
	for _, user := range r.users {
		all = append(all, user)
	}
	sort.Slice(all, func(i, j int) bool {
		if ascending {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return pageOf(all, offset, limit), len(all), nil
}

func (r *memUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	r.seq++
	user.ID = r.seq
	user.CreatedAt = nextTimestamp(r.seq)
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Update(ctx context.Context, user types.User) (types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	for id, existing := range r.users {
		if id == user.ID {
			continue
		}
		if existing.Username == user.Username || existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	r.users[user.ID] = user
	return user, nil
}

func (r *memUserRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type memPostRepo struct {
	mu    sync.Mutex
	seq   int
	posts map[int]types.Post
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: make(map[int]types.Post)}
}

func (r *memPostRepo) matches(post types.Post, filter store.PostFilter) bool {
	if filter.UserID != 0 && post.UserID != filter.UserID {
		return false
	}
	if filter.Category != "" && post.Category != filter.Category {
		return false
	}
	if filter.Slug != "" && post.Slug != filter.Slug {
		return false
	}
	if filter.PostID != 0 && post.ID != filter.PostID {
		return false
	}
	if filter.SearchTerm != "" {
		term := strings.ToLower(filter.SearchTerm)
		if !strings.Contains(strings.ToLower(post.Title), term) &&
			!strings.Contains(strings.ToLower(post.Content), term) {
			return false
		}
	}
	return true
}

func (r *memPostRepo) List(ctx context.Context, filter store.PostFilter, offset, limit int, ascending bool) ([]types.Post, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]types.Post, 0, len(r.posts))
	for _, post := range r.posts {
		if r.matches(post, filter) {
			matched = append(matched, post)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if ascending {
			return matched[i].UpdatedAt.Before(matched[j].UpdatedAt)
		}
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})
	return pageOf(matched, offset, limit), len(r.posts), nil
}

func (r *memPostRepo) Get(ctx context.Context, id int) (types.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return types.Post{}, store.ErrNotFound
	}
	return post, nil
}

func (r *memPostRepo) Create(ctx context.Context, post types.Post) (types.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.posts {
		if existing.Title == post.Title || existing.Slug == post.Slug {
			return types.Post{}, store.ErrConflict
		}
	}
	r.seq++
	post.ID = r.seq
	post.CreatedAt = nextTimestamp(r.seq)
	post.UpdatedAt = post.CreatedAt
	r.posts[post.ID] = post
	return post, nil
}

func (r *memPostRepo) Update(ctx context.Context, post types.Post) (types.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[post.ID]; !ok {
		return types.Post{}, store.ErrNotFound
	}
	for id, existing := range r.posts {
		if id == post.ID {
			continue
		}
		if existing.Title == post.Title || existing.Slug == post.Slug {
			return types.Post{}, store.ErrConflict
		}
	}
	r.seq++
	post.UpdatedAt = nextTimestamp(r.seq)
	r.posts[post.ID] = post
	return post, nil
}

func (r *memPostRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

type memCommentRepo struct {
	mu       sync.Mutex
	seq      int
	comments map[int]types.Comment
	likes    map[int]map[int]bool
}

func newMemCommentRepo() *memCommentRepo {
	return &memCommentRepo{
		comments: make(map[int]types.Comment),
		likes:    make(map[int]map[int]bool),
	}
}

func (r *memCommentRepo) withLikes(comment types.Comment) types.Comment {
	likes := make([]int, 0, len(r.likes[comment.ID]))
	for userID := range r.likes[comment.ID] {
		likes = append(likes, userID)
	}
	sort.Ints(likes)
	comment.Likes = likes
	comment.NumberOfLikes = len(likes)
	return comment
}

func (r *memCommentRepo) Get(ctx context.Context, id int) (types.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return types.Comment{}, store.ErrNotFound
	}
	return r.withLikes(comment), nil
}

func (r *memCommentRepo) List(ctx context.Context, offset, limit int, ascending bool) ([]types.Comment, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]types.Comment, 0, len(r.comments))
	for _, comment := range r.comments {
		all = append(all, r.withLikes(comment))
	}
	sort.Slice(all, func(i, j int) bool {
		if ascending {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return pageOf(all, offset, limit), len(all), nil
}

func (r *memCommentRepo) ListByPost(ctx context.Context, postID string) ([]types.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matched := make([]types.Comment, 0)
	for _, comment := range r.comments {
		if comment.PostID == postID {
			matched = append(matched, r.withLikes(comment))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (r *memCommentRepo) Create(ctx context.Context, comment types.Comment) (types.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	comment.ID = r.seq
	comment.CreatedAt = nextTimestamp(r.seq)
	comment.UpdatedAt = comment.CreatedAt
	r.comments[comment.ID] = comment
	return r.withLikes(comment), nil
}

func (r *memCommentRepo) UpdateContent(ctx context.Context, id int, content string) (types.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return types.Comment{}, store.ErrNotFound
	}
	comment.Content = content
	r.seq++
	comment.UpdatedAt = nextTimestamp(r.seq)
	r.comments[id] = comment
	return r.withLikes(comment), nil
}

func (r *memCommentRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(r.comments, id)
	delete(r.likes, id)
	return nil
}

func (r *memCommentRepo) ToggleLike(ctx context.Context, id, userID int) (types.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	comment, ok := r.comments[id]
	if !ok {
		return types.Comment{}, store.ErrNotFound
	}
	if r.likes[id] == nil {
		r.likes[id] = make(map[int]bool)
	}
	if r.likes[id][userID] {
		delete(r.likes[id], userID)
	} else {
		r.likes[id][userID] = true
	}
	return r.withLikes(comment), nil
}

// memMedia fakes the media host with deterministic URLs.
type memMedia struct {
	mu      sync.Mutex
	uploads int
	removed []string
}

func (m *memMedia) Upload(ctx context.Context, folder, filename string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads++
	return fmt.Sprintf("https://media.test/%s/%d-%s", folder, m.uploads, filename), nil
}

func (m *memMedia) Remove(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, url)
	return nil
}

func pageOf[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
