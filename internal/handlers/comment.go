package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bloghub/apiserver/internal/services"
	"github.com/bloghub/apiserver/internal/store"
	"github.com/bloghub/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// CommentHandler provides HTTP handlers for comments.
type CommentHandler struct {
	commentService *services.CommentService
}

// NewCommentHandler constructs a handler with the provided service.
func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// CommentRouter registers comment routes on the given router. The auth guard
// is applied by the server before this router.
func CommentRouter(r chi.Router, commentService *services.CommentService) {
	handler := NewCommentHandler(commentService)

	r.Get("/", handler.ListComments)
	r.Post("/", handler.CreateComment)
	r.Get("/{postID}", handler.ListPostComments)
	r.Put("/like/{commentID}", handler.ToggleLike)
	r.Put("/{commentID}", handler.EditComment)
	r.Delete("/{commentID}", handler.DeleteComment)
}

// ListComments returns a page of all comments. Admin only.
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !isAdmin(claims) {
		writeError(w, http.StatusForbidden, "you are not admin")
		return
	}

	startIndex, limit, ascending, err := parseListParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comments, total, err := h.commentService.List(r.Context(), startIndex, limit, ascending)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list comments")
		return
	}

	writeJSON(w, http.StatusOK, CommentListResponse{Comments: comments, TotalComments: total})
}

// CreateComment stores a new comment for the calling user.
func (h *CommentHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.PostID = strings.TrimSpace(req.PostID)
	req.Content = strings.TrimSpace(req.Content)
	if req.PostID == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "please enter all fields")
		return
	}

	comment, err := h.commentService.Create(r.Context(), types.Comment{
		UserID:  claims.UserID,
		PostID:  req.PostID,
		Content: req.Content,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create comment")
		return
	}

	writeJSON(w, http.StatusOK, comment)
}

// ListPostComments returns a post's comments, newest first.
func (h *CommentHandler) ListPostComments(w http.ResponseWriter, r *http.Request) {
	postID := strings.TrimSpace(chi.URLParam(r, "postID"))
	if postID == "" {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}

	comments, err := h.commentService.ListByPost(r.Context(), postID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list comments")
		return
	}

	writeJSON(w, http.StatusOK, comments)
}

// ToggleLike flips the caller's like on a comment. Any authenticated
// identity may toggle; two consecutive toggles cancel out.
func (h *CommentHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseCommentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := h.commentService.ToggleLike(r.Context(), id, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "comment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to like comment")
		return
	}

	writeJSON(w, http.StatusOK, comment)
}

// EditComment replaces a comment's content. Owner only.
func (h *CommentHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseCommentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := h.commentService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "comment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch comment")
		return
	}

	if !isOwner(claims, comment.UserID) {
		writeError(w, http.StatusForbidden, "you can edit only your comments")
		return
	}

	var req EditCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "please enter all fields")
		return
	}

	updated, err := h.commentService.UpdateContent(r.Context(), id, req.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "comment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update comment")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeleteComment removes a comment. Owner only.
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseCommentID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comment, err := h.commentService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "comment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch comment")
		return
	}

	if !isOwner(claims, comment.UserID) {
		writeError(w, http.StatusForbidden, "you can delete only your comments")
		return
	}

	if err := h.commentService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "comment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete comment")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "comment deleted successfully"})
}

// CommentListResponse is the paginated list response payload.
type CommentListResponse struct {
	Comments      []types.Comment `json:"comments"`
	TotalComments int             `json:"totalComments"`
}

type CreateCommentRequest struct {
	PostID  string `json:"postId"`
	Content string `json:"content"`
}

type EditCommentRequest struct {
	Content string `json:"content"`
}

func parseCommentID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "commentID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid comment id")
	}
	return id, nil
}
