package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bloghub/apiserver/internal/services"
	"github.com/bloghub/apiserver/internal/store"
	"github.com/bloghub/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	maxMultipartMemory = 32 << 20
	maxImageBytes      = 16 << 20

	formFieldImage    = "image"
	formFieldTitle    = "title"
	formFieldContent  = "content"
	formFieldCategory = "category"
	formFieldSlug     = "slug"
)

// PostHandler provides HTTP handlers for posts.
type PostHandler struct {
	postService *services.PostService
}

// NewPostHandler constructs a handler with the provided service.
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// PostRouter registers post routes on the given router. The auth guard is
// applied by the server before this router.
func PostRouter(r chi.Router, postService *services.PostService) {
	handler := NewPostHandler(postService)

	r.Get("/", handler.ListPosts)
	r.Post("/", handler.CreatePost)
	r.Route("/{postID}", func(r chi.Router) {
		r.Put("/", handler.UpdatePost)
		r.Delete("/", handler.DeletePost)
	})
}

// ListPosts returns a filtered, sorted page of posts.
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	startIndex, limit, ascending, err := parseListParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter, err := parsePostFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	posts, total, err := h.postService.List(r.Context(), filter, startIndex, limit, ascending)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}

	writeJSON(w, http.StatusOK, PostListResponse{Posts: posts, TotalPosts: total})
}

// CreatePost stores a new post for the calling user, hosting the uploaded
// image if one was attached.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue(formFieldTitle))
	content := strings.TrimSpace(r.FormValue(formFieldContent))
	if title == "" || content == "" {
		writeError(w, http.StatusBadRequest, "please enter all required fields")
		return
	}

	image, err := parseImageFile(r, formFieldImage, maxImageBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post := types.Post{
		UserID:   claims.UserID,
		Title:    title,
		Content:  content,
		Category: strings.TrimSpace(r.FormValue(formFieldCategory)),
	}

	created, err := h.postService.Create(r.Context(), post, image)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "a post with this title already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create post")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// UpdatePost applies a partial update. Owner or admin.
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parsePostID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.postService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch post")
		return
	}

	if !isOwnerOrAdmin(claims, post.UserID) {
		writeError(w, http.StatusForbidden, "you can update only your own posts")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	image, err := parseImageFile(r, formFieldImage, maxImageBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	update := services.PostUpdate{
		Title:    optionalFormValue(r, formFieldTitle),
		Slug:     optionalFormValue(r, formFieldSlug),
		Content:  optionalFormValue(r, formFieldContent),
		Category: optionalFormValue(r, formFieldCategory),
	}

	updated, err := h.postService.Update(r.Context(), post, update, image)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "a post with this title already exists")
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update post")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// DeletePost removes a post. Owner or admin.
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parsePostID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.postService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch post")
		return
	}

	if !isOwnerOrAdmin(claims, post.UserID) {
		writeError(w, http.StatusForbidden, "you can only delete your own posts")
		return
	}

	if err := h.postService.Delete(r.Context(), post); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete post")
		return
	}

	writeJSON(w, http.StatusOK, post)
}

// PostListResponse is the paginated list response payload. TotalPosts is the
// unfiltered collection size.
type PostListResponse struct {
	Posts      []types.Post `json:"posts"`
	TotalPosts int          `json:"totalPosts"`
}

func parsePostID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "postID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid post id")
	}
	return id, nil
}

// parsePostFilter builds the typed listing filter from optional query
// parameters.
func parsePostFilter(r *http.Request) (store.PostFilter, error) {
	query := r.URL.Query()
	filter := store.PostFilter{
		Category:   strings.TrimSpace(query.Get("category")),
		Slug:       strings.TrimSpace(query.Get("slug")),
		SearchTerm: strings.TrimSpace(query.Get("searchTerm")),
	}

	if raw := strings.TrimSpace(query.Get("userId")); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			return store.PostFilter{}, errors.New("invalid userId")
		}
		filter.UserID = id
	}
	if raw := strings.TrimSpace(query.Get("postId")); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			return store.PostFilter{}, errors.New("invalid postId")
		}
		filter.PostID = id
	}
	return filter, nil
}

func optionalFormValue(r *http.Request, field string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[field]
	if !ok || len(values) == 0 {
		return nil
	}
	value := strings.TrimSpace(values[0])
	return &value
}

// parseImageFile reads an optional uploaded image from the multipart form.
// Returns nil when the field is absent.
func parseImageFile(r *http.Request, field string, limit int64) (*services.ImageUpload, error) {
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, nil
		}
	}

	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, errors.New("only one image is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	data, err := readFileLimited(file, limit)
	_ = file.Close()
	if err != nil {
		return nil, err
	}

	return &services.ImageUpload{
		Filename:    fileHeader.Filename,
		Data:        data,
		ContentType: fileHeader.Header.Get("Content-Type"),
	}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
