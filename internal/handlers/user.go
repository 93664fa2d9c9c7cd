package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bloghub/apiserver/internal/services"
	"github.com/bloghub/apiserver/internal/store"
	"github.com/bloghub/apiserver/internal/token"
	"github.com/bloghub/apiserver/types"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

const avatarFolder = "avatars"
const maxAvatarBytes = 8 << 20

// UserHandler provides HTTP handlers for user accounts.
type UserHandler struct {
	userService *services.UserService
	media       services.MediaStorage
	issuer      token.Issuer
}

// NewUserHandler constructs a handler with the provided dependencies.
func NewUserHandler(userService *services.UserService, media services.MediaStorage, issuer token.Issuer) *UserHandler {
	return &UserHandler{
		userService: userService,
		media:       media,
		issuer:      issuer,
	}
}

// UserRouter registers user routes on the given router. The auth guard is
// applied by the server before this router.
func UserRouter(r chi.Router, userService *services.UserService, media services.MediaStorage, issuer token.Issuer) {
	handler := NewUserHandler(userService, media, issuer)

	r.Get("/", handler.ListUsers)
	r.Put("/profile-picture", handler.UpdateProfilePicture)
	r.Put("/update/{userID}", handler.UpdateUser)
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.Delete("/", handler.DeleteUser)
	})
}

// ListUsers returns a page of accounts. Admin only.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
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

	users, total, err := h.userService.List(r.Context(), startIndex, limit, ascending)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{Users: users, TotalUsers: total})
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateUser applies a partial account update. Self or admin. A successful
// update re-issues the session cookie so the embedded claims stay fresh.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !isSelfOrAdmin(claims, id) {
		writeError(w, http.StatusForbidden, "you can update only your account")
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	if username := strings.TrimSpace(req.Username); username != "" {
		user.Username = username
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		user.Email = email
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update user")
			return
		}
		user.PasswordHash = string(hashed)
	}
	// Only an admin may grant or revoke the admin flag.
	if req.Admin != nil && claims.Admin {
		user.Admin = *req.Admin
	}

	updated, err := h.userService.Update(r.Context(), user)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "username or email already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	if err := setSessionCookie(w, h.issuer, updated); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{Message: "user updated successfully", User: updated})
}

// UpdateProfilePicture uploads a new avatar for the calling user.
func (h *UserHandler) UpdateProfilePicture(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	image, err := parseImageFile(r, "image", maxAvatarBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if image == nil {
		writeError(w, http.StatusBadRequest, "no profile picture")
		return
	}

	user, err := h.userService.GetByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	url, err := h.media.Upload(r.Context(), avatarFolder, image.Filename, image.Data, image.ContentType)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to upload profile picture")
		return
	}

	previous := user.ProfilePicture
	user.ProfilePicture = url
	updated, err := h.userService.Update(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	if previous != "" {
		// Best effort; URLs outside the bucket are skipped by the media layer.
		_ = h.media.Remove(r.Context(), previous)
	}

	if err := setSessionCookie(w, h.issuer, updated); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{Message: "profile picture updated successfully", User: updated})
}

// DeleteUser removes an account. Self or admin.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !isSelfOrAdmin(claims, id) {
		writeError(w, http.StatusForbidden, "you can delete only your account")
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{Message: "user deleted successfully", User: user})
}

// UserListResponse is the paginated list response payload.
type UserListResponse struct {
	Users      []types.User `json:"users"`
	TotalUsers int          `json:"totalUsers"`
}

// UserResponse pairs a confirmation message with the affected user.
type UserResponse struct {
	Message string     `json:"message"`
	User    types.User `json:"user"`
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Admin    *bool  `json:"admin"`
}

func parseUserID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid user id")
	}
	return id, nil
}
