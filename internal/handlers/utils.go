package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bloghub/apiserver/internal/token"
)

type contextKey string

const contextClaimsKey contextKey = "claims"

const (
	defaultStartIndex = 0
	defaultLimit      = 10
	maxLimit          = 100
)

var errNoIdentity = errors.New("no identity in context")

// claimsFromContext returns the identity the auth guard attached.
func claimsFromContext(ctx context.Context) (token.Claims, error) {
	claims, ok := ctx.Value(contextClaimsKey).(token.Claims)
	if !ok || claims.UserID < 1 {
		return token.Claims{}, errNoIdentity
	}
	return claims, nil
}

// isAdmin reports whether the identity holds the admin flag.
func isAdmin(claims token.Claims) bool {
	return claims.Admin
}

// isSelfOrAdmin reports whether the identity may act on the given account.
func isSelfOrAdmin(claims token.Claims, userID int) bool {
	return claims.Admin || claims.UserID == userID
}

// isOwnerOrAdmin reports whether the identity may act on a resource owned
// by ownerID.
func isOwnerOrAdmin(claims token.Claims, ownerID int) bool {
	return claims.Admin || claims.UserID == ownerID
}

// isOwner reports whether the identity owns the resource. Admins get no
// shortcut here: comment edits and deletions are owner-only.
func isOwner(claims token.Claims, ownerID int) bool {
	return claims.UserID == ownerID
}

// parseListParams reads the startIndex/limit/sort query parameters shared by
// every list endpoint.
func parseListParams(r *http.Request) (startIndex, limit int, ascending bool, err error) {
	startIndex = defaultStartIndex
	limit = defaultLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("startIndex")); raw != "" {
		startIndex, err = strconv.Atoi(raw)
		if err != nil || startIndex < 0 {
			return 0, 0, false, errors.New("invalid startIndex")
		}
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, false, errors.New("invalid limit")
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	ascending = r.URL.Query().Get("sort") == "asc"
	return startIndex, limit, ascending, nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}
