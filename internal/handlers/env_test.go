package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bloghub/apiserver/internal/services"
	"github.com/bloghub/apiserver/internal/token"
	"github.com/bloghub/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// testEnv wires the real handlers, services, and token issuer over in-memory
// repositories, mirroring the route tree the server builds.
type testEnv struct {
	t        *testing.T
	router   *chi.Mux
	issuer   *token.HMACIssuer
	users    *memUserRepo
	posts    *memPostRepo
	comments *memCommentRepo
	media    *memMedia
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	users := newMemUserRepo()
	posts := newMemPostRepo()
	comments := newMemCommentRepo()
	media := &memMedia{}
	issuer := token.NewHMACIssuer("test-secret")
	events := services.NewEventPublisher(nil, log)

	userService := services.NewUserService(users)
	postService := services.NewPostService(posts, media, events, log)
	commentService := services.NewCommentService(comments, events)

	authMiddleware := RequireAuth(issuer)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, userService, issuer)
	})
	router.Route("/users", func(r chi.Router) {
		r.Use(authMiddleware)
		UserRouter(r, userService, media, issuer)
	})
	router.Route("/posts", func(r chi.Router) {
		r.Use(authMiddleware)
		PostRouter(r, postService)
	})
	router.Route("/comments", func(r chi.Router) {
		r.Use(authMiddleware)
		CommentRouter(r, commentService)
	})

	return &testEnv{
		t:        t,
		router:   router,
		issuer:   issuer,
		users:    users,
		posts:    posts,
		comments: comments,
		media:    media,
	}
}

// addUser seeds an account directly in the repository.
func (e *testEnv) addUser(username, email string, admin bool) types.User {
	e.t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		e.t.Fatalf("hash password: %v", err)
	}
	user, err := e.users.Create(e.t.Context(), types.User{
		Username:     username,
		Email:        email,
		Admin:        admin,
		PasswordHash: string(hashed),
	})
	if err != nil {
		e.t.Fatalf("seed user: %v", err)
	}
	return user
}

// cookieFor mints a valid session cookie for the user.
func (e *testEnv) cookieFor(user types.User) *http.Cookie {
	e.t.Helper()
	signed, err := e.issuer.Issue(token.Claims{
		UserID:         user.ID,
		Username:       user.Username,
		Admin:          user.Admin,
		Email:          user.Email,
		ProfilePicture: user.ProfilePicture,
	})
	if err != nil {
		e.t.Fatalf("issue token: %v", err)
	}
	return &http.Cookie{Name: "jwt", Value: signed}
}

// doJSON sends a JSON request through the router.
func (e *testEnv) doJSON(method, path string, payload any, cookie *http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			e.t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// doMultipart sends a multipart form request, with an optional file under
// the "image" field.
func (e *testEnv) doMultipart(method, path string, fields map[string]string, imageName string, imageData []byte, cookie *http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			e.t.Fatalf("write field: %v", err)
		}
	}
	if imageName != "" {
		part, err := writer.CreateFormFile("image", imageName)
		if err != nil {
			e.t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(imageData); err != nil {
			e.t.Fatalf("write image: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		e.t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	if err := json.NewDecoder(rec.Body).Decode(&value); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return value
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "jwt" {
			return cookie
		}
	}
	return nil
}
