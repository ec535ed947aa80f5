package auth

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, repo *memoryAuthRepo) (chi.Router, *TokenManager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := NewTokenManager("test-secret", 15*time.Minute)
	svc := NewService(repo, tokens, &memoryEmailQueue{}, logger, ServiceConfig{})
	middleware := NewMiddleware(tokens, logger)
	handler := NewHandler(logger, svc, nil, middleware, "http://localhost:5173")

	r := chi.NewRouter()
	r.Route("/api/auth", handler.MountRoutes)
	return r, tokens
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandlerLogin(t *testing.T) {
	repo := newMemoryAuthRepo()
	router, _ := newTestRouter(t, repo)
	seedLocalUser(t, repo, "winter", "winter@example.com", strongPassword, true)

	rec := postJSON(t, router, "/api/auth/login", map[string]string{
		"username": "winter",
		"password": strongPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	require.Equal(t, "winter", body.User.Username)
}

func TestHandlerLoginBadCredentials(t *testing.T) {
	repo := newMemoryAuthRepo()
	router, _ := newTestRouter(t, repo)
	seedLocalUser(t, repo, "winter", "winter@example.com", strongPassword, true)

	rec := postJSON(t, router, "/api/auth/login", map[string]string{
		"username": "winter",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid username or password")
}

func TestHandlerLoginMissingFields(t *testing.T) {
	router, _ := newTestRouter(t, newMemoryAuthRepo())

	rec := postJSON(t, router, "/api/auth/login", map[string]string{"username": "winter"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerSignupWeakPassword(t *testing.T) {
	router, _ := newTestRouter(t, newMemoryAuthRepo())

	rec := postJSON(t, router, "/api/auth/signup", map[string]string{
		"username": "giselle",
		"email":    "giselle@example.com",
		"password": "weak",
		"name":     "Giselle",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Message string   `json:"message"`
		Errors  []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Errors)
}

func TestHandlerSignupReportsAllViolationsAtOnce(t *testing.T) {
	router, _ := newTestRouter(t, newMemoryAuthRepo())

	rec := postJSON(t, router, "/api/auth/signup", map[string]string{
		"username": "giselle",
		"email":    "not-an-email",
		"password": "weak",
		"name":     "Giselle",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Errors, "Email must be a valid email address")

	var passwordMentioned bool
	for _, msg := range body.Errors {
		if strings.Contains(msg, "Password") {
			passwordMentioned = true
		}
	}
	require.True(t, passwordMentioned)
}

func TestHandlerSignupCreated(t *testing.T) {
	router, _ := newTestRouter(t, newMemoryAuthRepo())

	rec := postJSON(t, router, "/api/auth/signup", map[string]string{
		"username": "giselle",
		"email":    "giselle@example.com",
		"password": strongPassword,
		"name":     "Giselle",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Contains(t, rec.Body.String(), `"emailSent":true`)
}

func TestHandlerMe(t *testing.T) {
	repo := newMemoryAuthRepo()
	router, tokens := newTestRouter(t, repo)
	user := seedLocalUser(t, repo, "winter", "winter@example.com", strongPassword, true)

	token, err := tokens.Issue(user.ID, user.Username, user.Role)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"username":"winter"`)
	require.NotContains(t, rec.Body.String(), "password")
}

func TestHandlerMeWithoutToken(t *testing.T) {
	router, _ := newTestRouter(t, newMemoryAuthRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "No token provided")
}

func TestHandlerPasswordResetDisabled(t *testing.T) {
	router, _ := newTestRouter(t, newMemoryAuthRepo())

	for _, path := range []string{"/api/auth/request-password-reset", "/api/auth/reset-password"} {
		rec := postJSON(t, router, path, map[string]string{"email": "winter@example.com"})
		require.Equal(t, http.StatusNotImplemented, rec.Code)
		require.Contains(t, rec.Body.String(), "Password reset is not available")
	}
}

func TestHandlerGoogleUnconfiguredRedirects(t *testing.T) {
	router, _ := newTestRouter(t, newMemoryAuthRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "http://localhost:5173/login?error=oauth_failed", rec.Header().Get("Location"))
}

func TestHandlerLogout(t *testing.T) {
	repo := newMemoryAuthRepo()
	router, tokens := newTestRouter(t, repo)
	user := seedLocalUser(t, repo, "winter", "winter@example.com", strongPassword, true)
	token, err := tokens.Issue(user.ID, user.Username, user.Role)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Logged out successfully")
}
