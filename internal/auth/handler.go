package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/royals-sales/royals/internal/platform/httpx"
	"github.com/royals-sales/royals/internal/shared"
)

// oauthStateCookie carries the anti-forgery state across the Google
// redirect round-trip.
const oauthStateCookie = "royals_oauth_state"

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	google      *GoogleOAuth
	middleware  *Middleware
	validator   *validator.Validate
	frontendURL string
}

// NewHandler constructs a Handler instance. google may be nil when OAuth
// credentials are not configured.
func NewHandler(logger *slog.Logger, service *Service, google *GoogleOAuth, middleware *Middleware, frontendURL string) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		google:      google,
		middleware:  middleware,
		validator:   validator.New(),
		frontendURL: frontendURL,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/signup", h.handleSignup)
	r.Post("/verify-email", h.handleVerifyEmail)
	r.Post("/resend-verification", h.handleResendVerification)
	r.Post("/request-password-reset", h.handlePasswordResetDisabled)
	r.Post("/reset-password", h.handlePasswordResetDisabled)

	r.Get("/google", h.handleGoogleRedirect)
	r.Get("/google/callback", h.handleGoogleCallback)

	r.Group(func(r chi.Router) {
		r.Use(h.middleware.Authenticate)
		r.Get("/me", h.handleMe)
		r.Post("/logout", h.handleLogout)
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ValidationFailed(w, httpx.ValidationMessages(err))
		return
	}
	result, err := h.service.Signup(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Verification token is required")
		return
	}
	if err := h.service.VerifyEmail(r.Context(), req.Token); err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Email verified successfully. You can now log in.")
}

func (h *Handler) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendVerificationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Message(w, http.StatusBadRequest, "A valid email address is required")
		return
	}
	if err := h.service.ResendVerification(r.Context(), req.Email); err != nil {
		if errors.Is(err, ErrAlreadyVerified) {
			httpx.Message(w, http.StatusBadRequest, "Email is already verified")
			return
		}
		httpx.RespondError(w, h.logger, err)
		return
	}
	// Same body whether or not the address exists.
	httpx.Message(w, http.StatusOK, "If the address is registered, a verification email has been sent.")
}

func (h *Handler) handlePasswordResetDisabled(w http.ResponseWriter, r *http.Request) {
	httpx.Message(w, http.StatusNotImplemented, "Password reset is not available")
}

func (h *Handler) handleGoogleRedirect(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		h.redirectWithError(w, r)
		return
	}
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   int((5 * time.Minute).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.google.AuthCodeURL(state), http.StatusFound)
}

func (h *Handler) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		h.redirectWithError(w, r)
		return
	}
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		h.redirectWithError(w, r)
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectWithError(w, r)
		return
	}
	profile, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn("google oauth exchange failed", slog.Any("error", err))
		h.redirectWithError(w, r)
		return
	}
	result, err := h.service.CompleteOAuth(r.Context(), *profile)
	if err != nil {
		h.logger.Error("complete oauth login", slog.Any("error", err))
		h.redirectWithError(w, r)
		return
	}
	target := h.frontendURL + "/auth/callback?token=" + url.QueryEscape(result.Token)
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) redirectWithError(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.frontendURL+"/login?error=oauth_failed", http.StatusFound)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.Message(w, http.StatusUnauthorized, "No token provided")
		return
	}
	projection, err := h.service.Me(r.Context(), identity.UserID)
	if err != nil {
		httpx.RespondError(w, h.logger, err)
		return
	}
	httpx.JSON(w, http.StatusOK, projection)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless; the client discards its copy.
	httpx.Message(w, http.StatusOK, "Logged out successfully")
}
