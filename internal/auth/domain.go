package auth

import (
	"time"

	"github.com/royals-sales/royals/internal/shared"
)

// User represents an account row. PasswordHash is nil for OAuth-only
// accounts that never set a local password.
type User struct {
	ID             int64       `json:"id"`
	Username       string      `json:"username"`
	Email          string      `json:"email"`
	Name           string      `json:"name"`
	Phone          *string     `json:"phone,omitempty"`
	PasswordHash   *string     `json:"-"`
	Role           shared.Role `json:"role"`
	IsActive       bool        `json:"is_active"`
	EmailVerified  bool        `json:"email_verified"`
	VerifyToken    *string     `json:"-"`
	VerifyExpiry   *time.Time  `json:"-"`
	LastLoginAt    *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// Projection is the safe user shape returned to the SPA.
type Projection struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Role     shared.Role `json:"role"`
}

// Project strips credential fields from a User.
func (u User) Project() Projection {
	return Projection{ID: u.ID, Username: u.Username, Name: u.Name, Email: u.Email, Role: u.Role}
}

// OAuthIdentity links a third-party provider account to a local user.
type OAuthIdentity struct {
	ID             int64
	UserID         int64
	Provider       string
	ProviderUserID string
	Email          string
	Name           string
	AvatarURL      *string
	AccessToken    *string
	RefreshToken   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OAuthProfile is what the provider hands back after a successful
// exchange; the service never sees raw OAuth codes.
type OAuthProfile struct {
	Provider       string
	ProviderUserID string
	Email          string
	Name           string
	AvatarURL      string
	AccessToken    string
	RefreshToken   string
}

// LoginRequest is the POST /auth/login body.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignupRequest is the POST /auth/signup body. Only presence is checked
// by tags; format rules live in Service.Signup so every violation comes
// back in one response.
type SignupRequest struct {
	Username string  `json:"username" validate:"required"`
	Email    string  `json:"email" validate:"required"`
	Password string  `json:"password" validate:"required"`
	Name     string  `json:"name" validate:"required,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

// VerifyEmailRequest is the POST /auth/verify-email body.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// ResendVerificationRequest is the POST /auth/resend-verification body.
type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginResult bundles the issued token with the user projection.
type LoginResult struct {
	Token string     `json:"token"`
	User  Projection `json:"user"`
}

// SignupResult reports the created account and whether the verification
// email was handed to the queue.
type SignupResult struct {
	Message   string `json:"message"`
	UserID    int64  `json:"userId"`
	EmailSent bool   `json:"emailSent"`
}
