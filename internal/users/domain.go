package users

import (
	"time"

	"github.com/royals-sales/royals/internal/shared"
)

// Account is the admin-facing view of a user row. Credential fields never
// leave the repository.
type Account struct {
	ID            int64       `json:"id"`
	Username      string      `json:"username"`
	Email         string      `json:"email"`
	Name          string      `json:"name"`
	Phone         *string     `json:"phone,omitempty"`
	Role          shared.Role `json:"role"`
	IsActive      bool        `json:"is_active"`
	EmailVerified bool        `json:"email_verified"`
	LastLoginAt   *time.Time  `json:"last_login_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// CreateRequest is the POST /users body. Role defaults to Staff when
// omitted.
type CreateRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=30"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Name     string  `json:"name" validate:"required,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Role     string  `json:"role" validate:"omitempty"`
}

// UpdateRequest is the PUT /users/{id} body. Absent fields keep their
// current value.
type UpdateRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Role     *string `json:"role" validate:"omitempty"`
	IsActive *bool   `json:"is_active" validate:"omitempty"`
}
