package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/royals-sales/royals/internal/auth"
	"github.com/royals-sales/royals/internal/shared"
)

// Service wraps account administration rules. Every operation here sits
// behind the Admin role gate.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]Account, error) {
	return s.repo.List(ctx)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (*Account, error) {
	return s.repo.GetByID(ctx, id)
}

// Create adds an account. The password goes through the same policy as
// self-service signup, and the hash uses the same cost.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Account, error) {
	role := shared.RoleStaff
	if req.Role != "" {
		parsed, err := shared.ParseRole(req.Role)
		if err != nil {
			return nil, shared.NewValidationError("Role must be Admin or Staff")
		}
		role = parsed
	}
	if policy := auth.ValidatePassword(req.Password); !policy.Valid {
		return nil, &shared.ValidationError{Messages: policy.Errors}
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, Account{
		Username: req.Username,
		Email:    req.Email,
		Name:     req.Name,
		Phone:    req.Phone,
		Role:     role,
	}, hash)
}

// Update modifies an account. Admin accounts are immutable through this
// endpoint so one admin cannot demote or lock out another.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Account, error) {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.Role == shared.RoleAdmin {
		return nil, fmt.Errorf("%w: admin accounts cannot be modified", shared.ErrForbidden)
	}
	if req.Role != nil {
		if _, err := shared.ParseRole(*req.Role); err != nil {
			return nil, shared.NewValidationError("Role must be Admin or Staff")
		}
	}
	return s.repo.Update(ctx, id, req)
}

// Delete removes an account. Admin accounts cannot be deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	target, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if target.Role == shared.RoleAdmin {
		return fmt.Errorf("%w: admin accounts cannot be deleted", shared.ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}
