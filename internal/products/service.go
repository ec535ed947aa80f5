package products

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/royals-sales/royals/internal/shared"
)

// Invalidator bumps cached dashboard aggregates after a write.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service wraps catalog business rules.
type Service struct {
	repo   Repository
	cache  Invalidator
	logger *slog.Logger
}

// NewService constructs a new Service. cache may be nil.
func NewService(repo Repository, cache Invalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// List returns all products with derived status.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create adds a product to the catalog.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Product, error) {
	product, err := s.repo.Create(ctx, Product{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Stock:    *req.Stock,
		Image:    req.Image,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

// Update applies a partial update to a product.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Product, error) {
	product, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

// UpdateStock replaces the stock level of a product.
func (s *Service) UpdateStock(ctx context.Context, id int64, stock int) (*Product, error) {
	product, err := s.repo.UpdateStock(ctx, id, stock)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return product, nil
}

// Delete removes a product unless sales reference it. Referenced products
// must keep their row so sale history stays intact.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountSales(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: Cannot delete product with existing sales records", shared.ErrConflict)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump dashboard cache", slog.Any("error", err))
	}
}
