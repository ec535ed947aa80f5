package sales

import (
	"context"
	"log/slog"

	"github.com/royals-sales/royals/internal/shared"
)

// Invalidator bumps cached dashboard aggregates after a write.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service wraps sale transaction business rules.
type Service struct {
	repo   Repository
	cache  Invalidator
	logger *slog.Logger
}

// NewService constructs a new Service. cache may be nil.
func NewService(repo Repository, cache Invalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// List returns all recorded sales.
func (s *Service) List(ctx context.Context) ([]Sale, error) {
	return s.repo.List(ctx)
}

// Get returns one sale.
func (s *Service) Get(ctx context.Context, id int64) (*Sale, error) {
	return s.repo.GetByID(ctx, id)
}

// Create records a sale. The product is re-read under a row lock inside
// the transaction, so a stale stock figure from an earlier read can never
// oversell. Total and VAT are snapshotted from the locked row.
func (s *Service) Create(ctx context.Context, actor shared.Identity, req CreateRequest) (*Sale, error) {
	var created *Sale
	err := s.repo.InTx(ctx, func(tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, req.ProductID)
		if err != nil {
			return err
		}
		if product.Stock < req.Quantity {
			return &InsufficientStockError{Available: product.Stock}
		}

		total := product.Price * float64(req.Quantity)
		sale := Sale{
			ProductID:       product.ID,
			ProductName:     product.Name,
			Quantity:        req.Quantity,
			Total:           total,
			VAT:             VATPortion(total),
			RecordedBy:      req.RecordedBy,
			CreatedByUserID: actor.UserID,
			CreatedBy:       actor.Username,
		}
		created, err = tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		return tx.DecrementStock(ctx, product.ID, req.Quantity)
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return created, nil
}

// Delete removes a sale and restores the sold units to stock. Both happen
// in one transaction or not at all.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.InTx(ctx, func(tx TxRepository) error {
		sale, err := tx.GetSale(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.RestoreStock(ctx, sale.ProductID, sale.Quantity); err != nil {
			return err
		}
		return tx.DeleteSale(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// Stats aggregates sales over the reporting period.
func (s *Service) Stats(ctx context.Context, period string) (*Stats, error) {
	if period == "" {
		period = "month"
	}
	return s.repo.Stats(ctx, period)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump dashboard cache", slog.Any("error", err))
	}
}
