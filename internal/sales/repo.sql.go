package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/royals-sales/royals/internal/platform/db"
	"github.com/royals-sales/royals/internal/shared"
)

// TxRepository is the slice of the repository available inside a
// recording or deletion transaction.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, productID int64) (*ProductRow, error)
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	RestoreStock(ctx context.Context, productID int64, quantity int) error
	InsertSale(ctx context.Context, sale Sale) (*Sale, error)
	GetSale(ctx context.Context, id int64) (*Sale, error)
	DeleteSale(ctx context.Context, id int64) error
}

// Repository defines persistence operations for the sales module.
type Repository interface {
	List(ctx context.Context) ([]Sale, error)
	GetByID(ctx context.Context, id int64) (*Sale, error)
	Stats(ctx context.Context, period string) (*Stats, error)
	InTx(ctx context.Context, fn func(TxRepository) error) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const saleColumns = `id, product_id, product_name, quantity, total, vat, recorded_by, created_by_user_id, created_by_user_name, created_at`

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.ProductID, &s.ProductName, &s.Quantity, &s.Total, &s.VAT,
		&s.RecordedBy, &s.CreatedByUserID, &s.CreatedBy, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns all sales, newest first.
func (r *PGRepository) List(ctx context.Context) ([]Sale, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+saleColumns+` FROM sales ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sales: list: %w", err)
	}
	defer rows.Close()

	out := make([]Sale, 0)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// GetByID fetches a single sale.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Sale, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	return scanSale(row)
}

// periodCondition maps a reporting period to its created_at predicate.
// "day" means the current calendar day, not the trailing 24 hours.
func periodCondition(period string) (string, error) {
	switch period {
	case "day":
		return "created_at >= date_trunc('day', NOW())", nil
	case "week":
		return "created_at >= NOW() - INTERVAL '7 days'", nil
	case "month":
		return "created_at >= NOW() - INTERVAL '30 days'", nil
	case "year":
		return "created_at >= NOW() - INTERVAL '365 days'", nil
	default:
		return "", shared.NewValidationError("Period must be one of: day, week, month, year")
	}
}

// Stats aggregates revenue, VAT and top products over the period.
func (r *PGRepository) Stats(ctx context.Context, period string) (*Stats, error) {
	condition, err := periodCondition(period)
	if err != nil {
		return nil, err
	}

	stats := Stats{Period: period, TopProducts: []TopProduct{}}
	err = r.pool.QueryRow(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(total), 0),
       COALESCE(SUM(vat), 0),
       COALESCE(AVG(total), 0)
FROM sales
WHERE `+condition).
		Scan(&stats.TotalSales, &stats.TotalRevenue, &stats.TotalVAT, &stats.AverageSaleValue)
	if err != nil {
		return nil, fmt.Errorf("sales: stats totals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT product_name, SUM(quantity), SUM(total)
FROM sales
WHERE `+condition+`
GROUP BY product_name
ORDER BY SUM(total) DESC
LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("sales: stats top products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tp TopProduct
		if err := rows.Scan(&tp.ProductName, &tp.Quantity, &tp.Revenue); err != nil {
			return nil, err
		}
		stats.TopProducts = append(stats.TopProducts, tp)
	}
	return &stats, rows.Err()
}

// InTx runs fn inside a RepeatableRead transaction against a tx-scoped
// repository.
func (r *PGRepository) InTx(ctx context.Context, fn func(TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&txRepository{tx: tx})
	})
}

type txRepository struct {
	tx pgx.Tx
}

// GetProductForUpdate re-reads the product under a row lock so the stock
// check and decrement act on the same value.
func (r *txRepository) GetProductForUpdate(ctx context.Context, productID int64) (*ProductRow, error) {
	var p ProductRow
	err := r.tx.QueryRow(ctx, `
SELECT id, name, price, stock FROM products WHERE id = $1 FOR UPDATE`, productID).
		Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// DecrementStock subtracts sold units. The guard clause backstops the
// FOR UPDATE check; stock never goes negative.
func (r *txRepository) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	tag, err := r.tx.Exec(ctx, `
UPDATE products SET stock = stock - $2, updated_at = NOW()
WHERE id = $1 AND stock >= $2`, productID, quantity)
	if err != nil {
		return fmt.Errorf("sales: decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &InsufficientStockError{}
	}
	return nil
}

// RestoreStock returns units to the shelf when a sale is deleted.
func (r *txRepository) RestoreStock(ctx context.Context, productID int64, quantity int) error {
	_, err := r.tx.Exec(ctx, `
UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`, productID, quantity)
	if err != nil {
		return fmt.Errorf("sales: restore stock: %w", err)
	}
	return nil
}

// InsertSale stores the snapshot row and returns it.
func (r *txRepository) InsertSale(ctx context.Context, sale Sale) (*Sale, error) {
	row := r.tx.QueryRow(ctx, `
INSERT INTO sales (product_id, product_name, quantity, total, vat, recorded_by, created_by_user_id, created_by_user_name)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+saleColumns,
		sale.ProductID, sale.ProductName, sale.Quantity, sale.Total, sale.VAT,
		sale.RecordedBy, sale.CreatedByUserID, sale.CreatedBy)
	return scanSale(row)
}

// GetSale fetches a sale inside the transaction.
func (r *txRepository) GetSale(ctx context.Context, id int64) (*Sale, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	return scanSale(row)
}

// DeleteSale removes a sale row.
func (r *txRepository) DeleteSale(ctx context.Context, id int64) error {
	tag, err := r.tx.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("sales: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
