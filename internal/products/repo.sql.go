package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/royals-sales/royals/internal/shared"
)

// Repository defines persistence operations for the products module.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p Product) (*Product, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Product, error)
	UpdateStock(ctx context.Context, id int64, stock int) (*Product, error)
	Delete(ctx context.Context, id int64) error
	CountSales(ctx context.Context, productID int64) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// productColumns derives status in SQL so every read path agrees on the
// low stock rule.
const productColumns = `id, name, category, price, stock, image,
CASE WHEN stock <= 10 THEN 'Low Stock' ELSE 'In Stock' END AS status,
created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock, &p.Image, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns all products, newest first.
func (r *PGRepository) List(ctx context.Context) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("products: list: %w", err)
	}
	defer rows.Close()

	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetByID fetches a single product.
func (r *PGRepository) GetByID(ctx context.Context, id int64) (*Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// Create inserts a product and returns the stored row.
func (r *PGRepository) Create(ctx context.Context, p Product) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO products (name, category, price, stock, image)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+productColumns,
		p.Name, p.Category, p.Price, p.Stock, p.Image)
	return scanProduct(row)
}

// Update applies a partial update. COALESCE keeps current values for
// absent fields.
func (r *PGRepository) Update(ctx context.Context, id int64, req UpdateRequest) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE products
SET name = COALESCE($2, name),
    category = COALESCE($3, category),
    price = COALESCE($4, price),
    stock = COALESCE($5, stock),
    image = COALESCE($6, image),
    updated_at = NOW()
WHERE id = $1
RETURNING `+productColumns,
		id, req.Name, req.Category, req.Price, req.Stock, req.Image)
	return scanProduct(row)
}

// UpdateStock sets the absolute stock level.
func (r *PGRepository) UpdateStock(ctx context.Context, id int64, stock int) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1
RETURNING `+productColumns,
		id, stock)
	return scanProduct(row)
}

// Delete removes a product row.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("products: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountSales reports how many sale rows reference the product.
func (r *PGRepository) CountSales(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE product_id = $1`, productID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("products: count sales for %d: %w", productID, err)
	}
	return count, nil
}
