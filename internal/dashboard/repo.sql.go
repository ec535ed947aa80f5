package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

// Repository defines the read-only aggregate queries behind the
// dashboard.
type Repository interface {
	Overview(ctx context.Context, q Query) (*Overview, error)
	RecentSales(ctx context.Context, limit int) ([]RecentSale, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
	LowStock(ctx context.Context, threshold int) ([]LowStockProduct, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Overview fans the section queries out concurrently. Each section
// writes to its own field, so no locking is needed.
func (r *PGRepository) Overview(ctx context.Context, q Query) (*Overview, error) {
	out := &Overview{
		RevenueByDay: []DayRevenue{},
		RecentSales:  []RecentSale{},
		TopProducts:  []TopProduct{},
		LowStock:     []LowStockProduct{},
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.totals(ctx, out) })
	g.Go(func() error { return r.revenueSeries(ctx, out) })
	g.Go(func() error {
		rows, err := r.RecentSales(ctx, q.RecentLimit)
		if err == nil {
			out.RecentSales = rows
		}
		return err
	})
	g.Go(func() error {
		rows, err := r.TopProducts(ctx, q.TopLimit)
		if err == nil {
			out.TopProducts = rows
		}
		return err
	})
	g.Go(func() error {
		rows, err := r.LowStock(ctx, q.LowStockThreshold)
		if err == nil {
			out.LowStock = rows
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PGRepository) totals(ctx context.Context, out *Overview) error {
	err := r.pool.QueryRow(ctx, `
SELECT COALESCE(SUM(total), 0),
       COALESCE(SUM(vat), 0),
       COUNT(*),
       (SELECT COUNT(*) FROM products)
FROM sales`).Scan(&out.TotalRevenue, &out.TotalVAT, &out.TotalSales, &out.TotalProducts)
	if err != nil {
		return fmt.Errorf("dashboard: totals: %w", err)
	}
	return nil
}

func (r *PGRepository) revenueSeries(ctx context.Context, out *Overview) error {
	rows, err := r.pool.Query(ctx, `
SELECT date_trunc('day', created_at) AS day, SUM(total)
FROM sales
WHERE created_at >= NOW() - INTERVAL '7 days'
GROUP BY day
ORDER BY day`)
	if err != nil {
		return fmt.Errorf("dashboard: revenue series: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d DayRevenue
		if err := rows.Scan(&d.Day, &d.Revenue); err != nil {
			return err
		}
		out.RevenueByDay = append(out.RevenueByDay, d)
	}
	return rows.Err()
}

// RecentSales returns the latest sale rows.
func (r *PGRepository) RecentSales(ctx context.Context, limit int) ([]RecentSale, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, product_name, quantity, total, created_by_user_name, created_at
FROM sales
ORDER BY created_at DESC, id DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard: recent sales: %w", err)
	}
	defer rows.Close()
	out := []RecentSale{}
	for rows.Next() {
		var s RecentSale
		if err := rows.Scan(&s.ID, &s.ProductName, &s.Quantity, &s.Total, &s.CreatedBy, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// TopProducts ranks products by revenue. The LEFT JOIN keeps rankings
// for products deleted after their sales.
func (r *PGRepository) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	rows, err := r.pool.Query(ctx, `
SELECT p.id, s.product_name, SUM(s.quantity), SUM(s.total)
FROM sales s
LEFT JOIN products p ON p.id = s.product_id
GROUP BY p.id, s.product_name
ORDER BY SUM(s.total) DESC
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard: top products: %w", err)
	}
	defer rows.Close()
	out := []TopProduct{}
	for rows.Next() {
		var tp TopProduct
		if err := rows.Scan(&tp.ProductID, &tp.ProductName, &tp.Quantity, &tp.Revenue); err != nil {
			return nil, err
		}
		out = append(out, tp)
	}
	return out, rows.Err()
}

// LowStock returns products at or under the threshold.
func (r *PGRepository) LowStock(ctx context.Context, threshold int) ([]LowStockProduct, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, name, stock FROM products WHERE stock <= $1 ORDER BY stock ASC, id ASC`, threshold)
	if err != nil {
		return nil, fmt.Errorf("dashboard: low stock: %w", err)
	}
	defer rows.Close()
	out := []LowStockProduct{}
	for rows.Next() {
		var p LowStockProduct
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
