package dashboard

import "time"

// Defaults for the overview query knobs.
const (
	defaultRecentLimit       = 10
	defaultTopLimit          = 5
	defaultLowStockThreshold = 10

	maxLimit = 100
)

// Query carries the tunable parts of the overview.
type Query struct {
	RecentLimit       int
	TopLimit          int
	LowStockThreshold int
}

// Normalize fills defaults and clamps out-of-range values.
func (q Query) Normalize() Query {
	if q.RecentLimit <= 0 || q.RecentLimit > maxLimit {
		q.RecentLimit = defaultRecentLimit
	}
	if q.TopLimit <= 0 || q.TopLimit > maxLimit {
		q.TopLimit = defaultTopLimit
	}
	if q.LowStockThreshold < 0 {
		q.LowStockThreshold = defaultLowStockThreshold
	}
	return q
}

// Overview is the aggregate payload behind GET /dashboard.
type Overview struct {
	TotalRevenue  float64           `json:"totalRevenue"`
	TotalVAT      float64           `json:"totalVat"`
	TotalSales    int64             `json:"totalSales"`
	TotalProducts int64             `json:"totalProducts"`
	RevenueByDay  []DayRevenue      `json:"revenueByDay"`
	RecentSales   []RecentSale      `json:"recentSales"`
	TopProducts   []TopProduct      `json:"topProducts"`
	LowStock      []LowStockProduct `json:"lowStockProducts"`
}

// DayRevenue is one point of the seven day revenue series.
type DayRevenue struct {
	Day     time.Time `json:"day"`
	Revenue float64   `json:"revenue"`
}

// RecentSale is a row of the latest-sales table.
type RecentSale struct {
	ID          int64     `json:"id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	Total       float64   `json:"total"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// TopProduct is a row of the best-sellers ranking.
type TopProduct struct {
	ProductID   *int64  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}

// LowStockProduct is a catalog row at or under the threshold.
type LowStockProduct struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}
