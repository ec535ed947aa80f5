package sales

import (
	"fmt"
	"time"
)

// vatRate is the VAT portion embedded in tax-inclusive sale totals.
const vatRate = 0.12

// Sale is a recorded transaction. ProductName, Total and VAT are
// snapshotted at sale time so later catalog edits never rewrite history.
// RecordedBy is the client-supplied display label; CreatedByUserID and
// CreatedBy come from the verified token, never from the body.
type Sale struct {
	ID              int64     `json:"id"`
	ProductID       int64     `json:"product_id"`
	ProductName     string    `json:"product_name"`
	Quantity        int       `json:"quantity"`
	Total           float64   `json:"total"`
	VAT             float64   `json:"vat"`
	RecordedBy      string    `json:"recorded_by"`
	CreatedByUserID int64     `json:"created_by_user_id"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateRequest is the POST /sales body.
type CreateRequest struct {
	ProductID  int64  `json:"product_id" validate:"required,gt=0"`
	Quantity   int    `json:"quantity" validate:"required,gt=0"`
	RecordedBy string `json:"recorded_by" validate:"required,max=100"`
}

// ProductRow is the slice of the catalog a sale needs, read under a row
// lock inside the recording transaction.
type ProductRow struct {
	ID    int64
	Name  string
	Price float64
	Stock int
}

// InsufficientStockError reports a sale attempt that exceeds the stock on
// hand at commit time.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock. Only %d units available.", e.Available)
}

// VATPortion extracts the embedded VAT from a tax-inclusive total.
func VATPortion(total float64) float64 {
	return total * vatRate / (1 + vatRate)
}

// Stats aggregates sales over a reporting period.
type Stats struct {
	Period           string       `json:"period"`
	TotalSales       int64        `json:"totalSales"`
	TotalRevenue     float64      `json:"totalRevenue"`
	TotalVAT         float64      `json:"totalVat"`
	AverageSaleValue float64      `json:"averageSaleValue"`
	TopProducts      []TopProduct `json:"topProducts"`
}

// TopProduct is one row of the best-sellers ranking.
type TopProduct struct {
	ProductName string  `json:"product_name"`
	Quantity    int64   `json:"quantity"`
	Revenue     float64 `json:"revenue"`
}
