package products

import "time"

// Stock at or below this level marks a product as low stock.
const lowStockThreshold = 10

const (
	StatusInStock  = "In Stock"
	StatusLowStock = "Low Stock"
)

// Product is a catalog row. Status is derived from Stock at read time and
// never stored. Image holds an optional client-encoded picture and is
// passed through opaquely.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	Image     *string   `json:"image,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest is the POST /products body.
type CreateRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	Category string  `json:"category" validate:"required,max=100"`
	Price    float64 `json:"price" validate:"required,gt=0"`
	Stock    *int    `json:"stock" validate:"required,gte=0"`
	Image    *string `json:"image"`
}

// UpdateRequest is the PUT /products/{id} body. Absent fields keep their
// current value.
type UpdateRequest struct {
	Name     *string  `json:"name" validate:"omitempty,max=200"`
	Category *string  `json:"category" validate:"omitempty,max=100"`
	Price    *float64 `json:"price" validate:"omitempty,gt=0"`
	Stock    *int     `json:"stock" validate:"omitempty,gte=0"`
	Image    *string  `json:"image"`
}

// UpdateStockRequest is the PATCH /products/{id}/stock body.
type UpdateStockRequest struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}
