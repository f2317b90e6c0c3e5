package catalog

import (
	"time"

	"github.com/gofrs/uuid"
)

type Category struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type Product struct {
	ID         uuid.UUID `json:"id" db:"id"`
	CategoryID uuid.UUID `json:"category_id" db:"category_id"`
	Name       string    `json:"name" db:"name"`
	Price      float64   `json:"price" db:"price"`
	SalePrice  *float64  `json:"sale_price,omitempty" db:"sale_price"`
	IsOnSale   bool      `json:"is_on_sale" db:"is_on_sale"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CostPrice  float64   `json:"cost_price" db:"cost_price"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Variant is a color+size combination of a product, the unit at which
// stock is tracked.
type Variant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	Color     string    `json:"color" db:"color"`
	Size      string    `json:"size" db:"size"`
	SKU       string    `json:"sku" db:"sku"`
	Stock     int       `json:"stock" db:"stock"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// VariantInfo is a variant joined with its product, as returned by
// inventory search and used for manifest item labels.
type VariantInfo struct {
	VariantID   uuid.UUID `json:"variant_id"`
	ProductName string    `json:"product_name"`
	Color       string    `json:"color"`
	Size        string    `json:"size"`
	SKU         string    `json:"sku"`
	Stock       int       `json:"stock"`
	Price       float64   `json:"price"`
}
