package catalog

import (
	"context"
	"time"

	"github.com/courier/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry referenced by guide items. The reference
// price is informational; item prices are entered manually on the guide.
type Product struct {
	shared.BaseAggregateRoot
	Name           string
	SKU            string
	ReferencePrice decimal.Decimal
	Active         bool
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new catalog product
func NewProduct(name, sku string, referencePrice decimal.Decimal) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION", "Product name cannot be empty")
	}
	if sku == "" {
		return nil, shared.NewDomainError("VALIDATION", "Product SKU cannot be empty")
	}
	if referencePrice.IsNegative() {
		return nil, shared.NewDomainError("VALIDATION", "Reference price cannot be negative")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		SKU:               sku,
		ReferencePrice:    referencePrice,
		Active:            true,
	}, nil
}

// Deactivate marks the product as no longer sellable
func (p *Product) Deactivate() {
	p.Active = false
	p.UpdatedAt = time.Now()
}

// ProductRepository defines lookup operations for the catalog
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	Search(ctx context.Context, query string, filter shared.Filter) ([]Product, error)
	Save(ctx context.Context, product *Product) error
}
