package inventory

import (
	"time"

	"github.com/courier/backend/internal/domain/shared"
	"github.com/courier/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem tracks the available quantity of a product in one
// operating city. It is the aggregate root for stock operations; the
// composite identifier is ProductID + City. Mutations happen only through
// the stock ledger service, never directly from guide code.
type InventoryItem struct {
	shared.BaseAggregateRoot
	ProductID         uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_city,priority:1"`
	City              valueobject.City `gorm:"type:varchar(32);not null;uniqueIndex:idx_inventory_product_city,priority:2"`
	AvailableQuantity decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// NewInventoryItem creates a new inventory record for a product-city pair
func NewInventoryItem(productID uuid.UUID, city valueobject.City) (*InventoryItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION", "Product ID cannot be empty")
	}
	if !city.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", "Unknown operating city")
	}

	return &InventoryItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		City:              city,
		AvailableQuantity: decimal.Zero,
	}, nil
}

// Increase credits quantity back to the available stock
func (i *InventoryItem) Increase(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION", "Quantity must be positive")
	}

	i.AvailableQuantity = i.AvailableQuantity.Add(quantity)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewStockIncreasedEvent(i, quantity))

	return nil
}

// Decrease debits quantity from the available stock. With enforce set, the
// debit is rejected when it would drive availability below zero; the
// re-activation path of the guide lifecycle runs unenforced by policy.
func (i *InventoryItem) Decrease(quantity decimal.Decimal, enforce bool) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION", "Quantity must be positive")
	}
	if enforce && i.AvailableQuantity.LessThan(quantity) {
		return shared.ErrInsufficientStock
	}

	i.AvailableQuantity = i.AvailableQuantity.Sub(quantity)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()

	i.AddDomainEvent(NewStockDecreasedEvent(i, quantity))

	return nil
}

// IsNegative reports whether an unenforced debit has pushed availability
// below zero
func (i *InventoryItem) IsNegative() bool {
	return i.AvailableQuantity.IsNegative()
}
