package inventory

import (
	"time"

	"github.com/courier/backend/internal/domain/shared"
	"github.com/courier/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementDirection indicates whether a movement credits or debits stock
type MovementDirection string

const (
	MovementIn  MovementDirection = "IN"
	MovementOut MovementDirection = "OUT"
)

// MovementReason labels why stock moved
type MovementReason string

const (
	ReasonGuideDispatch     MovementReason = "GUIDE_DISPATCH"     // item attached to a new guide
	ReasonGuideReturn       MovementReason = "GUIDE_RETURN"       // guide entered CANCELLED/RETURNED
	ReasonGuideReactivation MovementReason = "GUIDE_REACTIVATION" // guide left CANCELLED/RETURNED
	ReasonGuideDeletion     MovementReason = "GUIDE_DELETION"     // non-cancelled guide deleted
	ReasonManualAdjustment  MovementReason = "MANUAL_ADJUSTMENT"
)

// StockMovement is the append-only audit row written for every ledger
// mutation
type StockMovement struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	City        valueobject.City
	Direction   MovementDirection
	Quantity    decimal.Decimal
	Reason      MovementReason
	ReferenceID *uuid.UUID // guide that drove the movement, when applicable
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a new movement record
func NewStockMovement(productID uuid.UUID, city valueobject.City, direction MovementDirection, quantity decimal.Decimal, reason MovementReason, referenceID *uuid.UUID) (*StockMovement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION", "Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION", "Quantity must be positive")
	}
	if direction != MovementIn && direction != MovementOut {
		return nil, shared.NewDomainError("VALIDATION", "Unknown movement direction")
	}

	return &StockMovement{
		ID:          uuid.New(),
		ProductID:   productID,
		City:        city,
		Direction:   direction,
		Quantity:    quantity,
		Reason:      reason,
		ReferenceID: referenceID,
		CreatedAt:   time.Now(),
	}, nil
}
