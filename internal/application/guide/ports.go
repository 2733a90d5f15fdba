package guide

import (
	"context"

	"github.com/courier/backend/internal/domain/inventory"
	"github.com/courier/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLedger is the reconciliation engine's only path to inventory.
// Increments and decrements across multiple items are issued sequentially,
// one call per item; the caller owns the ordering against record writes.
type StockLedger interface {
	IncreaseStock(ctx context.Context, productID uuid.UUID, city valueobject.City, quantity decimal.Decimal, reason inventory.MovementReason, referenceID *uuid.UUID) error
	DecreaseStock(ctx context.Context, productID uuid.UUID, city valueobject.City, quantity decimal.Decimal, enforce bool, reason inventory.MovementReason, referenceID *uuid.UUID) error
}

// ConfirmFunc asks the operator to confirm a destructive step. It is
// supplied per call by the interface layer; a nil func counts as declined.
type ConfirmFunc func() bool
