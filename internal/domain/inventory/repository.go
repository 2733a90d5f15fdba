package inventory

import (
	"context"

	"github.com/courier/backend/internal/domain/shared"
	"github.com/courier/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// InventoryRepository defines persistence operations for inventory records
type InventoryRepository interface {
	FindByProductAndCity(ctx context.Context, productID uuid.UUID, city valueobject.City) (*InventoryItem, error)
	FindByCity(ctx context.Context, city valueobject.City, filter shared.Filter) ([]InventoryItem, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]InventoryItem, error)
	Save(ctx context.Context, item *InventoryItem) error
	SaveWithLock(ctx context.Context, item *InventoryItem) error
}

// StockMovementRepository appends and queries the movement audit trail
type StockMovementRepository interface {
	Append(ctx context.Context, movement *StockMovement) error
	FindByReference(ctx context.Context, referenceID uuid.UUID) ([]StockMovement, error)
	FindByProductAndCity(ctx context.Context, productID uuid.UUID, city valueobject.City, filter shared.Filter) ([]StockMovement, error)
}
