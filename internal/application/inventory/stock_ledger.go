package inventory

import (
	"context"
	"errors"

	"github.com/courier/backend/internal/domain/inventory"
	"github.com/courier/backend/internal/domain/shared"
	"github.com/courier/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// saveAttempts bounds how often a debit or credit is replayed after losing
// an optimistic-lock race on a shared (product, city) record.
const saveAttempts = 3

// StockLedger is the only component allowed to mutate inventory records.
// The guide lifecycle engine calls it during reconciliation; nothing else
// adjusts stock ad hoc.
type StockLedger struct {
	inventoryRepo inventory.InventoryRepository
	movementRepo  inventory.StockMovementRepository
	logger        *zap.Logger
}

// NewStockLedger creates a new StockLedger
func NewStockLedger(inventoryRepo inventory.InventoryRepository, movementRepo inventory.StockMovementRepository, logger *zap.Logger) *StockLedger {
	return &StockLedger{
		inventoryRepo: inventoryRepo,
		movementRepo:  movementRepo,
		logger:        logger,
	}
}

// IncreaseStock credits quantity to the (product, city) inventory record,
// creating the record if it does not exist yet.
func (s *StockLedger) IncreaseStock(ctx context.Context, productID uuid.UUID, city valueobject.City, quantity decimal.Decimal, reason inventory.MovementReason, referenceID *uuid.UUID) error {
	for attempt := 1; ; attempt++ {
		fresh := false
		item, err := s.inventoryRepo.FindByProductAndCity(ctx, productID, city)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return shared.NewStorageError("inventory lookup", err)
			}
			item, err = inventory.NewInventoryItem(productID, city)
			if err != nil {
				return err
			}
			fresh = true
		}

		if err := item.Increase(quantity); err != nil {
			return err
		}

		// A fresh record has no row to guard, so the version check only
		// applies when updating an existing one.
		if fresh {
			err = s.inventoryRepo.Save(ctx, item)
		} else {
			err = s.inventoryRepo.SaveWithLock(ctx, item)
		}
		if err == nil {
			break
		}
		if attempt < saveAttempts && isVersionConflict(err) {
			continue
		}
		return shared.NewStorageError("inventory save", err)
	}

	s.recordMovement(ctx, productID, city, inventory.MovementIn, quantity, reason, referenceID)

	return nil
}

// DecreaseStock debits quantity from the (product, city) inventory record.
// With enforce set, the debit fails with INSUFFICIENT_STOCK rather than
// driving availability below zero; the guide re-activation path runs
// unenforced when the lenient policy is configured.
func (s *StockLedger) DecreaseStock(ctx context.Context, productID uuid.UUID, city valueobject.City, quantity decimal.Decimal, enforce bool, reason inventory.MovementReason, referenceID *uuid.UUID) error {
	for attempt := 1; ; attempt++ {
		fresh := false
		item, err := s.inventoryRepo.FindByProductAndCity(ctx, productID, city)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return shared.NewStorageError("inventory lookup", err)
			}
			if enforce {
				return shared.ErrInsufficientStock
			}
			item, err = inventory.NewInventoryItem(productID, city)
			if err != nil {
				return err
			}
			fresh = true
		}

		if err := item.Decrease(quantity, enforce); err != nil {
			return err
		}

		if item.IsNegative() {
			s.logger.Warn("inventory went negative after unenforced debit",
				zap.String("product_id", productID.String()),
				zap.String("city", city.String()),
				zap.String("available", item.AvailableQuantity.String()),
			)
		}

		if fresh {
			err = s.inventoryRepo.Save(ctx, item)
		} else {
			err = s.inventoryRepo.SaveWithLock(ctx, item)
		}
		if err == nil {
			break
		}
		if attempt < saveAttempts && isVersionConflict(err) {
			continue
		}
		return shared.NewStorageError("inventory save", err)
	}

	s.recordMovement(ctx, productID, city, inventory.MovementOut, quantity, reason, referenceID)

	return nil
}

// isVersionConflict reports whether a save failed the optimistic version
// check, meaning the record can be reloaded and the adjustment replayed.
func isVersionConflict(err error) bool {
	var domainErr *shared.DomainError
	return errors.As(err, &domainErr) && domainErr.Code == "OPTIMISTIC_LOCK_ERROR"
}

// Availability returns the available quantity for a (product, city) pair.
// A missing record reads as zero.
func (s *StockLedger) Availability(ctx context.Context, productID uuid.UUID, city valueobject.City) (decimal.Decimal, error) {
	item, err := s.inventoryRepo.FindByProductAndCity(ctx, productID, city)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, shared.NewStorageError("inventory lookup", err)
	}
	return item.AvailableQuantity, nil
}

// ListByCity returns the inventory records of one city
func (s *StockLedger) ListByCity(ctx context.Context, city valueobject.City, filter shared.Filter) ([]inventory.InventoryItem, error) {
	items, err := s.inventoryRepo.FindByCity(ctx, city, filter)
	if err != nil {
		return nil, shared.NewStorageError("inventory list", err)
	}
	return items, nil
}

// MovementsForProduct returns the movement history of a product-city pair
func (s *StockLedger) MovementsForProduct(ctx context.Context, productID uuid.UUID, city valueobject.City, filter shared.Filter) ([]inventory.StockMovement, error) {
	movements, err := s.movementRepo.FindByProductAndCity(ctx, productID, city, filter)
	if err != nil {
		return nil, shared.NewStorageError("movement list", err)
	}
	return movements, nil
}

// MovementsForGuide returns the audit movements a guide drove
func (s *StockLedger) MovementsForGuide(ctx context.Context, guideID uuid.UUID) ([]inventory.StockMovement, error) {
	movements, err := s.movementRepo.FindByReference(ctx, guideID)
	if err != nil {
		return nil, shared.NewStorageError("movement list", err)
	}
	return movements, nil
}

// recordMovement appends an audit row. The movement trail is secondary to
// the availability counter, so a failed append is logged, not propagated.
func (s *StockLedger) recordMovement(ctx context.Context, productID uuid.UUID, city valueobject.City, direction inventory.MovementDirection, quantity decimal.Decimal, reason inventory.MovementReason, referenceID *uuid.UUID) {
	movement, err := inventory.NewStockMovement(productID, city, direction, quantity, reason, referenceID)
	if err != nil {
		s.logger.Error("failed to build stock movement", zap.Error(err))
		return
	}
	if err := s.movementRepo.Append(ctx, movement); err != nil {
		s.logger.Error("failed to append stock movement",
			zap.String("product_id", productID.String()),
			zap.String("city", city.String()),
			zap.Error(err),
		)
	}
}
