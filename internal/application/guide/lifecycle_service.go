package guide

import (
	"context"
	"errors"

	domain "github.com/courier/backend/internal/domain/guide"
	"github.com/courier/backend/internal/domain/inventory"
	"github.com/courier/backend/internal/domain/shared"
	"github.com/courier/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation names used in completion events
const (
	OpCreate          = "create"
	OpUpdate          = "update"
	OpChangeStatus    = "change_status"
	OpDelete          = "delete"
	OpAdjustShipping  = "adjust_shipping"
	OpAddItem         = "add_item"
	OpUpdateItem      = "update_item"
	OpRemoveItem      = "remove_item"
	OpAddIncident     = "add_incident"
	OpResolveIncident = "resolve_incident"
)

// LifecycleService owns the guide status state machine and the coupled
// stock reconciliation. Stock moves before the record write on every
// transition; a record write that fails after stock moved surfaces as a
// ReconciliationError, never as a silent retry. Operations on the same
// guide are serialized through a per-ID mutex.
type LifecycleService struct {
	guideRepo    domain.GuideRepository
	incidentRepo domain.IncidentRepository
	stock        StockLedger
	publisher    shared.EventPublisher
	idempotency  shared.IdempotencyStore
	idemCfg      shared.IdempotencyConfig

	// strictReactivation re-checks availability when a guide leaves a
	// stock-returning state; lenient mode re-debits blindly, matching the
	// historical behavior
	strictReactivation bool

	logger *zap.Logger
	locks  *keyedMutex
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(guideRepo domain.GuideRepository, incidentRepo domain.IncidentRepository, stock StockLedger, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		guideRepo:    guideRepo,
		incidentRepo: incidentRepo,
		stock:        stock,
		idemCfg:      shared.DefaultIdempotencyConfig(),
		logger:       logger,
		locks:        newKeyedMutex(),
	}
}

// SetEventPublisher sets the publisher for completion/refresh signals
func (s *LifecycleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetIdempotencyStore enables request de-duplication for retried
// status-change and delete calls
func (s *LifecycleService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotency = store
	s.idemCfg = cfg
}

// SetStrictReactivation switches the re-activation availability policy
func (s *LifecycleService) SetStrictReactivation(strict bool) {
	s.strictReactivation = strict
}

// Create creates a new guide in PENDING status. Items attached at creation
// consume stock through the checked decrement path before the guide record
// is written.
func (s *LifecycleService) Create(ctx context.Context, req CreateGuideRequest) (*GuideResponse, error) {
	city, err := valueobject.ParseCity(req.City)
	if err != nil {
		return nil, shared.NewDomainError("VALIDATION", err.Error())
	}
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("VALIDATION", "Guide must have at least one item")
	}

	guideNumber, err := s.guideRepo.GenerateGuideNumber(ctx)
	if err != nil {
		return nil, shared.NewStorageError("guide number generation", err)
	}

	g, err := domain.NewGuide(guideNumber, req.ClientID, req.ClientName, city)
	if err != nil {
		return nil, err
	}

	for _, item := range req.Items {
		unitPrice := valueobject.NewMoneyUSD(item.UnitPrice)
		if _, err := g.AddItem(item.ProductID, item.ProductName, item.ProductSKU, item.Quantity, unitPrice); err != nil {
			return nil, err
		}
	}

	if req.ShippingCost != nil {
		if err := g.SetShippingCost(valueobject.NewMoneyUSD(*req.ShippingCost)); err != nil {
			return nil, err
		}
	}
	if req.AmountUSD != nil && req.PaymentBs != nil {
		if err := g.SetPaymentDetail(*req.AmountUSD, *req.PaymentBs, req.DeliveryTime); err != nil {
			return nil, err
		}
	}
	if req.Observations != "" {
		g.SetObservations(req.Observations)
	}

	// Checked dispatch decrement, stock before record
	adjusted, err := s.deductStock(ctx, g, true, inventory.ReasonGuideDispatch)
	if err != nil {
		err = s.wrapPartialStock(g, adjusted, "guide creation aborted mid-dispatch", err)
		s.completeOperation(ctx, g.ID, OpCreate, err)
		return nil, err
	}

	if err := s.guideRepo.Save(ctx, g); err != nil {
		recErr := shared.NewReconciliationError(g.ID, g.GuideNumber, productIDs(g.StockLines()), "guide save", err)
		s.completeOperation(ctx, g.ID, OpCreate, recErr)
		return nil, recErr
	}

	s.publishEvents(ctx, g)
	s.completeOperation(ctx, g.ID, OpCreate, nil)

	response := ToGuideResponse(g)
	return &response, nil
}

// GetByID retrieves a guide by ID
func (s *LifecycleService) GetByID(ctx context.Context, guideID uuid.UUID) (*GuideResponse, error) {
	g, err := s.guideRepo.FindByID(ctx, guideID)
	if err != nil {
		return nil, err
	}
	response := ToGuideResponse(g)
	return &response, nil
}

// GetByNumber retrieves a guide by its human-readable number
func (s *LifecycleService) GetByNumber(ctx context.Context, guideNumber string) (*GuideResponse, error) {
	g, err := s.guideRepo.FindByNumber(ctx, guideNumber)
	if err != nil {
		return nil, err
	}
	response := ToGuideResponse(g)
	return &response, nil
}

// List retrieves guides with filtering and pagination
func (s *LifecycleService) List(ctx context.Context, filter ListFilter) ([]GuideListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.City != nil {
		domainFilter.Filters["city"] = *filter.City
	}
	if filter.ClientID != nil {
		domainFilter.Filters["client_id"] = *filter.ClientID
	}

	guides, err := s.guideRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.guideRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToGuideListItemResponses(guides), total, nil
}

// StatusSummary retrieves guide counts per status for the dashboard
func (s *LifecycleService) StatusSummary(ctx context.Context) (*StatusSummary, error) {
	summary := &StatusSummary{}
	statuses := map[domain.GuideStatus]*int64{
		domain.GuideStatusPending:   &summary.Pending,
		domain.GuideStatusInTransit: &summary.InTransit,
		domain.GuideStatusDelivered: &summary.Delivered,
		domain.GuideStatusPaid:      &summary.Paid,
		domain.GuideStatusIncident:  &summary.Incident,
		domain.GuideStatusCancelled: &summary.Cancelled,
		domain.GuideStatusReturned:  &summary.Returned,
	}
	for status, target := range statuses {
		count, err := s.guideRepo.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		*target = count
		summary.Total += count
	}

	return summary, nil
}

// Update updates a guide's editable header fields
func (s *LifecycleService) Update(ctx context.Context, guideID uuid.UUID, req UpdateGuideRequest) (*GuideResponse, error) {
	s.locks.Lock(guideID)
	defer s.locks.Unlock(guideID)

	g, err := s.guideRepo.FindByID(ctx, guideID)
	if err != nil {
		return nil, err
	}

	if req.Observations != nil {
		g.SetObservations(*req.Observations)
	}
	if req.AmountUSD != nil && req.PaymentBs != nil {
		deliveryTime := g.DeliveryTime
		if req.DeliveryTime != nil {
			deliveryTime = *req.DeliveryTime
		}
		if err := g.SetPaymentDetail(*req.AmountUSD, *req.PaymentBs, deliveryTime); err != nil {
			return nil, err
		}
	}

	if err := s.guideRepo.SaveWithLock(ctx, g); err != nil {
		return nil, shared.NewStorageError("guide save", err)
	}

	s.completeOperation(ctx, g.ID, OpUpdate, nil)

	response := ToGuideResponse(g)
	return &response, nil
}

// ChangeStatus transitions a guide to a new status, applying the stock
// reconciliation contract:
//   - entering CANCELLED/RETURNED from outside the set needs operator
//     confirmation and credits every item's stock back first
//   - leaving the set re-debits every item before the status write
//   - all other transitions carry no stock side effect
//
// The status is persisted only after the stock step completed; a failed
// status write after stock moved surfaces as a ReconciliationError.
func (s *LifecycleService) ChangeStatus(ctx context.Context, guideID uuid.UUID, req ChangeStatusRequest, confirm ConfirmFunc) (*GuideResponse, error) {
	s.locks.Lock(guideID)
	defer s.locks.Unlock(guideID)

	return s.changeStatusLocked(ctx, guideID, req, confirm)
}

// changeStatusLocked is the lock-free core of ChangeStatus, shared with
// ResolveIncident which already holds the guide's lock
func (s *LifecycleService) changeStatusLocked(ctx context.Context, guideID uuid.UUID, req ChangeStatusRequest, confirm ConfirmFunc) (*GuideResponse, error) {
	newStatus := domain.GuideStatus(req.NewStatus)
	if !newStatus.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", "Unknown guide status: "+req.NewStatus)
	}

	if replayed, err := s.alreadyProcessed(ctx, req.RequestKey); err != nil {
		return nil, err
	} else if replayed {
		s.logger.Info("replayed status change skipped",
			zap.String("guide_id", guideID.String()),
			zap.String("request_key", req.RequestKey),
		)
		return s.GetByID(ctx, guideID)
	}

	g, err := s.guideRepo.FindByID(ctx, guideID)
	if err != nil {
		s.completeOperation(ctx, guideID, OpChangeStatus, err)
		return nil, err
	}

	entering := newStatus.ReturnsStock() && !g.Status.ReturnsStock()
	leaving := g.Status.ReturnsStock() && !newStatus.ReturnsStock()

	if entering {
		if confirm == nil || !confirm() {
			s.completeOperation(ctx, guideID, OpChangeStatus, shared.ErrConfirmDeclined)
			return nil, shared.ErrConfirmDeclined
		}
		adjusted, err := s.returnStock(ctx, g, inventory.ReasonGuideReturn)
		if err != nil {
			err = s.wrapPartialStock(g, adjusted, "stock return interrupted", err)
			s.completeOperation(ctx, guideID, OpChangeStatus, err)
			return nil, err
		}
	}

	if leaving {
		adjusted, err := s.deductStock(ctx, g, s.strictReactivation, inventory.ReasonGuideReactivation)
		if err != nil {
			err = s.wrapPartialStock(g, adjusted, "stock re-debit interrupted", err)
			s.completeOperation(ctx, guideID, OpChangeStatus, err)
			return nil, err
		}
	}

	if err := g.TransitionTo(newStatus); err != nil {
		s.completeOperation(ctx, guideID, OpChangeStatus, err)
		return nil, err
	}

	if err := s.guideRepo.UpdateStatus(ctx, g.ID, newStatus); err != nil {
		if entering || leaving {
			recErr := shared.NewReconciliationError(g.ID, g.GuideNumber, productIDs(g.StockLines()), "status update", err)
			s.completeOperation(ctx, guideID, OpChangeStatus, recErr)
			return nil, recErr
		}
		storErr := shared.NewStorageError("status update", err)
		s.completeOperation(ctx, guideID, OpChangeStatus, storErr)
		return nil, storErr
	}

	s.markProcessed(ctx, req.RequestKey)
	s.publishEvents(ctx, g)
	s.completeOperation(ctx, guideID, OpChangeStatus, nil)

	response := ToGuideResponse(g)
	return &response, nil
}

// Delete removes a guide and its items after operator confirmation. A
// guide not already in a stock-returning state has its stock credited
// back first; if the record delete then fails, the stock change stays and
// the error tells the operator to verify inventory.
func (s *LifecycleService) Delete(ctx context.Context, guideID uuid.UUID, confirm ConfirmFunc) error {
	s.locks.Lock(guideID)
	defer s.locks.Unlock(guideID)

	g, err := s.guideRepo.FindByID(ctx, guideID)
	if err != nil {
		s.completeOperation(ctx, guideID, OpDelete, err)
		return err
	}

	if confirm == nil || !confirm() {
		s.completeOperation(ctx, guideID, OpDelete, shared.ErrConfirmDeclined)
		return shared.ErrConfirmDeclined
	}

	stockReturned := false
	if !g.Status.ReturnsStock() {
		adjusted, err := s.returnStock(ctx, g, inventory.ReasonGuideDeletion)
		if err != nil {
			err = s.wrapPartialStock(g, adjusted, "stock return interrupted", err)
			s.completeOperation(ctx, guideID, OpDelete, err)
			return err
		}
		stockReturned = true
	}

	if err := s.guideRepo.Delete(ctx, g.ID); err != nil {
		if stockReturned {
			recErr := shared.NewReconciliationError(g.ID, g.GuideNumber, productIDs(g.StockLines()), "guide delete", err)
			s.completeOperation(ctx, guideID, OpDelete, recErr)
			return recErr
		}
		storErr := shared.NewStorageError("guide delete", err)
		s.completeOperation(ctx, guideID, OpDelete, storErr)
		return storErr
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, domain.NewGuideDeletedEvent(g, stockReturned)); err != nil {
			s.logger.Warn("failed to publish guide deleted event", zap.Error(err))
		}
	}
	s.completeOperation(ctx, guideID, OpDelete, nil)

	return nil
}

// AdjustShipping records a shipping-cost adjustment. Never touches stock
// or status.
func (s *LifecycleService) AdjustShipping(ctx context.Context, guideID uuid.UUID, req AdjustShippingRequest) (*GuideResponse, error) {
	s.locks.Lock(guideID)
	defer s.locks.Unlock(guideID)

	g, err := s.guideRepo.FindByID(ctx, guideID)
	if err != nil {
		s.completeOperation(ctx, guideID, OpAdjustShipping, err)
		return nil, err
	}

	if err := g.AdjustShipping(valueobject.NewMoneyUSD(req.NewCost), req.Note); err != nil {
		s.completeOperation(ctx, guideID, OpAdjustShipping, err)
		return nil, err
	}

	if err := s.guideRepo.UpdateShipping(ctx, g.ID, *g.ShippingCost, g.ShippingCostOriginal, g.ShippingAdjustmentNote); err != nil {
		storErr := shared.NewStorageError("shipping update", err)
		s.completeOperation(ctx, guideID, OpAdjustShipping, storErr)
		return nil, storErr
	}

	s.publishEvents(ctx, g)
	s.completeOperation(ctx, guideID, OpAdjustShipping, nil)

	response := ToGuideResponse(g)
	return &response, nil
}

// AddItem attaches a new line item to a pending guide, consuming stock
// through the checked decrement path
func (s *LifecycleService) AddItem(ctx context.Context, guideID uuid.UUID, req GuideItemRequest) (*GuideResponse, error) {
	s.locks.Lock(guideID)
	defer s.locks.Unlock(guideID)

	g, err := s.guideRepo.FindByID(ctx, guideID)
	if err != nil {
		return nil, err
	}

	unitPrice := valueobject.NewMoneyUSD(req.UnitPrice)
	item, err := g.AddItem(req.ProductID, req.ProductName, req.ProductSKU, req.Quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	if err := s.stock.DecreaseStock(ctx, item.ProductID, g.City, item.Quantity, true, inventory.ReasonGuideDispatch, &g.ID); err != nil {
		s.completeOperation(ctx, guideID, OpAddItem, err)
		return nil, err
	}

	if err := s.guideRepo.SaveWithLock(ctx, g); err != nil {
		recErr := shared.NewReconciliationError(g.ID, g.GuideNumber, []uuid.UUID{item.ProductID}, "guide save", err)
		s.completeOperation(ctx, guideID, OpAddItem, recErr)
		return nil, recErr
	}

	s.completeOperation(ctx, guideID, OpAddItem, nil)

	response := ToGuideResponse(g)
	return &response, nil
}

// UpdateItem changes an item's quantity or price on a pending guide. A
// quantity increase consumes the delta through the checked path; a
// decrease credits it back.
func (s *LifecycleService) UpdateItem(ctx context.Context, guideID, itemID uuid.UUID, req UpdateItemRequest) (*GuideResponse, error) {
	s.locks.Lock(guideID)
	defer s.locks.Unlock(guideID)

	g, err := s.guideRepo.FindByID(ctx, guideID)
	if err != nil {
		return nil, err
	}

	item := g.GetItem(itemID)
	if item == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Guide item not found")
	}

	// Reject invalid updates before touching inventory, otherwise a doomed
	// quantity change would move stock that nothing rolls back.
	if req.Quantity != nil && !req.Quantity.IsPositive() {
		err := shared.NewDomainError("VALIDATION", "Quantity must be positive")
		s.completeOperation(ctx, guideID, OpUpdateItem, err)
		return nil, err
	}
	if g.Status != domain.GuideStatusPending {
		err := shared.NewDomainError("INVALID_STATE", "Cannot update items of a dispatched guide")
		s.completeOperation(ctx, guideID, OpUpdateItem, err)
		return nil, err
	}

	adjustedProduct := item.ProductID
	stockMoved := false

	if req.Quantity != nil {
		delta := req.Quantity.Sub(item.Quantity)
		switch {
		case delta.IsPositive():
			if err := s.stock.DecreaseStock(ctx, item.ProductID, g.City, delta, true, inventory.ReasonGuideDispatch, &g.ID); err != nil {
				s.completeOperation(ctx, guideID, OpUpdateItem, err)
				return nil, err
			}
			stockMoved = true
		case delta.IsNegative():
			if err := s.stock.IncreaseStock(ctx, item.ProductID, g.City, delta.Neg(), inventory.ReasonGuideReturn, &g.ID); err != nil {
				s.completeOperation(ctx, guideID, OpUpdateItem, err)
				return nil, err
			}
			stockMoved = true
		}
		if err := g.UpdateItemQuantity(itemID, *req.Quantity); err != nil {
			s.completeOperation(ctx, guideID, OpUpdateItem, err)
			return nil, err
		}
	}

	if req.UnitPrice != nil {
		if err := g.UpdateItemPrice(itemID, valueobject.NewMoneyUSD(*req.UnitPrice)); err != nil {
			s.completeOperation(ctx, guideID, OpUpdateItem, err)
			return nil, err
		}
	}

	if err := s.guideRepo.SaveWithLock(ctx, g); err != nil {
		if stockMoved {
			recErr := shared.NewReconciliationError(g.ID, g.GuideNumber, []uuid.UUID{adjustedProduct}, "guide save", err)
			s.completeOperation(ctx, guideID, OpUpdateItem, recErr)
			return nil, recErr
		}
		storErr := shared.NewStorageError("guide save", err)
		s.completeOperation(ctx, guideID, OpUpdateItem, storErr)
		return nil, storErr
	}

	s.completeOperation(ctx, guideID, OpUpdateItem, nil)

	response := ToGuideResponse(g)
	return &response, nil
}

// RemoveItem detaches an item from a pending guide, crediting its stock
// back
func (s *LifecycleService) RemoveItem(ctx context.Context, guideID, itemID uuid.UUID) (*GuideResponse, error) {
	s.locks.Lock(guideID)
	defer s.locks.Unlock(guideID)

	g, err := s.guideRepo.FindByID(ctx, guideID)
	if err != nil {
		return nil, err
	}

	item := g.GetItem(itemID)
	if item == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Guide item not found")
	}
	productID := item.ProductID
	quantity := item.Quantity

	if err := g.RemoveItem(itemID); err != nil {
		return nil, err
	}

	if err := s.stock.IncreaseStock(ctx, productID, g.City, quantity, inventory.ReasonGuideReturn, &g.ID); err != nil {
		s.completeOperation(ctx, guideID, OpRemoveItem, err)
		return nil, err
	}

	if err := s.guideRepo.SaveWithLock(ctx, g); err != nil {
		recErr := shared.NewReconciliationError(g.ID, g.GuideNumber, []uuid.UUID{productID}, "guide save", err)
		s.completeOperation(ctx, guideID, OpRemoveItem, recErr)
		return nil, recErr
	}

	s.completeOperation(ctx, guideID, OpRemoveItem, nil)

	response := ToGuideResponse(g)
	return &response, nil
}

// returnStock credits every item's quantity back to inventory, one item
// at a time. On failure it reports which products were already credited;
// completed credits are not rolled back.
func (s *LifecycleService) returnStock(ctx context.Context, g *domain.Guide, reason inventory.MovementReason) ([]uuid.UUID, error) {
	adjusted := make([]uuid.UUID, 0, len(g.Items))
	for _, line := range g.StockLines() {
		if err := s.stock.IncreaseStock(ctx, line.ProductID, g.City, line.Quantity, reason, &g.ID); err != nil {
			return adjusted, err
		}
		adjusted = append(adjusted, line.ProductID)
	}
	return adjusted, nil
}

// deductStock debits every item's quantity from inventory, one item at a
// time. With enforce set, an insufficient balance stops the loop; already
// debited items are not rolled back.
func (s *LifecycleService) deductStock(ctx context.Context, g *domain.Guide, enforce bool, reason inventory.MovementReason) ([]uuid.UUID, error) {
	adjusted := make([]uuid.UUID, 0, len(g.Items))
	for _, line := range g.StockLines() {
		if err := s.stock.DecreaseStock(ctx, line.ProductID, g.City, line.Quantity, enforce, reason, &g.ID); err != nil {
			return adjusted, err
		}
		adjusted = append(adjusted, line.ProductID)
	}
	return adjusted, nil
}

// wrapPartialStock upgrades a mid-loop stock failure into a
// ReconciliationError when some items were already adjusted, so the
// operator knows which products to verify
func (s *LifecycleService) wrapPartialStock(g *domain.Guide, adjusted []uuid.UUID, op string, err error) error {
	if len(adjusted) == 0 {
		return err
	}
	s.logger.Error("partial stock adjustment",
		zap.String("guide_number", g.GuideNumber),
		zap.Int("adjusted_items", len(adjusted)),
		zap.Error(err),
	)
	return shared.NewReconciliationError(g.ID, g.GuideNumber, adjusted, op, err)
}

// alreadyProcessed reports whether a request key was seen before
func (s *LifecycleService) alreadyProcessed(ctx context.Context, key string) (bool, error) {
	if key == "" || s.idempotency == nil || !s.idemCfg.Enabled {
		return false, nil
	}
	processed, err := s.idempotency.IsProcessed(ctx, key)
	if err != nil {
		return false, shared.NewStorageError("idempotency check", err)
	}
	return processed, nil
}

// markProcessed records a request key after the operation succeeded
func (s *LifecycleService) markProcessed(ctx context.Context, key string) {
	if key == "" || s.idempotency == nil || !s.idemCfg.Enabled {
		return
	}
	if _, err := s.idempotency.MarkProcessed(ctx, key, s.idemCfg.TTL); err != nil {
		s.logger.Warn("failed to mark request as processed", zap.String("request_key", key), zap.Error(err))
	}
}

// publishEvents flushes the aggregate's pending domain events. Publish
// failures are logged, not propagated; event handling is advisory.
func (s *LifecycleService) publishEvents(ctx context.Context, g *domain.Guide) {
	if s.publisher == nil {
		return
	}
	events := g.GetDomainEvents()
	for _, event := range events {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.Error(err),
			)
		}
	}
	g.ClearDomainEvents()
}

// completeOperation emits the completion signal the rendering layer
// subscribes to. Emitted after every operation, successful or failed.
func (s *LifecycleService) completeOperation(ctx context.Context, guideID uuid.UUID, operation string, opErr error) {
	if s.publisher == nil {
		return
	}
	event := domain.NewOperationCompletedEvent(guideID, operation, opErr == nil, errorCode(opErr))
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish operation completion", zap.Error(err))
	}
}

// errorCode extracts the taxonomy code of an operation error
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	var recErr *shared.ReconciliationError
	if errors.As(err, &recErr) {
		return "RECONCILIATION"
	}
	var storErr *shared.StorageError
	if errors.As(err, &storErr) {
		return "STORAGE"
	}
	return "INTERNAL"
}

// productIDs projects stock lines to their product IDs
func productIDs(lines []domain.StockLine) []uuid.UUID {
	ids := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		ids[i] = line.ProductID
	}
	return ids
}
