package guide

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/courier/backend/internal/domain/guide"
	"github.com/courier/backend/internal/domain/inventory"
	"github.com/courier/backend/internal/domain/shared"
	"github.com/courier/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockGuideRepository is a mock implementation of guide.GuideRepository
type MockGuideRepository struct {
	mock.Mock
}

func (m *MockGuideRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Guide, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Guide), args.Error(1)
}

func (m *MockGuideRepository) FindByNumber(ctx context.Context, guideNumber string) (*domain.Guide, error) {
	args := m.Called(ctx, guideNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Guide), args.Error(1)
}

func (m *MockGuideRepository) FindAll(ctx context.Context, filter shared.Filter) ([]domain.Guide, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Guide), args.Error(1)
}

func (m *MockGuideRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGuideRepository) CountByStatus(ctx context.Context, status domain.GuideStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGuideRepository) Save(ctx context.Context, g *domain.Guide) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockGuideRepository) SaveWithLock(ctx context.Context, g *domain.Guide) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockGuideRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.GuideStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockGuideRepository) UpdateShipping(ctx context.Context, id uuid.UUID, cost decimal.Decimal, original *decimal.Decimal, note string) error {
	args := m.Called(ctx, id, cost, original, note)
	return args.Error(0)
}

func (m *MockGuideRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGuideRepository) GenerateGuideNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockIncidentRepository is a mock implementation of guide.IncidentRepository
type MockIncidentRepository struct {
	mock.Mock
}

func (m *MockIncidentRepository) FindByGuide(ctx context.Context, guideID uuid.UUID) ([]domain.Incident, error) {
	args := m.Called(ctx, guideID)
	return args.Get(0).([]domain.Incident), args.Error(1)
}

func (m *MockIncidentRepository) CountByGuide(ctx context.Context, guideID uuid.UUID) (int, error) {
	args := m.Called(ctx, guideID)
	return args.Int(0), args.Error(1)
}

func (m *MockIncidentRepository) Append(ctx context.Context, incident *domain.Incident) error {
	args := m.Called(ctx, incident)
	return args.Error(0)
}

func (m *MockIncidentRepository) ListSummaries(ctx context.Context) ([]domain.IncidentSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.IncidentSummary), args.Error(1)
}

// MockStockLedger is a mock implementation of the StockLedger port
type MockStockLedger struct {
	mock.Mock
}

func (m *MockStockLedger) IncreaseStock(ctx context.Context, productID uuid.UUID, city valueobject.City, quantity decimal.Decimal, reason inventory.MovementReason, referenceID *uuid.UUID) error {
	args := m.Called(ctx, productID, city, quantity, reason, referenceID)
	return args.Error(0)
}

func (m *MockStockLedger) DecreaseStock(ctx context.Context, productID uuid.UUID, city valueobject.City, quantity decimal.Decimal, enforce bool, reason inventory.MovementReason, referenceID *uuid.UUID) error {
	args := m.Called(ctx, productID, city, quantity, enforce, reason, referenceID)
	return args.Error(0)
}

// capturingPublisher records every published event for inspection
type capturingPublisher struct {
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) eventTypes() []string {
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.EventType()
	}
	return types
}

func (p *capturingPublisher) lastOperation() *domain.OperationCompletedEvent {
	for i := len(p.events) - 1; i >= 0; i-- {
		if op, ok := p.events[i].(*domain.OperationCompletedEvent); ok {
			return op
		}
	}
	return nil
}

// memoryIdempotencyStore is an in-memory IdempotencyStore for tests
type memoryIdempotencyStore struct {
	seen map[string]bool
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{seen: make(map[string]bool)}
}

func (s *memoryIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *memoryIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	return s.seen[key], nil
}

func (s *memoryIdempotencyStore) Close() error {
	return nil
}

var (
	testClientID   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testProductA   = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testProductB   = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	errStorageDown = errors.New("connection reset")
)

func newTestService() (*LifecycleService, *MockGuideRepository, *MockIncidentRepository, *MockStockLedger, *capturingPublisher) {
	guideRepo := new(MockGuideRepository)
	incidentRepo := new(MockIncidentRepository)
	stock := new(MockStockLedger)
	publisher := &capturingPublisher{}

	service := NewLifecycleService(guideRepo, incidentRepo, stock, zap.NewNop())
	service.SetEventPublisher(publisher)
	return service, guideRepo, incidentRepo, stock, publisher
}

// newTestGuide builds a guide in the given status with two items:
// product A x3 and product B x1
func newTestGuide(status domain.GuideStatus) *domain.Guide {
	g, _ := domain.NewGuide("GU-202608-0042", testClientID, "Maria Perez", valueobject.CityValencia)
	g.AddItem(testProductA, "Paracetamol 500mg", "MED-001", decimal.NewFromInt(3), valueobject.NewMoneyUSDFromFloat(2.50))
	g.AddItem(testProductB, "Vitamin C", "MED-002", decimal.NewFromInt(1), valueobject.NewMoneyUSDFromFloat(5.00))
	if status != domain.GuideStatusPending {
		g.TransitionTo(status)
	}
	g.ClearDomainEvents()
	return g
}

func TestLifecycleService_Create_Success(t *testing.T) {
	service, guideRepo, _, stock, publisher := newTestService()
	ctx := context.Background()

	req := CreateGuideRequest{
		ClientID:   testClientID,
		ClientName: "Maria Perez",
		City:       "VALENCIA",
		Items: []GuideItemRequest{
			{ProductID: testProductA, ProductName: "Paracetamol 500mg", ProductSKU: "MED-001", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromFloat(2.50)},
			{ProductID: testProductB, ProductName: "Vitamin C", ProductSKU: "MED-002", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromFloat(5.00)},
		},
	}

	guideRepo.On("GenerateGuideNumber", ctx).Return("GU-202608-0001", nil)
	stock.On("DecreaseStock", ctx, testProductA, valueobject.CityValencia, decimal.NewFromInt(3), true, inventory.ReasonGuideDispatch, mock.Anything).Return(nil)
	stock.On("DecreaseStock", ctx, testProductB, valueobject.CityValencia, decimal.NewFromInt(1), true, inventory.ReasonGuideDispatch, mock.Anything).Return(nil)
	guideRepo.On("Save", ctx, mock.AnythingOfType("*guide.Guide")).Return(nil)

	result, err := service.Create(ctx, req)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, "GU-202608-0001", result.GuideNumber)
	assert.Equal(t, "PENDING", result.Status)
	assert.Len(t, result.Items, 2)
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromFloat(12.50)))

	op := publisher.lastOperation()
	assert.NotNil(t, op)
	assert.True(t, op.Succeeded)
	guideRepo.AssertExpectations(t)
	stock.AssertExpectations(t)
}

func TestLifecycleService_Create_InsufficientStock(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	ctx := context.Background()

	req := CreateGuideRequest{
		ClientID:   testClientID,
		ClientName: "Maria Perez",
		City:       "VALENCIA",
		Items: []GuideItemRequest{
			{ProductID: testProductA, ProductName: "Paracetamol 500mg", ProductSKU: "MED-001", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromFloat(2.50)},
		},
	}

	guideRepo.On("GenerateGuideNumber", ctx).Return("GU-202608-0001", nil)
	stock.On("DecreaseStock", ctx, testProductA, valueobject.CityValencia, decimal.NewFromInt(3), true, inventory.ReasonGuideDispatch, mock.Anything).Return(shared.ErrInsufficientStock)

	result, err := service.Create(ctx, req)

	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
	guideRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestLifecycleService_Create_SaveFailsAfterDeduction(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	ctx := context.Background()

	req := CreateGuideRequest{
		ClientID:   testClientID,
		ClientName: "Maria Perez",
		City:       "VALENCIA",
		Items: []GuideItemRequest{
			{ProductID: testProductA, ProductName: "Paracetamol 500mg", ProductSKU: "MED-001", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromFloat(2.50)},
		},
	}

	guideRepo.On("GenerateGuideNumber", ctx).Return("GU-202608-0001", nil)
	stock.On("DecreaseStock", ctx, testProductA, mock.Anything, mock.Anything, true, inventory.ReasonGuideDispatch, mock.Anything).Return(nil)
	guideRepo.On("Save", ctx, mock.AnythingOfType("*guide.Guide")).Return(errStorageDown)

	result, err := service.Create(ctx, req)

	assert.Nil(t, result)
	var recErr *shared.ReconciliationError
	assert.ErrorAs(t, err, &recErr)
	assert.Equal(t, []uuid.UUID{testProductA}, recErr.AdjustedItems)
	assert.ErrorIs(t, err, errStorageDown)
}

func TestLifecycleService_ChangeStatus_NeutralTransition(t *testing.T) {
	service, guideRepo, _, stock, publisher := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusPending)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	guideRepo.On("UpdateStatus", ctx, g.ID, domain.GuideStatusInTransit).Return(nil)

	result, err := service.ChangeStatus(ctx, g.ID, ChangeStatusRequest{NewStatus: "IN_TRANSIT"}, nil)

	assert.NoError(t, err)
	assert.Equal(t, "IN_TRANSIT", result.Status)
	stock.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	stock.AssertNotCalled(t, "DecreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	op := publisher.lastOperation()
	assert.NotNil(t, op)
	assert.True(t, op.Succeeded)
	guideRepo.AssertExpectations(t)
}

func TestLifecycleService_ChangeStatus_UnknownStatus(t *testing.T) {
	service, _, _, _, _ := newTestService()
	ctx := context.Background()

	result, err := service.ChangeStatus(ctx, uuid.New(), ChangeStatusRequest{NewStatus: "LOST_IN_SPACE"}, nil)

	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION", domainErr.Code)
}

func TestLifecycleService_ChangeStatus_CancelReturnsStock(t *testing.T) {
	service, guideRepo, _, stock, publisher := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusInTransit)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	stock.On("IncreaseStock", ctx, testProductA, valueobject.CityValencia, decimal.NewFromInt(3), inventory.ReasonGuideReturn, &g.ID).Return(nil)
	stock.On("IncreaseStock", ctx, testProductB, valueobject.CityValencia, decimal.NewFromInt(1), inventory.ReasonGuideReturn, &g.ID).Return(nil)
	guideRepo.On("UpdateStatus", ctx, g.ID, domain.GuideStatusCancelled).Return(nil)

	confirmed := false
	confirm := func() bool {
		confirmed = true
		return true
	}

	result, err := service.ChangeStatus(ctx, g.ID, ChangeStatusRequest{NewStatus: "CANCELLED"}, confirm)

	assert.NoError(t, err)
	assert.True(t, confirmed)
	assert.Equal(t, "CANCELLED", result.Status)
	stock.AssertExpectations(t)
	guideRepo.AssertExpectations(t)

	// status change event carries the stock action for subscribers
	var statusEvent *domain.GuideStatusChangedEvent
	for _, e := range publisher.events {
		if se, ok := e.(*domain.GuideStatusChangedEvent); ok {
			statusEvent = se
		}
	}
	assert.NotNil(t, statusEvent)
	assert.Equal(t, "returned", statusEvent.StockAction)
}

func TestLifecycleService_ChangeStatus_DeclinedConfirmation(t *testing.T) {
	service, guideRepo, _, stock, publisher := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusInTransit)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)

	result, err := service.ChangeStatus(ctx, g.ID, ChangeStatusRequest{NewStatus: "CANCELLED"}, func() bool { return false })

	assert.Nil(t, result)
	assert.ErrorIs(t, err, shared.ErrConfirmDeclined)
	stock.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	guideRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)

	op := publisher.lastOperation()
	assert.NotNil(t, op)
	assert.False(t, op.Succeeded)
	assert.Equal(t, "CONFIRMATION_DECLINED", op.ErrorCode)
}

func TestLifecycleService_ChangeStatus_NilConfirmCountsAsDeclined(t *testing.T) {
	service, guideRepo, _, _, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusInTransit)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)

	result, err := service.ChangeStatus(ctx, g.ID, ChangeStatusRequest{NewStatus: "RETURNED"}, nil)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, shared.ErrConfirmDeclined)
}

func TestLifecycleService_ChangeStatus_StatusWriteFailsAfterReturn(t *testing.T) {
	service, guideRepo, _, stock, publisher := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusInTransit)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	stock.On("IncreaseStock", ctx, mock.Anything, mock.Anything, mock.Anything, inventory.ReasonGuideReturn, mock.Anything).Return(nil)
	guideRepo.On("UpdateStatus", ctx, g.ID, domain.GuideStatusCancelled).Return(errStorageDown)

	result, err := service.ChangeStatus(ctx, g.ID, ChangeStatusRequest{NewStatus: "CANCELLED"}, func() bool { return true })

	assert.Nil(t, result)
	var recErr *shared.ReconciliationError
	assert.ErrorAs(t, err, &recErr)
	assert.Equal(t, g.GuideNumber, recErr.GuideNumber)
	assert.Len(t, recErr.AdjustedItems, 2)

	op := publisher.lastOperation()
	assert.NotNil(t, op)
	assert.Equal(t, "RECONCILIATION", op.ErrorCode)
}

func TestLifecycleService_ChangeStatus_PartialStockReturn(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusInTransit)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	stock.On("IncreaseStock", ctx, testProductA, mock.Anything, mock.Anything, inventory.ReasonGuideReturn, mock.Anything).Return(nil)
	stock.On("IncreaseStock", ctx, testProductB, mock.Anything, mock.Anything, inventory.ReasonGuideReturn, mock.Anything).Return(errStorageDown)

	result, err := service.ChangeStatus(ctx, g.ID, ChangeStatusRequest{NewStatus: "CANCELLED"}, func() bool { return true })

	assert.Nil(t, result)
	var recErr *shared.ReconciliationError
	assert.ErrorAs(t, err, &recErr)
	assert.Equal(t, []uuid.UUID{testProductA}, recErr.AdjustedItems)
	guideRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_ChangeStatus_ReactivationLenient(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusCancelled)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	// lenient policy re-debits blindly: enforce is false
	stock.On("DecreaseStock", ctx, testProductA, valueobject.CityValencia, decimal.NewFromInt(3), false, inventory.ReasonGuideReactivation, &g.ID).Return(nil)
	stock.On("DecreaseStock", ctx, testProductB, valueobject.CityValencia, decimal.NewFromInt(1), false, inventory.ReasonGuideReactivation, &g.ID).Return(nil)
	guideRepo.On("UpdateStatus", ctx, g.ID, domain.GuideStatusPending).Return(nil)

	result, err := service.ChangeStatus(ctx, g.ID, ChangeStatusRequest{NewStatus: "PENDING"}, nil)

	assert.NoError(t, err)
	assert.Equal(t, "PENDING", result.Status)
	stock.AssertExpectations(t)
}

func TestLifecycleService_ChangeStatus_ReactivationStrict(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	service.SetStrictReactivation(true)
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusReturned)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	stock.On("DecreaseStock", ctx, testProductA, mock.Anything, mock.Anything, true, inventory.ReasonGuideReactivation, mock.Anything).Return(shared.ErrInsufficientStock)

	result, err := service.ChangeStatus(ctx, g.ID, ChangeStatusRequest{NewStatus: "IN_TRANSIT"}, nil)

	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
	guideRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_ChangeStatus_WithinReturningSet(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusCancelled)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	guideRepo.On("UpdateStatus", ctx, g.ID, domain.GuideStatusReturned).Return(nil)

	// CANCELLED -> RETURNED stays inside the set: no stock, no confirmation
	result, err := service.ChangeStatus(ctx, g.ID, ChangeStatusRequest{NewStatus: "RETURNED"}, nil)

	assert.NoError(t, err)
	assert.Equal(t, "RETURNED", result.Status)
	stock.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	stock.AssertNotCalled(t, "DecreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_ChangeStatus_ReplayedRequestKey(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	store := newMemoryIdempotencyStore()
	service.SetIdempotencyStore(store, shared.DefaultIdempotencyConfig())
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusPending)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	guideRepo.On("UpdateStatus", ctx, g.ID, domain.GuideStatusInTransit).Return(nil).Once()

	req := ChangeStatusRequest{NewStatus: "IN_TRANSIT", RequestKey: "req-abc-123"}

	first, err := service.ChangeStatus(ctx, g.ID, req, nil)
	assert.NoError(t, err)
	assert.Equal(t, "IN_TRANSIT", first.Status)

	// retry with the same key: no second status write, no stock movement
	second, err := service.ChangeStatus(ctx, g.ID, req, nil)
	assert.NoError(t, err)
	assert.NotNil(t, second)
	guideRepo.AssertNumberOfCalls(t, "UpdateStatus", 1)
	stock.AssertNotCalled(t, "DecreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_Delete_ReturnsStockFirst(t *testing.T) {
	service, guideRepo, _, stock, publisher := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusPending)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	stock.On("IncreaseStock", ctx, testProductA, valueobject.CityValencia, decimal.NewFromInt(3), inventory.ReasonGuideDeletion, &g.ID).Return(nil)
	stock.On("IncreaseStock", ctx, testProductB, valueobject.CityValencia, decimal.NewFromInt(1), inventory.ReasonGuideDeletion, &g.ID).Return(nil)
	guideRepo.On("Delete", ctx, g.ID).Return(nil)

	err := service.Delete(ctx, g.ID, func() bool { return true })

	assert.NoError(t, err)
	stock.AssertExpectations(t)
	guideRepo.AssertExpectations(t)
	assert.Contains(t, publisher.eventTypes(), domain.EventTypeGuideDeleted)
}

func TestLifecycleService_Delete_AlreadyReturnedSkipsStock(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusCancelled)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	guideRepo.On("Delete", ctx, g.ID).Return(nil)

	err := service.Delete(ctx, g.ID, func() bool { return true })

	assert.NoError(t, err)
	stock.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_Delete_Declined(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusPending)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)

	err := service.Delete(ctx, g.ID, func() bool { return false })

	assert.ErrorIs(t, err, shared.ErrConfirmDeclined)
	stock.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	guideRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestLifecycleService_Delete_RecordDeleteFailsAfterReturn(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusInTransit)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	stock.On("IncreaseStock", ctx, mock.Anything, mock.Anything, mock.Anything, inventory.ReasonGuideDeletion, mock.Anything).Return(nil)
	guideRepo.On("Delete", ctx, g.ID).Return(errStorageDown)

	err := service.Delete(ctx, g.ID, func() bool { return true })

	var recErr *shared.ReconciliationError
	assert.ErrorAs(t, err, &recErr)
	assert.Len(t, recErr.AdjustedItems, 2)
}

func TestLifecycleService_AdjustShipping_AnchorsOriginal(t *testing.T) {
	service, guideRepo, _, _, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusInTransit)
	g.SetShippingCost(valueobject.NewMoneyUSDFromFloat(10.00))

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	guideRepo.On("UpdateShipping", ctx, g.ID,
		mock.MatchedBy(func(cost decimal.Decimal) bool { return cost.Equal(decimal.NewFromFloat(15.00)) }),
		mock.MatchedBy(func(original *decimal.Decimal) bool { return original != nil && original.Equal(decimal.NewFromFloat(10.00)) }),
		"peaje",
	).Return(nil)

	result, err := service.AdjustShipping(ctx, g.ID, AdjustShippingRequest{NewCost: decimal.NewFromFloat(15.00), Note: "peaje"})

	assert.NoError(t, err)
	assert.True(t, result.ShippingCost.Equal(decimal.NewFromFloat(15.00)))
	assert.True(t, result.ShippingCostOriginal.Equal(decimal.NewFromFloat(10.00)))
	guideRepo.AssertExpectations(t)
}

func TestLifecycleService_AddItem_DeductsStock(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusPending)
	productC := uuid.New()

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	stock.On("DecreaseStock", ctx, productC, valueobject.CityValencia, decimal.NewFromInt(2), true, inventory.ReasonGuideDispatch, &g.ID).Return(nil)
	guideRepo.On("SaveWithLock", ctx, g).Return(nil)

	result, err := service.AddItem(ctx, g.ID, GuideItemRequest{
		ProductID:   productC,
		ProductName: "Ibuprofen 400mg",
		ProductSKU:  "MED-003",
		Quantity:    decimal.NewFromInt(2),
		UnitPrice:   decimal.NewFromFloat(3.00),
	})

	assert.NoError(t, err)
	assert.Len(t, result.Items, 3)
	stock.AssertExpectations(t)
}

func TestLifecycleService_AddItem_NotPending(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusInTransit)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)

	result, err := service.AddItem(ctx, g.ID, GuideItemRequest{
		ProductID:   uuid.New(),
		ProductName: "Ibuprofen 400mg",
		ProductSKU:  "MED-003",
		Quantity:    decimal.NewFromInt(2),
		UnitPrice:   decimal.NewFromFloat(3.00),
	})

	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	stock.AssertNotCalled(t, "DecreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_UpdateItem_QuantityIncrease(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusPending)
	itemID := g.Items[0].ID

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	// 3 -> 5: only the delta of 2 is debited
	stock.On("DecreaseStock", ctx, testProductA, valueobject.CityValencia, decimal.NewFromInt(2), true, inventory.ReasonGuideDispatch, &g.ID).Return(nil)
	guideRepo.On("SaveWithLock", ctx, g).Return(nil)

	newQty := decimal.NewFromInt(5)
	result, err := service.UpdateItem(ctx, g.ID, itemID, UpdateItemRequest{Quantity: &newQty})

	assert.NoError(t, err)
	assert.True(t, result.Items[0].Quantity.Equal(newQty))
	stock.AssertExpectations(t)
}

func TestLifecycleService_UpdateItem_QuantityDecrease(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusPending)
	itemID := g.Items[0].ID

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	// 3 -> 1: the delta of 2 is credited back
	stock.On("IncreaseStock", ctx, testProductA, valueobject.CityValencia, decimal.NewFromInt(2), inventory.ReasonGuideReturn, &g.ID).Return(nil)
	guideRepo.On("SaveWithLock", ctx, g).Return(nil)

	newQty := decimal.NewFromInt(1)
	result, err := service.UpdateItem(ctx, g.ID, itemID, UpdateItemRequest{Quantity: &newQty})

	assert.NoError(t, err)
	assert.True(t, result.Items[0].Quantity.Equal(newQty))
	stock.AssertExpectations(t)
}

func TestLifecycleService_UpdateItem_NonPositiveQuantityMovesNoStock(t *testing.T) {
	for _, qty := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-2)} {
		service, guideRepo, _, stock, _ := newTestService()
		ctx := context.Background()
		g := newTestGuide(domain.GuideStatusPending)
		itemID := g.Items[0].ID

		guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)

		// Dropping from 3 would otherwise credit the delta back before the
		// quantity is ever validated.
		result, err := service.UpdateItem(ctx, g.ID, itemID, UpdateItemRequest{Quantity: &qty})

		assert.Nil(t, result)
		var domainErr *shared.DomainError
		assert.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "VALIDATION", domainErr.Code)
		assert.True(t, g.Items[0].Quantity.Equal(decimal.NewFromInt(3)))
		stock.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		stock.AssertNotCalled(t, "DecreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		guideRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	}
}

func TestLifecycleService_UpdateItem_NotPendingMovesNoStock(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusInTransit)
	itemID := g.Items[0].ID

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)

	newQty := decimal.NewFromInt(1)
	result, err := service.UpdateItem(ctx, g.ID, itemID, UpdateItemRequest{Quantity: &newQty})

	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	stock.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	guideRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestLifecycleService_RemoveItem_CreditsStock(t *testing.T) {
	service, guideRepo, _, stock, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusPending)
	itemID := g.Items[1].ID

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	stock.On("IncreaseStock", ctx, testProductB, valueobject.CityValencia, decimal.NewFromInt(1), inventory.ReasonGuideReturn, &g.ID).Return(nil)
	guideRepo.On("SaveWithLock", ctx, g).Return(nil)

	result, err := service.RemoveItem(ctx, g.ID, itemID)

	assert.NoError(t, err)
	assert.Len(t, result.Items, 1)
	stock.AssertExpectations(t)
}

func TestLifecycleService_AddIncident_SequentialNumbering(t *testing.T) {
	service, guideRepo, incidentRepo, _, publisher := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusIncident)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	incidentRepo.On("CountByGuide", ctx, g.ID).Return(3, nil)
	incidentRepo.On("Append", ctx, mock.MatchedBy(func(inc *domain.Incident) bool {
		return inc.ActionNumber == 4 && inc.ActionType == "REPROGRAMADO"
	})).Return(nil)

	result, err := service.AddIncident(ctx, g.ID, AddIncidentRequest{ActionType: "REPROGRAMADO", Description: "Client absent, retry tomorrow"})

	assert.NoError(t, err)
	assert.Equal(t, 4, result.ActionNumber)
	assert.Contains(t, publisher.eventTypes(), domain.EventTypeIncidentLogged)
	incidentRepo.AssertExpectations(t)
}

func TestLifecycleService_ResolveIncident_Success(t *testing.T) {
	service, guideRepo, incidentRepo, stock, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusIncident)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)
	incidentRepo.On("CountByGuide", ctx, g.ID).Return(1, nil)
	incidentRepo.On("Append", ctx, mock.MatchedBy(func(inc *domain.Incident) bool {
		return inc.ActionNumber == 2 && inc.ActionType == domain.ResolvedActionType
	})).Return(nil)
	guideRepo.On("UpdateStatus", ctx, g.ID, domain.GuideStatusInTransit).Return(nil)

	result, err := service.ResolveIncident(ctx, g.ID)

	assert.NoError(t, err)
	assert.Equal(t, "IN_TRANSIT", result.Status)
	stock.AssertNotCalled(t, "IncreaseStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	incidentRepo.AssertExpectations(t)
	guideRepo.AssertExpectations(t)
}

func TestLifecycleService_ResolveIncident_NotInIncident(t *testing.T) {
	service, guideRepo, incidentRepo, _, _ := newTestService()
	ctx := context.Background()
	g := newTestGuide(domain.GuideStatusInTransit)

	guideRepo.On("FindByID", ctx, g.ID).Return(g, nil)

	result, err := service.ResolveIncident(ctx, g.ID)

	assert.Nil(t, result)
	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	incidentRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestLifecycleService_GetByID_NotFound(t *testing.T) {
	service, guideRepo, _, _, _ := newTestService()
	ctx := context.Background()
	id := uuid.New()

	guideRepo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

	result, err := service.GetByID(ctx, id)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestLifecycleService_StatusSummary(t *testing.T) {
	service, guideRepo, _, _, _ := newTestService()
	ctx := context.Background()

	counts := map[domain.GuideStatus]int64{
		domain.GuideStatusPending:   5,
		domain.GuideStatusInTransit: 3,
		domain.GuideStatusDelivered: 10,
		domain.GuideStatusPaid:      7,
		domain.GuideStatusIncident:  1,
		domain.GuideStatusCancelled: 2,
		domain.GuideStatusReturned:  1,
	}
	for status, count := range counts {
		guideRepo.On("CountByStatus", ctx, status).Return(count, nil)
	}

	summary, err := service.StatusSummary(ctx)

	assert.NoError(t, err)
	assert.Equal(t, int64(5), summary.Pending)
	assert.Equal(t, int64(1), summary.Incident)
	assert.Equal(t, int64(29), summary.Total)
}
