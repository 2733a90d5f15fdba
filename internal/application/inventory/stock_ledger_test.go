package inventory

import (
	"context"
	"errors"
	"testing"

	domain "github.com/courier/backend/internal/domain/inventory"
	"github.com/courier/backend/internal/domain/shared"
	"github.com/courier/backend/internal/domain/shared/valueobject"
	"github.com/courier/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MockInventoryRepository is a mock implementation of InventoryRepository
type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) FindByProductAndCity(ctx context.Context, productID uuid.UUID, city valueobject.City) (*domain.InventoryItem, error) {
	args := m.Called(ctx, productID, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) FindByCity(ctx context.Context, city valueobject.City, filter shared.Filter) ([]domain.InventoryItem, error) {
	args := m.Called(ctx, city, filter)
	return args.Get(0).([]domain.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]domain.InventoryItem, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]domain.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) Save(ctx context.Context, item *domain.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockInventoryRepository) SaveWithLock(ctx context.Context, item *domain.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// MockStockMovementRepository is a mock implementation of StockMovementRepository
type MockStockMovementRepository struct {
	mock.Mock
}

func (m *MockStockMovementRepository) Append(ctx context.Context, movement *domain.StockMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockStockMovementRepository) FindByReference(ctx context.Context, referenceID uuid.UUID) ([]domain.StockMovement, error) {
	args := m.Called(ctx, referenceID)
	return args.Get(0).([]domain.StockMovement), args.Error(1)
}

func (m *MockStockMovementRepository) FindByProductAndCity(ctx context.Context, productID uuid.UUID, city valueobject.City, filter shared.Filter) ([]domain.StockMovement, error) {
	args := m.Called(ctx, productID, city, filter)
	return args.Get(0).([]domain.StockMovement), args.Error(1)
}

func newTestLedger() (*StockLedger, *MockInventoryRepository, *MockStockMovementRepository) {
	inventoryRepo := new(MockInventoryRepository)
	movementRepo := new(MockStockMovementRepository)
	return NewStockLedger(inventoryRepo, movementRepo, zap.NewNop()), inventoryRepo, movementRepo
}

func newStockedItem(productID uuid.UUID, city valueobject.City, qty int64) *domain.InventoryItem {
	item, _ := domain.NewInventoryItem(productID, city)
	item.Increase(decimal.NewFromInt(qty))
	return item
}

func TestStockLedger_IncreaseStock_ExistingRecord(t *testing.T) {
	ledger, inventoryRepo, movementRepo := newTestLedger()
	ctx := context.Background()
	productID := uuid.New()
	guideID := uuid.New()
	item := newStockedItem(productID, valueobject.CityCaracas, 10)

	inventoryRepo.On("FindByProductAndCity", ctx, productID, valueobject.CityCaracas).Return(item, nil)
	inventoryRepo.On("SaveWithLock", ctx, item).Return(nil)
	movementRepo.On("Append", ctx, mock.MatchedBy(func(mov *domain.StockMovement) bool {
		return mov.Direction == domain.MovementIn && mov.Quantity.Equal(decimal.NewFromInt(4)) && mov.Reason == domain.ReasonGuideReturn
	})).Return(nil)

	err := ledger.IncreaseStock(ctx, productID, valueobject.CityCaracas, decimal.NewFromInt(4), domain.ReasonGuideReturn, &guideID)

	assert.NoError(t, err)
	assert.True(t, item.AvailableQuantity.Equal(decimal.NewFromInt(14)))
	inventoryRepo.AssertExpectations(t)
	movementRepo.AssertExpectations(t)
}

func TestStockLedger_IncreaseStock_CreatesMissingRecord(t *testing.T) {
	ledger, inventoryRepo, movementRepo := newTestLedger()
	ctx := context.Background()
	productID := uuid.New()

	inventoryRepo.On("FindByProductAndCity", ctx, productID, valueobject.CityMaracay).Return(nil, shared.ErrNotFound)
	inventoryRepo.On("Save", ctx, mock.MatchedBy(func(item *domain.InventoryItem) bool {
		return item.ProductID == productID && item.AvailableQuantity.Equal(decimal.NewFromInt(2))
	})).Return(nil)
	movementRepo.On("Append", ctx, mock.Anything).Return(nil)

	err := ledger.IncreaseStock(ctx, productID, valueobject.CityMaracay, decimal.NewFromInt(2), domain.ReasonGuideReturn, nil)

	assert.NoError(t, err)
	inventoryRepo.AssertExpectations(t)
	inventoryRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestStockLedger_DecreaseStock_Enforced(t *testing.T) {
	ledger, inventoryRepo, movementRepo := newTestLedger()
	ctx := context.Background()
	productID := uuid.New()
	item := newStockedItem(productID, valueobject.CityValencia, 5)

	inventoryRepo.On("FindByProductAndCity", ctx, productID, valueobject.CityValencia).Return(item, nil)
	inventoryRepo.On("SaveWithLock", ctx, item).Return(nil)
	movementRepo.On("Append", ctx, mock.MatchedBy(func(mov *domain.StockMovement) bool {
		return mov.Direction == domain.MovementOut && mov.Reason == domain.ReasonGuideDispatch
	})).Return(nil)

	err := ledger.DecreaseStock(ctx, productID, valueobject.CityValencia, decimal.NewFromInt(3), true, domain.ReasonGuideDispatch, nil)

	assert.NoError(t, err)
	assert.True(t, item.AvailableQuantity.Equal(decimal.NewFromInt(2)))
}

func TestStockLedger_DecreaseStock_EnforcedInsufficient(t *testing.T) {
	ledger, inventoryRepo, _ := newTestLedger()
	ctx := context.Background()
	productID := uuid.New()
	item := newStockedItem(productID, valueobject.CityValencia, 2)

	inventoryRepo.On("FindByProductAndCity", ctx, productID, valueobject.CityValencia).Return(item, nil)

	err := ledger.DecreaseStock(ctx, productID, valueobject.CityValencia, decimal.NewFromInt(3), true, domain.ReasonGuideDispatch, nil)

	var domainErr *shared.DomainError
	assert.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INSUFFICIENT_STOCK", domainErr.Code)
	assert.True(t, item.AvailableQuantity.Equal(decimal.NewFromInt(2)))
	inventoryRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestStockLedger_DecreaseStock_UnenforcedGoesNegative(t *testing.T) {
	ledger, inventoryRepo, movementRepo := newTestLedger()
	ctx := context.Background()
	productID := uuid.New()
	item := newStockedItem(productID, valueobject.CityValencia, 1)

	inventoryRepo.On("FindByProductAndCity", ctx, productID, valueobject.CityValencia).Return(item, nil)
	inventoryRepo.On("SaveWithLock", ctx, item).Return(nil)
	movementRepo.On("Append", ctx, mock.Anything).Return(nil)

	err := ledger.DecreaseStock(ctx, productID, valueobject.CityValencia, decimal.NewFromInt(3), false, domain.ReasonGuideReactivation, nil)

	assert.NoError(t, err)
	assert.True(t, item.AvailableQuantity.Equal(decimal.NewFromInt(-2)))
	assert.True(t, item.IsNegative())
}

func TestStockLedger_DecreaseStock_MissingRecordEnforced(t *testing.T) {
	ledger, inventoryRepo, _ := newTestLedger()
	ctx := context.Background()
	productID := uuid.New()

	inventoryRepo.On("FindByProductAndCity", ctx, productID, valueobject.CityValencia).Return(nil, shared.ErrNotFound)

	err := ledger.DecreaseStock(ctx, productID, valueobject.CityValencia, decimal.NewFromInt(1), true, domain.ReasonGuideDispatch, nil)

	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
}

func TestStockLedger_DecreaseStock_MissingRecordUnenforced(t *testing.T) {
	ledger, inventoryRepo, movementRepo := newTestLedger()
	ctx := context.Background()
	productID := uuid.New()

	inventoryRepo.On("FindByProductAndCity", ctx, productID, valueobject.CityValencia).Return(nil, shared.ErrNotFound)
	inventoryRepo.On("Save", ctx, mock.MatchedBy(func(item *domain.InventoryItem) bool {
		return item.AvailableQuantity.Equal(decimal.NewFromInt(-1))
	})).Return(nil)
	movementRepo.On("Append", ctx, mock.Anything).Return(nil)

	err := ledger.DecreaseStock(ctx, productID, valueobject.CityValencia, decimal.NewFromInt(1), false, domain.ReasonGuideReactivation, nil)

	assert.NoError(t, err)
	inventoryRepo.AssertExpectations(t)
}

func TestStockLedger_IncreaseStock_RetriesAfterVersionConflict(t *testing.T) {
	ledger, inventoryRepo, movementRepo := newTestLedger()
	ctx := context.Background()
	productID := uuid.New()
	first := newStockedItem(productID, valueobject.CityCaracas, 10)
	second := newStockedItem(productID, valueobject.CityCaracas, 11)

	inventoryRepo.On("FindByProductAndCity", ctx, productID, valueobject.CityCaracas).Return(first, nil).Once()
	inventoryRepo.On("FindByProductAndCity", ctx, productID, valueobject.CityCaracas).Return(second, nil).Once()
	inventoryRepo.On("SaveWithLock", ctx, first).
		Return(shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The stock record has been modified by another transaction")).Once()
	inventoryRepo.On("SaveWithLock", ctx, second).Return(nil).Once()
	movementRepo.On("Append", ctx, mock.Anything).Return(nil).Once()

	err := ledger.IncreaseStock(ctx, productID, valueobject.CityCaracas, decimal.NewFromInt(4), domain.ReasonGuideReturn, nil)

	assert.NoError(t, err)
	assert.True(t, second.AvailableQuantity.Equal(decimal.NewFromInt(15)))
	inventoryRepo.AssertExpectations(t)
	movementRepo.AssertExpectations(t)
}

func TestStockLedger_IncreaseStock_GivesUpAfterRepeatedConflicts(t *testing.T) {
	ledger, inventoryRepo, movementRepo := newTestLedger()
	ctx := context.Background()
	productID := uuid.New()
	item := newStockedItem(productID, valueobject.CityCaracas, 10)

	inventoryRepo.On("FindByProductAndCity", ctx, productID, valueobject.CityCaracas).Return(item, nil)
	inventoryRepo.On("SaveWithLock", ctx, item).
		Return(shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The stock record has been modified by another transaction"))

	err := ledger.IncreaseStock(ctx, productID, valueobject.CityCaracas, decimal.NewFromInt(1), domain.ReasonManualAdjustment, nil)

	var storageErr *shared.StorageError
	assert.ErrorAs(t, err, &storageErr)
	inventoryRepo.AssertNumberOfCalls(t, "SaveWithLock", saveAttempts)
	movementRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestStockLedger_FreshPairAgainstDatabase(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.InventoryItem{}, &domain.StockMovement{}))

	ledger := NewStockLedger(
		persistence.NewGormInventoryRepository(db),
		persistence.NewGormStockMovementRepository(db),
		zap.NewNop(),
	)
	ctx := context.Background()
	productID := uuid.New()
	guideID := uuid.New()

	// No stock record exists yet for this pair; the credit must create one.
	err = ledger.IncreaseStock(ctx, productID, valueobject.CityBarquisimeto, decimal.NewFromInt(3), domain.ReasonGuideReturn, &guideID)
	require.NoError(t, err)

	qty, err := ledger.Availability(ctx, productID, valueobject.CityBarquisimeto)
	require.NoError(t, err)
	assert.True(t, qty.Equal(decimal.NewFromInt(3)))

	// A second credit goes through the version guard on the stored record.
	require.NoError(t, ledger.IncreaseStock(ctx, productID, valueobject.CityBarquisimeto, decimal.NewFromInt(2), domain.ReasonGuideReturn, &guideID))

	qty, err = ledger.Availability(ctx, productID, valueobject.CityBarquisimeto)
	require.NoError(t, err)
	assert.True(t, qty.Equal(decimal.NewFromInt(5)))

	movements, err := ledger.MovementsForGuide(ctx, guideID)
	require.NoError(t, err)
	assert.Len(t, movements, 2)
}

func TestStockLedger_MovementAppendFailureIsNotPropagated(t *testing.T) {
	ledger, inventoryRepo, movementRepo := newTestLedger()
	ctx := context.Background()
	productID := uuid.New()
	item := newStockedItem(productID, valueobject.CityCaracas, 10)

	inventoryRepo.On("FindByProductAndCity", ctx, productID, valueobject.CityCaracas).Return(item, nil)
	inventoryRepo.On("SaveWithLock", ctx, item).Return(nil)
	movementRepo.On("Append", ctx, mock.Anything).Return(errors.New("audit table locked"))

	err := ledger.IncreaseStock(ctx, productID, valueobject.CityCaracas, decimal.NewFromInt(1), domain.ReasonManualAdjustment, nil)

	assert.NoError(t, err)
}

func TestStockLedger_Availability_MissingReadsAsZero(t *testing.T) {
	ledger, inventoryRepo, _ := newTestLedger()
	ctx := context.Background()
	productID := uuid.New()

	inventoryRepo.On("FindByProductAndCity", ctx, productID, valueobject.CityBarquisimeto).Return(nil, shared.ErrNotFound)

	qty, err := ledger.Availability(ctx, productID, valueobject.CityBarquisimeto)

	assert.NoError(t, err)
	assert.True(t, qty.IsZero())
}
