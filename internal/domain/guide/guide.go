package guide

import (
	"time"

	"github.com/courier/backend/internal/domain/shared"
	"github.com/courier/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GuideStatus represents the fulfillment status of a delivery guide
type GuideStatus string

const (
	GuideStatusPending   GuideStatus = "PENDING"
	GuideStatusInTransit GuideStatus = "IN_TRANSIT"
	GuideStatusDelivered GuideStatus = "DELIVERED"
	GuideStatusPaid      GuideStatus = "PAID"
	GuideStatusIncident  GuideStatus = "INCIDENT"
	GuideStatusCancelled GuideStatus = "CANCELLED"
	GuideStatusReturned  GuideStatus = "RETURNED"
)

// IsValid checks if the status is a valid GuideStatus
func (s GuideStatus) IsValid() bool {
	switch s {
	case GuideStatusPending, GuideStatusInTransit, GuideStatusDelivered,
		GuideStatusPaid, GuideStatusIncident, GuideStatusCancelled, GuideStatusReturned:
		return true
	}
	return false
}

// String returns the string representation of GuideStatus
func (s GuideStatus) String() string {
	return string(s)
}

// ReturnsStock reports whether the status is a stock-returning state.
// Entering one of these states from outside the set credits every item's
// quantity back to inventory; leaving the set re-debits it.
func (s GuideStatus) ReturnsStock() bool {
	return s == GuideStatusCancelled || s == GuideStatusReturned
}

// GuideItem represents a priced line item in a guide
type GuideItem struct {
	ID          uuid.UUID
	GuideID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	ProductSKU  string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal // manually entered; not necessarily the catalog price
	Subtotal    decimal.Decimal // Quantity * UnitPrice
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewGuideItem creates a new guide item
func NewGuideItem(guideID, productID uuid.UUID, productName, productSKU string, quantity decimal.Decimal, unitPrice valueobject.Money) (*GuideItem, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("VALIDATION", "Product name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("VALIDATION", "Quantity must be positive")
	}
	if unitPrice.Amount().IsNegative() {
		return nil, shared.NewDomainError("VALIDATION", "Unit price cannot be negative")
	}

	now := time.Now()
	return &GuideItem{
		ID:          uuid.New(),
		GuideID:     guideID,
		ProductID:   productID,
		ProductName: productName,
		ProductSKU:  productSKU,
		Quantity:    quantity,
		UnitPrice:   unitPrice.Amount(),
		Subtotal:    quantity.Mul(unitPrice.Amount()),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateQuantity updates the item quantity and recalculates the subtotal
func (i *GuideItem) UpdateQuantity(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("VALIDATION", "Quantity must be positive")
	}

	i.Quantity = quantity
	i.Subtotal = quantity.Mul(i.UnitPrice)
	i.UpdatedAt = time.Now()

	return nil
}

// UpdateUnitPrice updates the unit price and recalculates the subtotal
func (i *GuideItem) UpdateUnitPrice(unitPrice valueobject.Money) error {
	if unitPrice.Amount().IsNegative() {
		return shared.NewDomainError("VALIDATION", "Unit price cannot be negative")
	}

	i.UnitPrice = unitPrice.Amount()
	i.Subtotal = i.Quantity.Mul(i.UnitPrice)
	i.UpdatedAt = time.Now()

	return nil
}

// SubtotalMoney returns the subtotal as Money
func (i *GuideItem) SubtotalMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(i.Subtotal)
}

// StockLine is the (product, quantity) projection of an item used by the
// reconciliation engine
type StockLine struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// Guide represents a delivery guide aggregate root. It bundles a client,
// a set of priced line items, a fulfillment status, and the city-specific
// payment metadata of the capital-city variant.
type Guide struct {
	shared.BaseAggregateRoot
	GuideNumber string
	ClientID    uuid.UUID // reference only; the client may be deleted later
	ClientName  string
	City        valueobject.City
	Items       []GuideItem
	TotalAmount decimal.Decimal // sum of item subtotals, excludes shipping
	Status      GuideStatus

	ShippingCost           *decimal.Decimal
	ShippingCostOriginal   *decimal.Decimal // set once on first adjustment, immutable after
	ShippingAdjustedAt     *time.Time
	ShippingAdjustmentNote string

	// Capital-city payment metadata; nil/empty for other cities
	AmountUSD    *decimal.Decimal
	PaymentBs    *decimal.Decimal
	DeliveryTime string

	Observations string
}

// NewGuide creates a new guide in PENDING status
func NewGuide(guideNumber string, clientID uuid.UUID, clientName string, city valueobject.City) (*Guide, error) {
	if guideNumber == "" {
		return nil, shared.NewDomainError("VALIDATION", "Guide number cannot be empty")
	}
	if clientID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION", "Client ID cannot be empty")
	}
	if clientName == "" {
		return nil, shared.NewDomainError("VALIDATION", "Client name cannot be empty")
	}
	if !city.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", "Unknown operating city")
	}

	g := &Guide{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		GuideNumber:       guideNumber,
		ClientID:          clientID,
		ClientName:        clientName,
		City:              city,
		Items:             make([]GuideItem, 0),
		TotalAmount:       decimal.Zero,
		Status:            GuideStatusPending,
	}

	g.AddDomainEvent(NewGuideCreatedEvent(g))

	return g, nil
}

// AddItem adds a new line item to the guide.
// Item membership is editable only while the guide is PENDING; once it has
// been dispatched the reconciliation invariant depends on a stable item set.
func (g *Guide) AddItem(productID uuid.UUID, productName, productSKU string, quantity decimal.Decimal, unitPrice valueobject.Money) (*GuideItem, error) {
	if g.Status != GuideStatusPending {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add items to a dispatched guide")
	}

	for _, item := range g.Items {
		if item.ProductID == productID {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Product already exists in guide, update quantity instead")
		}
	}

	item, err := NewGuideItem(g.ID, productID, productName, productSKU, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	g.Items = append(g.Items, *item)
	g.recalculateTotal()
	g.UpdatedAt = time.Now()

	return item, nil
}

// UpdateItemQuantity updates the quantity of an existing item
func (g *Guide) UpdateItemQuantity(itemID uuid.UUID, quantity decimal.Decimal) error {
	if g.Status != GuideStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot update items of a dispatched guide")
	}

	for idx := range g.Items {
		if g.Items[idx].ID == itemID {
			if err := g.Items[idx].UpdateQuantity(quantity); err != nil {
				return err
			}
			g.recalculateTotal()
			g.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("NOT_FOUND", "Guide item not found")
}

// UpdateItemPrice updates the unit price of an existing item
func (g *Guide) UpdateItemPrice(itemID uuid.UUID, unitPrice valueobject.Money) error {
	if g.Status != GuideStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot update items of a dispatched guide")
	}

	for idx := range g.Items {
		if g.Items[idx].ID == itemID {
			if err := g.Items[idx].UpdateUnitPrice(unitPrice); err != nil {
				return err
			}
			g.recalculateTotal()
			g.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("NOT_FOUND", "Guide item not found")
}

// RemoveItem removes an item from the guide
func (g *Guide) RemoveItem(itemID uuid.UUID) error {
	if g.Status != GuideStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot remove items from a dispatched guide")
	}

	for idx, item := range g.Items {
		if item.ID == itemID {
			g.Items = append(g.Items[:idx], g.Items[idx+1:]...)
			g.recalculateTotal()
			g.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewDomainError("NOT_FOUND", "Guide item not found")
}

// TransitionTo moves the guide to a new status. Every status is reachable
// from every other by explicit operator action; the stock side effects of
// the transition are owned by the lifecycle engine, which calls this only
// after the applicable stock step has completed.
func (g *Guide) TransitionTo(newStatus GuideStatus) error {
	if !newStatus.IsValid() {
		return shared.NewDomainError("VALIDATION", "Unknown guide status")
	}

	from := g.Status
	g.Status = newStatus
	g.UpdatedAt = time.Now()

	g.AddDomainEvent(NewGuideStatusChangedEvent(g, from, newStatus))

	return nil
}

// AdjustShipping records a shipping-cost adjustment. The first adjustment
// anchors the pre-adjustment cost in ShippingCostOriginal; later calls
// leave the anchor untouched. Never touches stock or status.
func (g *Guide) AdjustShipping(newCost valueobject.Money, note string) error {
	if newCost.Amount().IsNegative() {
		return shared.NewDomainError("VALIDATION", "Shipping cost cannot be negative")
	}

	if g.ShippingCostOriginal == nil {
		anchor := decimal.Zero
		if g.ShippingCost != nil {
			anchor = *g.ShippingCost
		}
		g.ShippingCostOriginal = &anchor
	}

	now := time.Now()
	cost := newCost.Amount()
	g.ShippingCost = &cost
	g.ShippingAdjustedAt = &now
	g.ShippingAdjustmentNote = note
	g.UpdatedAt = now

	g.AddDomainEvent(NewGuideShippingAdjustedEvent(g, cost, note))

	return nil
}

// SetShippingCost sets the initial shipping cost without recording an
// adjustment. Used at creation time only.
func (g *Guide) SetShippingCost(cost valueobject.Money) error {
	if cost.Amount().IsNegative() {
		return shared.NewDomainError("VALIDATION", "Shipping cost cannot be negative")
	}
	c := cost.Amount()
	g.ShippingCost = &c
	g.UpdatedAt = time.Now()
	return nil
}

// SetPaymentDetail records the capital-city payment metadata
func (g *Guide) SetPaymentDetail(amountUSD, paymentBs decimal.Decimal, deliveryTime string) error {
	if !g.City.IsCapital() {
		return shared.NewDomainError("VALIDATION", "Payment detail only applies to capital-city guides")
	}
	if amountUSD.IsNegative() || paymentBs.IsNegative() {
		return shared.NewDomainError("VALIDATION", "Payment amounts cannot be negative")
	}

	g.AmountUSD = &amountUSD
	g.PaymentBs = &paymentBs
	g.DeliveryTime = deliveryTime
	g.UpdatedAt = time.Now()

	return nil
}

// SetObservations sets the free-text observations
func (g *Guide) SetObservations(observations string) {
	g.Observations = observations
	g.UpdatedAt = time.Now()
}

// StockLines returns the (product, quantity) pairs of every item, in item
// order, for the reconciliation engine
func (g *Guide) StockLines() []StockLine {
	lines := make([]StockLine, len(g.Items))
	for i, item := range g.Items {
		lines[i] = StockLine{ProductID: item.ProductID, Quantity: item.Quantity}
	}
	return lines
}

// recalculateTotal recomputes TotalAmount from the attached item subtotals.
// TotalAmount is never edited independently.
func (g *Guide) recalculateTotal() {
	total := decimal.Zero
	for _, item := range g.Items {
		total = total.Add(item.Subtotal)
	}
	g.TotalAmount = total
}

// TotalAmountMoney returns the total amount as Money
func (g *Guide) TotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(g.TotalAmount)
}

// ItemCount returns the number of line items
func (g *Guide) ItemCount() int {
	return len(g.Items)
}

// IsPending returns true if the guide has not been dispatched yet
func (g *Guide) IsPending() bool {
	return g.Status == GuideStatusPending
}

// IsInIncident returns true if the guide is currently flagged with a novedad
func (g *Guide) IsInIncident() bool {
	return g.Status == GuideStatusIncident
}

// StockReturned reports whether the guide currently sits in a
// stock-returning state
func (g *Guide) StockReturned() bool {
	return g.Status.ReturnsStock()
}

// GetItem returns an item by its ID
func (g *Guide) GetItem(itemID uuid.UUID) *GuideItem {
	for idx := range g.Items {
		if g.Items[idx].ID == itemID {
			return &g.Items[idx]
		}
	}
	return nil
}
