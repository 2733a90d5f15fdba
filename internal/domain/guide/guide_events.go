package guide

import (
	"github.com/courier/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeGuide = "Guide"

// Event type constants
const (
	EventTypeGuideCreated          = "GuideCreated"
	EventTypeGuideStatusChanged    = "GuideStatusChanged"
	EventTypeGuideShippingAdjusted = "GuideShippingAdjusted"
	EventTypeGuideDeleted          = "GuideDeleted"
	EventTypeIncidentLogged        = "IncidentLogged"
	EventTypeOperationCompleted    = "GuideOperationCompleted"
)

// GuideCreatedEvent is raised when a new guide is created
type GuideCreatedEvent struct {
	shared.BaseDomainEvent
	GuideID     uuid.UUID       `json:"guide_id"`
	GuideNumber string          `json:"guide_number"`
	ClientID    uuid.UUID       `json:"client_id"`
	ClientName  string          `json:"client_name"`
	City        string          `json:"city"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewGuideCreatedEvent creates a new GuideCreatedEvent
func NewGuideCreatedEvent(g *Guide) *GuideCreatedEvent {
	return &GuideCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGuideCreated, AggregateTypeGuide, g.ID),
		GuideID:         g.ID,
		GuideNumber:     g.GuideNumber,
		ClientID:        g.ClientID,
		ClientName:      g.ClientName,
		City:            g.City.String(),
		TotalAmount:     g.TotalAmount,
	}
}

// GuideStatusChangedEvent is raised when a guide moves to a new status.
// StockAction records the reconciliation side of the transition so the
// rendering layer can refresh inventory views when needed.
type GuideStatusChangedEvent struct {
	shared.BaseDomainEvent
	GuideID     uuid.UUID `json:"guide_id"`
	GuideNumber string    `json:"guide_number"`
	FromStatus  string    `json:"from_status"`
	ToStatus    string    `json:"to_status"`
	StockAction string    `json:"stock_action"` // "returned", "deducted", or "none"
}

// NewGuideStatusChangedEvent creates a new GuideStatusChangedEvent
func NewGuideStatusChangedEvent(g *Guide, from, to GuideStatus) *GuideStatusChangedEvent {
	action := "none"
	switch {
	case to.ReturnsStock() && !from.ReturnsStock():
		action = "returned"
	case from.ReturnsStock() && !to.ReturnsStock():
		action = "deducted"
	}
	return &GuideStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGuideStatusChanged, AggregateTypeGuide, g.ID),
		GuideID:         g.ID,
		GuideNumber:     g.GuideNumber,
		FromStatus:      from.String(),
		ToStatus:        to.String(),
		StockAction:     action,
	}
}

// GuideShippingAdjustedEvent is raised when the shipping cost is adjusted
type GuideShippingAdjustedEvent struct {
	shared.BaseDomainEvent
	GuideID      uuid.UUID        `json:"guide_id"`
	GuideNumber  string           `json:"guide_number"`
	NewCost      decimal.Decimal  `json:"new_cost"`
	OriginalCost *decimal.Decimal `json:"original_cost,omitempty"`
	Note         string           `json:"note"`
}

// NewGuideShippingAdjustedEvent creates a new GuideShippingAdjustedEvent
func NewGuideShippingAdjustedEvent(g *Guide, newCost decimal.Decimal, note string) *GuideShippingAdjustedEvent {
	return &GuideShippingAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGuideShippingAdjusted, AggregateTypeGuide, g.ID),
		GuideID:         g.ID,
		GuideNumber:     g.GuideNumber,
		NewCost:         newCost,
		OriginalCost:    g.ShippingCostOriginal,
		Note:            note,
	}
}

// GuideDeletedEvent is raised after a guide and its items are removed
type GuideDeletedEvent struct {
	shared.BaseDomainEvent
	GuideID       uuid.UUID `json:"guide_id"`
	GuideNumber   string    `json:"guide_number"`
	StockReturned bool      `json:"stock_returned"`
}

// NewGuideDeletedEvent creates a new GuideDeletedEvent
func NewGuideDeletedEvent(g *Guide, stockReturned bool) *GuideDeletedEvent {
	return &GuideDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGuideDeleted, AggregateTypeGuide, g.ID),
		GuideID:         g.ID,
		GuideNumber:     g.GuideNumber,
		StockReturned:   stockReturned,
	}
}

// IncidentLoggedEvent is raised when an incident is appended to a guide's
// timeline
type IncidentLoggedEvent struct {
	shared.BaseDomainEvent
	GuideID      uuid.UUID `json:"guide_id"`
	IncidentID   uuid.UUID `json:"incident_id"`
	ActionNumber int       `json:"action_number"`
	ActionType   string    `json:"action_type"`
}

// NewIncidentLoggedEvent creates a new IncidentLoggedEvent
func NewIncidentLoggedEvent(g *Guide, incident *Incident) *IncidentLoggedEvent {
	return &IncidentLoggedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeIncidentLogged, AggregateTypeGuide, g.ID),
		GuideID:         g.ID,
		IncidentID:      incident.ID,
		ActionNumber:    incident.ActionNumber,
		ActionType:      incident.ActionType,
	}
}

// OperationCompletedEvent is emitted by the lifecycle engine after every
// operation, successful or not. The rendering layer subscribes to decide
// what is currently visible and worth refreshing; the engine never pushes
// data directly.
type OperationCompletedEvent struct {
	shared.BaseDomainEvent
	GuideID   uuid.UUID `json:"guide_id"`
	Operation string    `json:"operation"`
	Succeeded bool      `json:"succeeded"`
	ErrorCode string    `json:"error_code,omitempty"`
}

// NewOperationCompletedEvent creates a new OperationCompletedEvent
func NewOperationCompletedEvent(guideID uuid.UUID, operation string, succeeded bool, errorCode string) *OperationCompletedEvent {
	return &OperationCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOperationCompleted, AggregateTypeGuide, guideID),
		GuideID:         guideID,
		Operation:       operation,
		Succeeded:       succeeded,
		ErrorCode:       errorCode,
	}
}
