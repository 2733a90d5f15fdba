package guide

import (
	"context"

	"github.com/courier/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GuideRepository defines persistence operations for guides. The store is
// asynchronous and offers no cross-entity transactions; status and shipping
// updates are exposed as single-field operations so the lifecycle engine
// can order them explicitly against stock adjustments.
type GuideRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Guide, error)
	FindByNumber(ctx context.Context, guideNumber string) (*Guide, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Guide, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	CountByStatus(ctx context.Context, status GuideStatus) (int64, error)

	Save(ctx context.Context, g *Guide) error
	SaveWithLock(ctx context.Context, g *Guide) error

	// UpdateStatus persists only the status column
	UpdateStatus(ctx context.Context, id uuid.UUID, status GuideStatus) error

	// UpdateShipping persists the shipping-cost fields of an adjustment
	UpdateShipping(ctx context.Context, id uuid.UUID, cost decimal.Decimal, original *decimal.Decimal, note string) error

	Delete(ctx context.Context, id uuid.UUID) error

	// GenerateGuideNumber produces the next sequential human-readable number
	GenerateGuideNumber(ctx context.Context) (string, error)
}

// IncidentRepository defines persistence for the append-only incident
// timeline
type IncidentRepository interface {
	FindByGuide(ctx context.Context, guideID uuid.UUID) ([]Incident, error)
	CountByGuide(ctx context.Context, guideID uuid.UUID) (int, error)
	Append(ctx context.Context, incident *Incident) error

	// ListSummaries returns, for every guide currently in INCIDENT status,
	// its incident count and most recent entry, newest activity first
	ListSummaries(ctx context.Context) ([]IncidentSummary, error)
}
