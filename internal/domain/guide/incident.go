package guide

import (
	"time"

	"github.com/courier/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ResolvedActionType is the closing timeline entry appended when an
// incident is resolved
const ResolvedActionType = "NOVEDAD_RESUELTA"

// ResolvedDescription is the canned description of the closing entry
const ResolvedDescription = "Incident resolved; guide returned to transit"

// Incident is a logged delivery problem on a guide. The timeline is
// append-only: no update or delete is exposed.
type Incident struct {
	ID           uuid.UUID
	GuideID      uuid.UUID
	ActionNumber int // per-guide, monotonically increasing from 1
	ActionType   string
	Description  string
	CreatedAt    time.Time
}

// NewIncident creates a new incident timeline entry
func NewIncident(guideID uuid.UUID, actionNumber int, actionType, description string) (*Incident, error) {
	if guideID == uuid.Nil {
		return nil, shared.NewDomainError("VALIDATION", "Guide ID cannot be empty")
	}
	if actionNumber < 1 {
		return nil, shared.NewDomainError("VALIDATION", "Action number must start at 1")
	}
	if actionType == "" {
		return nil, shared.NewDomainError("VALIDATION", "Action type cannot be empty")
	}

	return &Incident{
		ID:           uuid.New(),
		GuideID:      guideID,
		ActionNumber: actionNumber,
		ActionType:   actionType,
		Description:  description,
		CreatedAt:    time.Now(),
	}, nil
}

// IsResolution returns true if the entry is the closing "resolved" marker
func (i *Incident) IsResolution() bool {
	return i.ActionType == ResolvedActionType
}

// IncidentSummary is the per-guide aggregate used by the incidents board:
// total timeline length plus the most recent entry, for every guide
// currently in INCIDENT status.
type IncidentSummary struct {
	GuideID          uuid.UUID
	GuideNumber      string
	ClientName       string
	City             string
	IncidentCount    int
	LatestActionType string
	LatestActionAt   time.Time
}
