package guide

import (
	"context"

	domain "github.com/courier/backend/internal/domain/guide"
	"github.com/courier/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddIncident appends an entry to a guide's incident timeline. The entry
// number is the current count plus one, computed under the guide's lock so
// concurrent appends cannot collide.
func (s *LifecycleService) AddIncident(ctx context.Context, guideID uuid.UUID, req AddIncidentRequest) (*IncidentResponse, error) {
	s.locks.Lock(guideID)
	defer s.locks.Unlock(guideID)

	g, err := s.guideRepo.FindByID(ctx, guideID)
	if err != nil {
		s.completeOperation(ctx, guideID, OpAddIncident, err)
		return nil, err
	}

	incident, err := s.appendIncident(ctx, g, req.ActionType, req.Description)
	if err != nil {
		s.completeOperation(ctx, guideID, OpAddIncident, err)
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, domain.NewIncidentLoggedEvent(g, incident)); err != nil {
			s.logger.Warn("failed to publish incident logged event", zap.Error(err))
		}
	}
	s.completeOperation(ctx, guideID, OpAddIncident, nil)

	response := ToIncidentResponse(incident)
	return &response, nil
}

// ResolveIncident closes a guide's open incident. The guide must be in
// INCIDENT status; resolution appends a NOVEDAD_RESUELTA timeline entry
// and then drives the guide back to IN_TRANSIT through the normal
// transition path.
func (s *LifecycleService) ResolveIncident(ctx context.Context, guideID uuid.UUID) (*GuideResponse, error) {
	s.locks.Lock(guideID)
	defer s.locks.Unlock(guideID)

	g, err := s.guideRepo.FindByID(ctx, guideID)
	if err != nil {
		s.completeOperation(ctx, guideID, OpResolveIncident, err)
		return nil, err
	}

	if !g.IsInIncident() {
		err := shared.NewDomainError("INVALID_STATE", "Guide has no open incident to resolve")
		s.completeOperation(ctx, guideID, OpResolveIncident, err)
		return nil, err
	}

	incident, err := s.appendIncident(ctx, g, domain.ResolvedActionType, domain.ResolvedDescription)
	if err != nil {
		s.completeOperation(ctx, guideID, OpResolveIncident, err)
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, domain.NewIncidentLoggedEvent(g, incident)); err != nil {
			s.logger.Warn("failed to publish incident logged event", zap.Error(err))
		}
	}

	// INCIDENT -> IN_TRANSIT never crosses the stock-returning boundary,
	// so no confirmation callback is needed
	return s.changeStatusLocked(ctx, guideID, ChangeStatusRequest{NewStatus: domain.GuideStatusInTransit.String()}, nil)
}

// appendIncident numbers and persists a timeline entry for the guide
func (s *LifecycleService) appendIncident(ctx context.Context, g *domain.Guide, actionType, description string) (*domain.Incident, error) {
	count, err := s.incidentRepo.CountByGuide(ctx, g.ID)
	if err != nil {
		return nil, shared.NewStorageError("incident count", err)
	}

	incident, err := domain.NewIncident(g.ID, count+1, actionType, description)
	if err != nil {
		return nil, err
	}

	if err := s.incidentRepo.Append(ctx, incident); err != nil {
		return nil, shared.NewStorageError("incident append", err)
	}
	return incident, nil
}

// ListIncidents retrieves a guide's incident timeline in action order
func (s *LifecycleService) ListIncidents(ctx context.Context, guideID uuid.UUID) ([]IncidentResponse, error) {
	if _, err := s.guideRepo.FindByID(ctx, guideID); err != nil {
		return nil, err
	}
	incidents, err := s.incidentRepo.FindByGuide(ctx, guideID)
	if err != nil {
		return nil, err
	}
	return ToIncidentResponses(incidents), nil
}

// ListIncidentSummaries retrieves the incidents board: one row per guide
// currently in INCIDENT status with its timeline digest
func (s *LifecycleService) ListIncidentSummaries(ctx context.Context) ([]IncidentSummaryResponse, error) {
	summaries, err := s.incidentRepo.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}
	return ToIncidentSummaryResponses(summaries), nil
}
