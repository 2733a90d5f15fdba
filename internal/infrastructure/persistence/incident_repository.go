package persistence

import (
	"context"
	"errors"
	"sort"

	"github.com/courier/backend/internal/domain/guide"
	"github.com/courier/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormIncidentRepository implements IncidentRepository using GORM
type GormIncidentRepository struct {
	db *gorm.DB
}

// NewGormIncidentRepository creates a new GormIncidentRepository
func NewGormIncidentRepository(db *gorm.DB) *GormIncidentRepository {
	return &GormIncidentRepository{db: db}
}

// FindByGuide returns the full timeline of a guide in action order
func (r *GormIncidentRepository) FindByGuide(ctx context.Context, guideID uuid.UUID) ([]guide.Incident, error) {
	var incidentModels []models.IncidentModel
	if err := r.db.WithContext(ctx).
		Where("guide_id = ?", guideID).
		Order("action_number ASC").
		Find(&incidentModels).Error; err != nil {
		return nil, err
	}

	incidents := make([]guide.Incident, len(incidentModels))
	for i, model := range incidentModels {
		incidents[i] = *model.ToDomain()
	}
	return incidents, nil
}

// CountByGuide returns the timeline length of a guide
func (r *GormIncidentRepository) CountByGuide(ctx context.Context, guideID uuid.UUID) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.IncidentModel{}).
		Where("guide_id = ?", guideID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

// Append adds an entry to the timeline. The unique index on
// (guide_id, action_number) rejects duplicates racing for the same slot.
func (r *GormIncidentRepository) Append(ctx context.Context, incident *guide.Incident) error {
	model := models.IncidentModelFromDomain(incident)
	return r.db.WithContext(ctx).Create(model).Error
}

// ListSummaries returns, for every guide currently in INCIDENT status, its
// incident count and most recent entry, newest activity first
func (r *GormIncidentRepository) ListSummaries(ctx context.Context) ([]guide.IncidentSummary, error) {
	var guideModels []models.GuideModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", guide.GuideStatusIncident.String()).
		Find(&guideModels).Error; err != nil {
		return nil, err
	}

	summaries := make([]guide.IncidentSummary, 0, len(guideModels))
	for _, g := range guideModels {
		var latest models.IncidentModel
		err := r.db.WithContext(ctx).
			Where("guide_id = ?", g.ID).
			Order("action_number DESC").
			First(&latest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.IncidentModel{}).
			Where("guide_id = ?", g.ID).
			Count(&count).Error; err != nil {
			return nil, err
		}

		summaries = append(summaries, guide.IncidentSummary{
			GuideID:          g.ID,
			GuideNumber:      g.GuideNumber,
			ClientName:       g.ClientName,
			City:             g.City,
			IncidentCount:    int(count),
			LatestActionType: latest.ActionType,
			LatestActionAt:   latest.CreatedAt,
		})
	}

	// Newest activity first
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LatestActionAt.After(summaries[j].LatestActionAt)
	})

	return summaries, nil
}

// Ensure GormIncidentRepository implements IncidentRepository
var _ guide.IncidentRepository = (*GormIncidentRepository)(nil)
