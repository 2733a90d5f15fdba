package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/courier/backend/internal/domain/guide"
	"github.com/courier/backend/internal/domain/shared"
	"github.com/courier/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// guideNumberPrefix is the prefix of every generated guide number
const guideNumberPrefix = "GU"

// GormGuideRepository implements GuideRepository using GORM
type GormGuideRepository struct {
	db *gorm.DB
}

// NewGormGuideRepository creates a new GormGuideRepository
func NewGormGuideRepository(db *gorm.DB) *GormGuideRepository {
	return &GormGuideRepository{db: db}
}

// FindByID finds a guide by its ID, items included
func (r *GormGuideRepository) FindByID(ctx context.Context, id uuid.UUID) (*guide.Guide, error) {
	var model models.GuideModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a guide by its human-readable number
func (r *GormGuideRepository) FindByNumber(ctx context.Context, guideNumber string) (*guide.Guide, error) {
	var model models.GuideModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("guide_number = ?", guideNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all guides matching the filter
func (r *GormGuideRepository) FindAll(ctx context.Context, filter shared.Filter) ([]guide.Guide, error) {
	var guideModels []models.GuideModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.GuideModel{}), filter)

	if err := query.Preload("Items").Find(&guideModels).Error; err != nil {
		return nil, err
	}

	guides := make([]guide.Guide, len(guideModels))
	for i, model := range guideModels {
		guides[i] = *model.ToDomain()
	}
	return guides, nil
}

// Count counts guides matching the filter
func (r *GormGuideRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.GuideModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts guides in the given status
func (r *GormGuideRepository) CountByStatus(ctx context.Context, status guide.GuideStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.GuideModel{}).
		Where("status = ?", status.String()).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a guide together with its items
func (r *GormGuideRepository) Save(ctx context.Context, g *guide.Guide) error {
	model := models.GuideModelFromDomain(g)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(model).Error; err != nil {
			return err
		}
		// Items removed from the aggregate must go away in the store too
		itemIDs := make([]uuid.UUID, len(model.Items))
		for i, item := range model.Items {
			itemIDs[i] = item.ID
		}
		query := tx.Where("guide_id = ?", model.ID)
		if len(itemIDs) > 0 {
			query = query.Where("id NOT IN ?", itemIDs)
		}
		return query.Delete(&models.GuideItemModel{}).Error
	})
}

// SaveWithLock saves a guide with optimistic locking (version check)
// Returns error if the version has changed (concurrent modification)
func (r *GormGuideRepository) SaveWithLock(ctx context.Context, g *guide.Guide) error {
	model := models.GuideModelFromDomain(g)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.GuideModel{}).
			Where("id = ? AND version = ?", g.ID, g.Version-1).
			Omit("Items").
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The guide has been modified by another transaction")
		}

		for i := range model.Items {
			if err := tx.Save(&model.Items[i]).Error; err != nil {
				return err
			}
		}
		itemIDs := make([]uuid.UUID, len(model.Items))
		for i, item := range model.Items {
			itemIDs[i] = item.ID
		}
		query := tx.Where("guide_id = ?", model.ID)
		if len(itemIDs) > 0 {
			query = query.Where("id NOT IN ?", itemIDs)
		}
		return query.Delete(&models.GuideItemModel{}).Error
	})
}

// UpdateStatus persists only the status column
func (r *GormGuideRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status guide.GuideStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.GuideModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status.String(),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateShipping persists the shipping-cost fields of an adjustment
func (r *GormGuideRepository) UpdateShipping(ctx context.Context, id uuid.UUID, cost decimal.Decimal, original *decimal.Decimal, note string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"shipping_cost":            cost,
		"shipping_adjusted_at":     now,
		"shipping_adjustment_note": note,
		"updated_at":               now,
	}
	if original != nil {
		updates["shipping_cost_original"] = *original
	}

	result := r.db.WithContext(ctx).
		Model(&models.GuideModel{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a guide, its items and its incident timeline
func (r *GormGuideRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("guide_id = ?", id).Delete(&models.GuideItemModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("guide_id = ?", id).Delete(&models.IncidentModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.GuideModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// GenerateGuideNumber produces the next sequential number in the
// GU-YYYYMM-NNNN series, restarting the counter every month
func (r *GormGuideRepository) GenerateGuideNumber(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("%s-%s-", guideNumberPrefix, time.Now().Format("200601"))

	var latest string
	err := r.db.WithContext(ctx).
		Model(&models.GuideModel{}).
		Select("guide_number").
		Where("guide_number LIKE ?", prefix+"%").
		Order("guide_number DESC").
		Limit(1).
		Scan(&latest).Error
	if err != nil {
		return "", err
	}

	next := 1
	if latest != "" {
		seq, err := strconv.Atoi(strings.TrimPrefix(latest, prefix))
		if err != nil {
			return "", fmt.Errorf("malformed guide number %q: %w", latest, err)
		}
		next = seq + 1
	}

	return fmt.Sprintf("%s%04d", prefix, next), nil
}

// applyFilter applies filter options to the query
func (r *GormGuideRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	// Apply pagination
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	// Apply ordering
	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormGuideRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	// Apply search
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("guide_number ILIKE ? OR client_name ILIKE ?",
			searchPattern, searchPattern)
	}

	// Apply additional filters
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "city":
			query = query.Where("city = ?", value)
		case "client_id":
			query = query.Where("client_id = ?", value)
		}
	}

	return query
}

// Ensure GormGuideRepository implements GuideRepository
var _ guide.GuideRepository = (*GormGuideRepository)(nil)
