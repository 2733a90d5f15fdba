package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/courier/backend/internal/domain/guide"
	"github.com/courier/backend/internal/domain/shared/valueobject"
	"github.com/courier/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupIncidentTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.GuideModel{}, &models.GuideItemModel{}, &models.IncidentModel{})
	require.NoError(t, err)

	return db
}

func appendEntry(t *testing.T, repo *GormIncidentRepository, guideID uuid.UUID, number int, actionType string) *guide.Incident {
	t.Helper()
	inc, err := guide.NewIncident(guideID, number, actionType, "detalle")
	require.NoError(t, err)
	require.NoError(t, repo.Append(context.Background(), inc))
	return inc
}

func TestGormIncidentRepository_AppendAndFind(t *testing.T) {
	db := setupIncidentTestDB(t)
	repo := NewGormIncidentRepository(db)
	ctx := context.Background()

	guideID := uuid.New()
	appendEntry(t, repo, guideID, 1, "DIRECCION_ERRADA")
	appendEntry(t, repo, guideID, 2, "REPROGRAMADO")
	appendEntry(t, repo, guideID, 3, guide.ResolvedActionType)

	t.Run("returns the timeline in action order", func(t *testing.T) {
		timeline, err := repo.FindByGuide(ctx, guideID)
		require.NoError(t, err)
		require.Len(t, timeline, 3)
		assert.Equal(t, 1, timeline[0].ActionNumber)
		assert.Equal(t, 2, timeline[1].ActionNumber)
		assert.Equal(t, 3, timeline[2].ActionNumber)
		assert.True(t, timeline[2].IsResolution())
	})

	t.Run("counts per guide", func(t *testing.T) {
		count, err := repo.CountByGuide(ctx, guideID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)

		count, err = repo.CountByGuide(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("rejects a duplicate action number", func(t *testing.T) {
		dup, err := guide.NewIncident(guideID, 2, "REPROGRAMADO", "carrera por el mismo turno")
		require.NoError(t, err)
		assert.Error(t, repo.Append(ctx, dup))
	})
}

func TestGormIncidentRepository_ListSummaries(t *testing.T) {
	db := setupIncidentTestDB(t)
	repo := NewGormIncidentRepository(db)
	guides := NewGormGuideRepository(db)
	ctx := context.Background()

	storeGuide := func(number string, status guide.GuideStatus) *guide.Guide {
		g, err := guide.NewGuide(number, uuid.New(), "Cliente "+number, valueobject.CityValencia)
		require.NoError(t, err)
		_, err = g.AddItem(uuid.New(), "Producto", "SKU-1", decimal.NewFromInt(1), valueobject.NewMoneyUSDFromFloat(2.00))
		require.NoError(t, err)
		require.NoError(t, guides.Save(ctx, g))
		require.NoError(t, guides.UpdateStatus(ctx, g.ID, status))
		return g
	}

	flagged := storeGuide("GU-202608-0001", guide.GuideStatusIncident)
	flaggedLater := storeGuide("GU-202608-0002", guide.GuideStatusIncident)
	inTransit := storeGuide("GU-202608-0003", guide.GuideStatusInTransit)

	appendEntry(t, repo, flagged.ID, 1, "DIRECCION_ERRADA")
	appendEntry(t, repo, flagged.ID, 2, "REPROGRAMADO")
	time.Sleep(5 * time.Millisecond)
	appendEntry(t, repo, flaggedLater.ID, 1, "CLIENTE_AUSENTE")
	appendEntry(t, repo, inTransit.ID, 1, "REPROGRAMADO")

	summaries, err := repo.ListSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Newest activity first
	assert.Equal(t, flaggedLater.ID, summaries[0].GuideID)
	assert.Equal(t, "CLIENTE_AUSENTE", summaries[0].LatestActionType)
	assert.Equal(t, 1, summaries[0].IncidentCount)

	assert.Equal(t, flagged.ID, summaries[1].GuideID)
	assert.Equal(t, "GU-202608-0001", summaries[1].GuideNumber)
	assert.Equal(t, "REPROGRAMADO", summaries[1].LatestActionType)
	assert.Equal(t, 2, summaries[1].IncidentCount)
}
