package analysis_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grownex/grownex/internal/analysis"
	"github.com/grownex/grownex/internal/database"
	"github.com/grownex/grownex/internal/soil"
)

func newSQLiteRepo(t *testing.T) *analysis.SQLiteRepository {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return analysis.NewSQLiteRepository(db)
}

func storedAnalysis(id, userID string, created time.Time) *analysis.Analysis {
	m := soil.Measurement{
		LandArea:      5.2,
		Location:      "Sector 7, Plot 142, New Delhi",
		SoilType:      soil.Loamy,
		Irrigation:    soil.Drip,
		PH:            6.5,
		Nitrogen:      195,
		Phosphorus:    41,
		Potassium:     352,
		OrganicCarbon: 0.54,
		Zinc:          0.44,
	}
	engine := soil.DefaultEngine()
	res := engine.Analyze(m)
	return &analysis.Analysis{
		ID:          id,
		UserID:      userID,
		Measurement: m,
		Score:       res.Score,
		Breakdown:   engine.Breakdown(m),
		Fertilizers: res.Fertilizers,
		Pesticides:  res.Pesticides,
		Crops:       res.Crops,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func repositories(t *testing.T) map[string]analysis.Repository {
	return map[string]analysis.Repository{
		"memory": analysis.NewInMemoryRepository(),
		"sqlite": newSQLiteRepo(t),
	}
}

func TestRepository_CRUD(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created := time.Date(2026, 4, 1, 9, 30, 0, 123456789, time.UTC)
			a := storedAnalysis("ana_1", "usr_1", created)

			require.NoError(t, repo.Create(ctx, a))

			got, err := repo.Get(ctx, "ana_1")
			require.NoError(t, err)
			assert.Equal(t, a.Measurement, got.Measurement)
			assert.Equal(t, a.Score, got.Score)
			assert.Equal(t, a.Breakdown, got.Breakdown)
			assert.Equal(t, a.Fertilizers, got.Fertilizers)
			assert.Equal(t, a.Pesticides, got.Pesticides)
			assert.Equal(t, a.Crops, got.Crops)
			assert.Equal(t, "usr_1", got.UserID)
			assert.True(t, created.Equal(got.CreatedAt))

			got.Measurement.Location = "North field"
			got.UpdatedAt = created.Add(time.Hour)
			require.NoError(t, repo.Update(ctx, got))

			again, err := repo.Get(ctx, "ana_1")
			require.NoError(t, err)
			assert.Equal(t, "North field", again.Measurement.Location)
			assert.True(t, created.Add(time.Hour).Equal(again.UpdatedAt))

			require.NoError(t, repo.Delete(ctx, "ana_1"))
			_, err = repo.Get(ctx, "ana_1")
			assert.ErrorIs(t, err, analysis.ErrAnalysisNotFound)
			assert.ErrorIs(t, repo.Delete(ctx, "ana_1"), analysis.ErrAnalysisNotFound)
			assert.ErrorIs(t, repo.Update(ctx, a), analysis.ErrAnalysisNotFound)
			assert.NoError(t, repo.Ping(ctx))
		})
	}
}

func TestRepository_AnonymousOwner(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.Create(ctx, storedAnalysis("ana_anon", "", time.Now().UTC())))

			got, err := repo.Get(ctx, "ana_anon")
			require.NoError(t, err)
			assert.Empty(t, got.UserID)
		})
	}
}

func TestRepository_ListPaging(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

			for i := 0; i < 7; i++ {
				owner := "usr_1"
				if i%3 == 0 {
					owner = "usr_2"
				}
				a := storedAnalysis(fmt.Sprintf("ana_%02d", i), owner, base.Add(time.Duration(i)*time.Minute))
				require.NoError(t, repo.Create(ctx, a))
			}

			page, err := repo.List(ctx, analysis.ListOptions{Limit: 3})
			require.NoError(t, err)
			require.Len(t, page.Items, 3)
			assert.Equal(t, "ana_06", page.Items[0].ID)
			assert.Equal(t, "ana_04", page.Items[2].ID)
			assert.Equal(t, "ana_04", page.NextCursor)

			page, err = repo.List(ctx, analysis.ListOptions{Limit: 3, Cursor: page.NextCursor})
			require.NoError(t, err)
			require.Len(t, page.Items, 3)
			assert.Equal(t, "ana_03", page.Items[0].ID)

			page, err = repo.List(ctx, analysis.ListOptions{Limit: 3, Cursor: page.NextCursor})
			require.NoError(t, err)
			require.Len(t, page.Items, 1)
			assert.Equal(t, "ana_00", page.Items[0].ID)
			assert.Empty(t, page.NextCursor)

			mine, err := repo.List(ctx, analysis.ListOptions{UserID: "usr_2"})
			require.NoError(t, err)
			require.Len(t, mine.Items, 3)
			assert.Equal(t, "ana_06", mine.Items[0].ID)
			assert.Equal(t, "ana_00", mine.Items[2].ID)

			ids, err := repo.ListIDs(ctx)
			require.NoError(t, err)
			assert.Len(t, ids, 7)
			assert.Equal(t, "ana_00", ids[0])
		})
	}
}

func TestRepository_UpdateResult(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
			require.NoError(t, repo.Create(ctx, storedAnalysis("ana_r", "usr_1", created)))

			edited := storedAnalysis("ana_r", "usr_1", created)
			edited.Measurement.Nitrogen = 275
			edited.UpdatedAt = created.Add(time.Minute)
			require.NoError(t, repo.Update(ctx, edited))

			rescored := storedAnalysis("ana_r", "usr_1", created)
			rescored.Score = 1.5
			rescored.Crops = rescored.Crops[:1]
			rescored.UpdatedAt = created.Add(2 * time.Minute)

			err := repo.UpdateResult(ctx, rescored, created)
			assert.ErrorIs(t, err, analysis.ErrAnalysisChanged)

			got, err := repo.Get(ctx, "ana_r")
			require.NoError(t, err)
			assert.Equal(t, 275.0, got.Measurement.Nitrogen)
			assert.NotEqual(t, 1.5, got.Score)

			require.NoError(t, repo.UpdateResult(ctx, rescored, edited.UpdatedAt))

			got, err = repo.Get(ctx, "ana_r")
			require.NoError(t, err)
			assert.Equal(t, 275.0, got.Measurement.Nitrogen, "measurement untouched")
			assert.Equal(t, 1.5, got.Score)
			assert.Len(t, got.Crops, 1)
			assert.True(t, rescored.UpdatedAt.Equal(got.UpdatedAt))

			err = repo.UpdateResult(ctx, storedAnalysis("ana_missing", "", created), created)
			assert.ErrorIs(t, err, analysis.ErrAnalysisChanged)
		})
	}
}
