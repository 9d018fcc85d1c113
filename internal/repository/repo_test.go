package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/trahn-ladder/internal/models"
	"github.com/kjannette/trahn-ladder/internal/repository"
	"github.com/kjannette/trahn-ladder/internal/strategy"
	"github.com/kjannette/trahn-ladder/internal/testutil"
)

func sampleParams() strategy.LadderParams {
	return strategy.LadderParams{
		Price:                   2.5,
		Amount:                  1000,
		MaxPercentOfDecline:     0.3,
		IncreasePercentPerGrid:  0.05,
		NumberOfRetainedProfits: 0.5,
		HasMiddleGrid:           true,
		HasBigGrid:              true,
	}
}

// exerciseStore runs the same contract against every backend.
func exerciseStore(t *testing.T, store repository.Store, prefix string) {
	ctx := context.Background()
	name := prefix + "-preset"

	// ---------- presets ----------

	_, err := store.Get(ctx, name)
	assert.ErrorIs(t, err, repository.ErrPresetNotFound)

	saved, err := store.Save(ctx, &models.Preset{Name: name, Params: sampleParams()})
	require.NoError(t, err)
	assert.Equal(t, name, saved.Name)
	assert.Equal(t, sampleParams(), saved.Params)
	assert.False(t, saved.CreatedAt.IsZero())

	updated := sampleParams()
	updated.Amount = 2000
	updated.HasBigGrid = false
	again, err := store.Save(ctx, &models.Preset{Name: name, Params: updated})
	require.NoError(t, err)
	assert.Equal(t, 2000.0, again.Params.Amount)
	assert.False(t, again.Params.HasBigGrid)
	assert.WithinDuration(t, saved.CreatedAt, again.CreatedAt, time.Millisecond)

	got, err := store.Get(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, updated, got.Params)

	all, err := store.List(ctx)
	require.NoError(t, err)
	var found bool
	for _, p := range all {
		if p.Name == name {
			found = true
		}
	}
	assert.True(t, found, "saved preset listed")

	_, err = store.Save(ctx, &models.Preset{Name: "bad name!", Params: updated})
	assert.ErrorIs(t, err, repository.ErrInvalidPresetName)

	require.NoError(t, store.Delete(ctx, name))
	assert.ErrorIs(t, store.Delete(ctx, name), repository.ErrPresetNotFound)

	// ---------- snapshots ----------

	p := sampleParams()
	levels, err := strategy.BuildLadder(p)
	require.NoError(t, err)

	snap, err := models.NewLadderSnapshot(name, p, levels)
	require.NoError(t, err)

	first, err := store.Record(ctx, snap)
	require.NoError(t, err)
	_, err = uuid.Parse(first.ID)
	assert.NoError(t, err, "snapshot id is a uuid")
	assert.Equal(t, len(levels), first.Stats.Levels)

	time.Sleep(2 * time.Millisecond)
	p.Price = 3
	levels2, err := strategy.BuildLadder(p)
	require.NoError(t, err)
	snap2, err := models.NewLadderSnapshot("", p, levels2)
	require.NoError(t, err)
	second, err := store.Record(ctx, snap2)
	require.NoError(t, err)

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
	assert.Equal(t, 3.0, latest.Price)

	back, err := latest.Levels()
	require.NoError(t, err)
	assert.Equal(t, levels2, back)

	hist, err := store.History(ctx, 2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, second.ID, hist[0].ID)
	assert.Equal(t, first.ID, hist[1].ID)
	assert.Equal(t, name, hist[1].PresetName)
}

func TestSQLiteStore(t *testing.T) {
	store := repository.NewSQLiteStore(testutil.SetupSQLite(t))
	require.NoError(t, store.Ping(context.Background()))

	latest, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest, "empty store has no latest snapshot")

	exerciseStore(t, store, "sqlite")
}

func TestPGStore(t *testing.T) {
	store := repository.NewPGStore(testutil.SetupPool(t))
	exerciseStore(t, store, fmt.Sprintf("pg-%d", time.Now().UnixNano()))
}

func TestPGStore_SameTimestampKeepsInsertOrder(t *testing.T) {
	pool := testutil.SetupPool(t)
	store := repository.NewPGStore(pool)
	ctx := context.Background()

	at := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM ladder_snapshots WHERE created_at = $1`, at)
	})

	ids := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	for _, id := range ids {
		_, err := pool.Exec(ctx,
			`INSERT INTO ladder_snapshots (id, price, params_json, levels_json, stats_json, created_at)
			 VALUES ($1, 1, '{}', '[]', '{}', $2)`,
			id, at)
		require.NoError(t, err)
	}

	latest, err := store.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, ids[2], latest.ID)

	hist, err := store.History(ctx, 3)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{hist[0].ID, hist[1].ID, hist[2].ID})
}

func TestValidPresetName(t *testing.T) {
	assert.True(t, repository.ValidPresetName("eth_daily-1"))
	assert.False(t, repository.ValidPresetName(""))
	assert.False(t, repository.ValidPresetName("has space"))
	assert.False(t, repository.ValidPresetName("名字"))
	assert.False(t, repository.ValidPresetName(string(make([]byte, 65))))
}
