package station_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livecharge/livecharge/internal/station"
)

func TestInMemoryRepository_InsertDefaults(t *testing.T) {
	repo := station.NewInMemoryRepository()
	st := &station.Station{Name: "Ajmer Road (DCM) EV-Station", Location: station.NewGeoPoint(75.7462, 26.8936)}

	require.NoError(t, repo.Insert(context.Background(), st))

	assert.NotEmpty(t, st.ID)
	got, err := repo.Get(context.Background(), st.ID)
	require.NoError(t, err)
	assert.Equal(t, station.StatusWorking, got.Status)
	assert.NotNil(t, got.Reviews)
	assert.Empty(t, got.Reviews)
}

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := station.NewInMemoryRepository()
	require.NoError(t, repo.Insert(context.Background(), &station.Station{ID: "st-1"}))

	got, err := repo.Get(context.Background(), "st-1")
	require.NoError(t, err)
	got.Name = "mutated"
	got.Reviews = append(got.Reviews, station.Review{ID: "rv-x"})

	again, err := repo.Get(context.Background(), "st-1")
	require.NoError(t, err)
	assert.Empty(t, again.Name)
	assert.Empty(t, again.Reviews)
}

func TestInMemoryRepository_UpdateVersioning(t *testing.T) {
	ctx := context.Background()
	repo := station.NewInMemoryRepository()
	require.NoError(t, repo.Insert(ctx, &station.Station{ID: "st-1"}))

	a, err := repo.Get(ctx, "st-1")
	require.NoError(t, err)
	b, err := repo.Get(ctx, "st-1")
	require.NoError(t, err)

	a.Status = station.StatusBusy
	require.NoError(t, repo.Update(ctx, a))
	assert.Equal(t, int64(1), a.Version)

	b.Status = station.StatusMaintenance
	assert.ErrorIs(t, repo.Update(ctx, b), station.ErrVersionConflict)

	got, err := repo.Get(ctx, "st-1")
	require.NoError(t, err)
	assert.Equal(t, station.StatusBusy, got.Status)

	assert.ErrorIs(t, repo.Update(ctx, &station.Station{ID: "ghost"}), station.ErrStationNotFound)
}

func TestInMemoryRepository_ListOrderAndDeleteAll(t *testing.T) {
	ctx := context.Background()
	repo := station.NewInMemoryRepository()
	require.NoError(t, repo.Insert(ctx, &station.Station{ID: "b"}, &station.Station{ID: "a"}, &station.Station{ID: "c"}))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, st := range list {
		ids = append(ids, st.ID)
	}
	assert.Equal(t, []string{"b", "a", "c"}, ids)

	require.NoError(t, repo.DeleteAll(ctx))
	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = repo.Get(ctx, "a")
	assert.ErrorIs(t, err, station.ErrStationNotFound)
}
