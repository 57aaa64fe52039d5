package playground

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terramesh/api/internal/config"
	"github.com/terramesh/api/internal/solver"
	"github.com/terramesh/api/internal/store"
	"github.com/terramesh/api/internal/store/storetest"
)

func testConfig() config.TerrainConfig {
	return config.TerrainConfig{
		DefaultWidth:     32,
		DefaultHeight:    32,
		DefaultRoughness: 0.98,
		DefaultBlockSize: 8,
		DefaultAlgorithm: "diamond-square",
		MapTTL:           time.Hour,
		EvictionInterval: time.Minute,
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(testConfig(), store.New(storetest.OpenDB(t)))
}

func TestManager_GenerateMap(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults applied", func(t *testing.T) {
		m := newTestManager(t)
		record, err := m.GenerateMap(ctx, GenerateParams{})
		require.NoError(t, err)

		assert.Equal(t, "diamond-square", record.Algorithm)
		assert.Equal(t, 32, record.Width)
		assert.Equal(t, 32, record.Height)
		assert.Equal(t, 8, record.BlockSize)

		hm, _, err := m.GetMap(record.ID)
		require.NoError(t, err)
		assert.Equal(t, 32, hm.Width())
	})

	t.Run("explicit parameters", func(t *testing.T) {
		m := newTestManager(t)
		record, err := m.GenerateMap(ctx, GenerateParams{
			Algorithm: "recursive-diamond-square",
			Width:     20,
			Height:    16,
			Roughness: 0.5,
			BlockSize: 4,
		})
		require.NoError(t, err)
		assert.Equal(t, "recursive-diamond-square", record.Algorithm)

		hm, _, err := m.GetMap(record.ID)
		require.NoError(t, err)
		assert.Equal(t, 20, hm.Width())
		assert.Equal(t, 16, hm.Height())
	})

	t.Run("rejects bad input", func(t *testing.T) {
		m := newTestManager(t)

		_, err := m.GenerateMap(ctx, GenerateParams{Width: 1, Height: 1})
		assert.ErrorIs(t, err, ErrInvalidParams)

		_, err = m.GenerateMap(ctx, GenerateParams{Roughness: 1.5})
		assert.ErrorIs(t, err, ErrInvalidParams)

		_, err = m.GenerateMap(ctx, GenerateParams{Algorithm: "unknown"})
		assert.ErrorIs(t, err, ErrInvalidParams)
	})
}

func TestManager_SmallMap(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	record, err := m.GenerateMap(ctx, GenerateParams{Width: 32, Height: 32, BlockSize: 8})
	require.NoError(t, err)

	small, err := m.SmallMap(record.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, small.Width())
	assert.Equal(t, 4, small.Height())

	_, err = m.SmallMap(99999)
	assert.ErrorIs(t, err, ErrMapNotFound)
}

func TestManager_SolveRoute(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	record, err := m.GenerateMap(ctx, GenerateParams{Width: 24, Height: 24})
	require.NoError(t, err)

	t.Run("happy path", func(t *testing.T) {
		result, err := m.SolveRoute(ctx, record.ID, solver.Location{X: 0, Y: 0}, solver.Location{X: 23, Y: 23})
		require.NoError(t, err)

		assert.True(t, result.Record.Found)
		require.NotEmpty(t, result.Path)
		assert.Equal(t, solver.Location{X: 0, Y: 0}, result.Path[0])
		assert.Equal(t, solver.Location{X: 23, Y: 23}, result.Path[len(result.Path)-1])
		assert.Equal(t, len(result.Path), result.Record.PathLength)
		assert.NotNil(t, result.Record.TotalEnergy)
	})

	t.Run("history recorded", func(t *testing.T) {
		routes, err := m.ListRoutes(ctx, record.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, routes)
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		_, err := m.SolveRoute(ctx, record.ID, solver.Location{X: -1, Y: 0}, solver.Location{X: 5, Y: 5})
		assert.ErrorIs(t, err, ErrInvalidParams)

		_, err = m.SolveRoute(ctx, record.ID, solver.Location{X: 0, Y: 0}, solver.Location{X: 24, Y: 5})
		assert.ErrorIs(t, err, ErrInvalidParams)
	})

	t.Run("unknown map", func(t *testing.T) {
		_, err := m.SolveRoute(ctx, 31337, solver.Location{X: 0, Y: 0}, solver.Location{X: 1, Y: 1})
		assert.ErrorIs(t, err, ErrMapNotFound)
	})
}

func TestManager_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	record, err := m.GenerateMap(ctx, GenerateParams{Width: 24, Height: 24, BlockSize: 6})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			small, err := m.SmallMap(record.ID)
			assert.NoError(t, err)
			assert.Equal(t, 4, small.Width())
		}()
		go func() {
			defer wg.Done()
			result, err := m.SolveRoute(ctx, record.ID, solver.Location{X: 0, Y: 0}, solver.Location{X: 23, Y: 23})
			assert.NoError(t, err)
			assert.True(t, result.Record.Found)
		}()
	}
	wg.Wait()
}

func TestManager_EvictExpired(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	cfg.MapTTL = time.Nanosecond
	m := NewManager(cfg, store.New(storetest.OpenDB(t)))

	record, err := m.GenerateMap(ctx, GenerateParams{Width: 16, Height: 16})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, m.EvictExpired())

	_, _, err = m.GetMap(record.ID)
	assert.ErrorIs(t, err, ErrMapNotFound)

	// History outlives the grid.
	routes, err := m.ListRoutes(ctx, record.ID)
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestManager_EvictionDisabled(t *testing.T) {
	ctx := context.Background()

	cfg := testConfig()
	cfg.MapTTL = 0
	m := NewManager(cfg, store.New(storetest.OpenDB(t)))

	_, err := m.GenerateMap(ctx, GenerateParams{Width: 16, Height: 16})
	require.NoError(t, err)
	assert.Zero(t, m.EvictExpired())
}
