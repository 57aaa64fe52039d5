package terrain

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantGrid(width, height int, value float64) [][]float64 {
	data := make([][]float64, height)
	for y := range data {
		data[y] = make([]float64, width)
		for x := range data[y] {
			data[y][x] = value
		}
	}
	return data
}

func TestNewFromData(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		data    [][]float64
		wantErr bool
	}{
		{
			name:   "matching dimensions",
			width:  3,
			height: 2,
			data:   [][]float64{{0, 0, 0}, {0, 0, 0}},
		},
		{
			name:    "too few rows",
			width:   3,
			height:  3,
			data:    [][]float64{{0, 0, 0}, {0, 0, 0}},
			wantErr: true,
		},
		{
			name:    "ragged row",
			width:   3,
			height:  2,
			data:    [][]float64{{0, 0, 0}, {0, 0}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hm, err := NewFromData(tt.width, tt.height, tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.width, hm.Width())
			assert.Equal(t, tt.height, hm.Height())
		})
	}
}

func TestHeightmap_CreateSubmap(t *testing.T) {
	t.Run("constant map averages to itself", func(t *testing.T) {
		hm, err := NewFromData(20, 20, constantGrid(20, 20, 0.5))
		require.NoError(t, err)

		for _, blockSize := range []int{1, 2, 4, 5, 10, 20} {
			small, err := hm.CreateSubmap(blockSize)
			require.NoError(t, err)
			assert.Equal(t, 20/blockSize, small.Width())
			assert.Equal(t, 20/blockSize, small.Height())
			for y := 0; y < small.Height(); y++ {
				for x := 0; x < small.Width(); x++ {
					assert.InDelta(t, 0.5, small.At(x, y), 1e-12)
				}
			}
		}
	})

	t.Run("averages distinct blocks", func(t *testing.T) {
		// Left half 0, right half 1, blocks of 2.
		data := [][]float64{
			{0, 0, 1, 1},
			{0, 0, 1, 1},
			{0, 0, 1, 1},
			{0, 0, 1, 1},
		}
		hm, err := NewFromData(4, 4, data)
		require.NoError(t, err)

		small, err := hm.CreateSubmap(2)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, small.At(0, 0), 1e-12)
		assert.InDelta(t, 1.0, small.At(1, 0), 1e-12)
	})

	t.Run("drops excess far-edge cells", func(t *testing.T) {
		hm, err := NewFromData(5, 5, constantGrid(5, 5, 0.25))
		require.NoError(t, err)

		small, err := hm.CreateSubmap(2)
		require.NoError(t, err)
		assert.Equal(t, 2, small.Width())
		assert.Equal(t, 2, small.Height())
	})

	t.Run("invalid block sizes", func(t *testing.T) {
		hm := New(20, 20)
		for _, blockSize := range []int{0, -1, 21} {
			_, err := hm.CreateSubmap(blockSize)
			assert.Error(t, err, "block size %d", blockSize)
		}
	})
}

func TestHeightmap_Submap(t *testing.T) {
	t.Run("lazily derived and cached", func(t *testing.T) {
		hm := New(50, 50)
		first, err := hm.Submap()
		require.NoError(t, err)
		assert.Equal(t, 10, first.Width())

		second, err := hm.Submap()
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("fails when map is too small to derive", func(t *testing.T) {
		hm := New(5, 5)
		_, err := hm.Submap()
		assert.Error(t, err)
	})
}

func TestHeightmap_ApplyFilter(t *testing.T) {
	data := [][]float64{{0.1, 0.2}, {0.3, 0.4}}
	hm, err := NewFromData(2, 2, data)
	require.NoError(t, err)

	identity := hm.ApplyFilter(func(d [][]float64) [][]float64 { return d })
	assert.NotSame(t, hm, identity)
	assert.Equal(t, hm.Data(), identity.Data())
}

func TestHeightmap_SetBlockSize(t *testing.T) {
	hm := New(10, 10)
	assert.Equal(t, DefaultBlockSize, hm.BlockSize())

	require.NoError(t, hm.SetBlockSize(5))
	assert.Equal(t, 5, hm.BlockSize())

	assert.Error(t, hm.SetBlockSize(0))
	assert.Error(t, hm.SetBlockSize(11))
	assert.Equal(t, 5, hm.BlockSize())
}

func TestHeightmap_ValidateLocation(t *testing.T) {
	hm := New(10, 5)

	tests := []struct {
		name    string
		x, y    int
		wantErr bool
	}{
		{name: "origin", x: 0, y: 0},
		{name: "far corner", x: 9, y: 4},
		{name: "negative x", x: -1, y: 0, wantErr: true},
		{name: "negative y", x: 0, y: -1, wantErr: true},
		{name: "x at width", x: 10, y: 0, wantErr: true},
		{name: "y at height", x: 0, y: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := hm.ValidateLocation(tt.x, tt.y)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHeightmap_ConcurrentSubmapAccess(t *testing.T) {
	hm, err := NewFromData(40, 40, constantGrid(40, 40, 0.5))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			small, err := hm.CreateSubmap(8)
			assert.NoError(t, err)
			assert.Equal(t, 5, small.Width())
		}()
		go func() {
			defer wg.Done()
			small, err := hm.Submap()
			assert.NoError(t, err)
			assert.NotNil(t, small)
		}()
	}
	wg.Wait()
}
