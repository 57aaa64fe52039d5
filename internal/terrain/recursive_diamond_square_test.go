package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecursiveDiamondSquareGenerator_Generate(t *testing.T) {
	t.Run("produces requested dimensions in unit range", func(t *testing.T) {
		gen := NewRecursiveDiamondSquareGenerator(40, 25, WithOffsetSource(NewOffsetSource(21)))
		hm, err := gen.Generate()
		require.NoError(t, err)

		assert.Equal(t, 40, hm.Width())
		assert.Equal(t, 25, hm.Height())
		assertInUnitRange(t, hm)
	})

	t.Run("deterministic with a seeded offset source", func(t *testing.T) {
		a := NewRecursiveDiamondSquareGenerator(33, 33, WithOffsetSource(NewOffsetSource(5)))
		b := NewRecursiveDiamondSquareGenerator(33, 33, WithOffsetSource(NewOffsetSource(5)))

		mapA, err := a.Generate()
		require.NoError(t, err)
		mapB, err := b.Generate()
		require.NoError(t, err)

		assert.Equal(t, mapA.Data(), mapB.Data())
	})

	t.Run("texture differs from the iterative variant", func(t *testing.T) {
		// Same seed, same corners; the recursive offset policy still
		// produces a different surface.
		iter := NewDiamondSquareGenerator(33, 33, WithOffsetSource(NewOffsetSource(5)))
		rec := NewRecursiveDiamondSquareGenerator(33, 33, WithOffsetSource(NewOffsetSource(5)))

		iterMap, err := iter.Generate()
		require.NoError(t, err)
		recMap, err := rec.Generate()
		require.NoError(t, err)

		assert.NotEqual(t, iterMap.Data(), recMap.Data())
	})

	t.Run("write mask variant stays in range", func(t *testing.T) {
		gen := NewRecursiveDiamondSquareGenerator(33, 33, WithOffsetSource(NewOffsetSource(9)), WithWriteMask())
		hm, err := gen.Generate()
		require.NoError(t, err)
		assertInUnitRange(t, hm)
	})

	t.Run("subdivision fills the whole lattice", func(t *testing.T) {
		gen := NewRecursiveDiamondSquareGenerator(9, 9, WithOffsetSource(NewOffsetSource(10)), WithWriteMask())
		size := gen.gridSize()
		grid, mask := gen.initGrid(size)
		gen.subdivide(grid, mask, 0, 0, size-1, size-1, gen.roughness)

		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				assert.True(t, mask.written(x, y), "cell (%d,%d) never written", x, y)
			}
		}
	})
}
