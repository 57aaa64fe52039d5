package terrain

import (
	"time"

	"github.com/charmbracelet/log"
)

// RecursiveDiamondSquareGenerator synthesizes terrain with the
// divide-and-conquer form of diamond-square. Each call computes the
// center and four edge midpoints of its quadrant, then recurses into the
// four sub-quadrants. A single displacement is drawn per call and shared
// by the center and all four edges, and it is always scaled by the
// initial roughness, so the noise texture differs visibly from the
// iterative variant. That is inherited behavior, kept on purpose.
type RecursiveDiamondSquareGenerator struct {
	generatorBase
}

func NewRecursiveDiamondSquareGenerator(width, height int, opts ...Option) *RecursiveDiamondSquareGenerator {
	return &RecursiveDiamondSquareGenerator{generatorBase: newGeneratorBase(width, height, opts...)}
}

func (g *RecursiveDiamondSquareGenerator) Name() string { return "recursive-diamond-square" }

func (g *RecursiveDiamondSquareGenerator) Generate() (*Heightmap, error) {
	start := time.Now()
	size := g.gridSize()
	log.Debug("Starting recursive diamond-square generation", "width", g.width, "height", g.height, "grid_size", size)

	grid, mask := g.initGrid(size)
	g.subdivide(grid, mask, 0, 0, size-1, size-1, g.roughness)

	hm, err := g.finalize(g.crop(grid, size))
	if err != nil {
		return nil, err
	}
	g.heightmap = hm

	log.Debug("Recursive diamond-square generation completed", "duration", time.Since(start))
	return hm, nil
}

func (g *RecursiveDiamondSquareGenerator) GenerateSmall(blockSize int) (Generator, error) {
	small, err := g.smallHeightmap(g, blockSize)
	if err != nil {
		return nil, err
	}
	smallGen := NewRecursiveDiamondSquareGenerator(small.Width(), small.Height())
	smallGen.heightmap = small
	return smallGen, nil
}

// subdivide applies one diamond-square pass to the quadrant
// (x1,y1)-(x2,y2) and recurses. Cells already written are left alone.
func (g *RecursiveDiamondSquareGenerator) subdivide(grid [][]float64, mask *writeMask, x1, y1, x2, y2 int, roughness float64) {
	if x2-x1 <= 1 || y2-y1 <= 1 {
		return
	}

	midX := (x1 + x2) / 2
	midY := (y1 + y2) / 2

	offset := g.offsets.Offset(g.roughness)

	// Diamond: quadrant center from the four corners.
	if unset(grid, mask, midX, midY) {
		avg := (grid[y1][x1] + grid[y1][x2] + grid[y2][x1] + grid[y2][x2]) / 4
		grid[midY][midX] = clamp(avg + offset)
		markWritten(mask, midX, midY)
	}

	// Square: each edge midpoint from its two corners plus the center.
	if unset(grid, mask, midX, y1) {
		avg := (grid[y1][x1] + grid[y1][x2] + grid[midY][midX]) / 3
		grid[y1][midX] = clamp(avg + offset)
		markWritten(mask, midX, y1)
	}
	if unset(grid, mask, midX, y2) {
		avg := (grid[y2][x1] + grid[y2][x2] + grid[midY][midX]) / 3
		grid[y2][midX] = clamp(avg + offset)
		markWritten(mask, midX, y2)
	}
	if unset(grid, mask, x1, midY) {
		avg := (grid[y1][x1] + grid[y2][x1] + grid[midY][midX]) / 3
		grid[midY][x1] = clamp(avg + offset)
		markWritten(mask, x1, midY)
	}
	if unset(grid, mask, x2, midY) {
		avg := (grid[y1][x2] + grid[y2][x2] + grid[midY][midX]) / 3
		grid[midY][x2] = clamp(avg + offset)
		markWritten(mask, x2, midY)
	}

	next := roughness * 0.5
	g.subdivide(grid, mask, x1, y1, midX, midY, next)
	g.subdivide(grid, mask, midX, y1, x2, midY, next)
	g.subdivide(grid, mask, x1, midY, midX, y2, next)
	g.subdivide(grid, mask, midX, midY, x2, y2, next)
}
