package terrain

import (
	"time"

	"github.com/charmbracelet/log"
)

// DiamondSquareGenerator synthesizes terrain with the iterative,
// breadth-first form of the diamond-square algorithm: each halving of
// the step size computes every diamond point of the level as one batch,
// then every still-unwritten square point as a second batch.
type DiamondSquareGenerator struct {
	generatorBase
}

func NewDiamondSquareGenerator(width, height int, opts ...Option) *DiamondSquareGenerator {
	return &DiamondSquareGenerator{generatorBase: newGeneratorBase(width, height, opts...)}
}

func (g *DiamondSquareGenerator) Name() string { return "diamond-square" }

// Generate runs the full synthesis pipeline and replaces the owned
// heightmap: grid sizing, corner seeding, the diamond-square sweep,
// cropping and the median-filter pass.
func (g *DiamondSquareGenerator) Generate() (*Heightmap, error) {
	start := time.Now()
	size := g.gridSize()
	log.Debug("Starting diamond-square generation", "width", g.width, "height", g.height, "grid_size", size)

	grid, mask := g.initGrid(size)
	g.run(grid, mask, size)

	hm, err := g.finalize(g.crop(grid, size))
	if err != nil {
		return nil, err
	}
	g.heightmap = hm

	log.Debug("Diamond-square generation completed", "duration", time.Since(start))
	return hm, nil
}

func (g *DiamondSquareGenerator) GenerateSmall(blockSize int) (Generator, error) {
	small, err := g.smallHeightmap(g, blockSize)
	if err != nil {
		return nil, err
	}
	smallGen := NewDiamondSquareGenerator(small.Width(), small.Height())
	smallGen.heightmap = small
	return smallGen, nil
}

func (g *DiamondSquareGenerator) run(grid [][]float64, mask *writeMask, size int) {
	roughness := g.roughness
	stepSize := size - 1

	for stepSize > 1 {
		halfStep := stepSize / 2
		g.diamondStep(grid, mask, size, stepSize, halfStep, roughness)
		g.squareStep(grid, mask, size, stepSize, halfStep, roughness)
		roughness *= 0.5
		stepSize = halfStep
	}
}

// diamondStep sets the center of every stepSize cell to the mean of its
// four diagonal corners plus a random displacement. Centers at one level
// never read each other, so write order within the batch is free.
func (g *DiamondSquareGenerator) diamondStep(grid [][]float64, mask *writeMask, size, stepSize, halfStep int, roughness float64) {
	for y := halfStep; y < size; y += stepSize {
		for x := halfStep; x < size; x += stepSize {
			avg := (grid[y-halfStep][x-halfStep] +
				grid[y-halfStep][x+halfStep] +
				grid[y+halfStep][x-halfStep] +
				grid[y+halfStep][x+halfStep]) / 4
			grid[y][x] = clamp(avg + g.offsets.Offset(roughness))
			markWritten(mask, x, y)
		}
	}
}

// squareStep fills the remaining half-step lattice points from whichever
// of their axis-aligned neighbors fall inside the grid (2, 3 or 4 of
// them; points outside the grid are excluded, no wraparound). The
// averages are all read before any point is written, matching the
// batched formulation.
func (g *DiamondSquareGenerator) squareStep(grid [][]float64, mask *writeMask, size, stepSize, halfStep int, roughness float64) {
	type point struct{ x, y int }
	var points []point
	for y := 0; y < size; y += halfStep {
		xStart := halfStep
		if y%stepSize != 0 {
			xStart = 0
		}
		for x := xStart; x < size; x += stepSize {
			if unset(grid, mask, x, y) {
				points = append(points, point{x, y})
			}
		}
	}
	if len(points) == 0 {
		return
	}

	avgs := make([]float64, len(points))
	for i, p := range points {
		sum, count := 0.0, 0
		if p.y-halfStep >= 0 {
			sum += grid[p.y-halfStep][p.x]
			count++
		}
		if p.y+halfStep < size {
			sum += grid[p.y+halfStep][p.x]
			count++
		}
		if p.x-halfStep >= 0 {
			sum += grid[p.y][p.x-halfStep]
			count++
		}
		if p.x+halfStep < size {
			sum += grid[p.y][p.x+halfStep]
			count++
		}
		avgs[i] = sum / float64(count)
	}

	for i, p := range points {
		grid[p.y][p.x] = clamp(avgs[i] + g.offsets.Offset(roughness))
		markWritten(mask, p.x, p.y)
	}
}
