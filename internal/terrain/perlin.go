package terrain

import (
	"time"

	"github.com/aquilax/go-perlin"
	"github.com/charmbracelet/log"
)

const (
	// Alpha=2, beta=2, n=3 give good terrain-like noise.
	perlinAlpha = 2
	perlinBeta  = 2
	perlinN     = 3

	// Two sampling scales: large-scale elevation with fine detail on top.
	perlinElevationScale = 100.0
	perlinDetailScale    = 20.0
)

// PerlinGenerator produces terrain from layered Perlin noise instead of
// midpoint displacement. It is fully deterministic for a given seed;
// roughness weighs the fine-detail layer against the broad elevation
// layer. Output goes through the same cropping and median-filter
// pipeline as the diamond-square generators.
type PerlinGenerator struct {
	generatorBase
	noise *perlin.Perlin
	seed  int64
}

func NewPerlinGenerator(width, height int, seed int64, opts ...Option) *PerlinGenerator {
	return &PerlinGenerator{
		generatorBase: newGeneratorBase(width, height, opts...),
		noise:         perlin.NewPerlin(perlinAlpha, perlinBeta, perlinN, seed),
		seed:          seed,
	}
}

func (g *PerlinGenerator) Name() string { return "perlin" }

func (g *PerlinGenerator) Seed() int64 { return g.seed }

func (g *PerlinGenerator) Generate() (*Heightmap, error) {
	start := time.Now()
	log.Debug("Starting perlin generation", "width", g.width, "height", g.height, "seed", g.seed)

	// Perlin sampling needs no power-of-two working grid; sample the
	// requested dimensions directly.
	detail := clamp(g.roughness)
	grid := make([][]float64, g.height)
	for y := range grid {
		grid[y] = make([]float64, g.width)
		for x := range grid[y] {
			elevation := g.sample(x, y, perlinElevationScale)
			fine := g.sample(x, y, perlinDetailScale)
			combined := elevation*(1-detail*0.3) + fine*(detail*0.3)
			// Noise2D returns values in [-1, 1]; normalize to [0, 1].
			grid[y][x] = clamp((combined + 1) / 2)
		}
	}

	hm, err := g.finalize(grid)
	if err != nil {
		return nil, err
	}
	g.heightmap = hm

	log.Debug("Perlin generation completed", "duration", time.Since(start))
	return hm, nil
}

func (g *PerlinGenerator) GenerateSmall(blockSize int) (Generator, error) {
	small, err := g.smallHeightmap(g, blockSize)
	if err != nil {
		return nil, err
	}
	smallGen := NewPerlinGenerator(small.Width(), small.Height(), g.seed)
	smallGen.heightmap = small
	return smallGen, nil
}

func (g *PerlinGenerator) sample(x, y int, scale float64) float64 {
	return g.noise.Noise2D(float64(x)/scale, float64(y)/scale)
}
