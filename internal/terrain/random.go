package terrain

import (
	"math/rand/v2"
	"time"
)

// cornerSeed fixes the corner elevations of every generated grid so the
// macro-structure of the terrain is reproducible across runs and across
// generator implementations. Step offsets deliberately use a separate,
// time-derived source (see NewTimeOffsetSource) so the micro-texture
// still varies between runs.
const cornerSeed = 42

// OffsetSource produces the random displacements injected at each
// subdivision level. Both generators accept one, so tests can substitute
// a deterministic source.
type OffsetSource struct {
	r *rand.Rand
}

// NewOffsetSource creates a deterministic offset source from a seed.
func NewOffsetSource(seed int64) *OffsetSource {
	return &OffsetSource{r: rand.New(rand.NewPCG(uint64(seed), 0))}
}

// NewTimeOffsetSource creates an offset source seeded from the wall
// clock at millisecond resolution.
func NewTimeOffsetSource() *OffsetSource {
	return NewOffsetSource(time.Now().UnixMilli() & 0xFFFFFFFF)
}

// Offset returns a displacement in [-roughness/2, +roughness/2).
func (s *OffsetSource) Offset(roughness float64) float64 {
	return (s.r.Float64() - 0.5) * roughness
}

// Offsets fills a slice with n independent displacements.
func (s *OffsetSource) Offsets(roughness float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Offset(roughness)
	}
	return out
}

// cornerValues returns the four corner elevations, always drawn from the
// fixed corner seed.
func cornerValues() [4]float64 {
	r := rand.New(rand.NewPCG(cornerSeed, 0))
	var c [4]float64
	for i := range c {
		c[i] = r.Float64()
	}
	return c
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
