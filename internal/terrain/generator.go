package terrain

import (
	"fmt"

	"github.com/charmbracelet/log"
)

const (
	// DefaultRoughness is the initial displacement magnitude used when a
	// generator is constructed without an explicit roughness.
	DefaultRoughness = 0.98

	// filterKernelSize is applied to every raw grid as the final
	// generation step.
	filterKernelSize = 5
)

// Generator produces heightmaps. Generate replaces any previously held
// map; GenerateSmall yields a sibling generator of the same concrete
// type wrapping a block-averaged copy of the map, with no further
// synthesis performed on it.
type Generator interface {
	Name() string
	Generate() (*Heightmap, error)
	GenerateSmall(blockSize int) (Generator, error)
	Heightmap() *Heightmap
}

// generatorBase carries the state and grid plumbing shared by the
// diamond-square implementations: grid sizing, corner seeding, write
// tracking, cropping and the mandatory median-filter finalization.
type generatorBase struct {
	width     int
	height    int
	roughness float64
	offsets   *OffsetSource
	trackMask bool

	heightmap *Heightmap
}

func newGeneratorBase(width, height int, opts ...Option) generatorBase {
	b := generatorBase{
		width:     width,
		height:    height,
		roughness: DefaultRoughness,
		offsets:   NewTimeOffsetSource(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Option adjusts generator construction.
type Option func(*generatorBase)

// WithRoughness overrides the initial roughness factor.
func WithRoughness(roughness float64) Option {
	return func(b *generatorBase) { b.roughness = roughness }
}

// WithOffsetSource substitutes the random displacement source, making
// generation fully deterministic when a seeded source is supplied.
func WithOffsetSource(src *OffsetSource) Option {
	return func(b *generatorBase) { b.offsets = src }
}

// WithWriteMask switches the "cell not yet written" test from the
// historical zero-value comparison to an explicit per-cell mask. The
// zero comparison recomputes any cell whose height lands on exactly
// 0.0; the mask does not.
func WithWriteMask() Option {
	return func(b *generatorBase) { b.trackMask = true }
}

func (b *generatorBase) Heightmap() *Heightmap { return b.heightmap }

// gridSize returns the working grid dimension: the smallest 2^p + 1 that
// covers max(width, height).
func (b *generatorBase) gridSize() int {
	power := 0
	for 1<<power < max(b.width, b.height) {
		power++
	}
	return 1<<power + 1
}

// initGrid allocates a zero-filled size x size grid with the four
// corners seeded from the fixed corner source, plus the write mask when
// enabled.
func (b *generatorBase) initGrid(size int) ([][]float64, *writeMask) {
	grid := make([][]float64, size)
	for y := range grid {
		grid[y] = make([]float64, size)
	}

	corners := cornerValues()
	grid[0][0] = corners[0]
	grid[0][size-1] = corners[1]
	grid[size-1][0] = corners[2]
	grid[size-1][size-1] = corners[3]

	var mask *writeMask
	if b.trackMask {
		mask = newWriteMask(size)
		mask.set(0, 0)
		mask.set(size-1, 0)
		mask.set(0, size-1)
		mask.set(size-1, size-1)
	}
	return grid, mask
}

// crop truncates the working grid to the requested dimensions.
func (b *generatorBase) crop(grid [][]float64, size int) [][]float64 {
	h := min(b.height, size)
	w := min(b.width, size)
	out := make([][]float64, h)
	for y := 0; y < h; y++ {
		out[y] = grid[y][:w:w]
	}
	return out
}

// finalize wraps the cropped grid in a heightmap and applies the median
// filter pass that every generator ends with.
func (b *generatorBase) finalize(grid [][]float64) (*Heightmap, error) {
	raw, err := NewFromData(b.width, b.height, grid)
	if err != nil {
		return nil, fmt.Errorf("wrapping generated grid: %w", err)
	}
	return raw.ApplyFilter(func(data [][]float64) [][]float64 {
		return MedianFilter(data, filterKernelSize)
	}), nil
}

// smallHeightmap downsamples the owned map (generating it first through
// gen if needed) for GenerateSmall implementations.
func (b *generatorBase) smallHeightmap(gen Generator, blockSize int) (*Heightmap, error) {
	if b.heightmap == nil {
		log.Debug("No heightmap yet, generating before downsampling", "generator", gen.Name())
		if _, err := gen.Generate(); err != nil {
			return nil, err
		}
	}
	small, err := b.heightmap.CreateSubmap(blockSize)
	if err != nil {
		return nil, fmt.Errorf("creating submap: %w", err)
	}
	return small, nil
}

// writeMask records which grid cells have been assigned, so a computed
// height of exactly zero is not mistaken for an untouched cell.
type writeMask struct {
	size int
	bits []uint64
}

func newWriteMask(size int) *writeMask {
	return &writeMask{size: size, bits: make([]uint64, (size*size+63)/64)}
}

func (m *writeMask) set(x, y int) {
	i := y*m.size + x
	m.bits[i/64] |= 1 << (i % 64)
}

func (m *writeMask) written(x, y int) bool {
	i := y*m.size + x
	return m.bits[i/64]&(1<<(i%64)) != 0
}

// unset reports whether the cell should be treated as not yet written.
// Without a mask this is the historical comparison against exactly 0.0,
// which also recomputes legitimately zero-height cells.
func unset(grid [][]float64, mask *writeMask, x, y int) bool {
	if mask != nil {
		return !mask.written(x, y)
	}
	return grid[y][x] == 0.0
}

func markWritten(mask *writeMask, x, y int) {
	if mask != nil {
		mask.set(x, y)
	}
}
