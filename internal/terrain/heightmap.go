package terrain

import (
	"fmt"
	"sync"
)

const DefaultBlockSize = 10

// Heightmap holds a 2D grid of elevation values normalized to [0, 1].
// Data is indexed data[y][x]. The grid itself is read-only after
// construction; ApplyFilter returns a new instance. The only mutable
// field is the submap cache, which CreateSubmap and Submap guard with
// an internal lock so a map can be shared across request handlers.
type Heightmap struct {
	width     int
	height    int
	data      [][]float64
	blockSize int

	mu       sync.Mutex
	smallMap *Heightmap
}

// New creates a zero-filled heightmap with the given dimensions.
func New(width, height int) *Heightmap {
	data := make([][]float64, height)
	for y := range data {
		data[y] = make([]float64, width)
	}
	return &Heightmap{
		width:     width,
		height:    height,
		data:      data,
		blockSize: DefaultBlockSize,
	}
}

// NewFromData wraps externally supplied data without copying. The data
// must have exactly height rows of width columns.
func NewFromData(width, height int, data [][]float64) (*Heightmap, error) {
	if len(data) != height {
		return nil, fmt.Errorf("data has %d rows, expected %d", len(data), height)
	}
	for y, row := range data {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", y, len(row), width)
		}
	}
	return &Heightmap{
		width:     width,
		height:    height,
		data:      data,
		blockSize: DefaultBlockSize,
	}, nil
}

func (m *Heightmap) Width() int  { return m.width }
func (m *Heightmap) Height() int { return m.height }

// Data exposes the backing grid. Callers must not mutate it.
func (m *Heightmap) Data() [][]float64 { return m.data }

// At returns the elevation at (x, y).
func (m *Heightmap) At(x, y int) float64 { return m.data[y][x] }

// BlockSize returns the granularity used by Submap.
func (m *Heightmap) BlockSize() int { return m.blockSize }

// SetBlockSize validates and updates the downsampling granularity.
func (m *Heightmap) SetBlockSize(size int) error {
	if err := m.validateBlockSize(size); err != nil {
		return err
	}
	m.blockSize = size
	return nil
}

func (m *Heightmap) validateBlockSize(size int) error {
	if size < 1 || size > m.width || size > m.height {
		return fmt.Errorf("block size %d must be at least 1 and at most map dimensions (%dx%d)", size, m.width, m.height)
	}
	return nil
}

// CreateSubmap builds a block-averaged copy of the map. Each cell of the
// result is the arithmetic mean of a blockSize x blockSize block; excess
// rows and columns on the far edges are dropped. The result is cached on
// the parent and replaces any previously cached submap.
func (m *Heightmap) CreateSubmap(blockSize int) (*Heightmap, error) {
	if err := m.validateBlockSize(blockSize); err != nil {
		return nil, err
	}

	smallWidth := m.width / blockSize
	smallHeight := m.height / blockSize

	small := New(smallWidth, smallHeight)
	for sy := 0; sy < smallHeight; sy++ {
		for sx := 0; sx < smallWidth; sx++ {
			sum := 0.0
			for dy := 0; dy < blockSize; dy++ {
				for dx := 0; dx < blockSize; dx++ {
					sum += m.data[sy*blockSize+dy][sx*blockSize+dx]
				}
			}
			small.data[sy][sx] = sum / float64(blockSize*blockSize)
		}
	}

	m.mu.Lock()
	m.smallMap = small
	m.mu.Unlock()
	return small, nil
}

// Submap returns the cached downsampled map, deriving it on first use
// with a block size of width/10. Safe for concurrent use.
func (m *Heightmap) Submap() (*Heightmap, error) {
	m.mu.Lock()
	small := m.smallMap
	m.mu.Unlock()
	if small != nil {
		return small, nil
	}
	return m.CreateSubmap(m.width / DefaultBlockSize)
}

// ApplyFilter runs a pure transform over the grid and wraps the result
// in a new heightmap. The receiver is left untouched.
func (m *Heightmap) ApplyFilter(filter func([][]float64) [][]float64) *Heightmap {
	filtered := filter(m.data)
	return &Heightmap{
		width:     m.width,
		height:    m.height,
		data:      filtered,
		blockSize: m.blockSize,
	}
}

// ValidateLocation checks that (x, y) addresses a cell of this map.
func (m *Heightmap) ValidateLocation(x, y int) error {
	if x < 0 || y < 0 {
		return fmt.Errorf("location (%d, %d) must be non-negative", x, y)
	}
	if x >= m.width || y >= m.height {
		return fmt.Errorf("location (%d, %d) must be within map dimensions (width: %d, height: %d)", x, y, m.width, m.height)
	}
	return nil
}

func (m *Heightmap) String() string {
	return fmt.Sprintf("Heightmap(%dx%d)", m.width, m.height)
}
