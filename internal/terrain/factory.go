package terrain

import (
	"fmt"
	"time"
)

// Algorithm names accepted by NewNamed.
const (
	AlgorithmDiamondSquare          = "diamond-square"
	AlgorithmRecursiveDiamondSquare = "recursive-diamond-square"
	AlgorithmPerlin                 = "perlin"
)

// NewNamed constructs a generator by algorithm name. The perlin
// algorithm is seeded from the wall clock here; construct a
// PerlinGenerator directly for a reproducible seed.
func NewNamed(algorithm string, width, height int, opts ...Option) (Generator, error) {
	switch algorithm {
	case AlgorithmDiamondSquare:
		return NewDiamondSquareGenerator(width, height, opts...), nil
	case AlgorithmRecursiveDiamondSquare:
		return NewRecursiveDiamondSquareGenerator(width, height, opts...), nil
	case AlgorithmPerlin:
		return NewPerlinGenerator(width, height, time.Now().UnixNano(), opts...), nil
	default:
		return nil, fmt.Errorf("unknown generator algorithm %q", algorithm)
	}
}
