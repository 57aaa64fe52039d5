package terrain

import "sort"

// MedianFilter smooths a grid by replacing each cell with the median of
// its kernelSize x kernelSize neighborhood. Even kernel sizes are bumped
// to the next odd size. Out-of-range samples reflect off the boundary
// (edge cells are mirrored, the edge itself included).
func MedianFilter(data [][]float64, kernelSize int) [][]float64 {
	if kernelSize%2 == 0 {
		kernelSize++
	}

	rows := len(data)
	if rows == 0 {
		return [][]float64{}
	}
	cols := len(data[0])

	out := make([][]float64, rows)
	radius := kernelSize / 2
	window := make([]float64, 0, kernelSize*kernelSize)

	for y := 0; y < rows; y++ {
		out[y] = make([]float64, cols)
		for x := 0; x < cols; x++ {
			window = window[:0]
			for dy := -radius; dy <= radius; dy++ {
				sy := reflectIndex(y+dy, rows)
				for dx := -radius; dx <= radius; dx++ {
					sx := reflectIndex(x+dx, cols)
					window = append(window, data[sy][sx])
				}
			}
			out[y][x] = median(window)
		}
	}
	return out
}

// reflectIndex maps an out-of-range index back into [0, n) by mirroring
// across the boundary: indices -1, -2 map to 0, 1 and n, n+1 map to
// n-1, n-2.
func reflectIndex(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}

func median(values []float64) float64 {
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}
