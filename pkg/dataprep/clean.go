package dataprep

import "math"

// HasMissing reports whether any value is NaN or infinite.
func HasMissing(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return true
		}
	}
	return false
}

// ValidPixel is the pixel validity rule used for samples: the band values
// must sum to a positive number. NaN sums are invalid.
func ValidPixel(v []float64) bool {
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum > 0
}

// DropMissingRows removes rows containing missing values along with their labels.
func DropMissingRows(X [][]float64, y []int) ([][]float64, []int) {
	var outX [][]float64
	var outY []int
	for i, row := range X {
		if HasMissing(row) {
			continue
		}
		outX = append(outX, row)
		outY = append(outY, y[i])
	}
	return outX, outY
}
