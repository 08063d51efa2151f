// Package embedding provides the small numeric utilities shared by
// embedding consumers.
package embedding

import (
	"fmt"
	"math"
)

// Normalize scales vec in place to unit L2 norm. Zero vectors cannot be
// normalized and are reported as an error.
func Normalize(vec []float32) error {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return fmt.Errorf("cannot normalize zero vector")
	}

	norm := math.Sqrt(sum)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return nil
}

// NormalizeRows applies Normalize to every row of a matrix in place.
func NormalizeRows(rows [][]float32) error {
	for i, row := range rows {
		if err := Normalize(row); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return nil
}
