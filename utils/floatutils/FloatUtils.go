// Package floatutils provides utilities for working with floats
package floatutils

import (
	"math"
)

// Clip clips value to [min, max]
func Clip(value, min, max float64) float64 {
	return math.Max(math.Min(value, max), min)
}

// Argmax returns the index of the largest value. Ties are broken
// towards the lowest index. Argmax panics if values is empty.
func Argmax(values []float64) int {
	if len(values) == 0 {
		panic("argmax: no values")
	}

	index := 0
	for i, v := range values[1:] {
		if v > values[index] {
			index = i + 1
		}
	}
	return index
}
