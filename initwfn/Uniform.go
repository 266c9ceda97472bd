package initwfn

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Uniform implements a configuration of a weight initializer that
// draws weights from a uniform distribution
type UniformConfig struct {
	Low, High float64
}

// NewUniform returns a new uniform weight initializer
func NewUniform(low, high float64) (*InitWFn, error) {
	if low > high {
		return nil, fmt.Errorf("newUniform: low %v exceeds high %v", low,
			high)
	}
	config := UniformConfig{
		Low:  low,
		High: high,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (u UniformConfig) Type() Type {
	return Uniform
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (u UniformConfig) Create() G.InitWFn {
	return G.Uniform(u.Low, u.High)
}

// CreateSeeded returns the weight initialization algorithm as a
// Gorgonia InitWFn drawing from a source seeded with seed
func (u UniformConfig) CreateSeeded(seed uint64) G.InitWFn {
	return seededUniform(seed, func(...int) (float64, float64) {
		return u.Low, u.High
	})
}

// seededUniform returns an InitWFn drawing each weight uniformly from
// the bounds returned by bounds for the tensor's shape. All tensors
// initialized by the returned InitWFn draw from a single source, so
// the weights depend on both the seed and the order of calls.
func seededUniform(seed uint64,
	bounds func(s ...int) (float64, float64)) G.InitWFn {
	src := rand.NewSource(seed)

	return func(dt tensor.Dtype, s ...int) interface{} {
		if dt != tensor.Float64 {
			panic(fmt.Sprintf("seededUniform: unsupported dtype %v", dt))
		}

		low, high := bounds(s...)
		size := tensor.Shape(s).TotalSize()
		weights := make([]float64, size)
		if low == high {
			for i := range weights {
				weights[i] = low
			}
			return weights
		}

		dist := distuv.Uniform{Min: low, Max: high, Src: src}
		for i := range weights {
			weights[i] = dist.Rand()
		}
		return weights
	}
}
