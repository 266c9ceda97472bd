package initwfn

import (
	"math"

	G "gorgonia.org/gorgonia"
)

// GlorotUConfig implements a configuration of the Glorot Uniform
// initialization algorithm.
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a new Glorot Uniform weight initializer
func NewGlorotU(gain float64) (*InitWFn, error) {
	config := GlorotUConfig{
		Gain: gain,
	}

	return newInitWFn(config)
}

// Type returns the type of initialization algorithm described by
// the configuration.
func (g GlorotUConfig) Type() Type {
	return GlorotU
}

// Create returns the weight initialization algorithm as a Gorgonia
// InitWFn
func (g GlorotUConfig) Create() G.InitWFn {
	return G.GlorotU(g.Gain)
}

// CreateSeeded returns the weight initialization algorithm as a
// Gorgonia InitWFn drawing from a source seeded with seed
func (g GlorotUConfig) CreateSeeded(seed uint64) G.InitWFn {
	return seededUniform(seed, func(s ...int) (float64, float64) {
		fanIn, fanOut := fans(s...)
		limit := g.Gain * math.Sqrt(6/float64(fanIn+fanOut))
		return -limit, limit
	})
}

// fans returns the fan in and fan out of a weight tensor with the
// given shape
func fans(s ...int) (fanIn, fanOut int) {
	switch len(s) {
	case 0:
		return 1, 1
	case 1:
		return s[0], s[0]
	default:
		receptive := 1
		for _, d := range s[2:] {
			receptive *= d
		}
		return s[0] * receptive, s[1] * receptive
	}
}
