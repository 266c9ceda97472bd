package environment

import (
	"github.com/samuelfneumann/gowalk/utils/randutils"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// UniformStarter samples starting vectors, such as joint position
// offsets, uniformly within per-dimension bounds
type UniformStarter struct {
	bounds []r1.Interval
}

// NewUniformStarter returns a new UniformStarter
func NewUniformStarter(bounds []r1.Interval) UniformStarter {
	return UniformStarter{bounds}
}

// Start returns a starting vector drawn with the given key
func (u UniformStarter) Start(key randutils.Key) []float64 {
	dist := distmv.NewUniform(u.bounds, key.Source())
	return dist.Rand(nil)
}
