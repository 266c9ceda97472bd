package command

import (
	"fmt"

	"github.com/samuelfneumann/gowalk/environment"
	"github.com/samuelfneumann/gowalk/timestep"
	"github.com/samuelfneumann/gowalk/utils/randutils"
)

// GaitFrequency sets the stepping frequency, in Hz, of the robot. The
// frequency is sampled once per episode and then held constant.
type GaitFrequency struct {
	Lower, Upper float64
}

// NewGaitFrequency returns a new GaitFrequency command
func NewGaitFrequency(lower, upper float64) (*GaitFrequency, error) {
	g := &GaitFrequency{lower, upper}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("newGaitFrequency: %v", err)
	}
	return g, nil
}

// Validate checks that the frequency bounds are in range
func (g *GaitFrequency) Validate() error {
	if g.Lower <= 0 {
		return fmt.Errorf("validate: lower bound must be positive, have(%v)",
			g.Lower)
	}
	if g.Lower > g.Upper {
		return fmt.Errorf("validate: lower bound %v exceeds upper bound %v",
			g.Lower, g.Upper)
	}
	return nil
}

// Name implements the Command interface
func (g *GaitFrequency) Name() string { return timestep.GaitFrequencyCmd }

// Width implements the Command interface
func (g *GaitFrequency) Width() int { return 1 }

// Initial implements the Command interface
func (g *GaitFrequency) Initial(_ environment.PhysicsState, _ float64,
	key randutils.Key) []float64 {
	return []float64{key.Uniform(g.Lower, g.Upper)}
}

// Step implements the Command interface. The gait frequency never
// changes within an episode.
func (g *GaitFrequency) Step(prev []float64, _ environment.PhysicsState,
	_ float64, _ randutils.Key) []float64 {
	return append([]float64(nil), prev...)
}
