// Package environment outlines the interfaces and structs needed to
// connect an external physics-state provider to the walking task
package environment

import (
	"context"

	"github.com/samuelfneumann/gowalk/timestep"
	"github.com/samuelfneumann/gowalk/utils/randutils"
)

// PhysicsState is the raw simulation state exposed by a provider
type PhysicsState struct {
	// QPos holds the joint positions, without the floating base
	QPos []float64

	// QVel holds the joint velocities, without the floating base
	QVel []float64

	// Time is the elapsed episode time in seconds
	Time float64
}

// Clone returns a deep copy of the PhysicsState
func (p PhysicsState) Clone() PhysicsState {
	return PhysicsState{
		QPos: append([]float64(nil), p.QPos...),
		QVel: append([]float64(nil), p.QVel...),
		Time: p.Time,
	}
}

// Transition is the result of stepping a provider
type Transition struct {
	State        PhysicsState
	Observations timestep.Observations

	// Done is true if the episode ended on this transition, and
	// Success is true if it ended without failing
	Done    bool
	Success bool
}

// Provider implements an external physics-state provider. Providers
// compute observations, contacts and termination; the walking task
// only consumes what they report.
type Provider interface {
	// Spec returns the observation vocabulary of the provider
	Spec() Spec

	// Reset starts a new episode
	Reset(ctx context.Context, key randutils.Key) (Transition, error)

	// Step applies a joint-position action under the given commands
	Step(ctx context.Context, action []float64,
		cmds timestep.Commands) (Transition, error)
}

// Ender determines when an episode ends. End marks t as done (and
// possibly successful) if the episode should end after the given
// number of steps.
type Ender interface {
	End(t *Transition, number int) (bool, error)
}
