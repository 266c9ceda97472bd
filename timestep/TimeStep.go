// Package timestep implements the per-timestep records of a rollout
// and the trajectories built from them.
package timestep

import (
	"errors"
	"fmt"
)

// Source describes which mapping a key was looked up in
type Source string

const (
	Observation Source = "Observation"
	Command     Source = "Command"
)

// MissingKeyError is returned when a component requires a named
// observation or command which the caller did not provide. It always
// indicates a wiring defect and should never be retried.
type MissingKeyError struct {
	Source Source
	Key    string
}

func (m *MissingKeyError) Error() string {
	return fmt.Sprintf("%v %q not found; add it as an %s in your task",
		m.Source, m.Key, lowerSource(m.Source))
}

func lowerSource(s Source) string {
	switch s {
	case Observation:
		return "observation"
	default:
		return "command"
	}
}

// IsMissingKey returns whether err wraps a *MissingKeyError
func IsMissingKey(err error) bool {
	var m *MissingKeyError
	return errors.As(err, &m)
}

// Observations maps an observation name to its fixed-width vector
type Observations map[string][]float64

// Get returns the observation with the given name
func (o Observations) Get(name string) ([]float64, error) {
	v, ok := o[name]
	if !ok {
		return nil, &MissingKeyError{Source: Observation, Key: name}
	}
	return v, nil
}

// Commands maps a command name to its fixed-width vector
type Commands map[string][]float64

// Get returns the command with the given name
func (c Commands) Get(name string) ([]float64, error) {
	v, ok := c[name]
	if !ok {
		return nil, &MissingKeyError{Source: Command, Key: name}
	}
	return v, nil
}

// Clone returns a deep copy of the commands
func (c Commands) Clone() Commands {
	out := make(Commands, len(c))
	for k, v := range c {
		out[k] = append([]float64(nil), v...)
	}
	return out
}

// TimeStep packages together a single timestep of a rollout. The
// Observations and Commands are those the policy saw when selecting
// Action. QPos holds the joint positions (without the floating base).
type TimeStep struct {
	Observations Observations
	Commands     Commands
	Action       []float64
	QPos         []float64
	Done         bool
	Success      bool
	Time         float64
	Number       int
}

// Failed returns whether the episode ended on this step without
// succeeding
func (t TimeStep) Failed() bool {
	return t.Done && !t.Success
}

func (t TimeStep) String() string {
	str := "TimeStep | Number: %v  |  Time:  %.3f  |  Done: %v  |  " +
		"Success: %v"

	return fmt.Sprintf(str, t.Number, t.Time, t.Done, t.Success)
}
