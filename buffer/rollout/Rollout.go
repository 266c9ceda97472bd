// Package rollout implements a fixed-capacity buffer of the timesteps
// of a rollout
package rollout

import (
	"fmt"

	"github.com/samuelfneumann/gowalk/timestep"
)

// Buffer stores the timesteps of a rollout until it is full. Actions
// and joint positions must keep the width of the first timestep
// stored.
type Buffer struct {
	maxSize    int
	currentPos int

	actionSize int
	qposSize   int

	steps timestep.Trajectory
}

// New creates and returns a new Buffer holding size timesteps
func New(size int) *Buffer {
	if size <= 0 {
		panic(fmt.Sprintf("new: buffer size must be positive, have(%v)",
			size))
	}
	return &Buffer{
		maxSize: size,
		steps:   make(timestep.Trajectory, size),
	}
}

// Store stores a single timestep to the Buffer. Observations,
// commands, actions and joint positions are copied.
func (b *Buffer) Store(step timestep.TimeStep) error {
	if b.currentPos >= b.maxSize {
		return fmt.Errorf("store: cannot add new timestep, buffer at " +
			"maximum capacity")
	}
	if b.currentPos == 0 {
		b.actionSize, b.qposSize = len(step.Action), len(step.QPos)
	}
	if len(step.Action) != b.actionSize {
		return fmt.Errorf("store: illegal action length \n\twant(%v) "+
			"\n\thave(%v)", b.actionSize, len(step.Action))
	}
	if len(step.QPos) != b.qposSize {
		return fmt.Errorf("store: illegal qpos length \n\twant(%v) "+
			"\n\thave(%v)", b.qposSize, len(step.QPos))
	}

	obs := make(timestep.Observations, len(step.Observations))
	for name, v := range step.Observations {
		obs[name] = append([]float64(nil), v...)
	}
	step.Observations = obs
	step.Commands = step.Commands.Clone()
	step.Action = append([]float64(nil), step.Action...)
	step.QPos = append([]float64(nil), step.QPos...)

	b.steps[b.currentPos] = step
	b.currentPos++
	return nil
}

// Len returns the number of timesteps stored
func (b *Buffer) Len() int {
	return b.currentPos
}

// Full returns whether the buffer is at maximum capacity
func (b *Buffer) Full() bool {
	return b.currentPos == b.maxSize
}

// Get returns the trajectory stored in the buffer and empties the
// buffer. The buffer must be full.
func (b *Buffer) Get() (timestep.Trajectory, error) {
	if !b.Full() {
		return nil, fmt.Errorf("get: buffer must be full before sampling")
	}

	traj := b.steps
	b.steps = make(timestep.Trajectory, b.maxSize)
	b.currentPos = 0
	return traj, nil
}

// Chunks is like Get, but splits the trajectory into consecutive chunks
// of at most size timesteps
func (b *Buffer) Chunks(size int) ([]timestep.Trajectory, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunks: chunk size must be positive, "+
			"have(%v)", size)
	}
	traj, err := b.Get()
	if err != nil {
		return nil, fmt.Errorf("chunks: %v", err)
	}
	return traj.Split(size), nil
}
