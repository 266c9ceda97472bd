// Package trackers implements Trackers which accumulate per-episode
// statistics of the rewards of an experiment
package trackers

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/samuelfneumann/gowalk/experiment/tracker"
	"github.com/samuelfneumann/gowalk/reward"
	"github.com/samuelfneumann/gowalk/timestep"
)

// Return tracks and saves the episodic return in an experiment. For
// each trajectory, this Tracker accumulates the total reward of each
// timestep into the return of the current episode.
//
// Note: An episode must finish for this Tracker to save its data.
// If the last episode in an experiment does not finish, that episode's
// return will not be saved. An episode may span many trajectories.
type Return struct {
	lastTimeStep   int
	currentReturn  float64
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) tracker.Tracker {
	return &Return{lastTimeStep: -1, filename: filename}
}

// Track tracks the rewards of a trajectory. When an episode ends, its
// return is cached and the return of the next episode is accumulated
// separately.
//
// Track returns an error if it is called for non-sequential timesteps
func (r *Return) Track(traj timestep.Trajectory, rewards reward.Result) error {
	if err := checkLength(traj, rewards); err != nil {
		return fmt.Errorf("track: %v", err)
	}

	for t, step := range traj {
		if r.lastTimeStep+1 != step.Number {
			return fmt.Errorf("track: last two timesteps tracked are not "+
				"sequential: timestep %v --> timestep %v were tracked",
				r.lastTimeStep, step.Number)
		}

		r.currentReturn += rewards.Total[t]
		r.lastTimeStep = step.Number
		if step.Done {
			r.episodeReturns = append(r.episodeReturns, r.currentReturn)
			r.currentReturn = 0.0
			r.lastTimeStep = -1
		}
	}
	return nil
}

// Returns returns the returns of all episodes finished so far
func (r *Return) Returns() []float64 {
	return append([]float64(nil), r.episodeReturns...)
}

// Save saves the data tracked by the Return Tracker to disk.
func (r *Return) Save() error {
	return save(r.filename, r.episodeReturns)
}

// save gob-encodes data to filename
func save(filename string, data []float64) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	if err = gob.NewEncoder(file).Encode(data); err != nil {
		return fmt.Errorf("save: could not encode data: %v", err)
	}
	return file.Sync()
}

func checkLength(traj timestep.Trajectory, rewards reward.Result) error {
	if len(rewards.Total) != traj.Len() {
		return fmt.Errorf("one reward per timestep required \n\twant(%v) "+
			"\n\thave(%v)", traj.Len(), len(rewards.Total))
	}
	return nil
}
