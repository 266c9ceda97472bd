// Package tracker defines Trackers, which track and save the rewards of
// the trajectories collected in an experiment
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/samuelfneumann/gowalk/reward"
	"github.com/samuelfneumann/gowalk/timestep"
)

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished. Track is called once per trajectory, in the
// order the trajectories were collected, with the rewards computed for
// that trajectory.
type Tracker interface {
	Track(traj timestep.Trajectory, rewards reward.Result) error
	Save() error
}

// LoadData loads and returns the data saved by a gob-encoding Tracker
func LoadData(filename string) ([]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadData: could not open data file: %v", err)
	}
	defer file.Close()

	var data []float64
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("loadData: could not decode data: %v", err)
	}
	return data, nil
}
