package trackers

import (
	"fmt"

	"github.com/samuelfneumann/gowalk/experiment/tracker"
	"github.com/samuelfneumann/gowalk/reward"
	"github.com/samuelfneumann/gowalk/timestep"
)

// EpisodeLength tracks and saves the lengths of episodes in an
// experiment.
// Note that an episode must finish for this Tracker to save its data.
// If the last episode in an experiment does not finish, that episode's
// length will not be saved.
type EpisodeLength struct {
	episodeLengths []float64
	filename       string
}

// NewEpisodeLength returns a new EpisodeLength Tracker which will save
// its data at the specified location filename
func NewEpisodeLength(filename string) tracker.Tracker {
	return &EpisodeLength{filename: filename}
}

// Track caches the length of each episode which ends in traj
func (e *EpisodeLength) Track(traj timestep.Trajectory,
	rewards reward.Result) error {
	if err := checkLength(traj, rewards); err != nil {
		return fmt.Errorf("track: %v", err)
	}

	for _, step := range traj {
		if step.Done {
			e.episodeLengths = append(e.episodeLengths, float64(step.Number+1))
		}
	}
	return nil
}

// Save saves the data tracked by the EpisodeLength Tracker to disk.
func (e *EpisodeLength) Save() error {
	return save(e.filename, e.episodeLengths)
}
