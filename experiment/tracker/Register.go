package tracker

import (
	"fmt"

	"github.com/samuelfneumann/gowalk/reward"
	"github.com/samuelfneumann/gowalk/timestep"
)

// registeredTracker registers a single reward term with some Tracker
// so that the Tracker tracks that term instead of the total reward.
// registeredTracker itself is a Tracker.
//
// The Track() and Save() methods of a registeredTracker call those of
// the embedded Tracker. The only difference is that the embedded
// Tracker is given rewards whose total is the scaled value of the
// registered term. For example, registering a Return Tracker with the
// feet_phase term tracks the episodic feet phase reward.
type registeredTracker struct {
	Tracker
	term string
}

// Register registers a new Tracker with a reward term, to track that
// term only.
//
// Note: the underlying concrete type of the registered Tracker is
// lost when registering a term with a Tracker.
func Register(t Tracker, term string) Tracker {
	return &registeredTracker{t, term}
}

// Track calls Track() on the embedded Tracker with the registered
// term as the total reward
func (r *registeredTracker) Track(traj timestep.Trajectory,
	rewards reward.Result) error {
	values, ok := rewards.Terms[r.term]
	if !ok {
		return fmt.Errorf("track: no reward term %q", r.term)
	}

	return r.Tracker.Track(traj, reward.Result{
		Total: values,
		Names: []string{r.term},
		Terms: map[string][]float64{r.term: values},
	})
}
