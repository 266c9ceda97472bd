package experiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/samuelfneumann/gowalk/agent"
	"github.com/samuelfneumann/gowalk/buffer/rollout"
	"github.com/samuelfneumann/gowalk/environment"
	"github.com/samuelfneumann/gowalk/experiment/tracker"
	"github.com/samuelfneumann/gowalk/timestep"
	"github.com/samuelfneumann/gowalk/utils/randutils"
)

// Rollout is an Experiment which runs a recurrent policy online
// against a physics-state provider. On every timestep the phase
// observation is computed from the gait clock, an action is selected,
// the provider is stepped and the commands are advanced. When an
// episode ends, the provider, the commands and the model carry are all
// reset before the next timestep.
//
// A Rollout is not safe for concurrent use.
type Rollout struct {
	provider  environment.Provider
	evaluator agent.PPOEvaluator
	config    Config
	trackers  []tracker.Tracker
	key       randutils.Key

	// Episode state
	started bool
	state   environment.PhysicsState
	obs     timestep.Observations
	cmds    timestep.Commands
	carry   agent.ModelCarry
	number  int
}

var _ Experiment = &Rollout{}

// NewRollout creates and returns a new Rollout. All randomness of the
// Rollout is derived from key.
func NewRollout(p environment.Provider, e agent.PPOEvaluator, c Config,
	key randutils.Key, t ...tracker.Tracker) (*Rollout, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newRollout: %v", err)
	}

	return &Rollout{
		provider:  p,
		evaluator: e,
		config:    c,
		trackers:  t,
		key:       key,
	}, nil
}

// Register registers a tracker.Tracker with the Rollout so that the
// rewards of evaluated trajectories are tracked
func (r *Rollout) Register(t tracker.Tracker) {
	r.trackers = append(r.trackers, t)
}

// SetLevel sets the curriculum level
func (r *Rollout) SetLevel(level float64) error {
	if level < 0 || level > 1 {
		return fmt.Errorf("setLevel: curriculum level must be in [0, 1], "+
			"have(%v)", level)
	}
	r.config.Level = level
	return nil
}

// next returns a fresh key
func (r *Rollout) next() randutils.Key {
	var k randutils.Key
	k, r.key = r.key.Split2()
	return k
}

// reset starts a new episode
func (r *Rollout) reset(ctx context.Context) error {
	t, err := r.provider.Reset(ctx, r.next())
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	r.state = t.State
	r.obs = t.Observations
	r.cmds = r.config.Commands.Initial(r.state, r.config.Level, r.next())
	r.carry = r.evaluator.InitialCarry()
	r.number = 0
	r.started = true
	return nil
}

// observe returns the observations of the current timestep, including
// the phase observation
func (r *Rollout) observe() (timestep.Observations, error) {
	phaseObs, err := r.config.Clock.ObservationFrom(r.cmds, r.state.Time)
	if err != nil {
		return nil, err
	}

	obs := make(timestep.Observations, len(r.obs)+1)
	for name, v := range r.obs {
		obs[name] = v
	}
	obs[timestep.PhaseObs] = phaseObs
	return obs, nil
}

// Run implements the Experiment interface
func (r *Rollout) Run(ctx context.Context, steps int) (Segment, error) {
	if steps <= 0 {
		return Segment{}, fmt.Errorf("run: number of steps must be "+
			"positive, have(%v)", steps)
	}
	if !r.started {
		if err := r.reset(ctx); err != nil {
			return Segment{}, fmt.Errorf("run: %w", err)
		}
	}

	buf := rollout.New(steps)
	start := r.carry.Clone()
	for !buf.Full() {
		if err := ctx.Err(); err != nil {
			return Segment{}, fmt.Errorf("run: %w", err)
		}

		obs, err := r.observe()
		if err != nil {
			return Segment{}, fmt.Errorf("run: %w", err)
		}

		action, err := r.evaluator.SampleAction(r.carry, obs, r.cmds,
			r.next(), r.config.Argmax)
		if err != nil {
			return Segment{}, fmt.Errorf("run: %w", err)
		}

		t, err := r.provider.Step(ctx, action.Action, r.cmds)
		if err != nil {
			return Segment{}, fmt.Errorf("run: %w", err)
		}

		err = buf.Store(timestep.TimeStep{
			Observations: obs,
			Commands:     r.cmds,
			Action:       action.Action,
			QPos:         r.state.QPos,
			Done:         t.Done,
			Success:      t.Success,
			Time:         r.state.Time,
			Number:       r.number,
		})
		if err != nil {
			return Segment{}, fmt.Errorf("run: %v", err)
		}

		if t.Done {
			if err := r.reset(ctx); err != nil {
				return Segment{}, fmt.Errorf("run: %w", err)
			}
			continue
		}

		r.state = t.State
		r.obs = t.Observations
		r.carry = action.Carry
		r.number++
		r.cmds, err = r.config.Commands.Step(r.cmds, r.state, r.config.Level,
			r.next())
		if err != nil {
			return Segment{}, fmt.Errorf("run: %w", err)
		}
	}

	traj, err := buf.Get()
	if err != nil {
		return Segment{}, fmt.Errorf("run: %v", err)
	}
	return Segment{Trajectory: traj, Carry: start}, nil
}

// Evaluate implements the Experiment interface. The trajectory is
// re-evaluated in chunks of the scan size, threading the carry from
// one chunk to the next.
func (r *Rollout) Evaluate(seg Segment) (Evaluation, error) {
	rewards, err := r.config.Rewards.Compute(seg.Trajectory, r.config.Level)
	if err != nil {
		return Evaluation{}, fmt.Errorf("evaluate: %w", err)
	}

	carry := seg.Carry
	vars := make([]agent.PPOVariables, 0, seg.Trajectory.Len())
	for _, chunk := range seg.Trajectory.Split(r.config.ScanSize) {
		var v []agent.PPOVariables
		v, carry, err = r.evaluator.PPOVariables(chunk, carry, r.next())
		if err != nil {
			return Evaluation{}, fmt.Errorf("evaluate: %w", err)
		}
		vars = append(vars, v...)
	}

	for _, t := range r.trackers {
		if err := t.Track(seg.Trajectory, rewards); err != nil {
			return Evaluation{}, fmt.Errorf("evaluate: %v", err)
		}
	}

	return Evaluation{Rewards: rewards, Variables: vars, Carry: carry}, nil
}

// Save saves the data tracked by all Trackers
func (r *Rollout) Save() error {
	var errs []error
	for _, t := range r.trackers {
		if err := t.Save(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
