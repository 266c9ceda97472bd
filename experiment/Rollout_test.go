package experiment

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/gowalk/agent/recurrentac"
	"github.com/samuelfneumann/gowalk/command"
	"github.com/samuelfneumann/gowalk/environment"
	"github.com/samuelfneumann/gowalk/environment/kinematic"
	"github.com/samuelfneumann/gowalk/experiment/tracker"
	"github.com/samuelfneumann/gowalk/experiment/trackers"
	"github.com/samuelfneumann/gowalk/phase"
	"github.com/samuelfneumann/gowalk/reward"
	"github.com/samuelfneumann/gowalk/robot"
	"github.com/samuelfneumann/gowalk/timestep"
	"github.com/samuelfneumann/gowalk/utils/randutils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

const episodeSteps = 7

var clock = phase.Clock{CtrlDt: 0.02, StandStillThreshold: 0.01}

func newRollout(t *testing.T, key uint64, tr ...tracker.Tracker) *Rollout {
	t.Helper()

	meta, err := robot.NewMetadata([]robot.Joint{
		{Name: "a", Neutral: 0.1},
		{Name: "b", Neutral: -0.2},
		{Name: "c", Neutral: 0.3},
	}, nil)
	if err != nil {
		t.Fatal(err)
	}

	pc := kinematic.Default(clock, meta)
	pc.Enders = []environment.Ender{environment.NewStepLimit(episodeSteps)}
	provider, err := kinematic.New(pc)
	if err != nil {
		t.Fatal(err)
	}

	ac := recurrentac.Default()
	ac.Hidden, ac.Depth, ac.Mixtures = 8, 2, 2
	evaluator, err := ac.Create(meta, randutils.NewKey(3))
	if err != nil {
		t.Fatal(err)
	}

	gait, err := command.NewGaitFrequency(1.2, 1.5)
	if err != nil {
		t.Fatal(err)
	}
	c := Config{
		Clock: clock,
		Commands: command.Set{
			command.DefaultLinearVelocity(clock.CtrlDt),
			command.DefaultAngularVelocity(clock.CtrlDt),
			gait,
		},
		Rewards: reward.Aggregator{
			reward.NewUpright(1),
			reward.NewLinearVelocityTracking(2, 0.25, 0.01),
			reward.NewFeetPhase(2.1, clock, 0.12, 0.01),
			reward.NewTermination(-1),
		},
		ScanSize: 8,
	}

	r, err := NewRollout(provider, evaluator, c, randutils.NewKey(key), tr...)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRunEpisodes(t *testing.T) {
	r := newRollout(t, 1)
	seg, err := r.Run(context.Background(), 20)
	if err != nil {
		t.Fatal(err)
	}

	traj := seg.Trajectory
	if traj.Len() != 20 {
		t.Fatalf("invalid trajectory length \n\twant(20) \n\thave(%v)",
			traj.Len())
	}
	if err := traj.Validate(); err != nil {
		t.Fatal(err)
	}
	if !seg.Carry.IsZero() {
		t.Error("first segment should start from the initial carry")
	}

	for i, step := range traj {
		if step.Number != i%episodeSteps {
			t.Errorf("step %d: number \n\twant(%v) \n\thave(%v)", i,
				i%episodeSteps, step.Number)
		}
		if done := step.Number == episodeSteps-1; step.Done != done {
			t.Errorf("step %d: done \n\twant(%v) \n\thave(%v)", i, done,
				step.Done)
		}
		if len(step.Observations[timestep.PhaseObs]) != phase.ObservationWidth {
			t.Errorf("step %d: no phase observation", i)
		}
		if step.Number == 0 && step.Time != 0 {
			t.Errorf("step %d: episode starts at time %v", i, step.Time)
		}
	}

	// The gait frequency is held within each episode
	for i := 1; i < traj.Len(); i++ {
		if traj[i].Number == 0 {
			continue
		}
		prev := traj[i-1].Commands[timestep.GaitFrequencyCmd][0]
		if traj[i].Commands[timestep.GaitFrequencyCmd][0] != prev {
			t.Errorf("step %d: gait frequency changed within an episode", i)
		}
	}
}

func TestRunContinues(t *testing.T) {
	r := newRollout(t, 2)
	first, err := r.Run(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Run(context.Background(), 5)
	if err != nil {
		t.Fatal(err)
	}

	if second.Trajectory[0].Number != 5 {
		t.Errorf("second segment should continue the episode, have "+
			"number %v", second.Trajectory[0].Number)
	}
	if second.Carry.IsZero() {
		t.Error("second segment should start from the running carry")
	}

	eval, err := r.Evaluate(first)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(eval.Carry.Actor, second.Carry.Actor, 1e-6) {
		t.Error("re-evaluated carry differs from the online carry")
	}
}

func TestEvaluate(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "lengths.bin")
	r := newRollout(t, 3, trackers.NewEpisodeLength(filename))

	seg, err := r.Run(context.Background(), 20)
	if err != nil {
		t.Fatal(err)
	}
	eval, err := r.Evaluate(seg)
	if err != nil {
		t.Fatal(err)
	}

	if len(eval.Variables) != seg.Trajectory.Len() {
		t.Fatalf("invalid number of PPO variables \n\twant(%v) \n\thave(%v)",
			seg.Trajectory.Len(), len(eval.Variables))
	}
	for i, v := range eval.Variables {
		if !scalar.EqualWithinAbs(v.LogProb, floats.Sum(v.JointLogProbs),
			1e-9) {
			t.Errorf("step %d: joint log probabilities do not sum to the "+
				"log probability", i)
		}
	}

	// The last episode is unfinished
	if eval.Carry.IsZero() {
		t.Error("carry after the segment should continue the last episode")
	}

	if len(eval.Rewards.Total) != seg.Trajectory.Len() {
		t.Errorf("invalid number of rewards %v", len(eval.Rewards.Total))
	}
	for i, v := range eval.Rewards.Terms["termination_penalty"] {
		if v != 0 {
			t.Errorf("step %d: step limit should not be penalized", i)
		}
	}

	if err := r.Save(); err != nil {
		t.Fatal(err)
	}
	lengths, err := tracker.LoadData(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(lengths) != 20/episodeSteps {
		t.Fatalf("invalid number of episodes \n\twant(%v) \n\thave(%v)",
			20/episodeSteps, len(lengths))
	}
	for _, l := range lengths {
		if l != episodeSteps {
			t.Errorf("episode length \n\twant(%v) \n\thave(%v)", episodeSteps,
				l)
		}
	}
}

func TestReproducible(t *testing.T) {
	a, err := newRollout(t, 4).Run(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	b, err := newRollout(t, 4).Run(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}

	for i := range a.Trajectory {
		if !floats.Equal(a.Trajectory[i].Action, b.Trajectory[i].Action) {
			t.Fatalf("step %d: actions differ for equal keys", i)
		}
	}
}

func TestRunCancelled(t *testing.T) {
	r := newRollout(t, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Run(ctx, 3); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context cancellation, have(%v)", err)
	}
}

func TestMissingObservation(t *testing.T) {
	r := newRollout(t, 6)
	r.config.Rewards = append(r.config.Rewards, reward.NewFeetSlip(-0.25))
	seg, err := r.Run(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}

	for i := range seg.Trajectory {
		delete(seg.Trajectory[i].Observations, timestep.CenterOfMassVelObs)
	}
	if _, err := r.Evaluate(seg); !timestep.IsMissingKey(err) {
		t.Errorf("expected missing key error, have(%v)", err)
	}
}

func TestSummarize(t *testing.T) {
	r := newRollout(t, 7)
	seg, err := r.Run(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	eval, err := r.Evaluate(seg)
	if err != nil {
		t.Fatal(err)
	}

	s := Summarize(eval)
	if len(s.Terms) != len(r.config.Rewards) {
		t.Fatalf("invalid number of terms \n\twant(%v) \n\thave(%v)",
			len(r.config.Rewards), len(s.Terms))
	}
	var sum float64
	for _, term := range s.Terms {
		sum += term.Mean
	}
	if !scalar.EqualWithinAbs(sum, s.Reward, 1e-9) {
		t.Errorf("term means should sum to the mean reward \n\twant(%v) "+
			"\n\thave(%v)", s.Reward, sum)
	}
	if s.LogProbStd < 0 || s.ValueStd < 0 {
		t.Error("negative standard deviation")
	}
}
