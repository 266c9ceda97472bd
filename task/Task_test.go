package task

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/gowalk/agent"
	"github.com/samuelfneumann/gowalk/agent/recurrentac"
	"github.com/samuelfneumann/gowalk/environment"
	"github.com/samuelfneumann/gowalk/reward"
	"github.com/samuelfneumann/gowalk/robot"
	"github.com/samuelfneumann/gowalk/timestep"
	"github.com/samuelfneumann/gowalk/utils/randutils"
	"gonum.org/v1/gonum/spatial/r1"
)

// small returns the default configuration with a small policy
func small() Config {
	c := Default()
	ac := recurrentac.Default()
	ac.Hidden, ac.Depth, ac.Mixtures = 8, 1, 2
	c.Model = agent.NewTypedConfig(ac)
	c.ScanSize = 4
	c.EpisodeSteps = 5
	return c
}

func TestDefault(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}

	c := Default()
	c.RewardScales["no_such_term"] = 1
	if err := c.Validate(); err == nil {
		t.Error("expected error for unknown reward term")
	}

	c = Default()
	c.Level = 2
	if err := c.Validate(); err == nil {
		t.Error("expected error for curriculum level outside [0, 1]")
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.json")
	c := small()
	c.Level = 0.5
	c.RewardScales["upright"] = 3
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Level != 0.5 || loaded.CtrlDt != c.CtrlDt {
		t.Errorf("loaded config differs \n\twant(%v) \n\thave(%v)", c, loaded)
	}
	if loaded.RewardScales["upright"] != 3 {
		t.Errorf("reward scale \n\twant(3) \n\thave(%v)",
			loaded.RewardScales["upright"])
	}
	if loaded.GaitFrequency != c.GaitFrequency {
		t.Errorf("gait frequency \n\twant(%v) \n\thave(%v)", c.GaitFrequency,
			loaded.GaitFrequency)
	}

	ac, ok := loaded.Model.Config.(recurrentac.Config)
	if !ok {
		t.Fatalf("model config has type %T", loaded.Model.Config)
	}
	if ac.Hidden != 8 || ac.Mixtures != 2 {
		t.Errorf("model config \n\twant(8, 2) \n\thave(%v, %v)", ac.Hidden,
			ac.Mixtures)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBuild(t *testing.T) {
	task, err := Build(small(), randutils.NewKey(1))
	if err != nil {
		t.Fatal(err)
	}
	if task.Joints.Len() != len(robot.KBotJoints()) {
		t.Errorf("invalid number of joints %v", task.Joints.Len())
	}
	if len(task.Commands) != 3 {
		t.Errorf("invalid number of commands %v", len(task.Commands))
	}

	// Terms with a zero scale are removed
	for _, r := range task.Rewards {
		if r.Name() == "joint_position_limit_penalty" ||
			r.Name() == "action_in_bounds" {
			t.Errorf("%v should be disabled", r.Name())
		}
	}

	p, err := task.Kinematic()
	if err != nil {
		t.Fatal(err)
	}
	r, err := task.NewRollout(p, randutils.NewKey(2))
	if err != nil {
		t.Fatal(err)
	}
	seg, err := r.Run(context.Background(), 12)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Evaluate(seg); err != nil {
		t.Fatal(err)
	}
	for i, step := range seg.Trajectory {
		if step.Done && step.Number != 4 {
			t.Errorf("step %d: episode ended early at %v", i, step.Number)
		}
	}
}

func TestBuildLimits(t *testing.T) {
	c := small()
	c.RewardScales = nil
	if _, err := Build(c, randutils.NewKey(1)); err == nil {
		t.Error("expected error for limit terms without joint limits")
	}

	c.JointLimits = make(map[string]r1.Interval)
	c.ForceLimits = make(map[string]float64)
	for _, j := range robot.KBotJoints() {
		c.JointLimits[j.Name] = r1.Interval{Min: j.Neutral - 1, Max: j.Neutral + 1}
		c.ForceLimits[j.Name] = 60
	}
	task, err := Build(c, randutils.NewKey(1))
	if err != nil {
		t.Fatal(err)
	}

	var inBounds bool
	for _, r := range task.Rewards {
		inBounds = inBounds || r.Name() == "action_in_bounds"
	}
	if !inBounds {
		t.Error("action in bounds term should be enabled with joint limits")
	}

	// Joint limit ender
	enders := task.Enders()
	if len(enders) != 3 {
		t.Fatalf("invalid number of enders \n\twant(3) \n\thave(%v)",
			len(enders))
	}
	state := environment.PhysicsState{QPos: task.Joints.Neutral()}
	state.QPos[0] += 2
	tr := &environment.Transition{State: state}
	if done, err := enders[1].End(tr, 0); err != nil || !done || tr.Success {
		t.Errorf("joint outside its limits should fail the episode: %v", err)
	}
}

func TestTilt(t *testing.T) {
	task, err := Build(small(), randutils.NewKey(1))
	if err != nil {
		t.Fatal(err)
	}
	tilt := task.Enders()[0]

	for _, test := range []struct {
		angle float64
		done  bool
	}{
		{0, false},
		{MaxTilt / 2, false},
		{MaxTilt * 1.1, true},
	} {
		tr := &environment.Transition{Observations: timestep.Observations{
			timestep.ProjectedGravityObs: {
				9.81 * math.Sin(test.angle), 0, -9.81 * math.Cos(test.angle),
			},
		}}
		done, err := tilt.End(tr, 0)
		if err != nil {
			t.Fatal(err)
		}
		if done != test.done {
			t.Errorf("tilt %v: done \n\twant(%v) \n\thave(%v)", test.angle,
				test.done, done)
		}
	}
}

func TestNewRolloutMissingObservation(t *testing.T) {
	task, err := Build(small(), randutils.NewKey(1))
	if err != nil {
		t.Fatal(err)
	}
	p, err := task.Kinematic()
	if err != nil {
		t.Fatal(err)
	}
	task.Rewards = append(task.Rewards, missing{})
	if _, err := task.NewRollout(p, randutils.NewKey(2)); !timestep.IsMissingKey(err) {
		t.Errorf("expected missing key error, have(%v)", err)
	}
}

// missing is a reward term reading an observation no provider reports
type missing struct{}

func (missing) Name() string   { return "missing" }
func (missing) Scale() float64 { return 1 }
func (missing) Requires() []reward.Key {
	return []reward.Key{reward.Obs("missing")}
}
func (missing) Reward(traj timestep.Trajectory, _ float64) ([]float64, error) {
	return make([]float64, traj.Len()), nil
}
