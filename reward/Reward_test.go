package reward

import (
	"math"
	"testing"

	"github.com/samuelfneumann/gowalk/phase"
	"github.com/samuelfneumann/gowalk/robot"
	"github.com/samuelfneumann/gowalk/timestep"
	"gonum.org/v1/gonum/spatial/r1"
)

var clock = phase.Clock{CtrlDt: 0.02, StandStillThreshold: 0.01}

// walkingStep returns a timestep holding every key the default terms
// read, for a robot with the given number of joints
func walkingStep(joints int, lin []float64, ang float64) timestep.TimeStep {
	zeros := func(n int) []float64 { return make([]float64, n) }
	return timestep.TimeStep{
		Observations: timestep.Observations{
			timestep.ProjectedGravityObs: {0, 0, -9.81},
			timestep.BaseAngularVelObs:   zeros(3),
			timestep.BaseLinearVelObs:    zeros(3),
			timestep.BaseSiteLinVelObs:   {lin[0], lin[1], 0},
			timestep.BaseSiteAngVelObs:   {0, 0, ang},
			timestep.JointVelocityObs:    zeros(joints),
			timestep.ActuatorForceObs:    zeros(joints),
			timestep.FeetPositionObs:     zeros(6),
			timestep.FeetContactObs:      {1, 1, 0, 0},
			timestep.CenterOfMassVelObs:  zeros(3),
			timestep.LeftFootForceObs:    zeros(3),
			timestep.RightFootForceObs:   zeros(3),
		},
		Commands: timestep.Commands{
			timestep.LinearVelocityCmd:  append([]float64(nil), lin...),
			timestep.AngularVelocityCmd: {ang},
			timestep.GaitFrequencyCmd:   {1.25},
		},
		Action: zeros(joints),
		QPos:   zeros(joints),
	}
}

// TestLinearVelocityTrackingExact tests that zero tracking error yields
// a reward of exactly 1
func TestLinearVelocityTrackingExact(t *testing.T) {
	traj := timestep.Trajectory{walkingStep(2, []float64{0.5, 0}, 0)}
	r, err := NewLinearVelocityTracking(1, 0.25, 0.01).Reward(traj, 0)
	if err != nil {
		t.Fatal(err)
	}
	if r[0] != 1.0 {
		t.Errorf("want(1.0) have(%v)", r[0])
	}
}

func TestTrackingGates(t *testing.T) {
	traj := timestep.Trajectory{
		walkingStep(2, []float64{0, 0}, 0),
		walkingStep(2, []float64{0.3, 0}, 0.2),
	}
	traj[1].Observations[timestep.BaseSiteLinVelObs] = []float64{0.1, 0, 0}

	lin, err := NewLinearVelocityTracking(1, 0.25, 0.01).Reward(traj, 0)
	if err != nil {
		t.Fatal(err)
	}
	if lin[0] != 0 {
		t.Errorf("tracking reward not gated while standing still: %v", lin[0])
	}
	if want := math.Exp(-0.04 / 0.25); math.Abs(lin[1]-want) > 1e-12 {
		t.Errorf("linear tracking \n\twant(%v) \n\thave(%v)", want, lin[1])
	}

	ang, err := NewAngularVelocityTracking(1, 0.25, 0.01).Reward(traj, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ang[0] != 0 || ang[1] != 1 {
		t.Errorf("angular tracking \n\twant([0 1]) \n\thave(%v)", ang)
	}

	still, err := NewStandStill(1, []float64{0, 0}, 0.01, 0.01).Reward(traj,
		0)
	if err != nil {
		t.Fatal(err)
	}
	if still[0] != 1 || still[1] != 0 {
		t.Errorf("stand still \n\twant([1 0]) \n\thave(%v)", still)
	}
}

// TestJointLimitDeadband tests that a joint exactly at its soft limit
// is not penalized and one unit past it is penalized by one unit
func TestJointLimitDeadband(t *testing.T) {
	limits := map[string]r1.Interval{
		"a": {Min: -2, Max: 2},
		"b": {Min: -2, Max: 2},
	}
	meta, err := robot.NewMetadata([]robot.Joint{{Name: "a"}, {Name: "b"}},
		limits)
	if err != nil {
		t.Fatal(err)
	}
	soft, err := meta.SoftLimits(0.5)
	if err != nil {
		t.Fatal(err)
	}

	traj := timestep.Trajectory{
		{QPos: []float64{1, -1}},
		{QPos: []float64{2, 0}},
		{QPos: []float64{0, -2}},
	}
	r, err := NewJointPositionLimit(1, soft).Reward(traj, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 1, 1}
	for i := range want {
		if math.Abs(r[i]-want[i]) > 1e-12 {
			t.Errorf("step %d \n\twant(%v) \n\thave(%v)", i, want[i], r[i])
		}
	}
}

func TestActionInBounds(t *testing.T) {
	limits := []r1.Interval{{Min: -1, Max: 1}, {Min: 0, Max: 2}}
	traj := timestep.Trajectory{
		{Action: []float64{0, 1}},
		{Action: []float64{-1, 2}},
		{Action: []float64{1.5, 1}},
		{Action: []float64{0, -0.1}},
	}
	r, err := NewActionInBounds(0.01, limits).Reward(traj, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, 1, 0, 0}
	for i := range want {
		if r[i] != want[i] {
			t.Errorf("step %d \n\twant(%v) \n\thave(%v)", i, want[i], r[i])
		}
	}

	traj = timestep.Trajectory{{Action: []float64{0}}}
	if _, err := NewActionInBounds(0.01, limits).Reward(traj, 0); err == nil {
		t.Error("expected error for action of the wrong width")
	}
}

func TestTermination(t *testing.T) {
	traj := timestep.Trajectory{
		{},
		{Done: true},
		{},
		{Done: true, Success: true},
	}
	r, err := NewTermination(-1).Reward(traj, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 1, 0, 0}
	for i := range want {
		if r[i] != want[i] {
			t.Errorf("step %d \n\twant(%v) \n\thave(%v)", i, want[i], r[i])
		}
	}
}

func TestActionSmoothnessResets(t *testing.T) {
	traj := timestep.Trajectory{
		{Action: []float64{0, 0}},
		{Action: []float64{1, 0}, Done: true},
		{Action: []float64{5, 5}},
		{Action: []float64{5, 3}},
	}
	r, err := NewActionSmoothness(1).Reward(traj, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 1, 0, 4}
	for i := range want {
		if math.Abs(r[i]-want[i]) > 1e-12 {
			t.Errorf("step %d \n\twant(%v) \n\thave(%v)", i, want[i], r[i])
		}
	}
}

func TestFeetPhase(t *testing.T) {
	step := walkingStep(2, []float64{0.5, 0}, 0)
	step.Time = 0

	// At time 0 the left foot is at phase 0, halfway through its swing,
	// and the right foot at phase π, touching down
	step.Observations[timestep.FeetPositionObs] = []float64{
		0, 0, 0.12, 0, 0, 0,
	}
	traj := timestep.Trajectory{step}
	r, err := NewFeetPhase(1, clock, 0.12, 0.01).Reward(traj, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(r[0]-1) > 1e-12 {
		t.Errorf("want(1) have(%v)", r[0])
	}

	traj[0].Commands[timestep.LinearVelocityCmd] = []float64{0, 0}
	if r, err = NewFeetPhase(1, clock, 0.12, 0.01).Reward(traj, 0); err != nil {
		t.Fatal(err)
	}
	if r[0] != 0 {
		t.Errorf("feet phase not gated while standing still: %v", r[0])
	}
}

func TestContactForceAndSlip(t *testing.T) {
	step := walkingStep(2, []float64{0.5, 0}, 0)
	step.Observations[timestep.LeftFootForceObs] = []float64{0, 0, -400}
	step.Observations[timestep.RightFootForceObs] = []float64{0, 0, 300}
	step.Observations[timestep.CenterOfMassVelObs] = []float64{3, 4, 1}
	traj := timestep.Trajectory{step}

	force, err := NewContactForce(1, 350).Reward(traj, 0)
	if err != nil {
		t.Fatal(err)
	}
	if force[0] != 50 {
		t.Errorf("contact force \n\twant(50) \n\thave(%v)", force[0])
	}

	slip, err := NewFeetSlip(1).Reward(traj, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(slip[0]-10) > 1e-12 {
		t.Errorf("feet slip \n\twant(10) \n\thave(%v)", slip[0])
	}
}

func TestMissingKey(t *testing.T) {
	traj := timestep.Trajectory{walkingStep(2, []float64{0.5, 0}, 0)}
	delete(traj[0].Observations, timestep.BaseSiteLinVelObs)

	agg := Aggregator{
		NewUpright(1),
		NewLinearVelocityTracking(1, 0.25, 0.01),
	}
	if err := agg.Validate(traj); !timestep.IsMissingKey(err) {
		t.Errorf("expected missing key error from validate, have(%v)", err)
	}
	if _, err := agg.Compute(traj, 0); !timestep.IsMissingKey(err) {
		t.Errorf("expected missing key error from compute, have(%v)", err)
	}
}

func TestAggregatorWeightedSum(t *testing.T) {
	traj := timestep.Trajectory{
		walkingStep(2, []float64{0.5, 0}, 0),
		walkingStep(2, []float64{0.5, 0}, 0),
	}
	traj[1].Done = true

	agg := Aggregator{
		NewLinearVelocityTracking(2, 0.25, 0.01),
		NewTermination(-1),
	}
	res, err := agg.Compute(traj, 0)
	if err != nil {
		t.Fatal(err)
	}

	want := []float64{2, 1}
	for i := range want {
		if math.Abs(res.Total[i]-want[i]) > 1e-12 {
			t.Errorf("step %d \n\twant(%v) \n\thave(%v)", i, want[i],
				res.Total[i])
		}
	}
	if res.Terms["termination_penalty"][1] != -1 {
		t.Errorf("scaled termination penalty \n\twant(-1) \n\thave(%v)",
			res.Terms["termination_penalty"][1])
	}
	if res.Mean("") != 1.5 {
		t.Errorf("mean total reward \n\twant(1.5) \n\thave(%v)", res.Mean(""))
	}
}

func TestNewDefault(t *testing.T) {
	meta, err := robot.NewMetadata(robot.KBotJoints(), nil)
	if err != nil {
		t.Fatal(err)
	}
	c := Config{
		Clock:             clock,
		Joints:            meta,
		SoftLimitFraction: 0.95,
		MaxFootHeight:     0.12,
	}

	// Joint limits and actuator force limits are unknown
	if _, err := NewDefault(c); err == nil {
		t.Error("expected error for missing joint metadata")
	}

	c.Scales = map[string]float64{
		"action_in_bounds":             0,
		"joint_position_limit_penalty": 0,
		"actuator_force_penalty":       0,
	}
	agg, err := NewDefault(c)
	if err != nil {
		t.Fatal(err)
	}
	if len(agg) != len(DefaultScales())-3 {
		t.Errorf("invalid number of terms \n\twant(%v) \n\thave(%v)",
			len(DefaultScales())-3, len(agg))
	}

	traj := timestep.Trajectory{walkingStep(20, []float64{0.5, 0}, 0)}
	traj[0].QPos = meta.Neutral()
	traj[0].Action = meta.Neutral()
	if _, err := agg.Compute(traj, 0.5); err != nil {
		t.Error(err)
	}

	c.Scales["no_such_term"] = 1
	if _, err := NewDefault(c); err == nil {
		t.Error("expected error for unknown term")
	}
}
