package reward

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/gowalk/timestep"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r1"
)

// StayAlive rewards every step of an episode that has not ended with
// 1/Balance, and the last step with SuccessReward if the episode
// succeeded or -1 if it failed
type StayAlive struct {
	term
	Balance       float64
	SuccessReward float64
}

// NewStayAlive returns a new StayAlive term
func NewStayAlive(scale, balance, successReward float64) *StayAlive {
	return &StayAlive{
		term:          term{name: "stay_alive", scale: scale},
		Balance:       balance,
		SuccessReward: successReward,
	}
}

// Reward implements the Reward interface
func (s *StayAlive) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	r := make([]float64, traj.Len())
	for t, step := range traj {
		switch {
		case step.Failed():
			r[t] = -1
		case step.Done:
			r[t] = s.SuccessReward
		default:
			r[t] = 1 / s.Balance
		}
	}
	return r, nil
}

// Upright rewards keeping the base upright: the cosine of the angle
// between the base's up axis and the world's, read off the projected
// gravity vector
type Upright struct {
	term
}

// NewUpright returns a new Upright term
func NewUpright(scale float64) *Upright {
	return &Upright{
		term: term{
			name:  "upright",
			scale: scale,
			keys:  []Key{Obs(timestep.ProjectedGravityObs)},
		},
	}
}

// Reward implements the Reward interface
func (u *Upright) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	gravity, err := column(traj, u.keys[0], 3)
	if err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}

	r := make([]float64, traj.Len())
	for t, g := range gravity {
		if n := floats.Norm(g, 2); n > 0 {
			r[t] = -g[2] / n
		}
	}
	return r, nil
}

// SquaredPenalty penalizes the sum of squares of selected elements of
// an observation. It implements the angular and linear base velocity
// penalties and the joint velocity penalty.
type SquaredPenalty struct {
	term
	Width   int
	Indices []int

	// ScaleByCurriculum multiplies the penalty by the curriculum level
	ScaleByCurriculum bool
}

// NewAngularVelocityPenalty returns a penalty on the base angular
// velocity about the given axes
func NewAngularVelocityPenalty(scale float64, axes ...int) *SquaredPenalty {
	return &SquaredPenalty{
		term: term{
			name:  "angular_velocity_penalty",
			scale: scale,
			keys:  []Key{Obs(timestep.BaseAngularVelObs)},
		},
		Width:   3,
		Indices: axes,
	}
}

// NewLinearVelocityPenalty returns a penalty on the base linear
// velocity along the given axes
func NewLinearVelocityPenalty(scale float64, axes ...int) *SquaredPenalty {
	return &SquaredPenalty{
		term: term{
			name:  "linear_velocity_penalty",
			scale: scale,
			keys:  []Key{Obs(timestep.BaseLinearVelObs)},
		},
		Width:   3,
		Indices: axes,
	}
}

// NewJointVelocityPenalty returns a penalty on all joint velocities
func NewJointVelocityPenalty(scale float64, joints int,
	scaleByCurriculum bool) *SquaredPenalty {
	return &SquaredPenalty{
		term: term{
			name:  "joint_velocity_penalty",
			scale: scale,
			keys:  []Key{Obs(timestep.JointVelocityObs)},
		},
		Width:             joints,
		ScaleByCurriculum: scaleByCurriculum,
	}
}

// Reward implements the Reward interface
func (s *SquaredPenalty) Reward(traj timestep.Trajectory,
	level float64) ([]float64, error) {
	col, err := column(traj, s.keys[0], s.Width)
	if err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}

	for _, i := range s.Indices {
		if i < 0 || i >= s.Width {
			return nil, fmt.Errorf("reward: index %v out of range [0, %v)",
				i, s.Width)
		}
	}

	r := make([]float64, traj.Len())
	for t, v := range col {
		if s.Indices == nil {
			r[t] = floats.Dot(v, v)
		} else {
			for _, i := range s.Indices {
				r[t] += v[i] * v[i]
			}
		}
		if s.ScaleByCurriculum {
			r[t] *= level
		}
	}
	return r, nil
}

// ActionSmoothness penalizes the squared change in action between
// consecutive steps of an episode. The first step of the trajectory
// and the first step after a done step are not penalized.
type ActionSmoothness struct {
	term
}

// NewActionSmoothness returns a new ActionSmoothness term
func NewActionSmoothness(scale float64) *ActionSmoothness {
	return &ActionSmoothness{
		term: term{name: "action_smoothness_penalty", scale: scale},
	}
}

// Reward implements the Reward interface
func (a *ActionSmoothness) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	actions := traj.Actions()
	r := make([]float64, traj.Len())
	for t := 1; t < len(r); t++ {
		if traj[t-1].Done {
			continue
		}
		if len(actions[t]) != len(actions[t-1]) {
			return nil, fmt.Errorf("reward: invalid action width at step %v "+
				"\n\twant(%v) \n\thave(%v)", t, len(actions[t-1]),
				len(actions[t]))
		}
		d := floats.Distance(actions[t], actions[t-1], 2)
		r[t] = d * d
	}
	return r, nil
}

// ActionNearPosition penalizes target positions further than Threshold
// from the current joint positions, linearly in the excess
type ActionNearPosition struct {
	term
	Threshold float64
}

// NewActionNearPosition returns a new ActionNearPosition term
func NewActionNearPosition(scale, threshold float64) *ActionNearPosition {
	return &ActionNearPosition{
		term:      term{name: "action_near_position_penalty", scale: scale},
		Threshold: threshold,
	}
}

// Reward implements the Reward interface
func (a *ActionNearPosition) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	r := make([]float64, traj.Len())
	for t, step := range traj {
		if len(step.Action) != len(step.QPos) {
			return nil, fmt.Errorf("reward: action and joint positions "+
				"differ in width at step %v: %v and %v", t, len(step.Action),
				len(step.QPos))
		}
		for i := range step.Action {
			r[t] += math.Max(math.Abs(step.Action[i]-step.QPos[i])-a.Threshold,
				0)
		}
	}
	return r, nil
}

// JointDeviation penalizes the squared deviation of a subset of joints
// from target positions
type JointDeviation struct {
	term
	Joints  int
	Indices []int
	Targets []float64
}

// NewJointDeviation returns a new JointDeviation term penalizing the
// joints at indices of a robot with the given number of joints
func NewJointDeviation(name string, scale float64, joints int, indices []int,
	targets []float64) (*JointDeviation, error) {
	if len(indices) != len(targets) {
		return nil, fmt.Errorf("newJointDeviation: one target per joint "+
			"required \n\twant(%v) \n\thave(%v)", len(indices), len(targets))
	}
	for _, i := range indices {
		if i < 0 || i >= joints {
			return nil, fmt.Errorf("newJointDeviation: joint index %v out "+
				"of range [0, %v)", i, joints)
		}
	}

	return &JointDeviation{
		term:    term{name: name, scale: scale},
		Joints:  joints,
		Indices: indices,
		Targets: targets,
	}, nil
}

// Reward implements the Reward interface
func (j *JointDeviation) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	qpos, err := jointPositions(traj, j.Joints)
	if err != nil {
		return nil, fmt.Errorf("reward: %v", err)
	}

	r := make([]float64, traj.Len())
	for t, q := range qpos {
		for k, i := range j.Indices {
			d := q[i] - j.Targets[k]
			r[t] += d * d
		}
	}
	return r, nil
}

// JointPositionLimit penalizes joint positions outside soft limits,
// linearly in the excess. Positions within the soft limits are not
// penalized.
type JointPositionLimit struct {
	term
	Limits []r1.Interval
}

// NewJointPositionLimit returns a new JointPositionLimit term
func NewJointPositionLimit(scale float64,
	soft []r1.Interval) *JointPositionLimit {
	return &JointPositionLimit{
		term:   term{name: "joint_position_limit_penalty", scale: scale},
		Limits: soft,
	}
}

// Reward implements the Reward interface
func (j *JointPositionLimit) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	qpos, err := jointPositions(traj, len(j.Limits))
	if err != nil {
		return nil, fmt.Errorf("reward: %v", err)
	}

	r := make([]float64, traj.Len())
	for t, q := range qpos {
		for i, l := range j.Limits {
			r[t] += -math.Min(q[i]-l.Min, 0) + math.Max(q[i]-l.Max, 0)
		}
	}
	return r, nil
}

// ActionInBounds rewards steps whose target positions all lie within
// the joint limits
type ActionInBounds struct {
	term
	Limits []r1.Interval
}

// NewActionInBounds returns a new ActionInBounds term
func NewActionInBounds(scale float64, limits []r1.Interval) *ActionInBounds {
	return &ActionInBounds{
		term:   term{name: "action_in_bounds", scale: scale},
		Limits: limits,
	}
}

// Reward implements the Reward interface
func (a *ActionInBounds) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	r := make([]float64, traj.Len())
	for t, step := range traj {
		if len(step.Action) != len(a.Limits) {
			return nil, fmt.Errorf("reward: invalid action width at step "+
				"%v \n\twant(%v) \n\thave(%v)", t, len(a.Limits),
				len(step.Action))
		}
		r[t] = 1
		for i, l := range a.Limits {
			if step.Action[i] < l.Min || step.Action[i] > l.Max {
				r[t] = 0
				break
			}
		}
	}
	return r, nil
}

// FeetSlip penalizes planar body velocity while the feet are in
// contact: the planar speed of the centre of mass times the sum of the
// contact indicators
type FeetSlip struct {
	term
}

// NewFeetSlip returns a new FeetSlip term
func NewFeetSlip(scale float64) *FeetSlip {
	return &FeetSlip{
		term: term{
			name:  "feet_slip_penalty",
			scale: scale,
			keys: []Key{
				Obs(timestep.FeetContactObs),
				Obs(timestep.CenterOfMassVelObs),
			},
		},
	}
}

// Reward implements the Reward interface
func (f *FeetSlip) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	contact, err := column(traj, f.keys[0], 0)
	if err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}
	vel, err := column(traj, f.keys[1], 3)
	if err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}

	r := make([]float64, traj.Len())
	for t := range r {
		speed := math.Hypot(vel[t][0], vel[t][1])
		r[t] = speed * floats.Sum(contact[t])
	}
	return r, nil
}

// ContactForce penalizes vertical foot contact forces above MaxForce,
// linearly in the excess, summed over both feet
type ContactForce struct {
	term
	MaxForce float64
}

// NewContactForce returns a new ContactForce term
func NewContactForce(scale, maxForce float64) *ContactForce {
	return &ContactForce{
		term: term{
			name:  "contact_force_penalty",
			scale: scale,
			keys: []Key{
				Obs(timestep.LeftFootForceObs),
				Obs(timestep.RightFootForceObs),
			},
		},
		MaxForce: maxForce,
	}
}

// Reward implements the Reward interface
func (c *ContactForce) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	r := make([]float64, traj.Len())
	for _, key := range c.keys {
		force, err := column(traj, key, 3)
		if err != nil {
			return nil, fmt.Errorf("reward: %w", err)
		}
		for t, f := range force {
			r[t] += math.Max(math.Abs(f[2])-c.MaxForce, 0)
		}
	}
	return r, nil
}

// ActuatorForce penalizes actuator forces relative to each actuator's
// force limit: Σ|f_i| / limit_i
type ActuatorForce struct {
	term
	Limits []float64
}

// NewActuatorForce returns a new ActuatorForce term
func NewActuatorForce(scale float64, limits []float64) (*ActuatorForce,
	error) {
	for i, l := range limits {
		if !(l > 0) {
			return nil, fmt.Errorf("newActuatorForce: force limit of joint "+
				"%v must be positive, have(%v)", i, l)
		}
	}
	return &ActuatorForce{
		term: term{
			name:  "actuator_force_penalty",
			scale: scale,
			keys:  []Key{Obs(timestep.ActuatorForceObs)},
		},
		Limits: limits,
	}, nil
}

// Reward implements the Reward interface
func (a *ActuatorForce) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	force, err := column(traj, a.keys[0], len(a.Limits))
	if err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}

	r := make([]float64, traj.Len())
	for t, f := range force {
		for i, l := range a.Limits {
			r[t] += math.Abs(f[i]) / l
		}
	}
	return r, nil
}

// Termination is 1 exactly on the steps where an episode ends without
// succeeding
type Termination struct {
	term
}

// NewTermination returns a new Termination term
func NewTermination(scale float64) *Termination {
	return &Termination{term: term{name: "termination_penalty", scale: scale}}
}

// Reward implements the Reward interface
func (e *Termination) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	r := make([]float64, traj.Len())
	for t, step := range traj {
		r[t] = indicator(step.Failed())
	}
	return r, nil
}
