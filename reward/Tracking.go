package reward

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/gowalk/phase"
	"github.com/samuelfneumann/gowalk/timestep"
	"gonum.org/v1/gonum/floats"
)

// LinearVelocityTracking rewards matching the commanded planar velocity:
//
//	exp(-Σ(cmd - v_xy)² / ErrorScale)
//
// The reward is zero while the linear velocity command norm is at or
// below the stand-still threshold.
type LinearVelocityTracking struct {
	term
	ErrorScale float64
	Threshold  float64
}

// NewLinearVelocityTracking returns a new LinearVelocityTracking term
func NewLinearVelocityTracking(scale, errorScale,
	threshold float64) *LinearVelocityTracking {
	return &LinearVelocityTracking{
		term: term{
			name:  "linear_velocity_tracking",
			scale: scale,
			keys: []Key{
				Obs(timestep.BaseSiteLinVelObs),
				Cmd(timestep.LinearVelocityCmd),
			},
		},
		ErrorScale: errorScale,
		Threshold:  threshold,
	}
}

// Reward implements the Reward interface
func (l *LinearVelocityTracking) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	vel, err := column(traj, l.keys[0], 3)
	if err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}
	cmd, err := column(traj, l.keys[1], 2)
	if err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}

	r := make([]float64, traj.Len())
	for t := range r {
		dx, dy := cmd[t][0]-vel[t][0], cmd[t][1]-vel[t][1]
		gate := indicator(floats.Norm(cmd[t], 2) > l.Threshold)
		r[t] = math.Exp(-(dx*dx+dy*dy)/l.ErrorScale) * gate
	}
	return r, nil
}

// AngularVelocityTracking rewards matching the commanded yaw rate:
//
//	exp(-(cmd - ω_z)² / ErrorScale)
//
// The reward is zero while the angular velocity command norm is at or
// below the stand-still threshold.
type AngularVelocityTracking struct {
	term
	ErrorScale float64
	Threshold  float64
}

// NewAngularVelocityTracking returns a new AngularVelocityTracking term
func NewAngularVelocityTracking(scale, errorScale,
	threshold float64) *AngularVelocityTracking {
	return &AngularVelocityTracking{
		term: term{
			name:  "angular_velocity_tracking",
			scale: scale,
			keys: []Key{
				Obs(timestep.BaseSiteAngVelObs),
				Cmd(timestep.AngularVelocityCmd),
			},
		},
		ErrorScale: errorScale,
		Threshold:  threshold,
	}
}

// Reward implements the Reward interface
func (a *AngularVelocityTracking) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	vel, err := column(traj, a.keys[0], 3)
	if err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}
	cmd, err := column(traj, a.keys[1], 1)
	if err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}

	r := make([]float64, traj.Len())
	for t := range r {
		e := cmd[t][0] - vel[t][2]
		gate := indicator(math.Abs(cmd[t][0]) > a.Threshold)
		r[t] = math.Exp(-e*e/a.ErrorScale) * gate
	}
	return r, nil
}

// commandNorms returns the norm of the concatenated velocity commands
// at each timestep
func commandNorms(traj timestep.Trajectory) ([]float64, error) {
	lin, err := column(traj, Cmd(timestep.LinearVelocityCmd), 2)
	if err != nil {
		return nil, err
	}
	ang, err := column(traj, Cmd(timestep.AngularVelocityCmd), 1)
	if err != nil {
		return nil, err
	}

	norms := make([]float64, traj.Len())
	for t := range norms {
		norms[t] = phase.CommandNorm(lin[t], ang[t])
	}
	return norms, nil
}

// FeetPhase rewards foot heights which follow the gait clock:
//
//	exp(-Σ(z_foot - z_desired)² / Sensitivity)
//
// The desired heights follow from the phase of each foot at the
// recorded time, quantised to whole control steps. The reward is zero
// while the command norm is at or below the stand-still threshold.
type FeetPhase struct {
	term
	Clock         phase.Clock
	MaxFootHeight float64
	Sensitivity   float64
}

// NewFeetPhase returns a new FeetPhase term
func NewFeetPhase(scale float64, clock phase.Clock, maxFootHeight,
	sensitivity float64) *FeetPhase {
	return &FeetPhase{
		term: term{
			name:  "feet_phase",
			scale: scale,
			keys: []Key{
				Obs(timestep.FeetPositionObs),
				Cmd(timestep.GaitFrequencyCmd),
				Cmd(timestep.LinearVelocityCmd),
				Cmd(timestep.AngularVelocityCmd),
			},
		},
		Clock:         clock,
		MaxFootHeight: maxFootHeight,
		Sensitivity:   sensitivity,
	}
}

// Reward implements the Reward interface
func (f *FeetPhase) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	feet, err := column(traj, f.keys[0], 6)
	if err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}
	freq, err := column(traj, f.keys[1], 1)
	if err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}
	norms, err := commandNorms(traj)
	if err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}

	times := traj.Times()
	r := make([]float64, traj.Len())
	for t := range r {
		left, right := f.Clock.StepPhase(times[t], freq[t][0], false)
		el := feet[t][2] - phase.DesiredFootHeight(left, f.MaxFootHeight)
		er := feet[t][5] - phase.DesiredFootHeight(right, f.MaxFootHeight)

		gate := indicator(norms[t] > f.Clock.StandStillThreshold)
		r[t] = math.Exp(-(el*el+er*er)/f.Sensitivity) * gate
	}
	return r, nil
}

// StandStill rewards holding the neutral pose while commanded to stand
// still:
//
//	exp(-Σ(q - q_neutral)² / Sensitivity)
//
// The reward is zero while the command norm is at or above the
// stand-still threshold.
type StandStill struct {
	term
	Neutral     []float64
	Sensitivity float64
	Threshold   float64
}

// NewStandStill returns a new StandStill term
func NewStandStill(scale float64, neutral []float64, sensitivity,
	threshold float64) *StandStill {
	return &StandStill{
		term: term{
			name:  "stand_still",
			scale: scale,
			keys: []Key{
				Cmd(timestep.LinearVelocityCmd),
				Cmd(timestep.AngularVelocityCmd),
			},
		},
		Neutral:     append([]float64(nil), neutral...),
		Sensitivity: sensitivity,
		Threshold:   threshold,
	}
}

// Reward implements the Reward interface
func (s *StandStill) Reward(traj timestep.Trajectory,
	_ float64) ([]float64, error) {
	norms, err := commandNorms(traj)
	if err != nil {
		return nil, fmt.Errorf("reward: %w", err)
	}
	qpos, err := jointPositions(traj, len(s.Neutral))
	if err != nil {
		return nil, fmt.Errorf("reward: %v", err)
	}

	r := make([]float64, traj.Len())
	for t := range r {
		err := floats.Distance(qpos[t], s.Neutral, 2)
		gate := indicator(norms[t] < s.Threshold)
		r[t] = math.Exp(-err*err/s.Sensitivity) * gate
	}
	return r, nil
}

// jointPositions returns the joint positions of each timestep, checking
// that each holds the given number of joints
func jointPositions(traj timestep.Trajectory, joints int) ([][]float64,
	error) {
	qpos := traj.QPos()
	for t, q := range qpos {
		if len(q) != joints {
			return nil, fmt.Errorf("jointPositions: invalid number of "+
				"joints at step %v \n\twant(%v) \n\thave(%v)", t, joints,
				len(q))
		}
	}
	return qpos, nil
}
