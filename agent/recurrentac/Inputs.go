package recurrentac

import (
	"fmt"

	"github.com/samuelfneumann/gowalk/phase"
	"github.com/samuelfneumann/gowalk/timestep"
)

// field is a single named vector concatenated into a network input
type field struct {
	source timestep.Source
	key    string
	width  int

	// divisor divides each element of the field; zero means no scaling
	divisor float64
}

// actorLayout returns the fields of the actor's input in order
func actorLayout(joints int) []field {
	return []field{
		{source: timestep.Observation, key: timestep.PhaseObs,
			width: phase.ObservationWidth},
		{source: timestep.Observation, key: timestep.JointPositionObs,
			width: joints},
		{source: timestep.Observation, key: timestep.JointVelocityObs,
			width: joints},
		{source: timestep.Observation, key: timestep.ProjectedGravityObs,
			width: 3},
		{source: timestep.Observation, key: timestep.IMUAccObs, width: 3},
		{source: timestep.Observation, key: timestep.IMUGyroObs, width: 3},
		{source: timestep.Command, key: timestep.LinearVelocityCmd, width: 2},
		{source: timestep.Command, key: timestep.AngularVelocityCmd, width: 1},
		{source: timestep.Command, key: timestep.GaitFrequencyCmd, width: 1},
	}
}

// criticLayout returns the fields of the critic's input in order. The
// critic sees the actor's fields followed by privileged state, with
// joint velocities and actuator forces divided by the given scales.
func criticLayout(joints int, jointVelScale, forceScale float64) []field {
	layout := actorLayout(joints)
	layout[2].divisor = jointVelScale

	return append(layout,
		field{source: timestep.Observation, key: timestep.FeetContactObs,
			width: 4},
		field{source: timestep.Observation, key: timestep.FeetPositionObs,
			width: 6},
		field{source: timestep.Observation, key: timestep.BasePositionObs,
			width: 3},
		field{source: timestep.Observation, key: timestep.BaseOrientationObs,
			width: 4},
		field{source: timestep.Observation, key: timestep.BaseLinearVelObs,
			width: 3},
		field{source: timestep.Observation, key: timestep.BaseAngularVelObs,
			width: 3},
		field{source: timestep.Observation, key: timestep.ActuatorForceObs,
			width: joints, divisor: forceScale},
	)
}

// width returns the total width of a layout
func width(layout []field) int {
	w := 0
	for _, f := range layout {
		w += f.width
	}
	return w
}

// concat concatenates the fields of layout looked up in obs and cmds
func concat(layout []field, obs timestep.Observations,
	cmds timestep.Commands) ([]float64, error) {
	x := make([]float64, 0, width(layout))
	for _, f := range layout {
		var v []float64
		var err error
		if f.source == timestep.Observation {
			v, err = obs.Get(f.key)
		} else {
			v, err = cmds.Get(f.key)
		}
		if err != nil {
			return nil, fmt.Errorf("concat: %w", err)
		}

		if len(v) != f.width {
			return nil, fmt.Errorf("concat: %v %q has invalid width "+
				"\n\twant(%v) \n\thave(%v)", f.source, f.key, f.width, len(v))
		}

		if f.divisor == 0 {
			x = append(x, v...)
			continue
		}
		for _, e := range v {
			x = append(x, e/f.divisor)
		}
	}
	return x, nil
}

// ActorInputs returns the input vector of the actor. The actor never
// receives privileged state.
func (c Config) ActorInputs(joints int, obs timestep.Observations,
	cmds timestep.Commands) ([]float64, error) {
	x, err := concat(actorLayout(joints), obs, cmds)
	if err != nil {
		return nil, fmt.Errorf("actorInputs: %w", err)
	}
	return x, nil
}

// CriticInputs returns the input vector of the critic
func (c Config) CriticInputs(joints int, obs timestep.Observations,
	cmds timestep.Commands) ([]float64, error) {
	layout := criticLayout(joints, c.JointVelocityScale,
		c.ActuatorForceScale)
	x, err := concat(layout, obs, cmds)
	if err != nil {
		return nil, fmt.Errorf("criticInputs: %w", err)
	}
	return x, nil
}

// RequiredObservations returns the names of all observations the actor
// and critic read
func RequiredObservations() []string {
	var names []string
	for _, f := range criticLayout(0, 1, 1) {
		if f.source == timestep.Observation {
			names = append(names, f.key)
		}
	}
	return names
}
