// Package robot describes the actuated joints of a legged robot: their
// names, the neutral pose the policy acts around, and position limits.
package robot

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Joint is a single actuated joint
type Joint struct {
	Name    string
	Neutral float64

	// Limits is the full position range of the joint. The zero value
	// means the limits are unknown.
	Limits r1.Interval

	// ForceLimit is the maximum force of the joint's actuator, or zero
	// if unknown
	ForceLimit float64
}

// Metadata describes the actuated joints of a robot in the order in
// which the policy outputs actions and the provider reports joint
// positions
type Metadata struct {
	Joints    []Joint
	HasLimits bool
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// KBotJoints returns the 20 actuated joints of the K-Bot humanoid with
// their neutral pose. Joint limits are not included.
func KBotJoints() []Joint {
	return []Joint{
		{Name: "dof_right_shoulder_pitch_03", Neutral: 0},
		{Name: "dof_right_shoulder_roll_03", Neutral: radians(-10)},
		{Name: "dof_right_shoulder_yaw_02", Neutral: 0},
		{Name: "dof_right_elbow_02", Neutral: radians(15)},
		{Name: "dof_right_wrist_00", Neutral: 0},
		{Name: "dof_left_shoulder_pitch_03", Neutral: 0},
		{Name: "dof_left_shoulder_roll_03", Neutral: radians(10)},
		{Name: "dof_left_shoulder_yaw_02", Neutral: 0},
		{Name: "dof_left_elbow_02", Neutral: radians(-15)},
		{Name: "dof_left_wrist_00", Neutral: 0},
		{Name: "dof_right_hip_pitch_04", Neutral: radians(-25)},
		{Name: "dof_right_hip_roll_03", Neutral: radians(-5)},
		{Name: "dof_right_hip_yaw_03", Neutral: 0},
		{Name: "dof_right_knee_04", Neutral: radians(-50)},
		{Name: "dof_right_ankle_02", Neutral: radians(25)},
		{Name: "dof_left_hip_pitch_04", Neutral: radians(25)},
		{Name: "dof_left_hip_roll_03", Neutral: radians(5)},
		{Name: "dof_left_hip_yaw_03", Neutral: 0},
		{Name: "dof_left_knee_04", Neutral: radians(50)},
		{Name: "dof_left_ankle_02", Neutral: radians(-25)},
	}
}

// ArmJoints returns the names of the arm joints of the K-Bot, right
// arm first
func ArmJoints() []string {
	return []string{
		"dof_right_shoulder_pitch_03",
		"dof_right_shoulder_roll_03",
		"dof_right_shoulder_yaw_02",
		"dof_right_elbow_02",
		"dof_right_wrist_00",
		"dof_left_shoulder_pitch_03",
		"dof_left_shoulder_roll_03",
		"dof_left_shoulder_yaw_02",
		"dof_left_elbow_02",
		"dof_left_wrist_00",
	}
}

// HipJoints returns the names of the hip joints of the K-Bot, left leg
// first
func HipJoints() []string {
	return []string{
		"dof_left_hip_pitch_04",
		"dof_left_hip_roll_03",
		"dof_left_hip_yaw_03",
		"dof_right_hip_pitch_04",
		"dof_right_hip_roll_03",
		"dof_right_hip_yaw_03",
	}
}

// NewMetadata returns the metadata of joints. If limits is non-nil, it
// must hold the limits of every joint by name.
func NewMetadata(joints []Joint, limits map[string]r1.Interval) (Metadata,
	error) {
	seen := make(map[string]bool, len(joints))
	out := make([]Joint, len(joints))
	for i, j := range joints {
		if seen[j.Name] {
			return Metadata{}, fmt.Errorf("newMetadata: duplicate joint %q",
				j.Name)
		}
		seen[j.Name] = true
		out[i] = j

		if limits == nil {
			continue
		}
		l, ok := limits[j.Name]
		if !ok {
			return Metadata{}, fmt.Errorf("newMetadata: no limits for "+
				"joint %q", j.Name)
		}
		if l.Min > l.Max {
			return Metadata{}, fmt.Errorf("newMetadata: joint %q has "+
				"lower limit %v above upper limit %v", j.Name, l.Min, l.Max)
		}
		out[i].Limits = l
	}

	return Metadata{Joints: out, HasLimits: limits != nil}, nil
}

// WithForceLimits returns a copy of the metadata with the actuator
// force limit of each joint set from limits, which must hold a positive
// limit for every joint by name
func (m Metadata) WithForceLimits(limits map[string]float64) (Metadata,
	error) {
	out := Metadata{
		Joints:    append([]Joint(nil), m.Joints...),
		HasLimits: m.HasLimits,
	}
	for i, j := range out.Joints {
		l, ok := limits[j.Name]
		if !ok || !(l > 0) {
			return Metadata{}, fmt.Errorf("withForceLimits: no positive "+
				"force limit for joint %q", j.Name)
		}
		out.Joints[i].ForceLimit = l
	}
	return out, nil
}

// ForceLimits returns the actuator force limit of each joint. An error
// is returned if any joint's limit is unknown.
func (m Metadata) ForceLimits() ([]float64, error) {
	limits := make([]float64, len(m.Joints))
	for i, j := range m.Joints {
		if !(j.ForceLimit > 0) {
			return nil, fmt.Errorf("forceLimits: actuator force limit "+
				"unavailable for joint %q", j.Name)
		}
		limits[i] = j.ForceLimit
	}
	return limits, nil
}

// Len returns the number of joints
func (m Metadata) Len() int {
	return len(m.Joints)
}

// Names returns the joint names in order
func (m Metadata) Names() []string {
	names := make([]string, len(m.Joints))
	for i, j := range m.Joints {
		names[i] = j.Name
	}
	return names
}

// Neutral returns the neutral pose in joint order
func (m Metadata) Neutral() []float64 {
	neutral := make([]float64, len(m.Joints))
	for i, j := range m.Joints {
		neutral[i] = j.Neutral
	}
	return neutral
}

// Index returns the positions of the named joints
func (m Metadata) Index(names []string) ([]int, error) {
	pos := make(map[string]int, len(m.Joints))
	for i, j := range m.Joints {
		pos[j.Name] = i
	}

	indices := make([]int, len(names))
	for i, name := range names {
		idx, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("index: unknown joint %q", name)
		}
		indices[i] = idx
	}
	return indices, nil
}

// SoftLimits returns the soft position limits of each joint: the
// fraction of the full range centred on its midpoint. An error is
// returned if the metadata holds no limits.
func (m Metadata) SoftLimits(fraction float64) ([]r1.Interval, error) {
	if !m.HasLimits {
		return nil, fmt.Errorf("softLimits: joint limit metadata " +
			"unavailable")
	}
	if fraction <= 0 || fraction > 1 {
		return nil, fmt.Errorf("softLimits: fraction must be in (0, 1], "+
			"have(%v)", fraction)
	}

	soft := make([]r1.Interval, len(m.Joints))
	for i, j := range m.Joints {
		center := (j.Limits.Min + j.Limits.Max) / 2
		half := 0.5 * (j.Limits.Max - j.Limits.Min) * fraction
		soft[i] = r1.Interval{Min: center - half, Max: center + half}
	}
	return soft, nil
}
