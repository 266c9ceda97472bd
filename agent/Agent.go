// Package agent defines the interfaces between a recurrent walking
// policy and the driver which collects rollouts and optimizes it.
package agent

import (
	"fmt"

	"github.com/samuelfneumann/gowalk/agent/policy"
	"github.com/samuelfneumann/gowalk/timestep"
	"github.com/samuelfneumann/gowalk/utils/randutils"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// ModelCarry is the recurrent memory of an actor and a critic. Each
// carry is depth × hidden, where row i is the hidden state of the i-th
// stacked recurrent cell. Carries are values: they are replaced on each
// step, never mutated in place.
type ModelCarry struct {
	Actor  *mat.Dense
	Critic *mat.Dense
}

// NewModelCarry returns the all-zero carry of an episode start
func NewModelCarry(depth, hidden int) ModelCarry {
	return ModelCarry{
		Actor:  mat.NewDense(depth, hidden, nil),
		Critic: mat.NewDense(depth, hidden, nil),
	}
}

// Clone returns a deep copy of the carry
func (m ModelCarry) Clone() ModelCarry {
	return ModelCarry{
		Actor:  mat.DenseCopyOf(m.Actor),
		Critic: mat.DenseCopyOf(m.Critic),
	}
}

// IsZero returns whether both carries are all zero
func (m ModelCarry) IsZero() bool {
	for _, c := range []*mat.Dense{m.Actor, m.Critic} {
		if mat.Norm(c, 1) != 0 {
			return false
		}
	}
	return true
}

// Rows returns the carry as a slice of rows
func Rows(c *mat.Dense) [][]float64 {
	r, _ := c.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = mat.Row(nil, i, c)
	}
	return rows
}

// FromRows returns a carry holding a copy of rows, which must all have
// the same length
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fromRows: no rows")
	}
	c := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		if len(row) != len(rows[0]) {
			return nil, fmt.Errorf("fromRows: row %v has invalid length "+
				"\n\twant(%v) \n\thave(%v)", i, len(rows[0]), len(row))
		}
		c.SetRow(i, row)
	}
	return c, nil
}

// Action is the result of selecting an action online
type Action struct {
	Action       []float64
	Carry        ModelCarry
	Distribution *policy.MixtureOfGaussians
}

// PPOVariables holds the quantities a policy-gradient trainer needs for
// a single recorded timestep: the log probability of the recorded
// action under the current policy and the critic's value estimate.
type PPOVariables struct {
	LogProb float64

	// JointLogProbs holds the log probability of each joint's action,
	// which sum to LogProb
	JointLogProbs []float64
	Value         float64
}

// RecurrentPolicy selects actions online, one timestep at a time,
// threading the recurrent carry explicitly through each call
type RecurrentPolicy interface {
	// InitialCarry returns the carry of an episode start
	InitialCarry() ModelCarry

	// SampleAction returns the action to take given the observations
	// and commands of the current timestep. The mode of the action
	// distribution is returned if argmax is true, otherwise an action
	// is sampled using key. The critic carry is passed through.
	SampleAction(carry ModelCarry, obs timestep.Observations,
		cmds timestep.Commands, key randutils.Key, argmax bool) (Action, error)
}

// PPOEvaluator is a RecurrentPolicy which can also re-evaluate a stored
// trajectory, resetting its carry after each timestep that ends an
// episode
type PPOEvaluator interface {
	RecurrentPolicy

	// PPOVariables returns the PPO variables of each timestep of traj,
	// starting from carry, together with the carry to continue from
	PPOVariables(traj timestep.Trajectory, carry ModelCarry,
		key randutils.Key) ([]PPOVariables, ModelCarry, error)
}

// Differentiable is a PPOEvaluator which exposes the nodes of its
// trajectory graph to a gradient-based trainer
type Differentiable interface {
	PPOEvaluator

	// LogProbNode returns the node computing the summed log probability
	// of a trajectory of the given length
	LogProbNode(steps int) (*G.Node, error)

	// ValueNodes returns the nodes computing the value of each timestep
	// of a trajectory of the given length
	ValueNodes(steps int) (G.Nodes, error)

	// Learnables returns the learnable nodes of the trajectory graph of
	// the given length
	Learnables(steps int) (G.Nodes, error)
}
