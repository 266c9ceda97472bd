package recurrentac

import (
	"fmt"

	"github.com/samuelfneumann/gowalk/agent/policy"
	"github.com/samuelfneumann/gowalk/network"
	"github.com/samuelfneumann/gowalk/utils/op"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

const (
	logProbKey = "log_prob"
)

func stepKey(name string, t int) string {
	return fmt.Sprintf("%s/t%d", name, t)
}

// actorGraph is the actor network unrolled over a number of steps and
// extended with the mixture parameters of each step and the log
// probability of externally supplied actions. The same graph serves
// online action selection (one step) and trajectory re-evaluation.
type actorGraph struct {
	net      *network.Unrolled
	joints   int
	mixtures int

	// actions holds one joints × mixtures node per step, with the
	// action of each joint repeated across the columns
	actions []*G.Node
	logProb *G.Node
}

func newActorGraph(c Config, m *Model, neutral []float64,
	steps int) (*actorGraph, error) {
	net, err := network.NewUnrolled(m.Actor, steps)
	if err != nil {
		return nil, fmt.Errorf("newActorGraph: %v", err)
	}
	g := net.Graph()
	joints, mixtures := m.Joints(), m.Mixtures()

	bias := tensor.New(
		tensor.WithShape(joints, mixtures),
		tensor.WithBacking(tile(neutral, mixtures)),
	)
	neutralNode := G.NewMatrix(g, tensor.Float64,
		G.WithShape(joints, mixtures), G.WithName("neutral"),
		G.WithValue(bias))

	a := &actorGraph{net: net, joints: joints, mixtures: mixtures}
	for t := 0; t < steps; t++ {
		raw, err := net.Head(meanHead, t)
		if err != nil {
			return nil, fmt.Errorf("newActorGraph: %v", err)
		}
		mean, err := G.Add(raw, neutralNode)
		if err != nil {
			return nil, fmt.Errorf("newActorGraph: mean: %v", err)
		}

		if raw, err = net.Head(stdHead, t); err != nil {
			return nil, fmt.Errorf("newActorGraph: %v", err)
		}
		std, err := op.SpreadTransform(raw, c.MinStd, c.MaxStd, c.VarScale)
		if err != nil {
			return nil, fmt.Errorf("newActorGraph: std: %v", err)
		}

		logits, err := net.Head(logitsHead, t)
		if err != nil {
			return nil, fmt.Errorf("newActorGraph: %v", err)
		}

		action := G.NewMatrix(g, tensor.Float64,
			G.WithShape(joints, mixtures),
			G.WithName(fmt.Sprintf("action_t%d", t)),
			G.WithInit(G.Zeroes()))
		perJoint, total, err := op.MixtureLogPdf(mean, std, logits, action)
		if err != nil {
			return nil, fmt.Errorf("newActorGraph: %v", err)
		}

		if a.logProb == nil {
			a.logProb = total
		} else if a.logProb, err = G.Add(a.logProb, total); err != nil {
			return nil, fmt.Errorf("newActorGraph: %v", err)
		}
		a.actions = append(a.actions, action)

		net.Watch(stepKey(meanHead, t), mean)
		net.Watch(stepKey(stdHead, t), std)
		net.Watch(stepKey(logitsHead, t), logits)
		net.Watch(stepKey(logProbKey, t), perJoint)
	}

	if err := net.SetResetCarry(zeroRows(net.Depth(), net.Hidden())); err != nil {
		return nil, fmt.Errorf("newActorGraph: %v", err)
	}
	return a, nil
}

// setActions sets the action of each step
func (a *actorGraph) setActions(actions [][]float64) error {
	if len(actions) != len(a.actions) {
		return fmt.Errorf("setActions: invalid number of steps \n\twant(%v) "+
			"\n\thave(%v)", len(a.actions), len(actions))
	}

	for t, action := range actions {
		if len(action) != a.joints {
			return fmt.Errorf("setActions: invalid action width at step %v "+
				"\n\twant(%v) \n\thave(%v)", t, a.joints, len(action))
		}
		tiled := tensor.New(
			tensor.WithShape(a.joints, a.mixtures),
			tensor.WithBacking(tile(action, a.mixtures)),
		)
		if err := G.Let(a.actions[t], tiled); err != nil {
			return fmt.Errorf("setActions: %v", err)
		}
	}
	return nil
}

// distribution returns the action distribution of step t recorded by
// the last run of the graph
func (a *actorGraph) distribution(t int) (*policy.MixtureOfGaussians,
	error) {
	params := make([]*mat.Dense, 3)
	for i, name := range []string{meanHead, stdHead, logitsHead} {
		v, err := a.net.Value(stepKey(name, t))
		if err != nil {
			return nil, fmt.Errorf("distribution: %v", err)
		}
		params[i] = mat.NewDense(a.joints, a.mixtures, v)
	}
	return policy.NewMixtureOfGaussians(params[0], params[1], params[2])
}

// newCriticGraph returns the critic network unrolled over a number of
// steps
func newCriticGraph(m *Model, steps int) (*network.Unrolled, error) {
	net, err := network.NewUnrolled(m.Critic, steps)
	if err != nil {
		return nil, fmt.Errorf("newCriticGraph: %v", err)
	}
	if err := net.SetResetCarry(zeroRows(net.Depth(), net.Hidden())); err != nil {
		return nil, fmt.Errorf("newCriticGraph: %v", err)
	}
	return net, nil
}

// tile repeats each element of v n times
func tile(v []float64, n int) []float64 {
	out := make([]float64, 0, len(v)*n)
	for _, e := range v {
		for i := 0; i < n; i++ {
			out = append(out, e)
		}
	}
	return out
}

func zeroRows(rows, cols int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		out[i] = make([]float64, cols)
	}
	return out
}
