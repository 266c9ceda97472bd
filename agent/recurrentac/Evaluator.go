package recurrentac

import (
	"fmt"
	"sync"

	"github.com/samuelfneumann/gowalk/agent"
	"github.com/samuelfneumann/gowalk/agent/policy"
	"github.com/samuelfneumann/gowalk/network"
	"github.com/samuelfneumann/gowalk/timestep"
	"github.com/samuelfneumann/gowalk/utils/randutils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
)

// scan holds the actor and critic graphs unrolled over a trajectory
type scan struct {
	actor  *actorGraph
	critic *network.Unrolled
}

// Evaluator implements a recurrent actor-critic. Online action
// selection runs the actor graph unrolled over a single step, and
// trajectory re-evaluation runs the actor and critic graphs unrolled
// over the whole trajectory. Both are built by the same functions, so
// they compute the same outputs for the same inputs and carries.
//
// Graphs are cached by trajectory length. Calls are serialized, since
// running a graph sets the values of its input nodes.
type Evaluator struct {
	mu sync.Mutex

	config  Config
	model   *Model
	neutral []float64

	step  *actorGraph
	scans map[int]*scan
}

var _ agent.Differentiable = &Evaluator{}

// NewEvaluator returns a new Evaluator of model. The means of the
// actor's action distribution are offset by the neutral pose.
func NewEvaluator(c Config, model *Model, neutral []float64) (*Evaluator,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newEvaluator: %v", err)
	}
	if len(neutral) != model.Joints() {
		return nil, fmt.Errorf("newEvaluator: invalid neutral pose width "+
			"\n\twant(%v) \n\thave(%v)", model.Joints(), len(neutral))
	}
	if model.Mixtures() != c.Mixtures {
		return nil, fmt.Errorf("newEvaluator: model has %v mixtures, "+
			"config has %v", model.Mixtures(), c.Mixtures)
	}

	e := &Evaluator{
		config:  c,
		model:   model,
		neutral: append([]float64(nil), neutral...),
		scans:   make(map[int]*scan),
	}

	var err error
	if e.step, err = newActorGraph(c, model, e.neutral, 1); err != nil {
		return nil, fmt.Errorf("newEvaluator: %v", err)
	}
	if err := e.step.net.SetDones([]bool{false}); err != nil {
		return nil, fmt.Errorf("newEvaluator: %v", err)
	}
	return e, nil
}

// Model returns the weights of the Evaluator
func (e *Evaluator) Model() *Model {
	return e.model
}

// InitialCarry returns the all-zero carry of an episode start
func (e *Evaluator) InitialCarry() agent.ModelCarry {
	return agent.NewModelCarry(e.config.Depth, e.config.Hidden)
}

func (e *Evaluator) checkCarry(carry agent.ModelCarry) error {
	if err := e.checkShape("actor", carry.Actor); err != nil {
		return fmt.Errorf("checkCarry: %v", err)
	}
	if err := e.checkShape("critic", carry.Critic); err != nil {
		return fmt.Errorf("checkCarry: %v", err)
	}
	return nil
}

// checkShape checks that c is a depth × hidden carry
func (e *Evaluator) checkShape(name string, c *mat.Dense) error {
	if c == nil {
		return fmt.Errorf("checkShape: no %s carry", name)
	}
	if r, cols := c.Dims(); r != e.config.Depth || cols != e.config.Hidden {
		return fmt.Errorf("checkShape: invalid %s carry shape "+
			"\n\twant(%v, %v) \n\thave(%v, %v)", name, e.config.Depth,
			e.config.Hidden, r, cols)
	}
	return nil
}

// Distribution returns the action distribution of the actor given the
// observations and commands of a single timestep, together with the
// next actor carry
func (e *Evaluator) Distribution(carry *mat.Dense, obs timestep.Observations,
	cmds timestep.Commands) (*policy.MixtureOfGaussians, *mat.Dense, error) {
	if err := e.checkShape("actor", carry); err != nil {
		return nil, nil, fmt.Errorf("distribution: %v", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.distribution(carry, obs, cmds)
}

func (e *Evaluator) distribution(carry *mat.Dense, obs timestep.Observations,
	cmds timestep.Commands) (*policy.MixtureOfGaussians, *mat.Dense, error) {
	x, err := e.config.ActorInputs(e.model.Joints(), obs, cmds)
	if err != nil {
		return nil, nil, fmt.Errorf("distribution: %w", err)
	}

	net := e.step.net
	if err := net.SetInputs([][]float64{x}); err != nil {
		return nil, nil, fmt.Errorf("distribution: %v", err)
	}
	if err := net.SetCarry(agent.Rows(carry)); err != nil {
		return nil, nil, fmt.Errorf("distribution: %v", err)
	}
	if err := net.Run(); err != nil {
		return nil, nil, fmt.Errorf("distribution: %v", err)
	}

	dist, err := e.step.distribution(0)
	if err != nil {
		return nil, nil, fmt.Errorf("distribution: %v", err)
	}
	rows, err := net.FinalCarry()
	if err != nil {
		return nil, nil, fmt.Errorf("distribution: %v", err)
	}
	next, err := agent.FromRows(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("distribution: %v", err)
	}
	return dist, next, nil
}

// SampleAction returns the action to take given the observations and
// commands of the current timestep. If argmax is true, the mode of the
// action distribution is returned and key is unused. The critic is not
// run, and its carry is passed through unchanged.
func (e *Evaluator) SampleAction(carry agent.ModelCarry,
	obs timestep.Observations, cmds timestep.Commands, key randutils.Key,
	argmax bool) (agent.Action, error) {
	if err := e.checkCarry(carry); err != nil {
		return agent.Action{}, fmt.Errorf("sampleAction: %v", err)
	}

	e.mu.Lock()
	dist, next, err := e.distribution(carry.Actor, obs, cmds)
	e.mu.Unlock()
	if err != nil {
		return agent.Action{}, fmt.Errorf("sampleAction: %w", err)
	}

	var action []float64
	if argmax {
		action = dist.Mode()
	} else {
		action = dist.Sample(key)
	}

	return agent.Action{
		Action: action,
		Carry: agent.ModelCarry{
			Actor:  next,
			Critic: mat.DenseCopyOf(carry.Critic),
		},
		Distribution: dist,
	}, nil
}

// scan returns the graphs unrolled over the given number of steps,
// building them on first use
func (e *Evaluator) scan(steps int) (*scan, error) {
	if s, ok := e.scans[steps]; ok {
		return s, nil
	}

	actor, err := newActorGraph(e.config, e.model, e.neutral, steps)
	if err != nil {
		return nil, fmt.Errorf("scan: %v", err)
	}
	critic, err := newCriticGraph(e.model, steps)
	if err != nil {
		return nil, fmt.Errorf("scan: %v", err)
	}

	s := &scan{actor: actor, critic: critic}
	e.scans[steps] = s
	return s, nil
}

// PPOVariables re-evaluates a recorded trajectory, returning the log
// probability of each recorded action and the value of each timestep.
// The carries fed into the timestep after a done timestep are the
// initial carries, whatever the networks computed. The returned carry
// is the one to continue from with the next chunk of the same rollout.
//
// The evaluation is deterministic and key is unused.
func (e *Evaluator) PPOVariables(traj timestep.Trajectory,
	carry agent.ModelCarry, _ randutils.Key) ([]agent.PPOVariables,
	agent.ModelCarry, error) {
	if err := e.checkCarry(carry); err != nil {
		return nil, agent.ModelCarry{}, fmt.Errorf("ppoVariables: %v", err)
	}
	if traj.Len() == 0 {
		return nil, carry.Clone(), nil
	}

	joints := e.model.Joints()
	actorIn := make([][]float64, traj.Len())
	criticIn := make([][]float64, traj.Len())
	for t, step := range traj {
		var err error
		actorIn[t], err = e.config.ActorInputs(joints, step.Observations,
			step.Commands)
		if err != nil {
			return nil, agent.ModelCarry{}, fmt.Errorf("ppoVariables: step "+
				"%d: %w", t, err)
		}
		criticIn[t], err = e.config.CriticInputs(joints, step.Observations,
			step.Commands)
		if err != nil {
			return nil, agent.ModelCarry{}, fmt.Errorf("ppoVariables: step "+
				"%d: %w", t, err)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.scan(traj.Len())
	if err != nil {
		return nil, agent.ModelCarry{}, fmt.Errorf("ppoVariables: %v", err)
	}
	if err := s.actor.setActions(traj.Actions()); err != nil {
		return nil, agent.ModelCarry{}, fmt.Errorf("ppoVariables: %v", err)
	}

	nets := []struct {
		net    *network.Unrolled
		inputs [][]float64
		carry  *mat.Dense
	}{
		{s.actor.net, actorIn, carry.Actor},
		{s.critic, criticIn, carry.Critic},
	}
	for _, n := range nets {
		if err := n.net.SetInputs(n.inputs); err != nil {
			return nil, agent.ModelCarry{}, fmt.Errorf("ppoVariables: %v", err)
		}
		if err := n.net.SetCarry(agent.Rows(n.carry)); err != nil {
			return nil, agent.ModelCarry{}, fmt.Errorf("ppoVariables: %v", err)
		}
		if err := n.net.SetDones(traj.Dones()); err != nil {
			return nil, agent.ModelCarry{}, fmt.Errorf("ppoVariables: %v", err)
		}
		if err := n.net.Run(); err != nil {
			return nil, agent.ModelCarry{}, fmt.Errorf("ppoVariables: %v", err)
		}
	}

	vars := make([]agent.PPOVariables, traj.Len())
	for t := range vars {
		logProbs, err := s.actor.net.Value(stepKey(logProbKey, t))
		if err != nil {
			return nil, agent.ModelCarry{}, fmt.Errorf("ppoVariables: %v", err)
		}
		value, err := s.critic.Value(network.HeadKey(valueHead, t))
		if err != nil {
			return nil, agent.ModelCarry{}, fmt.Errorf("ppoVariables: %v", err)
		}
		vars[t] = agent.PPOVariables{
			LogProb:       floats.Sum(logProbs),
			JointLogProbs: logProbs,
			Value:         value[0],
		}
	}

	next, err := finalCarry(s.actor.net, s.critic)
	if err != nil {
		return nil, agent.ModelCarry{}, fmt.Errorf("ppoVariables: %v", err)
	}
	return vars, next, nil
}

func finalCarry(actor, critic *network.Unrolled) (agent.ModelCarry, error) {
	var carry agent.ModelCarry
	for _, c := range []struct {
		net *network.Unrolled
		dst **mat.Dense
	}{{actor, &carry.Actor}, {critic, &carry.Critic}} {
		rows, err := c.net.FinalCarry()
		if err != nil {
			return agent.ModelCarry{}, fmt.Errorf("finalCarry: %v", err)
		}
		if *c.dst, err = agent.FromRows(rows); err != nil {
			return agent.ModelCarry{}, fmt.Errorf("finalCarry: %v", err)
		}
	}
	return carry, nil
}

// LogProbNode returns the node computing the log probability of all
// actions of a trajectory of the given length, summed over joints and
// timesteps. The node belongs to the actor graph PPOVariables runs for
// trajectories of that length; a trainer should add its loss to the
// graph before the first call to PPOVariables with that length.
func (e *Evaluator) LogProbNode(steps int) (*G.Node, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.scan(steps)
	if err != nil {
		return nil, fmt.Errorf("logProbNode: %v", err)
	}
	return s.actor.logProb, nil
}

// ValueNodes returns the nodes computing the value of each timestep of
// a trajectory of the given length. The nodes belong to the critic
// graph PPOVariables runs for trajectories of that length.
func (e *Evaluator) ValueNodes(steps int) (G.Nodes, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.scan(steps)
	if err != nil {
		return nil, fmt.Errorf("valueNodes: %v", err)
	}
	nodes := make(G.Nodes, steps)
	for t := range nodes {
		if nodes[t], err = s.critic.Head(valueHead, t); err != nil {
			return nil, fmt.Errorf("valueNodes: %v", err)
		}
	}
	return nodes, nil
}

// Learnables returns the weight nodes of the actor graph followed by
// those of the critic graph for trajectories of the given length
func (e *Evaluator) Learnables(steps int) (G.Nodes, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, err := e.scan(steps)
	if err != nil {
		return nil, fmt.Errorf("learnables: %v", err)
	}
	return append(s.actor.net.Learnables(), s.critic.Learnables()...), nil
}
