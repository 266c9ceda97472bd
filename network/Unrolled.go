package network

import (
	"fmt"

	"github.com/samuelfneumann/gowalk/utils/op"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Unrolled implements a recurrent network unrolled over a fixed number
// of steps in a single computational graph. Each step has its own
// input and done-flag nodes. After each step, the carry passed on to
// the next step is selected element-wise between the freshly computed
// carry and the reset carry based on the step's done flag, so that an
// episode boundary within the unrolled window resets the memory
// without any branching.
//
// The same graph builder serves both online stepping (one step) and
// re-evaluation of a stored trajectory (many steps), so both always
// compute the same function.
//
// Extra nodes may be added to the graph with Graph() and registered
// with Watch() up until the first call to Run().
type Unrolled struct {
	params *Params
	g      *G.ExprGraph
	b      *binding
	steps  int
	vm     G.VM

	inputs []*G.Node
	carry  []*G.Node
	reset  []*G.Node
	dones  []*G.Node

	heads   []map[string]*G.Node
	carries [][]*G.Node

	watched map[string]*G.Node
	reads   map[string]*G.Value
	values  map[string][]float64
}

// NewUnrolled builds a new Unrolled network of params over the given
// number of steps
func NewUnrolled(params *Params, steps int) (*Unrolled, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("newUnrolled: steps must be positive, "+
			"have(%v)", steps)
	}

	g := G.NewGraph()
	u := &Unrolled{
		params:  params,
		g:       g,
		b:       params.bind(g),
		steps:   steps,
		watched: make(map[string]*G.Node),
		reads:   make(map[string]*G.Value),
		values:  make(map[string][]float64),
	}

	depth, hidden := params.Depth(), params.Hidden()
	for l := 0; l < depth; l++ {
		u.carry = append(u.carry, G.NewMatrix(g, tensor.Float64,
			G.WithShape(1, hidden), G.WithName(fmt.Sprintf("carry_l%d", l)),
			G.WithInit(G.Zeroes())))
		u.reset = append(u.reset, G.NewMatrix(g, tensor.Float64,
			G.WithShape(1, hidden), G.WithName(fmt.Sprintf("reset_l%d", l)),
			G.WithInit(G.Zeroes())))
	}

	// Layers
	proj, err := newfcLayer(u.b, inputProj, nil)
	if err != nil {
		return nil, fmt.Errorf("newUnrolled: %v", err)
	}
	cells := make([]*gruCell, depth)
	for l := range cells {
		if cells[l], err = newGRUCell(u.b, cellName(l)); err != nil {
			return nil, fmt.Errorf("newUnrolled: %v", err)
		}
	}
	heads := make([]*fcLayer, len(params.Heads()))
	for i, h := range params.Heads() {
		if heads[i], err = newfcLayer(u.b, headPrefix+h.Name, nil); err != nil {
			return nil, fmt.Errorf("newUnrolled: %v", err)
		}
	}

	// Unroll
	carry := u.carry
	for t := 0; t < steps; t++ {
		x := G.NewMatrix(g, tensor.Float64, G.WithShape(1, params.Inputs()),
			G.WithName(fmt.Sprintf("input_t%d", t)), G.WithInit(G.Zeroes()))
		done := G.NewScalar(g, G.Float64, G.WithValue(0.0),
			G.WithName(fmt.Sprintf("done_t%d", t)))
		u.inputs = append(u.inputs, x)
		u.dones = append(u.dones, done)

		h, err := proj.fwd(x)
		if err != nil {
			return nil, fmt.Errorf("newUnrolled: step %d: input "+
				"projection: %v", t, err)
		}

		next := make([]*G.Node, depth)
		selected := make([]*G.Node, depth)
		for l, cell := range cells {
			if h, err = cell.fwd(h, carry[l]); err != nil {
				return nil, fmt.Errorf("newUnrolled: step %d: layer %d: %v",
					t, l, err)
			}
			next[l] = h

			selected[l], err = op.Where(done, u.reset[l], next[l])
			if err != nil {
				return nil, fmt.Errorf("newUnrolled: step %d: layer %d: %v",
					t, l, err)
			}
			u.Watch(carryKey(t, l), selected[l])
		}

		outs := make(map[string]*G.Node, len(heads))
		for i, head := range params.Heads() {
			out, err := heads[i].fwd(h)
			if err != nil {
				return nil, fmt.Errorf("newUnrolled: step %d: head %q: %v",
					t, head.Name, err)
			}
			out, err = G.Reshape(out, tensor.Shape{head.Rows, head.Cols})
			if err != nil {
				return nil, fmt.Errorf("newUnrolled: step %d: head %q: %v",
					t, head.Name, err)
			}
			outs[head.Name] = out
			u.Watch(HeadKey(head.Name, t), out)
		}

		u.heads = append(u.heads, outs)
		u.carries = append(u.carries, selected)
		carry = selected
	}

	return u, nil
}

func carryKey(t, l int) string {
	return fmt.Sprintf("carry/t%d/l%d", t, l)
}

// HeadKey returns the name under which the value of a head at step t
// is recorded
func HeadKey(name string, t int) string {
	return fmt.Sprintf("head/%s/t%d", name, t)
}

// Graph returns the computational graph of the network
func (u *Unrolled) Graph() *G.ExprGraph {
	return u.g
}

// Params returns the parameters the network was built from
func (u *Unrolled) Params() *Params {
	return u.params
}

// Steps returns the number of unrolled steps
func (u *Unrolled) Steps() int {
	return u.steps
}

// Depth returns the number of stacked recurrent cells
func (u *Unrolled) Depth() int {
	return u.params.Depth()
}

// Hidden returns the hidden size of the recurrent cells
func (u *Unrolled) Hidden() int {
	return u.params.Hidden()
}

// Head returns the output node of the named head at step t
func (u *Unrolled) Head(name string, t int) (*G.Node, error) {
	if t < 0 || t >= u.steps {
		return nil, fmt.Errorf("head: step %v out of range [0, %v)", t,
			u.steps)
	}
	n, ok := u.heads[t][name]
	if !ok {
		return nil, fmt.Errorf("head: no head %q", name)
	}
	return n, nil
}

// Watch registers a node whose value should be recorded by Run under
// the given name. Watch panics if called after the first Run.
func (u *Unrolled) Watch(name string, n *G.Node) {
	if u.vm != nil {
		panic("watch: cannot watch nodes after the graph has been compiled")
	}
	if _, ok := u.watched[name]; ok {
		panic(fmt.Sprintf("watch: node %q already watched", name))
	}

	var val G.Value
	u.watched[name] = G.Read(n, &val)
	u.reads[name] = &val
}

// SetInputs sets the input features of each step
func (u *Unrolled) SetInputs(inputs [][]float64) error {
	if len(inputs) != u.steps {
		return fmt.Errorf("setInputs: invalid number of steps \n\twant(%v) "+
			"\n\thave(%v)", u.steps, len(inputs))
	}

	for t, x := range inputs {
		if len(x) != u.params.Inputs() {
			return fmt.Errorf("setInputs: invalid number of features at "+
				"step %v \n\twant(%v) \n\thave(%v)", t, u.params.Inputs(),
				len(x))
		}
		if err := setRow(u.inputs[t], x); err != nil {
			return fmt.Errorf("setInputs: %v", err)
		}
	}
	return nil
}

// SetCarry sets the carry fed into the first step. Row l holds the
// hidden state of layer l.
func (u *Unrolled) SetCarry(carry [][]float64) error {
	if err := u.setRows(u.carry, carry); err != nil {
		return fmt.Errorf("setCarry: %v", err)
	}
	return nil
}

// SetResetCarry sets the carry which replaces the computed carry after
// a step whose done flag is set
func (u *Unrolled) SetResetCarry(carry [][]float64) error {
	if err := u.setRows(u.reset, carry); err != nil {
		return fmt.Errorf("setResetCarry: %v", err)
	}
	return nil
}

func (u *Unrolled) setRows(nodes []*G.Node, rows [][]float64) error {
	if len(rows) != len(nodes) {
		return fmt.Errorf("invalid number of layers \n\twant(%v) "+
			"\n\thave(%v)", len(nodes), len(rows))
	}
	for l, row := range rows {
		if len(row) != u.params.Hidden() {
			return fmt.Errorf("invalid hidden size at layer %v \n\twant(%v) "+
				"\n\thave(%v)", l, u.params.Hidden(), len(row))
		}
		if err := setRow(nodes[l], row); err != nil {
			return err
		}
	}
	return nil
}

// SetDones sets the done flag of each step
func (u *Unrolled) SetDones(dones []bool) error {
	if len(dones) != u.steps {
		return fmt.Errorf("setDones: invalid number of steps \n\twant(%v) "+
			"\n\thave(%v)", u.steps, len(dones))
	}
	for t, d := range dones {
		v := 0.0
		if d {
			v = 1.0
		}
		if err := G.Let(u.dones[t], G.NewF64(v)); err != nil {
			return fmt.Errorf("setDones: %v", err)
		}
	}
	return nil
}

// setRow sets a 1 × n node to hold a copy of row
func setRow(n *G.Node, row []float64) error {
	backing := append([]float64(nil), row...)
	t := tensor.New(tensor.WithShape(1, len(row)),
		tensor.WithBacking(backing))
	return G.Let(n, t)
}

// Run runs the computational graph and records the values of all
// watched nodes
func (u *Unrolled) Run() error {
	if u.vm == nil {
		u.vm = G.NewTapeMachine(u.g)
	}

	if err := u.vm.RunAll(); err != nil {
		return fmt.Errorf("run: could not run network VM: %v", err)
	}
	defer u.vm.Reset()

	for name, val := range u.reads {
		if *val == nil {
			return fmt.Errorf("run: no value recorded for %q", name)
		}
		u.values[name] = valueData(*val)
	}
	return nil
}

// valueData copies the data of a Gorgonia value
func valueData(v G.Value) []float64 {
	switch data := v.Data().(type) {
	case []float64:
		return append([]float64(nil), data...)
	case float64:
		return []float64{data}
	default:
		panic(fmt.Sprintf("valueData: unsupported data type %T", data))
	}
}

// Value returns the value recorded by the last Run for a watched node
func (u *Unrolled) Value(name string) ([]float64, error) {
	v, ok := u.values[name]
	if !ok {
		return nil, fmt.Errorf("value: no value recorded for %q", name)
	}
	return v, nil
}

// Carry returns the carry passed on from step t, after the reset
// selection, as recorded by the last Run. Row l holds the hidden state
// of layer l.
func (u *Unrolled) Carry(t int) ([][]float64, error) {
	if t < 0 || t >= u.steps {
		return nil, fmt.Errorf("carry: step %v out of range [0, %v)", t,
			u.steps)
	}

	carry := make([][]float64, u.Depth())
	for l := range carry {
		v, err := u.Value(carryKey(t, l))
		if err != nil {
			return nil, fmt.Errorf("carry: %v", err)
		}
		carry[l] = v
	}
	return carry, nil
}

// FinalCarry returns the carry passed on from the last step
func (u *Unrolled) FinalCarry() ([][]float64, error) {
	return u.Carry(u.steps - 1)
}

// Learnables returns the parameter nodes of the graph
func (u *Unrolled) Learnables() G.Nodes {
	return u.b.learnables()
}
