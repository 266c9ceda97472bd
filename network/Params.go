package network

import (
	"fmt"
	"sort"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

const (
	weightSuffix = "/w"
	biasSuffix   = "/b"

	inputProj  = "input_proj"
	headPrefix = "head/"
)

// cellName returns the name of the i-th recurrent cell
func cellName(i int) string {
	return fmt.Sprintf("gru%d", i)
}

// Head describes a named linear output of a recurrent network. The
// output is reshaped to Rows × Cols.
type Head struct {
	Name       string
	Rows, Cols int
}

// Width returns the number of outputs of the head
func (h Head) Width() int {
	return h.Rows * h.Cols
}

// Params holds the weights of a recurrent network: an input projection
// to the hidden size, Depth stacked GRU cells and a number of linear
// output heads. The weight tensors are shared by every graph built
// from the Params, so updating a tensor in one graph updates it in all
// of them.
type Params struct {
	inputs, hidden, depth int
	heads                 []Head

	tensors map[string]*tensor.Dense
}

// NewParams returns new recurrent network parameters. Weights are
// initialized with init and biases, which are 1 × out row vectors, with
// zeroes.
func NewParams(inputs, hidden, depth int, heads []Head,
	init G.InitWFn) (*Params, error) {
	if inputs <= 0 || hidden <= 0 || depth <= 0 {
		return nil, fmt.Errorf("newParams: inputs, hidden size and depth "+
			"must be positive, have(%v, %v, %v)", inputs, hidden, depth)
	}
	if len(heads) == 0 {
		return nil, fmt.Errorf("newParams: at least one head required")
	}
	seen := make(map[string]bool)
	for _, h := range heads {
		if h.Rows <= 0 || h.Cols <= 0 {
			return nil, fmt.Errorf("newParams: head %q must have positive "+
				"shape, have(%v, %v)", h.Name, h.Rows, h.Cols)
		}
		if seen[h.Name] {
			return nil, fmt.Errorf("newParams: duplicate head %q", h.Name)
		}
		seen[h.Name] = true
	}

	p := &Params{
		inputs:  inputs,
		hidden:  hidden,
		depth:   depth,
		heads:   heads,
		tensors: make(map[string]*tensor.Dense),
	}

	// Tensors are created in a fixed order so that a seeded init
	// produces the same weights every time
	p.addLinear(inputProj, inputs, hidden, init)
	for i := 0; i < depth; i++ {
		cell := cellName(i)
		p.addLinear(cell+gruInputReset, hidden, hidden, init)
		p.addLinear(cell+gruInputUpdate, hidden, hidden, init)
		p.addLinear(cell+gruInputNew, hidden, hidden, init)
		p.addWeights(cell+gruHiddenReset+weightSuffix, hidden, hidden, init)
		p.addWeights(cell+gruHiddenUpd+weightSuffix, hidden, hidden, init)
		p.addLinear(cell+gruHiddenNew, hidden, hidden, init)
	}
	for _, h := range heads {
		p.addLinear(headPrefix+h.Name, hidden, h.Width(), init)
	}

	return p, nil
}

func (p *Params) addWeights(name string, in, out int, init G.InitWFn) {
	backing := init(tensor.Float64, in, out).([]float64)
	p.tensors[name] = tensor.New(
		tensor.WithShape(in, out),
		tensor.WithBacking(backing),
	)
}

func (p *Params) addLinear(name string, in, out int, init G.InitWFn) {
	p.addWeights(name+weightSuffix, in, out, init)
	p.tensors[name+biasSuffix] = tensor.New(
		tensor.WithShape(1, out),
		tensor.WithBacking(make([]float64, out)),
	)
}

// Inputs returns the number of input features
func (p *Params) Inputs() int { return p.inputs }

// Hidden returns the hidden size of each recurrent cell
func (p *Params) Hidden() int { return p.hidden }

// Depth returns the number of stacked recurrent cells
func (p *Params) Depth() int { return p.depth }

// Heads returns the output heads
func (p *Params) Heads() []Head { return p.heads }

// Names returns the names of all parameter tensors in sorted order
func (p *Params) Names() []string {
	names := make([]string, 0, len(p.tensors))
	for name := range p.tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tensor returns the parameter tensor with the given name
func (p *Params) Tensor(name string) (*tensor.Dense, error) {
	t, ok := p.tensors[name]
	if !ok {
		return nil, fmt.Errorf("tensor: no parameter %q", name)
	}
	return t, nil
}

// NumParams returns the total number of scalar parameters
func (p *Params) NumParams() int {
	n := 0
	for _, t := range p.tensors {
		n += t.Shape().TotalSize()
	}
	return n
}

// binding binds parameter tensors to nodes of a single graph
type binding struct {
	g      *G.ExprGraph
	params *Params
	nodes  map[string]*G.Node
}

func (p *Params) bind(g *G.ExprGraph) *binding {
	return &binding{g: g, params: p, nodes: make(map[string]*G.Node)}
}

// node returns the node of the named parameter, creating it on first
// use
func (b *binding) node(name string) (*G.Node, error) {
	if n, ok := b.nodes[name]; ok {
		return n, nil
	}

	t, err := b.params.Tensor(name)
	if err != nil {
		return nil, fmt.Errorf("node: %v", err)
	}

	shape := t.Shape()
	if len(shape) != 2 {
		return nil, fmt.Errorf("node: parameter %q has unsupported shape %v",
			name, shape)
	}
	n := G.NewMatrix(b.g, tensor.Float64, G.WithShape(shape...),
		G.WithName(name), G.WithValue(t))

	b.nodes[name] = n
	return n, nil
}

// learnables returns the bound nodes in the sorted order of parameter
// names
func (b *binding) learnables() G.Nodes {
	learnables := make(G.Nodes, 0, len(b.nodes))
	for _, name := range b.params.Names() {
		if n, ok := b.nodes[name]; ok {
			learnables = append(learnables, n)
		}
	}
	return learnables
}
