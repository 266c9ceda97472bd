package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Names of the per-gate parameters of a gruCell, relative to the
// cell's name
const (
	gruInputReset  = "/ir"
	gruInputUpdate = "/iz"
	gruInputNew    = "/in"
	gruHiddenReset = "/hr"
	gruHiddenUpd   = "/hz"
	gruHiddenNew   = "/hn"
)

// gruCell implements a gated recurrent unit:
//
//	r  = σ(x·Wir + bir + h·Whr)
//	z  = σ(x·Wiz + biz + h·Whz)
//	n  = tanh(x·Win + bin + r ⊙ (h·Whn + bhn))
//	h' = (1 - z) ⊙ n + z ⊙ h
type gruCell struct {
	inReset, inUpdate, inNew *fcLayer
	hReset, hUpdate          *G.Node
	hNew                     *fcLayer

	sigmoid, tanh *Activation
	one           *G.Node
}

// newGRUCell returns a new gruCell whose parameters are the bound
// tensors with the given name prefix
func newGRUCell(b *binding, name string) (*gruCell, error) {
	var err error
	c := &gruCell{
		sigmoid: Sigmoid(),
		tanh:    TanH(),
		one: G.NewScalar(b.g, G.Float64, G.WithValue(1.0),
			G.WithName(name+"/one")),
	}

	if c.inReset, err = newfcLayer(b, name+gruInputReset, nil); err != nil {
		return nil, fmt.Errorf("newGRUCell: %v", err)
	}
	if c.inUpdate, err = newfcLayer(b, name+gruInputUpdate, nil); err != nil {
		return nil, fmt.Errorf("newGRUCell: %v", err)
	}
	if c.inNew, err = newfcLayer(b, name+gruInputNew, nil); err != nil {
		return nil, fmt.Errorf("newGRUCell: %v", err)
	}
	if c.hNew, err = newfcLayer(b, name+gruHiddenNew, nil); err != nil {
		return nil, fmt.Errorf("newGRUCell: %v", err)
	}

	if c.hReset, err = b.node(name + gruHiddenReset + weightSuffix); err != nil {
		return nil, fmt.Errorf("newGRUCell: %v", err)
	}
	if c.hUpdate, err = b.node(name + gruHiddenUpd + weightSuffix); err != nil {
		return nil, fmt.Errorf("newGRUCell: %v", err)
	}

	return c, nil
}

// gate computes act(x·Wi + bi + h·Wh)
func (c *gruCell) gate(x, h *G.Node, in *fcLayer, hw *G.Node,
	act *Activation) (*G.Node, error) {
	xi, err := in.fwd(x)
	if err != nil {
		return nil, err
	}
	hh, err := G.Mul(h, hw)
	if err != nil {
		return nil, err
	}
	sum, err := G.Add(xi, hh)
	if err != nil {
		return nil, err
	}
	return act.fwd(sum)
}

// fwd adds one step of the cell to the computational graph, returning
// the next hidden state
func (c *gruCell) fwd(x, h *G.Node) (*G.Node, error) {
	r, err := c.gate(x, h, c.inReset, c.hReset, c.sigmoid)
	if err != nil {
		return nil, fmt.Errorf("fwd: reset gate: %v", err)
	}
	z, err := c.gate(x, h, c.inUpdate, c.hUpdate, c.sigmoid)
	if err != nil {
		return nil, fmt.Errorf("fwd: update gate: %v", err)
	}

	// Candidate state
	xn, err := c.inNew.fwd(x)
	if err != nil {
		return nil, fmt.Errorf("fwd: candidate: %v", err)
	}
	hn, err := c.hNew.fwd(h)
	if err != nil {
		return nil, fmt.Errorf("fwd: candidate: %v", err)
	}
	hn = G.Must(G.HadamardProd(r, hn))
	n, err := c.tanh.fwd(G.Must(G.Add(xn, hn)))
	if err != nil {
		return nil, fmt.Errorf("fwd: candidate: %v", err)
	}

	// Interpolate between the candidate and the previous state
	keep := G.Must(G.Sub(c.one, z))
	next := G.Must(G.HadamardProd(keep, n))
	return G.Add(next, G.Must(G.HadamardProd(z, h)))
}
