package network

import (
	G "gorgonia.org/gorgonia"
)

// Activation is an elementwise activation function applied to the
// output of a layer or gate
type Activation struct {
	name string
	f    func(x *G.Node) (*G.Node, error)
}

// fwd performs the forward pass of an Activation. A nil Activation
// is the identity.
func (a *Activation) fwd(x *G.Node) (*G.Node, error) {
	if a == nil || a.f == nil {
		return x, nil
	}
	return a.f(x)
}

// String implements the fmt.Stringer interface
func (a *Activation) String() string {
	if a == nil {
		return "identity"
	}
	return a.name
}

// TanH returns a tanh *Activation, used for the candidate state of a
// GRU cell
func TanH() *Activation {
	return &Activation{name: "tanh", f: G.Tanh}
}

// Sigmoid returns a logistic sigmoid *Activation, used for the reset
// and update gates of a GRU cell
func Sigmoid() *Activation {
	return &Activation{name: "sigmoid", f: G.Sigmoid}
}
