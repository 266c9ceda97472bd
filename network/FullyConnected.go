package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// fcLayer implements a fully connected layer of a neural network,
// computing act(x·W + b)
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     *Activation
}

// newfcLayer returns a new fcLayer whose weights and bias are the
// bound tensors with the given name prefix
func newfcLayer(b *binding, name string, act *Activation) (*fcLayer,
	error) {
	weights, err := b.node(name + weightSuffix)
	if err != nil {
		return nil, fmt.Errorf("newfcLayer: %v", err)
	}
	bias, err := b.node(name + biasSuffix)
	if err != nil {
		return nil, fmt.Errorf("newfcLayer: %v", err)
	}

	return &fcLayer{weights: weights, bias: bias, act: act}, nil
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, f.Weights())
	if err != nil {
		return nil, fmt.Errorf("fwd: %v", err)
	}
	if f.Bias() != nil {
		// Broadcast the bias weights to all samples along the batch
		// dimension
		x, err = G.BroadcastAdd(x, f.Bias(), nil, []byte{0})
		if err != nil {
			return nil, fmt.Errorf("fwd: %v", err)
		}
	}
	return f.Activation().fwd(x)
}

func (f *fcLayer) Activation() *Activation {
	return f.act
}

func (f *fcLayer) Bias() *G.Node {
	return f.bias
}

func (f *fcLayer) Weights() *G.Node {
	return f.weights
}
