package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gorgonia.org/tensor"
)

// GobEncode implements the gob.GobEncoder interface
func (p *Params) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode([]int{p.inputs, p.hidden, p.depth}); err != nil {
		return nil, fmt.Errorf("gobEncode: could not encode sizes: %v", err)
	}
	if err := enc.Encode(p.heads); err != nil {
		return nil, fmt.Errorf("gobEncode: could not encode heads: %v", err)
	}

	names := p.Names()
	if err := enc.Encode(names); err != nil {
		return nil, fmt.Errorf("gobEncode: could not encode names: %v", err)
	}
	for _, name := range names {
		t := p.tensors[name]
		if err := enc.Encode([]int(t.Shape())); err != nil {
			return nil, fmt.Errorf("gobEncode: could not encode shape of "+
				"%q: %v", name, err)
		}
		if err := enc.Encode(t.Data().([]float64)); err != nil {
			return nil, fmt.Errorf("gobEncode: could not encode %q: %v",
				name, err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. If the Params
// already hold weights, the decoded weights must have the same names
// and shapes and are copied into the existing tensors so that graphs
// built from the Params see the new weights.
func (p *Params) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var sizes []int
	if err := dec.Decode(&sizes); err != nil {
		return fmt.Errorf("gobDecode: could not decode sizes: %v", err)
	}
	if len(sizes) != 3 {
		return fmt.Errorf("gobDecode: invalid sizes %v", sizes)
	}
	var heads []Head
	if err := dec.Decode(&heads); err != nil {
		return fmt.Errorf("gobDecode: could not decode heads: %v", err)
	}
	var names []string
	if err := dec.Decode(&names); err != nil {
		return fmt.Errorf("gobDecode: could not decode names: %v", err)
	}

	inPlace := len(p.tensors) > 0
	if inPlace {
		if sizes[0] != p.inputs || sizes[1] != p.hidden || sizes[2] != p.depth {
			return fmt.Errorf("gobDecode: sizes do not match \n\twant(%v) "+
				"\n\thave(%v)", []int{p.inputs, p.hidden, p.depth}, sizes)
		}
		if len(names) != len(p.tensors) {
			return fmt.Errorf("gobDecode: number of parameters does not "+
				"match \n\twant(%v) \n\thave(%v)", len(p.tensors), len(names))
		}
	}

	tensors := make(map[string]*tensor.Dense, len(names))
	for _, name := range names {
		var shape []int
		if err := dec.Decode(&shape); err != nil {
			return fmt.Errorf("gobDecode: could not decode shape of %q: %v",
				name, err)
		}
		var data []float64
		if err := dec.Decode(&data); err != nil {
			return fmt.Errorf("gobDecode: could not decode %q: %v", name, err)
		}

		if !inPlace {
			tensors[name] = tensor.New(tensor.WithShape(shape...),
				tensor.WithBacking(data))
			continue
		}

		t, ok := p.tensors[name]
		if !ok {
			return fmt.Errorf("gobDecode: unknown parameter %q", name)
		}
		if !t.Shape().Eq(tensor.Shape(shape)) {
			return fmt.Errorf("gobDecode: shape of %q \n\twant(%v) "+
				"\n\thave(%v)", name, t.Shape(), shape)
		}
		copy(t.Data().([]float64), data)
	}

	if !inPlace {
		p.inputs, p.hidden, p.depth = sizes[0], sizes[1], sizes[2]
		p.heads = heads
		p.tensors = tensors
	}
	return nil
}
