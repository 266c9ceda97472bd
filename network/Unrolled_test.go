package network

import (
	"math"
	"testing"

	"github.com/samuelfneumann/gowalk/initwfn"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const tol = 1e-9

func newTestParams(t *testing.T) *Params {
	t.Helper()

	init, err := initwfn.NewUniform(-0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	heads := []Head{{Name: "out", Rows: 2, Cols: 3}}
	params, err := NewParams(3, 4, 2, heads, init.Seeded(1))
	if err != nil {
		t.Fatal(err)
	}
	return params
}

func zeroCarry(depth, hidden int) [][]float64 {
	carry := make([][]float64, depth)
	for l := range carry {
		carry[l] = make([]float64, hidden)
	}
	return carry
}

var testInputs = [][]float64{
	{0.1, -0.2, 0.3},
	{0.5, 0.4, -0.1},
	{-0.3, 0.2, 0.9},
	{0.7, -0.6, 0.0},
}

func runUnrolled(t *testing.T, params *Params, inputs [][]float64,
	carry [][]float64, dones []bool) *Unrolled {
	t.Helper()

	net, err := NewUnrolled(params, len(inputs))
	if err != nil {
		t.Fatal(err)
	}
	if err := net.SetInputs(inputs); err != nil {
		t.Fatal(err)
	}
	if err := net.SetCarry(carry); err != nil {
		t.Fatal(err)
	}
	if err := net.SetResetCarry(zeroCarry(net.Depth(), net.Hidden())); err != nil {
		t.Fatal(err)
	}
	if err := net.SetDones(dones); err != nil {
		t.Fatal(err)
	}
	if err := net.Run(); err != nil {
		t.Fatal(err)
	}
	return net
}

func headValue(t *testing.T, net *Unrolled, step int) []float64 {
	t.Helper()

	v, err := net.Value(HeadKey("out", step))
	if err != nil {
		t.Fatal(err)
	}
	return v
}

// TestUnrolledMatchesStepwise tests that running the network over a
// window in one graph computes the same outputs and carries as running
// the one-step graph repeatedly while threading the carry through.
func TestUnrolledMatchesStepwise(t *testing.T) {
	params := newTestParams(t)
	dones := make([]bool, len(testInputs))
	scan := runUnrolled(t, params, testInputs, zeroCarry(2, 4), dones)

	step, err := NewUnrolled(params, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := step.SetResetCarry(zeroCarry(2, 4)); err != nil {
		t.Fatal(err)
	}
	if err := step.SetDones([]bool{false}); err != nil {
		t.Fatal(err)
	}

	carry := zeroCarry(2, 4)
	for i, x := range testInputs {
		if err := step.SetInputs([][]float64{x}); err != nil {
			t.Fatal(err)
		}
		if err := step.SetCarry(carry); err != nil {
			t.Fatal(err)
		}
		if err := step.Run(); err != nil {
			t.Fatal(err)
		}

		want := headValue(t, scan, i)
		have := headValue(t, step, 0)
		if !floats.EqualApprox(want, have, tol) {
			t.Errorf("step %d: head mismatch \n\twant(%v) \n\thave(%v)", i,
				want, have)
		}

		if carry, err = step.FinalCarry(); err != nil {
			t.Fatal(err)
		}
		scanCarry, err := scan.Carry(i)
		if err != nil {
			t.Fatal(err)
		}
		for l := range carry {
			if !floats.EqualApprox(scanCarry[l], carry[l], tol) {
				t.Errorf("step %d layer %d: carry mismatch \n\twant(%v) "+
					"\n\thave(%v)", i, l, scanCarry[l], carry[l])
			}
		}
	}
}

// TestUnrolledReset tests that a done flag replaces the carry passed on
// from that step with the reset carry, so the following step behaves
// like the first step of a fresh episode.
func TestUnrolledReset(t *testing.T) {
	params := newTestParams(t)
	dones := []bool{false, false, true, false}
	net := runUnrolled(t, params, testInputs, zeroCarry(2, 4), dones)

	before, err := net.Carry(1)
	if err != nil {
		t.Fatal(err)
	}
	after, err := net.Carry(2)
	if err != nil {
		t.Fatal(err)
	}
	for l := range after {
		for _, v := range after[l] {
			if v != 0 {
				t.Fatalf("layer %d: carry after done not reset: %v", l,
					after[l])
			}
		}
		if floats.Norm(before[l], 2) == 0 {
			t.Errorf("layer %d: carry before done unexpectedly zero", l)
		}
	}

	fresh := runUnrolled(t, params, testInputs[3:], zeroCarry(2, 4),
		[]bool{false})
	want := headValue(t, fresh, 0)
	have := headValue(t, net, 3)
	if !floats.EqualApprox(want, have, tol) {
		t.Errorf("step after reset does not match a fresh episode "+
			"\n\twant(%v) \n\thave(%v)", want, have)
	}
}

// TestGRUCell checks a single step of the graph against a direct
// computation of the gated recurrent unit equations.
func TestGRUCell(t *testing.T) {
	params := newTestParams(t)
	carry := [][]float64{
		{0.1, -0.1, 0.2, 0.0},
		{-0.3, 0.4, 0.0, 0.2},
	}
	net := runUnrolled(t, params, testInputs[:1], carry, []bool{false})

	dense := func(name string) *mat.Dense {
		tn, err := params.Tensor(name)
		if err != nil {
			t.Fatal(err)
		}
		s := tn.Shape()
		data := append([]float64(nil), tn.Data().([]float64)...)
		return mat.NewDense(s[0], s[1], data)
	}
	linear := func(x *mat.Dense, name string, bias bool) *mat.Dense {
		w := dense(name + weightSuffix)
		var out mat.Dense
		out.Mul(x, w)
		if bias {
			out.Add(&out, dense(name+biasSuffix))
		}
		return &out
	}
	apply := func(m *mat.Dense, f func(float64) float64) *mat.Dense {
		var out mat.Dense
		out.Apply(func(_, _ int, v float64) float64 { return f(v) }, m)
		return &out
	}
	sigmoid := func(v float64) float64 { return 1 / (1 + math.Exp(-v)) }

	x := linear(mat.NewDense(1, 3, testInputs[0]), inputProj, true)
	for l := 0; l < 2; l++ {
		cell := cellName(l)
		h := mat.NewDense(1, 4, append([]float64(nil), carry[l]...))

		var r, z, n mat.Dense
		r.Add(linear(x, cell+gruInputReset, true),
			linear(h, cell+gruHiddenReset, false))
		z.Add(linear(x, cell+gruInputUpdate, true),
			linear(h, cell+gruHiddenUpd, false))
		rr, zz := apply(&r, sigmoid), apply(&z, sigmoid)

		n.MulElem(rr, linear(h, cell+gruHiddenNew, true))
		n.Add(&n, linear(x, cell+gruInputNew, true))
		nn := apply(&n, math.Tanh)

		next := mat.NewDense(1, 4, nil)
		next.Apply(func(_, j int, _ float64) float64 {
			return (1-zz.At(0, j))*nn.At(0, j) + zz.At(0, j)*h.At(0, j)
		}, next)
		x = next
	}
	out := linear(x, headPrefix+"out", true)

	want := out.RawMatrix().Data
	have := headValue(t, net, 0)
	if !floats.EqualApprox(want, have, tol) {
		t.Errorf("head mismatch \n\twant(%v) \n\thave(%v)", want, have)
	}
}

func TestNewUnrolledInvalid(t *testing.T) {
	params := newTestParams(t)
	if _, err := NewUnrolled(params, 0); err == nil {
		t.Error("expected error for zero steps")
	}

	net, err := NewUnrolled(params, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := net.SetInputs(testInputs[:1]); err == nil {
		t.Error("expected error for wrong number of steps")
	}
	if err := net.SetCarry(zeroCarry(1, 4)); err == nil {
		t.Error("expected error for wrong carry depth")
	}
	if err := net.SetDones([]bool{true}); err == nil {
		t.Error("expected error for wrong number of done flags")
	}
}
