package environment

import (
	"testing"

	"github.com/samuelfneumann/gowalk/timestep"
	"github.com/samuelfneumann/gowalk/utils/randutils"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestSpecValidate(t *testing.T) {
	s := NewSpec([]string{"a", "b"}, []int{2, 1})

	if err := s.Validate(timestep.Observations{
		"a": {1, 2},
		"b": {3},
	}); err != nil {
		t.Error(err)
	}

	err := s.Validate(timestep.Observations{"a": {1, 2}})
	if !timestep.IsMissingKey(err) {
		t.Errorf("expected missing key error, have(%v)", err)
	}

	if err := s.Validate(timestep.Observations{
		"a": {1},
		"b": {3},
	}); err == nil {
		t.Error("expected error for invalid width")
	}

	if err := s.Require("a", "c"); !timestep.IsMissingKey(err) {
		t.Errorf("expected missing key error, have(%v)", err)
	}
}

func TestIntervalLimit(t *testing.T) {
	e := NewIntervalLimit("g", []r1.Interval{{Min: -10, Max: -8}}, []int{2},
		false)

	tr := Transition{Observations: timestep.Observations{"g": {0, 0, -9}}}
	if done, err := e.End(&tr, 1); err != nil || done || tr.Done {
		t.Errorf("episode ended inside the interval: %v", err)
	}

	tr = Transition{Observations: timestep.Observations{"g": {0, 0, -5}}}
	done, err := e.End(&tr, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !done || !tr.Done || tr.Success {
		t.Errorf("want failed episode end, have done=%v success=%v", tr.Done,
			tr.Success)
	}
}

func TestFunctionEnder(t *testing.T) {
	e := NewFunctionEnder(func(s PhysicsState) bool {
		return s.Time > 1
	}, true)

	tr := Transition{State: PhysicsState{Time: 0.5}}
	if done, _ := e.End(&tr, 0); done {
		t.Error("episode ended early")
	}
	tr.State.Time = 1.5
	if done, _ := e.End(&tr, 0); !done || !tr.Success {
		t.Errorf("want successful episode end, have done=%v success=%v",
			done, tr.Success)
	}
}

func TestUniformStarter(t *testing.T) {
	bounds := []r1.Interval{{Min: -1, Max: 0}, {Min: 2, Max: 3}}
	s := NewUniformStarter(bounds)

	for _, key := range randutils.NewKey(7).Split(50) {
		v := s.Start(key)
		for i, b := range bounds {
			if v[i] < b.Min || v[i] > b.Max {
				t.Fatalf("start %v outside of bounds %v", v, bounds)
			}
		}
	}

	a, b := s.Start(randutils.NewKey(1)), s.Start(randutils.NewKey(1))
	if a[0] != b[0] || a[1] != b[1] {
		t.Error("equal keys gave different starts")
	}
}
