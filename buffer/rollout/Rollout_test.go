package rollout

import (
	"testing"

	"github.com/samuelfneumann/gowalk/timestep"
)

func step(i int) timestep.TimeStep {
	return timestep.TimeStep{
		Observations: timestep.Observations{"x": {float64(i)}},
		Commands:     timestep.Commands{"c": {1}},
		Action:       []float64{float64(i), 0},
		QPos:         []float64{0, 0},
		Number:       i,
	}
}

func TestStoreGet(t *testing.T) {
	b := New(3)
	if _, err := b.Get(); err == nil {
		t.Error("expected error for get before full")
	}

	for i := 0; i < 3; i++ {
		s := step(i)
		if err := b.Store(s); err != nil {
			t.Fatal(err)
		}
		s.Action[0] = -1
		s.Observations["x"][0] = -1
	}
	if !b.Full() {
		t.Fatal("buffer should be full")
	}
	if err := b.Store(step(3)); err == nil {
		t.Error("expected error for store when full")
	}

	traj, err := b.Get()
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range traj {
		if s.Action[0] != float64(i) || s.Observations["x"][0] != float64(i) {
			t.Errorf("timestep %d modified after store: %v", i, s)
		}
	}
	if b.Len() != 0 || b.Full() {
		t.Error("buffer not emptied by get")
	}
}

func TestStoreWidth(t *testing.T) {
	b := New(2)
	if err := b.Store(step(0)); err != nil {
		t.Fatal(err)
	}

	s := step(1)
	s.Action = []float64{1}
	if err := b.Store(s); err == nil {
		t.Error("expected error for illegal action length")
	}
}

func TestChunks(t *testing.T) {
	b := New(5)
	for i := 0; i < 5; i++ {
		if err := b.Store(step(i)); err != nil {
			t.Fatal(err)
		}
	}

	chunks, err := b.Chunks(2)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{2, 2, 1}
	if len(chunks) != len(want) {
		t.Fatalf("invalid number of chunks \n\twant(%v) \n\thave(%v)",
			len(want), len(chunks))
	}
	for i, c := range chunks {
		if c.Len() != want[i] {
			t.Errorf("chunk %d \n\twant(%v) \n\thave(%v)", i, want[i],
				c.Len())
		}
	}
	if chunks[2][0].Number != 4 {
		t.Errorf("chunks out of order: %v", chunks[2][0])
	}
}
