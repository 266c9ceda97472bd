package timestep

import (
	"errors"
	"testing"
)

func newTrajectory(n int) Trajectory {
	traj := make(Trajectory, n)
	for i := range traj {
		traj[i] = TimeStep{
			Observations: Observations{"x": {float64(i), -float64(i)}},
			Commands:     Commands{"c": {1}},
			Action:       []float64{0, 0},
			QPos:         []float64{0, 0},
			Time:         float64(i) * 0.02,
			Number:       i,
		}
	}
	return traj
}

func TestTrajectoryObs(t *testing.T) {
	traj := newTrajectory(3)

	col, err := traj.Obs("x")
	if err != nil {
		t.Fatal(err)
	}
	for i, row := range col {
		if row[0] != float64(i) || row[1] != -float64(i) {
			t.Errorf("obs: row %d have(%v)", i, row)
		}
	}

	_, err = traj.Obs("missing")
	var m *MissingKeyError
	if !errors.As(err, &m) {
		t.Fatalf("obs: expected *MissingKeyError, have(%v)", err)
	}
	if m.Key != "missing" || m.Source != Observation {
		t.Errorf("obs: wrong error contents %+v", m)
	}

	_, err = traj.Command("missing")
	if !IsMissingKey(err) {
		t.Errorf("command: expected missing key error, have(%v)", err)
	}
}

func TestTrajectoryValidate(t *testing.T) {
	traj := newTrajectory(4)
	if err := traj.Validate(); err != nil {
		t.Fatalf("validate: unexpected error %v", err)
	}

	// A new episode may restart the clock after a terminal step
	traj[1].Done = true
	traj[2].Time = 0
	if err := traj.Validate(); err != nil {
		t.Errorf("validate: unexpected error after reset %v", err)
	}

	traj[3].Time = -1
	if err := traj.Validate(); err == nil {
		t.Error("validate: expected error for decreasing time")
	}
	traj[3].Time = 1

	traj[3].Success = true
	if err := traj.Validate(); err == nil {
		t.Error("validate: expected error for success without done")
	}
	traj[3].Success = false

	traj[0].Action = []float64{1}
	if err := traj.Validate(); err == nil {
		t.Error("validate: expected error for action width")
	}
}

func TestTrajectorySplit(t *testing.T) {
	traj := newTrajectory(5)
	chunks := traj.Split(2)
	if len(chunks) != 3 {
		t.Fatalf("split: want(3) have(%v) chunks", len(chunks))
	}
	if chunks[2].Len() != 1 || chunks[2][0].Number != 4 {
		t.Errorf("split: wrong final chunk %v", chunks[2])
	}
}
