package timestep

import "fmt"

// Trajectory is an ordered sequence of timesteps of one or more
// (possibly partial) episodes. A TimeStep with Done set ends its
// episode segment; the next TimeStep, if any, starts a new one.
type Trajectory []TimeStep

// Len returns the number of timesteps in the trajectory
func (t Trajectory) Len() int {
	return len(t)
}

// Obs returns the time-major column of the named observation
func (t Trajectory) Obs(name string) ([][]float64, error) {
	out := make([][]float64, len(t))
	for i, step := range t {
		v, err := step.Observations.Get(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Command returns the time-major column of the named command
func (t Trajectory) Command(name string) ([][]float64, error) {
	out := make([][]float64, len(t))
	for i, step := range t {
		v, err := step.Commands.Get(name)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// QPos returns the joint positions at each timestep
func (t Trajectory) QPos() [][]float64 {
	out := make([][]float64, len(t))
	for i, step := range t {
		out[i] = step.QPos
	}
	return out
}

// Actions returns the recorded actions at each timestep
func (t Trajectory) Actions() [][]float64 {
	out := make([][]float64, len(t))
	for i, step := range t {
		out[i] = step.Action
	}
	return out
}

// Dones returns the termination flags at each timestep
func (t Trajectory) Dones() []bool {
	out := make([]bool, len(t))
	for i, step := range t {
		out[i] = step.Done
	}
	return out
}

// Times returns the elapsed episode time at each timestep
func (t Trajectory) Times() []float64 {
	out := make([]float64, len(t))
	for i, step := range t {
		out[i] = step.Time
	}
	return out
}

// Validate checks the structural invariants of a trajectory: actions
// and joint positions keep a fixed width, a success flag is only set
// on a terminal step, and elapsed time never decreases within an
// episode segment.
func (t Trajectory) Validate() error {
	if len(t) == 0 {
		return nil
	}

	actDims, qposDims := len(t[0].Action), len(t[0].QPos)
	for i, step := range t {
		if len(step.Action) != actDims {
			return fmt.Errorf("validate: timestep %v has action width "+
				"\n\twant(%v) \n\thave(%v)", i, actDims, len(step.Action))
		}
		if len(step.QPos) != qposDims {
			return fmt.Errorf("validate: timestep %v has qpos width "+
				"\n\twant(%v) \n\thave(%v)", i, qposDims, len(step.QPos))
		}
		if step.Success && !step.Done {
			return fmt.Errorf("validate: timestep %v is successful but "+
				"not done", i)
		}
		if i > 0 && !t[i-1].Done && step.Time < t[i-1].Time {
			return fmt.Errorf("validate: time decreases within an "+
				"episode at timestep %v (%v -> %v)", i, t[i-1].Time,
				step.Time)
		}
	}
	return nil
}

// Split splits the trajectory into consecutive chunks of at most size
// timesteps each.
func (t Trajectory) Split(size int) []Trajectory {
	if size <= 0 {
		panic(fmt.Sprintf("split: chunk size must be positive, have %v",
			size))
	}

	chunks := make([]Trajectory, 0, (len(t)+size-1)/size)
	for start := 0; start < len(t); start += size {
		end := start + size
		if end > len(t) {
			end = len(t)
		}
		chunks = append(chunks, t[start:end])
	}
	return chunks
}
