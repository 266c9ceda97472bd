package environment

// StepLimit implements the Ender interface to end episodes at specific
// timestep limits. Reaching the limit counts as success.
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) StepLimit {
	return StepLimit{episodeSteps}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination
func (s StepLimit) End(t *Transition, number int) (bool, error) {
	if number >= s.episodeSteps {
		t.Done = true
		t.Success = true
		return true, nil
	}
	return false, nil
}
