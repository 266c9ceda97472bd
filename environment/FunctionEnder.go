package environment

// FunctionEnder ends an episode whenever a function of the physics
// state returns true
type FunctionEnder struct {
	end     func(PhysicsState) bool
	success bool
}

// NewFunctionEnder returns a new FunctionEnder which ends episodes
// when f returns true, marking them successful if success is true
func NewFunctionEnder(f func(PhysicsState) bool, success bool) Ender {
	return &FunctionEnder{f, success}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination
func (f *FunctionEnder) End(t *Transition, _ int) (bool, error) {
	if f.end(t.State) {
		t.Done = true
		t.Success = f.success
		return true, nil
	}
	return false, nil
}
