// Package checkpointer saves serializable objects, such as the weights
// of a policy, during an experiment
package checkpointer

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Serializable is an object that can be saved/serialized
type Serializable interface {
	gob.GobEncoder
	gob.GobDecoder
}

// Checkpointer checkpoints serializable objects based on the number
// of rollouts completed so far
type Checkpointer interface {
	Checkpoint(rollouts int) error
}

// nStep implements checkpointing every N rollouts
type nStep struct {
	interval int
	object   Serializable

	// filename returns the name of the file to save the object in. See
	// FilenameEnumerator and FileTimer.
	filename func() string
}

// NewNStep returns a checkpointer that checkpoints object every n
// rollouts
func NewNStep(n int, object Serializable,
	filename func() string) Checkpointer {
	if n <= 0 {
		panic(fmt.Sprintf("newNStep: interval must be positive, have(%v)", n))
	}
	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}
}

// Checkpoint saves the tracked object if rollouts is a positive
// multiple of the interval
func (n *nStep) Checkpoint(rollouts int) error {
	if rollouts <= 0 || rollouts%n.interval != 0 {
		return nil
	}
	if err := Save(n.filename(), n.object); err != nil {
		return fmt.Errorf("checkpoint: %v", err)
	}
	return nil
}

// Save gob encodes object to filename
func Save(filename string, object Serializable) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not open file: %v", err)
	}

	if err := gob.NewEncoder(file).Encode(object); err != nil {
		file.Close()
		return fmt.Errorf("save: could not encode %T: %v", object, err)
	}
	return file.Close()
}

// Load decodes the object saved at filename into object
func Load(filename string, object Serializable) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("load: could not open file: %v", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(object); err != nil {
		return fmt.Errorf("load: could not decode %T: %v", object, err)
	}
	return nil
}
