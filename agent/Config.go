package agent

import (
	"github.com/samuelfneumann/gowalk/robot"
	"github.com/samuelfneumann/gowalk/utils/randutils"
)

// Config represents a configuration for creating an evaluator
type Config interface {
	// Create creates the evaluator that the config describes for a
	// robot with the given joints, initializing its weights from key
	Create(meta robot.Metadata, key randutils.Key) (PPOEvaluator, error)

	// Validate returns an error describing whether or not the
	// configuration is valid or not.
	Validate() error

	// Type returns the type of evaluator the Config creates
	Type() Type
}
