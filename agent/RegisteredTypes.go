package agent

import (
	"fmt"
	"reflect"
)

// Type represents a specific type of an agent Config.
// Config's with this type can create evaluators of the corresponding
// type.
type Type string

const (
	RecurrentActorCritic Type = "RecurrentActorCritic-GRU"
)

// Registered types with the package. Once a Type has been registered
// with this map, a TypedConfig with that type can be unmarshalled.
//
// No Type's are registered with this package upon initialization.
// Each separate package is in charge of registering its Type with
// the package separately to avoid circular imports.
var registeredTypes map[Type]reflect.Type

func init() {
	registeredTypes = make(map[Type]reflect.Type)
}

// Register registers an agent's Type with a concrete Config type so
// that upon deserialization of a TypedConfig, Configs of type agentType
// are deserialized into the concrete type of config.
func Register(agentType Type, config Config) {
	if _, ok := registeredTypes[agentType]; ok {
		panic(fmt.Sprintf("register: type %q already registered", agentType))
	}
	registeredTypes[agentType] = reflect.TypeOf(config)
}
