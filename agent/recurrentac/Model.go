package recurrentac

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/samuelfneumann/gowalk/network"
	"github.com/samuelfneumann/gowalk/utils/randutils"
)

// Names of the network heads
const (
	meanHead   = "mean"
	stdHead    = "std"
	logitsHead = "logits"
	valueHead  = "value"
)

// Model holds the weights of the actor and the critic
type Model struct {
	Actor  *network.Params
	Critic *network.Params

	joints, mixtures int
}

// NewModel returns a new Model for the given number of joints, with
// weights initialized from key
func NewModel(c Config, joints int, key randutils.Key) (*Model, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newModel: %v", err)
	}
	if joints <= 0 {
		return nil, fmt.Errorf("newModel: joints must be positive, "+
			"have(%v)", joints)
	}
	actorKey, criticKey := key.Split2()

	actorHeads := []network.Head{
		{Name: meanHead, Rows: joints, Cols: c.Mixtures},
		{Name: stdHead, Rows: joints, Cols: c.Mixtures},
		{Name: logitsHead, Rows: joints, Cols: c.Mixtures},
	}
	actor, err := network.NewParams(width(actorLayout(joints)), c.Hidden,
		c.Depth, actorHeads, c.Init.Seeded(uint64(actorKey)))
	if err != nil {
		return nil, fmt.Errorf("newModel: actor: %v", err)
	}

	criticHeads := []network.Head{{Name: valueHead, Rows: 1, Cols: 1}}
	layout := criticLayout(joints, c.JointVelocityScale, c.ActuatorForceScale)
	critic, err := network.NewParams(width(layout), c.Hidden, c.Depth,
		criticHeads, c.Init.Seeded(uint64(criticKey)))
	if err != nil {
		return nil, fmt.Errorf("newModel: critic: %v", err)
	}

	return &Model{
		Actor:    actor,
		Critic:   critic,
		joints:   joints,
		mixtures: c.Mixtures,
	}, nil
}

// Joints returns the number of joints the actor outputs actions for
func (m *Model) Joints() int { return m.joints }

// Mixtures returns the number of mixture components per joint
func (m *Model) Mixtures() int { return m.mixtures }

// NumParams returns the total number of scalar weights of the model
func (m *Model) NumParams() int {
	return m.Actor.NumParams() + m.Critic.NumParams()
}

// GobEncode implements the gob.GobEncoder interface
func (m *Model) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode([]int{m.joints, m.mixtures}); err != nil {
		return nil, fmt.Errorf("gobEncode: could not encode sizes: %v", err)
	}
	if err := enc.Encode(m.Actor); err != nil {
		return nil, fmt.Errorf("gobEncode: actor: %v", err)
	}
	if err := enc.Encode(m.Critic); err != nil {
		return nil, fmt.Errorf("gobEncode: critic: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. Decoding into a
// Model which already holds weights overwrites them in place, so that
// Evaluators of the Model use the decoded weights.
func (m *Model) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var sizes []int
	if err := dec.Decode(&sizes); err != nil {
		return fmt.Errorf("gobDecode: could not decode sizes: %v", err)
	}
	if len(sizes) != 2 {
		return fmt.Errorf("gobDecode: invalid sizes %v", sizes)
	}
	if m.Actor != nil && (sizes[0] != m.joints || sizes[1] != m.mixtures) {
		return fmt.Errorf("gobDecode: joints and mixtures \n\twant(%v, %v) "+
			"\n\thave(%v, %v)", m.joints, m.mixtures, sizes[0], sizes[1])
	}

	actor, critic := m.Actor, m.Critic
	if actor == nil {
		actor, critic = new(network.Params), new(network.Params)
	}
	if err := dec.Decode(actor); err != nil {
		return fmt.Errorf("gobDecode: actor: %v", err)
	}
	if err := dec.Decode(critic); err != nil {
		return fmt.Errorf("gobDecode: critic: %v", err)
	}

	m.Actor, m.Critic = actor, critic
	m.joints, m.mixtures = sizes[0], sizes[1]
	return nil
}
