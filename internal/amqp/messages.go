package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entities carried by change messages.
const (
	EntityMember  = "member"
	EntityPayment = "payment"
)

// Actions carried by change messages.
const (
	ActionLoaded  = "loaded"
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeMessage announces that a member or payment changed. It carries only
// the identity; consumers re-read whatever state they need.
type ChangeMessage struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        int64     `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(entity, action string, id int64) *ChangeMessage {
	return &ChangeMessage{
		Entity:    entity,
		Action:    action,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// Validate rejects unknown entities and actions.
func (m *ChangeMessage) Validate() error {
	switch m.Entity {
	case EntityMember, EntityPayment:
	default:
		return fmt.Errorf("unknown entity %q", m.Entity)
	}
	switch m.Action {
	case ActionLoaded, ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown action %q", m.Action)
	}
	return nil
}

// RoutingKey is "<entity>.<action>".
func (m *ChangeMessage) RoutingKey() string {
	return m.Entity + "." + m.Action
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes and validates a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
