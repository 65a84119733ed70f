package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityCategory = "category"
	EntityExpense  = "expense"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ChangeEvent announces a committed write. It carries ids only; consumers
// fetch the current state themselves.
type ChangeEvent struct {
	Entity    string    `json:"entity"`
	Action    string    `json:"action"`
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeEvent creates an event stamped with the current time.
func NewChangeEvent(entity, action string, id, userID uuid.UUID) ChangeEvent {
	return ChangeEvent{
		Entity:    entity,
		Action:    action,
		ID:        id,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

// RoutingKey is "<entity>.<action>", e.g. "expense.created".
func (e ChangeEvent) RoutingKey() string {
	return e.Entity + "." + e.Action
}

// ToJSON converts the event to JSON bytes
func (e ChangeEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ChangeEventFromJSON creates an event from JSON bytes
func ChangeEventFromJSON(data []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ChangeEvent{}, err
	}
	return ev, nil
}
