package events

import (
	"time"

	"github.com/google/uuid"
)

const EntityChangedType = "entity.changed"

// EntityChangedEvent announces that an entity was created or transitioned.
// It identifies the entity only; consumers re-fetch the authoritative state.
type EntityChangedEvent struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	EntityID  int64     `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntityChangedEvent(kind string, entityID int64) EntityChangedEvent {
	return EntityChangedEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

func (e EntityChangedEvent) EventType() string {
	return EntityChangedType
}

func (e EntityChangedEvent) EventID() string {
	return e.ID
}

func (e EntityChangedEvent) OccurredAt() time.Time {
	return e.Timestamp
}

func (e EntityChangedEvent) Payload() interface{} {
	return map[string]interface{}{
		"kind":      e.Kind,
		"entity_id": e.EntityID,
	}
}
