package sync

import (
	"encoding/json"
	"fmt"
)

// Event names delivered by the remote webhook source.
const (
	EventItemAdded     = "item:added"
	EventItemUpdated   = "item:updated"
	EventItemCompleted = "item:completed"
)

// Event is one inbound webhook delivery. The payload carries only the
// remote id; content is re-fetched from the remote service, never trusted
// from the payload body.
type Event struct {
	Name string    `json:"event_name"`
	Data EventData `json:"event_data"`
}

// EventData carries the remote task id the event refers to.
type EventData struct {
	ID string `json:"id"`
}

// Validate checks the event carries a known name and a remote id.
func (e *Event) Validate() error {
	switch e.Name {
	case EventItemAdded, EventItemUpdated, EventItemCompleted:
	case "":
		return fmt.Errorf("event_name is required")
	default:
		return fmt.Errorf("unknown event_name %q", e.Name)
	}
	if e.Data.ID == "" {
		return fmt.Errorf("event_data.id is required")
	}
	return nil
}

// ParseEvent decodes and validates a webhook payload.
func ParseEvent(payload []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("failed to parse event payload: %w", err)
	}
	if err := ev.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}
	return &ev, nil
}
