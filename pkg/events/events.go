// Package events defines the domain events emitted after template and recipe changes commit.
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

type EventType string

// Event is implemented by every domain event. PartitionKey names the aggregate whose events
// must stay in order: the map template for template events, the recipe for recipe events.
type Event interface {
	GetType() EventType
	PartitionKey() string
}

// Topic carries every recipemap domain event.
const Topic = "recipemap.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Template lifecycle events.
	TemplateCreatedEvent    EventType = "template.created"
	TemplateOverriddenEvent EventType = "template.overridden"
	BlacklistReplacedEvent  EventType = "blacklist.replaced"

	// Recipe lifecycle events.
	RecipeCreatedEvent               EventType = "recipe.created"
	RecipeProcessesInstantiatedEvent EventType = "recipe.processes.instantiated"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type TemplateCreated struct {
	BaseEvent

	MapTemplateID string `json:"map_template_id"`
	TemplateID    string `json:"template_id"`
	Identifier    string `json:"identifier"`
	Version       int    `json:"version"`
}

func (e TemplateCreated) GetType() EventType {
	return TemplateCreatedEvent
}

func (e TemplateCreated) PartitionKey() string {
	return e.MapTemplateID
}

type TemplateOverridden struct {
	BaseEvent

	MapTemplateID string `json:"map_template_id"`
	PreviousID    string `json:"previous_id"`
	TemplateID    string `json:"template_id"`
	FirstVersion  string `json:"first_version"`
	Version       int    `json:"version"`
}

func (e TemplateOverridden) GetType() EventType {
	return TemplateOverriddenEvent
}

func (e TemplateOverridden) PartitionKey() string {
	return e.MapTemplateID
}

type BlacklistReplaced struct {
	BaseEvent

	MapTemplateID string `json:"map_template_id"`
	TemplateID    string `json:"template_id"`
	Deleted       int64  `json:"deleted"`
	Inserted      int    `json:"inserted"`
}

func (e BlacklistReplaced) GetType() EventType {
	return BlacklistReplacedEvent
}

func (e BlacklistReplaced) PartitionKey() string {
	return e.MapTemplateID
}

type RecipeCreated struct {
	BaseEvent

	RecipeID string `json:"recipe_id"`
	AgentID  string `json:"agent_id"`
}

func (e RecipeCreated) GetType() EventType {
	return RecipeCreatedEvent
}

func (e RecipeCreated) PartitionKey() string {
	return e.RecipeID
}

type RecipeProcessesInstantiated struct {
	BaseEvent

	RecipeID   string   `json:"recipe_id"`
	ProcessIDs []string `json:"process_ids"`
	EdgeCount  int      `json:"edge_count"`
}

func (e RecipeProcessesInstantiated) GetType() EventType {
	return RecipeProcessesInstantiatedEvent
}

func (e RecipeProcessesInstantiated) PartitionKey() string {
	return e.RecipeID
}

// Decode unmarshals payload into the event type named by eventType.
func Decode(eventType EventType, payload []byte) (Event, error) {
	var event Event

	switch eventType {
	case TemplateCreatedEvent:
		event = &TemplateCreated{}
	case TemplateOverriddenEvent:
		event = &TemplateOverridden{}
	case BlacklistReplacedEvent:
		event = &BlacklistReplaced{}
	case RecipeCreatedEvent:
		event = &RecipeCreated{}
	case RecipeProcessesInstantiatedEvent:
		event = &RecipeProcessesInstantiated{}
	default:
		return nil, fmt.Errorf("unknown event type %q", eventType)
	}

	err := json.Unmarshal(payload, event)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", eventType, err)
	}

	return event, nil
}
