// Package contracts holds the published event contract and validates outgoing
// CloudEvents payloads against it.
package contracts

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/wms-platform/shipment-service/pkg/cloudevents"
)

//go:embed events.yaml
var eventsSpec []byte

// eventTypeKey marks the event type a component schema describes
const eventTypeKey = "x-event-type"

// ErrUnknownEventType is returned for events that have no schema in the contract
var ErrUnknownEventType = errors.New("no schema for event type")

type asyncAPIDocument struct {
	AsyncAPI   string `yaml:"asyncapi"`
	Components struct {
		Schemas map[string]map[string]interface{} `yaml:"schemas"`
	} `yaml:"components"`
}

// EventValidator validates CloudEvent data against compiled JSON schemas,
// keyed by event type.
type EventValidator struct {
	schemas map[string]*jsonschema.Schema
}

// NewEventValidator compiles the embedded event contract
func NewEventValidator() (*EventValidator, error) {
	return NewEventValidatorFromBytes(eventsSpec)
}

// NewEventValidatorFromBytes compiles the component schemas of an AsyncAPI
// document. Only schemas carrying x-event-type are registered.
func NewEventValidatorFromBytes(spec []byte) (*EventValidator, error) {
	var doc asyncAPIDocument
	if err := yaml.Unmarshal(spec, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse event contract: %w", err)
	}

	v := &EventValidator{schemas: make(map[string]*jsonschema.Schema)}
	for name, raw := range doc.Components.Schemas {
		eventType, _ := raw[eventTypeKey].(string)
		if eventType == "" {
			continue
		}
		if err := v.RegisterSchema(name, eventType, raw); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// RegisterSchema compiles schema and binds it to eventType, replacing any
// schema registered earlier for the same type
func (v *EventValidator) RegisterSchema(name, eventType string, schema map[string]interface{}) error {
	body := make(map[string]interface{}, len(schema))
	for k, val := range schema {
		if k != eventTypeKey {
			body[k] = val
		}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode schema %s: %w", name, err)
	}
	parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to decode schema %s: %w", name, err)
	}

	uri := fmt.Sprintf("https://contracts.shipment-service/schemas/%s.json", name)
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(uri, parsed); err != nil {
		return fmt.Errorf("failed to add schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(uri)
	if err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	v.schemas[eventType] = compiled
	return nil
}

// Validate checks the event's data against the schema for its type
func (v *EventValidator) Validate(event *cloudevents.CloudEvent) error {
	if event == nil || event.Type == "" {
		return errors.New("event type is required")
	}
	schema, ok := v.schemas[event.Type]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEventType, event.Type)
	}
	if event.Data == nil {
		return fmt.Errorf("event %s has no data", event.Type)
	}

	// round trip through JSON so the validator sees plain JSON values
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to encode %s data: %w", event.Type, err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to decode %s data: %w", event.Type, err)
	}

	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("event data validation failed for type %s: %w", event.Type, err)
	}
	return nil
}

// ValidateJSON validates a serialized CloudEvent
func (v *EventValidator) ValidateJSON(payload []byte) error {
	var event cloudevents.CloudEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse CloudEvent: %w", err)
	}
	return v.Validate(&event)
}

func (v *EventValidator) HasSchema(eventType string) bool {
	_, ok := v.schemas[eventType]
	return ok
}

// EventTypes lists the registered event types in sorted order
func (v *EventValidator) EventTypes() []string {
	types := make([]string, 0, len(v.schemas))
	for t := range v.schemas {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
