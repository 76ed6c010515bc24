// Package parser reads event batch documents written in YAML or JSON.
//
// A document is either a list of events or a mapping with an optional chat id
// and an events list:
//
//	chat: tavern-night
//	events:
//	  - origin: {turn_id: 3}
//	    kind: character
//	    subkind: appeared
//	    payload: {character: Ana}
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"scenecraft/internal/event"
)

type Document struct {
	Chat       string
	Events     []event.Event
	Errors     []ItemError
	SourceFile string
}

// ItemError is one entry of the document that could not be decoded.
type ItemError struct {
	Index int
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e ItemError) Unwrap() error {
	return e.Err
}

var (
	ErrEmptyDocument = errors.New("document is empty")
	ErrInvalidYAML   = errors.New("invalid YAML in event batch")
	ErrNoEvents      = errors.New("document has no 'events' list")
)

func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	doc.SourceFile = path
	return doc, nil
}

// Parse decodes a batch. Items that fail to decode are reported in
// Document.Errors; the well-formed ones are still returned.
func Parse(content []byte) (*Document, error) {
	trimmed := bytes.TrimLeft(content, "\ufeff\n\r\t ")
	if len(trimmed) == 0 {
		return nil, ErrEmptyDocument
	}

	var root any
	if err := yaml.Unmarshal(trimmed, &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	doc := &Document{}
	var items []any
	switch v := root.(type) {
	case nil:
		return nil, ErrEmptyDocument
	case []any:
		items = v
	case map[string]any:
		chat, err := optionalString(v["chat"])
		if err != nil {
			return nil, err
		}
		doc.Chat = chat
		list, ok := v["events"].([]any)
		if !ok {
			return nil, ErrNoEvents
		}
		items = list
	default:
		return nil, fmt.Errorf("document must be a list of events or a mapping, got %T", root)
	}

	for i, item := range items {
		e, err := DecodeItem(item)
		if err != nil {
			doc.Errors = append(doc.Errors, ItemError{Index: i, Err: err})
			continue
		}
		doc.Events = append(doc.Events, e)
	}
	return doc, nil
}

// DecodeItem decodes one generic YAML or JSON value in the event envelope
// form. The value is routed through the JSON wire codec.
func DecodeItem(item any) (event.Event, error) {
	if _, ok := item.(map[string]any); !ok {
		return event.Event{}, fmt.Errorf("event must be a mapping, got %T", item)
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return event.Event{}, fmt.Errorf("re-encoding event: %w", err)
	}
	var e event.Event
	if err := json.Unmarshal(raw, &e); err != nil {
		return event.Event{}, err
	}
	return e, nil
}

func optionalString(value any) (string, error) {
	if value == nil {
		return "", nil
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("chat must be a string")
	}
	return strings.TrimSpace(s), nil
}
