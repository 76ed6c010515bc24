package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// record is the wire envelope shared by the persistence layer, batch files and
// the MCP tools.
type record struct {
	ID        string          `json:"id,omitempty"`
	Seq       uint64          `json:"seq,omitempty"`
	Origin    *wireOrigin     `json:"origin"`
	Timestamp *time.Time      `json:"timestamp,omitempty"`
	Step      string          `json:"step,omitempty"`
	Kind      Kind            `json:"kind"`
	Subkind   Subkind         `json:"subkind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type wireOrigin struct {
	TurnID   *int `json:"turn_id"`
	BranchID int  `json:"branch_id"`
}

// MarshalJSON encodes the event as a {kind, subkind, payload} envelope.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, invalid("payload", "payload is required")
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	turnID := e.Origin.TurnID
	rec := record{
		ID:      e.ID,
		Seq:     e.Seq,
		Origin:  &wireOrigin{TurnID: &turnID, BranchID: e.Origin.BranchID},
		Step:    e.Step,
		Kind:    e.Kind(),
		Subkind: e.Subkind(),
		Payload: payload,
	}
	if !e.Timestamp.IsZero() {
		ts := e.Timestamp.UTC()
		rec.Timestamp = &ts
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes an envelope and its kind-specific payload. A missing
// origin or turn id is reported as a validation error.
func (e *Event) UnmarshalJSON(data []byte) error {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("decoding event: %w", err)
	}
	if rec.Origin == nil || rec.Origin.TurnID == nil {
		return invalid("origin.turn_id", "turn id is required")
	}
	payload, err := DecodePayload(rec.Kind, rec.Subkind, rec.Payload)
	if err != nil {
		return err
	}
	decoded := Event{
		ID:      rec.ID,
		Seq:     rec.Seq,
		Origin:  Origin{TurnID: *rec.Origin.TurnID, BranchID: rec.Origin.BranchID},
		Step:    rec.Step,
		Payload: payload,
	}
	if rec.Timestamp != nil {
		decoded.Timestamp = rec.Timestamp.UTC()
	}
	*e = decoded
	return nil
}

// DecodePayload builds the payload for kind/subkind from its JSON body.
func DecodePayload(kind Kind, subkind Subkind, raw json.RawMessage) (Payload, error) {
	body := bytes.TrimSpace(raw)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		body = []byte("{}")
	}

	switch kind {
	case KindTime:
		switch subkind {
		case SubkindTimeInitial:
			var p TimeSet
			return decodeInto(body, &p)
		case SubkindTimeDelta:
			var p TimeDelta
			return decodeInto(body, &p)
		}
	case KindLocation:
		switch subkind {
		case SubkindLocationMoved:
			var p LocationMoved
			return decodeInto(body, &p)
		case SubkindLocationPatched:
			var p LocationPatched
			return decodeInto(body, &p)
		}
	case KindLocationProp:
		p := PropChange{Op: subkind}
		return decodeInto(body, &p)
	case KindClimate:
		if subkind == SubkindClimateChanged {
			var p ClimateChanged
			return decodeInto(body, &p)
		}
	case KindCharacter:
		p := CharacterChange{Op: subkind}
		return decodeInto(body, &p)
	case KindRelationship:
		p := RelationshipChange{Op: subkind}
		return decodeInto(body, &p)
	case KindScene:
		p := SceneChange{Op: subkind}
		return decodeInto(body, &p)
	case KindChapter:
		switch subkind {
		case SubkindChapterEnded:
			var p ChapterEnded
			return decodeInto(body, &p)
		case SubkindChapterDescribed:
			var p ChapterDescribed
			return decodeInto(body, &p)
		}
	case KindNarrative:
		if subkind == SubkindNarrative {
			var p NarrativeDescribed
			return decodeInto(body, &p)
		}
	case KindRelationshipSubject:
		if subkind == SubkindSubjectRecorded {
			var p SubjectRecorded
			return decodeInto(body, &p)
		}
	default:
		return nil, invalid("kind", "unknown kind %q", kind)
	}
	return nil, invalid("subkind", "unknown %s subkind %q", kind, subkind)
}

func decodeInto[T Payload](body []byte, target *T) (Payload, error) {
	if err := json.Unmarshal(body, target); err != nil {
		return nil, invalid("payload", "%v", err)
	}
	return *target, nil
}
