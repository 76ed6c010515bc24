// Package event defines the immutable facts recorded in the scene journal.
//
// Every event is stamped with the Origin it was extracted from: the turn of the
// chat and the branch (swipe) at that turn. Events never change after they are
// appended; a branch that stops being canonical simply makes its events
// inactive.
package event

import (
	"time"
)

// Kind identifies the family of state an event mutates.
type Kind string

const (
	KindTime                Kind = "time"
	KindLocation            Kind = "location"
	KindLocationProp        Kind = "location_prop"
	KindClimate             Kind = "climate"
	KindCharacter           Kind = "character"
	KindRelationship        Kind = "relationship"
	KindScene               Kind = "scene"
	KindChapter             Kind = "chapter"
	KindNarrative           Kind = "narrative"
	KindRelationshipSubject Kind = "relationship_subject"
)

// Subkind discriminates the specific mutation within a Kind.
type Subkind string

// Time subkinds.
const (
	SubkindTimeInitial Subkind = "initial"
	SubkindTimeDelta   Subkind = "delta"
)

// Location subkinds.
const (
	SubkindLocationMoved   Subkind = "moved"
	SubkindLocationPatched Subkind = "patched"
	SubkindPropAdded       Subkind = "prop_added"
	SubkindPropRemoved     Subkind = "prop_removed"
)

// Climate subkinds.
const (
	SubkindClimateChanged Subkind = "changed"
)

// Character subkinds.
const (
	SubkindAppeared             Subkind = "appeared"
	SubkindDeparted             Subkind = "departed"
	SubkindPositionChanged      Subkind = "position_changed"
	SubkindActivityChanged      Subkind = "activity_changed"
	SubkindOutfitChanged        Subkind = "outfit_changed"
	SubkindMoodAdded            Subkind = "mood_added"
	SubkindMoodRemoved          Subkind = "mood_removed"
	SubkindPhysicalStateAdded   Subkind = "physical_state_added"
	SubkindPhysicalStateRemoved Subkind = "physical_state_removed"
)

// Relationship subkinds.
const (
	SubkindFeelingAdded   Subkind = "feeling_added"
	SubkindFeelingRemoved Subkind = "feeling_removed"
	SubkindSecretAdded    Subkind = "secret_added"
	SubkindSecretRemoved  Subkind = "secret_removed"
	SubkindWantAdded      Subkind = "want_added"
	SubkindWantRemoved    Subkind = "want_removed"
	SubkindStatusChanged  Subkind = "status_changed"
)

// Scene subkinds.
const (
	SubkindTopicChanged   Subkind = "topic_changed"
	SubkindToneChanged    Subkind = "tone_changed"
	SubkindTensionChanged Subkind = "tension_changed"
)

// Chapter, narrative and subject subkinds.
const (
	SubkindChapterEnded     Subkind = "ended"
	SubkindChapterDescribed Subkind = "described"
	SubkindNarrative        Subkind = "described"
	SubkindSubjectRecorded  Subkind = "recorded"
)

// Origin locates an event in the branching turn tree.
type Origin struct {
	TurnID   int `json:"turn_id" yaml:"turn_id"`
	BranchID int `json:"branch_id" yaml:"branch_id"`
}

// Event is an immutable fact in the scene journal.
type Event struct {
	// ID is the unique identity of the event. Assigned on append when empty.
	ID string
	// Seq is the insertion sequence within the journal (starts at 1).
	// Assigned on append; it is the only tie-breaker within a turn.
	Seq uint64
	// Origin is the turn and branch the event was extracted from.
	Origin Origin
	// Timestamp is the wall-clock time of the append. Audit only.
	Timestamp time.Time
	// Step names the extraction step that produced the event, if any.
	Step string
	// Payload carries the kind-specific mutation.
	Payload Payload
}

// Kind returns the payload kind, or the empty kind when no payload is set.
func (e Event) Kind() Kind {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Kind()
}

// Subkind returns the payload subkind, or the empty subkind when no payload is set.
func (e Event) Subkind() Subkind {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.Subkind()
}

// Matches reports whether the event has the given kind and, when subkind is
// non-empty, the given subkind.
func (e Event) Matches(kind Kind, subkind Subkind) bool {
	if e.Kind() != kind {
		return false
	}
	return subkind == "" || e.Subkind() == subkind
}

// Before reports whether e replays before other: turn ascending, then Seq.
func (e Event) Before(other Event) bool {
	if e.Origin.TurnID != other.Origin.TurnID {
		return e.Origin.TurnID < other.Origin.TurnID
	}
	return e.Seq < other.Seq
}

// Compare orders events for replay. It is suitable for slices.SortStableFunc.
func Compare(a, b Event) int {
	switch {
	case a.Origin.TurnID < b.Origin.TurnID:
		return -1
	case a.Origin.TurnID > b.Origin.TurnID:
		return 1
	case a.Seq < b.Seq:
		return -1
	case a.Seq > b.Seq:
		return 1
	default:
		return 0
	}
}
