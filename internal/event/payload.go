package event

import (
	"strings"
	"time"
)

// Payload is the kind-specific body of an event. The set of implementations is
// closed; replay switches over them exhaustively.
type Payload interface {
	Kind() Kind
	Subkind() Subkind
	validate() error
}

// TimeSet sets the absolute narrative time.
type TimeSet struct {
	At time.Time `json:"at"`
}

func (TimeSet) Kind() Kind       { return KindTime }
func (TimeSet) Subkind() Subkind { return SubkindTimeInitial }

func (p TimeSet) validate() error {
	if p.At.IsZero() {
		return invalid("payload.at", "time is required")
	}
	return nil
}

// TimeDelta advances (or rewinds) the narrative clock.
type TimeDelta struct {
	Days    int `json:"days,omitempty"`
	Hours   int `json:"hours,omitempty"`
	Minutes int `json:"minutes,omitempty"`
	Seconds int `json:"seconds,omitempty"`
}

func (TimeDelta) Kind() Kind       { return KindTime }
func (TimeDelta) Subkind() Subkind { return SubkindTimeDelta }

func (p TimeDelta) validate() error { return nil }

// Duration returns the signed delta as a duration.
func (p TimeDelta) Duration() time.Duration {
	return time.Duration(p.Days)*24*time.Hour +
		time.Duration(p.Hours)*time.Hour +
		time.Duration(p.Minutes)*time.Minute +
		time.Duration(p.Seconds)*time.Second
}

// LocationMoved replaces the whole location and clears its props.
type LocationMoved struct {
	Area     string `json:"area"`
	Place    string `json:"place"`
	Position string `json:"position,omitempty"`
}

func (LocationMoved) Kind() Kind       { return KindLocation }
func (LocationMoved) Subkind() Subkind { return SubkindLocationMoved }

func (p LocationMoved) validate() error {
	if strings.TrimSpace(p.Area) == "" && strings.TrimSpace(p.Place) == "" {
		return invalid("payload", "area or place is required")
	}
	return nil
}

// LocationPatched replaces only the fields that are set.
type LocationPatched struct {
	Area     *string `json:"area,omitempty"`
	Place    *string `json:"place,omitempty"`
	Position *string `json:"position,omitempty"`
}

func (LocationPatched) Kind() Kind       { return KindLocation }
func (LocationPatched) Subkind() Subkind { return SubkindLocationPatched }

func (p LocationPatched) validate() error {
	if p.Area == nil && p.Place == nil && p.Position == nil {
		return invalid("payload", "at least one of area, place or position is required")
	}
	return nil
}

// PropChange adds or removes a prop at the current location.
type PropChange struct {
	Op   Subkind `json:"-"`
	Prop string  `json:"prop"`
}

func (PropChange) Kind() Kind         { return KindLocationProp }
func (p PropChange) Subkind() Subkind { return p.Op }

func (p PropChange) validate() error {
	if p.Op != SubkindPropAdded && p.Op != SubkindPropRemoved {
		return invalid("subkind", "unknown location_prop subkind %q", p.Op)
	}
	if strings.TrimSpace(p.Prop) == "" {
		return invalid("payload.prop", "prop is required")
	}
	return nil
}

// ClimateChanged records the weather produced by the climate simulation.
type ClimateChanged struct {
	Conditions   string   `json:"conditions"`
	TemperatureC *float64 `json:"temperature_c,omitempty"`
}

func (ClimateChanged) Kind() Kind       { return KindClimate }
func (ClimateChanged) Subkind() Subkind { return SubkindClimateChanged }

func (p ClimateChanged) validate() error {
	if strings.TrimSpace(p.Conditions) == "" {
		return invalid("payload.conditions", "conditions are required")
	}
	return nil
}

// CharacterChange mutates presence or sub-state of one character.
type CharacterChange struct {
	Op            Subkind `json:"-"`
	Character     string  `json:"character"`
	Slot          string  `json:"slot,omitempty"`
	NewValue      string  `json:"new_value,omitempty"`
	PreviousValue string  `json:"previous_value,omitempty"`
}

func (CharacterChange) Kind() Kind         { return KindCharacter }
func (p CharacterChange) Subkind() Subkind { return p.Op }

func (p CharacterChange) validate() error {
	if strings.TrimSpace(p.Character) == "" {
		return invalid("payload.character", "character is required")
	}
	switch p.Op {
	case SubkindAppeared, SubkindDeparted:
		return nil
	case SubkindPositionChanged, SubkindActivityChanged:
		return nil
	case SubkindOutfitChanged:
		if strings.TrimSpace(p.Slot) == "" {
			return invalid("payload.slot", "slot is required for outfit_changed")
		}
		return nil
	case SubkindMoodAdded, SubkindMoodRemoved, SubkindPhysicalStateAdded, SubkindPhysicalStateRemoved:
		if strings.TrimSpace(p.NewValue) == "" {
			return invalid("payload.new_value", "value is required for %s", p.Op)
		}
		return nil
	default:
		return invalid("subkind", "unknown character subkind %q", p.Op)
	}
}

// RelationshipChange mutates one directional attribute list of a pair, or
// proposes a new status for it.
type RelationshipChange struct {
	Op            Subkind `json:"-"`
	Pair          Pair    `json:"pair"`
	From          string  `json:"from,omitempty"`
	Toward        string  `json:"toward,omitempty"`
	Value         string  `json:"value"`
	PreviousValue string  `json:"previous_value,omitempty"`
}

func (RelationshipChange) Kind() Kind         { return KindRelationship }
func (p RelationshipChange) Subkind() Subkind { return p.Op }

func (p RelationshipChange) validate() error {
	if !p.Pair.Valid() {
		return invalid("payload.pair", "pair must name two distinct characters")
	}
	if strings.TrimSpace(p.Value) == "" {
		return invalid("payload.value", "value is required")
	}
	switch p.Op {
	case SubkindStatusChanged:
		return nil
	case SubkindFeelingAdded, SubkindFeelingRemoved,
		SubkindSecretAdded, SubkindSecretRemoved,
		SubkindWantAdded, SubkindWantRemoved:
		if !p.Pair.Has(p.From) {
			return invalid("payload.from", "from %q is not a member of %s", p.From, p.Pair)
		}
		if p.Toward != "" && p.Toward != p.Pair.Other(p.From) {
			return invalid("payload.toward", "toward %q is not the other member of %s", p.Toward, p.Pair)
		}
		return nil
	default:
		return invalid("subkind", "unknown relationship subkind %q", p.Op)
	}
}

// SceneChange mutates topic, tone or tension of the scene.
type SceneChange struct {
	Op    Subkind      `json:"-"`
	Value string       `json:"value,omitempty"`
	Level TensionLevel `json:"level,omitempty"`
	Type  TensionType  `json:"type,omitempty"`
}

func (SceneChange) Kind() Kind         { return KindScene }
func (p SceneChange) Subkind() Subkind { return p.Op }

func (p SceneChange) validate() error {
	switch p.Op {
	case SubkindTopicChanged, SubkindToneChanged:
		if strings.TrimSpace(p.Value) == "" {
			return invalid("payload.value", "value is required for %s", p.Op)
		}
		return nil
	case SubkindTensionChanged:
		if _, ok := p.Level.Rank(); !ok {
			return invalid("payload.level", "unknown tension level %q", p.Level)
		}
		if !p.Type.Valid() {
			return invalid("payload.type", "unknown tension type %q", p.Type)
		}
		return nil
	default:
		return invalid("subkind", "unknown scene subkind %q", p.Op)
	}
}

// EndReason explains why a chapter was closed.
type EndReason string

const (
	EndLocationChange EndReason = "location_change"
	EndTimeJump       EndReason = "time_jump"
	EndBoth           EndReason = "both"
	EndManual         EndReason = "manual"
)

// Valid reports whether r is a known end reason.
func (r EndReason) Valid() bool {
	switch r {
	case EndLocationChange, EndTimeJump, EndBoth, EndManual:
		return true
	}
	return false
}

// ChapterEnded closes the chapter with the given index.
type ChapterEnded struct {
	Index  int       `json:"index"`
	Reason EndReason `json:"reason"`
}

func (ChapterEnded) Kind() Kind       { return KindChapter }
func (ChapterEnded) Subkind() Subkind { return SubkindChapterEnded }

func (p ChapterEnded) validate() error {
	if p.Index < 0 {
		return invalid("payload.index", "index must not be negative")
	}
	if !p.Reason.Valid() {
		return invalid("payload.reason", "unknown end reason %q", p.Reason)
	}
	return nil
}

// ChapterDescribed titles and summarizes the chapter with the given index.
type ChapterDescribed struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
}

func (ChapterDescribed) Kind() Kind       { return KindChapter }
func (ChapterDescribed) Subkind() Subkind { return SubkindChapterDescribed }

func (p ChapterDescribed) validate() error {
	if p.Index < 0 {
		return invalid("payload.index", "index must not be negative")
	}
	if strings.TrimSpace(p.Title) == "" && strings.TrimSpace(p.Summary) == "" {
		return invalid("payload", "title or summary is required")
	}
	return nil
}

// NarrativeDescribed records a notable narrative beat.
type NarrativeDescribed struct {
	Description string `json:"description"`
}

func (NarrativeDescribed) Kind() Kind       { return KindNarrative }
func (NarrativeDescribed) Subkind() Subkind { return SubkindNarrative }

func (p NarrativeDescribed) validate() error {
	if strings.TrimSpace(p.Description) == "" {
		return invalid("payload.description", "description is required")
	}
	return nil
}

// SubjectRecorded tags a relationship-relevant occurrence for a pair.
type SubjectRecorded struct {
	Pair    Pair   `json:"pair"`
	Subject string `json:"subject"`
}

func (SubjectRecorded) Kind() Kind       { return KindRelationshipSubject }
func (SubjectRecorded) Subkind() Subkind { return SubkindSubjectRecorded }

func (p SubjectRecorded) validate() error {
	if !p.Pair.Valid() {
		return invalid("payload.pair", "pair must name two distinct characters")
	}
	if strings.TrimSpace(p.Subject) == "" {
		return invalid("payload.subject", "subject is required")
	}
	return nil
}
