// Package projection folds active events into a point-in-time scene state.
package projection

import (
	"maps"
	"slices"
	"time"

	"scenecraft/internal/event"
	"scenecraft/internal/relstatus"
)

// Projection is the materialized scene state as of Turn. Consumers must treat
// it as read-only; use Clone before mutating.
type Projection struct {
	Turn          int                          `json:"turn"`
	Time          *time.Time                   `json:"time,omitempty"`
	Location      Location                     `json:"location"`
	Climate       *Climate                     `json:"climate,omitempty"`
	Characters    map[string]*Character        `json:"characters"`
	Present       []string                     `json:"present"`
	Relationships map[event.Pair]*Relationship `json:"relationships"`
	Scene         Scene                        `json:"scene"`
	Chapter       int                          `json:"chapter"`
	Narrative     []NarrativeEntry             `json:"narrative"`
}

type Location struct {
	Area     string   `json:"area,omitempty"`
	Place    string   `json:"place,omitempty"`
	Position string   `json:"position,omitempty"`
	Props    []string `json:"props,omitempty"`
}

// IsZero reports whether no location has been set.
func (l Location) IsZero() bool {
	return l.Area == "" && l.Place == "" && l.Position == "" && len(l.Props) == 0
}

type Climate struct {
	Conditions   string   `json:"conditions"`
	TemperatureC *float64 `json:"temperature_c,omitempty"`
}

type Character struct {
	Name           string            `json:"name"`
	Position       string            `json:"position,omitempty"`
	Activity       string            `json:"activity,omitempty"`
	Moods          []string          `json:"moods,omitempty"`
	PhysicalStates []string          `json:"physical_states,omitempty"`
	Outfit         map[string]string `json:"outfit,omitempty"`
}

// Attitude holds what one member of a pair feels, hides and wants toward the other.
type Attitude struct {
	Toward   string   `json:"toward"`
	Feelings []string `json:"feelings,omitempty"`
	Secrets  []string `json:"secrets,omitempty"`
	Wants    []string `json:"wants,omitempty"`
}

type Relationship struct {
	Pair       event.Pair           `json:"pair"`
	Status     relstatus.Status     `json:"status"`
	Attitudes  map[string]*Attitude `json:"attitudes,omitempty"`
	Milestones []string             `json:"milestones,omitempty"`
}

// MilestoneSet returns the subjects recorded for the pair.
func (r *Relationship) MilestoneSet() relstatus.SubjectSet {
	return relstatus.NewSubjectSet(r.Milestones...)
}

type Tension struct {
	Level     event.TensionLevel     `json:"level"`
	Type      event.TensionType      `json:"type"`
	Direction event.TensionDirection `json:"direction"`
}

// DefaultTension is the tension of a scene before any tension event.
func DefaultTension() Tension {
	return Tension{Level: event.TensionRelaxed, Type: event.TensionConversation, Direction: event.TensionStable}
}

type Scene struct {
	Topic   string  `json:"topic,omitempty"`
	Tone    string  `json:"tone,omitempty"`
	Tension Tension `json:"tension"`

	// tensionSet is false until the first tension event.
	tensionSet bool
}

// EntryKind distinguishes narrative list entries.
type EntryKind string

const (
	EntryDescription EntryKind = "description"
	EntrySubject     EntryKind = "subject"
)

// NarrativeEntry is one narrative or subject event, in replay order.
type NarrativeEntry struct {
	EventID     string     `json:"event_id"`
	Turn        int        `json:"turn"`
	Kind        EntryKind  `json:"kind"`
	Description string     `json:"description,omitempty"`
	Pair        event.Pair `json:"pair,omitzero"`
	Subject     string     `json:"subject,omitempty"`
}

// Empty returns the projection of an empty event set.
func Empty() Projection {
	return Projection{
		Turn:          -1,
		Characters:    make(map[string]*Character),
		Present:       []string{},
		Relationships: make(map[event.Pair]*Relationship),
		Scene:         Scene{Tension: DefaultTension()},
		Narrative:     []NarrativeEntry{},
	}
}

// Clone returns a deep copy of p.
func (p Projection) Clone() Projection {
	out := p
	if p.Time != nil {
		t := *p.Time
		out.Time = &t
	}
	out.Location.Props = slices.Clone(p.Location.Props)
	if p.Climate != nil {
		c := *p.Climate
		if c.TemperatureC != nil {
			temp := *c.TemperatureC
			c.TemperatureC = &temp
		}
		out.Climate = &c
	}
	out.Characters = make(map[string]*Character, len(p.Characters))
	for name, c := range p.Characters {
		cp := *c
		cp.Moods = slices.Clone(c.Moods)
		cp.PhysicalStates = slices.Clone(c.PhysicalStates)
		cp.Outfit = maps.Clone(c.Outfit)
		out.Characters[name] = &cp
	}
	out.Present = slices.Clone(p.Present)
	if out.Present == nil {
		out.Present = []string{}
	}
	out.Relationships = make(map[event.Pair]*Relationship, len(p.Relationships))
	for pair, r := range p.Relationships {
		rp := *r
		rp.Milestones = slices.Clone(r.Milestones)
		if r.Attitudes != nil {
			rp.Attitudes = make(map[string]*Attitude, len(r.Attitudes))
			for from, a := range r.Attitudes {
				ap := *a
				ap.Feelings = slices.Clone(a.Feelings)
				ap.Secrets = slices.Clone(a.Secrets)
				ap.Wants = slices.Clone(a.Wants)
				rp.Attitudes[from] = &ap
			}
		}
		out.Relationships[pair] = &rp
	}
	out.Narrative = slices.Clone(p.Narrative)
	if out.Narrative == nil {
		out.Narrative = []NarrativeEntry{}
	}
	return out
}

// IsPresent reports whether name is currently in the scene.
func (p Projection) IsPresent(name string) bool {
	_, found := slices.BinarySearch(p.Present, name)
	return found
}

// Relationship returns the state of the pair, if any.
func (p Projection) Relationship(a, b string) (*Relationship, bool) {
	r, ok := p.Relationships[event.NewPair(a, b)]
	return r, ok
}
