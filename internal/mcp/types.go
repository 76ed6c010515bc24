package mcp

import (
	"maps"
	"slices"
	"strings"
	"time"

	"scenecraft/internal/chapter"
	"scenecraft/internal/event"
	"scenecraft/internal/projection"
)

type AppendEventsInput struct {
	Events         []map[string]any `json:"events" jsonschema:"events as {origin: {turn_id, branch_id}, step, kind, subkind, payload}"`
	DetectChapters bool             `json:"detect_chapters,omitempty" jsonschema:"close the open chapter on a location change or time jump"`
}

type SelectBranchInput struct {
	Turn   int `json:"turn" jsonschema:"turn id"`
	Branch int `json:"branch" jsonschema:"branch (swipe) id to make canonical"`
}

type GetProjectionInput struct {
	Turn *int `json:"turn,omitempty" jsonschema:"turn to project to; defaults to the latest turn"`
}

type ListChaptersInput struct {
	ClosedOnly bool `json:"closed_only,omitempty" jsonschema:"omit the open chapter"`
}

type ListMilestonesInput struct {
	Pair []string `json:"pair,omitempty" jsonschema:"restrict to one pair of characters"`
}

type ShouldRunInput struct {
	Step string `json:"step" jsonschema:"extraction step name"`
	Turn int    `json:"turn" jsonschema:"turn being processed"`
	Role string `json:"role,omitempty" jsonschema:"human or generated"`
}

type GateStatusInput struct {
	A        string `json:"a" jsonschema:"first character"`
	B        string `json:"b" jsonschema:"second character"`
	Proposed string `json:"proposed" jsonschema:"proposed status label"`
}

type AppendedOutput struct {
	ID      string `json:"id"`
	Seq     uint64 `json:"seq"`
	Turn    int    `json:"turn"`
	Branch  int    `json:"branch"`
	Kind    string `json:"kind"`
	Subkind string `json:"subkind"`
}

type RejectedOutput struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

type AppendEventsOutput struct {
	Appended       []AppendedOutput `json:"appended"`
	Rejected       []RejectedOutput `json:"rejected"`
	ChaptersClosed []AppendedOutput `json:"chapters_closed,omitempty"`
}

type SelectBranchOutput struct {
	Turn      int            `json:"turn"`
	Branch    int            `json:"branch"`
	Canonical map[string]int `json:"canonical"`
}

type LocationOutput struct {
	Area     string   `json:"area,omitempty"`
	Place    string   `json:"place,omitempty"`
	Position string   `json:"position,omitempty"`
	Props    []string `json:"props"`
}

type ClimateOutput struct {
	Conditions   string   `json:"conditions"`
	TemperatureC *float64 `json:"temperature_c,omitempty"`
}

type CharacterOutput struct {
	Name           string            `json:"name"`
	Present        bool              `json:"present"`
	Position       string            `json:"position,omitempty"`
	Activity       string            `json:"activity,omitempty"`
	Moods          []string          `json:"moods"`
	PhysicalStates []string          `json:"physical_states"`
	Outfit         map[string]string `json:"outfit"`
}

type AttitudeOutput struct {
	From     string   `json:"from"`
	Toward   string   `json:"toward"`
	Feelings []string `json:"feelings"`
	Secrets  []string `json:"secrets"`
	Wants    []string `json:"wants"`
}

type RelationshipOutput struct {
	Pair       []string         `json:"pair"`
	Status     string           `json:"status"`
	Attitudes  []AttitudeOutput `json:"attitudes"`
	Milestones []string         `json:"milestones"`
}

type TensionOutput struct {
	Level     string `json:"level"`
	Type      string `json:"type"`
	Direction string `json:"direction"`
}

type SceneOutput struct {
	Topic   string        `json:"topic,omitempty"`
	Tone    string        `json:"tone,omitempty"`
	Tension TensionOutput `json:"tension"`
}

type NarrativeOutput struct {
	EventID     string   `json:"event_id"`
	Turn        int      `json:"turn"`
	Kind        string   `json:"kind"`
	Description string   `json:"description,omitempty"`
	Pair        []string `json:"pair,omitempty"`
	Subject     string   `json:"subject,omitempty"`
}

type ProjectionOutput struct {
	Turn          int                  `json:"turn"`
	Time          string               `json:"time,omitempty"`
	Location      LocationOutput       `json:"location"`
	Climate       *ClimateOutput       `json:"climate,omitempty"`
	Characters    []CharacterOutput    `json:"characters"`
	Relationships []RelationshipOutput `json:"relationships"`
	Scene         SceneOutput          `json:"scene"`
	Chapter       int                  `json:"chapter"`
	Narrative     []NarrativeOutput    `json:"narrative"`
}

type SubjectOutput struct {
	Pair        []string `json:"pair"`
	Subject     string   `json:"subject"`
	IsMilestone bool     `json:"is_milestone"`
}

type NarrativeEventOutput struct {
	Turn        int             `json:"turn"`
	Description string          `json:"description,omitempty"`
	Witnesses   []string        `json:"witnesses"`
	Location    LocationOutput  `json:"location"`
	Tension     TensionOutput   `json:"tension"`
	Subjects    []SubjectOutput `json:"subjects"`
}

type ChapterOutput struct {
	Index     int                    `json:"index"`
	Title     string                 `json:"title"`
	Summary   string                 `json:"summary"`
	StartTurn int                    `json:"start_turn"`
	EndTurn   int                    `json:"end_turn"`
	EndReason string                 `json:"end_reason,omitempty"`
	Open      bool                   `json:"open"`
	Events    []NarrativeEventOutput `json:"events"`
}

type ListChaptersOutput struct {
	Chapters []ChapterOutput `json:"chapters"`
}

type MilestoneOutput struct {
	Pair    []string `json:"pair"`
	Subject string   `json:"subject"`
	Turn    int      `json:"turn"`
	EventID string   `json:"event_id"`
}

type ListMilestonesOutput struct {
	Milestones []MilestoneOutput `json:"milestones"`
}

type ShouldRunOutput struct {
	Step     string `json:"step"`
	Turn     int    `json:"turn"`
	Strategy string `json:"strategy"`
	Run      bool   `json:"run"`
}

type GateStatusOutput struct {
	Current  string `json:"current"`
	Proposed string `json:"proposed"`
	Result   string `json:"result"`
	Changed  bool   `json:"changed"`
}

func appendedOutputFromEvent(e event.Event) AppendedOutput {
	return AppendedOutput{
		ID:      e.ID,
		Seq:     e.Seq,
		Turn:    e.Origin.TurnID,
		Branch:  e.Origin.BranchID,
		Kind:    string(e.Kind()),
		Subkind: string(e.Subkind()),
	}
}

func pairOutput(p event.Pair) []string {
	return []string{p[0], p[1]}
}

func locationOutputFromProjection(l projection.Location) LocationOutput {
	return LocationOutput{
		Area:     l.Area,
		Place:    l.Place,
		Position: l.Position,
		Props:    append([]string{}, l.Props...),
	}
}

func tensionOutputFromProjection(t projection.Tension) TensionOutput {
	return TensionOutput{Level: string(t.Level), Type: string(t.Type), Direction: string(t.Direction)}
}

func projectionOutputFromProjection(p projection.Projection) ProjectionOutput {
	out := ProjectionOutput{
		Turn:          p.Turn,
		Location:      locationOutputFromProjection(p.Location),
		Characters:    make([]CharacterOutput, 0, len(p.Characters)),
		Relationships: make([]RelationshipOutput, 0, len(p.Relationships)),
		Scene: SceneOutput{
			Topic:   p.Scene.Topic,
			Tone:    p.Scene.Tone,
			Tension: tensionOutputFromProjection(p.Scene.Tension),
		},
		Chapter:   p.Chapter,
		Narrative: make([]NarrativeOutput, 0, len(p.Narrative)),
	}
	if p.Time != nil {
		out.Time = p.Time.UTC().Format(time.RFC3339)
	}
	if p.Climate != nil {
		out.Climate = &ClimateOutput{Conditions: p.Climate.Conditions, TemperatureC: p.Climate.TemperatureC}
	}

	for _, name := range slices.Sorted(maps.Keys(p.Characters)) {
		c := p.Characters[name]
		outfit := make(map[string]string, len(c.Outfit))
		for slot, item := range c.Outfit {
			outfit[slot] = item
		}
		out.Characters = append(out.Characters, CharacterOutput{
			Name:           c.Name,
			Present:        p.IsPresent(name),
			Position:       c.Position,
			Activity:       c.Activity,
			Moods:          append([]string{}, c.Moods...),
			PhysicalStates: append([]string{}, c.PhysicalStates...),
			Outfit:         outfit,
		})
	}

	pairs := make([]event.Pair, 0, len(p.Relationships))
	for pair := range p.Relationships {
		pairs = append(pairs, pair)
	}
	slices.SortFunc(pairs, func(a, b event.Pair) int {
		return strings.Compare(a.String(), b.String())
	})
	for _, pair := range pairs {
		r := p.Relationships[pair]
		rel := RelationshipOutput{
			Pair:       pairOutput(pair),
			Status:     string(r.Status),
			Attitudes:  make([]AttitudeOutput, 0, len(r.Attitudes)),
			Milestones: append([]string{}, r.Milestones...),
		}
		for _, from := range slices.Sorted(maps.Keys(r.Attitudes)) {
			a := r.Attitudes[from]
			rel.Attitudes = append(rel.Attitudes, AttitudeOutput{
				From:     from,
				Toward:   a.Toward,
				Feelings: append([]string{}, a.Feelings...),
				Secrets:  append([]string{}, a.Secrets...),
				Wants:    append([]string{}, a.Wants...),
			})
		}
		out.Relationships = append(out.Relationships, rel)
	}

	for _, entry := range p.Narrative {
		n := NarrativeOutput{
			EventID:     entry.EventID,
			Turn:        entry.Turn,
			Kind:        string(entry.Kind),
			Description: entry.Description,
			Subject:     entry.Subject,
		}
		if entry.Kind == projection.EntrySubject {
			n.Pair = pairOutput(entry.Pair)
		}
		out.Narrative = append(out.Narrative, n)
	}
	return out
}

func chapterOutputFromChapter(c chapter.Chapter) ChapterOutput {
	out := ChapterOutput{
		Index:     c.Index,
		Title:     c.Title,
		Summary:   c.Summary,
		StartTurn: c.StartTurn,
		EndTurn:   c.EndTurn,
		EndReason: string(c.EndReason),
		Open:      c.Open(),
		Events:    make([]NarrativeEventOutput, 0, len(c.Events)),
	}
	for _, beat := range c.Events {
		n := NarrativeEventOutput{
			Turn:        beat.Turn,
			Description: beat.Description,
			Witnesses:   append([]string{}, beat.Witnesses...),
			Location:    locationOutputFromProjection(beat.Location),
			Tension:     tensionOutputFromProjection(beat.Tension),
			Subjects:    make([]SubjectOutput, 0, len(beat.Subjects)),
		}
		for _, tag := range beat.Subjects {
			n.Subjects = append(n.Subjects, SubjectOutput{
				Pair:        pairOutput(tag.Pair),
				Subject:     tag.Subject,
				IsMilestone: tag.IsMilestone,
			})
		}
		out.Events = append(out.Events, n)
	}
	return out
}

func milestoneOutputFromChapter(m chapter.Milestone) MilestoneOutput {
	return MilestoneOutput{
		Pair:    pairOutput(m.Pair),
		Subject: m.Subject,
		Turn:    m.Turn,
		EventID: m.EventID,
	}
}
