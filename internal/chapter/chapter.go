// Package chapter derives chapters and relationship milestones from the active
// event stream.
package chapter

import (
	"slices"
	"strconv"

	"scenecraft/internal/event"
	"scenecraft/internal/projection"
	"scenecraft/internal/relstatus"
)

// Chapter is a contiguous range of turns closed by a chapter.ended event.
// StartTurn and EndTurn are inclusive; an open chapter has EndTurn -1 and no
// EndReason. A chapter closed in the same turn as its predecessor has
// EndTurn == StartTurn-1.
type Chapter struct {
	Index     int              `json:"index"`
	Title     string           `json:"title"`
	Summary   string           `json:"summary"`
	StartTurn int              `json:"start_turn"`
	EndTurn   int              `json:"end_turn"`
	EndReason event.EndReason  `json:"end_reason,omitempty"`
	Events    []NarrativeEvent `json:"events"`
}

// Open reports whether the chapter is still the current one.
func (c Chapter) Open() bool {
	return c.EndReason == ""
}

// Contains reports whether turn falls inside the chapter.
func (c Chapter) Contains(turn int) bool {
	if turn < c.StartTurn {
		return false
	}
	return c.Open() || turn <= c.EndTurn
}

// NarrativeEvent is a narrative beat with the scene context it happened in.
type NarrativeEvent struct {
	EventID     string              `json:"event_id,omitempty"`
	Turn        int                 `json:"turn"`
	Description string              `json:"description,omitempty"`
	Witnesses   []string            `json:"witnesses"`
	Location    projection.Location `json:"location"`
	Tension     projection.Tension  `json:"tension"`
	Subjects    []SubjectTag        `json:"subjects,omitempty"`
}

// SubjectTag is one relationship_subject event attached to a narrative beat.
type SubjectTag struct {
	EventID     string     `json:"event_id"`
	Pair        event.Pair `json:"pair"`
	Subject     string     `json:"subject"`
	IsMilestone bool       `json:"is_milestone"`
}

// DefaultTitle returns the title used until a chapter is described.
func DefaultTitle(index int) string {
	return "Chapter " + strconv.Itoa(index+1)
}

// Compute groups the replay-ordered active events into chapters. The last
// chapter is always open.
func Compute(events []event.Event, tiers relstatus.Tiers) []Chapter {
	tiers = tiers.OrDefault()
	chapters := []Chapter{newChapter(0, 0)}
	described := map[int]event.ChapterDescribed{}
	seen := map[milestoneKey]struct{}{}
	var beats []NarrativeEvent

	p := projection.Empty()
	for start := 0; start < len(events); {
		turn := events[start].Origin.TurnID
		end := start
		for end < len(events) && events[end].Origin.TurnID == turn {
			end++
		}

		var descriptions []NarrativeEvent
		var tags []SubjectTag
		var tagTension projection.Tension
		for _, e := range events[start:end] {
			projection.Apply(&p, e, tiers)
			switch payload := e.Payload.(type) {
			case event.ChapterEnded:
				chapters = closeChapters(chapters, payload, turn)
			case event.ChapterDescribed:
				described[payload.Index] = payload
			case event.NarrativeDescribed:
				descriptions = append(descriptions, NarrativeEvent{
					EventID:     e.ID,
					Turn:        turn,
					Description: payload.Description,
					Tension:     p.Scene.Tension,
				})
			case event.SubjectRecorded:
				key := milestoneKey{payload.Pair, payload.Subject}
				_, dup := seen[key]
				seen[key] = struct{}{}
				if len(tags) == 0 {
					tagTension = p.Scene.Tension
				}
				tags = append(tags, SubjectTag{
					EventID:     e.ID,
					Pair:        payload.Pair,
					Subject:     payload.Subject,
					IsMilestone: !dup,
				})
			}
		}

		if len(descriptions) == 0 && len(tags) > 0 {
			descriptions = append(descriptions, NarrativeEvent{Turn: turn, Tension: tagTension})
		}
		if len(descriptions) > 0 {
			descriptions[0].Subjects = tags
		}
		for _, d := range descriptions {
			d.Witnesses = slices.Clone(p.Present)
			d.Location = p.Location
			d.Location.Props = slices.Clone(p.Location.Props)
			beats = append(beats, d)
		}
		start = end
	}

	for i := range chapters {
		c := &chapters[i]
		if d, ok := described[c.Index]; ok {
			if d.Title != "" {
				c.Title = d.Title
			}
			c.Summary = d.Summary
		}
	}
	for _, b := range beats {
		for i := range chapters {
			if chapters[i].Contains(b.Turn) {
				chapters[i].Events = append(chapters[i].Events, b)
				break
			}
		}
	}
	return chapters
}

func newChapter(index, startTurn int) Chapter {
	return Chapter{
		Index:     index,
		Title:     DefaultTitle(index),
		StartTurn: startTurn,
		EndTurn:   -1,
		Events:    []NarrativeEvent{},
	}
}

// closeChapters closes the open chapter and any skipped indexes up to ended.Index.
// An index that is already closed is ignored.
func closeChapters(chapters []Chapter, ended event.ChapterEnded, turn int) []Chapter {
	open := &chapters[len(chapters)-1]
	if ended.Index < open.Index {
		return chapters
	}
	open.EndTurn = turn
	open.EndReason = ended.Reason
	for idx := open.Index + 1; idx <= ended.Index; idx++ {
		gap := newChapter(idx, turn+1)
		gap.EndTurn = turn
		gap.EndReason = ended.Reason
		chapters = append(chapters, gap)
	}
	return append(chapters, newChapter(ended.Index+1, turn+1))
}

// Closed returns the chapters that have ended, for "story so far" consumers.
func Closed(chapters []Chapter) []Chapter {
	out := make([]Chapter, 0, len(chapters))
	for _, c := range chapters {
		if !c.Open() {
			out = append(out, c)
		}
	}
	return out
}

// Current returns the open chapter.
func Current(chapters []Chapter) (Chapter, bool) {
	for i := len(chapters) - 1; i >= 0; i-- {
		if chapters[i].Open() {
			return chapters[i], true
		}
	}
	return Chapter{}, false
}
