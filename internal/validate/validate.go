// Package validate reports consistency problems in a chat's event log.
package validate

import (
	"fmt"
	"slices"

	"scenecraft/internal/canon"
	"scenecraft/internal/event"
	"scenecraft/internal/relstatus"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeInactiveBranch      = "inactive_branch_events"
	codeUnanchoredDelta     = "unanchored_time_delta"
	codeUnknownCharacter    = "character_not_introduced"
	codeUnknownStatus       = "unknown_status_label"
	codeDescribedNotEnded   = "chapter_described_without_end"
	codeDuplicateChapterEnd = "duplicate_chapter_end"
)

type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	EventID  string   `json:"event_id,omitempty"`
	Turn     int      `json:"turn"`
	Branch   int      `json:"branch"`
}

type Report struct {
	Issues []Issue `json:"issues"`
}

// HasErrors reports whether any issue has error severity.
func (r *Report) HasErrors() bool {
	return slices.ContainsFunc(r.Issues, func(i Issue) bool { return i.Severity == SeverityError })
}

func Run(src Source) (*Report, error) {
	if src == nil {
		return nil, fmt.Errorf("event source is required")
	}
	resolver := src.Resolver()
	if resolver == nil {
		return nil, fmt.Errorf("canonical path resolver is required")
	}

	events := src.AllEvents()
	memo := canon.Memo(resolver)
	active := make([]event.Event, 0, len(events))
	for _, e := range events {
		if canon.Active(memo, e.Origin.TurnID, e.Origin.BranchID) {
			active = append(active, e)
		}
	}
	slices.SortStableFunc(active, event.Compare)

	issues := make([]Issue, 0)
	issues = append(issues, inactiveBranches(events, memo)...)
	issues = append(issues, checkActive(active)...)
	return &Report{Issues: issues}, nil
}

// inactiveBranches reports one issue per superseded (turn, branch) origin.
func inactiveBranches(events []event.Event, r canon.Resolver) []Issue {
	counts := map[event.Origin]int{}
	var order []event.Origin
	for _, e := range events {
		if canon.Active(r, e.Origin.TurnID, e.Origin.BranchID) {
			continue
		}
		if counts[e.Origin] == 0 {
			order = append(order, e.Origin)
		}
		counts[e.Origin]++
	}
	slices.SortFunc(order, func(a, b event.Origin) int {
		if a.TurnID != b.TurnID {
			return a.TurnID - b.TurnID
		}
		return a.BranchID - b.BranchID
	})

	issues := make([]Issue, 0, len(order))
	for _, o := range order {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     codeInactiveBranch,
			Message:  fmt.Sprintf("%d events on branch %d are off the canonical path (turn %d follows branch %d)", counts[o], o.BranchID, o.TurnID, r.CanonicalSwipe(o.TurnID)),
			Turn:     o.TurnID,
			Branch:   o.BranchID,
		})
	}
	return issues
}

func checkActive(events []event.Event) []Issue {
	var issues []Issue
	add := func(e event.Event, severity Severity, code, format string, args ...any) {
		issues = append(issues, Issue{
			Severity: severity,
			Code:     code,
			Message:  fmt.Sprintf(format, args...),
			EventID:  e.ID,
			Turn:     e.Origin.TurnID,
			Branch:   e.Origin.BranchID,
		})
	}

	anchored := false
	introduced := map[string]bool{}
	closed := -1
	ended := map[int]bool{}
	for _, e := range events {
		if p, ok := e.Payload.(event.ChapterEnded); ok {
			ended[p.Index] = true
		}
	}

	for _, e := range events {
		switch p := e.Payload.(type) {
		case event.TimeSet:
			anchored = true
		case event.TimeDelta:
			if !anchored {
				add(e, SeverityWarn, codeUnanchoredDelta, "time delta of %s before any initial time is discarded", p.Duration())
			}
		case event.CharacterChange:
			if p.Op == event.SubkindAppeared {
				introduced[p.Character] = true
			} else if !introduced[p.Character] {
				add(e, SeverityWarn, codeUnknownCharacter, "%s %s before appearing in the scene", p.Character, p.Op)
				introduced[p.Character] = true
			}
		case event.RelationshipChange:
			if p.Op == event.SubkindStatusChanged {
				if _, ok := relstatus.Parse(p.Value); !ok {
					add(e, SeverityWarn, codeUnknownStatus, "status %q for %s is not a known label and will be ignored", p.Value, p.Pair)
				}
			}
		case event.ChapterEnded:
			if p.Index <= closed {
				add(e, SeverityError, codeDuplicateChapterEnd, "chapter %d was already closed", p.Index)
				continue
			}
			closed = p.Index
		case event.ChapterDescribed:
			if !ended[p.Index] {
				add(e, SeverityWarn, codeDescribedNotEnded, "chapter %d is described but never ended", p.Index)
			}
		}
	}
	return issues
}
