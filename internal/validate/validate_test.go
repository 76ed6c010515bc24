package validate

import (
	"context"
	"testing"
	"time"

	"scenecraft/internal/event"
	"scenecraft/internal/scene"
)

func newSession(t *testing.T, events ...event.Event) *scene.Session {
	t.Helper()
	s, err := scene.Open(context.Background(), nil, "chat-1", scene.Options{}, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	result, err := s.Append(context.Background(), events)
	if err != nil || len(result.Errors) > 0 {
		t.Fatalf("append: %v %v", err, result.Errors)
	}
	return s
}

func at(turn, branch int, payload event.Payload) event.Event {
	return event.Event{Origin: event.Origin{TurnID: turn, BranchID: branch}, Payload: payload}
}

func codes(report *Report) []string {
	out := make([]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		out = append(out, issue.Code)
	}
	return out
}

func TestRun_CleanLog(t *testing.T) {
	s := newSession(t,
		at(0, 0, event.CharacterChange{Op: event.SubkindAppeared, Character: "Ana"}),
		at(1, 0, event.CharacterChange{Op: event.SubkindMoodAdded, Character: "Ana", NewValue: "calm"}),
		at(2, 0, event.ChapterEnded{Index: 0, Reason: event.EndManual}),
		at(2, 0, event.ChapterDescribed{Index: 0, Title: "Arrival"}),
	)
	report, err := Run(s)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
	if report.HasErrors() {
		t.Fatalf("expected no errors")
	}
}

func TestRun_ReportsIssues(t *testing.T) {
	pair := event.NewPair("Ana", "Ben")
	s := newSession(t,
		at(0, 0, event.TimeDelta{Hours: 1}),
		at(0, 0, event.CharacterChange{Op: event.SubkindMoodAdded, Character: "Ben", NewValue: "grim"}),
		at(0, 0, event.CharacterChange{Op: event.SubkindActivityChanged, Character: "Ben", NewValue: "drinking"}),
		at(1, 0, event.RelationshipChange{Op: event.SubkindStatusChanged, Pair: pair, Value: "frenemies"}),
		at(1, 1, event.NarrativeDescribed{Description: "An alternate reply."}),
		at(1, 1, event.NarrativeDescribed{Description: "Still alternate."}),
		at(2, 0, event.ChapterEnded{Index: 0, Reason: event.EndManual}),
		at(3, 0, event.ChapterEnded{Index: 0, Reason: event.EndManual}),
		at(3, 0, event.ChapterDescribed{Index: 1, Title: "Open"}),
	)

	report, err := Run(s)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{
		codeInactiveBranch,
		codeUnanchoredDelta,
		codeUnknownCharacter,
		codeUnknownStatus,
		codeDuplicateChapterEnd,
		codeDescribedNotEnded,
	}
	got := codes(report)
	if len(got) != len(want) {
		t.Fatalf("codes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("codes = %v, want %v", got, want)
		}
	}
	if report.Issues[0].Turn != 1 || report.Issues[0].Branch != 1 {
		t.Fatalf("inactive issue = %+v", report.Issues[0])
	}
	if !report.HasErrors() {
		t.Fatalf("duplicate chapter end should be an error")
	}
}

func TestRun_FollowsCanonicalPath(t *testing.T) {
	s := newSession(t,
		at(0, 0, event.TimeSet{At: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}),
		at(1, 1, event.TimeDelta{Minutes: 5}),
	)
	if err := s.SelectBranch(context.Background(), 1, 1); err != nil {
		t.Fatalf("select: %v", err)
	}
	report, err := Run(s)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %+v", report.Issues)
	}
}

func TestRun_RequiresSource(t *testing.T) {
	if _, err := Run(nil); err == nil {
		t.Fatalf("expected error")
	}
}
