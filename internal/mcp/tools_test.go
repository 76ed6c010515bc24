package mcp

import (
	"context"
	"testing"

	"scenecraft/internal/scene"
	"scenecraft/internal/strategy"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	sess, err := scene.Open(context.Background(), nil, "chat-1", scene.Options{
		Steps: map[string]strategy.Strategy{"climate": {Kind: strategy.EveryNTurns, N: 2}},
	}, nil)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return NewServer(sess, "test")
}

func item(turn, branch int, kind, subkind string, payload map[string]any) map[string]any {
	return map[string]any{
		"origin":  map[string]any{"turn_id": turn, "branch_id": branch},
		"kind":    kind,
		"subkind": subkind,
		"payload": payload,
	}
}

func appendItems(t *testing.T, server *Server, items ...map[string]any) AppendEventsOutput {
	t.Helper()
	_, output, err := server.handleAppendEvents(context.Background(), nil, AppendEventsInput{Events: items})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	return output
}

func TestAppendEvents(t *testing.T) {
	server := newTestServer(t)

	output := appendItems(t, server,
		item(0, 0, "character", "appeared", map[string]any{"character": "Ana"}),
		item(0, 0, "weather", "stormy", nil),
		item(0, 0, "character", "mood_added", map[string]any{"character": "Ana"}),
		item(1, 0, "scene", "topic_changed", map[string]any{"value": "the heist"}),
	)
	if len(output.Appended) != 2 {
		t.Fatalf("expected 2 appended, got %+v", output.Appended)
	}
	if output.Appended[1].Seq != 2 || output.Appended[1].Turn != 1 {
		t.Fatalf("unexpected appended: %+v", output.Appended[1])
	}
	if len(output.Rejected) != 2 || output.Rejected[0].Index != 1 || output.Rejected[1].Index != 2 {
		t.Fatalf("unexpected rejected: %+v", output.Rejected)
	}

	if _, _, err := server.handleAppendEvents(context.Background(), nil, AppendEventsInput{}); err == nil {
		t.Fatalf("expected error for empty batch")
	}
}

func TestAppendEventsDetectsChapters(t *testing.T) {
	server := newTestServer(t)
	appendItems(t, server, item(0, 0, "location", "moved", map[string]any{"area": "Harbor", "place": "Tavern"}))

	_, output, err := server.handleAppendEvents(context.Background(), nil, AppendEventsInput{
		Events:         []map[string]any{item(1, 0, "location", "moved", map[string]any{"area": "Harbor", "place": "Docks"})},
		DetectChapters: true,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(output.ChaptersClosed) != 1 || output.ChaptersClosed[0].Kind != "chapter" {
		t.Fatalf("expected a closed chapter, got %+v", output.ChaptersClosed)
	}

	_, chapters, err := server.handleListChapters(context.Background(), nil, ListChaptersInput{ClosedOnly: true})
	if err != nil {
		t.Fatalf("list chapters: %v", err)
	}
	if len(chapters.Chapters) != 1 || chapters.Chapters[0].EndReason != "location_change" || chapters.Chapters[0].Open {
		t.Fatalf("unexpected chapters: %+v", chapters)
	}
}

func TestSelectBranchAndProjection(t *testing.T) {
	server := newTestServer(t)
	appendItems(t, server,
		item(0, 0, "character", "appeared", map[string]any{"character": "Ana"}),
		item(1, 0, "character", "activity_changed", map[string]any{"character": "Ana", "new_value": "reading"}),
		item(1, 1, "character", "activity_changed", map[string]any{"character": "Ana", "new_value": "sleeping"}),
	)

	_, projection, err := server.handleGetProjection(context.Background(), nil, GetProjectionInput{})
	if err != nil {
		t.Fatalf("projection: %v", err)
	}
	if len(projection.Characters) != 1 || projection.Characters[0].Activity != "reading" || !projection.Characters[0].Present {
		t.Fatalf("unexpected characters: %+v", projection.Characters)
	}

	_, selected, err := server.handleSelectBranch(context.Background(), nil, SelectBranchInput{Turn: 1, Branch: 1})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if selected.Canonical["1"] != 1 {
		t.Fatalf("unexpected canonical map: %+v", selected.Canonical)
	}

	_, projection, err = server.handleGetProjection(context.Background(), nil, GetProjectionInput{})
	if err != nil {
		t.Fatalf("projection: %v", err)
	}
	if projection.Characters[0].Activity != "sleeping" {
		t.Fatalf("activity = %q, want sleeping", projection.Characters[0].Activity)
	}

	turn := 0
	_, early, err := server.handleGetProjection(context.Background(), nil, GetProjectionInput{Turn: &turn})
	if err != nil {
		t.Fatalf("projection at 0: %v", err)
	}
	if early.Turn != 0 || early.Characters[0].Activity != "" {
		t.Fatalf("unexpected early projection: %+v", early)
	}

	negative := -1
	if _, _, err := server.handleGetProjection(context.Background(), nil, GetProjectionInput{Turn: &negative}); err == nil {
		t.Fatalf("expected error for negative turn")
	}
}

func TestMilestonesAndGate(t *testing.T) {
	server := newTestServer(t)
	appendItems(t, server,
		item(0, 0, "relationship_subject", "recorded", map[string]any{"pair": []string{"Ben", "Ana"}, "subject": "gift"}),
		item(1, 0, "relationship_subject", "recorded", map[string]any{"pair": "Ana|Ben", "subject": "gift"}),
		item(1, 0, "relationship_subject", "recorded", map[string]any{"pair": []string{"Ana", "Cy"}, "subject": "confession"}),
	)

	_, milestones, err := server.handleListMilestones(context.Background(), nil, ListMilestonesInput{Pair: []string{"Ben", "Ana"}})
	if err != nil {
		t.Fatalf("milestones: %v", err)
	}
	if len(milestones.Milestones) != 1 || milestones.Milestones[0].Turn != 0 || milestones.Milestones[0].Pair[0] != "Ana" {
		t.Fatalf("unexpected milestones: %+v", milestones)
	}
	if _, _, err := server.handleListMilestones(context.Background(), nil, ListMilestonesInput{Pair: []string{"Ana"}}); err == nil {
		t.Fatalf("expected error for a single name")
	}

	_, gate, err := server.handleGateStatus(context.Background(), nil, GateStatusInput{A: "Ana", B: "Ben", Proposed: "friendly"})
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	if gate.Current != "strangers" || gate.Result != "acquaintances" || !gate.Changed {
		t.Fatalf("unexpected gate output: %+v", gate)
	}
	if _, _, err := server.handleGateStatus(context.Background(), nil, GateStatusInput{A: "Ana", B: "Ana", Proposed: "close"}); err == nil {
		t.Fatalf("expected error for identical names")
	}
}

func TestShouldRun(t *testing.T) {
	server := newTestServer(t)

	_, output, err := server.handleShouldRun(context.Background(), nil, ShouldRunInput{Step: "climate", Turn: 4})
	if err != nil {
		t.Fatalf("should run: %v", err)
	}
	if !output.Run || output.Strategy != "every_n_turns" {
		t.Fatalf("unexpected output: %+v", output)
	}
	if _, _, err := server.handleShouldRun(context.Background(), nil, ShouldRunInput{Step: "climate", Turn: 4, Role: "narrator"}); err == nil {
		t.Fatalf("expected error for unknown role")
	}
	if _, _, err := server.handleShouldRun(context.Background(), nil, ShouldRunInput{Step: "outfits", Turn: 4}); err == nil {
		t.Fatalf("expected error for unknown step")
	}
}
