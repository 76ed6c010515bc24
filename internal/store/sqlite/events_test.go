package sqlite

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"scenecraft/internal/event"
	"scenecraft/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	client, err := New(ctx, "sqlite://:memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { client.Close(ctx) })
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return client
}

func testEvents() []event.Event {
	ts := time.Date(2024, 2, 3, 4, 5, 6, 700, time.UTC)
	area := "Docks"
	return []event.Event{
		{ID: "a", Seq: 1, Origin: event.Origin{TurnID: 0}, Timestamp: ts, Payload: event.LocationPatched{Area: &area}},
		{ID: "b", Seq: 2, Origin: event.Origin{TurnID: 1, BranchID: 1}, Timestamp: ts.Add(time.Second), Step: "mood", Payload: event.CharacterChange{Op: event.SubkindMoodAdded, Character: "Ana", NewValue: "giddy"}},
		{ID: "c", Seq: 3, Origin: event.Origin{TurnID: 1}, Timestamp: ts.Add(2 * time.Second), Payload: event.SubjectRecorded{Pair: event.NewPair("Ana", "Ben"), Subject: "gift"}},
	}
}

func TestAppendAndListEvents(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	events := testEvents()
	if err := client.AppendEvents(ctx, "chat-1", events); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := client.AppendEvents(ctx, "chat-2", events[:1]); err != nil {
		t.Fatalf("append other chat: %v", err)
	}

	got, err := client.ListEvents(ctx, "chat-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(got, events) {
		t.Fatalf("events = %+v\nwant %+v", got, events)
	}

	chats, err := client.ListChats(ctx)
	if err != nil {
		t.Fatalf("chats: %v", err)
	}
	if len(chats) != 2 || chats[0].ChatID != "chat-1" || chats[0].Events != 3 || chats[0].LastTurn != 1 {
		t.Fatalf("chats = %+v", chats)
	}
	if !chats[0].UpdatedAt.Equal(events[2].Timestamp) {
		t.Fatalf("updated_at = %v, want %v", chats[0].UpdatedAt, events[2].Timestamp)
	}
}

func TestAppendEventsIsAtomic(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	events := testEvents()

	if err := client.AppendEvents(ctx, "chat", events[:1]); err != nil {
		t.Fatalf("append: %v", err)
	}
	// the second event repeats seq 1, so the whole batch must roll back
	dup := events[1]
	dup.Seq = 1
	if err := client.AppendEvents(ctx, "chat", []event.Event{events[2], dup}); err == nil {
		t.Fatalf("expected constraint error")
	}

	got, err := client.ListEvents(ctx, "chat")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("partial batch persisted: %d events", len(got))
	}
}

func TestCanonicalPath(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)

	for _, sel := range [][2]int{{1, 1}, {3, 2}, {1, 0}} {
		if err := client.SetCanonical(ctx, "chat", sel[0], sel[1]); err != nil {
			t.Fatalf("set canonical: %v", err)
		}
	}
	path, err := client.CanonicalPath(ctx, "chat")
	if err != nil {
		t.Fatalf("canonical path: %v", err)
	}
	if !reflect.DeepEqual(path, map[int]int{1: 0, 3: 2}) {
		t.Fatalf("path = %v", path)
	}

	empty, err := client.CanonicalPath(ctx, "other")
	if err != nil || len(empty) != 0 {
		t.Fatalf("other chat path = %v, %v", empty, err)
	}
}

func TestRunSQL(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	if err := client.AppendEvents(ctx, "chat", testEvents()); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows, err := client.RunSQL(ctx, "SELECT id, kind FROM events WHERE chat_id = ? AND turn_id = ? ORDER BY seq", map[string]any{"1": "chat", "2": 1})
	if err != nil {
		t.Fatalf("run sql: %v", err)
	}
	if len(rows) != 2 || rows[0]["id"] != "b" || rows[1]["kind"] != "relationship_subject" {
		t.Fatalf("rows = %v", rows)
	}
}

func TestRunSQLRejectsWrites(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t)
	if err := client.AppendEvents(ctx, "chat", testEvents()); err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := client.RunSQL(ctx, "DELETE FROM events", nil); !errors.Is(err, store.ErrWriteQuery) {
		t.Fatalf("expected ErrWriteQuery, got %v", err)
	}
	events, err := client.ListEvents(ctx, "chat")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != len(testEvents()) {
		t.Fatalf("write query changed the log: %d events", len(events))
	}
}

func TestSplitStatements(t *testing.T) {
	statements := splitStatements("-- comment\nCREATE TABLE a (x INT);\n\nCREATE TABLE b (\n  y INT\n);\n")
	if len(statements) != 2 {
		t.Fatalf("got %d statements: %q", len(statements), statements)
	}
	if !strings.Contains(statements[1], "y INT") {
		t.Fatalf("second statement = %q", statements[1])
	}
}
