package strategy

import (
	"errors"
	"testing"

	"scenecraft/internal/canon"
	"scenecraft/internal/event"
	"scenecraft/internal/eventlog"
)

func newLog(t *testing.T, path *canon.Map) *eventlog.Log {
	t.Helper()
	log := eventlog.New(path)
	appendAll(t, log,
		event.Event{Origin: event.Origin{TurnID: 1}, Step: "outfits", Payload: event.CharacterChange{Op: event.SubkindOutfitChanged, Character: "Ana", Slot: "feet", NewValue: "boots"}},
		event.Event{Origin: event.Origin{TurnID: 2}, Payload: event.SceneChange{Op: event.SubkindTensionChanged, Level: event.TensionTense, Type: event.TensionCombat}},
		event.Event{Origin: event.Origin{TurnID: 4, BranchID: 1}, Step: "outfits", Payload: event.CharacterChange{Op: event.SubkindOutfitChanged, Character: "Ana", Slot: "feet", NewValue: "sandals"}},
		event.Event{Origin: event.Origin{TurnID: 5}, Payload: event.CharacterChange{Op: event.SubkindAppeared, Character: "Ben"}},
	)
	return log
}

func appendAll(t *testing.T, log *eventlog.Log, events ...event.Event) {
	t.Helper()
	for _, e := range events {
		if _, err := log.Append(e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func TestShouldRun(t *testing.T) {
	path := canon.NewMap()
	log := newLog(t, path)

	tests := []struct {
		name     string
		strategy Strategy
		turn     int
		role     Role
		want     bool
	}{
		{name: "always", strategy: Strategy{Kind: Always}, turn: 5, want: true},
		{name: "human turn", strategy: Strategy{Kind: HumanTurn}, turn: 5, role: RoleHuman, want: true},
		{name: "human strategy on generated turn", strategy: Strategy{Kind: HumanTurn}, turn: 5, role: RoleGenerated},
		{name: "generated turn", strategy: Strategy{Kind: GeneratedTurn}, turn: 5, role: RoleGenerated, want: true},
		{name: "every third turn hit", strategy: Strategy{Kind: EveryNTurns, N: 3}, turn: 6, want: true},
		{name: "every third turn miss", strategy: Strategy{Kind: EveryNTurns, N: 3}, turn: 5},
		// the branch-1 output at turn 4 is not canonical, so the last output is turn 1
		{name: "since last output ignores inactive branch", strategy: Strategy{Kind: SinceLastOutput, N: 3, Step: "outfits"}, turn: 5, want: true},
		{name: "since last output too soon", strategy: Strategy{Kind: SinceLastOutput, N: 3, Step: "outfits"}, turn: 3},
		{name: "since last output never produced", strategy: Strategy{Kind: SinceLastOutput, N: 10, Step: "climate"}, turn: 1, want: true},
		{name: "since last event", strategy: Strategy{Kind: SinceLastEvent, N: 3, Event: event.KindScene, Subkind: event.SubkindTensionChanged}, turn: 5, want: true},
		{name: "since last event too soon", strategy: Strategy{Kind: SinceLastEvent, N: 4, Event: event.KindScene}, turn: 5},
		{name: "new event this turn", strategy: Strategy{Kind: NewEventThisTurn, Event: event.KindCharacter, Subkind: event.SubkindAppeared}, turn: 5, want: true},
		{name: "no new event this turn", strategy: Strategy{Kind: NewEventThisTurn, Event: event.KindCharacter, Subkind: event.SubkindDeparted}, turn: 5},
		{name: "custom", strategy: Strategy{Kind: Custom, Predicate: func(c EvalContext) bool { return len(c.TurnEvents) == 1 }}, turn: 5, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ShouldRun(tt.strategy, NewEvalContext(log, tt.turn, tt.role))
			if err != nil {
				t.Fatalf("ShouldRun: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ShouldRun = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldRunFollowsCanonicalChange(t *testing.T) {
	path := canon.NewMap()
	log := newLog(t, path)
	s := Strategy{Kind: SinceLastOutput, N: 3, Step: "outfits"}

	if ok, _ := ShouldRun(s, NewEvalContext(log, 5, RoleGenerated)); !ok {
		t.Fatalf("expected run before branch switch")
	}
	path.Select(4, 1)
	if ok, _ := ShouldRun(s, NewEvalContext(log, 5, RoleGenerated)); ok {
		t.Fatalf("output on the newly canonical branch should count")
	}
}

func TestShouldRunRejectsBadStrategies(t *testing.T) {
	log := eventlog.New(nil)
	ctx := NewEvalContext(log, 0, RoleHuman)

	if _, err := ShouldRun(Strategy{Kind: "sometimes"}, ctx); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
	for _, s := range []Strategy{
		{Kind: EveryNTurns},
		{Kind: SinceLastOutput, N: 2},
		{Kind: SinceLastEvent, N: 2},
		{Kind: NewEventThisTurn},
		{Kind: Custom},
	} {
		if _, err := ShouldRun(s, ctx); !errors.Is(err, ErrInvalidStrategy) {
			t.Fatalf("%s: expected ErrInvalidStrategy, got %v", s.Kind, err)
		}
	}
}
