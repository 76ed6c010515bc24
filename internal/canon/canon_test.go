package canon

import "testing"

func TestMapSelect(t *testing.T) {
	m := NewMap()
	if got := m.CanonicalSwipe(5); got != 0 {
		t.Fatalf("unselected turn = %d, want 0", got)
	}

	start := m.Version()
	if !m.Select(5, 1) {
		t.Fatalf("expected change when selecting a new branch")
	}
	if m.Version() == start {
		t.Fatalf("expected version bump")
	}
	if got := m.CanonicalSwipe(5); got != 1 {
		t.Fatalf("CanonicalSwipe(5) = %d, want 1", got)
	}

	bumped := m.Version()
	if m.Select(5, 1) {
		t.Fatalf("reselecting the same branch should not report a change")
	}
	if m.Select(6, 0) {
		t.Fatalf("selecting the default branch for a fresh turn should not report a change")
	}
	if m.Version() != bumped {
		t.Fatalf("version changed without a new answer")
	}
}

func TestMapEntriesAreCopies(t *testing.T) {
	m := NewMap()
	m.Select(2, 3)

	entries := m.Entries()
	entries[2] = 9

	if got := m.CanonicalSwipe(2); got != 3 {
		t.Fatalf("mutating Entries leaked into map: got %d", got)
	}

	restored := NewMap()
	restored.Load(m.Entries())
	if got := restored.CanonicalSwipe(2); got != 3 {
		t.Fatalf("Load lost selection: got %d", got)
	}
}

func TestMemoQueriesOncePerTurn(t *testing.T) {
	calls := map[int]int{}
	oracle := ResolverFunc(func(turnID int) int {
		calls[turnID]++
		return turnID % 2
	})

	memo := Memo(oracle)
	for i := 0; i < 3; i++ {
		if !Active(memo, 3, 1) {
			t.Fatalf("turn 3 should resolve to branch 1")
		}
	}
	if calls[3] != 1 {
		t.Fatalf("oracle queried %d times, want 1", calls[3])
	}

	fresh := Memo(oracle)
	fresh.CanonicalSwipe(3)
	if calls[3] != 2 {
		t.Fatalf("a new pass must query the oracle again, got %d calls", calls[3])
	}
}
