package projection

import (
	"reflect"
	"slices"
	"testing"
	"time"

	"scenecraft/internal/event"
	"scenecraft/internal/relstatus"
)

type builder struct {
	seq    uint64
	events []event.Event
}

func (b *builder) add(turn int, payload event.Payload) {
	b.seq++
	b.events = append(b.events, event.Event{
		ID:      "evt-" + string(rune('a'+b.seq)),
		Seq:     b.seq,
		Origin:  event.Origin{TurnID: turn},
		Payload: payload,
	})
}

func sceneEvents() []event.Event {
	var b builder
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	b.add(0, event.TimeSet{At: start})
	b.add(0, event.LocationMoved{Area: "Harbor", Place: "Tavern"})
	b.add(0, event.PropChange{Op: event.SubkindPropAdded, Prop: "lantern"})
	b.add(0, event.CharacterChange{Op: event.SubkindAppeared, Character: "Ben"})
	b.add(0, event.CharacterChange{Op: event.SubkindAppeared, Character: "Ana"})
	b.add(1, event.TimeDelta{Hours: 2})
	b.add(1, event.CharacterChange{Op: event.SubkindMoodAdded, Character: "Ana", NewValue: "wary"})
	b.add(1, event.CharacterChange{Op: event.SubkindOutfitChanged, Character: "Ana", Slot: "torso", NewValue: "coat"})
	b.add(1, event.SceneChange{Op: event.SubkindTensionChanged, Level: event.TensionTense, Type: event.TensionConfrontation})
	b.add(2, event.RelationshipChange{Op: event.SubkindFeelingAdded, Pair: event.NewPair("Ana", "Ben"), From: "Ana", Value: "suspicion"})
	b.add(2, event.SubjectRecorded{Pair: event.NewPair("Ana", "Ben"), Subject: "gift"})
	b.add(2, event.RelationshipChange{Op: event.SubkindStatusChanged, Pair: event.NewPair("Ana", "Ben"), Value: "close"})
	b.add(2, event.ChapterEnded{Index: 0, Reason: event.EndManual})
	b.add(3, event.SceneChange{Op: event.SubkindTensionChanged, Level: event.TensionAware, Type: event.TensionSocial})
	b.add(3, event.CharacterChange{Op: event.SubkindDeparted, Character: "Ben"})
	b.add(3, event.NarrativeDescribed{Description: "Ben leaves without a word."})
	b.add(4, event.RelationshipChange{Op: event.SubkindStatusChanged, Pair: event.NewPair("Ana", "Ben"), Value: "close"})
	return b.events
}

func TestEmptyProjection(t *testing.T) {
	p := Fold(nil, 10, relstatus.DefaultTiers())
	if p.Time != nil || !p.Location.IsZero() || p.Climate != nil {
		t.Fatalf("expected all-default projection, got %+v", p)
	}
	if p.Scene.Tension != DefaultTension() {
		t.Fatalf("tension = %+v, want default", p.Scene.Tension)
	}
	if p.Turn != 10 {
		t.Fatalf("turn = %d, want 10", p.Turn)
	}
}

func TestFold(t *testing.T) {
	p := Fold(sceneEvents(), 4, relstatus.DefaultTiers())

	want := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)
	if p.Time == nil || !p.Time.Equal(want) {
		t.Fatalf("time = %v, want %v", p.Time, want)
	}
	if p.Location.Place != "Tavern" || !slices.Equal(p.Location.Props, []string{"lantern"}) {
		t.Fatalf("location = %+v", p.Location)
	}
	if !slices.Equal(p.Present, []string{"Ana"}) {
		t.Fatalf("present = %v", p.Present)
	}
	if _, ok := p.Characters["Ben"]; !ok {
		t.Fatalf("departed character lost its state")
	}
	ana := p.Characters["Ana"]
	if !slices.Equal(ana.Moods, []string{"wary"}) || ana.Outfit["torso"] != "coat" {
		t.Fatalf("Ana = %+v", ana)
	}

	rel, ok := p.Relationship("Ben", "Ana")
	if !ok {
		t.Fatalf("relationship missing")
	}
	// gift unlocks friendly: first proposal steps strangers -> acquaintances,
	// the second acquaintances -> friendly.
	if rel.Status != relstatus.Friendly {
		t.Fatalf("status = %q, want friendly", rel.Status)
	}
	if got := rel.Attitudes["Ana"]; got == nil || got.Toward != "Ben" || !slices.Equal(got.Feelings, []string{"suspicion"}) {
		t.Fatalf("attitude = %+v", got)
	}

	if p.Scene.Tension.Level != event.TensionAware || p.Scene.Tension.Direction != event.TensionDecreasing {
		t.Fatalf("tension = %+v", p.Scene.Tension)
	}
	if p.Chapter != 1 {
		t.Fatalf("chapter = %d, want 1", p.Chapter)
	}
	if len(p.Narrative) != 2 || p.Narrative[0].Kind != EntrySubject || p.Narrative[1].Kind != EntryDescription {
		t.Fatalf("narrative = %+v", p.Narrative)
	}
}

func TestStatusForNewPairGatesFromLowest(t *testing.T) {
	pair := event.NewPair("Ana", "Ben")

	var fresh builder
	fresh.add(0, event.RelationshipChange{Op: event.SubkindStatusChanged, Pair: pair, Value: "acquaintances"})
	rel, ok := Fold(fresh.events, 0, relstatus.DefaultTiers()).Relationship("Ana", "Ben")
	if !ok || rel.Status != relstatus.Strained {
		t.Fatalf("new pair status = %+v, want strained", rel)
	}

	// a pair created by a feeling already sits at strangers
	var felt builder
	felt.add(0, event.RelationshipChange{Op: event.SubkindFeelingAdded, Pair: pair, From: "Ana", Value: "curiosity"})
	felt.add(0, event.RelationshipChange{Op: event.SubkindStatusChanged, Pair: pair, Value: "acquaintances"})
	rel, _ = Fold(felt.events, 0, relstatus.DefaultTiers()).Relationship("Ana", "Ben")
	if rel.Status != relstatus.Acquaintances {
		t.Fatalf("existing pair status = %q, want acquaintances", rel.Status)
	}
}

func TestFoldStopsAtTarget(t *testing.T) {
	p := Fold(sceneEvents(), 1, relstatus.DefaultTiers())
	if len(p.Relationships) != 0 {
		t.Fatalf("events after target were applied")
	}
	if p.Scene.Tension.Direction != event.TensionStable {
		t.Fatalf("first tension event should be stable, got %q", p.Scene.Tension.Direction)
	}
}

func TestDeterminism(t *testing.T) {
	events := sceneEvents()
	first := Fold(events, 4, relstatus.DefaultTiers())
	second := Fold(events, 4, relstatus.DefaultTiers())
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("projections differ:\n%+v\n%+v", first, second)
	}
}

func TestTimeDeltaWithoutAnchor(t *testing.T) {
	events := []event.Event{{ID: "d", Seq: 1, Payload: event.TimeDelta{Hours: 2}}}
	p := Fold(events, 0, relstatus.DefaultTiers())
	if p.Time != nil {
		t.Fatalf("delta without anchor moved the clock to %v", p.Time)
	}
}

func TestIdempotentSetMutations(t *testing.T) {
	once := []event.Event{
		{ID: "1", Seq: 1, Payload: event.CharacterChange{Op: event.SubkindMoodAdded, Character: "Ana", NewValue: "calm"}},
	}
	repeated := append(slices.Clone(once),
		event.Event{ID: "2", Seq: 2, Payload: event.CharacterChange{Op: event.SubkindMoodAdded, Character: "Ana", NewValue: "calm"}},
		event.Event{ID: "3", Seq: 3, Payload: event.CharacterChange{Op: event.SubkindMoodRemoved, Character: "Ana", NewValue: "angry"}},
		event.Event{ID: "4", Seq: 4, Payload: event.PropChange{Op: event.SubkindPropRemoved, Prop: "chair"}},
	)

	a := Fold(once, 0, relstatus.DefaultTiers())
	b := Fold(repeated, 0, relstatus.DefaultTiers())
	if !slices.Equal(a.Characters["Ana"].Moods, b.Characters["Ana"].Moods) {
		t.Fatalf("moods = %v, want %v", b.Characters["Ana"].Moods, a.Characters["Ana"].Moods)
	}
	if len(b.Location.Props) != 0 {
		t.Fatalf("removing an absent prop changed props: %v", b.Location.Props)
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := Fold(sceneEvents(), 4, relstatus.DefaultTiers())
	c := p.Clone()
	if !reflect.DeepEqual(p, c) {
		t.Fatalf("clone differs from original")
	}

	c.Characters["Ana"].Moods[0] = "changed"
	c.Relationships[event.NewPair("Ana", "Ben")].Attitudes["Ana"].Feelings[0] = "changed"
	c.Location.Props[0] = "changed"
	*c.Time = c.Time.Add(time.Hour)

	if p.Characters["Ana"].Moods[0] != "wary" ||
		p.Relationships[event.NewPair("Ana", "Ben")].Attitudes["Ana"].Feelings[0] != "suspicion" ||
		p.Location.Props[0] != "lantern" ||
		p.Time.Hour() != 11 {
		t.Fatalf("mutating the clone changed the original")
	}
}

type memStore struct {
	saved map[int]struct {
		fp uint64
		p  Projection
	}
	hits int
}

func (m *memStore) Lookup(turn int, fp uint64) (Projection, bool) {
	s, ok := m.saved[turn]
	if !ok || s.fp != fp {
		return Projection{}, false
	}
	m.hits++
	return s.p.Clone(), true
}

func (m *memStore) Save(turn int, fp uint64, p Projection) {
	if m.saved == nil {
		m.saved = map[int]struct {
			fp uint64
			p  Projection
		}{}
	}
	m.saved[turn] = struct {
		fp uint64
		p  Projection
	}{fp, p}
}

func TestSnapshotsDoNotChangeResults(t *testing.T) {
	events := sceneEvents()
	store := &memStore{}
	projector := Projector{Tiers: relstatus.DefaultTiers(), Snapshots: store, Interval: 2}

	for target := -1; target <= 5; target++ {
		want := Fold(events, target, relstatus.DefaultTiers())
		for pass := 0; pass < 2; pass++ {
			got := projector.Project(events, target)
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("target %d pass %d: snapshot projection differs\n got %+v\nwant %+v", target, pass, got, want)
			}
		}
	}
	if store.hits == 0 {
		t.Fatalf("expected snapshots to be reused")
	}
	if _, ok := store.saved[2]; !ok {
		t.Fatalf("expected a snapshot at the chapter boundary")
	}
}

func TestSnapshotIgnoredAfterPrefixChange(t *testing.T) {
	events := sceneEvents()
	store := &memStore{}
	projector := Projector{Tiers: relstatus.DefaultTiers(), Snapshots: store, Interval: 1}
	projector.Project(events, 4)

	// drop turn 1 as if another branch became canonical there
	var changed []event.Event
	for _, e := range events {
		if e.Origin.TurnID != 1 {
			changed = append(changed, e)
		}
	}
	store.hits = 0
	got := projector.Project(changed, 4)
	want := Fold(changed, 4, relstatus.DefaultTiers())
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("stale snapshot served after prefix change")
	}
	if got.Time == nil || got.Time.Hour() != 9 {
		t.Fatalf("time = %v, want 09:00", got.Time)
	}
}

func TestFingerprint(t *testing.T) {
	events := sceneEvents()
	if Fingerprint(events) != Fingerprint(slices.Clone(events)) {
		t.Fatalf("fingerprint not stable")
	}
	if Fingerprint(events) == Fingerprint(events[1:]) {
		t.Fatalf("fingerprint ignores events")
	}
}
