package projection

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"scenecraft/internal/event"
	"scenecraft/internal/relstatus"
)

// SnapshotStore memoizes projections at turn boundaries. A snapshot is only
// reusable when the fingerprint of the active prefix it was built from matches.
type SnapshotStore interface {
	Lookup(turn int, fingerprint uint64) (Projection, bool)
	Save(turn int, fingerprint uint64, p Projection)
}

// Projector replays active events, optionally resuming from snapshots.
type Projector struct {
	Tiers     relstatus.Tiers
	Snapshots SnapshotStore
	// Interval saves a snapshot every Interval turns in addition to chapter
	// boundaries. Zero disables interval snapshots.
	Interval int
}

// Project folds the replay-ordered active events with turn <= target. The
// result is identical with or without snapshots.
func (pr Projector) Project(events []event.Event, target int) Projection {
	tiers := pr.Tiers.OrDefault()
	groups := turnGroups(events, target)

	start := 0
	p := Empty()
	if pr.Snapshots != nil {
		for i := len(groups) - 1; i >= 0; i-- {
			if snap, ok := pr.Snapshots.Lookup(groups[i].turn, groups[i].fingerprint); ok {
				p = snap
				start = i + 1
				break
			}
		}
	}

	for _, g := range groups[start:] {
		for _, e := range events[g.from:g.to] {
			Apply(&p, e, tiers)
		}
		if pr.Snapshots != nil && pr.shouldSnapshot(g, events) {
			p.Turn = g.turn
			pr.Snapshots.Save(g.turn, g.fingerprint, p.Clone())
		}
	}

	p.Turn = target
	return p
}

func (pr Projector) shouldSnapshot(g group, events []event.Event) bool {
	if pr.Interval > 0 && g.turn%pr.Interval == 0 {
		return true
	}
	for _, e := range events[g.from:g.to] {
		if e.Matches(event.KindChapter, event.SubkindChapterEnded) {
			return true
		}
	}
	return false
}

// Fold replays events from the empty projection without snapshots.
func Fold(events []event.Event, target int, tiers relstatus.Tiers) Projection {
	return Projector{Tiers: tiers}.Project(events, target)
}

// group is the run of events that share one turn, plus the fingerprint of the
// whole active prefix up to and including that turn.
type group struct {
	turn        int
	from, to    int
	fingerprint uint64
}

func turnGroups(events []event.Event, target int) []group {
	var groups []group
	digest := xxhash.New()
	var buf [8]byte
	for i, e := range events {
		if e.Origin.TurnID > target {
			break
		}
		if len(groups) == 0 || groups[len(groups)-1].turn != e.Origin.TurnID {
			groups = append(groups, group{turn: e.Origin.TurnID, from: i})
		}
		_, _ = digest.WriteString(e.ID)
		binary.LittleEndian.PutUint64(buf[:], e.Seq)
		_, _ = digest.Write(buf[:])

		g := &groups[len(groups)-1]
		g.to = i + 1
		g.fingerprint = digest.Sum64()
	}
	return groups
}

// Fingerprint hashes the identity of events in replay order.
func Fingerprint(events []event.Event) uint64 {
	digest := xxhash.New()
	var buf [8]byte
	for _, e := range events {
		_, _ = digest.WriteString(e.ID)
		binary.LittleEndian.PutUint64(buf[:], e.Seq)
		_, _ = digest.Write(buf[:])
	}
	return digest.Sum64()
}
