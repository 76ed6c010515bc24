// Package eventlog is the append-only journal of scene events.
//
// The log never interprets payloads beyond validation. Which events are active
// is decided by the canonical-path resolver on every query.
package eventlog

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"scenecraft/internal/canon"
	"scenecraft/internal/event"
)

// Log is an append-only, concurrency-safe event journal.
type Log struct {
	mu       sync.RWMutex
	events   []event.Event
	ids      map[string]struct{}
	nextSeq  uint64
	resolver canon.Resolver
	now      func() time.Time

	// active caches the replay-ordered active set for resolvers that report a version.
	active        []event.Event
	activeValid   bool
	activeLen     int
	activeVersion uint64
}

// Option configures a Log.
type Option func(*Log)

// WithClock overrides the clock used to stamp appended events.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates an empty log filtered by r. A nil resolver treats branch 0 as
// canonical everywhere.
func New(r canon.Resolver, opts ...Option) *Log {
	if r == nil {
		r = canon.NewMap()
	}
	l := &Log{
		ids:      make(map[string]struct{}),
		nextSeq:  1,
		resolver: r,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetResolver swaps the canonical-path oracle.
func (l *Log) SetResolver(r canon.Resolver) {
	if r == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolver = r
	l.activeValid = false
}

// Resolver returns the current canonical-path oracle.
func (l *Log) Resolver() canon.Resolver {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.resolver
}

// Append validates e, stamps it and inserts it at the end of the log.
func (l *Log) Append(e event.Event) (event.Event, error) {
	result, _ := l.AppendBatchFunc([]event.Event{e}, nil)
	if len(result.Errors) > 0 {
		return event.Event{}, result.Errors[0].Err
	}
	return result.Appended[0], nil
}

// BatchResult reports the outcome of a batch append.
type BatchResult struct {
	Appended []event.Event
	Errors   []BatchError
}

// BatchError is the failure of one item in a batch.
type BatchError struct {
	Index int
	Err   error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("event %d: %v", e.Index, e.Err)
}

func (e BatchError) Unwrap() error {
	return e.Err
}

// AppendBatch appends each event independently. One malformed event does not
// block the others.
func (l *Log) AppendBatch(events []event.Event) BatchResult {
	result, _ := l.AppendBatchFunc(events, nil)
	return result
}

// AppendBatchFunc stamps the well-formed events of a batch and hands them to
// commit before they enter the log. When commit fails nothing is appended and
// its error is returned; per-event validation failures are still reported.
// The log stays locked while commit runs, so readers never see a batch that
// failed to commit.
func (l *Log) AppendBatchFunc(events []event.Event, commit func([]event.Event) error) (BatchResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result BatchResult
	seq := l.nextSeq
	pending := make(map[string]struct{}, len(events))
	for i, e := range events {
		if err := event.Validate(e); err != nil {
			result.Errors = append(result.Errors, BatchError{Index: i, Err: err})
			continue
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		_, dup := l.ids[e.ID]
		if _, again := pending[e.ID]; dup || again {
			err := fmt.Errorf("append event %s: %w", e.ID, ErrDuplicateID)
			result.Errors = append(result.Errors, BatchError{Index: i, Err: err})
			continue
		}
		if e.Timestamp.IsZero() {
			e.Timestamp = l.now().UTC()
		}
		e.Seq = seq
		seq++
		pending[e.ID] = struct{}{}
		result.Appended = append(result.Appended, e)
	}

	if commit != nil && len(result.Appended) > 0 {
		if err := commit(slices.Clone(result.Appended)); err != nil {
			return BatchResult{Errors: result.Errors}, err
		}
	}

	for _, e := range result.Appended {
		l.events = append(l.events, e)
		l.ids[e.ID] = struct{}{}
	}
	l.nextSeq = seq
	return result, nil
}

// Restore replaces the log contents with previously persisted events. Their
// IDs, Seq and timestamps are kept; the next Seq continues after the highest one.
func (l *Log) Restore(events []event.Event) error {
	restored := make([]event.Event, 0, len(events))
	ids := make(map[string]struct{}, len(events))
	var maxSeq uint64
	for _, e := range events {
		if err := event.Validate(e); err != nil {
			return fmt.Errorf("restore event %s: %w", e.ID, err)
		}
		if e.ID == "" {
			return fmt.Errorf("restore event at seq %d: %w", e.Seq, ErrMissingID)
		}
		if _, dup := ids[e.ID]; dup {
			return fmt.Errorf("restore event %s: %w", e.ID, ErrDuplicateID)
		}
		ids[e.ID] = struct{}{}
		maxSeq = max(maxSeq, e.Seq)
		restored = append(restored, e)
	}
	slices.SortStableFunc(restored, func(a, b event.Event) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = restored
	l.ids = ids
	l.nextSeq = maxSeq + 1
	l.activeValid = false
	return nil
}

// Len returns the number of events in the log, active or not.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}

// All returns every event in insertion order.
func (l *Log) All() []event.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.events)
}

// ActiveEvents returns the events on the canonical path in replay order: turn
// ascending, insertion order within a turn. The returned slice is a copy.
func (l *Log) ActiveEvents() []event.Event {
	l.mu.RLock()
	versioned, ok := l.resolver.(canon.Versioned)
	if ok && l.activeValid && l.activeLen == len(l.events) && l.activeVersion == versioned.Version() {
		out := slices.Clone(l.active)
		l.mu.RUnlock()
		return out
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	var version uint64
	if ok {
		version = versioned.Version()
	}
	active := filterActive(l.events, l.resolver)
	if ok {
		l.active = active
		l.activeLen = len(l.events)
		l.activeVersion = version
		l.activeValid = true
	}
	return slices.Clone(active)
}

// ActiveEventsUpTo returns the active events with turn <= turnID.
func (l *Log) ActiveEventsUpTo(turnID int) []event.Event {
	return UpTo(l.ActiveEvents(), turnID)
}

// ActiveAt returns the active events originated at turnID.
func (l *Log) ActiveAt(turnID int) []event.Event {
	active := l.ActiveEvents()
	start, _ := slices.BinarySearchFunc(active, turnID, func(e event.Event, turn int) int {
		return cmp.Compare(e.Origin.TurnID, turn)
	})
	end := start
	for end < len(active) && active[end].Origin.TurnID == turnID {
		end++
	}
	return active[start:end]
}

// LastTurn returns the highest turn among active events, or -1 when none are active.
func (l *Log) LastTurn() int {
	active := l.ActiveEvents()
	if len(active) == 0 {
		return -1
	}
	return active[len(active)-1].Origin.TurnID
}

// UpTo returns the prefix of replay-ordered events with turn <= turnID.
func UpTo(events []event.Event, turnID int) []event.Event {
	end, _ := slices.BinarySearchFunc(events, turnID, func(e event.Event, turn int) int {
		if e.Origin.TurnID <= turn {
			return -1
		}
		return 1
	})
	return events[:end]
}

func filterActive(events []event.Event, r canon.Resolver) []event.Event {
	memo := canon.Memo(r)
	active := make([]event.Event, 0, len(events))
	for _, e := range events {
		if canon.Active(memo, e.Origin.TurnID, e.Origin.BranchID) {
			active = append(active, e)
		}
	}
	slices.SortStableFunc(active, event.Compare)
	return active
}
