// Package scene wires the event log, canonical path, projector and persistence
// into one session per chat.
package scene

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"scenecraft/internal/canon"
	"scenecraft/internal/chapter"
	"scenecraft/internal/config"
	"scenecraft/internal/event"
	"scenecraft/internal/eventlog"
	"scenecraft/internal/projection"
	"scenecraft/internal/relstatus"
	"scenecraft/internal/snapshot"
	"scenecraft/internal/store"
	"scenecraft/internal/strategy"
)

// ChapterStep is the Step recorded on chapter.ended events the session derives.
const ChapterStep = "chapters"

var ErrUnknownStep = errors.New("unknown step")

type Options struct {
	Tiers            relstatus.Tiers
	SnapshotInterval int
	MaxSnapshots     int
	TimeJump         time.Duration
	// Steps maps lowercased step names to their run strategies.
	Steps map[string]strategy.Strategy
}

// OptionsFromConfig builds session options from a project config.
func OptionsFromConfig(cfg *config.ProjectConfig) Options {
	steps := make(map[string]strategy.Strategy, len(cfg.Steps))
	for _, step := range cfg.Steps {
		steps[strings.ToLower(step.Name)] = step.Strategy
	}
	return Options{
		Tiers:            cfg.Gate,
		SnapshotInterval: cfg.Snapshots.Interval,
		MaxSnapshots:     cfg.Snapshots.MaxEntries,
		TimeJump:         cfg.Chapters.TimeJump,
		Steps:            steps,
	}
}

// Session is the scene state of one chat. Writes go to the store first and
// enter the in-memory log only once persisted.
type Session struct {
	chatID    string
	db        store.Store
	path      *canon.Map
	log       *eventlog.Log
	snapshots *snapshot.Cache
	projector projection.Projector
	opts      Options
	logger    *log.Logger

	// mu serialises branch selection so the store and the map agree.
	mu sync.Mutex
}

// Open loads the chat's events and canonical path from db. A nil db gives a
// session that lives only in memory.
func Open(ctx context.Context, db store.Store, chatID string, opts Options, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	opts.Tiers = opts.Tiers.OrDefault()
	if opts.TimeJump <= 0 {
		opts.TimeJump = chapter.DefaultTimeJump
	}

	path := canon.NewMap()
	s := &Session{
		chatID:    chatID,
		db:        db,
		path:      path,
		log:       eventlog.New(path),
		snapshots: snapshot.New(opts.MaxSnapshots),
		opts:      opts,
		logger:    logger,
	}
	s.projector = projection.Projector{
		Tiers:     opts.Tiers,
		Snapshots: s.snapshots,
		Interval:  opts.SnapshotInterval,
	}

	if db == nil {
		return s, nil
	}

	events, err := db.ListEvents(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("opening chat %s: %w", chatID, err)
	}
	if err := s.log.Restore(events); err != nil {
		return nil, fmt.Errorf("opening chat %s: %w", chatID, err)
	}
	entries, err := db.CanonicalPath(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("opening chat %s: %w", chatID, err)
	}
	path.Load(entries)

	logger.Printf("chat %s: restored %d events, %d canonical selections", chatID, len(events), len(entries))
	return s, nil
}

func (s *Session) ChatID() string {
	return s.chatID
}

// Append adds a batch of events. Malformed events are rejected individually;
// a persistence failure rejects the whole batch.
func (s *Session) Append(ctx context.Context, events []event.Event) (eventlog.BatchResult, error) {
	result, err := s.log.AppendBatchFunc(events, func(batch []event.Event) error {
		if s.db == nil {
			return nil
		}
		return s.db.AppendEvents(ctx, s.chatID, batch)
	})
	for _, rejected := range result.Errors {
		s.logger.Printf("chat %s: rejected %v", s.chatID, rejected)
	}
	if err != nil {
		s.logger.Printf("chat %s: persisting %d events failed: %v", s.chatID, len(events)-len(result.Errors), err)
		return result, fmt.Errorf("persisting events: %w", err)
	}
	return result, nil
}

// SelectBranch makes branch the canonical swipe of turn.
func (s *Session) SelectBranch(ctx context.Context, turn, branch int) error {
	if turn < 0 || branch < 0 {
		return fmt.Errorf("select branch %d at turn %d: turn and branch must not be negative", branch, turn)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path.CanonicalSwipe(turn) == branch {
		return nil
	}
	if s.db != nil {
		if err := s.db.SetCanonical(ctx, s.chatID, turn, branch); err != nil {
			return fmt.Errorf("select branch %d at turn %d: %w", branch, turn, err)
		}
	}
	if s.path.Select(turn, branch) {
		s.snapshots.Invalidate()
		s.logger.Printf("chat %s: turn %d now follows branch %d, snapshots dropped", s.chatID, turn, branch)
	}
	return nil
}

// CanonicalPath returns the explicit branch selections.
func (s *Session) CanonicalPath() map[int]int {
	return s.path.Entries()
}

// ActiveEvents returns the canonical events in replay order.
func (s *Session) ActiveEvents() []event.Event {
	return s.log.ActiveEvents()
}

// AllEvents returns every event in the log, active or not.
func (s *Session) AllEvents() []event.Event {
	return s.log.All()
}

// Resolver exposes the canonical path for consumers that filter events themselves.
func (s *Session) Resolver() canon.Resolver {
	return s.path
}

func (s *Session) LastTurn() int {
	return s.log.LastTurn()
}

// Projection returns the scene as of the end of turn.
func (s *Session) Projection(turn int) projection.Projection {
	return s.projector.Project(s.log.ActiveEvents(), turn)
}

// Current returns the scene as of the latest active turn.
func (s *Session) Current() projection.Projection {
	events := s.log.ActiveEvents()
	last := -1
	if len(events) > 0 {
		last = events[len(events)-1].Origin.TurnID
	}
	return s.projector.Project(events, last)
}

func (s *Session) Chapters() []chapter.Chapter {
	return chapter.Compute(s.log.ActiveEvents(), s.opts.Tiers)
}

func (s *Session) Milestones() []chapter.Milestone {
	return chapter.Milestones(s.log.ActiveEvents())
}

func (s *Session) SnapshotStats() (hits, misses uint64) {
	return s.snapshots.Stats()
}

// Strategy returns the run strategy configured for step.
func (s *Session) Strategy(step string) (strategy.Strategy, bool) {
	st, ok := s.opts.Steps[strings.ToLower(step)]
	return st, ok
}

// ShouldRun evaluates the named step's strategy for turn.
func (s *Session) ShouldRun(step string, turn int, role strategy.Role) (bool, error) {
	st, ok := s.Strategy(step)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownStep, step)
	}
	return strategy.ShouldRun(st, strategy.NewEvalContext(s.log, turn, role))
}

// GateStatus reports the status a proposed change between a and b would
// store, given the relationship as of the latest turn. A pair with no
// relationship yet is gated from relstatus.Lowest.
func (s *Session) GateStatus(a, b, proposed string) (current, gated relstatus.Status) {
	current = relstatus.Lowest
	var milestones relstatus.SubjectSet
	if rel, ok := s.Current().Relationship(a, b); ok {
		current = rel.Status
		milestones = rel.MilestoneSet()
	}
	return current, relstatus.Gate(proposed, current, milestones, s.opts.Tiers)
}

// CloseChapterIfNeeded ends the open chapter when the scene at origin moved
// to another place or jumped forward in time compared to the turn before.
// It returns the appended chapter.ended event, or nil when no boundary exists.
func (s *Session) CloseChapterIfNeeded(ctx context.Context, origin event.Origin) (*event.Event, error) {
	if origin.TurnID <= 0 || !canon.Active(s.path, origin.TurnID, origin.BranchID) {
		return nil, nil
	}
	active := s.log.ActiveEventsUpTo(origin.TurnID)
	for _, e := range active {
		if e.Origin.TurnID == origin.TurnID && e.Matches(event.KindChapter, event.SubkindChapterEnded) {
			return nil, nil
		}
	}

	prev := s.projector.Project(active, origin.TurnID-1)
	cur := s.projector.Project(active, origin.TurnID)
	reason, ok := chapter.DetectBoundary(prev, cur, s.opts.TimeJump)
	if !ok {
		return nil, nil
	}

	open, _ := chapter.Current(chapter.Compute(active, s.opts.Tiers))
	result, err := s.Append(ctx, []event.Event{{
		Origin:  origin,
		Step:    ChapterStep,
		Payload: event.ChapterEnded{Index: open.Index, Reason: reason},
	}})
	if err != nil {
		return nil, err
	}
	if len(result.Errors) > 0 {
		return nil, result.Errors[0]
	}
	ended := result.Appended[0]
	return &ended, nil
}
