// Package strategy decides whether an extraction step should run for a turn.
//
// Every measurement is taken over canonical-path events only; an output or
// event recorded on a branch that is no longer selected does not count.
package strategy

import (
	"errors"
	"fmt"
	"slices"

	"scenecraft/internal/event"
)

var (
	// ErrUnknownStrategy is returned for a strategy kind the evaluator does not know.
	ErrUnknownStrategy = errors.New("unknown run strategy")
	// ErrInvalidStrategy is returned when a strategy is missing required parameters.
	ErrInvalidStrategy = errors.New("invalid run strategy")
)

// Kind names a run strategy.
type Kind string

const (
	Always           Kind = "always"
	HumanTurn        Kind = "human_turn"
	GeneratedTurn    Kind = "generated_turn"
	EveryNTurns      Kind = "every_n_turns"
	SinceLastOutput  Kind = "since_last_output"
	SinceLastEvent   Kind = "since_last_event"
	NewEventThisTurn Kind = "new_event_this_turn"
	Custom           Kind = "custom"
)

// Role says who authored the current turn.
type Role string

const (
	RoleHuman     Role = "human"
	RoleGenerated Role = "generated"
)

// Strategy is one run rule. Which fields matter depends on Kind.
type Strategy struct {
	Kind    Kind          `yaml:"kind" json:"kind"`
	N       int           `yaml:"n,omitempty" json:"n,omitempty"`
	Step    string        `yaml:"step,omitempty" json:"step,omitempty"`
	Event   event.Kind    `yaml:"event,omitempty" json:"event,omitempty"`
	Subkind event.Subkind `yaml:"subkind,omitempty" json:"subkind,omitempty"`
	// Predicate is consulted by Custom strategies.
	Predicate func(EvalContext) bool `yaml:"-" json:"-"`
}

// Query is the read surface over active events.
type Query interface {
	ActiveEvents() []event.Event
}

// EvalContext is the input to ShouldRun.
type EvalContext struct {
	TurnID int
	Role   Role
	// Events exposes canonical-path events only.
	Events Query
	// TurnEvents are the active events originated at TurnID.
	TurnEvents []event.Event
}

// NewEvalContext builds a context for turnID, taking TurnEvents from q.
func NewEvalContext(q Query, turnID int, role Role) EvalContext {
	var current []event.Event
	for _, e := range q.ActiveEvents() {
		if e.Origin.TurnID == turnID {
			current = append(current, e)
		}
	}
	return EvalContext{TurnID: turnID, Role: role, Events: q, TurnEvents: current}
}

// Validate checks that s carries the parameters its kind needs.
func (s Strategy) Validate() error {
	switch s.Kind {
	case Always, HumanTurn, GeneratedTurn:
		return nil
	case EveryNTurns:
		if s.N <= 0 {
			return fmt.Errorf("%s needs n > 0: %w", s.Kind, ErrInvalidStrategy)
		}
	case SinceLastOutput:
		if s.N <= 0 || s.Step == "" {
			return fmt.Errorf("%s needs n > 0 and a step: %w", s.Kind, ErrInvalidStrategy)
		}
	case SinceLastEvent:
		if s.N <= 0 || s.Event == "" {
			return fmt.Errorf("%s needs n > 0 and an event kind: %w", s.Kind, ErrInvalidStrategy)
		}
	case NewEventThisTurn:
		if s.Event == "" {
			return fmt.Errorf("%s needs an event kind: %w", s.Kind, ErrInvalidStrategy)
		}
	case Custom:
		if s.Predicate == nil {
			return fmt.Errorf("%s needs a predicate: %w", s.Kind, ErrInvalidStrategy)
		}
	default:
		return fmt.Errorf("%q: %w", s.Kind, ErrUnknownStrategy)
	}
	return nil
}

// ShouldRun evaluates s against c.
func ShouldRun(s Strategy, c EvalContext) (bool, error) {
	if err := s.Validate(); err != nil {
		return false, err
	}

	switch s.Kind {
	case Always:
		return true, nil
	case HumanTurn:
		return c.Role == RoleHuman, nil
	case GeneratedTurn:
		return c.Role == RoleGenerated, nil
	case EveryNTurns:
		return c.TurnID%s.N == 0, nil
	case SinceLastOutput:
		last, ok := lastTurn(c, func(e event.Event) bool { return e.Step == s.Step })
		return !ok || c.TurnID-last >= s.N, nil
	case SinceLastEvent:
		last, ok := lastTurn(c, func(e event.Event) bool { return e.Matches(s.Event, s.Subkind) })
		return !ok || c.TurnID-last >= s.N, nil
	case NewEventThisTurn:
		return slices.ContainsFunc(c.TurnEvents, func(e event.Event) bool {
			return e.Matches(s.Event, s.Subkind)
		}), nil
	case Custom:
		return s.Predicate(c), nil
	}
	return false, fmt.Errorf("%q: %w", s.Kind, ErrUnknownStrategy)
}

// lastTurn returns the latest turn before the current one with a matching
// active event.
func lastTurn(c EvalContext, match func(event.Event) bool) (int, bool) {
	if c.Events == nil {
		return 0, false
	}
	active := c.Events.ActiveEvents()
	for i := len(active) - 1; i >= 0; i-- {
		e := active[i]
		if e.Origin.TurnID >= c.TurnID {
			continue
		}
		if match(e) {
			return e.Origin.TurnID, true
		}
	}
	return 0, false
}
