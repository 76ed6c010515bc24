package validate

import (
	"scenecraft/internal/canon"
	"scenecraft/internal/event"
)

// Source is the log being checked. scene.Session satisfies it.
type Source interface {
	AllEvents() []event.Event
	Resolver() canon.Resolver
}
