package ingest

import (
	"context"

	"scenecraft/internal/event"
	"scenecraft/internal/eventlog"
)

// Session is the part of scene.Session that ingestion writes through.
type Session interface {
	ChatID() string
	Append(ctx context.Context, events []event.Event) (eventlog.BatchResult, error)
	CloseChapterIfNeeded(ctx context.Context, origin event.Origin) (*event.Event, error)
}
