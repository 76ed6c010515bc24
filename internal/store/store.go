package store

import (
	"context"

	"scenecraft/internal/event"
)

// Store persists the event log and canonical path of every chat.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	// AppendEvents writes a batch atomically. Events must already carry ID and Seq.
	AppendEvents(ctx context.Context, chatID string, events []event.Event) error
	// ListEvents returns every event of the chat, active or not, in Seq order.
	ListEvents(ctx context.Context, chatID string) ([]event.Event, error)
	SetCanonical(ctx context.Context, chatID string, turnID, branchID int) error
	CanonicalPath(ctx context.Context, chatID string) (map[int]int, error)
	ListChats(ctx context.Context) ([]ChatSummary, error)

	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
