package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// Executed as one multi-statement call, which postgres runs in an implicit
	// transaction.
	ddl := `
CREATE TABLE IF NOT EXISTS events (
    chat_id   TEXT NOT NULL,
    seq       BIGINT NOT NULL,
    id        TEXT NOT NULL,
    turn_id   INTEGER NOT NULL,
    branch_id INTEGER NOT NULL DEFAULT 0,
    ts        TIMESTAMPTZ NOT NULL,
    step      TEXT NOT NULL DEFAULT '',
    kind      TEXT NOT NULL,
    subkind   TEXT NOT NULL,
    payload   JSONB NOT NULL DEFAULT '{}',
    PRIMARY KEY (chat_id, seq),
    CONSTRAINT uq_event_id UNIQUE (chat_id, id)
);

CREATE TABLE IF NOT EXISTS canonical_path (
    chat_id    TEXT NOT NULL,
    turn_id    INTEGER NOT NULL,
    branch_id  INTEGER NOT NULL,
    updated_at TIMESTAMPTZ DEFAULT now(),
    PRIMARY KEY (chat_id, turn_id)
);

CREATE INDEX IF NOT EXISTS idx_events_origin ON events (chat_id, turn_id, branch_id);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events (chat_id, kind, subkind);
CREATE INDEX IF NOT EXISTS idx_events_step ON events (chat_id, step) WHERE step <> '';
CREATE INDEX IF NOT EXISTS idx_events_payload ON events USING GIN (payload);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
