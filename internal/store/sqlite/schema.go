package sqlite

import (
	"context"
	"fmt"
	"strings"
)

const ddl = `
CREATE TABLE IF NOT EXISTS events (
	chat_id   TEXT NOT NULL,
	seq       INTEGER NOT NULL,
	id        TEXT NOT NULL,
	turn_id   INTEGER NOT NULL,
	branch_id INTEGER NOT NULL DEFAULT 0,
	ts        TEXT NOT NULL,
	step      TEXT NOT NULL DEFAULT '',
	kind      TEXT NOT NULL,
	subkind   TEXT NOT NULL,
	payload   TEXT NOT NULL DEFAULT '{}',
	PRIMARY KEY (chat_id, seq),
	CONSTRAINT uq_event_id UNIQUE (chat_id, id)
);

CREATE TABLE IF NOT EXISTS canonical_path (
	chat_id    TEXT NOT NULL,
	turn_id    INTEGER NOT NULL,
	branch_id  INTEGER NOT NULL,
	updated_at TEXT DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
	PRIMARY KEY (chat_id, turn_id)
);

-- lookups by origin and by kind back the validate and query commands
CREATE INDEX IF NOT EXISTS idx_events_origin ON events (chat_id, turn_id, branch_id);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events (chat_id, kind, subkind);
CREATE INDEX IF NOT EXISTS idx_events_step ON events (chat_id, step) WHERE step <> '';
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

// splitStatements splits a DDL script on statement-ending semicolons and drops
// comment lines.
func splitStatements(script string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(script, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
