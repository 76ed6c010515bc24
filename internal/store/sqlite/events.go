package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"scenecraft/internal/event"
	"scenecraft/internal/store"
)

// timestampLayout is fixed width so that text comparison orders timestamps.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (c *Client) AppendEvents(ctx context.Context, chatID string, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (chat_id, seq, id, turn_id, branch_id, ts, step, kind, subkind, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing event insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		row, err := store.EncodeEvent(chatID, e)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			row.ChatID, row.Seq, row.ID, row.TurnID, row.BranchID,
			row.Timestamp.Format(timestampLayout), row.Step, row.Kind, row.Subkind, string(row.Payload),
		); err != nil {
			return fmt.Errorf("inserting event %s: %w", row.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing events: %w", err)
	}
	return nil
}

func (c *Client) ListEvents(ctx context.Context, chatID string) ([]event.Event, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT seq, id, turn_id, branch_id, ts, step, kind, subkind, payload
		FROM events
		WHERE chat_id = ?
		ORDER BY seq`, chatID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		row := store.Row{ChatID: chatID}
		var ts, payload string
		if err := rows.Scan(&row.Seq, &row.ID, &row.TurnID, &row.BranchID, &ts, &row.Step, &row.Kind, &row.Subkind, &payload); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		row.Timestamp, err = time.Parse(timestampLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp of event %s: %w", row.ID, err)
		}
		row.Payload = []byte(payload)

		e, err := store.DecodeEvent(row)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

func (c *Client) SetCanonical(ctx context.Context, chatID string, turnID, branchID int) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO canonical_path (chat_id, turn_id, branch_id)
		VALUES (?, ?, ?)
		ON CONFLICT (chat_id, turn_id) DO UPDATE SET
			branch_id = excluded.branch_id,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		chatID, turnID, branchID)
	if err != nil {
		return fmt.Errorf("setting canonical branch for turn %d: %w", turnID, err)
	}
	return nil
}

func (c *Client) CanonicalPath(ctx context.Context, chatID string) (map[int]int, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT turn_id, branch_id FROM canonical_path WHERE chat_id = ?`, chatID)
	if err != nil {
		return nil, fmt.Errorf("loading canonical path: %w", err)
	}
	defer rows.Close()

	path := make(map[int]int)
	for rows.Next() {
		var turn, branch int
		if err := rows.Scan(&turn, &branch); err != nil {
			return nil, fmt.Errorf("scanning canonical path: %w", err)
		}
		path[turn] = branch
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating canonical path: %w", err)
	}
	return path, nil
}

func (c *Client) ListChats(ctx context.Context) ([]store.ChatSummary, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT chat_id, COUNT(*), MAX(turn_id), MAX(ts)
		FROM events
		GROUP BY chat_id
		ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	defer rows.Close()

	var chats []store.ChatSummary
	for rows.Next() {
		var summary store.ChatSummary
		var updated sql.NullString
		if err := rows.Scan(&summary.ChatID, &summary.Events, &summary.LastTurn, &updated); err != nil {
			return nil, fmt.Errorf("scanning chat: %w", err)
		}
		if updated.Valid {
			ts, err := time.Parse(timestampLayout, updated.String)
			if err != nil {
				return nil, fmt.Errorf("parsing chat %s timestamp: %w", summary.ChatID, err)
			}
			summary.UpdatedAt = ts
		}
		chats = append(chats, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chats: %w", err)
	}
	return chats, nil
}
