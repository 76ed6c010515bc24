package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"scenecraft/internal/event"
	"scenecraft/internal/store"
)

func (c *Client) AppendEvents(ctx context.Context, chatID string, events []event.Event) error {
	if len(events) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(events))
	for _, e := range events {
		row, err := store.EncodeEvent(chatID, e)
		if err != nil {
			return err
		}
		rows = append(rows, []any{
			row.ChatID, row.Seq, row.ID, row.TurnID, row.BranchID,
			row.Timestamp, row.Step, row.Kind, row.Subkind, string(row.Payload),
		})
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, args := range rows {
		batch.Queue(`
			INSERT INTO events (chat_id, seq, id, turn_id, branch_id, ts, step, kind, subkind, payload)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb)`, args...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting events: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing events: %w", err)
	}
	return nil
}

func (c *Client) ListEvents(ctx context.Context, chatID string) ([]event.Event, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT seq, id, turn_id, branch_id, ts, step, kind, subkind, payload::text
		FROM events
		WHERE chat_id = $1
		ORDER BY seq`, chatID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		row := store.Row{ChatID: chatID}
		var payload string
		if err := rows.Scan(&row.Seq, &row.ID, &row.TurnID, &row.BranchID, &row.Timestamp, &row.Step, &row.Kind, &row.Subkind, &payload); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
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
	_, err := c.pool.Exec(ctx, `
		INSERT INTO canonical_path (chat_id, turn_id, branch_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (chat_id, turn_id) DO UPDATE SET
			branch_id = EXCLUDED.branch_id,
			updated_at = now()`,
		chatID, turnID, branchID)
	if err != nil {
		return fmt.Errorf("setting canonical branch for turn %d: %w", turnID, err)
	}
	return nil
}

func (c *Client) CanonicalPath(ctx context.Context, chatID string) (map[int]int, error) {
	rows, err := c.pool.Query(ctx, `SELECT turn_id, branch_id FROM canonical_path WHERE chat_id = $1`, chatID)
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
	rows, err := c.pool.Query(ctx, `
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
		var updated time.Time
		if err := rows.Scan(&summary.ChatID, &summary.Events, &summary.LastTurn, &updated); err != nil {
			return nil, fmt.Errorf("scanning chat: %w", err)
		}
		summary.UpdatedAt = updated.UTC()
		chats = append(chats, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chats: %w", err)
	}
	return chats, nil
}
