package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"scenecraft/internal/event"
)

type ChatSummary struct {
	ChatID    string    `json:"chat_id"`
	Events    int       `json:"events"`
	LastTurn  int       `json:"last_turn"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Row is the column layout of the events table.
type Row struct {
	ChatID    string
	Seq       int64
	ID        string
	TurnID    int
	BranchID  int
	Timestamp time.Time
	Step      string
	Kind      string
	Subkind   string
	Payload   []byte
}

// EncodeEvent flattens e into a row for chatID.
func EncodeEvent(chatID string, e event.Event) (Row, error) {
	if e.ID == "" || e.Seq == 0 {
		return Row{}, fmt.Errorf("encoding event: id and seq must be assigned before persisting")
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return Row{}, fmt.Errorf("encoding event %s payload: %w", e.ID, err)
	}
	return Row{
		ChatID:    chatID,
		Seq:       int64(e.Seq),
		ID:        e.ID,
		TurnID:    e.Origin.TurnID,
		BranchID:  e.Origin.BranchID,
		Timestamp: e.Timestamp.UTC(),
		Step:      e.Step,
		Kind:      string(e.Kind()),
		Subkind:   string(e.Subkind()),
		Payload:   payload,
	}, nil
}

// DecodeEvent rebuilds the event stored in r.
func DecodeEvent(r Row) (event.Event, error) {
	payload, err := event.DecodePayload(event.Kind(r.Kind), event.Subkind(r.Subkind), r.Payload)
	if err != nil {
		return event.Event{}, fmt.Errorf("decoding event %s: %w", r.ID, err)
	}
	return event.Event{
		ID:        r.ID,
		Seq:       uint64(r.Seq),
		Origin:    event.Origin{TurnID: r.TurnID, BranchID: r.BranchID},
		Timestamp: r.Timestamp.UTC(),
		Step:      r.Step,
		Payload:   payload,
	}, nil
}

// PositionalArgs orders params keyed "1", "2", ... into query arguments.
func PositionalArgs(params map[string]any) []any {
	args := make([]any, 0, len(params))
	for i := 1; i <= len(params); i++ {
		key := strconv.Itoa(i)
		if val, ok := params[key]; ok {
			args = append(args, val)
		}
	}
	return args
}

// ErrWriteQuery is returned by RunSQL for statements that could modify the log.
var ErrWriteQuery = errors.New("only read queries are allowed")

var readPrefixes = []string{"select", "with", "explain", "values"}

// CheckReadOnly rejects anything but a single read statement. The event log is
// only written through AppendEvents so Seq and canonical state stay consistent.
func CheckReadOnly(query string) error {
	q := strings.ToLower(strings.TrimSpace(query))
	q = strings.TrimSuffix(q, ";")
	if strings.Contains(q, ";") {
		return fmt.Errorf("multiple statements: %w", ErrWriteQuery)
	}
	for _, prefix := range readPrefixes {
		if strings.HasPrefix(q, prefix) {
			return nil
		}
	}
	return fmt.Errorf("%q: %w", firstWord(q), ErrWriteQuery)
}

func firstWord(q string) string {
	if fields := strings.Fields(q); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
