package eventlog

import "errors"

var (
	// ErrDuplicateID is returned when an event id is already in the log.
	ErrDuplicateID = errors.New("duplicate event id")
	// ErrMissingID is returned when a persisted event has no id.
	ErrMissingID = errors.New("missing event id")
)
