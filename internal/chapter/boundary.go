package chapter

import (
	"time"

	"scenecraft/internal/event"
	"scenecraft/internal/projection"
)

// DefaultTimeJump is the narrative time gap that closes a chapter.
const DefaultTimeJump = 6 * time.Hour

// DetectBoundary compares the scene before and after a turn and reports
// whether the chapter should end. A location change needs both locations set;
// a time jump needs both times set and a forward gap of at least timeJump.
func DetectBoundary(prev, cur projection.Projection, timeJump time.Duration) (event.EndReason, bool) {
	if timeJump <= 0 {
		timeJump = DefaultTimeJump
	}

	moved := located(prev.Location) && located(cur.Location) &&
		(prev.Location.Area != cur.Location.Area || prev.Location.Place != cur.Location.Place)

	jumped := prev.Time != nil && cur.Time != nil && cur.Time.Sub(*prev.Time) >= timeJump

	switch {
	case moved && jumped:
		return event.EndBoth, true
	case moved:
		return event.EndLocationChange, true
	case jumped:
		return event.EndTimeJump, true
	default:
		return "", false
	}
}

func located(l projection.Location) bool {
	return l.Area != "" || l.Place != ""
}
