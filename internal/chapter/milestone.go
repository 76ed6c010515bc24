package chapter

import "scenecraft/internal/event"

type milestoneKey struct {
	pair    event.Pair
	subject string
}

// Milestone is the first active occurrence of a subject for a pair.
type Milestone struct {
	Pair    event.Pair `json:"pair"`
	Subject string     `json:"subject"`
	Turn    int        `json:"turn"`
	EventID string     `json:"event_id"`
}

// Milestones returns the milestones in replay order. Each (pair, subject)
// appears at most once.
func Milestones(events []event.Event) []Milestone {
	seen := map[milestoneKey]struct{}{}
	var out []Milestone
	for _, e := range events {
		recorded, ok := e.Payload.(event.SubjectRecorded)
		if !ok {
			continue
		}
		key := milestoneKey{recorded.Pair, recorded.Subject}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Milestone{
			Pair:    recorded.Pair,
			Subject: recorded.Subject,
			Turn:    e.Origin.TurnID,
			EventID: e.ID,
		})
	}
	return out
}

// ForPair returns the subjects already reached by pair.
func ForPair(milestones []Milestone, pair event.Pair) []string {
	var subjects []string
	for _, m := range milestones {
		if m.Pair == pair {
			subjects = append(subjects, m.Subject)
		}
	}
	return subjects
}
