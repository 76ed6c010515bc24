// Package relstatus defines relationship status labels and the gate that
// limits how fast a relationship may escalate.
package relstatus

import "strings"

// Status is a relationship label. Only the label is stored; ranks exist for comparison.
type Status string

const (
	Hostile       Status = "hostile"
	Strained      Status = "strained"
	Strangers     Status = "strangers"
	Complicated   Status = "complicated"
	Acquaintances Status = "acquaintances"
	Friendly      Status = "friendly"
	Close         Status = "close"
	Intimate      Status = "intimate"
)

var ranks = map[Status]int{
	Hostile:       -2,
	Strained:      -1,
	Strangers:     0,
	Complicated:   0,
	Acquaintances: 1,
	Friendly:      2,
	Close:         3,
	Intimate:      4,
}

// byRank maps a rank back to its label when stepping. Complicated shares rank 0
// with strangers but is never produced by a step.
var byRank = map[int]Status{
	-2: Hostile,
	-1: Strained,
	0:  Strangers,
	1:  Acquaintances,
	2:  Friendly,
	3:  Close,
	4:  Intimate,
}

// Lowest is the baseline for a pair that has no relationship yet.
const Lowest = Hostile

// Parse normalizes s and reports whether it is a known status.
func Parse(s string) (Status, bool) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	_, ok := ranks[status]
	return status, ok
}

// Rank returns the comparison rank of s.
func (s Status) Rank() (int, bool) {
	rank, ok := ranks[s]
	return rank, ok
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := ranks[s]
	return ok
}

// deteriorating statuses are accepted without evidence.
func (s Status) deteriorating() bool {
	return s == Hostile || s == Strained || s == Complicated
}

// All returns the known statuses from lowest to highest rank.
func All() []Status {
	return []Status{Hostile, Strained, Strangers, Complicated, Acquaintances, Friendly, Close, Intimate}
}
