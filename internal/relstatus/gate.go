package relstatus

import "slices"

// Tiers lists the milestone subjects that unlock each gated status.
type Tiers struct {
	Friendly []string `yaml:"friendly" json:"friendly"`
	Close    []string `yaml:"close" json:"close"`
	Intimate []string `yaml:"intimate" json:"intimate"`
}

// DefaultTiers returns the built-in gate subjects.
func DefaultTiers() Tiers {
	return Tiers{
		Friendly: []string{"shared_laughter", "gift", "compliment", "helped", "shared_meal"},
		Close:    []string{"confession", "secret_shared", "comfort", "defended", "vulnerability"},
		Intimate: []string{"intimate_kiss", "intimate_embrace", "intimate_heated", "intimate_sex", "declaration_of_love"},
	}
}

// IsZero reports whether no tier has any subject.
func (t Tiers) IsZero() bool {
	return len(t.Friendly) == 0 && len(t.Close) == 0 && len(t.Intimate) == 0
}

// OrDefault returns t, or DefaultTiers when t is empty.
func (t Tiers) OrDefault() Tiers {
	if t.IsZero() {
		return DefaultTiers()
	}
	return t
}

// SubjectSet is the set of milestone subjects recorded for one pair.
type SubjectSet map[string]struct{}

// NewSubjectSet builds a set from subjects.
func NewSubjectSet(subjects ...string) SubjectSet {
	set := make(SubjectSet, len(subjects))
	for _, s := range subjects {
		set[s] = struct{}{}
	}
	return set
}

// Has reports whether subject is in the set.
func (s SubjectSet) Has(subject string) bool {
	_, ok := s[subject]
	return ok
}

func (s SubjectSet) any(subjects []string) bool {
	return slices.ContainsFunc(subjects, s.Has)
}

// MaxAllowed returns the highest status the milestones unlock.
func MaxAllowed(milestones SubjectSet, tiers Tiers) Status {
	switch {
	case milestones.any(tiers.Intimate):
		return Intimate
	case milestones.any(tiers.Close):
		return Close
	case milestones.any(tiers.Friendly):
		return Friendly
	default:
		return Acquaintances
	}
}

// Gate constrains a proposed status change:
//  1. unknown proposals leave current unchanged;
//  2. hostile, strained and complicated are always accepted;
//  3. anything else is capped at MaxAllowed;
//  4. an increase over current is limited to one rank, applied after the cap.
//
// An unknown or empty current status counts as Lowest.
func Gate(proposed string, current Status, milestones SubjectSet, tiers Tiers) Status {
	currentRank, ok := current.Rank()
	if !ok {
		current = Lowest
		currentRank, _ = Lowest.Rank()
	}

	status, ok := Parse(proposed)
	if !ok {
		return current
	}
	if status.deteriorating() {
		return status
	}

	rank, _ := status.Rank()
	maxRank, _ := MaxAllowed(milestones, tiers).Rank()
	if rank > maxRank {
		status, rank = byRank[maxRank], maxRank
	}

	if rank > currentRank+1 {
		return byRank[currentRank+1]
	}
	return status
}
