package event

// TensionLevel is an ordered measure of dramatic tension.
type TensionLevel string

const (
	TensionRelaxed   TensionLevel = "relaxed"
	TensionAware     TensionLevel = "aware"
	TensionGuarded   TensionLevel = "guarded"
	TensionTense     TensionLevel = "tense"
	TensionCharged   TensionLevel = "charged"
	TensionVolatile  TensionLevel = "volatile"
	TensionExplosive TensionLevel = "explosive"
)

var tensionRanks = map[TensionLevel]int{
	TensionRelaxed:   0,
	TensionAware:     1,
	TensionGuarded:   2,
	TensionTense:     3,
	TensionCharged:   4,
	TensionVolatile:  5,
	TensionExplosive: 6,
}

// Rank returns the position of the level on the tension scale.
func (l TensionLevel) Rank() (int, bool) {
	rank, ok := tensionRanks[l]
	return rank, ok
}

// TensionType classifies what the tension is about.
type TensionType string

const (
	TensionConversation  TensionType = "conversation"
	TensionConfrontation TensionType = "confrontation"
	TensionRomantic      TensionType = "romantic"
	TensionSocial        TensionType = "social"
	TensionStealth       TensionType = "stealth"
	TensionMystery       TensionType = "mystery"
	TensionSurvival      TensionType = "survival"
	TensionCombat        TensionType = "combat"
	TensionSuspense      TensionType = "suspense"
)

var tensionTypes = map[TensionType]struct{}{
	TensionConversation:  {},
	TensionConfrontation: {},
	TensionRomantic:      {},
	TensionSocial:        {},
	TensionStealth:       {},
	TensionMystery:       {},
	TensionSurvival:      {},
	TensionCombat:        {},
	TensionSuspense:      {},
}

// Valid reports whether t is a known tension type.
func (t TensionType) Valid() bool {
	_, ok := tensionTypes[t]
	return ok
}

// TensionDirection describes how tension moved relative to the previous reading.
type TensionDirection string

const (
	TensionEscalating TensionDirection = "escalating"
	TensionStable     TensionDirection = "stable"
	TensionDecreasing TensionDirection = "decreasing"
)
