package event

import (
	"encoding/json"
	"fmt"
	"strings"
)

const pairSeparator = "|"

// Pair identifies a relationship between two characters. The names are kept
// sorted so that (a, b) and (b, a) are the same pair.
type Pair [2]string

// NewPair returns the sorted pair of a and b.
func NewPair(a, b string) Pair {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if b < a {
		a, b = b, a
	}
	return Pair{a, b}
}

// Valid reports whether the pair names two distinct characters in sorted order.
func (p Pair) Valid() bool {
	return p[0] != "" && p[1] != "" && p[0] < p[1]
}

// Has reports whether name is one of the pair's members.
func (p Pair) Has(name string) bool {
	return name != "" && (p[0] == name || p[1] == name)
}

// Other returns the member of the pair that is not name.
func (p Pair) Other(name string) string {
	if p[0] == name {
		return p[1]
	}
	return p[0]
}

func (p Pair) String() string {
	return p[0] + pairSeparator + p[1]
}

// MarshalText encodes the pair as "a|b" so it can be used as a JSON map key.
func (p Pair) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts "a|b" and normalizes the order.
func (p *Pair) UnmarshalText(text []byte) error {
	parts := strings.Split(string(text), pairSeparator)
	if len(parts) != 2 {
		return fmt.Errorf("invalid pair %q: expected a|b", string(text))
	}
	*p = NewPair(parts[0], parts[1])
	return nil
}

// MarshalJSON encodes a pair value as a two-element array.
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string(p))
}

// UnmarshalJSON accepts either ["a", "b"] or "a|b" and normalizes the order.
func (p *Pair) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		return p.UnmarshalText([]byte(text))
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("invalid pair: %w", err)
	}
	if len(names) != 2 {
		return fmt.Errorf("invalid pair: expected 2 names, got %d", len(names))
	}
	*p = NewPair(names[0], names[1])
	return nil
}
