// Package canon answers which branch is canonical at a given turn.
//
// The answer belongs to the host's turn tree and may change at any moment
// (the user selects another swipe), so consumers query the Resolver on every
// filtering pass instead of holding on to earlier answers.
package canon

import (
	"maps"
	"sync"
)

// Resolver is the canonical-path oracle.
type Resolver interface {
	CanonicalSwipe(turnID int) int
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(turnID int) int

func (f ResolverFunc) CanonicalSwipe(turnID int) int {
	return f(turnID)
}

// Versioned is implemented by resolvers that can report when their answers
// changed. A changed version invalidates anything derived from earlier answers.
type Versioned interface {
	Version() uint64
}

// Map is a concurrency-safe canonical path. Turns that were never selected
// resolve to branch 0.
type Map struct {
	mu       sync.RWMutex
	branches map[int]int
	version  uint64
}

func NewMap() *Map {
	return &Map{branches: make(map[int]int)}
}

func (m *Map) CanonicalSwipe(turnID int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.branches[turnID]
}

// Select makes branchID canonical at turnID. It reports whether the answer changed.
func (m *Map) Select(turnID, branchID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.branches == nil {
		m.branches = make(map[int]int)
	}
	current, ok := m.branches[turnID]
	if ok && current == branchID {
		return false
	}
	if !ok && branchID == 0 {
		m.branches[turnID] = 0
		return false
	}
	m.branches[turnID] = branchID
	m.version++
	return true
}

func (m *Map) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Entries returns a copy of the explicit selections.
func (m *Map) Entries() map[int]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.branches)
}

// Load replaces all selections, e.g. when restoring from persistence.
func (m *Map) Load(entries map[int]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.branches = maps.Clone(entries)
	if m.branches == nil {
		m.branches = make(map[int]int)
	}
	m.version++
}

// Memo wraps r with a memo that lives for a single filtering pass. Callers
// create one per pass and drop it afterwards.
func Memo(r Resolver) Resolver {
	cache := make(map[int]int)
	return ResolverFunc(func(turnID int) int {
		if branch, ok := cache[turnID]; ok {
			return branch
		}
		branch := r.CanonicalSwipe(turnID)
		cache[turnID] = branch
		return branch
	})
}

// Active reports whether an event at (turnID, branchID) is on the canonical path.
func Active(r Resolver, turnID, branchID int) bool {
	return r.CanonicalSwipe(turnID) == branchID
}
