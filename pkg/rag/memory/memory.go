package memory

import (
	"sync"
	"time"

	"doc-assistant-be/pkg/store"
)

// Memory is the append-only record of completed turns. One instance is
// created at service start and shared by every in-flight query, so every
// operation is internally synchronized. A reset racing an append resolves
// at whole-turn granularity: a turn is either fully present or absent,
// never torn.
type Memory struct {
	mu       sync.RWMutex
	turns    []store.Turn
	maxTurns int
}

// New creates a Memory. maxTurns caps retention; 0 means unbounded. When
// the cap is hit eviction is FIFO and never reorders the survivors.
func New(maxTurns int) *Memory {
	if maxTurns < 0 {
		maxTurns = 0
	}
	return &Memory{maxTurns: maxTurns}
}

// Append records a completed turn. Structural fixups only: a missing
// timestamp is stamped, a nil candidate slice becomes empty. Append never
// fails.
func (m *Memory) Append(turn store.Turn) {
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	turn.Candidates = copyCandidates(turn.Candidates)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, turn)
	if m.maxTurns > 0 && len(m.turns) > m.maxTurns {
		overflow := len(m.turns) - m.maxTurns
		m.turns = append(m.turns[:0:0], m.turns[overflow:]...)
	}
}

// History returns snapshot copies of all turns in strict insertion order.
// Mutating the returned slice or its candidates never touches live state.
func (m *Memory) History() []store.Turn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := make([]store.Turn, len(m.turns))
	for i, t := range m.turns {
		t.Candidates = copyCandidates(t.Candidates)
		snapshot[i] = t
	}
	return snapshot
}

// Len reports the number of retained turns.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.turns)
}

// Reset irreversibly clears all turns.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = nil
}

func copyCandidates(in []store.Candidate) []store.Candidate {
	out := make([]store.Candidate, len(in))
	copy(out, in)
	return out
}
