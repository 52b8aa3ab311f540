// Package history keeps the most recent calculation results in memory so
// that the dashboard can list and export them. Nothing is persisted.
package history

import (
	"sync"
	"time"

	"github.com/giygas/nutricalc-api/calculator"
	"github.com/giygas/nutricalc-api/formulas"
	"github.com/google/uuid"
)

// DefaultLimit is used when NewStore is given a non-positive limit.
const DefaultLimit = 500

// Entry is one recorded calculation.
type Entry struct {
	ID             uuid.UUID            `json:"id"`
	Formula        calculator.FormulaID `json:"formula"`
	Value          formulas.Estimate    `json:"value"`
	Unit           string               `json:"unit"`
	Classification string               `json:"classification,omitempty"`
	Timestamp      time.Time            `json:"timestamp"`
}

// Store is a bounded, mutex guarded list of entries, oldest first.
type Store struct {
	mu       sync.RWMutex
	entries  []Entry
	limit    int
	lastSeen time.Time
	now      func() time.Time
}

// NewStore returns an empty store keeping at most limit entries.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		entries: make([]Entry, 0, min(limit, 64)),
		limit:   limit,
		now:     time.Now,
	}
}

// Record appends an outcome, dropping the oldest entry once the store is full.
func (s *Store) Record(out calculator.Outcome) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := Entry{
		ID:             uuid.New(),
		Formula:        out.Formula,
		Value:          out.Value,
		Unit:           out.Unit,
		Classification: out.Classification,
		Timestamp:      s.now(),
	}
	if len(s.entries) >= s.limit {
		// shift instead of reslicing so the backing array does not grow forever
		copy(s.entries, s.entries[1:])
		s.entries = s.entries[:len(s.entries)-1]
	}
	s.entries = append(s.entries, e)
	s.lastSeen = e.Timestamp
	return e
}

// Recent returns a copy of the last n entries, newest last. n <= 0 returns all.
func (s *Store) Recent(n int) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if n > 0 && n < len(s.entries) {
		start = len(s.entries) - n
	}
	out := make([]Entry, len(s.entries)-start)
	copy(out, s.entries[start:])
	return out
}

// Clear removes every entry and returns how many were removed.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = s.entries[:0]
	return n
}

// PruneOlderThan drops entries recorded more than d ago and returns how many
// were dropped.
func (s *Store) PruneOlderThan(d time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-d)
	keep := 0
	for keep < len(s.entries) && s.entries[keep].Timestamp.Before(cutoff) {
		keep++
	}
	if keep == 0 {
		return 0
	}
	n := copy(s.entries, s.entries[keep:])
	s.entries = s.entries[:n]
	return keep
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Limit is the maximum number of entries kept.
func (s *Store) Limit() int {
	return s.limit
}

// LastRecorded is the time of the latest Record call, zero if none. It
// survives Clear and pruning.
func (s *Store) LastRecorded() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}
