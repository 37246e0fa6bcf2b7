package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of Store backed by maps and
// read/write mutexes. Suitable for development, testing, and running without
// a database.
type MemoryStore struct {
	matches    *memoryMatchStore
	recordings *memoryRecordingStore
	events     *memoryEventStore
}

// NewMemoryStore returns a fully initialised MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches:    &memoryMatchStore{data: make(map[int64]Match)},
		recordings: &memoryRecordingStore{data: make(map[int64]Recording)},
		events:     &memoryEventStore{data: make(map[int64]MatchEvent)},
	}
}

func (m *MemoryStore) Matches() MatchStore        { return m.matches }
func (m *MemoryStore) Recordings() RecordingStore { return m.recordings }
func (m *MemoryStore) Events() EventStore         { return m.events }

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }

// ---------------------------------------------------------------------------
// Match store
// ---------------------------------------------------------------------------

type memoryMatchStore struct {
	mu     sync.RWMutex
	data   map[int64]Match
	nextID int64
}

func (s *memoryMatchStore) Create(_ context.Context, m *Match) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	stored := *m
	stored.ID = s.nextID
	s.data[stored.ID] = stored
	return stored.ID, nil
}

func (s *memoryMatchStore) Get(_ context.Context, id int64) (*Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("match %d: %w", id, ErrNotFound)
	}
	return &m, nil
}

func (s *memoryMatchStore) List(_ context.Context) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Match, 0, len(s.data))
	for _, m := range s.data {
		out = append(out, m)
	}
	// Most recent first, matching the SQL ordering.
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *memoryMatchStore) Update(_ context.Context, m *Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[m.ID]; !exists {
		return fmt.Errorf("match %d: %w", m.ID, ErrNotFound)
	}
	s.data[m.ID] = *m
	return nil
}

func (s *memoryMatchStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[id]; !exists {
		return fmt.Errorf("match %d: %w", id, ErrNotFound)
	}
	delete(s.data, id)
	return nil
}

// ---------------------------------------------------------------------------
// Recording store
// ---------------------------------------------------------------------------

type memoryRecordingStore struct {
	mu     sync.RWMutex
	data   map[int64]Recording
	nextID int64
}

func (s *memoryRecordingStore) Create(_ context.Context, r *Recording) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	stored := *r
	stored.ID = s.nextID
	s.data[stored.ID] = stored
	return stored.ID, nil
}

func (s *memoryRecordingStore) Get(_ context.Context, id int64) (*Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("recording %d: %w", id, ErrNotFound)
	}
	return &r, nil
}

func (s *memoryRecordingStore) ListForMatch(_ context.Context, matchID int64) ([]Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Recording, 0)
	for _, r := range s.data {
		if r.MatchID == matchID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (s *memoryRecordingStore) Update(_ context.Context, r *Recording) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[r.ID]; !exists {
		return fmt.Errorf("recording %d: %w", r.ID, ErrNotFound)
	}
	s.data[r.ID] = *r
	return nil
}

func (s *memoryRecordingStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[id]; !exists {
		return fmt.Errorf("recording %d: %w", id, ErrNotFound)
	}
	delete(s.data, id)
	return nil
}

// ---------------------------------------------------------------------------
// Event store
// ---------------------------------------------------------------------------

type memoryEventStore struct {
	mu     sync.RWMutex
	data   map[int64]MatchEvent
	nextID int64
}

func (s *memoryEventStore) Append(_ context.Context, e *MatchEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	stored := *e
	stored.ID = s.nextID
	s.data[stored.ID] = stored
	return stored.ID, nil
}

func (s *memoryEventStore) Get(_ context.Context, id int64) (*MatchEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	return &e, nil
}

func (s *memoryEventStore) ListForMatch(_ context.Context, matchID int64) ([]MatchEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MatchEvent, 0)
	for _, e := range s.data {
		if e.MatchID == matchID {
			out = append(out, e)
		}
	}
	// Oldest first so the list replays in match order.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *memoryEventStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[id]; !exists {
		return fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	delete(s.data, id)
	return nil
}
