// Package store holds the in-memory Lap Store: a mutex-guarded map from lap
// id to closed, immutable Lap records. Only the orchestration layer inserts
// into it (its consumer loops and lap import); analysis and export take the same lock and work
// against snapshots, never against live references into the map.
package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/psybedev/delta/model"
)

// ErrNotFound is returned when a lap id has no matching record.
type ErrNotFound struct {
	ID uuid.UUID
}

func (e *ErrNotFound) Error() string { return fmt.Sprintf("store: lap %s not found", e.ID) }

// LapStore is the shared, mutex-guarded mapping of lap id to Lap. Unlike
// the Sample Channel, the store is small, read by synchronous analysis
// calls, and never blocks on I/O while held, so a bare RWMutex suffices.
type LapStore struct {
	mu   sync.RWMutex
	laps map[uuid.UUID]*model.Lap
}

// New returns an empty store.
func New() *LapStore {
	return &LapStore{laps: make(map[uuid.UUID]*model.Lap)}
}

// Insert adds a newly closed lap. Lap records are immutable once inserted;
// callers must not mutate the pointer afterward.
func (s *LapStore) Insert(lap *model.Lap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.laps[lap.ID] = lap
}

// Get returns the lap with the given id.
func (s *LapStore) Get(id uuid.UUID) (*model.Lap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lap, ok := s.laps[id]
	if !ok {
		return nil, &ErrNotFound{ID: id}
	}
	return lap, nil
}

// GetMany resolves a set of ids, failing before producing any partial output
// if any id is unknown -- analysis over N laps either succeeds completely or
// fails before doing any work.
func (s *LapStore) GetMany(ids []uuid.UUID) ([]*model.Lap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Lap, 0, len(ids))
	for _, id := range ids {
		lap, ok := s.laps[id]
		if !ok {
			return nil, &ErrNotFound{ID: id}
		}
		out = append(out, lap)
	}
	return out, nil
}

// LapListing is the summary row returned by List.
type LapListing struct {
	ID        uuid.UUID
	Game      string
	Track     string
	Car       string
	LapNumber uint32
	TimeMs    uint64
}

// List returns every lap's summary, sorted by ascending time_ms.
func (s *LapStore) List() []LapListing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LapListing, 0, len(s.laps))
	for _, lap := range s.laps {
		out = append(out, LapListing{
			ID:        lap.ID,
			Game:      lap.Meta.Game,
			Track:     lap.Meta.Track,
			Car:       lap.Meta.Car,
			LapNumber: lap.Meta.LapNumber,
			TimeMs:    lap.TotalTimeMs,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeMs < out[j].TimeMs })
	return out
}

// Snapshot returns every lap currently in the store, in no particular order.
// Used by export.
func (s *LapStore) Snapshot() []*model.Lap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.Lap, 0, len(s.laps))
	for _, lap := range s.laps {
		out = append(out, lap)
	}
	return out
}

// Len reports the number of laps currently stored.
func (s *LapStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.laps)
}
