package history

import (
	"context"
	"sync"
	"time"

	"github.com/atrium-home/atrium-core/internal/infrastructure/influxdb"
)

// Applied is the last recorded mode application for a capability in a space.
type Applied struct {
	SpaceID    string    `json:"space_id"`
	Capability string    `json:"capability"`
	Mode       string    `json:"mode"`
	AppliedAt  time.Time `json:"applied_at"`
}

// TimeSeries is the narrow external time-series surface the store consumes.
// The InfluxDB client satisfies it; tests substitute a fake.
type TimeSeries interface {
	WriteAppliedState(spaceID, capability, mode string, appliedAt time.Time)
	QueryLastApplied(ctx context.Context, spaceID, capability string) (*influxdb.AppliedState, error)
}

// Store tracks "last applied" capability state.
//
// Reads hit the in-memory cache first and fall back to the time-series
// backend only on a miss, so steady-state aggregation never leaves the
// process. Writes go through the cache and the backend together.
type Store struct {
	mu    sync.RWMutex
	cache map[string]Applied
	ts    TimeSeries
}

// NewStore creates a history store. ts may be nil when no time-series
// backend is configured; the store then operates cache-only.
func NewStore(ts TimeSeries) *Store {
	return &Store{
		cache: make(map[string]Applied),
		ts:    ts,
	}
}

func cacheKey(spaceID, capability string) string {
	return spaceID + "|" + capability
}

// RecordApplied stores a mode application in the cache and the backend.
func (s *Store) RecordApplied(spaceID, capability, mode string) {
	applied := Applied{
		SpaceID:    spaceID,
		Capability: capability,
		Mode:       mode,
		AppliedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	s.cache[cacheKey(spaceID, capability)] = applied
	s.mu.Unlock()

	if s.ts != nil {
		s.ts.WriteAppliedState(spaceID, capability, mode, applied.AppliedAt)
	}
}

// LastApplied returns the most recent application for a capability in a
// space, or nil if none is known. Backend failures degrade to nil rather
// than erroring; last-applied is advisory data.
func (s *Store) LastApplied(ctx context.Context, spaceID, capability string) *Applied {
	s.mu.RLock()
	cached, ok := s.cache[cacheKey(spaceID, capability)]
	s.mu.RUnlock()
	if ok {
		return &cached
	}

	if s.ts == nil {
		return nil
	}
	state, err := s.ts.QueryLastApplied(ctx, spaceID, capability)
	if err != nil || state == nil {
		return nil
	}

	applied := Applied{
		SpaceID:    state.SpaceID,
		Capability: state.Capability,
		Mode:       state.Mode,
		AppliedAt:  state.AppliedAt,
	}

	s.mu.Lock()
	s.cache[cacheKey(spaceID, capability)] = applied
	s.mu.Unlock()

	return &applied
}
