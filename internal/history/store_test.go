package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atrium-home/atrium-core/internal/infrastructure/influxdb"
)

type fakeTimeSeries struct {
	writes  int
	queries int
	stored  *influxdb.AppliedState
	err     error
}

func (f *fakeTimeSeries) WriteAppliedState(spaceID, capability, mode string, appliedAt time.Time) {
	f.writes++
	f.stored = &influxdb.AppliedState{
		SpaceID: spaceID, Capability: capability, Mode: mode, AppliedAt: appliedAt,
	}
}

func (f *fakeTimeSeries) QueryLastApplied(_ context.Context, _, _ string) (*influxdb.AppliedState, error) {
	f.queries++
	return f.stored, f.err
}

func TestStoreCacheFirst(t *testing.T) {
	ts := &fakeTimeSeries{}
	s := NewStore(ts)
	ctx := context.Background()

	s.RecordApplied("living", "lighting", "movie")
	if ts.writes != 1 {
		t.Errorf("backend writes = %d, want write-through", ts.writes)
	}

	got := s.LastApplied(ctx, "living", "lighting")
	if got == nil || got.Mode != "movie" {
		t.Fatalf("LastApplied() = %+v, want cached movie record", got)
	}
	if ts.queries != 0 {
		t.Errorf("backend queries = %d, want 0 on cache hit", ts.queries)
	}
}

func TestStoreBackendFallback(t *testing.T) {
	ts := &fakeTimeSeries{
		stored: &influxdb.AppliedState{
			SpaceID: "living", Capability: "media", Mode: "party",
			AppliedAt: time.Now().Add(-time.Hour),
		},
	}
	s := NewStore(ts)
	ctx := context.Background()

	got := s.LastApplied(ctx, "living", "media")
	if got == nil || got.Mode != "party" {
		t.Fatalf("LastApplied() = %+v, want backend record", got)
	}
	if ts.queries != 1 {
		t.Errorf("backend queries = %d, want 1", ts.queries)
	}

	// Second read is served from cache.
	_ = s.LastApplied(ctx, "living", "media")
	if ts.queries != 1 {
		t.Errorf("backend queries after cached read = %d, want still 1", ts.queries)
	}
}

func TestStoreDegradesToNil(t *testing.T) {
	ts := &fakeTimeSeries{err: errors.New("influx down")}
	s := NewStore(ts)

	if got := s.LastApplied(context.Background(), "living", "covers"); got != nil {
		t.Errorf("LastApplied() with failing backend = %+v, want nil", got)
	}

	// No backend at all.
	s = NewStore(nil)
	s.RecordApplied("living", "covers", "open")
	if got := s.LastApplied(context.Background(), "living", "covers"); got == nil {
		t.Error("cache-only store lost the record")
	}
}
