// Package historytest provides integration testing facilities for run history
// stores.
package historytest

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/zephyrtronium/voxe/arraypool"
	"github.com/zephyrtronium/voxe/history"
	"github.com/zephyrtronium/voxe/objpool"
)

// Test runs the integration test suite against stores produced by new.
// Each call to new must return a distinct, empty store.
func Test(ctx context.Context, t *testing.T, new func(context.Context) history.Store) {
	t.Run("empty", testEmpty(ctx, new(ctx)))
	t.Run("order", testOrder(ctx, new(ctx)))
	t.Run("limit", testLimit(ctx, new(ctx)))
	t.Run("replace", testReplace(ctx, new(ctx)))
	t.Run("contents", testContents(ctx, new(ctx)))
}

func report(start int64) *history.Report {
	return &history.Report{
		ID:    uuid.New(),
		Start: time.Unix(start, 0).UTC(),
	}
}

func ids(r []history.Report) []uuid.UUID {
	s := make([]uuid.UUID, len(r))
	for i := range r {
		s[i] = r[i].ID
	}
	return s
}

func testEmpty(ctx context.Context, s history.Store) func(t *testing.T) {
	return func(t *testing.T) {
		r, err := s.Recent(ctx, 10)
		if err != nil {
			t.Fatalf("couldn't get recent from empty store: %v", err)
		}
		if len(r) != 0 {
			t.Errorf("empty store has reports: %v", r)
		}
	}
}

func testOrder(ctx context.Context, s history.Store) func(t *testing.T) {
	return func(t *testing.T) {
		a, b, c := report(1), report(3), report(2)
		for _, r := range []*history.Report{a, b, c} {
			if err := s.Record(ctx, r); err != nil {
				t.Fatalf("couldn't record %v: %v", r.ID, err)
			}
		}
		r, err := s.Recent(ctx, 10)
		if err != nil {
			t.Fatalf("couldn't get recent: %v", err)
		}
		want := []uuid.UUID{b.ID, c.ID, a.ID}
		if diff := cmp.Diff(want, ids(r)); diff != "" {
			t.Errorf("wrong order (-want +got):\n%s", diff)
		}
	}
}

func testLimit(ctx context.Context, s history.Store) func(t *testing.T) {
	return func(t *testing.T) {
		var want []uuid.UUID
		for i := range 10 {
			r := report(int64(i))
			if err := s.Record(ctx, r); err != nil {
				t.Fatalf("couldn't record %v: %v", r.ID, err)
			}
			want = append(want, r.ID)
		}
		// Most recent first.
		for i, j := 0, len(want)-1; i < j; i, j = i+1, j-1 {
			want[i], want[j] = want[j], want[i]
		}
		r, err := s.Recent(ctx, 4)
		if err != nil {
			t.Fatalf("couldn't get recent: %v", err)
		}
		if diff := cmp.Diff(want[:4], ids(r)); diff != "" {
			t.Errorf("wrong reports (-want +got):\n%s", diff)
		}
		r, err = s.Recent(ctx, 0)
		if err != nil {
			t.Fatalf("couldn't get zero recent: %v", err)
		}
		if len(r) != 0 {
			t.Errorf("got reports for zero limit: %v", ids(r))
		}
	}
}

func testReplace(ctx context.Context, s history.Store) func(t *testing.T) {
	return func(t *testing.T) {
		r := report(5)
		if err := s.Record(ctx, r); err != nil {
			t.Fatalf("couldn't record: %v", err)
		}
		r.Start = time.Unix(7, 0).UTC()
		r.Frames = 99
		if err := s.Record(ctx, r); err != nil {
			t.Fatalf("couldn't record again: %v", err)
		}
		got, err := s.Recent(ctx, 10)
		if err != nil {
			t.Fatalf("couldn't get recent: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("wrong number of reports after replace: want 1, got %d", len(got))
		}
		if got[0].Frames != 99 || !got[0].Start.Equal(r.Start) {
			t.Errorf("report not replaced: %+v", got[0])
		}
	}
}

func testContents(ctx context.Context, s history.Store) func(t *testing.T) {
	return func(t *testing.T) {
		r := report(1700000000)
		r.Duration = 1500 * time.Millisecond
		r.Workers = 4
		r.Frames = 240
		r.Meshes = 960
		r.Vertices = 123456
		r.Spawned = 700
		r.Despawned = 650
		r.Arrays = map[string]arraypool.Stats{
			"geometry.Vector3": {Hits: 1910, Allocs: 10, Releases: 1920, Cached: 8},
		}
		r.Objects = map[string]objpool.Stats{
			"cubes": {Reused: 600, Created: 228, Pushed: 650, Available: 78},
		}
		if err := s.Record(ctx, r); err != nil {
			t.Fatalf("couldn't record: %v", err)
		}
		got, err := s.Recent(ctx, 1)
		if err != nil {
			t.Fatalf("couldn't get recent: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("wrong number of reports: want 1, got %d", len(got))
		}
		if diff := cmp.Diff(r, &got[0]); diff != "" {
			t.Errorf("report changed in storage (-want +got):\n%s", diff)
		}
	}
}
