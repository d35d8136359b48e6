package arraypool_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zephyrtronium/voxe/arraypool"
	"github.com/zephyrtronium/voxe/metrics"
)

type recorder struct {
	seen map[string]float64
}

func (r *recorder) Observe(val float64, labels ...string) {
	r.seen[strings.Join(labels, "/")] += val
}

func (r *recorder) Describe(chan<- *prometheus.Desc) {}

func (r *recorder) Collect(chan<- prometheus.Metric) {}

func TestSet(t *testing.T) {
	acq := &recorder{seen: make(map[string]float64)}
	rel := &recorder{seen: make(map[string]float64)}
	m := metrics.Discard()
	m.ArrayAcquires = acq
	m.ArrayReleases = rel
	s := arraypool.NewSet(m)

	a := arraypool.Acquire[float32](s, 3)
	b := arraypool.Acquire[float3](s, 3)
	if err := arraypool.Release(s, a); err != nil {
		t.Fatal(err)
	}
	if err := arraypool.Release(s, b); err != nil {
		t.Fatal(err)
	}
	arraypool.Acquire[float32](s, 2)

	if got, want := s.Kinds(), []arraypool.Kind{arraypool.KindOf[float3](), arraypool.KindOf[float32]()}; len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("wrong kinds: want %v, got %v", want, got)
	}
	if arraypool.For[float32](s) != arraypool.For[float32](s) {
		t.Error("set created two pools for one kind")
	}

	wantStats := map[string]arraypool.Stats{
		"float32":               {Hits: 1, Allocs: 1, Releases: 1, Cached: 0},
		"arraypool_test.float3": {Hits: 0, Allocs: 1, Releases: 1, Cached: 1},
	}
	if diff := cmp.Diff(wantStats, s.Stats()); diff != "" {
		t.Errorf("wrong stats (-want +got):\n%s", diff)
	}
	wantAcq := map[string]float64{
		"float32/alloc":               1,
		"float32/hit":                 1,
		"arraypool_test.float3/alloc": 1,
	}
	if diff := cmp.Diff(wantAcq, acq.seen); diff != "" {
		t.Errorf("wrong acquire metrics (-want +got):\n%s", diff)
	}
	wantRel := map[string]float64{
		"float32":               1,
		"arraypool_test.float3": 1,
	}
	if diff := cmp.Diff(wantRel, rel.seen); diff != "" {
		t.Errorf("wrong release metrics (-want +got):\n%s", diff)
	}
}

func TestStatsAdd(t *testing.T) {
	a := arraypool.Stats{Hits: 1, Allocs: 2, Releases: 3, Cached: 4}
	b := arraypool.Stats{Hits: 10, Allocs: 20, Releases: 30, Cached: 40}
	want := arraypool.Stats{Hits: 11, Allocs: 22, Releases: 33, Cached: 44}
	if diff := cmp.Diff(want, a.Add(b)); diff != "" {
		t.Errorf("wrong sum (-want +got):\n%s", diff)
	}
}

func acquireVecA(s *arraypool.Set) {
	type vec struct{ x float32 }
	arraypool.Release(s, arraypool.Acquire[vec](s, 1))
}

func acquireVecB(s *arraypool.Set) {
	type vec struct{ x, y float32 }
	arraypool.Acquire[vec](s, 2)
	arraypool.Acquire[vec](s, 2)
}

func TestStatsSameName(t *testing.T) {
	s := arraypool.NewSet(nil)
	acquireVecA(s)
	acquireVecB(s)
	arraypool.Acquire[float32](s, 1)
	if got := len(s.Kinds()); got != 3 {
		t.Fatalf("wrong number of kinds: want 3, got %d", got)
	}
	stats := s.Stats()
	if len(stats) != 3 {
		t.Fatalf("stats lost a kind: %v", stats)
	}
	if _, ok := stats["float32"]; !ok {
		t.Errorf("unique name not kept short: %v", stats)
	}
	const path = "github.com/zephyrtronium/voxe/arraypool_test.vec"
	var sum arraypool.Stats
	for k, v := range stats {
		if k == "float32" {
			continue
		}
		if !strings.HasPrefix(k, path) {
			t.Errorf("colliding kind %q not qualified by package path", k)
		}
		sum = sum.Add(v)
	}
	want := arraypool.Stats{Allocs: 3, Releases: 1, Cached: 1}
	if diff := cmp.Diff(want, sum); diff != "" {
		t.Errorf("wrong combined stats (-want +got):\n%s", diff)
	}
}
