package arraypool

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"

	"github.com/zephyrtronium/voxe/metrics"
)

// Kind identifies the element type of a sub-pool within a [Set].
type Kind struct {
	t reflect.Type
}

// KindOf returns the kind for arrays of E.
func KindOf[E any]() Kind {
	return Kind{reflect.TypeFor[E]()}
}

// String returns the name of the element type.
// Distinct types may have the same name.
func (k Kind) String() string {
	if k.t == nil {
		return "<nil>"
	}
	return k.t.String()
}

// Path returns the name of the element type qualified by its full package
// path. Types declared inside functions share a path with other types of
// the same name in the same package.
func (k Kind) Path() string {
	if k.t == nil {
		return "<nil>"
	}
	if k.t.Name() == "" || k.t.PkgPath() == "" {
		return k.t.String()
	}
	return k.t.PkgPath() + "." + k.t.Name()
}

// Set is a collection of pools, one per element type, created on first use.
type Set struct {
	pools   map[Kind]any
	metrics *metrics.Metrics
}

// NewSet creates an empty set of pools.
// If m is nil, activity is not recorded in metrics.
func NewSet(m *metrics.Metrics) *Set {
	if m == nil {
		m = metrics.Discard()
	}
	return &Set{
		pools:   make(map[Kind]any),
		metrics: m,
	}
}

// For returns the pool for arrays of E in s.
func For[E any](s *Set) *Pool[E] {
	k := KindOf[E]()
	if p, ok := s.pools[k]; ok {
		return p.(*Pool[E])
	}
	name := k.String()
	p := &Pool[E]{
		observe: func(hit, release bool) {
			switch {
			case release:
				s.metrics.ArrayReleases.Observe(1, name)
			case hit:
				s.metrics.ArrayAcquires.Observe(1, name, "hit")
			default:
				s.metrics.ArrayAcquires.Observe(1, name, "alloc")
			}
		},
	}
	s.pools[k] = p
	return p
}

// Acquire obtains an array of at least n elements of type E from s.
// See [Pool.Acquire].
func Acquire[E any](s *Set, n int) []E {
	return For[E](s).Acquire(n)
}

// Release returns an array of E to s.
// See [Pool.Release].
func Release[E any](s *Set, a []E) error {
	return For[E](s).Release(a)
}

// Kinds returns the kinds of the pools in s, sorted by name.
func (s *Set) Kinds() []Kind {
	r := make([]Kind, 0, len(s.pools))
	for k := range s.pools {
		r = append(r, k)
	}
	slices.SortFunc(r, func(a, b Kind) int {
		return cmp.Or(cmp.Compare(a.String(), b.String()), cmp.Compare(a.Path(), b.Path()))
	})
	return r
}

type statser interface {
	Stats() Stats
}

// Stats returns the counters of each pool in s, keyed by kind name.
// Kinds whose names collide are keyed by [Kind.Path] instead, with a
// numeric suffix if those collide as well.
func (s *Set) Stats() map[string]Stats {
	kinds := s.Kinds()
	names := make(map[string]int, len(kinds))
	for _, k := range kinds {
		names[k.String()]++
	}
	r := make(map[string]Stats, len(kinds))
	for _, k := range kinds {
		name := k.String()
		if names[name] > 1 {
			name = k.Path()
		}
		key := name
		for i := 2; ; i++ {
			if _, ok := r[key]; !ok {
				break
			}
			key = fmt.Sprintf("%s#%d", name, i)
		}
		r[key] = s.pools[k].(statser).Stats()
	}
	return r
}
