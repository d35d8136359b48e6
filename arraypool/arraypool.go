// Package arraypool provides caches of reusable arrays keyed by element type.
//
// Arrays handed out by a pool are at least as long as requested but may be
// longer, and their contents are whatever the previous user left in them.
// Callers must overwrite or clear every element they intend to read.
//
// Pools are not safe for concurrent use. Give each goroutine its own [Set].
package arraypool

import (
	"fmt"

	"github.com/zephyrtronium/voxe/poolerr"
)

// Pool caches arrays of a single element type.
// The zero value is an empty pool ready to use.
type Pool[E any] struct {
	cache [][]E
	stats Stats

	// observe, if non-nil, is told whether each acquire reused an array
	// and when each release happens.
	observe func(hit, release bool)
}

// Stats counts the activity of a pool.
type Stats struct {
	// Hits is the number of acquires satisfied from the cache.
	Hits int64 `json:"hits"`
	// Allocs is the number of acquires that allocated a new array.
	Allocs int64 `json:"allocs"`
	// Releases is the number of arrays returned to the pool.
	Releases int64 `json:"releases"`
	// Cached is the number of arrays currently held by the pool.
	Cached int `json:"cached"`
}

// Add returns the sum of two stats.
func (s Stats) Add(t Stats) Stats {
	return Stats{
		Hits:     s.Hits + t.Hits,
		Allocs:   s.Allocs + t.Allocs,
		Releases: s.Releases + t.Releases,
		Cached:   s.Cached + t.Cached,
	}
}

// Acquire returns an array with length at least n.
// The smallest cached array that fits is removed from the cache and returned
// at its full length with stale contents. If none fits, a new array of
// exactly n elements is allocated. The result is never nil, even for n == 0.
// Negative n is treated as zero.
func (p *Pool[E]) Acquire(n int) []E {
	n = max(n, 0)
	best := -1
	for i, a := range p.cache {
		if len(a) < n {
			continue
		}
		if best < 0 || len(a) < len(p.cache[best]) {
			best = i
			if len(a) == n {
				break
			}
		}
	}
	if best < 0 {
		p.stats.Allocs++
		if p.observe != nil {
			p.observe(false, false)
		}
		return make([]E, n)
	}
	a := p.cache[best]
	// Order of the cache doesn't matter, so fill the hole with the last one.
	k := len(p.cache) - 1
	p.cache[best] = p.cache[k]
	p.cache[k] = nil
	p.cache = p.cache[:k]
	p.stats.Hits++
	if p.observe != nil {
		p.observe(true, false)
	}
	return a
}

// Release returns an array to the pool. The array's contents are not cleared.
// The caller must not use a after releasing it.
// Releasing a nil array is an error and leaves the pool unchanged.
func (p *Pool[E]) Release(a []E) error {
	if a == nil {
		return fmt.Errorf("couldn't release array: nil %T: %w", a, poolerr.ErrInvalidArgument)
	}
	p.cache = append(p.cache, a)
	p.stats.Releases++
	if p.observe != nil {
		p.observe(false, true)
	}
	return nil
}

// Len returns the number of arrays held by the pool.
func (p *Pool[E]) Len() int {
	return len(p.cache)
}

// Stats returns the pool's counters.
func (p *Pool[E]) Stats() Stats {
	s := p.stats
	s.Cached = len(p.cache)
	return s
}
