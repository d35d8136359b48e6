// Package objpool provides a generic cache of reusable, expensively
// constructed objects.
//
// A [Pool] builds its initial instances eagerly when it is created. After
// that, Pop reuses the most recently pushed instance and falls back to the
// factory when none are available, so popping never fails for want of
// instances. Resetting per-use state of an instance is the caller's
// responsibility; the pool only stores and hands out references.
//
// Pools are not safe for concurrent use.
package objpool

import (
	"fmt"
	"reflect"

	"github.com/zephyrtronium/voxe/deque"
	"github.com/zephyrtronium/voxe/metrics"
	"github.com/zephyrtronium/voxe/poolerr"
)

// Pool is a stack of available instances of T with a factory to create more.
type Pool[T any] struct {
	avail   deque.Deque[T]
	factory func() (T, error)
	initial int
	stats   Stats

	name    string
	metrics *metrics.Metrics
}

// Stats counts the activity of a pool.
type Stats struct {
	// Reused is the number of pops satisfied by an available instance.
	Reused int64 `json:"reused"`
	// Created is the number of instances built by the factory, including
	// the initial ones.
	Created int64 `json:"created"`
	// Pushed is the number of instances returned to the pool.
	Pushed int64 `json:"pushed"`
	// Available is the number of instances currently held by the pool.
	Available int `json:"available"`
}

// Add returns the sum of two stats.
func (s Stats) Add(t Stats) Stats {
	return Stats{
		Reused:    s.Reused + t.Reused,
		Created:   s.Created + t.Created,
		Pushed:    s.Pushed + t.Pushed,
		Available: s.Available + t.Available,
	}
}

// Option configures a pool.
type Option func(*options)

type options struct {
	name    string
	metrics *metrics.Metrics
}

// WithName sets the name the pool uses in metrics labels.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithMetrics sets the metrics the pool records to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// New creates a pool and fills it with initialSize instances from factory.
// If the factory returns an error while filling, New returns that error
// unmodified. Negative initialSize is treated as zero.
func New[T any](factory func() (T, error), initialSize int, opts ...Option) (*Pool[T], error) {
	if factory == nil {
		return nil, fmt.Errorf("couldn't create pool: nil factory: %w", poolerr.ErrInvalidArgument)
	}
	var o options
	for _, f := range opts {
		f(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.Discard()
	}
	initialSize = max(initialSize, 0)
	p := &Pool[T]{
		avail:   deque.Deque[T]{}.GrowEnd(initialSize),
		factory: factory,
		initial: initialSize,
		name:    o.name,
		metrics: o.metrics,
	}
	for range initialSize {
		v, err := p.create()
		if err != nil {
			return nil, err
		}
		p.avail = p.avail.Append(v)
	}
	return p, nil
}

func (p *Pool[T]) create() (T, error) {
	var zero T
	v, err := p.factory()
	if err != nil {
		return zero, err
	}
	if IsNil(v) {
		return zero, fmt.Errorf("factory for pool %q returned nil %T: %w", p.name, v, poolerr.ErrInvalidArgument)
	}
	p.stats.Created++
	return v, nil
}

// Pop removes and returns an available instance, or creates a new one with
// the factory if none are available. Errors from the factory are returned
// unmodified and are not retried.
func (p *Pool[T]) Pop() (T, error) {
	var v T
	var ok bool
	p.avail, v, ok = p.avail.PopEnd()
	if ok {
		p.stats.Reused++
		p.metrics.ObjectPops.Observe(1, p.name, "reuse")
		return v, nil
	}
	v, err := p.create()
	if err != nil {
		return v, err
	}
	p.metrics.ObjectPops.Observe(1, p.name, "create")
	return v, nil
}

// Push makes an instance available for reuse.
// The instance must not be in use elsewhere. Pushing a nil instance is an
// error and leaves the pool unchanged.
func (p *Pool[T]) Push(v T) error {
	if IsNil(v) {
		return fmt.Errorf("couldn't push to pool %q: nil %T: %w", p.name, v, poolerr.ErrInvalidArgument)
	}
	p.avail = p.avail.Append(v)
	p.stats.Pushed++
	p.metrics.ObjectPushes.Observe(1, p.name)
	return nil
}

// Len returns the number of available instances.
func (p *Pool[T]) Len() int {
	return p.avail.Len()
}

// InitialSize returns the number of instances the pool was created with.
func (p *Pool[T]) InitialSize() int {
	return p.initial
}

// Name returns the pool's name.
func (p *Pool[T]) Name() string {
	return p.name
}

// Stats returns the pool's counters.
func (p *Pool[T]) Stats() Stats {
	s := p.stats
	s.Available = p.avail.Len()
	return s
}

// Drain removes every available instance, passing each to destroy if it is
// non-nil. Instances currently checked out are unaffected.
func (p *Pool[T]) Drain(destroy func(T)) {
	if destroy != nil {
		for _, v := range p.avail.Slice() {
			destroy(v)
		}
	}
	p.avail = p.avail.Reset()
}

// IsNil reports whether v is a nil interface or a nil value of a nillable
// kind.
func IsNil[T any](v T) bool {
	r := reflect.ValueOf(&v).Elem()
	switch r.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if r.IsNil() {
			return true
		}
	}
	if r.Kind() == reflect.Interface {
		// Typed nil pointer inside an interface.
		e := r.Elem()
		switch e.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.UnsafePointer:
			return e.IsNil()
		}
	}
	return false
}
