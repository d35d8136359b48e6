// Package registry maps names to object pools.
//
// The registry itself may be used from multiple goroutines, but the pools it
// holds are not synchronized. Callers sharing a registry across goroutines
// must ensure each pool is used by one goroutine at a time.
package registry

import (
	"fmt"
	"iter"
	"slices"

	"github.com/zephyrtronium/voxe/objpool"
	"github.com/zephyrtronium/voxe/poolerr"
	"github.com/zephyrtronium/voxe/syncmap"
)

// Registry is a set of named object pools.
type Registry[T any] struct {
	pools *syncmap.Map[string, *objpool.Pool[T]]
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{pools: syncmap.New[string, *objpool.Pool[T]]()}
}

// Register adds a pool under a name.
// Registering a name twice is an error wrapping [poolerr.ErrDuplicate].
func (r *Registry[T]) Register(name string, p *objpool.Pool[T]) error {
	if name == "" {
		return fmt.Errorf("couldn't register pool: empty name: %w", poolerr.ErrInvalidArgument)
	}
	if p == nil {
		return fmt.Errorf("couldn't register pool %q: nil pool: %w", name, poolerr.ErrInvalidArgument)
	}
	if _, loaded := r.pools.LoadOrStore(name, p); loaded {
		return fmt.Errorf("couldn't register pool %q: %w", name, poolerr.ErrDuplicate)
	}
	return nil
}

// Unregister removes a pool and returns it.
func (r *Registry[T]) Unregister(name string) (*objpool.Pool[T], error) {
	p, ok := r.pools.Delete(name)
	if !ok {
		return nil, fmt.Errorf("object pool %q does not exist: %w", name, poolerr.ErrNotFound)
	}
	return p, nil
}

// Pool returns the pool registered under a name.
func (r *Registry[T]) Pool(name string) (*objpool.Pool[T], error) {
	p, ok := r.pools.Load(name)
	if !ok {
		return nil, fmt.Errorf("object pool %q does not exist: %w", name, poolerr.ErrNotFound)
	}
	return p, nil
}

// Push returns an instance to the named pool.
func (r *Registry[T]) Push(name string, v T) error {
	if objpool.IsNil(v) {
		return fmt.Errorf("trying to pool a nil object in pool %q: %w", name, poolerr.ErrInvalidArgument)
	}
	p, err := r.Pool(name)
	if err != nil {
		return err
	}
	return p.Push(v)
}

// Pop obtains an instance from the named pool.
func (r *Registry[T]) Pop(name string) (T, error) {
	p, err := r.Pool(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return p.Pop()
}

// Names returns the names of all registered pools in sorted order.
func (r *Registry[T]) Names() []string {
	s := make([]string, 0, r.pools.Len())
	for k := range r.pools.All() {
		s = append(s, k)
	}
	slices.Sort(s)
	return s
}

// All iterates over registered pools. The registry may be modified during
// iteration.
func (r *Registry[T]) All() iter.Seq2[string, *objpool.Pool[T]] {
	return r.pools.All()
}

// Len returns the number of registered pools.
func (r *Registry[T]) Len() int {
	return r.pools.Len()
}
