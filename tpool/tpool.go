// Package tpool provides a generic, type-safe sync.Pool wrapper.
//
// Unlike the pools in arraypool and objpool, a tpool.Pool is safe for
// concurrent use and may drop its contents at any garbage collection, so it
// suits scratch values shared among goroutines rather than expensive ones.
package tpool

import "sync"

// Pool is a type-safe wrapper around a [sync.Pool].
// To obtain one, declare a variable or use [New].
type Pool[T any] struct {
	p sync.Pool
}

// New returns a pool which creates values with f when it is empty.
func New[T any](f func() T) *Pool[T] {
	p := new(Pool[T])
	p.p.New = func() any { return f() }
	return p
}

// Get pulls a value from the pool.
// If the pool is empty and has no constructor, the result is the zero value
// of T.
func (p *Pool[T]) Get() T {
	r, _ := p.p.Get().(T)
	return r
}

// Put returns a value to the pool.
func (p *Pool[T]) Put(e T) {
	p.p.Put(e)
}
