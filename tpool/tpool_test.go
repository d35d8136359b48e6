package tpool_test

import (
	"sync"
	"testing"

	"github.com/zephyrtronium/voxe/geometry"
	"github.com/zephyrtronium/voxe/tpool"
)

func TestAllocs(t *testing.T) {
	const iters, runs int = 1e3, 1e3
	u := testing.AllocsPerRun(runs, func() {
		var pool sync.Pool
		for range iters {
			x, _ := pool.Get().(*geometry.Buffer)
			if x == nil {
				x = new(geometry.Buffer)
			}
			pool.Put(x)
			pool.Put(new(geometry.Buffer))
		}
	})
	v := testing.AllocsPerRun(runs, func() {
		var pool tpool.Pool[*geometry.Buffer]
		for range iters {
			x := pool.Get()
			if x == nil {
				x = new(geometry.Buffer)
			}
			pool.Put(x)
			pool.Put(new(geometry.Buffer))
		}
	})
	if u != v {
		t.Errorf("different allocs per run: sync.Pool has %v, tpool.Pool[*geometry.Buffer] has %v", u, v)
	}
}

func TestNew(t *testing.T) {
	var n int
	pool := tpool.New(func() *geometry.Buffer {
		n++
		return &geometry.Buffer{Vertices: make([]geometry.Vertex, 0, 64)}
	})
	b := pool.Get()
	if b == nil {
		t.Fatal("pool with constructor returned nil")
	}
	if cap(b.Vertices) != 64 {
		t.Errorf("constructor not used: cap %d", cap(b.Vertices))
	}
	if n != 1 {
		t.Errorf("wrong constructor calls: want 1, got %d", n)
	}
}

func TestZero(t *testing.T) {
	var pool tpool.Pool[*geometry.Buffer]
	if b := pool.Get(); b != nil {
		t.Errorf("empty pool without constructor returned %v", b)
	}
}
