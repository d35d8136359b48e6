package objpool_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zephyrtronium/voxe/objpool"
	"github.com/zephyrtronium/voxe/poolerr"
)

type thing struct {
	label string
}

// labeled returns a factory producing things labeled by successive elements
// of labels, then panics.
func labeled(labels ...string) func() (*thing, error) {
	return func() (*thing, error) {
		if len(labels) == 0 {
			panic("factory called too many times")
		}
		l := labels[0]
		labels = labels[1:]
		return &thing{label: l}, nil
	}
}

func counter(n *int) func() (*thing, error) {
	return func() (*thing, error) {
		*n++
		return new(thing), nil
	}
}

func TestPrewarm(t *testing.T) {
	p, err := objpool.New(labeled("A", "B", "C", "D", "E"), 4)
	if err != nil {
		t.Fatal(err)
	}
	if p.Len() != 4 {
		t.Errorf("wrong number of initial instances: want 4, got %d", p.Len())
	}
	var got []string
	for range 4 {
		v, err := p.Pop()
		if err != nil {
			t.Fatalf("couldn't pop: %v", err)
		}
		if v == nil {
			t.Fatal("popped nil")
		}
		got = append(got, v.label)
	}
	slices.Sort(got)
	if diff := cmp.Diff([]string{"A", "B", "C", "D"}, got); diff != "" {
		t.Errorf("wrong initial instances (-want +got):\n%s", diff)
	}
	v, err := p.Pop()
	if err != nil {
		t.Fatalf("couldn't pop from exhausted pool: %v", err)
	}
	if v.label != "E" {
		t.Errorf("wrong created instance: want E, got %q", v.label)
	}
	want := objpool.Stats{Reused: 4, Created: 5, Pushed: 0, Available: 0}
	if diff := cmp.Diff(want, p.Stats()); diff != "" {
		t.Errorf("wrong stats (-want +got):\n%s", diff)
	}
}

func TestPopEmpty(t *testing.T) {
	var n int
	p, err := objpool.New(counter(&n), 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("factory called %d times for empty pool", n)
	}
	seen := make(map[*thing]bool)
	for i := range 100 {
		v, err := p.Pop()
		if err != nil {
			t.Fatalf("couldn't pop %d: %v", i, err)
		}
		if v == nil {
			t.Fatalf("pop %d returned nil", i)
		}
		if seen[v] {
			t.Errorf("pop %d returned a duplicate", i)
		}
		seen[v] = true
	}
	if n != 100 {
		t.Errorf("wrong number of factory calls: want 100, got %d", n)
	}
}

func TestConservation(t *testing.T) {
	cases := []struct {
		name    string
		initial int
		k       int
	}{
		{"empty", 0, 0},
		{"one", 0, 1},
		{"many", 0, 50},
		{"prewarmed", 8, 20},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			var n int
			p, err := objpool.New(counter(&n), c.initial)
			if err != nil {
				t.Fatal(err)
			}
			// Drain the prewarmed instances so that only pushed ones remain.
			p.Drain(nil)
			pushed := make(map[*thing]bool, c.k)
			for range c.k {
				v := new(thing)
				pushed[v] = true
				if err := p.Push(v); err != nil {
					t.Fatal(err)
				}
			}
			before := n
			popped := make(map[*thing]bool, c.k)
			for range c.k {
				v, err := p.Pop()
				if err != nil {
					t.Fatal(err)
				}
				if popped[v] {
					t.Errorf("instance %p popped twice", v)
				}
				if !pushed[v] {
					t.Errorf("instance %p was never pushed", v)
				}
				popped[v] = true
			}
			if len(popped) != c.k {
				t.Errorf("wrong number of distinct pops: want %d, got %d", c.k, len(popped))
			}
			if n != before {
				t.Errorf("factory called %d times while pushed instances were available", n-before)
			}
			if p.Len() != 0 {
				t.Errorf("pool still has %d instances", p.Len())
			}
		})
	}
}

func TestLIFO(t *testing.T) {
	p, err := objpool.New(labeled(), 0)
	if err != nil {
		t.Fatal(err)
	}
	a, b := &thing{"a"}, &thing{"b"}
	p.Push(a)
	p.Push(b)
	if v, _ := p.Pop(); v != b {
		t.Errorf("wrong first pop: want b, got %v", v)
	}
	if v, _ := p.Pop(); v != a {
		t.Errorf("wrong second pop: want a, got %v", v)
	}
}

type shape interface {
	area() float64
}

type square struct{ s float64 }

func (q *square) area() float64 { return q.s * q.s }

func TestPushNil(t *testing.T) {
	t.Run("pointer", func(t *testing.T) {
		p, err := objpool.New(labeled("A"), 1)
		if err != nil {
			t.Fatal(err)
		}
		before := p.Stats()
		err = p.Push(nil)
		if !errors.Is(err, poolerr.ErrInvalidArgument) {
			t.Errorf("wrong error: want %v, got %v", poolerr.ErrInvalidArgument, err)
		}
		if diff := cmp.Diff(before, p.Stats()); diff != "" {
			t.Errorf("nil push changed the pool (-before +after):\n%s", diff)
		}
	})
	t.Run("interface", func(t *testing.T) {
		p, err := objpool.New(func() (shape, error) { return &square{1}, nil }, 2)
		if err != nil {
			t.Fatal(err)
		}
		var typed *square
		for _, v := range []shape{nil, typed} {
			if err := p.Push(v); !errors.Is(err, poolerr.ErrInvalidArgument) {
				t.Errorf("wrong error pushing %#v: want %v, got %v", v, poolerr.ErrInvalidArgument, err)
			}
		}
		if p.Len() != 2 {
			t.Errorf("nil push changed the pool size: want 2, got %d", p.Len())
		}
		if err := p.Push(&square{2}); err != nil {
			t.Errorf("couldn't push non-nil: %v", err)
		}
	})
	t.Run("value", func(t *testing.T) {
		p, err := objpool.New(func() (thing, error) { return thing{}, nil }, 0)
		if err != nil {
			t.Fatal(err)
		}
		if err := p.Push(thing{}); err != nil {
			t.Errorf("couldn't push zero value of non-nillable type: %v", err)
		}
	})
}

func TestFactoryError(t *testing.T) {
	bad := errors.New("no prefab")
	t.Run("pop", func(t *testing.T) {
		var fail bool
		p, err := objpool.New(func() (*thing, error) {
			if fail {
				return nil, bad
			}
			return new(thing), nil
		}, 1)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := p.Pop(); err != nil {
			t.Fatalf("couldn't pop prewarmed: %v", err)
		}
		fail = true
		before := p.Stats()
		v, err := p.Pop()
		if err != bad {
			t.Errorf("factory error not propagated unmodified: want %v, got %v", bad, err)
		}
		if v != nil {
			t.Errorf("got instance %v with error", v)
		}
		if diff := cmp.Diff(before, p.Stats()); diff != "" {
			t.Errorf("failed pop changed the pool (-before +after):\n%s", diff)
		}
	})
	t.Run("new", func(t *testing.T) {
		var n int
		p, err := objpool.New(func() (*thing, error) {
			n++
			if n == 3 {
				return nil, bad
			}
			return new(thing), nil
		}, 5)
		if err != bad {
			t.Errorf("factory error not propagated unmodified: want %v, got %v", bad, err)
		}
		if p != nil {
			t.Error("got pool with error")
		}
		if n != 3 {
			t.Errorf("factory retried: %d calls", n)
		}
	})
	t.Run("nil", func(t *testing.T) {
		p, err := objpool.New(func() (*thing, error) { return nil, nil }, 0)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := p.Pop(); !errors.Is(err, poolerr.ErrInvalidArgument) {
			t.Errorf("wrong error for nil from factory: want %v, got %v", poolerr.ErrInvalidArgument, err)
		}
	})
	t.Run("nofactory", func(t *testing.T) {
		_, err := objpool.New[*thing](nil, 1)
		if !errors.Is(err, poolerr.ErrInvalidArgument) {
			t.Errorf("wrong error for nil factory: want %v, got %v", poolerr.ErrInvalidArgument, err)
		}
	})
}

func TestDrain(t *testing.T) {
	p, err := objpool.New(labeled("A", "B", "C"), 3, objpool.WithName("things"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "things" {
		t.Errorf("wrong name: %q", p.Name())
	}
	if p.InitialSize() != 3 {
		t.Errorf("wrong initial size: %d", p.InitialSize())
	}
	var destroyed []string
	p.Drain(func(v *thing) { destroyed = append(destroyed, v.label) })
	slices.Sort(destroyed)
	if diff := cmp.Diff([]string{"A", "B", "C"}, destroyed); diff != "" {
		t.Errorf("wrong destroyed instances (-want +got):\n%s", diff)
	}
	if p.Len() != 0 {
		t.Errorf("pool has %d instances after drain", p.Len())
	}
}
