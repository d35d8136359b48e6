package spawn

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/zephyrtronium/voxe/geometry"
	"github.com/zephyrtronium/voxe/metrics"
	"github.com/zephyrtronium/voxe/objpool"
	"github.com/zephyrtronium/voxe/poolerr"
	"github.com/zephyrtronium/voxe/registry"
)

// ContainerName is the name of the node under which pooled objects live.
const ContainerName = "GameObjects"

// Provider hands out pooled objects by pool name.
// Popped objects are active; pushed objects are deactivated and have their
// velocity cleared. Other per-use state is the caller's to reset.
type Provider struct {
	container *Node
	pools     *registry.Registry[Object]
}

// New creates a provider with a pool for each entry. The pools' objects are
// attached to a new container node which is itself attached to root.
// Entries without a prefab are logged and skipped. If any pool cannot be
// filled, New returns the error from the prefab, and root is left as it was
// with every object created so far detached.
func New(ctx context.Context, root Parent, entries []Entry, m *metrics.Metrics) (*Provider, error) {
	p := &Provider{
		container: NewNode(ContainerName, false),
		pools:     registry.New[Object](),
	}
	for _, e := range entries {
		if e.Prefab == nil {
			slog.ErrorContext(ctx, "no prefab specified in object pool entry", slog.String("pool", e.Name))
			continue
		}
		n := e.InitialSize
		switch {
		case n == 0:
			n = DefaultInitialSize
		case n < 0:
			n = 0
		}
		pool, err := objpool.New(p.factory(e.Prefab), n, objpool.WithName(e.Name), objpool.WithMetrics(m))
		if err != nil {
			p.abort()
			return nil, fmt.Errorf("couldn't fill object pool %q: %w", e.Name, err)
		}
		if err := p.pools.Register(e.Name, pool); err != nil {
			p.abort()
			return nil, err
		}
		slog.DebugContext(ctx, "object pool", slog.String("pool", e.Name), slog.String("prefab", e.Prefab.Name()), slog.Int("initial", n))
	}
	if root != nil {
		root.Attach(p.container)
	}
	return p, nil
}

// abort undoes a partially constructed provider. Pools that failed to fill
// or register have already dropped their instances, but those instances are
// still attached to the container.
func (p *Provider) abort() {
	p.Close()
	for _, obj := range slices.Clone(p.container.Children()) {
		p.container.Detach(obj)
	}
}

func (p *Provider) factory(prefab Prefab) func() (Object, error) {
	return func() (Object, error) {
		obj, err := prefab.Instantiate()
		if err != nil {
			return nil, err
		}
		if objpool.IsNil(obj) {
			return nil, fmt.Errorf("prefab %q instantiated nil: %w", prefab.Name(), poolerr.ErrInvalidArgument)
		}
		obj.SetName(prefab.Name())
		obj.SetActive(false)
		p.container.Attach(obj)
		return obj, nil
	}
}

// Container returns the node under which pooled objects are attached.
func (p *Provider) Container() *Node {
	return p.container
}

// Pool returns the named pool.
func (p *Provider) Pool(name string) (*objpool.Pool[Object], error) {
	return p.pools.Pool(name)
}

// Names returns the names of the provider's pools in sorted order.
func (p *Provider) Names() []string {
	return p.pools.Names()
}

// Push deactivates obj, stops its body, and returns it to the named pool.
func (p *Provider) Push(name string, obj Object) error {
	if objpool.IsNil(obj) {
		return fmt.Errorf("trying to pool a nil object in pool %q: %w", name, poolerr.ErrInvalidArgument)
	}
	pool, err := p.pools.Pool(name)
	if err != nil {
		return err
	}
	obj.SetActive(false)
	if b := obj.Body(); b != nil {
		b.SetVelocity(geometry.Vector3{})
	}
	return pool.Push(obj)
}

// Pop obtains an object from the named pool and activates it.
func (p *Provider) Pop(name string) (Object, error) {
	obj, err := p.pools.Pop(name)
	if err != nil {
		return nil, err
	}
	obj.SetActive(true)
	return obj, nil
}

// Stats returns the counters of each pool by name.
func (p *Provider) Stats() map[string]objpool.Stats {
	r := make(map[string]objpool.Stats, p.pools.Len())
	for name, pool := range p.pools.All() {
		r[name] = pool.Stats()
	}
	return r
}

// Close drains every pool, detaching available objects from the container.
// Objects still checked out are unaffected.
func (p *Provider) Close() {
	for name, pool := range p.pools.All() {
		pool.Drain(p.container.Detach)
		p.pools.Unregister(name)
	}
}
