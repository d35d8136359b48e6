// Package sim drives array and object pools with a synthetic frame loop.
//
// Each worker goroutine owns its own array pools, mesh builder, and entity
// provider, as the pools are not safe for concurrent use. Per frame, a worker
// uploads a number of meshes of random size, returns the previous frame's
// entities to their pools, and spawns new ones from categories chosen by
// weight.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gitlab.com/zephyrtronium/pick"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/zephyrtronium/voxe/arraypool"
	"github.com/zephyrtronium/voxe/deque"
	"github.com/zephyrtronium/voxe/geometry"
	"github.com/zephyrtronium/voxe/history"
	"github.com/zephyrtronium/voxe/metrics"
	"github.com/zephyrtronium/voxe/objpool"
	"github.com/zephyrtronium/voxe/spawn"
	"github.com/zephyrtronium/voxe/tpool"
)

// Config describes a simulation run.
type Config struct {
	// Frames is the number of frames each worker simulates.
	Frames int
	// FPS limits the frame rate of each worker. Zero means unlimited.
	FPS float64
	// Workers is the number of concurrent workers. Values below 1 mean 1.
	Workers int
	// Meshes is the number of meshes built per frame.
	Meshes int
	// MaxVertices is the largest vertex count of a generated mesh.
	MaxVertices int
	// Spawns is the number of entities spawned per frame.
	Spawns int
	// Seed seeds the workers' random sources. Zero means a random seed.
	Seed uint64
	// Pools describes the entity categories. Runs with the same seed and
	// the same order of pools spawn the same entities.
	Pools []Pool
}

// Pool describes one entity category.
type Pool struct {
	Name   string
	Prefab string
	// InitialSize is as for [spawn.Entry].
	InitialSize int
	// Weight is the relative frequency of spawns from this pool.
	// Values below 1 mean 1.
	Weight int
	// Body gives entities in the pool a physics body.
	Body bool
}

// Run runs the simulation and returns a report of it.
// If live is not nil, it is updated as the simulation progresses.
func Run(ctx context.Context, cfg Config, m *metrics.Metrics, live *Live) (*history.Report, error) {
	if m == nil {
		m = metrics.Discard()
	}
	if live == nil {
		live = new(Live)
	}
	if cfg.Seed == 0 {
		cfg.Seed = rand.Uint64()
	}
	workers := max(cfg.Workers, 1)
	r := &history.Report{
		ID:      uuid.New(),
		Start:   time.Now(),
		Workers: workers,
	}
	log := slog.With(slog.String("run", r.ID.String()))
	log.InfoContext(ctx, "simulation start",
		slog.Int("workers", workers),
		slog.Int("frames", cfg.Frames),
		slog.Uint64("seed", cfg.Seed),
	)
	// Scratch buffers move freely between workers.
	var bufs tpool.Pool[*geometry.Buffer]
	group, ctx := errgroup.WithContext(ctx)
	for i := range workers {
		group.Go(func() error {
			w, err := newWorker(ctx, i, cfg, m, &bufs, live)
			if err != nil {
				return fmt.Errorf("couldn't start worker %d: %w", i, err)
			}
			defer w.close(ctx)
			return w.run(ctx, log.With(slog.Int("worker", i)))
		})
	}
	err := group.Wait()
	r.Duration = time.Since(r.Start)
	live.fill(r)
	if err != nil {
		log.ErrorContext(ctx, "simulation failed", slog.Any("err", err))
		return r, err
	}
	log.InfoContext(ctx, "simulation done",
		slog.Duration("duration", r.Duration),
		slog.Int64("frames", r.Frames),
		slog.Int64("meshes", r.Meshes),
		slog.Int64("spawned", r.Spawned),
	)
	return r, nil
}

type entity struct {
	pool string
	obj  spawn.Object
}

type worker struct {
	id      int
	cfg     Config
	rng     *rand.Rand
	pools   *arraypool.Set
	builder *geometry.Builder
	prov    *spawn.Provider
	dist    *pick.Dist[string]
	limit   *rate.Limiter
	bufs    *tpool.Pool[*geometry.Buffer]
	mesh    geometry.Recorder
	alive   deque.Deque[entity]
	metrics *metrics.Metrics
	live    *Live
}

func newWorker(ctx context.Context, id int, cfg Config, m *metrics.Metrics, bufs *tpool.Pool[*geometry.Buffer], live *Live) (*worker, error) {
	entries := make([]spawn.Entry, 0, len(cfg.Pools))
	cases := make([]pick.Case[string], 0, len(cfg.Pools))
	for _, p := range cfg.Pools {
		entries = append(entries, spawn.Entry{
			Name:        p.Name,
			Prefab:      &spawn.Template{Node: spawn.NewNode(p.Prefab, p.Body)},
			InitialSize: p.InitialSize,
		})
		// Cases follow the order of cfg.Pools so a seed reproduces picks.
		cases = append(cases, pick.Case[string]{E: p.Name, W: max(p.Weight, 1)})
	}
	root := spawn.NewNode(fmt.Sprintf("world-%d", id), false)
	prov, err := spawn.New(ctx, root, entries, m)
	if err != nil {
		return nil, err
	}
	pools := arraypool.NewSet(m)
	w := &worker{
		id:      id,
		cfg:     cfg,
		rng:     rand.New(rand.NewPCG(cfg.Seed, uint64(id))),
		pools:   pools,
		builder: geometry.NewBuilder(pools, m),
		prov:    prov,
		limit:   rate.NewLimiter(rate.Inf, 1),
		bufs:    bufs,
		metrics: m,
		live:    live,
	}
	if len(cases) > 0 {
		w.dist = pick.New(cases)
	}
	if cfg.FPS > 0 {
		w.limit = rate.NewLimiter(rate.Limit(cfg.FPS), 1)
	}
	return w, nil
}

func (w *worker) run(ctx context.Context, log *slog.Logger) error {
	for f := range w.cfg.Frames {
		if err := w.limit.Wait(ctx); err != nil {
			return err
		}
		start := time.Now()
		if err := w.frame(); err != nil {
			log.ErrorContext(ctx, "frame failed", slog.Int("frame", f), slog.Any("err", err))
			return err
		}
		w.metrics.FrameLatency.Observe(time.Since(start).Seconds())
		w.live.frames.Add(1)
		w.live.publish(w.id, w.pools.Stats(), w.prov.Stats())
		if f%1000 == 0 {
			log.DebugContext(ctx, "frame", slog.Int("frame", f), slog.Int("alive", w.alive.Len()))
		}
	}
	return nil
}

func (w *worker) frame() error {
	for range w.cfg.Meshes {
		if err := w.buildMesh(); err != nil {
			return err
		}
	}
	if err := w.despawn(); err != nil {
		return err
	}
	if w.dist == nil {
		return nil
	}
	for range w.cfg.Spawns {
		name := w.dist.Pick(w.rng.Uint32())
		obj, err := w.prov.Pop(name)
		if err != nil {
			return fmt.Errorf("couldn't spawn from %q: %w", name, err)
		}
		if b := obj.Body(); b != nil {
			b.SetVelocity(geometry.Vector3{X: w.rng.Float32() - 0.5, Y: w.rng.Float32(), Z: w.rng.Float32() - 0.5})
		}
		w.alive = w.alive.Append(entity{pool: name, obj: obj})
		w.live.spawned.Add(1)
	}
	return nil
}

// despawn returns every live entity to its pool, oldest first.
func (w *worker) despawn() error {
	for w.alive.Len() > 0 {
		var e entity
		w.alive, e, _ = w.alive.PopFront()
		if err := w.prov.Push(e.pool, e.obj); err != nil {
			return fmt.Errorf("couldn't despawn into %q: %w", e.pool, err)
		}
		w.live.despawned.Add(1)
	}
	return nil
}

func (w *worker) buildMesh() error {
	buf := w.bufs.Get()
	if buf == nil {
		buf = new(geometry.Buffer)
	}
	defer func() {
		buf.Reset()
		w.bufs.Put(buf)
	}()
	quads := w.rng.IntN(max(w.cfg.MaxVertices, 0)+1) / 4
	for range quads {
		x, y, z := float32(w.rng.IntN(16)), float32(w.rng.IntN(16)), float32(w.rng.IntN(16))
		c := geometry.Color32{R: uint8(w.rng.Uint32()), G: uint8(w.rng.Uint32()), B: uint8(w.rng.Uint32()), A: 255}
		buf.Quad(
			[4]geometry.Vector3{{X: x, Y: y, Z: z}, {X: x + 1, Y: y, Z: z}, {X: x + 1, Y: y + 1, Z: z}, {X: x, Y: y + 1, Z: z}},
			geometry.Vector3{Z: -1},
			geometry.Vector4{X: 1, W: -1},
			c,
		)
	}
	w.mesh.Reset()
	if err := w.builder.BuildMesh(&w.mesh, buf); err != nil {
		return err
	}
	w.live.meshes.Add(1)
	w.live.vertices.Add(int64(len(buf.Vertices)))
	return nil
}

// close returns live entities and tears down the worker's pools.
func (w *worker) close(ctx context.Context) {
	if err := w.despawn(); err != nil {
		slog.ErrorContext(ctx, "couldn't return entities", slog.Int("worker", w.id), slog.Any("err", err))
	}
	w.live.publish(w.id, w.pools.Stats(), w.prov.Stats())
	w.prov.Close()
}

// Live is a view of a running simulation.
// It is safe for concurrent use.
type Live struct {
	frames    atomic.Int64
	meshes    atomic.Int64
	vertices  atomic.Int64
	spawned   atomic.Int64
	despawned atomic.Int64

	mu      sync.Mutex
	arrays  map[int]map[string]arraypool.Stats
	objects map[int]map[string]objpool.Stats
}

func (l *Live) publish(worker int, arrays map[string]arraypool.Stats, objects map[string]objpool.Stats) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.arrays == nil {
		l.arrays = make(map[int]map[string]arraypool.Stats)
		l.objects = make(map[int]map[string]objpool.Stats)
	}
	l.arrays[worker] = arrays
	l.objects[worker] = objects
}

// fill sets the counters and combined pool stats of r.
func (l *Live) fill(r *history.Report) {
	r.Frames = l.frames.Load()
	r.Meshes = l.meshes.Load()
	r.Vertices = l.vertices.Load()
	r.Spawned = l.spawned.Load()
	r.Despawned = l.despawned.Load()
	l.mu.Lock()
	defer l.mu.Unlock()
	r.Arrays = make(map[string]arraypool.Stats)
	for _, m := range l.arrays {
		for k, v := range m {
			r.Arrays[k] = r.Arrays[k].Add(v)
		}
	}
	r.Objects = make(map[string]objpool.Stats)
	for _, m := range l.objects {
		for k, v := range m {
			r.Objects[k] = r.Objects[k].Add(v)
		}
	}
}

// Snapshot returns the current state of the simulation as a report.
// The report's ID, start, and duration are unset.
func (l *Live) Snapshot() *history.Report {
	var r history.Report
	l.fill(&r)
	return &r
}
