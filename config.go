package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/zephyrtronium/voxe/history"
	"github.com/zephyrtronium/voxe/history/kvhistory"
	"github.com/zephyrtronium/voxe/history/sqlhistory"
	"github.com/zephyrtronium/voxe/sim"
)

// Load loads a simulation from a TOML configuration.
func Load(ctx context.Context, r io.Reader) (*Config, *toml.MetaData, error) {
	var cfg Config
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("couldn't decode config: %w", err)
	}
	if u := md.Undecoded(); len(u) > 0 {
		slog.WarnContext(ctx, "unknown config keys", slog.Any("keys", u))
	}
	expandcfg(&cfg, os.Getenv)
	return &cfg, &md, nil
}

// Config is the marshaled structure of the configuration.
type Config struct {
	// History is the table of run history database connection strings.
	History HistoryCfg `toml:"history"`
	// HTTP is the configuration of the HTTP API.
	HTTP HTTPCfg `toml:"http"`
	// Sim is the table of simulation parameters.
	Sim SimCfg `toml:"sim"`
	// Pools is the set of entity pools. Each key is the pool name.
	Pools map[string]*PoolCfg `toml:"pools"`
}

// HistoryCfg is the configuration of the run history database.
// At most one of SQL and KV may be set. If neither is, runs are not recorded.
type HistoryCfg struct {
	SQL    string `toml:"sql"`
	KV     string `toml:"kv"`
	KVFlag string `toml:"kvflag"`
}

// HTTPCfg is the configuration of the HTTP API.
type HTTPCfg struct {
	// Listen is the address on which to serve. Empty disables the API.
	Listen string `toml:"listen"`
}

// SimCfg is the configuration of the simulation loop.
type SimCfg struct {
	// Frames is the number of frames each worker simulates.
	Frames int `toml:"frames"`
	// FPS is the frame rate limit per worker. Zero means unlimited.
	FPS float64 `toml:"fps"`
	// Workers is the number of concurrent workers.
	Workers int `toml:"workers"`
	// Meshes is the number of meshes uploaded per frame.
	Meshes int `toml:"meshes"`
	// MaxVertices is the largest vertex count of a generated mesh.
	MaxVertices int `toml:"max_vertices"`
	// Spawns is the number of entities spawned per frame.
	Spawns int `toml:"spawns"`
	// Seed seeds the simulation. Zero picks a random seed.
	Seed uint64 `toml:"seed"`
}

// PoolCfg is the configuration of one entity pool.
type PoolCfg struct {
	// Prefab is the name given to the pool's objects.
	Prefab string `toml:"prefab"`
	// InitialSize is the number of objects created up front.
	// Zero means the default size, and negative means none.
	InitialSize int `toml:"initial_size"`
	// Weight is the relative frequency of spawns from the pool.
	Weight int `toml:"weight"`
	// Body gives the pool's objects a physics body.
	Body bool `toml:"body"`
}

// SimConfig converts the configuration to simulation parameters.
// Pools are ordered by name.
func (cfg *Config) SimConfig() sim.Config {
	r := sim.Config{
		Frames:      cfg.Sim.Frames,
		FPS:         cfg.Sim.FPS,
		Workers:     cfg.Sim.Workers,
		Meshes:      cfg.Sim.Meshes,
		MaxVertices: cfg.Sim.MaxVertices,
		Spawns:      cfg.Sim.Spawns,
		Seed:        cfg.Sim.Seed,
		Pools:       make([]sim.Pool, 0, len(cfg.Pools)),
	}
	for name, p := range cfg.Pools {
		if p == nil {
			continue
		}
		r.Pools = append(r.Pools, sim.Pool{
			Name:        name,
			Prefab:      p.Prefab,
			InitialSize: p.InitialSize,
			Weight:      p.Weight,
			Body:        p.Body,
		})
	}
	slices.SortFunc(r.Pools, func(a, b sim.Pool) int { return strings.Compare(a.Name, b.Name) })
	return r
}

// historyStore is a run history along with the database backing it.
type historyStore interface {
	history.Store
	io.Closer
}

// kvStore closes its badger database.
type kvStore struct {
	*kvhistory.Store
	db *badger.DB
}

func (s kvStore) Close() error {
	return s.db.Close()
}

// loadHistory opens the configured run history. It returns nil if no history
// database is configured.
func loadHistory(ctx context.Context, cfg HistoryCfg) (historyStore, error) {
	switch {
	case cfg.SQL != "" && cfg.KV != "":
		return nil, fmt.Errorf("multiple history backends requested; use at most one")
	case cfg.KV != "":
		slog.DebugContext(ctx, "using kv history", slog.String("path", cfg.KV), slog.String("flags", cfg.KVFlag))
		opts := badger.DefaultOptions(cfg.KV)
		opts = opts.WithLogger(nil)
		opts = opts.WithCompression(options.None)
		db, err := badger.Open(opts.FromSuperFlag(cfg.KVFlag))
		if err != nil {
			return nil, fmt.Errorf("couldn't open kv history db: %w", err)
		}
		return kvStore{Store: kvhistory.New(db), db: db}, nil
	case cfg.SQL != "":
		slog.DebugContext(ctx, "using sql history", slog.String("path", cfg.SQL))
		db, err := sqlitex.NewPool(cfg.SQL, sqlitex.PoolOptions{})
		if err != nil {
			return nil, fmt.Errorf("couldn't open sql history db: %w", err)
		}
		s, err := sqlhistory.Open(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	default:
		slog.DebugContext(ctx, "no history db; runs will not be recorded")
		return nil, nil
	}
}

func expandcfg(cfg *Config, expand func(s string) string) {
	fields := []*string{
		&cfg.History.SQL,
		&cfg.History.KV,
		&cfg.History.KVFlag,
		&cfg.HTTP.Listen,
	}
	for _, f := range fields {
		*f = os.Expand(*f, expand)
	}
	for _, p := range cfg.Pools {
		if p == nil {
			continue
		}
		p.Prefab = os.Expand(p.Prefab, expand)
	}
}
