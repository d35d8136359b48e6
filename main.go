package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/zephyrtronium/voxe/history"
	"github.com/zephyrtronium/voxe/metrics"
	"github.com/zephyrtronium/voxe/sim"
)

var app = cli.Command{
	Name:  "voxe",
	Usage: "Pooled mesh and entity simulation",

	Flags: []cli.Flag{
		&flagConfig,
		&flagLog,
		&flagLogFormat,
	},
	Commands: []*cli.Command{
		{
			Name:   "run",
			Usage:  "Run the simulation and record it",
			Action: cliRun,
		},
		{
			Name:    "history",
			Aliases: []string{"runs"},
			Usage:   "Print recorded runs, newest first",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "n",
					Usage: "Number of runs to print",
					Value: 10,
				},
			},
			Action: cliHistory,
		},
	},
	Action: cliRun,

	Authors: []any{
		"Branden J Brown  @zephyrtronium",
	},
	Copyright: "Copyright 2024 Branden J Brown",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	go func() {
		<-ctx.Done()
		stop()
	}()
	err := app.Run(ctx, os.Args)
	if err != nil {
		fmt.Println(err)
	}
}

func loadConfig(ctx context.Context, cmd *cli.Command) (*Config, error) {
	r, err := os.Open(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("couldn't open config file: %w", err)
	}
	defer r.Close()
	cfg, _, err := Load(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("couldn't load config: %w", err)
	}
	return cfg, nil
}

func cliRun(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}
	store, err := loadHistory(ctx, cfg.History)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}
	m := newMetrics()
	var live sim.Live

	group, ctx := errgroup.WithContext(ctx)
	// The API server stops once the simulation finishes.
	done, finish := context.WithCancel(ctx)
	defer finish()
	if cfg.HTTP.Listen != "" {
		srv := &server{live: &live, store: store}
		group.Go(func() error {
			return srv.api(done, cfg.HTTP.Listen, m.Collectors())
		})
	}
	group.Go(func() error {
		defer finish()
		r, err := sim.Run(ctx, cfg.SimConfig(), m, &live)
		if r == nil {
			return err
		}
		if store != nil {
			// Record even failed runs, but not with a context that may be
			// the reason they failed.
			if err := store.Record(context.WithoutCancel(ctx), r); err != nil {
				slog.ErrorContext(ctx, "couldn't record run", slog.String("run", r.ID.String()), slog.Any("err", err))
			}
		}
		return err
	})
	return group.Wait()
}

func cliHistory(ctx context.Context, cmd *cli.Command) error {
	slog.SetDefault(loggerFromFlags(cmd))
	cfg, err := loadConfig(ctx, cmd)
	if err != nil {
		return err
	}
	store, err := loadHistory(ctx, cfg.History)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("no history database configured")
	}
	defer store.Close()
	runs, err := store.Recent(ctx, int(cmd.Int("n")))
	if err != nil {
		return fmt.Errorf("couldn't read history: %w", err)
	}
	for _, r := range runs {
		b, err := history.Marshal(&r)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", b)
	}
	return nil
}

var (
	flagConfig = cli.StringFlag{
		Name:       "config",
		Required:   true,
		Usage:      "TOML config file",
		Persistent: true,
		Action: func(ctx context.Context, cmd *cli.Command, s string) error {
			i, err := os.Stat(s)
			if err != nil {
				return err
			}
			if !i.Mode().IsRegular() {
				return errors.New("config must be a regular file")
			}
			return nil
		},
	}

	flagLog = cli.StringFlag{
		Name:       "log",
		Usage:      "Logging level, one of debug, info, warn, error",
		Value:      "info",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			var l slog.Level
			return l.UnmarshalText([]byte(s))
		},
	}

	flagLogFormat = cli.StringFlag{
		Name:       "log-format",
		Usage:      "Logging format, either text or json",
		Value:      "text",
		Persistent: true,
		Action: func(ctx context.Context, c *cli.Command, s string) error {
			switch strings.ToLower(s) {
			case "text", "json":
				return nil
			default:
				return errors.New("unknown logging format")
			}
		},
	}
)

func loggerFromFlags(cmd *cli.Command) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(cmd.String("log"))); err != nil {
		panic(err)
	}
	var h slog.Handler
	switch strings.ToLower(cmd.String("log-format")) {
	case "text":
		h = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	case "json":
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: l})
	}
	return slog.New(h)
}

// metrics configuration
func newMetrics() *metrics.Metrics {
	return &metrics.Metrics{
		ArrayAcquires: metrics.NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "voxe",
					Subsystem: "arraypool",
					Name:      "acquires",
					Help:      "Number of arrays acquired, by element kind and whether the cache satisfied it.",
				},
				[]string{"kind", "result"},
			),
		),
		ArrayReleases: metrics.NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "voxe",
					Subsystem: "arraypool",
					Name:      "releases",
					Help:      "Number of arrays released, by element kind.",
				},
				[]string{"kind"},
			),
		),
		ObjectPops: metrics.NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "voxe",
					Subsystem: "objpool",
					Name:      "pops",
					Help:      "Number of objects popped, by pool and whether an instance was reused.",
				},
				[]string{"pool", "result"},
			),
		),
		ObjectPushes: metrics.NewPromCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "voxe",
					Subsystem: "objpool",
					Name:      "pushes",
					Help:      "Number of objects returned, by pool.",
				},
				[]string{"pool"},
			),
		),
		MeshLatency: metrics.NewPromHistogram(
			prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Buckets:   []float64{1e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 5e-3, 1e-2},
					Namespace: "voxe",
					Subsystem: "geometry",
					Name:      "mesh_latency",
					Help:      "How long it takes to upload a mesh in seconds",
				},
			),
		),
		MeshVertices: metrics.NewPromHistogram(
			prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Buckets:   prometheus.ExponentialBuckets(4, 4, 8),
					Namespace: "voxe",
					Subsystem: "geometry",
					Name:      "mesh_vertices",
					Help:      "Number of vertices in uploaded meshes",
				},
			),
		),
		FrameLatency: metrics.NewPromHistogram(
			prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Buckets:   []float64{1e-4, 5e-4, 1e-3, 5e-3, 0.01, 0.0167, 0.033, 0.1},
					Namespace: "voxe",
					Subsystem: "sim",
					Name:      "frame_latency",
					Help:      "How long it takes to simulate a frame in seconds",
				},
			),
		),
	}
}
