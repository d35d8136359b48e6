// Package history records summaries of simulation runs.
package history

import (
	"context"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/google/uuid"

	"github.com/zephyrtronium/voxe/arraypool"
	"github.com/zephyrtronium/voxe/objpool"
)

// Report summarizes one run of the simulation.
type Report struct {
	ID       uuid.UUID     `json:"id"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration"`
	Workers  int           `json:"workers"`
	Frames   int64         `json:"frames"`
	Meshes   int64         `json:"meshes"`
	Vertices int64         `json:"vertices"`
	// Spawned and Despawned count pops from and pushes to object pools.
	Spawned   int64 `json:"spawned"`
	Despawned int64 `json:"despawned"`
	// Arrays is the combined array pool stats of all workers by element kind.
	Arrays map[string]arraypool.Stats `json:"arrays,omitempty"`
	// Objects is the combined object pool stats of all workers by pool name.
	Objects map[string]objpool.Stats `json:"objects,omitempty"`
}

// Store is a durable record of reports.
type Store interface {
	// Record saves a report.
	Record(ctx context.Context, r *Report) error
	// Recent returns up to n reports, most recent start time first.
	Recent(ctx context.Context, n int) ([]Report, error)
}

// Marshal encodes a report in the format used by stores.
func Marshal(r *Report) ([]byte, error) {
	return json.Marshal(r)
}

// Unmarshal decodes a report encoded by [Marshal].
func Unmarshal(b []byte, r *Report) error {
	return json.Unmarshal(b, r)
}
