package metrics

import "github.com/prometheus/client_golang/prometheus"

type Observer interface {
	Observe(val float64, labels ...string)

	// for now we will tightly couple to the prometheus collector type
	// the go otel metrics sdk also has a prometheus adapter that implements this interface.
	prometheus.Collector
}

type Metrics struct {
	// ArrayAcquires is labeled by element kind and by result, either hit
	// for a reused array or alloc for a fresh one.
	ArrayAcquires Observer
	// ArrayReleases is labeled by element kind.
	ArrayReleases Observer
	// ObjectPops is labeled by pool name and by result, either reuse or
	// create.
	ObjectPops Observer
	// ObjectPushes is labeled by pool name.
	ObjectPushes Observer
	MeshLatency  Observer
	MeshVertices Observer
	FrameLatency Observer
}

func (m Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ArrayAcquires,
		m.ArrayReleases,
		m.ObjectPops,
		m.ObjectPushes,
		m.MeshLatency,
		m.MeshVertices,
		m.FrameLatency,
	}
}

// Discard returns metrics which record nothing.
func Discard() *Metrics {
	return &Metrics{
		ArrayAcquires: discard{},
		ArrayReleases: discard{},
		ObjectPops:    discard{},
		ObjectPushes:  discard{},
		MeshLatency:   discard{},
		MeshVertices:  discard{},
		FrameLatency:  discard{},
	}
}

type discard struct{}

func (discard) Observe(val float64, labels ...string) {}

func (discard) Describe(chan<- *prometheus.Desc) {}

func (discard) Collect(chan<- prometheus.Metric) {}
