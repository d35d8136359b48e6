package geometry

import (
	"errors"
	"fmt"
	"time"

	"github.com/zephyrtronium/voxe/arraypool"
	"github.com/zephyrtronium/voxe/metrics"
)

// Builder uploads buffers to meshes using scratch arrays from a pool set.
// A Builder is not safe for concurrent use, since neither is its set.
type Builder struct {
	pools   *arraypool.Set
	metrics *metrics.Metrics
}

// NewBuilder creates a builder drawing arrays from pools.
// If m is nil, builds are not recorded in metrics.
func NewBuilder(pools *arraypool.Set, m *metrics.Metrics) *Builder {
	if m == nil {
		m = metrics.Discard()
	}
	return &Builder{pools: pools, metrics: m}
}

// BuildMesh copies buf into mesh.
// The arrays passed to mesh may be longer than the vertex count. Elements
// past the vertex count are zero.
func (b *Builder) BuildMesh(mesh Mesh, buf *Buffer) error {
	start := time.Now()
	n := len(buf.Vertices)

	vertices := arraypool.Acquire[Vector3](b.pools, n)
	uvs := arraypool.Acquire[Vector2](b.pools, n)
	colors := arraypool.Acquire[Color32](b.pools, n)
	normals := arraypool.Acquire[Vector3](b.pools, n)
	tangents := arraypool.Acquire[Vector4](b.pools, n)

	for i, v := range buf.Vertices {
		vertices[i] = v.Position
		uvs[i] = v.UV
		colors[i] = v.Color
		normals[i] = v.Normal
		tangents[i] = v.Tangent
	}
	// Arrays from the pool can be longer than we asked and hold whatever the
	// last user left. Each may have a different length.
	clear(vertices[n:])
	clear(uvs[n:])
	clear(colors[n:])
	clear(normals[n:])
	clear(tangents[n:])

	mesh.SetVertices(vertices)
	mesh.SetUV(uvs)
	mesh.SetColors(colors)
	mesh.SetNormals(normals)
	mesh.SetTangents(tangents)
	mesh.SetTriangles(buf.Triangles, 0)
	mesh.Optimize()

	err := errors.Join(
		arraypool.Release(b.pools, vertices),
		arraypool.Release(b.pools, uvs),
		arraypool.Release(b.pools, colors),
		arraypool.Release(b.pools, normals),
		arraypool.Release(b.pools, tangents),
	)
	if err != nil {
		return fmt.Errorf("couldn't return mesh arrays: %w", err)
	}
	b.metrics.MeshLatency.Observe(time.Since(start).Seconds())
	b.metrics.MeshVertices.Observe(float64(n))
	return nil
}
