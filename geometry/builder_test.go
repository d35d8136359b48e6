package geometry_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zephyrtronium/voxe/arraypool"
	"github.com/zephyrtronium/voxe/geometry"
)

func face() *geometry.Buffer {
	var b geometry.Buffer
	b.Quad(
		[4]geometry.Vector3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		geometry.Vector3{0, 0, -1},
		geometry.Vector4{1, 0, 0, -1},
		geometry.Color32{255, 128, 0, 255},
	)
	return &b
}

func TestBuildMesh(t *testing.T) {
	s := arraypool.NewSet(nil)
	b := geometry.NewBuilder(s, nil)
	var m geometry.Recorder
	buf := face()
	if err := b.BuildMesh(&m, buf); err != nil {
		t.Fatal(err)
	}
	want := geometry.Recorder{
		Vertices:  []geometry.Vector3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		UV:        []geometry.Vector2{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		Colors:    []geometry.Color32{{255, 128, 0, 255}, {255, 128, 0, 255}, {255, 128, 0, 255}, {255, 128, 0, 255}},
		Normals:   []geometry.Vector3{{0, 0, -1}, {0, 0, -1}, {0, 0, -1}, {0, 0, -1}},
		Tangents:  []geometry.Vector4{{1, 0, 0, -1}, {1, 0, 0, -1}, {1, 0, 0, -1}, {1, 0, 0, -1}},
		Triangles: map[int][]int32{0: {0, 1, 2, 0, 2, 3}},
		Optimized: 1,
	}
	if diff := cmp.Diff(&want, &m); diff != "" {
		t.Errorf("wrong mesh (-want +got):\n%s", diff)
	}
	// Every scratch array went back to the pool. Vector3 is used twice.
	wantCached := map[string]int{
		"geometry.Vector3": 2,
		"geometry.Vector2": 1,
		"geometry.Color32": 1,
		"geometry.Vector4": 1,
	}
	gotCached := make(map[string]int)
	for k, v := range s.Stats() {
		gotCached[k] = v.Cached
	}
	if diff := cmp.Diff(wantCached, gotCached); diff != "" {
		t.Errorf("arrays not returned to pools (-want +got):\n%s", diff)
	}
}

func TestBuildMeshZeroesTail(t *testing.T) {
	s := arraypool.NewSet(nil)
	b := geometry.NewBuilder(s, nil)
	// Leave garbage in larger arrays so that the next build reuses them.
	junk3 := geometry.Vector3{9, 9, 9}
	for _, n := range []int{10, 7} {
		a := make([]geometry.Vector3, n)
		for i := range a {
			a[i] = junk3
		}
		if err := arraypool.Release(s, a); err != nil {
			t.Fatal(err)
		}
	}
	uv := make([]geometry.Vector2, 6)
	for i := range uv {
		uv[i] = geometry.Vector2{7, 7}
	}
	if err := arraypool.Release(s, uv); err != nil {
		t.Fatal(err)
	}

	var m geometry.Recorder
	if err := b.BuildMesh(&m, face()); err != nil {
		t.Fatal(err)
	}
	// Vertices get the best fit of 7 and normals the 10.
	if len(m.Vertices) != 7 || len(m.Normals) != 10 || len(m.UV) != 6 {
		t.Fatalf("pooled arrays not reused: got lengths %d, %d, %d", len(m.Vertices), len(m.Normals), len(m.UV))
	}
	for i := 4; i < len(m.Vertices); i++ {
		if m.Vertices[i] != (geometry.Vector3{}) {
			t.Errorf("vertex %d not zeroed: %v", i, m.Vertices[i])
		}
	}
	for i := 4; i < len(m.Normals); i++ {
		if m.Normals[i] != (geometry.Vector3{}) {
			t.Errorf("normal %d not zeroed: %v", i, m.Normals[i])
		}
	}
	for i := 4; i < len(m.UV); i++ {
		if m.UV[i] != (geometry.Vector2{}) {
			t.Errorf("uv %d not zeroed: %v", i, m.UV[i])
		}
	}
	if m.Vertices[1] != (geometry.Vector3{1, 0, 0}) {
		t.Errorf("vertex data not copied: %v", m.Vertices[1])
	}
}

func TestBuildMeshEmpty(t *testing.T) {
	s := arraypool.NewSet(nil)
	b := geometry.NewBuilder(s, nil)
	var m geometry.Recorder
	if err := b.BuildMesh(&m, new(geometry.Buffer)); err != nil {
		t.Fatalf("couldn't build empty mesh: %v", err)
	}
	if len(m.Vertices) != 0 || len(m.Triangles[0]) != 0 {
		t.Errorf("empty buffer produced geometry: %+v", m)
	}
	if m.Optimized != 1 {
		t.Errorf("empty mesh not finalized: %d optimize calls", m.Optimized)
	}
	// A second empty build reuses the empty arrays.
	before := s.Stats()["geometry.Vector3"].Allocs
	if err := b.BuildMesh(&m, new(geometry.Buffer)); err != nil {
		t.Fatalf("couldn't build empty mesh again: %v", err)
	}
	if after := s.Stats()["geometry.Vector3"].Allocs; after != before {
		t.Errorf("second empty build allocated: %d to %d", before, after)
	}
}

func TestBufferReset(t *testing.T) {
	buf := face()
	buf.Reset()
	if len(buf.Vertices) != 0 || len(buf.Triangles) != 0 {
		t.Errorf("buffer not empty after reset: %+v", buf)
	}
	if cap(buf.Vertices) < 4 {
		t.Errorf("reset dropped buffer memory")
	}
}
