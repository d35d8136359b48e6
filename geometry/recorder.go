package geometry

import "slices"

// Recorder is a [Mesh] that keeps copies of everything uploaded to it.
type Recorder struct {
	Vertices  []Vector3
	UV        []Vector2
	Colors    []Color32
	Normals   []Vector3
	Tangents  []Vector4
	Triangles map[int][]int32
	// Optimized counts calls to Optimize.
	Optimized int
}

var _ Mesh = (*Recorder)(nil)

func (r *Recorder) SetVertices(v []Vector3) { r.Vertices = append(r.Vertices[:0], v...) }
func (r *Recorder) SetUV(v []Vector2)       { r.UV = append(r.UV[:0], v...) }
func (r *Recorder) SetColors(v []Color32)   { r.Colors = append(r.Colors[:0], v...) }
func (r *Recorder) SetNormals(v []Vector3)  { r.Normals = append(r.Normals[:0], v...) }
func (r *Recorder) SetTangents(v []Vector4) { r.Tangents = append(r.Tangents[:0], v...) }

func (r *Recorder) SetTriangles(tris []int32, submesh int) {
	if r.Triangles == nil {
		r.Triangles = make(map[int][]int32)
	}
	r.Triangles[submesh] = slices.Clone(tris)
}

func (r *Recorder) Optimize() {
	r.Optimized++
}

// Reset clears the recorded mesh while keeping its memory.
func (r *Recorder) Reset() {
	r.Vertices = r.Vertices[:0]
	r.UV = r.UV[:0]
	r.Colors = r.Colors[:0]
	r.Normals = r.Normals[:0]
	r.Tangents = r.Tangents[:0]
	clear(r.Triangles)
	r.Optimized = 0
}
