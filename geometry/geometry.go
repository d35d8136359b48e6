// Package geometry copies CPU-side vertex buffers into mesh attribute arrays
// for upload to a renderer.
package geometry

// Vector2 is a two-component vector, typically a texture coordinate.
type Vector2 struct {
	X, Y float32
}

// Vector3 is a three-component vector.
type Vector3 struct {
	X, Y, Z float32
}

// Vector4 is a four-component vector, typically a tangent with handedness in W.
type Vector4 struct {
	X, Y, Z, W float32
}

// Color32 is an 8-bit-per-channel RGBA color.
type Color32 struct {
	R, G, B, A uint8
}

// Vertex is the full set of attributes of one mesh vertex.
type Vertex struct {
	Position Vector3
	UV       Vector2
	Color    Color32
	Normal   Vector3
	Tangent  Vector4
}

// Buffer is the CPU-side geometry of a mesh.
type Buffer struct {
	Vertices []Vertex
	// Triangles holds vertex indices, three per triangle.
	Triangles []int32
}

// Reset empties the buffer while keeping its memory.
func (b *Buffer) Reset() {
	b.Vertices = b.Vertices[:0]
	b.Triangles = b.Triangles[:0]
}

// Quad appends a quad with corners in counterclockwise order sharing one
// normal, tangent, and color.
func (b *Buffer) Quad(corners [4]Vector3, normal Vector3, tangent Vector4, color Color32) {
	k := int32(len(b.Vertices))
	uvs := [4]Vector2{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for i, c := range corners {
		b.Vertices = append(b.Vertices, Vertex{
			Position: c,
			UV:       uvs[i],
			Color:    color,
			Normal:   normal,
			Tangent:  tangent,
		})
	}
	b.Triangles = append(b.Triangles, k, k+1, k+2, k, k+2, k+3)
}

// Mesh is the rendering API's view of a mesh.
// Implementations must copy any array they retain, because the arrays are
// reused as soon as the upload finishes.
type Mesh interface {
	SetVertices([]Vector3)
	SetUV([]Vector2)
	SetColors([]Color32)
	SetNormals([]Vector3)
	SetTangents([]Vector4)
	SetTriangles(tris []int32, submesh int)
	// Optimize reorders mesh data for rendering.
	Optimize()
}
