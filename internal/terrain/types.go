// Package terrain turns square heightfield streams into triangle meshes.
package terrain

import (
	"github.com/Faultbox/fury3-assets/pkg/math"
)

// Vertex represents a terrain mesh vertex with all attributes.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Mesh holds the terrain triangles ready for the renderer. Vertices are
// emitted per triangle corner; Indices is 0..len(Vertices)-1.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Side     int
	Bounds   math.Bounds
}

// TriangleCount returns the number of triangles in the mesh.
func (m *Mesh) TriangleCount() int {
	return len(m.Vertices) / 3
}
