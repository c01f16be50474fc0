// Package export writes decoded assets in formats other tools can open.
package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/Faultbox/fury3-assets/internal/terrain"
	"github.com/Faultbox/fury3-assets/pkg/formats"
)

// WriteModelOBJ writes m as a Wavefront OBJ. Each face gets its own normal;
// faces are grouped by their active texture.
func WriteModelOBJ(w io.Writer, m *formats.Model) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %d vertices, %d faces\n", len(m.Vertices), len(m.Faces))
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.X, v.Y, v.Z)
	}
	for _, f := range m.Faces {
		n := m.FaceNormal(f)
		fmt.Fprintf(bw, "vn %g %g %g\n", n.X, n.Y, n.Z)
	}

	current := -2
	for i, f := range m.Faces {
		if f.Texture != current {
			current = f.Texture
			if current >= 0 && current < len(m.Textures) {
				fmt.Fprintf(bw, "usemtl %s\n", m.Textures[current])
			} else {
				fmt.Fprintln(bw, "usemtl none")
			}
		}
		n := i + 1
		fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n",
			f.V[0]+1, n, f.V[1]+1, n, f.V[2]+1, n)
	}

	return bw.Flush()
}

// WriteTerrainOBJ writes a terrain mesh as a Wavefront OBJ with texture
// coordinates into the level atlas.
func WriteTerrainOBJ(w io.Writer, m *terrain.Mesh) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# terrain %dx%d, %d triangles\n", m.Side, m.Side, m.TriangleCount())
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.Position[0], v.Position[1], v.Position[2])
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "vt %g %g\n", v.TexCoord[0], v.TexCoord[1])
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "vn %g %g %g\n", v.Normal[0], v.Normal[1], v.Normal[2])
	}

	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i]+1, m.Indices[i+1]+1, m.Indices[i+2]+1
		fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
	}

	return bw.Flush()
}
