package terrain

import (
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/fury3-assets/internal/atlas"
	"github.com/Faultbox/fury3-assets/pkg/formats"
	"github.com/Faultbox/fury3-assets/pkg/math"
)

// Heightfield scale defaults. A height byte b maps to b/256*VerticalScale;
// neighbouring samples are PlanarScale apart.
const (
	DefaultVerticalScale = 8.0
	DefaultPlanarScale   = 1.0 / 8.0
)

// Errors returned by BuildMesh.
var (
	ErrNotSquare            = errors.New("heightfield is not square")
	ErrTruncatedHeightfield = errors.New("heightfield stream ended early")
	ErrTextureIndex         = errors.New("texture index out of range")
)

var up = [3]float32{0, 1, 0}

// Options configures BuildMesh. IndexMap, when set, is a stream of the same
// dimensions as the heightfield whose bytes select Atlas placements.
type Options struct {
	IndexMap      io.Reader
	Atlas         *atlas.Atlas
	VerticalScale float32
	PlanarScale   float32
}

// SideFromSize returns the side length of a square heightfield of size bytes.
func SideFromSize(size int64) (int, error) {
	side, ok := formats.SquareSide(size)
	if !ok {
		return 0, fmt.Errorf("%w: %d bytes", ErrNotSquare, size)
	}
	return side, nil
}

// BuildMesh tessellates a row-major heightfield of size bytes.
//
// Only two rows of the heightfield (and of the index map) are held at a time.
// Every quad of neighbouring samples becomes the triangles {BL, TR, TL} and
// {BL, BR, TR}; the grid is centered on the origin in X and Z.
func BuildMesh(height io.Reader, size int64, opts Options) (*Mesh, error) {
	side, err := SideFromSize(size)
	if err != nil {
		return nil, err
	}
	if opts.VerticalScale == 0 {
		opts.VerticalScale = DefaultVerticalScale
	}
	if opts.PlanarScale == 0 {
		opts.PlanarScale = DefaultPlanarScale
	}
	if opts.IndexMap != nil && opts.Atlas == nil {
		return nil, fmt.Errorf("%w: index map given without an atlas", ErrTextureIndex)
	}

	m := &Mesh{Side: side, Bounds: math.EmptyBounds()}
	if side < 2 {
		return m, nil
	}

	quads := (side - 1) * (side - 1)
	m.Vertices = make([]Vertex, 0, quads*6)

	b := builder{
		mesh:     m,
		opts:     opts,
		half:     float32(side) * opts.PlanarScale / 2,
		prev:     make([]byte, side),
		cur:      make([]byte, side),
		prevTile: make([]byte, side),
		curTile:  make([]byte, side),
	}

	for r := 0; r < side; r++ {
		if err := b.readRow(height, r); err != nil {
			return nil, err
		}
		if r > 0 {
			if err := b.emitRow(r); err != nil {
				return nil, err
			}
		}
		b.prev, b.cur = b.cur, b.prev
		b.prevTile, b.curTile = b.curTile, b.prevTile
	}

	m.Indices = make([]uint32, len(m.Vertices))
	for i := range m.Indices {
		m.Indices[i] = uint32(i)
	}

	return m, nil
}

type builder struct {
	mesh *Mesh
	opts Options
	half float32

	prev, cur         []byte
	prevTile, curTile []byte
}

func (b *builder) readRow(height io.Reader, r int) error {
	if _, err := io.ReadFull(height, b.cur); err != nil {
		return fmt.Errorf("%w: height row %d: %w", ErrTruncatedHeightfield, r, err)
	}
	if b.opts.IndexMap != nil {
		if _, err := io.ReadFull(b.opts.IndexMap, b.curTile); err != nil {
			return fmt.Errorf("%w: index row %d: %w", ErrTruncatedHeightfield, r, err)
		}
	}
	return nil
}

// emitRow emits the quads between rows r-1 (prev) and r (cur).
func (b *builder) emitRow(r int) error {
	side := len(b.cur)
	for c := 1; c < side; c++ {
		tl := b.position(r-1, c-1, b.prev[c-1])
		tr := b.position(r-1, c, b.prev[c])
		bl := b.position(r, c-1, b.cur[c-1])
		br := b.position(r, c, b.cur[c])

		var uv atlas.UVRect
		if b.opts.IndexMap != nil {
			idx := int(b.prevTile[c-1])
			if idx >= len(b.opts.Atlas.Rects) {
				return fmt.Errorf("%w: %d at row %d col %d (atlas has %d)",
					ErrTextureIndex, idx, r-1, c-1, len(b.opts.Atlas.Rects))
			}
			uv = b.opts.Atlas.UV(idx)
		}
		uvTL := [2]float32{uv.U0, uv.V0}
		uvTR := [2]float32{uv.U1, uv.V0}
		uvBL := [2]float32{uv.U0, uv.V1}
		uvBR := [2]float32{uv.U1, uv.V1}

		b.emit(bl, uvBL)
		b.emit(tr, uvTR)
		b.emit(tl, uvTL)

		b.emit(bl, uvBL)
		b.emit(br, uvBR)
		b.emit(tr, uvTR)
	}
	return nil
}

func (b *builder) position(row, col int, h byte) math.Vec3 {
	return math.Vec3{
		X: float32(row)*b.opts.PlanarScale - b.half,
		Y: float32(h) / 256 * b.opts.VerticalScale,
		Z: float32(col)*b.opts.PlanarScale - b.half,
	}
}

func (b *builder) emit(p math.Vec3, uv [2]float32) {
	b.mesh.Bounds.Extend(p)
	b.mesh.Vertices = append(b.mesh.Vertices, Vertex{
		Position: p.Array(),
		Normal:   up,
		TexCoord: uv,
	})
}
