// Package formats provides decoders for the POD asset formats.
// BIN (binary model) decoder.
package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/fury3-assets/pkg/encoding"
	"github.com/Faultbox/fury3-assets/pkg/math"
)

// ModelMagic is the format tag every BIN model starts with.
const ModelMagic = 0x14

// ModelScaleShift is the fixed-point shift applied to the header scale:
// coordinate = raw * (scale / 2^23).
const ModelScaleShift = 23

// NormalScale maps stored face normal components to unit range.
const NormalScale = 65535.0

const textureNameSize = 16

// Block tags of the BIN face stream.
const (
	BlockEnd     uint32 = 0x00
	BlockTexture uint32 = 0x0D
	BlockFace    uint32 = 0x0E
	BlockUnknown uint32 = 0x17
	BlockFaceAlt uint32 = 0x18
)

// BIN format errors.
var (
	ErrBadModelMagic  = errors.New("invalid BIN magic: expected 0x14")
	ErrTruncatedModel = errors.New("truncated BIN data")
	ErrUnknownBlock   = errors.New("unknown BIN block")
	ErrMalformedFace  = errors.New("malformed BIN face")
	ErrBadTextureName = errors.New("malformed BIN texture name")
)

// Face is one triangle of a decoded model.
type Face struct {
	V       [3]int    // Indices into Model.Vertices
	Normal  math.Vec3 // Stored face normal
	Texture int       // Index into Model.Textures, -1 before any texture block
}

// Model is a decoded BIN model.
type Model struct {
	Scale    uint32      // Header scale factor
	Vertices []math.Vec3 // Vertex positions
	Faces    []Face      // Triangles; quads are split in two
	Textures []string    // Texture names in first-use order
}

type modelHeader struct {
	Magic       uint32
	Scale       uint32
	Reserved    [2]uint32
	VertexCount uint32
}

type faceHeader struct {
	Count    uint32
	Normal   [3]int32
	Reserved uint32
}

type faceVertex struct {
	Index uint32
	U, V  uint32 // Discarded; per-vertex UVs are not used by the core
}

// countingReader tracks the stream offset for error messages.
type countingReader struct {
	r   io.Reader
	off int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.off += int64(n)
	return n, err
}

// ParseModel decodes a BIN model from a byte slice.
func ParseModel(data []byte) (*Model, error) {
	return DecodeModel(bytes.NewReader(data))
}

// DecodeModel decodes a BIN model, reading r until it is exhausted.
func DecodeModel(r io.Reader) (*Model, error) {
	cr := &countingReader{r: r}

	var hdr modelHeader
	if err := binary.Read(cr, binary.LittleEndian, &hdr.Magic); err != nil {
		return nil, truncated(err, "reading magic")
	}
	if hdr.Magic != ModelMagic {
		return nil, fmt.Errorf("%w: got 0x%x", ErrBadModelMagic, hdr.Magic)
	}
	if err := binary.Read(cr, binary.LittleEndian, &hdr.Scale); err != nil {
		return nil, truncated(err, "reading scale")
	}
	if err := binary.Read(cr, binary.LittleEndian, &hdr.Reserved); err != nil {
		return nil, truncated(err, "reading reserved header fields")
	}
	if err := binary.Read(cr, binary.LittleEndian, &hdr.VertexCount); err != nil {
		return nil, truncated(err, "reading vertex count")
	}

	model := &Model{
		Scale:    hdr.Scale,
		Vertices: make([]math.Vec3, 0, min(hdr.VertexCount, 1<<16)),
	}

	factor := float32(hdr.Scale) / float32(1<<ModelScaleShift)
	for i := uint32(0); i < hdr.VertexCount; i++ {
		var raw [3]int32
		if err := binary.Read(cr, binary.LittleEndian, &raw); err != nil {
			return nil, truncated(err, fmt.Sprintf("reading vertex %d", i))
		}
		model.Vertices = append(model.Vertices, math.Vec3{
			X: float32(raw[0]) * factor,
			Y: float32(raw[1]) * factor,
			Z: float32(raw[2]) * factor,
		})
	}

	d := &modelDecoder{r: cr, model: model, texture: -1, textures: make(map[string]int)}
	if err := d.readBlocks(); err != nil {
		return nil, err
	}
	return model, nil
}

type modelDecoder struct {
	r        *countingReader
	model    *Model
	texture  int
	textures map[string]int
}

// readBlocks consumes tagged blocks until a clean end of stream.
func (d *modelDecoder) readBlocks() error {
	for {
		start := d.r.off

		var tag uint32
		if err := binary.Read(d.r, binary.LittleEndian, &tag); err != nil {
			if err == io.EOF {
				return nil
			}
			return truncated(err, fmt.Sprintf("reading block tag at 0x%x", start))
		}

		var err error
		switch tag {
		case BlockEnd:
		case BlockTexture:
			err = d.readTexture()
		case BlockFace, BlockFaceAlt:
			err = d.readFace()
		case BlockUnknown:
			var reserved [2]uint32
			if rerr := binary.Read(d.r, binary.LittleEndian, &reserved); rerr != nil {
				err = truncated(rerr, "reading 0x17 block")
			}
		default:
			return fmt.Errorf("%w: tag 0x%02x at offset 0x%x", ErrUnknownBlock, tag, start)
		}
		if err != nil {
			return fmt.Errorf("block 0x%02x at offset 0x%x: %w", tag, start, err)
		}
	}
}

// readTexture reads a texture block and makes it the active texture.
func (d *modelDecoder) readTexture() error {
	var reserved uint32
	if err := binary.Read(d.r, binary.LittleEndian, &reserved); err != nil {
		return truncated(err, "reading texture block")
	}
	name, err := encoding.ReadNameBuffer(d.r, textureNameSize)
	if err != nil {
		if errors.Is(err, encoding.ErrUnterminatedName) {
			return fmt.Errorf("%w: %v", ErrBadTextureName, err)
		}
		return truncated(err, "reading texture name")
	}

	key := name.String()
	idx, ok := d.textures[key]
	if !ok {
		idx = len(d.model.Textures)
		d.textures[key] = idx
		d.model.Textures = append(d.model.Textures, key)
	}
	d.texture = idx
	return nil
}

// readFace reads a triangle or quad record.
func (d *modelDecoder) readFace() error {
	var hdr faceHeader
	if err := binary.Read(d.r, binary.LittleEndian, &hdr); err != nil {
		return truncated(err, "reading face header")
	}
	if hdr.Count != 3 && hdr.Count != 4 {
		return fmt.Errorf("%w: %d vertices", ErrMalformedFace, hdr.Count)
	}

	normal := math.Vec3{
		X: float32(hdr.Normal[0]) / NormalScale,
		Y: float32(hdr.Normal[1]) / NormalScale,
		Z: float32(hdr.Normal[2]) / NormalScale,
	}

	var idx [4]int
	for i := 0; i < int(hdr.Count); i++ {
		var fv faceVertex
		if err := binary.Read(d.r, binary.LittleEndian, &fv); err != nil {
			return truncated(err, fmt.Sprintf("reading face vertex %d", i))
		}
		if int(fv.Index) >= len(d.model.Vertices) {
			return fmt.Errorf("%w: vertex index %d out of range (%d vertices)",
				ErrMalformedFace, fv.Index, len(d.model.Vertices))
		}
		idx[i] = int(fv.Index)
	}

	d.model.Faces = append(d.model.Faces, Face{V: [3]int{idx[0], idx[1], idx[2]}, Normal: normal, Texture: d.texture})
	if hdr.Count == 4 {
		// Quads split along the first-third diagonal.
		d.model.Faces = append(d.model.Faces, Face{V: [3]int{idx[0], idx[3], idx[2]}, Normal: normal, Texture: d.texture})
	}
	return nil
}

// truncated maps short reads to ErrTruncatedModel and keeps other errors.
func truncated(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s", ErrTruncatedModel, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Bounds returns the bounding box of all vertices.
func (m *Model) Bounds() math.Bounds {
	b := math.EmptyBounds()
	for _, v := range m.Vertices {
		b.Extend(v)
	}
	return b
}

// TriangleSoup expands faces into per-corner positions and normals, three
// entries per face, the layout a renderer consumes without an index buffer.
// Normals come from FaceNormal.
func (m *Model) TriangleSoup() (positions, normals [][3]float32) {
	positions = make([][3]float32, 0, len(m.Faces)*3)
	normals = make([][3]float32, 0, len(m.Faces)*3)
	for _, f := range m.Faces {
		n := m.FaceNormal(f).Array()
		for _, vi := range f.V {
			positions = append(positions, m.Vertices[vi].Array())
			normals = append(normals, n)
		}
	}
	return positions, normals
}

// FaceNormal returns the unit normal of f. A zero stored normal is replaced by
// the normal of the face winding.
func (m *Model) FaceNormal(f Face) math.Vec3 {
	if n := f.Normal.Normalize(); n != (math.Vec3{}) {
		return n
	}
	a, b, c := m.Vertices[f.V[0]], m.Vertices[f.V[1]], m.Vertices[f.V[2]]
	return b.Sub(a).Cross(c.Sub(a)).Normalize()
}
