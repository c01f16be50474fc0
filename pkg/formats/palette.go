package formats

import (
	"errors"
	"fmt"
	"io"
)

// PaletteSize is the on-disk size of a palette: 256 RGB triplets.
const PaletteSize = 256 * 3

// Palette errors.
var (
	ErrBadPalette     = errors.New("invalid palette: expected 768 bytes")
	ErrNotSquareImage = errors.New("indexed image is not square")
)

// Palette maps 8-bit color indices to RGB.
type Palette [256][3]uint8

// ParsePalette parses a palette from exactly PaletteSize bytes.
func ParsePalette(data []byte) (Palette, error) {
	var p Palette
	if len(data) != PaletteSize {
		return p, fmt.Errorf("%w: got %d", ErrBadPalette, len(data))
	}
	for i := range p {
		p[i] = [3]uint8{data[i*3], data[i*3+1], data[i*3+2]}
	}
	return p, nil
}

// ReadPalette reads a whole palette stream.
func ReadPalette(r io.Reader) (Palette, error) {
	data, err := io.ReadAll(io.LimitReader(r, PaletteSize+1))
	if err != nil {
		return Palette{}, fmt.Errorf("reading palette: %w", err)
	}
	return ParsePalette(data)
}

// GrayscalePalette returns a palette mapping index i to gray level i.
func GrayscalePalette() Palette {
	var p Palette
	for i := range p {
		v := uint8(i)
		p[i] = [3]uint8{v, v, v}
	}
	return p
}

// Expand converts palette indices to RGBA pixels with opaque alpha.
// Every index, including 255, is looked up as is.
func (p *Palette) Expand(indices []byte) []byte {
	rgba := make([]byte, len(indices)*4)
	for i, idx := range indices {
		c := p[idx]
		rgba[i*4] = c[0]
		rgba[i*4+1] = c[1]
		rgba[i*4+2] = c[2]
		rgba[i*4+3] = 255
	}
	return rgba
}

// IndexedImage is a square image of palette indices.
type IndexedImage struct {
	Side    int
	Indices []byte
}

// SquareSide returns the exact integer square root of size, or false if size
// is not a perfect square.
func SquareSide(size int64) (int, bool) {
	if size < 0 {
		return 0, false
	}
	side := int64(0)
	// Newton iteration on integers; sizes are small enough to not overflow.
	if size > 0 {
		x := size
		y := (x + 1) / 2
		for y < x {
			x = y
			y = (x + size/x) / 2
		}
		side = x
	}
	return int(side), side*side == size
}

// ReadIndexedImage reads a square indexed image of the given byte size.
func ReadIndexedImage(r io.Reader, size int64) (*IndexedImage, error) {
	side, ok := SquareSide(size)
	if !ok {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotSquareImage, size)
	}
	indices := make([]byte, size)
	if _, err := io.ReadFull(r, indices); err != nil {
		return nil, fmt.Errorf("reading %dx%d image: %w", side, side, err)
	}
	return &IndexedImage{Side: side, Indices: indices}, nil
}

// RGBA expands the image through p.
func (img *IndexedImage) RGBA(p *Palette) []byte {
	return p.Expand(img.Indices)
}
