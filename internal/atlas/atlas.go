// Package atlas packs the palette-indexed textures named by a level's texture
// manifest into one RGBA atlas image.
package atlas

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/fury3-assets/internal/logger"
	"github.com/Faultbox/fury3-assets/pkg/formats"
	"github.com/Faultbox/fury3-assets/pkg/pod"
)

// Errors returned while building an atlas.
var (
	ErrNotSquare = errors.New("texture is not square")
	ErrIO        = errors.New("texture read failed")
)

// Defaults used when Options leaves a field empty.
const (
	DefaultDir        = "ART"
	DefaultPaletteExt = ".PAL"
)

// Source resolves archive members by directory and file name.
// *pod.Archive satisfies it.
type Source interface {
	OpenByPath(dir, file string) (*pod.Handle, error)
}

// Options controls where textures are looked up and how they are packed.
type Options struct {
	Dir        string
	PaletteExt string
	Packer     Packer
}

func (o Options) withDefaults() Options {
	if o.Dir == "" {
		o.Dir = DefaultDir
	}
	if o.PaletteExt == "" {
		o.PaletteExt = DefaultPaletteExt
	}
	if o.Packer == nil {
		o.Packer = ShelfPacker{}
	}
	return o
}

// Texture is one decoded square texture ready to be placed.
type Texture struct {
	Name   string
	Side   int
	Pixels []byte // RGBA, Side*Side*4
}

// Atlas is a packed RGBA image. Rects[i] and Names[i] belong to manifest
// entry i. Texels not covered by any rect are transparent black.
type Atlas struct {
	Width  int
	Height int
	Pixels []byte
	Rects  []Rect
	Names  []string
}

// Pack reads the manifest, loads every listed texture from src with its
// palette, and packs them into one atlas.
func Pack(src Source, manifest io.Reader, defaultPalette formats.Palette, opts Options) (*Atlas, error) {
	opts = opts.withDefaults()

	names, err := ReadManifest(manifest)
	if err != nil {
		return nil, err
	}

	textures := make([]Texture, 0, len(names))
	for _, name := range names {
		tex, err := loadTexture(src, opts, name, &defaultPalette)
		if err != nil {
			return nil, err
		}
		textures = append(textures, tex)
	}

	a := Build(textures, opts.Packer)
	logger.Named("atlas").Info("texture atlas packed",
		zap.Int("textures", len(textures)),
		zap.Int("width", a.Width),
		zap.Int("height", a.Height))

	return a, nil
}

// Build places already decoded textures with packer and copies their pixels
// into a fresh atlas buffer.
func Build(textures []Texture, packer Packer) *Atlas {
	if packer == nil {
		packer = ShelfPacker{}
	}

	sides := make([]int, len(textures))
	names := make([]string, len(textures))
	for i, tex := range textures {
		sides[i] = tex.Side
		names[i] = tex.Name
	}

	rects, width, height := packer.Pack(sides)
	a := &Atlas{
		Width:  width,
		Height: height,
		Pixels: make([]byte, width*height*4),
		Rects:  rects,
		Names:  names,
	}

	for i, tex := range textures {
		r := rects[i]
		stride := tex.Side * 4
		for row := 0; row < tex.Side; row++ {
			dst := ((r.Y+row)*width + r.X) * 4
			copy(a.Pixels[dst:dst+stride], tex.Pixels[row*stride:(row+1)*stride])
		}
	}

	return a
}

func loadTexture(src Source, opts Options, name string, defaultPalette *formats.Palette) (Texture, error) {
	h, err := src.OpenByPath(opts.Dir, name)
	if err != nil {
		return Texture{}, fmt.Errorf("%w: %s: %w", ErrIO, name, err)
	}
	defer h.Close()

	side, ok := formats.SquareSide(h.Size())
	if !ok {
		return Texture{}, fmt.Errorf("%w: %s is %d bytes", ErrNotSquare, name, h.Size())
	}

	img, err := formats.ReadIndexedImage(h, h.Size())
	if err != nil {
		return Texture{}, fmt.Errorf("%w: %s: %w", ErrIO, name, err)
	}

	pal, err := resolvePalette(src, opts, name, defaultPalette)
	if err != nil {
		return Texture{}, err
	}

	return Texture{Name: name, Side: side, Pixels: img.RGBA(pal)}, nil
}

// resolvePalette returns the texture's own palette when the archive has one
// next to it, otherwise the default palette.
func resolvePalette(src Source, opts Options, name string, defaultPalette *formats.Palette) (*formats.Palette, error) {
	palName := strings.TrimSuffix(name, path.Ext(name)) + opts.PaletteExt

	h, err := src.OpenByPath(opts.Dir, palName)
	if errors.Is(err, pod.ErrNotFound) {
		logger.Debug("no palette override", zap.String("texture", name))
		return defaultPalette, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrIO, palName, err)
	}
	defer h.Close()

	pal, err := formats.ReadPalette(h)
	if err != nil {
		return nil, fmt.Errorf("palette %s: %w", palName, err)
	}
	return &pal, nil
}

// Lookup returns the manifest index of the named texture.
func (a *Atlas) Lookup(name string) (int, bool) {
	for i, n := range a.Names {
		if strings.EqualFold(n, name) {
			return i, true
		}
	}
	return 0, false
}

// UVRect holds normalized texture coordinates of a placed texture.
// (U0, V0) is the top-left corner, (U1, V1) the bottom-right. V is flipped so
// that v = 1 - y/Height.
type UVRect struct {
	U0, V0 float32
	U1, V1 float32
}

// UV returns the inset coordinates of rect i. The rect is shrunk by one texel
// on every side so that filtering never samples a neighbour.
func (a *Atlas) UV(i int) UVRect {
	r := a.Rects[i]
	w, h := float32(a.Width), float32(a.Height)

	x0, x1 := float32(r.X+1), float32(r.X+r.Side-1)
	y0, y1 := float32(r.Y+1), float32(r.Y+r.Side-1)
	if r.Side <= 2 {
		cx := float32(r.X) + float32(r.Side)/2
		cy := float32(r.Y) + float32(r.Side)/2
		x0, x1, y0, y1 = cx, cx, cy, cy
	}

	return UVRect{
		U0: x0 / w,
		V0: 1 - y0/h,
		U1: x1 / w,
		V1: 1 - y1/h,
	}
}

// Image wraps the atlas pixels without copying.
func (a *Atlas) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    a.Pixels,
		Stride: a.Width * 4,
		Rect:   image.Rect(0, 0, a.Width, a.Height),
	}
}
