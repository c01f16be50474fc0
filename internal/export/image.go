package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/Faultbox/fury3-assets/internal/atlas"
)

// ErrUnknownFormat is returned for image formats other than png, webp and bmp.
var ErrUnknownFormat = errors.New("unknown image format")

// EncodeImage writes img to w in the named format.
func EncodeImage(w io.Writer, img image.Image, format string) error {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "png":
		return png.Encode(w, img)
	case "webp":
		return nativewebp.Encode(w, img, nil)
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteImage writes img to path, choosing the format from its extension.
func WriteImage(path string, img image.Image) error {
	format := filepath.Ext(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := EncodeImage(f, img, format); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// WriteAtlasImage writes the atlas to path (.png, .webp or .bmp).
func WriteAtlasImage(path string, a *atlas.Atlas) error {
	return WriteImage(path, a.Image())
}

// Preview scales the atlas so that its longer side is at most maxSide.
// Atlases already small enough are returned unscaled.
func Preview(a *atlas.Atlas, maxSide int) *image.NRGBA {
	src := a.Image()
	longest := max(a.Width, a.Height)
	if maxSide <= 0 || longest <= maxSide {
		return src
	}

	w := max(1, a.Width*maxSide/longest)
	h := max(1, a.Height*maxSide/longest)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
