// Package pixel turns images into flat symbol streams and back.
//
// An image is converted to YCbCr and laid out plane by plane, luma first, then Cr, then Cb,
// each plane in row-major order. Every symbol is a byte in [0, 255].
package pixel

import (
	"image"
	"image/color"
	"io"
	"math"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Channels is the number of planes a flattened image has.
const Channels = 3

// ErrShape is returned when a symbol stream does not match the dimensions it is unflattened to.
var ErrShape = errors.New("symbols do not match image shape")

// Planes is a flattened image.
type Planes struct {
	Width   int
	Height  int
	Symbols []int
}

// Open decodes the image stored in the named file, applying its EXIF orientation.
func Open(name string) (image.Image, error) {
	img, err := imaging.Open(name, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return img, nil
}

// Decode decodes an image from r.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return img, nil
}

// Flatten converts img to planar YCbCr symbols.
func Flatten(img image.Image) *Planes {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	area := w * h

	p := &Planes{Width: w, Height: h, Symbols: make([]int, Channels*area)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := src.PixOffset(x, y)
			yy, cb, cr := color.RGBToYCbCr(src.Pix[i], src.Pix[i+1], src.Pix[i+2])
			j := y*w + x
			p.Symbols[j] = int(yy)
			p.Symbols[area+j] = int(cr)
			p.Symbols[2*area+j] = int(cb)
		}
	}
	return p
}

// Unflatten is the inverse of Flatten, alpha is set to opaque.
func Unflatten(width, height int, symbols []int) (*image.NRGBA, error) {
	// Four bytes per pixel must be addressable.
	if width < 0 || height < 0 || width > math.MaxInt/4 || (width != 0 && height > math.MaxInt/4/width) {
		return nil, errors.Wrapf(ErrShape, "%dx%d", width, height)
	}
	area := width * height
	if len(symbols) != Channels*area {
		return nil, errors.Wrapf(ErrShape, "%d symbols for %dx%d", len(symbols), width, height)
	}
	for i, s := range symbols {
		if s < 0 || s > 255 {
			return nil, errors.Wrapf(ErrShape, "symbol %d at %d is not a byte", s, i)
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			j := y*width + x
			r, g, b := color.YCbCrToRGB(uint8(symbols[j]), uint8(symbols[2*area+j]), uint8(symbols[area+j]))
			i := img.PixOffset(x, y)
			img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 0xFF
		}
	}
	return img, nil
}

// FormatFromName returns the image format implied by the extension of name.
func FormatFromName(name string) (imaging.Format, error) {
	f, err := imaging.FormatFromExtension(filepath.Ext(name))
	if err != nil {
		return -1, errors.Wrap(err, name)
	}
	return f, nil
}

// ParseFormat returns the image format named by s, such as "png" or "bmp".
func ParseFormat(s string) (imaging.Format, error) {
	f, err := imaging.FormatFromExtension(s)
	if err != nil {
		return -1, errors.Wrap(err, s)
	}
	return f, nil
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format imaging.Format) error {
	if err := imaging.Encode(w, img, format); err != nil {
		return errors.Wrap(err, format.String())
	}
	return nil
}
