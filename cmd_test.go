package pixac

import (
	"bytes"
	"image"
	"image/color"
	"io/ioutil"
	"os"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/fumin/pixac/ac/freq"
	"github.com/fumin/pixac/container"
	"github.com/fumin/pixac/pixel"
	"github.com/kr/pretty"
)

func gradient(w, h int, gray bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*x + 3*y) % 256)
			c := color.NRGBA{R: v, G: v, B: v, A: 0xFF}
			if !gray {
				c.G = uint8(x * 4)
				c.B = uint8(255 - y*2)
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestCompress(t *testing.T) {
	img := gradient(64, 48, true)

	// Prepare the input image.
	in, err := ioutil.TempFile("", "pixac.TestCompress.*.png")
	if err != nil {
		t.Fatalf("%v", err)
	}
	defer os.Remove(in.Name())
	if err := pixel.Encode(in, img, imaging.PNG); err != nil {
		t.Fatalf("%+v", err)
	}
	if err := in.Close(); err != nil {
		t.Fatalf("%v", err)
	}

	// Compress
	f, err := ioutil.TempFile("", "pixac.TestCompress.Compress")
	if err != nil {
		t.Fatalf("%v", err)
	}
	defer f.Close()
	defer os.Remove(f.Name())
	stats, err := Compress(f, in.Name(), DefaultConfig)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	t.Logf("%# v ratio %f", pretty.Formatter(stats), stats.Ratio())
	if stats.InputBits != 8*3*64*48 {
		t.Errorf("%d", stats.InputBits)
	}

	// Decompress
	_, err = f.Seek(0, 0)
	if err != nil {
		t.Fatalf("%v", err)
	}
	df, err := ioutil.TempFile("", "pixac.TestCompress.Decompress")
	if err != nil {
		t.Fatalf("%v", err)
	}
	defer df.Close()
	defer os.Remove(df.Name())
	if err := Decompress(df, f, DefaultConfig); err != nil {
		t.Fatalf("%+v", err)
	}

	// Check if the decompressed result is the same as the input image
	_, err = df.Seek(0, 0)
	if err != nil {
		t.Fatalf("%v", err)
	}
	decom, err := pixel.Decode(df)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !bytes.Equal(imaging.Clone(decom).Pix, img.Pix) {
		t.Errorf("decompressed image differs")
	}
}

// TestCompressColor checks that color images come back exactly as their YCbCr planes describe them.
func TestCompressColor(t *testing.T) {
	img := gradient(40, 30, false)
	planes := pixel.Flatten(img)
	expected, err := pixel.Unflatten(planes.Width, planes.Height, planes.Symbols)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	for _, numbits := range []uint{17, 24, 32} {
		cfg := DefaultConfig
		cfg.NumBits = numbits
		buf := bytes.NewBuffer(nil)
		if _, err := CompressImage(buf, img, cfg); err != nil {
			t.Fatalf("%d: %+v", numbits, err)
		}
		decom, h, err := DecompressImage(buf, cfg)
		if err != nil {
			t.Fatalf("%d: %+v", numbits, err)
		}
		if h.NumBits != numbits || h.Width != 40 || h.Height != 30 {
			t.Errorf("%# v", pretty.Formatter(h))
		}
		if !bytes.Equal(decom.Pix, expected.Pix) {
			t.Errorf("%d: decompressed image differs", numbits)
		}
	}
}

func TestDecompressFormat(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	if _, err := CompressImage(buf, gradient(8, 8, true), DefaultConfig); err != nil {
		t.Fatalf("%+v", err)
	}
	cfg := DefaultConfig
	cfg.Format = "gopher"
	if err := Decompress(ioutil.Discard, buf, cfg); err == nil {
		t.Errorf("expected error")
	}
}

// TestDecompressInvalidHeader feeds checksummed streams whose headers cannot describe a decodable image.
func TestDecompressInvalidHeader(t *testing.T) {
	var full []freq.Count
	for s := 0; s < 256; s++ {
		full = append(full, freq.Count{Symbol: s, Freq: 1 << 30})
	}
	tests := []struct {
		name string
		h    *container.Header
	}{
		{name: "huge shape", h: &container.Header{NumBits: 32, Width: 1<<31 - 1, Height: 1<<31 - 1}},
		{name: "shape mismatch", h: &container.Header{NumBits: 32, Width: 4, Height: 4, Counts: []freq.Count{{Symbol: 1, Freq: 47}}}},
		{name: "frequencies exceed precision", h: &container.Header{NumBits: 32, Width: 1 << 14, Height: 1 << 14, Counts: full}},
		{name: "numbits too small", h: &container.Header{NumBits: 1, Width: 1, Height: 1, Counts: []freq.Count{{Symbol: 1, Freq: 3}}}},
		{name: "numbits too large", h: &container.Header{NumBits: 33, Width: 1, Height: 1, Counts: []freq.Count{{Symbol: 1, Freq: 3}}}},
	}
	for _, test := range tests {
		buf := bytes.NewBuffer(nil)
		if err := container.Write(buf, test.h, []byte{0x80}); err != nil {
			t.Fatalf("%s: %+v", test.name, err)
		}
		if _, _, err := DecompressImage(buf, DefaultConfig); err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}
