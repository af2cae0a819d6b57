package pixac

import (
	"bytes"
	"image"
	"io"
	"time"

	"github.com/fumin/pixac/bitio"
	"github.com/fumin/pixac/container"
	"github.com/fumin/pixac/pixel"
	"github.com/pkg/errors"
)

// Stats summarizes a compression.
type Stats struct {
	InputBits  uint64
	OutputBits uint64
	Elapsed    time.Duration
}

// Ratio returns the number of input bits per output bit.
func (s *Stats) Ratio() float64 {
	if s.OutputBits == 0 {
		return 0
	}
	return float64(s.InputBits) / float64(s.OutputBits)
}

type countWriter struct {
	w io.Writer
	n int64
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// Compress compresses the image in the file name and writes the result to w.
func Compress(w io.Writer, name string, cfg Config) (*Stats, error) {
	img, err := pixel.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return CompressImage(w, img, cfg)
}

// CompressImage compresses img and writes the result to w.
func CompressImage(w io.Writer, img image.Image, cfg Config) (*Stats, error) {
	start := time.Now()
	planes := pixel.Flatten(img)

	payload := bytes.NewBuffer(nil)
	bw := bitio.NewWriter(payload)
	model, err := EncodeSymbols(bw, planes.Symbols, cfg.NumBits, cfg.Progress)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	h := container.NewHeader(cfg.NumBits, planes.Width, planes.Height, model, bw.Bits())
	cw := &countWriter{w: w}
	if err := container.Write(cw, h, payload.Bytes()); err != nil {
		return nil, errors.Wrap(err, "")
	}

	stats := &Stats{
		InputBits:  8 * uint64(len(planes.Symbols)),
		OutputBits: 8 * uint64(cw.n),
		Elapsed:    time.Since(start),
	}
	return stats, nil
}

// Decompress decodes a stream written by Compress and writes the image to w in cfg.Format.
func Decompress(w io.Writer, r io.Reader, cfg Config) error {
	format, err := pixel.ParseFormat(cfg.Format)
	if err != nil {
		return errors.Wrap(err, "")
	}
	img, _, err := DecompressImage(r, cfg)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := pixel.Encode(w, img, format); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// DecompressImage decodes a stream written by Compress.
// The register width is taken from the stream, cfg.NumBits is ignored.
func DecompressImage(r io.Reader, cfg Config) (*image.NRGBA, *container.Header, error) {
	h, payload, err := container.Read(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, "")
	}
	model, err := h.Model()
	if err != nil {
		return nil, nil, errors.Wrap(err, "")
	}

	br := bitio.NewReader(bytes.NewReader(payload))
	symbols, err := DecodeSymbols(br, model, h.NumBits, cfg.Progress)
	if err != nil {
		return nil, nil, errors.Wrap(err, "")
	}
	img, err := pixel.Unflatten(h.Width, h.Height, symbols)
	if err != nil {
		return nil, nil, errors.Wrap(err, "")
	}
	return img, h, nil
}
