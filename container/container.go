// Package container serializes a compressed pixel stream.
//
// The layout is
//
//	magic "PXAC" | version | numbits | width | height |
//	nsym | nsym * (symbol byte | freq) | payloadBits | payloadLen | payload |
//	checksum
//
// where every integer other than the version, numbits and symbol bytes is an unsigned varint.
// Symbols are stored in ascending order and exclude ac.EOF, which the reader adds back with frequency 1.
// The checksum is the first 8 bytes of the BLAKE3-256 digest of everything before it.
package container

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"io/ioutil"

	"github.com/fumin/pixac/ac"
	"github.com/fumin/pixac/ac/freq"
	"github.com/fumin/pixac/ac/witten"
	"github.com/fumin/pixac/pixel"
	"github.com/pkg/errors"
	"github.com/zeebo/blake3"
)

const (
	magic    = "PXAC"
	version  = 1
	sumLen   = 8
	maxCount = 1 << 32
)

var (
	// ErrFormat is returned when the data is not a well formed container.
	ErrFormat = errors.New("container: invalid format")

	// ErrChecksum is returned when the checksum does not match the data.
	ErrChecksum = errors.New("container: checksum mismatch")
)

// A Header describes a compressed pixel stream.
type Header struct {
	NumBits     uint
	Width       int
	Height      int
	Counts      []freq.Count
	PayloadBits uint64
}

// NewHeader returns a Header for a stream coded with model, dropping ac.EOF from its counts.
func NewHeader(numbits uint, width, height int, model *freq.Table, payloadBits uint64) *Header {
	h := &Header{NumBits: numbits, Width: width, Height: height, PayloadBits: payloadBits}
	for _, c := range model.Counts() {
		if c.Symbol == ac.EOF {
			continue
		}
		h.Counts = append(h.Counts, c)
	}
	return h
}

// Model rebuilds the symbol model of the stream, including ac.EOF.
func (h *Header) Model() (*freq.Table, error) {
	counts := make(map[int]int, len(h.Counts)+1)
	for _, c := range h.Counts {
		counts[c.Symbol] = c.Freq
	}
	counts[ac.EOF] = 1
	t, err := freq.FromCounts(counts)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return t, nil
}

// Symbols returns the number of symbols in the stream, excluding ac.EOF.
func (h *Header) Symbols() int {
	n := 0
	for _, c := range h.Counts {
		n += c.Freq
	}
	return n
}

// Validate checks that h describes a stream the decoder can reconstruct.
// The register width must be one witten supports, the frequencies including ac.EOF must fit it,
// and the symbol count must cover every plane of the image.
func (h *Header) Validate() error {
	if h.NumBits < witten.MinBits || h.NumBits > witten.MaxBits {
		return errors.Wrapf(ErrFormat, "numbits %d not in [%d, %d]", h.NumBits, witten.MinBits, witten.MaxBits)
	}
	limit := uint64(1) << (h.NumBits - 2)
	total := uint64(1)
	for _, c := range h.Counts {
		total += uint64(c.Freq)
		if total > limit {
			return errors.Wrapf(ErrFormat, "frequencies exceed %d for numbits %d", limit, h.NumBits)
		}
	}

	if h.Width < 0 || h.Height < 0 {
		return errors.Wrapf(ErrFormat, "shape %dx%d", h.Width, h.Height)
	}
	symbols := total - 1
	w, ht := uint64(h.Width), uint64(h.Height)
	if symbols%pixel.Channels != 0 || (w != 0 && ht > symbols/pixel.Channels/w) || w*ht != symbols/pixel.Channels {
		return errors.Wrapf(ErrFormat, "%d symbols for %dx%d", symbols, h.Width, h.Height)
	}
	return nil
}

// Write writes the header and payload to w.
func Write(w io.Writer, h *Header, payload []byte) error {
	buf := bytes.NewBuffer(nil)
	buf.WriteString(magic)
	buf.WriteByte(version)
	buf.WriteByte(byte(h.NumBits))
	putUvarint(buf, uint64(h.Width))
	putUvarint(buf, uint64(h.Height))

	putUvarint(buf, uint64(len(h.Counts)))
	prev := -1
	for _, c := range h.Counts {
		if c.Symbol <= prev || c.Symbol > 255 || c.Freq <= 0 {
			return errors.Wrapf(ErrFormat, "count %+v", c)
		}
		prev = c.Symbol
		buf.WriteByte(byte(c.Symbol))
		putUvarint(buf, uint64(c.Freq))
	}

	putUvarint(buf, h.PayloadBits)
	putUvarint(buf, uint64(len(payload)))
	buf.Write(payload)

	sum := blake3.Sum256(buf.Bytes())
	buf.Write(sum[:sumLen])

	if _, err := buf.WriteTo(w); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Read reads a header and its payload from r.
// A header that fails Validate is rejected with ErrFormat.
func Read(r io.Reader) (*Header, []byte, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	if len(data) < len(magic)+sumLen {
		return nil, nil, errors.Wrap(ErrFormat, "short data")
	}
	body, sum := data[:len(data)-sumLen], data[len(data)-sumLen:]
	if string(body[:len(magic)]) != magic {
		return nil, nil, errors.Wrap(ErrFormat, "bad magic")
	}
	expected := blake3.Sum256(body)
	if !bytes.Equal(expected[:sumLen], sum) {
		return nil, nil, ErrChecksum
	}

	br := bufio.NewReader(bytes.NewReader(body[len(magic):]))
	v, err := br.ReadByte()
	if err != nil {
		return nil, nil, errors.Wrap(ErrFormat, "version")
	}
	if v != version {
		return nil, nil, errors.Wrapf(ErrFormat, "unsupported version %d", v)
	}
	numbits, err := br.ReadByte()
	if err != nil {
		return nil, nil, errors.Wrap(ErrFormat, "numbits")
	}

	h := &Header{NumBits: uint(numbits)}
	width, err := readUvarint(br, "width", maxCount)
	if err != nil {
		return nil, nil, err
	}
	height, err := readUvarint(br, "height", maxCount)
	if err != nil {
		return nil, nil, err
	}
	h.Width, h.Height = int(width), int(height)

	nsym, err := readUvarint(br, "number of symbols", 256)
	if err != nil {
		return nil, nil, err
	}
	prev := -1
	for i := uint64(0); i < nsym; i++ {
		s, err := br.ReadByte()
		if err != nil {
			return nil, nil, errors.Wrap(ErrFormat, "symbol")
		}
		if int(s) <= prev {
			return nil, nil, errors.Wrapf(ErrFormat, "symbol %d out of order", s)
		}
		prev = int(s)
		f, err := readUvarint(br, "frequency", maxCount)
		if err != nil {
			return nil, nil, err
		}
		if f == 0 {
			return nil, nil, errors.Wrapf(ErrFormat, "symbol %d has zero frequency", s)
		}
		h.Counts = append(h.Counts, freq.Count{Symbol: int(s), Freq: int(f)})
	}

	if h.PayloadBits, err = readUvarint(br, "payload bits", 1<<63); err != nil {
		return nil, nil, err
	}
	n, err := readUvarint(br, "payload length", uint64(len(body)))
	if err != nil {
		return nil, nil, err
	}
	if h.PayloadBits > 8*n {
		return nil, nil, errors.Wrapf(ErrFormat, "%d payload bits in %d bytes", h.PayloadBits, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(br, payload); err != nil {
		return nil, nil, errors.Wrap(ErrFormat, "truncated payload")
	}
	if _, err := br.ReadByte(); err != io.EOF {
		return nil, nil, errors.Wrap(ErrFormat, "trailing data")
	}
	if err := h.Validate(); err != nil {
		return nil, nil, err
	}
	return h, payload, nil
}

func putUvarint(buf *bytes.Buffer, x uint64) {
	var p [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(p[:], x)
	buf.Write(p[:n])
}

func readUvarint(br io.ByteReader, what string, max uint64) (uint64, error) {
	x, err := binary.ReadUvarint(br)
	if err != nil {
		return 0, errors.Wrap(ErrFormat, what)
	}
	if x > max {
		return 0, errors.Wrapf(ErrFormat, "%s %d exceeds %d", what, x, max)
	}
	return x, nil
}
