// Package bitio provides the bit streams consumed and produced by the arithmetic coder.
//
// Bits are packed most significant bit first. A partial last byte is padded with zeros,
// which matches what a Reader returns past the end of its data, so no bit length needs to be stored.
package bitio

import (
	"bufio"
	"io"

	"github.com/fumin/pixac/ac"
	"github.com/pkg/errors"
)

// ErrClosed is returned when writing to or closing an already closed Writer or Buffer.
var ErrClosed = errors.New("bitio: closed")

var (
	_ ac.BitSink   = (*Writer)(nil)
	_ ac.BitSource = (*Reader)(nil)
	_ ac.BitSink   = (*Buffer)(nil)
	_ ac.BitSource = (*Buffer)(nil)
)

// A Writer packs bits into bytes and writes them to an io.Writer.
type Writer struct {
	w      *bufio.Writer
	cache  byte
	nbits  uint8
	n      uint64
	closed bool
}

// NewWriter returns a Writer that writes to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteBit appends a single bit, only the lowest bit of bit is used.
func (w *Writer) WriteBit(bit int) error {
	if w.closed {
		return ErrClosed
	}
	if bit&1 != 0 {
		w.cache |= 1 << (7 - w.nbits)
	}
	w.nbits++
	w.n++
	if w.nbits == 8 {
		if err := w.w.WriteByte(w.cache); err != nil {
			return errors.WithStack(err)
		}
		w.nbits = 0
		w.cache = 0
	}
	return nil
}

// Close writes out the last partial byte and flushes buffered data.
// It does not close the underlying io.Writer.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true
	if w.nbits > 0 {
		if err := w.w.WriteByte(w.cache); err != nil {
			return errors.WithStack(err)
		}
	}
	if err := w.w.Flush(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Bits returns the number of bits written so far.
func (w *Writer) Bits() uint64 {
	return w.n
}

// A Reader unpacks bits from an io.Reader.
// Once the underlying data is exhausted, ReadBit returns zeros.
type Reader struct {
	r     io.ByteReader
	cache byte
	nbits uint8
	eof   bool
	n     uint64
}

// NewReader returns a Reader that reads from r.
func NewReader(r io.Reader) *Reader {
	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br}
}

// ReadBit returns the next bit, or 0 past the end of the data.
func (r *Reader) ReadBit() (int, error) {
	if r.nbits == 0 {
		if r.eof {
			return 0, nil
		}
		b, err := r.r.ReadByte()
		if err == io.EOF {
			r.eof = true
			return 0, nil
		}
		if err != nil {
			return 0, errors.WithStack(err)
		}
		r.cache = b
		r.nbits = 8
	}
	r.nbits--
	r.n++
	return int(r.cache>>r.nbits) & 1, nil
}

// Close releases the Reader. It does not close the underlying io.Reader.
func (r *Reader) Close() error {
	r.eof = true
	r.nbits = 0
	return nil
}

// Bits returns the number of bits read from the underlying data, excluding padding past its end.
func (r *Reader) Bits() uint64 {
	return r.n
}

// A Buffer is an in-memory sequence of bits, one byte per bit.
// It can be written to until closed, and read from at any time.
type Buffer struct {
	bits   []byte
	pos    int
	closed bool
}

// NewBuffer returns a Buffer holding bits, every value must be 0 or 1.
func NewBuffer(bits []byte) *Buffer {
	return &Buffer{bits: bits}
}

// WriteBit appends the lowest bit of bit.
func (b *Buffer) WriteBit(bit int) error {
	if b.closed {
		return ErrClosed
	}
	b.bits = append(b.bits, byte(bit&1))
	return nil
}

// Close stops further writes.
func (b *Buffer) Close() error {
	if b.closed {
		return ErrClosed
	}
	b.closed = true
	return nil
}

// ReadBit returns the next unread bit, or 0 past the end of the buffer.
func (b *Buffer) ReadBit() (int, error) {
	if b.pos >= len(b.bits) {
		return 0, nil
	}
	bit := b.bits[b.pos]
	b.pos++
	return int(bit), nil
}

// Bits returns the bits held by the buffer.
func (b *Buffer) Bits() []byte {
	return b.bits
}

// Len returns the number of bits held by the buffer.
func (b *Buffer) Len() int {
	return len(b.bits)
}

// Reset rewinds reading to the first bit.
func (b *Buffer) Reset() {
	b.pos = 0
}

// Pack returns the bits packed into bytes the same way a Writer does.
func (b *Buffer) Pack() []byte {
	p := make([]byte, (len(b.bits)+7)/8)
	for i, bit := range b.bits {
		if bit != 0 {
			p[i/8] |= 1 << (7 - uint(i%8))
		}
	}
	return p
}
