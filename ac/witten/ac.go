// Package witten implements the arithmetic coding algorithm described in
// Witten, Ian H.; Neal, Radford M.; Cleary, John G. (June 1987). "Arithmetic Coding for Data Compression". Communications of the ACM 30 (6): 520–540.
//
// The register width is configurable between 2 and 32 bits, and symbols are drawn from a static multi-symbol ac.Model.
// A stream ends with ac.EOF, which must therefore be part of every model the coder is used with.
package witten

import (
	"github.com/fumin/pixac/ac"
	"github.com/pkg/errors"
)

const (
	// MinBits and MaxBits bound the register width.
	// Products of a range and a cumulative frequency must fit in 64 bits.
	MinBits = 2
	MaxBits = 32
)

// An arithmeticCoder carries the interval state shared by the encoder and the decoder.
type arithmeticCoder struct {
	numbits uint
	mask    uint64
	half    uint64
	low     uint64
	high    uint64
}

func newCoder(numbits uint) (arithmeticCoder, error) {
	if numbits < MinBits || numbits > MaxBits {
		return arithmeticCoder{}, errors.Wrapf(ac.ErrInvalidPrecision, "%d not in [%d, %d]", numbits, MinBits, MaxBits)
	}
	half := uint64(1) << (numbits - 1)
	c := arithmeticCoder{
		numbits: numbits,
		mask:    (half << 1) - 1,
		half:    half,
	}
	c.high = c.mask
	return c, nil
}

// checkModel makes sure every symbol of the model keeps a non-empty interval.
// After rescaling, high-low+1 always exceeds a quarter of the register, so a total of at most a quarter suffices.
func (c *arithmeticCoder) checkModel(model ac.Model) (uint64, error) {
	total := model.Total()
	if total == 0 {
		return 0, errors.Wrap(ac.ErrInvalidModel, "zero total frequency")
	}
	if total > uint64(1)<<(c.numbits-2) {
		return 0, errors.Wrapf(ac.ErrPrecisionExhausted, "total %d, numbits %d", total, c.numbits)
	}
	return total, nil
}

// narrow shrinks the interval to the part owned by the cumulative range [symlow, symhigh).
func (c *arithmeticCoder) narrow(symlow, symhigh, total uint64) error {
	arange := (c.high - c.low) + 1
	lo := symlow * arange / total
	hi := symhigh * arange / total
	if hi <= lo {
		return errors.Wrapf(ac.ErrPrecisionExhausted, "interval [%d, %d] collapsed", c.low, c.high)
	}
	c.high = c.low + hi - 1
	c.low = c.low + lo
	return nil
}

// converged reports whether low and high agree on their most significant bit.
func (c *arithmeticCoder) converged() bool {
	return (c.low^c.high)&c.half == 0
}

// shift drops the shared most significant bit.
func (c *arithmeticCoder) shift() {
	c.low = (c.low << 1) & c.mask
	c.high = (c.high<<1)&c.mask | 1
}

// straddles reports whether low reads 01 and high reads 10 in their top two bits.
func (c *arithmeticCoder) straddles() bool {
	return c.low>>(c.numbits-2) == 1 && c.high>>(c.numbits-2) == 2
}

// fold removes the second most significant bit of low and high.
func (c *arithmeticCoder) fold() {
	c.low = ((c.low << 2) & c.mask) >> 1
	c.high = (((c.high << 2) & c.mask) >> 1) | c.half | 1
}

// An Encoder carries the state required by an encoder.
type Encoder struct {
	arithmeticCoder
	w ac.BitSink

	// fbits counts the bits whose value follows the next emitted bit.
	fbits uint64
}

// NewEncoder returns an Encoder with a register of numbits bits that writes to w.
func NewEncoder(w ac.BitSink, numbits uint) (*Encoder, error) {
	c, err := newCoder(numbits)
	if err != nil {
		return nil, err
	}
	return &Encoder{arithmeticCoder: c, w: w}, nil
}

// Encode narrows the interval to symbol's share of model and writes out every bit that is settled.
func (e *Encoder) Encode(model ac.Model, symbol int) error {
	total, err := e.checkModel(model)
	if err != nil {
		return err
	}
	symlow, symhigh, err := model.Range(symbol)
	if err != nil {
		return errors.Wrap(err, "")
	}
	if err := e.narrow(symlow, symhigh, total); err != nil {
		return err
	}
	return e.renormalize()
}

func (e *Encoder) renormalize() error {
	for e.converged() {
		if err := e.bitPlusFollow(int(e.low >> (e.numbits - 1))); err != nil {
			return err
		}
		e.shift()
	}

	for e.straddles() {
		e.fbits++
		e.fold()
	}
	return nil
}

func (e *Encoder) bitPlusFollow(bit int) error {
	if err := e.w.WriteBit(bit); err != nil {
		return errors.Wrap(err, "")
	}
	negbit := 1 ^ bit
	for ; e.fbits > 0; e.fbits-- {
		if err := e.w.WriteBit(negbit); err != nil {
			return errors.Wrap(err, "")
		}
	}
	return nil
}

// Finish terminates the stream and closes the underlying BitSink.
// A single one bit suffices since the interval always contains the half point in its current scale,
// and decoders read zeros past the end of the stream.
func (e *Encoder) Finish() error {
	if err := e.w.WriteBit(1); err != nil {
		return errors.Wrap(err, "")
	}
	if err := e.w.Close(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

// A Decoder carries the state required by a decoder.
type Decoder struct {
	arithmeticCoder
	r    ac.BitSource
	code uint64
}

// NewDecoder returns a Decoder with a register of numbits bits that reads from r.
// The code register is primed with the first numbits bits of r.
func NewDecoder(r ac.BitSource, numbits uint) (*Decoder, error) {
	c, err := newCoder(numbits)
	if err != nil {
		return nil, err
	}
	d := &Decoder{arithmeticCoder: c, r: r}
	for i := uint(0); i < numbits; i++ {
		bit, err := d.readBit()
		if err != nil {
			return nil, err
		}
		d.code = (d.code << 1) | bit
	}
	return d, nil
}

func (d *Decoder) readBit() (uint64, error) {
	bit, err := d.r.ReadBit()
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	return uint64(bit) & 1, nil
}

// Decode returns the next symbol of the stream.
// When the symbol is ac.EOF the decoder state is left untouched and callers should stop.
func (d *Decoder) Decode(model ac.Model) (int, error) {
	total, err := d.checkModel(model)
	if err != nil {
		return 0, err
	}
	if d.code < d.low || d.code > d.high {
		return 0, errors.Wrapf(ac.ErrCorruptInput, "code %d outside [%d, %d]", d.code, d.low, d.high)
	}

	arange := (d.high - d.low) + 1
	value := ((d.code-d.low+1)*total - 1) / arange
	symbol, err := model.SymbolAt(value)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	if symbol == ac.EOF {
		return symbol, nil
	}

	symlow, symhigh, err := model.Range(symbol)
	if err != nil {
		return 0, errors.Wrap(err, "")
	}
	if err := d.narrow(symlow, symhigh, total); err != nil {
		return 0, err
	}

	// rescale interval
	for d.converged() {
		bit, err := d.readBit()
		if err != nil {
			return 0, err
		}
		d.code = (d.code<<1)&d.mask | bit
		d.shift()
	}

	for d.straddles() {
		bit, err := d.readBit()
		if err != nil {
			return 0, err
		}
		d.code = (d.code & d.half) | ((d.code << 1) & (d.mask >> 1)) | bit
		d.fold()
	}

	return symbol, nil
}

// Close closes the underlying BitSource.
func (d *Decoder) Close() error {
	if err := d.r.Close(); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}
