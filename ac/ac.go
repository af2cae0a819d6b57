// Package ac defines the interfaces the arithmetic coding algorithm requires.
// See its subpackages for the symbol model and the finite precision coder.
package ac

import (
	"github.com/pkg/errors"
)

// EOF is the reserved end-of-stream symbol.
// It lies outside the byte alphabet [0, 255] that pixel streams use.
const EOF = 256

var (
	// ErrInvalidModel is returned when a model is built from an empty table or from a non-positive frequency.
	ErrInvalidModel = errors.New("invalid symbol model")

	// ErrUnknownSymbol is returned when a symbol absent from the model is encoded.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrPrecisionExhausted is returned when the total frequency of a model is too large for the coder's register width.
	ErrPrecisionExhausted = errors.New("total frequency exceeds coder precision")

	// ErrInvalidPrecision is returned when a coder is constructed with an unsupported register width.
	ErrInvalidPrecision = errors.New("invalid number of bits")

	// ErrCorruptInput is returned when the decoder reaches a state that no encoder output can produce.
	ErrCorruptInput = errors.New("corrupt input")
)

// A Model is a static probabilistic model on a sequence of integer symbols,
// as expected by the arithmetic coding algorithm.
// Each symbol owns the half-open cumulative interval [low, high) of [0, Total()).
type Model interface {
	// Total returns the sum of all symbol frequencies.
	Total() uint64

	// Range returns the cumulative interval of symbol.
	Range(symbol int) (low, high uint64, err error)

	// SymbolAt returns the symbol whose interval contains value.
	SymbolAt(value uint64) (int, error)
}

// A BitSink receives the bits produced by an encoder.
type BitSink interface {
	WriteBit(bit int) error
	Close() error
}

// A BitSource provides the bits consumed by a decoder.
// ReadBit returns 0 and no error once the underlying data is exhausted.
type BitSource interface {
	ReadBit() (int, error)
	Close() error
}
