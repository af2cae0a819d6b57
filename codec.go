// Package pixac provides lossless compression of images with static-model arithmetic coding.
//
// An image is flattened into planar YCbCr bytes, the frequency of every byte value is counted,
// and the stream followed by an end-of-stream symbol is coded with the finite precision
// arithmetic coder of Witten, Neal and Cleary.
// The frequencies, image shape and packed bits are stored in a checksummed container.
//
// Below is an example of using this package to compress an image:
//
//	go run compress/main.go lena.png > lena.pxac
//	go run decompress/main.go -o lena.bmp < lena.pxac
package pixac

import (
	"github.com/fumin/pixac/ac"
	"github.com/fumin/pixac/ac/freq"
	"github.com/fumin/pixac/ac/witten"
	"github.com/pkg/errors"
)

// EncodeSymbols counts the frequencies of symbols, and codes symbols followed by ac.EOF to w.
// w is closed when the encoding is complete.
// The returned model is what DecodeSymbols needs to reconstruct symbols.
func EncodeSymbols(w ac.BitSink, symbols []int, numbits uint, progress func(done, total int)) (*freq.Table, error) {
	counts := make(map[int]int)
	for i, s := range symbols {
		if s == ac.EOF {
			return nil, errors.Wrapf(ac.ErrInvalidModel, "reserved symbol at %d", i)
		}
		counts[s]++
	}
	counts[ac.EOF] = 1
	model, err := freq.FromCounts(counts)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	enc, err := witten.NewEncoder(w, numbits)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	for i, s := range symbols {
		if err := enc.Encode(model, s); err != nil {
			return nil, errors.Wrapf(err, "symbol %d", i)
		}
		if progress != nil {
			progress(i+1, len(symbols))
		}
	}
	if err := enc.Encode(model, ac.EOF); err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := enc.Finish(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	return model, nil
}

// maxPrealloc bounds the capacity DecodeSymbols reserves up front.
const maxPrealloc = 1 << 20

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// DecodeSymbols decodes symbols from r until ac.EOF.
// model must be the one returned by EncodeSymbols, or one rebuilt from its counts.
// Since model counts every symbol of the stream, a stream longer than model.Total()-1 symbols is corrupt.
func DecodeSymbols(r ac.BitSource, model ac.Model, numbits uint, progress func(done, total int)) ([]int, error) {
	dec, err := witten.NewDecoder(r, numbits)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer dec.Close()

	total := model.Total()
	if total == 0 {
		return nil, errors.Wrap(ac.ErrInvalidModel, "zero total frequency")
	}
	if total > uint64(1)<<(numbits-2) {
		return nil, errors.Wrapf(ac.ErrPrecisionExhausted, "total %d, numbits %d", total, numbits)
	}
	n := int(total) - 1
	symbols := make([]int, 0, min(n, maxPrealloc))
	for {
		s, err := dec.Decode(model)
		if err != nil {
			return nil, errors.Wrapf(err, "symbol %d", len(symbols))
		}
		if s == ac.EOF {
			return symbols, nil
		}
		if len(symbols) == n {
			return nil, errors.Wrapf(ac.ErrCorruptInput, "no end of stream after %d symbols", n)
		}
		symbols = append(symbols, s)
		if progress != nil {
			progress(len(symbols), n)
		}
	}
}
