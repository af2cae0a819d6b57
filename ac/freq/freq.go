// Package freq implements a static cumulative frequency model for arithmetic coding.
//
// Symbols are always enumerated in ascending numeric order, so an encoder that counts a
// symbol sequence and a decoder that rebuilds the table from transmitted counts agree on
// every cumulative interval regardless of how the counts were stored.
package freq

import (
	"sort"

	"github.com/fumin/pixac/ac"
	"github.com/pkg/errors"
)

// A Count is the frequency of a single symbol.
type Count struct {
	Symbol int
	Freq   int
}

// A Table maps symbols to cumulative frequency intervals.
// Table implements the arithmetic coding Model interface.
type Table struct {
	symbols []int
	// cum[i] is the low bound of symbols[i], cum[len(symbols)] is the total.
	cum   []uint64
	index map[int]int
}

var _ ac.Model = (*Table)(nil)

// FromCounts builds a Table from a mapping of symbols to frequencies.
func FromCounts(counts map[int]int) (*Table, error) {
	if len(counts) == 0 {
		return nil, errors.Wrap(ac.ErrInvalidModel, "empty frequency table")
	}

	symbols := make([]int, 0, len(counts))
	for s, f := range counts {
		if f <= 0 {
			return nil, errors.Wrapf(ac.ErrInvalidModel, "symbol %d has frequency %d", s, f)
		}
		symbols = append(symbols, s)
	}
	sort.Ints(symbols)

	t := &Table{
		symbols: symbols,
		cum:     make([]uint64, len(symbols)+1),
		index:   make(map[int]int, len(symbols)),
	}
	for i, s := range symbols {
		t.cum[i+1] = t.cum[i] + uint64(counts[s])
		t.index[s] = i
	}
	return t, nil
}

// FromSymbols counts the occurrences of each symbol in seq and builds a Table from them.
func FromSymbols(seq []int) (*Table, error) {
	counts := make(map[int]int)
	for _, s := range seq {
		counts[s]++
	}
	return FromCounts(counts)
}

// Total returns the sum of all frequencies.
func (t *Table) Total() uint64 {
	return t.cum[len(t.symbols)]
}

// Len returns the number of distinct symbols.
func (t *Table) Len() int {
	return len(t.symbols)
}

// Range returns the cumulative interval [low, high) of symbol.
func (t *Table) Range(symbol int) (uint64, uint64, error) {
	i, ok := t.index[symbol]
	if !ok {
		return 0, 0, errors.Wrapf(ac.ErrUnknownSymbol, "%d", symbol)
	}
	return t.cum[i], t.cum[i+1], nil
}

// SymbolAt returns the symbol whose cumulative interval contains value.
func (t *Table) SymbolAt(value uint64) (int, error) {
	if value >= t.Total() {
		return 0, errors.Wrapf(ac.ErrCorruptInput, "cumulative value %d out of range [0, %d)", value, t.Total())
	}
	// The first symbol whose high bound exceeds value.
	i := sort.Search(len(t.symbols), func(i int) bool {
		return t.cum[i+1] > value
	})
	return t.symbols[i], nil
}

// Counts returns the frequency of every symbol, in enumeration order.
func (t *Table) Counts() []Count {
	counts := make([]Count, 0, len(t.symbols))
	for i, s := range t.symbols {
		counts = append(counts, Count{Symbol: s, Freq: int(t.cum[i+1] - t.cum[i])})
	}
	return counts
}
