package container

import (
	"bytes"
	"testing"

	"github.com/fumin/pixac/ac"
	"github.com/fumin/pixac/ac/freq"
	"github.com/kr/pretty"
	"github.com/pkg/errors"
)

func testHeader(t *testing.T) (*Header, []byte) {
	model, err := freq.FromCounts(map[int]int{0: 3, 17: 1, 128: 59994, 255: 2, ac.EOF: 1})
	if err != nil {
		t.Fatalf("%+v", err)
	}
	payload := []byte{0xde, 0xad, 0xbe, 0xef, 0x80}
	return NewHeader(32, 100, 200, model, 33), payload
}

func TestWriteRead(t *testing.T) {
	h, payload := testHeader(t)
	buf := bytes.NewBuffer(nil)
	if err := Write(buf, h, payload); err != nil {
		t.Fatalf("%+v", err)
	}

	rh, rpayload, err := Read(buf)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if diff := pretty.Diff(h, rh); len(diff) > 0 {
		t.Errorf("%v", diff)
	}
	if !bytes.Equal(payload, rpayload) {
		t.Errorf("%x != %x", payload, rpayload)
	}
	if rh.Symbols() != 60000 {
		t.Errorf("%d", rh.Symbols())
	}

	model, err := rh.Model()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if model.Total() != 60001 {
		t.Errorf("%d", model.Total())
	}
	if low, high, err := model.Range(ac.EOF); err != nil || low != 60000 || high != 60001 {
		t.Errorf("[%d, %d) %+v", low, high, err)
	}
}

func TestCorruption(t *testing.T) {
	h, payload := testHeader(t)
	buf := bytes.NewBuffer(nil)
	if err := Write(buf, h, payload); err != nil {
		t.Fatalf("%+v", err)
	}
	data := buf.Bytes()

	// Every flipped bit after the magic is caught by the checksum.
	for i := len(magic); i < len(data); i++ {
		corrupt := append([]byte{}, data...)
		corrupt[i] ^= 0x10
		if _, _, err := Read(bytes.NewReader(corrupt)); !errors.Is(err, ErrChecksum) {
			t.Errorf("%d: %+v", i, err)
		}
	}

	corrupt := append([]byte{}, data...)
	corrupt[0] = 'X'
	if _, _, err := Read(bytes.NewReader(corrupt)); !errors.Is(err, ErrFormat) {
		t.Errorf("%+v", err)
	}
	if _, _, err := Read(bytes.NewReader(data[:5])); !errors.Is(err, ErrFormat) {
		t.Errorf("%+v", err)
	}
}

func TestWriteInvalid(t *testing.T) {
	h := &Header{NumBits: 32, Width: 1, Height: 1, Counts: []freq.Count{{Symbol: 5, Freq: 1}, {Symbol: 5, Freq: 2}}}
	if err := Write(bytes.NewBuffer(nil), h, nil); !errors.Is(err, ErrFormat) {
		t.Errorf("%+v", err)
	}
	h.Counts = []freq.Count{{Symbol: 300, Freq: 1}}
	if err := Write(bytes.NewBuffer(nil), h, nil); !errors.Is(err, ErrFormat) {
		t.Errorf("%+v", err)
	}
}

func TestReadInvalidHeader(t *testing.T) {
	tests := []struct {
		name string
		h    *Header
	}{
		{name: "numbits too small", h: &Header{NumBits: 1, Width: 1, Height: 1, Counts: []freq.Count{{Symbol: 0, Freq: 3}}}},
		{name: "numbits too large", h: &Header{NumBits: 40, Width: 1, Height: 1, Counts: []freq.Count{{Symbol: 0, Freq: 3}}}},
		{name: "precision", h: &Header{NumBits: 17, Width: 1, Height: 1, Counts: []freq.Count{{Symbol: 0, Freq: 1 << 15}}}},
		{name: "shape", h: &Header{NumBits: 32, Width: 2, Height: 3, Counts: []freq.Count{{Symbol: 7, Freq: 12}}}},
		{name: "empty shape", h: &Header{NumBits: 32, Width: 0, Height: 5, Counts: []freq.Count{{Symbol: 7, Freq: 3}}}},
		{name: "huge shape", h: &Header{NumBits: 32, Width: 1<<31 - 1, Height: 1<<31 - 1}},
	}
	for _, test := range tests {
		buf := bytes.NewBuffer(nil)
		if err := Write(buf, test.h, nil); err != nil {
			t.Fatalf("%s: %+v", test.name, err)
		}
		if _, _, err := Read(buf); !errors.Is(err, ErrFormat) {
			t.Errorf("%s: %+v", test.name, err)
		}
	}

	// Frequencies at the precision limit are accepted.
	h := &Header{NumBits: 17, Width: 1, Height: 1, Counts: []freq.Count{{Symbol: 0, Freq: 1}, {Symbol: 9, Freq: 2}}}
	if err := h.Validate(); err != nil {
		t.Errorf("%+v", err)
	}
	h = &Header{NumBits: 4, Width: 1, Height: 1, Counts: []freq.Count{{Symbol: 0, Freq: 3}}}
	if err := h.Validate(); err != nil {
		t.Errorf("%+v", err)
	}
}
