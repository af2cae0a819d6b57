package witten

import (
	"github.com/fumin/pixac/ac"
)

type chanSink struct {
	dst    chan<- int
	closed bool
}

func (s *chanSink) WriteBit(bit int) error {
	s.dst <- bit
	return nil
}

func (s *chanSink) Close() error {
	if !s.closed {
		close(s.dst)
		s.closed = true
	}
	return nil
}

type chanSource struct {
	src <-chan int
}

// ReadBit returns zeros after src is closed.
func (s chanSource) ReadBit() (int, error) {
	b, ok := <-s.src
	if !ok {
		return 0, nil
	}
	return b, nil
}

func (s chanSource) Close() error { return nil }

// Encode performs arithmetic coding on a stream of symbols given a static model.
// The input symbols should be sent through src, which Encode consumes until it is closed.
// ac.EOF is encoded after the last symbol, so it must be part of model.
// The output bits can be received from dst. Encode will block when dst is full and is not read from.
// Encode closes dst when the encoding is complete and there are no more bits to be sent to it.
//
// On error Encode stops consuming src, callers that keep sending to src should multiplex with the returned error.
func Encode(dst chan<- int, src <-chan int, model ac.Model, numbits uint) error {
	sink := &chanSink{dst: dst}
	defer sink.Close()

	enc, err := NewEncoder(sink, numbits)
	if err != nil {
		return err
	}
	for s := range src {
		if err := enc.Encode(model, s); err != nil {
			return err
		}
	}
	if err := enc.Encode(model, ac.EOF); err != nil {
		return err
	}
	return enc.Finish()
}

// Decode decodes a stream of bits encoded by Encode.
//
// Completion of the decoding is determined by ac.EOF.
// Decode consumes bits from src until it has decoded ac.EOF; a closed src reads as an endless run of zeros.
// Therefore, it is important that callers close src when there are no more bits to be sent to Decode,
// so that Decode will not block indefinitely on receiving from src.
// Equally important is that callers do not block indefinitely when sending to src, since Decode can return early and stop consuming src anytime.
//
// The output decoded symbols, without ac.EOF, can be received from dst. Decode will block when dst is full and is not read from.
// Decode closes dst when the decoding is complete.
// Decode expects that model is the exact same model used in Encode.
func Decode(dst chan<- int, src <-chan int, model ac.Model, numbits uint) error {
	defer close(dst)

	dec, err := NewDecoder(chanSource{src: src}, numbits)
	if err != nil {
		return err
	}
	for {
		s, err := dec.Decode(model)
		if err != nil {
			return err
		}
		if s == ac.EOF {
			return nil
		}
		dst <- s
	}
}
