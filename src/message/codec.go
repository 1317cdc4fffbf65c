package message

import (
	"io"

	"github.com/ugorji/go/codec"
)

// jsonHandle is shared by every encoder and decoder. It is read-only once
// configured, which makes it safe for concurrent use. Struct fields are
// always written sorted by name and Canonical mode sorts map keys too, so the
// same Message always produces the same bytes.
var jsonHandle = func() *codec.JsonHandle {
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	return jh
}()

// Decode parses one line into a Message. Any failure is a *DecodeErr.
func Decode(line []byte) (Message, error) {
	var w wireMessage

	dec := codec.NewDecoderBytes(line, jsonHandle)
	if err := dec.Decode(&w); err != nil {
		return Message{}, NewDecodeErr(Malformed, "envelope", err)
	}

	return fromWire(&w)
}

// Marshal returns the JSON encoding of m, without a line terminator.
func Marshal(m Message) ([]byte, error) {
	var b []byte

	enc := codec.NewEncoderBytes(&b, jsonHandle)
	if err := enc.Encode(toWire(m)); err != nil {
		return nil, err
	}

	return b, nil
}

// Encoder writes Messages as newline-terminated JSON lines.
type Encoder struct {
	w io.Writer
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes m followed by a newline.
func (e *Encoder) Encode(m Message) error {
	b, err := Marshal(m)
	if err != nil {
		return err
	}

	_, err = e.w.Write(append(b, '\n'))
	return err
}
