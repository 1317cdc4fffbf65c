package message

import (
	"errors"
	"fmt"
)

// DecodeErrType classifies why a line could not be turned into a Message.
type DecodeErrType uint32

const (
	// Malformed means the line is not a JSON envelope.
	Malformed DecodeErrType = iota
	// UnknownType means the body's "type" is not one of the known kinds.
	UnknownType
	// MissingField means a field required by the body's kind is absent.
	MissingField
)

// DecodeErr is returned by Decode. Line is 0 until the reader that owns the
// stream fills it in.
type DecodeErr struct {
	errType DecodeErrType
	detail  string
	Line    int
	cause   error
}

// NewDecodeErr ...
func NewDecodeErr(errType DecodeErrType, detail string, cause error) *DecodeErr {
	return &DecodeErr{
		errType: errType,
		detail:  detail,
		cause:   cause,
	}
}

// Error ...
func (e *DecodeErr) Error() string {
	m := ""
	switch e.errType {
	case Malformed:
		m = "Malformed"
	case UnknownType:
		m = "Unknown Type"
	case MissingField:
		m = "Missing Field"
	}

	s := fmt.Sprintf("decode: %s, %s", m, e.detail)
	if e.Line > 0 {
		s = fmt.Sprintf("line %d: %s", e.Line, s)
	}
	if e.cause != nil {
		s = fmt.Sprintf("%s: %v", s, e.cause)
	}
	return s
}

// Unwrap returns the underlying codec error, if any.
func (e *DecodeErr) Unwrap() error {
	return e.cause
}

// IsDecode checks that err is, or wraps, a DecodeErr of the given type.
func IsDecode(err error, t DecodeErrType) bool {
	var decodeErr *DecodeErr
	return errors.As(err, &decodeErr) && decodeErr.errType == t
}
