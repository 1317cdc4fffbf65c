package message

import (
	"fmt"

	maelstrom "github.com/jepsen-io/maelstrom/demo/go"
)

// Error is the body of a failed request, using the harness's numeric error
// codes.
type Error struct {
	Code int
	Text string
}

// Type implements Payload.
func (Error) Type() Type { return TypeError }

// RPCError converts the payload into the harness client's error value.
func (e Error) RPCError() *maelstrom.RPCError {
	return maelstrom.NewRPCError(e.Code, e.Text)
}

// CodeText returns the symbolic name of the error code, e.g. "NotSupported".
func (e Error) CodeText() string {
	return maelstrom.ErrorCodeText(e.Code)
}

// NotSupported is the reply to a well-formed request the workload does not
// serve.
func NotSupported(t Type) Error {
	return Error{
		Code: maelstrom.NotSupported,
		Text: fmt.Sprintf("message type %q not supported", t),
	}
}
