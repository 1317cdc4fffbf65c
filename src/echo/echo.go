// Package echo implements the echo workload: every echo request is answered
// with the same string.
package echo

import (
	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/mosaicnetworks/murmur/src/node"
)

// Handler answers echo requests.
type Handler struct{}

// New is the node.Factory of the echo workload.
func New(init message.Init, env node.Env) (node.Handler, error) {
	return Handler{}, nil
}

// Process implements node.Handler.
func (Handler) Process(msg message.Message, out node.Sender) error {
	switch p := msg.Body.Payload.(type) {
	case message.Echo:
		return out.Reply(msg, message.EchoOk{Echo: p.Echo})
	case message.EchoOk:
		return nil
	default:
		return node.Unsupported(msg, out)
	}
}

// Tick implements node.Handler. Echo has nothing to do between requests.
func (Handler) Tick(out node.Sender) error {
	return nil
}
