package node

import (
	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/mosaicnetworks/murmur/src/telemetry"
	"github.com/sirupsen/logrus"
)

// Sender writes messages on behalf of a workload. Every message gets a fresh
// msg_id from the node's counter. Writes are buffered and flushed by the
// event loop at the end of each dispatch or sweep.
type Sender interface {
	Send(dest string, p message.Payload) error
	Reply(req message.Message, p message.Payload) error
}

// Handler is the workload a node runs once it has an identity. Both methods
// are only ever called from the event loop, one at a time, so a Handler needs
// no locking. A returned error stops the node.
type Handler interface {
	// Process reacts to one inbound message.
	Process(msg message.Message, out Sender) error

	// Tick runs when the loop has waited a full heartbeat without input, or
	// when input has postponed it for too long.
	Tick(out Sender) error
}

// Env is what a Factory gets besides the handshake.
type Env struct {
	Logger  *logrus.Entry
	Metrics *telemetry.Metrics
}

// Factory builds the Handler from the init handshake. It is called exactly
// once per node.
type Factory func(init message.Init, env Env) (Handler, error)

// Unsupported answers a request the workload does not serve. Replies are
// dropped without answer so two nodes never bounce errors at each other.
func Unsupported(msg message.Message, out Sender) error {
	if msg.IsReply() {
		return nil
	}
	return out.Reply(msg, message.NotSupported(msg.Type()))
}
