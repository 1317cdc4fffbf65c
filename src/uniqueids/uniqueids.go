// Package uniqueids implements the unique-ids workload: every generate
// request gets an id no other node in the cluster hands out.
package uniqueids

import (
	"strconv"

	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/mosaicnetworks/murmur/src/node"
)

// Handler hands out "<node id>-<n>" for increasing n. Node ids are unique in
// the cluster and n never repeats within a node.
type Handler struct {
	self string
	next uint64
}

// New is the node.Factory of the unique-ids workload.
func New(init message.Init, env node.Env) (node.Handler, error) {
	return &Handler{self: init.NodeID}, nil
}

// Process implements node.Handler.
func (h *Handler) Process(msg message.Message, out node.Sender) error {
	switch msg.Body.Payload.(type) {
	case message.Generate:
		return out.Reply(msg, message.GenerateOk{ID: h.nextID()})
	case message.GenerateOk:
		return nil
	default:
		return node.Unsupported(msg, out)
	}
}

// Tick implements node.Handler.
func (h *Handler) Tick(out node.Sender) error {
	return nil
}

func (h *Handler) nextID() string {
	id := h.self + "-" + strconv.FormatUint(h.next, 10)
	h.next++
	return id
}
