// Package broadcast implements a node that disseminates integer values to the
// whole cluster through periodic, topology-driven gossip.
package broadcast

import (
	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/mosaicnetworks/murmur/src/node"
	"github.com/mosaicnetworks/murmur/src/telemetry"
	"github.com/sirupsen/logrus"
)

// Handler serves broadcast, read, topology and gossip.
type Handler struct {
	state   *State
	logger  *logrus.Entry
	metrics *telemetry.Metrics
}

// New is the node.Factory of the broadcast workload.
func New(init message.Init, env node.Env) (node.Handler, error) {
	return NewHandler(NewState(init.NodeID, init.NodeIDs), env), nil
}

// NewHandler wraps an existing state.
func NewHandler(state *State, env node.Env) *Handler {
	return &Handler{
		state:   state,
		logger:  env.Logger.WithField("component", "broadcast"),
		metrics: env.Metrics,
	}
}

// State exposes the handler's state.
func (h *Handler) State() *State {
	return h.state
}

// Process implements node.Handler.
func (h *Handler) Process(msg message.Message, out node.Sender) error {
	switch p := msg.Body.Payload.(type) {
	case message.Broadcast:
		if h.state.Insert(p.Message) {
			h.valuesChanged()
		}
		h.state.Learn(msg.Src, p.Message)
		return out.Reply(msg, message.BroadcastOk{})

	case message.Read:
		return out.Reply(msg, message.ReadOk{Messages: h.state.Values()})

	case message.Topology:
		found, added := h.state.MergeTopology(p.Topology)
		if !found {
			h.logger.WithField("src", msg.Src).Warn("Topology has no entry for this node")
		} else if added > 0 {
			neighbors := h.state.Neighbors()
			// new neighbors are appended, and never added twice
			for _, id := range neighbors[len(neighbors)-added:] {
				if !h.state.IsPeer(id) {
					h.logger.WithField("neighbor", id).Warn("Neighbor is not in the cluster; it will be sent every value on each sweep")
				}
			}
			h.logger.WithField("neighbors", neighbors).Debug("Topology")
			h.metrics.Neighbors.Set(float64(len(neighbors)))
		}
		return out.Reply(msg, message.TopologyOk{})

	case message.Gossip:
		fresh := 0
		for _, v := range p.Messages {
			if h.state.Insert(v) {
				fresh++
			}
		}
		h.state.Learn(msg.Src, p.Messages...)
		if fresh > 0 {
			h.valuesChanged()
			h.logger.WithFields(logrus.Fields{
				"src":   msg.Src,
				"fresh": fresh,
			}).Debug("Gossip")
		}
		return out.Reply(msg, message.GossipOk{})

	case message.BroadcastOk, message.ReadOk, message.TopologyOk, message.GossipOk:
		return nil

	default:
		return node.Unsupported(msg, out)
	}
}

// Tick implements node.Handler.
func (h *Handler) Tick(out node.Sender) error {
	_, err := Sweep(h.state, out)
	return err
}

func (h *Handler) valuesChanged() {
	h.metrics.ValuesKnown.Set(float64(h.state.Len()))
}
