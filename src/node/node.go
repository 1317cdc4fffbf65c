package node

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/mosaicnetworks/murmur/src/telemetry"
	"github.com/sirupsen/logrus"
)

// ErrNotInitialised is returned by Run when the first message is not init.
var ErrNotInitialised = errors.New("first message must be init")

// Node is one cluster member running a workload over an input and an output
// stream.
type Node struct {
	state

	conf   *Config
	logger *logrus.Entry

	factory Factory
	handler Handler

	id atomic.Value

	in  io.Reader
	out *outbox

	metrics *telemetry.Metrics

	eventCh    chan event
	shutdownCh chan struct{}

	timerFactory timerFactory

	started   int32
	start     time.Time
	lastSweep time.Time
	seq       uint64
}

// NewNode is a factory method that returns a Node instance. Nothing runs
// until Run is called.
func NewNode(conf *Config,
	factory Factory,
	in io.Reader,
	out io.Writer,
) *Node {
	metrics := telemetry.NewMetrics()

	timeout := fixedTimeout
	if conf.Jitter {
		timeout = randomTimeout
	}

	node := Node{
		conf:         conf,
		logger:       conf.Logger,
		factory:      factory,
		in:           in,
		out:          newOutbox(out, metrics, conf.Logger),
		metrics:      metrics,
		eventCh:      make(chan event, conf.QueueSize),
		shutdownCh:   make(chan struct{}),
		timerFactory: timeout,
		start:        time.Now(),
	}
	node.id.Store("")

	return &node
}

// Run starts the source and runs the event loop until the input ends or a
// fatal error occurs. It returns nil only on a clean end of input.
func (n *Node) Run() error {
	if !atomic.CompareAndSwapInt32(&n.started, 0, 1) {
		return fmt.Errorf("node already started")
	}

	n.lastSweep = time.Now()

	src := newSource(n.in, n.eventCh, n.shutdownCh, n.logger.WithField("component", "source"))
	n.goFunc(src.run)

	for {
		select {
		case ev := <-n.eventCh:
			switch ev.kind {
			case eventMessage:
				if err := n.dispatch(ev.msg); err != nil {
					return n.abort(err)
				}
				if n.sweepOverdue() {
					if err := n.sweep(); err != nil {
						return n.abort(err)
					}
				}
			case eventEOF:
				return n.drain()
			case eventError:
				return n.abort(ev.err)
			}
		case <-n.timerFactory(n.conf.HeartbeatTimeout):
			if err := n.sweep(); err != nil {
				return n.abort(err)
			}
		}
	}
}

func (n *Node) dispatch(msg message.Message) error {
	n.seq++
	n.metrics.Received(string(msg.Type()))

	id, _ := msg.ID()
	n.logger.WithFields(logrus.Fields{
		"seq":    n.seq,
		"src":    msg.Src,
		"type":   msg.Type(),
		"msg_id": id,
	}).Debug("Dispatch")

	if e, ok := msg.Body.Payload.(message.Error); ok {
		n.logger.WithFields(logrus.Fields{
			"src":  msg.Src,
			"code": e.Code,
			"name": e.CodeText(),
			"text": e.Text,
		}).Warn("Received error")
		return nil
	}

	if init, ok := msg.Body.Payload.(message.Init); ok {
		return n.handshake(msg, init)
	}

	if n.handler == nil {
		return fmt.Errorf("%w: got %s from %s", ErrNotInitialised, msg.Type(), msg.Src)
	}

	if err := n.handler.Process(msg, n.out); err != nil {
		return fmt.Errorf("processing %s from %s: %w", msg.Type(), msg.Src, err)
	}

	return n.out.flush()
}

func (n *Node) handshake(msg message.Message, init message.Init) error {
	if n.handler != nil {
		n.logger.WithFields(logrus.Fields{
			"src":     msg.Src,
			"node_id": init.NodeID,
		}).Warn("Repeated init ignored")
	} else {
		n.id.Store(init.NodeID)
		n.out.self = init.NodeID
		n.logger = n.conf.Logger.WithField("this_id", init.NodeID)
		n.out.logger = n.logger

		handler, err := n.factory(init, Env{
			Logger:  n.logger,
			Metrics: n.metrics,
		})
		if err != nil {
			return fmt.Errorf("initialising %s: %w", init.NodeID, err)
		}

		n.handler = handler
		n.setState(Running)

		n.logger.WithField("node_ids", init.NodeIDs).Debug("Initialised")
	}

	if err := n.out.Reply(msg, message.InitOk{}); err != nil {
		return err
	}

	return n.out.flush()
}

func (n *Node) sweepOverdue() bool {
	return n.conf.MaxSweepDelay > 0 && time.Since(n.lastSweep) >= n.conf.MaxSweepDelay
}

func (n *Node) sweep() error {
	n.lastSweep = time.Now()

	if n.handler == nil {
		return nil
	}

	n.metrics.GossipSweeps.Inc()

	if err := n.handler.Tick(n.out); err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	return n.out.flush()
}

// drain runs the final sweep after the end of input and joins the source.
func (n *Node) drain() error {
	if n.getState() == Running {
		n.setState(Draining)
	}

	err := n.sweep()

	n.setState(Shutdown)
	close(n.shutdownCh)
	n.waitRoutines()

	n.logger.Debug("Shutdown")
	n.logStats()

	return err
}

// abort stops the loop without waiting for the source, which may be blocked
// reading input. Closing shutdownCh guarantees it never blocks on the queue.
func (n *Node) abort(err error) error {
	n.setState(Shutdown)
	close(n.shutdownCh)

	n.logger.WithError(err).Error("Node stopped")
	n.logStats()

	return err
}

// ID returns the node id received in the handshake, or "" before it.
func (n *Node) ID() string {
	return n.id.Load().(string)
}

// GetState returns the current lifecycle state.
func (n *Node) GetState() State {
	return n.getState()
}

// Metrics returns the node's registry-backed counters.
func (n *Node) Metrics() *telemetry.Metrics {
	return n.metrics
}

// GetStats returns stats
func (n *Node) GetStats() map[string]string {
	format := func(f float64) string {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}

	snapshot, err := n.metrics.Snapshot()
	if err != nil {
		n.conf.Logger.WithError(err).Warn("Gathering metrics")
	}

	s := map[string]string{
		"id":                n.ID(),
		"state":             n.getState().String(),
		"messages_received": format(telemetry.Total(snapshot, "messages_received_total")),
		"messages_sent":     format(telemetry.Total(snapshot, "messages_sent_total")),
		"gossip_sent":       format(snapshot[`messages_sent_total{type="gossip"}`]),
		"sweeps":            format(snapshot["gossip_sweeps_total"]),
		"values_known":      format(snapshot["values_known"]),
		"neighbors":         format(snapshot["neighbors"]),
		"uptime":            time.Since(n.start).Round(time.Millisecond).String(),
	}

	return s
}

func (n *Node) logStats() {
	stats := n.GetStats()

	n.logger.WithFields(logrus.Fields{
		"id":                stats["id"],
		"state":             stats["state"],
		"messages_received": stats["messages_received"],
		"messages_sent":     stats["messages_sent"],
		"gossip_sent":       stats["gossip_sent"],
		"sweeps":            stats["sweeps"],
		"values_known":      stats["values_known"],
		"neighbors":         stats["neighbors"],
		"uptime":            stats["uptime"],
	}).Debug("Stats")
}
