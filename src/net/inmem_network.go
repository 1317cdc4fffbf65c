package net

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/mosaicnetworks/murmur/src/node"
	"github.com/sirupsen/logrus"
)

// ErrStopped is returned for requests made after Stop.
var ErrStopped = errors.New("network stopped")

// Config tunes an InmemNetwork.
type Config struct {
	// DropRate is the probability in [0,1] that a message between two nodes
	// is lost.
	DropRate float64 `mapstructure:"drop-rate"`

	// Seed feeds the random source deciding drops.
	Seed int64 `mapstructure:"seed"`

	// InboxSize is how many lines can wait for a node before further lines
	// are dropped.
	InboxSize int `mapstructure:"inbox-size"`

	Logger *logrus.Entry
}

// DefaultConfig ...
func DefaultConfig() *Config {
	return &Config{
		InboxSize: 4096,
		Logger:    logrus.NewEntry(logrus.New()),
	}
}

// endpoint is one node with its pipes.
type endpoint struct {
	id    string
	node  *node.Node
	inbox chan []byte

	inR  *io.PipeReader
	inW  *io.PipeWriter
	outR *io.PipeReader
	outW *io.PipeWriter

	closed bool
	err    error
}

// InmemNetwork runs a cluster of nodes in memory.
type InmemNetwork struct {
	sync.RWMutex

	conf   *Config
	logger *logrus.Entry

	ids       []string
	endpoints map[string]*endpoint
	cut       map[string]bool

	rng     *rand.Rand
	rngLock sync.Mutex

	client    string
	nextMsgID int
	waiters   map[int]chan message.Message
	unclaimed chan message.Message

	started bool
	stopped bool
	wg      sync.WaitGroup

	delivered uint64
	dropped   uint64
}

// NewInmemNetwork creates nodes ids, each running the workload built by
// factory with a copy of nodeConf. Nothing runs until Start.
func NewInmemNetwork(ids []string, factory node.Factory, nodeConf *node.Config, conf *Config) *InmemNetwork {
	n := &InmemNetwork{
		conf:      conf,
		logger:    conf.Logger.WithField("component", "inmem-network"),
		ids:       append([]string(nil), ids...),
		endpoints: make(map[string]*endpoint, len(ids)),
		cut:       make(map[string]bool),
		rng:       rand.New(rand.NewSource(conf.Seed)),
		client:    "c1",
		waiters:   make(map[int]chan message.Message),
		unclaimed: make(chan message.Message, conf.InboxSize),
	}

	for _, id := range ids {
		c := *nodeConf
		c.Logger = nodeConf.Logger.WithField("node", id)

		ep := &endpoint{
			id:    id,
			inbox: make(chan []byte, conf.InboxSize),
		}
		ep.inR, ep.inW = io.Pipe()
		ep.outR, ep.outW = io.Pipe()
		ep.node = node.NewNode(&c, factory, ep.inR, ep.outW)

		n.endpoints[id] = ep
	}

	return n
}

// IDs returns the node ids in creation order.
func (n *InmemNetwork) IDs() []string {
	return append([]string(nil), n.ids...)
}

// Node returns the node with the given id, or nil.
func (n *InmemNetwork) Node(id string) *node.Node {
	ep, ok := n.endpoints[id]
	if !ok {
		return nil
	}
	return ep.node
}

// Start runs every node. It does not perform the init handshake; see Init.
func (n *InmemNetwork) Start() {
	n.Lock()
	defer n.Unlock()

	if n.started {
		return
	}
	n.started = true

	for _, ep := range n.endpoints {
		ep := ep

		n.goFunc(func() { n.runNode(ep) })
		n.goFunc(func() { n.feed(ep) })
		n.goFunc(func() { n.route(ep) })
	}
}

func (n *InmemNetwork) goFunc(f func()) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		f()
	}()
}

func (n *InmemNetwork) runNode(ep *endpoint) {
	err := ep.node.Run()
	if err != nil {
		n.logger.WithError(err).WithField("node", ep.id).Error("Node failed")
	}

	n.Lock()
	ep.err = err
	n.Unlock()

	// unblocks both the source, if it was aborted, and the router
	ep.inR.Close()
	ep.outW.Close()
}

// feed copies the inbox into the node's input until the inbox is closed.
func (n *InmemNetwork) feed(ep *endpoint) {
	for line := range ep.inbox {
		if _, err := ep.inW.Write(line); err != nil {
			// the node is gone; keep draining so senders never block
			continue
		}
	}
	ep.inW.Close()
}

// route reads the node's output and delivers every line.
func (n *InmemNetwork) route(ep *endpoint) {
	scanner := bufio.NewScanner(ep.outR)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		// the scanner reuses its buffer
		line := make([]byte, len(scanner.Bytes())+1)
		copy(line, scanner.Bytes())
		line[len(line)-1] = '\n'

		msg, err := message.Decode(line)
		if err != nil {
			n.logger.WithError(err).WithField("node", ep.id).Error("Undecodable output")
			continue
		}

		n.dispatch(ep.id, msg, line)
	}

	if err := scanner.Err(); err != nil {
		n.logger.WithError(err).WithField("node", ep.id).Warn("Reading output")
	}
}

func (n *InmemNetwork) dispatch(from string, msg message.Message, line []byte) {
	if _, isNode := n.endpoints[msg.Dest]; !isNode {
		n.toClient(msg)
		return
	}

	if n.isCut(from) || n.isCut(msg.Dest) || n.lose() {
		atomic.AddUint64(&n.dropped, 1)
		n.logger.WithFields(logrus.Fields{
			"src":  from,
			"dest": msg.Dest,
			"type": msg.Type(),
		}).Debug("Drop")
		return
	}

	n.deliver(msg.Dest, line)
}

func (n *InmemNetwork) deliver(dest string, line []byte) bool {
	n.RLock()
	defer n.RUnlock()

	ep := n.endpoints[dest]
	if ep.closed {
		atomic.AddUint64(&n.dropped, 1)
		return false
	}

	select {
	case ep.inbox <- line:
		atomic.AddUint64(&n.delivered, 1)
		return true
	default:
		atomic.AddUint64(&n.dropped, 1)
		n.logger.WithField("dest", dest).Warn("Inbox full")
		return false
	}
}

func (n *InmemNetwork) toClient(msg message.Message) {
	if msg.Body.InReplyTo != nil {
		n.Lock()
		ch, ok := n.waiters[*msg.Body.InReplyTo]
		delete(n.waiters, *msg.Body.InReplyTo)
		n.Unlock()

		if ok {
			ch <- msg
			return
		}
	}

	select {
	case n.unclaimed <- msg:
	default:
		n.logger.WithFields(logrus.Fields{
			"src":  msg.Src,
			"dest": msg.Dest,
			"type": msg.Type(),
		}).Debug("Client message discarded")
	}
}

func (n *InmemNetwork) isCut(id string) bool {
	n.RLock()
	defer n.RUnlock()
	return n.cut[id]
}

func (n *InmemNetwork) lose() bool {
	if n.conf.DropRate <= 0 {
		return false
	}

	n.rngLock.Lock()
	defer n.rngLock.Unlock()

	return n.rng.Float64() < n.conf.DropRate
}

// Partition cuts id off from every other node. Client traffic still flows.
func (n *InmemNetwork) Partition(id string) {
	n.Lock()
	defer n.Unlock()
	n.cut[id] = true
}

// Heal reconnects a partitioned node.
func (n *InmemNetwork) Heal(id string) {
	n.Lock()
	defer n.Unlock()
	delete(n.cut, id)
}

// HealAll reconnects every node.
func (n *InmemNetwork) HealAll() {
	n.Lock()
	defer n.Unlock()
	n.cut = make(map[string]bool)
}

// Send delivers a client request to dest without waiting for an answer.
func (n *InmemNetwork) Send(dest string, p message.Payload) error {
	_, _, err := n.send(dest, p, false)
	return err
}

// RPC sends a client request to dest and waits for the reply. An error reply
// is returned along with a *maelstrom.RPCError carrying its code.
func (n *InmemNetwork) RPC(ctx context.Context, dest string, p message.Payload) (message.Message, error) {
	id, ch, err := n.send(dest, p, true)
	if err != nil {
		return message.Message{}, err
	}

	select {
	case reply := <-ch:
		if e, ok := reply.Body.Payload.(message.Error); ok {
			return reply, e.RPCError()
		}
		return reply, nil
	case <-ctx.Done():
		n.Lock()
		delete(n.waiters, id)
		n.Unlock()
		return message.Message{}, fmt.Errorf("%s to %s: %w", p.Type(), dest, ctx.Err())
	}
}

func (n *InmemNetwork) send(dest string, p message.Payload, wait bool) (int, chan message.Message, error) {
	if _, ok := n.endpoints[dest]; !ok {
		return 0, nil, fmt.Errorf("unknown node %q", dest)
	}

	n.Lock()
	if n.stopped {
		n.Unlock()
		return 0, nil, ErrStopped
	}
	id := n.nextMsgID
	n.nextMsgID++

	var ch chan message.Message
	if wait {
		ch = make(chan message.Message, 1)
		n.waiters[id] = ch
	}
	n.Unlock()

	line, err := message.Marshal(message.New(n.client, dest, id, p))
	if err != nil {
		return 0, nil, err
	}

	if !n.deliver(dest, append(line, '\n')) {
		n.Lock()
		delete(n.waiters, id)
		n.Unlock()
		return 0, nil, fmt.Errorf("%s to %s not delivered", p.Type(), dest)
	}

	return id, ch, nil
}

// Init performs the handshake with every node.
func (n *InmemNetwork) Init(ctx context.Context) error {
	for _, id := range n.ids {
		reply, err := n.RPC(ctx, id, message.Init{NodeID: id, NodeIDs: n.IDs()})
		if err != nil {
			return err
		}
		if reply.Type() != message.TypeInitOk {
			return fmt.Errorf("init %s: unexpected %s", id, reply.Type())
		}
	}
	return nil
}

// Topology hands every node its entry of topology.
func (n *InmemNetwork) Topology(ctx context.Context, topology map[string][]string) error {
	for _, id := range n.ids {
		reply, err := n.RPC(ctx, id, message.Topology{Topology: topology})
		if err != nil {
			return err
		}
		if reply.Type() != message.TypeTopologyOk {
			return fmt.Errorf("topology %s: unexpected %s", id, reply.Type())
		}
	}
	return nil
}

// Unclaimed returns client-bound messages nobody was waiting for.
func (n *InmemNetwork) Unclaimed() <-chan message.Message {
	return n.unclaimed
}

// Stop ends the input of every node, waits for all of them to exit and
// returns the errors of the nodes that failed.
func (n *InmemNetwork) Stop() map[string]error {
	n.Lock()
	if n.stopped {
		defer n.Unlock()
		return n.errors()
	}
	n.stopped = true

	for _, ep := range n.endpoints {
		ep.closed = true
		close(ep.inbox)
	}

	started := n.started
	n.Unlock()

	if !started {
		return nil
	}

	n.wg.Wait()

	n.RLock()
	defer n.RUnlock()
	return n.errors()
}

func (n *InmemNetwork) errors() map[string]error {
	res := make(map[string]error)
	for id, ep := range n.endpoints {
		if ep.err != nil {
			res[id] = ep.err
		}
	}
	return res
}

// GetStats returns the delivered and dropped counts of the network.
func (n *InmemNetwork) GetStats() map[string]uint64 {
	return map[string]uint64{
		"delivered": atomic.LoadUint64(&n.delivered),
		"dropped":   atomic.LoadUint64(&n.dropped),
	}
}
