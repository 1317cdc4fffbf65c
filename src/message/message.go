package message

// Type is the discriminant carried in the "type" field of a message body.
type Type string

const (
	TypeInit        Type = "init"
	TypeInitOk      Type = "init_ok"
	TypeEcho        Type = "echo"
	TypeEchoOk      Type = "echo_ok"
	TypeGenerate    Type = "generate"
	TypeGenerateOk  Type = "generate_ok"
	TypeBroadcast   Type = "broadcast"
	TypeBroadcastOk Type = "broadcast_ok"
	TypeRead        Type = "read"
	TypeReadOk      Type = "read_ok"
	TypeTopology    Type = "topology"
	TypeTopologyOk  Type = "topology_ok"
	TypeGossip      Type = "gossip"
	TypeGossipOk    Type = "gossip_ok"
	TypeError       Type = "error"
)

// Message is the envelope exchanged between nodes and clients. One Message is
// one line on the wire.
type Message struct {
	Src  string
	Dest string
	Body Body
}

// Body carries the correlation ids and the typed payload of a Message. MsgID
// and InReplyTo are pointers because 0 is a valid id and absence must survive
// a round trip.
type Body struct {
	MsgID     *int
	InReplyTo *int
	Payload   Payload
}

// Payload is the closed set of message kinds. Each kind is a struct carrying
// exactly the fields it needs.
type Payload interface {
	Type() Type
}

// New returns a Message from src to dest tagged with the given id.
func New(src, dest string, id int, p Payload) Message {
	return Message{
		Src:  src,
		Dest: dest,
		Body: Body{
			MsgID:   intPtr(id),
			Payload: p,
		},
	}
}

// Reply builds the response to req. Source and destination are swapped and
// in_reply_to is set to the request's msg_id when it has one.
func Reply(req Message, id int, p Payload) Message {
	m := New(req.Dest, req.Src, id, p)
	if req.Body.MsgID != nil {
		m.Body.InReplyTo = intPtr(*req.Body.MsgID)
	}
	return m
}

// Type returns the discriminant of the payload, or "" for an empty body.
func (m Message) Type() Type {
	if m.Body.Payload == nil {
		return ""
	}
	return m.Body.Payload.Type()
}

// ID returns the msg_id and whether it was set.
func (m Message) ID() (int, bool) {
	if m.Body.MsgID == nil {
		return 0, false
	}
	return *m.Body.MsgID, true
}

// IsReply reports whether m answers an earlier request.
func (m Message) IsReply() bool {
	return m.Body.InReplyTo != nil
}

func intPtr(i int) *int {
	return &i
}

// Init is the handshake that gives a node its identity and the cluster roster.
type Init struct {
	NodeID  string
	NodeIDs []string
}

// InitOk acknowledges Init.
type InitOk struct{}

// Echo asks the node to send the same string back.
type Echo struct {
	Echo string
}

// EchoOk answers Echo.
type EchoOk struct {
	Echo string
}

// Generate asks for a cluster-wide unique id.
type Generate struct{}

// GenerateOk answers Generate.
type GenerateOk struct {
	ID string
}

// Broadcast delivers one value to the node.
type Broadcast struct {
	Message int
}

// BroadcastOk acknowledges Broadcast.
type BroadcastOk struct{}

// Read asks for every value the node knows.
type Read struct{}

// ReadOk answers Read with a snapshot of the node's values.
type ReadOk struct {
	Messages []int
}

// Topology assigns neighbors, keyed by node id.
type Topology struct {
	Topology map[string][]string
}

// TopologyOk acknowledges Topology.
type TopologyOk struct{}

// Gossip pushes a batch of values from one node to a neighbor.
type Gossip struct {
	Messages []int
}

// GossipOk acknowledges Gossip.
type GossipOk struct{}

func (Init) Type() Type        { return TypeInit }
func (InitOk) Type() Type      { return TypeInitOk }
func (Echo) Type() Type        { return TypeEcho }
func (EchoOk) Type() Type      { return TypeEchoOk }
func (Generate) Type() Type    { return TypeGenerate }
func (GenerateOk) Type() Type  { return TypeGenerateOk }
func (Broadcast) Type() Type   { return TypeBroadcast }
func (BroadcastOk) Type() Type { return TypeBroadcastOk }
func (Read) Type() Type        { return TypeRead }
func (ReadOk) Type() Type      { return TypeReadOk }
func (Topology) Type() Type    { return TypeTopology }
func (TopologyOk) Type() Type  { return TypeTopologyOk }
func (Gossip) Type() Type      { return TypeGossip }
func (GossipOk) Type() Type    { return TypeGossipOk }
