package message

// wireMessage is the flat JSON form of a Message. A single body struct covers
// every kind; Decode and Marshal convert between it and the typed payloads.
type wireMessage struct {
	Src  string   `json:"src"`
	Dest string   `json:"dest,omitempty"`
	Dst  string   `json:"dst,omitempty"`
	Body wireBody `json:"body"`
}

type wireBody struct {
	Type      Type `json:"type"`
	MsgID     *int `json:"msg_id,omitempty"`
	InReplyTo *int `json:"in_reply_to,omitempty"`

	NodeID  string   `json:"node_id,omitempty"`
	NodeIDs []string `json:"node_ids,omitempty"`

	Echo *string `json:"echo,omitempty"`
	ID   string  `json:"id,omitempty"`

	Message  *int                `json:"message,omitempty"`
	Messages *[]int              `json:"messages,omitempty"`
	Topology map[string][]string `json:"topology,omitempty"`

	Code *int   `json:"code,omitempty"`
	Text string `json:"text,omitempty"`
}

func toWire(m Message) wireMessage {
	w := wireMessage{
		Src:  m.Src,
		Dest: m.Dest,
		Body: wireBody{
			MsgID:     m.Body.MsgID,
			InReplyTo: m.Body.InReplyTo,
		},
	}

	b := &w.Body
	switch p := m.Body.Payload.(type) {
	case Init:
		b.NodeID = p.NodeID
		b.NodeIDs = p.NodeIDs
	case Echo:
		b.Echo = &p.Echo
	case EchoOk:
		b.Echo = &p.Echo
	case GenerateOk:
		b.ID = p.ID
	case Broadcast:
		b.Message = &p.Message
	case ReadOk:
		b.Messages = ints(p.Messages)
	case Topology:
		b.Topology = p.Topology
	case Gossip:
		b.Messages = ints(p.Messages)
	case Error:
		b.Code = &p.Code
		b.Text = p.Text
	}
	if m.Body.Payload != nil {
		b.Type = m.Body.Payload.Type()
	}

	return w
}

// ints never returns a pointer to a nil slice so that an empty list is
// written as [] rather than null.
func ints(values []int) *[]int {
	if values == nil {
		values = []int{}
	}
	return &values
}

func fromWire(w *wireMessage) (Message, error) {
	dest := w.Dest
	if dest == "" {
		dest = w.Dst
	}

	p, err := w.Body.payload()
	if err != nil {
		return Message{}, err
	}

	return Message{
		Src:  w.Src,
		Dest: dest,
		Body: Body{
			MsgID:     w.Body.MsgID,
			InReplyTo: w.Body.InReplyTo,
			Payload:   p,
		},
	}, nil
}

func (b *wireBody) payload() (Payload, error) {
	switch b.Type {
	case TypeInit:
		if b.NodeID == "" {
			return nil, missing(b.Type, "node_id")
		}
		return Init{NodeID: b.NodeID, NodeIDs: b.NodeIDs}, nil
	case TypeInitOk:
		return InitOk{}, nil
	case TypeEcho:
		if b.Echo == nil {
			return nil, missing(b.Type, "echo")
		}
		return Echo{Echo: *b.Echo}, nil
	case TypeEchoOk:
		if b.Echo == nil {
			return nil, missing(b.Type, "echo")
		}
		return EchoOk{Echo: *b.Echo}, nil
	case TypeGenerate:
		return Generate{}, nil
	case TypeGenerateOk:
		if b.ID == "" {
			return nil, missing(b.Type, "id")
		}
		return GenerateOk{ID: b.ID}, nil
	case TypeBroadcast:
		if b.Message == nil {
			return nil, missing(b.Type, "message")
		}
		return Broadcast{Message: *b.Message}, nil
	case TypeBroadcastOk:
		return BroadcastOk{}, nil
	case TypeRead:
		return Read{}, nil
	case TypeReadOk:
		var values []int
		if b.Messages != nil {
			values = *b.Messages
		}
		return ReadOk{Messages: values}, nil
	case TypeTopology:
		return Topology{Topology: b.Topology}, nil
	case TypeTopologyOk:
		return TopologyOk{}, nil
	case TypeGossip:
		if b.Messages == nil {
			return nil, missing(b.Type, "messages")
		}
		return Gossip{Messages: *b.Messages}, nil
	case TypeGossipOk:
		return GossipOk{}, nil
	case TypeError:
		if b.Code == nil {
			return nil, missing(b.Type, "code")
		}
		return Error{Code: *b.Code, Text: b.Text}, nil
	case "":
		return nil, NewDecodeErr(MissingField, "body.type", nil)
	default:
		return nil, NewDecodeErr(UnknownType, string(b.Type), nil)
	}
}

func missing(t Type, field string) error {
	return NewDecodeErr(MissingField, string(t)+"."+field, nil)
}
