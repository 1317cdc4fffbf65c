package message

import (
	"bytes"
	"testing"

	maelstrom "github.com/jepsen-io/maelstrom/demo/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBroadcast(t *testing.T) {
	m, err := Decode([]byte(`{"src":"c1","dest":"n1","body":{"type":"broadcast","msg_id":3,"message":5}}`))
	require.NoError(t, err)

	assert.Equal(t, "c1", m.Src)
	assert.Equal(t, "n1", m.Dest)
	assert.Equal(t, TypeBroadcast, m.Type())
	assert.Equal(t, Broadcast{Message: 5}, m.Body.Payload)

	id, ok := m.ID()
	assert.True(t, ok)
	assert.Equal(t, 3, id)
	assert.False(t, m.IsReply())
}

func TestDecodeDstAlias(t *testing.T) {
	m, err := Decode([]byte(`{"src":"n2","dst":"n1","body":{"type":"gossip","msg_id":0,"messages":[1,2]}}`))
	require.NoError(t, err)

	assert.Equal(t, "n1", m.Dest)
	assert.Equal(t, Gossip{Messages: []int{1, 2}}, m.Body.Payload)

	// msg_id 0 is present, not absent
	id, ok := m.ID()
	assert.True(t, ok)
	assert.Equal(t, 0, id)
}

func TestDecodeInit(t *testing.T) {
	m, err := Decode([]byte(`{"src":"c0","dest":"n3","body":{"type":"init","msg_id":1,"node_id":"n3","node_ids":["n1","n2","n3"]}}`))
	require.NoError(t, err)

	assert.Equal(t, Init{NodeID: "n3", NodeIDs: []string{"n1", "n2", "n3"}}, m.Body.Payload)
}

func TestDecodeTopology(t *testing.T) {
	m, err := Decode([]byte(`{"src":"c1","dest":"n1","body":{"type":"topology","msg_id":2,"topology":{"n1":["n2","n3"],"n2":["n1"]}}}`))
	require.NoError(t, err)

	topo, ok := m.Body.Payload.(Topology)
	require.True(t, ok)
	assert.Equal(t, []string{"n2", "n3"}, topo.Topology["n1"])
	assert.Equal(t, []string{"n1"}, topo.Topology["n2"])
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		line string
		kind DecodeErrType
	}{
		{"not json", `broadcast 5`, Malformed},
		{"truncated", `{"src":"c1","dest":"n1","body":{"type":"read"`, Malformed},
		{"unknown type", `{"src":"c1","dest":"n1","body":{"type":"cas","msg_id":1}}`, UnknownType},
		{"no type", `{"src":"c1","dest":"n1","body":{"msg_id":1}}`, MissingField},
		{"broadcast without value", `{"src":"c1","dest":"n1","body":{"type":"broadcast","msg_id":1}}`, MissingField},
		{"gossip without values", `{"src":"n2","dest":"n1","body":{"type":"gossip","msg_id":1}}`, MissingField},
		{"init without id", `{"src":"c0","dest":"n1","body":{"type":"init","msg_id":1}}`, MissingField},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Decode([]byte(c.line))
			require.Error(t, err)
			assert.True(t, IsDecode(err, c.kind), "unexpected error: %v", err)
		})
	}
}

func TestEncodeReadOkEmpty(t *testing.T) {
	req, err := Decode([]byte(`{"src":"c1","dest":"n1","body":{"type":"read","msg_id":7}}`))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(Reply(req, 1, ReadOk{})))

	assert.Equal(t,
		`{"body":{"in_reply_to":7,"messages":[],"msg_id":1,"type":"read_ok"},"dest":"c1","src":"n1"}`+"\n",
		buf.String())
}

func TestReplyWithoutRequestID(t *testing.T) {
	req := Message{Src: "c1", Dest: "n1", Body: Body{Payload: Read{}}}

	reply := Reply(req, 4, ReadOk{Messages: []int{1}})

	assert.Equal(t, "n1", reply.Src)
	assert.Equal(t, "c1", reply.Dest)
	assert.Nil(t, reply.Body.InReplyTo)
	assert.False(t, reply.IsReply())

	b, err := Marshal(reply)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "in_reply_to")
}

func TestEncodeDecodeGossip(t *testing.T) {
	out := New("n1", "n2", 12, Gossip{Messages: []int{5, 7, 0}})

	b, err := Marshal(out)
	require.NoError(t, err)

	in, err := Decode(b)
	require.NoError(t, err)

	assert.Equal(t, out.Src, in.Src)
	assert.Equal(t, out.Dest, in.Dest)
	assert.Equal(t, out.Body.Payload, in.Body.Payload)
	id, _ := in.ID()
	assert.Equal(t, 12, id)
}

func TestBroadcastZeroValue(t *testing.T) {
	b, err := Marshal(New("c1", "n1", 1, Broadcast{Message: 0}))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message":0`)
}

func TestErrorPayload(t *testing.T) {
	m, err := Decode([]byte(`{"src":"n2","dest":"n1","body":{"type":"error","in_reply_to":4,"code":10,"text":"nope"}}`))
	require.NoError(t, err)

	e, ok := m.Body.Payload.(Error)
	require.True(t, ok)
	assert.Equal(t, maelstrom.NotSupported, e.Code)
	assert.Equal(t, "nope", e.Text)
	assert.NotEmpty(t, e.CodeText())
	assert.Equal(t, maelstrom.NotSupported, e.RPCError().Code)
	assert.Contains(t, e.RPCError().Error(), "nope")

	ns := NotSupported(Type("cas"))
	assert.Equal(t, maelstrom.NotSupported, ns.Code)
	assert.Contains(t, ns.Text, "cas")
}
