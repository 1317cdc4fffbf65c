package uniqueids

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/mosaicnetworks/murmur/src/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runNode(t *testing.T, id string, requests int) []string {
	var in strings.Builder
	fmt.Fprintf(&in, `{"src":"c0","dest":"%s","body":{"type":"init","msg_id":1,"node_id":"%s","node_ids":["n1","n2"]}}`+"\n", id, id)
	for i := 0; i < requests; i++ {
		fmt.Fprintf(&in, `{"src":"c1","dest":"%s","body":{"type":"generate","msg_id":%d}}`+"\n", id, i+2)
	}

	var out bytes.Buffer
	n := node.NewNode(node.TestConfig(t), New, strings.NewReader(in.String()), &out)
	require.NoError(t, n.Run())

	var ids []string
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		m, err := message.Decode(scanner.Bytes())
		require.NoError(t, err)
		if g, ok := m.Body.Payload.(message.GenerateOk); ok {
			ids = append(ids, g.ID)
		}
	}
	return ids
}

func TestIDsAreUniqueAcrossNodes(t *testing.T) {
	ids := append(runNode(t, "n1", 50), runNode(t, "n2", 50)...)
	require.Len(t, ids, 100)

	seen := make(map[string]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestIDFormat(t *testing.T) {
	ids := runNode(t, "n7", 3)
	assert.Equal(t, []string{"n7-0", "n7-1", "n7-2"}, ids)
}
