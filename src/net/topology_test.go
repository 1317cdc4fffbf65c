package net

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connected reports whether every node is reachable from the first one.
func connected(topo map[string][]string, ids []string) bool {
	if len(ids) == 0 {
		return true
	}
	seen := map[string]bool{ids[0]: true}
	queue := []string{ids[0]}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nbr := range topo[cur] {
			if !seen[nbr] {
				seen[nbr] = true
				queue = append(queue, nbr)
			}
		}
	}
	return len(seen) == len(ids)
}

func TestNodeIDs(t *testing.T) {
	assert.Equal(t, []string{"n0", "n1", "n2"}, NodeIDs(3))
}

func TestLine(t *testing.T) {
	topo := Line(NodeIDs(3))
	assert.Equal(t, []string{"n1"}, topo["n0"])
	assert.Equal(t, []string{"n0", "n2"}, topo["n1"])
	assert.Equal(t, []string{"n1"}, topo["n2"])
}

func TestRingClosesTheLine(t *testing.T) {
	topo := Ring(NodeIDs(4))
	assert.ElementsMatch(t, []string{"n1", "n3"}, topo["n0"])
	assert.ElementsMatch(t, []string{"n2", "n0"}, topo["n3"])
}

func TestGrid(t *testing.T) {
	// n0 n1 n2
	// n3 n4 n5
	// n6
	topo := Grid(NodeIDs(7))
	assert.ElementsMatch(t, []string{"n1", "n3"}, topo["n0"])
	assert.ElementsMatch(t, []string{"n1", "n3", "n5"}, topo["n4"])
	assert.ElementsMatch(t, []string{"n2", "n4"}, topo["n5"])
	assert.ElementsMatch(t, []string{"n3"}, topo["n6"])
}

func TestTree(t *testing.T) {
	topo := Tree(NodeIDs(7), 2)
	assert.ElementsMatch(t, []string{"n1", "n2"}, topo["n0"])
	assert.ElementsMatch(t, []string{"n0", "n3", "n4"}, topo["n1"])
	assert.ElementsMatch(t, []string{"n2"}, topo["n6"])
}

func TestTopologiesAreSymmetricAndConnected(t *testing.T) {
	kinds := []string{
		TopologyLine, TopologyRing, TopologyGrid, TopologyTotal,
		TopologyTree2, TopologyTree3, TopologyTree4,
	}

	for _, kind := range kinds {
		for _, size := range []int{1, 2, 5, 25} {
			ids := NodeIDs(size)
			topo, err := BuildTopology(kind, ids)
			require.NoError(t, err)

			assert.True(t, connected(topo, ids), "%s/%d not connected", kind, size)
			for a, nbrs := range topo {
				assert.NotContains(t, nbrs, a, "%s/%d self link", kind, size)
				for _, b := range nbrs {
					assert.Contains(t, topo[b], a, "%s/%d %s-%s not symmetric", kind, size, a, b)
				}
			}
		}
	}
}

func TestUnknownTopology(t *testing.T) {
	_, err := BuildTopology("star", NodeIDs(3))
	assert.Error(t, err)
}
