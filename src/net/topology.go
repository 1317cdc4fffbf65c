package net

import (
	"fmt"
	"math"
	"strings"
)

// Topology kinds accepted by BuildTopology.
const (
	TopologyLine  = "line"
	TopologyRing  = "ring"
	TopologyGrid  = "grid"
	TopologyTotal = "total"
	TopologyTree2 = "tree2"
	TopologyTree3 = "tree3"
	TopologyTree4 = "tree4"
)

// NodeIDs returns n0 ... n<count-1>.
func NodeIDs(count int) []string {
	ids := make([]string, count)
	for i := range ids {
		ids[i] = fmt.Sprintf("n%d", i)
	}
	return ids
}

// BuildTopology returns a symmetric neighbor map of the given kind over ids.
func BuildTopology(kind string, ids []string) (map[string][]string, error) {
	switch strings.ToLower(kind) {
	case TopologyLine:
		return Line(ids), nil
	case TopologyRing:
		return Ring(ids), nil
	case TopologyGrid:
		return Grid(ids), nil
	case TopologyTotal:
		return Total(ids), nil
	case TopologyTree2:
		return Tree(ids, 2), nil
	case TopologyTree3:
		return Tree(ids, 3), nil
	case TopologyTree4:
		return Tree(ids, 4), nil
	default:
		return nil, fmt.Errorf("unknown topology %q", kind)
	}
}

func empty(ids []string) map[string][]string {
	topo := make(map[string][]string, len(ids))
	for _, id := range ids {
		topo[id] = []string{}
	}
	return topo
}

func link(topo map[string][]string, a, b string) {
	topo[a] = append(topo[a], b)
	topo[b] = append(topo[b], a)
}

// Line links every node to the one before and after it.
func Line(ids []string) map[string][]string {
	topo := empty(ids)
	for i := 1; i < len(ids); i++ {
		link(topo, ids[i-1], ids[i])
	}
	return topo
}

// Ring is Line with the ends joined.
func Ring(ids []string) map[string][]string {
	topo := Line(ids)
	if len(ids) > 2 {
		link(topo, ids[len(ids)-1], ids[0])
	}
	return topo
}

// Grid lays the nodes out row by row on a square and links each to its
// horizontal and vertical neighbors.
func Grid(ids []string) map[string][]string {
	topo := empty(ids)
	side := int(math.Ceil(math.Sqrt(float64(len(ids)))))

	for i := range ids {
		if (i+1)%side != 0 && i+1 < len(ids) {
			link(topo, ids[i], ids[i+1])
		}
		if i+side < len(ids) {
			link(topo, ids[i], ids[i+side])
		}
	}
	return topo
}

// Total links every pair of nodes.
func Total(ids []string) map[string][]string {
	topo := empty(ids)
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			link(topo, ids[i], ids[j])
		}
	}
	return topo
}

// Tree links node i to its parent (i-1)/fanout.
func Tree(ids []string, fanout int) map[string][]string {
	topo := empty(ids)
	for i := 1; i < len(ids); i++ {
		link(topo, ids[(i-1)/fanout], ids[i])
	}
	return topo
}
