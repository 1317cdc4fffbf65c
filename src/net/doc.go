// Package net connects several nodes in one process.
//
// InmemNetwork runs real node event loops, each over a pair of pipes, and
// routes every line a node writes to the node named in its dest field. Lines
// addressed to an id outside the cluster go to the network's client side,
// which tests and the simulate command use to issue requests and collect
// replies.
//
// The network can lose messages between nodes with a fixed probability and
// can cut a node off from its peers with Partition until Heal is called.
// Client traffic is never lost or partitioned.
package net
