// Package node runs one member of a Maelstrom-style cluster.
//
// A node speaks newline-delimited JSON: it reads envelopes from an input
// stream and writes envelopes to an output stream. Logs never go to the output
// stream, which belongs to the protocol.
//
// Event Loop
//
// Two goroutines make up a node. The source reads and decodes lines and pushes
// them on a bounded queue. The event loop is the only goroutine that touches
// workload state: it takes one event at a time from the queue and dispatches
// it to completion, flushing any replies before it looks at the queue again.
// When the queue stays empty for a full heartbeat the loop runs a sweep
// instead, which is where workloads gossip. A constant stream of messages
// cannot postpone a sweep for longer than MaxSweepDelay.
//
// Handshake
//
// The first message must be init. It gives the node its id and the roster of
// the cluster, and the node builds its Handler from them through the Factory
// it was created with. A repeated init is acknowledged but ignored.
//
// Shutdown
//
// At the end of input the loop runs one last sweep, waits for the source to
// return and exits cleanly. A decode failure, a message other than init
// before the handshake, a handler error or a write error stop the loop
// immediately and are returned by Run.
package node
