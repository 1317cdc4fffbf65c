package node

import (
	"sync"
	"sync/atomic"
)

// State captures the lifecycle of a node: Uninitialised, Running, Draining or
// Shutdown.
type State uint32

const (
	// Uninitialised is the state before the init handshake.
	Uninitialised State = iota
	// Running serves messages and gossips.
	Running
	// Draining runs the last sweep after the end of input.
	Draining
	// Shutdown is final.
	Shutdown
)

// String ...
func (s State) String() string {
	switch s {
	case Uninitialised:
		return "Uninitialised"
	case Running:
		return "Running"
	case Draining:
		return "Draining"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

type state struct {
	state State
	wg    sync.WaitGroup
}

func (b *state) getState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

func (b *state) setState(s State) {
	stateAddr := (*uint32)(&b.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}

// Start a goroutine and add it to waitgroup
func (b *state) goFunc(f func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		f()
	}()
}

func (b *state) waitRoutines() {
	b.wg.Wait()
}
