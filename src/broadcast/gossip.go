package broadcast

import (
	"fmt"

	"github.com/mosaicnetworks/murmur/src/message"
	"github.com/mosaicnetworks/murmur/src/node"
)

// Sweep pushes to every neighbor the values it is not known to hold, as one
// gossip message per neighbor. Sending does not count as evidence: a value
// keeps being sent until the neighbor sends it back. It returns the number of
// gossip messages sent.
func Sweep(s *State, out node.Sender) (int, error) {
	sent := 0
	for _, nbr := range s.neighbors {
		missing := s.Missing(nbr)
		if len(missing) == 0 {
			continue
		}
		if err := out.Send(nbr, message.Gossip{Messages: missing}); err != nil {
			return sent, fmt.Errorf("gossip to %s: %w", nbr, err)
		}
		sent++
	}
	return sent, nil
}
