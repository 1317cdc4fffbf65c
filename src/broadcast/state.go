package broadcast

// State is everything a broadcast node knows. It is owned by the event loop
// and is not safe for concurrent use.
type State struct {
	self   string
	roster map[string]struct{}

	values []int
	seen   map[int]struct{}

	neighbors   []string
	isNeighbor  map[string]struct{}
	knownByPeer map[string]map[int]struct{}
}

// NewState returns the empty state of node nodeID in a cluster made of
// nodeIDs.
func NewState(nodeID string, nodeIDs []string) *State {
	roster := make(map[string]struct{}, len(nodeIDs))
	for _, id := range nodeIDs {
		if id != nodeID {
			roster[id] = struct{}{}
		}
	}

	return &State{
		self:        nodeID,
		roster:      roster,
		seen:        make(map[int]struct{}),
		isNeighbor:  make(map[string]struct{}),
		knownByPeer: make(map[string]map[int]struct{}),
	}
}

// ID returns the id of the node owning the state.
func (s *State) ID() string {
	return s.self
}

// Insert adds v to the value set. It reports whether v was new.
func (s *State) Insert(v int) bool {
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
	return true
}

// Has reports whether v is in the value set.
func (s *State) Has(v int) bool {
	_, ok := s.seen[v]
	return ok
}

// Len returns the number of values held.
func (s *State) Len() int {
	return len(s.values)
}

// Values returns a copy of the value set in first-seen order.
func (s *State) Values() []int {
	res := make([]int, len(s.values))
	copy(res, s.values)
	return res
}

// IsPeer reports whether id is another member of the cluster roster.
func (s *State) IsPeer(id string) bool {
	_, ok := s.roster[id]
	return ok
}

// Learn records that peer holds values because it sent them to us. This is an
// approximation: the sender of a message is assumed to know its contents, so
// those values are never sent back to it. Only cluster peers are trusted this
// way; a client that broadcast a value never receives gossip anyway, and
// values the state does not hold are ignored. It returns the number of values
// newly recorded.
func (s *State) Learn(peer string, values ...int) int {
	if !s.IsPeer(peer) {
		return 0
	}

	known, ok := s.knownByPeer[peer]
	if !ok {
		known = make(map[int]struct{}, len(values))
		s.knownByPeer[peer] = known
	}

	added := 0
	for _, v := range values {
		if !s.Has(v) {
			continue
		}
		if _, ok := known[v]; !ok {
			known[v] = struct{}{}
			added++
		}
	}
	return added
}

// Known reports whether peer is known to hold v.
func (s *State) Known(peer string, v int) bool {
	_, ok := s.knownByPeer[peer][v]
	return ok
}

// KnownCount returns how many values peer is known to hold.
func (s *State) KnownCount(peer string) int {
	return len(s.knownByPeer[peer])
}

// MergeTopology adds the neighbors topology assigns to this node. Neighbors
// are only ever added, never twice and never the node itself. It reports
// whether topology had an entry for this node and how many neighbors were
// new.
func (s *State) MergeTopology(topology map[string][]string) (bool, int) {
	assigned, ok := topology[s.self]
	if !ok {
		return false, 0
	}

	added := 0
	for _, id := range assigned {
		if id == s.self || id == "" {
			continue
		}
		if _, dup := s.isNeighbor[id]; dup {
			continue
		}
		s.isNeighbor[id] = struct{}{}
		s.neighbors = append(s.neighbors, id)
		added++
	}
	return true, added
}

// Neighbors returns a copy of the neighbor set in insertion order.
func (s *State) Neighbors() []string {
	res := make([]string, len(s.neighbors))
	copy(res, s.neighbors)
	return res
}

// Missing returns the values peer is not known to hold, in value set order.
func (s *State) Missing(peer string) []int {
	known := s.knownByPeer[peer]
	if len(known) == len(s.values) {
		return nil
	}

	res := make([]int, 0, len(s.values)-len(known))
	for _, v := range s.values {
		if _, ok := known[v]; !ok {
			res = append(res, v)
		}
	}
	return res
}
