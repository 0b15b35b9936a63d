package history

// NodeID addresses a node in the store's arena. The root always lives in
// slot 0, so a zero child slot means "no child".
type NodeID uint32

const rootID NodeID = 0

// node is one prefix of at least one declared history.
type node struct {
	children [Alphabet]NodeID
	parent   NodeID
	symbol   Symbol
	energy   Energy
	// Neighbors in the equivalence graph. An edge is present in both
	// endpoint sets or in neither.
	edges map[NodeID]struct{}
}

// Stats reports the current size of the store.
type Stats struct {
	Nodes int64 // Live history nodes, excluding the root
	Edges int64 // Equivalence edges
}

// Store is the history engine. It is not safe for concurrent use; callers
// must serialize access to a single Store.
type Store struct {
	nodes []node
	free  []NodeID
	live  int64
	edges int64
}

// NewStore creates an empty store holding only the root.
func NewStore() *Store {
	return &Store{
		nodes: []node{{}},
	}
}

// Declare makes h and every prefix of h valid. Declaring an existing
// history is a no-op.
func (s *Store) Declare(h History) error {
	if err := h.validate(); err != nil {
		return err
	}

	cur := rootID
	for _, sym := range h {
		next := s.nodes[cur].children[sym]
		if next == 0 {
			next = s.alloc(cur, sym)
			s.nodes[cur].children[sym] = next
		}
		cur = next
	}
	return nil
}

// Remove invalidates h and every history extending it, severing every
// equivalence edge that touches a removed node. Removing an unknown history
// is a no-op.
func (s *Store) Remove(h History) error {
	if err := h.validate(); err != nil {
		return err
	}

	id, ok := s.lookup(h)
	if !ok {
		return nil
	}
	s.destroy(id)
	return nil
}

// Valid reports whether h names an existing history.
func (s *Store) Valid(h History) bool {
	if h.validate() != nil {
		return false
	}
	_, ok := s.lookup(h)
	return ok
}

// Stats returns the number of live nodes and equivalence edges.
func (s *Store) Stats() Stats {
	return Stats{Nodes: s.live, Edges: s.edges}
}

// Reset tears down every history, leaving an empty store.
func (s *Store) Reset() {
	for sym := Symbol(0); sym < Alphabet; sym++ {
		if child := s.nodes[rootID].children[sym]; child != 0 {
			s.destroy(child)
		}
	}
}

// lookup walks h from the root and returns the node it names.
func (s *Store) lookup(h History) (NodeID, bool) {
	cur := rootID
	for _, sym := range h {
		cur = s.nodes[cur].children[sym]
		if cur == 0 {
			return 0, false
		}
	}
	return cur, true
}

// alloc takes a slot from the free list, or grows the arena.
func (s *Store) alloc(parent NodeID, sym Symbol) NodeID {
	n := node{parent: parent, symbol: sym}

	var id NodeID
	if k := len(s.free); k > 0 {
		id = s.free[k-1]
		s.free = s.free[:k-1]
		s.nodes[id] = n
	} else {
		id = NodeID(len(s.nodes))
		s.nodes = append(s.nodes, n)
	}
	s.live++
	return id
}

// release returns a slot to the free list. The node must already be
// detached from its parent and from every neighbor.
func (s *Store) release(id NodeID) {
	s.nodes[id] = node{}
	s.free = append(s.free, id)
	s.live--
}
