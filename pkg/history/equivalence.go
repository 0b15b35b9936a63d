package history

// Equivalent reports whether a direct equivalence edge joins a and b.
// Classes are not flattened: a≡b and b≡c does not make a and c adjacent.
func (s *Store) Equivalent(a, b History) bool {
	if a.validate() != nil || b.validate() != nil {
		return false
	}
	ida, ok := s.lookup(a)
	if !ok {
		return false
	}
	idb, ok := s.lookup(b)
	if !ok {
		return false
	}
	return s.adjacent(ida, idb)
}

// Equate adds an equivalence edge between a and b and merges their
// energies across everything reachable from either of them.
//
// Equating a history with itself, or two histories that are already
// adjacent, is a no-op. At least one of a, b must carry energy.
func (s *Store) Equate(a, b History) error {
	if err := a.validate(); err != nil {
		return err
	}
	if err := b.validate(); err != nil {
		return err
	}

	ida, ok := s.lookup(a)
	if !ok {
		return ErrUnknownHistory
	}
	idb, ok := s.lookup(b)
	if !ok {
		return ErrUnknownHistory
	}
	if ida == idb || s.adjacent(ida, idb) {
		return nil
	}

	ea, eb := s.nodes[ida].energy, s.nodes[idb].energy
	if ea == 0 && eb == 0 {
		return ErrNoEnergy
	}

	s.link(ida, idb)

	var merged Energy
	switch {
	case ea == 0:
		merged = eb
	case eb == 0:
		merged = ea
	default:
		merged = Mean(ea, eb)
	}
	s.propagate(ida, merged)
	return nil
}

// Mean returns the average of a and b rounded down, without overflowing
// for values near the top of the Energy range.
func Mean(a, b Energy) Energy {
	return a/2 + b/2 + (a%2+b%2)/2
}

func (s *Store) adjacent(a, b NodeID) bool {
	_, ok := s.nodes[a].edges[b]
	return ok
}

func (s *Store) link(a, b NodeID) {
	if s.nodes[a].edges == nil {
		s.nodes[a].edges = make(map[NodeID]struct{})
	}
	if s.nodes[b].edges == nil {
		s.nodes[b].edges = make(map[NodeID]struct{})
	}
	s.nodes[a].edges[b] = struct{}{}
	s.nodes[b].edges[a] = struct{}{}
	s.edges++
}
