package history

import (
	"github.com/emirpasic/gods/sets/hashset"
	"github.com/emirpasic/gods/stacks/arraystack"
)

// SetEnergy assigns e to h and to every history reachable from it through
// equivalence edges.
func (s *Store) SetEnergy(h History, e Energy) error {
	if err := h.validate(); err != nil {
		return err
	}
	if e == 0 {
		return ErrInvalidNumber
	}

	id, ok := s.lookup(h)
	if !ok {
		return ErrUnknownHistory
	}
	s.propagate(id, e)
	return nil
}

// Energy returns the energy of h, or 0 when h is unknown or has no energy.
func (s *Store) Energy(h History) Energy {
	if h.validate() != nil {
		return 0
	}
	id, ok := s.lookup(h)
	if !ok {
		return 0
	}
	return s.nodes[id].energy
}

// ClassSize returns the number of histories reachable from h through
// equivalence edges, h included. Unknown histories have a class size of 0.
func (s *Store) ClassSize(h History) int {
	if h.validate() != nil {
		return 0
	}
	id, ok := s.lookup(h)
	if !ok {
		return 0
	}
	return s.walk(id, nil)
}

// propagate writes e to start and to its whole equivalence class. Every
// node is written at most once, regardless of cycles. Returns the number of
// nodes written.
func (s *Store) propagate(start NodeID, e Energy) int {
	return s.walk(start, func(id NodeID) {
		s.nodes[id].energy = e
	})
}

// walk visits start and everything reachable from it through equivalence
// edges exactly once, calling visit on each node when it is popped.
func (s *Store) walk(start NodeID, visit func(NodeID)) int {
	visited := hashset.New()
	visited.Add(start)

	stack := arraystack.New()
	stack.Push(start)

	count := 0
	for !stack.Empty() {
		v, _ := stack.Pop()
		cur := v.(NodeID)
		if visit != nil {
			visit(cur)
		}
		count++

		for other := range s.nodes[cur].edges {
			if visited.Contains(other) {
				continue
			}
			visited.Add(other)
			stack.Push(other)
		}
	}
	return count
}
