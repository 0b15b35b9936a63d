package history

import (
	"github.com/emirpasic/gods/stacks/arraystack"
)

// destroy removes the subtree rooted at id in two phases: it first detaches
// the subtree from its parent and collects every node in it, then severs the
// equivalence edges of each collected node and frees it, children first.
func (s *Store) destroy(id NodeID) {
	top := s.nodes[id]
	s.nodes[top.parent].children[top.symbol] = 0

	order := s.collect(id)

	// Reverse pre-order visits every child before its parent.
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		s.severAll(n)
		s.release(n)
	}
}

// collect returns the subtree rooted at id in pre-order.
func (s *Store) collect(id NodeID) []NodeID {
	var order []NodeID

	stack := arraystack.New()
	stack.Push(id)
	for !stack.Empty() {
		v, _ := stack.Pop()
		cur := v.(NodeID)
		order = append(order, cur)

		for _, child := range s.nodes[cur].children {
			if child != 0 {
				stack.Push(child)
			}
		}
	}
	return order
}

// severAll removes every edge incident to id from the other endpoint's set.
// The other endpoint may lie outside the removed subtree and stays valid.
func (s *Store) severAll(id NodeID) {
	for other := range s.nodes[id].edges {
		delete(s.nodes[other].edges, id)
		s.edges--
	}
	s.nodes[id].edges = nil
}
