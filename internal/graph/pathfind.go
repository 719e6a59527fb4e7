package graph

import (
	"cmp"
	"fmt"
	"slices"
)

// FindPath searches for a path from start to target with a greedy
// depth-first search.
//
// At each node, a neighbour that is the target is taken at once. Otherwise
// the unvisited neighbours are tried nearest-to-target first (straight-line
// distance), backtracking on dead ends. A node already on the current path is
// never entered again. The search visits every simple path in the worst case,
// so it finds a route whenever one exists, but the route it returns is the
// first one found and need not be the shortest.
//
// found is false when target cannot be reached; that is not an error. err is
// set only for nil endpoints or a corrupted graph.
func FindPath(start, target *Node) (route *Route, found bool, err error) {
	if start == nil || target == nil {
		return nil, false, fmt.Errorf("finding path: %w", ErrNilNode)
	}
	if start == target {
		return &Route{Nodes: []*Node{start}}, true, nil
	}

	s := &search{target: target, onPath: make(map[NodeID]bool)}
	if done, err := s.push(start, nil); err != nil || done {
		return s.route, done, err
	}

	for len(s.stack) > 0 {
		top := &s.stack[len(s.stack)-1]
		if top.next == len(top.candidates) {
			s.pop()
			continue
		}
		c := top.candidates[top.next]
		top.next++
		if s.onPath[c.node.ID] {
			continue
		}
		if done, err := s.push(c.node, c.via); err != nil || done {
			return s.route, done, err
		}
	}
	return nil, false, nil
}

type candidate struct {
	node *Node
	via  *Edge
	dist float64 // straight-line distance to the target
}

type frame struct {
	node       *Node
	via        *Edge // edge walked to reach node; nil for the start
	candidates []candidate
	next       int
}

type search struct {
	target *Node
	stack  []frame
	onPath map[NodeID]bool
	route  *Route
}

// push enters n and expands it. It reports true when n is adjacent to the
// target, in which case s.route holds the finished route.
func (s *search) push(n *Node, via *Edge) (bool, error) {
	s.onPath[n.ID] = true
	s.stack = append(s.stack, frame{node: n, via: via})
	top := &s.stack[len(s.stack)-1]

	for _, e := range n.Neighbors {
		other, err := e.Other(n)
		if err != nil {
			return false, fmt.Errorf("finding path: %w", err)
		}
		if s.onPath[other.ID] {
			continue
		}
		if other == s.target {
			s.route = s.finish(e)
			return true, nil
		}
		top.candidates = append(top.candidates, candidate{
			node: other,
			via:  e,
			dist: other.Location.DistanceTo(s.target.Location),
		})
	}
	slices.SortStableFunc(top.candidates, func(a, b candidate) int { return cmp.Compare(a.dist, b.dist) })
	return false, nil
}

func (s *search) pop() {
	top := s.stack[len(s.stack)-1]
	delete(s.onPath, top.node.ID)
	s.stack = s.stack[:len(s.stack)-1]
}

func (s *search) finish(last *Edge) *Route {
	r := &Route{Nodes: make([]*Node, 0, len(s.stack)+1)}
	for _, f := range s.stack {
		r.Nodes = append(r.Nodes, f.node)
		if f.via != nil {
			r.TotalDistance += f.via.Distance
		}
	}
	r.Nodes = append(r.Nodes, s.target)
	r.TotalDistance += last.Distance
	return r
}
