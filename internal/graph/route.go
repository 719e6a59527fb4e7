package graph

// Route is a path through the network, start first.
type Route struct {
	Nodes         []*Node
	TotalDistance float64
}

// Start is the first node of the route.
func (r *Route) Start() *Node {
	if len(r.Nodes) == 0 {
		return nil
	}
	return r.Nodes[0]
}

// End is the last node of the route.
func (r *Route) End() *Node {
	if len(r.Nodes) == 0 {
		return nil
	}
	return r.Nodes[len(r.Nodes)-1]
}

// Doors returns the door nodes crossed, in walking order.
func (r *Route) Doors() []*Node {
	var doors []*Node
	for _, n := range r.Nodes {
		if n.Type == NodeDoor {
			doors = append(doors, n)
		}
	}
	return doors
}

// EdgeLengths returns the length of each step between consecutive nodes,
// looked up on the nodes' neighbour lists. ok is false when two consecutive
// nodes are not adjacent.
func (r *Route) EdgeLengths() (lengths []float64, ok bool) {
	for i := 1; i < len(r.Nodes); i++ {
		e := edgeBetween(r.Nodes[i-1], r.Nodes[i])
		if e == nil {
			return nil, false
		}
		lengths = append(lengths, e.Distance)
	}
	return lengths, true
}

func edgeBetween(a, b *Node) *Edge {
	for _, e := range a.Neighbors {
		if e.Has(b) {
			return e
		}
	}
	return nil
}
