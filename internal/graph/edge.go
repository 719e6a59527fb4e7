package graph

import "fmt"

// Edge is an undirected connection. Distance is the Euclidean distance
// between the endpoints at the time the edge was made.
type Edge struct {
	End1     *Node
	End2     *Node
	Distance float64
}

// Other returns the endpoint opposite n.
func (e *Edge) Other(n *Node) (*Node, error) {
	if n == nil {
		return nil, fmt.Errorf("edge %d-%d: %w", e.End1.ID, e.End2.ID, ErrNilNode)
	}
	switch n {
	case e.End1:
		return e.End2, nil
	case e.End2:
		return e.End1, nil
	}
	return nil, fmt.Errorf("edge %d-%d, node %d: %w", e.End1.ID, e.End2.ID, n.ID, ErrNotEndpoint)
}

// Has reports whether n is one of the edge's endpoints.
func (e *Edge) Has(n *Node) bool { return e.End1 == n || e.End2 == n }

type edgeKey struct{ lo, hi NodeID }

func keyOf(a, b *Node) edgeKey {
	if a.ID > b.ID {
		a, b = b, a
	}
	return edgeKey{a.ID, b.ID}
}
