// Package graph holds the egress network: nodes for rooms, doors, boundary
// crossings and transit points joined by undirected edges, the builder that
// assembles it from resolved floor inputs, the path finder, and structural
// diagnostics over the finished network.
//
// A Graph is mutated only while it is being built. Once Build returns it is
// read-only and may be searched from several goroutines at once.
package graph

import (
	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/geom"
)

// IDAllocator hands out node ids. Each graph owns one, so ids are
// deterministic per analysis and start at 1.
type IDAllocator struct {
	next NodeID
}

// NewIDAllocator returns an allocator whose first id is 1.
func NewIDAllocator() *IDAllocator { return &IDAllocator{next: 1} }

// Next returns a fresh id.
func (a *IDAllocator) Next() NodeID {
	id := a.next
	a.next++
	return id
}

// Graph is the node and edge store.
type Graph struct {
	ids   *IDAllocator
	nodes map[NodeID]*Node
	order []*Node
	edges map[edgeKey]*Edge
	eList []*Edge
}

// New returns an empty graph with its own id allocator.
func New() *Graph {
	return &Graph{
		ids:   NewIDAllocator(),
		nodes: make(map[NodeID]*Node),
		edges: make(map[edgeKey]*Edge),
	}
}

// NewNode creates a node with a fresh id. The node is not registered until
// AddNode is called.
func (g *Graph) NewNode(t NodeType, loc geom.Point) *Node {
	return &Node{
		ID:        g.ids.Next(),
		Type:      t,
		ElementID: floor.InvalidElementID,
		RoomID:    floor.InvalidElementID,
		LevelID:   floor.InvalidElementID,
		Location:  loc,
	}
}

// NewConnectionNode creates a door or boundary node. Its role always matches
// the connection kind.
func (g *Graph) NewConnectionNode(c Connection, loc geom.Point) *Node {
	n := g.NewNode(c.Kind.nodeType(), loc)
	conn := c
	n.Connection = &conn
	return n
}

// AddNode registers n unless a node with the same id is already present.
// It reports whether n was inserted. Location is not consulted.
func (g *Graph) AddNode(n *Node) bool {
	if _, ok := g.nodes[n.ID]; ok {
		return false
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n)
	return true
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// LookupByLocation returns the first node, in insertion order, closer than
// LocationTolerance to p, or nil.
func (g *Graph) LookupByLocation(p geom.Point) *Node {
	for _, n := range g.order {
		if n.Location.AlmostEqual(p, LocationTolerance) {
			return n
		}
	}
	return nil
}

// MakeEdge joins a and b. Requests for an existing unordered pair return the
// existing edge and change nothing. A node cannot be joined to itself; nil is
// returned in that case.
func (g *Graph) MakeEdge(a, b *Node) *Edge {
	if a == b {
		return nil
	}
	key := keyOf(a, b)
	if e, ok := g.edges[key]; ok {
		return e
	}
	e := &Edge{End1: a, End2: b, Distance: a.Location.DistanceTo(b.Location)}
	g.edges[key] = e
	g.eList = append(g.eList, e)
	a.Neighbors = append(a.Neighbors, e)
	b.Neighbors = append(b.Neighbors, e)
	return e
}

// Edge returns the edge between a and b, if any.
func (g *Graph) Edge(a, b *Node) (*Edge, bool) {
	e, ok := g.edges[keyOf(a, b)]
	return e, ok
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node { return g.order }

// Edges returns all edges in creation order.
func (g *Graph) Edges() []*Edge { return g.eList }

// NodeCount is the number of nodes added so far.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount is the number of distinct edges made so far.
func (g *Graph) EdgeCount() int { return len(g.eList) }

// RoomNodes returns the room nodes in insertion order.
func (g *Graph) RoomNodes() []*Node {
	return g.filter(func(n *Node) bool { return n.Type == NodeRoom })
}

// EgressNodes returns the connection nodes flagged as egress.
func (g *Graph) EgressNodes() []*Node {
	return g.filter((*Node).IsEgress)
}

// NodeByElement returns the first room or connection node created for a
// model element.
func (g *Graph) NodeByElement(id floor.ElementID) *Node {
	if !id.Valid() {
		return nil
	}
	for _, n := range g.order {
		if n.ElementID == id && n.Type != NodeTransitPoint {
			return n
		}
	}
	return nil
}

func (g *Graph) filter(keep func(*Node) bool) []*Node {
	var out []*Node
	for _, n := range g.order {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}
