package graph

import (
	"sort"

	"lifesaver/egress/internal/floor"
)

// NodeInfo is a flat, pointer-free view of a node for diagnostics and
// reporting.
type NodeInfo struct {
	ID        NodeID          `json:"id"`
	Name      string          `json:"name"`
	Type      NodeType        `json:"type"`
	ElementID floor.ElementID `json:"element_id"`
	RoomID    floor.ElementID `json:"room_id"`
	LevelID   floor.ElementID `json:"level_id"`
	IsEgress  bool            `json:"is_egress,omitempty"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Z         float64         `json:"z"`
}

// EdgeInfo is a flat view of an edge.
type EdgeInfo struct {
	Source   NodeID  `json:"source"`
	Target   NodeID  `json:"target"`
	Distance float64 `json:"distance"`
}

// Snapshot holds the network with precomputed adjacency lists and a
// room map, detached from the live graph.
type Snapshot struct {
	Nodes map[NodeID]*NodeInfo
	Edges []EdgeInfo
	Adj   map[NodeID][]NodeID
	Rooms map[NodeID]floor.ElementID // node -> anchoring room
}

// Info returns the flat view of n.
func Info(n *Node) *NodeInfo {
	return &NodeInfo{
		ID:        n.ID,
		Name:      n.Name,
		Type:      n.Type,
		ElementID: n.ElementID,
		RoomID:    n.RoomID,
		LevelID:   n.LevelID,
		IsEgress:  n.IsEgress(),
		X:         n.Location.X,
		Y:         n.Location.Y,
		Z:         n.Location.Z,
	}
}

// Snapshot captures the graph's current nodes and edges.
func (g *Graph) Snapshot() *Snapshot {
	nodes := make([]*NodeInfo, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		nodes = append(nodes, Info(n))
	}
	edges := make([]EdgeInfo, 0, g.EdgeCount())
	for _, e := range g.Edges() {
		edges = append(edges, EdgeInfo{Source: e.End1.ID, Target: e.End2.ID, Distance: e.Distance})
	}
	return NewSnapshot(nodes, edges)
}

// NewSnapshot builds a Snapshot from raw nodes and edges. Edges naming an
// unknown node are ignored.
func NewSnapshot(nodes []*NodeInfo, edges []EdgeInfo) *Snapshot {
	nodeMap := make(map[NodeID]*NodeInfo, len(nodes))
	adj := make(map[NodeID][]NodeID)
	rooms := make(map[NodeID]floor.ElementID, len(nodes))

	for _, n := range nodes {
		nodeMap[n.ID] = n
		adj[n.ID] = nil // ensure entry exists
		rooms[n.ID] = n.RoomID
	}

	var kept []EdgeInfo
	for _, e := range edges {
		if _, ok := nodeMap[e.Source]; !ok {
			continue
		}
		if _, ok := nodeMap[e.Target]; !ok {
			continue
		}
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
		kept = append(kept, e)
	}

	return &Snapshot{
		Nodes: nodeMap,
		Edges: kept,
		Adj:   adj,
		Rooms: rooms,
	}
}

// FilterToLevel returns a new snapshot containing only nodes on one level.
func (s *Snapshot) FilterToLevel(level floor.ElementID) *Snapshot {
	var nodes []*NodeInfo
	keep := make(map[NodeID]bool)
	for _, id := range s.NodeIDs() {
		if n := s.Nodes[id]; n.LevelID == level {
			nodes = append(nodes, n)
			keep[id] = true
		}
	}

	var edges []EdgeInfo
	for _, e := range s.Edges {
		if keep[e.Source] && keep[e.Target] {
			edges = append(edges, e)
		}
	}
	return NewSnapshot(nodes, edges)
}

// NodeIDs returns all node ids in ascending order.
func (s *Snapshot) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(s.Nodes))
	for id := range s.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Egress returns the ids of egress nodes in ascending order.
func (s *Snapshot) Egress() []NodeID {
	var out []NodeID
	for _, id := range s.NodeIDs() {
		if s.Nodes[id].IsEgress {
			out = append(out, id)
		}
	}
	return out
}
