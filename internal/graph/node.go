package graph

import (
	"fmt"

	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/geom"
)

// NodeID is a node's identity within one Graph. It is allocated by the
// graph and never derived from geometry.
type NodeID int64

// NodeType is the role a node plays in the egress network.
type NodeType int

const (
	NodeRoom NodeType = iota
	NodeDoor
	NodeRoomBoundary
	NodeTransitPoint
)

var nodeTypeNames = [...]string{"Room", "Door", "RoomBoundary", "TransitPoint"}

func (t NodeType) String() string {
	if int(t) < len(nodeTypeNames) {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", int(t))
}

// MarshalText encodes the type by name.
func (t NodeType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText decodes a type name written by MarshalText.
func (t *NodeType) UnmarshalText(b []byte) error {
	for i, name := range nodeTypeNames {
		if name == string(b) {
			*t = NodeType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown node type %q", b)
}

// ConnectionKind is the kind of opening a connection node represents.
type ConnectionKind int

const (
	ConnectionDoor ConnectionKind = iota
	ConnectionRoomBoundary
)

func (k ConnectionKind) nodeType() NodeType {
	if k == ConnectionDoor {
		return NodeDoor
	}
	return NodeRoomBoundary
}

// Connection marks a node as a door or boundary crossing. Room2 is the room
// on the far side, floor.InvalidElementID when there is none.
type Connection struct {
	Kind     ConnectionKind
	Room2    floor.ElementID
	IsEgress bool
}

// Node is a point in the egress network.
//
// Neighbors is the only adjacency structure: MakeEdge appends each new edge
// to both endpoints.
type Node struct {
	ID        NodeID
	Type      NodeType
	Name      string
	ElementID floor.ElementID
	RoomID    floor.ElementID
	LevelID   floor.ElementID
	Location  geom.Point
	Neighbors []*Edge

	// Connection is set for door and boundary nodes only.
	Connection *Connection
}

// IsConnection reports whether the node is a door or boundary crossing.
func (n *Node) IsConnection() bool { return n.Connection != nil }

// IsEgress reports whether the node is a connection flagged as egress.
func (n *Node) IsEgress() bool { return n.Connection != nil && n.Connection.IsEgress }

// Room2 returns the far-side room of a connection node.
func (n *Node) Room2() floor.ElementID {
	if n.Connection == nil {
		return floor.InvalidElementID
	}
	return n.Connection.Room2
}

// PromoteToRoom turns a transit point into a room anchor. Only TransitPoint
// nodes may be promoted; the role of any other node is fixed.
func (n *Node) PromoteToRoom(name string) error {
	if n.Type != NodeTransitPoint {
		return fmt.Errorf("promoting node %d: %w (is %s)", n.ID, ErrNotTransitPoint, n.Type)
	}
	n.Type = NodeRoom
	n.Name = name
	return nil
}

// Degree is the number of incident edges.
func (n *Node) Degree() int { return len(n.Neighbors) }

func (n *Node) String() string {
	if n.Name != "" {
		return fmt.Sprintf("%s#%d(%s)", n.Type, n.ID, n.Name)
	}
	return fmt.Sprintf("%s#%d", n.Type, n.ID)
}
