package graph

import (
	"cmp"
	"log/slog"
	"slices"

	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/geom"
)

// Tolerances, in feet.
const (
	// LocationTolerance is the distance below which two points are the same
	// node.
	LocationTolerance = 0.001

	// CurveTolerance is the shortest segment worth an edge.
	CurveTolerance = 0.00256

	// OnLineTolerance is how far a transit point may sit off a line and still
	// be spliced into it.
	OnLineTolerance = 0.01

	// EndpointClearance keeps points hugging a line end out of its chain.
	EndpointClearance = 0.1
)

// Builder assembles a Graph from resolved floor inputs.
type Builder struct {
	g       *Graph
	logger  *slog.Logger
	transit []*RoomWithTransitLines
	conns   map[floor.ElementID]*Node
	rooms   map[floor.ElementID]*Node
}

// NewBuilder returns a builder writing into a fresh graph. A nil logger
// uses slog.Default.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		g:      New(),
		logger: logger,
		conns:  make(map[floor.ElementID]*Node),
		rooms:  make(map[floor.ElementID]*Node),
	}
}

// Graph returns the graph being built.
func (b *Builder) Graph() *Graph { return b.g }

// TransitRooms returns the transit rooms created by Build.
func (b *Builder) TransitRooms() []*RoomWithTransitLines { return b.transit }

// Build populates the graph and returns its edge count. It fails only when
// the inputs lack a phase.
func (b *Builder) Build(in *floor.Inputs) (int, error) {
	if in == nil {
		return 0, nil
	}
	if in.Plan != nil && in.Plan.Phase == "" {
		return 0, floor.ConfigError(floor.InvalidElementID, "the plan has no phase")
	}

	var rooms []floor.Room
	for _, r := range in.Rooms {
		if r.Area > 0 {
			rooms = append(rooms, r)
		}
	}
	if len(rooms) == 0 && len(in.TransitRooms) == 0 {
		b.logger.Debug("no rooms in scope")
		return 0, nil
	}

	for _, tr := range in.TransitRooms {
		b.addTransitRoom(tr)
	}
	for _, r := range rooms {
		b.addRoom(r)
	}
	for _, o := range in.Openings {
		b.addOpening(o)
	}

	for _, r := range rooms {
		room := b.rooms[r.ID]
		for _, o := range in.Openings {
			if o.Touches(r.ID) {
				b.g.MakeEdge(room, b.conns[o.ID])
			}
		}
	}

	for _, tr := range b.transit {
		for _, o := range in.Openings {
			if o.Touches(tr.RoomID) {
				b.attachToTransit(tr, b.conns[o.ID])
			}
		}
	}

	if err := b.processRoomsWithTransit(); err != nil {
		return 0, err
	}

	b.logger.Debug("network built",
		"nodes", b.g.NodeCount(),
		"edges", b.g.EdgeCount(),
		"rooms", len(rooms),
		"transit_rooms", len(b.transit))
	return b.g.EdgeCount(), nil
}

func (b *Builder) addTransitRoom(tr floor.TransitRoom) {
	room := &RoomWithTransitLines{RoomID: tr.RoomID, LevelID: tr.LevelID, Name: tr.Name}
	for _, seg := range tr.Lines {
		room.Lines = append(room.Lines, &TransitLine{
			ElementID: seg.ID,
			RoomID:    tr.RoomID,
			Segment:   seg.Segment,
			End1:      b.transitPoint(seg.Segment.Start, room),
			End2:      b.transitPoint(seg.Segment.End, room),
		})
	}
	b.transit = append(b.transit, room)
}

// transitPoint returns the node already at p, or a new transit point there.
func (b *Builder) transitPoint(p geom.Point, room *RoomWithTransitLines) *Node {
	if n := b.g.LookupByLocation(p); n != nil {
		return n
	}
	n := b.g.NewNode(NodeTransitPoint, p)
	n.Name = room.Name
	n.RoomID = room.RoomID
	n.LevelID = room.LevelID
	b.g.AddNode(n)
	return n
}

func (b *Builder) addRoom(r floor.Room) {
	n := b.g.NewNode(NodeRoom, r.Location)
	n.Name = r.Label()
	n.ElementID = r.ID
	n.RoomID = r.ID
	n.LevelID = r.LevelID
	b.g.AddNode(n)
	b.rooms[r.ID] = n
}

func (b *Builder) addOpening(o floor.Opening) {
	if _, ok := b.conns[o.ID]; ok {
		return
	}
	kind := ConnectionDoor
	if o.Kind == floor.BoundaryOpening {
		kind = ConnectionRoomBoundary
	}
	n := b.g.NewConnectionNode(Connection{Kind: kind, Room2: o.Room2, IsEgress: o.IsEgress}, o.Location)
	n.Name = o.Name
	n.ElementID = o.ID
	n.RoomID = o.RoomID
	n.LevelID = o.LevelID
	b.g.AddNode(n)
	b.conns[o.ID] = n
}

// attachToTransit joins a connection to the nearest point of the room's
// transit network.
func (b *Builder) attachToTransit(tr *RoomWithTransitLines, conn *Node) {
	proj, line, ok := tr.NearestProjection(conn.Location)
	if !ok {
		if end := tr.NearestEndpoint(conn.Location); end != nil {
			b.g.MakeEdge(conn, end)
		}
		return
	}

	tp := b.transitPoint(proj.Point, tr)
	b.g.MakeEdge(conn, tp)
	if tp == line.End1 || tp == line.End2 {
		// The line itself is laid down by chainLine.
		return
	}
	if tp.Location.DistanceTo(line.End1.Location) > CurveTolerance {
		b.g.MakeEdge(tp, line.End1)
	}
	if tp.Location.DistanceTo(line.End2.Location) > CurveTolerance {
		b.g.MakeEdge(tp, line.End2)
	}
}

type splice struct {
	node  *Node
	param float64
}

// processRoomsWithTransit anchors each transit room with a room node and
// chains every line through the transit points lying on it.
func (b *Builder) processRoomsWithTransit() error {
	for _, tr := range b.transit {
		if len(tr.Lines) == 0 {
			continue
		}
		// Collected before anchoring: the promoted anchor is still spliced
		// into lines crossing it.
		var points []*Node
		for _, n := range b.g.Nodes() {
			if n.Type == NodeTransitPoint && n.RoomID == tr.RoomID {
				points = append(points, n)
			}
		}

		if err := b.anchorTransitRoom(tr); err != nil {
			return err
		}

		for _, line := range tr.Lines {
			b.chainLine(line, points)
		}
	}
	return nil
}

func (b *Builder) anchorTransitRoom(tr *RoomWithTransitLines) error {
	first := tr.Lines[0].End1
	if first.Type == NodeTransitPoint {
		if err := first.PromoteToRoom(tr.Name); err != nil {
			return err
		}
		first.ElementID = tr.RoomID
		return nil
	}

	anchor := b.g.NewNode(NodeRoom, first.Location)
	anchor.Name = tr.Name
	anchor.ElementID = tr.RoomID
	anchor.RoomID = tr.RoomID
	anchor.LevelID = tr.LevelID
	b.g.AddNode(anchor)
	b.g.MakeEdge(anchor, first)
	return nil
}

func (b *Builder) chainLine(line *TransitLine, points []*Node) {
	start, end := line.Segment.Start, line.Segment.End

	var on []splice
	for _, n := range points {
		if n == line.End1 || n == line.End2 {
			continue
		}
		proj := line.Segment.Project(n.Location)
		if proj.Distance > OnLineTolerance {
			continue
		}
		if n.Location.DistanceTo(start) <= EndpointClearance || n.Location.DistanceTo(end) <= EndpointClearance {
			continue
		}
		on = append(on, splice{node: n, param: proj.Parameter})
	}
	slices.SortStableFunc(on, func(a, b splice) int { return cmp.Compare(a.param, b.param) })

	prev := line.End1
	for _, s := range on {
		b.g.MakeEdge(prev, s.node)
		prev = s.node
	}
	b.g.MakeEdge(prev, line.End2)
}
