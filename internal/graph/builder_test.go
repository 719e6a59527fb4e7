package graph

import (
	"errors"
	"sort"
	"testing"

	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/geom"
)

func phased() *floor.Plan { return &floor.Plan{Name: "test", Phase: "New"} }

func seg(x1, y1, x2, y2 float64) geom.Segment {
	return geom.Segment{Start: at(x1, y1), End: at(x2, y2)}
}

func door(id, room, room2 floor.ElementID, x, y float64, egress bool) floor.Opening {
	return floor.Opening{
		Kind: floor.DoorOpening, ID: id, Name: "D" + id.String(),
		Location: at(x, y), RoomID: room, Room2: room2, IsEgress: egress,
	}
}

func build(t *testing.T, in *floor.Inputs) (*Builder, int) {
	t.Helper()
	b := NewBuilder(nil)
	edges, err := b.Build(in)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if edges != b.Graph().EdgeCount() {
		t.Errorf("returned edge count %d, graph has %d", edges, b.Graph().EdgeCount())
	}
	return b, edges
}

func TestBuild_NoRooms(t *testing.T) {
	_, edges := build(t, &floor.Inputs{Plan: phased()})
	if edges != 0 {
		t.Errorf("expected 0 edges, got %d", edges)
	}
}

func TestBuild_MissingPhase(t *testing.T) {
	_, err := NewBuilder(nil).Build(&floor.Inputs{Plan: &floor.Plan{}})
	if !errors.Is(err, floor.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestBuild_RoomsAndDoors(t *testing.T) {
	b, edges := build(t, &floor.Inputs{
		Plan: phased(),
		Rooms: []floor.Room{
			{ID: 1, Number: "101", Name: "Office", Area: 100, Location: at(0, 0)},
			{ID: 2, Number: "102", Name: "Lobby", Area: 100, Location: at(10, 0)},
			{ID: 3, Number: "103", Name: "Shaft", Area: 0, Location: at(20, 0)},
		},
		Openings: []floor.Opening{
			door(10, 1, 2, 5, 0, false),
			door(11, 2, floor.InvalidElementID, 15, 0, true),
			door(10, 1, 2, 5, 0, false), // repeated id
		},
	})
	g := b.Graph()
	if edges != 3 {
		t.Errorf("expected 3 edges (office-D10, lobby-D10, lobby-D11), got %d", edges)
	}
	if got := len(g.RoomNodes()); got != 2 {
		t.Errorf("zero-area room must not get a node, got %d rooms", got)
	}
	if g.NodeCount() != 4 {
		t.Errorf("expected 4 nodes, got %d", g.NodeCount())
	}
	exits := g.EgressNodes()
	if len(exits) != 1 || exits[0].ElementID != 11 {
		t.Fatalf("expected D11 as the only exit, got %v", exits)
	}
	if exits[0].Room2() != floor.InvalidElementID {
		t.Errorf("exterior door should have no far room, got %d", exits[0].Room2())
	}
	office := g.NodeByElement(1)
	if office == nil || office.Name != "101-Office" {
		t.Errorf("room node should be named number-name, got %v", office)
	}
}

func TestBuild_ExteriorBoundary(t *testing.T) {
	b, edges := build(t, &floor.Inputs{
		Plan:  phased(),
		Rooms: []floor.Room{{ID: 1, Area: 10, Location: at(0, 0)}},
		Openings: []floor.Opening{{
			Kind: floor.BoundaryOpening, ID: 40, Location: at(2, 0),
			RoomID: 1, Room2: floor.InvalidElementID,
		}},
	})
	if edges != 1 {
		t.Errorf("exterior boundary touches one room, got %d edges", edges)
	}
	n := b.Graph().NodeByElement(40)
	if n == nil || n.Type != NodeRoomBoundary || n.Connection.Kind != ConnectionRoomBoundary {
		t.Errorf("expected a RoomBoundary connection node, got %v", n)
	}
}

func lineEdges(g *Graph, y float64) [][2]float64 {
	var out [][2]float64
	for _, e := range g.Edges() {
		if e.End1.Location.Y != y || e.End2.Location.Y != y {
			continue
		}
		a, b := e.End1.Location.X, e.End2.Location.X
		if a > b {
			a, b = b, a
		}
		out = append(out, [2]float64{a, b})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func TestBuild_TransitChainOrder(t *testing.T) {
	// Branch lines start at parameters 0.3 and 0.7 of the main line.
	b, _ := build(t, &floor.Inputs{
		Plan: phased(),
		TransitRooms: []floor.TransitRoom{{
			RoomID: 7, Name: "100: Hall",
			Lines: []floor.TransitSegment{
				{ID: 1, Segment: seg(0, 0, 10, 0)},
				{ID: 2, Segment: seg(7, 0, 7, 5)},
				{ID: 3, Segment: seg(3, 0, 3, 5)},
			},
		}},
	})
	g := b.Graph()

	got := lineEdges(g, 0)
	want := [][2]float64{{0, 3}, {3, 7}, {7, 10}}
	if len(got) != len(want) {
		t.Fatalf("expected main line chain %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chain edge %d: want %v, got %v", i, want[i], got[i])
		}
	}
	if g.EdgeCount() != 5 {
		t.Errorf("expected 3 chain edges plus 2 branch edges, got %d", g.EdgeCount())
	}

	anchor := g.LookupByLocation(at(0, 0))
	if anchor.Type != NodeRoom || anchor.Name != "100: Hall" || anchor.ElementID != 7 {
		t.Errorf("first endpoint should be promoted to the room anchor, got %v", anchor)
	}
	if len(g.RoomNodes()) != 1 {
		t.Errorf("expected one room node, got %d", len(g.RoomNodes()))
	}
}

func TestBuild_TransitLinesShareEndpoints(t *testing.T) {
	b, edges := build(t, &floor.Inputs{
		Plan: phased(),
		TransitRooms: []floor.TransitRoom{{
			RoomID: 7, Name: "Hall",
			Lines: []floor.TransitSegment{
				{ID: 1, Segment: seg(0, 0, 5, 0)},
				{ID: 2, Segment: seg(5, 0.0005, 10, 0)},
			},
		}},
	})
	if b.Graph().NodeCount() != 3 {
		t.Errorf("coincident line ends should share a node, got %d nodes", b.Graph().NodeCount())
	}
	if edges != 2 {
		t.Errorf("expected 2 edges, got %d", edges)
	}
}

func TestBuild_DoorAttachedToTransitLine(t *testing.T) {
	b, _ := build(t, &floor.Inputs{
		Plan:  phased(),
		Rooms: []floor.Room{{ID: 1, Number: "101", Name: "Office", Area: 50, Location: at(4, 6)}},
		TransitRooms: []floor.TransitRoom{{
			RoomID: 2, Name: "102: Corridor",
			Lines: []floor.TransitSegment{{ID: 9, Segment: seg(0, 0, 10, 0)}},
		}},
		Openings: []floor.Opening{
			door(10, 1, 2, 4, 2, false),
			door(11, 2, floor.InvalidElementID, 10, 1, true),
		},
	})
	g := b.Graph()

	tp := g.LookupByLocation(at(4, 0))
	if tp == nil || tp.Type != NodeTransitPoint {
		t.Fatalf("door should project to a transit point at (4,0), got %v", tp)
	}
	d10 := g.NodeByElement(10)
	if _, ok := g.Edge(d10, tp); !ok {
		t.Error("door should be joined to its projection")
	}

	got := lineEdges(g, 0)
	want := [][2]float64{{0, 4}, {4, 10}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("line should be split at the projection, want %v got %v", want, got)
	}

	// The exit projects onto the line end; no zero-length edge is made.
	d11 := g.NodeByElement(11)
	end := g.LookupByLocation(at(10, 0))
	if _, ok := g.Edge(d11, end); !ok {
		t.Error("exit should join the line end it projects onto")
	}
	for _, e := range g.Edges() {
		if e.Distance < CurveTolerance {
			t.Errorf("degenerate edge %v-%v", e.End1, e.End2)
		}
	}

	route, found, err := FindPath(g.NodeByElement(1), d11)
	if err != nil || !found {
		t.Fatalf("office should reach the exit, found=%v err=%v", found, err)
	}
	if route.Nodes[1] != d10 {
		t.Errorf("route should leave through D10, got %v", routeNames(route))
	}
}

func TestBuild_DegenerateTransitFallsBackToEndpoint(t *testing.T) {
	b, _ := build(t, &floor.Inputs{
		Plan: phased(),
		TransitRooms: []floor.TransitRoom{{
			RoomID: 2, Name: "Nook",
			Lines: []floor.TransitSegment{{ID: 9, Segment: seg(5, 5, 5, 5)}},
		}},
		Openings: []floor.Opening{door(11, 2, floor.InvalidElementID, 6, 5, true)},
	})
	g := b.Graph()
	d := g.NodeByElement(11)
	if d.Degree() != 1 {
		t.Fatalf("door should have exactly one edge, got %d", d.Degree())
	}
	other, _ := d.Neighbors[0].Other(d)
	if other.Location != at(5, 5) {
		t.Errorf("door should attach to the line end, got %v", other.Location)
	}
}

func TestBuild_SharedFirstEndpointSynthesizesAnchor(t *testing.T) {
	b, _ := build(t, &floor.Inputs{
		Plan: phased(),
		TransitRooms: []floor.TransitRoom{
			{RoomID: 1, Name: "A", Lines: []floor.TransitSegment{{ID: 1, Segment: seg(0, 0, 5, 0)}}},
			{RoomID: 2, Name: "B", Lines: []floor.TransitSegment{{ID: 2, Segment: seg(0, 0, 0, 5)}}},
		},
	})
	g := b.Graph()
	rooms := g.RoomNodes()
	if len(rooms) != 2 {
		t.Fatalf("each transit room needs an anchor, got %d", len(rooms))
	}
	synth := g.NodeByElement(2)
	if synth == nil || synth.Name != "B" || synth.Degree() != 1 {
		t.Errorf("room B should get a synthesized anchor joined to the shared point, got %v", synth)
	}
}

func TestBuild_AnchorSplicedIntoCrossingLine(t *testing.T) {
	// The first line starts midway along the second, forming a T.
	b, _ := build(t, &floor.Inputs{
		Plan: phased(),
		TransitRooms: []floor.TransitRoom{{
			RoomID: 7, Name: "100: Hall",
			Lines: []floor.TransitSegment{
				{ID: 1, Segment: seg(5, 0, 5, 5)},
				{ID: 2, Segment: seg(0, 0, 10, 0)},
			},
		}},
		Openings: []floor.Opening{door(11, 7, floor.InvalidElementID, 10, 1, true)},
	})
	g := b.Graph()

	anchor := g.LookupByLocation(at(5, 0))
	if anchor == nil || anchor.Type != NodeRoom {
		t.Fatalf("expected the room anchor at (5,0), got %v", anchor)
	}
	if anchor.Degree() != 3 {
		t.Errorf("anchor should join its own line and both halves of the crossing line, got degree %d", anchor.Degree())
	}

	got := lineEdges(g, 0)
	want := [][2]float64{{0, 5}, {5, 10}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("crossing line should be split at the anchor, want %v got %v", want, got)
	}

	route, found, err := FindPath(anchor, g.NodeByElement(11))
	if err != nil || !found {
		t.Fatalf("room anchor should reach the exit, found=%v err=%v", found, err)
	}
	if route.TotalDistance != 6 {
		t.Errorf("expected 5 ft along the line plus 1 ft to the door, got %v", route.TotalDistance)
	}
}
