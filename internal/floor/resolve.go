package floor

import (
	"fmt"

	"lifesaver/egress/internal/geom"
)

// BoundaryDedupTolerance is the distance below which two boundary crossings
// are taken to be the same crossing.
const BoundaryDedupTolerance = 0.01

// DefaultEgressParam is the door parameter that flags an egress door.
const DefaultEgressParam = "Egress"

// OpeningKind distinguishes doors from boundary crossings.
type OpeningKind int

const (
	DoorOpening OpeningKind = iota
	BoundaryOpening
)

func (k OpeningKind) String() string {
	if k == DoorOpening {
		return "door"
	}
	return "boundary"
}

// Opening is a door or boundary crossing resolved to the rooms it joins.
// Room2 is InvalidElementID for exterior boundaries and doors with no
// far-side room.
type Opening struct {
	Kind     OpeningKind
	ID       ElementID
	Name     string
	LevelID  ElementID
	Location geom.Point
	RoomID   ElementID
	Room2    ElementID
	IsEgress bool
}

// Touches reports whether the opening connects to room.
func (o Opening) Touches(room ElementID) bool {
	return o.RoomID == room || o.Room2 == room
}

// TransitSegment is one transit line of a transit room.
type TransitSegment struct {
	ID      ElementID
	Segment geom.Segment
}

// TransitRoom is a room modelled as an internal path network.
type TransitRoom struct {
	RoomID  ElementID
	LevelID ElementID
	Name    string
	Lines   []TransitSegment
}

// Inputs is the resolved, phase-filtered view of a Plan that the network
// builder consumes. It also answers the occupancy and width queries the
// clear-width analyzer needs.
type Inputs struct {
	Plan         *Plan
	Rooms        []Room
	TransitRooms []TransitRoom
	Openings     []Opening

	rooms map[ElementID]*Room
	doors map[ElementID]*Door
}

// ResolveOptions controls plan resolution.
type ResolveOptions struct {
	// EgressParam is the door parameter whose value 1 marks an egress door.
	EgressParam string
}

// Resolve filters the plan to its phase and turns the raw records into
// builder inputs. It fails on a missing phase and on transit lines that do
// not lie within a single room.
func (p *Plan) Resolve(opts ResolveOptions) (*Inputs, error) {
	if p.Phase == "" {
		return nil, ConfigError(InvalidElementID, "the plan has no phase")
	}
	param := opts.EgressParam
	if param == "" {
		param = DefaultEgressParam
	}

	in := &Inputs{
		Plan:  p,
		rooms: make(map[ElementID]*Room),
		doors: make(map[ElementID]*Door),
	}

	var phased []*Room
	for i := range p.Rooms {
		r := &p.Rooms[i]
		if r.Phase != "" && r.Phase != p.Phase {
			continue
		}
		phased = append(phased, r)
		in.rooms[r.ID] = r
	}

	transit, err := groupTransitLines(p.TransitLines, phased, in.rooms)
	if err != nil {
		return nil, err
	}
	in.TransitRooms = transit

	inScope := make(map[ElementID]bool)
	isTransit := make(map[ElementID]bool)
	for _, tr := range transit {
		inScope[tr.RoomID] = true
		isTransit[tr.RoomID] = true
	}
	for _, r := range phased {
		if isTransit[r.ID] {
			continue
		}
		in.Rooms = append(in.Rooms, *r)
		if r.Area > 0 {
			inScope[r.ID] = true
		}
	}

	for i := range p.Doors {
		d := &p.Doors[i]
		in.doors[d.ID] = d
		if !d.PhaseStatus.InPhase() {
			continue
		}
		o := doorOpening(d, param)
		if !inScope[o.RoomID] && !inScope[o.Room2] {
			continue
		}
		in.Openings = append(in.Openings, o)
	}

	var kept []geom.Point
	for _, b := range p.Boundaries {
		if !inScope[b.RoomA] && !inScope[b.RoomB] {
			continue
		}
		if containsNear(kept, b.Midpoint, BoundaryDedupTolerance) {
			continue
		}
		kept = append(kept, b.Midpoint)
		room2 := b.RoomB
		if !room2.Valid() {
			room2 = InvalidElementID
		}
		in.Openings = append(in.Openings, Opening{
			Kind:     BoundaryOpening,
			ID:       b.ID,
			Name:     fmt.Sprintf("Boundary %d", b.ID),
			LevelID:  b.LevelID,
			Location: b.Midpoint,
			RoomID:   b.RoomA,
			Room2:    room2,
		})
	}

	return in, nil
}

func doorOpening(d *Door, egressParam string) Opening {
	var at geom.Point
	switch {
	case d.Location != nil:
		at = *d.Location
	case d.BoundingBox != nil:
		at = d.BoundingBox.Center()
	}

	room, room2 := InvalidElementID, InvalidElementID
	if d.FromRoom.Valid() {
		room = d.FromRoom
	}
	if d.ToRoom.Valid() {
		if !room.Valid() {
			room = d.ToRoom
		}
		room2 = d.ToRoom
	}

	name := d.Mark
	if name == "" {
		name = fmt.Sprintf("Door %d", d.ID)
	}
	return Opening{
		Kind:     DoorOpening,
		ID:       d.ID,
		Name:     name,
		LevelID:  d.LevelID,
		Location: at,
		RoomID:   room,
		Room2:    room2,
		IsEgress: d.Params[egressParam] == 1,
	}
}

func containsNear(points []geom.Point, p geom.Point, tol float64) bool {
	for _, q := range points {
		if q.AlmostEqual(p, tol) {
			return true
		}
	}
	return false
}

// groupTransitLines assigns every transit line to a room and groups lines per
// room in first-seen order.
func groupTransitLines(lines []TransitLine, phased []*Room, byID map[ElementID]*Room) ([]TransitRoom, error) {
	var out []TransitRoom
	index := make(map[ElementID]int)

	for _, line := range lines {
		room, err := transitRoomFor(line, phased, byID)
		if err != nil {
			return nil, err
		}
		i, ok := index[room.ID]
		if !ok {
			i = len(out)
			index[room.ID] = i
			out = append(out, TransitRoom{
				RoomID:  room.ID,
				LevelID: room.LevelID,
				Name:    room.Number + ": " + room.Name,
			})
		}
		out[i].Lines = append(out[i].Lines, TransitSegment{ID: line.ID, Segment: line.Segment()})
	}
	return out, nil
}

func transitRoomFor(line TransitLine, phased []*Room, byID map[ElementID]*Room) (*Room, error) {
	if line.RoomID.Valid() {
		room, ok := byID[line.RoomID]
		if !ok {
			return nil, ConfigError(line.ID, "transit line refers to room %d which is not in the phase", line.RoomID)
		}
		return room, nil
	}

	start := roomContaining(phased, line.Start)
	end := roomContaining(phased, line.End)
	if start == nil || end == nil {
		return nil, GeometryError(line.ID, "transit line is not entirely in a room")
	}
	if start.ID != end.ID {
		return nil, GeometryError(line.ID, "transit line is not entirely in the same room")
	}
	return start, nil
}

func roomContaining(rooms []*Room, p geom.Point) *Room {
	for _, r := range rooms {
		if len(r.Outline) >= 3 && r.Outline.Contains(p) {
			return r
		}
	}
	return nil
}

// OccupancyLoad returns the room's occupancy load. A missing attribute is a
// configuration error.
func (in *Inputs) OccupancyLoad(room ElementID) (int, error) {
	r, ok := in.rooms[room]
	if !ok {
		return 0, ConfigError(room, "room is not part of the analysis")
	}
	if r.OccupancyLoad == nil {
		return 0, ConfigError(room, "room %s has no occupancy load", r.Label())
	}
	return *r.OccupancyLoad, nil
}

// DoorWidth returns the door's physical width: the type width when present,
// otherwise the instance width.
func (in *Inputs) DoorWidth(door ElementID) (float64, error) {
	d, ok := in.doors[door]
	if !ok {
		return 0, ConfigError(door, "door is not part of the analysis")
	}
	switch {
	case d.TypeWidth != nil:
		return *d.TypeWidth, nil
	case d.InstanceWidth != nil:
		return *d.InstanceWidth, nil
	default:
		return 0, ConfigError(door, "door %s has no width on its type or instance", d.Mark)
	}
}

// RoomRecord returns the in-phase room record for id.
func (in *Inputs) RoomRecord(id ElementID) (*Room, bool) {
	r, ok := in.rooms[id]
	return r, ok
}
