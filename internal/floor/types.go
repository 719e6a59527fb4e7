// Package floor holds the spatial records an egress analysis consumes: rooms,
// doors, boundary crossings and transit lines for one floor, plus the
// resolution step that turns a raw Plan into builder inputs.
package floor

import (
	"strconv"

	"lifesaver/egress/internal/geom"
)

// ElementID identifies an element of the source building model.
type ElementID int64

// InvalidElementID marks "no element", e.g. the exterior side of a boundary.
const InvalidElementID ElementID = -1

// Valid reports whether id refers to an element. Zero is treated as unset.
func (id ElementID) Valid() bool { return id > 0 }

func (id ElementID) String() string {
	if !id.Valid() {
		return "none"
	}
	return strconv.FormatInt(int64(id), 10)
}

// PhaseStatus is a door's status in the analysed phase.
type PhaseStatus string

const (
	PhaseExisting   PhaseStatus = "existing"
	PhaseNew        PhaseStatus = "new"
	PhaseDemolished PhaseStatus = "demolished"
	PhaseTemporary  PhaseStatus = "temporary"
	PhasePast       PhaseStatus = "past"
	PhaseFuture     PhaseStatus = "future"
)

// InPhase reports whether a door with this status exists in the phase.
// An empty status counts as existing.
func (s PhaseStatus) InPhase() bool {
	switch s {
	case "", PhaseExisting, PhaseNew:
		return true
	default:
		return false
	}
}

// Room is one room record.
type Room struct {
	ID            ElementID    `json:"id" yaml:"id" validate:"required,gt=0"`
	Number        string       `json:"number" yaml:"number"`
	Name          string       `json:"name" yaml:"name"`
	Area          float64      `json:"area" yaml:"area" validate:"gte=0"`
	Location      geom.Point   `json:"location" yaml:"location"`
	LevelID       ElementID    `json:"level_id,omitempty" yaml:"level_id,omitempty"`
	Phase         string       `json:"phase,omitempty" yaml:"phase,omitempty"`
	OccupancyLoad *int         `json:"occupancy_load,omitempty" yaml:"occupancy_load,omitempty" validate:"omitempty,gte=0"`
	Outline       geom.Outline `json:"outline,omitempty" yaml:"outline,omitempty" validate:"omitempty,min=3"`
}

// Label is the display name used for room nodes.
func (r Room) Label() string {
	return r.Number + "-" + r.Name
}

// Door is one door record. The egress flag is not a field: it is resolved
// from Params using a configurable parameter name.
type Door struct {
	ID            ElementID      `json:"id" yaml:"id" validate:"required,gt=0"`
	Mark          string         `json:"mark" yaml:"mark"`
	LevelID       ElementID      `json:"level_id,omitempty" yaml:"level_id,omitempty"`
	Location      *geom.Point    `json:"location,omitempty" yaml:"location,omitempty"`
	BoundingBox   *geom.Box      `json:"bounding_box,omitempty" yaml:"bounding_box,omitempty"`
	FromRoom      ElementID      `json:"from_room,omitempty" yaml:"from_room,omitempty"`
	ToRoom        ElementID      `json:"to_room,omitempty" yaml:"to_room,omitempty"`
	TypeWidth     *float64       `json:"type_width,omitempty" yaml:"type_width,omitempty" validate:"omitempty,gte=0"`
	InstanceWidth *float64       `json:"instance_width,omitempty" yaml:"instance_width,omitempty" validate:"omitempty,gte=0"`
	Params        map[string]int `json:"params,omitempty" yaml:"params,omitempty"`
	PhaseStatus   PhaseStatus    `json:"phase_status,omitempty" yaml:"phase_status,omitempty" validate:"omitempty,oneof=existing new demolished temporary past future"`
}

// Boundary is a room-separation crossing between RoomA and RoomB. RoomB is
// unset for exterior boundaries.
type Boundary struct {
	ID       ElementID  `json:"id" yaml:"id" validate:"required,gt=0"`
	RoomA    ElementID  `json:"room_a" yaml:"room_a" validate:"required,gt=0"`
	RoomB    ElementID  `json:"room_b,omitempty" yaml:"room_b,omitempty"`
	Midpoint geom.Point `json:"midpoint" yaml:"midpoint"`
	LevelID  ElementID  `json:"level_id,omitempty" yaml:"level_id,omitempty"`
}

// TransitLine is one connector segment. RoomID may be left unset, in which
// case the room is found from the room outlines.
type TransitLine struct {
	ID     ElementID  `json:"id" yaml:"id" validate:"required,gt=0"`
	RoomID ElementID  `json:"room_id,omitempty" yaml:"room_id,omitempty"`
	Start  geom.Point `json:"start" yaml:"start"`
	End    geom.Point `json:"end" yaml:"end"`
}

// Segment returns the line's geometry.
func (t TransitLine) Segment() geom.Segment {
	return geom.Segment{Start: t.Start, End: t.End}
}

// Plan is the full set of records for one floor in one phase.
type Plan struct {
	Name         string        `json:"name" yaml:"name"`
	Phase        string        `json:"phase" yaml:"phase"`
	Rooms        []Room        `json:"rooms" yaml:"rooms" validate:"dive"`
	Doors        []Door        `json:"doors" yaml:"doors" validate:"dive"`
	Boundaries   []Boundary    `json:"boundaries,omitempty" yaml:"boundaries,omitempty" validate:"dive"`
	TransitLines []TransitLine `json:"transit_lines,omitempty" yaml:"transit_lines,omitempty" validate:"dive"`
}

// Room looks up a room record by id.
func (p *Plan) Room(id ElementID) (*Room, bool) {
	for i := range p.Rooms {
		if p.Rooms[i].ID == id {
			return &p.Rooms[i], true
		}
	}
	return nil, false
}

// Door looks up a door record by id.
func (p *Plan) Door(id ElementID) (*Door, bool) {
	for i := range p.Doors {
		if p.Doors[i].ID == id {
			return &p.Doors[i], true
		}
	}
	return nil, false
}
