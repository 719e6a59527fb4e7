package egress

import (
	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/geom"
	"lifesaver/egress/internal/graph"
)

// RoomTravel is the common path of travel inside one room: the longer walk
// along the room outline from the door to the corner farthest from it.
type RoomTravel struct {
	RoomID   floor.ElementID `json:"room_id"`
	DoorID   floor.ElementID `json:"door_id"`
	Points   []geom.Point    `json:"points"`
	Distance float64         `json:"distance"`
}

// RoomCommonPath computes the room's common path from a door location. The
// door is projected onto the nearest outline edge first.
func RoomCommonPath(room *floor.Room, doorID floor.ElementID, door geom.Point) (*RoomTravel, error) {
	if len(room.Outline) < 3 {
		return nil, floor.ConfigError(room.ID, "room %s has no outline", room.Label())
	}
	far := room.Outline.FarthestVertex(door)
	edge, proj := room.Outline.NearestEdge(door)
	points, dist := room.Outline.LongerWayAround(proj.Point, edge, far, graph.LocationTolerance)
	return &RoomTravel{
		RoomID:   room.ID,
		DoorID:   doorID,
		Points:   points,
		Distance: dist,
	}, nil
}
