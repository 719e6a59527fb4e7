package egress

import (
	"encoding/json"

	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/graph"
)

// InchesPerFoot converts an inches-per-occupant allowance to feet.
const InchesPerFoot = 12.0

// LoadSource answers the attribute queries of the clear-width check.
type LoadSource interface {
	OccupancyLoad(room floor.ElementID) (int, error)
	DoorWidth(door floor.ElementID) (float64, error)
}

// ClearWidth is the width check for one door.
type ClearWidth struct {
	DoorID        floor.ElementID `json:"door_id"`
	Name          string          `json:"name"`
	Width         float64         `json:"width"`
	OccupancyLoad int             `json:"occupancy_load"`
	RequiredWidth float64         `json:"required_width"`
}

// IsOK reports whether the door is at least as wide as required.
func (c *ClearWidth) IsOK() bool { return c.Width >= c.RequiredWidth }

// MarshalJSON adds the ok verdict to the encoded record.
func (c *ClearWidth) MarshalJSON() ([]byte, error) {
	type plain ClearWidth
	return json.Marshal(struct {
		*plain
		OK bool `json:"ok"`
	}{(*plain)(c), c.IsOK()})
}

// CheckClearWidth walks each route from its room toward the exit, adding
// the occupancy load of every room node passed to a running total, and
// charges the running total to every door crossed. A door's record is
// created the first time any route crosses it. Required width is
// inchesPerOccupant / 12 times the accumulated load.
//
// Results are in first-seen order. A missing occupancy load or door width
// aborts the check.
func CheckClearWidth(routes []*graph.Route, inchesPerOccupant float64, src LoadSource) ([]*ClearWidth, error) {
	var order []*ClearWidth
	byDoor := make(map[floor.ElementID]*ClearWidth)

	for _, route := range routes {
		if route == nil {
			continue
		}
		running := 0
		for _, n := range route.Nodes {
			switch n.Type {
			case graph.NodeRoom:
				load, err := src.OccupancyLoad(n.RoomID)
				if err != nil {
					return nil, err
				}
				running += load
			case graph.NodeDoor:
				cw, ok := byDoor[n.ElementID]
				if !ok {
					width, err := src.DoorWidth(n.ElementID)
					if err != nil {
						return nil, err
					}
					cw = &ClearWidth{DoorID: n.ElementID, Name: n.Name, Width: width}
					byDoor[n.ElementID] = cw
					order = append(order, cw)
				}
				cw.OccupancyLoad += running
			}
		}
	}

	for _, cw := range order {
		cw.RequiredWidth = inchesPerOccupant / InchesPerFoot * float64(cw.OccupancyLoad)
	}
	return order, nil
}

// Failing returns the doors that are too narrow.
func Failing(widths []*ClearWidth) []*ClearWidth {
	var out []*ClearWidth
	for _, cw := range widths {
		if !cw.IsOK() {
			out = append(out, cw)
		}
	}
	return out
}
