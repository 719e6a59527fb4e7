package graph

import (
	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/geom"
)

// TransitLine is one connector segment inside a transit room, with the
// nodes at its two ends.
type TransitLine struct {
	ElementID floor.ElementID
	RoomID    floor.ElementID
	Segment   geom.Segment
	End1      *Node
	End2      *Node
}

// RoomWithTransitLines is a room represented by its transit lines instead of
// a single room node.
type RoomWithTransitLines struct {
	RoomID  floor.ElementID
	LevelID floor.ElementID
	Name    string
	Lines   []*TransitLine
}

// NearestProjection projects p onto every line and returns the closest
// projection and the line it lies on. ok is false when the room has no line
// with a usable direction.
func (r *RoomWithTransitLines) NearestProjection(p geom.Point) (proj geom.Projection, line *TransitLine, ok bool) {
	for _, l := range r.Lines {
		if l.Segment.Length() < CurveTolerance {
			continue
		}
		candidate := l.Segment.Project(p)
		if !ok || candidate.Distance < proj.Distance {
			proj, line, ok = candidate, l, true
		}
	}
	return proj, line, ok
}

// NearestEndpoint returns the line end closest to p, or nil when the room
// has no lines.
func (r *RoomWithTransitLines) NearestEndpoint(p geom.Point) *Node {
	var best *Node
	bestDist := 0.0
	for _, l := range r.Lines {
		for _, end := range [2]*Node{l.End1, l.End2} {
			if d := end.Location.DistanceTo(p); best == nil || d < bestDist {
				best, bestDist = end, d
			}
		}
	}
	return best
}
