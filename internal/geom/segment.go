package geom

// Segment is a bounded straight line from Start to End.
type Segment struct {
	Start Point `json:"start" yaml:"start"`
	End   Point `json:"end" yaml:"end"`
}

// Projection is the closest point on a segment to some query point.
type Projection struct {
	Point     Point
	Parameter float64 // normalized, 0 at Start and 1 at End
	Distance  float64 // from the query point to Point
}

// Length is the distance from Start to End.
func (s Segment) Length() float64 { return s.Start.DistanceTo(s.End) }

// Evaluate returns the point at normalized parameter t.
func (s Segment) Evaluate(t float64) Point {
	return s.Start.Add(s.End.Sub(s.Start).Scale(t))
}

// Project finds the closest point on the segment to p. The parameter is
// clamped to [0, 1], so points beyond either end project onto that end.
func (s Segment) Project(p Point) Projection {
	dir := s.End.Sub(s.Start)
	lenSq := dir.Dot(dir)
	t := 0.0
	if lenSq > 0 {
		t = p.Sub(s.Start).Dot(dir) / lenSq
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	onLine := s.Evaluate(t)
	return Projection{
		Point:     onLine,
		Parameter: t,
		Distance:  onLine.DistanceTo(p),
	}
}
