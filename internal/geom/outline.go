package geom

// Outline is a closed boundary loop given by its vertices in order. The
// closing edge from the last vertex back to the first is implicit.
type Outline []Point

// Edge returns the i-th edge, wrapping around at the end.
func (o Outline) Edge(i int) Segment {
	n := len(o)
	return Segment{Start: o[i%n], End: o[(i+1)%n]}
}

// Perimeter is the total length of the loop.
func (o Outline) Perimeter() float64 {
	total := 0.0
	for i := range o {
		total += o.Edge(i).Length()
	}
	return total
}

// Contains reports whether p lies inside the outline, tested in plan (XY).
// Points exactly on an edge may land on either side.
func (o Outline) Contains(p Point) bool {
	inside := false
	n := len(o)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := o[i], o[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xCross := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// FarthestVertex returns the index of the vertex farthest from p, or -1 for
// an empty outline.
func (o Outline) FarthestVertex(p Point) int {
	best, bestDist := -1, -1.0
	for i, v := range o {
		if d := v.DistanceTo(p); d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// NearestEdge returns the index of the edge closest to p and the projection
// of p onto it. Returns -1 for outlines with fewer than two vertices.
func (o Outline) NearestEdge(p Point) (int, Projection) {
	if len(o) < 2 {
		return -1, Projection{}
	}
	best := -1
	var bestProj Projection
	for i := range o {
		proj := o.Edge(i).Project(p)
		if best < 0 || proj.Distance < bestProj.Distance {
			best, bestProj = i, proj
		}
	}
	return best, bestProj
}

// LongerWayAround walks the outline from a point lying on edge fromEdge to
// the vertex toVertex in both directions and returns the longer walk (its
// points in walking order, starting at from) and its length.
func (o Outline) LongerWayAround(from Point, fromEdge, toVertex int, tol float64) ([]Point, float64) {
	n := len(o)
	if n == 0 || fromEdge < 0 || toVertex < 0 {
		return nil, 0
	}

	// Forward leaves through the edge's end vertex, backward through its start.
	forward, fwdLen := o.walk(from, (fromEdge+1)%n, toVertex, 1, tol)
	backward, backLen := o.walk(from, fromEdge%n, toVertex, -1, tol)

	if fwdLen > backLen {
		return forward, fwdLen
	}
	return backward, backLen
}

func (o Outline) walk(from Point, first, target, step int, tol float64) ([]Point, float64) {
	n := len(o)
	points := []Point{from}
	total := 0.0
	last := from

	if from.AlmostEqual(o[target], tol) {
		return points, 0
	}

	for k, i := 0, first; k < n; k, i = k+1, (i+step+n)%n {
		v := o[i]
		if !v.AlmostEqual(last, tol) {
			total += last.DistanceTo(v)
			points = append(points, v)
			last = v
		}
		if i == target {
			break
		}
	}
	return points, total
}
