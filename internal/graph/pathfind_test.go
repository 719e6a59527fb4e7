package graph

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func routeNames(r *Route) []string {
	var names []string
	for _, n := range r.Nodes {
		names = append(names, n.Name)
	}
	return names
}

func sameNames(got []string, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// checkRoute verifies that the route walks real edges, repeats no node, and
// reports the sum of the edges it walked.
func checkRoute(t *testing.T, r *Route, start, target *Node) {
	t.Helper()
	if r.Start() != start || r.End() != target {
		t.Fatalf("route runs %v -> %v, want %v -> %v", r.Start(), r.End(), start, target)
	}
	seen := make(map[NodeID]bool)
	for _, n := range r.Nodes {
		if seen[n.ID] {
			t.Fatalf("node %v repeated in %v", n, routeNames(r))
		}
		seen[n.ID] = true
	}
	lengths, ok := r.EdgeLengths()
	if !ok {
		t.Fatalf("route %v steps between non-adjacent nodes", routeNames(r))
	}
	sum := 0.0
	for _, l := range lengths {
		sum += l
	}
	if math.Abs(sum-r.TotalDistance) > 1e-9 {
		t.Errorf("route distance %f, sum of edges %f", r.TotalDistance, sum)
	}
}

func TestFindPath_Unreachable(t *testing.T) {
	_, n := quickGraph(
		[]string{"A", "B", "C", "D"},
		[][2]string{{"A", "B"}, {"C", "D"}},
	)
	route, found, err := FindPath(n["A"], n["D"])
	if err != nil {
		t.Fatalf("unreachable target is not an error, got %v", err)
	}
	if found || route != nil {
		t.Errorf("expected no route, got %v", route)
	}
}

func TestFindPath_SameNode(t *testing.T) {
	_, n := quickGraph([]string{"A"}, nil)
	route, found, err := FindPath(n["A"], n["A"])
	if err != nil || !found {
		t.Fatalf("expected trivial route, got found=%v err=%v", found, err)
	}
	if len(route.Nodes) != 1 || route.TotalDistance != 0 {
		t.Errorf("expected single-node route of length 0, got %v %f", routeNames(route), route.TotalDistance)
	}
}

func TestFindPath_NilNode(t *testing.T) {
	_, n := quickGraph([]string{"A"}, nil)
	if _, _, err := FindPath(n["A"], nil); !errors.Is(err, ErrNilNode) {
		t.Errorf("expected ErrNilNode, got %v", err)
	}
}

func TestFindPath_TakesTargetOnSight(t *testing.T) {
	g := New()
	s := addNode(g, NodeRoom, "S", 0, 0)
	far := addNode(g, NodeTransitPoint, "far", 9, 5)
	near := addNode(g, NodeTransitPoint, "near", 1, 0)
	target := addEgress(g, "T", 10, 0)
	g.MakeEdge(s, near)
	g.MakeEdge(near, target)
	g.MakeEdge(s, far)
	g.MakeEdge(far, target)

	route, found, err := FindPath(s, target)
	if err != nil || !found {
		t.Fatalf("expected a route, got found=%v err=%v", found, err)
	}
	checkRoute(t, route, s, target)
	// far is closer to T so it is tried first, and T is taken from there even
	// though S-near-T is shorter.
	if !sameNames(routeNames(route), "S", "far", "T") {
		t.Errorf("expected S far T, got %v", routeNames(route))
	}
	if route.TotalDistance <= 10 {
		t.Errorf("greedy route should be longer than the 10 ft alternative, got %f", route.TotalDistance)
	}
}

func TestFindPath_DirectNeighbourWins(t *testing.T) {
	g := New()
	s := addNode(g, NodeRoom, "S", 0, 0)
	mid := addNode(g, NodeTransitPoint, "mid", 5, 0)
	target := addEgress(g, "T", 10, 10)
	g.MakeEdge(s, mid)
	g.MakeEdge(mid, target)
	g.MakeEdge(s, target)

	route, found, _ := FindPath(s, target)
	if !found || !sameNames(routeNames(route), "S", "T") {
		t.Errorf("adjacent target must be accepted immediately, got %v", routeNames(route))
	}
}

func TestFindPath_BacktracksFromDeadEnd(t *testing.T) {
	g := New()
	s := addNode(g, NodeRoom, "S", 0, 0)
	dead := addNode(g, NodeTransitPoint, "dead", 9, 1)
	deader := addNode(g, NodeTransitPoint, "deader", 9.5, 2)
	detour := addNode(g, NodeTransitPoint, "detour", 0, 5)
	target := addEgress(g, "T", 10, 0)
	g.MakeEdge(s, dead)
	g.MakeEdge(dead, deader)
	g.MakeEdge(s, detour)
	g.MakeEdge(detour, target)

	route, found, err := FindPath(s, target)
	if err != nil || !found {
		t.Fatalf("expected a route, got found=%v err=%v", found, err)
	}
	checkRoute(t, route, s, target)
	if !sameNames(routeNames(route), "S", "detour", "T") {
		t.Errorf("expected S detour T after backtracking, got %v", routeNames(route))
	}
}

func TestFindPath_DoesNotRevisitOnCycle(t *testing.T) {
	_, n := quickGraph(
		[]string{"A", "B", "C", "D", "E"},
		[][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}, {"C", "D"}, {"D", "B"}, {"D", "E"}},
	)
	route, found, _ := FindPath(n["A"], n["E"])
	if !found {
		t.Fatal("E is reachable")
	}
	checkRoute(t, route, n["A"], n["E"])
}

func reachable(from, to *Node) bool {
	seen := map[NodeID]bool{from.ID: true}
	queue := []*Node{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return true
		}
		for _, e := range cur.Neighbors {
			other, _ := e.Other(cur)
			if !seen[other.ID] {
				seen[other.ID] = true
				queue = append(queue, other)
			}
		}
	}
	return false
}

func TestFindPath_ExhaustiveOnRandomGraphs(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 40; trial++ {
		g := New()
		nodes := make([]*Node, 9)
		for i := range nodes {
			nodes[i] = addNode(g, NodeTransitPoint, "", rng.Float64()*20, rng.Float64()*20)
		}
		for k := 0; k < 11; k++ {
			g.MakeEdge(nodes[rng.Intn(len(nodes))], nodes[rng.Intn(len(nodes))])
		}

		for _, a := range nodes {
			for _, b := range nodes {
				route, found, err := FindPath(a, b)
				if err != nil {
					t.Fatalf("trial %d: unexpected error %v", trial, err)
				}
				if found != reachable(a, b) {
					t.Fatalf("trial %d: %v -> %v found=%v, reachable=%v", trial, a, b, found, !found)
				}
				if found {
					checkRoute(t, route, a, b)
				}
			}
		}
	}
}
