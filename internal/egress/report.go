package egress

import (
	"errors"
	"sort"

	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/geom"
	"lifesaver/egress/internal/graph"
)

// ErrNotInNetwork is returned when a room or door id has no node in the
// built network.
var ErrNotInNetwork = errors.New("element not in egress network")

// StepView is one node of a route as reported.
type StepView struct {
	Name      string          `json:"name"`
	Type      graph.NodeType  `json:"type"`
	ElementID floor.ElementID `json:"element_id,omitempty"`
	Location  geom.Point      `json:"location"`
	Leg       float64         `json:"leg"`
}

// RouteView is a route flattened for output.
type RouteView struct {
	Room          string     `json:"room"`
	Exit          string     `json:"exit"`
	TotalDistance float64    `json:"total_distance"`
	OverTravel    bool       `json:"over_travel"`
	Doors         []string   `json:"doors"`
	Steps         []StepView `json:"steps"`
}

// NewRouteView flattens a route. Leg is the distance walked from the
// previous step.
func NewRouteView(r *graph.Route, maxTravel float64) RouteView {
	v := RouteView{TotalDistance: r.TotalDistance}
	if s := r.Start(); s != nil {
		v.Room = s.Name
	}
	if e := r.End(); e != nil {
		v.Exit = e.Name
	}
	v.OverTravel = maxTravel > 0 && r.TotalDistance > maxTravel
	for _, d := range r.Doors() {
		v.Doors = append(v.Doors, d.Name)
	}

	legs, _ := r.EdgeLengths()
	for i, n := range r.Nodes {
		step := StepView{
			Name:      n.Name,
			Type:      n.Type,
			ElementID: n.ElementID,
			Location:  n.Location,
		}
		if i > 0 && i-1 < len(legs) {
			step.Leg = legs[i-1]
		}
		v.Steps = append(v.Steps, step)
	}
	return v
}

// RoomResult is the outcome for one room.
type RoomResult struct {
	Room        string          `json:"room"`
	ElementID   floor.ElementID `json:"element_id"`
	Best        *RouteView      `json:"best,omitempty"`
	Routes      []RouteView     `json:"routes,omitempty"`
	Unreachable []string        `json:"unreachable,omitempty"`
}

// Summary counts the findings of an analysis.
type Summary struct {
	Rooms        int     `json:"rooms"`
	Exits        int     `json:"exits"`
	Nodes        int     `json:"nodes"`
	Edges        int     `json:"edges"`
	Routed       int     `json:"routed"`
	Unreachable  int     `json:"unreachable"`
	OverTravel   int     `json:"over_travel"`
	FailingDoors int     `json:"failing_doors"`
	LongestRoute float64 `json:"longest_route"`
}

// Timings records phase durations in milliseconds.
type Timings struct {
	BuildMs  int64 `json:"build_ms"`
	SearchMs int64 `json:"search_ms"`
	TotalMs  int64 `json:"total_ms"`
}

// Report is the full result of Session.Analyze.
type Report struct {
	Plan        string                   `json:"plan"`
	Phase       string                   `json:"phase"`
	Fingerprint string                   `json:"fingerprint"`
	Options     Options                  `json:"options"`
	Summary     Summary                  `json:"summary"`
	Rooms       []RoomResult             `json:"rooms"`
	ClearWidths []*ClearWidth            `json:"clear_widths"`
	Diagnostics *graph.DiagnosticsReport `json:"diagnostics"`
	Timings     Timings                  `json:"timings"`
}

// OK reports whether every room reaches an exit within the travel limit
// and every door is wide enough.
func (r *Report) OK() bool {
	s := r.Summary
	return s.Unreachable == 0 && s.OverTravel == 0 && s.FailingDoors == 0
}

func newReport(s *Session, opts Options, all []*RoomRoutes, widths []*ClearWidth, diag *graph.DiagnosticsReport) *Report {
	rep := &Report{
		Plan:        s.Plan.Name,
		Phase:       s.Plan.Phase,
		Fingerprint: s.Plan.Fingerprint(),
		Options:     opts,
		Diagnostics: diag,
		Summary: Summary{
			Rooms: len(all),
			Exits: len(s.EgressNodes()),
			Nodes: s.Graph.NodeCount(),
			Edges: s.Graph.EdgeCount(),
		},
	}

	for _, rr := range all {
		res := RoomResult{Room: rr.Room.Name, ElementID: rr.Room.ElementID}
		for _, r := range rr.Routes {
			res.Routes = append(res.Routes, NewRouteView(r, opts.MaxTravel))
		}
		for _, n := range rr.Unreachable {
			res.Unreachable = append(res.Unreachable, n.Name)
		}
		if best := rr.Best(); best != nil {
			v := NewRouteView(best, opts.MaxTravel)
			res.Best = &v
			rep.Summary.Routed++
			if v.OverTravel {
				rep.Summary.OverTravel++
			}
			if best.TotalDistance > rep.Summary.LongestRoute {
				rep.Summary.LongestRoute = best.TotalDistance
			}
		} else {
			rep.Summary.Unreachable++
		}
		rep.Rooms = append(rep.Rooms, res)
	}

	// Failing doors first, then first-seen order.
	rep.ClearWidths = append([]*ClearWidth(nil), widths...)
	sort.SliceStable(rep.ClearWidths, func(i, j int) bool {
		return !rep.ClearWidths[i].IsOK() && rep.ClearWidths[j].IsOK()
	})
	rep.Summary.FailingDoors = len(Failing(widths))
	return rep
}
