// Package egress runs an analysis over one floor: it builds the egress
// network for a plan, routes every room to every exit, picks each room's
// best route, and checks door clear widths and travel distances.
package egress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/graph"
	"lifesaver/egress/internal/metrics"
)

// Defaults for Options.
const (
	DefaultMaxTravel         = 100.0
	DefaultInchesPerOccupant = 0.2
)

// Options tunes one analysis run.
type Options struct {
	// MaxTravel is the longest acceptable room-to-exit distance, in feet.
	MaxTravel float64 `json:"max_travel"`

	// InchesPerOccupant is the clear-width allowance per occupant.
	InchesPerOccupant float64 `json:"inches_per_occupant"`

	// Workers bounds how many rooms are searched at once. Values below 1
	// mean 1.
	Workers int `json:"workers"`

	// Progress, when set, is called after each room's searches complete.
	// Calls may come from several goroutines but never concurrently.
	Progress func(done, total int, room *graph.Node) `json:"-"`
}

// DefaultOptions returns the usual analysis settings.
func DefaultOptions() Options {
	return Options{
		MaxTravel:         DefaultMaxTravel,
		InchesPerOccupant: DefaultInchesPerOccupant,
		Workers:           1,
	}
}

// Config controls session construction.
type Config struct {
	EgressParam string
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
}

// Session owns a plan and the network built from it. The network is
// read-only after NewSession returns.
type Session struct {
	Plan      *floor.Plan
	Inputs    *floor.Inputs
	Graph     *graph.Graph
	Transit   []*graph.RoomWithTransitLines
	BuildTime time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics

	// findPath is graph.FindPath outside of tests.
	findPath func(start, target *graph.Node) (*graph.Route, bool, error)
}

// NewSession resolves the plan and builds its network.
func NewSession(plan *floor.Plan, cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("plan", plan.Name)

	in, err := plan.Resolve(floor.ResolveOptions{EgressParam: cfg.EgressParam})
	if err != nil {
		return nil, fmt.Errorf("resolving plan: %w", err)
	}

	start := time.Now()
	b := graph.NewBuilder(logger)
	edges, err := b.Build(in)
	if err != nil {
		return nil, fmt.Errorf("building network: %w", err)
	}
	elapsed := time.Since(start)
	cfg.Metrics.ObserveBuild(elapsed.Seconds())

	g := b.Graph()
	logger.Info("network built",
		"nodes", g.NodeCount(),
		"edges", edges,
		"rooms", len(g.RoomNodes()),
		"exits", len(g.EgressNodes()),
		"duration", elapsed)

	return &Session{
		Plan:      plan,
		Inputs:    in,
		Graph:     g,
		Transit:   b.TransitRooms(),
		BuildTime: elapsed,
		logger:    logger,
		metrics:   cfg.Metrics,
		findPath:  graph.FindPath,
	}, nil
}

// RoomNodes returns the rooms to be routed.
func (s *Session) RoomNodes() []*graph.Node { return s.Graph.RoomNodes() }

// EgressNodes returns the exits.
func (s *Session) EgressNodes() []*graph.Node { return s.Graph.EgressNodes() }

// RoomRoutes holds one room's routes to every reachable exit.
type RoomRoutes struct {
	Room        *graph.Node
	Routes      []*graph.Route
	Unreachable []*graph.Node
}

// Best returns the shortest of the room's routes; the first wins ties.
func (rr *RoomRoutes) Best() *graph.Route {
	var best *graph.Route
	for _, r := range rr.Routes {
		if best == nil || r.TotalDistance < best.TotalDistance {
			best = r
		}
	}
	return best
}

// BestRoutes returns each room's best route, skipping rooms with none.
func BestRoutes(all []*RoomRoutes) []*graph.Route {
	var out []*graph.Route
	for _, rr := range all {
		if best := rr.Best(); best != nil {
			out = append(out, best)
		}
	}
	return out
}

// ComputeRoutes searches from every room to every exit. Results are in room
// order. Cancellation is checked between rooms; a cancelled run returns the
// context's error.
func (s *Session) ComputeRoutes(ctx context.Context, opts Options) ([]*RoomRoutes, error) {
	rooms := s.RoomNodes()
	exits := s.EgressNodes()
	results := make([]*RoomRoutes, len(rooms))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	var (
		done       atomic.Int64
		progressMu sync.Mutex
	)
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, room := range rooms {
		if err := gctx.Err(); err != nil {
			break
		}
		i, room := i, room
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.routeRoom(room, exits)

			n := int(done.Add(1))
			if opts.Progress != nil {
				progressMu.Lock()
				opts.Progress(n, len(rooms), room)
				progressMu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	s.metrics.ObserveRouteSearch(elapsed.Seconds())
	s.logger.Debug("routes computed", "rooms", len(rooms), "exits", len(exits), "workers", workers, "duration", elapsed)
	return results, nil
}

func (s *Session) routeRoom(room *graph.Node, exits []*graph.Node) *RoomRoutes {
	rr := &RoomRoutes{Room: room}
	for _, exit := range exits {
		route, found, err := s.search(room, exit)
		if err != nil {
			s.logger.Warn("route search failed", "room", room.Name, "exit", exit.Name, "error", err)
			continue
		}
		s.metrics.ObserveSearch(found)
		if !found {
			rr.Unreachable = append(rr.Unreachable, exit)
			continue
		}
		rr.Routes = append(rr.Routes, route)
	}
	return rr
}

// search runs one room-to-exit search. A panic comes back as an error.
func (s *Session) search(room, exit *graph.Node) (route *graph.Route, found bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			route, found = nil, false
			err = fmt.Errorf("route search panicked: %v", r)
		}
	}()
	return s.findPath(room, exit)
}

// Route searches between one room and one exit, both named by element id.
func (s *Session) Route(room, exit floor.ElementID) (*graph.Route, bool, error) {
	from := s.Graph.NodeByElement(room)
	if from == nil || from.Type != graph.NodeRoom {
		return nil, false, fmt.Errorf("room %d: %w", room, ErrNotInNetwork)
	}
	to := s.Graph.NodeByElement(exit)
	if to == nil || !to.IsConnection() {
		return nil, false, fmt.Errorf("door %d: %w", exit, ErrNotInNetwork)
	}
	return graph.FindPath(from, to)
}

// RoomTravel computes the common path of travel inside a room from one of
// its doors.
func (s *Session) RoomTravel(room, door floor.ElementID) (*RoomTravel, error) {
	r, ok := s.Inputs.RoomRecord(room)
	if !ok {
		return nil, fmt.Errorf("room %d: %w", room, ErrNotInNetwork)
	}
	for _, o := range s.Inputs.Openings {
		if o.Kind == floor.DoorOpening && o.ID == door {
			return RoomCommonPath(r, door, o.Location)
		}
	}
	return nil, fmt.Errorf("door %d: %w", door, ErrNotInNetwork)
}

// Analyze runs the full analysis: routes, best routes, travel limits,
// clear widths and network diagnostics.
func (s *Session) Analyze(ctx context.Context, opts Options) (report *Report, err error) {
	defer func() { s.metrics.ObserveAnalysis(err) }()

	start := time.Now()
	all, err := s.ComputeRoutes(ctx, opts)
	if err != nil {
		return nil, err
	}
	searched := time.Since(start)

	widths, err := CheckClearWidth(BestRoutes(all), opts.InchesPerOccupant, s.Inputs)
	if err != nil {
		return nil, fmt.Errorf("checking clear widths: %w", err)
	}

	diag := graph.Diagnose(s.Graph.Snapshot(), graph.DefaultConfig())
	report = newReport(s, opts, all, widths, diag)
	report.Timings = Timings{
		BuildMs:  s.BuildTime.Milliseconds(),
		SearchMs: searched.Milliseconds(),
		TotalMs:  (s.BuildTime + time.Since(start)).Milliseconds(),
	}
	s.metrics.AddDoorFailures(report.Summary.FailingDoors)

	s.logger.Info("analysis complete",
		"rooms", report.Summary.Rooms,
		"unreachable", report.Summary.Unreachable,
		"over_travel", report.Summary.OverTravel,
		"failing_doors", report.Summary.FailingDoors)
	return report, nil
}
