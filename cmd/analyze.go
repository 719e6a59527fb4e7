package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"lifesaver/egress/internal/db"
	"lifesaver/egress/internal/egress"
	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/graph"
)

var (
	analyzeJSON              bool
	analyzeMaxTravel         float64
	analyzeInchesPerOccupant float64
	analyzeEgressParam       string
	analyzeWorkers           int
	analyzeSave              bool
	analyzeWatch             bool
	analyzeAllRoutes         bool
	analyzeTopN              int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <plan>",
	Short: "Route every room to every exit and check travel distance and door clear widths",
	Long: `Builds the egress network for a floor plan, searches a route from every
room to every egress door, keeps each room's shortest route, and checks
the travel distance limit and the clear width of every door on those routes.

<plan> is a plan file (.json, .yaml) or a stored plan reference (ID, ID
prefix, or name). The command exits non-zero on configuration or geometry
errors; findings such as narrow doors are reported, not treated as errors.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if analyzeWatch {
			return watchPlan(ctx, args[0], func() error {
				return runAnalyze(ctx, cmd.OutOrStdout(), args[0])
			})
		}
		return runAnalyze(ctx, cmd.OutOrStdout(), args[0])
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output as JSON")
	analyzeCmd.Flags().Float64Var(&analyzeMaxTravel, "max-travel", 0, "Maximum travel distance in feet (default from config, 100)")
	analyzeCmd.Flags().Float64Var(&analyzeInchesPerOccupant, "inches-per-occupant", 0, "Clear width allowance per occupant (default from config, 0.2)")
	analyzeCmd.Flags().StringVar(&analyzeEgressParam, "egress-param", "", "Door parameter that marks egress doors (default from config, Egress)")
	analyzeCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "Rooms searched in parallel (default from config, 1)")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Store the plan and the run in the database")
	analyzeCmd.Flags().BoolVar(&analyzeWatch, "watch", false, "Re-run whenever the plan file changes")
	analyzeCmd.Flags().BoolVar(&analyzeAllRoutes, "all-routes", false, "List every room-to-exit route, not just the best")
	analyzeCmd.Flags().IntVar(&analyzeTopN, "top-n", 10, "Number of items to show per diagnostics section")
	rootCmd.AddCommand(analyzeCmd)
}

// analysisOptions merges command-line overrides onto the configured defaults.
func analysisOptions() egress.Options {
	opts := cfg.Options()
	if analyzeMaxTravel > 0 {
		opts.MaxTravel = analyzeMaxTravel
	}
	if analyzeInchesPerOccupant > 0 {
		opts.InchesPerOccupant = analyzeInchesPerOccupant
	}
	if analyzeWorkers > 0 {
		opts.Workers = analyzeWorkers
	}
	return opts
}

func egressParam() string {
	if analyzeEgressParam != "" {
		return analyzeEgressParam
	}
	return cfg.Analysis.EgressParam
}

func runAnalyze(ctx context.Context, w io.Writer, ref string) error {
	plan, stored, err := loadPlanArg(ref)
	if err != nil {
		return err
	}
	report, err := analyzePlan(ctx, plan)
	if err != nil {
		return err
	}

	var runID string
	if analyzeSave {
		runID, err = saveRun(plan, stored, report)
		if err != nil {
			return err
		}
	}

	if analyzeJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			RunID string `json:"run_id,omitempty"`
			*egress.Report
		}{runID, report})
	}

	printReport(w, report, analyzeTopN, analyzeAllRoutes)
	if runID != "" {
		fmt.Fprintf(w, "  saved run %s\n\n", truncID(runID))
	}
	return nil
}

func analyzePlan(ctx context.Context, plan *floor.Plan) (*egress.Report, error) {
	sess, err := egress.NewSession(plan, egress.Config{
		EgressParam: egressParam(),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	return sess.Analyze(ctx, analysisOptions())
}

func saveRun(plan *floor.Plan, stored *db.Plan, report *egress.Report) (string, error) {
	d, err := OpenOrCreateDatabase()
	if err != nil {
		return "", err
	}
	defer d.Close()

	if stored == nil {
		if stored, _, err = d.SavePlan(plan); err != nil {
			return "", fmt.Errorf("saving plan: %w", err)
		}
	}
	run, err := d.SaveRun(stored.ID, report)
	if err != nil {
		return "", fmt.Errorf("saving run: %w", err)
	}
	logger.Info("run saved", "run", run.ID, "plan", stored.ID)
	return run.ID, nil
}

func printReport(w io.Writer, r *egress.Report, topN int, allRoutes bool) {
	s := r.Summary

	header := fmt.Sprintf("%s  %s\n%s  phase %s  %d rooms  %d exits  %d nodes  %d edges",
		styles.Title.Render(r.Plan), verdict(r.OK()),
		styles.Muted.Render(truncID(r.Fingerprint)), r.Phase, s.Rooms, s.Exits, s.Nodes, s.Edges)
	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.Box.Render(header))

	fmt.Fprintf(w, "\n  %s\n", sectionRule("ROUTES"))
	fmt.Fprintf(w, "  limit %s  routed %d/%d  longest %s\n",
		feet(r.Options.MaxTravel), s.Routed, s.Rooms, feet(s.LongestRoute))
	for _, room := range r.Rooms {
		switch {
		case room.Best == nil:
			fmt.Fprintf(w, "    %s %s  no route to any exit\n", styles.Fail.Render("✗"), truncTitle(room.Room, 40))
		case room.Best.OverTravel:
			fmt.Fprintf(w, "    %s %-40s %9s  via %s\n", styles.Warn.Render("!"), truncTitle(room.Room, 40),
				feet(room.Best.TotalDistance), room.Best.Exit)
		default:
			fmt.Fprintf(w, "    %s %-40s %9s  via %s\n", styles.OK.Render("✓"), truncTitle(room.Room, 40),
				feet(room.Best.TotalDistance), room.Best.Exit)
		}
		if allRoutes {
			for _, rv := range room.Routes {
				fmt.Fprintf(w, "        %s  %s\n", feet(rv.TotalDistance), routePath(rv))
			}
		}
	}

	fmt.Fprintf(w, "\n  %s\n", sectionRule("CLEAR WIDTH"))
	fmt.Fprintf(w, "  %.2f in per occupant  %d failing\n", r.Options.InchesPerOccupant, s.FailingDoors)
	for _, cw := range r.ClearWidths {
		mark := styles.OK.Render("✓")
		if !cw.IsOK() {
			mark = styles.Fail.Render("✗")
		}
		fmt.Fprintf(w, "    %s %-20s load %4d  width %6.2f  required %6.2f\n",
			mark, truncTitle(cw.Name, 20), cw.OccupancyLoad, cw.Width, cw.RequiredWidth)
	}

	if d := r.Diagnostics; d != nil {
		printDiagnostics(w, d, topN)
	}

	fmt.Fprintf(w, "\n  %s\n\n", styles.Muted.Render(fmt.Sprintf("build %s  search %s  total %s",
		FormatDurationShort(r.Timings.BuildMs), FormatDurationShort(r.Timings.SearchMs), FormatDurationShort(r.Timings.TotalMs))))
}

func printDiagnostics(w io.Writer, d *graph.DiagnosticsReport, topN int) {
	fmt.Fprintf(w, "\n  %s\n", sectionRule("NETWORK"))
	fmt.Fprintf(w, "  health %.0f%%  [%s]\n", d.HealthScore*100, healthBar(d.HealthScore))
	fmt.Fprintf(w, "  breakdown: connectivity=%.2f components=%.2f reachability=%.2f redundancy=%.2f\n",
		d.HealthBreakdown.Connectivity, d.HealthBreakdown.Components,
		d.HealthBreakdown.Reachability, d.HealthBreakdown.Redundancy)

	t := d.Topology
	if t != nil {
		fmt.Fprintf(w, "  components: %d  largest: %d  isolated: %d\n", t.NumComponents, t.LargestComponent, t.IsolatedCount)
		if t.StrandedRooms > 0 {
			fmt.Fprintf(w, "  %s\n", styles.Fail.Render(fmt.Sprintf("%d rooms with no exit in reach", t.StrandedRooms)))
			for _, sc := range t.Stranded[:min(len(t.Stranded), topN)] {
				fmt.Fprintf(w, "    %s\n", strings.Join(limit(sc.Rooms, topN), ", "))
			}
		}
	}

	b := d.Bridges
	if b != nil && (b.DoorAPCount > 0 || len(b.SingleOpenings) > 0) {
		fmt.Fprintf(w, "  %d single points of failure (%d doors)\n", b.APCount, b.DoorAPCount)
		for _, ap := range b.ArticulationPoints[:min(len(b.ArticulationPoints), topN)] {
			if ap.Type == graph.NodeDoor {
				fmt.Fprintf(w, "    %s degree=%d\n", truncTitle(ap.Name, 40), ap.Degree)
			}
		}
		for _, so := range b.SingleOpenings[:min(len(b.SingleOpenings), topN)] {
			fmt.Fprintf(w, "    rooms %d and %d only through %s\n", so.RoomA, so.RoomB, so.Opening)
		}
	}
}

func routePath(rv egress.RouteView) string {
	names := make([]string, 0, len(rv.Steps))
	for _, st := range rv.Steps {
		if st.Type == graph.NodeTransitPoint {
			continue
		}
		names = append(names, st.Name)
	}
	return strings.Join(names, " → ")
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return append(items[:n:n], fmt.Sprintf("... and %d more", len(items)-n))
	}
	return items
}
