package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"lifesaver/egress/internal/egress"
	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/graph"
)

var (
	routeRoom int64
	routeExit int64
	routeList bool
	routeJSON bool
)

var routeCmd = &cobra.Command{
	Use:   "route <plan> --room <id> [--exit <id>]",
	Short: "Search the route from one room to one exit, or to every exit",
	Long: `Builds the egress network for a plan and runs the route search from a
room to an egress door. Without --exit every exit is tried and the routes
are listed shortest first. --list prints the room and exit element IDs
the network knows about.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		plan, _, err := loadPlanArg(args[0])
		if err != nil {
			return err
		}
		sess, err := egress.NewSession(plan, egress.Config{EgressParam: egressParam(), Logger: logger})
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()

		if routeList {
			return printNetworkIndex(w, sess)
		}
		if routeRoom <= 0 {
			return fmt.Errorf("specify --room <element id> (see --list)")
		}

		exits := []floor.ElementID{floor.ElementID(routeExit)}
		if routeExit <= 0 {
			exits = exits[:0]
			for _, n := range sess.EgressNodes() {
				exits = append(exits, n.ElementID)
			}
		}

		maxTravel := analysisOptions().MaxTravel
		var views []egress.RouteView
		var unreachable []string
		for _, exit := range exits {
			r, found, err := sess.Route(floor.ElementID(routeRoom), exit)
			if err != nil {
				return err
			}
			if !found {
				unreachable = append(unreachable, fmt.Sprintf("%d", exit))
				continue
			}
			views = append(views, egress.NewRouteView(r, maxTravel))
		}
		sortRouteViews(views)

		if routeJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Room        int64              `json:"room"`
				Routes      []egress.RouteView `json:"routes"`
				Unreachable []string           `json:"unreachable,omitempty"`
			}{routeRoom, views, unreachable})
		}

		printRoutes(w, views, unreachable, maxTravel)
		return nil
	},
}

func init() {
	routeCmd.Flags().Int64Var(&routeRoom, "room", 0, "Room element ID")
	routeCmd.Flags().Int64Var(&routeExit, "exit", 0, "Egress door element ID (default: every exit)")
	routeCmd.Flags().BoolVar(&routeList, "list", false, "List the rooms and exits in the network")
	routeCmd.Flags().BoolVar(&routeJSON, "json", false, "JSON output")
	routeCmd.Flags().Float64Var(&analyzeMaxTravel, "max-travel", 0, "Maximum travel distance in feet")
	routeCmd.Flags().StringVar(&analyzeEgressParam, "egress-param", "", "Door parameter that marks egress doors")
	rootCmd.AddCommand(routeCmd)
}

func sortRouteViews(views []egress.RouteView) {
	// Insertion sort keeps equal distances in exit order.
	for i := 1; i < len(views); i++ {
		for j := i; j > 0 && views[j].TotalDistance < views[j-1].TotalDistance; j-- {
			views[j], views[j-1] = views[j-1], views[j]
		}
	}
}

func printRoutes(w io.Writer, views []egress.RouteView, unreachable []string, maxTravel float64) {
	if len(views) == 0 {
		fmt.Fprintf(w, "No route found to exit(s) %s\n", strings.Join(unreachable, ", "))
		return
	}

	fmt.Fprintf(w, "Routes from: %s  limit=%s\n\n", views[0].Room, feet(maxTravel))
	for i, v := range views {
		mark := styles.OK.Render("✓")
		if v.OverTravel {
			mark = styles.Warn.Render("!")
		}
		fmt.Fprintf(w, "  %2d. %s %s  %s\n", i+1, mark, v.Exit, feet(v.TotalDistance))
		hops := make([]string, 0, len(v.Steps))
		for _, st := range v.Steps {
			if st.Type == graph.NodeTransitPoint {
				continue
			}
			hops = append(hops, fmt.Sprintf("→[%.1f]→ %s", st.Leg, truncTitle(st.Name, 40)))
		}
		fmt.Fprintf(w, "      %s\n", strings.Join(hops, " "))
	}
	if len(unreachable) > 0 {
		fmt.Fprintf(w, "\n  %s\n", styles.Fail.Render("unreachable: "+strings.Join(unreachable, ", ")))
	}
	fmt.Fprintf(w, "\n%d route(s)\n", len(views))
}

func printNetworkIndex(w io.Writer, sess *egress.Session) error {
	fmt.Fprintf(w, "%s  %d nodes  %d edges\n\n", styles.Title.Render(sess.Plan.Name),
		sess.Graph.NodeCount(), sess.Graph.EdgeCount())
	fmt.Fprintf(w, "  %s\n", sectionRule("ROOMS"))
	for _, n := range sess.RoomNodes() {
		fmt.Fprintf(w, "    %8d  %s\n", n.ElementID, n.Name)
	}
	fmt.Fprintf(w, "\n  %s\n", sectionRule("EXITS"))
	for _, n := range sess.EgressNodes() {
		fmt.Fprintf(w, "    %8d  %s\n", n.ElementID, n.Name)
	}
	fmt.Fprintln(w)
	return nil
}
