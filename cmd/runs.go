package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"lifesaver/egress/internal/db"
)

var (
	runsLimit int
	runsJSON  bool
)

var runsCmd = &cobra.Command{
	Use:   "runs [plan]",
	Short: "List stored analysis runs, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		planID := ""
		if len(args) == 1 {
			p, err := ResolvePlan(d, args[0])
			if err != nil {
				return err
			}
			planID = p.ID
		}
		runs, err := d.ListRuns(planID, runsLimit)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if runsJSON {
			if runs == nil {
				runs = []db.Run{}
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(runs)
		}
		printRuns(w, runs)
		return nil
	},
}

var runShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Print a stored analysis report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		run, err := d.GetRun(args[0])
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if runsJSON {
			_, err := w.Write(run.Report)
			return err
		}
		rep, err := run.Decode()
		if err != nil {
			return err
		}
		printReport(w, rep, 10, false)
		return nil
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Max runs to list")
	runsCmd.PersistentFlags().BoolVar(&runsJSON, "json", false, "JSON output")
	runsCmd.AddCommand(runShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func printRuns(w io.Writer, runs []db.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return
	}
	for _, r := range runs {
		fmt.Fprintf(w, "  %s  %s  %d/%d routed  over=%d  doors=%d  longest %s  %s\n",
			r.ID, verdict(r.OK), r.Routed, r.Rooms, r.OverTravel, r.FailingDoors,
			feet(r.LongestRoute), styles.Muted.Render(humanize.Time(time.UnixMilli(r.CreatedAt))))
	}
	fmt.Fprintf(w, "\n%d run(s)\n", len(runs))
}
