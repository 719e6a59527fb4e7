package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"lifesaver/egress/internal/db"
	"lifesaver/egress/internal/floor"
)

var (
	plansLimit  int
	plansJSON   bool
	plansFormat string
)

var importCmd = &cobra.Command{
	Use:   "import <plan-file>...",
	Short: "Store plan files in the database",
	Long: `Validates each plan file and stores it. A plan whose content is already
stored (same fingerprint) is not stored twice; the existing ID is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenOrCreateDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		w := cmd.OutOrStdout()
		for _, path := range args {
			plan, err := floor.LoadPlan(path)
			if err != nil {
				return err
			}
			row, created, err := d.SavePlan(plan)
			if err != nil {
				return fmt.Errorf("storing %s: %w", path, err)
			}
			state := "stored"
			if !created {
				state = styles.Muted.Render("already stored")
			}
			fmt.Fprintf(w, "%s  %s  %s\n", truncID(row.ID), row.Name, state)
		}
		return nil
	},
}

var plansCmd = &cobra.Command{
	Use:   "plans [query]",
	Short: "List stored plans, or search them by name and phase",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		var plans []db.Plan
		if len(args) == 1 {
			plans, err = d.SearchPlans(args[0])
		} else {
			plans, err = d.ListPlans(plansLimit)
		}
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if plansJSON {
			if plans == nil {
				plans = []db.Plan{}
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(plans)
		}
		printPlans(w, plans)
		return nil
	},
}

var planShowCmd = &cobra.Command{
	Use:   "show <plan>",
	Short: "Print a stored plan document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		row, err := ResolvePlan(d, args[0])
		if err != nil {
			return err
		}
		plan, err := row.Decode()
		if err != nil {
			return err
		}
		data, err := plan.Encode(floor.Format(plansFormat))
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var planRmCmd = &cobra.Command{
	Use:   "rm <plan>",
	Short: "Delete a stored plan and its runs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := OpenDatabase()
		if err != nil {
			return err
		}
		defer d.Close()

		row, err := ResolvePlan(d, args[0])
		if err != nil {
			return err
		}
		if err := d.DeletePlan(row.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s  %s\n", truncID(row.ID), row.Name)
		return nil
	},
}

func init() {
	plansCmd.Flags().IntVar(&plansLimit, "limit", 50, "Max plans to list")
	plansCmd.Flags().BoolVar(&plansJSON, "json", false, "JSON output")
	planShowCmd.Flags().StringVar(&plansFormat, "format", string(floor.FormatYAML), "Output format: yaml or json")
	plansCmd.AddCommand(planShowCmd, planRmCmd)
	rootCmd.AddCommand(importCmd, plansCmd)
}

func printPlans(w io.Writer, plans []db.Plan) {
	if len(plans) == 0 {
		fmt.Fprintln(w, "No plans found")
		return
	}
	for _, p := range plans {
		fmt.Fprintf(w, "  %s  %-30s %-20s %3d rooms %3d doors  %s\n",
			truncID(p.ID), truncTitle(p.Name, 30), truncTitle(p.Phase, 20), p.Rooms, p.Doors,
			styles.Muted.Render(humanize.Time(time.UnixMilli(p.CreatedAt))))
	}
	fmt.Fprintf(w, "\n%d plan(s)\n", len(plans))
}
