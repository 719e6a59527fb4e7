package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	batchFile     string
	batchStdin    bool
	batchFailFast bool
	batchJSON     bool
)

// batchResult is one plan's outcome in a batch.
type batchResult struct {
	Plan         string  `json:"plan"`
	Status       string  `json:"status"`
	Error        string  `json:"error,omitempty"`
	Routed       int     `json:"routed"`
	Rooms        int     `json:"rooms"`
	OverTravel   int     `json:"over_travel"`
	FailingDoors int     `json:"failing_doors"`
	LongestRoute float64 `json:"longest_route"`
	RunID        string  `json:"run_id,omitempty"`
	DurationMS   int64   `json:"duration_ms"`
}

var batchCmd = &cobra.Command{
	Use:   "batch [flags]",
	Short: "Analyze many plans listed in a file or on stdin",
	Long: `Runs the analysis for every plan listed in a file (one plan file or
stored reference per line) and prints a pass/fail summary.

Lines starting with # and blank lines are ignored. The command exits
non-zero when any plan fails to analyze; plans that analyze but have
findings are counted as failing, not as errors.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		source := batchFile
		if batchStdin {
			source = "-"
		}
		if source == "" {
			return fmt.Errorf("specify --file <path> or --stdin")
		}

		var in io.Reader = cmd.InOrStdin()
		if source != "-" {
			f, err := os.Open(source)
			if err != nil {
				return fmt.Errorf("failed to read plan list '%s': %w", source, err)
			}
			defer f.Close()
			in = f
		}
		refs, err := readPlanList(in)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			return fmt.Errorf("no plans found in '%s' (blank lines and # comments ignored)", source)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		start := time.Now()
		results := make([]batchResult, 0, len(refs))
		errored := 0
		for _, ref := range refs {
			if ctx.Err() != nil {
				break
			}
			r := analyzeRef(ctx, ref)
			results = append(results, r)
			if r.Status == "error" {
				errored++
				if batchFailFast {
					break
				}
			}
		}

		printBatchSummary(cmd.OutOrStdout(), results, time.Since(start), batchJSON)
		if errored > 0 {
			return fmt.Errorf("%d of %d plans could not be analyzed", errored, len(refs))
		}
		return ctx.Err()
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "Read plan references from file (one per line)")
	batchCmd.Flags().BoolVar(&batchStdin, "stdin", false, "Read plan references from stdin")
	batchCmd.Flags().BoolVar(&batchFailFast, "fail-fast", false, "Stop at the first plan that cannot be analyzed")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "Output as JSON")
	batchCmd.Flags().BoolVar(&analyzeSave, "save", false, "Store every plan and run in the database")
	batchCmd.Flags().Float64Var(&analyzeMaxTravel, "max-travel", 0, "Maximum travel distance in feet")
	batchCmd.Flags().Float64Var(&analyzeInchesPerOccupant, "inches-per-occupant", 0, "Clear width allowance per occupant")
	batchCmd.Flags().StringVar(&analyzeEgressParam, "egress-param", "", "Door parameter that marks egress doors")
	batchCmd.Flags().IntVar(&analyzeWorkers, "workers", 0, "Rooms searched in parallel")
	rootCmd.AddCommand(batchCmd)
}

// readPlanList returns the non-blank, non-comment lines of r, trimmed.
func readPlanList(r io.Reader) ([]string, error) {
	var refs []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		refs = append(refs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading plan list: %w", err)
	}
	return refs, nil
}

func analyzeRef(ctx context.Context, ref string) batchResult {
	start := time.Now()
	res := batchResult{Plan: ref}
	fail := func(err error) batchResult {
		res.Status = "error"
		res.Error = err.Error()
		res.DurationMS = time.Since(start).Milliseconds()
		logger.Error("plan failed", "plan", ref, "error", err)
		return res
	}

	plan, stored, err := loadPlanArg(ref)
	if err != nil {
		return fail(err)
	}
	report, err := analyzePlan(ctx, plan)
	if err != nil {
		return fail(err)
	}
	if analyzeSave {
		if res.RunID, err = saveRun(plan, stored, report); err != nil {
			return fail(err)
		}
	}

	s := report.Summary
	res.Status = "pass"
	if !report.OK() {
		res.Status = "fail"
	}
	res.Routed, res.Rooms = s.Routed, s.Rooms
	res.OverTravel, res.FailingDoors = s.OverTravel, s.FailingDoors
	res.LongestRoute = s.LongestRoute
	res.DurationMS = time.Since(start).Milliseconds()
	return res
}

func printBatchSummary(w io.Writer, results []batchResult, duration time.Duration, asJSON bool) {
	passed, failed, errored := 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case "pass":
			passed++
		case "fail":
			failed++
		case "error":
			errored++
		}
	}

	if asJSON {
		output := struct {
			Plans           int           `json:"plans"`
			Passed          int           `json:"passed"`
			Failed          int           `json:"failed"`
			Errored         int           `json:"errored"`
			TotalDurationMS int64         `json:"total_duration_ms"`
			Results         []batchResult `json:"results"`
		}{len(results), passed, failed, errored, duration.Milliseconds(), results}
		data, _ := json.MarshalIndent(output, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	fmt.Fprintf(w, "\n  %s\n", sectionRule("BATCH"))
	fmt.Fprintf(w, "  Plans:    %d\n", len(results))
	fmt.Fprintf(w, "  Passed:   %d\n", passed)
	fmt.Fprintf(w, "  Failed:   %d\n", failed)
	fmt.Fprintf(w, "  Errored:  %d\n", errored)
	fmt.Fprintf(w, "  Duration: %s\n", FormatDurationShort(duration.Milliseconds()))

	if len(results) > 0 {
		fmt.Fprintf(w, "\n  Plan details:\n")
		for i, r := range results {
			status := strings.ToUpper(r.Status)
			switch r.Status {
			case "pass":
				status = styles.OK.Render(status)
			case "fail":
				status = styles.Warn.Render(status)
			default:
				status = styles.Fail.Render(status)
			}
			detail := fmt.Sprintf("%d/%d routed, longest %s", r.Routed, r.Rooms, feet(r.LongestRoute))
			if r.Error != "" {
				detail = TruncateMiddle(r.Error, 60)
			}
			fmt.Fprintf(w, "    %d. [%s] %s %s -- %s\n",
				i+1, status, FormatDurationShort(r.DurationMS), TruncateMiddle(r.Plan, 40), detail)
		}
	}
	fmt.Fprintln(w)
}
