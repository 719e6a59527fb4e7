package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lifesaver/egress/internal/config"
	"lifesaver/egress/internal/db"
	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/logging"
)

// DBFileName is the database file looked for in the working directory and
// its parents.
const DBFileName = ".egress.db"

var (
	dbPath     string
	configPath string
	logLevel   string
	logFormat  string

	cfg    = config.Default()
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:           "egress",
	Short:         "Floor egress analysis: routes, travel distances and door clear widths",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		if logFormat != "" {
			c.Log.Format = logFormat
		}
		lc := c.Logging()
		lc.Writer = cmd.ErrOrStderr()
		cfg = c
		logger = logging.Setup(lc)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if id, ok := floor.ElementOf(err); ok {
			fmt.Fprintln(os.Stderr, "element:", id)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to "+DBFileName+" database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.egress/egress.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default: text on a terminal)")
}

// DiscoverDB finds the database path using priority: env > flag > config > walk-up > XDG fallback
func DiscoverDB() (string, error) {
	// 1. Environment variable
	if envPath := os.Getenv("EGRESS_DB"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	// 2. CLI flag
	if dbPath != "" {
		if _, err := os.Stat(dbPath); err == nil {
			return dbPath, nil
		}
		return "", fmt.Errorf("database not found at --db path: %s", dbPath)
	}

	// 3. Config file
	if cfg.DB != "" {
		if _, err := os.Stat(cfg.DB); err == nil {
			return cfg.DB, nil
		}
	}

	// 4. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, DBFileName)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	// 5. XDG fallback
	if xdgPath, err := xdgDBPath(); err == nil {
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", fmt.Errorf("no %s found (set EGRESS_DB, use --db, or run from a directory containing %s)", DBFileName, DBFileName)
}

func xdgDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", "egress", "egress.db"), nil
}

// OpenDatabase discovers and opens the database
func OpenDatabase() (*db.DB, error) {
	path, err := DiscoverDB()
	if err != nil {
		return nil, err
	}
	return db.OpenDB(path)
}

// OpenOrCreateDatabase opens the discovered database, creating one at the
// --db path, or the XDG location, when none exists yet.
func OpenOrCreateDatabase() (*db.DB, error) {
	if path, err := DiscoverDB(); err == nil {
		return db.OpenDB(path)
	}
	path := dbPath
	if path == "" {
		p, err := xdgDBPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}
	logger.Info("creating database", "path", path)
	return db.OpenDB(path)
}

// ResolvePlan finds a stored plan by full ID, ID prefix, or name search.
func ResolvePlan(d *db.DB, reference string) (*db.Plan, error) {
	// 1. Exact ID match
	plan, err := d.GetPlan(reference)
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	// 2. ID prefix match (≥6 hex/dash chars)
	if len(reference) >= 6 && isHexDash(reference) {
		matches, err := d.SearchByIDPrefix(reference, 10)
		if err == nil {
			switch len(matches) {
			case 1:
				return &matches[0], nil
			case 0:
				// fall through to FTS
			default:
				return nil, ambiguous(reference, matches, "Use a full plan ID instead.")
			}
		}
	}

	// 3. FTS search
	results, err := d.SearchPlans(reference)
	if err == nil {
		switch len(results) {
		case 1:
			return &results[0], nil
		case 0:
			// fall through to not found
		default:
			return nil, ambiguous(reference, results, "Use a plan ID instead.")
		}
	}

	return nil, fmt.Errorf("plan not found: %s", reference)
}

func ambiguous(reference string, matches []db.Plan, hint string) error {
	limit := min(len(matches), 10)
	lines := make([]string, limit)
	for i, m := range matches[:limit] {
		lines[i] = fmt.Sprintf("  %s %s", truncID(m.ID), m.Name)
	}
	return fmt.Errorf("ambiguous reference '%s'. %d matches:\n%s\n%s",
		reference, len(matches), strings.Join(lines, "\n"), hint)
}

func isHexDash(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') || c == '-') {
			return false
		}
	}
	return true
}

// loadPlanArg loads a plan from a file path or, when no such file exists,
// from the database by reference. The stored row is nil for files.
func loadPlanArg(ref string) (*floor.Plan, *db.Plan, error) {
	if _, err := os.Stat(ref); err == nil {
		plan, err := floor.LoadPlan(ref)
		return plan, nil, err
	}

	d, err := OpenDatabase()
	if err != nil {
		return nil, nil, fmt.Errorf("%s is not a file and no database is available: %w", ref, err)
	}
	defer d.Close()

	row, err := ResolvePlan(d, ref)
	if err != nil {
		return nil, nil, err
	}
	plan, err := row.Decode()
	if err != nil {
		return nil, nil, err
	}
	return plan, row, nil
}
