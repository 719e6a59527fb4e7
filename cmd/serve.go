package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"lifesaver/egress/internal/db"
	"lifesaver/egress/internal/metrics"
	"lifesaver/egress/internal/server"
)

var (
	serveAddr string
	serveNoDB bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Starts the HTTP API. Plans and runs are stored in the discovered
database unless --no-db is given, in which case only inline plans can be
analyzed and the /v1/plans and /v1/runs endpoints answer 503.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var store *db.DB
		if !serveNoDB {
			d, err := OpenOrCreateDatabase()
			if err != nil {
				return err
			}
			defer d.Close()
			store = d
			logger.Info("using database", "path", d.Path)
		}

		gin.SetMode(gin.ReleaseMode)
		var m *metrics.Metrics
		if cfg.Server.Metrics {
			m = metrics.New(true)
		}

		srv, err := server.New(server.Config{
			Store:       store,
			Metrics:     m,
			Logger:      logger,
			Defaults:    cfg.Options(),
			EgressParam: cfg.Analysis.EgressParam,
			CacheSize:   cfg.Server.CacheSize,
		})
		if err != nil {
			return err
		}

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		return srv.Run(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().BoolVar(&serveNoDB, "no-db", false, "Run without a database")
	rootCmd.AddCommand(serveCmd)
}
