// Package server exposes egress analysis over HTTP.
//
// Routes:
//
//	POST /v1/analyses     - analyze a plan, optionally saving plan and run
//	POST /v1/routes       - route one room to one exit
//	POST /v1/room-travel  - common path of travel inside a room
//	GET  /v1/plans        - list or search stored plans (?q=, ?limit=)
//	GET  /v1/plans/:id    - one stored plan document
//	GET  /v1/runs         - list stored runs (?plan=, ?limit=)
//	GET  /v1/runs/:id     - one stored run with its report
//	GET  /healthz         - liveness
//	GET  /metrics         - Prometheus metrics
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lifesaver/egress/internal/db"
	"lifesaver/egress/internal/egress"
	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/metrics"
)

// DefaultCacheSize is the number of built sessions kept in memory.
const DefaultCacheSize = 16

// Config controls New.
type Config struct {
	// Store is optional; without it the plan and run endpoints answer 503.
	Store *db.DB

	// Metrics is optional; without it /metrics is not registered.
	Metrics *metrics.Metrics

	Logger *slog.Logger

	// Defaults are the analysis options used when a request leaves a field
	// at zero.
	Defaults    egress.Options
	EgressParam string
	CacheSize   int
}

// Server handles HTTP requests. It is safe for concurrent use.
type Server struct {
	store       *db.DB
	metrics     *metrics.Metrics
	logger      *slog.Logger
	defaults    egress.Options
	egressParam string
	sessions    *lru.Cache[string, *egress.Session]
}

// New builds a server from cfg.
func New(cfg Config) (*Server, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, *egress.Session](size)
	if err != nil {
		return nil, fmt.Errorf("creating session cache: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	param := cfg.EgressParam
	if param == "" {
		param = floor.DefaultEgressParam
	}
	return &Server{
		store:       cfg.Store,
		metrics:     cfg.Metrics,
		logger:      logger,
		defaults:    cfg.Defaults,
		egressParam: param,
		sessions:    cache,
	}, nil
}

// Router returns the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.HandleHealth)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/v1")
	v1.POST("/analyses", s.HandleAnalyze)
	v1.POST("/routes", s.HandleRoute)
	v1.POST("/room-travel", s.HandleRoomTravel)
	v1.GET("/plans", s.HandleListPlans)
	v1.GET("/plans/:id", s.HandleGetPlan)
	v1.GET("/runs", s.HandleListRuns)
	v1.GET("/runs/:id", s.HandleGetRun)
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)

		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// session returns the cached session for plan, building it on a miss.
func (s *Server) session(plan *floor.Plan, egressParam string) (*egress.Session, error) {
	if egressParam == "" {
		egressParam = s.egressParam
	}
	key := plan.Fingerprint() + "\x00" + egressParam
	if sess, ok := s.sessions.Get(key); ok {
		return sess, nil
	}
	sess, err := egress.NewSession(plan, egress.Config{
		EgressParam: egressParam,
		Logger:      s.logger,
		Metrics:     s.metrics,
	})
	if err != nil {
		return nil, err
	}
	s.sessions.Add(key, sess)
	return sess, nil
}

func (s *Server) options(req OptionsRequest) egress.Options {
	opts := s.defaults
	if req.MaxTravel > 0 {
		opts.MaxTravel = req.MaxTravel
	}
	if req.InchesPerOccupant > 0 {
		opts.InchesPerOccupant = req.InchesPerOccupant
	}
	if req.Workers > 0 {
		opts.Workers = req.Workers
	}
	return opts
}
