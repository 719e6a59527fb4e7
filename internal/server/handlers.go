package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lifesaver/egress/internal/db"
	"lifesaver/egress/internal/egress"
	"lifesaver/egress/internal/floor"
)

var errNoStore = errors.New("no database configured")

// errInvalidPlan marks a plan document that failed to decode or validate.
var errInvalidPlan = errors.New("invalid plan")

// HandleHealth handles GET /healthz.
func (s *Server) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Database: s.store != nil,
		Sessions: s.sessions.Len(),
	})
}

// HandleAnalyze handles POST /v1/analyses.
//
// Response:
//
//	200 OK: AnalysisResponse
//	400 Bad Request: malformed body or plan
//	422 Unprocessable Entity: configuration or geometry error
func (s *Server) HandleAnalyze(c *gin.Context) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	if req.Save && s.store == nil {
		s.fail(c, http.StatusServiceUnavailable, "NO_DATABASE", errNoStore)
		return
	}

	plan, stored, err := s.loadPlan(req.Plan, req.PlanID)
	if err != nil {
		s.failErr(c, err)
		return
	}
	sess, err := s.session(plan, req.EgressParam)
	if err != nil {
		s.failErr(c, err)
		return
	}
	opts := s.options(req.Options)
	rep, err := sess.Analyze(c.Request.Context(), opts)
	if err != nil {
		s.failErr(c, err)
		return
	}

	resp := AnalysisResponse{Report: rep}
	if req.Save {
		if stored == nil {
			if stored, _, err = s.store.SavePlan(plan); err != nil {
				s.failErr(c, err)
				return
			}
		}
		run, err := s.store.SaveRun(stored.ID, rep)
		if err != nil {
			s.failErr(c, err)
			return
		}
		resp.RunID = run.ID
	}
	if stored != nil {
		resp.PlanID = stored.ID
	}
	c.JSON(http.StatusOK, resp)
}

// HandleRoute handles POST /v1/routes.
func (s *Server) HandleRoute(c *gin.Context) {
	var req RouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	plan, _, err := s.loadPlan(req.Plan, req.PlanID)
	if err != nil {
		s.failErr(c, err)
		return
	}
	sess, err := s.session(plan, req.EgressParam)
	if err != nil {
		s.failErr(c, err)
		return
	}

	route, found, err := sess.Route(req.Room, req.Exit)
	if err != nil {
		s.failErr(c, err)
		return
	}
	resp := RouteResponse{Found: found}
	if found {
		v := egress.NewRouteView(route, s.defaults.MaxTravel)
		resp.Route = &v
	}
	c.JSON(http.StatusOK, resp)
}

// HandleRoomTravel handles POST /v1/room-travel.
func (s *Server) HandleRoomTravel(c *gin.Context) {
	var req RoomTravelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	plan, _, err := s.loadPlan(req.Plan, req.PlanID)
	if err != nil {
		s.failErr(c, err)
		return
	}
	sess, err := s.session(plan, req.EgressParam)
	if err != nil {
		s.failErr(c, err)
		return
	}
	travel, err := sess.RoomTravel(req.Room, req.Door)
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, travel)
}

// HandleListPlans handles GET /v1/plans.
func (s *Server) HandleListPlans(c *gin.Context) {
	if s.store == nil {
		s.fail(c, http.StatusServiceUnavailable, "NO_DATABASE", errNoStore)
		return
	}
	var (
		plans []db.Plan
		err   error
	)
	if q := c.Query("q"); q != "" {
		plans, err = s.store.SearchPlans(q)
	} else {
		plans, err = s.store.ListPlans(queryInt(c, "limit", 50))
	}
	if err != nil {
		s.failErr(c, err)
		return
	}
	if plans == nil {
		plans = []db.Plan{}
	}
	c.JSON(http.StatusOK, PlansResponse{Plans: plans})
}

// HandleGetPlan handles GET /v1/plans/:id. It returns the plan document.
func (s *Server) HandleGetPlan(c *gin.Context) {
	if s.store == nil {
		s.fail(c, http.StatusServiceUnavailable, "NO_DATABASE", errNoStore)
		return
	}
	row, err := s.store.GetPlan(c.Param("id"))
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", row.Body)
}

// HandleListRuns handles GET /v1/runs.
func (s *Server) HandleListRuns(c *gin.Context) {
	if s.store == nil {
		s.fail(c, http.StatusServiceUnavailable, "NO_DATABASE", errNoStore)
		return
	}
	runs, err := s.store.ListRuns(c.Query("plan"), queryInt(c, "limit", 50))
	if err != nil {
		s.failErr(c, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	c.JSON(http.StatusOK, RunsResponse{Runs: runs})
}

// HandleGetRun handles GET /v1/runs/:id.
func (s *Server) HandleGetRun(c *gin.Context) {
	if s.store == nil {
		s.fail(c, http.StatusServiceUnavailable, "NO_DATABASE", errNoStore)
		return
	}
	run, err := s.store.GetRun(c.Param("id"))
	if err != nil {
		s.failErr(c, err)
		return
	}
	rep, err := run.Decode()
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, RunResponse{Run: run, Report: rep})
}

// loadPlan decodes an inline plan, or loads a stored one by id. The stored
// row is returned when the plan came from, or already exists in, the store.
func (s *Server) loadPlan(raw json.RawMessage, planID string) (*floor.Plan, *db.Plan, error) {
	if len(raw) == 0 || string(raw) == "null" {
		if planID == "" {
			return nil, nil, errors.Join(errInvalidPlan, errors.New("request needs a plan or a plan_id"))
		}
		if s.store == nil {
			return nil, nil, errNoStore
		}
		row, err := s.store.GetPlan(planID)
		if err != nil {
			return nil, nil, err
		}
		plan, err := row.Decode()
		if err != nil {
			return nil, nil, err
		}
		return plan, row, nil
	}

	plan, err := floor.ParsePlan(raw, floor.FormatJSON)
	if err != nil {
		return nil, nil, errors.Join(errInvalidPlan, err)
	}
	if plan.Name == "" {
		plan.Name = "untitled"
	}
	var row *db.Plan
	if s.store != nil {
		row, _ = s.store.PlanByFingerprint(plan.Fingerprint())
	}
	return plan, row, nil
}

func (s *Server) failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, floor.ErrConfiguration):
		s.fail(c, http.StatusUnprocessableEntity, "CONFIGURATION", err)
	case errors.Is(err, floor.ErrGeometry):
		s.fail(c, http.StatusUnprocessableEntity, "GEOMETRY", err)
	case errors.Is(err, errInvalidPlan):
		s.fail(c, http.StatusBadRequest, "INVALID_PLAN", err)
	case errors.Is(err, egress.ErrNotInNetwork), errors.Is(err, db.ErrNotFound):
		s.fail(c, http.StatusNotFound, "NOT_FOUND", err)
	case errors.Is(err, errNoStore):
		s.fail(c, http.StatusServiceUnavailable, "NO_DATABASE", err)
	default:
		s.fail(c, http.StatusInternalServerError, "INTERNAL", err)
	}
}

func (s *Server) fail(c *gin.Context, status int, code string, err error) {
	resp := ErrorResponse{Error: err.Error(), Code: code}
	if id, ok := floor.ElementOf(err); ok {
		resp.Element = id
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "request_id", c.GetString("request_id"), "error", err)
	} else {
		s.logger.Warn("request rejected", "path", c.FullPath(), "code", code, "error", err)
	}
	c.AbortWithStatusJSON(status, resp)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
