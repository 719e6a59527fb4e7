package server

import (
	"encoding/json"

	"lifesaver/egress/internal/db"
	"lifesaver/egress/internal/egress"
	"lifesaver/egress/internal/floor"
)

// OptionsRequest overrides the server's analysis defaults. Zero fields keep
// the default.
type OptionsRequest struct {
	MaxTravel         float64 `json:"max_travel" binding:"gte=0"`
	InchesPerOccupant float64 `json:"inches_per_occupant" binding:"gte=0"`
	Workers           int     `json:"workers" binding:"gte=0,lte=256"`
}

// AnalysisRequest is the body of POST /v1/analyses.
type AnalysisRequest struct {
	// Plan is a plan document, or empty when PlanID names a stored plan.
	Plan        json.RawMessage `json:"plan"`
	PlanID      string          `json:"plan_id"`
	EgressParam string          `json:"egress_param"`
	Options     OptionsRequest  `json:"options"`

	// Save stores the plan and the run. Requires a database.
	Save bool `json:"save"`
}

// AnalysisResponse is the result of POST /v1/analyses.
type AnalysisResponse struct {
	PlanID string         `json:"plan_id,omitempty"`
	RunID  string         `json:"run_id,omitempty"`
	Report *egress.Report `json:"report"`
}

// RouteRequest is the body of POST /v1/routes.
type RouteRequest struct {
	Plan        json.RawMessage `json:"plan"`
	PlanID      string          `json:"plan_id"`
	EgressParam string          `json:"egress_param"`
	Room        floor.ElementID `json:"room" binding:"required"`
	Exit        floor.ElementID `json:"exit" binding:"required"`
}

// RouteResponse is the result of POST /v1/routes.
type RouteResponse struct {
	Found bool              `json:"found"`
	Route *egress.RouteView `json:"route,omitempty"`
}

// RoomTravelRequest is the body of POST /v1/room-travel.
type RoomTravelRequest struct {
	Plan        json.RawMessage `json:"plan"`
	PlanID      string          `json:"plan_id"`
	EgressParam string          `json:"egress_param"`
	Room        floor.ElementID `json:"room" binding:"required"`
	Door        floor.ElementID `json:"door" binding:"required"`
}

// PlansResponse lists stored plans.
type PlansResponse struct {
	Plans []db.Plan `json:"plans"`
}

// RunsResponse lists stored runs.
type RunsResponse struct {
	Runs []db.Run `json:"runs"`
}

// RunResponse is one stored run with its report.
type RunResponse struct {
	Run    *db.Run        `json:"run"`
	Report *egress.Report `json:"report"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Database bool   `json:"database"`
	Sessions int    `json:"sessions"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is the error code.
	Code string `json:"code"`

	// Element is the offending element id, for configuration and geometry
	// errors.
	Element floor.ElementID `json:"element,omitempty"`
}
