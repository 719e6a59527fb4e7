package db

// Plan represents a row in the plans table
type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Phase       string `json:"phase"`
	Fingerprint string `json:"fingerprint"`
	Body        []byte `json:"-"` // plan encoded as JSON
	Rooms       int    `json:"rooms"`
	Doors       int    `json:"doors"`
	CreatedAt   int64  `json:"created_at"` // Unix millis
}

// Run represents a row in the runs table
type Run struct {
	ID                string  `json:"id"`
	PlanID            string  `json:"plan_id"`
	OK                bool    `json:"ok"`
	Rooms             int     `json:"rooms"`
	Routed            int     `json:"routed"`
	Unreachable       int     `json:"unreachable"`
	OverTravel        int     `json:"over_travel"`
	FailingDoors      int     `json:"failing_doors"`
	LongestRoute      float64 `json:"longest_route"`
	MaxTravel         float64 `json:"max_travel"`
	InchesPerOccupant float64 `json:"inches_per_occupant"`
	Report            []byte  `json:"-"`         // egress.Report as JSON
	CreatedAt         int64   `json:"created_at"` // Unix millis
}
