package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"lifesaver/egress/internal/egress"
)

const runColumns = `id, plan_id, ok, rooms, routed, unreachable, over_travel, failing_doors,
	longest_route, max_travel, inches_per_occupant, report, created_at`

// scanRun scans a row into a Run. The row must have runColumns in order.
func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var r Run
	err := scanner.Scan(
		&r.ID, &r.PlanID, &r.OK, &r.Rooms, &r.Routed, &r.Unreachable,
		&r.OverTravel, &r.FailingDoors, &r.LongestRoute, &r.MaxTravel,
		&r.InchesPerOccupant, &r.Report, &r.CreatedAt,
	)
	return r, err
}

// SaveRun records an analysis report against a stored plan.
func (d *DB) SaveRun(planID string, rep *egress.Report) (*Run, error) {
	body, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("encoding report: %w", err)
	}
	s := rep.Summary
	r := Run{
		ID:                uuid.NewString(),
		PlanID:            planID,
		OK:                rep.OK(),
		Rooms:             s.Rooms,
		Routed:            s.Routed,
		Unreachable:       s.Unreachable,
		OverTravel:        s.OverTravel,
		FailingDoors:      s.FailingDoors,
		LongestRoute:      s.LongestRoute,
		MaxTravel:         rep.Options.MaxTravel,
		InchesPerOccupant: rep.Options.InchesPerOccupant,
		Report:            body,
		CreatedAt:         time.Now().UnixMilli(),
	}

	_, err = d.conn.Exec(`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.PlanID, r.OK, r.Rooms, r.Routed, r.Unreachable, r.OverTravel, r.FailingDoors,
		r.LongestRoute, r.MaxTravel, r.InchesPerOccupant, r.Report, r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}
	return &r, nil
}

// GetRun returns a single run by ID
func (d *DB) GetRun(id string) (*Run, error) {
	row := d.conn.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err != nil {
		return nil, notFound(err, "run "+id)
	}
	return &r, nil
}

// ListRuns returns runs newest first, for one plan or, when planID is
// empty, for all plans. limit <= 0 means no limit.
func (d *DB) ListRuns(planID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.conn.Query(`
		SELECT `+runColumns+`
		FROM runs WHERE ?1 = '' OR plan_id = ?1
		ORDER BY created_at DESC, rowid DESC LIMIT ?2
	`, planID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Decode parses the stored report.
func (r *Run) Decode() (*egress.Report, error) {
	var rep egress.Report
	if err := json.Unmarshal(r.Report, &rep); err != nil {
		return nil, fmt.Errorf("decoding stored report %s: %w", r.ID, err)
	}
	return &rep, nil
}
