package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"lifesaver/egress/internal/floor"
)

const planColumns = `id, name, phase, fingerprint, body, rooms, doors, created_at`

// scanPlan scans a row into a Plan. The row must have planColumns in order.
func scanPlan(scanner interface{ Scan(dest ...any) error }) (Plan, error) {
	var p Plan
	err := scanner.Scan(
		&p.ID, &p.Name, &p.Phase, &p.Fingerprint, &p.Body,
		&p.Rooms, &p.Doors, &p.CreatedAt,
	)
	return p, err
}

func (d *DB) queryPlans(query string, args ...any) ([]Plan, error) {
	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// SavePlan stores p unless a plan with the same fingerprint is already
// stored. It returns the stored row and whether it was newly created.
func (d *DB) SavePlan(p *floor.Plan) (*Plan, bool, error) {
	fp := p.Fingerprint()
	if existing, err := d.PlanByFingerprint(fp); err == nil {
		return existing, false, nil
	}

	body, err := p.Encode(floor.FormatJSON)
	if err != nil {
		return nil, false, fmt.Errorf("encoding plan: %w", err)
	}
	row := Plan{
		ID:          uuid.NewString(),
		Name:        p.Name,
		Phase:       p.Phase,
		Fingerprint: fp,
		Body:        body,
		Rooms:       len(p.Rooms),
		Doors:       len(p.Doors),
		CreatedAt:   time.Now().UnixMilli(),
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO plans (`+planColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.Name, row.Phase, row.Fingerprint, row.Body, row.Rooms, row.Doors, row.CreatedAt,
	); err != nil {
		return nil, false, fmt.Errorf("inserting plan: %w", err)
	}
	if _, err := tx.Exec(`INSERT INTO plans_fts (plan_id, name, phase) VALUES (?, ?, ?)`,
		row.ID, row.Name, row.Phase,
	); err != nil {
		return nil, false, fmt.Errorf("indexing plan: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return &row, true, nil
}

// GetPlan returns a single plan by ID
func (d *DB) GetPlan(id string) (*Plan, error) {
	row := d.conn.QueryRow(`SELECT `+planColumns+` FROM plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if err != nil {
		return nil, notFound(err, "plan "+id)
	}
	return &p, nil
}

// PlanByFingerprint returns the plan stored with the given fingerprint
func (d *DB) PlanByFingerprint(fp string) (*Plan, error) {
	row := d.conn.QueryRow(`SELECT `+planColumns+` FROM plans WHERE fingerprint = ?`, fp)
	p, err := scanPlan(row)
	if err != nil {
		return nil, notFound(err, "plan with fingerprint "+fp)
	}
	return &p, nil
}

// ListPlans returns the newest plans first. limit <= 0 means no limit.
func (d *DB) ListPlans(limit int) ([]Plan, error) {
	if limit <= 0 {
		limit = -1
	}
	return d.queryPlans(`SELECT `+planColumns+` FROM plans ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
}

// SearchByIDPrefix finds plans whose ID starts with the given prefix.
func (d *DB) SearchByIDPrefix(prefix string, limit int) ([]Plan, error) {
	return d.queryPlans(`SELECT `+planColumns+` FROM plans WHERE id LIKE ? LIMIT ?`, prefix+"%", limit)
}

// DeletePlan removes a plan and, by cascade, its runs.
func (d *DB) DeletePlan(id string) error {
	res, err := d.conn.Exec(`DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("plan %s: %w", id, ErrNotFound)
	}
	_, err = d.conn.Exec(`DELETE FROM plans_fts WHERE plan_id = ?`, id)
	return err
}

// Decode parses the stored plan body.
func (p *Plan) Decode() (*floor.Plan, error) {
	plan, err := floor.ParsePlan(p.Body, floor.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("decoding stored plan %s: %w", p.ID, err)
	}
	return plan, nil
}
