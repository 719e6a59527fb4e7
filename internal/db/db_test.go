package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"lifesaver/egress/internal/egress"
	"lifesaver/egress/internal/floor"
	"lifesaver/egress/internal/geom"
)

// setupTestDB opens an in-memory database with the full schema.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func testPlan(name string) *floor.Plan {
	loc := geom.Pt(10, 5, 0)
	return &floor.Plan{
		Name:  name,
		Phase: "New Construction",
		Rooms: []floor.Room{
			{ID: 1, Number: "101", Name: "Office", Area: 100, Location: geom.Pt(5, 5, 0), OccupancyLoad: intp(12)},
		},
		Doors: []floor.Door{
			{ID: 10, Mark: "D1", Location: &loc, FromRoom: 1, TypeWidth: floatp(3), Params: map[string]int{"Egress": 1}},
		},
	}
}

func savePlan(t *testing.T, d *DB, p *floor.Plan) *Plan {
	t.Helper()
	row, created, err := d.SavePlan(p)
	if err != nil {
		t.Fatalf("saving plan: %v", err)
	}
	if !created {
		t.Fatalf("expected %s to be new", p.Name)
	}
	return row
}

func TestOpenDB_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".egress.db")
	d, err := OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	savePlan(t, d, testPlan("level 1"))
	d.Close()

	// Reopening runs the migration again over existing tables.
	d, err = OpenDB(path)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	plans, err := d.ListPlans(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(plans) != 1 {
		t.Errorf("expected 1 plan after reopen, got %d", len(plans))
	}
}

func TestSavePlan_DedupByFingerprint(t *testing.T) {
	d := setupTestDB(t)
	first := savePlan(t, d, testPlan("level 1"))

	again, created, err := d.SavePlan(testPlan("level 1"))
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Error("identical plan should not be stored twice")
	}
	if again.ID != first.ID {
		t.Errorf("expected existing id %s, got %s", first.ID, again.ID)
	}
	if first.Rooms != 1 || first.Doors != 1 {
		t.Errorf("expected 1 room and 1 door, got %d and %d", first.Rooms, first.Doors)
	}
}

func TestGetPlan_RoundTrip(t *testing.T) {
	d := setupTestDB(t)
	row := savePlan(t, d, testPlan("level 1"))

	got, err := d.GetPlan(row.ID)
	if err != nil {
		t.Fatal(err)
	}
	plan, err := got.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if plan.Name != "level 1" || len(plan.Doors) != 1 {
		t.Errorf("decoded plan mismatch: %+v", plan)
	}
	if plan.Fingerprint() != row.Fingerprint {
		t.Error("decoded plan should keep its fingerprint")
	}
}

func TestGetPlan_NotFound(t *testing.T) {
	d := setupTestDB(t)
	_, err := d.GetPlan("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchPlans(t *testing.T) {
	d := setupTestDB(t)
	savePlan(t, d, testPlan("north tower level 2"))
	savePlan(t, d, testPlan("south annex"))

	got, err := d.SearchPlans("tower")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Name != "north tower level 2" {
		t.Errorf("expected the tower plan, got %+v", got)
	}

	none, err := d.SearchPlans("of a")
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("stopword-only query should match nothing, got %d", len(none))
	}
}

func TestSearchByIDPrefix(t *testing.T) {
	d := setupTestDB(t)
	row := savePlan(t, d, testPlan("level 1"))
	got, err := d.SearchByIDPrefix(row.ID[:8], 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != row.ID {
		t.Errorf("prefix search failed: %+v", got)
	}
}

func analyze(t *testing.T, p *floor.Plan) *egress.Report {
	t.Helper()
	s, err := egress.NewSession(p, egress.Config{})
	if err != nil {
		t.Fatal(err)
	}
	rep, err := s.Analyze(context.Background(), egress.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	return rep
}

func TestRuns_SaveListGet(t *testing.T) {
	d := setupTestDB(t)
	p := testPlan("level 1")
	row := savePlan(t, d, p)
	other := savePlan(t, d, testPlan("level 2"))

	rep := analyze(t, p)
	run, err := d.SaveRun(row.ID, rep)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.SaveRun(other.ID, rep); err != nil {
		t.Fatal(err)
	}
	if !run.OK || run.Rooms != 1 || run.Routed != 1 {
		t.Errorf("unexpected run summary: %+v", run)
	}

	runs, err := d.ListRuns(row.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Errorf("expected one run for the plan, got %+v", runs)
	}
	all, err := d.ListRuns("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 runs in total, got %d", len(all))
	}

	got, err := d.GetRun(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := got.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Summary != rep.Summary {
		t.Errorf("summary mismatch: %+v vs %+v", decoded.Summary, rep.Summary)
	}
	if len(decoded.Rooms) != 1 || decoded.Rooms[0].Best == nil {
		t.Fatalf("expected a best route in the stored report")
	}
	if decoded.Rooms[0].Best.Steps[0].Type.String() != "Room" {
		t.Errorf("node types should decode by name, got %v", decoded.Rooms[0].Best.Steps[0].Type)
	}
}

func TestRuns_UnknownPlan(t *testing.T) {
	d := setupTestDB(t)
	if _, err := d.SaveRun("missing", analyze(t, testPlan("x"))); err == nil {
		t.Error("foreign key should reject a run for an unknown plan")
	}
}

func TestDeletePlan_CascadesRuns(t *testing.T) {
	d := setupTestDB(t)
	p := testPlan("level 1")
	row := savePlan(t, d, p)
	if _, err := d.SaveRun(row.ID, analyze(t, p)); err != nil {
		t.Fatal(err)
	}

	if err := d.DeletePlan(row.ID); err != nil {
		t.Fatal(err)
	}
	runs, err := d.ListRuns("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("runs should be deleted with their plan, got %d", len(runs))
	}
	if got, _ := d.SearchPlans("level"); len(got) != 0 {
		t.Errorf("deleted plan should leave the search index, got %d", len(got))
	}
	if err := d.DeletePlan(row.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete should be ErrNotFound, got %v", err)
	}
}
