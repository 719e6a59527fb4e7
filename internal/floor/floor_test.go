package floor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifesaver/egress/internal/geom"
)

func intp(v int) *int                 { return &v }
func floatp(v float64) *float64       { return &v }
func pointp(p geom.Point) *geom.Point { return &p }

func squareOutline(x0, y0, size float64) geom.Outline {
	return geom.Outline{
		geom.Pt(x0, y0, 0),
		geom.Pt(x0+size, y0, 0),
		geom.Pt(x0+size, y0+size, 0),
		geom.Pt(x0, y0+size, 0),
	}
}

func samplePlan() *Plan {
	return &Plan{
		Name:  "level-1",
		Phase: "New Construction",
		Rooms: []Room{
			{ID: 1, Number: "101", Name: "Office", Area: 100, Location: geom.Pt(5, 5, 0), OccupancyLoad: intp(10), Outline: squareOutline(0, 0, 10)},
			{ID: 2, Number: "102", Name: "Corridor", Area: 200, Location: geom.Pt(15, 5, 0), OccupancyLoad: intp(0), Outline: squareOutline(10, 0, 10)},
			{ID: 3, Number: "103", Name: "Old Store", Area: 50, Phase: "Existing"},
		},
		Doors: []Door{
			{ID: 10, Mark: "D1", Location: pointp(geom.Pt(10, 5, 0)), FromRoom: 1, ToRoom: 2, TypeWidth: floatp(3)},
			{ID: 11, Mark: "D2", BoundingBox: &geom.Box{Min: geom.Pt(19, 4, 0), Max: geom.Pt(21, 6, 7)}, FromRoom: 2, InstanceWidth: floatp(3.5), Params: map[string]int{"Egress": 1}},
			{ID: 12, Mark: "D3", Location: pointp(geom.Pt(0, 5, 0)), FromRoom: 1, PhaseStatus: PhaseDemolished, TypeWidth: floatp(3)},
		},
		Boundaries: []Boundary{
			{ID: 20, RoomA: 1, RoomB: 2, Midpoint: geom.Pt(10, 8, 0)},
			{ID: 21, RoomA: 2, RoomB: 1, Midpoint: geom.Pt(10, 8.005, 0)},
		},
		TransitLines: []TransitLine{
			{ID: 30, Start: geom.Pt(11, 5, 0), End: geom.Pt(19, 5, 0)},
		},
	}
}

func TestResolve_FiltersAndGroups(t *testing.T) {
	in, err := samplePlan().Resolve(ResolveOptions{})
	require.NoError(t, err)

	require.Len(t, in.TransitRooms, 1)
	assert.Equal(t, ElementID(2), in.TransitRooms[0].RoomID)
	assert.Equal(t, "102: Corridor", in.TransitRooms[0].Name)

	// Room 3 is out of phase, room 2 is a transit room.
	require.Len(t, in.Rooms, 1)
	assert.Equal(t, ElementID(1), in.Rooms[0].ID)

	var doors, boundaries []Opening
	for _, o := range in.Openings {
		if o.Kind == DoorOpening {
			doors = append(doors, o)
		} else {
			boundaries = append(boundaries, o)
		}
	}
	require.Len(t, doors, 2, "demolished door must be dropped")
	assert.True(t, doors[1].IsEgress)
	assert.False(t, doors[0].IsEgress)
	assert.Equal(t, geom.Pt(20, 5, 0), doors[1].Location, "bounding box centre at min Z")
	assert.Equal(t, InvalidElementID, doors[1].Room2)

	require.Len(t, boundaries, 1, "coincident boundary crossings are merged")
	assert.Equal(t, ElementID(20), boundaries[0].ID)
}

func TestResolve_CustomEgressParam(t *testing.T) {
	p := samplePlan()
	p.Doors[0].Params = map[string]int{"Exit": 1}
	in, err := p.Resolve(ResolveOptions{EgressParam: "Exit"})
	require.NoError(t, err)
	assert.True(t, in.Openings[0].IsEgress)
	assert.False(t, in.Openings[1].IsEgress)
}

func TestResolve_MissingPhase(t *testing.T) {
	p := samplePlan()
	p.Phase = ""
	_, err := p.Resolve(ResolveOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestResolve_TransitLineOutsideRooms(t *testing.T) {
	p := samplePlan()
	p.TransitLines = []TransitLine{{ID: 31, Start: geom.Pt(11, 5, 0), End: geom.Pt(50, 5, 0)}}
	_, err := p.Resolve(ResolveOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeometry))
	id, ok := ElementOf(err)
	require.True(t, ok)
	assert.Equal(t, ElementID(31), id)
	assert.Contains(t, err.Error(), "not entirely in a room")
}

func TestResolve_TransitLineAcrossRooms(t *testing.T) {
	p := samplePlan()
	p.TransitLines = []TransitLine{{ID: 32, Start: geom.Pt(5, 5, 0), End: geom.Pt(15, 5, 0)}}
	_, err := p.Resolve(ResolveOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeometry))
	assert.Contains(t, err.Error(), "same room")
}

func TestResolve_ExplicitTransitRoomMustBeInPhase(t *testing.T) {
	p := samplePlan()
	p.TransitLines = []TransitLine{{ID: 33, RoomID: 3, Start: geom.Pt(0, 0, 0), End: geom.Pt(1, 0, 0)}}
	_, err := p.Resolve(ResolveOptions{})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestInputs_OccupancyAndWidth(t *testing.T) {
	p := samplePlan()
	p.Rooms[0].OccupancyLoad = nil
	p.Doors = append(p.Doors, Door{ID: 13, Mark: "D4", Location: pointp(geom.Pt(1, 1, 0)), FromRoom: 1})
	in, err := p.Resolve(ResolveOptions{})
	require.NoError(t, err)

	_, err = in.OccupancyLoad(1)
	assert.ErrorIs(t, err, ErrConfiguration)
	id, _ := ElementOf(err)
	assert.Equal(t, ElementID(1), id)

	load, err := in.OccupancyLoad(2)
	require.NoError(t, err)
	assert.Equal(t, 0, load)

	w, err := in.DoorWidth(10)
	require.NoError(t, err)
	assert.Equal(t, 3.0, w)

	w, err = in.DoorWidth(11)
	require.NoError(t, err)
	assert.Equal(t, 3.5, w, "falls back to instance width")

	_, err = in.DoorWidth(13)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestParsePlan_YAML(t *testing.T) {
	src := `
name: demo
phase: New
rooms:
  - id: 1
    number: "101"
    name: Office
    area: 120
    location: {x: 1, y: 2, z: 0}
    occupancy_load: 12
doors:
  - id: 5
    mark: D1
    location: {x: 0, y: 2, z: 0}
    from_room: 1
    type_width: 3
    params: {Egress: 1}
`
	plan, err := ParsePlan([]byte(src), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "demo", plan.Name)
	require.Len(t, plan.Rooms, 1)
	assert.Equal(t, 12, *plan.Rooms[0].OccupancyLoad)
	assert.Equal(t, 1, plan.Doors[0].Params["Egress"])
}

func TestParsePlan_RejectsInvalidRecords(t *testing.T) {
	cases := map[string]string{
		"negative area":  `{"phase":"New","rooms":[{"id":1,"area":-1}],"doors":[]}`,
		"missing id":     `{"phase":"New","rooms":[{"area":1}],"doors":[]}`,
		"unknown field":  `{"phase":"New","rooms":[],"doors":[],"bogus":1}`,
		"duplicate room": `{"phase":"New","rooms":[{"id":1},{"id":1}],"doors":[]}`,
		"door nowhere":   `{"phase":"New","rooms":[],"doors":[{"id":4,"mark":"D"}]}`,
		"bad status":     `{"phase":"New","rooms":[],"doors":[{"id":4,"location":{"x":0,"y":0,"z":0},"phase_status":"gone"}]}`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlan([]byte(src), FormatJSON)
			assert.Error(t, err)
		})
	}
}

func TestPlan_FingerprintStable(t *testing.T) {
	a, b := samplePlan(), samplePlan()
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	b.Rooms[0].Area = 101
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFor("plan.JSON"))
	assert.Equal(t, FormatYAML, FormatFor("plan.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("plan"))
}
