package wrs_test

import (
	"math"
	"slices"
	"testing"

	"sapsdispatch/internal/wrs"
)

func TestCellOfPathOneAtEquator(t *testing.T) {
	cell := wrs.CellOf(0, -64.6)
	if cell.Path != 1 || cell.Row != 60 {
		t.Fatalf("CellOf(0, -64.6) = %+v, want path 1 row 60", cell)
	}
	if got := cell.Region(); got != "001060" {
		t.Fatalf("unexpected region code %q", got)
	}
}

func TestPathsNumberWestwardAndRowsSouthward(t *testing.T) {
	origin := wrs.CellOf(0, -64.6)
	west := wrs.CellOf(0, -66.5)
	south := wrs.CellOf(-2, -64.6)
	if west.Path != origin.Path+1 {
		t.Fatalf("expected westward neighbour path %d, got %d", origin.Path+1, west.Path)
	}
	if south.Row != origin.Row+1 {
		t.Fatalf("expected southward neighbour row %d, got %d", origin.Row+1, south.Row)
	}
}

func TestCellCenterRoundTrips(t *testing.T) {
	for path := 1; path <= wrs.Paths; path++ {
		for _, row := range []int{1, 30, 60, 61, 122} {
			cell := wrs.Cell{Path: path, Row: row}
			lat, lon := cell.Center()
			if got := wrs.CellOf(lat, lon); got != cell {
				t.Fatalf("CellOf(center of %+v) = %+v", cell, got)
			}
		}
	}
}

func TestRowsClampAtPoles(t *testing.T) {
	if got := wrs.CellOf(90, 0).Row; got != 1 {
		t.Fatalf("expected north pole to clamp to row 1, got %d", got)
	}
	if got := wrs.CellOf(-90, 0).Row; got != wrs.Rows {
		t.Fatalf("expected south pole to clamp to row %d, got %d", wrs.Rows, got)
	}
}

func TestRegionsFromAreaSingleCell(t *testing.T) {
	cell := wrs.CellOf(-7.1, -34.9)
	lat, lon := cell.Center()
	cases := []wrs.BBox{
		{MinLat: lat, MinLon: lon, MaxLat: lat, MaxLon: lon},
		{MinLat: lat - 0.1, MinLon: lon - 0.1, MaxLat: lat + 0.1, MaxLon: lon + 0.1},
	}
	for _, bbox := range cases {
		got := wrs.RegionsFromArea(bbox)
		if len(got) != 1 || got[0] != cell.Region() {
			t.Fatalf("RegionsFromArea(%+v) = %v, want [%s]", bbox, got, cell.Region())
		}
	}
}

func TestRegionsFromAreaTwoAdjacentPaths(t *testing.T) {
	cell := wrs.CellOf(-10, -50)
	b := cell.Bounds()
	bbox := wrs.BBox{
		MinLat: b.MinLat + 0.1,
		MinLon: b.MinLon - 0.1,
		MaxLat: b.MaxLat - 0.1,
		MaxLon: b.MaxLon - 0.1,
	}
	got := wrs.RegionsFromArea(bbox)
	want := []wrs.Region{cell.Region(), wrs.Cell{Path: cell.Path + 1, Row: cell.Row}.Region()}
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Fatalf("RegionsFromArea = %v, want %v", got, want)
	}
}

func TestRegionsFromAreaIsSortedAndDistinct(t *testing.T) {
	got := wrs.RegionsFromArea(wrs.BBox{MinLat: -12, MinLon: -48, MaxLat: -4, MaxLon: -36})
	if len(got) < 4 {
		t.Fatalf("expected several regions, got %v", got)
	}
	if !slices.IsSorted(got) {
		t.Fatalf("regions not sorted: %v", got)
	}
	if len(slices.Compact(slices.Clone(got))) != len(got) {
		t.Fatalf("regions contain duplicates: %v", got)
	}
	for _, region := range got {
		if len(region) != 6 {
			t.Fatalf("unexpected region code %q", region)
		}
	}
}

func TestRegionsFromAreaAcrossAntimeridian(t *testing.T) {
	bbox := wrs.BBox{MinLat: -1, MinLon: 179.5, MaxLat: 1, MaxLon: -179.5}
	if !bbox.CrossesAntimeridian() {
		t.Fatal("expected bbox to cross the antimeridian")
	}
	got := wrs.RegionsFromArea(bbox)
	east := wrs.CellOf(0, -179.5).Region()
	west := wrs.CellOf(0, 179.5).Region()
	if !slices.Contains(got, east) || !slices.Contains(got, west) {
		t.Fatalf("expected %s and %s in %v", east, west, got)
	}
	if len(got) > 6 {
		t.Fatalf("antimeridian box should stay narrow, got %d regions", len(got))
	}
}

func TestRegionsFromAreaWholeGlobeBand(t *testing.T) {
	got := wrs.RegionsFromArea(wrs.BBox{MinLat: 0.1, MinLon: -180, MaxLat: 0.2, MaxLon: 180})
	if len(got) != wrs.Paths {
		t.Fatalf("expected every path once, got %d", len(got))
	}
}

func TestRegionsFromAreaIgnoresNonFiniteBoxes(t *testing.T) {
	boxes := map[string]wrs.BBox{
		"nan longitude": {MinLat: -7.3, MinLon: math.NaN(), MaxLat: -7.2, MaxLon: math.NaN()},
		"nan latitude":  {MinLat: math.NaN(), MinLon: -35.3, MaxLat: -7.2, MaxLon: -35.2},
		"infinite":      {MinLat: -7.3, MinLon: math.Inf(-1), MaxLat: -7.2, MaxLon: -35.2},
	}
	for name, box := range boxes {
		if box.Finite() {
			t.Fatalf("%s: expected Finite to be false", name)
		}
		if got := wrs.RegionsFromArea(box); len(got) != 0 {
			t.Fatalf("%s: expected no regions, got %v", name, got)
		}
	}
}

func TestParseRegion(t *testing.T) {
	cell, err := wrs.ParseRegion("215065")
	if err != nil {
		t.Fatalf("ParseRegion returned error: %v", err)
	}
	if cell.Path != 215 || cell.Row != 65 {
		t.Fatalf("unexpected cell %+v", cell)
	}
	for _, bad := range []string{"", "21506", "000065", "215123", "21a065"} {
		if _, err := wrs.ParseRegion(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
