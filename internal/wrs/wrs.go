// Package wrs maps geographic areas onto Landsat Worldwide Reference System 2
// (WRS-2) path/row cells.
//
// The grid is a regular approximation of the WRS-2 descending-node layout:
// 233 paths of equal longitude width numbered westward from path 1 (centred on
// 64.60°W) and 122 rows of equal latitude height numbered southward, with row
// 60 centred on the equator. Each cell owns its northern and eastern edges, so
// every coordinate belongs to exactly one cell. Everything here is pure.
package wrs

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

const (
	// Paths is the number of WRS-2 paths around the globe.
	Paths = 233
	// Rows is the number of WRS-2 rows from north to south.
	Rows = 122

	equatorRow     = 60
	path1CenterLon = -64.60
)

var (
	pathWidth = 360.0 / Paths
	rowHeight = 360.0 / 248
)

// Region is a six character PPPRRR cell code.
type Region string

// BBox is a latitude/longitude box given by its lower-left and upper-right
// corners. MinLon greater than MaxLon describes a box crossing the
// antimeridian.
type BBox struct {
	MinLat float64
	MinLon float64
	MaxLat float64
	MaxLon float64
}

// CrossesAntimeridian reports whether the box wraps from 180° to -180°.
func (b BBox) CrossesAntimeridian() bool {
	return b.MinLon > b.MaxLon
}

// Finite reports whether every corner is a real number.
func (b BBox) Finite() bool {
	for _, v := range [...]float64{b.MinLat, b.MinLon, b.MaxLat, b.MaxLon} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Cell is one WRS-2 path/row.
type Cell struct {
	Path int
	Row  int
}

// Region returns the PPPRRR code of the cell.
func (c Cell) Region() Region {
	return Region(fmt.Sprintf("%03d%03d", c.Path, c.Row))
}

// Bounds returns the extent of the cell. The cell straddling the antimeridian
// reports MinLon > MaxLon.
func (c Cell) Bounds() BBox {
	east := path1CenterLon + pathWidth/2 - float64(c.Path-1)*pathWidth
	north := rowHeight/2 - float64(c.Row-equatorRow)*rowHeight
	return BBox{
		MinLat: north - rowHeight,
		MinLon: normalizeLon(east - pathWidth),
		MaxLat: north,
		MaxLon: normalizeLon(east),
	}
}

// Center returns a coordinate strictly inside the cell.
func (c Cell) Center() (lat, lon float64) {
	b := c.Bounds()
	return b.MaxLat - rowHeight/2, normalizeLon(b.MaxLon - pathWidth/2)
}

// CellOf returns the cell owning the coordinate. Latitudes beyond the
// outermost rows clamp to row 1 or row 122.
func CellOf(lat, lon float64) Cell {
	return Cell{Path: pathIndex(lon) + 1, Row: rowOf(lat)}
}

// ParseRegion decodes a PPPRRR code.
func ParseRegion(code string) (Cell, error) {
	if len(code) != 6 {
		return Cell{}, fmt.Errorf("region %q: expected 6 digits", code)
	}
	path, err := strconv.Atoi(code[:3])
	if err != nil {
		return Cell{}, fmt.Errorf("region %q: path: %w", code, err)
	}
	row, err := strconv.Atoi(code[3:])
	if err != nil {
		return Cell{}, fmt.Errorf("region %q: row: %w", code, err)
	}
	if path < 1 || path > Paths || row < 1 || row > Rows {
		return Cell{}, fmt.Errorf("region %q: path/row out of range", code)
	}
	return Cell{Path: path, Row: row}, nil
}

// RegionsFromArea returns the sorted, deduplicated codes of every cell owning
// at least one point of the box. A box with a NaN or infinite corner covers
// nothing.
func RegionsFromArea(b BBox) []Region {
	if !b.Finite() {
		return nil
	}
	north := rowOf(b.MaxLat)
	south := rowOf(b.MinLat)

	span := b.MaxLon - b.MinLon
	if span < 0 {
		span += 360
	}
	var pathIdx []int
	if span >= 360-pathWidth {
		pathIdx = make([]int, Paths)
		for i := range pathIdx {
			pathIdx[i] = i
		}
	} else {
		east := pathIndex(b.MaxLon)
		west := pathIndex(b.MinLon)
		count := (west-east+Paths)%Paths + 1
		pathIdx = make([]int, 0, count)
		for i := 0; i < count; i++ {
			pathIdx = append(pathIdx, (east+i)%Paths)
		}
	}

	regions := make([]Region, 0, len(pathIdx)*(south-north+1))
	for _, idx := range pathIdx {
		for row := north; row <= south; row++ {
			regions = append(regions, Cell{Path: idx + 1, Row: row}.Region())
		}
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i] < regions[j] })
	return regions
}

// pathIndex returns the zero-based path index owning lon.
func pathIndex(lon float64) int {
	x := math.Mod(path1CenterLon+pathWidth/2-lon, 360)
	if x < 0 {
		x += 360
	}
	idx := int(math.Floor(x / pathWidth))
	if idx >= Paths {
		idx = Paths - 1
	}
	return idx
}

func rowOf(lat float64) int {
	row := int(math.Floor((rowHeight/2-lat)/rowHeight)) + equatorRow
	return min(max(row, 1), Rows)
}

// normalizeLon maps a longitude into [-180, 180).
func normalizeLon(lon float64) float64 {
	x := math.Mod(lon+180, 360)
	if x < 0 {
		x += 360
	}
	return x - 180
}
