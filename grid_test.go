/*
Copyright © 2021 the URC authors.
This file is part of URC.

URC is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

URC is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with URC.  If not, see <http://www.gnu.org/licenses/>.
*/

package urc

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

const testProj = "+proj=lcc +lat_1=33.000000 +lat_2=45.000000 +lat_0=40.000000 +lon_0=-97.000000 +x_0=0 +y_0=0 +a=6370997.000000 +b=6370997.000000 +to_meter=1"

func box(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
		{X: x0, Y: y0},
	}}
}

func testLayer(t *testing.T, name string, fts ...*VectorFeature) *VectorLayer {
	t.Helper()
	sr, err := proj.Parse(testProj)
	if err != nil {
		t.Fatal(err)
	}
	return &VectorLayer{Name: name, SR: sr, Features: fts}
}

// testDomains builds a 4x4 unit-cell study area split into two
// lithologic domains (west LD1, east LD2) and two structural domains
// (south SD0, north SD1).
func testDomains(t *testing.T) (ld, sd *VectorLayer) {
	t.Helper()
	ld = testLayer(t, "lithologic",
		&VectorFeature{Polygonal: box(0, 0, 2, 4), Fields: map[string]string{"LD_index": "LD1"}},
		&VectorFeature{Polygonal: box(2, 0, 4, 4), Fields: map[string]string{"LD_index": "LD2"}},
	)
	sd = testLayer(t, "structural",
		&VectorFeature{Polygonal: box(0, 0, 4, 2), Fields: map[string]string{"SD_index": "SD0"}},
		&VectorFeature{Polygonal: box(0, 2, 4, 4), Fields: map[string]string{"SD_index": "SD1"}},
	)
	return ld, sd
}

func TestBuildIndexRasters(t *testing.T) {
	ld, sd := testDomains(t)
	cfg := &GridConfig{CellWidth: 1, CellHeight: 1, Proj: testProj}
	indices, mask, err := cfg.BuildIndexRasters(ld, sd, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if indices.Rows() != 4 || indices.Cols() != 4 {
		t.Fatalf("grid is %dx%d, want 4x4", indices.Rows(), indices.Cols())
	}
	for _, name := range []string{"lg", "ld", "sd", "ud"} {
		if !indices.Contains(name) {
			t.Fatalf("missing index raster %s", name)
		}
	}
	if indices.Contains("sa") {
		t.Error("sa raster created without a secondary alteration layer")
	}

	// The lithologic layer covers the whole frame.
	for i, v := range mask.Data.Elements {
		if v != 1 {
			t.Errorf("mask cell %d = %g, want 1", i, v)
		}
	}

	// Local-grid indices follow row-major scan order.
	lg := indices.Get("lg")
	for i, v := range lg.Data.Elements {
		if v != float64(i) {
			t.Errorf("lg cell %d = %g, want %d", i, v, i)
		}
	}

	// Row 0 is the north edge: LD1 on the west, LD2 on the east,
	// SD1 everywhere.
	ldRast, sdRast := indices.Get("ld"), indices.Get("sd")
	if got := ldRast.Data.Get(0, 0); got != 1 {
		t.Errorf("ld(0,0) = %g, want 1", got)
	}
	if got := ldRast.Data.Get(0, 3); got != 2 {
		t.Errorf("ld(0,3) = %g, want 2", got)
	}
	if got := sdRast.Data.Get(0, 0); got != 1 {
		t.Errorf("sd(0,0) = %g, want 1", got)
	}
	if got := sdRast.Data.Get(3, 0); got != 0 {
		t.Errorf("sd(3,0) = %g, want 0", got)
	}

	// With no alteration layer, ud = ld*maxSD + sd.
	ud := indices.Get("ud")
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := ldRast.Data.Get(y, x)*1 + sdRast.Data.Get(y, x)
			if got := ud.Data.Get(y, x); got != want {
				t.Errorf("ud(%d,%d) = %g, want %g", y, x, got, want)
			}
		}
	}
}

func TestBuildIndexRastersClip(t *testing.T) {
	ld, sd := testDomains(t)
	clip := testLayer(t, "clip",
		&VectorFeature{Polygonal: box(0, 0, 2, 4), Fields: map[string]string{}},
	)
	cfg := &GridConfig{CellWidth: 1, CellHeight: 1, Proj: testProj}
	indices, mask, err := cfg.BuildIndexRasters(ld, sd, nil, clip)
	if err != nil {
		t.Fatal(err)
	}

	// Only the western half is included; lg numbering skips the
	// excluded cells.
	lg := indices.Get("lg")
	id := 0.
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if x < 2 {
				if mask.Data.Get(y, x) != 1 {
					t.Errorf("mask(%d,%d) = %g, want 1", y, x, mask.Data.Get(y, x))
				}
				if got := lg.Data.Get(y, x); got != id {
					t.Errorf("lg(%d,%d) = %g, want %g", y, x, got, id)
				}
				id++
			} else {
				if mask.Data.Get(y, x) != 0 {
					t.Errorf("mask(%d,%d) = %g, want 0", y, x, mask.Data.Get(y, x))
				}
				if !lg.IsNoData(lg.Data.Get(y, x)) {
					t.Errorf("lg(%d,%d) should be missing", y, x)
				}
			}
		}
	}
}

func TestRasterizeDomainSynthesizedIndices(t *testing.T) {
	ld, sd := testDomains(t)
	// Drop the index attribute from the structural layer; feature
	// positions become the indices.
	for _, ft := range sd.Features {
		ft.Fields = map[string]string{}
	}
	cfg := &GridConfig{CellWidth: 1, CellHeight: 1, Proj: testProj}
	indices, _, err := cfg.BuildIndexRasters(ld, sd, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	sdRast := indices.Get("sd")
	if got := sdRast.Data.Get(3, 0); got != 0 {
		t.Errorf("sd(3,0) = %g, want 0 (first feature)", got)
	}
	if got := sdRast.Data.Get(0, 0); got != 1 {
		t.Errorf("sd(0,0) = %g, want 1 (second feature)", got)
	}
}

func TestBuildIndexRastersBadCell(t *testing.T) {
	ld, sd := testDomains(t)
	cfg := &GridConfig{CellWidth: 0, CellHeight: 1, Proj: testProj}
	if _, _, err := cfg.BuildIndexRasters(ld, sd, nil, nil); err == nil {
		t.Error("zero cell width should fail")
	}
}

func TestBuildIndexRastersBadIndexValue(t *testing.T) {
	for _, val := range []string{"3", "SD1"} {
		ld := testLayer(t, "lithologic",
			&VectorFeature{Polygonal: box(0, 0, 4, 4), Fields: map[string]string{"LD_index": val}},
		)
		_, sd := testDomains(t)
		cfg := &GridConfig{CellWidth: 1, CellHeight: 1, Proj: testProj}
		if _, _, err := cfg.BuildIndexRasters(ld, sd, nil, nil); err == nil {
			t.Errorf("LD_index value %q should fail", val)
		}
	}
}

func TestDefaultUDPolicy(t *testing.T) {
	tests := []struct {
		ld, sd, sa, maxLD, maxSD, want float64
	}{
		{0, 0, 0, 2, 3, 0},
		{1, 2, 0, 2, 3, 5},
		{2, 1, 0, 2, 3, 7},
		{1, 2, 1, 2, 3, 11},
		{2, 3, 1, 2, 3, 15},
	}
	for _, test := range tests {
		got := DefaultUDPolicy(test.ld, test.sd, test.sa, test.maxLD, test.maxSD)
		if got != test.want {
			t.Errorf("DefaultUDPolicy(%g, %g, %g, %g, %g) = %g, want %g",
				test.ld, test.sd, test.sa, test.maxLD, test.maxSD, got, test.want)
		}
	}
}
