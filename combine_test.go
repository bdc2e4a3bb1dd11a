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
	"math"
	"testing"

	"github.com/ctessum/sparse"
)

func TestNormalizeRaster(t *testing.T) {
	nd := math.Inf(1)
	src := testRaster("n", []float64{2, 4, 6, nd}, nd)

	out := NormalizeRaster(src, false)
	want := []float64{0, 0.5, 1, nd}
	for i, w := range want {
		if got := out.Data.Elements[i]; !approx(got, w) {
			t.Errorf("element %d = %g, want %g", i, got, w)
		}
	}

	flipped := NormalizeRaster(src, true)
	wantFlip := []float64{1, 0.5, 0, nd}
	for i, w := range wantFlip {
		if got := flipped.Data.Elements[i]; !approx(got, w) {
			t.Errorf("flipped element %d = %g, want %g", i, got, w)
		}
	}
}

func TestNormalizeRasterSingleValue(t *testing.T) {
	nd := math.Inf(1)
	src := testRaster("n", []float64{3, 3, nd, 3}, nd)
	out := NormalizeRaster(src, false)
	want := []float64{0, 0, nd, 0}
	for i, w := range want {
		if got := out.Data.Elements[i]; !approx(got, w) {
			t.Errorf("element %d = %g, want %g", i, got, w)
		}
	}
}

func TestNormalizeRasterAllMissing(t *testing.T) {
	nd := math.Inf(1)
	src := testRaster("n", []float64{nd, nd, nd, nd}, nd)
	out := NormalizeRaster(src, true)
	if !out.Empty() {
		t.Error("an all-missing raster should pass through unchanged")
	}
}

// testDistanceInputs builds a matched pair of groups: two ld domain
// distance rasters, their hitmaps, and two DS component rasters, one
// touching only domain 0 and one touching both.
func testDistanceInputs() (domDist *RasterGroup, hitmaps map[string]*DomainHits, tests *RasterGroup) {
	nd := math.Inf(1)
	gt := GeoTransform{0, 1, 0, 2, 0, -1}

	domDist = NewRasterGroup()
	ld0 := NewRaster("ld_0", 2, 2, gt, "", nd)
	copy(ld0.Data.Elements, []float64{0, 1, 1, 2})
	domDist.Add(ld0)
	ld1 := NewRaster("ld_1", 2, 2, gt, "", nd)
	copy(ld1.Data.Elements, []float64{5, 4, 3, 0})
	domDist.Add(ld1)

	maps := sparse.ZerosDense(2, 2, 2)
	copy(maps.Elements, []float64{
		1, 0, 0, 0, // index 0 occupies the top-left cell
		0, 0, 0, 1, // index 1 occupies the bottom-right cell
	})
	hitmaps = map[string]*DomainHits{
		"ld": {Maps: maps, Hit: []bool{true, true}},
	}

	tests = NewRasterGroup()
	one := NewRaster("DS_Eo_LD_CID91", 2, 2, gt, "", 0)
	one.Data.Elements[0] = 1
	tests.Add(one)
	both := NewRaster("DS_Fl_LD_CID92", 2, 2, gt, "", 0)
	both.Data.Elements[0] = 1
	both.Data.Elements[3] = 1
	tests.Add(both)
	return domDist, hitmaps, tests
}

func TestFindDomainComponentRasters(t *testing.T) {
	domDist, hitmaps, tests := testDistanceInputs()
	combos, err := FindDomainComponentRasters(domDist, hitmaps, tests)
	if err != nil {
		t.Fatal(err)
	}

	// A component touching one domain carries that domain's
	// distances unchanged.
	single := combos.Get("DS_Eo_LD_CID91")
	if single == nil {
		t.Fatal("missing combined raster for DS_Eo_LD_CID91")
	}
	want := []float64{0, 1, 1, 2}
	for i, w := range want {
		if got := single.Data.Elements[i]; !approx(got, w) {
			t.Errorf("single element %d = %g, want %g", i, got, w)
		}
	}

	// A component touching both domains takes the cellwise minimum.
	fused := combos.Get("DS_Fl_LD_CID92")
	wantFused := []float64{0, 1, 1, 0}
	for i, w := range wantFused {
		if got := fused.Data.Elements[i]; !approx(got, w) {
			t.Errorf("fused element %d = %g, want %g", i, got, w)
		}
	}
}

func TestFindDomainComponentRastersSkipsLG(t *testing.T) {
	domDist, hitmaps, tests := testDistanceInputs()
	lg := NewRaster("DS_Eo_LG_CID93", 2, 2, domDist.GeoTransform(), "", 0)
	lg.Data.Elements[0] = 1
	tests.Add(lg)

	combos, err := FindDomainComponentRasters(domDist, hitmaps, tests)
	if err != nil {
		t.Fatal(err)
	}
	if combos.Contains("DS_Eo_LG_CID93") {
		t.Error("local-grid components should not fuse against domains")
	}
}

func TestNormMultRasters(t *testing.T) {
	nd := math.Inf(1)
	imp := NewRasterGroup()
	imp.Add(testRaster("DS_Eo_LD_CID91", []float64{0, 2, 4, nd}, nd))
	exp := NewRasterGroup()
	exp.Add(testRaster("DS_Eo_LD_CID91", []float64{4, 2, 0, 0}, nd))

	out, err := NormMultRasters(imp, exp)
	if err != nil {
		t.Fatal(err)
	}
	r := out.Get("DS_Eo_LD_CID91")
	// Normalized and flipped: implicit {1, .5, 0, nd}, explicit
	// {0, .5, 1, 1}; the product holds data only where both do.
	want := []float64{0, 0.25, 0, nd}
	for i, w := range want {
		if got := r.Data.Elements[i]; !approx(got, w) {
			t.Errorf("element %d = %g, want %g", i, got, w)
		}
	}
}

func TestNormMultRastersMissingCounterpart(t *testing.T) {
	nd := math.Inf(1)
	imp := NewRasterGroup()
	imp.Add(testRaster("DS_Eo_LD_CID91", []float64{0, 1, 2, 3}, nd))
	if _, err := NormMultRasters(imp, NewRasterGroup()); err == nil {
		t.Error("a missing explicit counterpart should fail")
	}
}

func TestNormLGRasters(t *testing.T) {
	nd := math.Inf(1)
	g := NewRasterGroup()
	g.Add(testRaster("DS_Eo_LG_CID93", []float64{0, 1, 2, nd}, nd))
	g.Add(testRaster("DS_Eo_LD_CID91", []float64{0, 1, 2, 3}, nd))

	out, err := NormLGRasters(g)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 1 {
		t.Fatalf("got %d rasters, want 1 (lg members only)", out.Len())
	}
	r := out.Get("DS_Eo_LG_CID93")
	want := []float64{1, 0.5, 0, nd}
	for i, w := range want {
		if got := r.Data.Elements[i]; !approx(got, w) {
			t.Errorf("element %d = %g, want %g", i, got, w)
		}
	}
}
