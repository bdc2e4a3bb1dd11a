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
)

// testSIMPAInputs builds fused evidence rasters feeding the Eo
// mechanism of the default model: favorable in the first cell,
// unfavorable in the third, missing in the last.
func testSIMPAInputs() *RasterGroup {
	nd := math.Inf(1)
	g := NewRasterGroup()
	g.Add(testRaster("DA_Eo_sum_DR", []float64{1, 0.5, 0, nd}, nd))
	g.Add(testRaster("DS_Eo_rel", []float64{0.9, 0.5, 0.1, nd}, nd))
	return g
}

func TestSIMPARun(t *testing.T) {
	s := &SIMPA{Serial: true}
	out, err := s.Run(testSIMPAInputs())
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"PE_Eo", "PE_Fl", "PE_HA", "PE_HP", "PE_MA", "PE_MP", "PE_max"} {
		if !out.Contains(name) {
			t.Fatalf("missing output raster %s", name)
		}
	}

	pe := out.Get("PE_Eo")
	for i, v := range pe.Data.Elements[:3] {
		if pe.IsNoData(v) {
			t.Fatalf("PE_Eo cell %d is missing", i)
		}
		if v < 0 || v > 1 {
			t.Errorf("PE_Eo cell %d = %g, outside [0, 1]", i, v)
		}
	}
	if pe.Data.Elements[0] <= pe.Data.Elements[2] {
		t.Errorf("favorable cell scored %g, unfavorable %g; want favorable higher",
			pe.Data.Elements[0], pe.Data.Elements[2])
	}
	// The last cell is missing in every input and must not score.
	for _, name := range []string{"PE_Eo", "PE_max"} {
		r := out.Get(name)
		if v := r.Data.Elements[3]; !r.IsNoData(v) {
			t.Errorf("%s cell 3 = %g with every input missing, want no-data", name, v)
		}
	}
}

func TestSIMPAParallelMatchesSerial(t *testing.T) {
	serial, err := (&SIMPA{Serial: true}).Run(testSIMPAInputs())
	if err != nil {
		t.Fatal(err)
	}
	parallel, err := (&SIMPA{}).Run(testSIMPAInputs())
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range serial.Names() {
		a := serial.Get(name).Data.Elements
		b := parallel.Get(name).Data.Elements
		for i := range a {
			if a[i] != b[i] && !(math.IsInf(a[i], -1) && math.IsInf(b[i], -1)) {
				t.Errorf("%s cell %d: serial %g, parallel %g", name, i, a[i], b[i])
			}
		}
	}
}

func TestSIMPAMax(t *testing.T) {
	out, err := (&SIMPA{Serial: true}).Run(testSIMPAInputs())
	if err != nil {
		t.Fatal(err)
	}
	max := out.Get("PE_max")
	for i := range max.Data.Elements {
		want := math.Inf(-1)
		for _, name := range out.Names() {
			if name == "PE_max" {
				continue
			}
			r := out.Get(name)
			if v := r.Data.Elements[i]; !r.IsNoData(v) && v > want {
				want = v
			}
		}
		if got := max.Data.Elements[i]; got != want {
			t.Errorf("PE_max cell %d = %g, want %g", i, got, want)
		}
	}
}

func TestSIMPAEmptyInput(t *testing.T) {
	if _, err := (&SIMPA{}).Run(NewRasterGroup()); err == nil {
		t.Error("an empty input group should fail")
	}
}
