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
	"path/filepath"
	"reflect"
	"testing"
)

// testPEInputs builds a 2x2 grid with three local-grid cells and a
// presence raster for one tested component.
func testPEInputs(component string, presentRows ...int) (*RasterGroup, *RasterGroup) {
	gt := GeoTransform{0, 1, 0, 2, 0, -1}
	index := NewRasterGroup()
	lg := NewRaster("lg", 2, 2, gt, "", NoDataIndex)
	copy(lg.Data.Elements, []float64{0, 1, 2, NoDataIndex})
	index.Add(lg)

	data := NewRasterGroup()
	r := NewRaster(component, 2, 2, gt, "", 0)
	for _, row := range presentRows {
		r.Data.Elements[row] = 1
	}
	data.Add(r)
	return index, data
}

func TestBuildPETable(t *testing.T) {
	index, data := testPEInputs("DA_Eo_LD_CID10", 0, 2)
	table, err := BuildPETable(index, data)
	if err != nil {
		t.Fatal(err)
	}
	if table.NumRows() != 3 {
		t.Fatalf("NumRows() = %d, want 3", table.NumRows())
	}
	if !reflect.DeepEqual(table.Index(), []int{0, 1, 2}) {
		t.Errorf("Index() = %v", table.Index())
	}
	want := []float64{1, 0, 1}
	if got := table.Column("DA_Eo_LD_CID10"); !reflect.DeepEqual(got, want) {
		t.Errorf("presence column = %v, want %v", got, want)
	}
}

func TestBuildPETableMissingLG(t *testing.T) {
	if _, err := BuildPETable(NewRasterGroup(), NewRasterGroup()); err == nil {
		t.Error("a group without the lg raster should fail")
	}
}

func TestCalcDASumFixedTrue(t *testing.T) {
	index, data := testPEInputs("DA_Eo_LD_CID10")
	table, err := BuildPETable(index, data)
	if err != nil {
		t.Fatal(err)
	}
	CalcDASum(table)
	for _, name := range daFixedTrue {
		for row, v := range table.Column(name) {
			if v != 1 {
				t.Errorf("%s row %d = %g, want 1", name, row, v)
			}
		}
	}
}

func TestCalcDASumRatios(t *testing.T) {
	// One tested Eo requirement present in rows 0 and 2. The coal
	// component DA_Fl_NT_CID23 is asserted everywhere, so the five-
	// member Eo requirement set scores 2/5 there and 1/5 elsewhere.
	index, data := testPEInputs("DA_Eo_LD_CID10", 0, 2)
	table, err := BuildPETable(index, data)
	if err != nil {
		t.Fatal(err)
	}
	CalcDASum(table)

	ratio := table.Column("DA_Eo_sum_DR")
	want := []float64{0.4, 0.2, 0.4}
	if !reflect.DeepEqual(ratio, want) {
		t.Errorf("DA_Eo_sum_DR = %v, want %v", ratio, want)
	}
	for _, name := range DAResultColumns(table) {
		for row, v := range table.Column(name) {
			if v < 0 || v > 1 {
				t.Errorf("%s row %d = %g, outside [0, 1]", name, row, v)
			}
		}
	}
}

func TestCalcDASumDerived(t *testing.T) {
	// DA_Fl_LD_CID03 feeds DA_Fl_NE_CID11, which chains into
	// DA_Fl_NE_CID13, a tested Fl requirement.
	index, data := testPEInputs("DA_Fl_LD_CID03", 1)
	table, err := BuildPETable(index, data)
	if err != nil {
		t.Fatal(err)
	}
	CalcDASum(table)

	if got := table.Column("DA_Fl_NE_CID11"); got[1] != 1 || got[0] != 0 {
		t.Errorf("DA_Fl_NE_CID11 = %v, want presence in row 1 only", got)
	}
	if got := table.Column("DA_Fl_NE_CID13"); got[1] != 1 {
		t.Errorf("DA_Fl_NE_CID13 = %v, want presence in row 1", got)
	}
	// Fl scores CID13 plus the asserted CID23 in row 1.
	ratio := table.Column("DA_Fl_sum_DR")
	if !approx(ratio[1], 2./6.) || !approx(ratio[0], 1./6.) {
		t.Errorf("DA_Fl_sum_DR = %v", ratio)
	}
}

func TestDAResultColumns(t *testing.T) {
	index, data := testPEInputs("DA_Eo_LD_CID10")
	table, err := BuildPETable(index, data)
	if err != nil {
		t.Fatal(err)
	}
	CalcDASum(table)
	want := []string{"DA_Eo_sum_DR", "DA_Fl_sum_DR", "DA_HA_sum_DR",
		"DA_HP_sum_DR", "DA_MA_sum_DR", "DA_MP_sum_DR"}
	if got := DAResultColumns(table); !reflect.DeepEqual(got, want) {
		t.Errorf("DAResultColumns() = %v, want %v", got, want)
	}
}

func TestTableToRasters(t *testing.T) {
	index, data := testPEInputs("DA_Eo_LD_CID10", 0, 2)
	table, err := BuildPETable(index, data)
	if err != nil {
		t.Fatal(err)
	}
	CalcDASum(table)

	lg := index.Get("lg")
	out, err := TableToRasters(table, lg, []string{"DA_Eo_sum_DR"})
	if err != nil {
		t.Fatal(err)
	}
	r := out.Get("DA_Eo_sum_DR")
	want := []float64{0.4, 0.2, 0.4, NoDataIndex}
	if !reflect.DeepEqual(r.Data.Elements, want) {
		t.Errorf("raster = %v, want %v", r.Data.Elements, want)
	}

	if _, err := TableToRasters(table, lg, []string{"nope"}); err == nil {
		t.Error("an unknown column should fail")
	}
}

func TestWriteTableShp(t *testing.T) {
	index, data := testPEInputs("DA_Eo_LD_CID10", 0, 2)
	table, err := BuildPETable(index, data)
	if err != nil {
		t.Fatal(err)
	}
	CalcDASum(table)

	path := filepath.Join(t.TempDir(), "da_table.shp")
	if err := WriteTableShp(table, index.Get("lg"), DAResultColumns(table), path); err != nil {
		t.Fatal(err)
	}
}

func TestDbfName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"short", "short"},
		{"DA_Eo_sum_DR", "_Eo_sum_DR"},
	}
	for _, test := range tests {
		if got := dbfName(test.in); got != test.want {
			t.Errorf("dbfName(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}
