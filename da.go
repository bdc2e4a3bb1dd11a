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
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"gonum.org/v1/gonum/floats"
)

// daComponentsAll is the comprehensive catalog of DA components,
// including those deemed not testable and those not evaluated as
// duplicates. This list is current as of 2020-03-24.
var daComponentsAll = []string{
	"DA_Fl_LD_CID01", "DA_Fl_LD_CID02", "DA_Fl_LD_CID03", "DA_Fl_LD_CID04", "DA_Fl_LD_CID05",
	"DA_Fl_LD_CID06", "DA_Fl_LD_CID07", "DA_Fl_LD_CID08", "DA_Fl_LD_CID09", "DA_Eo_LD_CID10",
	"DA_Fl_NE_CID11", "DA_Fl_NE_CID12", "DA_Fl_NE_CID13", "DA_Eo_LG_CID14", "DA_Eo_LG_CID15",
	"DA_Eo_LD_CID16", "DA_Fl_LD_CID17", "DA_Fl_LG_CID18", "DA_Fl_NT_CID19", "DA_Fl_LD_CID19",
	"DA_Eo_NT_CID20", "DA_Fl_NT_CID20", "DA_Eo_NT_CID21", "DA_Eo_LD_CID21", "DA_Eo_NE_CID21",
	"DA_Eo_NT_CID22", "DA_Eo_NT_CID23", "DA_MA_LD_CID24", "DA_MA_LD_CID25", "DA_MA_LD_CID26",
	"DA_MA_LD_CID27", "DA_MA_LD_CID28", "DA_MA_LD_CID29", "DA_MA_LD_CID30", "DA_MA_LD_CID31",
	"DA_MA_LD_CID32", "DA_MA_NE_CID33", "DA_MA_NE_CID34", "DA_MA_NE_CID35", "DA_MA_NE_CID36",
	"DA_MA_UD_CID37", "DA_MA_UD_CID38", "DA_MA_UD_CID39", "DA_MA_UD_CID40", "DA_MA_UD_CID41",
	"DA_MA_LG_CID42", "DA_MA_UD_CID43", "DA_MA_NT_CID44", "DA_HP_UD_CID45", "DA_HP_LG_CID46",
	"DA_MA_LG_CID47", "DA_MA_LG_CID48", "DA_MA_LG_CID49", "DA_MA_LG_CID50", "DA_MA_NT_CID51",
	"DA_MA_LG_CID52", "DA_MA_NT_CID53", "DA_MA_LG_CID54", "DA_MP_NT_CID55", "DA_MP_LG_CID56",
	"DA_MP_LG_CID57", "DA_MP_NT_CID58", "DA_MA_NT_CID59", "DA_Fl_LD_CID10", "DA_Fl_NT_CID21",
	"DA_Fl_LD_CID21", "DA_Fl_NE_CID21", "DA_Fl_NT_CID22", "DA_Fl_NT_CID23", "DA_MP_LD_CID24",
	"DA_MP_LD_CID25", "DA_MP_LD_CID26", "DA_MP_LD_CID27", "DA_MP_LD_CID28", "DA_MP_LD_CID29",
	"DA_MP_LD_CID30", "DA_MP_LD_CID31", "DA_MP_LD_CID32", "DA_MP_NE_CID33", "DA_MP_NE_CID34",
	"DA_MP_NE_CID35", "DA_MP_NE_CID36", "DA_MP_UD_CID37", "DA_MP_UD_CID38", "DA_MP_UD_CID39",
	"DA_MP_UD_CID40", "DA_MP_UD_CID41", "DA_MP_LG_CID42", "DA_MP_UD_CID43", "DA_MP_NT_CID44",
	"DA_HA_LG_CID47", "DA_HA_LG_CID48", "DA_HA_LG_CID49", "DA_MP_LG_CID50", "DA_MP_NT_CID51",
	"DA_MP_LG_CID52", "DA_MP_NT_CID53", "DA_HA_LG_CID54", "DA_HP_NT_CID55", "DA_HP_LG_CID56",
	"DA_HP_LG_CID57", "DA_HP_NT_CID58", "DA_HA_NT_CID59", "DA_HA_LD_CID24", "DA_HA_LD_CID25",
	"DA_HA_LD_CID26", "DA_HA_LD_CID27", "DA_HA_LD_CID28", "DA_HA_LD_CID29", "DA_HA_LD_CID30",
	"DA_HA_LD_CID31", "DA_HA_LD_CID32", "DA_HA_NE_CID33", "DA_HA_NE_CID34", "DA_HA_NE_CID35",
	"DA_HA_NE_CID36", "DA_HA_UD_CID37", "DA_HA_UD_CID38", "DA_HA_UD_CID39", "DA_HA_UD_CID40",
	"DA_HA_UD_CID41", "DA_HA_LG_CID42", "DA_HA_UD_CID43", "DA_HA_UD_CID45", "DA_HA_LG_CID50",
	"DA_HA_NT_CID51", "DA_HA_LG_CID52", "DA_HA_NT_CID53", "DA_HP_LD_CID24", "DA_HP_LD_CID25",
	"DA_HP_LD_CID26", "DA_HP_LD_CID27", "DA_HP_LD_CID28", "DA_HP_LD_CID29", "DA_HP_LD_CID30",
	"DA_HP_LD_CID31", "DA_HP_LD_CID32", "DA_HP_NE_CID33", "DA_HP_NE_CID34", "DA_HP_NE_CID35",
	"DA_HP_NE_CID36", "DA_HP_UD_CID37", "DA_HP_UD_CID38", "DA_HP_UD_CID39", "DA_HP_UD_CID40",
	"DA_HP_UD_CID41", "DA_HP_LG_CID42", "DA_HP_UD_CID43", "DA_HP_LG_CID50", "DA_HP_NT_CID51",
	"DA_HP_NT_CID53",
}

// daFixedTrue lists components asserted present for every cell in
// the study area: coal presence is taken as given for a coal-basin
// assessment, standing in for conversion and burial of peat.
var daFixedTrue = []string{
	"DA_Fl_NT_CID23",
	"DA_HA_LG_CID52",
	"DA_HP_LG_CID52",
	"DA_MA_LG_CID52",
	"DA_MP_LG_CID52",
}

// A daDerived column is the row-wise maximum over its source
// columns, an OR relationship among alternate lines of evidence. The
// groups are applied in order since later groups consume earlier
// results.
type daDerived struct {
	target  string
	sources []string
}

var daDerivedGroups = []daDerived{
	// Fl: bedrock REE deposit, sedimentary REE deposit, REE source.
	{"DA_Fl_NE_CID11", []string{"DA_Fl_LD_CID01", "DA_Fl_LD_CID02", "DA_Fl_LD_CID03",
		"DA_Fl_LD_CID04", "DA_Fl_LD_CID05", "DA_Fl_LD_CID06"}},
	{"DA_Fl_NE_CID12", []string{"DA_Fl_LD_CID07", "DA_Fl_LD_CID08", "DA_Fl_LD_CID09"}},
	{"DA_Fl_NE_CID13", []string{"DA_Fl_LD_CID10", "DA_Fl_NE_CID11", "DA_Fl_NE_CID12"}},
	// HA: alkaline volcanic ash, bedrock and sedimentary REE
	// deposits, REE source, conduit for fluid flow.
	{"DA_HA_NE_CID33", []string{"DA_HA_UD_CID37", "DA_HA_UD_CID38", "DA_HA_UD_CID39",
		"DA_HA_UD_CID40", "DA_HA_UD_CID41"}},
	{"DA_HA_NE_CID34", []string{"DA_HA_LD_CID24", "DA_HA_LD_CID25", "DA_HA_LD_CID26",
		"DA_HA_LD_CID27", "DA_HA_LD_CID28", "DA_HA_LD_CID29"}},
	{"DA_HA_NE_CID35", []string{"DA_HA_LD_CID30", "DA_HA_LD_CID31", "DA_HA_LD_CID32"}},
	{"DA_HA_NE_CID36", []string{"DA_HA_NE_CID33", "DA_HA_NE_CID34", "DA_HA_NE_CID35"}},
	{"DA_HA_UD_CID45", []string{"DA_HA_LG_CID42", "DA_HA_UD_CID43", "DA_HA_UD_CID45"}},
	// HP mirrors HA, plus dissolved phosphorus.
	{"DA_HP_NE_CID33", []string{"DA_HP_UD_CID37", "DA_HP_UD_CID38", "DA_HP_UD_CID39",
		"DA_HP_UD_CID40", "DA_HP_UD_CID41"}},
	{"DA_HP_NE_CID34", []string{"DA_HP_LD_CID24", "DA_HP_LD_CID25", "DA_HP_LD_CID26",
		"DA_HP_LD_CID27", "DA_HP_LD_CID28", "DA_HP_LD_CID29"}},
	{"DA_HP_NE_CID35", []string{"DA_HP_LD_CID30", "DA_HP_LD_CID31", "DA_HP_LD_CID32"}},
	{"DA_HP_NE_CID36", []string{"DA_HP_NE_CID33", "DA_HP_NE_CID34", "DA_HP_NE_CID35"}},
	{"DA_HP_UD_CID45", []string{"DA_HP_LG_CID42", "DA_HP_UD_CID43", "DA_HP_UD_CID45"}},
	{"DA_HP_NE_57_46", []string{"DA_HP_LG_CID57", "DA_HP_LG_CID46"}},
	// MA.
	{"DA_MA_NE_CID33", []string{"DA_MA_UD_CID37", "DA_MA_UD_CID38", "DA_MA_UD_CID39",
		"DA_MA_UD_CID40", "DA_MA_UD_CID41"}},
	{"DA_MA_NE_CID34", []string{"DA_MA_LD_CID24", "DA_MA_LD_CID25", "DA_MA_LD_CID26",
		"DA_MA_LD_CID27", "DA_MA_LD_CID28", "DA_MA_LD_CID29"}},
	{"DA_MA_NE_CID35", []string{"DA_MA_LD_CID30", "DA_MA_LD_CID31", "DA_MA_LD_CID32"}},
	{"DA_MA_NE_CID36", []string{"DA_MA_NE_CID33", "DA_MA_NE_CID34", "DA_MA_NE_CID35"}},
	{"DA_MA_NT_CID44", []string{"DA_MA_LG_CID42", "DA_MA_UD_CID43", "DA_MA_NT_CID44"}},
	// MP.
	{"DA_MP_NE_CID33", []string{"DA_MP_UD_CID37", "DA_MP_UD_CID38", "DA_MP_UD_CID39",
		"DA_MP_UD_CID40", "DA_MP_UD_CID41"}},
	{"DA_MP_NE_CID34", []string{"DA_MP_LD_CID24", "DA_MP_LD_CID25", "DA_MP_LD_CID26",
		"DA_MP_LD_CID27", "DA_MP_LD_CID28", "DA_MP_LD_CID29"}},
	{"DA_MP_NE_CID35", []string{"DA_MP_LD_CID30", "DA_MP_LD_CID31", "DA_MP_LD_CID32"}},
	{"DA_MP_NE_CID36", []string{"DA_MP_NE_CID33", "DA_MP_NE_CID34", "DA_MP_NE_CID35"}},
	{"DA_MP_NT_CID44", []string{"DA_MP_LG_CID42", "DA_MP_UD_CID43", "DA_MP_NT_CID44"}},
}

// daRequirements lists the testable required components (DR) per
// emplacement mechanism. The ratio columns divide each mechanism sum
// by the length of its requirement set.
var daRequirements = map[string][]string{
	"Eo": {"DA_Eo_LD_CID10", "DA_Eo_LG_CID14", "DA_Eo_LD_CID16", "DA_Fl_NT_CID20",
		"DA_Fl_NT_CID23"},
	"Fl": {"DA_Fl_NE_CID13", "DA_Fl_LD_CID17", "DA_Fl_LG_CID18", "DA_Fl_LD_CID19",
		"DA_Fl_NT_CID20", "DA_Fl_NT_CID23"},
	"HA": {"DA_HA_LG_CID52", "DA_HA_NE_CID36", "DA_HA_UD_CID45", "DA_HA_LG_CID54",
		"DA_HA_NT_CID51", "DA_HA_NT_CID53"},
	"HP": {"DA_HP_UD_CID45", "DA_HP_LG_CID52", "DA_HP_NE_CID36", "DA_HP_NT_CID51",
		"DA_HP_NT_CID53", "DA_HP_NT_CID55", "DA_HP_LG_CID56"},
	"MA": {"DA_MA_NT_CID44", "DA_MA_LG_CID52", "DA_MA_NE_CID36", "DA_MA_LG_CID50",
		"DA_MA_LG_CID54", "DA_MA_NT_CID51", "DA_MA_NT_CID53"},
	"MP": {"DA_MP_NT_CID44", "DA_MP_LG_CID52", "DA_MP_NE_CID36", "DA_MP_LG_CID50",
		"DA_MP_LG_CID56", "DA_MP_NT_CID51", "DA_MP_NT_CID53", "DA_MP_NT_CID55"},
}

// A PETable is a per-cell result table keyed by local-grid index:
// one row per included grid cell, one float column per component or
// derived quantity.
type PETable struct {
	index   []int
	rowOf   map[int]int
	columns []string
	data    map[string][]float64
}

// NewPETable creates a table with one row per entry of index.
func NewPETable(index []int) *PETable {
	t := &PETable{
		index: index,
		rowOf: make(map[int]int, len(index)),
		data:  make(map[string][]float64),
	}
	for i, idx := range index {
		t.rowOf[idx] = i
	}
	return t
}

// NumRows returns the number of rows.
func (t *PETable) NumRows() int { return len(t.index) }

// Index returns the local-grid index of each row.
func (t *PETable) Index() []int { return t.index }

// Columns returns the column names in insertion order.
func (t *PETable) Columns() []string { return t.columns }

// HasColumn reports whether the named column exists.
func (t *PETable) HasColumn(name string) bool {
	_, ok := t.data[name]
	return ok
}

// Column returns the named column's values, creating an all-zero
// column when absent.
func (t *PETable) Column(name string) []float64 {
	col, ok := t.data[name]
	if !ok {
		col = make([]float64, len(t.index))
		t.data[name] = col
		t.columns = append(t.columns, name)
	}
	return col
}

// SetColumn replaces (or creates) the named column.
func (t *PETable) SetColumn(name string, vals []float64) error {
	if len(vals) != len(t.index) {
		return fmt.Errorf("urc: column %s has %d values for %d rows", name, len(vals), len(t.index))
	}
	if !t.HasColumn(name) {
		t.columns = append(t.columns, name)
	}
	t.data[name] = vals
	return nil
}

// BuildPETable converts component presence rasters into tabular
// form. Rows correspond to cells of the lg raster holding an index;
// each data raster becomes a 0/1 presence column.
func BuildPETable(index *RasterGroup, data *RasterGroup) (*PETable, error) {
	lg := index.Get("lg")
	if lg == nil {
		return nil, fmt.Errorf("urc: index raster group is missing the lg raster")
	}
	var rows []int
	cells := make(map[int]int) // lg index -> flat cell offset
	for i, v := range lg.Data.Elements {
		if lg.IsNoData(v) {
			continue
		}
		rows = append(rows, int(v))
		cells[int(v)] = i
	}
	sort.Ints(rows)
	t := NewPETable(rows)

	for _, name := range data.Names() {
		r := data.Get(name)
		col := t.Column(name)
		for row, idx := range rows {
			v := r.Data.Elements[cells[idx]]
			if !r.IsNoData(v) && v != 0 {
				col[row] = 1
			}
		}
	}
	return t, nil
}

// CalcDASum scores the table against the mechanism requirement sets:
// it widens the table to the full component catalog, asserts the
// fixed-true components, resolves the ordered OR groups, and adds
// <mech>_sum and DA_<mech>_sum_DR columns per mechanism. The ratio
// columns always land in [0, 1].
func CalcDASum(t *PETable) {
	// Widen to the full catalog so missing components read as 0.
	for _, name := range daComponentsAll {
		t.Column(name)
	}
	for _, name := range daFixedTrue {
		col := t.Column(name)
		for i := range col {
			col[i] = 1
		}
	}
	for _, grp := range daDerivedGroups {
		target := t.Column(grp.target)
		vals := make([]float64, len(grp.sources))
		for row := range target {
			for i, src := range grp.sources {
				vals[i] = t.Column(src)[row]
			}
			target[row] = floats.Max(vals)
		}
	}

	mechs := make([]string, 0, len(daRequirements))
	for mech := range daRequirements {
		mechs = append(mechs, mech)
	}
	sort.Strings(mechs)
	vals := make([]float64, 0)
	for _, mech := range mechs {
		required := daRequirements[mech]
		sum := t.Column(mech + "_sum")
		ratio := t.Column(fmt.Sprintf("DA_%s_sum_DR", mech))
		for row := range sum {
			vals = vals[:0]
			for _, name := range required {
				vals = append(vals, t.Column(name)[row])
			}
			sum[row] = floats.Sum(vals)
			ratio[row] = sum[row] / float64(len(required))
		}
	}
}

// DAResultColumns returns the table's ratio column names, one per
// mechanism, in column order.
func DAResultColumns(t *PETable) []string {
	var cols []string
	for _, name := range t.Columns() {
		if strings.HasSuffix(name, "_DR") {
			cols = append(cols, name)
		}
	}
	return cols
}

// TableToRasters converts the named table columns back into rasters
// co-registered with the lg index raster. Cells without a row stay
// missing.
func TableToRasters(t *PETable, lg *Raster, cols []string) (*RasterGroup, error) {
	out := NewRasterGroup()
	for _, name := range cols {
		if !t.HasColumn(name) {
			return nil, fmt.Errorf("urc: table has no column %s", name)
		}
		col := t.data[name]
		r := NewRaster(name, lg.Cols(), lg.Rows(), lg.GT, lg.Proj, lg.NoData)
		for i, v := range lg.Data.Elements {
			if lg.IsNoData(v) {
				continue
			}
			row, ok := t.rowOf[int(v)]
			if !ok {
				continue
			}
			r.Data.Elements[i] = col[row]
		}
		if err := out.Add(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// WriteTableShp exports the named table columns to a polygon
// shapefile, one feature per grid cell with its cell boundary as
// geometry. Attribute names are truncated to the 10-character dbf
// limit.
func WriteTableShp(t *PETable, lg *Raster, cols []string, path string) error {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range []string{".shp", ".prj", ".dbf", ".shx"} {
		os.Remove(base + ext)
	}
	fields := make([]goshp.Field, 0, len(cols)+1)
	fields = append(fields, goshp.NumberField("LG_index", 10))
	for _, name := range cols {
		fields = append(fields, goshp.FloatField(dbfName(name), 16, 6))
	}
	shpf, err := shp.NewEncoderFromFields(path, goshp.POLYGON, fields...)
	if err != nil {
		return err
	}
	defer shpf.Close()

	for y := 0; y < lg.Rows(); y++ {
		for x := 0; x < lg.Cols(); x++ {
			v := lg.Data.Get(y, x)
			if lg.IsNoData(v) {
				continue
			}
			row, ok := t.rowOf[int(v)]
			if !ok {
				continue
			}
			data := make([]interface{}, 0, len(cols)+1)
			data = append(data, int(v))
			for _, name := range cols {
				data = append(data, t.data[name][row])
			}
			if err := shpf.EncodeFields(lg.CellPolygon(x, y), data...); err != nil {
				return err
			}
		}
	}
	return nil
}

// dbfName shortens a column name to fit dbf attribute limits,
// keeping the distinguishing tail.
func dbfName(name string) string {
	if len(name) <= 10 {
		return name
	}
	return name[len(name)-10:]
}
