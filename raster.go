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

// Package urc implements the URC potential-for-enrichment (PE)
// scoring method for rare-earth-element resource assessment. The
// method rasterizes indicator geology layers onto a shared analysis
// grid, scores structural requirements per emplacement mechanism
// (the DA branch), scores proximity to source domains (the DS
// branch), and fuses the evidence with a fuzzy inference model.
package urc

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/sparse"
)

// NoDataIndex marks missing cells in integer-valued index rasters.
const NoDataIndex = -9999.

// A GeoTransform maps pixel coordinates to georeferenced coordinates
// in the order [originX, pixelWidth, rowRotation, originY,
// columnRotation, pixelHeight]. Pixel height is negative for
// north-up rasters.
type GeoTransform [6]float64

// CellOrigin returns the georeferenced coordinate of the top-left
// corner of pixel (x, y).
func (gt GeoTransform) CellOrigin(x, y int) (float64, float64) {
	gx := gt[0] + float64(x)*gt[1] + float64(y)*gt[2]
	gy := gt[3] + float64(x)*gt[4] + float64(y)*gt[5]
	return gx, gy
}

// CellCenter returns the georeferenced coordinate of the center of
// pixel (x, y).
func (gt GeoTransform) CellCenter(x, y int) (float64, float64) {
	gx := gt[0] + (float64(x)+0.5)*gt[1] + (float64(y)+0.5)*gt[2]
	gy := gt[3] + (float64(x)+0.5)*gt[4] + (float64(y)+0.5)*gt[5]
	return gx, gy
}

// A Raster is one georeferenced layer of cell values backed by a
// dense array with shape [rows, columns]. Cells equal to NoData hold
// no measurement.
type Raster struct {
	Name   string
	Data   *sparse.DenseArray
	GT     GeoTransform
	Proj   string
	NoData float64
}

// NewRaster allocates a raster of ny rows by nx columns with every
// cell set to nodata.
func NewRaster(name string, nx, ny int, gt GeoTransform, proj string, nodata float64) *Raster {
	r := &Raster{
		Name:   name,
		Data:   sparse.ZerosDense(ny, nx),
		GT:     gt,
		Proj:   proj,
		NoData: nodata,
	}
	if nodata != 0 {
		for i := range r.Data.Elements {
			r.Data.Elements[i] = nodata
		}
	}
	return r
}

// Rows returns the raster height in pixels.
func (r *Raster) Rows() int { return r.Data.Shape[0] }

// Cols returns the raster width in pixels.
func (r *Raster) Cols() int { return r.Data.Shape[1] }

// IsNoData reports whether v is the raster's missing-data marker.
func (r *Raster) IsNoData(v float64) bool {
	return v == r.NoData || (math.IsNaN(v) && math.IsNaN(r.NoData))
}

// Empty reports whether every cell is missing.
func (r *Raster) Empty() bool {
	for _, v := range r.Data.Elements {
		if !r.IsNoData(v) {
			return false
		}
	}
	return true
}

// Bounds returns the georeferenced extent of the raster.
func (r *Raster) Bounds() *geom.Bounds {
	x0, y0 := r.GT.CellOrigin(0, 0)
	x1, y1 := r.GT.CellOrigin(r.Cols(), r.Rows())
	b := geom.NewBounds()
	b.Extend(&geom.Bounds{Min: geom.Point{X: x0, Y: y0}, Max: geom.Point{X: x0, Y: y0}})
	b.Extend(&geom.Bounds{Min: geom.Point{X: x1, Y: y1}, Max: geom.Point{X: x1, Y: y1}})
	return b
}

// CellPolygon returns the boundary of pixel (x, y) as a polygon.
func (r *Raster) CellPolygon(x, y int) geom.Polygon {
	x0, y0 := r.GT.CellOrigin(x, y)
	x1, y1 := r.GT.CellOrigin(x+1, y+1)
	return geom.Polygon{{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
		{X: x0, Y: y0},
	}}
}

// conforms reports whether two rasters share dimensions and
// geotransform.
func (r *Raster) conforms(o *Raster) bool {
	if r.Rows() != o.Rows() || r.Cols() != o.Cols() {
		return false
	}
	for i := range r.GT {
		if r.GT[i] != o.GT[i] {
			return false
		}
	}
	return true
}

// A RasterGroup is a keyed collection of co-registered rasters.
// Every member shares the dimensions and geotransform of the first
// raster added.
type RasterGroup struct {
	rasters map[string]*Raster
	ref     *Raster
}

// NewRasterGroup returns an empty group.
func NewRasterGroup() *RasterGroup {
	return &RasterGroup{rasters: make(map[string]*Raster)}
}

// Add inserts r into the group. Adding a duplicate name or a raster
// that does not conform to the existing members is an error.
func (g *RasterGroup) Add(r *Raster) error {
	if _, ok := g.rasters[r.Name]; ok {
		return fmt.Errorf("urc: raster %s exists; explicitly delete before adding", r.Name)
	}
	if g.ref != nil && !g.ref.conforms(r) {
		return fmt.Errorf("urc: raster %s does not match dimensions of existing entries", r.Name)
	}
	g.rasters[r.Name] = r
	if g.ref == nil {
		g.ref = r
	}
	return nil
}

// Get returns the named raster, or nil when absent.
func (g *RasterGroup) Get(name string) *Raster { return g.rasters[name] }

// Contains reports whether the group holds the named raster.
func (g *RasterGroup) Contains(name string) bool {
	_, ok := g.rasters[name]
	return ok
}

// Len returns the number of member rasters.
func (g *RasterGroup) Len() int { return len(g.rasters) }

// Names returns the member names in sorted order.
func (g *RasterGroup) Names() []string {
	names := make([]string, 0, len(g.rasters))
	for name := range g.rasters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Update adds every member of other to g.
func (g *RasterGroup) Update(other *RasterGroup) error {
	for _, name := range other.Names() {
		if err := g.Add(other.Get(name)); err != nil {
			return err
		}
	}
	return nil
}

// Ref returns a member raster to use as a frame of reference, or nil
// when the group is empty.
func (g *RasterGroup) Ref() *Raster { return g.ref }

// Rows returns the shared raster height, or 0 when the group is
// empty.
func (g *RasterGroup) Rows() int {
	if g.ref == nil {
		return 0
	}
	return g.ref.Rows()
}

// Cols returns the shared raster width, or 0 when the group is
// empty.
func (g *RasterGroup) Cols() int {
	if g.ref == nil {
		return 0
	}
	return g.ref.Cols()
}

// GeoTransform returns the shared geotransform, or the zero
// transform when the group is empty.
func (g *RasterGroup) GeoTransform() GeoTransform {
	if g.ref == nil {
		return GeoTransform{}
	}
	return g.ref.GT
}

// Proj returns the shared projection definition, or "" when the
// group is empty.
func (g *RasterGroup) Proj() string {
	if g.ref == nil {
		return ""
	}
	return g.ref.Proj
}

// HitMap builds a presence map for the named members (all members
// when keys is empty): a 3-d array with shape [raster, row, column]
// holding 1 where the raster has data and 0 where it is missing,
// alongside the sorted keys in array order.
func (g *RasterGroup) HitMap(keys ...string) ([]string, *sparse.DenseArray) {
	if len(keys) == 0 {
		keys = g.Names()
	} else {
		keys = append([]string(nil), keys...)
		sort.Strings(keys)
	}
	hits := sparse.ZerosDense(len(keys), g.Rows(), g.Cols())
	for i, k := range keys {
		r := g.rasters[k]
		for j, v := range r.Data.Elements {
			if !r.IsNoData(v) {
				hits.Elements[i*g.Rows()*g.Cols()+j] = 1
			}
		}
	}
	return keys, hits
}

// NoDataMask builds a 2-d validity mask across the whole group: 1
// where any member holds data, 0 where every member is missing.
func (g *RasterGroup) NoDataMask() *sparse.DenseArray {
	mask := sparse.ZerosDense(g.Rows(), g.Cols())
	_, hits := g.HitMap()
	n := g.Rows() * g.Cols()
	for layer := 0; layer < len(g.rasters); layer++ {
		for j := 0; j < n; j++ {
			if hits.Elements[layer*n+j] == 1 {
				mask.Elements[j] = 1
			}
		}
	}
	return mask
}

// ClipWith masks every member against clip: cells where clip is 0
// become the member's nodata value.
func (g *RasterGroup) ClipWith(clip *Raster) error {
	if g.ref != nil && !g.ref.conforms(clip) {
		return fmt.Errorf("urc: clipping raster must match dimensions of raster group")
	}
	for _, r := range g.rasters {
		for i, cv := range clip.Data.Elements {
			if cv == 0 {
				r.Data.Elements[i] = r.NoData
			}
		}
	}
	return nil
}

// MaxValues finds the per-cell maximum across all members whose name
// begins with prefix (all members when prefix is ""), marking cells
// that are missing everywhere with outNoData. It returns nil when no
// member matches.
func (g *RasterGroup) MaxValues(prefix string, outNoData float64) *sparse.DenseArray {
	var members []*Raster
	for _, name := range g.Names() {
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		members = append(members, g.rasters[name])
	}
	if len(members) == 0 {
		return nil
	}
	out := sparse.ZerosDense(g.Rows(), g.Cols())
	for i := range out.Elements {
		out.Elements[i] = math.Inf(-1)
	}
	for _, r := range members {
		for i, v := range r.Data.Elements {
			if !r.IsNoData(v) && v > out.Elements[i] {
				out.Elements[i] = v
			}
		}
	}
	for i, v := range out.Elements {
		if math.IsInf(v, -1) {
			out.Elements[i] = outNoData
		}
	}
	return out
}

// EmptyRasterNames returns the sorted names of members holding only
// nodata.
func (g *RasterGroup) EmptyRasterNames() []string {
	var names []string
	for _, name := range g.Names() {
		if g.rasters[name].Empty() {
			names = append(names, name)
		}
	}
	return names
}
