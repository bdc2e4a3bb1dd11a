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

	"github.com/ctessum/cdf"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
)

// URCDataVersion is the version of the raster file format. It needs
// to be updated whenever the file format changes.
const URCDataVersion = "1.1.0"

// Write writes g to netcdf file w. Each member raster becomes one
// variable; the shared georeferencing is stored as global attributes
// and each variable carries its own nodata attribute.
func (g *RasterGroup) Write(w *os.File) error {
	if g.Len() == 0 {
		return fmt.Errorf("urc: refusing to write an empty raster group")
	}
	h := cdf.NewHeader([]string{"y", "x"}, []int{g.Rows(), g.Cols()})
	h.AddAttribute("", "comment", "URC PE scoring raster file")
	h.AddAttribute("", "data_version", URCDataVersion)

	gt := g.GeoTransform()
	h.AddAttribute("", "geotransform", gt[:])
	h.AddAttribute("", "proj", g.Proj())
	h.AddAttribute("", "ny", []int32{int32(g.Rows())})
	h.AddAttribute("", "nx", []int32{int32(g.Cols())})

	// Sort the names so they write in the same order every time.
	names := g.Names()
	for _, name := range names {
		h.AddVariable(name, []string{"y", "x"}, []float32{0})
		h.AddAttribute(name, "nodata", []float64{g.Get(name).NoData})
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := writeNCF(f, name, g.Get(name).Data); err != nil {
			return fmt.Errorf("urc: writing variable %s to netcdf file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// ReadRasters loads a raster group from a netcdf file previously
// written by Write.
func ReadRasters(rw cdf.ReaderWriterAt) (*RasterGroup, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("urc.ReadRasters: %v", err)
	}

	dataVersion := f.Header.GetAttribute("", "data_version").(string)
	if dataVersion != URCDataVersion {
		return nil, fmt.Errorf("urc.ReadRasters: data version %s is incompatible "+
			"with the required version %s", dataVersion, URCDataVersion)
	}

	var gt GeoTransform
	copy(gt[:], f.Header.GetAttribute("", "geotransform").([]float64))
	projStr := f.Header.GetAttribute("", "proj").(string)

	g := NewRasterGroup()
	for _, v := range f.Header.Variables() {
		dims := f.Header.Lengths(v)
		data := sparse.ZerosDense(dims...)
		tmp := make([]float32, len(data.Elements))
		r := f.Reader(v, nil, nil)
		if _, err := r.Read(tmp); err != nil {
			return nil, fmt.Errorf("urc.ReadRasters: %v", err)
		}
		for i, val := range tmp {
			data.Elements[i] = float64(val)
		}
		nodata := f.Header.GetAttribute(v, "nodata").([]float64)[0]
		rast := &Raster{
			Name:   v,
			Data:   data,
			GT:     gt,
			Proj:   projStr,
			NoData: nodata,
		}
		if err := g.Add(rast); err != nil {
			return nil, fmt.Errorf("urc.ReadRasters: %v", err)
		}
	}
	return g, nil
}

func writeNCF(f *cdf.File, Var string, data *sparse.DenseArray) error {
	// Check that data matches dimensions.
	n := 1
	for _, v := range data.Shape {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(Var)
	start := make([]int, len(end))
	w := f.Writer(Var, start, end)
	_, err := w.Write(data32)
	return err
}

// SaveRasters writes g to the file at path, creating or truncating
// it.
func SaveRasters(g *RasterGroup, path string) error {
	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer w.Close()
	return g.Write(w)
}

// LoadRasters reads a raster group from the file at path.
func LoadRasters(path string) (*RasterGroup, error) {
	r, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ReadRasters(r)
}

// SaveRasterDir writes each member of g to its own netcdf file in
// dir, named <member><suffix>.nc. It returns the written paths keyed
// by member name.
func SaveRasterDir(g *RasterGroup, dir, suffix string) (map[string]string, error) {
	paths := make(map[string]string, g.Len())
	for _, name := range g.Names() {
		single := NewRasterGroup()
		if err := single.Add(g.Get(name)); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, name+suffix+".nc")
		if err := SaveRasters(single, path); err != nil {
			return nil, err
		}
		paths[name] = path
	}
	return paths, nil
}

// A VectorFeature is one polygonal feature with its attribute values.
type VectorFeature struct {
	geom.Polygonal
	Fields map[string]string
}

// A VectorLayer is a named collection of polygonal features sharing a
// spatial reference.
type VectorLayer struct {
	Name     string
	SR       *proj.SR
	Features []*VectorFeature
}

// LoadVectorLayer reads the polygonal features of a shapefile,
// decoding the named attribute columns for each feature. Requested
// columns absent from the file are left out of each feature's
// attribute map so callers can synthesize them. The layer name is the
// file's base name without extension.
func LoadVectorLayer(path string, fields ...string) (*VectorLayer, error) {
	d, err := shp.NewDecoder(path)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	sr, err := d.SR()
	if err != nil {
		return nil, fmt.Errorf("urc: reading projection for %s: %v", path, err)
	}

	available := make(map[string]bool)
	for _, f := range d.Fields() {
		available[strings.ToLower(f.String())] = true
	}
	present := make([]string, 0, len(fields))
	for _, name := range fields {
		if available[strings.ToLower(name)] {
			present = append(present, name)
		}
	}

	base := filepath.Base(path)
	l := &VectorLayer{
		Name: base[:len(base)-len(filepath.Ext(base))],
		SR:   sr,
	}
	for {
		g, attrs, more := d.DecodeRowFields(present...)
		if !more {
			break
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("urc: %s: features need to be polygons", path)
		}
		l.Features = append(l.Features, &VectorFeature{Polygonal: p, Fields: attrs})
	}
	if err := d.Error(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reproject transforms every feature of l into the projection given
// by the proj4 definition dst.
func (l *VectorLayer) Reproject(dst string) error {
	dstSR, err := proj.Parse(dst)
	if err != nil {
		return fmt.Errorf("urc: parsing projection: %v", err)
	}
	trans, err := l.SR.NewTransform(dstSR)
	if err != nil {
		return fmt.Errorf("urc: reprojecting layer %s: %v", l.Name, err)
	}
	for _, ft := range l.Features {
		g, err := ft.Polygonal.Transform(trans)
		if err != nil {
			return fmt.Errorf("urc: reprojecting layer %s: %v", l.Name, err)
		}
		p, ok := g.(geom.Polygonal)
		if !ok {
			return fmt.Errorf("urc: layer %s: reprojection changed geometry type", l.Name)
		}
		ft.Polygonal = p
	}
	l.SR = dstSR
	return nil
}

// FieldNames returns the sorted attribute names present on the first
// feature, or nil for an empty layer.
func (l *VectorLayer) FieldNames() []string {
	if len(l.Features) == 0 {
		return nil
	}
	names := make([]string, 0, len(l.Features[0].Fields))
	for name := range l.Features[0].Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
