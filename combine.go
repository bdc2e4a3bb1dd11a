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
	"math"
)

// FindDomainComponentRasters builds one combined distance raster per
// component by fusing the distance rasters of the domain indices the
// component touches. A component touches a domain index when any of
// its presence cells coincides with that index's hitmap. Components
// whose domain key has no hitmap (local-grid components among them)
// are skipped.
func FindDomainComponentRasters(domDist *RasterGroup, hitmaps map[string]*DomainHits, tests *RasterGroup) (*RasterGroup, error) {
	combo := NewRasterGroup()
	n := domDist.Rows() * domDist.Cols()
	for _, name := range tests.Names() {
		key, ok := ComponentDomainKey(name)
		if !ok {
			continue
		}
		hm, ok := hitmaps[key]
		if !ok {
			continue
		}
		test := tests.Get(name)
		found := make(map[int]bool)
		for i, v := range test.Data.Elements {
			if test.IsNoData(v) || v == 0 {
				continue
			}
			for h := 0; h < len(hm.Hit); h++ {
				if hm.Maps.Elements[h*n+i] != 0 {
					found[h] = true
				}
			}
		}
		fused, err := combineDomDistRasters(found, key, name, domDist)
		if err != nil {
			return nil, err
		}
		if err := combo.Add(fused); err != nil {
			return nil, err
		}
	}
	return combo, nil
}

// combineDomDistRasters fuses the named domain-index distance
// rasters cellwise by minimum. Cells missing from every contributing
// raster stay missing; a component touching no domain index yields
// an all-missing raster.
func combineDomDistRasters(found map[int]bool, domKey, compName string, domDist *RasterGroup) (*Raster, error) {
	nodata := math.Inf(1)
	out := NewRaster(compName, domDist.Cols(), domDist.Rows(), domDist.GeoTransform(), domDist.Proj(), nodata)
	for idx := range found {
		src := domDist.Get(fmt.Sprintf("%s_%d", domKey, idx))
		if src == nil {
			return nil, fmt.Errorf("urc: no distance raster for domain %s_%d", domKey, idx)
		}
		for i, v := range src.Data.Elements {
			if src.IsNoData(v) {
				continue
			}
			if out.Data.Elements[i] == nodata || out.Data.Elements[i] > v {
				out.Data.Elements[i] = v
			}
		}
	}
	return out, nil
}

// NormalizeRaster rescales the values of src into [0, 1]. When flip
// is true each scaled value v becomes 1-v, so small inputs (short
// distances) score high. A raster holding a single distinct value
// scales to 0 everywhere it has data, and an all-missing raster
// passes through unchanged.
func NormalizeRaster(src *Raster, flip bool) *Raster {
	out := NewRaster(src.Name, src.Cols(), src.Rows(), src.GT, src.Proj, src.NoData)
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range src.Data.Elements {
		if src.IsNoData(v) {
			continue
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if math.IsInf(min, 1) && math.IsInf(max, -1) {
		copy(out.Data.Elements, src.Data.Elements)
		return out
	}
	ext := max - min
	for i, v := range src.Data.Elements {
		if src.IsNoData(v) {
			continue
		}
		scaled := 0.
		if ext != 0 {
			scaled = (v - min) / ext
		}
		if flip {
			scaled = 1 - scaled
		}
		out.Data.Elements[i] = scaled
	}
	return out
}

// multRasters multiplies two rasters cellwise. A product cell holds
// data only where both factors do.
func multRasters(name string, a, b *Raster) *Raster {
	out := NewRaster(name, a.Cols(), a.Rows(), a.GT, a.Proj, a.NoData)
	for i := range out.Data.Elements {
		av, bv := a.Data.Elements[i], b.Data.Elements[i]
		if a.IsNoData(av) || b.IsNoData(bv) {
			continue
		}
		out.Data.Elements[i] = av * bv
	}
	return out
}

// NormMultRasters normalizes matching pairs of implicit
// (domain-fused) and explicit (component-distance) rasters and
// multiplies them together. Pairs are matched by raster name; every
// implicit raster must have an explicit counterpart.
func NormMultRasters(implicits, explicits *RasterGroup) (*RasterGroup, error) {
	out := NewRasterGroup()
	for _, name := range implicits.Names() {
		exp := explicits.Get(name)
		if exp == nil {
			return nil, fmt.Errorf("urc: no explicit raster matching %s", name)
		}
		normImp := NormalizeRaster(implicits.Get(name), true)
		normExp := NormalizeRaster(exp, true)
		if err := out.Add(multRasters(name, normImp, normExp)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// NormLGRasters normalizes the local-grid components of src. These
// have no domain to fuse against, so their normalized distances pass
// through unmultiplied.
func NormLGRasters(src *RasterGroup) (*RasterGroup, error) {
	out := NewRasterGroup()
	for _, name := range src.Names() {
		if key, ok := ComponentDomainKey(name); !ok || key != "lg" {
			continue
		}
		if err := out.Add(NormalizeRaster(src.Get(name), true)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
