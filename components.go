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
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
)

// uniqueComponentLen is the length of the name prefix that
// identifies a unique component. Component layer names follow the
// pattern <mechanism set>_<mechanism>_<domain type>_CID<number>, for
// example DA_Fl_LD_CID01; the first fourteen characters cover the
// full component id, and layers sharing them describe the same
// component.
const uniqueComponentLen = 14

// ComponentDomainKey extracts the domain-type key ("lg", "ld", "sd",
// "ud", or "sa") from a component layer name. ok is false when the
// name is too short or names an unknown domain type.
func ComponentDomainKey(name string) (key string, ok bool) {
	if len(name) < 8 {
		return "", false
	}
	key = strings.ToLower(name[6:8])
	switch key {
	case "lg", "ld", "sd", "ud", "sa":
		return key, true
	}
	return key, false
}

// FindUniqueComponents scans dir for component shapefiles whose base
// name begins with prefix and groups them by unique component: all
// files sharing the same fourteen-character name prefix belong to
// the same component. It returns the member file paths keyed by
// unique component name.
func FindUniqueComponents(dir, prefix string) (map[string][]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, prefix+"*.shp"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("urc: no %s component shapefiles found in %s", prefix, dir)
	}
	sort.Strings(paths)
	components := make(map[string][]string)
	for _, path := range paths {
		base := filepath.Base(path)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		if len(name) > uniqueComponentLen {
			name = name[:uniqueComponentLen]
		}
		components[name] = append(components[name], path)
	}
	return components, nil
}

// RasterizeComponents converts each unique component into a presence
// raster co-registered with ref: cells whose center falls within any
// feature of any member layer hold 1, all others hold the nodata
// value 0. When mask is non-nil, cells excluded by the mask are
// forced to nodata. Member layers are reprojected into the grid
// projection as needed.
func RasterizeComponents(ref *RasterGroup, components map[string][]string, mask *Raster, log logrus.FieldLogger) (*RasterGroup, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if ref.Len() == 0 {
		return nil, fmt.Errorf("urc: rasterizing components requires a non-empty reference group")
	}

	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	out := NewRasterGroup()
	for _, name := range names {
		log.WithField("component", name).Info("rasterizing")
		rast := NewRaster(name, ref.Cols(), ref.Rows(), ref.GeoTransform(), ref.Proj(), 0)
		for _, path := range components[name] {
			l, err := LoadVectorLayer(path)
			if err != nil {
				return nil, fmt.Errorf("urc: rasterizing %s: %v", name, err)
			}
			if err := l.Reproject(ref.Proj()); err != nil {
				return nil, err
			}
			tree := layerTree(l)
			for y := 0; y < rast.Rows(); y++ {
				for x := 0; x < rast.Cols(); x++ {
					if rast.Data.Get(y, x) == 1 {
						continue
					}
					cx, cy := rast.GT.CellCenter(x, y)
					if len(covering(tree, geom.Point{X: cx, Y: cy})) > 0 {
						rast.Data.Set(1, y, x)
					}
				}
			}
		}
		if mask != nil {
			for i, mv := range mask.Data.Elements {
				if mv == 0 {
					rast.Data.Elements[i] = rast.NoData
				}
			}
		}
		if err := out.Add(rast); err != nil {
			return nil, err
		}
	}
	return out, nil
}
