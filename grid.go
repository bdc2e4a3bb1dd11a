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
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/sirupsen/logrus"
)

// A UDPolicy derives a unique-domain index from the lithologic,
// structural, and secondary-alteration indices of a cell. maxLD and
// maxSD are the largest indices present in the respective rasters;
// sa is 0 when no secondary-alteration layer was provided.
type UDPolicy func(ld, sd, sa, maxLD, maxSD float64) float64

// DefaultUDPolicy combines the three domain indices so that every
// distinct (ld, sd, sa) triple maps to a distinct unique-domain
// index.
func DefaultUDPolicy(ld, sd, sa, maxLD, maxSD float64) float64 {
	return sa*maxSD*maxLD + ld*maxSD + sd
}

// GridConfig holds the parameters used to build the analysis grid
// and its domain index rasters.
type GridConfig struct {
	// CellWidth and CellHeight are the pixel dimensions in the
	// units of Proj.
	CellWidth  float64
	CellHeight float64

	// Proj is the proj4 definition of the grid projection.
	Proj string

	// NoData marks missing cells in the generated index rasters.
	// The zero value is replaced with NoDataIndex.
	NoData float64

	// UDPolicy derives the unique-domain index. DefaultUDPolicy is
	// used when nil.
	UDPolicy UDPolicy

	// Log receives progress information. If nil, the standard
	// logger is used.
	Log logrus.FieldLogger
}

func (cfg *GridConfig) nodata() float64 {
	if cfg.NoData == 0 {
		return NoDataIndex
	}
	return cfg.NoData
}

func (cfg *GridConfig) log() logrus.FieldLogger {
	if cfg.Log == nil {
		return logrus.StandardLogger()
	}
	return cfg.Log
}

// BuildIndexRasters creates the gridded representation of the domain
// layers: a cell inclusion mask, a scan-order local-grid index (lg),
// per-cell structural (sd) and lithologic (ld) domain indices, a
// combined unique-domain index (ud), and, when sa is non-nil, a
// secondary-alteration index. The grid extent derives from the
// lithologic layer; when clip is non-nil its features cull the mask
// instead of the lithologic features. All layers are reprojected
// into the grid projection as needed.
func (cfg *GridConfig) BuildIndexRasters(ld, sd, sa, clip *VectorLayer) (*RasterGroup, *Raster, error) {
	if cfg.CellWidth <= 0 || cfg.CellHeight <= 0 {
		return nil, nil, fmt.Errorf("urc: grid cell dimensions must be positive")
	}
	layers := []*VectorLayer{ld, sd, sa, clip}
	for _, l := range layers {
		if l == nil {
			continue
		}
		if err := l.Reproject(cfg.Proj); err != nil {
			return nil, nil, err
		}
	}

	gt, nx, ny, err := cfg.frame(ld)
	if err != nil {
		return nil, nil, err
	}
	cfg.log().WithFields(logrus.Fields{
		"nx": nx,
		"ny": ny,
	}).Info("creating analysis grid")

	maskSrc := ld
	if clip != nil {
		maskSrc = clip
	}
	mask := cfg.buildMask(gt, nx, ny, maskSrc)

	group := NewRasterGroup()
	if err := group.Add(cfg.buildLG(mask)); err != nil {
		return nil, nil, err
	}

	sdRast, err := cfg.rasterizeDomain("sd", "SD", sd, mask)
	if err != nil {
		return nil, nil, err
	}
	if err := group.Add(sdRast); err != nil {
		return nil, nil, err
	}
	cfg.log().Info("structural domains processed")

	ldRast, err := cfg.rasterizeDomain("ld", "LD", ld, mask)
	if err != nil {
		return nil, nil, err
	}
	if err := group.Add(ldRast); err != nil {
		return nil, nil, err
	}
	cfg.log().Info("lithologic domains processed")

	var saRast *Raster
	if sa != nil {
		saRast, err = cfg.rasterizeDomain("sa", "SA", sa, mask)
		if err != nil {
			return nil, nil, err
		}
		if err := group.Add(saRast); err != nil {
			return nil, nil, err
		}
		cfg.log().Info("secondary alteration domains processed")
	} else {
		cfg.log().Info("no secondary alteration domains provided; skipping")
	}

	if err := group.Add(cfg.buildUD(ldRast, sdRast, saRast)); err != nil {
		return nil, nil, err
	}
	return group, mask, nil
}

// frame derives the grid geotransform and pixel dimensions from the
// extent of the reference layer.
func (cfg *GridConfig) frame(ref *VectorLayer) (GeoTransform, int, int, error) {
	b := geom.NewBounds()
	for _, ft := range ref.Features {
		b.Extend(ft.Bounds())
	}
	if b.Empty() {
		return GeoTransform{}, 0, 0, fmt.Errorf("urc: layer %s has no features to frame the grid", ref.Name)
	}
	nx := int(math.Ceil((b.Max.X - b.Min.X) / cfg.CellWidth))
	ny := int(math.Ceil((b.Max.Y - b.Min.Y) / cfg.CellHeight))
	gt := GeoTransform{b.Min.X, cfg.CellWidth, 0, b.Max.Y, 0, -cfg.CellHeight}
	return gt, nx, ny, nil
}

// indexedFeature orders rtree search results by original feature
// position so attribution matches layer order.
type indexedFeature struct {
	*VectorFeature
	pos int
}

func layerTree(l *VectorLayer) *rtree.Rtree {
	tree := rtree.NewTree(25, 50)
	for i, ft := range l.Features {
		tree.Insert(&indexedFeature{VectorFeature: ft, pos: i})
	}
	return tree
}

// covering returns the features whose geometry contains point p, in
// layer order.
func covering(tree *rtree.Rtree, p geom.Point) []*indexedFeature {
	var hits []*indexedFeature
	for _, item := range tree.SearchIntersect(p.Bounds()) {
		ft := item.(*indexedFeature)
		if in := p.Within(ft.Polygonal); in == geom.Inside || in == geom.OnEdge {
			hits = append(hits, ft)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	return hits
}

// buildMask marks cells whose center falls within any feature of src
// with 1, all others with 0.
func (cfg *GridConfig) buildMask(gt GeoTransform, nx, ny int, src *VectorLayer) *Raster {
	mask := NewRaster("mask", nx, ny, gt, cfg.Proj, 0)
	tree := layerTree(src)
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			cx, cy := gt.CellCenter(x, y)
			if len(covering(tree, geom.Point{X: cx, Y: cy})) > 0 {
				mask.Data.Set(1, y, x)
			}
		}
	}
	return mask
}

// buildLG assigns consecutive local-grid indices to masked cells in
// row-major scan order, starting at 0.
func (cfg *GridConfig) buildLG(mask *Raster) *Raster {
	lg := NewRaster("lg", mask.Cols(), mask.Rows(), mask.GT, mask.Proj, cfg.nodata())
	id := 0.
	for i, v := range mask.Data.Elements {
		if v != 0 {
			lg.Data.Elements[i] = id
			id++
		}
	}
	return lg
}

// rasterizeDomain attributes each masked cell with the domain index
// of the first feature containing the cell center. Indices come from
// the layer's <domainType>_index field when present; otherwise each
// feature is assigned its position in the layer as its index.
func (cfg *GridConfig) rasterizeDomain(name, domainType string, l *VectorLayer, mask *Raster) (*Raster, error) {
	fld := domainType + "_index"
	indices := make([]float64, len(l.Features))
	synthesized := false
	for i, ft := range l.Features {
		val, ok := ft.Fields[fld]
		if !ok || strings.TrimSpace(val) == "" {
			synthesized = true
			break
		}
		// Stored values look like "LD3"; strip the domain type.
		v := strings.TrimSpace(val)
		if !strings.HasPrefix(v, domainType) {
			return nil, fmt.Errorf("urc: layer %s: %s value %q does not have the form %s<number>",
				l.Name, fld, val, domainType)
		}
		n, err := strconv.Atoi(v[len(domainType):])
		if err != nil {
			return nil, fmt.Errorf("urc: layer %s: parsing %s value %q: %v", l.Name, fld, val, err)
		}
		indices[i] = float64(n)
	}
	if synthesized {
		cfg.log().WithField("layer", l.Name).Infof("calculating %s field", fld)
		for i := range indices {
			indices[i] = float64(i)
		}
	}

	out := NewRaster(name, mask.Cols(), mask.Rows(), mask.GT, mask.Proj, cfg.nodata())
	tree := layerTree(l)
	for y := 0; y < mask.Rows(); y++ {
		for x := 0; x < mask.Cols(); x++ {
			if mask.Data.Get(y, x) == 0 {
				continue
			}
			cx, cy := mask.GT.CellCenter(x, y)
			hits := covering(tree, geom.Point{X: cx, Y: cy})
			if len(hits) > 0 {
				out.Data.Set(indices[hits[0].pos], y, x)
			}
		}
	}
	return out, nil
}

// buildUD combines the domain indices into the unique-domain raster.
// A cell holds a value only where every contributing raster does.
func (cfg *GridConfig) buildUD(ld, sd, sa *Raster) *Raster {
	policy := cfg.UDPolicy
	if policy == nil {
		policy = DefaultUDPolicy
	}
	maxLD := maxValid(ld)
	maxSD := maxValid(sd)

	ud := NewRaster("ud", ld.Cols(), ld.Rows(), ld.GT, ld.Proj, cfg.nodata())
	for i := range ud.Data.Elements {
		ldv := ld.Data.Elements[i]
		sdv := sd.Data.Elements[i]
		if ld.IsNoData(ldv) || sd.IsNoData(sdv) {
			continue
		}
		sav := 0.
		if sa != nil {
			sav = sa.Data.Elements[i]
			if sa.IsNoData(sav) {
				continue
			}
		}
		ud.Data.Elements[i] = policy(ldv, sdv, sav, maxLD, maxSD)
	}
	return ud
}

// maxValid returns the largest non-missing value in r, or 0 when r
// is empty.
func maxValid(r *Raster) float64 {
	max := math.Inf(-1)
	for _, v := range r.Data.Elements {
		if !r.IsNoData(v) && v > max {
			max = v
		}
	}
	if math.IsInf(max, -1) {
		return 0
	}
	return max
}
