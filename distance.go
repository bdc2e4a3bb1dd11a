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
	"strings"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// DomainHits holds the per-index presence maps for one domain type:
// Maps has shape [index, row, column] with 1 marking cells belonging
// to that domain index, and Hit marks which indices occur at all.
type DomainHits struct {
	Maps *sparse.DenseArray
	Hit  []bool
}

// GenDomainHitmaps separates each domain index raster into per-index
// presence maps. The ld, ud, and sd rasters of src are always
// processed; sa is included when present.
func GenDomainHitmaps(src *RasterGroup) (map[string]*DomainHits, error) {
	hitmaps := make(map[string]*DomainHits)
	domains := []string{"ld", "ud", "sd"}
	if src.Contains("sa") {
		domains = append(domains, "sa")
	}
	for _, k := range domains {
		r := src.Get(k)
		if r == nil {
			return nil, fmt.Errorf("urc: index raster group is missing the %s raster", k)
		}
		maxIdx := int(maxValid(r))
		hits := &DomainHits{
			Maps: sparse.ZerosDense(maxIdx+1, r.Rows(), r.Cols()),
			Hit:  make([]bool, maxIdx+1),
		}
		n := r.Rows() * r.Cols()
		for i, v := range r.Data.Elements {
			if r.IsNoData(v) {
				continue
			}
			idx := int(v)
			if idx < 0 || idx > maxIdx {
				continue
			}
			hits.Maps.Elements[idx*n+i] = 1
			hits.Hit[idx] = true
		}
		hitmaps[k] = hits
	}
	return hitmaps, nil
}

// GenDomainIndexRasters expands the domain index rasters into one
// raster per occurring domain index, named <domain>_<index>. When
// asDistance is true each raster holds the distance from every cell
// to the nearest cell of that domain; otherwise it holds the
// presence map itself. The returned hitmaps can be reused for
// component attribution.
func GenDomainIndexRasters(src *RasterGroup, asDistance bool, mask *Raster, log logrus.FieldLogger) (*RasterGroup, map[string]*DomainHits, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	hitmaps, err := GenDomainHitmaps(src)
	if err != nil {
		return nil, nil, err
	}

	out := NewRasterGroup()
	for _, k := range []string{"ld", "ud", "sd", "sa"} {
		hits, ok := hitmaps[k]
		if !ok {
			continue
		}
		if asDistance {
			log.WithField("domain", k).Info("distancing domains")
		} else {
			log.WithField("domain", k).Info("isolating domains")
		}
		n := src.Rows() * src.Cols()
		for idx := 0; idx < len(hits.Hit); idx++ {
			if !hits.Hit[idx] {
				continue
			}
			name := fmt.Sprintf("%s_%d", k, idx)
			sub := NewRaster(name, src.Cols(), src.Rows(), src.GeoTransform(), src.Proj(), 0)
			copy(sub.Data.Elements, hits.Maps.Elements[idx*n:(idx+1)*n])
			if asDistance {
				sub = RasterDistance(name, sub, mask, 0)
			}
			if err := out.Add(sub); err != nil {
				return nil, nil, err
			}
		}
	}
	return out, hitmaps, nil
}

// RasterDistance computes the distance from every cell of src to the
// nearest cell holding data, in georeferenced units. An all-missing
// source produces an all-missing result. When thresh is positive,
// distances beyond it collapse to 0. Cells excluded by a non-nil
// mask are marked missing.
func RasterDistance(name string, src *Raster, mask *Raster, thresh float64) *Raster {
	nodata := math.Inf(1)
	out := NewRaster(name, src.Cols(), src.Rows(), src.GT, src.Proj, nodata)
	if src.Empty() {
		return out
	}

	dist := edt(src)
	for i, d := range dist {
		if thresh > 0 && d > thresh {
			// Beyond the threshold no distance is computed; such
			// cells read as zero distance downstream.
			d = 0
		}
		out.Data.Elements[i] = d
	}
	if mask != nil {
		for i, mv := range mask.Data.Elements {
			if mv == 0 {
				out.Data.Elements[i] = nodata
			}
		}
	}
	return out
}

// edt computes the exact Euclidean distance transform of src using
// the Felzenszwalb-Huttenlocher algorithm, scaled by the pixel
// dimensions so results are in georeferenced units.
func edt(src *Raster) []float64 {
	ny, nx := src.Rows(), src.Cols()
	dx := math.Abs(src.GT[1])
	dy := math.Abs(src.GT[5])

	// Squared distances, initialized to 0 at cells with data.
	f := make([]float64, ny*nx)
	for i, v := range src.Data.Elements {
		if src.IsNoData(v) || v == 0 {
			f[i] = math.Inf(1)
		}
	}

	// Transform along rows, then columns.
	row := make([]float64, nx)
	for y := 0; y < ny; y++ {
		copy(row, f[y*nx:(y+1)*nx])
		dt1d(row, dx)
		copy(f[y*nx:(y+1)*nx], row)
	}
	col := make([]float64, ny)
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			col[y] = f[y*nx+x]
		}
		dt1d(col, dy)
		for y := 0; y < ny; y++ {
			f[y*nx+x] = col[y]
		}
	}

	for i, v := range f {
		f[i] = math.Sqrt(v)
	}
	return f
}

// dt1d performs the 1-d squared-distance transform of f in place,
// with sample spacing d. Entries holding +Inf contribute nothing to
// the lower envelope; a scan line with no finite entries is left
// unchanged.
func dt1d(f []float64, d float64) {
	n := len(f)
	q0 := -1
	for i, x := range f {
		if !math.IsInf(x, 1) {
			q0 = i
			break
		}
	}
	if q0 < 0 {
		return
	}

	sq := func(x float64) float64 { return x * x }
	v := make([]int, n)       // centers of parabolas in the lower envelope
	z := make([]float64, n+1) // boundaries between envelope segments
	k := 0
	v[0] = q0
	z[0] = math.Inf(-1)
	z[1] = math.Inf(1)

	for q := q0 + 1; q < n; q++ {
		if math.IsInf(f[q], 1) {
			continue
		}
		var s float64
		for {
			p := v[k]
			s = (f[q] + sq(float64(q)*d) - f[p] - sq(float64(p)*d)) /
				(2 * d * float64(q-p))
			if s > z[k] {
				break
			}
			k--
		}
		k++
		v[k] = q
		z[k] = s
		z[k+1] = math.Inf(1)
	}

	out := make([]float64, n)
	k = 0
	for q := 0; q < n; q++ {
		qd := float64(q) * d
		for z[k+1] < qd {
			k++
		}
		out[q] = sq(qd-float64(v[k])*d) + f[v[k]]
	}
	copy(f, out)
}

// GetDSDistances builds a distance raster for every DS component
// presence raster in src. thresholds optionally caps the distance for
// individual components, keyed by component name; distances past a
// cap score zero.
func GetDSDistances(src *RasterGroup, mask *Raster, thresholds map[string]float64, log logrus.FieldLogger) (*RasterGroup, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	out := NewRasterGroup()
	for _, k := range src.Names() {
		if !strings.HasPrefix(k, "DS") {
			continue
		}
		log.WithField("component", k).Info("finding distance")
		if err := out.Add(RasterDistance(k, src.Get(k), mask, thresholds[k])); err != nil {
			return nil, err
		}
	}
	return out, nil
}
