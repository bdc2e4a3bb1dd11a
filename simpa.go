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
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/urc-assessment/urc/fuzzy"
)

// SIMPA runs the spatially-implicit fuzzy inference step over the
// fused evidence rasters, producing one score raster per model
// output plus the per-cell maximum across them.
type SIMPA struct {
	// Model is the inference configuration. DefaultModel is used
	// when nil.
	Model *fuzzy.Model

	// Serial disables parallel pixel evaluation.
	Serial bool

	// Log receives progress information. If nil, the standard
	// logger is used.
	Log logrus.FieldLogger
}

func (s *SIMPA) model() *fuzzy.Model {
	if s.Model == nil {
		return fuzzy.DefaultModel()
	}
	return s.Model
}

func (s *SIMPA) log() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}

// bind matches each model input field to the member of g whose name
// ends with the field name. Unmatched fields map to nil and are
// later fed from the all-missing shim.
func (s *SIMPA) bind(m *fuzzy.Model, g *RasterGroup) map[string]*Raster {
	bound := make(map[string]*Raster)
	for _, field := range m.InputNames() {
		for _, k := range g.Names() {
			if strings.HasSuffix(k, field) {
				bound[field] = g.Get(k)
				break
			}
		}
		if bound[field] == nil {
			s.log().WithField("field", field).Info("no raster matches model input; substituting missing data")
		}
	}
	return bound
}

// Run evaluates the model at every cell of mult. The returned group
// holds one raster per model output plus PE_max, all marking missing
// cells with -Inf.
func (s *SIMPA) Run(mult *RasterGroup) (*RasterGroup, error) {
	if mult.Len() == 0 {
		return nil, fmt.Errorf("urc: SIMPA requires at least one input raster")
	}
	m := s.model()
	if err := m.Check(); err != nil {
		return nil, err
	}
	nodata := math.Inf(-1)
	bound := s.bind(m, mult)
	fields := m.InputNames()
	outNames := m.OutputNames()

	out := NewRasterGroup()
	for _, name := range outNames {
		r := NewRaster(name, mult.Cols(), mult.Rows(), mult.GeoTransform(), mult.Proj(), nodata)
		if err := out.Add(r); err != nil {
			return nil, err
		}
	}

	n := mult.Rows() * mult.Cols()
	eval := func(i int) error {
		inputs := make(map[string]fuzzy.Value, len(fields))
		for _, f := range fields {
			r := bound[f]
			if r == nil {
				inputs[f] = fuzzy.NoData()
				continue
			}
			v := r.Data.Elements[i]
			if r.IsNoData(v) {
				inputs[f] = fuzzy.NoData()
			} else {
				inputs[f] = fuzzy.Data(v)
			}
		}
		results, err := m.Evaluate(inputs)
		if err != nil {
			return err
		}
		for _, name := range outNames {
			v := results[name]
			if v.IsNoData() {
				continue
			}
			out.Get(name).Data.Elements[i] = v.Float()
		}
		return nil
	}

	if s.Serial {
		s.log().Info("parallel SIMPA disabled")
		for i := 0; i < n; i++ {
			if err := eval(i); err != nil {
				return nil, err
			}
		}
	} else {
		nprocs := runtime.GOMAXPROCS(0)
		errs := make([]error, nprocs)
		var wg sync.WaitGroup
		for pp := 0; pp < nprocs; pp++ {
			wg.Add(1)
			go func(pp int) {
				defer wg.Done()
				for i := pp; i < n; i += nprocs {
					if err := eval(i); err != nil {
						errs[pp] = err
						return
					}
				}
			}(pp)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}

	max := out.MaxValues("PE_", nodata)
	maxRast := NewRaster("PE_max", mult.Cols(), mult.Rows(), mult.GeoTransform(), mult.Proj(), nodata)
	copy(maxRast.Data.Elements, max.Elements)
	if err := out.Add(maxRast); err != nil {
		return nil, err
	}
	return out, nil
}
