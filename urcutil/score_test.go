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

package urcutil

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/urc-assessment/urc"
)

func TestAnalysisMask(t *testing.T) {
	gt := urc.GeoTransform{0, 1, 0, 2, 0, -1}
	indices := urc.NewRasterGroup()
	lg := urc.NewRaster("lg", 2, 2, gt, "", urc.NoDataIndex)
	copy(lg.Data.Elements, []float64{0, 1, urc.NoDataIndex, urc.NoDataIndex})
	if err := indices.Add(lg); err != nil {
		t.Fatal(err)
	}

	// Without a stored mask, coverage of the index rasters stands in.
	mask := analysisMask(indices, logrus.StandardLogger())
	want := []float64{1, 1, 0, 0}
	for i, v := range mask.Data.Elements {
		if v != want[i] {
			t.Errorf("derived mask cell %d = %g, want %g", i, v, want[i])
		}
	}

	stored := urc.NewRaster("mask", 2, 2, gt, "", 0)
	copy(stored.Data.Elements, []float64{1, 0, 0, 0})
	if err := indices.Add(stored); err != nil {
		t.Fatal(err)
	}
	if got := analysisMask(indices, logrus.StandardLogger()); got != stored {
		t.Error("a stored mask raster should be used as-is")
	}
}
