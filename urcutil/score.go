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
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/urc-assessment/urc"
)

// analysisMask returns the stored analysis mask of the index raster
// group, deriving one from the group's data coverage when no mask was
// saved with it.
func analysisMask(indices *urc.RasterGroup, log logrus.FieldLogger) *urc.Raster {
	if mask := indices.Get("mask"); mask != nil {
		return mask
	}
	log.Info("index rasters carry no analysis mask; deriving one from data coverage")
	mask := urc.NewRaster("mask", indices.Cols(), indices.Rows(),
		indices.GeoTransform(), indices.Proj(), 0)
	copy(mask.Data.Elements, indices.NoDataMask().Elements)
	return mask
}

// Score runs the selected PE scoring branches over the index rasters
// in indexFile and writes the result rasters to outputDir.
func Score(indexFile, componentDir, outputDir, rasterDir, clipFile, tableShapefile string, thresholds map[string]float64, da, ds, rastersOnly, serial bool) error {
	log := logrus.StandardLogger()
	if componentDir == "" {
		return fmt.Errorf("urc: a component directory is required for scoring")
	}

	indices, err := urc.LoadRasters(indexFile)
	if err != nil {
		return fmt.Errorf("urc: loading index rasters: %v", err)
	}
	mask := analysisMask(indices, log)

	var clip *urc.Raster
	if clipFile != "" {
		clipGroup, err := urc.LoadRasters(clipFile)
		if err != nil {
			return fmt.Errorf("urc: loading clip rasters: %v", err)
		}
		names := clipGroup.Names()
		if len(names) == 0 {
			return fmt.Errorf("urc: clip raster file %s is empty", clipFile)
		}
		clip = clipGroup.Get(names[0])
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}
	if rasterDir != "" {
		if err := os.MkdirAll(rasterDir, 0755); err != nil {
			return err
		}
	}

	cfg := &urc.RunConfig{
		ComponentDir:   componentDir,
		IndexRasters:   indices,
		Mask:           mask,
		ClipMask:       clip,
		Workspace:      urc.NewWorkspace(outputDir),
		RasterDir:      rasterDir,
		TableShapefile: tableShapefile,
		RastersOnly:    rastersOnly,
		DistThresholds: thresholds,
		EnableDA:       da,
		EnableDS:       ds,
		SerialSIMPA:    serial,
		Log:            log,
	}
	outputs, err := cfg.Run()
	if err != nil {
		return err
	}
	for name, path := range outputs {
		log.WithFields(logrus.Fields{
			"output": name,
			"file":   path,
		}).Info("wrote result")
	}
	return nil
}
