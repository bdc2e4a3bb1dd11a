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

	"github.com/sirupsen/logrus"

	"github.com/urc-assessment/urc"
)

// Grid builds the index rasters from the domain input shapefiles and
// saves them, together with the analysis mask, to outputFile.
func Grid(ldFile, sdFile, saFile, clipFile string, cellWidth, cellHeight float64, proj, outputFile string) error {
	log := logrus.StandardLogger()
	if ldFile == "" || sdFile == "" {
		return fmt.Errorf("urc: the LD and SD input files are required to create a grid")
	}

	ld, err := urc.LoadVectorLayer(ldFile, "LD_index")
	if err != nil {
		return fmt.Errorf("urc: loading LD input: %v", err)
	}
	sd, err := urc.LoadVectorLayer(sdFile, "SD_index")
	if err != nil {
		return fmt.Errorf("urc: loading SD input: %v", err)
	}
	var sa *urc.VectorLayer
	if saFile != "" {
		if sa, err = urc.LoadVectorLayer(saFile, "SA_index"); err != nil {
			return fmt.Errorf("urc: loading SA input: %v", err)
		}
	}
	var clip *urc.VectorLayer
	if clipFile != "" {
		if clip, err = urc.LoadVectorLayer(clipFile); err != nil {
			return fmt.Errorf("urc: loading clip layer: %v", err)
		}
	}

	cfg := &urc.GridConfig{
		CellWidth:  cellWidth,
		CellHeight: cellHeight,
		Proj:       proj,
		Log:        log,
	}
	indices, mask, err := cfg.BuildIndexRasters(ld, sd, sa, clip)
	if err != nil {
		return err
	}
	if err := indices.Add(mask); err != nil {
		return err
	}

	log.WithField("file", outputFile).Info("writing index rasters")
	return urc.SaveRasters(indices, outputFile)
}
