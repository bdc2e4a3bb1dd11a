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
	"time"

	"github.com/sirupsen/logrus"

	"github.com/urc-assessment/urc/fuzzy"
)

// Version gives the URC release version.
const Version = "1.0.1"

// RunConfig drives a complete PE scoring run over a prepared
// analysis grid.
type RunConfig struct {
	// ComponentDir is the directory holding the component
	// shapefiles.
	ComponentDir string

	// IndexRasters holds the lg, ld, sd, ud, and optional sa index
	// rasters.
	IndexRasters *RasterGroup

	// Mask marks the grid cells included in the analysis.
	Mask *Raster

	// ClipMask, when non-nil, further culls every produced raster.
	ClipMask *Raster

	// Workspace anchors the output files.
	Workspace *Workspace

	// RasterDir, when non-empty, receives copies of intermediate
	// rasters.
	RasterDir string

	// TableShapefile, when non-empty, receives the DA presence
	// table as a polygon shapefile.
	TableShapefile string

	// RastersOnly stops a branch after its intermediate rasters are
	// written. It only has an effect when RasterDir is set.
	RastersOnly bool

	// EnableDA and EnableDS select the scoring branches to run. At
	// least one must be set.
	EnableDA bool
	EnableDS bool

	// Model overrides the fuzzy inference model for the DS branch.
	Model *fuzzy.Model

	// SerialSIMPA disables parallel fuzzy inference.
	SerialSIMPA bool

	// DistThresholds caps the distances of individual DS components,
	// keyed by component name. Distances past a cap score zero.
	DistThresholds map[string]float64

	// Progress, when non-nil, receives percentage updates in
	// [0, 100] as the run advances.
	Progress func(int)

	// Log receives progress information. If nil, the standard
	// logger is used.
	Log logrus.FieldLogger
}

func (c *RunConfig) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

func (c *RunConfig) progress(pct int) {
	if c.Progress != nil {
		c.Progress(pct)
	}
}

// Run executes the selected scoring branches and returns the paths
// of the produced output files keyed by output name.
func (c *RunConfig) Run() (map[string]string, error) {
	if !c.EnableDA && !c.EnableDS {
		return nil, fmt.Errorf("urc: at least one of the DA and DS branches must be enabled")
	}
	if c.IndexRasters == nil || c.IndexRasters.Len() == 0 {
		return nil, fmt.Errorf("urc: index rasters are required")
	}
	outputs := make(map[string]string)
	c.progress(0)
	if c.EnableDA {
		if err := c.runDA(outputs); err != nil {
			return nil, err
		}
	}
	c.progress(50)
	if c.EnableDS {
		if err := c.runDS(outputs); err != nil {
			return nil, err
		}
	}
	c.progress(100)
	return outputs, nil
}

// runDA scores the structural requirements branch: it rasterizes the
// DA components, tabulates per-cell presence, applies the mechanism
// requirement sets, and writes one ratio raster per mechanism.
func (c *RunConfig) runDA(outputs map[string]string) error {
	log := c.log()
	log.Info("begin DA PE scoring")
	start := time.Now()

	components, err := FindUniqueComponents(c.ComponentDir, "DA")
	if err != nil {
		return err
	}
	tests, err := RasterizeComponents(c.IndexRasters, components, c.Mask, log)
	if err != nil {
		return err
	}
	log.Info("rasterization complete")
	c.reportEmpty("DA", tests)

	if c.ClipMask != nil {
		if err := tests.ClipWith(c.ClipMask); err != nil {
			return err
		}
	}
	if c.RasterDir != "" {
		if _, err := SaveRasterDir(tests, c.RasterDir, "_component"); err != nil {
			return err
		}
		if c.RastersOnly {
			log.Info("exit on rasters specified; exiting")
			return nil
		}
	}

	table, err := BuildPETable(c.IndexRasters, tests)
	if err != nil {
		return err
	}
	CalcDASum(table)
	for mech, req := range daRequirements {
		log.WithFields(logrus.Fields{
			"mechanism": mech,
			"required":  len(req),
		}).Debug("DR count")
	}

	log.Info("writing out DA/DR rasters")
	drRasters, err := TableToRasters(table, c.IndexRasters.Get("lg"), DAResultColumns(table))
	if err != nil {
		return err
	}
	if c.ClipMask != nil {
		if err := drRasters.ClipWith(c.ClipMask); err != nil {
			return err
		}
	}
	paths, err := SaveRasterDir(drRasters, c.Workspace.Dir, "")
	if err != nil {
		return err
	}
	for name, path := range paths {
		outputs[name] = path
	}
	if c.TableShapefile != "" {
		p := c.TableShapefile
		if !filepath.IsAbs(p) {
			p = filepath.Join(c.Workspace.Dir, p)
		}
		if err := WriteTableShp(table, c.IndexRasters.Get("lg"), DAResultColumns(table), p); err != nil {
			return err
		}
		outputs["da_table"] = p
	}

	log.WithField("elapsed", time.Since(start)).Info("DA complete")
	return nil
}

// runDS scores the proximity branch: it rasterizes the DS
// components, derives domain and component distances, fuses and
// normalizes them, and runs fuzzy inference over the result.
func (c *RunConfig) runDS(outputs map[string]string) error {
	log := c.log()
	log.Info("begin DS PE scoring")
	start := time.Now()

	components, err := FindUniqueComponents(c.ComponentDir, "DS")
	if err != nil {
		return err
	}
	tests, err := RasterizeComponents(c.IndexRasters, components, nil, log)
	if err != nil {
		return err
	}

	log.Info("calculating distances")
	domDist, hitmaps, err := GenDomainIndexRasters(c.IndexRasters, true, c.Mask, log)
	if err != nil {
		return err
	}
	distances, err := GetDSDistances(tests, c.Mask, c.DistThresholds, log)
	if err != nil {
		return err
	}
	combos, err := FindDomainComponentRasters(domDist, hitmaps, tests)
	if err != nil {
		return err
	}

	mult, err := NormMultRasters(combos, distances)
	if err != nil {
		return err
	}
	// Local-grid components have no domain to fuse against; their
	// normalized distances join unmultiplied.
	lgNorm, err := NormLGRasters(distances)
	if err != nil {
		return err
	}
	if err := mult.Update(lgNorm); err != nil {
		return err
	}

	if c.ClipMask != nil {
		if err := mult.ClipWith(c.ClipMask); err != nil {
			return err
		}
	}

	var empty []string
	for _, rg := range []*RasterGroup{domDist, distances, combos, mult} {
		empty = append(empty, rg.EmptyRasterNames()...)
	}
	if len(empty) > 0 {
		for _, name := range empty {
			log.WithField("raster", name).Warn("empty DS raster")
		}
	} else {
		log.Info("no empty DS rasters detected")
	}

	if c.RasterDir != "" {
		if _, err := SaveRasterDir(mult, c.RasterDir, "_norm_product"); err != nil {
			return err
		}
		if c.RastersOnly {
			log.Info("exit on rasters specified; exiting")
			return nil
		}
	}

	log.Info("begin SIMPA processing")
	s := &SIMPA{Model: c.Model, Serial: c.SerialSIMPA, Log: log}
	scores, err := s.Run(mult)
	if err != nil {
		return err
	}
	log.Info("end SIMPA processing")

	paths, err := SaveRasterDir(scores, c.Workspace.Dir, "")
	if err != nil {
		return err
	}
	for name, path := range paths {
		outputs[name] = path
	}

	log.WithField("elapsed", time.Since(start)).Info("DS scoring complete")
	return nil
}

// reportEmpty logs the names of empty rasters in g, if any.
func (c *RunConfig) reportEmpty(branch string, g *RasterGroup) {
	empty := g.EmptyRasterNames()
	if len(empty) == 0 {
		c.log().Infof("no empty %s rasters detected", branch)
		return
	}
	for _, name := range empty {
		c.log().WithField("raster", name).Warnf("empty %s raster", branch)
	}
}
