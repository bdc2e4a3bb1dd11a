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

// Package urcutil provides the command-line interface for the URC
// potential-for-enrichment model.
package urcutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/urc-assessment/urc"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to URC.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Grid.LDInputFile",
			usage: `
              Grid.LDInputFile is the path to the shapefile holding the
              lithologic domain polygons. Its extent defines the extent
              of the analysis grid.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "Grid.SDInputFile",
			usage: `
              Grid.SDInputFile is the path to the shapefile holding the
              structural domain polygons.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "Grid.SAInputFile",
			usage: `
              Grid.SAInputFile is the path to the shapefile holding the
              secondary alteration polygons. It is optional; when empty,
              unconformity indices are derived without an alteration
              contribution.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "Grid.ClipLayer",
			usage: `
              Grid.ClipLayer is the path to an optional shapefile whose
              polygons bound the analysis mask. When empty, the
              lithologic domain layer bounds the mask.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "Grid.CellWidth",
			usage: `
              Grid.CellWidth is the grid cell length in the x direction,
              in the units of the grid projection.`,
			defaultVal: 1000.0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "Grid.CellHeight",
			usage: `
              Grid.CellHeight is the grid cell length in the y direction,
              in the units of the grid projection.`,
			defaultVal: 1000.0,
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "Grid.Projection",
			usage: `
              Grid.Projection gives the analysis grid projection in
              Proj4 format. The input layers are reprojected to it
              before gridding.`,
			defaultVal: "+proj=aea +lat_1=29.5 +lat_2=45.5 +lat_0=23 +lon_0=-96 +x_0=0 +y_0=0 +datum=NAD83 +units=m",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "Grid.OutputFile",
			usage: `
              Grid.OutputFile is the path where the index raster file
              will be written.`,
			defaultVal: "urc_indices.nc",
			flagsets:   []*pflag.FlagSet{gridCmd.Flags()},
		},
		{
			name: "Score.IndexFile",
			usage: `
              Score.IndexFile is the path to the index raster file
              produced by the grid command.`,
			defaultVal: "urc_indices.nc",
			flagsets:   []*pflag.FlagSet{scoreCmd.Flags()},
		},
		{
			name: "Score.ComponentDir",
			usage: `
              Score.ComponentDir is the directory holding the component
              shapefiles. File names must begin with DA or DS followed
              by the mechanism, domain, and component identifiers.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{scoreCmd.Flags()},
		},
		{
			name: "Score.OutputDir",
			usage: `
              Score.OutputDir is the directory where the scoring results
              will be written.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{scoreCmd.Flags()},
		},
		{
			name: "Score.RasterDir",
			usage: `
              Score.RasterDir, when nonempty, is a directory that
              receives copies of the intermediate rasters.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{scoreCmd.Flags()},
		},
		{
			name: "Score.RastersOnly",
			usage: `
              Score.RastersOnly stops each scoring branch after its
              intermediate rasters are written to Score.RasterDir.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{scoreCmd.Flags()},
		},
		{
			name: "Score.ClipFile",
			usage: `
              Score.ClipFile is the path to an optional raster file
              whose first member culls the output rasters.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{scoreCmd.Flags()},
		},
		{
			name: "Score.TableShapefile",
			usage: `
              Score.TableShapefile, when nonempty, is the path where the
              DA presence table will be written as a polygon shapefile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{scoreCmd.Flags()},
		},
		{
			name: "Score.DistanceThresholds",
			usage: `
              Score.DistanceThresholds caps the distances of individual
              DS components, keyed by component name. Distances past a
              cap score zero.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{scoreCmd.Flags()},
		},
		{
			name: "da",
			usage: `
              da enables the dimensioned-assessment scoring branch.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{scoreCmd.Flags()},
		},
		{
			name: "ds",
			usage: `
              ds enables the distance-scoring branch.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{scoreCmd.Flags()},
		},
		{
			name: "serial",
			usage: `
              serial disables parallel fuzzy inference. It is mainly
              useful for debugging.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{scoreCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("URC")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(gridCmd)
	Root.AddCommand(scoreCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("urc: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "urc",
	Short: "A rare-earth-element resource assessment model.",
	Long: `URC scores the potential for enrichment of rare-earth elements in
coal-bearing sedimentary basins over a regular analysis grid. Use the
subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'URC_var' where 'var' is the name of the variable to be set. Refer to
https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of URC.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("URC v%s\n", urc.Version)
	},
	DisableAutoGenTag: true,
}

// gridCmd is a command that builds and saves the index rasters.
var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Create the analysis grid",
	Long: `grid rasterizes the domain input layers onto a regular analysis grid
and saves the resulting index rasters. The saved data can then be loaded
for future URC scoring runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Grid(
			os.ExpandEnv(Cfg.GetString("Grid.LDInputFile")),
			os.ExpandEnv(Cfg.GetString("Grid.SDInputFile")),
			os.ExpandEnv(Cfg.GetString("Grid.SAInputFile")),
			os.ExpandEnv(Cfg.GetString("Grid.ClipLayer")),
			Cfg.GetFloat64("Grid.CellWidth"),
			Cfg.GetFloat64("Grid.CellHeight"),
			Cfg.GetString("Grid.Projection"),
			os.ExpandEnv(Cfg.GetString("Grid.OutputFile")),
		)
	},
	DisableAutoGenTag: true,
}

// scoreCmd is a command that runs the PE scoring branches.
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score potential for enrichment",
	Long: `score runs the selected potential-for-enrichment scoring branches over
a previously created analysis grid and writes one result raster per output.
At least one of --da and --ds must be given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		thresholds, err := getStringMapFloat64("Score.DistanceThresholds", Cfg)
		if err != nil {
			return err
		}
		return Score(
			os.ExpandEnv(Cfg.GetString("Score.IndexFile")),
			os.ExpandEnv(Cfg.GetString("Score.ComponentDir")),
			os.ExpandEnv(Cfg.GetString("Score.OutputDir")),
			os.ExpandEnv(Cfg.GetString("Score.RasterDir")),
			os.ExpandEnv(Cfg.GetString("Score.ClipFile")),
			os.ExpandEnv(Cfg.GetString("Score.TableShapefile")),
			thresholds,
			Cfg.GetBool("da"),
			Cfg.GetBool("ds"),
			Cfg.GetBool("Score.RastersOnly"),
			Cfg.GetBool("serial"),
		)
	},
	DisableAutoGenTag: true,
}
