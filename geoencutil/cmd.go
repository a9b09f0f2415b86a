/*
Copyright © 2024 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package geoencutil contains the configuration and command-line
// interface for geoenc.
package geoencutil

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/geoenc"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log is the logger used by the commands.
var Log = logrus.New()

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to geoenc.
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
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to print. Valid
              options are "debug", "info", "warning" and "error".`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Encoder.Type",
			usage: `
              Encoder.Type specifies the encoding method: "mpp" for
              multi-point proximity encodings or "div" for discrete
              indicator vector encodings.`,
			shorthand:  "t",
			defaultVal: "mpp",
			flagsets:   []*pflag.FlagSet{encodeCmd.Flags(), gridCmd.Flags()},
		},
		{
			name: "Encoder.Region",
			usage: `
              Encoder.Region gives the lower-left and upper-right corners
              of the encoded region in the form [x0, y0, x1, y1].`,
			defaultVal: []float64{0, 0, 1, 1},
			flagsets:   []*pflag.FlagSet{encodeCmd.Flags(), gridCmd.Flags()},
		},
		{
			name: "Encoder.Resolution",
			usage: `
              Encoder.Resolution is the spacing between MPP reference points
              or the edge length of DIV tiles, in the units of the input
              geometry.`,
			defaultVal: 0.1,
			flagsets:   []*pflag.FlagSet{encodeCmd.Flags(), gridCmd.Flags()},
		},
		{
			name: "Encoder.Scale",
			usage: `
              Encoder.Scale is the distance decay constant for MPP encodings.
              It must be greater than 0. If it is not set, Encoder.Resolution
              is used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{encodeCmd.Flags(), gridCmd.Flags()},
		},
		{
			name: "Encoder.Center",
			usage: `
              If Encoder.Center is true, MPP reference points are placed at
              the centers of the grid cells rather than at their lower-left
              corners.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{encodeCmd.Flags(), gridCmd.Flags()},
		},
		{
			name: "Encoder.Floor",
			usage: `
              Encoder.Floor is the value at or below which MPP encoding
              elements are dropped. If it is 0, encodings are stored densely.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{encodeCmd.Flags(), gridCmd.Flags()},
		},
		{
			name: "Encoder.Sparse",
			usage: `
              If Encoder.Sparse is true, DIV encodings only store the tiles
              that a shape intersects.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{encodeCmd.Flags(), gridCmd.Flags()},
		},
		{
			name: "Encoder.MaxDense",
			usage: `
              Encoder.MaxDense is the largest encoding length that will be
              converted to a dense vector. If it is 0, the default of 2048
              is used.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{encodeCmd.Flags(), gridCmd.Flags()},
		},
		{
			name: "InputFile",
			usage: `
              InputFile is the path to a GeoJSON file or shapefile holding
              the shapes to encode. It can include environment variables.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{encodeCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired output location: a CSV
              file for the encode command or a shapefile for the grid
              command. It can include environment variables.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{encodeCmd.Flags(), gridCmd.Flags()},
		},
		{
			name: "Dense",
			usage: `
              If Dense is true, every element of each encoding is written,
              including zeros. Encodings longer than Encoder.MaxDense
              cause an error unless Override is also true.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{encodeCmd.Flags()},
		},
		{
			name: "Override",
			usage: `
              Override allows dense output of encodings longer than
              Encoder.MaxDense.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{encodeCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GEOENC")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			case []float64:
				b, err := json.Marshal(v)
				if err != nil {
					panic(err)
				}
				set.StringP(option.name, option.shorthand, string(b), option.usage)
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
	Root.AddCommand(encodeCmd)
	Root.AddCommand(gridCmd)

	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
	})
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("geoenc: problem reading configuration file: %v", err)
		}
	}
	lvl, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("geoenc: LogLevel: %v", err)
	}
	Log.Level = lvl
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "geoenc",
	Short: "Positional encodings of geometric shapes.",
	Long: `geoenc calculates fixed-length positional encodings of geometric shapes
over a rectangular region, either as multi-point proximity (MPP) encodings
or as discrete indicator vector (DIV) encodings.
Use the subcommands specified below to access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'GEOENC_VAR' where 'VAR' is the
name of the variable to be set, with '.' replaced by '_'.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of geoenc.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("geoenc v%s\n", geoenc.Version)
	},
	DisableAutoGenTag: true,
}

// encodeCmd is a command that encodes the shapes in a file.
var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode shapes",
	Long: `encode calculates the encoding of every shape in InputFile and writes
the results to the CSV file OutputFile, with one row per stored element
in the form shape,index,value.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc, err := EncoderConfig(Cfg)
		if err != nil {
			return err
		}
		inputFile, err := checkInputFile(Cfg.GetString("InputFile"))
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		return Encode(context.Background(), enc, inputFile, outputFile,
			Cfg.GetBool("Dense"), Cfg.GetBool("Override"), encoderKey(Cfg))
	},
	DisableAutoGenTag: true,
}

// gridCmd is a command that writes the encoder grid to a shapefile.
var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Write the encoder grid",
	Long: `grid writes the MPP reference points or DIV tiles specified in the
configuration to the shapefile OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc, err := EncoderConfig(Cfg)
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		Log.WithFields(logrus.Fields{
			"encoder": encoderKey(Cfg),
			"size":    enc.Len(),
			"file":    outputFile,
		}).Info("writing grid")
		return WriteGrid(enc, outputFile)
	},
	DisableAutoGenTag: true,
}

// Encode encodes the shapes in inputFile with enc and writes them to
// the CSV file outputFile. If dense is true, every element is written;
// override allows dense output of encodings longer than the encoder's
// MaxDense.
func Encode(ctx context.Context, enc geoenc.Encoder, inputFile, outputFile string, dense, override bool, key string) error {
	log := Log.WithField("encoder", key)

	geoms, err := ReadShapes(inputFile)
	if err != nil {
		return err
	}
	shapes := make([]geoenc.Shape, len(geoms))
	for i, g := range geoms {
		s, err := geoenc.NewShape(g)
		if err != nil {
			return fmt.Errorf("geoenc: input shape %d: %w", i, err)
		}
		shapes[i] = s
	}
	log.WithFields(logrus.Fields{
		"shapes": len(shapes),
		"size":   enc.Len(),
		"file":   inputFile,
	}).Info("encoding shapes")

	start := time.Now()
	encodings, err := geoenc.EncodeAll(ctx, enc, shapes)
	if err != nil {
		return err
	}
	nnz := 0
	for i, e := range encodings {
		nnz += e.NNZ()
		if dense && !override {
			if _, err := e.Values(false); err != nil {
				return fmt.Errorf("geoenc: shape %d: %w; set Override to write it anyway", i, err)
			}
		}
	}
	log.WithFields(logrus.Fields{
		"elements": nnz,
		"duration": time.Since(start),
	}).Debug("finished encoding")

	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("geoenc: creating output file: %w", err)
	}
	if err := WriteCSV(f, encodings, dense); err != nil {
		f.Close()
		return fmt.Errorf("geoenc: writing output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.WithField("file", outputFile).Info("wrote encodings")
	return nil
}
