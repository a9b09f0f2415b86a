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

package geoencutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/geoenc"
	"github.com/spatialmodel/geoenc/internal/hash"
	"github.com/spf13/cast"
)

// EncoderConfig creates the encoder described by the "Encoder.*"
// variables of a viper configuration.
func EncoderConfig(cfg *viper.Viper) (geoenc.Encoder, error) {
	region, err := toFloat64SliceE(cfg.Get("Encoder.Region"))
	if err != nil {
		return nil, fmt.Errorf("Encoder.Region: %v", err)
	}
	resolution := cfg.GetFloat64("Encoder.Resolution")
	maxDense := cfg.GetInt("Encoder.MaxDense")
	scale, err := optionalFloat64(cfg.Get("Encoder.Scale"))
	if err != nil {
		return nil, fmt.Errorf("Encoder.Scale: %v", err)
	}

	switch t := strings.ToLower(os.ExpandEnv(cfg.GetString("Encoder.Type"))); t {
	case "mpp":
		return geoenc.NewMPPEncoder(geoenc.MPPConfig{
			Region:     region,
			Resolution: resolution,
			Scale:      scale,
			Center:     cfg.GetBool("Encoder.Center"),
			Floor:      cfg.GetFloat64("Encoder.Floor"),
			MaxDense:   maxDense,
		})
	case "div":
		return geoenc.NewDIVEncoder(geoenc.DIVConfig{
			Region:     region,
			Resolution: resolution,
			Sparse:     cfg.GetBool("Encoder.Sparse"),
			MaxDense:   maxDense,
		})
	default:
		return nil, fmt.Errorf("the Encoder.Type configuration variable needs to be set to "+
			"either mpp or div, but is currently set to `%s`", t)
	}
}

// encoderKey returns a key that identifies the encoder configuration in
// cfg, for use in log messages.
func encoderKey(cfg *viper.Viper) string {
	keys := []string{"Encoder.Type", "Encoder.Region", "Encoder.Resolution", "Encoder.Scale",
		"Encoder.Center", "Encoder.Floor", "Encoder.Sparse", "Encoder.MaxDense"}
	vals := make([]string, len(keys))
	for i, k := range keys {
		vals[i] = fmt.Sprint(cfg.Get(k))
	}
	return hash.Hash(vals)
}

// toFloat64SliceE converts a configuration value to a slice of floats,
// accounting for the fact that it might be a json array if it was set
// from a command line argument.
func toFloat64SliceE(s interface{}) ([]float64, error) {
	switch v := s.(type) {
	case []float64:
		return v, nil
	case []interface{}:
		o := make([]float64, len(v))
		for i, val := range v {
			f, err := cast.ToFloat64E(val)
			if err != nil {
				return nil, err
			}
			o[i] = f
		}
		return o, nil
	case string:
		v = strings.TrimSpace(os.ExpandEnv(v))
		if v == "" {
			return nil, nil
		}
		if !strings.HasPrefix(v, "[") {
			v = "[" + v + "]"
		}
		var o []float64
		if err := json.Unmarshal([]byte(v), &o); err != nil {
			return nil, err
		}
		return o, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid type %T for a list of numbers", s)
	}
}

// optionalFloat64 converts a configuration value to a number, returning
// nil if the value is missing or an empty string.
func optionalFloat64(v interface{}) (*float64, error) {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(os.ExpandEnv(s))
		if v == "" {
			return nil, nil
		}
	}
	if v == nil {
		return nil, nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// checkInputFile makes sure that an input file is specified and
// expands any environment variables.
func checkInputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an input file configuration variable (for example: InputFile="shapes.geojson")`)
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(f); err != nil {
		return f, fmt.Errorf("geoenc: the InputFile doesn't exist: %v", err)
	}
	return f, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="encodings.csv")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("geoenc: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}
