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
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
	goshp "github.com/jonas-p/go-shp"
	"github.com/spatialmodel/geoenc"
)

// ReadShapes reads the geometries in a shapefile (if the file name
// ends in ".shp") or a GeoJSON file (otherwise). GeoJSON files may hold a
// single geometry, a Feature or a FeatureCollection.
func ReadShapes(fname string) ([]geom.Geom, error) {
	if strings.ToLower(filepath.Ext(fname)) == ".shp" {
		return readShp(fname)
	}
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	defer f.Close()
	b, err := ioutil.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading input file: %w", err)
	}
	return decodeGeoJSON(b)
}

func readShp(fname string) ([]geom.Geom, error) {
	d, err := shp.NewDecoder(fname)
	if err != nil {
		return nil, fmt.Errorf("opening input shapefile: %w", err)
	}
	defer d.Close()
	var o []geom.Geom
	for {
		g, _, more := d.DecodeRowFields()
		if !more || d.Error() != nil {
			break
		}
		o = append(o, g)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("decoding input shapefile: %w", err)
	}
	return o, nil
}

// geoJSONObject holds the parts of a GeoJSON object that determine
// where its geometries are.
type geoJSONObject struct {
	Type        string            `json:"type"`
	Geometry    json.RawMessage   `json:"geometry"`
	Coordinates []json.RawMessage `json:"coordinates"`
	Geometries  []json.RawMessage `json:"geometries"`
	Features    []struct {
		Geometry json.RawMessage `json:"geometry"`
	} `json:"features"`
}

func decodeGeoJSON(b []byte) ([]geom.Geom, error) {
	var obj geoJSONObject
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("decoding GeoJSON: %w", err)
	}
	var raw []json.RawMessage
	switch obj.Type {
	case "FeatureCollection":
		for _, f := range obj.Features {
			raw = append(raw, f.Geometry)
		}
	case "Feature":
		raw = append(raw, obj.Geometry)
	default:
		raw = append(raw, json.RawMessage(b))
	}
	o := make([]geom.Geom, len(raw))
	for i, r := range raw {
		g, err := decodeGeometry(r)
		if err != nil {
			return nil, fmt.Errorf("decoding GeoJSON geometry %d: %w", i, err)
		}
		o[i] = g
	}
	return o, nil
}

// decodeGeometry decodes a GeoJSON geometry. The single-part types are
// handled by the geojson package; multi-part types and collections are
// split into their parts first.
func decodeGeometry(b []byte) (geom.Geom, error) {
	var obj geoJSONObject
	if err := json.Unmarshal(b, &obj); err != nil {
		return nil, err
	}
	switch obj.Type {
	case "MultiPoint":
		var o geom.MultiPoint
		err := decodeParts("Point", obj.Coordinates, func(g geom.Geom) {
			o = append(o, g.(geom.Point))
		})
		return o, err
	case "MultiLineString":
		var o geom.MultiLineString
		err := decodeParts("LineString", obj.Coordinates, func(g geom.Geom) {
			o = append(o, g.(geom.LineString))
		})
		return o, err
	case "MultiPolygon":
		var o geom.MultiPolygon
		err := decodeParts("Polygon", obj.Coordinates, func(g geom.Geom) {
			o = append(o, g.(geom.Polygon))
		})
		return o, err
	case "GeometryCollection":
		var o geom.GeometryCollection
		for _, r := range obj.Geometries {
			g, err := decodeGeometry(r)
			if err != nil {
				return nil, err
			}
			o = append(o, g)
		}
		return o, nil
	default:
		return geojson.Decode(b)
	}
}

func decodeParts(typ string, coords []json.RawMessage, add func(geom.Geom)) error {
	for _, c := range coords {
		part, err := json.Marshal(struct {
			Type        string          `json:"type"`
			Coordinates json.RawMessage `json:"coordinates"`
		}{Type: typ, Coordinates: c})
		if err != nil {
			return err
		}
		g, err := geojson.Decode(part)
		if err != nil {
			return err
		}
		add(g)
	}
	return nil
}

// WriteCSV writes one row for each stored element of each encoding,
// in the form shape,index,value. If dense is true, every element is
// written, including zeros.
func WriteCSV(w io.Writer, encodings []*geoenc.Encoding, dense bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"shape", "index", "value"}); err != nil {
		return err
	}
	for i, e := range encodings {
		var indices []int
		var values []float64
		if dense {
			v, err := e.Values(true)
			if err != nil {
				return err
			}
			values = v
		} else {
			indices, values = e.Indices(), e.Elements()
		}
		for j, v := range values {
			index := j
			if indices != nil {
				index = indices[j]
			}
			if err := cw.Write([]string{strconv.Itoa(i), strconv.Itoa(index),
				strconv.FormatFloat(v, 'g', -1, 64)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteGrid writes the reference points or tiles of enc to the
// shapefile fname.
func WriteGrid(enc geoenc.Encoder, fname string) error {
	for _, ext := range []string{".shp", ".prj", ".dbf", ".shx"} {
		os.Remove(strings.TrimSuffix(fname, filepath.Ext(fname)) + ext)
	}
	switch e := enc.(type) {
	case *geoenc.MPPEncoder:
		return writePoints(e, fname)
	case *geoenc.DIVEncoder:
		return writeTiles(e, fname)
	default:
		return fmt.Errorf("geoenc: can't write grid for encoder type %T", enc)
	}
}

func writePoints(e *geoenc.MPPEncoder, fname string) error {
	type rec struct {
		geom.Point
		Index int
	}
	o, err := shp.NewEncoder(fname, rec{})
	if err != nil {
		return err
	}
	defer o.Close()
	for i, p := range e.Points() {
		if err := o.Encode(rec{Point: p, Index: i}); err != nil {
			return err
		}
	}
	return nil
}

func writeTiles(e *geoenc.DIVEncoder, fname string) error {
	fields := []goshp.Field{
		goshp.NumberField("index", 10),
		goshp.NumberField("row", 10),
		goshp.NumberField("col", 10),
	}
	o, err := shp.NewEncoderFromFields(fname, goshp.POLYGON, fields...)
	if err != nil {
		return err
	}
	defer o.Close()
	for _, t := range e.Tiles() {
		if err := o.EncodeFields(t.Polygon, t.Index, t.Row, t.Col); err != nil {
			return err
		}
	}
	return nil
}
