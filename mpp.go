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

package geoenc

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// MPPConfig holds the parameters of a multi-point proximity encoder.
type MPPConfig struct {
	// Region is the rectangle [x0, y0, x1, y1] covered by the reference
	// points.
	Region []float64

	// Resolution is the spacing between reference points.
	Resolution float64

	// Scale is the distance decay constant. It must be greater than
	// zero. If it is nil, Resolution is used.
	Scale *float64

	// If Center is true, the first reference point is at
	// (x0 + Resolution/2, y0 + Resolution/2), the center of the first
	// tile, instead of at (x0, y0).
	Center bool

	// Elements less than or equal to Floor are dropped from encodings.
	// If Floor is zero, encodings are stored densely.
	Floor float64

	// MaxDense is the largest encoding that Encoding.Values will
	// return without an override. Zero means DefaultMaxDense.
	MaxDense int
}

// MPPEncoder calculates multi-point proximity encodings. Each element of
// an encoding is exp(-d/scale), where d is the distance from the shape
// to one of a regular grid of reference points.
type MPPEncoder struct {
	region     Region
	resolution float64
	scale      float64
	floor      float64
	maxDense   int
	nx, ny     int
	points     []geom.Point
}

// NewMPPEncoder creates a new MPP encoder, laying out the reference
// points as specified by c.
func NewMPPEncoder(c MPPConfig) (*MPPEncoder, error) {
	region, err := NewRegion(c.Region)
	if err != nil {
		return nil, err
	}
	if err := checkResolution(c.Resolution); err != nil {
		return nil, err
	}
	scale := c.Resolution
	if c.Scale != nil {
		scale = *c.Scale
	}
	if !(scale > 0) || math.IsInf(scale, 1) {
		return nil, fmt.Errorf("geoenc: scale=%g but should be >0: %w", scale, ErrInvalidScale)
	}
	if !(c.Floor >= 0) {
		return nil, fmt.Errorf("geoenc: floor=%g but should be >=0: %w", c.Floor, ErrInvalidFloor)
	}
	maxDense, err := checkMaxDense(c.MaxDense)
	if err != nil {
		return nil, err
	}

	e := &MPPEncoder{
		region:     region,
		resolution: c.Resolution,
		scale:      scale,
		floor:      c.Floor,
		maxDense:   maxDense,
	}

	var offset float64
	if c.Center {
		offset = c.Resolution / 2
	}
	eps := c.Resolution * 0.1
	xx, yy, err := gridSteps(region, offset, eps, c.Resolution)
	if err != nil {
		return nil, err
	}
	e.nx, e.ny = len(xx), len(yy)
	e.points = make([]geom.Point, 0, e.nx*e.ny)
	for _, y := range yy {
		for _, x := range xx {
			e.points = append(e.points, geom.Point{X: x, Y: y})
		}
	}
	return e, nil
}

// Len returns the number of reference points, which is the length of
// every encoding e creates.
func (e *MPPEncoder) Len() int { return len(e.points) }

// Nx returns the number of reference points in the x direction.
func (e *MPPEncoder) Nx() int { return e.nx }

// Ny returns the number of reference points in the y direction.
func (e *MPPEncoder) Ny() int { return e.ny }

// Region returns the region covered by e.
func (e *MPPEncoder) Region() Region { return e.region }

// Resolution returns the reference point spacing.
func (e *MPPEncoder) Resolution() float64 { return e.resolution }

// Scale returns the distance decay constant.
func (e *MPPEncoder) Scale() float64 { return e.scale }

// Floor returns the threshold at or below which elements are dropped.
func (e *MPPEncoder) Floor() float64 { return e.floor }

// Point returns reference point i.
func (e *MPPEncoder) Point(i int) geom.Point { return e.points[i] }

// Points returns a copy of the reference points in encoding order.
func (e *MPPEncoder) Points() []geom.Point {
	return append([]geom.Point(nil), e.points...)
}

// Encode returns the MPP encoding of shape.
func (e *MPPEncoder) Encode(shape Shape) (*Encoding, error) {
	if shape == nil {
		return nil, fmt.Errorf("geoenc: nil shape: %w", ErrUnsupportedGeometry)
	}
	values := make([]float64, len(e.points))
	for i, p := range e.points {
		values[i] = math.Exp(-shape.Distance(p) / e.scale)
	}
	return newEncoding(e.floor, e.maxDense, values), nil
}
