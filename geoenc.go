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

// Package geoenc calculates positional encodings of geometric shapes
// over a rectangular region. An encoding is a fixed-length vector with
// one element per reference point (multi-point proximity, MPP) or per
// tile (discrete indicator vector, DIV) of a regular grid, suitable for
// use as a feature vector in spatial statistics and machine learning.
package geoenc

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// Version gives the version number.
const Version = "1.0.0"

var (
	// ErrInvalidRegion is returned when a region is not a well-formed
	// rectangle.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrInvalidResolution is returned when the grid resolution is not
	// a positive number.
	ErrInvalidResolution = errors.New("invalid resolution")

	// ErrInvalidScale is returned when the MPP decay scale is not positive.
	ErrInvalidScale = errors.New("invalid scale")

	// ErrInvalidFloor is returned for negative floors or dense-size limits.
	ErrInvalidFloor = errors.New("invalid floor")

	// ErrUnsupportedGeometry is returned when a shape cannot be
	// measured against the grid.
	ErrUnsupportedGeometry = errors.New("unsupported geometry")

	// ErrTooLarge is returned when a dense vector would exceed the
	// encoder's MaxDense limit and the caller did not override the limit.
	ErrTooLarge = errors.New("result too large")
)

// Region is a rectangle with lower-left corner (X0, Y0) and upper-right
// corner (X1, Y1).
type Region struct {
	X0, Y0, X1, Y1 float64
}

// NewRegion creates a region from a slice of four coordinates in the
// order x0, y0, x1, y1.
func NewRegion(c []float64) (Region, error) {
	if len(c) != 4 {
		return Region{}, fmt.Errorf("geoenc: region must have 4 coordinates but has %d: %w", len(c), ErrInvalidRegion)
	}
	r := Region{X0: c[0], Y0: c[1], X1: c[2], Y1: c[3]}
	return r, r.check()
}

func (r Region) check() error {
	for _, v := range []float64{r.X0, r.Y0, r.X1, r.Y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("geoenc: region %v has a non-finite coordinate: %w", r, ErrInvalidRegion)
		}
	}
	if !(r.X0 < r.X1) {
		return fmt.Errorf("geoenc: region x0=%g must be less than x1=%g: %w", r.X0, r.X1, ErrInvalidRegion)
	}
	if !(r.Y0 < r.Y1) {
		return fmt.Errorf("geoenc: region y0=%g must be less than y1=%g: %w", r.Y0, r.Y1, ErrInvalidRegion)
	}
	return nil
}

// Bounds returns the extent of r.
func (r Region) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: r.X0, Y: r.Y0},
		Max: geom.Point{X: r.X1, Y: r.Y1},
	}
}

// Slice returns the coordinates of r in the order x0, y0, x1, y1.
func (r Region) Slice() []float64 {
	return []float64{r.X0, r.Y0, r.X1, r.Y1}
}

func (r Region) String() string {
	return fmt.Sprintf("[%g, %g, %g, %g]", r.X0, r.Y0, r.X1, r.Y1)
}

// maxGridSize is the largest number of reference points or tiles an
// encoder may have.
const maxGridSize = 1 << 26

// steps returns start, start+step, start+2*step, ... for every value
// less than stop. Values are calculated from their position, not
// accumulated.
func steps(start, stop, step float64) ([]float64, error) {
	if !(stop > start) {
		return nil, nil
	}
	nf := math.Ceil((stop - start) / step)
	if !(nf <= maxGridSize) {
		return nil, fmt.Errorf("geoenc: resolution=%g gives %g steps from %g to %g, more than the limit of %d: %w",
			step, nf, start, stop, maxGridSize, ErrInvalidResolution)
	}
	n := int(nf)
	o := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := start + float64(i)*step
		if v >= stop {
			break
		}
		o = append(o, v)
	}
	return o, nil
}

// gridSteps returns the x and y steps of a grid over r, failing if the
// grid would have more than maxGridSize elements.
func gridSteps(r Region, offset, pad, resolution float64) (xx, yy []float64, err error) {
	if xx, err = steps(r.X0+offset, r.X1+pad, resolution); err != nil {
		return nil, nil, err
	}
	if yy, err = steps(r.Y0+offset, r.Y1+pad, resolution); err != nil {
		return nil, nil, err
	}
	if n := float64(len(xx)) * float64(len(yy)); n > maxGridSize {
		return nil, nil, fmt.Errorf("geoenc: resolution=%g gives a %dx%d grid, more than the limit of %d elements: %w",
			resolution, len(xx), len(yy), maxGridSize, ErrInvalidResolution)
	}
	return xx, yy, nil
}

func checkResolution(resolution float64) error {
	if !(resolution > 0) || math.IsInf(resolution, 1) {
		return fmt.Errorf("geoenc: resolution=%g but should be >0: %w", resolution, ErrInvalidResolution)
	}
	return nil
}

func checkMaxDense(maxDense int) (int, error) {
	switch {
	case maxDense < 0:
		return 0, fmt.Errorf("geoenc: MaxDense=%d but should be >=0: %w", maxDense, ErrInvalidFloor)
	case maxDense == 0:
		return DefaultMaxDense, nil
	}
	return maxDense, nil
}
