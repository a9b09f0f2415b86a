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
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
)

// DIVConfig holds the parameters of a discrete indicator vector encoder.
type DIVConfig struct {
	// Region is the rectangle [x0, y0, x1, y1] covered by the tiles.
	Region []float64

	// Resolution is the edge length of the square tiles.
	Resolution float64

	// If Sparse is true, encodings only store the indices of the tiles
	// that a shape intersects.
	Sparse bool

	// MaxDense is the largest encoding that Encoding.Values will
	// return without an override. Zero means DefaultMaxDense.
	MaxDense int
}

// sparseFloor is the floor used for sparse DIV encodings. Any value
// strictly between 0 and 1 keeps exactly the tiles that are hit.
const sparseFloor = 0.5

// Tile is a square cell of a DIVEncoder grid.
type Tile struct {
	geom.Polygon

	// Index is the position of the tile in an encoding.
	Index int

	// Row and Col are the y and x positions of the tile in the grid.
	Row, Col int
}

// DIVEncoder calculates discrete indicator vector encodings. Each
// element of an encoding is 1 if the shape intersects the corresponding
// tile of a regular grid and 0 otherwise.
type DIVEncoder struct {
	region     Region
	resolution float64
	floor      float64
	maxDense   int
	nx, ny     int
	tiles      []*Tile
	index      *rtree.Rtree
}

// NewDIVEncoder creates a new DIV encoder, laying out the tiles as
// specified by c.
func NewDIVEncoder(c DIVConfig) (*DIVEncoder, error) {
	region, err := NewRegion(c.Region)
	if err != nil {
		return nil, err
	}
	if err := checkResolution(c.Resolution); err != nil {
		return nil, err
	}
	maxDense, err := checkMaxDense(c.MaxDense)
	if err != nil {
		return nil, err
	}
	e := &DIVEncoder{
		region:     region,
		resolution: c.Resolution,
		maxDense:   maxDense,
		index:      rtree.NewTree(25, 50),
	}
	if c.Sparse {
		e.floor = sparseFloor
	}

	eps := c.Resolution * 0.1
	xx, yy, err := gridSteps(region, 0, -eps, c.Resolution)
	if err != nil {
		return nil, err
	}
	e.nx, e.ny = len(xx), len(yy)
	e.tiles = make([]*Tile, 0, e.nx*e.ny)
	for iy, y := range yy {
		for ix, x := range xx {
			t := &Tile{
				Polygon: rectangle(x, y, x+c.Resolution, y+c.Resolution),
				Index:   len(e.tiles),
				Row:     iy,
				Col:     ix,
			}
			e.index.Insert(t)
			e.tiles = append(e.tiles, t)
		}
	}
	return e, nil
}

// Len returns the number of tiles, which is the length of every
// encoding e creates.
func (e *DIVEncoder) Len() int { return len(e.tiles) }

// Nx returns the number of tiles in the x direction.
func (e *DIVEncoder) Nx() int { return e.nx }

// Ny returns the number of tiles in the y direction.
func (e *DIVEncoder) Ny() int { return e.ny }

// Region returns the region covered by e.
func (e *DIVEncoder) Region() Region { return e.region }

// Resolution returns the tile edge length.
func (e *DIVEncoder) Resolution() float64 { return e.resolution }

// Floor returns 0.5 for sparse encoders and 0 otherwise.
func (e *DIVEncoder) Floor() float64 { return e.floor }

// Tile returns tile i.
func (e *DIVEncoder) Tile(i int) *Tile { return e.tiles[i] }

// Tiles returns the tiles in encoding order. The returned tiles must
// not be modified.
func (e *DIVEncoder) Tiles() []*Tile {
	return append([]*Tile(nil), e.tiles...)
}

// Cell returns the indices of the tiles that contain point (x, y), in
// ascending order. Usually there is only one, but a point on a shared
// edge belongs to every tile that shares it. The result is empty if the
// point is outside of the grid.
func (e *DIVEncoder) Cell(x, y float64) []int {
	p := geom.Point{X: x, Y: y}
	var o []int
	for _, tI := range e.index.SearchIntersect(p.Bounds()) {
		t := tI.(*Tile)
		if p.Within(t.Polygon) == geom.Outside {
			continue
		}
		o = append(o, t.Index)
	}
	sort.Ints(o)
	return o
}

// Encode returns the DIV encoding of shape.
func (e *DIVEncoder) Encode(shape Shape) (*Encoding, error) {
	if shape == nil {
		return nil, fmt.Errorf("geoenc: nil shape: %w", ErrUnsupportedGeometry)
	}
	values := make([]float64, len(e.tiles))
	if b, ok := shape.(bounder); ok {
		bounds := b.Bounds()
		if bounds == nil || bounds.Empty() {
			return newEncoding(e.floor, e.maxDense, values), nil
		}
		for _, tI := range e.index.SearchIntersect(bounds) {
			t := tI.(*Tile)
			if shape.Intersects(t.Polygon) {
				values[t.Index] = 1
			}
		}
	} else {
		for _, t := range e.tiles {
			if shape.Intersects(t.Polygon) {
				values[t.Index] = 1
			}
		}
	}
	return newEncoding(e.floor, e.maxDense, values), nil
}
