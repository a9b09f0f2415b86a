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

// Shape is a geometry that can be measured against an encoder's grid.
// Implementations must be safe for concurrent use.
type Shape interface {
	// Distance returns the Euclidean distance from the shape to p.
	// Points inside or on the shape are at distance zero.
	Distance(p geom.Point) float64

	// Intersects returns whether the shape touches or overlaps tile.
	// Contact along the tile boundary counts as an intersection.
	Intersects(tile geom.Polygon) bool
}

// bounder is implemented by shapes that can report their extent, which
// lets DIVEncoder skip tiles that cannot intersect them.
type bounder interface {
	Bounds() *geom.Bounds
}

// NewShape wraps g so that it satisfies the Shape interface.
// Supported types are geom.Point, geom.MultiPoint, geom.LineString,
// geom.MultiLineString, geom.Polygon, geom.MultiPolygon,
// geom.GeometryCollection and *geom.Bounds, and pointers to those.
// Nil pointers are an error, except for *geom.Bounds, which gives an
// empty shape.
func NewShape(g geom.Geom) (Shape, error) {
	s, err := newShape(g)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newShape(g geom.Geom) (*geomShape, error) {
	s := &geomShape{g: g}
	switch t := g.(type) {
	case geom.Point:
		s.points = []geom.Point{t}
	case *geom.Point:
		if t == nil {
			return nil, nilGeometry(g)
		}
		s.points = []geom.Point{*t}
	case geom.MultiPoint:
		s.points = t
	case *geom.MultiPoint:
		if t == nil {
			return nil, nilGeometry(g)
		}
		s.points = *t
	case geom.LineString:
		s.lines = []geom.LineString{t}
	case *geom.LineString:
		if t == nil {
			return nil, nilGeometry(g)
		}
		s.lines = []geom.LineString{*t}
	case geom.MultiLineString:
		s.lines = t
	case *geom.MultiLineString:
		if t == nil {
			return nil, nilGeometry(g)
		}
		s.lines = *t
	case geom.Polygon:
		s.polygons = []geom.Polygon{t}
	case *geom.Polygon:
		if t == nil {
			return nil, nilGeometry(g)
		}
		s.polygons = []geom.Polygon{*t}
	case geom.MultiPolygon:
		s.polygons = t
	case *geom.MultiPolygon:
		if t == nil {
			return nil, nilGeometry(g)
		}
		s.polygons = *t
	case *geom.Bounds:
		if t == nil || t.Empty() {
			s.g = geom.MultiPoint{}
			break
		}
		s.polygons = []geom.Polygon{boundsPolygon(t)}
	case geom.GeometryCollection:
		if err := s.addCollection(t); err != nil {
			return nil, err
		}
	case *geom.GeometryCollection:
		if t == nil {
			return nil, nilGeometry(g)
		}
		if err := s.addCollection(*t); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("geoenc: geometry type %T: %w", g, ErrUnsupportedGeometry)
	}
	return s, nil
}

func nilGeometry(g geom.Geom) error {
	return fmt.Errorf("geoenc: nil %T: %w", g, ErrUnsupportedGeometry)
}

// geomShape holds the parts of a geometry, split by dimension.
type geomShape struct {
	g        geom.Geom
	points   []geom.Point
	lines    []geom.LineString
	polygons []geom.Polygon
}

func (s *geomShape) addCollection(gc geom.GeometryCollection) error {
	for _, g := range gc {
		p, err := newShape(g)
		if err != nil {
			return err
		}
		s.points = append(s.points, p.points...)
		s.lines = append(s.lines, p.lines...)
		s.polygons = append(s.polygons, p.polygons...)
	}
	return nil
}

func (s *geomShape) empty() bool {
	return len(s.points) == 0 && len(s.lines) == 0 && len(s.polygons) == 0
}

// Bounds returns the extent of the wrapped geometry.
func (s *geomShape) Bounds() *geom.Bounds {
	b := geom.NewBounds()
	for _, p := range s.points {
		b.Extend(p.Bounds())
	}
	for _, l := range s.lines {
		b.Extend(l.Bounds())
	}
	for _, p := range s.polygons {
		b.Extend(p.Bounds())
	}
	return b
}

// Distance returns NaN for geometries without any coordinates.
func (s *geomShape) Distance(p geom.Point) float64 {
	if s.empty() {
		return math.NaN()
	}
	d := math.Inf(1)
	for _, pp := range s.points {
		d = math.Min(d, pointDistance(p, pp))
	}
	for _, l := range s.lines {
		d = math.Min(d, pathDistance(p, l, false))
	}
	for _, poly := range s.polygons {
		if d == 0 {
			break
		}
		d = math.Min(d, polygonDistance(p, poly))
	}
	return d
}

func (s *geomShape) Intersects(tile geom.Polygon) bool {
	tb := tile.Bounds()
	for _, p := range s.points {
		if tb.Overlaps(p.Bounds()) && p.Within(tile) != geom.Outside {
			return true
		}
	}
	for _, l := range s.lines {
		if tb.Overlaps(l.Bounds()) && lineIntersects(l, tile) {
			return true
		}
	}
	for _, poly := range s.polygons {
		if tb.Overlaps(poly.Bounds()) && polygonIntersects(poly, tile) {
			return true
		}
	}
	return false
}

func (s *geomShape) String() string {
	return fmt.Sprintf("%T%v", s.g, s.g)
}

func pointDistance(p, q geom.Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// segmentDistance returns the distance from p to the segment a-b.
func segmentDistance(p, a, b geom.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return pointDistance(p, a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return pointDistance(p, geom.Point{X: a.X + t*dx, Y: a.Y + t*dy})
}

// pathDistance returns the distance from p to the nearest segment of
// path. If closed is true, the segment from the last point back to the
// first is included.
func pathDistance(p geom.Point, path []geom.Point, closed bool) float64 {
	switch len(path) {
	case 0:
		return math.Inf(1)
	case 1:
		return pointDistance(p, path[0])
	}
	d := math.Inf(1)
	for i := 1; i < len(path); i++ {
		d = math.Min(d, segmentDistance(p, path[i-1], path[i]))
	}
	if closed && path[len(path)-1] != path[0] {
		d = math.Min(d, segmentDistance(p, path[len(path)-1], path[0]))
	}
	return d
}

func polygonDistance(p geom.Point, poly geom.Polygon) float64 {
	if p.Within(poly) != geom.Outside {
		return 0
	}
	d := math.Inf(1)
	for _, ring := range poly {
		d = math.Min(d, pathDistance(p, ring, true))
	}
	return d
}

// orientation returns >0 if a, b, c turn counter-clockwise, <0 if they
// turn clockwise and 0 if they are collinear.
func orientation(a, b, c geom.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// onSegment returns whether c, which is collinear with a-b, lies
// between a and b.
func onSegment(a, b, c geom.Point) bool {
	return math.Min(a.X, b.X) <= c.X && c.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= c.Y && c.Y <= math.Max(a.Y, b.Y)
}

// segmentsIntersect returns whether segments p1-p2 and q1-q2 share at
// least one point.
func segmentsIntersect(p1, p2, q1, q2 geom.Point) bool {
	d1 := orientation(q1, q2, p1)
	d2 := orientation(q1, q2, p2)
	d3 := orientation(p1, p2, q1)
	d4 := orientation(p1, p2, q2)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}

// segments calls f for each segment of path, stopping when f returns
// true. If closed is true, the segment from the last point back to the
// first is included.
func segments(path []geom.Point, closed bool, f func(a, b geom.Point) bool) bool {
	for i := 1; i < len(path); i++ {
		if f(path[i-1], path[i]) {
			return true
		}
	}
	if closed && len(path) > 2 && path[len(path)-1] != path[0] {
		return f(path[len(path)-1], path[0])
	}
	return false
}

// pathCrosses returns whether any segment of path touches any edge of
// poly.
func pathCrosses(path []geom.Point, closed bool, poly geom.Polygon) bool {
	return segments(path, closed, func(a, b geom.Point) bool {
		for _, ring := range poly {
			if segments(ring, true, func(c, d geom.Point) bool {
				return segmentsIntersect(a, b, c, d)
			}) {
				return true
			}
		}
		return false
	})
}

func lineIntersects(l geom.LineString, tile geom.Polygon) bool {
	for _, p := range l {
		if p.Within(tile) != geom.Outside {
			return true
		}
	}
	return pathCrosses(l, false, tile)
}

func polygonIntersects(poly, tile geom.Polygon) bool {
	for _, ring := range poly {
		for _, p := range ring {
			if p.Within(tile) != geom.Outside {
				return true
			}
		}
	}
	for _, ring := range tile {
		for _, p := range ring {
			if p.Within(poly) != geom.Outside {
				return true
			}
		}
	}
	for _, ring := range poly {
		if pathCrosses(ring, true, tile) {
			return true
		}
	}
	return false
}

// boundsPolygon returns the rectangle b as a closed polygon with
// vertices in counter-clockwise order from the lower-left corner.
func boundsPolygon(b *geom.Bounds) geom.Polygon {
	return rectangle(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
}

func rectangle(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon([]geom.Path{{
		{X: x0, Y: y0}, {X: x1, Y: y0},
		{X: x1, Y: y1}, {X: x0, Y: y1}, {X: x0, Y: y0}}})
}
