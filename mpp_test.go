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
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

func float64Ptr(v float64) *float64 { return &v }

func TestNewMPPEncoder(t *testing.T) {
	tests := []struct {
		name   string
		c      MPPConfig
		nx, ny int
		err    error
	}{
		{name: "corner", c: MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: 1}, nx: 3, ny: 3},
		{name: "center", c: MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: 1, Center: true}, nx: 2, ny: 2},
		{name: "rectangular", c: MPPConfig{Region: []float64{0, 0, 4, 1}, Resolution: 0.5}, nx: 9, ny: 3},
		{name: "fine", c: MPPConfig{Region: []float64{0, 0, 1, 1}, Resolution: 0.1}, nx: 11, ny: 11},
		{name: "partial", c: MPPConfig{Region: []float64{0, 0, 2.5, 2.5}, Resolution: 1}, nx: 3, ny: 3},
		{name: "bad region", c: MPPConfig{Region: []float64{0, 0, 0, 2}, Resolution: 1}, err: ErrInvalidRegion},
		{name: "zero resolution", c: MPPConfig{Region: []float64{0, 0, 2, 2}}, err: ErrInvalidResolution},
		{name: "negative resolution", c: MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: -1}, err: ErrInvalidResolution},
		{name: "negative scale", c: MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: 1, Scale: float64Ptr(-1)}, err: ErrInvalidScale},
		{name: "zero scale", c: MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: 1, Scale: float64Ptr(0)}, err: ErrInvalidScale},
		{name: "infinite scale", c: MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: 1, Scale: float64Ptr(math.Inf(1))}, err: ErrInvalidScale},
		{name: "NaN scale", c: MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: 1, Scale: float64Ptr(math.NaN())}, err: ErrInvalidScale},
		{name: "negative floor", c: MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: 1, Floor: -0.1}, err: ErrInvalidFloor},
		{name: "negative max dense", c: MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: 1, MaxDense: -1}, err: ErrInvalidFloor},
		{name: "tiny resolution", c: MPPConfig{Region: []float64{0, 0, 1, 1}, Resolution: 1e-20}, err: ErrInvalidResolution},
		{name: "too many points", c: MPPConfig{Region: []float64{0, 0, 1, 1}, Resolution: 1e-4}, err: ErrInvalidResolution},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			e, err := NewMPPEncoder(test.c)
			if !errors.Is(err, test.err) {
				t.Fatalf("error: have %v, want %v", err, test.err)
			}
			if err != nil {
				return
			}
			if e.Nx() != test.nx || e.Ny() != test.ny {
				t.Errorf("nx, ny: have %d, %d; want %d, %d", e.Nx(), e.Ny(), test.nx, test.ny)
			}
			if e.Len() != e.Nx()*e.Ny() || len(e.Points()) != e.Len() {
				t.Errorf("len: have %d (%d points), want %d", e.Len(), len(e.Points()), e.Nx()*e.Ny())
			}
		})
	}
}

func TestMPPEncoderPoints(t *testing.T) {
	e, err := NewMPPEncoder(MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: 1})
	if err != nil {
		t.Fatal(err)
	}
	want := []geom.Point{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0},
		{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1},
		{X: 0, Y: 2}, {X: 1, Y: 2}, {X: 2, Y: 2},
	}
	if have := e.Points(); !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
	if e.Scale() != 1 {
		t.Errorf("default scale: have %g, want 1", e.Scale())
	}

	c, err := NewMPPEncoder(MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: 1, Center: true})
	if err != nil {
		t.Fatal(err)
	}
	wantC := []geom.Point{{X: 0.5, Y: 0.5}, {X: 1.5, Y: 0.5}, {X: 0.5, Y: 1.5}, {X: 1.5, Y: 1.5}}
	if have := c.Points(); !reflect.DeepEqual(have, wantC) {
		t.Errorf("center: have %v, want %v", have, wantC)
	}
}

func TestMPPEncode(t *testing.T) {
	e, err := NewMPPEncoder(MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: 1, Scale: float64Ptr(1)})
	if err != nil {
		t.Fatal(err)
	}
	enc, err := e.Encode(mustShape(t, geom.Point{X: 0, Y: 0}))
	if err != nil {
		t.Fatal(err)
	}
	if enc.Len() != 9 {
		t.Fatalf("length: have %d, want 9", enc.Len())
	}
	if enc.IsSparse() {
		t.Error("encoding with zero floor should be dense")
	}
	have, err := enc.Values(false)
	if err != nil {
		t.Fatal(err)
	}
	r2 := math.Sqrt2
	want := []float64{
		1, math.Exp(-1), math.Exp(-2),
		math.Exp(-1), math.Exp(-r2), math.Exp(-math.Sqrt(5)),
		math.Exp(-2), math.Exp(-math.Sqrt(5)), math.Exp(-2 * r2),
	}
	if !floats.EqualApprox(have, want, 1e-12) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestMPPEncodeScale(t *testing.T) {
	e, err := NewMPPEncoder(MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: 1, Scale: float64Ptr(2)})
	if err != nil {
		t.Fatal(err)
	}
	enc, err := e.Encode(mustShape(t, geom.Point{X: 0, Y: 0}))
	if err != nil {
		t.Fatal(err)
	}
	v, err := enc.Values(false)
	if err != nil {
		t.Fatal(err)
	}
	if want := math.Exp(-0.5); math.Abs(v[1]-want) > 1e-12 {
		t.Errorf("have %g, want %g", v[1], want)
	}
}

func TestMPPEncodeFloor(t *testing.T) {
	e, err := NewMPPEncoder(MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: 1, Floor: 0.3})
	if err != nil {
		t.Fatal(err)
	}
	enc, err := e.Encode(mustShape(t, geom.Point{X: 0, Y: 0}))
	if err != nil {
		t.Fatal(err)
	}
	if !enc.IsSparse() {
		t.Fatal("encoding with positive floor should be sparse")
	}
	// exp(-1) ≈ 0.37 is kept, exp(-√2) ≈ 0.24 is not.
	if want := []int{0, 1, 3}; !reflect.DeepEqual(enc.Indices(), want) {
		t.Errorf("indices: have %v, want %v", enc.Indices(), want)
	}
	if enc.Len() != 9 || enc.NNZ() != 3 {
		t.Errorf("len, nnz: have %d, %d; want 9, 3", enc.Len(), enc.NNZ())
	}
	v, err := enc.Values(false)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{1, math.Exp(-1), 0, math.Exp(-1), 0, 0, 0, 0, 0}
	if !floats.EqualApprox(v, want, 1e-12) {
		t.Errorf("have %v, want %v", v, want)
	}
}

func TestMPPEncodeRange(t *testing.T) {
	e, err := NewMPPEncoder(MPPConfig{Region: []float64{0, 0, 10, 10}, Resolution: 1})
	if err != nil {
		t.Fatal(err)
	}
	shapes := []geom.Geom{
		geom.Point{X: 3.3, Y: 7.1},
		geom.Point{X: 1e6, Y: -1e6},
		geom.LineString{{X: -5, Y: -5}, {X: 20, Y: 3}},
		square(2, 2, 4, 8),
	}
	for _, g := range shapes {
		enc, err := e.Encode(mustShape(t, g))
		if err != nil {
			t.Fatal(err)
		}
		v, err := enc.Values(false)
		if err != nil {
			t.Fatal(err)
		}
		for i, vv := range v {
			if vv < 0 || vv > 1 {
				t.Errorf("%v: element %d = %g is outside of [0, 1]", g, i, vv)
			}
		}
	}
}

func TestMPPEncodeReferencePoint(t *testing.T) {
	e, err := NewMPPEncoder(MPPConfig{Region: []float64{-3, -2, 3, 2}, Resolution: 0.5, Center: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, i := range []int{0, 7, e.Len() - 1} {
		enc, err := e.Encode(mustShape(t, e.Point(i)))
		if err != nil {
			t.Fatal(err)
		}
		v, err := enc.Values(false)
		if err != nil {
			t.Fatal(err)
		}
		if v[i] != 1 {
			t.Errorf("point %d: have %g, want 1", i, v[i])
		}
	}
}

func TestMPPEncodeNil(t *testing.T) {
	e, err := NewMPPEncoder(MPPConfig{Region: []float64{0, 0, 2, 2}, Resolution: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Encode(nil); !errors.Is(err, ErrUnsupportedGeometry) {
		t.Errorf("have %v, want %v", err, ErrUnsupportedGeometry)
	}
}

func TestMPPEncodeIdempotent(t *testing.T) {
	e, err := NewMPPEncoder(MPPConfig{Region: []float64{0, 0, 5, 5}, Resolution: 0.5, Floor: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	s := mustShape(t, geom.LineString{{X: 0.3, Y: 0.2}, {X: 4.1, Y: 3.7}})
	a, err := e.Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Encode(s)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("encodings are not identical")
	}
	if a.Key() != b.Key() {
		t.Errorf("keys differ: %s != %s", a.Key(), b.Key())
	}
}
