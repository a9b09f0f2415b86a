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
	"reflect"
	"testing"

	"github.com/ctessum/geom"
	"gonum.org/v1/gonum/floats"
)

func TestNewEncoding(t *testing.T) {
	values := []float64{0.1, 0.9, 0, 0.5, 0.51}
	t.Run("dense", func(t *testing.T) {
		e := newEncoding(0, DefaultMaxDense, values)
		if e.IsSparse() || e.Indices() != nil {
			t.Error("should be dense")
		}
		if e.Len() != 5 || e.NNZ() != 5 {
			t.Errorf("len, nnz: have %d, %d; want 5, 5", e.Len(), e.NNZ())
		}
	})
	t.Run("sparse", func(t *testing.T) {
		e := newEncoding(0.5, DefaultMaxDense, values)
		if !e.IsSparse() {
			t.Error("should be sparse")
		}
		if want := []int{1, 4}; !reflect.DeepEqual(e.Indices(), want) {
			t.Errorf("indices: have %v, want %v", e.Indices(), want)
		}
		if want := []float64{0.9, 0.51}; !reflect.DeepEqual(e.Elements(), want) {
			t.Errorf("elements: have %v, want %v", e.Elements(), want)
		}
		if e.Len() != 5 || e.NNZ() != 2 {
			t.Errorf("len, nnz: have %d, %d; want 5, 2", e.Len(), e.NNZ())
		}
	})
	t.Run("sparse nothing above floor", func(t *testing.T) {
		e := newEncoding(0.95, DefaultMaxDense, values)
		if !e.IsSparse() || e.NNZ() != 0 || e.Len() != 5 {
			t.Errorf("sparse=%v nnz=%d len=%d", e.IsSparse(), e.NNZ(), e.Len())
		}
		v, err := e.Values(false)
		if err != nil {
			t.Fatal(err)
		}
		if want := make([]float64, 5); !reflect.DeepEqual(v, want) {
			t.Errorf("have %v, want %v", v, want)
		}
	})
	t.Run("empty", func(t *testing.T) {
		e := newEncoding(0.5, DefaultMaxDense, nil)
		if e.Len() != 0 {
			t.Errorf("have %d, want 0", e.Len())
		}
		if s := e.Sparse(); len(s.Elements) != 0 {
			t.Errorf("have %d sparse elements, want 0", len(s.Elements))
		}
	})
}

func TestEncodingSparse(t *testing.T) {
	values := []float64{0.1, 0.9, 0, 0.5, 0.51}
	t.Run("dense", func(t *testing.T) {
		s := newEncoding(0, DefaultMaxDense, values).Sparse()
		if want := []int{1, 5}; !reflect.DeepEqual(s.Shape, want) {
			t.Errorf("shape: have %v, want %v", s.Shape, want)
		}
		// Every position is represented, including the zero.
		if len(s.Elements) != 5 {
			t.Errorf("have %d elements, want 5", len(s.Elements))
		}
		if _, ok := s.Elements[2]; !ok {
			t.Error("zero element is missing")
		}
	})
	t.Run("sparse", func(t *testing.T) {
		s := newEncoding(0.5, DefaultMaxDense, values).Sparse()
		want := map[int]float64{1: 0.9, 4: 0.51}
		if !reflect.DeepEqual(s.Elements, want) {
			t.Errorf("have %v, want %v", s.Elements, want)
		}
		if s.Get(0, 4) != 0.51 {
			t.Errorf("have %g, want 0.51", s.Get(0, 4))
		}
	})
}

func TestEncodingValuesGuard(t *testing.T) {
	values := make([]float64, 10)
	values[3] = 1
	for _, floor := range []float64{0, 0.5} {
		e := newEncoding(floor, 8, values)
		if _, err := e.Values(false); !errors.Is(err, ErrTooLarge) {
			t.Errorf("floor %g: have error %v, want %v", floor, err, ErrTooLarge)
		}
		v, err := e.Values(true)
		if err != nil {
			t.Fatalf("floor %g: %v", floor, err)
		}
		if !reflect.DeepEqual(v, values) {
			t.Errorf("floor %g: have %v, want %v", floor, v, values)
		}
	}
	if _, err := newEncoding(0, 10, values).Values(false); err != nil {
		t.Errorf("at the limit: %v", err)
	}
}

func TestEncodingValuesCopy(t *testing.T) {
	values := []float64{0.2, 0.4}
	e := newEncoding(0, DefaultMaxDense, values)
	v, err := e.Values(false)
	if err != nil {
		t.Fatal(err)
	}
	v[0] = 100
	v2, err := e.Values(false)
	if err != nil {
		t.Fatal(err)
	}
	if v2[0] != 0.2 {
		t.Error("modifying the returned values changed the encoding")
	}
}

func TestEncodingRoundTrip(t *testing.T) {
	mpp, err := NewMPPEncoder(MPPConfig{Region: []float64{0, 0, 4, 3}, Resolution: 0.5, Center: true})
	if err != nil {
		t.Fatal(err)
	}
	mppSparse, err := NewMPPEncoder(MPPConfig{Region: []float64{0, 0, 4, 3}, Resolution: 0.5, Floor: 0.05})
	if err != nil {
		t.Fatal(err)
	}
	div, err := NewDIVEncoder(DIVConfig{Region: []float64{0, 0, 4, 3}, Resolution: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	divSparse, err := NewDIVEncoder(DIVConfig{Region: []float64{0, 0, 4, 3}, Resolution: 0.5, Sparse: true})
	if err != nil {
		t.Fatal(err)
	}
	s := mustShape(t, geom.Polygon{{{X: 1.1, Y: 0.4}, {X: 2.6, Y: 1.2}, {X: 1.7, Y: 2.2}, {X: 1.1, Y: 0.4}}})
	for name, enc := range map[string]Encoder{"mpp": mpp, "mpp sparse": mppSparse, "div": div, "div sparse": divSparse} {
		t.Run(name, func(t *testing.T) {
			e, err := enc.Encode(s)
			if err != nil {
				t.Fatal(err)
			}
			if e.Len() != enc.Len() {
				t.Errorf("length: have %d, want %d", e.Len(), enc.Len())
			}
			want, err := e.Values(false)
			if err != nil {
				t.Fatal(err)
			}
			have := DenseFromSparse(e.Sparse())
			if !floats.Equal(have, want) {
				t.Errorf("have %v, want %v", have, want)
			}
		})
	}
}
