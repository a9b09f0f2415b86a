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

	"github.com/ctessum/sparse"
	"github.com/spatialmodel/geoenc/internal/hash"
)

// DefaultMaxDense is the largest encoding length that Values will
// return without an override when an encoder does not set MaxDense.
const DefaultMaxDense = 2048

// Encoding is the encoding of a single shape. Depending on the floor of
// the encoder that created it, it holds either the elements above the
// floor together with their grid indices, or every element of the grid.
type Encoding struct {
	// indices is nil when the encoding is stored densely.
	indices  []int
	elements []float64
	fullSize int
	maxDense int
}

// newEncoding creates an encoding from the value of every grid element.
// If floor > 0 only values strictly greater than floor are kept.
func newEncoding(floor float64, maxDense int, values []float64) *Encoding {
	e := &Encoding{
		fullSize: len(values),
		maxDense: maxDense,
	}
	if floor > 0 {
		e.indices = make([]int, 0)
		e.elements = make([]float64, 0)
		for i, v := range values {
			if v > floor {
				e.indices = append(e.indices, i)
				e.elements = append(e.elements, v)
			}
		}
		return e
	}
	e.elements = values
	return e
}

// Len returns the number of elements in the full encoding, which is the
// number of grid elements in the encoder, regardless of how many
// elements are stored.
func (e *Encoding) Len() int { return e.fullSize }

// NNZ returns the number of stored elements.
func (e *Encoding) NNZ() int { return len(e.elements) }

// IsSparse returns whether only the elements above the encoder floor
// are stored.
func (e *Encoding) IsSparse() bool { return e.indices != nil }

// Indices returns the grid indices of the stored elements. For densely
// stored encodings it returns nil.
func (e *Encoding) Indices() []int {
	if e.indices == nil {
		return nil
	}
	return append([]int(nil), e.indices...)
}

// Elements returns the stored element values, in the same order as
// Indices.
func (e *Encoding) Elements() []float64 {
	return append([]float64(nil), e.elements...)
}

// Sparse returns the encoding as a 1×Len() sparse array. Densely stored
// encodings are represented with every element set, including zeros.
func (e *Encoding) Sparse() *sparse.SparseArray {
	s := sparse.ZerosSparse(1, e.fullSize)
	if e.indices == nil {
		for i, v := range e.elements {
			s.Elements[i] = v
		}
		return s
	}
	for i, j := range e.indices {
		s.Elements[j] = e.elements[i]
	}
	return s
}

// Values returns the encoding as a dense vector of length Len().
// If Len() is larger than the encoder's MaxDense and override is false,
// it returns ErrTooLarge instead.
func (e *Encoding) Values(override bool) ([]float64, error) {
	if e.fullSize > e.maxDense && !override {
		return nil, fmt.Errorf("geoenc: dense encoding would have %d elements, more than the limit of %d: %w",
			e.fullSize, e.maxDense, ErrTooLarge)
	}
	v := make([]float64, e.fullSize)
	if e.indices == nil {
		copy(v, e.elements)
		return v, nil
	}
	for i, j := range e.indices {
		v[j] = e.elements[i]
	}
	return v, nil
}

// Key returns a key that is identical for encodings with identical
// contents.
func (e *Encoding) Key() string {
	return hash.Hash(encodingKey{e.indices, e.elements, e.fullSize})
}

type encodingKey struct {
	Indices  []int
	Elements []float64
	FullSize int
}

// DenseFromSparse returns the dense vector represented by a 1×n sparse
// array such as the one returned by Encoding.Sparse.
func DenseFromSparse(s *sparse.SparseArray) []float64 {
	n := 0
	if len(s.Shape) > 0 {
		n = s.Shape[len(s.Shape)-1]
	}
	v := make([]float64, n)
	for i, val := range s.Elements {
		v[i] = val
	}
	return v
}
