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
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Encoder is implemented by MPPEncoder and DIVEncoder.
type Encoder interface {
	// Encode returns the encoding of shape.
	Encode(shape Shape) (*Encoding, error)

	// Len returns the length of the encodings.
	Len() int
}

// EncodeAll encodes every shape with enc, using up to GOMAXPROCS
// goroutines. The encodings are returned in the same order as shapes.
// It stops at the first error or when ctx is cancelled.
func EncodeAll(ctx context.Context, enc Encoder, shapes []Shape) ([]*Encoding, error) {
	o := make([]*Encoding, len(shapes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, s := range shapes {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, err := enc.Encode(s)
			if err != nil {
				return fmt.Errorf("shape %d: %w", i, err)
			}
			o[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return o, nil
}

var (
	_ Encoder = (*MPPEncoder)(nil)
	_ Encoder = (*DIVEncoder)(nil)
)
