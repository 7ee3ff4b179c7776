// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense tensors expression graphs compute on.
//
// # Overview
//
// A tensor holds float64 values laid out as rows × columns × depth. This
// package provides:
//   - Scalar tensors that broadcast over the other operand of elementwise
//     arithmetic
//   - Matrix products per depth slice and reductions along an axis
//   - Masks that exclude fixed positions from products and pooling windows
//
// # Basic Usage
//
//	import "github.com/born-ml/chain/tensor"
//
//	func main() {
//	    x := tensor.FromRows([][]float64{{1, 5}, {3, 2}})
//	    y, _ := x.Add(tensor.Scalar(1)) // [[2 6] [4 3]]
//	    z, _ := x.Dot(y.Transpose())
//	    fmt.Println(z, x.SumAxis(tensor.AxisRows))
//	}
//
// # Layout
//
// Each depth slice is a contiguous row-major matrix: the element at
// (row, column, depth) lives at offset (depth*rows + row)*columns + column of
// Data(). Products and same-shape arithmetic run on gonum.
package tensor
