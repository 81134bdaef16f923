// Package tensor provides the shaped float64 values that flow through a model
// graph. Only the operations the evaluator, the distributions and the model
// helpers need are implemented; elementwise binary operations broadcast a
// single-element operand against any other shape.
package tensor

import (
	"fmt"
	"math"
	"slices"

	"github.com/specialistvlad/mapvar/internal/mapvarerr"
)

// Tensor is a dense row-major array. An empty Shape denotes a scalar.
type Tensor struct {
	Shape []int
	Data  []float64
}

// New builds a tensor and checks that the data fills the shape exactly.
func New(shape []int, data []float64) (Tensor, error) {
	if SizeOf(shape) != len(data) {
		return Tensor{}, mapvarerr.New(mapvarerr.ErrShapeMismatch, "shape %v holds %d elements, got %d", shape, SizeOf(shape), len(data))
	}
	return Tensor{Shape: slices.Clone(shape), Data: slices.Clone(data)}, nil
}

// Scalar returns a rank-0 tensor.
func Scalar(v float64) Tensor {
	return Tensor{Shape: []int{}, Data: []float64{v}}
}

// Vector returns a rank-1 tensor holding a copy of values.
func Vector(values ...float64) Tensor {
	return Tensor{Shape: []int{len(values)}, Data: slices.Clone(values)}
}

// Zeros returns a zero-filled tensor of the given shape.
func Zeros(shape []int) Tensor {
	return Tensor{Shape: slices.Clone(shape), Data: make([]float64, SizeOf(shape))}
}

// Full returns a tensor of the given shape filled with v.
func Full(shape []int, v float64) Tensor {
	t := Zeros(shape)
	for i := range t.Data {
		t.Data[i] = v
	}
	return t
}

// SizeOf returns the number of elements a shape holds.
func SizeOf(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Size returns the number of elements.
func (t Tensor) Size() int { return len(t.Data) }

// Clone returns a deep copy.
func (t Tensor) Clone() Tensor {
	return Tensor{Shape: slices.Clone(t.Shape), Data: slices.Clone(t.Data)}
}

// Reshape returns a copy of t with a new shape of the same size.
func (t Tensor) Reshape(shape []int) (Tensor, error) {
	return New(shape, t.Data)
}

// At returns element i of the flattened data, broadcasting single-element tensors.
func (t Tensor) At(i int) float64 {
	if len(t.Data) == 1 {
		return t.Data[0]
	}
	return t.Data[i]
}

// Sum returns the sum of all elements.
func (t Tensor) Sum() float64 {
	var s float64
	for _, v := range t.Data {
		s += v
	}
	return s
}

// Equal reports whether both tensors have the same shape and elements.
func (t Tensor) Equal(o Tensor) bool {
	return slices.Equal(t.Shape, o.Shape) && slices.Equal(t.Data, o.Data)
}

func (t Tensor) String() string {
	return fmt.Sprintf("tensor%v%v", t.Shape, t.Data)
}

// BroadcastShape returns the shape obtained by broadcasting the given shapes.
// Shapes are compatible when every shape holding more than one element is
// identical; single-element shapes stretch to fit.
func BroadcastShape(shapes ...[]int) ([]int, error) {
	var out []int
	for i, s := range shapes {
		switch {
		case i == 0:
			out = s
		case SizeOf(s) == 1:
			if SizeOf(out) == 1 && len(s) > len(out) {
				out = s
			}
		case SizeOf(out) == 1:
			out = s
		case !slices.Equal(out, s):
			return nil, mapvarerr.New(mapvarerr.ErrShapeMismatch, "cannot broadcast %v with %v", out, s)
		}
	}
	return slices.Clone(out), nil
}

// Map applies f to every element.
func Map(t Tensor, f func(float64) float64) Tensor {
	out := t.Clone()
	for i, v := range out.Data {
		out.Data[i] = f(v)
	}
	return out
}

// Zip combines two tensors elementwise after broadcasting.
func Zip(a, b Tensor, f func(x, y float64) float64) (Tensor, error) {
	shape, err := BroadcastShape(a.Shape, b.Shape)
	if err != nil {
		return Tensor{}, err
	}
	out := Zeros(shape)
	for i := range out.Data {
		out.Data[i] = f(a.At(i), b.At(i))
	}
	return out, nil
}

func Add(a, b Tensor) (Tensor, error) { return Zip(a, b, func(x, y float64) float64 { return x + y }) }
func Sub(a, b Tensor) (Tensor, error) { return Zip(a, b, func(x, y float64) float64 { return x - y }) }
func Mul(a, b Tensor) (Tensor, error) { return Zip(a, b, func(x, y float64) float64 { return x * y }) }
func Div(a, b Tensor) (Tensor, error) { return Zip(a, b, func(x, y float64) float64 { return x / y }) }

func Exp(t Tensor) Tensor { return Map(t, math.Exp) }
func Log(t Tensor) Tensor { return Map(t, math.Log) }

// Mean returns the elementwise mean of equally shaped samples.
func Mean(samples []Tensor) (Tensor, error) {
	if len(samples) == 0 {
		return Tensor{}, mapvarerr.New(mapvarerr.ErrShapeMismatch, "mean of zero samples")
	}
	out := Zeros(samples[0].Shape)
	for _, s := range samples {
		if !slices.Equal(s.Shape, out.Shape) {
			return Tensor{}, mapvarerr.New(mapvarerr.ErrShapeMismatch, "sample shape %v differs from %v", s.Shape, out.Shape)
		}
		for i, v := range s.Data {
			out.Data[i] += v
		}
	}
	n := float64(len(samples))
	for i := range out.Data {
		out.Data[i] /= n
	}
	return out, nil
}
