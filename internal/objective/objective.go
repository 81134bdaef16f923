// Package objective turns a model evaluator into functions of a flat
// unconstrained parameter vector: the negative log posterior minimized by
// the optimizer and the constraint map differentiated by the variance step.
package objective

import (
	"context"
	"math"

	"github.com/specialistvlad/mapvar/internal/evaluator"
	"github.com/specialistvlad/mapvar/internal/mapvarerr"
	"github.com/specialistvlad/mapvar/internal/params"
	"gonum.org/v1/gonum/diff/fd"
)

// Func is a scalar function of a flat parameter vector.
type Func func(x []float64) (float64, error)

// VecFunc is a vector-valued function of a flat parameter vector.
type VecFunc func(x []float64) ([]float64, error)

// GradFunc writes the gradient at x into dst.
type GradFunc func(dst, x []float64) error

// Differentiable is a scalar objective with a gradient.
type Differentiable interface {
	Value(x []float64) (float64, error)
	Gradient(dst, x []float64) error
}

// Analytic pairs a function with a known gradient.
type Analytic struct {
	F Func
	G GradFunc
}

func (a Analytic) Value(x []float64) (float64, error) { return a.F(x) }

func (a Analytic) Gradient(dst, x []float64) error { return a.G(dst, x) }

// Numerical differentiates F with central finite differences.
type Numerical struct {
	F Func
	// Step is the difference step. Zero selects gonum's default for the
	// central formula.
	Step float64
}

func (n Numerical) Value(x []float64) (float64, error) { return n.F(x) }

// Gradient reports the first error F returned while differencing.
func (n Numerical) Gradient(dst, x []float64) error {
	var firstErr error
	f := func(p []float64) float64 {
		v, err := n.F(p)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return math.NaN()
		}
		return v
	}
	fd.Gradient(dst, f, x, &fd.Settings{Formula: fd.Central, Step: n.Step})
	return firstErr
}

// NegLogPosterior returns x ↦ -log p(unconstrained(x), observed). layout
// fixes how x is cut into named blocks.
func NegLogPosterior(ctx context.Context, ev *evaluator.Evaluator, layout params.Layout) Func {
	return func(x []float64) (float64, error) {
		u, err := params.Unflatten(x, layout)
		if err != nil {
			return 0, err
		}
		res, err := ev.Evaluate(ctx, evaluator.Request{
			Mode:                 evaluator.GenerateConstrained,
			AccumulateLogDensity: true,
			Unconstrained:        u,
		})
		if err != nil {
			return 0, err
		}
		return -res.LogDensity, nil
	}
}

// Constrain returns x ↦ flat constrained values. Every evaluation must
// produce values matching out, which is normally taken from the evaluation
// at the MAP.
func Constrain(ctx context.Context, ev *evaluator.Evaluator, layout, out params.Layout) VecFunc {
	return func(x []float64) ([]float64, error) {
		u, err := params.Unflatten(x, layout)
		if err != nil {
			return nil, err
		}
		res, err := ev.Evaluate(ctx, evaluator.Request{Mode: evaluator.GenerateConstrained, Unconstrained: u})
		if err != nil {
			return nil, err
		}
		if !res.Constrained.Layout().Compatible(out) {
			return nil, mapvarerr.New(mapvarerr.ErrShapeMismatch, "constrained values %v do not match layout %v", res.Constrained.Layout(), out)
		}
		return params.Flatten(res.Constrained), nil
	}
}
