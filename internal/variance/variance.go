// Package variance estimates posterior uncertainty at a MAP point.
//
// The Hessian of the negative log posterior is built from central
// differences of its gradient, the Jacobian ("delta") of the constraint map
// from central differences of the map itself, and the two are combined with
// the delta method: Σ = Δ H⁻¹ Δᵀ.
package variance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/specialistvlad/mapvar/internal/ctxlog"
	"github.com/specialistvlad/mapvar/internal/mapvarerr"
	"github.com/specialistvlad/mapvar/internal/objective"
	"github.com/specialistvlad/mapvar/internal/params"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Bandwidths returns the per-coordinate difference steps for p.
//
// With c = ε^(1/3), the nominal step c·(|p|+c) is added to |p| and
// subtracted again so the returned step is exactly representable relative
// to p.
func Bandwidths(p []float64) []float64 {
	c := math.Cbrt(epsilon)
	h := make([]float64, len(p))
	for i, v := range p {
		abs := math.Abs(v)
		scaled := c * (abs + c)
		stable := scaled + abs
		h[i] = stable - abs
	}
	return h
}

// epsilon is the float64 machine epsilon.
const epsilon = 0x1p-52

// Table is a matrix with labeled rows and columns.
type Table struct {
	Rows, Cols []string
	// M is nil when the table has no rows or no columns.
	M *mat.Dense
}

func newTable(rows, cols []string, m *mat.Dense) *Table {
	return &Table{Rows: slices.Clone(rows), Cols: slices.Clone(cols), M: m}
}

// At returns the entry at the labeled row and column.
func (t *Table) At(row, col string) (float64, error) {
	i := slices.Index(t.Rows, row)
	j := slices.Index(t.Cols, col)
	if i < 0 || j < 0 {
		return 0, fmt.Errorf("no entry (%s, %s)", row, col)
	}
	return t.M.At(i, j), nil
}

// Input is everything Compute needs.
type Input struct {
	// MAP is the flat unconstrained optimum.
	MAP       []float64
	Objective objective.Differentiable
	// Transform maps an unconstrained vector to the flat constrained one.
	// It may be nil when the model has no constrained values.
	Transform     objective.VecFunc
	Unconstrained params.Layout
	Constrained   params.Layout
	// Workers bounds how many perturbed points are evaluated concurrently.
	// Zero or less means one.
	Workers int
}

// Estimate holds the variance tables.
type Estimate struct {
	Bandwidths []float64
	// Hessian is unconstrained × unconstrained.
	Hessian *Table
	// UnconstrainedCovariance is H⁻¹.
	UnconstrainedCovariance *Table
	// Delta is constrained × unconstrained.
	Delta *Table
	// Covariance is constrained × constrained.
	Covariance *Table
}

// column holds the differences computed for one coordinate.
type column struct {
	grad  []float64
	delta []float64
}

// Compute builds the Hessian, Delta and covariance tables. Any failed
// sub-evaluation fails the whole estimate.
func Compute(ctx context.Context, in Input) (*Estimate, error) {
	logger := ctxlog.FromContext(ctx)
	n := len(in.MAP)
	m := in.Constrained.Size()
	if n == 0 || in.Unconstrained.Size() != n {
		return nil, mapvarerr.New(mapvarerr.ErrShapeMismatch, "MAP vector has %d elements, layout expects %d", n, in.Unconstrained.Size())
	}
	if m > 0 && in.Transform == nil {
		return nil, mapvarerr.New(mapvarerr.ErrShapeMismatch, "constrained layout has %d elements but no transform was given", m)
	}

	h := Bandwidths(in.MAP)
	cols := make([]column, n)

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(max(in.Workers, 1))
	for i := range n {
		grp.Go(func() error {
			col, err := differentiate(gctx, in, h, i, m)
			if err != nil {
				return fmt.Errorf("perturbing coordinate %d: %w", i, err)
			}
			cols[i] = col
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	hess := mat.NewDense(n, n, nil)
	for i, col := range cols {
		hess.SetCol(i, col.grad)
	}
	symmetrize(hess)

	var inv mat.Dense
	if err := inv.Inverse(hess); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, mapvarerr.New(mapvarerr.ErrSingularHessian, "%v", err)
		}
		logger.Warn("Hessian is ill-conditioned.", "condition", float64(cond))
	}

	uLabels := in.Unconstrained.Labels()
	cLabels := in.Constrained.Labels()
	est := &Estimate{
		Bandwidths:              h,
		Hessian:                 newTable(uLabels, uLabels, hess),
		UnconstrainedCovariance: newTable(uLabels, uLabels, &inv),
		Delta:                   newTable(cLabels, uLabels, nil),
		Covariance:              newTable(cLabels, cLabels, nil),
	}
	if m > 0 {
		delta := mat.NewDense(m, n, nil)
		for i, col := range cols {
			delta.SetCol(i, col.delta)
		}
		var tmp, cov mat.Dense
		tmp.Mul(delta, &inv)
		cov.Mul(&tmp, delta.T())
		symmetrize(&cov)
		est.Delta.M = delta
		est.Covariance.M = &cov
	}

	logger.Debug("Variance estimated.", "unconstrained", n, "constrained", m)
	return est, nil
}

// differentiate evaluates the gradient and the transform at p ± h_i e_i.
func differentiate(ctx context.Context, in Input, h []float64, i, m int) (column, error) {
	n := len(in.MAP)
	plus := slices.Clone(in.MAP)
	minus := slices.Clone(in.MAP)
	plus[i] += h[i]
	minus[i] -= h[i]

	gradPlus := make([]float64, n)
	gradMinus := make([]float64, n)
	if err := in.Objective.Gradient(gradPlus, plus); err != nil {
		return column{}, err
	}
	if err := ctx.Err(); err != nil {
		return column{}, err
	}
	if err := in.Objective.Gradient(gradMinus, minus); err != nil {
		return column{}, err
	}

	col := column{grad: make([]float64, n)}
	for k := range n {
		col.grad[k] = (gradPlus[k] - gradMinus[k]) / (2 * h[i])
	}
	if m == 0 {
		return col, nil
	}

	consPlus, err := in.Transform(plus)
	if err != nil {
		return column{}, err
	}
	consMinus, err := in.Transform(minus)
	if err != nil {
		return column{}, err
	}
	if len(consPlus) != m || len(consMinus) != m {
		return column{}, mapvarerr.New(mapvarerr.ErrShapeMismatch, "transform returned %d values, expected %d", len(consPlus), m)
	}
	col.delta = make([]float64, m)
	for k := range m {
		col.delta[k] = (consPlus[k] - consMinus[k]) / (2 * h[i])
	}
	return col, nil
}

// symmetrize replaces a square matrix by (A + Aᵀ)/2 in place.
func symmetrize(a *mat.Dense) {
	r, _ := a.Dims()
	for i := range r {
		for j := i + 1; j < r; j++ {
			v := (a.At(i, j) + a.At(j, i)) / 2
			a.Set(i, j, v)
			a.Set(j, i, v)
		}
	}
}
