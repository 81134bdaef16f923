package testutil

import (
	"math/rand/v2"
	"testing"

	"github.com/specialistvlad/mapvar/internal/dist"
	"github.com/specialistvlad/mapvar/internal/model"
	"github.com/specialistvlad/mapvar/internal/params"
	"github.com/specialistvlad/mapvar/internal/tensor"
	"github.com/stretchr/testify/require"
)

// Regression holds a synthetic data set y = Intercept + Slope*x + N(0, 1).
type Regression struct {
	X, Y      tensor.Tensor
	Intercept float64
	Slope     float64
}

// Observed returns the data set as an observed parameter set.
func (r Regression) Observed() *params.Set {
	s := params.New()
	s.Put("x", r.X)
	s.Put("y", r.Y)
	return s
}

// RegressionData generates n points with a fixed seed, so every call with
// the same n returns the same data.
func RegressionData(n int) Regression {
	rng := rand.New(rand.NewPCG(7, 11))
	r := Regression{Intercept: 2.7, Slope: 1.5}
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = rng.NormFloat64()
		ys[i] = r.Intercept + r.Slope*xs[i] + rng.NormFloat64()
	}
	r.X = tensor.Vector(xs...)
	r.Y = tensor.Vector(ys...)
	return r
}

func must[T any](v T, err error) func(*testing.T) T {
	return func(t *testing.T) T {
		t.Helper()
		require.NoError(t, err)
		return v
	}
}

// regressionLikelihood builds y ~ Normal(alpha + beta*x, 1).
func regressionLikelihood(x tensor.Tensor) model.DistributionFunc {
	return func(args model.Args) (dist.Distribution, error) {
		alpha, err := args.Get("alpha")
		if err != nil {
			return nil, err
		}
		beta, err := args.Get("beta")
		if err != nil {
			return nil, err
		}
		slope, err := tensor.Mul(beta, x)
		if err != nil {
			return nil, err
		}
		loc, err := tensor.Add(alpha, slope)
		if err != nil {
			return nil, err
		}
		return dist.Normal(loc, tensor.Scalar(1))
	}
}

func expOf(name string) model.TransformFunc {
	return func(args model.Args) (tensor.Tensor, error) {
		v, err := args.Get(name)
		if err != nil {
			return tensor.Tensor{}, err
		}
		return tensor.Exp(v), nil
	}
}

func identityOf(name string) model.TransformFunc {
	return func(args model.Args) (tensor.Tensor, error) {
		return args.Get(name)
	}
}

// PositiveInterceptModel is the reference regression:
//
//	beta                ~ Normal(1, 1)
//	unconstrained_alpha ~ LogTransformed(ChiSquared(4))
//	alpha               = exp(unconstrained_alpha)
//	y                   ~ Normal(alpha + beta*x, 1), observed
func PositiveInterceptModel(t *testing.T, x tensor.Tensor) model.Spec {
	t.Helper()
	prior := must(dist.Normal(tensor.Vector(1), tensor.Scalar(1)))(t)
	chi := must(dist.ChiSquared(tensor.Vector(4)))(t)
	return model.Spec{
		Nodes: []*model.Node{
			model.Leaf("beta", prior),
			model.Leaf("unconstrained_alpha", dist.LogTransformed{Base: chi}),
			model.Deterministic("alpha", []string{"unconstrained_alpha"}, expOf("unconstrained_alpha")),
			model.Stochastic("y", []string{"alpha", "beta"}, regressionLikelihood(x)),
		},
		Observed: []string{"y"},
	}
}

// ConstrainedInterceptModel expresses the same posterior as
// PositiveInterceptModel through the constraint mapping instead of inline
// deterministic nodes.
func ConstrainedInterceptModel(t *testing.T, x tensor.Tensor) model.Spec {
	t.Helper()
	prior := must(dist.Normal(tensor.Vector(1), tensor.Scalar(1)))(t)
	chi := must(dist.ChiSquared(tensor.Vector(4)))(t)
	return model.Spec{
		Nodes: []*model.Node{
			model.Leaf("unconstrained_beta", prior),
			model.Leaf("unconstrained_alpha", dist.LogTransformed{Base: chi}),
			model.Stochastic("y", []string{"alpha", "beta"}, regressionLikelihood(x)),
		},
		Constraints: []*model.Node{
			model.Constraint("alpha", []string{"unconstrained_alpha"}, expOf("unconstrained_alpha")),
			model.Constraint("beta", []string{"unconstrained_beta"}, identityOf("unconstrained_beta")),
		},
		Observed: []string{"y"},
	}
}

// ReparameterizedModel is PositiveInterceptModel with beta routed through an
// identity deterministic node.
func ReparameterizedModel(t *testing.T, x tensor.Tensor) model.Spec {
	t.Helper()
	prior := must(dist.Normal(tensor.Vector(1), tensor.Scalar(1)))(t)
	chi := must(dist.ChiSquared(tensor.Vector(4)))(t)
	return model.Spec{
		Nodes: []*model.Node{
			model.Leaf("unconstrained_beta", prior),
			model.Deterministic("beta", []string{"unconstrained_beta"}, identityOf("unconstrained_beta")),
			model.Leaf("unconstrained_alpha", dist.LogTransformed{Base: chi}),
			model.Deterministic("alpha", []string{"unconstrained_alpha"}, expOf("unconstrained_alpha")),
			model.Stochastic("y", []string{"alpha", "beta"}, regressionLikelihood(x)),
		},
		Observed: []string{"y"},
	}
}

// PriorScale is the prior standard deviation used by LinearGaussianModel.
const PriorScale = 10.0

// LinearGaussianModel has a closed-form posterior:
//
//	alpha ~ Normal(0, PriorScale)
//	beta  ~ Normal(0, PriorScale)
//	y     ~ Normal(alpha + beta*x, 1), observed
//
// See LinearGaussianPosterior.
func LinearGaussianModel(t *testing.T, x tensor.Tensor) model.Spec {
	t.Helper()
	prior := must(dist.Normal(tensor.Vector(0), tensor.Scalar(PriorScale)))(t)
	return model.Spec{
		Nodes: []*model.Node{
			model.Leaf("alpha", prior),
			model.Leaf("beta", prior),
			model.Stochastic("y", []string{"alpha", "beta"}, regressionLikelihood(x)),
		},
		Observed: []string{"y"},
	}
}

// LinearGaussianPosterior returns the exact posterior mean and covariance of
// (alpha, beta) under LinearGaussianModel.
func LinearGaussianPosterior(r Regression) (mean [2]float64, cov [2][2]float64) {
	var n, sx, sxx, sy, sxy float64
	for i := range r.X.Data {
		x, y := r.X.Data[i], r.Y.Data[i]
		n++
		sx += x
		sxx += x * x
		sy += y
		sxy += x * y
	}
	tau := 1 / (PriorScale * PriorScale)
	a, b, d := n+tau, sx, sxx+tau
	det := a*d - b*b
	cov = [2][2]float64{{d / det, -b / det}, {-b / det, a / det}}
	mean[0] = cov[0][0]*sy + cov[0][1]*sxy
	mean[1] = cov[1][0]*sy + cov[1][1]*sxy
	return mean, cov
}
