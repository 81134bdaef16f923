// Package dist provides the distribution capabilities leaf and conditional
// nodes are built from. A Distribution exposes its batch+event shape, draws
// samples and evaluates the summed log-density of a value.
//
// The elementwise families are backed by gonum's stat/distuv. Draws use
// inverse-CDF sampling so that every family shares one caller-supplied random
// source.
package dist

import (
	"math/rand/v2"

	"github.com/specialistvlad/mapvar/internal/mapvarerr"
	"github.com/specialistvlad/mapvar/internal/tensor"
	"gonum.org/v1/gonum/stat/distuv"
)

// Distribution is the capability a stochastic node carries.
type Distribution interface {
	// Shape is the batch+event shape of one draw.
	Shape() []int
	// Sample draws one value of Shape().
	Sample(rng *rand.Rand) tensor.Tensor
	// LogProb returns the log-density of x summed over all elements.
	LogProb(x tensor.Tensor) (float64, error)
}

// univariate is the subset of a distuv distribution used here.
type univariate interface {
	LogProb(x float64) float64
	Quantile(p float64) float64
}

// Elementwise is a batch of independent univariate distributions.
type Elementwise struct {
	family string
	shape  []int
	elems  []univariate
}

// Family names the distribution family, e.g. "normal".
func (e *Elementwise) Family() string { return e.family }

func (e *Elementwise) Shape() []int { return e.shape }

func (e *Elementwise) Sample(rng *rand.Rand) tensor.Tensor {
	out := tensor.Zeros(e.shape)
	for i := range out.Data {
		out.Data[i] = e.elems[i].Quantile(uniform(rng))
	}
	return out
}

func (e *Elementwise) LogProb(x tensor.Tensor) (float64, error) {
	n := len(e.elems)
	if x.Size() != n && x.Size() != 1 && n != 1 {
		return 0, mapvarerr.New(mapvarerr.ErrShapeMismatch, "%s of shape %v cannot score a value of shape %v", e.family, e.shape, x.Shape)
	}
	var total float64
	for i := range max(n, x.Size()) {
		total += e.elem(i).LogProb(x.At(i))
	}
	return total, nil
}

func (e *Elementwise) elem(i int) univariate {
	if len(e.elems) == 1 {
		return e.elems[0]
	}
	return e.elems[i]
}

// uniform draws from the open interval (0, 1) so quantiles stay finite.
func uniform(rng *rand.Rand) float64 {
	for {
		if u := rng.Float64(); u > 0 {
			return u
		}
	}
}

// elementwise broadcasts the parameter tensors and builds one univariate
// distribution per element.
func elementwise(family string, build func(p []float64) univariate, params ...tensor.Tensor) (*Elementwise, error) {
	shapes := make([][]int, len(params))
	for i, p := range params {
		shapes[i] = p.Shape
	}
	shape, err := tensor.BroadcastShape(shapes...)
	if err != nil {
		return nil, err
	}
	n := tensor.SizeOf(shape)
	elems := make([]univariate, n)
	p := make([]float64, len(params))
	for i := range n {
		for j, param := range params {
			p[j] = param.At(i)
		}
		elems[i] = build(p)
	}
	return &Elementwise{family: family, shape: shape, elems: elems}, nil
}

func Normal(loc, scale tensor.Tensor) (*Elementwise, error) {
	return elementwise("normal", func(p []float64) univariate {
		return distuv.Normal{Mu: p[0], Sigma: p[1]}
	}, loc, scale)
}

// ChiSquared has k degrees of freedom per element.
func ChiSquared(k tensor.Tensor) (*Elementwise, error) {
	return elementwise("chi2", func(p []float64) univariate {
		return distuv.ChiSquared{K: p[0]}
	}, k)
}

// Gamma uses the shape/rate parameterization.
func Gamma(shape, rate tensor.Tensor) (*Elementwise, error) {
	return elementwise("gamma", func(p []float64) univariate {
		return distuv.Gamma{Alpha: p[0], Beta: p[1]}
	}, shape, rate)
}

func Exponential(rate tensor.Tensor) (*Elementwise, error) {
	return elementwise("exponential", func(p []float64) univariate {
		return distuv.Exponential{Rate: p[0]}
	}, rate)
}

func Uniform(lo, hi tensor.Tensor) (*Elementwise, error) {
	return elementwise("uniform", func(p []float64) univariate {
		return distuv.Uniform{Min: p[0], Max: p[1]}
	}, lo, hi)
}

func LogNormal(mu, sigma tensor.Tensor) (*Elementwise, error) {
	return elementwise("lognormal", func(p []float64) univariate {
		return distuv.LogNormal{Mu: p[0], Sigma: p[1]}
	}, mu, sigma)
}

func StudentsT(nu, loc, scale tensor.Tensor) (*Elementwise, error) {
	return elementwise("student_t", func(p []float64) univariate {
		return distuv.StudentsT{Nu: p[0], Mu: p[1], Sigma: p[2]}
	}, nu, loc, scale)
}

// LogTransformed is the distribution of log(X) for X drawn from Base. It maps
// a positive base distribution onto the whole real line.
type LogTransformed struct {
	Base Distribution
}

func (l LogTransformed) Shape() []int { return l.Base.Shape() }

func (l LogTransformed) Sample(rng *rand.Rand) tensor.Tensor {
	return tensor.Log(l.Base.Sample(rng))
}

// LogProb applies the change of variables x = exp(y): log p(y) = log p_X(exp(y)) + y.
func (l LogTransformed) LogProb(y tensor.Tensor) (float64, error) {
	lp, err := l.Base.LogProb(tensor.Exp(y))
	if err != nil {
		return 0, err
	}
	jacobian := y.Sum()
	if y.Size() == 1 {
		jacobian *= float64(tensor.SizeOf(l.Base.Shape()))
	}
	return lp + jacobian, nil
}
