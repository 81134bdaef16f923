package dist

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/specialistvlad/mapvar/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalLogPDF(x, mu, sigma float64) float64 {
	z := (x - mu) / sigma
	return -0.5*z*z - math.Log(sigma) - 0.5*math.Log(2*math.Pi)
}

func TestNormal_LogProbSumsElements(t *testing.T) {
	d, err := Normal(tensor.Vector(0, 1, 2), tensor.Scalar(2))
	require.NoError(t, err)
	assert.Equal(t, []int{3}, d.Shape())

	x := tensor.Vector(0.5, 0.5, 0.5)
	got, err := d.LogProb(x)
	require.NoError(t, err)

	want := normalLogPDF(0.5, 0, 2) + normalLogPDF(0.5, 1, 2) + normalLogPDF(0.5, 2, 2)
	assert.InDelta(t, want, got, 1e-12)
}

func TestNormal_SingleElementScoresVector(t *testing.T) {
	d, err := Normal(tensor.Vector(1), tensor.Scalar(1))
	require.NoError(t, err)

	got, err := d.LogProb(tensor.Vector(1, 2))
	require.NoError(t, err)
	assert.InDelta(t, normalLogPDF(1, 1, 1)+normalLogPDF(2, 1, 1), got, 1e-12)
}

func TestNormal_IncompatibleValue(t *testing.T) {
	d, err := Normal(tensor.Vector(0, 0), tensor.Scalar(1))
	require.NoError(t, err)
	_, err = d.LogProb(tensor.Vector(1, 2, 3))
	assert.Error(t, err)
}

func TestChiSquared_MatchesClosedForm(t *testing.T) {
	d, err := ChiSquared(tensor.Vector(4))
	require.NoError(t, err)

	// chi2(4) density: x * exp(-x/2) / 4
	x := 2.7
	got, err := d.LogProb(tensor.Vector(x))
	require.NoError(t, err)
	assert.InDelta(t, math.Log(x)-x/2-math.Log(4), got, 1e-12)
}

func TestLogTransformed_ChangeOfVariables(t *testing.T) {
	base, err := ChiSquared(tensor.Vector(4))
	require.NoError(t, err)
	d := LogTransformed{Base: base}

	y := 0.3
	got, err := d.LogProb(tensor.Vector(y))
	require.NoError(t, err)

	x := math.Exp(y)
	want := math.Log(x) - x/2 - math.Log(4) + y
	assert.InDelta(t, want, got, 1e-12)
	assert.Equal(t, []int{1}, d.Shape())
}

func TestSample_ShapeAndMean(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	d, err := Normal(tensor.Vector(3, -3), tensor.Scalar(0.5))
	require.NoError(t, err)

	samples := make([]tensor.Tensor, 2000)
	for i := range samples {
		samples[i] = d.Sample(rng)
		require.Equal(t, []int{2}, samples[i].Shape)
	}
	mean, err := tensor.Mean(samples)
	require.NoError(t, err)
	assert.InDelta(t, 3, mean.Data[0], 0.1)
	assert.InDelta(t, -3, mean.Data[1], 0.1)
}

func TestSample_LogTransformedIsLogOfBase(t *testing.T) {
	base, err := Exponential(tensor.Scalar(1))
	require.NoError(t, err)

	a := rand.New(rand.NewPCG(1, 2))
	b := rand.New(rand.NewPCG(1, 2))
	direct := base.Sample(a)
	logged := LogTransformed{Base: base}.Sample(b)

	assert.InDelta(t, math.Log(direct.Data[0]), logged.Data[0], 1e-12)
}

func TestFamiliesBuild(t *testing.T) {
	one := tensor.Scalar(1)
	two := tensor.Scalar(2)

	builders := map[string]func() (*Elementwise, error){
		"gamma":       func() (*Elementwise, error) { return Gamma(two, one) },
		"exponential": func() (*Elementwise, error) { return Exponential(one) },
		"uniform":     func() (*Elementwise, error) { return Uniform(one, two) },
		"lognormal":   func() (*Elementwise, error) { return LogNormal(one, one) },
		"student_t":   func() (*Elementwise, error) { return StudentsT(two, one, one) },
	}
	for family, build := range builders {
		t.Run(family, func(t *testing.T) {
			d, err := build()
			require.NoError(t, err)
			assert.Equal(t, family, d.Family())
			lp, err := d.LogProb(tensor.Scalar(1.5))
			require.NoError(t, err)
			assert.False(t, math.IsNaN(lp))
		})
	}
}
