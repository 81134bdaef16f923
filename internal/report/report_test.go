package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/specialistvlad/mapvar/internal/mapopt"
	"github.com/specialistvlad/mapvar/internal/mapvar"
	"github.com/specialistvlad/mapvar/internal/params"
	"github.com/specialistvlad/mapvar/internal/tensor"
	"github.com/specialistvlad/mapvar/internal/variance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func sampleResult() *mapvar.Result {
	u := params.New()
	u.Put("beta", tensor.Vector(1.5))
	u.Put("unconstrained_alpha", tensor.Vector(0.99))
	c := params.New()
	c.Put("alpha", tensor.Vector(2.69))
	ul := []string{"beta", "unconstrained_alpha"}
	cl := []string{"alpha"}
	return &mapvar.Result{
		RunID:         "run-1234",
		Unconstrained: u,
		Constrained:   c,
		LogPosterior:  -42.5,
		Diagnostics: mapopt.Diagnostics{
			Converged:  true,
			Status:     "GradientThreshold",
			Iterations: 12,
			Runtime:    3 * time.Millisecond,
		},
		Variance: &variance.Estimate{
			Hessian:    &variance.Table{Rows: ul, Cols: ul, M: mat.NewDense(2, 2, []float64{90, 5, 5, 300})},
			Delta:      &variance.Table{Rows: cl, Cols: ul, M: mat.NewDense(1, 2, []float64{0, 2.69})},
			Covariance: &variance.Table{Rows: cl, Cols: cl, M: mat.NewDense(1, 1, []float64{0.0225})},
		},
	}
}

func TestRender(t *testing.T) {
	// Arrange
	var out bytes.Buffer

	// Act
	err := Render(&out, sampleResult())

	// Assert
	require.NoError(t, err)
	s := out.String()
	for _, want := range []string{
		"Run run-1234",
		"GradientThreshold",
		"unconstrained_alpha",
		"-42.5",
		"Posterior standard deviations",
		"0.15",
		"Hessian",
		"300",
		"Delta",
		"Covariance",
		"0.0225",
	} {
		assert.Contains(t, s, want)
	}
	assert.NotContains(t, s, "Posterior predictive means")
}

func TestRender_WithoutVariance(t *testing.T) {
	res := sampleResult()
	res.Variance = nil
	res.Predictive = params.New()
	res.Predictive.Put("y", tensor.Vector(1, 2))

	var out bytes.Buffer
	require.NoError(t, Render(&out, res))

	s := out.String()
	assert.NotContains(t, s, "Hessian")
	assert.Contains(t, s, "Posterior predictive means")
	assert.Contains(t, s, "y_1")
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "2 unconstrained, 1 constrained, log posterior -42.5", Summary(sampleResult()))
}
