// Package mapopt finds the maximum a posteriori point of a model by
// minimizing its negative log posterior over the flat unconstrained
// parameter vector with L-BFGS.
package mapopt

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/specialistvlad/mapvar/internal/ctxlog"
	"github.com/specialistvlad/mapvar/internal/evaluator"
	"github.com/specialistvlad/mapvar/internal/mapvarerr"
	"github.com/specialistvlad/mapvar/internal/objective"
	"github.com/specialistvlad/mapvar/internal/params"
	"gonum.org/v1/gonum/optimize"
)

// Settings tunes the optimizer. Zero fields take the defaults below.
type Settings struct {
	MaxIterations     int
	GradientThreshold float64
	FunctionTolerance float64
	// GradientStep is the finite-difference step; zero selects gonum's default.
	GradientStep float64
}

const (
	DefaultMaxIterations     = 1000
	DefaultGradientThreshold = 1e-5
	DefaultFunctionTolerance = 1e-10
	// functionConvergeIterations is how many iterations without a
	// FunctionTolerance improvement end the run.
	functionConvergeIterations = 20
)

func (s Settings) withDefaults() Settings {
	if s.MaxIterations <= 0 {
		s.MaxIterations = DefaultMaxIterations
	}
	if s.GradientThreshold <= 0 {
		s.GradientThreshold = DefaultGradientThreshold
	}
	if s.FunctionTolerance <= 0 {
		s.FunctionTolerance = DefaultFunctionTolerance
	}
	return s
}

// Diagnostics describes how an optimization run ended. A run that stops
// without converging is still returned; callers decide what to do with it.
type Diagnostics struct {
	Converged       bool
	Status          string
	Iterations      int
	FuncEvaluations int
	GradEvaluations int
	// Objective is the negative log posterior at the returned point.
	Objective float64
	Runtime   time.Duration
}

// Result is the minimizer found by Minimize.
type Result struct {
	X           []float64
	Diagnostics Diagnostics
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionConvergence, optimize.GradientThreshold,
		optimize.StepConvergence, optimize.MethodConverge, optimize.FunctionThreshold:
		return true
	}
	return false
}

// Minimize runs L-BFGS on obj from x0. Errors raised by obj abort the run
// and are returned as is; so is cancellation of ctx.
func Minimize(ctx context.Context, obj objective.Differentiable, x0 []float64, settings Settings) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	settings = settings.withDefaults()
	if len(x0) == 0 {
		return nil, mapvarerr.New(mapvarerr.ErrShapeMismatch, "cannot optimize an empty parameter vector")
	}

	var objErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			v, err := obj.Value(x)
			if err != nil && objErr == nil {
				objErr = err
			}
			return v
		},
		Grad: func(grad, x []float64) {
			if err := obj.Gradient(grad, x); err != nil && objErr == nil {
				objErr = err
			}
		},
		Status: func() (optimize.Status, error) {
			if objErr != nil {
				return optimize.Failure, objErr
			}
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}
	optSettings := &optimize.Settings{
		GradientThreshold: settings.GradientThreshold,
		MajorIterations:   settings.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   settings.FunctionTolerance,
			Iterations: functionConvergeIterations,
		},
	}

	logger.Debug("Starting L-BFGS.", "dimension", len(x0), "max_iterations", settings.MaxIterations)
	res, err := optimize.Minimize(problem, x0, optSettings, &optimize.LBFGS{})
	if objErr != nil {
		return nil, objErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if res == nil {
		return nil, err
	}

	out := &Result{
		X: res.X,
		Diagnostics: Diagnostics{
			Converged:       err == nil && converged(res.Status),
			Status:          res.Status.String(),
			Iterations:      res.MajorIterations,
			FuncEvaluations: res.FuncEvaluations,
			GradEvaluations: res.GradEvaluations,
			Objective:       res.F,
			Runtime:         res.Runtime,
		},
	}
	if !out.Diagnostics.Converged {
		args := []any{"status", out.Diagnostics.Status, "iterations", out.Diagnostics.Iterations}
		if err != nil {
			args = append(args, "error", err)
		}
		logger.Warn("Optimizer stopped without converging.", args...)
	}
	return out, nil
}

// Options configures Fit.
type Options struct {
	Settings Settings
	Init     evaluator.InitPolicy
	// Rand seeds sample-mean initialization.
	Rand *rand.Rand
}

// Fit is a fitted MAP point.
type Fit struct {
	// X is the flat unconstrained MAP vector laid out by Layout.
	X             []float64
	Layout        params.Layout
	Unconstrained *params.Set
	Constrained   *params.Set
	LogPosterior  float64
	Diagnostics   Diagnostics
}

// FitMAP initializes the model's unconstrained parameters, minimizes the
// negative log posterior and evaluates the model at the optimum.
func FitMAP(ctx context.Context, ev *evaluator.Evaluator, opts Options) (*Fit, error) {
	logger := ctxlog.FromContext(ctx)

	init, err := ev.Evaluate(ctx, evaluator.Request{Mode: evaluator.GenerateUnconstrained, Init: opts.Init, Rand: opts.Rand})
	if err != nil {
		return nil, err
	}
	layout := init.Unconstrained.Layout()
	if layout.Size() == 0 {
		return nil, mapvarerr.New(mapvarerr.ErrInvalidGraph, "model has no latent parameters")
	}
	logger.Info("Fitting MAP.", "parameters", layout.Labels(), "init", opts.Init)

	obj := objective.Numerical{
		F:    objective.NegLogPosterior(ctx, ev, layout),
		Step: opts.Settings.GradientStep,
	}
	res, err := Minimize(ctx, obj, params.Flatten(init.Unconstrained), opts.Settings)
	if err != nil {
		return nil, err
	}

	u, err := params.Unflatten(res.X, layout)
	if err != nil {
		return nil, err
	}
	at, err := ev.Evaluate(ctx, evaluator.Request{
		Mode:                 evaluator.GenerateConstrained,
		AccumulateLogDensity: true,
		Unconstrained:        u,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("MAP found.",
		"converged", res.Diagnostics.Converged,
		"iterations", res.Diagnostics.Iterations,
		"log_posterior", at.LogDensity,
	)
	return &Fit{
		X:             res.X,
		Layout:        layout,
		Unconstrained: u,
		Constrained:   at.Constrained,
		LogPosterior:  at.LogDensity,
		Diagnostics:   res.Diagnostics,
	}, nil
}
