// Package mapvar runs a complete estimation: build the model graph, find
// the MAP point, then estimate Hessian, Delta and covariance around it.
package mapvar

import (
	"context"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/specialistvlad/mapvar/internal/ctxlog"
	"github.com/specialistvlad/mapvar/internal/evaluator"
	"github.com/specialistvlad/mapvar/internal/graph"
	"github.com/specialistvlad/mapvar/internal/mapopt"
	"github.com/specialistvlad/mapvar/internal/model"
	"github.com/specialistvlad/mapvar/internal/objective"
	"github.com/specialistvlad/mapvar/internal/params"
	"github.com/specialistvlad/mapvar/internal/tensor"
	"github.com/specialistvlad/mapvar/internal/variance"
)

// Options configures Estimate. The zero value fits from zeros and computes
// the variance tables serially.
type Options struct {
	Init      evaluator.InitPolicy
	Optimizer mapopt.Settings
	// SkipVariance stops after the MAP point.
	SkipVariance bool
	// Workers bounds the concurrent finite-difference evaluations.
	Workers int
	// PredictiveDraws, when positive, averages that many posterior
	// predictive draws at the MAP point.
	PredictiveDraws int
	// Rand drives sample-mean initialization and predictive draws.
	Rand *rand.Rand
}

// Result is a complete estimate.
type Result struct {
	RunID         string
	Unconstrained *params.Set
	Constrained   *params.Set
	LogPosterior  float64
	Diagnostics   mapopt.Diagnostics
	// Variance is nil when SkipVariance was set.
	Variance *variance.Estimate
	// Predictive holds the mean predictive draw per observed variable. It
	// is nil unless PredictiveDraws was positive.
	Predictive *params.Set
}

// Estimate fits the model to the observed data. It either returns a
// complete result or an error, never a partial result.
func Estimate(ctx context.Context, spec model.Spec, observed *params.Set, opts Options) (*Result, error) {
	runID := uuid.NewString()
	ctx = ctxlog.With(ctx, "run_id", runID)
	logger := ctxlog.FromContext(ctx)
	logger.Info("Starting estimation.", "nodes", len(spec.Nodes), "constraints", len(spec.Constraints), "observed", spec.Observed)

	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	g, err := graph.Build(ctx, spec)
	if err != nil {
		return nil, err
	}
	ev := evaluator.New(g, observed)

	fit, err := mapopt.FitMAP(ctx, ev, mapopt.Options{Settings: opts.Optimizer, Init: opts.Init, Rand: opts.Rand})
	if err != nil {
		return nil, err
	}
	res := &Result{
		RunID:         runID,
		Unconstrained: fit.Unconstrained,
		Constrained:   fit.Constrained,
		LogPosterior:  fit.LogPosterior,
		Diagnostics:   fit.Diagnostics,
	}

	if !opts.SkipVariance {
		est, err := variance.Compute(ctx, variance.Input{
			MAP: fit.X,
			Objective: objective.Numerical{
				F:    objective.NegLogPosterior(ctx, ev, fit.Layout),
				Step: opts.Optimizer.GradientStep,
			},
			Transform:     objective.Constrain(ctx, ev, fit.Layout, fit.Constrained.Layout()),
			Unconstrained: fit.Layout,
			Constrained:   fit.Constrained.Layout(),
			Workers:       opts.Workers,
		})
		if err != nil {
			return nil, err
		}
		res.Variance = est
	}

	if opts.PredictiveDraws > 0 {
		pred, err := PredictiveMean(ctx, ev, fit.Unconstrained, opts.PredictiveDraws, opts.Rand)
		if err != nil {
			return nil, err
		}
		res.Predictive = pred
	}

	logger.Info("Estimation complete.", "log_posterior", res.LogPosterior, "converged", res.Diagnostics.Converged)
	return res, nil
}

// PosteriorPredictive draws n posterior predictive samples of every
// observed variable at the given unconstrained point.
func PosteriorPredictive(ctx context.Context, ev *evaluator.Evaluator, unconstrained *params.Set, n int, rng *rand.Rand) ([]*params.Set, error) {
	draws := make([]*params.Set, 0, n)
	for range n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := ev.Evaluate(ctx, evaluator.Request{
			Mode:          evaluator.GeneratePosteriorPredictive,
			Unconstrained: unconstrained,
			Rand:          rng,
		})
		if err != nil {
			return nil, err
		}
		draws = append(draws, res.Predictive)
	}
	return draws, nil
}

// PredictiveMean averages n posterior predictive draws per observed variable.
func PredictiveMean(ctx context.Context, ev *evaluator.Evaluator, unconstrained *params.Set, n int, rng *rand.Rand) (*params.Set, error) {
	draws, err := PosteriorPredictive(ctx, ev, unconstrained, n, rng)
	if err != nil {
		return nil, err
	}
	mean := params.New()
	if len(draws) == 0 {
		return mean, nil
	}
	for _, name := range draws[0].Names() {
		samples := make([]tensor.Tensor, len(draws))
		for i, d := range draws {
			samples[i], _ = d.Get(name)
		}
		m, err := tensor.Mean(samples)
		if err != nil {
			return nil, err
		}
		mean.Put(name, m)
	}
	return mean, nil
}
