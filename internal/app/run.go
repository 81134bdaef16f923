package app

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/specialistvlad/mapvar/internal/ctxlog"
	"github.com/specialistvlad/mapvar/internal/hclmodel"
	"github.com/specialistvlad/mapvar/internal/mapvar"
	"github.com/specialistvlad/mapvar/internal/report"
)

// Run loads the model, estimates it and writes the report.
func (a *App) Run(ctx context.Context) (*mapvar.Result, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "paths", a.config.ModelPaths)

	m, err := a.loader.Load(ctx, a.config.ModelPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	a.logger.Debug("Model loaded.", "files", m.Files, "nodes", len(m.Spec.Nodes))

	res, err := mapvar.Estimate(ctx, m.Spec, m.Data, a.options(m.Settings))
	if err != nil {
		return nil, fmt.Errorf("estimation failed: %w", err)
	}

	if err := report.Render(a.outW, res); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	a.logger.Info("Estimation finished.", "run_id", res.RunID, "summary", report.Summary(res))
	return res, nil
}

// options merges the model's settings with the command-line overrides.
func (a *App) options(s hclmodel.Settings) mapvar.Options {
	opts := mapvar.Options{
		Init:            s.Init,
		Optimizer:       s.Optimizer,
		SkipVariance:    s.SkipVariance,
		Workers:         s.Workers,
		PredictiveDraws: s.PredictiveDraws,
	}
	seed := s.Seed

	cfg := a.config
	if cfg.SkipVariance != nil {
		opts.SkipVariance = *cfg.SkipVariance
	}
	if cfg.Workers != nil {
		opts.Workers = *cfg.Workers
	}
	if cfg.PredictiveDraws != nil {
		opts.PredictiveDraws = *cfg.PredictiveDraws
	}
	if cfg.Seed != nil {
		seed = cfg.Seed
	}
	if seed != nil {
		opts.Rand = rand.New(rand.NewPCG(*seed, 0))
	}
	return opts
}
