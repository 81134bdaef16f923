package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModelPaths []string // hcl files or directories

	LogFormat string
	LogLevel  string

	// Overrides for the model's settings block. A nil field keeps the
	// value from the files.
	SkipVariance    *bool
	Workers         *int
	Seed            *uint64
	PredictiveDraws *int
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ModelPaths) == 0 {
		return nil, errors.New("ModelPaths is a required configuration field and cannot be empty")
	}
	if cfg.Workers != nil && *cfg.Workers < 1 {
		return nil, errors.New("workers must be at least 1")
	}
	if cfg.PredictiveDraws != nil && *cfg.PredictiveDraws < 0 {
		return nil, errors.New("predictive draws must not be negative")
	}
	return &cfg, nil
}
