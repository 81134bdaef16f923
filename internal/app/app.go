package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/specialistvlad/mapvar/internal/hclmodel"
)

// Loader turns model files into a model ready for estimation.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*hclmodel.Model, error)
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	loader Loader
	config *Config
}

// NewApp is the constructor for the main application. Reports go to outW
// and logs to logW, each App with its own isolated logger.
func NewApp(outW, logW io.Writer, cfg *Config, loader Loader) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	if loader == nil {
		loader = hclmodel.NewLoader()
	}
	return &App{
		outW:   outW,
		logger: logger,
		loader: loader,
		config: cfg,
	}
}
