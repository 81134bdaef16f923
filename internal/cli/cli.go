package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/mapvar/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("mapvar", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
mapvar - MAP estimation with delta-method posterior covariance.

Usage:
  mapvar [options] [MODEL_PATH...]

Arguments:
  MODEL_PATH
    Path to a single .hcl file or a directory containing .hcl files.

Options:
`)
		flagSet.PrintDefaults()
	}

	modelFlag := flagSet.String("model", "", "Path to the model file or directory.")
	mFlag := flagSet.String("m", "", "Path to the model file or directory (shorthand).")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	skipVarianceFlag := flagSet.Bool("skip-variance", false, "Stop after the MAP point. Overrides the model's settings block.")
	workersFlag := flagSet.Int("workers", 1, "Concurrent finite-difference evaluations. Overrides the model's settings block.")
	seedFlag := flagSet.Uint64("seed", 0, "Random seed for initialization and predictive draws. Overrides the model's settings block.")
	drawsFlag := flagSet.Int("predictive-draws", 0, "Posterior predictive draws averaged at the MAP point. Overrides the model's settings block.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	switch {
	case *modelFlag != "":
		paths = append(paths, *modelFlag)
	case *mFlag != "":
		paths = append(paths, *mFlag)
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Model paths determined.", "paths", paths)

	if len(paths) == 0 {
		slog.Debug("No model path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cfg := app.Config{
		ModelPaths: paths,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
	}
	// Only flags given explicitly override the model's settings block.
	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "skip-variance":
			cfg.SkipVariance = skipVarianceFlag
		case "workers":
			cfg.Workers = workersFlag
		case "seed":
			cfg.Seed = seedFlag
		case "predictive-draws":
			cfg.PredictiveDraws = drawsFlag
		}
	})
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(cfg)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
