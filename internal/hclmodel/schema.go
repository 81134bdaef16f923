package hclmodel

import "github.com/hashicorp/hcl/v2"

// --- Estimation settings ---

// SettingsBlock is the optional `settings` block. Every attribute is
// optional; absent ones keep their defaults.
type SettingsBlock struct {
	InitPolicy        *string  `hcl:"init_policy,optional"`
	SkipVariance      *bool    `hcl:"skip_variance,optional"`
	MaxIterations     *int     `hcl:"max_iterations,optional"`
	GradientThreshold *float64 `hcl:"gradient_threshold,optional"`
	FunctionTolerance *float64 `hcl:"function_tolerance,optional"`
	GradientStep      *float64 `hcl:"gradient_step,optional"`
	Workers           *int     `hcl:"workers,optional"`
	Seed              *uint64  `hcl:"seed,optional"`
	PredictiveDraws   *int     `hcl:"predictive_draws,optional"`
}

// DataBlock is the optional `data` block. `file` names a CSV or YAML file
// relative to the model file; every other attribute is an inline column.
type DataBlock struct {
	File    *string  `hcl:"file,optional"`
	Columns hcl.Body `hcl:",remain"`
}

// --- Model nodes ---

// RandomBlock is a `parameter` or `observed` block.
type RandomBlock struct {
	Name         string         `hcl:"name,label"`
	Description  string         `hcl:"description,optional"`
	Distribution hcl.Expression `hcl:"distribution"`
}

// ValueBlock is a `transform` or `constraint` block.
type ValueBlock struct {
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	Value       hcl.Expression `hcl:"value"`
}

// fileRoot is used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Settings    []*SettingsBlock `hcl:"settings,block"`
	Data        []*DataBlock     `hcl:"data,block"`
	Parameters  []*RandomBlock   `hcl:"parameter,block"`
	Observed    []*RandomBlock   `hcl:"observed,block"`
	Transforms  []*ValueBlock    `hcl:"transform,block"`
	Constraints []*ValueBlock    `hcl:"constraint,block"`
}
