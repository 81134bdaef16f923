package hclmodel

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/mapvar/internal/ctxlog"
	"github.com/specialistvlad/mapvar/internal/dataset"
	"github.com/specialistvlad/mapvar/internal/evaluator"
	"github.com/specialistvlad/mapvar/internal/fsutil"
	"github.com/specialistvlad/mapvar/internal/mapopt"
	"github.com/specialistvlad/mapvar/internal/model"
	"github.com/specialistvlad/mapvar/internal/params"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// Settings are the estimation settings declared by a model.
type Settings struct {
	Init            evaluator.InitPolicy
	SkipVariance    bool
	Optimizer       mapopt.Settings
	Workers         int
	Seed            *uint64
	PredictiveDraws int
}

// Model is a loaded model ready for estimation.
type Model struct {
	Spec model.Spec
	// Data holds every data column. Observed nodes read the column that
	// shares their name.
	Data     *params.Set
	Settings Settings
	Files    []string
}

// Loader reads HCL model files.
type Loader struct {
	funcs map[string]function.Function
}

// NewLoader creates a new HCL model loader.
func NewLoader() *Loader {
	return &Loader{funcs: functions()}
}

// declaration is one node block together with its source position, so nodes
// can be emitted in file order regardless of block type.
type declaration struct {
	file int
	pos  hcl.Pos
	node *model.Node
}

// Load parses every .hcl file under the given paths and compiles them into
// one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl model files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var (
		settings   []*SettingsBlock
		dataBlocks []*DataBlock
		dataFiles  []string
		roots      []fileRoot
	)
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		roots = append(roots, root)
		settings = append(settings, root.Settings...)
		for _, b := range root.Data {
			dataBlocks = append(dataBlocks, b)
			dataFiles = append(dataFiles, file)
		}
	}
	if len(settings) > 1 {
		return nil, fmt.Errorf("duplicate \"settings\" block: only one is allowed")
	}
	if len(dataBlocks) > 1 {
		return nil, fmt.Errorf("duplicate \"data\" block: only one is allowed (found in %s and %s)", dataFiles[0], dataFiles[1])
	}

	m := &Model{Files: files, Data: params.New()}
	if len(settings) == 1 {
		if m.Settings, err = translateSettings(settings[0]); err != nil {
			return nil, err
		}
	}
	if len(dataBlocks) == 1 {
		if m.Data, err = l.loadData(ctx, dataBlocks[0], filepath.Dir(dataFiles[0])); err != nil {
			return nil, err
		}
	}

	c := &compiler{funcs: l.funcs, data: dataObject(m.Data)}
	var decls []declaration
	for i, root := range roots {
		for _, b := range root.Parameters {
			n, err := c.random(ctx, b)
			if err != nil {
				return nil, err
			}
			decls = append(decls, declaration{file: i, pos: b.Distribution.Range().Start, node: n})
		}
		for _, b := range root.Observed {
			n, err := c.random(ctx, b)
			if err != nil {
				return nil, err
			}
			decls = append(decls, declaration{file: i, pos: b.Distribution.Range().Start, node: n})
			m.Spec.Observed = append(m.Spec.Observed, b.Name)
		}
		for _, b := range root.Transforms {
			n, err := c.value(b, model.KindDeterministic)
			if err != nil {
				return nil, err
			}
			decls = append(decls, declaration{file: i, pos: b.Value.Range().Start, node: n})
		}
		for _, b := range root.Constraints {
			n, err := c.value(b, model.KindConstraint)
			if err != nil {
				return nil, err
			}
			m.Spec.Constraints = append(m.Spec.Constraints, n)
		}
	}
	slices.SortStableFunc(decls, func(a, b declaration) int {
		if a.file != b.file {
			return a.file - b.file
		}
		return a.pos.Byte - b.pos.Byte
	})
	for _, d := range decls {
		m.Spec.Nodes = append(m.Spec.Nodes, d.node)
	}

	for _, name := range m.Spec.Observed {
		if _, ok := m.Data.Get(name); !ok {
			return nil, fmt.Errorf("observed %q has no data column of the same name", name)
		}
	}

	logger.Debug("HCL loading complete.", "nodes", len(m.Spec.Nodes), "constraints", len(m.Spec.Constraints), "observed", m.Spec.Observed, "columns", m.Data.Names())
	return m, nil
}

// loadData merges the data file, if any, with the inline columns. Inline
// columns win on name clashes.
func (l *Loader) loadData(ctx context.Context, b *DataBlock, dir string) (*params.Set, error) {
	set := params.New()
	if b.File != nil {
		path := *b.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		fromFile, err := dataset.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		set = fromFile
	}

	attrs, diags := b.Columns.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid data block: %w", diags)
	}
	evalCtx := &hcl.EvalContext{Functions: l.funcs}
	for _, attr := range sortedAttributes(attrs) {
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("data column %q: %w", attr.Name, diags)
		}
		t, err := tensorFromCty(val)
		if err != nil {
			return nil, fmt.Errorf("data column %q: %w", attr.Name, err)
		}
		set.Put(attr.Name, t)
	}
	return set, nil
}

// sortedAttributes returns attributes in source order.
func sortedAttributes(attrs hcl.Attributes) []*hcl.Attribute {
	out := make([]*hcl.Attribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b *hcl.Attribute) int { return a.Range.Start.Byte - b.Range.Start.Byte })
	return out
}

func dataObject(set *params.Set) cty.Value {
	cols := make(map[string]cty.Value, set.Len())
	for _, name := range set.Names() {
		v, _ := set.Get(name)
		cols[name] = tensorToCty(v)
	}
	return cty.ObjectVal(cols)
}

func translateSettings(s *SettingsBlock) (Settings, error) {
	var out Settings
	if s.InitPolicy != nil {
		p, err := evaluator.ParseInitPolicy(*s.InitPolicy)
		if err != nil {
			return Settings{}, fmt.Errorf("settings: %w", err)
		}
		out.Init = p
	}
	if s.SkipVariance != nil {
		out.SkipVariance = *s.SkipVariance
	}
	if s.MaxIterations != nil {
		out.Optimizer.MaxIterations = *s.MaxIterations
	}
	if s.GradientThreshold != nil {
		out.Optimizer.GradientThreshold = *s.GradientThreshold
	}
	if s.FunctionTolerance != nil {
		out.Optimizer.FunctionTolerance = *s.FunctionTolerance
	}
	if s.GradientStep != nil {
		out.Optimizer.GradientStep = *s.GradientStep
	}
	if s.Workers != nil {
		if *s.Workers < 1 {
			return Settings{}, fmt.Errorf("settings: workers must be at least 1, got %d", *s.Workers)
		}
		out.Workers = *s.Workers
	}
	if s.PredictiveDraws != nil {
		if *s.PredictiveDraws < 0 {
			return Settings{}, fmt.Errorf("settings: predictive_draws cannot be negative, got %d", *s.PredictiveDraws)
		}
		out.PredictiveDraws = *s.PredictiveDraws
	}
	out.Seed = s.Seed
	return out, nil
}
