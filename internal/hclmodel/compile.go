package hclmodel

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/mapvar/internal/ctxlog"
	"github.com/specialistvlad/mapvar/internal/dist"
	"github.com/specialistvlad/mapvar/internal/model"
	"github.com/specialistvlad/mapvar/internal/tensor"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
)

// dataRoot is the variable through which expressions read data columns.
const dataRoot = "data"

// compiler turns decoded blocks into model nodes whose callables evaluate
// the block's expression against their dependency values.
type compiler struct {
	funcs map[string]function.Function
	data  cty.Value
}

// references returns the sorted, unique node names an expression reads.
func references(expr hcl.Expression) []string {
	seen := make(map[string]struct{})
	for _, traversal := range expr.Variables() {
		if name := traversal.RootName(); name != dataRoot {
			seen[name] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func (c *compiler) evalContext(args model.Args) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(args)+1)
	vars[dataRoot] = c.data
	for name, v := range args {
		vars[name] = tensorToCty(v)
	}
	return &hcl.EvalContext{Variables: vars, Functions: c.funcs}
}

func (c *compiler) distribution(name string, expr hcl.Expression, args model.Args) (dist.Distribution, error) {
	val, diags := expr.Value(c.evalContext(args))
	if diags.HasErrors() {
		return nil, fmt.Errorf("distribution of %q: %w", name, diags)
	}
	d, err := distributionFromCty(val)
	if err != nil {
		return nil, fmt.Errorf("distribution of %q: %w", name, err)
	}
	return d, nil
}

// random compiles a parameter or observed block. A distribution that reads
// no other node is evaluated once, here, and becomes a leaf.
func (c *compiler) random(ctx context.Context, b *RandomBlock) (*model.Node, error) {
	logger := ctxlog.FromContext(ctx).With("node", b.Name)
	if b.Name == dataRoot {
		return nil, fmt.Errorf("%q is reserved for data columns and cannot name a node", dataRoot)
	}

	deps := references(b.Distribution)
	if len(deps) == 0 {
		d, err := c.distribution(b.Name, b.Distribution, nil)
		if err != nil {
			return nil, err
		}
		logger.Debug("Compiled leaf node.", "shape", d.Shape())
		return model.Leaf(b.Name, d), nil
	}

	expr := b.Distribution
	logger.Debug("Compiled stochastic node.", "deps", deps)
	return model.Stochastic(b.Name, deps, func(args model.Args) (dist.Distribution, error) {
		return c.distribution(b.Name, expr, args)
	}), nil
}

// value compiles a transform or constraint block.
func (c *compiler) value(b *ValueBlock, kind model.Kind) (*model.Node, error) {
	if b.Name == dataRoot {
		return nil, fmt.Errorf("%q is reserved for data columns and cannot name a node", dataRoot)
	}
	expr := b.Value
	fn := func(args model.Args) (tensor.Tensor, error) {
		val, diags := expr.Value(c.evalContext(args))
		if diags.HasErrors() {
			return tensor.Tensor{}, fmt.Errorf("value of %q: %w", b.Name, diags)
		}
		t, err := tensorFromCty(val)
		if err != nil {
			return tensor.Tensor{}, fmt.Errorf("value of %q: %w", b.Name, err)
		}
		return t, nil
	}

	deps := references(expr)
	if kind == model.KindConstraint {
		return model.Constraint(b.Name, deps, fn), nil
	}
	return model.Deterministic(b.Name, deps, fn), nil
}
