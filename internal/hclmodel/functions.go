package hclmodel

import (
	"github.com/specialistvlad/mapvar/internal/dist"
	"github.com/specialistvlad/mapvar/internal/tensor"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// tensorParam accepts a number or a list of numbers.
func tensorParam(name string) function.Parameter {
	return function.Parameter{Name: name, Type: cty.DynamicPseudoType}
}

func tensorArgs(args []cty.Value) ([]tensor.Tensor, error) {
	out := make([]tensor.Tensor, len(args))
	for i, a := range args {
		t, err := tensorFromCty(a)
		if err != nil {
			return nil, function.NewArgError(i, err)
		}
		out[i] = t
	}
	return out, nil
}

// distributionFunc wraps a distribution constructor taking len(names)
// tensor parameters.
func distributionFunc(build func(p []tensor.Tensor) (dist.Distribution, error), names ...string) function.Function {
	params := make([]function.Parameter, len(names))
	for i, n := range names {
		params[i] = tensorParam(n)
	}
	return function.New(&function.Spec{
		Params: params,
		Type:   function.StaticReturnType(distributionType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			p, err := tensorArgs(args)
			if err != nil {
				return cty.NilVal, err
			}
			d, err := build(p)
			if err != nil {
				return cty.NilVal, err
			}
			return distributionVal(d), nil
		},
	})
}

// elementwise2 wraps a broadcasting binary tensor operation.
func elementwise2(op func(a, b tensor.Tensor) (tensor.Tensor, error)) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{tensorParam("a"), tensorParam("b")},
		Type:   function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			p, err := tensorArgs(args)
			if err != nil {
				return cty.NilVal, err
			}
			out, err := op(p[0], p[1])
			if err != nil {
				return cty.NilVal, err
			}
			return tensorToCty(out), nil
		},
	})
}

func elementwise1(op func(t tensor.Tensor) tensor.Tensor) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{tensorParam("x")},
		Type:   function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			p, err := tensorArgs(args)
			if err != nil {
				return cty.NilVal, err
			}
			return tensorToCty(op(p[0])), nil
		},
	})
}

// logTransformedFunc is log_transformed(d): the distribution of log(X).
var logTransformedFunc = function.New(&function.Spec{
	Params: []function.Parameter{{Name: "base", Type: distributionType}},
	Type:   function.StaticReturnType(distributionType),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		base, err := distributionFromCty(args[0])
		if err != nil {
			return cty.NilVal, function.NewArgError(0, err)
		}
		return distributionVal(dist.LogTransformed{Base: base}), nil
	},
})

// functions returns the table available to every model expression.
func functions() map[string]function.Function {
	return map[string]function.Function{
		// Distributions.
		"normal": distributionFunc(func(p []tensor.Tensor) (dist.Distribution, error) {
			return dist.Normal(p[0], p[1])
		}, "loc", "scale"),
		"chi2": distributionFunc(func(p []tensor.Tensor) (dist.Distribution, error) {
			return dist.ChiSquared(p[0])
		}, "df"),
		"gamma": distributionFunc(func(p []tensor.Tensor) (dist.Distribution, error) {
			return dist.Gamma(p[0], p[1])
		}, "shape", "rate"),
		"exponential": distributionFunc(func(p []tensor.Tensor) (dist.Distribution, error) {
			return dist.Exponential(p[0])
		}, "rate"),
		"uniform": distributionFunc(func(p []tensor.Tensor) (dist.Distribution, error) {
			return dist.Uniform(p[0], p[1])
		}, "low", "high"),
		"lognormal": distributionFunc(func(p []tensor.Tensor) (dist.Distribution, error) {
			return dist.LogNormal(p[0], p[1])
		}, "mu", "sigma"),
		"student_t": distributionFunc(func(p []tensor.Tensor) (dist.Distribution, error) {
			return dist.StudentsT(p[0], p[1], p[2])
		}, "df", "loc", "scale"),
		"log_transformed": logTransformedFunc,

		// Vectorized arithmetic.
		"add":      elementwise2(tensor.Add),
		"sub":      elementwise2(tensor.Sub),
		"mul":      elementwise2(tensor.Mul),
		"div":      elementwise2(tensor.Div),
		"exp":      elementwise1(tensor.Exp),
		"log":      elementwise1(tensor.Log),
		"identity": elementwise1(func(t tensor.Tensor) tensor.Tensor { return t }),
		"sum": elementwise1(func(t tensor.Tensor) tensor.Tensor {
			return tensor.Scalar(t.Sum())
		}),

		// Scalar helpers from the cty standard library.
		"abs":    stdlib.AbsoluteFunc,
		"max":    stdlib.MaxFunc,
		"min":    stdlib.MinFunc,
		"floor":  stdlib.FloorFunc,
		"ceil":   stdlib.CeilFunc,
		"length": stdlib.LengthFunc,
		"concat": stdlib.ConcatFunc,
	}
}
