// Package evaluator resolves a model graph into values and a log-density.
//
// One evaluation walks the graph's precomputed order once. What happens at
// each node depends on the node's kind, whether it is observed, and the
// requested Mode:
//
//   - Latent random nodes are initialized (GenerateUnconstrained) or read
//     from the supplied unconstrained set (every other mode).
//   - Observed random nodes take their observed value, or a fresh draw in
//     GeneratePosteriorPredictive.
//   - Deterministic and constraint nodes are computed from their
//     dependencies and collected as constrained values.
//
// Random nodes add their log-density to the total when requested.
package evaluator

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/specialistvlad/mapvar/internal/ctxlog"
	"github.com/specialistvlad/mapvar/internal/dist"
	"github.com/specialistvlad/mapvar/internal/graph"
	"github.com/specialistvlad/mapvar/internal/mapvarerr"
	"github.com/specialistvlad/mapvar/internal/model"
	"github.com/specialistvlad/mapvar/internal/params"
	"github.com/specialistvlad/mapvar/internal/tensor"
)

// Request configures one evaluation.
type Request struct {
	Mode                 Mode
	AccumulateLogDensity bool
	// Unconstrained supplies latent values. It must be nil in
	// GenerateUnconstrained mode.
	Unconstrained *params.Set
	// Init only matters in GenerateUnconstrained mode.
	Init InitPolicy
	// Rand is used for sample-mean initialization and predictive draws.
	// A randomly seeded source is created when nil.
	Rand *rand.Rand
}

// Result is the outcome of one evaluation.
type Result struct {
	// LogDensity is 0 unless AccumulateLogDensity was set.
	LogDensity    float64
	Unconstrained *params.Set
	Constrained   *params.Set
	Predictive    *params.Set
}

// Evaluator evaluates one graph against one observed data set. It holds no
// mutable state and is safe for concurrent use.
type Evaluator struct {
	graph    *graph.Graph
	observed *params.Set
}

// New creates an evaluator. observed may be nil for models without observations.
func New(g *graph.Graph, observed *params.Set) *Evaluator {
	if observed == nil {
		observed = params.New()
	}
	return &Evaluator{graph: g, observed: observed}
}

// Graph returns the evaluated graph.
func (e *Evaluator) Graph() *graph.Graph { return e.graph }

func (r Request) validate() error {
	if !r.Mode.valid() {
		return mapvarerr.New(mapvarerr.ErrInvalidMode, "%s", r.Mode)
	}
	if r.Mode == GenerateUnconstrained && r.Unconstrained != nil {
		return mapvarerr.New(mapvarerr.ErrConflictingArguments, "unconstrained values cannot be supplied when generating them")
	}
	if r.Init != InitZero && r.Init != InitSampleMean {
		return mapvarerr.New(mapvarerr.ErrInvalidInitPolicy, "%s", r.Init)
	}
	return nil
}

// pass holds the working state of a single evaluation.
type pass struct {
	e      *Evaluator
	req    Request
	values map[string]tensor.Tensor
	res    *Result
}

// Evaluate resolves every node of the graph.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx)

	res := &Result{
		Unconstrained: req.Unconstrained,
		Constrained:   params.New(),
		Predictive:    params.New(),
	}
	if req.Mode == GenerateUnconstrained || res.Unconstrained == nil {
		res.Unconstrained = params.New()
	}
	p := &pass{e: e, req: req, values: make(map[string]tensor.Tensor, e.graph.Len()), res: res}

	for _, n := range e.graph.Order() {
		v, err := p.resolve(n)
		if err != nil {
			return nil, fmt.Errorf("evaluating node %q: %w", n.Name, err)
		}
		p.values[n.Name] = v
	}

	logger.Debug("Graph evaluated.", "mode", req.Mode, "log_density", res.LogDensity)
	return res, nil
}

func (p *pass) resolve(n *model.Node) (tensor.Tensor, error) {
	switch n.Kind {
	case model.KindLeaf:
		return p.random(n, func() (dist.Distribution, error) { return n.Dist, nil })
	case model.KindStochastic:
		return p.random(n, func() (dist.Distribution, error) { return n.Distribution(p.args(n)) })
	case model.KindDeterministic, model.KindConstraint:
		v, err := n.Transform(p.args(n))
		if err != nil {
			return tensor.Tensor{}, err
		}
		if p.req.Mode.recordsConstrained() {
			p.res.Constrained.Put(n.Name, v)
		}
		return v, nil
	default:
		return tensor.Tensor{}, mapvarerr.New(mapvarerr.ErrInvalidGraph, "unknown node kind %s", n.Kind)
	}
}

func (p *pass) args(n *model.Node) model.Args {
	args := make(model.Args, len(n.Deps))
	for _, dep := range n.Deps {
		args[dep] = p.values[dep]
	}
	return args
}

// random resolves a leaf or stochastic node. build is only called when the
// distribution is actually needed.
func (p *pass) random(n *model.Node, build func() (dist.Distribution, error)) (tensor.Tensor, error) {
	var (
		d   dist.Distribution
		v   tensor.Tensor
		err error
	)
	mode := p.req.Mode

	switch {
	case p.e.graph.IsObserved(n.Name) && mode == GeneratePosteriorPredictive:
		if d, err = build(); err != nil {
			return tensor.Tensor{}, err
		}
		v = d.Sample(p.rng())
		p.res.Predictive.Put(n.Name, v)

	case p.e.graph.IsObserved(n.Name):
		var ok bool
		if v, ok = p.e.observed.Get(n.Name); !ok {
			return tensor.Tensor{}, mapvarerr.New(mapvarerr.ErrMissingValue, "no observed data for %q", n.Name)
		}

	case mode == GenerateUnconstrained:
		if d, err = build(); err != nil {
			return tensor.Tensor{}, err
		}
		if v, err = p.initial(d); err != nil {
			return tensor.Tensor{}, err
		}
		p.res.Unconstrained.Put(n.Name, v)

	default:
		var ok bool
		if v, ok = p.res.Unconstrained.Get(n.Name); !ok {
			return tensor.Tensor{}, mapvarerr.New(mapvarerr.ErrMissingValue, "no unconstrained value for %q", n.Name)
		}
	}

	if !p.req.AccumulateLogDensity {
		return v, nil
	}
	if d == nil {
		if d, err = build(); err != nil {
			return tensor.Tensor{}, err
		}
	}
	lp, err := d.LogProb(v)
	if err != nil {
		return tensor.Tensor{}, err
	}
	p.res.LogDensity += lp
	return v, nil
}

func (p *pass) initial(d dist.Distribution) (tensor.Tensor, error) {
	if p.req.Init == InitZero {
		return tensor.Zeros(d.Shape()), nil
	}
	rng := p.rng()
	draws := make([]tensor.Tensor, SampleMeanDraws)
	for i := range draws {
		draws[i] = d.Sample(rng)
	}
	return tensor.Mean(draws)
}

func (p *pass) rng() *rand.Rand {
	if p.req.Rand == nil {
		p.req.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return p.req.Rand
}
