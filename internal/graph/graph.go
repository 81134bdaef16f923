package graph

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/specialistvlad/mapvar/internal/ctxlog"
	"github.com/specialistvlad/mapvar/internal/dag"
	"github.com/specialistvlad/mapvar/internal/mapvarerr"
	"github.com/specialistvlad/mapvar/internal/model"
)

// Graph is the validated, ordered form of a model.
type Graph struct {
	nodes    map[string]*model.Node
	order    []*model.Node
	observed []string
	isObs    map[string]bool
	// constraints lists the constraint-function names in declaration order.
	constraints []string
}

// Build constructs a complete, validated dependency graph from a model spec.
func Build(ctx context.Context, spec model.Spec) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.", "nodes", len(spec.Nodes), "constraints", len(spec.Constraints))

	g := &Graph{nodes: make(map[string]*model.Node, len(spec.Nodes)+len(spec.Constraints))}
	topology := dag.New()

	// First pass: register nodes from both mappings.
	if err := g.addNodes(topology, spec.Nodes, false); err != nil {
		return nil, err
	}
	if err := g.addNodes(topology, spec.Constraints, true); err != nil {
		return nil, err
	}
	logger.Debug("Build: Node registration complete.", "node_count", topology.Len())

	// Second pass: link declared dependencies.
	for _, n := range slices.Concat(spec.Nodes, spec.Constraints) {
		for _, dep := range n.Deps {
			if _, ok := g.nodes[dep]; !ok {
				return nil, mapvarerr.New(mapvarerr.ErrInvalidGraph, "node %q depends on unknown node %q", n.Name, dep)
			}
			if err := topology.AddEdge(dep, n.Name); err != nil {
				return nil, mapvarerr.New(mapvarerr.ErrInvalidGraph, "linking %q: %v", n.Name, err)
			}
		}
	}
	logger.Debug("Build: Node linking complete.")

	// Third pass: observed names.
	g.isObs = make(map[string]bool, len(spec.Observed))
	for _, name := range spec.Observed {
		n, ok := g.nodes[name]
		if !ok {
			return nil, mapvarerr.New(mapvarerr.ErrInvalidGraph, "observed variable %q is not a model node", name)
		}
		if !n.Kind.IsRandom() {
			return nil, mapvarerr.New(mapvarerr.ErrInvalidGraph, "observed variable %q is a %s node, not a random variable", name, n.Kind)
		}
		if !g.isObs[name] {
			g.isObs[name] = true
			g.observed = append(g.observed, name)
		}
	}

	// Fourth pass: evaluation order.
	order, err := topology.TopologicalOrder()
	if err != nil {
		var cycleErr *dag.CycleError
		if errors.As(err, &cycleErr) {
			return nil, mapvarerr.New(mapvarerr.ErrCyclicDependency, "%s", strings.Join(cycleErr.Path, " -> "))
		}
		return nil, err
	}
	g.order = make([]*model.Node, len(order))
	for i, name := range order {
		g.order[i] = g.nodes[name]
	}
	logger.Debug("Build: Cycle detection passed.", "order", order)

	return g, nil
}

func (g *Graph) addNodes(topology *dag.Graph, nodes []*model.Node, constraints bool) error {
	for _, n := range nodes {
		if n == nil {
			return mapvarerr.New(mapvarerr.ErrInvalidGraph, "nil node")
		}
		if err := n.Validate(); err != nil {
			return mapvarerr.New(mapvarerr.ErrInvalidGraph, "%v", err)
		}
		if constraints != (n.Kind == model.KindConstraint) {
			if constraints {
				return mapvarerr.New(mapvarerr.ErrInvalidGraph, "constraint mapping entry %q is a %s node", n.Name, n.Kind)
			}
			return mapvarerr.New(mapvarerr.ErrInvalidGraph, "constraint node %q belongs in the constraint mapping", n.Name)
		}
		if _, exists := g.nodes[n.Name]; exists {
			return mapvarerr.New(mapvarerr.ErrInvalidGraph, "duplicate node name %q", n.Name)
		}
		g.nodes[n.Name] = n
		topology.AddNode(n.Name)
		if constraints {
			g.constraints = append(g.constraints, n.Name)
		}
	}
	return nil
}

// Node returns a node by name.
func (g *Graph) Node(name string) (*model.Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Order returns all nodes, dependencies first.
func (g *Graph) Order() []*model.Node {
	return g.order
}

// Len returns the number of nodes including constraint functions.
func (g *Graph) Len() int {
	return len(g.order)
}

// IsObserved reports whether name is an observed variable.
func (g *Graph) IsObserved(name string) bool {
	return g.isObs[name]
}

// Observed returns the observed variable names.
func (g *Graph) Observed() []string {
	return slices.Clone(g.observed)
}

// Constraints returns the constraint-function names.
func (g *Graph) Constraints() []string {
	return slices.Clone(g.constraints)
}
