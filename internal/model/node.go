// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/mapvar/internal/dist"
	"github.com/specialistvlad/mapvar/internal/tensor"
)

// Kind classifies a node and decides how the evaluator resolves it.
type Kind int

const (
	// KindLeaf is a stochastic node with a fixed distribution.
	KindLeaf Kind = iota
	// KindStochastic is a distribution parameterized by other nodes.
	KindStochastic
	// KindDeterministic is a point transform of other nodes.
	KindDeterministic
	// KindConstraint is a constraint function of unconstrained nodes.
	KindConstraint
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindStochastic:
		return "stochastic"
	case KindDeterministic:
		return "deterministic"
	case KindConstraint:
		return "constraint"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsRandom reports whether nodes of this kind carry a distribution.
func (k Kind) IsRandom() bool {
	return k == KindLeaf || k == KindStochastic
}

// Args holds the resolved values of a node's dependencies, keyed by name.
type Args map[string]tensor.Tensor

// Get returns the value of a dependency or an error naming the missing one.
func (a Args) Get(name string) (tensor.Tensor, error) {
	v, ok := a[name]
	if !ok {
		return tensor.Tensor{}, fmt.Errorf("argument %q not provided", name)
	}
	return v, nil
}

// TransformFunc computes a deterministic value from dependency values.
type TransformFunc func(args Args) (tensor.Tensor, error)

// DistributionFunc builds a distribution from dependency values.
type DistributionFunc func(args Args) (dist.Distribution, error)

// Node is one named entry of a model.
type Node struct {
	Name string
	Kind Kind
	// Deps lists the names of the nodes this node reads, in argument order.
	Deps []string

	// Dist is set for KindLeaf.
	Dist dist.Distribution
	// Distribution is set for KindStochastic.
	Distribution DistributionFunc
	// Transform is set for KindDeterministic and KindConstraint.
	Transform TransformFunc
}

// Leaf declares a stochastic node with a fixed distribution.
func Leaf(name string, d dist.Distribution) *Node {
	return &Node{Name: name, Kind: KindLeaf, Dist: d}
}

// Stochastic declares a distribution parameterized by the named dependencies.
func Stochastic(name string, deps []string, fn DistributionFunc) *Node {
	return &Node{Name: name, Kind: KindStochastic, Deps: slices.Clone(deps), Distribution: fn}
}

// Deterministic declares a point transform of the named dependencies.
func Deterministic(name string, deps []string, fn TransformFunc) *Node {
	return &Node{Name: name, Kind: KindDeterministic, Deps: slices.Clone(deps), Transform: fn}
}

// Constraint declares a constraint function of the named dependencies.
func Constraint(name string, deps []string, fn TransformFunc) *Node {
	return &Node{Name: name, Kind: KindConstraint, Deps: slices.Clone(deps), Transform: fn}
}

// Validate checks that the node carries the callable its kind needs.
func (n *Node) Validate() error {
	if n.Name == "" {
		return fmt.Errorf("node has an empty name")
	}
	switch n.Kind {
	case KindLeaf:
		if n.Dist == nil {
			return fmt.Errorf("leaf %q has no distribution", n.Name)
		}
		if len(n.Deps) > 0 {
			return fmt.Errorf("leaf %q cannot declare dependencies", n.Name)
		}
	case KindStochastic:
		if n.Distribution == nil {
			return fmt.Errorf("stochastic node %q has no distribution function", n.Name)
		}
	case KindDeterministic, KindConstraint:
		if n.Transform == nil {
			return fmt.Errorf("%s node %q has no transform", n.Kind, n.Name)
		}
	default:
		return fmt.Errorf("node %q has unknown kind %s", n.Name, n.Kind)
	}
	return nil
}

// Spec is the complete authoring input for a graph.
type Spec struct {
	// Nodes is the model mapping, in declaration order.
	Nodes []*Node
	// Constraints is the optional constraint-function mapping.
	Constraints []*Node
	// Observed names the nodes whose values come from observed data.
	Observed []string
}
