// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the format-agnostic representation of a probabilistic
// model: a set of named nodes, each of which is a random variable or a
// deterministic function of other nodes. Model authors build nodes either
// directly in Go or through a loader such as hclmodel; the graph package turns
// them into a validated, ordered graph.
//
// # Core Concepts
//
//   - Leaf: a stochastic node with a fixed distribution, e.g. a prior.
//
//   - Stochastic: a distribution whose parameters are computed from other
//     nodes, e.g. a likelihood `y ~ Normal(alpha + beta*x, 1)`.
//
//   - Deterministic: a point transform of other nodes. Its value is a
//     constrained parameter, e.g. `alpha = exp(unconstrained_alpha)`.
//
//   - Constraint: a function producing a constrained value from unconstrained
//     ones. Constraints live in their own mapping next to the model nodes and
//     behave like deterministic nodes.
//
// Every non-leaf node declares its dependencies explicitly, by name and in
// order. Nothing is discovered at evaluation time.
package model
