// Package graph compiles a model.Spec into an immutable, validated Graph.
//
// # Why Graph Package Exists
//
// The evaluator needs three things from a model before it can compute a
// log-density: a way to look nodes up by name, the set of observed nodes, and
// an order in which every node comes after the nodes it reads. The Graph
// combines the authored nodes with the dependency structure held by the dag
// package and answers all three.
//
// # Build Passes
//
//  1. **Nodes:** every model node and constraint function is registered.
//     Names must be unique across both mappings.
//  2. **Links:** each declared dependency becomes an edge. Unknown names are
//     rejected.
//  3. **Observed:** observed names must refer to stochastic nodes.
//  4. **Order:** the topological order is computed once. A cycle fails the
//     build with mapvarerr.ErrCyclicDependency before anything is evaluated.
//
// # Thread-Safety
//
// A built Graph is never mutated and may be shared by concurrent evaluations.
package graph
