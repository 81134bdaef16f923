// Package dag holds the dependency structure of a model graph: which named
// node needs the value of which other node. It detects cycles and produces
// the deterministic evaluation order the graph evaluator walks.
package dag
