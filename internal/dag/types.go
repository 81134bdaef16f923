package dag

import "sync"

// Graph is a collection of nodes and their dependencies, representing a DAG.
// Nodes and edges remember their insertion order so that traversals are
// deterministic. All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the nodes map and the order slice.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*node
	// order lists node IDs in the order they were added.
	order []string
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using string IDs).
type node struct {
	// id is the unique identifier for the node.
	id string
	// deps holds the nodes this node depends on (predecessors), in edge order.
	deps []*node
	// dependents holds the nodes that depend on this node (successors).
	dependents []*node
}
