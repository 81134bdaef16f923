package dag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a")
	assert.Len(t, g.nodes, 1)
	nodeA, ok := g.nodes["a"]
	require.True(t, ok)
	assert.Equal(t, "a", nodeA.id)

	g.AddNode("a") // Test idempotency
	assert.Len(t, g.nodes, 1)
	assert.Equal(t, []string{"a"}, g.order)

	g.AddNode("b")
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, []string{"a", "b"}, g.order)
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("a", "b") // b depends on a
		require.NoError(t, err)
		require.NoError(t, g.AddEdge("a", "b")) // duplicate edge is ignored

		deps, err := g.Dependencies("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, deps)

		dependents, err := g.Dependents("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, dependents)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination node not found")

		_, err = g.Dependencies("dne")
		assert.ErrorContains(t, err, "node not found")
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		g := New()
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		g.AddNode("d")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("a", "c")) // Transitive edge
		require.NoError(t, g.AddEdge("c", "d"))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("self reference is a cycle", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		require.NoError(t, g.AddEdge("a", "a"))

		var cycleErr *CycleError
		require.True(t, errors.As(g.DetectCycles(), &cycleErr))
		assert.Equal(t, []string{"a", "a"}, cycleErr.Path)
	})

	t.Run("longer cycle is detected with its path", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("c", "a")) // Cycle back to the start

		err := g.DetectCycles()
		require.Error(t, err)
		assert.ErrorContains(t, err, "cycle detected")

		var cycleErr *CycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Len(t, cycleErr.Path, 4)
		assert.Equal(t, cycleErr.Path[0], cycleErr.Path[3])
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))

		g.AddNode("x")
		g.AddNode("y")
		g.AddNode("z")
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "z"))
		require.NoError(t, g.AddEdge("z", "y")) // Cycle

		assert.ErrorContains(t, g.DetectCycles(), "cycle detected")
	})
}

func TestTopologicalOrder(t *testing.T) {
	t.Run("dependencies are pulled ahead of the node that needs them", func(t *testing.T) {
		// Declared in the order a model author would write them: the observed
		// node first, its parameters afterwards.
		g := New()
		for _, id := range []string{"y", "beta", "alpha", "unconstrained_alpha"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("alpha", "y"))
		require.NoError(t, g.AddEdge("beta", "y"))
		require.NoError(t, g.AddEdge("unconstrained_alpha", "alpha"))

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"unconstrained_alpha", "alpha", "beta", "y"}, order)
	})

	t.Run("independent nodes keep insertion order", func(t *testing.T) {
		g := New()
		g.AddNode("c")
		g.AddNode("a")
		g.AddNode("b")

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a", "b"}, order)
	})

	t.Run("every node follows its dependencies", func(t *testing.T) {
		g := New()
		for _, id := range []string{"e", "d", "c", "b", "a"} {
			g.AddNode(id)
		}
		edges := [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}, {"d", "e"}}
		for _, e := range edges {
			require.NoError(t, g.AddEdge(e[0], e[1]))
		}

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		pos := make(map[string]int)
		for i, id := range order {
			pos[id] = i
		}
		for _, e := range edges {
			assert.Less(t, pos[e[0]], pos[e[1]], "%s must precede %s", e[0], e[1])
		}
	})
}
