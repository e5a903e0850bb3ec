package dag

import (
	"testing"

	"github.com/google/go-cmp/cmp"
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

	g.AddNode(0)
	assert.Len(t, g.nodes, 1)
	n0, ok := g.nodes[0]
	require.True(t, ok)
	assert.Equal(t, 0, n0.id)
	assert.NotNil(t, n0.deps)
	assert.NotNil(t, n0.dependents)

	g.AddNode(0) // Test idempotency
	assert.Len(t, g.nodes, 1)

	g.AddNode(1)
	assert.Equal(t, 2, g.Len())
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode(0)
		g.AddNode(1)

		err := g.AddEdge(0, 1) // 1 depends on 0
		require.NoError(t, err)

		assert.Contains(t, g.nodes[0].dependents, 1)
		assert.Contains(t, g.nodes[1].deps, 0)

		deps, err := g.Dependencies(1)
		require.NoError(t, err)
		assert.Equal(t, []int{0}, deps)
		dependents, err := g.Dependents(0)
		require.NoError(t, err)
		assert.Equal(t, []int{1}, dependents)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode(0)
		g.AddNode(1)

		err := g.AddEdge(9, 0)
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge(0, 9)
		assert.ErrorContains(t, err, "destination node not found")

		err = g.AddEdge(0, 0)
		assert.ErrorContains(t, err, "self-referential edge")

		_, err = g.Dependencies(9)
		assert.ErrorContains(t, err, "node not found")
		assert.Error(t, g.MarkBarrier(9))
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New().DetectCycles())
	})

	t.Run("chain has no cycles", func(t *testing.T) {
		g := New()
		for i := range 3 {
			g.AddNode(i)
		}
		require.NoError(t, g.AddEdge(0, 1))
		require.NoError(t, g.AddEdge(1, 2))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("cycle is reported", func(t *testing.T) {
		g := New()
		for i := range 3 {
			g.AddNode(i)
		}
		require.NoError(t, g.AddEdge(0, 1))
		require.NoError(t, g.AddEdge(1, 2))
		require.NoError(t, g.AddEdge(2, 0))
		assert.ErrorContains(t, g.DetectCycles(), "cycle detected")
	})
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name     string
		nodes    int
		edges    [][2]int
		barriers []int
		want     [][]int
	}{
		{
			name: "empty",
			want: nil,
		},
		{
			name:  "independent nodes share a level",
			nodes: 3,
			want:  [][]int{{0, 1, 2}},
		},
		{
			name:  "diamond",
			nodes: 4,
			edges: [][2]int{{0, 2}, {1, 2}, {2, 3}},
			want:  [][]int{{0, 1}, {2}, {3}},
		},
		{
			name:  "chain",
			nodes: 3,
			edges: [][2]int{{0, 1}, {1, 2}},
			want:  [][]int{{0}, {1}, {2}},
		},
		{
			name:     "barrier stands alone and cuts the order",
			nodes:    4,
			barriers: []int{2},
			want:     [][]int{{0, 1}, {2}, {3}},
		},
		{
			name:     "barrier first",
			nodes:    3,
			barriers: []int{0},
			want:     [][]int{{0}, {1, 2}},
		},
		{
			name:  "late independent node joins the first level",
			nodes: 3,
			edges: [][2]int{{0, 1}},
			want:  [][]int{{0, 2}, {1}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			g := New()
			for i := range tc.nodes {
				g.AddNode(i)
			}
			for _, e := range tc.edges {
				require.NoError(t, g.AddEdge(e[0], e[1]))
			}
			for _, b := range tc.barriers {
				require.NoError(t, g.MarkBarrier(b))
			}

			// --- Act ---
			levels, err := g.Levels()

			// --- Assert ---
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, levels); diff != "" {
				t.Errorf("Levels() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLevels_RejectsBackwardEdges(t *testing.T) {
	g := New()
	g.AddNode(0)
	g.AddNode(1)
	require.NoError(t, g.AddEdge(1, 0))

	_, err := g.Levels()

	assert.ErrorContains(t, err, "points backwards")
}
