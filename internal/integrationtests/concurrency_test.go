package integrationtests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/burstmd/internal/render"
)

func TestConcurrency_IndependentBlocksOverlap(t *testing.T) {
	// --- Arrange ---
	h := newHarness(t)
	text := `<% tp.test.sleep("A") %> <% tp.test.sleep("B") %> <% tp.test.sleep("C") %>`

	// --- Act ---
	start := time.Now()
	res := h.render(t, render.Options{Workers: 4}, text)
	elapsed := time.Since(start)

	// --- Assert ---
	assert.Equal(t, "A B C", res.Output)
	assert.Len(t, res.Plan.Phases, 1)
	a, b, c := h.Sleeper.Record("A"), h.Sleeper.Record("B"), h.Sleeper.Record("C")
	require.NotNil(t, a)
	require.NotNil(t, b)
	require.NotNil(t, c)
	assert.True(t, a.Overlaps(b), "A and B should run concurrently")
	assert.True(t, b.Overlaps(c), "B and C should run concurrently")
	assert.Less(t, elapsed, 3*sleep, "independent blocks should not run back to back")
}

func TestConcurrency_SequentialNeverOverlaps(t *testing.T) {
	h := newHarness(t)

	res := h.render(t, render.Options{Sequential: true}, `<% tp.test.sleep("A") %><% tp.test.sleep("B") %>`)

	assert.Equal(t, "AB", res.Output)
	assert.Len(t, res.Plan.Phases, 2)
	assert.False(t, h.Sleeper.Record("A").Overlaps(h.Sleeper.Record("B")))
}

func TestConcurrency_WorkerLimitSerializesPhase(t *testing.T) {
	h := newHarness(t)

	res := h.render(t, render.Options{Workers: 1}, `<% tp.test.sleep("A") %><% tp.test.sleep("B") %>`)

	assert.Equal(t, "AB", res.Output)
	assert.Len(t, res.Plan.Phases, 1, "the plan does not depend on the worker count")
	assert.False(t, h.Sleeper.Record("A").Overlaps(h.Sleeper.Record("B")))
}

func TestConcurrency_FanInWaitsForAllDependencies(t *testing.T) {
	// --- Arrange ---
	h := newHarness(t)
	text := `<%* let a = tp.test.sleep("A") %><%* let b = tp.test.sleep("B") %><%* let d = tp.test.sleep(a + b) %><% d %>`

	// --- Act ---
	res := h.render(t, render.Options{Workers: 4}, text)

	// --- Assert ---
	assert.Equal(t, "AB", res.Output)
	a, b, d := h.Sleeper.Record("A"), h.Sleeper.Record("B"), h.Sleeper.Record("AB")
	require.NotNil(t, d)
	assert.True(t, a.Overlaps(b))
	assert.False(t, d.Start.Before(a.End), "fan-in block started before A finished")
	assert.False(t, d.Start.Before(b.End), "fan-in block started before B finished")
}

func TestConcurrency_BarrierSplitsTheDocument(t *testing.T) {
	// --- Arrange ---
	h := newHarness(t)
	text := `<% tp.test.sleep("A") %>|<% await tp.system.prompt("Who?") %>|<% tp.test.sleep("B") %>`

	// --- Act ---
	res := h.render(t, render.Options{Workers: 4}, text)

	// --- Assert ---
	assert.Equal(t, "A|Ada|B", res.Output)
	assert.Len(t, res.Plan.Phases, 3)
	assert.Equal(t, []string{"Who?"}, h.Prompter.Messages())
	assert.False(t, h.Sleeper.Record("B").Start.Before(h.Sleeper.Record("A").End), "no block crosses a barrier")
}
