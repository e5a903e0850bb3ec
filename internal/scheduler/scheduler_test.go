package scheduler

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/burstmd/internal/block"
)

func extract(t *testing.T, text string) []block.TemplateBlock {
	t.Helper()
	blocks, err := block.Extract(text)
	require.NoError(t, err)
	return blocks
}

func phaseIDs(p *ExecutionPlan) [][]int {
	var out [][]int
	for _, ph := range p.Phases {
		out = append(out, ph.BlockIDs)
	}
	return out
}

func TestDefaultScheduler_Plans(t *testing.T) {
	tests := []struct {
		name           string
		template       string
		wantPhases     [][]int
		parallelizable int
	}{
		{
			name:       "empty input",
			template:   "no directives here",
			wantPhases: nil,
		},
		{
			name:       "single block",
			template:   "<%* let x = 1 %>",
			wantPhases: [][]int{{0}},
		},
		{
			name:           "independent declarations share a phase",
			template:       "<%* let x=5 %><%* let y=10 %><%* let sum=x+y %>",
			wantPhases:     [][]int{{0, 1}, {2}},
			parallelizable: 2,
		},
		{
			name:           "interpolation follows the block it reads",
			template:       "<%* let x=5 %><%* let y=10 %><%* let sum=x+y %>Sum: <% sum %>",
			wantPhases:     [][]int{{0, 1}, {2}, {3}},
			parallelizable: 2,
		},
		{
			name:       "linear chain",
			template:   "<%* let a=1 %><%* let b=a+1 %><%* let c=b*2 %><%* let d=c-1 %>",
			wantPhases: [][]int{{0}, {1}, {2}, {3}},
		},
		{
			name:       "output writes keep source order",
			template:   `<%* tR+="A" %><%* tR+="B" %><%* tR+="C" %>`,
			wantPhases: [][]int{{0}, {1}, {2}},
		},
		{
			name:       "output writes are ordered even with independent variables",
			template:   `<%* let a=1; tR+="A" %><%* let b=2; tR+="B" %>`,
			wantPhases: [][]int{{0}, {1}},
		},
		{
			name:           "barrier stands alone",
			template:       `<%* let a=1 %><%* let b=2 %><%* let name = await tp.system.prompt("Name") %><%* let c=3 %><%* let d=4 %>`,
			wantPhases:     [][]int{{0, 1}, {2}, {3, 4}},
			parallelizable: 4,
		},
		{
			name:       "later writer waits for earlier reader",
			template:   "<%* let y = x + 1 %><%* x = 2 %>",
			wantPhases: [][]int{{0}, {1}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			blocks := extract(t, tc.template)
			s := New(nil)

			// --- Act ---
			plan, err := s.CreateExecutionPlan(context.Background(), blocks)

			// --- Assert ---
			require.NoError(t, err)
			if diff := cmp.Diff(tc.wantPhases, phaseIDs(plan)); diff != "" {
				t.Errorf("phases mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, len(blocks), plan.TotalBlocks)
			assert.Equal(t, tc.parallelizable, plan.ParallelizableBlocks)
			assert.Len(t, plan.Analyses, len(blocks))
		})
	}
}

func TestDefaultScheduler_Ratio(t *testing.T) {
	blocks := extract(t, "<%* let a=1 %><%* let b=2 %><%* let c=a+b %><%* let d=c*2 %>")

	plan, err := New(nil).CreateExecutionPlan(context.Background(), blocks)

	require.NoError(t, err)
	assert.Equal(t, 2, plan.ParallelizableBlocks)
	assert.InDelta(t, 0.5, plan.ParallelizationRatio, 1e-9)
	assert.Equal(t, []int{0, 1}, plan.Dependencies[2])
	assert.Equal(t, []int{2}, plan.Dependencies[3])
	assert.Equal(t, []int{2}, plan.Dependents[0])
	assert.Equal(t, []int{3}, plan.Dependents[2])
	assert.NotContains(t, plan.Dependents, 3)
	assert.Equal(t, 2, plan.PhaseOf(3))
	assert.Equal(t, -1, plan.PhaseOf(9))
}

// Every block must land strictly after all the blocks it depends on.
func TestDefaultScheduler_PhasesRespectDependencies(t *testing.T) {
	template := strings.Join([]string{
		"<%* let items = [3, 1, 2] %>",
		"<%* let total = 0 %>",
		"<%* items.push(4) %>",
		"<%* function sum(xs) { let s = 0; for (const x of xs) { s += x } return s } %>",
		"<%* total = sum(items) %>",
		"<%* let label = 'n' %>",
		"<% label %>: <% total %>",
		`<%* tR += label %>`,
		`<%* const pick = await tp.system.suggester(["a"], ["a"]) %>`,
		"<% pick %>",
	}, "\n")
	blocks := extract(t, template)

	plan, err := New(nil).CreateExecutionPlan(context.Background(), blocks)
	require.NoError(t, err)

	for id, deps := range plan.Dependencies {
		for _, dep := range deps {
			assert.Less(t, plan.PhaseOf(dep), plan.PhaseOf(id), "block %d must follow block %d", id, dep)
		}
	}
	barrier := plan.PhaseOf(9)
	assert.Len(t, plan.Phases[barrier].BlockIDs, 1)
	for id := range blocks {
		if id < 9 {
			assert.Less(t, plan.PhaseOf(id), barrier)
		} else if id > 9 {
			assert.Greater(t, plan.PhaseOf(id), barrier)
		}
	}
}

func TestSequentialScheduler(t *testing.T) {
	blocks := extract(t, "<%* let x=5 %><%* let y=10 %><%* let sum=x+y %>")

	plan, err := NewSequential(nil).CreateExecutionPlan(context.Background(), blocks)

	require.NoError(t, err)
	if diff := cmp.Diff([][]int{{0}, {1}, {2}}, phaseIDs(plan)); diff != "" {
		t.Errorf("phases mismatch (-want +got):\n%s", diff)
	}
	assert.Zero(t, plan.ParallelizableBlocks)
	assert.Equal(t, []int{0, 1}, plan.Dependencies[2])
}

func TestScheduler_RejectsOutOfOrderIDs(t *testing.T) {
	blocks := []block.TemplateBlock{
		{ID: 1, Command: "let x = 1", IsExecution: true},
		{ID: 0, Command: "let y = 2", IsExecution: true},
	}

	_, err := New(nil).CreateExecutionPlan(context.Background(), blocks)

	assert.ErrorContains(t, err, "ids must follow source order")
}

func TestExecutionPlan_String(t *testing.T) {
	blocks := extract(t, "<%* let x=5 %><%* let y=x %>")
	plan, err := New(nil).CreateExecutionPlan(context.Background(), blocks)
	require.NoError(t, err)

	out := plan.String()

	assert.Contains(t, out, "Execution plan: 2 blocks, 2 phases, 0 parallelizable (0%)")
	assert.Contains(t, out, "Phase 1:")
	assert.Contains(t, out, "block 1 (execution)")
	assert.Contains(t, out, "after [0]")
	assert.Contains(t, out, "block 0 (execution) reads=[] writes=[x] before [1]")
}

// Dependencies and dependents describe the same edges from both ends.
func TestDefaultScheduler_DependentsMirrorDependencies(t *testing.T) {
	blocks := extract(t, "<%* let a=1 %><%* let b=a %><%* let c=a+b %><% c %><%* tR += 'x' %>")

	plan, err := New(nil).CreateExecutionPlan(context.Background(), blocks)
	require.NoError(t, err)

	for id, deps := range plan.Dependencies {
		for _, dep := range deps {
			assert.Contains(t, plan.Dependents[dep], id, "block %d lists %d as dependency", id, dep)
		}
	}
	for id, next := range plan.Dependents {
		for _, n := range next {
			assert.Contains(t, plan.Dependencies[n], id, "block %d lists %d as dependent", id, n)
		}
	}
	if diff := cmp.Diff([]int{1, 2}, plan.Dependents[0]); diff != "" {
		t.Errorf("dependents of block 0 mismatch (-want +got):\n%s", diff)
	}
}
