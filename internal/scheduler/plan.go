package scheduler

import (
	"fmt"
	"strings"

	"github.com/vk/burstmd/internal/analysis"
	"github.com/vk/burstmd/internal/dag"
)

// Phase is a set of blocks that may run concurrently.
type Phase struct {
	Index    int   `json:"index"`
	BlockIDs []int `json:"blockIds"`
}

// ExecutionPlan is the ordered list of phases for one render.
type ExecutionPlan struct {
	Phases []Phase `json:"phases"`

	TotalBlocks int `json:"totalBlocks"`
	// ParallelizableBlocks counts blocks that share a phase with at least one
	// other block.
	ParallelizableBlocks int     `json:"parallelizableBlocks"`
	ParallelizationRatio float64 `json:"parallelizationRatio"`

	// Analyses is indexed by block ID.
	Analyses []analysis.DependencyAnalysis `json:"analyses"`
	// Dependencies maps a block ID to the earlier blocks it depends on.
	Dependencies map[int][]int `json:"dependencies"`
	// Dependents maps a block ID to the later blocks that wait for it.
	Dependents map[int][]int `json:"dependents"`
}

func newPlan(analyses []analysis.DependencyAnalysis, g *dag.Graph, levels [][]int) (*ExecutionPlan, error) {
	p := &ExecutionPlan{
		TotalBlocks:  len(analyses),
		Analyses:     analyses,
		Dependencies: make(map[int][]int),
		Dependents:   make(map[int][]int),
	}
	for id := range analyses {
		deps, err := g.Dependencies(id)
		if err != nil {
			return nil, err
		}
		if len(deps) > 0 {
			p.Dependencies[id] = deps
		}
		dependents, err := g.Dependents(id)
		if err != nil {
			return nil, err
		}
		if len(dependents) > 0 {
			p.Dependents[id] = dependents
		}
	}
	for i, ids := range levels {
		p.Phases = append(p.Phases, Phase{Index: i, BlockIDs: ids})
		if len(ids) > 1 {
			p.ParallelizableBlocks += len(ids)
		}
	}
	if p.TotalBlocks > 0 {
		p.ParallelizationRatio = float64(p.ParallelizableBlocks) / float64(p.TotalBlocks)
	}
	return p, nil
}

// PhaseOf returns the index of the phase holding block id, or -1.
func (p *ExecutionPlan) PhaseOf(id int) int {
	for _, ph := range p.Phases {
		for _, b := range ph.BlockIDs {
			if b == id {
				return ph.Index
			}
		}
	}
	return -1
}

// String renders the plan for the --plan flag.
func (p *ExecutionPlan) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Execution plan: %d blocks, %d phases, %d parallelizable (%.0f%%)\n",
		p.TotalBlocks, len(p.Phases), p.ParallelizableBlocks, p.ParallelizationRatio*100)
	for _, ph := range p.Phases {
		fmt.Fprintf(&sb, "Phase %d:\n", ph.Index)
		for _, id := range ph.BlockIDs {
			a := p.Analyses[id]
			kind := "interpolation"
			if a.IsExecution {
				kind = "execution"
			}
			fmt.Fprintf(&sb, "  block %d (%s) %s", id, kind, a)
			if deps := p.Dependencies[id]; len(deps) > 0 {
				fmt.Fprintf(&sb, " after %v", deps)
			}
			if next := p.Dependents[id]; len(next) > 0 {
				fmt.Fprintf(&sb, " before %v", next)
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
