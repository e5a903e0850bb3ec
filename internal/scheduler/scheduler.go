package scheduler

import (
	"context"
	"fmt"

	"github.com/vk/burstmd/internal/analysis"
	"github.com/vk/burstmd/internal/block"
	"github.com/vk/burstmd/internal/ctxlog"
	"github.com/vk/burstmd/internal/dag"
)

// DefaultScheduler builds plans with as much parallelism as the dependency
// analysis allows.
type DefaultScheduler struct {
	meta analysis.Metadata
}

// New creates a new default scheduler. meta classifies tp.* calls and may be
// nil.
func New(meta analysis.Metadata) Scheduler {
	return &DefaultScheduler{meta: meta}
}

// CreateExecutionPlan implements the Scheduler interface.
func (s *DefaultScheduler) CreateExecutionPlan(ctx context.Context, blocks []block.TemplateBlock) (*ExecutionPlan, error) {
	logger := ctxlog.FromContext(ctx)
	analyses, g, err := buildGraph(blocks, s.meta)
	if err != nil {
		return nil, err
	}
	levels, err := g.Levels()
	if err != nil {
		return nil, fmt.Errorf("error layering dependency graph: %w", err)
	}
	plan, err := newPlan(analyses, g, levels)
	if err != nil {
		return nil, err
	}
	logger.Debug("Execution plan created.",
		"blocks", plan.TotalBlocks,
		"phases", len(plan.Phases),
		"parallelizable", plan.ParallelizableBlocks,
	)
	return plan, nil
}

// SequentialScheduler puts every block in its own phase, in source order.
// It is the reference against which parallel plans are checked.
type SequentialScheduler struct {
	meta analysis.Metadata
}

// NewSequential creates a scheduler that never runs blocks concurrently.
func NewSequential(meta analysis.Metadata) Scheduler {
	return &SequentialScheduler{meta: meta}
}

// CreateExecutionPlan implements the Scheduler interface.
func (s *SequentialScheduler) CreateExecutionPlan(ctx context.Context, blocks []block.TemplateBlock) (*ExecutionPlan, error) {
	analyses, g, err := buildGraph(blocks, s.meta)
	if err != nil {
		return nil, err
	}
	levels := make([][]int, len(blocks))
	for i, b := range blocks {
		levels[i] = []int{b.ID}
	}
	ctxlog.FromContext(ctx).Debug("Sequential execution plan created.", "blocks", len(blocks))
	return newPlan(analyses, g, levels)
}

// buildGraph analyzes blocks and links every block to each earlier block it
// depends on.
func buildGraph(blocks []block.TemplateBlock, meta analysis.Metadata) ([]analysis.DependencyAnalysis, *dag.Graph, error) {
	for i, b := range blocks {
		if b.ID != i {
			return nil, nil, fmt.Errorf("block at position %d has id %d, ids must follow source order", i, b.ID)
		}
	}

	analyses := analysis.AnalyzeAll(blocks, meta)
	g := dag.New()
	for i, a := range analyses {
		g.AddNode(i)
		if a.IsBarrier {
			if err := g.MarkBarrier(i); err != nil {
				return nil, nil, err
			}
		}
		for j := 0; j < i; j++ {
			if !a.DependsOn(analyses[j]) {
				continue
			}
			if err := g.AddEdge(j, i); err != nil {
				return nil, nil, err
			}
		}
	}
	if err := g.DetectCycles(); err != nil {
		return nil, nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	return analyses, g, nil
}
