package scheduler

import (
	"context"

	"github.com/vk/burstmd/internal/block"
)

// Scheduler partitions blocks into phases.
//
// # Guarantees
//
// For any plan returned without error:
//   - every block appears in exactly one phase
//   - a block's phase is strictly after the phase of every block it depends on
//   - a barrier block is alone in its phase, and all later blocks follow it
//   - block IDs inside a phase are in ascending order
//
// Running the phases in order, with the blocks of a phase in any order or
// concurrently, produces the same bindings and output as running the blocks
// one by one in source order.
type Scheduler interface {
	// CreateExecutionPlan analyzes blocks and returns the plan. An empty
	// input yields an empty plan.
	CreateExecutionPlan(ctx context.Context, blocks []block.TemplateBlock) (*ExecutionPlan, error)
}
