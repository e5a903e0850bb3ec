// Package executor runs an execution plan phase by phase on a bounded worker
// pool.
//
// Phases run strictly in order: phase k+1 starts only after every block of
// phase k has finished. Blocks inside a phase are handed to workers through a
// channel and may complete in any order; results are recorded by block ID in a
// resultstore.Store, never by completion order.
package executor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/vk/burstmd/internal/ctxlog"
	"github.com/vk/burstmd/internal/interp"
	"github.com/vk/burstmd/internal/resultstore"
	"github.com/vk/burstmd/internal/scheduler"
)

// DefaultWorkers is used when a non-positive worker count is configured.
const DefaultWorkers = 10

// Task runs one block and returns its substitution text.
type Task func(ctx context.Context, blockID int) (string, error)

// Executor runs the phases of a plan.
type Executor interface {
	Execute(ctx context.Context, plan *scheduler.ExecutionPlan) (*Report, error)
}

// PhaseExecutor is the worker-pool implementation of Executor.
type PhaseExecutor struct {
	task       Task
	store      *resultstore.Store
	numWorkers int
}

// New creates a phase executor that records results into store.
func New(task Task, store *resultstore.Store, numWorkers int) *PhaseExecutor {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers
	}
	return &PhaseExecutor{
		task:       task,
		store:      store,
		numWorkers: numWorkers,
	}
}

// Execute runs every phase of plan. It returns an error when a block fails;
// the error wraps the failure of the lowest-numbered failing block. When ctx
// is cancelled the executor stops between phases and returns a report with
// Stopped set and no error.
func (e *PhaseExecutor) Execute(ctx context.Context, plan *scheduler.ExecutionPlan) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	report := &Report{}
	start := time.Now()
	defer func() { report.Total = time.Since(start) }()

	for _, phase := range plan.Phases {
		if ctx.Err() != nil {
			logger.Debug("Context cancelled, not scheduling further phases.", "phase", phase.Index)
			e.skip(phase.BlockIDs)
			report.Stopped = true
			continue
		}

		phaseStart := time.Now()
		err := e.runPhase(ctx, phase)
		report.Phases = append(report.Phases, PhaseReport{
			Index:    phase.Index,
			BlockIDs: phase.BlockIDs,
			Duration: time.Since(phaseStart),
		})
		if err != nil {
			return e.finish(report, plan), err
		}
		if e.interrupted(phase.BlockIDs) {
			report.Stopped = true
		}
	}
	return e.finish(report, plan), nil
}

// runPhase feeds the blocks of one phase to the worker pool and waits for all
// of them.
func (e *PhaseExecutor) runPhase(ctx context.Context, phase scheduler.Phase) error {
	logger := ctxlog.FromContext(ctx).With("phase", phase.Index)
	logger.Debug("Phase started.", "blocks", phase.BlockIDs)

	readyChan := make(chan int, len(phase.BlockIDs))
	for _, id := range phase.BlockIDs {
		readyChan <- id
	}
	close(readyChan)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	workers := min(e.numWorkers, len(phase.BlockIDs))
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.worker(ctxlog.WithLogger(runCtx, logger), readyChan, cancel, i, &wg)
	}
	wg.Wait()

	var failed []string
	var rootCauseError error
	for _, id := range phase.BlockIDs {
		if e.store.Status(id) != resultstore.Failed {
			continue
		}
		err := e.store.Error(id)
		// Blocks interrupted by a sibling's failure are symptoms, not causes.
		if err == nil || errors.Is(err, interp.ErrCancelled) || errors.Is(err, context.Canceled) {
			continue
		}
		failed = append(failed, fmt.Sprint(id))
		if rootCauseError == nil {
			rootCauseError = err
		}
	}
	if rootCauseError != nil {
		return fmt.Errorf("execution failed for block %s: %w", strings.Join(failed, ", "), rootCauseError)
	}
	logger.Debug("Phase completed.")
	return nil
}

// interrupted reports whether any block of the phase did not finish.
func (e *PhaseExecutor) interrupted(ids []int) bool {
	for _, id := range ids {
		if e.store.Status(id) != resultstore.Done {
			return true
		}
	}
	return false
}

func (e *PhaseExecutor) skip(ids []int) {
	for _, id := range ids {
		if e.store.Status(id) == resultstore.Pending {
			e.store.SetStatus(id, resultstore.Skipped)
		}
	}
}

func (e *PhaseExecutor) finish(r *Report, plan *scheduler.ExecutionPlan) *Report {
	for _, ph := range plan.Phases {
		e.skip(ph.BlockIDs)
		for _, id := range ph.BlockIDs {
			r.Blocks = append(r.Blocks, BlockReport{
				ID:       id,
				Phase:    ph.Index,
				Status:   e.store.Status(id),
				Duration: e.store.Duration(id),
			})
		}
	}
	slices.SortFunc(r.Blocks, func(a, b BlockReport) int { return a.ID - b.ID })
	return r
}
