package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vk/burstmd/internal/ctxlog"
	"github.com/vk/burstmd/internal/interp"
	"github.com/vk/burstmd/internal/resultstore"
)

// worker is the core processing loop for a single concurrent worker.
func (e *PhaseExecutor) worker(ctx context.Context, readyChan <-chan int, cancel context.CancelFunc, workerID int, wg *sync.WaitGroup) {
	defer wg.Done()
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for id := range readyChan {
		workerLogger := logger.With("workerID", workerID, "blockID", id)

		if ctx.Err() != nil {
			workerLogger.Debug("Skipping block, context is done.")
			e.store.SetStatus(id, resultstore.Skipped)
			continue
		}

		workerLogger.Debug("Worker picked up block for execution.")
		e.store.SetStatus(id, resultstore.Running)
		start := time.Now()
		out, err := e.task(ctxlog.WithLogger(ctx, workerLogger), id)
		e.store.SetDuration(id, time.Since(start))

		switch {
		case errors.Is(err, interp.ErrCancelled):
			workerLogger.Debug("Block interrupted by cancellation.")
			e.store.SetStatus(id, resultstore.Skipped)
		case err != nil:
			workerLogger.Error("Block execution failed.", "error", err)
			e.store.SetError(id, err)
			e.store.SetStatus(id, resultstore.Failed)
			cancel()
		default:
			workerLogger.Debug("Block executed.", "bytes", len(out))
			e.store.SetOutput(id, out)
			e.store.SetStatus(id, resultstore.Done)
		}
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}
