package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/vk/burstmd/internal/registry"
	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/internal/value"
)

// ExecutionRecord holds the start and end times of one call.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two records ran at the same time.
func (r *ExecutionRecord) Overlaps(o *ExecutionRecord) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// SleeperModule registers tp.test.sleep(id), a pure call that sleeps and
// records when it ran. It returns id.
type SleeperModule struct {
	Sleep time.Duration

	mu      sync.Mutex
	records map[string]*ExecutionRecord
}

// NewSleeperModule creates a sleeper module.
func NewSleeperModule(sleep time.Duration) *SleeperModule {
	return &SleeperModule{Sleep: sleep, records: make(map[string]*ExecutionRecord)}
}

// Register implements registry.Module.
func (m *SleeperModule) Register(r *registry.Registry) {
	r.Register(&registry.Handler{
		Module: "test",
		Name:   "sleep",
		Pure:   true,
		Fn: func(ctx context.Context, _ *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
			id := value.ToString(value.Arg(args, 0))
			start := time.Now()
			select {
			case <-time.After(m.Sleep):
			case <-ctx.Done():
				return value.Undefined, ctx.Err()
			}
			m.mu.Lock()
			m.records[id] = &ExecutionRecord{Start: start, End: time.Now()}
			m.mu.Unlock()
			return value.String(id), nil
		},
	})
}

// Record returns the execution record of id, or nil.
func (m *SleeperModule) Record(id string) *ExecutionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id]
}
