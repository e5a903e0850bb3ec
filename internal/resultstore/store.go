package resultstore

import (
	"sync"
	"time"
)

// Status is the execution state of a block.
type Status int

const (
	// Pending blocks have not been picked up by a worker.
	Pending Status = iota
	Running
	Done
	Failed
	// Skipped blocks were never run because the render was cancelled or a
	// sibling failed first.
	Skipped
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// MarshalText renders the status by name in JSON reports.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Store holds per-block results in independent sync.Maps keyed by block ID.
type Store struct {
	states    sync.Map // Key: block ID, Value: Status
	outputs   sync.Map // Key: block ID, Value: string
	errors    sync.Map // Key: block ID, Value: error
	durations sync.Map // Key: block ID, Value: time.Duration
}

// New creates a new, empty result store.
func New() *Store {
	return &Store{}
}

// SetStatus updates the execution status of a block.
func (s *Store) SetStatus(id int, status Status) {
	s.states.Store(id, status)
}

// Status returns the status of a block, or Pending if none was recorded.
func (s *Store) Status(id int) Status {
	status, ok := s.states.Load(id)
	if !ok {
		return Pending
	}
	return status.(Status)
}

// SetOutput records the substitution text of a completed block.
func (s *Store) SetOutput(id int, output string) {
	s.outputs.Store(id, output)
}

// Output returns the recorded substitution text of a block.
func (s *Store) Output(id int) (string, bool) {
	output, ok := s.outputs.Load(id)
	if !ok {
		return "", false
	}
	return output.(string), true
}

// SetError records the failure of a block.
func (s *Store) SetError(id int, err error) {
	s.errors.Store(id, err)
}

// Error returns the recorded failure of a block, or nil.
func (s *Store) Error(id int) error {
	err, ok := s.errors.Load(id)
	if !ok {
		return nil
	}
	return err.(error)
}

// SetDuration records how long a block ran.
func (s *Store) SetDuration(id int, d time.Duration) {
	s.durations.Store(id, d)
}

// Duration returns how long a block ran.
func (s *Store) Duration(id int) time.Duration {
	d, ok := s.durations.Load(id)
	if !ok {
		return 0
	}
	return d.(time.Duration)
}

// Outputs collects the outputs of blocks 0..n-1. It stops at the first block
// that is not Done and reports how many blocks form the committed prefix.
func (s *Store) Outputs(n int) ([]string, int) {
	out := make([]string, n)
	for id := 0; id < n; id++ {
		if s.Status(id) != Done {
			return out, id
		}
		out[id], _ = s.Output(id)
	}
	return out, n
}
