package executor

import (
	"fmt"
	"strings"
	"time"

	"github.com/vk/burstmd/internal/resultstore"
)

// PhaseReport is the timing of one phase.
type PhaseReport struct {
	Index    int           `json:"index"`
	BlockIDs []int         `json:"blockIds"`
	Duration time.Duration `json:"duration"`
}

// BlockReport is the outcome of one block.
type BlockReport struct {
	ID       int                `json:"id"`
	Phase    int                `json:"phase"`
	Status   resultstore.Status `json:"status"`
	Duration time.Duration      `json:"duration"`
}

// Report summarizes one plan execution.
type Report struct {
	// Stopped is set when cancellation prevented some block from completing.
	Stopped bool          `json:"stopped"`
	Total   time.Duration `json:"total"`
	Phases  []PhaseReport `json:"phases"`
	Blocks  []BlockReport `json:"blocks"`
}

// String renders the timings for the --profile flag.
func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Total: %s\n", r.Total)
	for _, p := range r.Phases {
		fmt.Fprintf(&sb, "Phase %d: %s %v\n", p.Index, p.Duration, p.BlockIDs)
	}
	for _, b := range r.Blocks {
		fmt.Fprintf(&sb, "  block %d (phase %d) %s %s\n", b.ID, b.Phase, b.Status, b.Duration)
	}
	return sb.String()
}
