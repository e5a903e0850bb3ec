// Package analysis classifies template blocks by the variables they read and
// write, so that the scheduler can tell which blocks may run concurrently.
//
// The analyzer scans a block's tokens instead of parsing it. It tracks nested
// scopes well enough to ignore parameters and block-local declarations, and
// otherwise errs on the side of reporting a dependency: a false dependency
// only costs parallelism, a missed one changes the output.
package analysis

import (
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/vk/burstmd/internal/block"
)

// OutputVar is the output accumulator. It is tracked through HasTrWrite and
// ReadsTr rather than the variable sets.
const OutputVar = "tR"

// barrierNames are call names that always mean user interaction, whatever
// object they are reached through.
var barrierNames = map[string]bool{
	"prompt":         true,
	"suggester":      true,
	"multiSuggester": true,
}

// mutatingMethods change their receiver in place.
var mutatingMethods = map[string]bool{
	"push": true, "pop": true, "shift": true, "unshift": true,
	"splice": true, "sort": true, "reverse": true, "fill": true,
}

// Metadata answers questions about registered tp.<module>.<name> handlers.
type Metadata interface {
	IsBarrier(module, name string) bool
	IsPure(module, name string) bool
}

// DependencyAnalysis is the static summary of one block.
type DependencyAnalysis struct {
	BlockID          int      `json:"blockId"`
	IsExecution      bool     `json:"isExecution"`
	VariablesRead    []string `json:"variablesRead"`
	VariablesWritten []string `json:"variablesWritten"`
	HasTrWrite       bool     `json:"hasTrWrite"`
	ReadsTr          bool     `json:"readsTr,omitempty"`
	IsBarrier        bool     `json:"isBarrier"`
	// BarrierCalls lists the call paths that made the block a barrier.
	BarrierCalls []string `json:"barrierCalls,omitempty"`
	// FunctionsDeclared lists functions bound at the top level of the block.
	FunctionsDeclared []string `json:"functionsDeclared,omitempty"`
}

// Reads reports whether name is in VariablesRead.
func (a DependencyAnalysis) Reads(name string) bool {
	return contains(a.VariablesRead, name)
}

// Writes reports whether name is in VariablesWritten.
func (a DependencyAnalysis) Writes(name string) bool {
	return contains(a.VariablesWritten, name)
}

// DependsOn reports whether a must run after other. It is only meaningful
// when other precedes a in source order; the scheduler checks every earlier
// block itself.
func (a DependencyAnalysis) DependsOn(other DependencyAnalysis) bool {
	return a.Conflict(other) != ""
}

// Conflict names the reason a depends on other, or returns "" when the two
// blocks are independent.
func (a DependencyAnalysis) Conflict(other DependencyAnalysis) string {
	if other.BlockID >= a.BlockID {
		return ""
	}
	switch {
	case other.IsBarrier:
		return "after barrier"
	case a.IsBarrier:
		return "barrier"
	case a.HasTrWrite && other.HasTrWrite:
		return "tR write order"
	case a.ReadsTr && other.HasTrWrite:
		return "reads tR"
	case a.HasTrWrite && other.ReadsTr:
		return "tR read before write"
	}
	for _, v := range a.VariablesRead {
		if other.Writes(v) {
			return "reads " + v
		}
	}
	for _, v := range a.VariablesWritten {
		if other.Writes(v) {
			return "rewrites " + v
		}
		if other.Reads(v) {
			return "overwrites " + v
		}
	}
	return ""
}

func contains(sorted []string, name string) bool {
	_, ok := slices.BinarySearch(sorted, name)
	return ok
}

// Analyze summarizes a single block. meta may be nil.
func Analyze(b block.TemplateBlock, meta Metadata) DependencyAnalysis {
	s := scan(b.Command, meta, strconv.Itoa(b.ID))
	s.finish(nil, newAliasGraph())
	return s.result(b)
}

// AnalyzeAll summarizes blocks in source order. Functions declared by one
// block carry their effects into every later block that references them,
// and values shared between variables stay linked across blocks.
func AnalyzeAll(blocks []block.TemplateBlock, meta Metadata) []DependencyAnalysis {
	out := make([]DependencyAnalysis, len(blocks))
	known := make(map[string]*effects)
	aliases := newAliasGraph()
	for i, b := range blocks {
		s := scan(b.Command, meta, strconv.Itoa(i))
		s.finish(known, aliases)
		for name, fx := range s.functions {
			known[name] = fx
		}
		out[i] = s.result(b)
	}
	return out
}

// effects is a set of observable actions, collected either for a block or
// for a function body.
type effects struct {
	reads    map[string]bool
	writes   map[string]bool
	trWrite  bool
	trRead   bool
	barriers map[string]bool
	// mutates maps the keys of values changed in place to whether the change
	// may reach below their first level.
	mutates map[string]bool
	// makesFn is set when a function body creates further functions.
	makesFn bool
}

func newEffects() *effects {
	return &effects{
		reads:    make(map[string]bool),
		writes:   make(map[string]bool),
		barriers: make(map[string]bool),
		mutates:  make(map[string]bool),
	}
}

func (e *effects) mutate(key string, deep bool) {
	e.mutates[key] = e.mutates[key] || deep
}

func (e *effects) empty() bool {
	return len(e.reads) == 0 && len(e.writes) == 0 && len(e.barriers) == 0 &&
		len(e.mutates) == 0 && !e.trWrite && !e.trRead && !e.makesFn
}

func (e *effects) read(name string) {
	if name == OutputVar {
		e.trRead = true
		return
	}
	e.reads[name] = true
}

func (e *effects) write(name string) {
	if name == OutputVar {
		e.trWrite = true
		return
	}
	e.writes[name] = true
}

func (e *effects) merge(o *effects) {
	for k := range o.reads {
		e.reads[k] = true
	}
	for k := range o.writes {
		e.writes[k] = true
	}
	for k := range o.barriers {
		e.barriers[k] = true
	}
	for k, deep := range o.mutates {
		e.mutate(k, deep)
	}
	e.makesFn = e.makesFn || o.makesFn
	e.trWrite = e.trWrite || o.trWrite
	e.trRead = e.trRead || o.trRead
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the analysis on one line for plan output.
func (a DependencyAnalysis) String() string {
	var sb strings.Builder
	sb.WriteString("reads=[")
	sb.WriteString(strings.Join(a.VariablesRead, ","))
	sb.WriteString("] writes=[")
	sb.WriteString(strings.Join(a.VariablesWritten, ","))
	sb.WriteString("]")
	if a.HasTrWrite {
		sb.WriteString(" tR")
	}
	if a.IsBarrier {
		sb.WriteString(" barrier")
	}
	return sb.String()
}
