package interp

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// CallStats aggregates the invocations of one host function.
type CallStats struct {
	Name  string
	Count int
	Total time.Duration
}

// Profile collects execution counters for one render. It is passed to the
// interpreter explicitly and is safe for concurrent use by phase workers.
type Profile struct {
	mu         sync.Mutex
	calls      map[string]*CallStats
	statements int64
}

// NewProfile returns an empty profile.
func NewProfile() *Profile {
	return &Profile{calls: make(map[string]*CallStats)}
}

func (p *Profile) recordCall(name string, d time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.calls[name]
	if !ok {
		s = &CallStats{Name: name}
		p.calls[name] = s
	}
	s.Count++
	s.Total += d
}

func (p *Profile) addStatements(n int64) {
	if p == nil || n == 0 {
		return
	}
	p.mu.Lock()
	p.statements += n
	p.mu.Unlock()
}

// Calls returns per-function statistics ordered by name.
func (p *Profile) Calls() []CallStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]CallStats, 0, len(p.calls))
	for _, s := range p.calls {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CallCount returns how often the named host function ran.
func (p *Profile) CallCount(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.calls[name]; ok {
		return s.Count
	}
	return 0
}

// Statements returns the number of statements executed.
func (p *Profile) Statements() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statements
}

func (p *Profile) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Statements executed: %d\n", p.Statements())
	for _, c := range p.Calls() {
		fmt.Fprintf(&sb, "  %s: %d calls, %v\n", c.Name, c.Count, c.Total)
	}
	return sb.String()
}
