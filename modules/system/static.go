package system

import (
	"context"
	"slices"
	"sync"

	"github.com/vk/burstmd/internal/ctxlog"
	"github.com/vk/burstmd/internal/services"
)

// StaticPrompter answers prompts from a fixed table. It backs non-interactive
// runs and the render server.
type StaticPrompter struct {
	// Answers maps a prompt message to its answer. Unknown messages get the
	// prompt's default, or are dismissed when there is none.
	Answers map[string]string
	// SuggestFirst picks the first item of every suggester instead of
	// dismissing it.
	SuggestFirst bool

	mu    sync.Mutex
	calls []string
}

var _ services.SystemOperationsService = (*StaticPrompter)(nil)

func (p *StaticPrompter) record(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, msg)
}

// Calls returns the prompt messages seen so far, in call order.
func (p *StaticPrompter) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}

// Prompt implements services.SystemOperationsService.
func (p *StaticPrompter) Prompt(ctx context.Context, req services.PromptRequest) (string, bool, error) {
	p.record(req.Message)
	if answer, ok := p.Answers[req.Message]; ok {
		return answer, true, nil
	}
	if req.Default != "" {
		return req.Default, true, nil
	}
	ctxlog.FromContext(ctx).Warn("No answer configured for prompt, dismissing.", "message", req.Message)
	return "", false, nil
}

// Suggester implements services.SystemOperationsService.
func (p *StaticPrompter) Suggester(ctx context.Context, labels []string, placeholder string) (int, bool, error) {
	p.record(placeholder)
	if answer, ok := p.Answers[placeholder]; ok {
		if i := slices.Index(labels, answer); i >= 0 {
			return i, true, nil
		}
	}
	if p.SuggestFirst && len(labels) > 0 {
		return 0, true, nil
	}
	return -1, false, nil
}

// MultiSuggester implements services.SystemOperationsService.
func (p *StaticPrompter) MultiSuggester(ctx context.Context, labels []string, placeholder string) ([]int, bool, error) {
	i, ok, err := p.Suggester(ctx, labels, placeholder)
	if err != nil || !ok {
		return nil, ok, err
	}
	return []int{i}, true, nil
}
