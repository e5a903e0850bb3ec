package testutil

import (
	"context"
	"sync"

	"github.com/vk/burstmd/internal/services"
)

// Prompter is a services.SystemOperationsService that answers every prompt
// with Answer and picks the first item of every suggester. It records the
// prompts it was shown.
type Prompter struct {
	Answer string
	// Dismiss makes every dialog behave as if the user closed it.
	Dismiss bool

	mu       sync.Mutex
	messages []string
}

var _ services.SystemOperationsService = (*Prompter)(nil)

func (p *Prompter) record(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
}

// Messages returns the prompt messages and suggester placeholders seen so
// far, in call order.
func (p *Prompter) Messages() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

// Calls returns the number of dialogs shown.
func (p *Prompter) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

// Prompt implements services.SystemOperationsService.
func (p *Prompter) Prompt(_ context.Context, req services.PromptRequest) (string, bool, error) {
	p.record(req.Message)
	if p.Dismiss {
		return "", false, nil
	}
	return p.Answer, true, nil
}

// Suggester implements services.SystemOperationsService.
func (p *Prompter) Suggester(_ context.Context, labels []string, placeholder string) (int, bool, error) {
	p.record(placeholder)
	if p.Dismiss || len(labels) == 0 {
		return 0, false, nil
	}
	return 0, true, nil
}

// MultiSuggester implements services.SystemOperationsService.
func (p *Prompter) MultiSuggester(_ context.Context, labels []string, placeholder string) ([]int, bool, error) {
	p.record(placeholder)
	if p.Dismiss || len(labels) == 0 {
		return nil, false, nil
	}
	return []int{0}, true, nil
}
