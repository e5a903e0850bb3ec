// Package terminal implements services.SystemOperationsService on an
// interactive terminal with line editing.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"github.com/vk/burstmd/internal/ctxlog"
	"github.com/vk/burstmd/internal/services"
)

// LineReader reads one edited line. *liner.State implements it.
type LineReader interface {
	Prompt(prompt string) (string, error)
	PromptWithSuggestion(prompt, text string, pos int) (string, error)
}

// Terminal asks the user on the controlling terminal. Dialogs never overlap:
// prompt calls are barriers, and the mutex keeps concurrent renders apart.
type Terminal struct {
	out io.Writer

	mu    sync.Mutex
	once  sync.Once
	line  LineReader
	state *liner.State
}

var _ services.SystemOperationsService = (*Terminal)(nil)

// New creates a terminal prompter that lists choices on out. The terminal is
// switched to raw mode on the first dialog, not before.
func New(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// NewWithReader creates a terminal prompter reading from r.
func NewWithReader(out io.Writer, r LineReader) *Terminal {
	t := &Terminal{out: out, line: r}
	t.once.Do(func() {})
	return t
}

func (t *Terminal) reader() LineReader {
	t.once.Do(func() {
		t.state = liner.NewLiner()
		t.state.SetCtrlCAborts(true)
		t.line = t.state
	})
	return t.line
}

// Close restores the terminal mode.
func (t *Terminal) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != nil {
		return t.state.Close()
	}
	return nil
}

// read returns ok=false when the user aborted with Ctrl+C or closed the
// input.
func read(line LineReader, prompt, suggestion string) (string, bool, error) {
	var s string
	var err error
	if suggestion != "" {
		s, err = line.PromptWithSuggestion(prompt, suggestion, -1)
	} else {
		s, err = line.Prompt(prompt)
	}
	if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error reading from terminal: %w", err)
	}
	return s, true, nil
}

// Prompt implements services.SystemOperationsService. A multiline answer ends
// at the first empty line.
func (t *Terminal) Prompt(ctx context.Context, req services.PromptRequest) (string, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ctxlog.FromContext(ctx).Debug("Prompting on terminal.", "message", req.Message)

	line := t.reader()
	first, ok, err := read(line, req.Message+": ", req.Default)
	if !ok || !req.Multiline {
		return first, ok, err
	}
	lines := []string{first}
	for first != "" {
		next, ok, err := read(line, "... ", "")
		if err != nil {
			return "", false, err
		}
		if !ok || next == "" {
			break
		}
		lines = append(lines, next)
	}
	return strings.Join(lines, "\n"), true, nil
}

// Suggester implements services.SystemOperationsService. The user answers with
// the number or the exact text of a choice.
func (t *Terminal) Suggester(ctx context.Context, labels []string, placeholder string) (int, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(labels) == 0 {
		return 0, false, nil
	}
	t.list(labels)
	for {
		answer, ok, err := read(t.reader(), prompt(placeholder, "Choose"), "")
		if !ok {
			return 0, false, err
		}
		if i, valid := choice(labels, answer); valid {
			return i, true, nil
		}
		fmt.Fprintf(t.out, "Enter a number between 1 and %d.\n", len(labels))
	}
}

// MultiSuggester implements services.SystemOperationsService. Choices are
// separated by commas; an empty answer selects nothing.
func (t *Terminal) MultiSuggester(ctx context.Context, labels []string, placeholder string) ([]int, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(labels) == 0 {
		return nil, false, nil
	}
	t.list(labels)
outer:
	for {
		answer, ok, err := read(t.reader(), prompt(placeholder, "Choose, separated by commas"), "")
		if !ok {
			return nil, false, err
		}
		picked := []int{}
		seen := make(map[int]bool)
		for _, part := range strings.Split(answer, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			i, valid := choice(labels, part)
			if !valid {
				fmt.Fprintf(t.out, "Unknown choice %q.\n", strings.TrimSpace(part))
				continue outer
			}
			if !seen[i] {
				seen[i] = true
				picked = append(picked, i)
			}
		}
		return picked, true, nil
	}
}

func (t *Terminal) list(labels []string) {
	for i, l := range labels {
		fmt.Fprintf(t.out, "%3d) %s\n", i+1, l)
	}
}

func prompt(placeholder, fallback string) string {
	if placeholder == "" {
		placeholder = fallback
	}
	return placeholder + "> "
}

func choice(labels []string, answer string) (int, bool) {
	answer = strings.TrimSpace(answer)
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(labels) {
		return n - 1, true
	}
	for i, l := range labels {
		if l == answer {
			return i, true
		}
	}
	return 0, false
}
