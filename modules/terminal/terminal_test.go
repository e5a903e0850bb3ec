package terminal

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/peterh/liner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/burstmd/internal/services"
)

type step struct {
	text string
	err  error
}

// scripted replays answers and records the prompts it was shown.
type scripted struct {
	steps       []step
	prompts     []string
	suggestions []string
}

func (s *scripted) next(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.steps) == 0 {
		return "", io.EOF
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	return st.text, st.err
}

func (s *scripted) Prompt(prompt string) (string, error) { return s.next(prompt) }

func (s *scripted) PromptWithSuggestion(prompt, text string, _ int) (string, error) {
	s.suggestions = append(s.suggestions, text)
	return s.next(prompt)
}

func answers(texts ...string) *scripted {
	s := &scripted{}
	for _, t := range texts {
		s.steps = append(s.steps, step{text: t})
	}
	return s
}

func TestPrompt(t *testing.T) {
	tests := []struct {
		name    string
		req     services.PromptRequest
		reader  *scripted
		want    string
		wantOK  bool
		prompts []string
	}{
		{
			name:    "single line",
			req:     services.PromptRequest{Message: "Name"},
			reader:  answers("Ada"),
			want:    "Ada",
			wantOK:  true,
			prompts: []string{"Name: "},
		},
		{
			name:    "multiline ends at empty line",
			req:     services.PromptRequest{Message: "Body", Multiline: true},
			reader:  answers("one", "two", ""),
			want:    "one\ntwo",
			wantOK:  true,
			prompts: []string{"Body: ", "... ", "... "},
		},
		{
			name:    "ctrl-c dismisses",
			req:     services.PromptRequest{Message: "Name"},
			reader:  &scripted{steps: []step{{err: liner.ErrPromptAborted}}},
			wantOK:  false,
			prompts: []string{"Name: "},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			term := NewWithReader(&bytes.Buffer{}, tc.reader)

			got, ok, err := term.Prompt(context.Background(), tc.req)

			require.NoError(t, err)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.prompts, tc.reader.prompts)
		})
	}
}

func TestPrompt_DefaultIsSuggested(t *testing.T) {
	r := answers("kept")
	term := NewWithReader(&bytes.Buffer{}, r)

	_, _, err := term.Prompt(context.Background(), services.PromptRequest{Message: "Title", Default: "Untitled"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Untitled"}, r.suggestions)
}

func TestSuggester(t *testing.T) {
	// --- Arrange ---
	out := &bytes.Buffer{}
	r := answers("9", "Banana")
	term := NewWithReader(out, r)

	// --- Act ---
	idx, ok, err := term.Suggester(context.Background(), []string{"Apple", "Banana"}, "Fruit")

	// --- Assert ---
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, "  1) Apple\n  2) Banana\nEnter a number between 1 and 2.\n", out.String())
	assert.Equal(t, []string{"Fruit> ", "Fruit> "}, r.prompts)
}

func TestSuggester_EOFDismisses(t *testing.T) {
	term := NewWithReader(&bytes.Buffer{}, answers())

	_, ok, err := term.Suggester(context.Background(), []string{"a"}, "")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMultiSuggester(t *testing.T) {
	tests := []struct {
		name   string
		input  []string
		want   []int
		wantOK bool
	}{
		{"numbers and labels", []string{"3, a, 3"}, []int{2, 0}, true},
		{"empty selects nothing", []string{""}, []int{}, true},
		{"retries after unknown choice", []string{"x", "2"}, []int{1}, true},
		{"closed input", nil, nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			term := NewWithReader(&bytes.Buffer{}, answers(tc.input...))

			got, ok, err := term.MultiSuggester(context.Background(), []string{"a", "b", "c"}, "Pick")

			require.NoError(t, err)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
