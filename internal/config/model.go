package config

import "time"

// Model is the unified representation of a configuration file.
type Model struct {
	Engine   Engine
	Handlers []*HandlerOverride
	// Globals become read-only script globals. Values are plain Go data:
	// nil, bool, string, int64, float64, []any and map[string]any.
	Globals      map[string]any
	Prompts      Prompts
	HTTP         HTTP
	PromptServer *PromptServer
}

// Engine tunes the renderer.
type Engine struct {
	Workers      *int
	Sequential   *bool
	Timeout      *time.Duration
	MaxCallDepth *int
}

// HandlerOverride changes the registration metadata of one tp handler as
// seen by the dependency analyzer.
type HandlerOverride struct {
	Module  string
	Name    string
	Barrier *bool
	Pure    *bool
}

// Prompts configures the non-interactive prompter.
type Prompts struct {
	// Answers maps a prompt message or suggester placeholder to its answer.
	Answers      map[string]string
	SuggestFirst bool
}

// HTTP configures the client behind tp.web.
type HTTP struct {
	Timeout time.Duration
}

// PromptServer points barrier dialogs at a remote socket.io UI.
type PromptServer struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	AnswerTimeout      time.Duration
}

// Merge copies every value set in other over m.
func (m *Model) Merge(other *Model) {
	if other.Engine.Workers != nil {
		m.Engine.Workers = other.Engine.Workers
	}
	if other.Engine.Sequential != nil {
		m.Engine.Sequential = other.Engine.Sequential
	}
	if other.Engine.Timeout != nil {
		m.Engine.Timeout = other.Engine.Timeout
	}
	if other.Engine.MaxCallDepth != nil {
		m.Engine.MaxCallDepth = other.Engine.MaxCallDepth
	}
	m.Handlers = append(m.Handlers, other.Handlers...)
	for k, v := range other.Globals {
		if m.Globals == nil {
			m.Globals = make(map[string]any)
		}
		m.Globals[k] = v
	}
	for k, v := range other.Prompts.Answers {
		if m.Prompts.Answers == nil {
			m.Prompts.Answers = make(map[string]string)
		}
		m.Prompts.Answers[k] = v
	}
	m.Prompts.SuggestFirst = m.Prompts.SuggestFirst || other.Prompts.SuggestFirst
	if other.HTTP.Timeout != 0 {
		m.HTTP.Timeout = other.HTTP.Timeout
	}
	if other.PromptServer != nil {
		m.PromptServer = other.PromptServer
	}
}
