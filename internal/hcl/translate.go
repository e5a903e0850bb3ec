// This file translates the decoded HCL blocks into the format-agnostic
// configuration model.

package hcl

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vk/burstmd/internal/config"
)

func translate(root *fileRoot) (*config.Model, error) {
	m := &config.Model{}
	var errs []error

	if e := root.Engine; e != nil {
		m.Engine.Workers = e.Workers
		m.Engine.Sequential = e.Sequential
		m.Engine.MaxCallDepth = e.MaxCallDepth
		if e.Workers != nil && *e.Workers < 1 {
			errs = append(errs, fmt.Errorf("engine.workers must be at least 1, got %d", *e.Workers))
		}
		if e.Timeout != nil {
			d, err := parseDuration("engine.timeout", *e.Timeout)
			errs = append(errs, err)
			m.Engine.Timeout = &d
		}
	}

	for _, h := range root.Handlers {
		m.Handlers = append(m.Handlers, &config.HandlerOverride{
			Module:  h.Module,
			Name:    h.Name,
			Barrier: h.Barrier,
			Pure:    h.Pure,
		})
	}

	if root.Globals != nil {
		globals, err := decodeGlobals(root.Globals)
		errs = append(errs, err)
		m.Globals = globals
	}

	if p := root.Prompts; p != nil {
		m.Prompts = config.Prompts{Answers: p.Answers, SuggestFirst: p.SuggestFirst}
	}

	if h := root.HTTP; h != nil && h.Timeout != "" {
		d, err := parseDuration("http.timeout", h.Timeout)
		errs = append(errs, err)
		m.HTTP.Timeout = d
	}

	if ps := root.PromptServer; ps != nil {
		m.PromptServer = &config.PromptServer{
			URL:                ps.URL,
			Namespace:          ps.Namespace,
			InsecureSkipVerify: ps.InsecureSkipVerify,
		}
		if ps.AnswerTimeout != "" {
			d, err := parseDuration("prompt_server.answer_timeout", ps.AnswerTimeout)
			errs = append(errs, err)
			m.PromptServer.AnswerTimeout = d
		}
	}

	return m, errors.Join(errs...)
}

func parseDuration(field, s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}

func decodeGlobals(b *globalsBlock) (map[string]any, error) {
	attrs, diags := b.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("globals: %w", diags)
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]any, len(attrs))
	for _, name := range names {
		val, diags := attrs[name].Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("globals.%s: %w", name, diags)
		}
		goVal, err := ctyToGo(val)
		if err != nil {
			return nil, fmt.Errorf("globals.%s: %w", name, err)
		}
		out[name] = goVal
	}
	return out, nil
}
