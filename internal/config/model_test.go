package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func ptr[T any](v T) *T { return &v }

func TestModel_Merge(t *testing.T) {
	// --- Arrange ---
	base := &Model{
		Engine:   Engine{Workers: ptr(4), Sequential: ptr(true)},
		Handlers: []*HandlerOverride{{Module: "system", Name: "prompt", Barrier: ptr(true)}},
		Globals:  map[string]any{"author": "Jane", "year": int64(2024)},
		Prompts:  Prompts{Answers: map[string]string{"Name": "Jane"}},
		HTTP:     HTTP{Timeout: time.Second},
	}
	override := &Model{
		Engine:       Engine{Workers: ptr(8), Timeout: ptr(30 * time.Second)},
		Handlers:     []*HandlerOverride{{Module: "file", Name: "exists", Pure: ptr(true)}},
		Globals:      map[string]any{"year": int64(2025)},
		Prompts:      Prompts{Answers: map[string]string{"Title": "Notes"}, SuggestFirst: true},
		PromptServer: &PromptServer{URL: "http://localhost:3000"},
	}

	// --- Act ---
	base.Merge(override)

	// --- Assert ---
	want := &Model{
		Engine: Engine{Workers: ptr(8), Sequential: ptr(true), Timeout: ptr(30 * time.Second)},
		Handlers: []*HandlerOverride{
			{Module: "system", Name: "prompt", Barrier: ptr(true)},
			{Module: "file", Name: "exists", Pure: ptr(true)},
		},
		Globals:      map[string]any{"author": "Jane", "year": int64(2025)},
		Prompts:      Prompts{Answers: map[string]string{"Name": "Jane", "Title": "Notes"}, SuggestFirst: true},
		HTTP:         HTTP{Timeout: time.Second},
		PromptServer: &PromptServer{URL: "http://localhost:3000"},
	}
	if diff := cmp.Diff(want, base); diff != "" {
		t.Errorf("merged model mismatch (-want +got):\n%s", diff)
	}
}

func TestModel_MergeIntoEmpty(t *testing.T) {
	m := &Model{}

	m.Merge(&Model{Globals: map[string]any{"a": true}})

	if diff := cmp.Diff(map[string]any{"a": true}, m.Globals); diff != "" {
		t.Errorf("globals mismatch (-want +got):\n%s", diff)
	}
}
