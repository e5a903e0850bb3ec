package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/burstmd/internal/registry"
	"github.com/vk/burstmd/internal/render"
	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/modules/localfs"
)

func setup(t *testing.T) (*registry.Registry, *services.TemplateContext, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "notes"), 0o755))
	current := filepath.Join(root, "notes", "Plan.md")
	require.NoError(t, os.WriteFile(current, []byte("#draft body"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Snippet.md"), []byte("included text"), 0o644))
	mod := time.Date(2023, 7, 1, 10, 30, 0, 0, time.Local)
	require.NoError(t, os.Chtimes(current, mod, mod))

	reg := registry.New()
	(&Module{}).Register(reg)
	tc := &services.TemplateContext{
		FileName:    "Plan.md",
		FilePath:    "notes/Plan.md",
		FileContent: "#draft body",
		Services:    services.Services{Files: localfs.New(root, "notes/Plan.md")},
	}
	return reg, tc, root
}

func TestFileModule(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"name", "<% tp.file.name %>", "Plan.md"},
		{"title", "<% tp.file.title %>", "Plan"},
		{"path", "<% tp.file.path %>", "notes/Plan.md"},
		{"folder", "<% tp.file.folder %>", "notes"},
		{"content", "<% tp.file.content %>", "#draft body"},
		{"tags", "<% tp.file.tags.join(' ') %>", "#draft"},
		{"exists", "<% tp.file.exists('Snippet') %>/<% tp.file.exists('Nope') %>", "true/false"},
		{"find", "<% tp.file.find_tfile('Snippet') %>|<% tp.file.find_tfile('Nope') %>", "Snippet.md|"},
		{"include", "<% tp.file.include('[[Snippet]]') %>", "included text"},
		{"modified", "<% tp.file.last_modified_date('YYYY-MM-DD HH:mm') %>", "2023-07-01 10:30"},
		{"created default format", "<% tp.file.creation_date() %>", "2023-07-01 10:30"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg, tctx, _ := setup(t)

			res, err := render.New(reg, render.Options{}).Render(context.Background(), tctx, tc.template)

			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Output)
		})
	}
}

func TestFileModule_SideEffectsKeepOrder(t *testing.T) {
	// --- Arrange ---
	reg, tctx, root := setup(t)
	text := `<%* await tp.file.create_new("a", "Made", false, "out") %><% tp.file.exists("out/Made") %><%* await tp.file.rename("Renamed") %>`

	// --- Act ---
	res, err := render.New(reg, render.Options{Workers: 4}).Render(context.Background(), tctx, text)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "true", res.Output)
	assert.Len(t, res.Plan.Phases, 3, "tp.file calls are ordered")
	assert.FileExists(t, filepath.Join(root, "notes", "Renamed.md"))
}

func TestFileModule_WithoutService(t *testing.T) {
	reg := registry.New()
	(&Module{}).Register(reg)

	res, err := render.New(reg, render.Options{}).Render(context.Background(), &services.TemplateContext{FileName: "X.md"},
		"<% tp.file.title %>|<% tp.file.exists('a') %>|<% tp.file.tags.length %>")

	require.NoError(t, err)
	assert.Equal(t, "X||0", res.Output)
}
