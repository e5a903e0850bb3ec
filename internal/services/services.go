// Package services defines the host capabilities a render consumes and the
// read-only context a template is rendered against.
//
// The engine never implements file access, prompts, clipboard or HTTP itself.
// Hosts plug concrete adapters into Services; any nil service makes the tp
// functions that need it degrade to null.
package services

import (
	"context"
	"path"
	"strings"
	"time"
)

// TemplateContext is the read-only input of one render.
type TemplateContext struct {
	Frontmatter map[string]any
	// FileName is the base name of the template, with extension.
	FileName    string
	FilePath    string
	FileContent string
	// Now is the clock snapshot shared by every block of the render.
	Now time.Time
	// Globals are extra read-only script globals, usually from the config file.
	Globals  map[string]any
	Services Services
}

// Title returns the file name without its extension.
func (tc *TemplateContext) Title() string {
	return strings.TrimSuffix(tc.FileName, path.Ext(tc.FileName))
}

// Folder returns the directory part of FilePath, or "" at the root.
func (tc *TemplateContext) Folder() string {
	dir := path.Dir(tc.FilePath)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// Clock returns the render's clock. Every call yields the same snapshot.
func (tc *TemplateContext) Clock() func() time.Time {
	now := tc.Now
	if now.IsZero() {
		now = time.Now()
	}
	return func() time.Time { return now }
}

// Services bundles the host adapters.
type Services struct {
	Files     FileOperationService
	System    SystemOperationsService
	Clipboard ClipboardService
	HTTP      HttpService
}

// FileOperationService backs tp.file.
type FileOperationService interface {
	Exists(ctx context.Context, path string) (bool, error)
	Rename(ctx context.Context, newTitle string) error
	Move(ctx context.Context, newPath string) error
	// CreateNew creates a note and returns its path.
	CreateNew(ctx context.Context, content, filename, folder string) (string, error)
	// Include returns the content of the linked note.
	Include(ctx context.Context, link string) (string, error)
	FindFile(ctx context.Context, name string) (path string, found bool, err error)
	CreationDate(ctx context.Context) (time.Time, error)
	LastModifiedDate(ctx context.Context) (time.Time, error)
	Cursor(ctx context.Context, order int) (string, error)
	Selection(ctx context.Context) (string, error)
	Tags(ctx context.Context) ([]string, error)
}

// PromptRequest describes one tp.system.prompt call.
type PromptRequest struct {
	Message   string
	Default   string
	Multiline bool
}

// SystemOperationsService backs the interactive tp.system calls. Every method
// blocks until the user answers; ok is false when the user dismissed the
// dialog.
type SystemOperationsService interface {
	Prompt(ctx context.Context, req PromptRequest) (answer string, ok bool, err error)
	Suggester(ctx context.Context, labels []string, placeholder string) (index int, ok bool, err error)
	MultiSuggester(ctx context.Context, labels []string, placeholder string) (indexes []int, ok bool, err error)
}

// ClipboardService backs tp.system.clipboard.
type ClipboardService interface {
	Read(ctx context.Context) (string, error)
}

// HttpService backs tp.web.request.
type HttpService interface {
	// Get fetches url and returns the response body.
	Get(ctx context.Context, url string) ([]byte, error)
}
