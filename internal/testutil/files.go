package testutil

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vk/burstmd/internal/services"
)

// MemFiles is an in-memory services.FileOperationService. Paths are the
// map keys; Current names the note being rendered.
type MemFiles struct {
	mu       sync.Mutex
	Notes    map[string]string
	Current  string
	Modified time.Time
	TagList  []string
}

var _ services.FileOperationService = (*MemFiles)(nil)

// NewMemFiles returns a vault holding notes, with current as the rendered
// note.
func NewMemFiles(current string, notes map[string]string) *MemFiles {
	if notes == nil {
		notes = make(map[string]string)
	}
	return &MemFiles{Notes: notes, Current: current}
}

func withExt(p string) string {
	if path.Ext(p) == "" {
		return p + ".md"
	}
	return p
}

// Exists implements services.FileOperationService.
func (m *MemFiles) Exists(_ context.Context, p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Notes[withExt(p)]
	return ok, nil
}

// Rename implements services.FileOperationService.
func (m *MemFiles) Rename(ctx context.Context, newTitle string) error {
	m.mu.Lock()
	dir := path.Dir(m.Current)
	m.mu.Unlock()
	return m.Move(ctx, path.Join(dir, newTitle))
}

// Move implements services.FileOperationService.
func (m *MemFiles) Move(_ context.Context, newPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dst := withExt(strings.TrimPrefix(newPath, "/"))
	if _, ok := m.Notes[dst]; ok {
		return fmt.Errorf("destination %s already exists", dst)
	}
	m.Notes[dst] = m.Notes[m.Current]
	delete(m.Notes, m.Current)
	m.Current = dst
	return nil
}

// CreateNew implements services.FileOperationService.
func (m *MemFiles) CreateNew(_ context.Context, content, filename, folder string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if filename == "" {
		filename = "Untitled"
	}
	p := withExt(path.Join(folder, filename))
	if _, ok := m.Notes[p]; ok {
		return "", fmt.Errorf("note %s already exists", p)
	}
	m.Notes[p] = content
	return p, nil
}

// Include implements services.FileOperationService.
func (m *MemFiles) Include(ctx context.Context, link string) (string, error) {
	name := strings.TrimSuffix(strings.TrimPrefix(link, "[["), "]]")
	p, found, _ := m.FindFile(ctx, name)
	if !found {
		return "", fmt.Errorf("note %q not found", name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Notes[p], nil
}

// FindFile implements services.FileOperationService.
func (m *MemFiles) FindFile(_ context.Context, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := withExt(name)
	if _, ok := m.Notes[want]; ok {
		return want, true, nil
	}
	keys := make([]string, 0, len(m.Notes))
	for k := range m.Notes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if path.Base(k) == want {
			return k, true, nil
		}
	}
	return "", false, nil
}

// CreationDate implements services.FileOperationService.
func (m *MemFiles) CreationDate(context.Context) (time.Time, error) { return m.Modified, nil }

// LastModifiedDate implements services.FileOperationService.
func (m *MemFiles) LastModifiedDate(context.Context) (time.Time, error) { return m.Modified, nil }

// Cursor implements services.FileOperationService.
func (m *MemFiles) Cursor(_ context.Context, order int) (string, error) {
	return fmt.Sprintf("<cursor:%d>", order), nil
}

// Selection implements services.FileOperationService.
func (m *MemFiles) Selection(context.Context) (string, error) { return "", nil }

// Tags implements services.FileOperationService.
func (m *MemFiles) Tags(context.Context) ([]string, error) { return m.TagList, nil }
