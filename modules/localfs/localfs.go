// Package localfs implements services.FileOperationService on a directory of
// Markdown notes.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/vk/burstmd/internal/ctxlog"
	"github.com/vk/burstmd/internal/frontmatter"
	"github.com/vk/burstmd/internal/fsutil"
	"github.com/vk/burstmd/internal/services"
)

const ext = ".md"

// Vault is a notes directory with one current note. Paths are slash
// separated and relative to Root.
type Vault struct {
	Root string

	mu      sync.Mutex
	current string
}

var _ services.FileOperationService = (*Vault)(nil)

// New opens root with current as the note being rendered.
func New(root, current string) *Vault {
	return &Vault{Root: root, current: filepath.ToSlash(current)}
}

// Current returns the path of the current note.
func (v *Vault) Current() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

func (v *Vault) abs(rel string) string {
	return filepath.Join(v.Root, filepath.FromSlash(rel))
}

// note adds the Markdown extension when a path has none.
func note(p string) string {
	if path.Ext(p) == "" {
		return p + ext
	}
	return p
}

// Exists implements services.FileOperationService.
func (v *Vault) Exists(ctx context.Context, p string) (bool, error) {
	for _, candidate := range []string{p, note(p)} {
		_, err := os.Stat(v.abs(candidate))
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return false, err
		}
	}
	return false, nil
}

// Rename implements services.FileOperationService.
func (v *Vault) Rename(ctx context.Context, newTitle string) error {
	if newTitle == "" || strings.ContainsAny(newTitle, `/\:`) {
		return fmt.Errorf("invalid note title %q", newTitle)
	}
	cur := v.Current()
	return v.moveTo(ctx, path.Join(path.Dir(cur), newTitle+path.Ext(cur)))
}

// Move implements services.FileOperationService.
func (v *Vault) Move(ctx context.Context, newPath string) error {
	return v.moveTo(ctx, note(strings.TrimPrefix(newPath, "/")))
}

func (v *Vault) moveTo(ctx context.Context, dst string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := os.Stat(v.abs(dst)); err == nil {
		return fmt.Errorf("destination %s already exists", dst)
	}
	if err := os.MkdirAll(filepath.Dir(v.abs(dst)), 0o755); err != nil {
		return err
	}
	if err := os.Rename(v.abs(v.current), v.abs(dst)); err != nil {
		return fmt.Errorf("error moving note: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Note moved.", "from", v.current, "to", dst)
	v.current = dst
	return nil
}

// CreateNew implements services.FileOperationService. An empty filename
// becomes "Untitled", numbered when taken.
func (v *Vault) CreateNew(ctx context.Context, content, filename, folder string) (string, error) {
	base := filename
	if base == "" {
		base = "Untitled"
	}
	rel := note(path.Join(folder, base))
	for i := 1; ; i++ {
		if _, err := os.Stat(v.abs(rel)); errors.Is(err, fs.ErrNotExist) {
			break
		}
		if filename != "" {
			return "", fmt.Errorf("note %s already exists", rel)
		}
		rel = note(path.Join(folder, fmt.Sprintf("%s %d", base, i)))
	}
	if err := os.MkdirAll(filepath.Dir(v.abs(rel)), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(v.abs(rel), []byte(content), 0o644); err != nil {
		return "", err
	}
	return rel, nil
}

// Include implements services.FileOperationService. link may be a wiki link
// such as [[Note]].
func (v *Vault) Include(ctx context.Context, link string) (string, error) {
	name := strings.TrimSuffix(strings.TrimPrefix(link, "[["), "]]")
	if i := strings.IndexByte(name, '|'); i >= 0 {
		name = name[:i]
	}
	p, found, err := v.FindFile(ctx, name)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("note %q not found", name)
	}
	b, err := os.ReadFile(v.abs(p))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// FindFile implements services.FileOperationService. name matches a vault
// relative path or, failing that, the title of the first note in path order.
func (v *Vault) FindFile(ctx context.Context, name string) (string, bool, error) {
	files, err := fsutil.FindFilesByExtension(v.Root, ext)
	if err != nil {
		return "", false, err
	}
	want := note(name)
	for _, f := range files {
		if f == want {
			return f, true, nil
		}
	}
	for _, f := range files {
		if path.Base(f) == want {
			return f, true, nil
		}
	}
	return "", false, nil
}

// CreationDate implements services.FileOperationService. Birth times are not
// portable, so the modification time stands in for them.
func (v *Vault) CreationDate(ctx context.Context) (time.Time, error) {
	return v.LastModifiedDate(ctx)
}

// LastModifiedDate implements services.FileOperationService.
func (v *Vault) LastModifiedDate(ctx context.Context) (time.Time, error) {
	info, err := os.Stat(v.abs(v.Current()))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Cursor implements services.FileOperationService. Without an editor there is
// no cursor to place.
func (v *Vault) Cursor(ctx context.Context, order int) (string, error) { return "", nil }

// Selection implements services.FileOperationService.
func (v *Vault) Selection(ctx context.Context) (string, error) { return "", nil }

var inlineTag = regexp.MustCompile(`(?:^|\s)#([\p{L}\p{N}_/-]+)`)

// Tags implements services.FileOperationService: frontmatter tags first,
// then inline #tags, each once and with a leading '#'.
func (v *Vault) Tags(ctx context.Context) ([]string, error) {
	b, err := os.ReadFile(v.abs(v.Current()))
	if err != nil {
		return nil, err
	}
	doc, err := frontmatter.Split(string(b))
	if err != nil {
		ctxlog.FromContext(ctx).Warn("Ignoring invalid frontmatter.", "file", v.Current(), "error", err)
	}

	var out []string
	seen := make(map[string]bool)
	add := func(tag string) {
		tag = "#" + strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag != "#" && !seen[tag] {
			seen[tag] = true
			out = append(out, tag)
		}
	}
	switch t := doc.Data["tags"].(type) {
	case string:
		for _, tag := range strings.FieldsFunc(t, func(r rune) bool { return r == ',' || r == ' ' }) {
			add(tag)
		}
	case []any:
		for _, tag := range t {
			add(fmt.Sprint(tag))
		}
	}
	for _, m := range inlineTag.FindAllStringSubmatch(doc.Body, -1) {
		add(m[1])
	}
	return out, nil
}
