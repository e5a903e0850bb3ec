package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/vk/burstmd/internal/ctxlog"
	"github.com/vk/burstmd/internal/fsutil"
	"github.com/vk/burstmd/internal/render"
	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/modules/localfs"
	"github.com/vk/burstmd/modules/socketio"
)

// ErrStopped reports a render that was cancelled before every directive ran.
// The committed prefix of the document has still been written.
var ErrStopped = errors.New("render stopped before completion")

// Run executes the main application logic based on the provided configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")
	defer a.Close()

	if err := a.connectPromptServer(ctx); err != nil {
		return err
	}

	if a.config.ServePort > 0 {
		if err := a.startWebServer(ctx, a.config.ServePort); err != nil {
			return err
		}
		defer a.closeWebServer(ctx)
		if a.config.TemplatePath == "" {
			<-ctx.Done()
			a.logger.Debug("Context cancelled, stopping server.")
			return nil
		}
	}

	info, err := os.Stat(a.config.TemplatePath)
	if err != nil {
		return fmt.Errorf("error accessing template path: %w", err)
	}
	if info.IsDir() {
		err = a.renderDir(ctx, a.config.TemplatePath)
	} else {
		err = a.renderFile(ctx, a.config.TemplatePath)
	}

	a.logger.Debug("App.Run method finished.")
	return err
}

func (a *App) connectPromptServer(ctx context.Context) error {
	if a.system != nil {
		return nil
	}
	opts := socketio.Options{URL: a.config.PromptURL}
	if ps := a.model.PromptServer; ps != nil {
		opts.Namespace = ps.Namespace
		opts.InsecureSkipVerify = ps.InsecureSkipVerify
		opts.AnswerTimeout = ps.AnswerTimeout
		if opts.URL == "" {
			opts.URL = ps.URL
		}
	}
	remote, err := socketio.Dial(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to prompt server: %w", err)
	}
	a.system = remote
	a.closers = append(a.closers, remote.Close)
	return nil
}

func (a *App) renderFile(ctx context.Context, path string) error {
	root, rel := filepath.Dir(path), filepath.Base(path)
	out, stopped, err := a.renderOne(ctx, root, rel)
	if err != nil {
		return err
	}
	if a.config.OutPath == "" {
		_, err = fmt.Fprint(a.outW, out)
	} else {
		err = writeFile(a.config.OutPath, out)
	}
	if err != nil {
		return fmt.Errorf("error writing output: %w", err)
	}
	if stopped {
		return ErrStopped
	}
	return nil
}

// renderDir renders every .md template below root into the output
// directory, keeping the relative layout.
func (a *App) renderDir(ctx context.Context, root string) error {
	if a.config.OutPath == "" {
		return errors.New("rendering a directory requires an output directory")
	}
	files, err := fsutil.FindFilesByExtension(root, ".md")
	if err != nil {
		return fmt.Errorf("error listing templates: %w", err)
	}
	a.logger.Info("🚀 Rendering directory.", "templates", len(files), "root", root)

	for _, rel := range files {
		out, stopped, err := a.renderOne(ctx, root, rel)
		if err != nil {
			return err
		}
		target := filepath.Join(a.config.OutPath, filepath.FromSlash(rel))
		if a.config.HTML {
			target = strings.TrimSuffix(target, filepath.Ext(target)) + ".html"
		}
		if err := writeFile(target, out); err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
		if stopped {
			return ErrStopped
		}
	}
	a.logger.Info("🏁 Directory rendered.", "templates", len(files))
	return nil
}

// renderOne renders root/rel and returns the document, converted to HTML
// when requested.
func (a *App) renderOne(ctx context.Context, root, rel string) (string, bool, error) {
	text, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return "", false, fmt.Errorf("error reading template: %w", err)
	}
	tc := &services.TemplateContext{
		FileName: filepath.Base(rel),
		FilePath: filepath.ToSlash(rel),
		Globals:  a.model.Globals,
		Services: services.Services{
			Files:  localfs.New(root, rel),
			System: a.system,
			HTTP:   a.http,
		},
	}
	res, err := a.render(ctx, tc, string(text))
	if err != nil {
		return "", false, fmt.Errorf("error rendering %s: %w", rel, err)
	}
	out := res.Output
	if a.config.HTML {
		if out, err = toHTML(out); err != nil {
			return "", false, err
		}
	}
	return out, res.Stopped, nil
}

// render runs one render under the configured timeout and prints the
// requested reports.
func (a *App) render(ctx context.Context, tc *services.TemplateContext, text string) (*render.Result, error) {
	if a.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.settings.Timeout)
		defer cancel()
	}
	res, err := a.renderer.Render(ctx, tc, text)
	if res != nil && a.config.PrintPlan && res.Plan != nil {
		fmt.Fprint(a.logW, res.Plan.String())
	}
	if res != nil && a.config.PrintProfile && res.Report != nil {
		fmt.Fprint(a.logW, res.Report.String())
		fmt.Fprint(a.logW, res.Profile.String())
	}
	if err != nil {
		return nil, err
	}
	if res.Stopped {
		a.logger.Warn("Render stopped before completion; writing the completed prefix.", "file", tc.FilePath)
	}
	return res, nil
}

func toHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.New().Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown: %w", err)
	}
	return buf.String(), nil
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
