// Package file provides tp.file: information about the rendered note and
// operations on the vault through services.FileOperationService.
package file

import (
	"context"
	"time"

	"github.com/vk/burstmd/internal/registry"
	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/internal/value"
	"github.com/vk/burstmd/modules/date"
)

const dateFormat = "YYYY-MM-DD HH:mm"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the tp.file handlers. Calls that touch the vault are
// impure so that they keep their source order.
func (m *Module) Register(r *registry.Registry) {
	prop := func(name string, fn registry.HandlerFunc) {
		r.Register(&registry.Handler{Module: "file", Name: name, Property: true, Pure: true, Fn: fn})
	}
	prop("name", text(func(tc *services.TemplateContext) string { return tc.FileName }))
	prop("title", text(func(tc *services.TemplateContext) string { return tc.Title() }))
	prop("path", text(func(tc *services.TemplateContext) string { return tc.FilePath }))
	prop("folder", text(func(tc *services.TemplateContext) string { return tc.Folder() }))
	prop("content", text(func(tc *services.TemplateContext) string { return tc.FileContent }))
	prop("tags", tags)

	fn := func(name string, pure bool, fn registry.HandlerFunc) {
		r.Register(&registry.Handler{Module: "file", Name: name, Pure: pure, Fn: withFiles(fn)})
	}
	fn("exists", false, exists)
	fn("rename", false, rename)
	fn("move", false, move)
	fn("create_new", false, createNew)
	fn("include", false, include)
	fn("find_tfile", false, findFile)
	fn("cursor", false, cursor)
	fn("selection", false, selection)
	fn("creation_date", true, dated(services.FileOperationService.CreationDate))
	fn("last_modified_date", true, dated(services.FileOperationService.LastModifiedDate))
}

func text(get func(tc *services.TemplateContext) string) registry.HandlerFunc {
	return func(_ context.Context, tc *services.TemplateContext, _ []value.Value, _ value.Invoker) (value.Value, error) {
		return value.String(get(tc)), nil
	}
}

// withFiles degrades a handler to null when no file service is configured.
func withFiles(fn registry.HandlerFunc) registry.HandlerFunc {
	return func(ctx context.Context, tc *services.TemplateContext, args []value.Value, invoke value.Invoker) (value.Value, error) {
		if tc.Services.Files == nil {
			return value.Null, nil
		}
		return fn(ctx, tc, args, invoke)
	}
}

func str(args []value.Value, i int) string {
	v := value.Arg(args, i)
	if v.IsNullish() {
		return ""
	}
	return value.ToString(v)
}

func tags(ctx context.Context, tc *services.TemplateContext, _ []value.Value, _ value.Invoker) (value.Value, error) {
	if tc.Services.Files == nil {
		return value.FrozenArray(), nil
	}
	list, err := tc.Services.Files.Tags(ctx)
	if err != nil {
		return value.Undefined, err
	}
	return value.FromGo(list, true), nil
}

func exists(ctx context.Context, tc *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
	ok, err := tc.Services.Files.Exists(ctx, str(args, 0))
	return value.Bool(ok), err
}

func rename(ctx context.Context, tc *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
	return value.Undefined, tc.Services.Files.Rename(ctx, str(args, 0))
}

func move(ctx context.Context, tc *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
	return value.Undefined, tc.Services.Files.Move(ctx, str(args, 0))
}

// createNew implements tp.file.create_new(content, filename, open_new, folder).
func createNew(ctx context.Context, tc *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
	path, err := tc.Services.Files.CreateNew(ctx, str(args, 0), str(args, 1), str(args, 3))
	if err != nil {
		return value.Undefined, err
	}
	return value.String(path), nil
}

func include(ctx context.Context, tc *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
	content, err := tc.Services.Files.Include(ctx, str(args, 0))
	if err != nil {
		return value.Undefined, err
	}
	return value.String(content), nil
}

func findFile(ctx context.Context, tc *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
	path, found, err := tc.Services.Files.FindFile(ctx, str(args, 0))
	if err != nil || !found {
		return value.Null, err
	}
	return value.String(path), nil
}

func cursor(ctx context.Context, tc *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
	order := 0
	if v := value.Arg(args, 0); !v.IsNullish() {
		order = value.ToInteger(v)
	}
	marker, err := tc.Services.Files.Cursor(ctx, order)
	return value.String(marker), err
}

func selection(ctx context.Context, tc *services.TemplateContext, _ []value.Value, _ value.Invoker) (value.Value, error) {
	sel, err := tc.Services.Files.Selection(ctx)
	return value.String(sel), err
}

func dated(get func(services.FileOperationService, context.Context) (time.Time, error)) registry.HandlerFunc {
	return func(ctx context.Context, tc *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
		t, err := get(tc.Services.Files, ctx)
		if err != nil {
			return value.Undefined, err
		}
		format := str(args, 0)
		if format == "" {
			format = dateFormat
		}
		return value.String(date.Format(t, format)), nil
	}
}
