// Package console provides the console script global. Messages go to the
// render's logger, never to the rendered document.
package console

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vk/burstmd/internal/builtins"
	"github.com/vk/burstmd/internal/ctxlog"
	"github.com/vk/burstmd/internal/registry"
	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/internal/value"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var levels = []struct {
	name  string
	level slog.Level
}{
	{"log", slog.LevelInfo},
	{"info", slog.LevelInfo},
	{"warn", slog.LevelWarn},
	{"error", slog.LevelError},
	{"debug", slog.LevelDebug},
}

// Register registers the console global.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterGlobal("console", func(context.Context, *services.TemplateContext) value.Value {
		obj := value.NewObject()
		for _, l := range levels {
			obj.Set(l.name, value.FunctionValue(value.NewNative("console."+l.name, logAt(l.level))))
		}
		return value.ObjectValue(obj.Freeze())
	})
}

func logAt(level slog.Level) value.NativeFunc {
	return func(ctx context.Context, args []value.Value, _ value.Invoker) (value.Value, error) {
		ctxlog.FromContext(ctx).Log(ctx, level, Format(args), "source", "console")
		return value.Undefined, nil
	}
}

// Format joins console arguments with spaces. Objects and arrays are shown
// as JSON.
func Format(args []value.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		switch a.Kind() {
		case value.KindObject, value.KindArray:
			if s, ok := builtins.Stringify(a, ""); ok {
				parts[i] = s
				continue
			}
		}
		parts[i] = value.ToString(a)
	}
	return strings.Join(parts, " ")
}
