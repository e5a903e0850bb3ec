package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/internal/value"
)

// HandlerFunc implements a tp function. invoke calls script callbacks passed
// as arguments; it is nil for property handlers.
type HandlerFunc func(ctx context.Context, tc *services.TemplateContext, args []value.Value, invoke value.Invoker) (value.Value, error)

// Handler is one tp.<Module>.<Name> entry.
type Handler struct {
	Module string
	Name   string
	// Barrier handlers wait for a human and never run alongside other blocks.
	Barrier bool
	// Pure handlers have no side effects observable by other blocks.
	Pure bool
	// Property handlers are evaluated once per render and exposed as plain
	// values, such as tp.file.title.
	Property bool
	Fn       HandlerFunc
}

func (h *Handler) native(tc *services.TemplateContext) *value.Native {
	return value.NewNative(fmt.Sprintf("tp.%s.%s", h.Module, h.Name), func(ctx context.Context, args []value.Value, invoke value.Invoker) (value.Value, error) {
		return h.Fn(ctx, tc, args, invoke)
	})
}

// Register adds a handler. It panics when the path is already taken.
func (r *Registry) Register(h *Handler) {
	k := key(h.Module, h.Name)
	if _, exists := r.handlers[k]; exists {
		panic(fmt.Sprintf("handler 'tp.%s' already registered", k))
	}
	slog.Debug("Registering handler.", "module", h.Module, "name", h.Name, "barrier", h.Barrier, "pure", h.Pure)
	r.handlers[k] = h
}

// GlobalFunc builds a top-level script global for one render.
type GlobalFunc func(ctx context.Context, tc *services.TemplateContext) value.Value

// RegisterGlobal adds a top-level script global such as console. It panics
// when the name is already taken.
func (r *Registry) RegisterGlobal(name string, fn GlobalFunc) {
	if _, exists := r.globals[name]; exists {
		panic(fmt.Sprintf("global '%s' already registered", name))
	}
	slog.Debug("Registering global.", "name", name)
	r.globals[name] = fn
}
