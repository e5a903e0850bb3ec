package registry

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vk/burstmd/internal/ctxlog"
	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/internal/value"
)

// Module is the interface that all tp modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered handlers and globals for a single
// application instance.
type Registry struct {
	handlers map[string]*Handler
	globals  map[string]GlobalFunc
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		handlers: make(map[string]*Handler),
		globals:  make(map[string]GlobalFunc),
	}
}

func key(module, name string) string { return module + "." + name }

// Lookup returns the handler registered for tp.<module>.<name>.
func (r *Registry) Lookup(module, name string) (*Handler, bool) {
	h, ok := r.handlers[key(module, name)]
	return h, ok
}

// IsBarrier reports whether tp.<module>.<name> waits for user interaction.
func (r *Registry) IsBarrier(module, name string) bool {
	h, ok := r.Lookup(module, name)
	return ok && h.Barrier
}

// IsPure reports whether tp.<module>.<name> is free of side effects. Unknown
// paths are pure: calling them yields undefined.
func (r *Registry) IsPure(module, name string) bool {
	h, ok := r.Lookup(module, name)
	return !ok || h.Pure
}

// Modules returns the registered module names in sorted order.
func (r *Registry) Modules() []string {
	seen := make(map[string]bool)
	var out []string
	for _, h := range r.handlers {
		if !seen[h.Module] {
			seen[h.Module] = true
			out = append(out, h.Module)
		}
	}
	slices.Sort(out)
	return out
}

// handlersOf returns the handlers of one module ordered by name.
func (r *Registry) handlersOf(module string) []*Handler {
	var out []*Handler
	for _, h := range r.handlers {
		if h.Module == module {
			out = append(out, h)
		}
	}
	slices.SortFunc(out, func(a, b *Handler) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Override replaces the metadata of a registered handler. Nil fields keep
// their registered value.
func (r *Registry) Override(ctx context.Context, module, name string, barrier, pure *bool) error {
	h, ok := r.Lookup(module, name)
	if !ok {
		return fmt.Errorf("handler tp.%s.%s is not registered", module, name)
	}
	if barrier != nil {
		h.Barrier = *barrier
	}
	if pure != nil {
		h.Pure = *pure
	}
	ctxlog.FromContext(ctx).Debug("Handler metadata overridden.", "module", module, "name", name, "barrier", h.Barrier, "pure", h.Pure)
	return nil
}

// Bind builds the script globals of one render: every registered global plus
// the frozen `tp` object whose functions close over tc.
func (r *Registry) Bind(ctx context.Context, tc *services.TemplateContext) (map[string]value.Value, error) {
	tp := value.NewObject()
	for _, module := range r.Modules() {
		obj := value.NewObject()
		for _, h := range r.handlersOf(module) {
			if h.Property {
				v, err := h.Fn(ctx, tc, nil, nil)
				if err != nil {
					return nil, fmt.Errorf("error evaluating tp.%s.%s: %w", h.Module, h.Name, err)
				}
				obj.Set(h.Name, v)
				continue
			}
			obj.Set(h.Name, value.FunctionValue(h.native(tc)))
		}
		tp.Set(module, value.ObjectValue(obj.Freeze()))
	}
	tp.Set("frontmatter", value.FromGo(tc.Frontmatter, true))

	out := map[string]value.Value{"tp": value.ObjectValue(tp.Freeze())}
	for name, fn := range r.globals {
		out[name] = fn(ctx, tc)
	}
	for name, v := range tc.Globals {
		if _, taken := out[name]; taken {
			return nil, fmt.Errorf("config global %q shadows a built-in global", name)
		}
		out[name] = value.FromGo(v, true)
	}
	return out, nil
}
