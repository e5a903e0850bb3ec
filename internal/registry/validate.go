package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/burstmd/internal/ctxlog"
)

// reservedGlobals are provided by the interpreter and cannot be registered.
var reservedGlobals = map[string]bool{"tp": true, "tR": true}

// Validate checks the registry for handlers the renderer could not bind.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for k, h := range r.handlers {
		if h.Module == "" || h.Name == "" {
			errs = append(errs, fmt.Sprintf("handler '%s': module and name must not be empty", k))
		}
		if h.Module == "frontmatter" {
			errs = append(errs, fmt.Sprintf("handler '%s': module name 'frontmatter' is reserved", k))
		}
		if h.Fn == nil {
			errs = append(errs, fmt.Sprintf("handler '%s': no function registered", k))
		}
		if h.Property && h.Barrier {
			errs = append(errs, fmt.Sprintf("handler '%s': a property cannot be a barrier", k))
		}
		if h.Barrier && h.Pure {
			logger.Warn("Barrier handler is marked pure, treating it as a barrier.", "handler", k)
		}
	}
	for name := range r.globals {
		if reservedGlobals[name] {
			errs = append(errs, fmt.Sprintf("global '%s' is reserved", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	logger.Debug("Registry validated.", "handlers", len(r.handlers), "globals", len(r.globals))
	return nil
}
