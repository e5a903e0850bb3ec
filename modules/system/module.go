// Package system provides tp.system: user prompts, suggesters and the
// clipboard. Prompts and suggesters are barriers.
package system

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/burstmd/internal/registry"
	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/internal/value"
)

// ErrDismissed is returned when the user dismisses a dialog and the script
// asked to throw on cancel.
var ErrDismissed = errors.New("cancelled by user")

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the tp.system handlers.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Handler{Module: "system", Name: "prompt", Barrier: true, Fn: prompt})
	r.Register(&registry.Handler{Module: "system", Name: "suggester", Barrier: true, Fn: suggester})
	r.Register(&registry.Handler{Module: "system", Name: "multiSuggester", Barrier: true, Fn: multiSuggester})
	r.Register(&registry.Handler{Module: "system", Name: "clipboard", Fn: clipboard})
}

func optString(args []value.Value, i int) string {
	v := value.Arg(args, i)
	if v.IsNullish() {
		return ""
	}
	return value.ToString(v)
}

// dismissed maps a dismissed dialog to null, or to an error when the script
// passed throw_on_cancel.
func dismissed(args []value.Value, throwIdx int) (value.Value, error) {
	if value.Truthy(value.Arg(args, throwIdx)) {
		return value.Undefined, ErrDismissed
	}
	return value.Null, nil
}

// prompt implements tp.system.prompt(message, default, throw_on_cancel, multiline).
func prompt(ctx context.Context, tc *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
	sys := tc.Services.System
	if sys == nil {
		return value.Null, nil
	}
	answer, ok, err := sys.Prompt(ctx, services.PromptRequest{
		Message:   optString(args, 0),
		Default:   optString(args, 1),
		Multiline: value.Truthy(value.Arg(args, 3)),
	})
	if err != nil {
		return value.Undefined, err
	}
	if !ok {
		return dismissed(args, 2)
	}
	return value.String(answer), nil
}

// labels resolves text_items: either an array parallel to items or a
// function mapping each item to its label.
func labels(textItems, items value.Value, invoke value.Invoker) ([]string, error) {
	if textItems.Kind() == value.KindFunction {
		if items.List() == nil {
			return nil, nil
		}
		out := make([]string, items.List().Len())
		for i, item := range items.List().Values() {
			v, err := invoke(textItems, item)
			if err != nil {
				return nil, fmt.Errorf("error computing suggester label: %w", err)
			}
			out[i] = value.ToString(v)
		}
		return out, nil
	}
	if textItems.List() == nil {
		return nil, nil
	}
	out := make([]string, textItems.List().Len())
	for i, v := range textItems.List().Values() {
		out[i] = value.ToString(v)
	}
	return out, nil
}

// suggester implements tp.system.suggester(text_items, items, throw_on_cancel,
// placeholder).
func suggester(ctx context.Context, tc *services.TemplateContext, args []value.Value, invoke value.Invoker) (value.Value, error) {
	sys := tc.Services.System
	items := value.Arg(args, 1)
	if sys == nil || items.List() == nil {
		return value.Null, nil
	}
	names, err := labels(value.Arg(args, 0), items, invoke)
	if err != nil {
		return value.Undefined, err
	}
	idx, ok, err := sys.Suggester(ctx, names, optString(args, 3))
	if err != nil {
		return value.Undefined, err
	}
	if !ok || idx < 0 || idx >= items.List().Len() {
		return dismissed(args, 2)
	}
	return items.List().At(idx), nil
}

// multiSuggester implements tp.system.multiSuggester(text_items, items,
// throw_on_cancel, title). The result is the array of picked items.
func multiSuggester(ctx context.Context, tc *services.TemplateContext, args []value.Value, invoke value.Invoker) (value.Value, error) {
	sys := tc.Services.System
	items := value.Arg(args, 1)
	if sys == nil || items.List() == nil {
		return value.Null, nil
	}
	names, err := labels(value.Arg(args, 0), items, invoke)
	if err != nil {
		return value.Undefined, err
	}
	idxs, ok, err := sys.MultiSuggester(ctx, names, optString(args, 3))
	if err != nil {
		return value.Undefined, err
	}
	if !ok {
		return dismissed(args, 2)
	}
	picked := make([]value.Value, 0, len(idxs))
	for _, i := range idxs {
		if i >= 0 && i < items.List().Len() {
			picked = append(picked, items.List().At(i))
		}
	}
	return value.Array(picked...), nil
}

// clipboard implements tp.system.clipboard().
func clipboard(ctx context.Context, tc *services.TemplateContext, _ []value.Value, _ value.Invoker) (value.Value, error) {
	if tc.Services.Clipboard == nil {
		return value.Null, nil
	}
	text, err := tc.Services.Clipboard.Read(ctx)
	if err != nil {
		return value.Undefined, err
	}
	return value.String(text), nil
}
