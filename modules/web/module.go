// Package web provides tp.web: HTTP requests through services.HttpService.
package web

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/vk/burstmd/internal/builtins"
	"github.com/vk/burstmd/internal/registry"
	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/internal/value"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers tp.web.request. A GET has no effect other blocks could
// observe, so the handler is pure.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Handler{Module: "web", Name: "request", Pure: true, Fn: request})
}

// request implements tp.web.request(url, path). JSON responses are decoded
// and, when path is given, narrowed to the dotted path inside them. Anything
// else is returned as text.
func request(ctx context.Context, tc *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
	if tc.Services.HTTP == nil {
		return value.Null, nil
	}
	url := value.ToString(value.Arg(args, 0))
	body, err := tc.Services.HTTP.Get(ctx, url)
	if err != nil {
		return value.Undefined, err
	}
	doc, err := builtins.ParseJSON(string(body))
	if err != nil {
		return value.String(string(body)), nil
	}
	path := value.Arg(args, 1)
	if path.IsNullish() || value.ToString(path) == "" {
		return doc, nil
	}
	return Lookup(doc, value.ToString(path))
}

// Lookup follows a dotted path such as "items.0.name" through objects and
// arrays.
func Lookup(v value.Value, path string) (value.Value, error) {
	cur := v
	for _, seg := range strings.Split(path, ".") {
		var ok bool
		switch cur.Kind() {
		case value.KindArray:
			i, err := strconv.Atoi(seg)
			if err == nil && i >= 0 && i < cur.List().Len() {
				cur, ok = cur.List().At(i), true
			}
		case value.KindObject:
			cur, ok = cur.Object().Get(seg)
		}
		if !ok {
			return value.Undefined, fmt.Errorf("path %q not found in response at %q", path, seg)
		}
	}
	return cur, nil
}
