// Package env_vars provides tp.env: read-only access to the process
// environment.
package env_vars

import (
	"context"
	"os"
	"sort"
	"strings"

	"github.com/vk/burstmd/internal/registry"
	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/internal/value"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Environ lists KEY=value pairs. It defaults to os.Environ.
	Environ func() []string
}

// Register registers tp.env.get and the tp.env.all property.
func (m *Module) Register(r *registry.Registry) {
	r.Register(&registry.Handler{Module: "env", Name: "all", Property: true, Pure: true, Fn: m.all})
	r.Register(&registry.Handler{Module: "env", Name: "get", Pure: true, Fn: m.get})
}

func (m *Module) vars() map[string]string {
	environ := m.Environ
	if environ == nil {
		environ = os.Environ
	}
	envMap := make(map[string]string)
	for _, e := range environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = pair[1]
		}
	}
	return envMap
}

func (m *Module) all(context.Context, *services.TemplateContext, []value.Value, value.Invoker) (value.Value, error) {
	vars := m.vars()
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	obj := value.NewObject()
	for _, k := range keys {
		obj.Set(k, value.String(vars[k]))
	}
	return value.ObjectValue(obj.Freeze()), nil
}

// get returns the variable's value, or null when it is not set.
func (m *Module) get(_ context.Context, _ *services.TemplateContext, args []value.Value, _ value.Invoker) (value.Value, error) {
	v, ok := m.vars()[value.ToString(value.Arg(args, 0))]
	if !ok {
		return value.Null, nil
	}
	return value.String(v), nil
}
