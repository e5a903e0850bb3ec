package env_vars

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/burstmd/internal/registry"
	"github.com/vk/burstmd/internal/render"
	"github.com/vk/burstmd/internal/services"
)

func TestEnvModule(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"get", `<% tp.env.get("EDITOR") %>`, "vim"},
		{"missing is null", `<% tp.env.get("NOPE") === null %>`, "true"},
		{"all is sorted", `<% Object.keys(tp.env.all).join(",") %>`, "EDITOR,HOME"},
		{"value with equals sign", `<% tp.env.all.HOME %>`, "/home/a=b"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			reg := registry.New()
			(&Module{Environ: func() []string {
				return []string{"HOME=/home/a=b", "EDITOR=vim", "BROKEN"}
			}}).Register(reg)

			// --- Act ---
			res, err := render.New(reg, render.Options{}).Render(context.Background(), &services.TemplateContext{}, tc.template)

			// --- Assert ---
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Output)
		})
	}
}

func TestEnvModule_ProcessEnvironment(t *testing.T) {
	t.Setenv("BURSTMD_TEST_VAR", "from-process")
	reg := registry.New()
	(&Module{}).Register(reg)

	res, err := render.New(reg, render.Options{}).Render(context.Background(), &services.TemplateContext{}, `<% tp.env.get("BURSTMD_TEST_VAR") %>`)

	require.NoError(t, err)
	assert.Equal(t, "from-process", res.Output)
}

func TestEnvModule_AllIsReadOnly(t *testing.T) {
	reg := registry.New()
	(&Module{}).Register(reg)

	res, err := render.New(reg, render.Options{}).Render(context.Background(), &services.TemplateContext{}, `<%* tp.env.all.BURSTMD_X = "1" %><% tp.env.all.BURSTMD_X === undefined %>`)

	require.NoError(t, err)
	assert.Equal(t, "true", res.Output)
}
