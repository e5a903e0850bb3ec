package console

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/burstmd/internal/registry"
	"github.com/vk/burstmd/internal/render"
	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/internal/testutil"
	"github.com/vk/burstmd/internal/value"
)

func TestConsole_LogsThroughContextLogger(t *testing.T) {
	// --- Arrange ---
	ctx, logs := testutil.NewTestContext(t)
	reg := registry.New()
	(&Module{}).Register(reg)
	text := `<%* console.log("total", 3, {a: [1, 2]}) %><%* console.warn("careful") %><%* console.debug("details") %>done`

	// --- Act ---
	res, err := render.New(reg, render.Options{}).Render(ctx, &services.TemplateContext{}, text)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "done", res.Output, "console output never reaches the document")
	out := logs.String()
	assert.Contains(t, out, `level=INFO msg="total 3 {\"a\":[1,2]}"`)
	assert.Contains(t, out, "source=console")
	assert.Contains(t, out, `level=WARN msg=careful`)
	assert.Contains(t, out, `level=DEBUG msg=details`)
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		args []value.Value
		want string
	}{
		{"empty", nil, ""},
		{"strings and numbers", []value.Value{value.String("a"), value.Number(1.5)}, "a 1.5"},
		{"null and undefined", []value.Value{value.Null, value.Undefined}, "null undefined"},
		{"array as json", []value.Value{value.Array(value.String("x"), value.Bool(true))}, `["x",true]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Format(tc.args))
		})
	}
}
