package integrationtests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vk/burstmd/internal/app"
	"github.com/vk/burstmd/internal/registry"
	"github.com/vk/burstmd/internal/render"
	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/internal/testutil"
)

const sleep = 100 * time.Millisecond

// harness bundles a registry wired to every core module plus the sleeper,
// and recording host services.
type harness struct {
	Sleeper  *testutil.SleeperModule
	Prompter *testutil.Prompter
	Files    *testutil.MemFiles
	Registry *registry.Registry
	Logs     *testutil.SafeBuffer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		Sleeper:  testutil.NewSleeperModule(sleep),
		Prompter: &testutil.Prompter{Answer: "Ada"},
		Files: testutil.NewMemFiles("Journal/Today.md", map[string]string{
			"Journal/Today.md":    "",
			"Templates/Footer.md": "-- footer --",
		}),
		Registry: registry.New(),
	}
	for _, m := range append(app.CoreModules(), h.Sleeper) {
		m.Register(h.Registry)
	}
	return h
}

func (h *harness) context() *services.TemplateContext {
	return &services.TemplateContext{
		FileName: "Today.md",
		FilePath: "Journal/Today.md",
		Services: services.Services{Files: h.Files, System: h.Prompter},
	}
}

// render runs text with the given options and fails the test on error.
func (h *harness) render(t *testing.T, opts render.Options, text string) *render.Result {
	t.Helper()
	ctx, logs := testutil.NewTestContext(t)
	h.Logs = logs
	res, err := render.New(h.Registry, opts).Render(ctx, h.context(), text)
	require.NoError(t, err)
	return res
}
