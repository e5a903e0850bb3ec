package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/burstmd/internal/app"
	"github.com/vk/burstmd/internal/executor"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, c *app.Config)
	}{
		{
			name: "positional path with defaults",
			args: []string{"note.md"},
			check: func(t *testing.T, c *app.Config) {
				assert.Equal(t, "note.md", c.TemplatePath)
				assert.Equal(t, "info", c.LogLevel)
				assert.Equal(t, "text", c.LogFormat)
				assert.Equal(t, executor.DefaultWorkers, c.Workers)
				assert.Empty(t, c.Explicit)
			},
		},
		{
			name: "long flags",
			args: []string{"--template", "a.md", "--out", "b.md", "--config", "c.hcl", "--workers", "3", "--sequential", "--timeout", "2s", "--html", "--plan", "--profile"},
			check: func(t *testing.T, c *app.Config) {
				assert.Equal(t, "a.md", c.TemplatePath)
				assert.Equal(t, "b.md", c.OutPath)
				assert.Equal(t, "c.hcl", c.ConfigPath)
				assert.Equal(t, 3, c.Workers)
				assert.True(t, c.Sequential)
				assert.Equal(t, 2*time.Second, c.Timeout)
				assert.True(t, c.HTML)
				assert.True(t, c.PrintPlan)
				assert.True(t, c.PrintProfile)
				assert.True(t, c.Explicit["workers"])
				assert.True(t, c.Explicit["sequential"])
				assert.False(t, c.Explicit["log-level"])
			},
		},
		{
			name: "shorthands",
			args: []string{"-t", "x.md", "-o", "out", "-c", "conf", "-log-level", "DEBUG", "-log-format", "json"},
			check: func(t *testing.T, c *app.Config) {
				assert.Equal(t, "x.md", c.TemplatePath)
				assert.Equal(t, "out", c.OutPath)
				assert.Equal(t, "conf", c.ConfigPath)
				assert.Equal(t, "debug", c.LogLevel)
				assert.Equal(t, "json", c.LogFormat)
			},
		},
		{
			name: "server mode needs no template",
			args: []string{"--serve-port", "8080", "--non-interactive"},
			check: func(t *testing.T, c *app.Config) {
				assert.Empty(t, c.TemplatePath)
				assert.Equal(t, 8080, c.ServePort)
				assert.True(t, c.NonInteractive)
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// --- Act ---
			cfg, exit, err := Parse(tc.args, &bytes.Buffer{})

			// --- Assert ---
			require.NoError(t, err)
			require.False(t, exit)
			tc.check(t, cfg)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"unknown flag", []string{"--nope"}, "flag provided but not defined: -nope"},
		{"bad log format", []string{"--log-format", "xml", "a.md"}, "invalid log-format"},
		{"bad log level", []string{"--log-level", "loud", "a.md"}, "invalid log-level"},
		{"zero workers", []string{"--workers", "0", "a.md"}, "invalid workers"},
		{"negative timeout", []string{"--timeout", "-1s", "a.md"}, "invalid timeout"},
		{"extra arguments", []string{"a.md", "b.md"}, "unexpected arguments: b.md"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}

func TestParse_UsageExits(t *testing.T) {
	for _, args := range [][]string{{"-h"}, {}} {
		out := &bytes.Buffer{}

		cfg, exit, err := Parse(args, out)

		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, cfg)
		assert.Contains(t, out.String(), "Usage:")
	}
}
