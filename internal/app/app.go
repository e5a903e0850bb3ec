package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vk/burstmd/internal/config"
	"github.com/vk/burstmd/internal/ctxlog"
	"github.com/vk/burstmd/internal/registry"
	"github.com/vk/burstmd/internal/render"
	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/modules/system"
	"github.com/vk/burstmd/modules/terminal"
	"github.com/vk/burstmd/modules/web"
)

// settings are the effective engine options after layering flags over the
// config file.
type settings struct {
	Workers      int
	Sequential   bool
	Timeout      time.Duration
	MaxCallDepth int
}

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logW     io.Writer
	logger   *slog.Logger
	config   *Config
	model    *config.Model
	settings settings
	registry *registry.Registry
	renderer *render.Renderer

	http      *web.Client
	system    services.SystemOperationsService
	closers   []func() error
	webServer *http.Server
}

// NewApp is the constructor for the main application. Rendered documents go
// to outW, logs and reports to logW. A broken config file or registry panics.
func NewApp(outW, logW io.Writer, appConfig *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model := &config.Model{}
	if appConfig.ConfigPath != "" {
		loaded, err := loader.Load(ctx, appConfig.ConfigPath)
		if err != nil {
			panic(fmt.Errorf("failed to load configuration: %w", err))
		}
		model = loaded
		logger.Debug("Configuration loaded and translated into unified model.")
	}

	reg := registry.New()
	if len(modules) == 0 {
		modules = CoreModules()
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	for _, h := range model.Handlers {
		if err := reg.Override(ctx, h.Module, h.Name, h.Barrier, h.Pure); err != nil {
			panic(fmt.Errorf("failed to apply handler override: %w", err))
		}
	}
	if err := reg.Validate(ctx); err != nil {
		// This is a programmer error (mismatch between code and config), so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	a := &App{
		outW:     outW,
		logW:     logW,
		logger:   logger,
		config:   appConfig,
		model:    model,
		settings: resolve(appConfig, model),
		registry: reg,
		http:     web.NewClient(model.HTTP.Timeout),
	}
	a.renderer = render.New(reg, render.Options{
		Workers:      a.settings.Workers,
		Sequential:   a.settings.Sequential,
		MaxCallDepth: a.settings.MaxCallDepth,
	})
	if appConfig.NonInteractive || appConfig.ServePort > 0 && appConfig.TemplatePath == "" {
		a.system = a.staticPrompter()
	} else if appConfig.PromptURL == "" && model.PromptServer == nil {
		term := terminal.New(logW)
		a.system = term
		a.closers = append(a.closers, term.Close)
	}
	logger.Debug("App configured.", "workers", a.settings.Workers, "sequential", a.settings.Sequential, "timeout", a.settings.Timeout)
	return a
}

// resolve layers explicitly set flags over the config file over flag
// defaults.
func resolve(c *Config, m *config.Model) settings {
	s := settings{Workers: c.Workers, Sequential: c.Sequential, Timeout: c.Timeout}
	if m.Engine.Workers != nil && !c.Explicit["workers"] {
		s.Workers = *m.Engine.Workers
	}
	if m.Engine.Sequential != nil && !c.Explicit["sequential"] {
		s.Sequential = *m.Engine.Sequential
	}
	if m.Engine.Timeout != nil && !c.Explicit["timeout"] {
		s.Timeout = *m.Engine.Timeout
	}
	if m.Engine.MaxCallDepth != nil {
		s.MaxCallDepth = *m.Engine.MaxCallDepth
	}
	return s
}

func (a *App) staticPrompter() *system.StaticPrompter {
	return &system.StaticPrompter{Answers: a.model.Prompts.Answers, SuggestFirst: a.model.Prompts.SuggestFirst}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Close releases the terminal, the prompt server connection and idle HTTP
// connections.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	a.http.Close()
	return firstErr
}
