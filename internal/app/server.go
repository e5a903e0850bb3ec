package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/vk/burstmd/internal/ctxlog"
	"github.com/vk/burstmd/internal/render"
	"github.com/vk/burstmd/internal/services"
)

// maxTemplateBytes bounds the body of a render request.
const maxTemplateBytes = 4 << 20

func (a *App) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", a.healthHandler)
	mux.HandleFunc("POST /render", func(w http.ResponseWriter, r *http.Request) {
		a.renderHandler(ctxlog.WithLogger(r.Context(), a.logger), w, r)
	})
	return mux
}

// healthHandler reports that the server is up.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// renderHandler renders the request body. Prompts are answered from the
// config file; the optional "name" query parameter sets the note's file
// name and "html=1" converts the result.
func (a *App) renderHandler(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxTemplateBytes))
	if err != nil {
		http.Error(w, "error reading template: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "Untitled.md"
	}
	tc := &services.TemplateContext{
		FileName: name,
		FilePath: name,
		Globals:  a.model.Globals,
		Services: services.Services{System: a.staticPrompter(), HTTP: a.http},
	}

	res, err := a.render(ctx, tc, string(body))
	if err != nil {
		status := http.StatusInternalServerError
		var be *render.BlockError
		if errors.As(err, &be) {
			status = http.StatusUnprocessableEntity
		}
		a.logger.Warn("Render request failed.", "error", err)
		http.Error(w, err.Error(), status)
		return
	}

	out, contentType := res.Output, "text/markdown; charset=utf-8"
	if a.config.HTML || r.URL.Query().Get("html") == "1" {
		if out, err = toHTML(out); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		contentType = "text/html; charset=utf-8"
	}
	w.Header().Set("Content-Type", contentType)
	if res.Stopped {
		w.Header().Set("X-Render-Stopped", "true")
	}
	fmt.Fprint(w, out)
}

// startWebServer binds the port and serves in the background.
func (a *App) startWebServer(ctx context.Context, port int) error {
	a.logger.Debug("Configuring web server.")
	addr := fmt.Sprintf(":%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start web server: %w", err)
	}
	a.webServer = &http.Server{
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.logger.Info("🩺 Web server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := a.webServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Web server failed unexpectedly", "error", err)
		}
	}()
	return nil
}

func (a *App) closeWebServer(ctx context.Context) error {
	if a.webServer == nil {
		a.logger.Debug("Web server was not running.")
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down web server...")
	if err := a.webServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Web server shutdown failed", "error", err)
		return err
	}
	a.logger.Debug("Web server shut down gracefully.")
	return nil
}
