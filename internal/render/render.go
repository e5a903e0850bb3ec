// Package render is the template orchestrator. It extracts the directives of a
// document, plans them into phases, runs the phases on the executor and
// splices every directive's text back into the document by block ID.
//
// The output is byte-identical to running the blocks one after another in
// source order; concurrency only changes how long a render takes.
package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/burstmd/internal/analysis"
	"github.com/vk/burstmd/internal/block"
	"github.com/vk/burstmd/internal/builtins"
	"github.com/vk/burstmd/internal/ctxlog"
	"github.com/vk/burstmd/internal/executor"
	"github.com/vk/burstmd/internal/frontmatter"
	"github.com/vk/burstmd/internal/interp"
	"github.com/vk/burstmd/internal/registry"
	"github.com/vk/burstmd/internal/resultstore"
	"github.com/vk/burstmd/internal/scheduler"
	"github.com/vk/burstmd/internal/services"
	"github.com/vk/burstmd/internal/value"
)

// Options tune a Renderer.
type Options struct {
	// Workers bounds the goroutines running one phase.
	Workers int
	// Sequential runs one block per phase.
	Sequential bool
	// MaxCallDepth limits script recursion; zero keeps the interpreter default.
	MaxCallDepth int
}

// Result is the outcome of one render.
type Result struct {
	Output string
	// Stopped is set when cancellation ended the render early. Output then
	// holds the text before the first block that did not complete.
	Stopped bool
	Plan    *scheduler.ExecutionPlan
	Report  *executor.Report
	Profile *interp.Profile
}

// Renderer renders templates. It is safe for concurrent use; every Render
// call gets its own environment.
type Renderer struct {
	reg  *registry.Registry
	opts Options
}

// New creates a renderer. reg supplies the tp modules and may be nil.
func New(reg *registry.Registry, opts Options) *Renderer {
	return &Renderer{reg: reg, opts: opts}
}

func (r *Renderer) planner() scheduler.Scheduler {
	var meta analysis.Metadata
	if r.reg != nil {
		meta = r.reg
	}
	if r.opts.Sequential {
		return scheduler.NewSequential(meta)
	}
	return scheduler.New(meta)
}

// Render renders text against tc. Extraction and syntax errors abort before
// any block runs. A failing block aborts the render with a *BlockError.
func (r *Renderer) Render(ctx context.Context, tc *services.TemplateContext, text string) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("file", tc.FilePath)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Info("▶️ Rendering template.")

	local := *tc
	if local.Frontmatter == nil {
		doc, err := frontmatter.Split(text)
		if err != nil {
			logger.Warn("Ignoring invalid frontmatter.", "error", err)
		}
		local.Frontmatter = doc.Data
	}
	if local.FileContent == "" {
		local.FileContent = text
	}
	if local.Now.IsZero() {
		local.Now = time.Now()
	}

	blocks, err := block.Extract(text)
	if err != nil {
		return nil, fmt.Errorf("error extracting directives: %w", err)
	}
	units, err := compile(blocks)
	if err != nil {
		return nil, err
	}

	plan, err := r.planner().CreateExecutionPlan(ctx, blocks)
	if err != nil {
		return nil, fmt.Errorf("error planning execution: %w", err)
	}

	env, err := r.environment(ctx, &local)
	if err != nil {
		return nil, err
	}
	profile := interp.NewProfile()
	opts := []interp.Option{interp.WithProfile(profile)}
	if r.opts.MaxCallDepth > 0 {
		opts = append(opts, interp.WithMaxCallDepth(r.opts.MaxCallDepth))
	}
	in := interp.New(opts...)

	task := func(ctx context.Context, id int) (string, error) {
		out, err := run(ctx, in, units[id], env)
		if err != nil && !errors.Is(err, interp.ErrCancelled) {
			return "", locate(units[id].block, err)
		}
		return out, err
	}

	store := resultstore.New()
	report, err := executor.New(task, store, r.opts.Workers).Execute(ctx, plan)
	res := &Result{Plan: plan, Report: report, Profile: profile}
	if err != nil {
		return res, err
	}

	outputs, committed := store.Outputs(len(blocks))
	gaps := block.Layout(text, blocks)
	res.Stopped = report.Stopped || committed < len(blocks)
	res.Output = block.Assemble(gaps[:committed+1], outputs[:committed])

	logger.Info("✅ Render finished.",
		"blocks", len(blocks),
		"phases", len(plan.Phases),
		"parallelizable", plan.ParallelizableBlocks,
		"stopped", res.Stopped,
		"duration", report.Total,
	)
	return res, nil
}

// environment builds the root scope: standard globals, tp and the registered
// globals as constants, and an empty accumulator.
func (r *Renderer) environment(ctx context.Context, tc *services.TemplateContext) (*interp.Env, error) {
	env := interp.NewEnv(nil)
	for name, v := range builtins.Globals(tc.Clock()) {
		env.Declare(name, v, true)
	}
	if r.reg != nil {
		bound, err := r.reg.Bind(ctx, tc)
		if err != nil {
			return nil, fmt.Errorf("error binding tp modules: %w", err)
		}
		for name, v := range bound {
			env.Declare(name, v, true)
		}
	}
	env.Define(interp.OutputVar, value.String(""))
	return env, nil
}

// run executes one block and returns its substitution text.
func run(ctx context.Context, in *interp.Interpreter, u compiled, env *interp.Env) (string, error) {
	if u.prog != nil {
		return in.Execute(ctx, u.prog, env)
	}
	if u.expr == nil {
		return "", nil
	}
	v, err := in.Evaluate(ctx, u.expr, env)
	if err != nil {
		return "", err
	}
	return interpolate(v), nil
}

// interpolate converts the value of an interpolation directive to text;
// null and undefined produce nothing.
func interpolate(v value.Value) string {
	if v.IsNullish() {
		return ""
	}
	return value.ToString(v)
}
