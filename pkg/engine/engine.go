package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goliatone/go-textgen/internal/fsutil"
	"github.com/goliatone/go-textgen/pkg/hashstore"
	"github.com/goliatone/go-textgen/pkg/loader"
	"github.com/goliatone/go-textgen/pkg/plan"
	"github.com/goliatone/go-textgen/pkg/render/template"
)

// TemplateLoader resolves a template reference to its content and identity.
type TemplateLoader interface {
	Load(ctx context.Context, ref string) (loader.Template, error)
}

// DataLoader resolves a data reference to the mapping templates render with.
type DataLoader interface {
	Load(ctx context.Context, ref string) (map[string]any, error)
}

// Reporter observes a run. Rendered fires once per written output; Summary
// fires once after the run.
type Reporter interface {
	Rendered(template, output string)
	Summary(summary Summary)
}

// Option customises an Engine.
type Option func(*Engine)

// WithTemplates sets the template loader.
func WithTemplates(templates TemplateLoader) Option {
	return func(e *Engine) {
		e.templates = templates
	}
}

// WithData sets the data loader.
func WithData(data DataLoader) Option {
	return func(e *Engine) {
		e.data = data
	}
}

// WithRenderer sets the template engine.
func WithRenderer(renderer template.Renderer) Option {
	return func(e *Engine) {
		e.renderer = renderer
	}
}

// WithStore sets the hash store consulted before every write. Without one
// the engine uses a fresh in-memory store.
func WithStore(store *hashstore.Store) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithPermissions replaces the permission propagator run after each write.
func WithPermissions(fn fsutil.PermissionFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.permissions = fn
		}
	}
}

// WithFileWriter replaces the function that writes outputs.
func WithFileWriter(fn func(path string, data []byte) error) Option {
	return func(e *Engine) {
		if fn != nil {
			e.writeFile = fn
		}
	}
}

// WithReporter sets the run observer.
func WithReporter(reporter Reporter) Option {
	return func(e *Engine) {
		e.reporter = reporter
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine renders plans. It is not safe for concurrent RenderAll calls.
type Engine struct {
	templates   TemplateLoader
	data        DataLoader
	renderer    template.Renderer
	store       *hashstore.Store
	permissions fsutil.PermissionFunc
	writeFile   func(path string, data []byte) error
	reporter    Reporter
	logger      *slog.Logger
}

// New constructs an Engine. Loaders and a renderer are required.
func New(options ...Option) (*Engine, error) {
	e := &Engine{
		permissions: fsutil.CopyPermissions,
		writeFile:   fsutil.WriteFile,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}

	if e.templates == nil {
		return nil, errors.New("engine: template loader is required")
	}
	if e.data == nil {
		return nil, errors.New("engine: data loader is required")
	}
	if e.renderer == nil {
		return nil, errors.New("engine: renderer is required")
	}
	if e.store == nil {
		e.store = hashstore.New(hashstore.WithLogger(e.logger))
	}
	if e.reporter == nil {
		e.reporter = nopReporter{}
	}
	return e, nil
}

// Store returns the hash store the engine consults.
func (e *Engine) Store() *hashstore.Store {
	return e.store
}

// RenderAll executes every triple of p in the given order. Total counts each
// attempt; Changed counts attempts that wrote. On error the summary holds the
// counts reached before the failure.
func (e *Engine) RenderAll(ctx context.Context, p *plan.Plan, order plan.Order) (Summary, error) {
	if ctx == nil {
		return Summary{}, errors.New("engine: context is required")
	}
	if p == nil {
		return Summary{}, nil
	}

	run := &run{engine: e, templates: make(map[string]loader.Template)}

	e.logger.Debug("render plan", "order", order.String(), "triples", p.Len())

	var err error
	switch order {
	case plan.TemplateFirst:
		err = run.templateFirst(ctx, p.ByTemplate)
	default:
		err = run.dataFirst(ctx, p.ByData)
	}
	return run.summary, err
}

// Report forwards the summary to the reporter.
func (e *Engine) Report(summary Summary) {
	e.logger.Info("render finished",
		"outcome", summary.Outcome().String(),
		"changed", summary.Changed,
		"total", summary.Total,
	)
	e.reporter.Summary(summary)
}

// run holds per-RenderAll state: counters and the templates already read.
type run struct {
	engine    *Engine
	templates map[string]loader.Template
	summary   Summary
}

func (r *run) dataFirst(ctx context.Context, byData *plan.Grouping) error {
	for _, dataRef := range byData.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := r.data(ctx, dataRef)
		if err != nil {
			return err
		}
		for _, pair := range byData.Pairs(dataRef) {
			if err := ctx.Err(); err != nil {
				return err
			}
			tmpl, err := r.template(ctx, pair.Ref)
			if err != nil {
				return err
			}
			if err := r.attempt(tmpl, data, pair.Output); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *run) templateFirst(ctx context.Context, byTemplate *plan.Grouping) error {
	for _, templateRef := range byTemplate.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		tmpl, err := r.template(ctx, templateRef)
		if err != nil {
			return err
		}
		for _, pair := range byTemplate.Pairs(templateRef) {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := r.data(ctx, pair.Ref)
			if err != nil {
				return err
			}
			if err := r.attempt(tmpl, data, pair.Output); err != nil {
				return err
			}
		}
	}
	return nil
}

// data loads ref. An empty reference renders against an empty mapping; copy
// targets carry no data file.
func (r *run) data(ctx context.Context, ref string) (map[string]any, error) {
	if ref == "" {
		return map[string]any{}, nil
	}
	data, err := r.engine.data.Load(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("engine: load data %q: %w", ref, err)
	}
	return data, nil
}

func (r *run) template(ctx context.Context, ref string) (loader.Template, error) {
	if tmpl, ok := r.templates[ref]; ok {
		return tmpl, nil
	}
	tmpl, err := r.engine.templates.Load(ctx, ref)
	if err != nil {
		return loader.Template{}, fmt.Errorf("engine: load template %q: %w", ref, err)
	}
	r.templates[ref] = tmpl
	return tmpl, nil
}

func (r *run) attempt(tmpl loader.Template, data map[string]any, output string) error {
	changed, err := r.engine.applyOne(tmpl, data, output)
	r.summary.Total++
	if err != nil {
		return err
	}
	if changed {
		r.summary.Changed++
		r.engine.reporter.Rendered(tmpl.Ref, output)
	}
	return nil
}

// applyOne renders tmpl against data and writes output when the store reports
// a change. It returns whether a write happened.
func (e *Engine) applyOne(tmpl loader.Template, data map[string]any, output string) (bool, error) {
	rendered, err := e.renderer.RenderString(tmpl.Content, data)
	if err != nil {
		return false, fmt.Errorf("engine: render %q: %w", tmpl.Ref, err)
	}

	content := []byte(rendered)
	if !isVerbatim(e.renderer) {
		content = []byte(stripTrailingNewlines(rendered))
	}
	if !fsutil.Exists(output) {
		// A recorded hash says nothing once the file itself is gone.
		e.store.Forget(output)
	}
	if !e.store.IsChanged(output, content, tmpl.Signature()) {
		e.logger.Debug("output unchanged", "template", tmpl.Ref, "output", output)
		return false, nil
	}

	if err := e.writeFile(output, content); err != nil {
		// The entry was recorded optimistically; drop it so the next run retries.
		e.store.Forget(output)
		return false, fmt.Errorf("engine: write %q: %w", output, err)
	}
	if err := e.permissions(tmpl.Path, output); err != nil {
		e.logger.Warn("copy permissions", "template", tmpl.Path, "output", output, "error", err)
	}
	return true, nil
}

func isVerbatim(renderer template.Renderer) bool {
	v, ok := renderer.(template.Verbatim)
	return ok && v.Verbatim()
}

// stripTrailingNewlines removes the run of newline characters ending s.
func stripTrailingNewlines(s string) string {
	return strings.TrimRight(s, "\r\n")
}

type nopReporter struct{}

func (nopReporter) Rendered(string, string) {}
func (nopReporter) Summary(Summary)         {}
