package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/goliatone/go-textgen/internal/fsutil"
	"github.com/goliatone/go-textgen/pkg/config"
	"github.com/goliatone/go-textgen/pkg/engine"
	"github.com/goliatone/go-textgen/pkg/hashstore"
	"github.com/goliatone/go-textgen/pkg/loader"
	"github.com/goliatone/go-textgen/pkg/plan"
	"github.com/goliatone/go-textgen/pkg/render/template"
	"github.com/goliatone/go-textgen/pkg/report"
)

const defaultTemplateType = config.DefaultTemplateType

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithRegistry injects a renderer registry. Without one, DefaultRegistry is
// built for every run from the request's template dirs.
func WithRegistry(registry *template.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultTemplateType overrides the engine used when a request omits
// TemplateType.
func WithDefaultTemplateType(name string) Option {
	return func(o *Orchestrator) {
		o.defaultType = name
	}
}

// WithStore injects the hash store. Without one the orchestrator keeps an
// in-memory store for its lifetime.
func WithStore(store *hashstore.Store) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithReporter sets the user-facing reporter.
func WithReporter(reporter report.Reporter) Option {
	return func(o *Orchestrator) {
		o.reporter = reporter
	}
}

// WithLogger sets the structured logger passed down to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEnv sets the environment snapshot merged under every data file.
func WithEnv(env loader.Env) Option {
	return func(o *Orchestrator) {
		o.env = env
		o.envSet = true
	}
}

// WithPermissions replaces the permission propagator.
func WithPermissions(fn fsutil.PermissionFunc) Option {
	return func(o *Orchestrator) {
		o.permissions = fn
	}
}

// WithForce rewrites every requested output regardless of the cache.
func WithForce(force bool) Option {
	return func(o *Orchestrator) {
		o.force = force
	}
}

// WithTolerated replaces the predicate naming directories allowed to be
// missing.
func WithTolerated(tolerated loader.Tolerated) Option {
	return func(o *Orchestrator) {
		o.tolerated = tolerated
	}
}

// Orchestrator coordinates directory checks, planning, rendering, and cache
// persistence. Runs are serialised.
type Orchestrator struct {
	runMu sync.Mutex

	registry    *template.Registry
	defaultType string
	store       *hashstore.Store
	storeLoaded bool
	reporter    report.Reporter
	logger      *slog.Logger
	env         loader.Env
	envSet      bool
	permissions fsutil.PermissionFunc
	force       bool
	tolerated   loader.Tolerated
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultType: defaultTemplateType,
		tolerated:   loader.DefaultTolerated,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one batch of triples rendered by one template type.
type Request struct {
	// TemplateDirs are searched in order for template references.
	TemplateDirs []string

	// ConfigurationDirs are searched in order for data references.
	ConfigurationDirs []string

	// TemplateType selects the engine. Empty means the default type.
	TemplateType string

	// Triples lists the renders to perform.
	Triples []plan.Triple

	// Inline maps template references to template text supplied directly
	// (template-in-string). Inline references shadow files.
	Inline map[string]string

	// Force rewrites every output of this request.
	Force bool
}

// BatchResult describes one executed request.
type BatchResult struct {
	TemplateType string
	Order        plan.Order
	Summary      engine.Summary
}

// Result aggregates the batches of a run.
type Result struct {
	Summary engine.Summary
	Batches []BatchResult
}

// Store returns the hash store shared by every run.
func (o *Orchestrator) Store() *hashstore.Store {
	return o.store
}

// Run executes one request and reports its summary.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	o.runMu.Lock()
	defer o.runMu.Unlock()

	batch, eng, err := o.execute(ctx, req)
	result := Result{Summary: batch.Summary, Batches: []BatchResult{batch}}
	if err != nil {
		return result, err
	}
	eng.Report(batch.Summary)
	return result, nil
}

// RunProject renders every batch of project. Every plan is built before the
// first render so a conflict in any batch aborts the whole project untouched.
func (o *Orchestrator) RunProject(ctx context.Context, project *config.Project) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	if project == nil {
		return Result{}, errors.New("orchestrator: project is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	o.runMu.Lock()
	defer o.runMu.Unlock()

	batches := project.Batches()
	requests := make([]Request, 0, len(batches))
	for _, batch := range batches {
		req := Request{
			TemplateDirs:      project.TemplateDirs(),
			ConfigurationDirs: project.ConfigurationDirs(),
			TemplateType:      batch.TemplateType,
			Triples:           batch.Triples,
			Force:             project.Options.Force,
		}
		if _, err := o.prepare(req); err != nil {
			return Result{}, err
		}
		requests = append(requests, req)
	}

	var result Result
	for _, req := range requests {
		batch, _, err := o.execute(ctx, req)
		result.Batches = append(result.Batches, batch)
		result.Summary = result.Summary.Add(batch.Summary)
		if err != nil {
			return result, err
		}
	}

	o.logger.Info("project finished",
		"project", project.Path,
		"batches", len(result.Batches),
		"outcome", result.Summary.Outcome().String(),
	)
	o.reporter.Summary(result.Summary)
	return result, nil
}

// prepare runs the checks that must pass before anything is rendered.
func (o *Orchestrator) prepare(req Request) (*plan.Plan, error) {
	dirs := append(append([]string(nil), req.TemplateDirs...), req.ConfigurationDirs...)
	if err := loader.VerifyDirectories(dirs, o.tolerated); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	p, err := plan.Build(req.Triples)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return p, nil
}

// execute renders one request and persists the store whatever the outcome.
func (o *Orchestrator) execute(ctx context.Context, req Request) (BatchResult, *engine.Engine, error) {
	templateType := req.TemplateType
	if templateType == "" {
		templateType = o.defaultType
	}
	batch := BatchResult{TemplateType: templateType}

	p, err := o.prepare(req)
	if err != nil {
		return batch, nil, err
	}
	batch.Order = plan.ChooseOrder(p)

	templateDirs := loader.ExistingDirs(req.TemplateDirs)
	renderer, err := o.rendererFor(templateType, templateDirs)
	if err != nil {
		return batch, nil, err
	}

	if err := o.loadStore(ctx); err != nil {
		return batch, nil, err
	}
	if req.Force || o.force {
		for _, triple := range req.Triples {
			o.store.Forget(triple.Output)
		}
	}

	inline := make([]loader.TemplateOption, 0, len(req.Inline))
	for ref, content := range req.Inline {
		inline = append(inline, loader.WithInline(ref, content))
	}

	eng, err := engine.New(
		engine.WithTemplates(loader.NewTemplates(templateDirs, inline...)),
		engine.WithData(loader.NewData(loader.ExistingDirs(req.ConfigurationDirs), o.env)),
		engine.WithRenderer(renderer),
		engine.WithStore(o.store),
		engine.WithPermissions(o.permissions),
		engine.WithReporter(o.reporter),
		engine.WithLogger(o.logger),
	)
	if err != nil {
		return batch, nil, fmt.Errorf("orchestrator: %w", err)
	}

	o.logger.Debug("render batch",
		"template_type", templateType,
		"order", batch.Order.String(),
		"triples", len(req.Triples),
	)

	summary, runErr := eng.RenderAll(ctx, p, batch.Order)
	batch.Summary = summary

	// Persist even when the context is done so finished outputs stay cached.
	if err := o.store.Persist(context.WithoutCancel(ctx)); err != nil {
		if runErr != nil {
			return batch, eng, errors.Join(
				fmt.Errorf("orchestrator: render: %w", runErr),
				fmt.Errorf("orchestrator: persist store: %w", err),
			)
		}
		return batch, eng, fmt.Errorf("orchestrator: persist store: %w", err)
	}
	if runErr != nil {
		return batch, eng, fmt.Errorf("orchestrator: render: %w", runErr)
	}
	return batch, eng, nil
}

func (o *Orchestrator) loadStore(ctx context.Context) error {
	if o.storeLoaded {
		return nil
	}
	if err := o.store.Load(ctx); err != nil {
		return fmt.Errorf("orchestrator: load store: %w", err)
	}
	o.storeLoaded = true
	return nil
}

func (o *Orchestrator) rendererFor(name string, templateDirs []string) (template.Renderer, error) {
	registry := o.registry
	if registry == nil {
		var err error
		registry, err = DefaultRegistry(templateDirs)
		if err != nil {
			return nil, err
		}
	}
	renderer, err := registry.Get(name)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: template type %q: %w", name, err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.store == nil {
		o.store = hashstore.New(hashstore.WithLogger(o.logger))
	}
	if o.reporter == nil {
		o.reporter = report.NewRecorder()
	}
	if !o.envSet {
		o.env = loader.ProcessEnv()
	}
	if o.permissions == nil {
		o.permissions = fsutil.CopyPermissions
	}
	if o.defaultType == "" {
		o.defaultType = defaultTemplateType
	}
}
