// Package textgen renders templates with YAML data files and only rewrites
// outputs whose content or template changed since the last run.
//
// The root package gathers the common entry points. The pieces live under
// pkg/: plan builds the render plan, loader resolves templates and data,
// engine renders, hashstore tracks what was written and orchestrator wires
// them together.
package textgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-textgen/pkg/config"
	"github.com/goliatone/go-textgen/pkg/engine"
	"github.com/goliatone/go-textgen/pkg/loader"
	"github.com/goliatone/go-textgen/pkg/orchestrator"
	"github.com/goliatone/go-textgen/pkg/plan"
)

// Triple is one (template, data, output) render request.
type Triple = plan.Triple

// Request describes one batch rendered by one template type.
type Request = orchestrator.Request

// Result aggregates the batches of a run.
type Result = orchestrator.Result

// Summary counts the outputs of a run.
type Summary = engine.Summary

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Render runs one request with a fresh orchestrator. Without
// orchestrator.WithStore the hash cache only lives for this call.
func Render(ctx context.Context, req Request, options ...orchestrator.Option) (Result, error) {
	return orchestrator.New(options...).Run(ctx, req)
}

// RenderProject loads the project file at path and renders all of its
// targets.
func RenderProject(ctx context.Context, path string, options ...orchestrator.Option) (Result, error) {
	project, err := config.Load(path)
	if err != nil {
		return Result{}, err
	}
	return orchestrator.New(options...).RunProject(ctx, project)
}

// RenderString renders content with data using the named template type and
// returns the text without writing anything or consulting a cache.
// templateDirs are searched for includes.
func RenderString(templateType, content string, data map[string]any, templateDirs ...string) (string, error) {
	if templateType == "" {
		templateType = config.DefaultTemplateType
	}
	registry, err := orchestrator.DefaultRegistry(templateDirs)
	if err != nil {
		return "", err
	}
	renderer, err := registry.Get(templateType)
	if err != nil {
		return "", fmt.Errorf("textgen: template type %q: %w", templateType, err)
	}
	return renderer.RenderString(content, data)
}

// NewTemplateLoader constructs the template loader used by the engine.
func NewTemplateLoader(dirs []string, options ...loader.TemplateOption) *loader.Templates {
	return loader.NewTemplates(dirs, options...)
}

// NewDataLoader constructs the data loader used by the engine. Variables of
// env are visible to every data file unless the file sets the same key.
func NewDataLoader(dirs []string, env loader.Env) *loader.Data {
	return loader.NewData(dirs, env)
}

// Triples parses "template,data,output" specs into triples. Missing data and
// output fields take the defaults.
func Triples(specs ...string) ([]Triple, error) {
	defaults := config.Defaults()
	out := make([]Triple, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ",")
		if len(parts) > 3 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("textgen: invalid triple %q, want template[,data[,output]]", spec)
		}
		triple := Triple{Template: strings.TrimSpace(parts[0]), Data: defaults.Configuration, Output: defaults.Output}
		if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
			triple.Data = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 && strings.TrimSpace(parts[2]) != "" {
			triple.Output = strings.TrimSpace(parts[2])
		}
		out = append(out, triple)
	}
	return out, nil
}
