package orchestrator

import (
	"fmt"

	"github.com/goliatone/go-textgen/pkg/loader"
	"github.com/goliatone/go-textgen/pkg/render/template"
	"github.com/goliatone/go-textgen/pkg/render/template/copytemplate"
	"github.com/goliatone/go-textgen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-textgen/pkg/render/template/strtemplate"
)

// Aliases maps alternative template type names, typically file extensions,
// to the engines registered by DefaultRegistry.
var Aliases = map[string]string{
	"jj2":   gotemplate.TypeName,
	"j2":    gotemplate.TypeName,
	"jinja": gotemplate.TypeName,
	"html":  gotemplate.TypeName,
}

// DefaultRegistry builds the built-in engines: jinja2, stmp and copy. The jinja2 engine resolves
// {% include %} and {% extends %} against the existing dirs among
// templateDirs.
func DefaultRegistry(templateDirs []string) (*template.Registry, error) {
	jinja, err := gotemplate.New(gotemplate.WithSearchDirs(loader.ExistingDirs(templateDirs)...))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: jinja2 engine: %w", err)
	}

	registry := template.NewRegistry()
	registry.MustRegister(jinja)
	registry.MustRegister(strtemplate.New())
	registry.MustRegister(copytemplate.New())
	for alias, name := range Aliases {
		if err := registry.Alias(alias, name); err != nil {
			return nil, fmt.Errorf("orchestrator: alias %q: %w", alias, err)
		}
	}
	return registry, nil
}
