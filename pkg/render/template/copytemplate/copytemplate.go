// Package copytemplate implements the "copy" template type. The template file
// is written to its output byte for byte, still going through the hash store
// so unchanged copies are skipped.
package copytemplate

import "github.com/goliatone/go-textgen/pkg/render/template"

// TypeName is the template type served by this engine.
const TypeName = "copy"

// Engine returns template content unchanged.
type Engine struct{}

var (
	_ template.Renderer = Engine{}
	_ template.Verbatim = Engine{}
)

// New returns an Engine.
func New() Engine {
	return Engine{}
}

// Name returns the template type.
func (Engine) Name() string {
	return TypeName
}

// RenderString returns templateContent. data is ignored.
func (Engine) RenderString(templateContent string, _ map[string]any) (string, error) {
	return templateContent, nil
}

// Verbatim reports that trailing newlines must be kept.
func (Engine) Verbatim() bool {
	return true
}
