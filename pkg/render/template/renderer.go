package template

import "errors"

var (
	// ErrTemplateSyntax is wrapped by engines when template text cannot be
	// parsed.
	ErrTemplateSyntax = errors.New("template: syntax error")
	// ErrMissingVariable is wrapped by strict engines when the template
	// references a variable absent from the data.
	ErrMissingVariable = errors.New("template: missing variable")
	// ErrUnknownRenderer is returned by Registry.Get for a template type no
	// engine is registered under.
	ErrUnknownRenderer = errors.New("template: no such template support")
)

// Renderer turns template text and a data mapping into rendered text. Name is
// the template type the renderer registers under (for example "jinja2").
type Renderer interface {
	Name() string
	RenderString(templateContent string, data map[string]any) (string, error)
}

// Verbatim is implemented by renderers whose output is written byte for byte.
// The engine strips the trailing newlines of every other renderer's output.
type Verbatim interface {
	Verbatim() bool
}
