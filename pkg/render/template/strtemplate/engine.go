// Package strtemplate implements the "stmp" template type: plain "$name" and
// "${name}" substitution with "$$" as an escaped dollar sign. There is no
// control flow; every placeholder must resolve against the data mapping.
package strtemplate

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-textgen/pkg/render/template"
)

// TypeName is the template type served by this engine.
const TypeName = "stmp"

// Option configures the engine.
type Option func(*Engine)

// WithName overrides the template type the engine registers under.
func WithName(name string) Option {
	return func(e *Engine) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			e.name = trimmed
		}
	}
}

// WithFormatter replaces the value formatter. The default uses fmt.Sprint.
func WithFormatter(format func(any) string) Option {
	return func(e *Engine) {
		if format != nil {
			e.format = format
		}
	}
}

// Engine substitutes placeholders in a single pass.
type Engine struct {
	name   string
	format func(any) string
}

var _ template.Renderer = (*Engine)(nil)

// New returns an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		name:   TypeName,
		format: func(v any) string { return fmt.Sprint(v) },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Name returns the template type.
func (e *Engine) Name() string {
	return e.name
}

// RenderString substitutes every placeholder in templateContent after
// trimming its surrounding whitespace. A
// placeholder absent from data wraps template.ErrMissingVariable; a "$" not
// followed by "$", "{" or an identifier wraps template.ErrTemplateSyntax.
func (e *Engine) RenderString(templateContent string, data map[string]any) (string, error) {
	templateContent = strings.TrimSpace(templateContent)

	var b strings.Builder
	b.Grow(len(templateContent))

	line := 1
	for i := 0; i < len(templateContent); {
		c := templateContent[i]
		if c != '$' {
			if c == '\n' {
				line++
			}
			b.WriteByte(c)
			i++
			continue
		}

		rest := templateContent[i+1:]
		switch {
		case strings.HasPrefix(rest, "$"):
			b.WriteByte('$')
			i += 2
		case strings.HasPrefix(rest, "{"):
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return "", fmt.Errorf("strtemplate: %w: unterminated ${ on line %d", template.ErrTemplateSyntax, line)
			}
			name := rest[1:end]
			if identLen(name) != len(name) || name == "" {
				return "", fmt.Errorf("strtemplate: %w: invalid placeholder ${%s} on line %d", template.ErrTemplateSyntax, name, line)
			}
			if err := e.substitute(&b, name, data); err != nil {
				return "", err
			}
			i += end + 2
		default:
			n := identLen(rest)
			if n == 0 {
				return "", fmt.Errorf("strtemplate: %w: invalid placeholder on line %d", template.ErrTemplateSyntax, line)
			}
			if err := e.substitute(&b, rest[:n], data); err != nil {
				return "", err
			}
			i += n + 1
		}
	}
	return b.String(), nil
}

func (e *Engine) substitute(b *strings.Builder, name string, data map[string]any) error {
	value, ok := data[name]
	if !ok {
		return fmt.Errorf("strtemplate: %w: %s", template.ErrMissingVariable, name)
	}
	b.WriteString(e.format(value))
	return nil
}

// identLen returns the length of the identifier prefix of s: an ASCII letter
// or underscore followed by letters, digits or underscores.
func identLen(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return i
		}
	}
	return len(s)
}
