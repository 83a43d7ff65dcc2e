package loader

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// InlineSignaturePrefix marks the signature of templates supplied as strings.
const InlineSignaturePrefix = "string:"

// Template is a resolved template reference.
type Template struct {
	Ref     string
	Path    string
	Content string
	Mode    fs.FileMode
}

// Inline reports whether the template came from a string instead of a file.
func (t Template) Inline() bool {
	return t.Path == ""
}

// Signature is the template identity recorded next to each output hash.
func (t Template) Signature() string {
	if t.Inline() {
		return InlineSignaturePrefix + t.Ref
	}
	return t.Path
}

// TemplateOption configures a Templates loader.
type TemplateOption func(*Templates)

// WithInline registers template content under ref. Inline templates shadow
// files with the same reference.
func WithInline(ref, content string) TemplateOption {
	return func(l *Templates) {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			return
		}
		l.inline[ref] = content
	}
}

// Templates resolves template references against search directories in
// order.
type Templates struct {
	dirs   []string
	inline map[string]string
}

// NewTemplates constructs a template loader searching dirs.
func NewTemplates(dirs []string, options ...TemplateOption) *Templates {
	l := &Templates{
		dirs:   append([]string(nil), dirs...),
		inline: make(map[string]string),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

// Dirs returns the search directories.
func (l *Templates) Dirs() []string {
	return append([]string(nil), l.dirs...)
}

// Resolve returns the on-disk path for ref without reading it.
func (l *Templates) Resolve(ref string) (string, error) {
	if filepath.IsAbs(ref) {
		if isFile(ref) {
			return filepath.Clean(ref), nil
		}
		return "", &NotFoundError{Kind: ErrTemplateNotFound, Ref: ref}
	}
	for _, dir := range l.dirs {
		candidate := filepath.Join(dir, ref)
		if isFile(candidate) {
			return candidate, nil
		}
	}
	return "", &NotFoundError{Kind: ErrTemplateNotFound, Ref: ref, Searched: l.Dirs()}
}

// Load reads the template named by ref.
func (l *Templates) Load(ctx context.Context, ref string) (Template, error) {
	if err := ctx.Err(); err != nil {
		return Template{}, err
	}
	if content, ok := l.inline[ref]; ok {
		return Template{Ref: ref, Content: content}, nil
	}

	path, err := l.Resolve(ref)
	if err != nil {
		return Template{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Template{}, fmt.Errorf("loader: stat template %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("loader: read template %s: %w", path, err)
	}
	return Template{
		Ref:     ref,
		Path:    path,
		Content: string(data),
		Mode:    info.Mode().Perm(),
	}, nil
}
