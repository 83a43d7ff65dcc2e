package gotemplate_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-textgen/pkg/render/template"
	"github.com/goliatone/go-textgen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-textgen/pkg/testsupport"
)

func newEngine(t *testing.T, opts ...gotemplate.Option) *gotemplate.Engine {
	t.Helper()
	engine, err := gotemplate.New(opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func TestEngine_RenderString(t *testing.T) {
	engine := newEngine(t)

	cases := []struct {
		name     string
		template string
		data     map[string]any
		want     string
	}{
		{
			name:     "integers stay integers",
			template: "{{ name }} has {{ count }} items",
			data:     map[string]any{"name": "Ada", "count": 3},
			want:     "Ada has 3 items",
		},
		{
			name:     "trim blocks on by default",
			template: "{% for item in items %}\n- {{ item }}\n{% endfor %}\n",
			data:     map[string]any{"items": []any{"a", "b"}},
			want:     "- a\n- b\n",
		},
		{
			name:     "missing variable renders empty",
			template: "[{{ missing }}]",
			want:     "[]",
		},
		{
			name:     "nested mapping",
			template: "{{ server.host }}:{{ server.port }}",
			data:     map[string]any{"server": map[string]any{"host": "localhost", "port": 8080}},
			want:     "localhost:8080",
		},
		{
			name:     "no html escaping",
			template: "{{ markup }}",
			data:     map[string]any{"markup": "<b>&</b>"},
			want:     "<b>&</b>",
		},
		{
			name:     "keys that are not identifiers are skipped",
			template: "{{ ok }}",
			data:     map[string]any{"BASH_FUNC_x%%": "() { :; }", "ok": "yes"},
			want:     "yes",
		},
		{
			name:     "default filters",
			template: "{{ title|lowerfirst }}|{{ padded|trim }}",
			data:     map[string]any{"title": "Hello", "padded": "  x  "},
			want:     "hello|x",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.RenderString(tc.template, tc.data)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if got != tc.want {
				t.Fatalf("render = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEngine_TrimBlocksDisabled(t *testing.T) {
	engine := newEngine(t, gotemplate.WithTrimBlocks(false))

	got, err := engine.RenderString("{% if true %}\nx{% endif %}", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "\nx" {
		t.Fatalf("render = %q, want %q", got, "\nx")
	}
}

func TestEngine_SyntaxError(t *testing.T) {
	engine := newEngine(t)

	_, err := engine.RenderString("{% if name %}unclosed", map[string]any{"name": "x"})
	if !errors.Is(err, template.ErrTemplateSyntax) {
		t.Fatalf("expected ErrTemplateSyntax, got %v", err)
	}
}

func TestEngine_IncludeFromSearchDirs(t *testing.T) {
	engine := newEngine(t, gotemplate.WithSearchDirs(filepath.Join("testdata", "templates")))

	got, err := engine.RenderString(`{% include "partial.jj2" %}`, map[string]any{"name": "Ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "Hello Ada!" {
		t.Fatalf("render = %q", got)
	}
}

func TestEngine_MissingSearchDir(t *testing.T) {
	_, err := gotemplate.New(gotemplate.WithSearchDirs(filepath.Join(t.TempDir(), "absent")))
	if err == nil {
		t.Fatal("expected error for missing search dir")
	}
}

func TestEngine_GlobalsAndFuncs(t *testing.T) {
	engine := newEngine(t,
		gotemplate.WithGlobalData(map[string]any{"project": "textgen"}),
		gotemplate.WithTemplateFunc(map[string]any{
			"shout": func(s string) string { return strings.ToUpper(s) },
		}),
	)

	got, err := engine.RenderString("{{ shout(project) }}", nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "TEXTGEN" {
		t.Fatalf("render = %q, want TEXTGEN", got)
	}

	got, err = engine.RenderString("{{ project }}", map[string]any{"project": "local"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "local" {
		t.Fatalf("data should shadow globals, got %q", got)
	}
}

func TestEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)

	upper := func(input any, _ any) (any, error) {
		s, ok := input.(string)
		if !ok {
			return nil, errors.New("not a string")
		}
		return strings.ToUpper(s), nil
	}
	if err := engine.RegisterFilter("textgen_test_upper", upper); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := engine.RegisterFilter("textgen_test_upper", upper); err == nil {
		t.Fatal("expected duplicate filter error")
	}

	got, err := engine.RenderString("{{ name|textgen_test_upper }}", map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ADA" {
		t.Fatalf("render = %q, want ADA", got)
	}
}

func TestEngine_NameOverride(t *testing.T) {
	if got := newEngine(t).Name(); got != gotemplate.TypeName {
		t.Fatalf("name = %q, want %q", got, gotemplate.TypeName)
	}
	if got := newEngine(t, gotemplate.WithName("j2")).Name(); got != "j2" {
		t.Fatalf("name = %q, want j2", got)
	}
}

func TestEngine_Golden(t *testing.T) {
	engine := newEngine(t)

	source, err := os.ReadFile(filepath.Join("testdata", "templates", "report.jj2"))
	if err != nil {
		t.Fatalf("read template: %v", err)
	}
	got, err := engine.RenderString(string(source), map[string]any{
		"hosts": []any{
			map[string]any{"name": "alpha", "port": 8080},
			map[string]any{"name": "beta", "port": 9090},
		},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	goldenPath := filepath.Join("testdata", "golden", "report.txt")
	if testsupport.WriteMaybeGolden(t, goldenPath, []byte(got)) {
		return
	}
	want := testsupport.MustReadGoldenString(t, goldenPath)
	if diff := testsupport.CompareGolden(want, got); diff != "" {
		t.Fatalf("golden mismatch (-want +got):\n%s", diff)
	}
}
