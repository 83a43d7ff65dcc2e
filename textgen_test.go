package textgen

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-textgen/pkg/config"
	"github.com/goliatone/go-textgen/pkg/loader"
	"github.com/goliatone/go-textgen/pkg/orchestrator"
	"github.com/goliatone/go-textgen/pkg/plan"
	"github.com/goliatone/go-textgen/pkg/render/template"
)

func TestStarterTemplatesCoverEveryEngine(t *testing.T) {
	for _, templateType := range []string{"jinja2", "stmp"} {
		data, err := StarterTemplate(templateType)
		if err != nil {
			t.Fatalf("%s: %v", templateType, err)
		}
		got, err := RenderString(templateType, string(data), map[string]any{"name": "Ada"})
		if err != nil {
			t.Fatalf("%s: render: %v", templateType, err)
		}
		if got != "Hello Ada!\n" && got != "Hello Ada!" {
			t.Fatalf("%s: rendered %q", templateType, got)
		}
	}

	if _, err := fs.ReadFile(StarterTemplates(), StarterDataFile); err != nil {
		t.Fatalf("starter data file: %v", err)
	}
	if _, err := StarterTemplate("mako"); err == nil {
		t.Fatal("expected error for unknown template type")
	}
}

func TestRenderString(t *testing.T) {
	got, err := RenderString("", "{{ a }}-{{ b }}", map[string]any{"a": 1, "b": "x"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "1-x" {
		t.Fatalf("got %q", got)
	}

	if _, err := RenderString("mako", "x", nil); !errors.Is(err, template.ErrUnknownRenderer) {
		t.Fatalf("expected ErrUnknownRenderer, got %v", err)
	}
}

func TestTriples(t *testing.T) {
	got, err := Triples("a.jj2", "b.jj2,b.yml", "c.jj2,,c.txt", " d.jj2 , d.yml , d.txt ")
	if err != nil {
		t.Fatalf("triples: %v", err)
	}
	want := []Triple{
		{Template: "a.jj2", Data: config.DefaultDataFile, Output: config.DefaultOutput},
		{Template: "b.jj2", Data: "b.yml", Output: config.DefaultOutput},
		{Template: "c.jj2", Data: config.DefaultDataFile, Output: "c.txt"},
		{Template: "d.jj2", Data: "d.yml", Output: "d.txt"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("triples mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"", ",data.yml", "a,b,c,d"} {
		if _, err := Triples(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestRenderAndRenderProject(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"page.jj2":     "{{ title }}",
		"data.yml":     "title: Home\n",
		".textgen.yml": "targets:\n  - project.txt: page.jj2\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	result, err := Render(context.Background(), Request{
		TemplateDirs:      []string{dir},
		ConfigurationDirs: []string{dir},
		Triples:           []plan.Triple{{Template: "page.jj2", Data: "data.yml", Output: filepath.Join(dir, "single.txt")}},
	}, orchestrator.WithEnv(loader.Env{}))
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if diff := cmp.Diff(Summary{Total: 1, Changed: 1}, result.Summary); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}

	if _, err := RenderProject(context.Background(), filepath.Join(dir, ".textgen.yml")); err != nil {
		t.Fatalf("render project: %v", err)
	}
	for _, name := range []string{"single.txt", "project.txt"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil || string(data) != "Home" {
			t.Fatalf("%s = %q, %v", name, data, err)
		}
	}

	if _, err := RenderProject(context.Background(), filepath.Join(dir, "missing.yml")); err == nil {
		t.Fatal("expected error for missing project file")
	}
}

func TestLoaderConstructors(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "d.yml"), []byte("k: v\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tmpl, err := NewTemplateLoader([]string{dir}, loader.WithInline("inline", "x")).Load(context.Background(), "inline")
	if err != nil || !tmpl.Inline() {
		t.Fatalf("inline template = %+v, %v", tmpl, err)
	}

	data, err := NewDataLoader([]string{dir}, loader.EnvFromMap(map[string]string{"HOME_DIR": "/h"})).Load(context.Background(), "d.yml")
	if err != nil {
		t.Fatalf("load data: %v", err)
	}
	if data["k"] != "v" || data["HOME_DIR"] != "/h" {
		t.Fatalf("data = %v", data)
	}
}
