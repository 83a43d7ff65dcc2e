package strtemplate_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-textgen/pkg/render/template"
	"github.com/goliatone/go-textgen/pkg/render/template/strtemplate"
)

func TestEngine_RenderString(t *testing.T) {
	engine := strtemplate.New()
	data := map[string]any{
		"name":    "Ada",
		"count":   3,
		"_hidden": "h",
		"enabled": true,
	}

	cases := []struct {
		name     string
		template string
		want     string
	}{
		{name: "bare", template: "hello $name!", want: "hello Ada!"},
		{name: "braced", template: "${name}s", want: "Adas"},
		{name: "escaped dollar", template: "cost: $$5", want: "cost: $5"},
		{name: "integer", template: "$count items", want: "3 items"},
		{name: "underscore", template: "$_hidden", want: "h"},
		{name: "bool", template: "$enabled", want: "true"},
		{name: "identifier stops at punctuation", template: "$name.txt", want: "Ada.txt"},
		{name: "no placeholders", template: "plain\ntext", want: "plain\ntext"},
		{name: "surrounding whitespace trimmed", template: "\n  $name\n\n", want: "Ada"},
		{name: "multibyte text", template: "héllo $name ✓", want: "héllo Ada ✓"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.RenderString(tc.template, data)
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if got != tc.want {
				t.Fatalf("render = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEngine_Errors(t *testing.T) {
	engine := strtemplate.New()
	data := map[string]any{"name": "Ada"}

	cases := []struct {
		name     string
		template string
		want     error
	}{
		{name: "missing bare", template: "$missing", want: template.ErrMissingVariable},
		{name: "missing braced", template: "${missing}", want: template.ErrMissingVariable},
		{name: "dangling dollar", template: "price $", want: template.ErrTemplateSyntax},
		{name: "dollar before digit", template: "$1", want: template.ErrTemplateSyntax},
		{name: "unterminated brace", template: "${name", want: template.ErrTemplateSyntax},
		{name: "empty brace", template: "${}", want: template.ErrTemplateSyntax},
		{name: "invalid brace content", template: "${na me}", want: template.ErrTemplateSyntax},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.RenderString(tc.template, data)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestEngine_ErrorNamesLine(t *testing.T) {
	_, err := strtemplate.New().RenderString("ok\nok\n$", nil)
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected line 3 in error, got %v", err)
	}
}

func TestEngine_Options(t *testing.T) {
	engine := strtemplate.New(
		strtemplate.WithName("string"),
		strtemplate.WithFormatter(func(v any) string { return strings.ToUpper(v.(string)) }),
	)
	if engine.Name() != "string" {
		t.Fatalf("name = %q", engine.Name())
	}
	got, err := engine.RenderString("$name", map[string]any{"name": "ada"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "ADA" {
		t.Fatalf("render = %q, want ADA", got)
	}
	if strtemplate.New().Name() != strtemplate.TypeName {
		t.Fatal("default name should be the stmp type")
	}
}
