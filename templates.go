package textgen

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed starters/*
var embeddedStarters embed.FS

// StarterDataFile names the starter data file inside StarterTemplates.
const StarterDataFile = "data.yml"

// StarterTemplates exposes the files `textgen init` copies into a new
// project: one README template per template type plus a data file.
func StarterTemplates() fs.FS {
	sub, err := fs.Sub(embeddedStarters, "starters")
	if err != nil {
		return embeddedStarters
	}
	return sub
}

// StarterTemplate returns the starter README template for templateType.
func StarterTemplate(templateType string) ([]byte, error) {
	data, err := fs.ReadFile(StarterTemplates(), StarterTemplateName(templateType))
	if err != nil {
		return nil, fmt.Errorf("textgen: no starter template for %q: %w", templateType, err)
	}
	return data, nil
}

// StarterTemplateName is the file name of the starter template for
// templateType.
func StarterTemplateName(templateType string) string {
	return "README.md." + templateType
}
