package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-textgen"
	"github.com/goliatone/go-textgen/internal/fsutil"
	"github.com/goliatone/go-textgen/pkg/config"
	"github.com/goliatone/go-textgen/pkg/loader"
	"github.com/goliatone/go-textgen/pkg/render/template/gotemplate"
	"github.com/goliatone/go-textgen/pkg/render/template/strtemplate"
)

// errInitAborted is returned when the user interrupts a prompt.
var errInitAborted = errors.New("init aborted")

// prompter asks the init questions. Tests replace the survey implementation.
type prompter interface {
	Input(message, def string) (string, error)
	Select(message string, options []string, def string) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Input(message, def string) (string, error) {
	var out string
	prompt := &survey.Input{Message: message, Default: def}
	if err := survey.AskOne(prompt, &out, survey.WithValidator(survey.Required)); err != nil {
		return "", translateSurveyErr(err)
	}
	return strings.TrimSpace(out), nil
}

func (surveyPrompter) Select(message string, options []string, def string) (string, error) {
	var out string
	prompt := &survey.Select{Message: message, Options: options, Default: def}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errInitAborted
	}
	return err
}

type scaffold struct {
	Version       string           `yaml:"textgen_file_spec_version"`
	Configuration scaffoldOptions  `yaml:"configuration"`
	Targets       []scaffoldTarget `yaml:"targets"`
}

type scaffoldOptions struct {
	TemplateDirs  []string `yaml:"template_dir"`
	TemplateType  string   `yaml:"template_type"`
	Configuration string   `yaml:"configuration"`
}

type scaffoldTarget struct {
	Output   string `yaml:"output"`
	Template string `yaml:"template"`
}

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a project file interactively",
		Long: `Create a project file with one target.

The template directory, template and data file are created when missing.
An existing project file is only replaced with --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.flags.projectFile
			if path == "" {
				path = config.DefaultProjectFile
			}
			return a.scaffold(path)
		},
	}
}

func (a *app) scaffold(path string) error {
	if _, err := os.Stat(path); err == nil && !a.flags.force {
		return fmt.Errorf("%s already exists; use --force to replace it", path)
	}

	templateDir, err := a.prompter.Input("Template directory", loader.DefaultTemplateDirName)
	if err != nil {
		return err
	}
	templateType, err := a.prompter.Select("Template type", []string{gotemplate.TypeName, strtemplate.TypeName}, config.DefaultTemplateType)
	if err != nil {
		return err
	}
	dataFile, err := a.prompter.Input("Data file", config.DefaultDataFile)
	if err != nil {
		return err
	}
	templateName, err := a.prompter.Input("First template", textgen.StarterTemplateName(templateType))
	if err != nil {
		return err
	}
	output, err := a.prompter.Input("Output for "+templateName, "README.md")
	if err != nil {
		return err
	}

	starterTemplate, err := textgen.StarterTemplate(templateType)
	if err != nil {
		return err
	}
	starterData, err := fs.ReadFile(textgen.StarterTemplates(), textgen.StarterDataFile)
	if err != nil {
		return err
	}

	doc := scaffold{
		Version: config.DefaultSpecVersion,
		Configuration: scaffoldOptions{
			TemplateDirs:  []string{templateDir},
			TemplateType:  templateType,
			Configuration: dataFile,
		},
		Targets: []scaffoldTarget{{Output: output, Template: templateName}},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := fsutil.WriteFile(path, data); err != nil {
		return err
	}
	a.reporter.Info("Created " + path)

	root := filepath.Dir(path)
	starters := []struct {
		path    string
		content []byte
	}{
		{path: filepath.Join(root, templateDir, templateName), content: starterTemplate},
		{path: filepath.Join(root, dataFile), content: starterData},
	}
	for _, starter := range starters {
		if _, err := os.Stat(starter.path); err == nil {
			continue
		}
		if err := fsutil.WriteFile(starter.path, starter.content); err != nil {
			return err
		}
		a.reporter.Info("Created " + starter.path)
	}
	return nil
}
