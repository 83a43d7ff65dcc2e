package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/goliatone/go-textgen/pkg/config"
	"github.com/goliatone/go-textgen/pkg/hashstore"
	"github.com/goliatone/go-textgen/pkg/orchestrator"
	"github.com/goliatone/go-textgen/pkg/plan"
	"github.com/goliatone/go-textgen/pkg/report"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type cliFlags struct {
	template         string
	configuration    string
	output           string
	templateDirs     []string
	configurationDir string
	templateType     string
	force            bool
	exitCode         bool
	cacheBackend     string
	cachePath        string
	projectFile      string
	verbose          bool
}

// app holds the state shared by every command of one invocation.
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	flags    cliFlags
	reporter report.Reporter
	logger   *slog.Logger
	prompter prompter
	exitCode int
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:   stdout,
		stderr:   stderr,
		reporter: report.NewConsole(stdout, report.WithErrorWriter(stderr)),
		logger:   newLogger(stderr, false),
		prompter: surveyPrompter{},
	}
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return newApp(stdout, stderr).run(ctx, args)
}

func (a *app) run(ctx context.Context, args []string) int {
	cmd := a.rootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		a.reporter.Error(err)
		return orchestrator.ExitError
	}
	return a.exitCode
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "textgen [template-string]",
		Short: "Render templates with YAML data, writing only what changed",
		Long: `textgen renders templates with YAML data files.

Without -t and without a template string, the targets of the project file
(.textgen.yml or .textgen.yaml) are rendered. Otherwise one template is
rendered to one output. Outputs whose content and template are unchanged
since the last run are not rewritten.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.logger = newLogger(a.stderr, a.flags.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.template == "" && len(args) == 0 {
				return a.runProject(cmd.Context())
			}
			return a.runSingle(cmd.Context(), args)
		},
	}

	local := cmd.Flags()
	local.StringVarP(&a.flags.template, "template", "t", "", "template file")
	local.StringVarP(&a.flags.configuration, "configuration", "c", "", "data file (default "+config.DefaultDataFile+")")
	local.StringVarP(&a.flags.output, "output", "o", "", "output file (default "+config.DefaultOutput+")")

	a.bindSharedFlags(cmd.PersistentFlags())

	cmd.AddCommand(a.initCommand(), a.watchCommand(), a.versionCommand())
	return cmd
}

func (a *app) bindSharedFlags(flags *pflag.FlagSet) {
	flags.StringArrayVar(&a.flags.templateDirs, "template-dir", nil, "template search directory, repeatable")
	flags.StringVar(&a.flags.configurationDir, "configuration-dir", "", "data file directory (default "+config.Defaults().ConfigurationDir+")")
	flags.StringVar(&a.flags.templateType, "template-type", "", "template engine: jinja2 or stmp (default "+config.DefaultTemplateType+")")
	flags.BoolVarP(&a.flags.force, "force", "f", false, "rewrite every output regardless of the cache")
	flags.BoolVar(&a.flags.exitCode, "exit-code", false, "exit with 1 when any output changed")
	flags.StringVar(&a.flags.cacheBackend, "cache-backend", "", "hash store backend: file, sqlite or badger")
	flags.StringVar(&a.flags.cachePath, "cache-path", "", "hash store location (default "+config.DefaultCacheFile+")")
	flags.StringVarP(&a.flags.projectFile, "project-file", "m", "", "project file (default "+config.DefaultProjectFile+")")
	flags.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging on stderr")
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the textgen version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "textgen %s\n", version)
		},
	}
}

// flagOptions returns the options set on the command line, unset fields left
// empty.
func (a *app) flagOptions() config.Options {
	return config.Options{
		TemplateDirs:     config.StringList(a.flags.templateDirs),
		ConfigurationDir: a.flags.configurationDir,
		Template:         a.flags.template,
		Configuration:    a.flags.configuration,
		Output:           a.flags.output,
		TemplateType:     a.flags.templateType,
		Force:            a.flags.force,
		ExitCode:         a.flags.exitCode,
		CacheBackend:     a.flags.cacheBackend,
		CachePath:        a.flags.cachePath,
	}
}

// runSingle renders one template, from a file or from the positional
// template string.
func (a *app) runSingle(ctx context.Context, args []string) error {
	opts := a.flagOptions().WithDefaults(config.Defaults())

	req := orchestrator.Request{
		TemplateDirs:      opts.TemplateDirs,
		ConfigurationDirs: []string{opts.ConfigurationDir, "."},
		TemplateType:      opts.TemplateType,
		Force:             opts.Force,
	}

	template := opts.Template
	if len(args) == 1 {
		template = strings.TrimSpace(args[0])
		if template == "" {
			return errors.New("template string is empty")
		}
		req.Inline = map[string]string{template: template}
	}
	req.Triples = []plan.Triple{{Template: template, Data: opts.Configuration, Output: opts.Output}}

	store, err := a.openStore(opts.CacheBackend, opts.CachePath)
	if err != nil {
		return err
	}
	defer a.closeStore(store)

	orch := a.orchestrator(store)
	result, err := orch.Run(ctx, req)
	if err != nil {
		return err
	}
	a.exitCode = orchestrator.ExitCode(result, nil, opts.ExitCode)
	return nil
}

// runProject renders every target of the project file. Only --force,
// --exit-code and the cache flags override the project configuration.
func (a *app) runProject(ctx context.Context) error {
	project, err := a.loadProject()
	if err != nil {
		return err
	}

	store, err := a.openStore(project.Options.CacheBackend, project.CachePath())
	if err != nil {
		return err
	}
	defer a.closeStore(store)

	result, err := a.orchestrator(store).RunProject(ctx, project)
	if err != nil {
		return err
	}
	a.exitCode = orchestrator.ExitCode(result, nil, project.Options.ExitCode)
	return nil
}

func (a *app) loadProject() (*config.Project, error) {
	path := a.flags.projectFile
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return nil, fmt.Errorf("%w; pass -t or a template string to render a single template", err)
		}
		path = found
	}

	project, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	project.Options.Force = project.Options.Force || a.flags.force
	project.Options.ExitCode = project.Options.ExitCode || a.flags.exitCode
	if a.flags.cacheBackend != "" {
		project.Options.CacheBackend = a.flags.cacheBackend
	}
	if a.flags.cachePath != "" {
		project.Options.CachePath = a.flags.cachePath
	}
	return project, nil
}

func (a *app) orchestrator(store *hashstore.Store) *orchestrator.Orchestrator {
	return orchestrator.New(
		orchestrator.WithStore(store),
		orchestrator.WithReporter(a.reporter),
		orchestrator.WithLogger(a.logger),
		orchestrator.WithForce(a.flags.force),
	)
}

func (a *app) openStore(kind, path string) (*hashstore.Store, error) {
	backend, err := openBackend(kind, path, a.logger)
	if err != nil {
		return nil, err
	}
	return hashstore.New(hashstore.WithBackend(backend), hashstore.WithLogger(a.logger)), nil
}

func (a *app) closeStore(store *hashstore.Store) {
	if err := store.Close(); err != nil {
		a.logger.Warn("close hash store", "error", err)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
