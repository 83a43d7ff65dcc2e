package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-textgen/pkg/config"
	"github.com/goliatone/go-textgen/pkg/watch"
)

func (a *app) watchCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Render the project, then again whenever a template or data file changes",
		Long: `Render every target of the project file, then watch the template and
configuration directories and the project file itself. Each burst of
changes triggers one more run. Render errors are reported and watching
continues. Interrupt to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runWatch(cmd.Context(), debounce)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-running")
	return cmd
}

func (a *app) runWatch(ctx context.Context, debounce time.Duration) error {
	project, err := a.loadProject()
	if err != nil {
		return err
	}

	store, err := a.openStore(project.Options.CacheBackend, project.CachePath())
	if err != nil {
		return err
	}
	defer a.closeStore(store)
	orch := a.orchestrator(store)

	if _, err := orch.RunProject(ctx, project); err != nil {
		a.reporter.Error(err)
	}

	var outputs []string
	for _, batch := range project.Batches() {
		for _, triple := range batch.Triples {
			outputs = append(outputs, triple.Output)
		}
	}

	dirs := append(project.TemplateDirs(), project.ConfigurationDirs()...)
	w, err := watch.New(dirs,
		func(ctx context.Context, changed []string) error {
			current, err := config.Load(project.Path)
			if err != nil {
				return err
			}
			current.Options.Force = current.Options.Force || a.flags.force
			_, err = orch.RunProject(ctx, current)
			return err
		},
		watch.WithDebounce(debounce),
		watch.WithFiles(project.Path),
		watch.WithIgnorePaths(outputs...),
		watch.WithIgnorePaths(project.CachePath()),
		watch.WithLogger(a.logger),
		watch.WithErrorHandler(a.reporter.Error),
	)
	if err != nil {
		return err
	}

	a.reporter.Info("Watching for changes")
	return w.Run(ctx)
}
