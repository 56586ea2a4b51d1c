package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"hsl/internal/object"
	"hsl/internal/script"
	"hsl/internal/store"
)

type runOptions struct {
	timeout     time.Duration
	jobs        int
	fromStore   bool
	saveResults bool
	showResults bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <file>...",
		Short: "Run one or more scripts",
		Long: `Run executes each script in its own context. Independent scripts run
concurrently, bounded by --jobs. A script that exceeds --timeout is abandoned.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("timeout") {
				opts.timeout = a.cfg.Engine.Timeout
			}
			if !cmd.Flags().Changed("jobs") {
				opts.jobs = a.cfg.Engine.Jobs
			}
			return a.run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, opts)
		},
	}
	flags := cmd.Flags()
	flags.DurationVar(&opts.timeout, "timeout", 0, "abandon scripts running longer than this (0 means no limit)")
	flags.IntVarP(&opts.jobs, "jobs", "j", 4, "number of scripts run at once")
	flags.BoolVar(&opts.fromStore, "from-store", false, "treat arguments as names of stored scripts")
	flags.BoolVar(&opts.saveResults, "save-results", false, "save each run's results to the store")
	flags.BoolVar(&opts.showResults, "results", false, "print each run's results")
	return cmd
}

func (a *app) run(ctx context.Context, stdout, stderr io.Writer, names []string, opts *runOptions) error {
	out := &syncWriter{w: stdout}
	errOut := &syncWriter{w: stderr}

	rt, err := a.runtime(out)
	if err != nil {
		return a.failTo(errOut, err)
	}

	var db *store.Store
	if opts.fromStore || opts.saveResults {
		db, err = store.Open(ctx, a.cfg.Store.Driver, a.cfg.Store.DSN, store.WithLogger(a.logger))
		if err != nil {
			return a.failTo(errOut, err)
		}
		defer db.Close()
	}

	var failed atomic.Int32
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.jobs, 1))
	for _, name := range names {
		g.Go(func() error {
			source, err := a.source(ctx, db, name, opts.fromStore)
			if err != nil {
				return err
			}

			runCtx := ctx
			if opts.timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(ctx, opts.timeout)
				defer cancel()
			}

			started := time.Now()
			sc, err := rt.RunContext(runCtx, source)
			if sc != nil {
				a.logger.Info("script finished",
					slog.String("script", name),
					slog.String("run", sc.ID()),
					slog.String("state", sc.State().String()),
					slog.Duration("took", time.Since(started)),
				)
			}
			if err != nil {
				failed.Add(1)
				report(errOut, name, err)
				if sc == nil {
					return nil
				}
			}

			results := sc.Results()
			if opts.showResults {
				printResults(out, name, results)
			}
			if opts.saveResults && len(results) > 0 {
				if err := db.SaveResults(ctx, sc.ID(), name, results); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return a.failTo(errOut, err)
	}
	if n := failed.Load(); n > 0 {
		return a.failTo(errOut, fmt.Errorf("%d of %d scripts failed", n, len(names)))
	}
	return nil
}

func (a *app) source(ctx context.Context, db *store.Store, name string, fromStore bool) (string, error) {
	if fromStore {
		s, err := db.LoadScript(ctx, name)
		if err != nil {
			return "", err
		}
		return s.Source, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	return string(data), nil
}

func (a *app) failTo(w io.Writer, err error) error {
	report(w, "", err)
	return err
}

func printResults(w io.Writer, name string, results map[string]any) {
	for _, key := range slices.Sorted(maps.Keys(results)) {
		label := key
		if key == script.DefaultResult {
			label = "result"
		}
		fmt.Fprintf(w, "%s: %s = %s\n", name, label, object.Inspect(results[key]))
	}
}
