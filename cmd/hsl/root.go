package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"hsl/internal/config"
	"hsl/internal/diagnostic"
	"hsl/internal/hostlib"
	hsllog "hsl/internal/log"
	"hsl/internal/script"
)

// app carries what every command needs once flags and configuration are
// read.
type app struct {
	configPath string
	logLevel   string
	logFile    string
	logFormat  string
	noColor    bool

	cfg    config.Configuration
	logger *slog.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "hsl",
		Short: "Run and inspect HSL scripts",
		Long: `hsl lexes, parses, resolves and interprets scripts written in HSL,
a small class-based scripting language meant to be embedded in Go programs.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "configuration file (.toml, .yaml or .yml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, none")
	flags.StringVar(&a.logFile, "log-file", "", "log file path (default stderr)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format: text, json or pretty")
	flags.BoolVar(&a.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(
		newRunCmd(a),
		newCheckCmd(a),
		newTokensCmd(a),
		newASTCmd(a),
		newReplCmd(a),
		newStoreCmd(a),
		newVersionCmd(a),
	)

	root.SetErr(os.Stderr)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return a.fail(cmd, err)
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return a.fail(cmd, err)
	}
	cfg.Version, cfg.BuildDate, cfg.Commit = Version, BuildDate, Commit

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = a.logFile
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("no-color") {
		cfg.Log.NoColor = a.noColor
	}
	a.cfg = cfg

	color.NoColor = cfg.Log.NoColor || !hsllog.IsTerminal(os.Stdout)

	logger, closer, err := hsllog.New(hsllog.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Color:  !cfg.Log.NoColor,
	}, os.Stderr)
	if err != nil {
		return a.fail(cmd, err)
	}
	a.logger, a.closer = logger, closer
	slog.SetDefault(logger)
	return nil
}

func (a *app) fail(cmd *cobra.Command, err error) error {
	color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
	return err
}

// runtime builds a script runtime from the configuration, with the standard
// modules the configuration selects.
func (a *app) runtime(out io.Writer) (*script.Runtime, error) {
	opts := []script.Option{
		script.WithOutput(out),
		script.WithLogger(a.logger),
		script.WithCacheSize(a.cfg.Engine.CacheSize),
		script.WithMaxDepth(a.cfg.Engine.MaxDepth),
	}
	if a.cfg.Engine.StrictNatives {
		opts = append(opts, script.WithStrictNatives())
	}
	rt, err := script.NewRuntime(opts...)
	if err != nil {
		return nil, err
	}

	modules, err := hostlib.Modules()
	if err != nil {
		return nil, err
	}
	for _, m := range modules {
		if len(a.cfg.Engine.Modules) == 0 || slices.Contains(a.cfg.Engine.Modules, m.Name()) {
			rt.Module(m)
		}
	}
	return rt, nil
}

// report prints err, colouring script diagnostics.
func report(w io.Writer, name string, err error) {
	var b bytes.Buffer
	if name != "" {
		color.New(color.FgRed, color.Bold).Fprintf(&b, "%s: ", name)
	}
	if se, ok := diagnostic.As(err); ok {
		color.New(color.FgRed).Fprintf(&b, "%s %s\n", se.Kind, se.Phase)
	}
	fmt.Fprintln(&b, err)
	_, _ = w.Write(b.Bytes())
}

// syncWriter serialises writes from scripts running concurrently.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
