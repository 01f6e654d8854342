package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sambeau/funky/config"
	"github.com/sambeau/funky/pkg/funky/errors"
	"github.com/sambeau/funky/pkg/funky/evaluator"
	"github.com/sambeau/funky/pkg/funky/hostlib"
	"github.com/sambeau/funky/pkg/funky/pool"
	"github.com/sambeau/funky/pkg/funky/repl"
	"github.com/sambeau/funky/pkg/funky/script"
	"github.com/sambeau/funky/pkg/funky/watch"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
	exitFatal = 3
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	cancel()
	os.Exit(code)
}

// app holds the streams and flag values one invocation works with.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	configPath   string
	poolCapacity int
	maxCallDepth int
	diagnostics  string
}

// run is the main entry point, designed for testability (Mat Ryer pattern).
// It returns the process exit code.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr, getenv: getenv}
	code := exitOK

	root := &cobra.Command{
		Use:   "funky [folder|file]",
		Short: "Run funky scripts",
		Long: `funky runs a script folder (its entry script, main.funky by default) or a
single script file. With no argument it starts the REPL when stdin is a
terminal and otherwise runs stdin as a script.`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				code = a.runTarget(args[0])
				return nil
			}
			if isTerminal(a.stdin) {
				code = a.startREPL()
				return nil
			}
			code = a.runStdin()
			return nil
		},
	}
	root.SetVersionTemplate("funky version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to funky.yaml (default: auto-detect)")
	flags.IntVar(&a.poolCapacity, "pool", 0, "slots per value type (overrides pool_capacity)")
	flags.IntVar(&a.maxCallDepth, "max-depth", 0, "maximum call depth (overrides max_call_depth)")
	flags.StringVar(&a.diagnostics, "diagnostics", "", "stderr, stdout or a file for diagnostics")

	root.AddCommand(
		&cobra.Command{
			Use:   "check <folder|file>...",
			Short: "Preprocess and parse scripts without running them",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				code = a.check(args)
				return nil
			},
		},
		&cobra.Command{
			Use:   "expand <folder|file>",
			Short: "Print a script after includes and macros are applied",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				code = a.expand(args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "repl",
			Short: "Start the interactive loop",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				code = a.startREPL()
				return nil
			},
		},
		&cobra.Command{
			Use:   "watch [folder]",
			Short: "Run a folder and re-run it whenever a script changes",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				dir := "."
				if len(args) == 1 {
					dir = args[0]
				}
				code = a.watch(ctx, dir)
				return nil
			},
		},
	)

	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", root.CommandPath())
		return exitUsage
	}
	return code
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// loadConfig reads funky.yaml for scripts in dir and applies flag overrides.
func (a *app) loadConfig(dir string) (*config.Config, error) {
	cfg, _, err := config.LoadWithPath(a.configPath, dir, a.getenv)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if a.poolCapacity > 0 {
		cfg.PoolCapacity = a.poolCapacity
	}
	if a.maxCallDepth > 0 {
		cfg.MaxCallDepth = a.maxCallDepth
	}
	if a.diagnostics != "" {
		cfg.Diagnostics = a.diagnostics
	}
	return cfg, nil
}

// resolve turns a folder or file argument into the script to load and the
// folder to read config from.
func (a *app) resolve(target string) (string, *config.Config, error) {
	dir := target
	info, err := os.Stat(target)
	if err == nil && !info.IsDir() {
		dir = filepath.Dir(target)
	}

	cfg, err := a.loadConfig(dir)
	if err != nil {
		return "", nil, err
	}
	if info != nil && !info.IsDir() {
		return target, cfg, nil
	}
	return cfg.EntryPath(target), cfg, nil
}

// diagnosticsReporter opens the configured diagnostics destination.
func (a *app) diagnosticsReporter(cfg *config.Config) (script.Reporter, func(), error) {
	switch cfg.Diagnostics {
	case config.DiagnosticsStderr:
		return script.WriterReporter(a.stderr), func() {}, nil
	case config.DiagnosticsStdout:
		return script.WriterReporter(a.stdout), func() {}, nil
	}
	f, err := os.OpenFile(cfg.Diagnostics, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening diagnostics file: %w", err)
	}
	return script.WriterReporter(f), func() { f.Close() }, nil
}

// options builds the script options every command shares.
func (a *app) options(cfg *config.Config, reporter script.Reporter) script.Options {
	host := evaluator.Registry{}
	hostlib.Register(host)
	return script.Options{
		PoolCapacity:    cfg.PoolCapacity,
		MaxCallDepth:    cfg.MaxCallDepth,
		Logger:          script.WriterLogger(a.stdout),
		Reporter:        reporter,
		Host:            host,
		Stdin:           a.stdin,
		Info:            a.stdout,
		MaxIncludeDepth: cfg.Preprocess.MaxIncludeDepth,
	}
}

// recoverFatal turns pool exhaustion into the fatal exit code.
func (a *app) recoverFatal(code *int) {
	r := recover()
	if r == nil {
		return
	}
	var pe *pool.ExhaustedError
	if e, ok := r.(error); ok && stderrors.As(e, &pe) {
		fmt.Fprintf(a.stderr, "[FATAL] %v\n", pe)
		*code = exitFatal
		return
	}
	panic(r)
}

// finish maps the result of loading or running a script to an exit code.
// Load errors go to the same place as runtime diagnostics.
func (a *app) finish(err error, reporter script.Reporter) int {
	if err == nil {
		return exitOK
	}
	if stderrors.Is(err, script.ErrRuntime) {
		return exitError
	}
	var se *errors.ScriptError
	if stderrors.As(err, &se) {
		reporter.Report(se)
		return exitError
	}
	fmt.Fprintf(a.stderr, "[ERROR] %v\n", err)
	return exitError
}

func (a *app) runTarget(target string) int {
	path, cfg, err := a.resolve(target)
	if err != nil {
		fmt.Fprintf(a.stderr, "[ERROR] %v\n", err)
		return exitError
	}
	return a.runFile(path, cfg)
}

func (a *app) runFile(path string, cfg *config.Config) (code int) {
	defer a.recoverFatal(&code)

	reporter, closeReporter, err := a.diagnosticsReporter(cfg)
	if err != nil {
		fmt.Fprintf(a.stderr, "[ERROR] %v\n", err)
		return exitError
	}
	defer closeReporter()

	return a.finish(script.RunFile(path, a.options(cfg, reporter)), reporter)
}

func (a *app) runStdin() (code int) {
	defer a.recoverFatal(&code)

	cfg, err := a.loadConfig(".")
	if err != nil {
		fmt.Fprintf(a.stderr, "[ERROR] %v\n", err)
		return exitError
	}
	reporter, closeReporter, err := a.diagnosticsReporter(cfg)
	if err != nil {
		fmt.Fprintf(a.stderr, "[ERROR] %v\n", err)
		return exitError
	}
	defer closeReporter()

	text, err := io.ReadAll(a.stdin)
	if err != nil {
		fmt.Fprintf(a.stderr, "[ERROR] reading stdin: %v\n", err)
		return exitError
	}

	s, err := script.LoadString("<stdin>", string(text), a.options(cfg, reporter))
	if err != nil {
		return a.finish(err, reporter)
	}
	defer s.Close()
	return a.finish(s.Run(), reporter)
}

func (a *app) check(targets []string) (code int) {
	defer a.recoverFatal(&code)

	code = exitOK
	for _, target := range targets {
		path, cfg, err := a.resolve(target)
		if err != nil {
			fmt.Fprintf(a.stderr, "[ERROR] %v\n", err)
			code = exitError
			continue
		}
		reporter, closeReporter, err := a.diagnosticsReporter(cfg)
		if err != nil {
			fmt.Fprintf(a.stderr, "[ERROR] %v\n", err)
			code = exitError
			continue
		}

		opts := a.options(cfg, reporter)
		opts.Info = io.Discard
		s, err := script.Load(path, opts)
		if err != nil {
			a.finish(err, reporter)
			code = exitError
		} else {
			s.Close()
			fmt.Fprintf(a.stdout, "%s: ok\n", path)
		}
		closeReporter()
	}
	return code
}

func (a *app) expand(target string) int {
	path, cfg, err := a.resolve(target)
	if err != nil {
		fmt.Fprintf(a.stderr, "[ERROR] %v\n", err)
		return exitError
	}
	text, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(a.stderr, "[ERROR] failed to open file '%s': %v\n", path, err)
		return exitError
	}

	expanded, err := script.Expand(path, string(text), script.Options{
		Dir:             filepath.Dir(path),
		Info:            a.stderr,
		MaxIncludeDepth: cfg.Preprocess.MaxIncludeDepth,
	})
	if err != nil {
		return a.finish(err, script.WriterReporter(a.stderr))
	}
	fmt.Fprintln(a.stdout, expanded)
	return exitOK
}

func (a *app) startREPL() int {
	cfg, err := a.loadConfig(".")
	if err != nil {
		fmt.Fprintf(a.stderr, "[ERROR] %v\n", err)
		return exitError
	}

	opts := a.options(cfg, nil)
	opts.Logger = nil
	err = repl.Start(repl.Config{
		Version:     Version,
		HistoryFile: cfg.REPL.History,
		Out:         a.stdout,
		Options:     opts,
	})
	if err != nil {
		return exitFatal
	}
	return exitOK
}

func (a *app) watch(ctx context.Context, dir string) int {
	cfg, err := a.loadConfig(dir)
	if err != nil {
		fmt.Fprintf(a.stderr, "[ERROR] %v\n", err)
		return exitError
	}
	entry := cfg.EntryPath(dir)

	w, err := watch.New(watch.Options{
		Dir:        dir,
		Debounce:   cfg.Watch.Debounce,
		Extensions: cfg.Watch.Extensions,
		Run: func() {
			if code := a.runFile(entry, cfg); code == exitFatal {
				fmt.Fprintln(a.stderr, "[WATCH] waiting for a change")
			}
		},
		Stdout: a.stdout,
		Stderr: a.stderr,
	})
	if err != nil {
		fmt.Fprintf(a.stderr, "[ERROR] %v\n", err)
		return exitError
	}
	defer w.Close()

	if err := w.Run(ctx); err != nil {
		fmt.Fprintf(a.stderr, "[ERROR] %v\n", err)
		return exitError
	}
	return exitOK
}
