// Package script provides the public API for embedding the funky runtime:
// load a script from a file or a string, then run it.
//
//	s, err := script.Load("game/main.funky", script.Options{})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//	err = s.Run()
package script

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sambeau/funky/pkg/funky/errors"
	"github.com/sambeau/funky/pkg/funky/evaluator"
	"github.com/sambeau/funky/pkg/funky/lexer"
	"github.com/sambeau/funky/pkg/funky/parser"
	"github.com/sambeau/funky/pkg/funky/preprocessor"
)

// ErrRuntime is returned by Run when the program reported diagnostics.
var ErrRuntime = stderrors.New("script reported runtime errors")

// Options configures how a script is loaded and run. The zero value runs
// with stdout, stderr, stdin and default pool sizes.
type Options struct {
	// Runtime, when set, is reused as is and the fields below that configure
	// a runtime are ignored. Scripts started from a running script share it.
	Runtime *evaluator.Runtime

	PoolCapacity int
	MaxCallDepth int
	Logger       Logger
	Reporter     Reporter
	Host         evaluator.Registry
	Stdin        io.Reader

	// Dir is the working directory for includes, host file access and the
	// #log_expanded file. Load defaults it to the script's directory.
	Dir string

	// FS serves included files. Nil means the OS file system, with
	// relative paths joined to Dir.
	FS fs.FS

	// Info receives preprocessor [INFO] lines. Nil means stdout.
	Info io.Writer

	// MaxIncludeDepth bounds nested #include expansion. Zero means the
	// preprocessor default.
	MaxIncludeDepth int
}

// NewRuntime builds the runtime described by opts.
func NewRuntime(opts Options) *evaluator.Runtime {
	if opts.Runtime != nil {
		return opts.Runtime
	}

	rt := evaluator.NewRuntime(evaluator.NewHeap(opts.PoolCapacity))
	if opts.MaxCallDepth > 0 {
		rt.MaxDepth = opts.MaxCallDepth
	}
	if opts.Logger != nil {
		rt.Logger = opts.Logger
	}
	if opts.Reporter != nil {
		rt.Reporter = opts.Reporter
	}
	if opts.Host != nil {
		rt.Host = opts.Host
	}
	if opts.Stdin != nil {
		rt.SetInput(opts.Stdin)
	}
	rt.WorkingDir = opts.Dir
	return rt
}

// Script is a loaded program: the expanded source and its call tree, bound
// to the runtime it runs in.
type Script struct {
	Path     string
	Expanded string

	root *evaluator.Node
	rt   *evaluator.Runtime
}

// Load reads, preprocesses and parses the script at path.
func Load(path string, opts Options) (*Script, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		se := errors.New("IO-0003", map[string]any{"Path": path})
		se.Hints = append(se.Hints, err.Error())
		return nil, se
	}
	if opts.Dir == "" {
		opts.Dir = filepath.Dir(path)
	}
	return LoadString(path, string(text), opts)
}

// LoadString preprocesses and parses text. name appears in diagnostics.
func LoadString(name, text string, opts Options) (*Script, error) {
	if opts.Dir == "" {
		opts.Dir = "."
	}

	expanded, err := Expand(name, text, opts)
	if err != nil {
		return nil, err
	}

	rt := NewRuntime(opts)
	root, err := parser.Parse(lexer.NewSource(name, expanded), rt.Heap)
	if err != nil {
		return nil, err
	}
	return &Script{Path: name, Expanded: expanded, root: root, rt: rt}, nil
}

// Expand runs only the preprocessor over text.
func Expand(name, text string, opts Options) (string, error) {
	return preprocessor.Process(name, text, preprocessor.Options{
		Dir:             opts.Dir,
		FS:              opts.FS,
		Info:            opts.Info,
		MaxIncludeDepth: opts.MaxIncludeDepth,
	})
}

// Runtime returns the runtime the script runs in.
func (s *Script) Runtime() *evaluator.Runtime { return s.rt }

// Root returns the parsed root call.
func (s *Script) Root() *evaluator.Node { return s.root }

// Run evaluates the root call. Diagnostics go to the runtime's reporter as
// they happen; Run returns ErrRuntime if any were reported. Pool exhaustion
// panics with *pool.ExhaustedError.
func (s *Script) Run() error {
	before := s.rt.ErrorCount()
	s.rt.Run(s.root)
	if n := s.rt.ErrorCount() - before; n > 0 {
		return fmt.Errorf("%s: %d error(s): %w", s.Path, n, ErrRuntime)
	}
	return nil
}

// EvalIn evaluates the root call inside a long-lived scope and returns its
// result, which the caller must Free.
func (s *Script) EvalIn(scope *evaluator.Scope) *evaluator.Data {
	return s.rt.EvalIn(s.root, scope)
}

// Close releases the literals held by the call tree. Function values created
// by the script must not be called afterwards.
func (s *Script) Close() {
	if s.root != nil {
		s.root.Free()
		s.root = nil
	}
}

// RunFile loads, runs and closes the script at path.
func RunFile(path string, opts Options) error {
	s, err := Load(path, opts)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Run()
}
