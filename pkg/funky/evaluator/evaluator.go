// Package evaluator implements the funky runtime: the pooled value model,
// call nodes and activation frames, and the builtin operation table.
//
// Evaluation is a synchronous, depth-first tree walk. Errors never unwind the
// walk: a failing operation reports a diagnostic and produces no value, and
// every caller treats a missing value as a reason to stop.
package evaluator

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/sambeau/funky/pkg/funky/errors"
)

// DefaultMaxDepth bounds nested evaluation so runaway recursion is reported
// instead of exhausting the Go stack.
const DefaultMaxDepth = 10000

// Logger interface for print() output
type Logger interface {
	Log(values ...interface{})
	LogLine(values ...interface{})
}

// defaultStdoutLogger is the default logger that writes to stdout
type defaultStdoutLogger struct{}

func (l *defaultStdoutLogger) Log(values ...interface{}) {
	for i, v := range values {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(v)
	}
}

func (l *defaultStdoutLogger) LogLine(values ...interface{}) {
	l.Log(values...)
	fmt.Println()
}

// DefaultLogger is the default stdout logger
var DefaultLogger Logger = &defaultStdoutLogger{}

// Reporter receives diagnostics at the point of failure.
type Reporter interface {
	Report(err *errors.ScriptError)
}

// WriterReporter prints each diagnostic to W, prefixed the way the CLI
// prefixes its status lines.
type WriterReporter struct {
	W io.Writer
}

func (r *WriterReporter) Report(err *errors.ScriptError) {
	fmt.Fprintf(r.W, "[ERROR] %s\n", err.Diagnostic())
}

// DefaultReporter writes diagnostics to stderr.
var DefaultReporter Reporter = &WriterReporter{W: os.Stderr}

// HostFunc is a native callback reachable through call_cpp. Its arguments
// alias the script values passed in, so results are written back through
// them. A returned error is reported at the call site.
type HostFunc func(rt *Runtime, args *List) error

// Registry maps host function names to callbacks. The embedding owns it.
type Registry map[string]HostFunc

// Register adds or replaces a host function.
func (r Registry) Register(name string, fn HostFunc) {
	r[name] = fn
}

// Runtime is the context a program runs in. It is not safe for concurrent
// use; each goroutine running scripts needs its own.
type Runtime struct {
	Heap     *Heap
	Host     Registry
	Logger   Logger
	Reporter Reporter
	MaxDepth int

	// WorkingDir is the directory host functions resolve script paths
	// against.
	WorkingDir string

	in      io.Reader
	scanner *bufio.Reader
	errs    int
}

// NewRuntime creates a runtime over heap with stdout, stderr and stdin wired
// in. A nil heap gets one with the default pool capacity.
func NewRuntime(heap *Heap) *Runtime {
	if heap == nil {
		heap = NewHeap(0)
	}
	return &Runtime{
		Heap:     heap,
		Host:     Registry{},
		Logger:   DefaultLogger,
		Reporter: DefaultReporter,
		MaxDepth: DefaultMaxDepth,
		in:       os.Stdin,
	}
}

// SetInput replaces the reader input() consumes.
func (rt *Runtime) SetInput(r io.Reader) {
	rt.in = r
	rt.scanner = nil
}

func (rt *Runtime) input() *bufio.Reader {
	if rt.scanner == nil {
		rt.scanner = bufio.NewReader(rt.in)
	}
	return rt.scanner
}

// ErrorCount returns the number of diagnostics reported so far.
func (rt *Runtime) ErrorCount() int { return rt.errs }

func (rt *Runtime) report(err *errors.ScriptError) {
	rt.errs++
	if rt.Reporter != nil {
		rt.Reporter.Report(err)
	}
}

// Run evaluates root as the program's entry call and frees its result.
func (rt *Runtime) Run(root *Node) {
	if res := rt.call(root, nil, 0, false); res != nil {
		res.Free()
	}
}

// Eval evaluates root and hands its result, possibly nil, to the caller, who
// must Free it.
func (rt *Runtime) Eval(root *Node) *Data {
	return rt.call(root, nil, 0, false)
}

func (rt *Runtime) call(n *Node, parent *Frame, depth int, boundary bool) *Data {
	return rt.run(n, parent, depth, boundary, nil)
}

// run evaluates n in a new frame. bind, when set, populates the frame before
// the builtin runs.
func (rt *Runtime) run(n *Node, parent *Frame, depth int, boundary bool, bind func(*Frame)) *Data {
	if rt.MaxDepth > 0 && depth > rt.MaxDepth {
		rt.report(n.Tok.Locate(errors.New("RESOURCE-0001", nil)))
		return nil
	}

	f := &Frame{node: n, parent: parent, rt: rt, depth: depth, boundary: boundary}
	if bind != nil {
		bind(f)
	}
	n.Op(f)

	ret := f.ret
	f.ret = nil
	f.end()
	return ret
}

// Scope is a long-lived frame root calls can run inside, so top-level
// bindings survive from one run to the next. The REPL keeps one per session.
type Scope struct {
	frame *Frame
}

// NewScope creates an empty top-level scope.
func (rt *Runtime) NewScope() *Scope {
	return &Scope{frame: &Frame{rt: rt}}
}

// Get returns the value bound to name in the scope.
func (s *Scope) Get(name string) (*Data, bool) {
	d, ok := s.frame.locals[name]
	return d, ok
}

// Names returns the names bound in the scope.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.frame.locals))
	for name := range s.frame.locals {
		names = append(names, name)
	}
	return names
}

// Close frees every binding in the scope.
func (s *Scope) Close() {
	s.frame.SetReturn(nil)
	s.frame.end()
}

// EvalIn evaluates root as a call made from inside s. The caller must Free
// the result.
func (rt *Runtime) EvalIn(root *Node, s *Scope) *Data {
	res := rt.call(root, s.frame, 1, false)
	// a return at the top level has nowhere to go
	s.frame.SetReturn(nil)
	return res
}
