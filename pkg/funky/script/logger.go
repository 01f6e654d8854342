package script

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sambeau/funky/pkg/funky/errors"
	"github.com/sambeau/funky/pkg/funky/evaluator"
)

// Logger is an alias for evaluator.Logger for convenience
type Logger = evaluator.Logger

// Reporter is an alias for evaluator.Reporter for convenience
type Reporter = evaluator.Reporter

// StdoutLogger returns a logger that writes to stdout (default for CLI/REPL)
func StdoutLogger() Logger {
	return evaluator.DefaultLogger
}

// writerLogger writes to an io.Writer
type writerLogger struct {
	w io.Writer
}

func (l *writerLogger) Log(values ...any) {
	fmt.Fprint(l.w, formatLogValues(values...))
}

func (l *writerLogger) LogLine(values ...any) {
	fmt.Fprintln(l.w, formatLogValues(values...))
}

// WriterLogger returns a logger that writes to an io.Writer
func WriterLogger(w io.Writer) Logger {
	return &writerLogger{w: w}
}

// BufferedLogger captures print output for later retrieval. print writes
// without a newline, so most output accumulates in the pending buffer until
// LogLine closes a line.
type BufferedLogger struct {
	mu    sync.Mutex
	lines []string
	buf   strings.Builder
}

// NewBufferedLogger creates a new buffered logger
func NewBufferedLogger() *BufferedLogger {
	return &BufferedLogger{
		lines: make([]string, 0),
	}
}

func (l *BufferedLogger) Log(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf.WriteString(formatLogValues(values...))
}

func (l *BufferedLogger) LogLine(values ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	line := l.buf.String() + formatLogValues(values...)
	l.lines = append(l.lines, line)
	l.buf.Reset()
}

// String returns all captured output as a single string
func (l *BufferedLogger) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := strings.Join(l.lines, "\n")
	if len(l.lines) > 0 {
		result += "\n"
	}
	return result + l.buf.String()
}

// Lines returns all completed log lines
func (l *BufferedLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]string, len(l.lines))
	copy(result, l.lines)
	return result
}

// Reset clears all captured output
func (l *BufferedLogger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = l.lines[:0]
	l.buf.Reset()
}

// nullLogger discards all output
type nullLogger struct{}

func (l *nullLogger) Log(values ...any)     {}
func (l *nullLogger) LogLine(values ...any) {}

// NullLogger returns a logger that discards all output
func NullLogger() Logger {
	return &nullLogger{}
}

func formatLogValues(values ...any) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}

// WriterReporter returns a reporter printing "[ERROR] <diagnostic>" lines to w.
func WriterReporter(w io.Writer) Reporter {
	return &evaluator.WriterReporter{W: w}
}

// CollectingReporter keeps every diagnostic it receives.
type CollectingReporter struct {
	mu   sync.Mutex
	errs []*errors.ScriptError
}

// NewCollectingReporter creates an empty collecting reporter.
func NewCollectingReporter() *CollectingReporter {
	return &CollectingReporter{}
}

func (r *CollectingReporter) Report(err *errors.ScriptError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

// Errors returns the diagnostics received so far.
func (r *CollectingReporter) Errors() []*errors.ScriptError {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*errors.ScriptError, len(r.errs))
	copy(result, r.errs)
	return result
}

// Codes returns the catalog code of each diagnostic, in order.
func (r *CollectingReporter) Codes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	codes := make([]string, len(r.errs))
	for i, err := range r.errs {
		codes[i] = err.Code
	}
	return codes
}

// Reset forgets every collected diagnostic.
func (r *CollectingReporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = nil
}
