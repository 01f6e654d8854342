package script

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/sambeau/funky/pkg/funky/errors"
	"github.com/sambeau/funky/pkg/funky/evaluator"
)

func testOptions() (Options, *BufferedLogger, *CollectingReporter) {
	logger := NewBufferedLogger()
	reporter := NewCollectingReporter()
	return Options{
		Logger:   logger,
		Reporter: reporter,
		Stdin:    strings.NewReader(""),
		FS:       fstest.MapFS{},
		Info:     &strings.Builder{},
	}, logger, reporter
}

func TestEndToEnd(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		output string
		codes  []string
	}{
		{"print", `function(print("hello"))`, "hello", nil},
		{"variables", `function(set_copy("x" 5) print(add(get("x") 1)))`, "6", nil},
		{"referenced list", `function(set_ref("a" list()) push_copy(get("a") 1 2 3) print(count(get("a"))))`, "3", nil},
		{"last element", `function(print(get_elem(list(1 2 3) -1)))`, "3", nil},
		{"missing host function", `function(call_cpp("missing_fn") print(" still running"))`, " still running", []string{"DOMAIN-0004"}},
		{"escapes", `function(print("a\tb\n"))`, "a\tb\n", nil},
		{"macros", "#macro inc\\(($name)\\) set_copy(\"$1\" add(get(\"$1\") 1))\nfunction(set_copy(\"n\" 1) inc(n) print(get(\"n\")))", "2", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, logger, reporter := testOptions()
			s, err := LoadString("main.funky", tt.input, opts)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			defer s.Close()

			err = s.Run()
			if got := logger.String(); got != tt.output {
				t.Errorf("output = %q, want %q", got, tt.output)
			}

			codes := reporter.Codes()
			if len(codes) != len(tt.codes) {
				t.Fatalf("diagnostics = %v, want %v", codes, tt.codes)
			}
			for i := range codes {
				if codes[i] != tt.codes[i] {
					t.Errorf("diagnostic %d = %s, want %s", i, codes[i], tt.codes[i])
				}
			}

			if len(tt.codes) > 0 && !stderrors.Is(err, ErrRuntime) {
				t.Errorf("Run error = %v, want ErrRuntime", err)
			}
			if len(tt.codes) == 0 && err != nil {
				t.Errorf("Run error = %v", err)
			}
		})
	}
}

func TestLoadRejectsSyntaxErrors(t *testing.T) {
	opts, logger, _ := testOptions()
	_, err := LoadString("main.funky", `function(fooo(1))`, opts)
	if err == nil {
		t.Fatal("expected a load error")
	}

	var se *errors.ScriptError
	if !stderrors.As(err, &se) {
		t.Fatalf("error %T is not a ScriptError", err)
	}
	if !se.IsSyntaxError() || se.Message != "undefined 'fooo'" {
		t.Errorf("got %s %q", se.Class, se.Message)
	}

	want := "in 'main.funky' on line 1 col 10\nundefined 'fooo':\nfunction(fooo(1))\n---------^-------"
	if got := se.Diagnostic(); !strings.HasPrefix(got, want) {
		t.Errorf("diagnostic:\n%s\nwant prefix:\n%s", got, want)
	}
	if logger.String() != "" {
		t.Error("a script that fails to load must not run")
	}
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	write := func(name, text string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("main.funky", "function(\n#include \"lib.funky\"\nprint(get(\"greeting\")))")
	write("lib.funky", `set_copy("greeting" "hi")`)

	opts, logger, _ := testOptions()
	opts.FS = nil

	if err := RunFile(filepath.Join(dir, "main.funky"), opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := logger.String(); got != "hi" {
		t.Errorf("output = %q", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	opts, _, _ := testOptions()
	_, err := Load(filepath.Join(t.TempDir(), "nope.funky"), opts)

	var se *errors.ScriptError
	if !stderrors.As(err, &se) || se.Code != "IO-0003" {
		t.Fatalf("got %v, want IO-0003", err)
	}
}

func TestCloseFreesLiterals(t *testing.T) {
	opts, _, _ := testOptions()
	s, err := LoadString("main.funky", `function(print(1 "two" 3.0))`, opts)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	s.Close()
	if live := s.Runtime().Heap.Live(); live != 0 {
		t.Errorf("%d handles live after Close", live)
	}
}

func TestSharedRuntime(t *testing.T) {
	opts, logger, _ := testOptions()
	rt := NewRuntime(opts)

	for _, src := range []string{`function(print("a"))`, `function(print("b"))`} {
		s, err := LoadString("part.funky", src, Options{Runtime: rt, FS: fstest.MapFS{}})
		if err != nil {
			t.Fatal(err)
		}
		if s.Runtime() != rt {
			t.Fatal("runtime not shared")
		}
		if err := s.Run(); err != nil {
			t.Fatal(err)
		}
		s.Close()
	}
	if got := logger.String(); got != "ab" {
		t.Errorf("output = %q", got)
	}
}

func TestReplScope(t *testing.T) {
	opts, logger, _ := testOptions()
	rt := NewRuntime(opts)
	scope := rt.NewScope()
	defer scope.Close()

	var scripts []*Script
	defer func() {
		for _, s := range scripts {
			s.Close()
		}
	}()

	for _, src := range []string{`set_copy("x" 2)`, `mult(get("x") 21)`} {
		s, err := LoadString("<repl>", src, Options{Runtime: rt, FS: fstest.MapFS{}})
		if err != nil {
			t.Fatal(err)
		}
		scripts = append(scripts, s)
		if res := s.EvalIn(scope); res != nil {
			logger.Log(evaluator.Inspect(res))
			res.Free()
		}
	}
	if got := logger.String(); got != "42" {
		t.Errorf("output = %q", got)
	}
}

func TestBufferedLogger(t *testing.T) {
	l := NewBufferedLogger()
	l.Log("a", 1)
	l.LogLine("b")
	l.Log("c")

	if got := l.String(); got != "a 1b\nc" {
		t.Errorf("String() = %q", got)
	}
	if lines := l.Lines(); len(lines) != 1 || lines[0] != "a 1b" {
		t.Errorf("Lines() = %v", lines)
	}
	l.Reset()
	if l.String() != "" {
		t.Error("Reset should clear output")
	}
}
