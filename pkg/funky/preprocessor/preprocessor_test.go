package preprocessor

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func newTestPreprocessor(files fstest.MapFS) (*Preprocessor, *bytes.Buffer) {
	var info bytes.Buffer
	return New(Options{FS: files, Info: &info}), &info
}

func TestProcess(t *testing.T) {
	files := fstest.MapFS{
		"lib.funky":    {Data: []byte("print(0) ")},
		"outer.funky":  {Data: []byte(`do(#include "inner.funky")`)},
		"inner.funky":  {Data: []byte("print(2)")},
		"quoted.funky": {Data: []byte(`print("// kept")`)},
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain source is unchanged",
			input:    `do(print(1))`,
			expected: `do(print(1))`,
		},
		{
			name:     "include splices file contents",
			input:    `do(#include "lib.funky" print(1))`,
			expected: `do(print(0)  print(1))`,
		},
		{
			name:     "nested include",
			input:    `function(#include "outer.funky")`,
			expected: `function(do(print(2)))`,
		},
		{
			name:     "included strings survive comment removal",
			input:    `do(#include "quoted.funky")`,
			expected: `do(print("// kept"))`,
		},
		{
			name:     "include inside string or comment is ignored",
			input:    `print("#include x") // #include "y"`,
			expected: `print("#include x") `,
		},
		{
			name:     "comments are removed",
			input:    "do( /* x ( */ print(1) // y\n)",
			expected: "do(  print(1) \n)",
		},
		{
			name:     "comment markers inside strings are kept",
			input:    `print("/* not a comment */")`,
			expected: `print("/* not a comment */")`,
		},
		{
			name:     "escapes become characters",
			input:    `print("a\nb\tc")`,
			expected: "print(\"a\nb\tc\")",
		},
		{
			name:     "macro with name capture",
			input:    "#macro inc\\(($name)\\) set_copy(\"$1\", add(get(\"$1\"), 1))\ndo(inc(x))",
			expected: `do(set_copy("x", add(get("x"), 1)))`,
		},
		{
			name:     "macro applies only after its directive",
			input:    "do(inc(a))\n#macro inc\\(($name)\\) add($1, 1)\ninc(b)",
			expected: "do(inc(a))\nadd(b, 1)",
		},
		{
			name:     "macro does not touch strings",
			input:    "#macro foo bar\nprint(\"foo\" foo)",
			expected: `print("foo" bar)`,
		},
		{
			name:     "macro with any",
			input:    "#macro twice\\(($any)\\) do($1 $1)\ntwice(\"hi\")",
			expected: `do("hi" "hi")`,
		},
		{
			name:     "dollar words in a replacement are literal",
			input:    "#macro cost\\(($name)\\) print(\"$price $1\")\ncost(tea)",
			expected: `print("$price tea")`,
		},
		{
			name:     "later macro sees earlier expansion",
			input:    "#macro xx yy\n#macro yy zz\nxx",
			expected: "zz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestPreprocessor(files)
			got, err := p.Process("main.funky", tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %s", err.Diagnostic())
			}
			if got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestProcessErrors(t *testing.T) {
	files := fstest.MapFS{
		"self.funky": {Data: []byte(`#include "self.funky"`)},
	}

	tests := []struct {
		name  string
		input string
		code  string
	}{
		{"missing include quote", "do(\n#include lib)", "SYNTAX-0010"},
		{"missing include file", `do(#include "nope.funky")`, "IO-0001"},
		{"recursive include", `do(#include "self.funky")`, "RESOURCE-0002"},
		{"macro at end of text", "do()\n#macro", "SYNTAX-0011"},
		{"macro without replacement", "do()\n#macro abc", "SYNTAX-0011"},
		{"bad macro pattern", "#macro a(b x\na(b", "SYNTAX-0012"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(Options{FS: files, Info: &bytes.Buffer{}, MaxIncludeDepth: 4})
			_, err := p.Process("main.funky", tt.input)
			if err == nil {
				t.Fatalf("expected error %s", tt.code)
			}
			if err.Code != tt.code {
				t.Errorf("got code %s, want %s (%s)", err.Code, tt.code, err.Message)
			}
		})
	}
}

func TestIncludeErrorPosition(t *testing.T) {
	p, _ := newTestPreprocessor(fstest.MapFS{})
	_, err := p.Process("main.funky", "do(\n#include lib)")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Line != 2 || err.Column != 1 {
		t.Errorf("got line %d col %d, want line 2 col 1", err.Line, err.Column)
	}
	if err.File != "main.funky" {
		t.Errorf("got file %q", err.File)
	}
}

func TestLogExpanded(t *testing.T) {
	t.Run("to info writer", func(t *testing.T) {
		p, info := newTestPreprocessor(fstest.MapFS{})
		got, err := p.Process("main.funky", "#log_expanded\nprint(1) // done")
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if got != "print(1) " {
			t.Errorf("got %q", got)
		}
		want := "[INFO] preprocessed code:\nprint(1) \n"
		if info.String() != want {
			t.Errorf("info = %q, want %q", info.String(), want)
		}
	})

	t.Run("to file", func(t *testing.T) {
		dir := t.TempDir()
		var info bytes.Buffer
		p := New(Options{Dir: dir, FS: fstest.MapFS{}, Info: &info})

		got, err := p.Process("main.funky", "#log_expanded \"expanded.txt\"\nprint(\"a\\n\")")
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if got != "print(\"a\n\")" {
			t.Errorf("got %q", got)
		}

		target := filepath.Join(dir, "expanded.txt")
		data, rerr := os.ReadFile(target)
		if rerr != nil {
			t.Fatalf("log file not written: %v", rerr)
		}
		// the log shows escapes before they are applied
		if string(data) != `print("a\n")` {
			t.Errorf("log file = %q", data)
		}
		if !strings.Contains(info.String(), "logged to "+target) {
			t.Errorf("info = %q", info.String())
		}
	})

	t.Run("only on the first line", func(t *testing.T) {
		p, info := newTestPreprocessor(fstest.MapFS{})
		if _, err := p.Process("main.funky", "do()\n"); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if info.Len() != 0 {
			t.Errorf("unexpected info output %q", info.String())
		}
	})
}

func TestProcessFromDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lib.funky"), []byte("print(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Process("main.funky", `do(#include "lib.funky")`, Options{Dir: dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "do(print(1))" {
		t.Errorf("got %q", got)
	}
}

func TestIncludeOutsideWorkingDirectory(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "game")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	lib := filepath.Join(root, "lib.funky")
	if err := os.WriteFile(lib, []byte("print(1)"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input string
	}{
		{"parent relative", `do(#include "../lib.funky")`},
		{"absolute", `do(#include "` + filepath.ToSlash(lib) + `")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Process("main.funky", tt.input, Options{Dir: sub, Info: &bytes.Buffer{}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != "do(print(1))" {
				t.Errorf("got %q", got)
			}
		})
	}
}
