package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noEnv(string) string { return "" }

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(context.Background(), args, strings.NewReader(stdin), stdout, stderr, noEnv)
	return code, stdout.String(), stderr.String()
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "--version")
	if code != exitOK {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(stdout, "funky version "+Version) {
		t.Errorf("expected version output, got %q", stdout)
	}
}

func TestRunHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "", "--help")
	if code != exitOK {
		t.Errorf("exit code = %d", code)
	}
	for _, want := range []string{"Usage:", "check", "expand", "repl", "watch", "--config"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output missing %q:\n%s", want, stdout)
		}
	}
}

func TestRunUnknownFlag(t *testing.T) {
	code, _, stderr := runCLI(t, "", "--nope")
	if code != exitUsage {
		t.Errorf("exit code = %d, want %d", code, exitUsage)
	}
	if !strings.Contains(stderr, "unknown flag") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRunFolder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.funky", "function(\n#include \"lib.funky\"\nprint(get(\"greeting\")))")
	writeFile(t, dir, "lib.funky", `set_copy("greeting" "hello")`)

	code, stdout, stderr := runCLI(t, "", dir)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	if stdout != "hello" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRunFolderEntryFromConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "funky.yaml", "entry: start.funky\n")
	writeFile(t, dir, "start.funky", `function(print("started"))`)

	code, stdout, stderr := runCLI(t, "", dir)
	if code != exitOK || stdout != "started" {
		t.Errorf("exit code = %d, stdout = %q, stderr = %q", code, stdout, stderr)
	}
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "other.funky", `function(print(add(2 3)))`)

	code, stdout, _ := runCLI(t, "", path)
	if code != exitOK || stdout != "5" {
		t.Errorf("exit code = %d, stdout = %q", code, stdout)
	}
}

func TestRunHostLibrary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "from disk")
	writeFile(t, dir, "main.funky", `function(set_copy("s" "") call_cpp("read_txt" "notes.txt" get("s")) print(get("s")))`)

	code, stdout, stderr := runCLI(t, "", dir)
	if code != exitOK || stdout != "from disk" {
		t.Errorf("exit code = %d, stdout = %q, stderr = %q", code, stdout, stderr)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		stdout string
		stderr string
	}{
		{
			name:   "syntax error",
			source: `function(pritn(1))`,
			stderr: "[ERROR] in '",
		},
		{
			name:   "runtime error keeps running",
			source: `function(print(get("nope")) print("after"))`,
			stdout: "after",
			stderr: "variable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "main.funky", tt.source)

			code, stdout, stderr := runCLI(t, "", dir)
			if code != exitError {
				t.Errorf("exit code = %d, want %d", code, exitError)
			}
			if stdout != tt.stdout {
				t.Errorf("stdout = %q, want %q", stdout, tt.stdout)
			}
			if !strings.Contains(stderr, tt.stderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.stderr)
			}
		})
	}
}

func TestRunMissingFolder(t *testing.T) {
	code, _, stderr := runCLI(t, "", filepath.Join(t.TempDir(), "nope"))
	if code != exitError {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(stderr, "main.funky") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRunPoolExhaustion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.funky", `function(print(1 2 3 4 5))`)

	code, _, stderr := runCLI(t, "", "--pool", "2", dir)
	if code != exitFatal {
		t.Errorf("exit code = %d, want %d", code, exitFatal)
	}
	if !strings.HasPrefix(stderr, "[FATAL] memory pool") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRunDiagnosticsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.funky", `function(print(get("nope")))`)
	logPath := filepath.Join(dir, "errors.log")

	code, _, stderr := runCLI(t, "", "--diagnostics", logPath, dir)
	if code != exitError {
		t.Errorf("exit code = %d", code)
	}
	if stderr != "" {
		t.Errorf("diagnostics leaked to stderr: %q", stderr)
	}
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "[ERROR] ") {
		t.Errorf("diagnostics file = %q", data)
	}
}

func TestRunStdin(t *testing.T) {
	code, stdout, stderr := runCLI(t, `function(print("piped"))`)
	if code != exitOK || stdout != "piped" {
		t.Errorf("exit code = %d, stdout = %q, stderr = %q", code, stdout, stderr)
	}
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.funky", `function(print(1))`)
	bad := writeFile(t, dir, "bad.funky", `function(print(1)`)

	code, stdout, stderr := runCLI(t, "", "check", good)
	if code != exitOK || stdout != good+": ok\n" {
		t.Errorf("good: exit code = %d, stdout = %q, stderr = %q", code, stdout, stderr)
	}

	code, stdout, stderr = runCLI(t, "", "check", good, bad)
	if code != exitError {
		t.Errorf("bad: exit code = %d", code)
	}
	if stdout != good+": ok\n" {
		t.Errorf("bad: stdout = %q", stdout)
	}
	if !strings.Contains(stderr, "bad.funky") {
		t.Errorf("bad: stderr = %q", stderr)
	}
}

func TestCheckDoesNotRun(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.funky", `function(print("ran"))`)

	_, stdout, _ := runCLI(t, "", "check", path)
	if strings.Contains(stdout, "ran") {
		t.Errorf("check ran the script: %q", stdout)
	}
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.funky", "#macro hello say(\"hi\")\nfunction(hello) // done")

	code, stdout, stderr := runCLI(t, "", "expand", dir)
	if code != exitOK {
		t.Fatalf("exit code = %d, stderr = %q", code, stderr)
	}
	if !strings.Contains(stdout, `function(say("hi"))`) {
		t.Errorf("stdout = %q", stdout)
	}
	if strings.Contains(stdout, "// done") {
		t.Errorf("comments should be removed: %q", stdout)
	}
}
