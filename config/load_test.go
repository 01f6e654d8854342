package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func noEnv(string) string { return "" }

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Entry != "main.funky" {
		t.Errorf("expected default entry 'main.funky', got %q", cfg.Entry)
	}
	if cfg.PoolCapacity != 1000 {
		t.Errorf("expected default pool capacity 1000, got %d", cfg.PoolCapacity)
	}
	if cfg.MaxCallDepth != 10000 {
		t.Errorf("expected default call depth 10000, got %d", cfg.MaxCallDepth)
	}
	if cfg.Diagnostics != DiagnosticsStderr || cfg.DiagnosticsFile() {
		t.Errorf("expected diagnostics on stderr, got %q", cfg.Diagnostics)
	}
	if cfg.Watch.Debounce != 100*time.Millisecond {
		t.Errorf("expected 100ms debounce, got %s", cfg.Watch.Debounce)
	}
	if filepath.Base(cfg.REPL.History) != ".funky_history" {
		t.Errorf("unexpected history file %q", cfg.REPL.History)
	}
	if err := validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestInterpolateEnv(t *testing.T) {
	getenv := func(key string) string {
		switch key {
		case "POOL":
			return "250"
		case "OUT":
			return "stdout"
		default:
			return ""
		}
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple substitution", "pool_capacity: ${POOL}", "pool_capacity: 250"},
		{"with default (env set)", "pool_capacity: ${POOL:-10}", "pool_capacity: 250"},
		{"with default (env not set)", "entry: ${ENTRY:-start.funky}", "entry: start.funky"},
		{"multiple substitutions", "x: ${POOL}-${OUT}", "x: 250-stdout"},
		{"unset without default", "entry: ${ENTRY}", "entry: "},
		{"no pattern", "entry: main.funky", "entry: main.funky"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(interpolateEnv([]byte(tt.input), getenv))
			if got != tt.expected {
				t.Errorf("interpolateEnv(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
entry: game.funky
pool_capacity: ${POOL:-500}
max_call_depth: 200
diagnostics: logs/errors.txt
watch:
  debounce: 250ms
  extensions: [".funky", ".inc"]
repl:
  history: hist
preprocess:
  max_include_depth: 8
`)

	cfg, resolved, err := LoadWithPath(path, "", noEnv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved == "" || cfg.BaseDir != dir {
		t.Errorf("resolved %q, base dir %q", resolved, cfg.BaseDir)
	}
	if cfg.Entry != "game.funky" || cfg.PoolCapacity != 500 || cfg.MaxCallDepth != 200 {
		t.Errorf("unexpected values: %+v", cfg)
	}
	if cfg.Diagnostics != filepath.Join(dir, "logs", "errors.txt") || !cfg.DiagnosticsFile() {
		t.Errorf("diagnostics path not resolved: %q", cfg.Diagnostics)
	}
	if cfg.REPL.History != filepath.Join(dir, "hist") {
		t.Errorf("history path not resolved: %q", cfg.REPL.History)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("debounce = %s", cfg.Watch.Debounce)
	}
	if len(cfg.Watch.Extensions) != 2 || cfg.Watch.Extensions[1] != ".inc" {
		t.Errorf("extensions = %v", cfg.Watch.Extensions)
	}
	if cfg.Preprocess.MaxIncludeDepth != 8 {
		t.Errorf("include depth = %d", cfg.Preprocess.MaxIncludeDepth)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "diagnostics: stdout\n")

	cfg, err := Load(path, noEnv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Diagnostics != DiagnosticsStdout {
		t.Errorf("diagnostics = %q", cfg.Diagnostics)
	}
	if cfg.Entry != "main.funky" || cfg.PoolCapacity != 1000 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestResolveConfigPath(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "entry: a.funky\n")

	t.Run("explicit missing", func(t *testing.T) {
		_, err := resolveConfigPath(filepath.Join(dir, "nope.yaml"), "", noEnv)
		if err == nil || !strings.Contains(err.Error(), "config file not found") {
			t.Errorf("got %v", err)
		}
	})

	t.Run("env", func(t *testing.T) {
		getenv := func(key string) string {
			if key == "FUNKY_CONFIG" {
				return path
			}
			return ""
		}
		got, err := resolveConfigPath("", "", getenv)
		if err != nil || got != path {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("env missing", func(t *testing.T) {
		getenv := func(string) string { return filepath.Join(dir, "gone.yaml") }
		if _, err := resolveConfigPath("", "", getenv); err == nil {
			t.Error("expected an error for a missing FUNKY_CONFIG file")
		}
	})

	t.Run("script folder", func(t *testing.T) {
		got, err := resolveConfigPath("", dir, noEnv)
		if err != nil || got != path {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("none", func(t *testing.T) {
		got, err := resolveConfigPath("", t.TempDir(), noEnv)
		if err != nil || got != "" {
			t.Errorf("got %q, %v", got, err)
		}
	})
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, path, err := LoadWithPath("", t.TempDir(), noEnv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "" || cfg.Entry != "main.funky" {
		t.Errorf("got path %q, entry %q", path, cfg.Entry)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"zero pool", "pool_capacity: 0", "invalid pool_capacity: 0"},
		{"negative depth", "max_call_depth: -1", "invalid max_call_depth: -1"},
		{"empty entry", `entry: ""`, "entry is required"},
		{"bad extension", `watch: {extensions: ["funky"]}`, `watch.extensions[0]: "funky" must start with '.'`},
		{"include depth", "preprocess: {max_include_depth: 0}", "invalid preprocess.max_include_depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content+"\n")
			_, err := Load(path, noEnv)
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.HasPrefix(err.Error(), "configuration errors:\n  - ") || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "pool_capacity: [1, 2\n")
	_, err := Load(path, noEnv)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config") {
		t.Errorf("got %v", err)
	}
}

func TestEntryPath(t *testing.T) {
	cfg := Defaults()
	if got := cfg.EntryPath("game"); got != filepath.Join("game", "main.funky") {
		t.Errorf("EntryPath = %q", got)
	}
	cfg.Entry = filepath.Join(string(filepath.Separator), "abs", "x.funky")
	if got := cfg.EntryPath("game"); got != cfg.Entry {
		t.Errorf("absolute entry rewritten to %q", got)
	}
}
