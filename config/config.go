package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config represents the complete funky configuration
type Config struct {
	BaseDir      string           `yaml:"-"`              // Directory containing the config file, for resolving relative paths
	Entry        string           `yaml:"entry"`          // Script loaded when a folder is run (default: "main.funky")
	PoolCapacity int              `yaml:"pool_capacity"`  // Slots per value type
	MaxCallDepth int              `yaml:"max_call_depth"` // Nested calls before RESOURCE-0001
	Diagnostics  string           `yaml:"diagnostics"`    // "stderr", "stdout" or a file path
	Watch        WatchConfig      `yaml:"watch"`
	REPL         REPLConfig       `yaml:"repl"`
	Preprocess   PreprocessConfig `yaml:"preprocess"`
}

// WatchConfig holds settings for re-running a folder on change
type WatchConfig struct {
	Debounce   time.Duration `yaml:"debounce"`   // Quiet period before a re-run
	Extensions []string      `yaml:"extensions"` // File extensions that trigger a re-run
}

// REPLConfig holds interactive loop settings
type REPLConfig struct {
	History string `yaml:"history"` // History file (default: $TMPDIR/.funky_history)
}

// PreprocessConfig holds preprocessor limits
type PreprocessConfig struct {
	MaxIncludeDepth int `yaml:"max_include_depth"`
}

// Diagnostic destinations other than a file path
const (
	DiagnosticsStderr = "stderr"
	DiagnosticsStdout = "stdout"
)

// Defaults returns a Config with sensible defaults
func Defaults() *Config {
	return &Config{
		Entry:        "main.funky",
		PoolCapacity: 1000,
		MaxCallDepth: 10000,
		Diagnostics:  DiagnosticsStderr,
		Watch: WatchConfig{
			Debounce:   100 * time.Millisecond,
			Extensions: []string{".funky"},
		},
		REPL: REPLConfig{
			History: filepath.Join(os.TempDir(), ".funky_history"),
		},
		Preprocess: PreprocessConfig{
			MaxIncludeDepth: 64,
		},
	}
}

// DiagnosticsFile reports whether diagnostics go to a file rather than a
// standard stream.
func (c *Config) DiagnosticsFile() bool {
	return c.Diagnostics != DiagnosticsStderr && c.Diagnostics != DiagnosticsStdout
}

// EntryPath returns the entry script inside folder.
func (c *Config) EntryPath(folder string) string {
	if filepath.IsAbs(c.Entry) {
		return c.Entry
	}
	return filepath.Join(folder, c.Entry)
}
