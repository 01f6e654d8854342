package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked for in the working and script folders.
const FileName = "funky.yaml"

// Load reads configuration from a file with ENV interpolation.
// If configPath is empty, it searches default locations. A missing
// config file in a default location is not an error: Defaults() is returned.
func Load(configPath string, getenv func(string) string) (*Config, error) {
	cfg, _, err := LoadWithPath(configPath, "", getenv)
	return cfg, err
}

// LoadWithPath reads configuration and returns both the config and the
// resolved path. scriptDir, when set, is searched after the working directory.
// The path is empty when no file was found.
func LoadWithPath(configPath, scriptDir string, getenv func(string) string) (*Config, string, error) {
	path, err := resolveConfigPath(configPath, scriptDir, getenv)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		cfg := Defaults()
		if err := validate(cfg); err != nil {
			return nil, "", err
		}
		return cfg, "", nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	baseDir := filepath.Dir(absPath)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config: %w", err)
	}

	data = interpolateEnv(data, getenv)

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.BaseDir = baseDir

	if cfg.DiagnosticsFile() && cfg.Diagnostics != "" && !filepath.IsAbs(cfg.Diagnostics) {
		cfg.Diagnostics = filepath.Join(baseDir, cfg.Diagnostics)
	}
	if cfg.REPL.History != "" && !filepath.IsAbs(cfg.REPL.History) {
		cfg.REPL.History = filepath.Join(baseDir, cfg.REPL.History)
	}

	if err := validate(cfg); err != nil {
		return nil, "", err
	}
	return cfg, absPath, nil
}

// resolveConfigPath finds the config file to use.
// Search order: explicit path > FUNKY_CONFIG env > ./funky.yaml > <scriptDir>/funky.yaml
func resolveConfigPath(explicit, scriptDir string, getenv func(string) string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if envPath := getenv("FUNKY_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("FUNKY_CONFIG file not found: %s", envPath)
		}
		return envPath, nil
	}

	if _, err := os.Stat(FileName); err == nil {
		return FileName, nil
	}

	if scriptDir != "" {
		p := filepath.Join(scriptDir, FileName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// envPattern matches ${VAR} or ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// interpolateEnv replaces ${VAR} and ${VAR:-default} patterns with environment values.
func interpolateEnv(data []byte, getenv func(string) string) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		parts := envPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.Entry == "" {
		errs = append(errs, "entry is required")
	}
	if cfg.PoolCapacity < 1 {
		errs = append(errs, fmt.Sprintf("invalid pool_capacity: %d (must be at least 1)", cfg.PoolCapacity))
	}
	if cfg.MaxCallDepth < 1 {
		errs = append(errs, fmt.Sprintf("invalid max_call_depth: %d (must be at least 1)", cfg.MaxCallDepth))
	}
	if cfg.Diagnostics == "" {
		errs = append(errs, "diagnostics must be stderr, stdout or a file path")
	}
	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Sprintf("invalid watch.debounce: %s", cfg.Watch.Debounce))
	}
	for i, ext := range cfg.Watch.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Sprintf("watch.extensions[%d]: %q must start with '.'", i, ext))
		}
	}
	if cfg.Preprocess.MaxIncludeDepth < 1 {
		errs = append(errs, fmt.Sprintf("invalid preprocess.max_include_depth: %d (must be at least 1)", cfg.Preprocess.MaxIncludeDepth))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
