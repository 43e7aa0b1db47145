package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default analysis settings
const (
	// DefaultMaxGoroutines bounds the async compile pass and workspace
	// fan-out when the config gives no value
	DefaultMaxGoroutines = 4

	// DefaultTimeoutSeconds bounds one whole run
	DefaultTimeoutSeconds = 300
)

// Config represents the main configuration structure
type Config struct {
	// Entry are glob patterns selecting program roots, relative to the
	// project directory
	Entry []string `json:"entry" mapstructure:"entry" yaml:"entry"`

	// Project are glob patterns selecting candidate project files
	Project []string `json:"project" mapstructure:"project" yaml:"project"`

	// Ignore are glob patterns excluded from the graph entirely
	Ignore []string `json:"ignore" mapstructure:"ignore" yaml:"ignore"`

	// Paths maps specifier patterns to candidate targets, mirroring
	// tsconfig path mappings
	Paths map[string][]string `json:"paths,omitempty" mapstructure:"paths" yaml:"paths,omitempty"`

	// IncludeTypeImports counts TypeScript type-only imports as usage
	IncludeTypeImports bool `json:"includeTypeImports" mapstructure:"include_type_imports" yaml:"include_type_imports"`

	// IsolateWorkspaces restricts export-usage queries to the owning
	// workspace instead of the union of all workspace programs
	IsolateWorkspaces bool `json:"isolateWorkspaces" mapstructure:"isolate_workspaces" yaml:"isolate_workspaces"`

	// Workspaces overrides entry/project/ignore per workspace directory
	Workspaces map[string]WorkspaceConfig `json:"workspaces,omitempty" mapstructure:"workspaces" yaml:"workspaces,omitempty"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Performance holds concurrency and timeout configuration
	Performance PerformanceConfig `json:"performance" mapstructure:"performance" yaml:"performance"`
}

// WorkspaceConfig overrides scan globs for one workspace in a monorepo
type WorkspaceConfig struct {
	Entry   []string `json:"entry,omitempty" mapstructure:"entry" yaml:"entry,omitempty"`
	Project []string `json:"project,omitempty" mapstructure:"project" yaml:"project,omitempty"`
	Ignore  []string `json:"ignore,omitempty" mapstructure:"ignore" yaml:"ignore,omitempty"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: text, json
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// ShowProgress renders a progress bar on interactive terminals
	ShowProgress bool `json:"show_progress" mapstructure:"show_progress" yaml:"show_progress"`
}

// PerformanceConfig holds concurrency and timeout settings
type PerformanceConfig struct {
	// MaxGoroutines bounds parallel work (compile pass, workspaces)
	MaxGoroutines int `json:"max_goroutines" mapstructure:"max_goroutines" yaml:"max_goroutines"`

	// TimeoutSeconds bounds one whole run; 0 means no timeout
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// sourceExtGroup is the brace expansion used in default globs
const sourceExtGroup = "{js,mjs,cjs,jsx,ts,mts,cts,tsx}"

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Entry: []string{
			"index." + sourceExtGroup,
			"src/index." + sourceExtGroup,
			"main." + sourceExtGroup,
			"src/main." + sourceExtGroup,
			"cli." + sourceExtGroup,
			"src/cli." + sourceExtGroup,
		},
		Project: []string{
			"**/*." + sourceExtGroup,
			"**/*.{vue,svelte,astro,mdx}",
		},
		Ignore: []string{
			"**/node_modules/**",
			"**/dist/**",
			"**/build/**",
			"**/coverage/**",
			"**/*.min.js",
			"**/*.bundle.js",
		},
		IncludeTypeImports: true,
		Output: OutputConfig{
			Format:       "text",
			ShowProgress: true,
		},
		Performance: PerformanceConfig{
			MaxGoroutines:  DefaultMaxGoroutines,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
	}
}

// Validate checks the configuration for contradictions
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json", c.Output.Format)
	}

	if c.Performance.MaxGoroutines < 0 {
		return fmt.Errorf("performance.max_goroutines must be >= 0, got %d", c.Performance.MaxGoroutines)
	}
	if c.Performance.TimeoutSeconds < 0 {
		return fmt.Errorf("performance.timeout_seconds must be >= 0, got %d", c.Performance.TimeoutSeconds)
	}

	if len(c.Entry) == 0 {
		return fmt.Errorf("entry must list at least one glob")
	}

	return nil
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration with target path context:
// when no path is given, discovery walks up from the target directory.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// loadConfigFromFile reads and parses a configuration file
func loadConfigFromFile(configPath string) (*Config, error) {
	if configPath == "" {
		return DefaultConfig(), nil
	}

	// A fresh viper instance per load avoids cross-run state
	v := viper.New()
	config := DefaultConfig()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to a YAML file, keeping the field order
// of the struct
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// configFileCandidates are searched in order during discovery
var configFileCandidates = []string{
	"winnow.yaml",
	"winnow.yml",
	".winnow.yaml",
	".winnow.yml",
	"winnow.json",
	".winnow.json",
}

// searchConfigInDirectory searches for configuration files in a directory
func searchConfigInDirectory(dir string) string {
	for _, candidate := range configFileCandidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findDefaultConfig looks for configuration files starting at the analyzed
// path and walking up, then in the standard config locations
func findDefaultConfig(targetPath string) string {
	if targetPath != "" {
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			info, err := os.Stat(absPath)
			if err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir); config != "" {
					return config
				}
				if parent := filepath.Dir(dir); parent == dir {
					break
				}
			}
		}
	}

	if config := searchConfigInDirectory("."); config != "" {
		return config
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, "winnow")); config != "" {
			return config
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		if config := searchConfigInDirectory(filepath.Join(home, ".config", "winnow")); config != "" {
			return config
		}
	}

	return ""
}
