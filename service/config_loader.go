package service

import (
	"github.com/winnowhq/winnow/domain"
	"github.com/winnowhq/winnow/internal/config"
)

// ConfigurationLoaderImpl implements the ConfigurationLoader interface
type ConfigurationLoaderImpl struct{}

// NewConfigurationLoader creates a new configuration loader service
func NewConfigurationLoader() *ConfigurationLoaderImpl {
	return &ConfigurationLoaderImpl{}
}

// LoadConfig loads configuration from the specified path
func (c *ConfigurationLoaderImpl) LoadConfig(path string) (*domain.ScanRequest, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}
	req := c.convertToScanRequest(cfg)
	req.ConfigPath = path
	return req, nil
}

// LoadDefaultConfig loads configuration through discovery, falling back to
// the hardcoded defaults when nothing is found
func (c *ConfigurationLoaderImpl) LoadDefaultConfig() *domain.ScanRequest {
	cfg, err := config.LoadConfigWithTarget("", "")
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return c.convertToScanRequest(cfg)
}

// LoadConfigForTarget discovers configuration starting from the analyzed
// directory and walking up
func (c *ConfigurationLoaderImpl) LoadConfigForTarget(targetPath string) (*domain.ScanRequest, error) {
	cfg, err := config.LoadConfigWithTarget("", targetPath)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration file", err)
	}
	return c.convertToScanRequest(cfg), nil
}

// MergeConfig merges CLI flags over a loaded configuration. Zero values in
// the override keep the base value.
func (c *ConfigurationLoaderImpl) MergeConfig(base *domain.ScanRequest, override *domain.ScanRequest) *domain.ScanRequest {
	merged := *base

	// The target directory always comes from command arguments
	if override.Dir != "" {
		merged.Dir = override.Dir
	}

	if len(override.EntryGlobs) > 0 {
		merged.EntryGlobs = override.EntryGlobs
	}
	if len(override.ProjectGlobs) > 0 {
		merged.ProjectGlobs = override.ProjectGlobs
	}
	if len(override.IgnoreGlobs) > 0 {
		merged.IgnoreGlobs = append(merged.IgnoreGlobs, override.IgnoreGlobs...)
	}
	if len(override.Aliases) > 0 {
		merged.Aliases = override.Aliases
	}

	if override.OutputFormat != "" {
		merged.OutputFormat = override.OutputFormat
	}
	if override.OutputWriter != nil {
		merged.OutputWriter = override.OutputWriter
	}
	if override.ConfigPath != "" {
		merged.ConfigPath = override.ConfigPath
	}

	// Boolean flags only move in one direction from the defaults: type
	// imports count unless excluded, workspaces share unless isolated
	if !override.IncludeTypeImports {
		merged.IncludeTypeImports = false
	}
	if override.IsolateWorkspaces {
		merged.IsolateWorkspaces = true
	}

	return &merged
}

// convertToScanRequest converts a Config to a ScanRequest
func (c *ConfigurationLoaderImpl) convertToScanRequest(cfg *config.Config) *domain.ScanRequest {
	return &domain.ScanRequest{
		EntryGlobs:         cfg.Entry,
		ProjectGlobs:       cfg.Project,
		IgnoreGlobs:        cfg.Ignore,
		Aliases:            cfg.Paths,
		IncludeTypeImports: cfg.IncludeTypeImports,
		IsolateWorkspaces:  cfg.IsolateWorkspaces,
		OutputFormat:       domain.OutputFormat(cfg.Output.Format),
	}
}
