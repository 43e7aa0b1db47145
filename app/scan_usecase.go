package app

import (
	"context"
	"fmt"
	"os"

	"github.com/winnowhq/winnow/domain"
	"github.com/winnowhq/winnow/internal/config"
	"github.com/winnowhq/winnow/service"
)

// ScanUseCase wires configuration loading, the scan service, and output
// formatting into one CLI-facing operation
type ScanUseCase struct {
	loader    domain.ConfigurationLoader
	formatter domain.OutputFormatter
	progress  domain.ProgressManager
}

// NewScanUseCase creates a use case with explicit collaborators
func NewScanUseCase(loader domain.ConfigurationLoader, formatter domain.OutputFormatter, progress domain.ProgressManager) *ScanUseCase {
	return &ScanUseCase{
		loader:    loader,
		formatter: formatter,
		progress:  progress,
	}
}

// NewDefaultScanUseCase creates a use case with the standard wiring
func NewDefaultScanUseCase(showProgress bool) *ScanUseCase {
	return NewScanUseCase(
		service.NewConfigurationLoader(),
		service.NewOutputFormatter(),
		service.NewProgressManager(showProgress),
	)
}

// Execute runs one scan: merge configuration, scan, format. It returns the
// response so the caller can decide the exit code from the findings.
func (uc *ScanUseCase) Execute(ctx context.Context, override domain.ScanRequest) (*domain.ScanResponse, error) {
	defer uc.progress.Close()

	dir := override.Dir
	if dir == "" {
		dir = "."
	}

	// One discovery, anchored at the scanned directory: globs, aliases, and
	// workspace overrides all come from the same config file
	var base *domain.ScanRequest
	var err error
	if override.ConfigPath != "" {
		base, err = uc.loader.LoadConfig(override.ConfigPath)
	} else {
		base, err = uc.loader.LoadConfigForTarget(dir)
	}
	if err != nil {
		return nil, err
	}
	req := uc.loader.MergeConfig(base, &override)

	if req.Dir == "" {
		req.Dir = dir
	}

	cfg, err := config.LoadConfigWithTarget(req.ConfigPath, req.Dir)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration", err)
	}

	svc := service.NewScanService(service.ScanServiceOptions{
		Collector:          NewFileHelper(),
		Progress:           uc.progress,
		Performance:        &cfg.Performance,
		WorkspaceOverrides: cfg.Workspaces,
	})

	response, err := svc.Scan(ctx, *req)
	if err != nil {
		return nil, err
	}

	writer := req.OutputWriter
	if writer == nil {
		writer = os.Stdout
	}
	format := req.OutputFormat
	if format == "" {
		format = domain.OutputFormatText
	}
	if err := uc.formatter.Write(response, format, writer); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	return response, nil
}
