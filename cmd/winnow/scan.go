package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/winnowhq/winnow/app"
	"github.com/winnowhq/winnow/domain"
	"github.com/winnowhq/winnow/internal/logging"
)

// Exit codes: findings are classification output, not errors, but CI needs
// to distinguish a clean run from one with findings and both from a crash.
const (
	exitCodeFindings = 1
	exitCodeError    = 2
)

// ScanExitError carries a specific exit code out of a scan command
type ScanExitError struct {
	Code    int
	Message string
}

func (e *ScanExitError) Error() string {
	return e.Message
}

func scanCmd() *cobra.Command {
	var (
		configPath        string
		format            string
		entryGlobs        []string
		projectGlobs      []string
		ignoreGlobs       []string
		excludeTypes      bool
		isolateWorkspaces bool
		noProgress        bool
		debug             bool
	)

	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Find unused files, exports, and dependencies",
		Long: `Build the module graph from the project's entry points and report unused
files, unused exports, unresolved imports, and dependency drift.

Exit codes:
  0  clean run, no findings
  1  findings reported
  2  the scan itself failed

Examples:
  # Scan the current directory
  winnow scan

  # Scan a specific project with JSON output
  winnow scan ./my-app --format json

  # Override entry points
  winnow scan --entry 'src/server.ts' --entry 'src/worker.ts'`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				logging.SetDebug(true)
			}

			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			override := domain.ScanRequest{
				Dir:                dir,
				EntryGlobs:         entryGlobs,
				ProjectGlobs:       projectGlobs,
				IgnoreGlobs:        ignoreGlobs,
				IncludeTypeImports: !excludeTypes,
				IsolateWorkspaces:  isolateWorkspaces,
				OutputFormat:       domain.OutputFormat(format),
				ConfigPath:         configPath,
			}

			useCase := app.NewDefaultScanUseCase(!noProgress)
			response, err := useCase.Execute(cmd.Context(), override)
			if err != nil {
				return &ScanExitError{Code: exitCodeError, Message: err.Error()}
			}

			if response.HasFindings() {
				return &ScanExitError{Code: exitCodeFindings}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVarP(&format, "format", "f", "", fmt.Sprintf("Output format (%s, %s)", domain.OutputFormatText, domain.OutputFormatJSON))
	cmd.Flags().StringArrayVar(&entryGlobs, "entry", nil, "Entry point glob (repeatable)")
	cmd.Flags().StringArrayVar(&projectGlobs, "project", nil, "Project file glob (repeatable)")
	cmd.Flags().StringArrayVar(&ignoreGlobs, "ignore", nil, "Ignore glob (repeatable, adds to config)")
	cmd.Flags().BoolVar(&excludeTypes, "exclude-type-imports", false, "Do not count type-only imports as usage")
	cmd.Flags().BoolVar(&isolateWorkspaces, "isolate-workspaces", false, "Judge each workspace's exports by its own imports only")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")

	return cmd
}
