package domain

import (
	"context"
	"io"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// IssueKind classifies a single scan finding
type IssueKind string

const (
	// IssueUnusedFile is a project file unreachable from any entry path
	IssueUnusedFile IssueKind = "unused_file"

	// IssueUnusedExport is an exported symbol with no external reference
	IssueUnusedExport IssueKind = "unused_export"

	// IssueUnusedMember is a class/enum member with no reference anywhere
	IssueUnusedMember IssueKind = "unused_member"

	// IssueUnresolvedImport is a specifier that could not be resolved
	IssueUnresolvedImport IssueKind = "unresolved_import"

	// IssueUndeclaredDependency is a referenced package missing from the manifest
	IssueUndeclaredDependency IssueKind = "undeclared_dependency"

	// IssueUnusedDependency is a declared package never referenced
	IssueUnusedDependency IssueKind = "unused_dependency"
)

// Issue is a single finding. Findings are classification output, not errors.
type Issue struct {
	Kind     IssueKind      `json:"kind"`
	Symbol   string         `json:"symbol,omitempty"`
	FilePath string         `json:"file_path,omitempty"`
	Location SourceLocation `json:"location,omitempty"`
	Detail   string         `json:"detail,omitempty"`
}

// ScanRequest configures one analysis run
type ScanRequest struct {
	// Dir is the project root directory
	Dir string `json:"dir"`

	// EntryGlobs select entry-point files relative to Dir
	EntryGlobs []string `json:"entry_globs,omitempty"`

	// ProjectGlobs select candidate project files relative to Dir
	ProjectGlobs []string `json:"project_globs,omitempty"`

	// IgnoreGlobs exclude paths from the graph entirely
	IgnoreGlobs []string `json:"ignore_globs,omitempty"`

	// Aliases maps specifier prefixes to candidate directories (tsconfig paths)
	Aliases map[string][]string `json:"aliases,omitempty"`

	// IncludeTypeImports counts type-only imports as usage
	IncludeTypeImports bool `json:"include_type_imports"`

	// IsolateWorkspaces restricts export-usage queries to the owning
	// workspace instead of the union of all workspace programs
	IsolateWorkspaces bool `json:"isolate_workspaces"`

	// OutputFormat selects the reporter
	OutputFormat OutputFormat `json:"output_format"`

	// OutputWriter receives the report (defaults to stdout)
	OutputWriter io.Writer `json:"-"`

	// ConfigPath is the configuration file the request was loaded from
	ConfigPath string `json:"config_path,omitempty"`
}

// ScanSummary provides aggregate statistics for one run
type ScanSummary struct {
	TotalFiles        int `json:"total_files"`
	ReachableFiles    int `json:"reachable_files"`
	UnusedFiles       int `json:"unused_files"`
	UnusedExports     int `json:"unused_exports"`
	UnresolvedImports int `json:"unresolved_imports"`
	UndeclaredDeps    int `json:"undeclared_deps"`
	UnusedDeps        int `json:"unused_deps"`
	Workspaces        int `json:"workspaces"`
}

// ScanResponse is the complete result of one run
type ScanResponse struct {
	Issues  []Issue     `json:"issues"`
	Summary ScanSummary `json:"summary"`

	// Warnings are per-file recoverable problems (skipped transforms, parse
	// failures); surfaced alongside findings, never run-aborting
	Warnings []string `json:"warnings,omitempty"`

	GeneratedAt string `json:"generated_at"`
	Version     string `json:"version"`
}

// HasFindings reports whether the run produced any issues
func (r *ScanResponse) HasFindings() bool {
	return len(r.Issues) > 0
}

// ScanService defines the core business logic for one scan
type ScanService interface {
	Scan(ctx context.Context, req ScanRequest) (*ScanResponse, error)
}

// IgnorePredicate reports whether a path must be excluded from the graph.
// Consulted before adding any discovered path, including manifest-declared
// entry candidates.
type IgnorePredicate func(path string) bool

// OutputFormatter formats a scan response for human or machine consumption
type OutputFormatter interface {
	Write(response *ScanResponse, format OutputFormat, writer io.Writer) error
}

// ConfigurationLoader loads and merges scan configuration
type ConfigurationLoader interface {
	LoadConfig(path string) (*ScanRequest, error)
	LoadDefaultConfig() *ScanRequest

	// LoadConfigForTarget discovers configuration anchored at the scanned
	// directory, so a project's own config applies regardless of the
	// working directory
	LoadConfigForTarget(targetPath string) (*ScanRequest, error)

	MergeConfig(base *ScanRequest, override *ScanRequest) *ScanRequest
}
