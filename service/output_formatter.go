package service

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/winnowhq/winnow/domain"
)

// OutputFormatterImpl implements the OutputFormatter interface
type OutputFormatterImpl struct{}

// NewOutputFormatter creates a new output formatter
func NewOutputFormatter() *OutputFormatterImpl {
	return &OutputFormatterImpl{}
}

// WriteJSON writes data as indented JSON to the writer
func WriteJSON(writer io.Writer, data interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Write writes the scan response in the specified format
func (f *OutputFormatterImpl) Write(response *domain.ScanResponse, format domain.OutputFormat, writer io.Writer) error {
	switch format {
	case domain.OutputFormatJSON:
		return WriteJSON(writer, response)
	case domain.OutputFormatText:
		return f.writeText(response, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// issueKindOrder fixes the section order of the text report
var issueKindOrder = []domain.IssueKind{
	domain.IssueUnusedFile,
	domain.IssueUnusedExport,
	domain.IssueUnusedMember,
	domain.IssueUnresolvedImport,
	domain.IssueUndeclaredDependency,
	domain.IssueUnusedDependency,
}

func issueKindHeading(kind domain.IssueKind) string {
	switch kind {
	case domain.IssueUnusedFile:
		return "Unused files"
	case domain.IssueUnusedExport:
		return "Unused exports"
	case domain.IssueUnusedMember:
		return "Unused class members"
	case domain.IssueUnresolvedImport:
		return "Unresolved imports"
	case domain.IssueUndeclaredDependency:
		return "Undeclared dependencies"
	case domain.IssueUnusedDependency:
		return "Unused dependencies"
	default:
		return string(kind)
	}
}

// writeText writes the scan response as plain text grouped by issue kind
func (f *OutputFormatterImpl) writeText(response *domain.ScanResponse, writer io.Writer) error {
	byKind := make(map[domain.IssueKind][]domain.Issue)
	for _, issue := range response.Issues {
		byKind[issue.Kind] = append(byKind[issue.Kind], issue)
	}

	for _, kind := range issueKindOrder {
		issues := byKind[kind]
		if len(issues) == 0 {
			continue
		}
		sort.Slice(issues, func(i, j int) bool {
			if issues[i].FilePath != issues[j].FilePath {
				return issues[i].FilePath < issues[j].FilePath
			}
			return issues[i].Symbol < issues[j].Symbol
		})

		fmt.Fprintf(writer, "%s (%d)\n", issueKindHeading(kind), len(issues))
		for _, issue := range issues {
			fmt.Fprintf(writer, "  %s\n", formatIssueLine(issue))
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(response.Warnings) > 0 {
		fmt.Fprintf(writer, "Warnings (%d)\n", len(response.Warnings))
		for _, w := range response.Warnings {
			fmt.Fprintf(writer, "  - %s\n", w)
		}
		fmt.Fprintf(writer, "\n")
	}

	s := response.Summary
	fmt.Fprintf(writer, "Summary:\n")
	fmt.Fprintf(writer, "  Files analyzed: %d\n", s.TotalFiles)
	fmt.Fprintf(writer, "  Reachable files: %d\n", s.ReachableFiles)
	fmt.Fprintf(writer, "  Unused files: %d\n", s.UnusedFiles)
	fmt.Fprintf(writer, "  Unused exports: %d\n", s.UnusedExports)
	fmt.Fprintf(writer, "  Unresolved imports: %d\n", s.UnresolvedImports)
	fmt.Fprintf(writer, "  Undeclared dependencies: %d\n", s.UndeclaredDeps)
	fmt.Fprintf(writer, "  Unused dependencies: %d\n", s.UnusedDeps)
	if s.Workspaces > 1 {
		fmt.Fprintf(writer, "  Workspaces: %d\n", s.Workspaces)
	}

	if !response.HasFindings() {
		fmt.Fprintf(writer, "\nNo issues found.\n")
	}

	return nil
}

// formatIssueLine renders one finding on one line
func formatIssueLine(issue domain.Issue) string {
	location := issue.FilePath
	if issue.Location.StartLine > 0 {
		location = fmt.Sprintf("%s:%d", issue.FilePath, issue.Location.StartLine)
	}

	switch issue.Kind {
	case domain.IssueUnusedFile:
		return issue.FilePath
	case domain.IssueUnusedExport, domain.IssueUnusedMember:
		return fmt.Sprintf("%s  %s", issue.Symbol, location)
	case domain.IssueUnresolvedImport:
		return fmt.Sprintf("%s  %s", issue.Symbol, location)
	case domain.IssueUndeclaredDependency, domain.IssueUnusedDependency:
		if issue.FilePath != "" {
			return fmt.Sprintf("%s  %s", issue.Symbol, issue.FilePath)
		}
		return issue.Symbol
	default:
		if issue.Detail != "" {
			return fmt.Sprintf("%s  %s", issue.Symbol, issue.Detail)
		}
		return issue.Symbol
	}
}
