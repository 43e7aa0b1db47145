package service

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/winnowhq/winnow/domain"
)

func sampleResponse() *domain.ScanResponse {
	return &domain.ScanResponse{
		Issues: []domain.Issue{
			{Kind: domain.IssueUnusedFile, FilePath: "src/orphan.ts"},
			{Kind: domain.IssueUnusedExport, Symbol: "spare", FilePath: "src/util.ts",
				Location: domain.SourceLocation{StartLine: 12}},
			{Kind: domain.IssueUnresolvedImport, Symbol: "./missing", FilePath: "src/index.ts",
				Location: domain.SourceLocation{StartLine: 3}},
			{Kind: domain.IssueUndeclaredDependency, Symbol: "lodash", FilePath: "src/index.ts"},
		},
		Summary: domain.ScanSummary{
			TotalFiles:        4,
			ReachableFiles:    3,
			UnusedFiles:       1,
			UnusedExports:     1,
			UnresolvedImports: 1,
			UndeclaredDeps:    1,
		},
		Warnings:    []string{"skipped src/broken.vue: transform failed"},
		GeneratedAt: "2026-01-01T00:00:00Z",
		Version:     "test",
	}
}

func TestTextOutputGroupsByKind(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewOutputFormatter()

	if err := formatter.Write(sampleResponse(), domain.OutputFormatText, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Unused files (1)",
		"src/orphan.ts",
		"Unused exports (1)",
		"spare  src/util.ts:12",
		"Unresolved imports (1)",
		"./missing  src/index.ts:3",
		"Undeclared dependencies (1)",
		"lodash  src/index.ts",
		"Warnings (1)",
		"Summary:",
		"Files analyzed: 4",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("Output missing %q:\n%s", want, output)
		}
	}

	// Section order must be stable
	files := strings.Index(output, "Unused files")
	exports := strings.Index(output, "Unused exports")
	unresolved := strings.Index(output, "Unresolved imports")
	if !(files < exports && exports < unresolved) {
		t.Error("Sections must appear in the fixed kind order")
	}
}

func TestTextOutputCleanRun(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewOutputFormatter()
	response := &domain.ScanResponse{
		Summary: domain.ScanSummary{TotalFiles: 2, ReachableFiles: 2},
	}

	if err := formatter.Write(response, domain.OutputFormatText, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No issues found.") {
		t.Errorf("Clean run must say so:\n%s", buf.String())
	}
}

func TestJSONOutputRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewOutputFormatter()

	if err := formatter.Write(sampleResponse(), domain.OutputFormatJSON, &buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded domain.ScanResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("JSON output must parse: %v", err)
	}
	if len(decoded.Issues) != 4 {
		t.Errorf("Expected 4 issues, got %d", len(decoded.Issues))
	}
	if decoded.Summary.UnusedFiles != 1 {
		t.Errorf("Summary lost in JSON: %+v", decoded.Summary)
	}
	if decoded.Issues[0].Kind != domain.IssueUnusedFile {
		t.Errorf("Issue kind lost: %s", decoded.Issues[0].Kind)
	}
}

func TestUnsupportedFormatErrors(t *testing.T) {
	var buf bytes.Buffer
	formatter := NewOutputFormatter()
	if err := formatter.Write(sampleResponse(), domain.OutputFormat("csv"), &buf); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
