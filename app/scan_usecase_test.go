package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/winnowhq/winnow/domain"
)

func writeScanProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestExecuteHonorsConfigAtTargetDirectory(t *testing.T) {
	// The project declares its own entry point; the test process runs far
	// from the project, so discovery must anchor at the scanned directory
	root := writeScanProject(t, map[string]string{
		".winnow.yaml": "entry:\n  - start.ts\n",
		"start.ts": `import { util } from './util';
util();
`,
		"util.ts":  `export function util() {}`,
		"index.ts": `export const stray = 1;`,
	})

	var out bytes.Buffer
	uc := NewDefaultScanUseCase(false)
	response, err := uc.Execute(context.Background(), domain.ScanRequest{
		Dir:                root,
		IncludeTypeImports: true,
		OutputFormat:       domain.OutputFormatJSON,
		OutputWriter:       &out,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// Under the project's config index.ts is an orphan; under the built-in
	// defaults it would be the entry and start.ts the orphan
	foundIndex := false
	for _, issue := range response.Issues {
		if issue.Kind != domain.IssueUnusedFile {
			continue
		}
		switch filepath.Base(issue.FilePath) {
		case "index.ts":
			foundIndex = true
		case "start.ts":
			t.Error("The configured entry must not be reported unused")
		}
	}
	if !foundIndex {
		t.Errorf("index.ts must be unused under the target's config, got %+v", response.Issues)
	}
}

func TestExecuteExplicitConfigPathWins(t *testing.T) {
	root := writeScanProject(t, map[string]string{
		".winnow.yaml": "entry:\n  - wrong.ts\n",
		"start.ts":     `export const s = 1;`,
		"wrong.ts":     `export const w = 1;`,
	})
	explicit := filepath.Join(t.TempDir(), "override.yaml")
	if err := os.WriteFile(explicit, []byte("entry:\n  - start.ts\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	uc := NewDefaultScanUseCase(false)
	response, err := uc.Execute(context.Background(), domain.ScanRequest{
		Dir:                root,
		ConfigPath:         explicit,
		IncludeTypeImports: true,
		OutputFormat:       domain.OutputFormatJSON,
		OutputWriter:       &out,
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	for _, issue := range response.Issues {
		if issue.Kind == domain.IssueUnusedFile && filepath.Base(issue.FilePath) == "start.ts" {
			t.Error("An explicit --config file must override discovery at the target")
		}
	}
}
