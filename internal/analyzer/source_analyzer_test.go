package analyzer

import (
	"testing"

	"github.com/winnowhq/winnow/domain"
	"github.com/winnowhq/winnow/internal/parser"
)

// stubResolve answers resolution queries from a fixed table; anything not
// listed fails
func stubResolve(table map[string]domain.ResolvedModule) ResolveHook {
	return func(specifier string) domain.ResolvedModule {
		if resolved, ok := table[specifier]; ok {
			return resolved
		}
		return domain.ResolvedModule{Status: domain.ResolutionFailed}
	}
}

func analyzeSource(t *testing.T, code string, table map[string]domain.ResolvedModule) *domain.FileAnalysis {
	t.Helper()

	p := parser.NewTypeScriptParser()
	defer p.Close()

	ast, err := p.ParseFile("/proj/src/subject.ts", []byte(code))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	return NewSourceAnalyzer().Analyze(ast, "/proj/src/subject.ts", []byte(code), stubResolve(table))
}

func TestAnalyzeImportCategories(t *testing.T) {
	code := `
import { helper } from './util';
import express from 'express';
import { join } from 'node:path';
import missing from './gone';
import './theme.css';
`
	analysis := analyzeSource(t, code, map[string]domain.ResolvedModule{
		"./util":      {Status: domain.ResolutionInternal, Path: "/proj/src/util.ts", Ext: ".ts"},
		"express":     {Status: domain.ResolutionExternal, Path: "express"},
		"node:path":   {Status: domain.ResolutionBuiltin, Path: "node:path"},
		"./theme.css": {Status: domain.ResolutionIgnored},
	})

	if len(analysis.Internal) != 1 || analysis.Internal[0].Path != "/proj/src/util.ts" {
		t.Errorf("Expected one internal edge to util.ts, got %+v", analysis.Internal)
	}
	if len(analysis.Internal[0].Names) != 1 || analysis.Internal[0].Names[0] != "helper" {
		t.Errorf("Expected imported name 'helper', got %v", analysis.Internal[0].Names)
	}
	if len(analysis.External) != 1 || analysis.External[0] != "express" {
		t.Errorf("Expected external [express], got %v", analysis.External)
	}
	if len(analysis.Unresolved) != 1 || analysis.Unresolved[0].Specifier != "./gone" {
		t.Errorf("Expected unresolved [./gone], got %+v", analysis.Unresolved)
	}
}

func TestAnalyzeNamespaceAndSideEffectEdges(t *testing.T) {
	code := `
import * as util from './util';
import './setup';
`
	analysis := analyzeSource(t, code, map[string]domain.ResolvedModule{
		"./util":  {Status: domain.ResolutionInternal, Path: "/proj/src/util.ts"},
		"./setup": {Status: domain.ResolutionInternal, Path: "/proj/src/setup.ts"},
	})

	if len(analysis.Internal) != 2 {
		t.Fatalf("Expected 2 internal edges, got %d", len(analysis.Internal))
	}
	if !analysis.Internal[0].Namespace {
		t.Error("Namespace import must set Namespace")
	}
	if !analysis.Internal[1].SideEffect {
		t.Error("Side-effect import must set SideEffect")
	}
}

func TestAnalyzeDynamicAndRequireImports(t *testing.T) {
	code := `
const lazy = await import('./lazy');
const legacy = require('./legacy');
const unknowable = await import(modulePath);
`
	analysis := analyzeSource(t, code, map[string]domain.ResolvedModule{
		"./lazy":   {Status: domain.ResolutionInternal, Path: "/proj/src/lazy.ts"},
		"./legacy": {Status: domain.ResolutionInternal, Path: "/proj/src/legacy.ts"},
	})

	if len(analysis.Internal) != 2 {
		t.Fatalf("Expected 2 internal edges, got %+v", analysis.Internal)
	}
	for _, edge := range analysis.Internal {
		if !edge.SideEffect {
			t.Errorf("Dynamic/require edges bind no names, expected SideEffect: %+v", edge)
		}
	}
}

func TestAnalyzeTypeOnlyImport(t *testing.T) {
	code := `import type { Config } from './config';`
	analysis := analyzeSource(t, code, map[string]domain.ResolvedModule{
		"./config": {Status: domain.ResolutionInternal, Path: "/proj/src/config.ts"},
	})

	if len(analysis.Internal) != 1 || !analysis.Internal[0].IsTypeOnly {
		t.Errorf("Expected type-only internal edge, got %+v", analysis.Internal)
	}
}

func TestAnalyzeExportDeclarations(t *testing.T) {
	code := `
export function run() {}
export const VERSION = '1.0', BUILD = 7;
export default class App {
	start() {}
	stop() {}
}
`
	analysis := analyzeSource(t, code, nil)

	for _, name := range []string{"run", "VERSION", "BUILD", "default"} {
		if analysis.Exports[name] == nil {
			t.Errorf("Expected export %q, have %v", name, exportNames(analysis))
		}
	}

	def := analysis.Exports["default"]
	if def == nil || def.Kind != domain.ExportKindDefault {
		t.Fatalf("Expected default export, got %+v", def)
	}
	if len(def.Members) != 2 {
		t.Errorf("Expected class members [start stop], got %v", def.Members)
	}
}

func TestAnalyzeExportClauseRename(t *testing.T) {
	code := `
const internal = 1;
export { internal as external };
`
	analysis := analyzeSource(t, code, nil)

	if analysis.Exports["external"] == nil {
		t.Errorf("Expected export 'external', have %v", exportNames(analysis))
	}
	if analysis.Exports["internal"] != nil {
		t.Error("Local name must not be exported")
	}
}

func TestAnalyzeReExports(t *testing.T) {
	code := `
export { helper } from './util';
export * from './all';
export * as tools from './tools';
`
	analysis := analyzeSource(t, code, map[string]domain.ResolvedModule{
		"./util":  {Status: domain.ResolutionInternal, Path: "/proj/src/util.ts"},
		"./all":   {Status: domain.ResolutionInternal, Path: "/proj/src/all.ts"},
		"./tools": {Status: domain.ResolutionInternal, Path: "/proj/src/tools.ts"},
	})

	if len(analysis.Internal) != 3 {
		t.Fatalf("Expected 3 re-export edges, got %d", len(analysis.Internal))
	}
	for _, edge := range analysis.Internal {
		if !edge.IsReExport {
			t.Errorf("Expected re-export edge, got %+v", edge)
		}
	}

	helper := analysis.Exports["helper"]
	if helper == nil || !helper.IsReExport || helper.Source != "./util" {
		t.Errorf("Expected re-exported 'helper', got %+v", helper)
	}
	tools := analysis.Exports["tools"]
	if tools == nil || tools.Kind != domain.ExportKindNamespace {
		t.Errorf("Expected namespace export 'tools', got %+v", tools)
	}
	// A bare export * forwards without naming anything locally
	if len(analysis.Exports) != 2 {
		t.Errorf("Expected exactly 2 named exports, have %v", exportNames(analysis))
	}
}

func TestAnalyzeExportTags(t *testing.T) {
	code := `
/**
 * Part of the published API surface.
 * @public
 */
export function api() {}

// @internal
export function detail() {}

export function plain() {}
`
	analysis := analyzeSource(t, code, nil)

	api := analysis.Exports["api"]
	if api == nil || !api.HasTag(domain.TagPublic) {
		t.Errorf("Expected @public tag on api, got %+v", api)
	}
	detail := analysis.Exports["detail"]
	if detail == nil || !detail.HasTag("internal") {
		t.Errorf("Expected @internal tag on detail, got %+v", detail)
	}
	plain := analysis.Exports["plain"]
	if plain == nil || len(plain.Tags) != 0 {
		t.Errorf("Expected no tags on plain, got %+v", plain)
	}
}

func TestAnalyzeCommonJSExports(t *testing.T) {
	code := `
exports.run = function () {};
module.exports = { run };
`
	analysis := analyzeSource(t, code, nil)

	if analysis.Exports["run"] == nil {
		t.Errorf("Expected exports.run recorded, have %v", exportNames(analysis))
	}
	def := analysis.Exports["default"]
	if def == nil || def.Declaration != "module.exports" {
		t.Errorf("Expected module.exports as default, got %+v", def)
	}
}

func TestAnalyzeShellFragments(t *testing.T) {
	code := "import { $ } from 'execa';\n" +
		"await $`node scripts/build.js`;\n" +
		"await $`node ${dynamic}`;\n"

	analysis := analyzeSource(t, code, map[string]domain.ResolvedModule{
		"execa": {Status: domain.ResolutionExternal, Path: "execa"},
	})

	if len(analysis.Scripts) != 1 {
		t.Fatalf("Expected 1 script fragment, got %+v", analysis.Scripts)
	}
	fragment := analysis.Scripts[0]
	if fragment.Command != "node scripts/build.js" {
		t.Errorf("Unexpected command: %q", fragment.Command)
	}
	if fragment.Helper != "$" {
		t.Errorf("Unexpected helper: %q", fragment.Helper)
	}
}

func TestAnalyzeShellFragmentRequiresHelperImport(t *testing.T) {
	// $ is someone's local function here, not a shell helper
	code := "const $ = (s) => s;\nawait $`node scripts/build.js`;\n"

	analysis := analyzeSource(t, code, nil)
	if len(analysis.Scripts) != 0 {
		t.Errorf("Expected no script fragments, got %+v", analysis.Scripts)
	}
}

func TestAnalyzeIdentifierCollection(t *testing.T) {
	code := `
import { helper } from './util';
export function run() {
	return helper(compute());
}
`
	analysis := analyzeSource(t, code, map[string]domain.ResolvedModule{
		"./util": {Status: domain.ResolutionInternal, Path: "/proj/src/util.ts"},
	})

	if !analysis.Identifiers["helper"] {
		t.Error("helper is referenced in the body and must be recorded")
	}
	if !analysis.Identifiers["compute"] {
		t.Error("compute is referenced and must be recorded")
	}
}

func TestAnalyzeNilAST(t *testing.T) {
	analysis := NewSourceAnalyzer().Analyze(nil, "/proj/src/empty.ts", nil, stubResolve(nil))
	if analysis == nil || analysis.FilePath != "/proj/src/empty.ts" {
		t.Fatalf("Expected empty analysis, got %+v", analysis)
	}
}

func exportNames(analysis *domain.FileAnalysis) []string {
	names := make([]string, 0, len(analysis.Exports))
	for name := range analysis.Exports {
		names = append(names, name)
	}
	return names
}
