package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/winnowhq/winnow/domain"
	"github.com/winnowhq/winnow/internal/analyzer"
	"github.com/winnowhq/winnow/internal/config"
	"github.com/winnowhq/winnow/internal/constants"
	"github.com/winnowhq/winnow/internal/graph"
	"github.com/winnowhq/winnow/internal/logging"
	"github.com/winnowhq/winnow/internal/resolver"
	"github.com/winnowhq/winnow/internal/version"
	"github.com/winnowhq/winnow/internal/vfs"
)

// FileCollector matches configured globs against a project tree. Implemented
// by app.FileHelper; abstracted so the service can be tested against it.
type FileCollector interface {
	CollectFiles(root string, globs []string, ignore domain.IgnorePredicate) ([]string, error)
	BuildIgnorePredicate(root string, globs []string) domain.IgnorePredicate
	FileExists(path string) bool
}

// ScanServiceOptions wires a ScanServiceImpl
type ScanServiceOptions struct {
	Collector FileCollector
	Progress  domain.ProgressManager

	// Performance bounds workspace fan-out and the run deadline
	Performance *config.PerformanceConfig

	// WorkspaceOverrides replaces scan globs per workspace-relative path
	WorkspaceOverrides map[string]config.WorkspaceConfig
}

// ScanServiceImpl implements domain.ScanService: it discovers workspaces,
// drives one module graph per workspace, and classifies the results into
// findings.
type ScanServiceImpl struct {
	opts ScanServiceOptions
	log  *logrus.Entry
}

// NewScanService creates the scan service
func NewScanService(opts ScanServiceOptions) *ScanServiceImpl {
	if opts.Performance == nil {
		opts.Performance = &config.PerformanceConfig{
			MaxGoroutines:  config.DefaultMaxGoroutines,
			TimeoutSeconds: config.DefaultTimeoutSeconds,
		}
	}
	return &ScanServiceImpl{
		opts: opts,
		log:  logging.Scope("scan"),
	}
}

// workspaceResult is one workspace's finished graph plus its manifest
type workspaceResult struct {
	name     string
	root     string
	manifest *resolver.Manifest
	driver   *graph.Driver
	graph    *domain.ProjectGraph
	warnings []string
}

// workspaceScanTask runs one workspace scan under the parallel executor
type workspaceScanTask struct {
	service *ScanServiceImpl
	req     domain.ScanRequest
	result  *workspaceResult
}

func (t *workspaceScanTask) Name() string    { return t.result.name }
func (t *workspaceScanTask) IsEnabled() bool { return true }

func (t *workspaceScanTask) Execute(ctx context.Context) (interface{}, error) {
	err := t.service.scanWorkspace(ctx, t.req, t.result)
	return t.result, err
}

// Scan runs the complete analysis for one request
func (s *ScanServiceImpl) Scan(ctx context.Context, req domain.ScanRequest) (*domain.ScanResponse, error) {
	dir, err := filepath.Abs(req.Dir)
	if err != nil {
		return nil, domain.NewConfigError("invalid project directory", err)
	}
	if info, statErr := os.Stat(dir); statErr != nil || !info.IsDir() {
		return nil, domain.NewConfigError(fmt.Sprintf("project directory %s does not exist", dir), statErr)
	}
	req.Dir = dir

	results, err := s.scanWorkspaces(ctx, req)
	if err != nil {
		return nil, err
	}

	response := s.classify(req, results)
	return response, nil
}

// scanWorkspaces discovers workspace roots and runs one graph per root, in
// parallel for monorepos
func (s *ScanServiceImpl) scanWorkspaces(ctx context.Context, req domain.ScanRequest) ([]*workspaceResult, error) {
	roots := s.discoverWorkspaceRoots(req.Dir)

	results := make([]*workspaceResult, 0, len(roots))
	tasks := make([]domain.ExecutableTask, 0, len(roots))
	for _, root := range roots {
		name, wsReq := s.workspaceRequest(req, root)
		result := &workspaceResult{name: name, root: root}
		results = append(results, result)
		tasks = append(tasks, &workspaceScanTask{service: s, req: wsReq, result: result})
	}

	if len(tasks) == 1 {
		// A single workspace gains nothing from the executor machinery
		if err := s.scanWorkspace(ctx, req, results[0]); err != nil {
			return nil, err
		}
		return results, nil
	}

	executor := NewParallelExecutorWithProgress(s.opts.Performance, s.opts.Progress)
	if err := executor.Execute(ctx, tasks); err != nil {
		return nil, err
	}
	return results, nil
}

// discoverWorkspaceRoots expands the root manifest's workspace globs into
// directories that carry their own manifest. The project root itself is
// always a workspace.
func (s *ScanServiceImpl) discoverWorkspaceRoots(dir string) []string {
	roots := []string{dir}

	manifest, err := resolver.LoadManifest(filepath.Join(dir, constants.ManifestFileName))
	if err != nil {
		return roots
	}

	for _, glob := range manifest.WorkspaceGlobs() {
		matches, err := filepath.Glob(filepath.Join(dir, filepath.FromSlash(glob)))
		if err != nil {
			continue
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(match, constants.ManifestFileName)); err != nil {
				continue
			}
			roots = append(roots, match)
		}
	}

	sort.Strings(roots[1:])
	return roots
}

// workspaceRequest derives the effective request for one workspace root,
// applying per-workspace glob overrides
func (s *ScanServiceImpl) workspaceRequest(req domain.ScanRequest, root string) (string, domain.ScanRequest) {
	name := ""
	if root != req.Dir {
		if rel, err := filepath.Rel(req.Dir, root); err == nil {
			name = filepath.ToSlash(rel)
		}
	}

	wsReq := req
	wsReq.Dir = root
	if override, ok := s.opts.WorkspaceOverrides[name]; ok && name != "" {
		if len(override.Entry) > 0 {
			wsReq.EntryGlobs = override.Entry
		}
		if len(override.Project) > 0 {
			wsReq.ProjectGlobs = override.Project
		}
		if len(override.Ignore) > 0 {
			wsReq.IgnoreGlobs = append(append([]string{}, req.IgnoreGlobs...), override.Ignore...)
		}
	}
	return name, wsReq
}

// scanWorkspace seeds and runs one workspace graph
func (s *ScanServiceImpl) scanWorkspace(ctx context.Context, req domain.ScanRequest, result *workspaceResult) error {
	root := result.root
	ignore := s.opts.Collector.BuildIgnorePredicate(root, req.IgnoreGlobs)

	layer := vfs.NewLayer()
	for _, reg := range vfs.DefaultRegistrations() {
		layer.Register(reg)
	}

	res := resolver.New(resolver.Options{
		ProjectRoot: root,
		Aliases:     req.Aliases,
		VirtualExts: layer.VirtualExts(),
	})

	driver := graph.NewDriver(graph.Options{
		Root:               root,
		Workspace:          result.name,
		Resolver:           res,
		Layer:              layer,
		Ignore:             ignore,
		IncludeTypeImports: req.IncludeTypeImports,
		Concurrency:        s.opts.Performance.MaxGoroutines,
		Progress:           s.opts.Progress,
	})

	entries, err := s.opts.Collector.CollectFiles(root, req.EntryGlobs, ignore)
	if err != nil {
		return domain.NewFileError("collecting entry files", err)
	}
	for _, entry := range entries {
		driver.AddEntry(entry)
	}

	projects, err := s.opts.Collector.CollectFiles(root, req.ProjectGlobs, ignore)
	if err != nil {
		return domain.NewFileError("collecting project files", err)
	}
	for _, project := range projects {
		driver.AddProject(project)
	}

	manifestPath := filepath.Join(root, constants.ManifestFileName)
	if manifest, err := resolver.LoadManifest(manifestPath); err == nil {
		result.manifest = manifest
		for _, candidate := range manifest.EntryCandidates() {
			driver.AddEntryCandidate(filepath.Join(root, filepath.FromSlash(candidate)), s.opts.Collector.FileExists)
		}
		scriptNames := make([]string, 0, len(manifest.Scripts))
		for scriptName := range manifest.Scripts {
			scriptNames = append(scriptNames, scriptName)
		}
		sort.Strings(scriptNames)
		for _, scriptName := range scriptNames {
			driver.AddScriptCommand(manifestPath, manifest.Scripts[scriptName])
		}
	}

	projectGraph, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	result.driver = driver
	result.graph = projectGraph
	result.warnings = driver.Warnings()
	return nil
}

// classify turns finished workspace graphs into findings. Cross-workspace
// imports mean a file can appear in more than one graph, so classification
// works on union views: a file is unused only when no workspace reaches it,
// and each file is classified exactly once.
func (s *ScanServiceImpl) classify(req domain.ScanRequest, results []*workspaceResult) *domain.ScanResponse {
	response := &domain.ScanResponse{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
	}

	unionReachable := make(map[string]bool)
	unionSkip := make(map[string]bool)
	unionProject := make(map[string]bool)
	for _, result := range results {
		for path := range result.driver.Reachable() {
			unionReachable[path] = true
		}
		for path := range result.graph.SkipExportsAnalysis {
			unionSkip[path] = true
		}
		for path := range result.graph.ProjectPaths {
			unionProject[path] = true
		}
	}

	// Union mode shares one reference universe across all workspaces
	var sharedOracle *analyzer.UsageOracle
	if !req.IsolateWorkspaces {
		graphs := make([]*domain.ProjectGraph, 0, len(results))
		for _, result := range results {
			graphs = append(graphs, result.graph)
		}
		sharedOracle = analyzer.NewUsageOracle(req.IncludeTypeImports, graphs...)
	}

	// The deepest workspace root claims a file first, so in isolate mode a
	// shared file is judged by its owning workspace's oracle
	ordered := make([]*workspaceResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].root) > len(ordered[j].root)
	})

	classified := make(map[string]bool)
	for _, result := range ordered {
		oracle := sharedOracle
		if oracle == nil {
			oracle = analyzer.NewUsageOracle(req.IncludeTypeImports, result.graph)
		}

		s.classifyFiles(response, result, unionReachable, classified)
		s.classifyExportsAndImports(response, result, oracle, unionReachable, unionSkip, classified)
		s.classifyDependencies(response, result)

		response.Warnings = append(response.Warnings, result.warnings...)
	}

	response.Summary.TotalFiles = len(unionProject)
	response.Summary.ReachableFiles = len(unionReachable)
	response.Summary.Workspaces = len(results)
	sortIssues(response.Issues)
	return response
}

func (s *ScanServiceImpl) classifyFiles(response *domain.ScanResponse, result *workspaceResult, unionReachable, flagged map[string]bool) {
	for _, path := range result.driver.UnusedFiles() {
		// Another workspace may import a file its owner never reaches
		if unionReachable[path] || flagged["file\x00"+path] {
			continue
		}
		flagged["file\x00"+path] = true
		response.Issues = append(response.Issues, domain.Issue{
			Kind:     domain.IssueUnusedFile,
			FilePath: path,
		})
		response.Summary.UnusedFiles++
	}
}

func (s *ScanServiceImpl) classifyExportsAndImports(
	response *domain.ScanResponse,
	result *workspaceResult,
	oracle *analyzer.UsageOracle,
	unionReachable, unionSkip, classified map[string]bool,
) {
	paths := make([]string, 0, len(result.graph.Analyses))
	for path := range result.graph.Analyses {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if classified[path] {
			continue
		}
		classified[path] = true
		analysis := result.graph.Analyses[path]

		for _, unresolved := range analysis.Unresolved {
			response.Issues = append(response.Issues, domain.Issue{
				Kind:     domain.IssueUnresolvedImport,
				Symbol:   unresolved.Specifier,
				FilePath: path,
				Location: unresolved.Location,
			})
			response.Summary.UnresolvedImports++
		}

		if unionSkip[path] {
			continue
		}
		// Exports of an unused file are subsumed by the unused-file finding
		if !unionReachable[path] {
			continue
		}

		names := make([]string, 0, len(analysis.Exports))
		for name := range analysis.Exports {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			exp := analysis.Exports[name]
			if !oracle.HasExternalReference(path, name) {
				response.Issues = append(response.Issues, domain.Issue{
					Kind:     domain.IssueUnusedExport,
					Symbol:   name,
					FilePath: path,
					Location: exp.Location,
				})
				response.Summary.UnusedExports++
				continue
			}
			for _, member := range oracle.UnusedMembers(path, name) {
				response.Issues = append(response.Issues, domain.Issue{
					Kind:     domain.IssueUnusedMember,
					Symbol:   name + "." + member,
					FilePath: path,
					Location: exp.Location,
				})
			}
		}
	}
}

// classifyDependencies compares referenced package names against the
// workspace manifest in both directions
func (s *ScanServiceImpl) classifyDependencies(response *domain.ScanResponse, result *workspaceResult) {
	if result.manifest == nil {
		return
	}

	// referenced maps package name to the first file that referenced it
	referenced := make(map[string]string)
	record := func(pkg, file string) {
		if _, seen := referenced[pkg]; !seen {
			referenced[pkg] = file
		}
	}

	paths := make([]string, 0, len(result.graph.Analyses))
	for path := range result.graph.Analyses {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		for _, pkg := range result.graph.Analyses[path].External {
			record(pkg, path)
		}
	}
	for _, ref := range result.graph.ReferencedDependencies {
		record(ref.Name, ref.ContainingFile)
	}

	pkgs := make([]string, 0, len(referenced))
	for pkg := range referenced {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	for _, pkg := range pkgs {
		if result.manifest.IsDeclared(pkg) || result.manifest.Name == pkg {
			continue
		}
		response.Issues = append(response.Issues, domain.Issue{
			Kind:     domain.IssueUndeclaredDependency,
			Symbol:   pkg,
			FilePath: referenced[pkg],
		})
		response.Summary.UndeclaredDeps++
	}

	// Only production dependencies are checked for the reverse direction:
	// devDependencies serve tooling the graph cannot see
	declared := make([]string, 0, len(result.manifest.Dependencies))
	for pkg := range result.manifest.Dependencies {
		declared = append(declared, pkg)
	}
	sort.Strings(declared)

	for _, pkg := range declared {
		if _, used := referenced[pkg]; used {
			continue
		}
		// A @types package is used whenever its subject package is
		if subject, ok := typesSubject(pkg); ok {
			if _, used := referenced[subject]; used {
				continue
			}
		}
		response.Issues = append(response.Issues, domain.Issue{
			Kind:     domain.IssueUnusedDependency,
			Symbol:   pkg,
			FilePath: filepath.Join(result.root, constants.ManifestFileName),
		})
		response.Summary.UnusedDeps++
	}
}

// typesSubject maps a DefinitelyTyped package to the package it types
// (@types/node -> node, @types/babel__core -> @babel/core)
func typesSubject(pkg string) (string, bool) {
	name, ok := strings.CutPrefix(pkg, "@types/")
	if !ok {
		return "", false
	}
	if scope, rest, found := strings.Cut(name, "__"); found {
		return "@" + scope + "/" + rest, true
	}
	return name, true
}

// sortIssues fixes report order: kind, then file, then symbol
func sortIssues(issues []domain.Issue) {
	kindRank := map[domain.IssueKind]int{
		domain.IssueUnusedFile:           0,
		domain.IssueUnusedExport:         1,
		domain.IssueUnusedMember:         2,
		domain.IssueUnresolvedImport:     3,
		domain.IssueUndeclaredDependency: 4,
		domain.IssueUnusedDependency:     5,
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if kindRank[issues[i].Kind] != kindRank[issues[j].Kind] {
			return kindRank[issues[i].Kind] < kindRank[issues[j].Kind]
		}
		if issues[i].FilePath != issues[j].FilePath {
			return issues[i].FilePath < issues[j].FilePath
		}
		return issues[i].Symbol < issues[j].Symbol
	})
}
