package graph

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/winnowhq/winnow/domain"
	"github.com/winnowhq/winnow/internal/analyzer"
	"github.com/winnowhq/winnow/internal/logging"
	"github.com/winnowhq/winnow/internal/parser"
	"github.com/winnowhq/winnow/internal/resolver"
	"github.com/winnowhq/winnow/internal/vfs"
)

// Options configures a Driver for one workspace
type Options struct {
	// Root is the workspace root directory, used to anchor script-discovered
	// entry paths
	Root string

	// Workspace names the workspace in referenced-dependency records
	// ("" outside monorepos)
	Workspace string

	Resolver *resolver.Resolver
	Layer    *vfs.Layer

	// Ignore is consulted before any path enters the graph
	Ignore domain.IgnorePredicate

	// IncludeTypeImports counts type-only edges as reachability and usage
	IncludeTypeImports bool

	// Concurrency bounds the async compile pass fan-out
	Concurrency int

	// Progress renders analysis progress; nil disables rendering
	Progress domain.ProgressManager
}

// Driver owns one workspace's module graph. It is seeded with entry and
// project paths, then Run drives the fixed-point loop: analyze, discover,
// resolve, enqueue, until the frontier is empty. The graph is read-only
// after Run returns.
type Driver struct {
	opts     Options
	source   *analyzer.SourceAnalyzer
	graph    *domain.ProjectGraph
	frontier []string
	queued   map[string]bool
	warnings []string
	ran      bool
	log      *logrus.Entry
}

// NewDriver creates a driver with an empty graph
func NewDriver(opts Options) *Driver {
	if opts.Ignore == nil {
		opts.Ignore = func(string) bool { return false }
	}
	return &Driver{
		opts:   opts,
		source: analyzer.NewSourceAnalyzer(),
		graph:  domain.NewProjectGraph(),
		queued: make(map[string]bool),
		log:    logging.Scope("graph"),
	}
}

// admit gates every path insertion: ignored paths and unaccepted extensions
// never enter the graph
func (d *Driver) admit(path string) bool {
	if !d.opts.Resolver.IsAccepted(path) {
		return false
	}
	if d.opts.Ignore(path) {
		d.log.WithField("path", path).Debug("path ignored")
		return false
	}
	return true
}

// enqueue adds a path to the analysis frontier once
func (d *Driver) enqueue(path string) {
	if !d.queued[path] {
		d.queued[path] = true
		d.frontier = append(d.frontier, path)
	}
}

// AddEntry seeds a declared program root. Entry exports face external
// consumers, so they are excluded from unused-export analysis.
func (d *Driver) AddEntry(path string) {
	if !d.admit(path) {
		return
	}
	d.graph.AddEntry(path)
	d.graph.SkipExportsAnalysis[path] = true
	d.enqueue(path)
}

// AddProject seeds a glob-matched candidate file that is not an entry
func (d *Driver) AddProject(path string) {
	if !d.admit(path) {
		return
	}
	d.graph.AddProject(path)
	d.enqueue(path)
}

// AddEntryCandidate seeds an entry discovered from a manifest or plugin
// hint rather than declared directly. Candidates that do not exist are
// silently dropped.
func (d *Driver) AddEntryCandidate(path string, exists func(string) bool) {
	if exists != nil && !exists(path) {
		return
	}
	d.AddEntry(path)
}

// Run executes the compile pass and the fixed-point loop, then computes the
// reachable set. It returns the finished graph.
func (d *Driver) Run(ctx context.Context) (*domain.ProjectGraph, error) {
	if d.ran {
		return nil, domain.NewContractError("graph driver run twice", nil)
	}
	d.ran = true

	// Async transforms must finish before the synchronous loop starts
	paths := make([]string, 0, len(d.queued))
	for path := range d.queued {
		paths = append(paths, path)
	}
	if err := d.opts.Layer.Precompile(ctx, paths, d.opts.Concurrency); err != nil {
		return nil, err
	}

	var task domain.TaskProgress
	if d.opts.Progress != nil {
		task = d.opts.Progress.StartTask("analyzing", len(d.frontier))
		defer task.Complete()
	}

	for len(d.frontier) > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		path := d.frontier[0]
		d.frontier = d.frontier[1:]

		d.analyzeFile(path)

		if task != nil {
			task.Describe(filepath.Base(path))
			task.Increment(1)
		}
	}

	d.warnings = append(d.warnings, d.opts.Layer.Warnings()...)
	return d.graph, nil
}

// analyzeFile loads, parses, and analyzes one file, merging discoveries
// back into the frontier
func (d *Driver) analyzeFile(path string) {
	if _, done := d.graph.Analyses[path]; done {
		return
	}

	content, virtualPath, err := d.opts.Layer.Load(path)
	if err != nil {
		if domain.IsFatal(err) {
			// Contract violations surface loudly even though the loop
			// keeps going for other files
			d.log.WithField("path", path).WithError(err).Error("analysis contract violated")
		}
		d.warn(fmt.Sprintf("skipped %s: %v", path, err))
		d.graph.Analyses[path] = &domain.FileAnalysis{FilePath: path}
		return
	}

	ast, err := parser.ParseForLanguage(virtualPath, content)
	if err != nil {
		d.warn(fmt.Sprintf("parse failed for %s: %v", path, err))
		d.graph.Analyses[path] = &domain.FileAnalysis{FilePath: path}
		return
	}

	resolveHook := func(specifier string) domain.ResolvedModule {
		return d.opts.Resolver.Resolve(specifier, path)
	}
	analysis := d.source.Analyze(ast, path, content, resolveHook)
	d.graph.Analyses[path] = analysis

	for _, edge := range analysis.Internal {
		d.discover(edge.Path)
	}

	for _, fragment := range analysis.Scripts {
		d.mergeScript(path, fragment)
	}
}

// discover admits an import-discovered file into the project set and the
// frontier. Already-known paths are never re-enqueued, which keeps cycles
// harmless.
func (d *Driver) discover(path string) {
	if !d.admit(path) {
		return
	}
	if !d.graph.HasProject(path) {
		d.graph.AddProject(path)
	}
	d.enqueue(path)
}

// mergeScript folds a parsed shell fragment into the graph: script files
// become entries consumed by an external runtime, package references become
// referenced dependencies.
func (d *Driver) mergeScript(containingFile string, fragment domain.ScriptFragment) {
	result := analyzer.ParseScript(fragment.Command)

	for _, entry := range result.EntryFiles {
		// Explicitly relative paths anchor at the referencing file; bare
		// paths anchor at the workspace root, matching how a shell would
		// run them
		specifier, anchor := entry, containingFile
		if !filepath.IsAbs(entry) && !(len(entry) > 0 && entry[0] == '.') {
			specifier = "./" + entry
			anchor = filepath.Join(d.opts.Root, "package.json")
		}
		resolved := d.opts.Resolver.Resolve(specifier, anchor)
		if resolved.Status != domain.ResolutionInternal {
			continue
		}
		if !d.admit(resolved.Path) {
			continue
		}
		d.graph.AddEntry(resolved.Path)
		d.graph.SkipExportsAnalysis[resolved.Path] = true
		d.enqueue(resolved.Path)
	}

	for _, pkg := range result.PackageRefs {
		d.addReferencedDependency(pkg, containingFile)
	}
}

// AddScriptCommand feeds an externally discovered command line (a manifest
// script) through the same merge path as embedded shell fragments. The
// command is attributed to manifestPath.
func (d *Driver) AddScriptCommand(manifestPath, command string) {
	d.mergeScript(manifestPath, domain.ScriptFragment{Command: command})
}

// addReferencedDependency records an indirectly referenced package once per
// (package, file) pair
func (d *Driver) addReferencedDependency(pkg, containingFile string) {
	for _, ref := range d.graph.ReferencedDependencies {
		if ref.Name == pkg && ref.ContainingFile == containingFile {
			return
		}
	}
	d.graph.ReferencedDependencies = append(d.graph.ReferencedDependencies, domain.ReferencedDependency{
		Name:           pkg,
		ContainingFile: containingFile,
		Workspace:      d.opts.Workspace,
	})
}

// Reachable computes the set of files reachable from entry paths by
// following resolved internal imports transitively. Type-only edges count
// only when type imports are included.
func (d *Driver) Reachable() map[string]bool {
	reachable := make(map[string]bool)
	queue := make([]string, 0, len(d.graph.EntryPaths))

	for entry := range d.graph.EntryPaths {
		reachable[entry] = true
		queue = append(queue, entry)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		analysis, ok := d.graph.Analyses[current]
		if !ok {
			continue
		}
		for _, edge := range analysis.Internal {
			if edge.IsTypeOnly && !d.opts.IncludeTypeImports {
				continue
			}
			if !reachable[edge.Path] {
				reachable[edge.Path] = true
				queue = append(queue, edge.Path)
			}
		}
	}

	return reachable
}

// UnusedFiles returns project paths unreachable from any entry, sorted for
// stable reports
func (d *Driver) UnusedFiles() []string {
	reachable := d.Reachable()

	var unused []string
	for path := range d.graph.ProjectPaths {
		if !reachable[path] {
			unused = append(unused, path)
		}
	}
	sort.Strings(unused)
	return unused
}

// Graph returns the (post-Run read-only) project graph
func (d *Driver) Graph() *domain.ProjectGraph {
	return d.graph
}

// Warnings returns per-file recoverable problems collected during the run
func (d *Driver) Warnings() []string {
	return d.warnings
}

func (d *Driver) warn(msg string) {
	d.log.Debug(msg)
	d.warnings = append(d.warnings, msg)
}
