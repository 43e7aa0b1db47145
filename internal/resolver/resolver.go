package resolver

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/winnowhq/winnow/domain"
	"github.com/winnowhq/winnow/internal/logging"
)

// DefaultExtensions is the accepted extension list, in probe order.
// TypeScript sources win over their compiled JavaScript siblings.
var DefaultExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mts", ".cts", ".mjs", ".cjs"}

// foreignExts are asset extensions a bundler would handle. Failing to
// resolve one of these is never reported as an unresolved import.
var foreignExts = map[string]bool{
	".css": true, ".scss": true, ".sass": true, ".less": true, ".styl": true,
	".svg": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".avif": true, ".ico": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
	".mp3": true, ".mp4": true, ".webm": true, ".wav": true,
	".wasm": true, ".node": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".md": true, ".txt": true, ".html": true,
}

// urlSchemeRe matches specifiers with a URL scheme (https:, data:, ...).
// The node: scheme is classified as builtin before this check runs.
var urlSchemeRe = regexp.MustCompile(`^[a-z][a-z0-9+.-]*:`)

// FileChecker abstracts filesystem probes so resolution can be exercised
// against a fixed file set in tests
type FileChecker interface {
	FileExists(path string) bool
	DirExists(path string) bool
}

// Options configures a Resolver for one run
type Options struct {
	// ProjectRoot is the absolute path of the project being analyzed
	ProjectRoot string

	// Aliases maps specifier patterns to candidate targets relative to
	// ProjectRoot. A single '*' wildcard is supported on both sides,
	// matching tsconfig path mappings.
	Aliases map[string][]string

	// VirtualExts maps transformable extensions to the native extension
	// their synthesized stand-ins carry (".vue" -> ".ts")
	VirtualExts map[string]string

	// Checker probes the filesystem; defaults to the host filesystem
	Checker FileChecker
}

// Resolver maps import specifiers to concrete files, external packages,
// builtins, or failures. Results are memoized per (specifier, base) pair
// for the lifetime of the run.
type Resolver struct {
	opts       Options
	extensions []string
	// aliasPatterns fixes the alias match order so resolution stays
	// deterministic across runs
	aliasPatterns []string
	cache         *resolutionCache
	log           *logrus.Entry
}

// New creates a resolver for one analysis run
func New(opts Options) *Resolver {
	if opts.Checker == nil {
		opts.Checker = osChecker{}
	}

	extensions := make([]string, 0, len(DefaultExtensions)+len(opts.VirtualExts))
	extensions = append(extensions, DefaultExtensions...)
	virtual := make([]string, 0, len(opts.VirtualExts))
	for ext := range opts.VirtualExts {
		virtual = append(virtual, ext)
	}
	sort.Strings(virtual)
	extensions = append(extensions, virtual...)

	aliasPatterns := make([]string, 0, len(opts.Aliases))
	for pattern := range opts.Aliases {
		aliasPatterns = append(aliasPatterns, pattern)
	}
	sort.Strings(aliasPatterns)

	return &Resolver{
		opts:          opts,
		extensions:    extensions,
		aliasPatterns: aliasPatterns,
		cache:         newResolutionCache(),
		log:           logging.Scope("resolver"),
	}
}

// Extensions returns the accepted extension list in probe order
func (r *Resolver) Extensions() []string {
	return r.extensions
}

// IsAccepted reports whether a path carries an accepted extension. Paths
// that fail this check never enter the graph.
func (r *Resolver) IsAccepted(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, accepted := range r.extensions {
		if ext == accepted {
			return true
		}
	}
	return false
}

// CacheSize returns the number of memoized resolutions
func (r *Resolver) CacheSize() int {
	return r.cache.len()
}

// Resolve maps a specifier found in containingFile to a resolution result.
// containingFile must be an absolute path. The layered strategy is: URL
// schemes are ignored, builtins short-circuit, relative and absolute paths
// probe the filesystem, then alias mappings, then bare specifiers classify
// as external packages. Foreign asset extensions downgrade failures to
// ignored.
func (r *Resolver) Resolve(specifier, containingFile string) domain.ResolvedModule {
	specifier = strings.TrimSpace(specifier)
	if specifier == "" {
		return domain.ResolvedModule{Status: domain.ResolutionIgnored}
	}

	if IsBuiltin(specifier) {
		return domain.ResolvedModule{Status: domain.ResolutionBuiltin, Path: specifier}
	}

	if isRelative(specifier) || filepath.IsAbs(specifier) {
		key := cacheKey(specifier, containingFile)
		if resolved, ok := r.cache.get(key); ok {
			return resolved
		}
		resolved := r.resolvePath(specifier, containingFile)
		r.cache.put(key, resolved)
		return resolved
	}

	if urlSchemeRe.MatchString(specifier) {
		return domain.ResolvedModule{Status: domain.ResolutionIgnored}
	}

	// Bare specifiers resolve the same way from every file in a directory
	dir := filepath.Dir(containingFile)
	key := cacheKey(specifier, dir)
	if resolved, ok := r.cache.get(key); ok {
		return resolved
	}
	resolved := r.resolveBare(specifier, dir)
	r.cache.put(key, resolved)
	return resolved
}

// resolvePath resolves a relative or absolute path specifier
func (r *Resolver) resolvePath(specifier, containingFile string) domain.ResolvedModule {
	base := specifier
	if !filepath.IsAbs(base) {
		base = filepath.Join(filepath.Dir(containingFile), specifier)
	}
	base = filepath.Clean(base)

	if path := r.probe(base); path != "" {
		return r.classify(path)
	}

	// Compiler resolutions can surface virtual stand-in paths; translate
	// them back to the real transformable file
	if real := r.realPathFor(base); real != "" {
		return r.classify(real)
	}

	ext := strings.ToLower(filepath.Ext(specifier))
	if ext != "" && foreignExts[ext] {
		return domain.ResolvedModule{Status: domain.ResolutionIgnored}
	}

	r.log.WithFields(logrus.Fields{
		"specifier": specifier,
		"from":      containingFile,
	}).Debug("path resolution failed")

	return domain.ResolvedModule{Status: domain.ResolutionFailed}
}

// probe tries the exact path, declaration translation, extension probing,
// index files, and finally the directory's package manifest.
func (r *Resolver) probe(base string) string {
	if r.opts.Checker.FileExists(base) && r.IsAccepted(base) {
		return r.translateDeclaration(base)
	}

	// A specifier may carry a .js extension while the file on disk is the
	// TypeScript source
	if jsExt := strings.ToLower(filepath.Ext(base)); jsExt == ".js" || jsExt == ".mjs" || jsExt == ".cjs" {
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		for _, ext := range r.extensions {
			candidate := stem + ext
			if r.opts.Checker.FileExists(candidate) {
				return candidate
			}
		}
	}

	for _, ext := range r.extensions {
		candidate := base + ext
		if r.opts.Checker.FileExists(candidate) {
			return candidate
		}
	}

	if r.opts.Checker.DirExists(base) {
		for _, ext := range r.extensions {
			candidate := filepath.Join(base, "index"+ext)
			if r.opts.Checker.FileExists(candidate) {
				return candidate
			}
		}
		if entry := r.manifestEntry(base); entry != "" {
			return entry
		}
	}

	return ""
}

// manifestEntry resolves a directory through its package.json main/module
// fields
func (r *Resolver) manifestEntry(dir string) string {
	manifestPath := filepath.Join(dir, "package.json")
	if !r.opts.Checker.FileExists(manifestPath) {
		return ""
	}
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		r.log.WithField("path", manifestPath).WithError(err).Debug("manifest parse failed")
		return ""
	}

	for _, field := range []string{manifest.Module, manifest.Main} {
		if field == "" {
			continue
		}
		if path := r.probe(filepath.Join(dir, field)); path != "" {
			return path
		}
	}
	return ""
}

// declarationSuffixes maps type-declaration suffixes to the implementation
// extensions they stand for
var declarationSuffixes = []struct {
	suffix string
	impls  []string
}{
	{".d.ts", []string{".ts", ".tsx", ".js", ".jsx"}},
	{".d.mts", []string{".mts", ".mjs"}},
	{".d.cts", []string{".cts", ".cjs"}},
}

// translateDeclaration swaps a project-local type-declaration file for its
// implementation when one exists. Third-party declarations are kept as-is.
func (r *Resolver) translateDeclaration(path string) string {
	if isInNodeModules(path) {
		return path
	}
	lower := strings.ToLower(path)
	for _, decl := range declarationSuffixes {
		if !strings.HasSuffix(lower, decl.suffix) {
			continue
		}
		stem := path[:len(path)-len(decl.suffix)]
		for _, ext := range decl.impls {
			candidate := stem + ext
			if r.opts.Checker.FileExists(candidate) {
				return candidate
			}
		}
		// Registered transform extensions may own the implementation
		for ext := range r.opts.VirtualExts {
			candidate := stem + ext
			if r.opts.Checker.FileExists(candidate) {
				return candidate
			}
		}
		return path
	}
	return path
}

// realPathFor translates a virtual stand-in path (App.vue.ts) back to the
// real file it was synthesized from (App.vue)
func (r *Resolver) realPathFor(path string) string {
	nativeExt := filepath.Ext(path)
	if nativeExt == "" {
		return ""
	}
	stem := strings.TrimSuffix(path, nativeExt)
	realExt := filepath.Ext(stem)
	if realExt == "" {
		return ""
	}
	if r.opts.VirtualExts[strings.ToLower(realExt)] == strings.ToLower(nativeExt) &&
		r.opts.Checker.FileExists(stem) {
		return stem
	}
	return ""
}

// resolveBare resolves a bare or scoped package specifier
func (r *Resolver) resolveBare(specifier, fromDir string) domain.ResolvedModule {
	if resolved, ok := r.resolveAlias(specifier); ok {
		return resolved
	}

	// Walk node_modules upward; an installed package resolves external
	// without descending into it
	pkg := PackageNameOf(specifier)
	for dir := fromDir; ; {
		candidate := filepath.Join(dir, "node_modules", pkg)
		if r.opts.Checker.DirExists(candidate) {
			return domain.ResolvedModule{Status: domain.ResolutionExternal, Path: pkg}
		}
		parent := filepath.Dir(dir)
		if parent == dir || (r.opts.ProjectRoot != "" && !strings.HasPrefix(dir, r.opts.ProjectRoot)) {
			break
		}
		dir = parent
	}

	// Not installed, still package-like: classified external so the
	// dependency check can flag it as undeclared
	return domain.ResolvedModule{Status: domain.ResolutionExternal, Path: pkg}
}

// resolveAlias applies configured path mappings. Patterns support a single
// '*' wildcard on both the pattern and each target.
func (r *Resolver) resolveAlias(specifier string) (domain.ResolvedModule, bool) {
	for _, pattern := range r.aliasPatterns {
		targets := r.opts.Aliases[pattern]
		star := strings.Index(pattern, "*")

		var captured string
		if star < 0 {
			if specifier != pattern {
				continue
			}
		} else {
			prefix, suffix := pattern[:star], pattern[star+1:]
			if !strings.HasPrefix(specifier, prefix) || !strings.HasSuffix(specifier, suffix) ||
				len(specifier) < len(prefix)+len(suffix) {
				continue
			}
			captured = specifier[len(prefix) : len(specifier)-len(suffix)]
		}

		for _, target := range targets {
			substituted := strings.Replace(target, "*", captured, 1)
			base := substituted
			if !filepath.IsAbs(base) {
				base = filepath.Join(r.opts.ProjectRoot, substituted)
			}
			if path := r.probe(filepath.Clean(base)); path != "" {
				return r.classify(path), true
			}
		}
	}
	return domain.ResolvedModule{}, false
}

// classify builds the final result for a successfully probed file
func (r *Resolver) classify(path string) domain.ResolvedModule {
	status := domain.ResolutionInternal
	if isInNodeModules(path) {
		status = domain.ResolutionExternal
	}
	return domain.ResolvedModule{
		Status: status,
		Path:   path,
		Ext:    strings.ToLower(filepath.Ext(path)),
	}
}

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") ||
		specifier == "." || specifier == ".."
}

func isInNodeModules(path string) bool {
	return strings.Contains(path, string(filepath.Separator)+"node_modules"+string(filepath.Separator))
}
