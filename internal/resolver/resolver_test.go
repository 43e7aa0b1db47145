package resolver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/winnowhq/winnow/domain"
)

// fakeFS is a fixed file set for resolution tests
type fakeFS struct {
	files map[string]bool
	// fileProbes counts FileExists calls, used by the memoization test
	fileProbes int
}

func newFakeFS(paths ...string) *fakeFS {
	files := make(map[string]bool, len(paths))
	for _, p := range paths {
		files[p] = true
	}
	return &fakeFS{files: files}
}

func (f *fakeFS) FileExists(path string) bool {
	f.fileProbes++
	return f.files[path]
}

func (f *fakeFS) DirExists(path string) bool {
	prefix := path + string(filepath.Separator)
	for p := range f.files {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func TestResolveBuiltin(t *testing.T) {
	r := New(Options{ProjectRoot: "/proj", Checker: newFakeFS()})

	tests := []string{"fs", "node:fs", "fs/promises", "node:test", "path", "worker_threads"}
	for _, specifier := range tests {
		resolved := r.Resolve(specifier, "/proj/src/index.ts")
		if resolved.Status != domain.ResolutionBuiltin {
			t.Errorf("Resolve(%q) = %s, want builtin", specifier, resolved.Status)
		}
	}
}

func TestResolveURLIgnored(t *testing.T) {
	r := New(Options{ProjectRoot: "/proj", Checker: newFakeFS()})

	tests := []string{"https://esm.sh/react", "http://example.com/mod.js", "data:text/javascript,export{}"}
	for _, specifier := range tests {
		resolved := r.Resolve(specifier, "/proj/src/index.ts")
		if resolved.Status != domain.ResolutionIgnored {
			t.Errorf("Resolve(%q) = %s, want ignored", specifier, resolved.Status)
		}
	}
}

func TestResolveRelativeExact(t *testing.T) {
	fs := newFakeFS("/proj/src/util.ts")
	r := New(Options{ProjectRoot: "/proj", Checker: fs})

	resolved := r.Resolve("./util.ts", "/proj/src/index.ts")
	if resolved.Status != domain.ResolutionInternal {
		t.Fatalf("Expected internal, got %s", resolved.Status)
	}
	if resolved.Path != "/proj/src/util.ts" {
		t.Errorf("Expected /proj/src/util.ts, got %s", resolved.Path)
	}
	if resolved.Ext != ".ts" {
		t.Errorf("Expected ext .ts, got %s", resolved.Ext)
	}
}

func TestResolveExtensionProbing(t *testing.T) {
	fs := newFakeFS("/proj/src/util.ts", "/proj/src/util.js")
	r := New(Options{ProjectRoot: "/proj", Checker: fs})

	// TypeScript wins when both extensions exist
	resolved := r.Resolve("./util", "/proj/src/index.ts")
	if resolved.Path != "/proj/src/util.ts" {
		t.Errorf("Expected .ts to win, got %s", resolved.Path)
	}
}

func TestResolveIndexFile(t *testing.T) {
	fs := newFakeFS("/proj/src/lib/index.tsx")
	r := New(Options{ProjectRoot: "/proj", Checker: fs})

	resolved := r.Resolve("./lib", "/proj/src/index.ts")
	if resolved.Status != domain.ResolutionInternal || resolved.Path != "/proj/src/lib/index.tsx" {
		t.Errorf("Expected index resolution, got %+v", resolved)
	}
}

func TestResolveJSSpecifierToTSSource(t *testing.T) {
	// ESM projects import './util.js' while the file on disk is util.ts
	fs := newFakeFS("/proj/src/util.ts")
	r := New(Options{ProjectRoot: "/proj", Checker: fs})

	resolved := r.Resolve("./util.js", "/proj/src/index.ts")
	if resolved.Status != domain.ResolutionInternal || resolved.Path != "/proj/src/util.ts" {
		t.Errorf("Expected util.ts, got %+v", resolved)
	}
}

func TestResolveForeignAssetIgnored(t *testing.T) {
	r := New(Options{ProjectRoot: "/proj", Checker: newFakeFS()})

	tests := []string{"./styles.css", "./logo.svg", "../assets/photo.png", "./data.json"}
	for _, specifier := range tests {
		resolved := r.Resolve(specifier, "/proj/src/index.ts")
		if resolved.Status != domain.ResolutionIgnored {
			t.Errorf("Resolve(%q) = %s, want ignored", specifier, resolved.Status)
		}
	}
}

func TestResolveFailure(t *testing.T) {
	r := New(Options{ProjectRoot: "/proj", Checker: newFakeFS()})

	resolved := r.Resolve("./missing", "/proj/src/index.ts")
	if resolved.Status != domain.ResolutionFailed {
		t.Errorf("Expected failed, got %s", resolved.Status)
	}
}

func TestResolveMemoization(t *testing.T) {
	fs := newFakeFS("/proj/src/util.ts")
	r := New(Options{ProjectRoot: "/proj", Checker: fs})

	first := r.Resolve("./util", "/proj/src/index.ts")
	probesAfterFirst := fs.fileProbes

	second := r.Resolve("./util", "/proj/src/index.ts")
	if fs.fileProbes != probesAfterFirst {
		t.Errorf("Second resolution probed the filesystem: %d -> %d probes",
			probesAfterFirst, fs.fileProbes)
	}
	if first != second {
		t.Errorf("Results differ: %+v vs %+v", first, second)
	}
	if r.CacheSize() != 1 {
		t.Errorf("Expected 1 cache entry, got %d", r.CacheSize())
	}
}

func TestResolveMemoizationKeyedByContainingFile(t *testing.T) {
	fs := newFakeFS("/proj/src/util.ts", "/proj/other/util.ts")
	r := New(Options{ProjectRoot: "/proj", Checker: fs})

	fromSrc := r.Resolve("./util", "/proj/src/index.ts")
	fromOther := r.Resolve("./util", "/proj/other/main.ts")

	if fromSrc.Path == fromOther.Path {
		t.Error("Same specifier from different files must not share a result")
	}
}

func TestResolveInstalledPackage(t *testing.T) {
	fs := newFakeFS("/proj/node_modules/express/index.js")
	r := New(Options{ProjectRoot: "/proj", Checker: fs})

	resolved := r.Resolve("express", "/proj/src/index.ts")
	if resolved.Status != domain.ResolutionExternal {
		t.Fatalf("Expected external, got %s", resolved.Status)
	}
	if resolved.Path != "express" {
		t.Errorf("Expected package name 'express', got %s", resolved.Path)
	}
}

func TestResolveScopedPackageSubpath(t *testing.T) {
	fs := newFakeFS("/proj/node_modules/@scope/pkg/lib/index.js")
	r := New(Options{ProjectRoot: "/proj", Checker: fs})

	resolved := r.Resolve("@scope/pkg/lib/util", "/proj/src/index.ts")
	if resolved.Status != domain.ResolutionExternal || resolved.Path != "@scope/pkg" {
		t.Errorf("Expected external @scope/pkg, got %+v", resolved)
	}
}

func TestResolveUninstalledPackageStillExternal(t *testing.T) {
	// An undeclared, uninstalled package is classified external so the
	// dependency check can flag it; it is never an unresolved import
	r := New(Options{ProjectRoot: "/proj", Checker: newFakeFS()})

	resolved := r.Resolve("left-pad", "/proj/src/index.ts")
	if resolved.Status != domain.ResolutionExternal || resolved.Path != "left-pad" {
		t.Errorf("Expected external left-pad, got %+v", resolved)
	}
}

func TestResolveAlias(t *testing.T) {
	fs := newFakeFS("/proj/src/utils/format.ts")
	r := New(Options{
		ProjectRoot: "/proj",
		Aliases:     map[string][]string{"@app/*": {"src/*"}},
		Checker:     fs,
	})

	resolved := r.Resolve("@app/utils/format", "/proj/src/index.ts")
	if resolved.Status != domain.ResolutionInternal || resolved.Path != "/proj/src/utils/format.ts" {
		t.Errorf("Expected aliased internal resolution, got %+v", resolved)
	}
}

func TestResolveAliasExact(t *testing.T) {
	fs := newFakeFS("/proj/src/config.ts")
	r := New(Options{
		ProjectRoot: "/proj",
		Aliases:     map[string][]string{"#config": {"src/config.ts"}},
		Checker:     fs,
	})

	resolved := r.Resolve("#config", "/proj/src/index.ts")
	if resolved.Status != domain.ResolutionInternal || resolved.Path != "/proj/src/config.ts" {
		t.Errorf("Expected exact alias resolution, got %+v", resolved)
	}
}

func TestResolveDeclarationTranslation(t *testing.T) {
	fs := newFakeFS("/proj/src/api.d.ts", "/proj/src/api.ts")
	r := New(Options{ProjectRoot: "/proj", Checker: fs})

	resolved := r.Resolve("./api.d.ts", "/proj/src/index.ts")
	if resolved.Path != "/proj/src/api.ts" {
		t.Errorf("Expected implementation file, got %s", resolved.Path)
	}
}

func TestResolveDeclarationKeptWithoutImplementation(t *testing.T) {
	fs := newFakeFS("/proj/src/globals.d.ts")
	r := New(Options{ProjectRoot: "/proj", Checker: fs})

	resolved := r.Resolve("./globals.d.ts", "/proj/src/index.ts")
	if resolved.Path != "/proj/src/globals.d.ts" {
		t.Errorf("Expected declaration file kept, got %s", resolved.Path)
	}
}

func TestResolveVirtualPathTranslation(t *testing.T) {
	fs := newFakeFS("/proj/src/App.vue")
	r := New(Options{
		ProjectRoot: "/proj",
		VirtualExts: map[string]string{".vue": ".ts"},
		Checker:     fs,
	})

	// A stand-in path resolves back to the real transformable file
	resolved := r.Resolve("./App.vue.ts", "/proj/src/index.ts")
	if resolved.Status != domain.ResolutionInternal || resolved.Path != "/proj/src/App.vue" {
		t.Errorf("Expected real file behind virtual path, got %+v", resolved)
	}

	// The real file also resolves directly
	direct := r.Resolve("./App.vue", "/proj/src/main.ts")
	if direct.Status != domain.ResolutionInternal || direct.Path != "/proj/src/App.vue" {
		t.Errorf("Expected direct resolution, got %+v", direct)
	}
}

func TestResolveNodeModulesPathIsExternal(t *testing.T) {
	fs := newFakeFS("/proj/node_modules/lodash/map.js")
	r := New(Options{ProjectRoot: "/proj", Checker: fs})

	resolved := r.Resolve("../node_modules/lodash/map.js", "/proj/src/index.ts")
	if resolved.Status != domain.ResolutionExternal {
		t.Errorf("Expected external for node_modules path, got %s", resolved.Status)
	}
}

func TestIsAccepted(t *testing.T) {
	r := New(Options{
		ProjectRoot: "/proj",
		VirtualExts: map[string]string{".vue": ".ts"},
		Checker:     newFakeFS(),
	})

	tests := []struct {
		path string
		want bool
	}{
		{"/proj/src/index.ts", true},
		{"/proj/src/app.tsx", true},
		{"/proj/src/legacy.cjs", true},
		{"/proj/src/App.vue", true},
		{"/proj/assets/logo.png", false},
		{"/proj/bin/tool.sh", false},
		{"/proj/README.md", false},
	}
	for _, tt := range tests {
		if got := r.IsAccepted(tt.path); got != tt.want {
			t.Errorf("IsAccepted(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestPackageNameOf(t *testing.T) {
	tests := []struct {
		specifier string
		want      string
	}{
		{"express", "express"},
		{"lodash/map", "lodash"},
		{"@scope/pkg", "@scope/pkg"},
		{"@scope/pkg/deep/path", "@scope/pkg"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := PackageNameOf(tt.specifier); got != tt.want {
			t.Errorf("PackageNameOf(%q) = %q, want %q", tt.specifier, got, tt.want)
		}
	}
}

func TestManifestEntryCandidates(t *testing.T) {
	dir := t.TempDir()
	manifestJSON := `{
		"name": "demo",
		"main": "./dist/index.cjs",
		"module": "dist/index.mjs",
		"types": "./dist/index.d.ts",
		"bin": {"demo": "./bin/cli.js"},
		"exports": {
			".": {"import": "./dist/index.mjs", "require": "./dist/index.cjs"},
			"./lib": "./dist/lib.js",
			"./features/*": "./dist/features/*.js"
		}
	}`
	path := filepath.Join(dir, "package.json")
	if err := os.WriteFile(path, []byte(manifestJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}

	candidates := manifest.EntryCandidates()
	want := map[string]bool{
		"dist/index.cjs":  true,
		"dist/index.mjs":  true,
		"dist/index.d.ts": true,
		"bin/cli.js":      true,
		"dist/lib.js":     true,
	}
	if len(candidates) != len(want) {
		t.Fatalf("Expected %d candidates, got %v", len(want), candidates)
	}
	for _, c := range candidates {
		if !want[c] {
			t.Errorf("Unexpected candidate %q", c)
		}
	}
}

func TestManifestBinString(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "package.json")
	if err := os.WriteFile(path, []byte(`{"name": "tool", "bin": "./cli.js"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	candidates := manifest.EntryCandidates()
	if len(candidates) != 1 || candidates[0] != "cli.js" {
		t.Errorf("Expected [cli.js], got %v", candidates)
	}
}

func TestManifestWorkspaces(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		manifest string
		want     []string
	}{
		{"array", `{"workspaces": ["packages/*", "apps/web"]}`, []string{"packages/*", "apps/web"}},
		{"wrapped", `{"workspaces": {"packages": ["packages/*"]}}`, []string{"packages/*"}},
		{"absent", `{"name": "solo"}`, nil},
	}

	for _, tt := range tests {
		path := filepath.Join(dir, tt.name+".json")
		if err := os.WriteFile(path, []byte(tt.manifest), 0o644); err != nil {
			t.Fatal(err)
		}
		manifest, err := LoadManifest(path)
		if err != nil {
			t.Fatalf("%s: LoadManifest failed: %v", tt.name, err)
		}
		got := manifest.WorkspaceGlobs()
		if len(got) != len(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			}
		}
	}
}

func TestManifestDeclaredDependencies(t *testing.T) {
	dir := t.TempDir()
	manifestJSON := `{
		"dependencies": {"express": "^4.0.0"},
		"devDependencies": {"vitest": "^1.0.0"},
		"peerDependencies": {"react": ">=18"},
		"optionalDependencies": {"fsevents": "*"}
	}`
	path := filepath.Join(dir, "package.json")
	if err := os.WriteFile(path, []byte(manifestJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	manifest, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}

	for _, pkg := range []string{"express", "vitest", "react", "fsevents"} {
		if !manifest.IsDeclared(pkg) {
			t.Errorf("Expected %s declared", pkg)
		}
	}
	if manifest.IsDeclared("left-pad") {
		t.Error("left-pad must not be declared")
	}
	if len(manifest.DeclaredDependencies()) != 4 {
		t.Errorf("Expected 4 declared deps, got %d", len(manifest.DeclaredDependencies()))
	}
}

func TestManifestIsDeclaredEmptyVersion(t *testing.T) {
	manifest := &Manifest{Dependencies: map[string]string{"left-pad": ""}}
	if !manifest.IsDeclared("left-pad") {
		t.Error("A dependency declared with an empty version is still declared")
	}
}
