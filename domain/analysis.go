package domain

// ResolutionStatus classifies the outcome of resolving one specifier
type ResolutionStatus string

const (
	// ResolutionInternal means the specifier resolved to a project file
	ResolutionInternal ResolutionStatus = "internal"

	// ResolutionExternal means the specifier resolved to an installed package
	ResolutionExternal ResolutionStatus = "external"

	// ResolutionBuiltin means the specifier names a host builtin module
	ResolutionBuiltin ResolutionStatus = "builtin"

	// ResolutionIgnored means the specifier is deliberately not reportable
	// (URL-like, or a foreign asset extension such as .css or .png)
	ResolutionIgnored ResolutionStatus = "ignored"

	// ResolutionFailed means no strategy could map the specifier to a file
	ResolutionFailed ResolutionStatus = "failed"
)

// ResolvedModule is the result of resolving one specifier from one file
type ResolvedModule struct {
	// Status classifies the resolution outcome
	Status ResolutionStatus `json:"status"`

	// Path is the absolute file path for internal resolutions, or the
	// package root name for external resolutions
	Path string `json:"path,omitempty"`

	// Ext is the resolved file's extension for internal resolutions
	Ext string `json:"ext,omitempty"`
}

// InternalImport is one resolved project-internal import edge
type InternalImport struct {
	// Path is the absolute path of the imported file
	Path string `json:"path"`

	// Names are the imported symbol names ("default" for default imports)
	Names []string `json:"names,omitempty"`

	// Namespace indicates `import * as ns` (all exports considered used)
	Namespace bool `json:"namespace,omitempty"`

	// SideEffect indicates `import './x'` with no bindings
	SideEffect bool `json:"side_effect,omitempty"`

	// IsReExport indicates the edge comes from `export ... from`
	IsReExport bool `json:"is_re_export,omitempty"`

	// IsTypeOnly indicates a type-only import edge
	IsTypeOnly bool `json:"is_type_only,omitempty"`
}

// FileAnalysis is the per-file result produced by the source analyzer and
// consumed immediately by the graph driver.
type FileAnalysis struct {
	// FilePath is the analyzed file
	FilePath string `json:"file_path"`

	// Internal are imports resolved to project files
	Internal []InternalImport `json:"internal,omitempty"`

	// External are package-root names of imports resolved outside the project
	External []string `json:"external,omitempty"`

	// Unresolved are specifiers no strategy could resolve (post-filtering)
	Unresolved []UnresolvedImport `json:"unresolved,omitempty"`

	// Exports maps exported name to its metadata
	Exports map[string]*Export `json:"exports,omitempty"`

	// Scripts are embedded shell fragments found in tagged templates
	Scripts []ScriptFragment `json:"scripts,omitempty"`

	// Identifiers is the set of identifier names referenced in the file,
	// excluding import declaration subtrees. Used by the usage oracle.
	Identifiers map[string]bool `json:"-"`
}

// UnresolvedImport is a specifier that could not be mapped to any file
type UnresolvedImport struct {
	Specifier string         `json:"specifier"`
	Location  SourceLocation `json:"location"`
}

// ReferencedDependency records a package name referenced outside static
// import syntax (embedded shell commands, loader flags).
type ReferencedDependency struct {
	// Name is the package root name
	Name string `json:"name"`

	// ContainingFile is the file the reference was found in
	ContainingFile string `json:"containing_file"`

	// Workspace is the owning workspace name ("" outside monorepos)
	Workspace string `json:"workspace,omitempty"`
}

// ProjectGraph is the whole-workspace module graph owned by the graph driver.
// It is mutated only by the driver's fixed-point loop and read-only afterward.
type ProjectGraph struct {
	// EntryPaths are absolute paths designated as program roots
	EntryPaths map[string]bool

	// ProjectPaths is the superset of EntryPaths: every discovered file
	ProjectPaths map[string]bool

	// SkipExportsAnalysis marks files whose exports must not be flagged
	// unused (config/plugin entry points consumed by external runtimes)
	SkipExportsAnalysis map[string]bool

	// ReferencedDependencies are indirectly referenced package names
	ReferencedDependencies []ReferencedDependency

	// Analyses holds the per-file analysis results keyed by absolute path
	Analyses map[string]*FileAnalysis
}

// NewProjectGraph creates an empty project graph
func NewProjectGraph() *ProjectGraph {
	return &ProjectGraph{
		EntryPaths:          make(map[string]bool),
		ProjectPaths:        make(map[string]bool),
		SkipExportsAnalysis: make(map[string]bool),
		Analyses:            make(map[string]*FileAnalysis),
	}
}

// AddEntry records an entry path. Entry paths are always project paths.
func (g *ProjectGraph) AddEntry(path string) {
	g.EntryPaths[path] = true
	g.ProjectPaths[path] = true
}

// AddProject records a project path that is not necessarily an entry
func (g *ProjectGraph) AddProject(path string) {
	g.ProjectPaths[path] = true
}

// IsEntry reports whether the path is a designated program root
func (g *ProjectGraph) IsEntry(path string) bool {
	return g.EntryPaths[path]
}

// HasProject reports whether the path was ever discovered
func (g *ProjectGraph) HasProject(path string) bool {
	return g.ProjectPaths[path]
}
