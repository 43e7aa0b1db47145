package resolver

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Manifest is the subset of package.json that resolution and dependency
// classification need.
type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`

	Main    string `json:"main"`
	Module  string `json:"module"`
	Types   string `json:"types"`
	Typings string `json:"typings"`

	// Bin is either a string or a map of command name to script path
	Bin binField `json:"bin"`

	// Exports is a string, a subpath map, or nested condition maps
	Exports json.RawMessage `json:"exports"`

	Scripts map[string]string `json:"scripts"`

	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`

	// Workspaces is either a glob array or {"packages": [...]}
	Workspaces workspacesField `json:"workspaces"`

	// Dir is the directory the manifest was loaded from
	Dir string `json:"-"`
}

type binField map[string]string

func (b *binField) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*b = binField{"": single}
		return nil
	}
	var many map[string]string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*b = binField(many)
	return nil
}

type workspacesField []string

func (w *workspacesField) UnmarshalJSON(data []byte) error {
	var globs []string
	if err := json.Unmarshal(data, &globs); err == nil {
		*w = workspacesField(globs)
		return nil
	}
	var wrapped struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*w = workspacesField(wrapped.Packages)
	return nil
}

// LoadManifest reads and parses a package.json file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m.Dir = filepath.Dir(path)
	return &m, nil
}

// EntryCandidates returns the script paths the manifest exposes: main,
// module, types, bin targets, and every concrete string inside exports.
// Paths are relative to the manifest directory, deduplicated and sorted.
func (m *Manifest) EntryCandidates() []string {
	seen := make(map[string]bool)

	add := func(p string) {
		p = strings.TrimPrefix(strings.TrimSpace(p), "./")
		if p == "" || strings.Contains(p, "*") {
			return
		}
		seen[p] = true
	}

	add(m.Main)
	add(m.Module)
	add(m.Types)
	add(m.Typings)
	for _, target := range m.Bin {
		add(target)
	}
	for _, target := range exportsTargets(m.Exports) {
		add(target)
	}

	candidates := make([]string, 0, len(seen))
	for p := range seen {
		candidates = append(candidates, p)
	}
	sort.Strings(candidates)
	return candidates
}

// exportsTargets collects every string leaf in the exports field, covering
// the string, subpath-map, and nested condition-map shapes.
func exportsTargets(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}

	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil
	}

	var targets []string
	keys := make([]string, 0, len(nested))
	for key := range nested {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		targets = append(targets, exportsTargets(nested[key])...)
	}
	return targets
}

// DeclaredDependencies returns all declared package names across the
// dependency sections.
func (m *Manifest) DeclaredDependencies() map[string]bool {
	declared := make(map[string]bool)
	for _, section := range []map[string]string{
		m.Dependencies, m.DevDependencies, m.PeerDependencies, m.OptionalDependencies,
	} {
		for name := range section {
			declared[name] = true
		}
	}
	return declared
}

// IsDeclared reports whether a package name appears in any dependency
// section. The version string may be empty.
func (m *Manifest) IsDeclared(pkg string) bool {
	for _, section := range []map[string]string{
		m.Dependencies, m.DevDependencies, m.PeerDependencies, m.OptionalDependencies,
	} {
		if _, ok := section[pkg]; ok {
			return true
		}
	}
	return false
}

// WorkspaceGlobs returns the workspace package globs, if any
func (m *Manifest) WorkspaceGlobs() []string {
	return []string(m.Workspaces)
}

// PackageNameOf extracts the package name from a bare specifier, keeping the
// scope for scoped packages (@scope/name/deep -> @scope/name).
func PackageNameOf(specifier string) string {
	if specifier == "" {
		return ""
	}
	parts := strings.Split(specifier, "/")
	if strings.HasPrefix(specifier, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}
