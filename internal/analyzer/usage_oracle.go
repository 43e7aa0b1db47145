package analyzer

import (
	"github.com/sirupsen/logrus"

	"github.com/winnowhq/winnow/domain"
	"github.com/winnowhq/winnow/internal/logging"
)

// UsageOracle answers whether exported symbols are referenced from outside
// their declaring file. The reference index spans every graph it is given,
// so in a monorepo the union of all workspace programs forms the reference
// universe unless workspaces are isolated.
type UsageOracle struct {
	graphs             []*domain.ProjectGraph
	includeTypeImports bool

	// Lazily built on first query: constructing the whole-program index is
	// the expensive part and many runs never ask about exports
	built bool

	// importedBy: target file -> imported name -> set of importing files.
	// The name "*" marks namespace and side-effect imports, which consume
	// every export of the target.
	importedBy map[string]map[string]map[string]bool

	// identifierFiles: identifier name -> set of files referencing it,
	// used for member-level checks
	identifierFiles map[string]map[string]bool

	cache map[string]bool
	log   *logrus.Entry
}

// NewUsageOracle creates an oracle over one or more workspace graphs
func NewUsageOracle(includeTypeImports bool, graphs ...*domain.ProjectGraph) *UsageOracle {
	return &UsageOracle{
		graphs:             graphs,
		includeTypeImports: includeTypeImports,
		cache:              make(map[string]bool),
		log:                logging.Scope("oracle"),
	}
}

// ensureIndex builds the whole-program reference index on first use
func (o *UsageOracle) ensureIndex() {
	if o.built {
		return
	}
	o.built = true
	o.importedBy = make(map[string]map[string]map[string]bool)
	o.identifierFiles = make(map[string]map[string]bool)

	files := 0
	for _, graph := range o.graphs {
		for path, analysis := range graph.Analyses {
			files++
			for _, edge := range analysis.Internal {
				if edge.IsTypeOnly && !o.includeTypeImports {
					continue
				}
				names := o.importedBy[edge.Path]
				if names == nil {
					names = make(map[string]map[string]bool)
					o.importedBy[edge.Path] = names
				}

				record := func(name string) {
					if names[name] == nil {
						names[name] = make(map[string]bool)
					}
					names[name][path] = true
				}

				if edge.Namespace || edge.SideEffect {
					record("*")
				}
				for _, name := range edge.Names {
					record(name)
				}
			}

			for name := range analysis.Identifiers {
				if o.identifierFiles[name] == nil {
					o.identifierFiles[name] = make(map[string]bool)
				}
				o.identifierFiles[name][path] = true
			}
		}
	}

	o.log.WithField("files", files).Debug("reference index built")
}

// HasExternalReference reports whether the named export of filePath is
// consumed anywhere outside filePath. Exports tagged public are always
// considered used. Results are cached per symbol for the run.
func (o *UsageOracle) HasExternalReference(filePath, exportName string) bool {
	key := filePath + "\x00" + exportName
	if used, ok := o.cache[key]; ok {
		return used
	}

	used := o.hasExternalReference(filePath, exportName)
	o.cache[key] = used
	return used
}

func (o *UsageOracle) hasExternalReference(filePath, exportName string) bool {
	if exp := o.lookupExport(filePath, exportName); exp != nil && exp.HasTag(domain.TagPublic) {
		return true
	}

	o.ensureIndex()

	names := o.importedBy[filePath]
	if names == nil {
		return false
	}

	for _, name := range []string{"*", exportName} {
		for importer := range names[name] {
			if importer != filePath {
				return true
			}
		}
	}
	return false
}

// UnusedMembers returns the subset of an export's members with no reference
// anywhere in the program, the declaring file included.
func (o *UsageOracle) UnusedMembers(filePath, exportName string) []string {
	exp := o.lookupExport(filePath, exportName)
	if exp == nil || len(exp.Members) == 0 {
		return nil
	}

	o.ensureIndex()

	var unused []string
	for _, member := range exp.Members {
		if len(o.identifierFiles[member]) == 0 {
			unused = append(unused, member)
		}
	}
	return unused
}

// lookupExport finds the export record across all graphs
func (o *UsageOracle) lookupExport(filePath, exportName string) *domain.Export {
	for _, graph := range o.graphs {
		if analysis := graph.Analyses[filePath]; analysis != nil {
			if exp := analysis.Exports[exportName]; exp != nil {
				return exp
			}
		}
	}
	return nil
}
