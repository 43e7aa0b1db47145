package domain

import "fmt"

// ImportType represents the type of import statement
type ImportType string

const (
	// ImportTypeDefault represents default imports: import x from 'y'
	ImportTypeDefault ImportType = "default"

	// ImportTypeNamed represents named imports: import { x } from 'y'
	ImportTypeNamed ImportType = "named"

	// ImportTypeNamespace represents namespace imports: import * as x from 'y'
	ImportTypeNamespace ImportType = "namespace"

	// ImportTypeSideEffect represents side-effect imports: import 'y'
	ImportTypeSideEffect ImportType = "side_effect"

	// ImportTypeDynamic represents dynamic imports: import('y')
	ImportTypeDynamic ImportType = "dynamic"

	// ImportTypeRequire represents CommonJS require: require('y')
	ImportTypeRequire ImportType = "require"

	// ImportTypeReExport represents re-exports: export { x } from 'y'
	ImportTypeReExport ImportType = "re_export"
)

// ModuleType represents the type of module specifier
type ModuleType string

const (
	// ModuleTypeRelative represents relative specifiers: ./foo, ../bar
	ModuleTypeRelative ModuleType = "relative"

	// ModuleTypeAbsolute represents absolute specifiers: /foo/bar
	ModuleTypeAbsolute ModuleType = "absolute"

	// ModuleTypePackage represents package specifiers: lodash, react
	ModuleTypePackage ModuleType = "package"

	// ModuleTypeBuiltin represents Node.js builtins: node:fs, fs (when builtin)
	ModuleTypeBuiltin ModuleType = "builtin"

	// ModuleTypeAlias represents aliased specifiers: @/components, ~/utils
	ModuleTypeAlias ModuleType = "alias"
)

// SourceLocation identifies a position range in a source file
type SourceLocation struct {
	FilePath  string `json:"file_path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	StartCol  int    `json:"start_col"`
	EndCol    int    `json:"end_col"`
}

// String returns a compact file:line:col representation
func (l SourceLocation) String() string {
	return fmt.Sprintf("%s:%d:%d", l.FilePath, l.StartLine, l.StartCol+1)
}

// Import represents a single import statement in JavaScript/TypeScript
type Import struct {
	// Source is the module specifier as written (e.g., 'lodash', './utils')
	Source string `json:"source"`

	// SourceType is the type of module specifier (relative, package, builtin, etc.)
	SourceType ModuleType `json:"source_type"`

	// ImportType is the type of import (default, named, namespace, etc.)
	ImportType ImportType `json:"import_type"`

	// Specifiers are the individual imported items
	Specifiers []ImportSpecifier `json:"specifiers,omitempty"`

	// IsTypeOnly indicates TypeScript type-only imports
	IsTypeOnly bool `json:"is_type_only,omitempty"`

	// IsDynamic indicates dynamic import() expressions
	IsDynamic bool `json:"is_dynamic,omitempty"`

	// Location is the source code location
	Location SourceLocation `json:"location"`
}

// ImportSpecifier represents an individual imported item
type ImportSpecifier struct {
	// Imported is the original name from the module
	Imported string `json:"imported"`

	// Local is the local alias (or same as Imported if no alias)
	Local string `json:"local"`

	// IsType indicates a TypeScript type-only specifier
	IsType bool `json:"is_type,omitempty"`
}

// ExportKind classifies an export declaration
type ExportKind string

const (
	ExportKindNamed     ExportKind = "named"
	ExportKindDefault   ExportKind = "default"
	ExportKindAll       ExportKind = "all"
	ExportKindNamespace ExportKind = "namespace"
)

// Export represents a single exported symbol
type Export struct {
	// Name is the exported name ("default" for default exports)
	Name string `json:"name"`

	// Kind classifies the export declaration
	Kind ExportKind `json:"kind"`

	// Declaration is the declaration node type (FunctionDeclaration, ClassDeclaration, ...)
	Declaration string `json:"declaration,omitempty"`

	// Source is the re-export source specifier (empty if not a re-export)
	Source string `json:"source,omitempty"`

	// IsReExport indicates the symbol is re-exported from another module
	IsReExport bool `json:"is_re_export,omitempty"`

	// IsTypeOnly indicates a TypeScript type-only export
	IsTypeOnly bool `json:"is_type_only,omitempty"`

	// Tags are comment annotations attached to the export (public, internal, alias)
	Tags []string `json:"tags,omitempty"`

	// Members lists member names for exported classes and enums
	Members []string `json:"members,omitempty"`

	// Location is the source code location
	Location SourceLocation `json:"location"`
}

// TagPublic marks an export as intentionally public; such exports are never
// reported unused regardless of reference count.
const TagPublic = "public"

// HasTag reports whether the export carries the given comment tag
func (e *Export) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ScriptFragment is an embedded shell command found inside a tagged template
type ScriptFragment struct {
	// Command is the raw shell command text
	Command string `json:"command"`

	// Helper is the imported shell-execution helper that tagged the template
	Helper string `json:"helper"`

	// Location is the template call site
	Location SourceLocation `json:"location"`
}
