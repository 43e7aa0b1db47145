package analyzer

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/winnowhq/winnow/domain"
	"github.com/winnowhq/winnow/internal/logging"
	"github.com/winnowhq/winnow/internal/parser"
)

// ResolveHook resolves a specifier found in the file under analysis. The
// analyzer owns no resolution logic; the graph driver binds the hook to the
// containing file.
type ResolveHook func(specifier string) domain.ResolvedModule

// shellHelperPackages are the packages whose tagged-template helpers execute
// shell commands. Importing one of these makes its binding a script source.
var shellHelperPackages = map[string]bool{
	"zx":    true,
	"execa": true,
	"bun":   true,
}

// shellHelperNames are the binding names those packages export for tagged
// template execution
var shellHelperNames = map[string]bool{
	"$":     true,
	"execa": true,
}

// SourceAnalyzer walks a parsed file and extracts imports, exports, and
// embedded shell-script fragments. One instance is reused across files.
type SourceAnalyzer struct {
	log *logrus.Entry
}

// NewSourceAnalyzer creates a source analyzer
func NewSourceAnalyzer() *SourceAnalyzer {
	return &SourceAnalyzer{log: logging.Scope("analyzer")}
}

// Analyze extracts the per-file analysis result. filePath is the real path
// the findings are attributed to (the stand-in path for transformed files is
// never surfaced). source is the text that was parsed, used for comment-tag
// scanning.
func (a *SourceAnalyzer) Analyze(ast *parser.Node, filePath string, source []byte, resolve ResolveHook) *domain.FileAnalysis {
	analysis := &domain.FileAnalysis{
		FilePath:    filePath,
		Exports:     make(map[string]*domain.Export),
		Identifiers: make(map[string]bool),
	}
	if ast == nil {
		return analysis
	}

	imports := a.extractImports(ast)
	a.categorizeImports(analysis, imports, resolve)

	lines := strings.Split(string(source), "\n")
	a.extractExports(ast, analysis, lines, resolve)

	a.extractScripts(ast, analysis, imports)
	a.collectIdentifiers(ast, analysis)

	return analysis
}

// extractImports walks the AST and extracts all import statements
func (a *SourceAnalyzer) extractImports(ast *parser.Node) []*domain.Import {
	var imports []*domain.Import

	// Nodes can appear in more than one child list; dedup by location
	visited := make(map[string]bool)

	ast.Walk(func(node *parser.Node) bool {
		key := nodeLocationKey(node)

		switch node.Type {
		case parser.NodeImportDeclaration:
			if !visited[key] {
				visited[key] = true
				if imp := a.processImportDeclaration(node); imp != nil {
					imports = append(imports, imp)
				}
			}
			return false

		case parser.NodeCallExpression:
			if !visited[key] {
				visited[key] = true
				if imp := a.processDynamicImport(node); imp != nil {
					imports = append(imports, imp)
				}
				if imp := a.processRequireCall(node); imp != nil {
					imports = append(imports, imp)
				}
			}
		}
		return true
	})

	return imports
}

// nodeLocationKey creates a unique key for a node based on its location
func nodeLocationKey(node *parser.Node) string {
	if node == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", node.Type, node.Location.StartLine, node.Location.StartCol)
}

// processImportDeclaration processes an ES module import declaration
func (a *SourceAnalyzer) processImportDeclaration(node *parser.Node) *domain.Import {
	source := extractSourceValue(node.Source)
	if source == "" {
		return nil
	}

	imp := &domain.Import{
		Source:     source,
		IsTypeOnly: node.Kind == "type",
		Location:   nodeToSourceLocation(node),
	}

	hasDefault := false
	hasNamed := false
	hasNamespace := false

	for _, spec := range node.Specifiers {
		switch spec.Type {
		case parser.NodeImportDefaultSpecifier:
			hasDefault = true
			imp.Specifiers = append(imp.Specifiers, domain.ImportSpecifier{
				Imported: "default",
				Local:    spec.Name,
			})

		case parser.NodeImportNamespaceSpecifier:
			hasNamespace = true
			imp.Specifiers = append(imp.Specifiers, domain.ImportSpecifier{
				Imported: "*",
				Local:    spec.Name,
			})

		case parser.NodeImportSpecifier:
			hasNamed = true
			specifier := domain.ImportSpecifier{
				Local:  spec.Name,
				IsType: spec.Kind == "type",
			}
			if spec.Imported != nil {
				specifier.Imported = spec.Imported.Name
			} else {
				specifier.Imported = spec.Name
			}
			imp.Specifiers = append(imp.Specifiers, specifier)
		}
	}

	switch {
	case hasNamespace:
		imp.ImportType = domain.ImportTypeNamespace
	case hasDefault && !hasNamed:
		imp.ImportType = domain.ImportTypeDefault
	case hasNamed:
		imp.ImportType = domain.ImportTypeNamed
	default:
		imp.ImportType = domain.ImportTypeSideEffect
	}

	return imp
}

// processDynamicImport checks if a call expression is a dynamic import
func (a *SourceAnalyzer) processDynamicImport(node *parser.Node) *domain.Import {
	if node.Callee == nil || node.Callee.Name != "import" || len(node.Arguments) == 0 {
		return nil
	}

	// import(someVariable) cannot be followed statically
	if node.Arguments[0].Type != parser.NodeStringLiteral {
		return nil
	}
	source := extractSourceValue(node.Arguments[0])
	if source == "" {
		return nil
	}

	return &domain.Import{
		Source:     source,
		ImportType: domain.ImportTypeDynamic,
		IsDynamic:  true,
		Location:   nodeToSourceLocation(node),
	}
}

// processRequireCall checks if a call expression is a require() call
func (a *SourceAnalyzer) processRequireCall(node *parser.Node) *domain.Import {
	if node.Callee == nil || node.Callee.Type != parser.NodeIdentifier || node.Callee.Name != "require" {
		return nil
	}
	if len(node.Arguments) == 0 || node.Arguments[0].Type != parser.NodeStringLiteral {
		return nil
	}

	source := extractSourceValue(node.Arguments[0])
	if source == "" {
		return nil
	}

	return &domain.Import{
		Source:     source,
		ImportType: domain.ImportTypeRequire,
		Location:   nodeToSourceLocation(node),
	}
}

// categorizeImports resolves each import and files it into the internal,
// external, or unresolved bucket
func (a *SourceAnalyzer) categorizeImports(analysis *domain.FileAnalysis, imports []*domain.Import, resolve ResolveHook) {
	for _, imp := range imports {
		resolved := resolve(imp.Source)

		switch resolved.Status {
		case domain.ResolutionInternal:
			analysis.Internal = append(analysis.Internal, internalEdge(imp, resolved.Path))

		case domain.ResolutionExternal:
			analysis.External = appendUnique(analysis.External, resolved.Path)

		case domain.ResolutionBuiltin, domain.ResolutionIgnored:
			// Never reported

		case domain.ResolutionFailed:
			analysis.Unresolved = append(analysis.Unresolved, domain.UnresolvedImport{
				Specifier: imp.Source,
				Location:  imp.Location,
			})
		}
	}
}

// internalEdge builds the graph edge for one resolved internal import
func internalEdge(imp *domain.Import, path string) domain.InternalImport {
	edge := domain.InternalImport{
		Path:       path,
		IsTypeOnly: imp.IsTypeOnly,
	}

	switch imp.ImportType {
	case domain.ImportTypeNamespace:
		edge.Namespace = true
	case domain.ImportTypeSideEffect, domain.ImportTypeDynamic, domain.ImportTypeRequire:
		// Dynamic and require imports bind no statically known names;
		// treat like side effects for usage purposes
		edge.SideEffect = true
	}

	for _, spec := range imp.Specifiers {
		edge.Names = append(edge.Names, spec.Imported)
	}

	return edge
}

// extractScripts finds tagged-template invocations of imported shell helpers
func (a *SourceAnalyzer) extractScripts(ast *parser.Node, analysis *domain.FileAnalysis, imports []*domain.Import) {
	// Local bindings of shell-execution helpers, tracked by import analysis
	helpers := make(map[string]bool)
	for _, imp := range imports {
		if !shellHelperPackages[imp.Source] {
			continue
		}
		for _, spec := range imp.Specifiers {
			if shellHelperNames[spec.Imported] || spec.Imported == "default" {
				helpers[spec.Local] = true
			}
		}
	}
	if len(helpers) == 0 {
		return
	}

	visited := make(map[string]bool)
	ast.Walk(func(node *parser.Node) bool {
		if node.Type != parser.NodeCallExpression {
			return true
		}
		key := nodeLocationKey(node)
		if visited[key] {
			return true
		}
		visited[key] = true

		if node.Callee == nil || !helpers[node.Callee.Name] || len(node.Arguments) != 1 {
			return true
		}
		arg := node.Arguments[0]
		if arg.Type != parser.NodeTemplateLiteral {
			return true
		}

		command := strings.Trim(arg.Raw, "`")
		if strings.Contains(command, "${") {
			// Substitutions make the command line unknowable statically
			return true
		}

		analysis.Scripts = append(analysis.Scripts, domain.ScriptFragment{
			Command:  strings.TrimSpace(command),
			Helper:   node.Callee.Name,
			Location: nodeToSourceLocation(node),
		})
		return true
	})
}

// extractExports walks the AST and extracts all export declarations
func (a *SourceAnalyzer) extractExports(ast *parser.Node, analysis *domain.FileAnalysis, lines []string, resolve ResolveHook) {
	visited := make(map[string]bool)

	ast.Walk(func(node *parser.Node) bool {
		key := nodeLocationKey(node)

		switch node.Type {
		case parser.NodeExportNamedDeclaration:
			if !visited[key] {
				visited[key] = true
				a.processNamedExport(node, analysis, lines, resolve)
			}
			return false

		case parser.NodeExportDefaultDeclaration:
			if !visited[key] {
				visited[key] = true
				a.processDefaultExport(node, analysis, lines)
			}
			return false

		case parser.NodeExportAllDeclaration:
			if !visited[key] {
				visited[key] = true
				a.processExportAll(node, analysis, lines, resolve)
			}
			return false

		case parser.NodeAssignmentExpression:
			if !visited[key] {
				visited[key] = true
				a.processCommonJSExport(node, analysis, lines)
			}
		}
		return true
	})
}

// addExport records one export, keeping the first declaration on name clashes
func (a *SourceAnalyzer) addExport(analysis *domain.FileAnalysis, exp *domain.Export) {
	if exp.Name == "" {
		return
	}
	if _, exists := analysis.Exports[exp.Name]; exists {
		return
	}
	analysis.Exports[exp.Name] = exp
}

// processNamedExport handles export declarations, export clauses, and named
// re-exports
func (a *SourceAnalyzer) processNamedExport(node *parser.Node, analysis *domain.FileAnalysis, lines []string, resolve ResolveHook) {
	location := nodeToSourceLocation(node)
	location.FilePath = analysis.FilePath
	tags := scanTags(lines, node.Location.StartLine)
	typeOnly := node.Kind == "type"

	source := extractSourceValue(node.Source)
	if source != "" {
		a.recordReExportEdge(node, analysis, source, resolve)
	}

	if decl := node.Declaration; decl != nil {
		names := declaredNames(decl)
		for _, name := range names {
			exp := &domain.Export{
				Name:        name,
				Kind:        domain.ExportKindNamed,
				Declaration: string(decl.Type),
				IsTypeOnly:  typeOnly || decl.IsTypeDeclaration(),
				Tags:        tags,
				Location:    location,
			}
			for _, member := range decl.Members {
				exp.Members = append(exp.Members, member.Name)
			}
			a.addExport(analysis, exp)
		}
	}

	for _, spec := range node.Specifiers {
		exp := &domain.Export{
			Name:       spec.Name,
			Kind:       domain.ExportKindNamed,
			Source:     source,
			IsReExport: source != "",
			IsTypeOnly: typeOnly || spec.Kind == "type",
			Tags:       tags,
			Location:   location,
		}
		a.addExport(analysis, exp)
	}
}

// processDefaultExport handles export default declarations
func (a *SourceAnalyzer) processDefaultExport(node *parser.Node, analysis *domain.FileAnalysis, lines []string) {
	location := nodeToSourceLocation(node)
	location.FilePath = analysis.FilePath

	exp := &domain.Export{
		Name:     "default",
		Kind:     domain.ExportKindDefault,
		Tags:     scanTags(lines, node.Location.StartLine),
		Location: location,
	}
	if node.Declaration != nil {
		exp.Declaration = string(node.Declaration.Type)
		for _, member := range node.Declaration.Members {
			exp.Members = append(exp.Members, member.Name)
		}
	}
	a.addExport(analysis, exp)
}

// processExportAll handles export * and export * as ns re-exports
func (a *SourceAnalyzer) processExportAll(node *parser.Node, analysis *domain.FileAnalysis, lines []string, resolve ResolveHook) {
	source := extractSourceValue(node.Source)
	if source == "" {
		return
	}

	a.recordReExportEdge(node, analysis, source, resolve)

	// export * as ns surfaces a named symbol; a bare export * only forwards
	if node.Name != "" {
		location := nodeToSourceLocation(node)
		location.FilePath = analysis.FilePath
		a.addExport(analysis, &domain.Export{
			Name:       node.Name,
			Kind:       domain.ExportKindNamespace,
			Source:     source,
			IsReExport: true,
			Tags:       scanTags(lines, node.Location.StartLine),
			Location:   location,
		})
	}
}

// recordReExportEdge resolves a re-export source and files the edge
func (a *SourceAnalyzer) recordReExportEdge(node *parser.Node, analysis *domain.FileAnalysis, source string, resolve ResolveHook) {
	resolved := resolve(source)
	switch resolved.Status {
	case domain.ResolutionInternal:
		edge := domain.InternalImport{
			Path:       resolved.Path,
			IsReExport: true,
			IsTypeOnly: node.Kind == "type",
		}
		if node.Type == parser.NodeExportAllDeclaration {
			edge.Namespace = true
		} else {
			for _, spec := range node.Specifiers {
				name := spec.Name
				if spec.Local != nil {
					name = spec.Local.Name
				}
				edge.Names = append(edge.Names, name)
			}
		}
		analysis.Internal = append(analysis.Internal, edge)

	case domain.ResolutionExternal:
		analysis.External = appendUnique(analysis.External, resolved.Path)

	case domain.ResolutionFailed:
		analysis.Unresolved = append(analysis.Unresolved, domain.UnresolvedImport{
			Specifier: source,
			Location:  nodeToSourceLocation(node),
		})
	}
}

// processCommonJSExport checks for module.exports and exports.name
// assignments
func (a *SourceAnalyzer) processCommonJSExport(node *parser.Node, analysis *domain.FileAnalysis, lines []string) {
	left := node.Left
	if left == nil || left.Type != parser.NodeMemberExpression ||
		left.Object == nil || left.Property == nil {
		return
	}

	objName := left.Object.Name
	propName := left.Property.Name
	location := nodeToSourceLocation(node)
	location.FilePath = analysis.FilePath
	tags := scanTags(lines, node.Location.StartLine)

	if objName == "module" && propName == "exports" {
		a.addExport(analysis, &domain.Export{
			Name:        "default",
			Kind:        domain.ExportKindDefault,
			Declaration: "module.exports",
			Tags:        tags,
			Location:    location,
		})
		return
	}

	if objName == "exports" && propName != "" {
		a.addExport(analysis, &domain.Export{
			Name:     propName,
			Kind:     domain.ExportKindNamed,
			Tags:     tags,
			Location: location,
		})
	}

	// module.exports.name = ...
	if left.Object.Type == parser.NodeMemberExpression &&
		left.Object.Object != nil && left.Object.Object.Name == "module" &&
		left.Object.Property != nil && left.Object.Property.Name == "exports" &&
		propName != "" {
		a.addExport(analysis, &domain.Export{
			Name:     propName,
			Kind:     domain.ExportKindNamed,
			Tags:     tags,
			Location: location,
		})
	}
}

// declaredNames lists the symbol names a declaration introduces
func declaredNames(decl *parser.Node) []string {
	if decl.Type == parser.NodeVariableDeclaration {
		var names []string
		for _, declarator := range decl.Children {
			if declarator.Name != "" {
				names = append(names, declarator.Name)
			}
		}
		return names
	}
	if decl.Name != "" {
		return []string{decl.Name}
	}
	return nil
}

// collectIdentifiers records every identifier referenced outside import
// declarations, feeding the usage oracle's reference index
func (a *SourceAnalyzer) collectIdentifiers(ast *parser.Node, analysis *domain.FileAnalysis) {
	ast.Walk(func(node *parser.Node) bool {
		if node.Type == parser.NodeImportDeclaration {
			return false
		}
		if node.Type == parser.NodeIdentifier && node.Name != "" {
			analysis.Identifiers[node.Name] = true
		}
		return true
	})
}

// scanTags reads comment lines directly above a declaration and collects
// @tag annotations (@public, @internal, @alias)
func scanTags(lines []string, startLine int) []string {
	var tags []string

	// startLine is 1-based; the comment block ends on the line above
	for i := startLine - 2; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])

		isComment := strings.HasPrefix(line, "//") || strings.HasPrefix(line, "*") ||
			strings.HasPrefix(line, "/*") || strings.HasPrefix(line, "/**") || line == "*/"
		if !isComment {
			break
		}

		for _, field := range strings.Fields(line) {
			if strings.HasPrefix(field, "@") && len(field) > 1 {
				tags = append(tags, strings.TrimPrefix(field, "@"))
			}
		}
	}

	return tags
}

// extractSourceValue extracts the string value from a source node
func extractSourceValue(node *parser.Node) string {
	if node == nil {
		return ""
	}

	raw := node.Raw
	if raw == "" {
		return node.Name
	}
	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') ||
			(first == '`' && last == '`') {
			return raw[1 : len(raw)-1]
		}
	}
	return raw
}

func appendUnique(list []string, value string) []string {
	for _, v := range list {
		if v == value {
			return list
		}
	}
	return append(list, value)
}

// nodeToSourceLocation converts a parser location to a domain location
func nodeToSourceLocation(node *parser.Node) domain.SourceLocation {
	return domain.SourceLocation{
		FilePath:  node.Location.File,
		StartLine: node.Location.StartLine,
		EndLine:   node.Location.EndLine,
		StartCol:  node.Location.StartCol,
		EndCol:    node.Location.EndCol,
	}
}
