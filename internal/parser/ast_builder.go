package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// ASTBuilder builds our internal AST from the tree-sitter CST, keeping only
// the structure module analysis needs: imports, exports, declarations, calls,
// assignments, and literals. Everything else is preserved generically so the
// identifier walk still sees every reference.
type ASTBuilder struct {
	filename string
	source   []byte
}

// NewASTBuilder creates a new AST builder
func NewASTBuilder(filename string, source []byte) *ASTBuilder {
	return &ASTBuilder{
		filename: filename,
		source:   source,
	}
}

// Build builds the AST from a tree-sitter node
func (b *ASTBuilder) Build(tsNode *sitter.Node) *Node {
	if tsNode == nil {
		return nil
	}
	return b.buildNode(tsNode)
}

// buildNode converts a tree-sitter node to our internal AST node
func (b *ASTBuilder) buildNode(tsNode *sitter.Node) *Node {
	if tsNode == nil {
		return nil
	}

	switch tsNode.Type() {
	case "program":
		return b.buildProgram(tsNode)
	case "import_statement":
		return b.buildImportStatement(tsNode)
	case "export_statement":
		return b.buildExportStatement(tsNode)
	case "function_declaration", "function":
		return b.buildNamedDeclaration(tsNode, NodeFunction)
	case "generator_function_declaration":
		return b.buildNamedDeclaration(tsNode, NodeGeneratorFunction)
	case "class_declaration":
		return b.buildClassDeclaration(tsNode)
	case "interface_declaration":
		return b.buildNamedDeclaration(tsNode, NodeInterfaceDeclaration)
	case "type_alias_declaration":
		return b.buildNamedDeclaration(tsNode, NodeTypeAlias)
	case "enum_declaration":
		return b.buildEnumDeclaration(tsNode)
	case "variable_declaration", "lexical_declaration":
		return b.buildVariableDeclaration(tsNode)
	case "variable_declarator":
		return b.buildVariableDeclarator(tsNode)
	case "expression_statement":
		return b.buildExpressionStatement(tsNode)
	case "call_expression":
		return b.buildCallExpression(tsNode)
	case "member_expression":
		return b.buildMemberExpression(tsNode)
	case "assignment_expression":
		return b.buildAssignmentExpression(tsNode)
	case "identifier", "property_identifier", "shorthand_property_identifier",
		"shorthand_property_identifier_pattern", "type_identifier":
		return b.buildIdentifier(tsNode)
	case "string":
		return b.buildStringLiteral(tsNode)
	case "number":
		return b.buildNumberLiteral(tsNode)
	case "template_string":
		return b.buildTemplateString(tsNode)
	case "statement_block":
		return b.buildBlockStatement(tsNode)
	default:
		// Unknown kinds are kept generically; the identifier walk still
		// descends into them, extraction just never matches on them.
		return b.buildGenericNode(tsNode)
	}
}

func (b *ASTBuilder) buildProgram(tsNode *sitter.Node) *Node {
	node := NewNode(NodeProgram)
	node.Location = b.getLocation(tsNode)

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && !b.isTrivia(child) {
			childNode := b.buildNode(child)
			if childNode != nil {
				node.Body = append(node.Body, childNode)
			}
		}
	}

	return node
}

// buildNamedDeclaration builds declarations that only need a name recorded
func (b *ASTBuilder) buildNamedDeclaration(tsNode *sitter.Node, kind NodeType) *Node {
	node := NewNode(kind)
	node.Location = b.getLocation(tsNode)

	if nameNode := b.getChildByFieldName(tsNode, "name"); nameNode != nil {
		node.Name = nameNode.Content(b.source)
	}
	if bodyNode := b.getChildByFieldName(tsNode, "body"); bodyNode != nil {
		if bodyAST := b.buildNode(bodyNode); bodyAST != nil {
			node.Body = bodyAST.Body
			if len(node.Body) == 0 {
				node.Body = bodyAST.Children
			}
		}
	}

	return node
}

func (b *ASTBuilder) buildClassDeclaration(tsNode *sitter.Node) *Node {
	node := NewNode(NodeClass)
	node.Location = b.getLocation(tsNode)

	if nameNode := b.getChildByFieldName(tsNode, "name"); nameNode != nil {
		node.Name = nameNode.Content(b.source)
	}

	// Collect member names from the class body for member-level usage checks
	if bodyNode := b.getChildByFieldName(tsNode, "body"); bodyNode != nil {
		for i := 0; i < int(bodyNode.ChildCount()); i++ {
			child := bodyNode.Child(i)
			if child == nil {
				continue
			}
			switch child.Type() {
			case "method_definition":
				member := NewNode(NodeMethodDefinition)
				member.Location = b.getLocation(child)
				if nameNode := b.getChildByFieldName(child, "name"); nameNode != nil {
					member.Name = nameNode.Content(b.source)
				}
				// Method bodies still carry identifier references
				if mb := b.getChildByFieldName(child, "body"); mb != nil {
					if bodyAST := b.buildNode(mb); bodyAST != nil {
						member.Body = bodyAST.Body
					}
				}
				node.Members = append(node.Members, member)
			case "field_definition", "public_field_definition":
				member := NewNode(NodeFieldDefinition)
				member.Location = b.getLocation(child)
				if propNode := b.getChildByFieldName(child, "property"); propNode != nil {
					member.Name = propNode.Content(b.source)
				}
				if valNode := b.getChildByFieldName(child, "value"); valNode != nil {
					member.Right = b.buildNode(valNode)
				}
				node.Members = append(node.Members, member)
			}
		}
	}

	return node
}

func (b *ASTBuilder) buildEnumDeclaration(tsNode *sitter.Node) *Node {
	node := NewNode(NodeEnumDeclaration)
	node.Location = b.getLocation(tsNode)

	if nameNode := b.getChildByFieldName(tsNode, "name"); nameNode != nil {
		node.Name = nameNode.Content(b.source)
	}

	if bodyNode := b.getChildByFieldName(tsNode, "body"); bodyNode != nil {
		for i := 0; i < int(bodyNode.ChildCount()); i++ {
			child := bodyNode.Child(i)
			if child == nil {
				continue
			}
			switch child.Type() {
			case "property_identifier":
				member := NewNode(NodeFieldDefinition)
				member.Location = b.getLocation(child)
				member.Name = child.Content(b.source)
				node.Members = append(node.Members, member)
			case "enum_assignment":
				member := NewNode(NodeFieldDefinition)
				member.Location = b.getLocation(child)
				if nameNode := b.getChildByFieldName(child, "name"); nameNode != nil {
					member.Name = nameNode.Content(b.source)
				}
				node.Members = append(node.Members, member)
			}
		}
	}

	return node
}

func (b *ASTBuilder) buildVariableDeclaration(tsNode *sitter.Node) *Node {
	node := NewNode(NodeVariableDeclaration)
	node.Location = b.getLocation(tsNode)

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "var", "let", "const":
			node.Kind = child.Type()
		case "variable_declarator":
			decl := b.buildVariableDeclarator(child)
			if decl != nil {
				node.Children = append(node.Children, decl)
				if node.Name == "" {
					node.Name = decl.Name
				}
			}
		}
	}

	return node
}

func (b *ASTBuilder) buildVariableDeclarator(tsNode *sitter.Node) *Node {
	node := NewNode(NodeVariableDeclarator)
	node.Location = b.getLocation(tsNode)

	if nameNode := b.getChildByFieldName(tsNode, "name"); nameNode != nil {
		if nameNode.Type() == "identifier" {
			node.Name = nameNode.Content(b.source)
		} else {
			// Destructuring patterns keep their identifiers walkable
			node.Left = b.buildNode(nameNode)
		}
	}
	if valueNode := b.getChildByFieldName(tsNode, "value"); valueNode != nil {
		node.Right = b.buildNode(valueNode)
	}

	return node
}

func (b *ASTBuilder) buildExpressionStatement(tsNode *sitter.Node) *Node {
	node := NewNode(NodeExpressionStatement)
	node.Location = b.getLocation(tsNode)

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && !b.isTrivia(child) && child.Type() != ";" {
			childNode := b.buildNode(child)
			if childNode != nil {
				node.AddChild(childNode)
			}
		}
	}

	return node
}

func (b *ASTBuilder) buildCallExpression(tsNode *sitter.Node) *Node {
	node := NewNode(NodeCallExpression)
	node.Location = b.getLocation(tsNode)

	if fnNode := b.getChildByFieldName(tsNode, "function"); fnNode != nil {
		if fnNode.Type() == "import" {
			// Dynamic import: import('module')
			callee := NewNode(NodeIdentifier)
			callee.Location = b.getLocation(fnNode)
			callee.Name = "import"
			node.Callee = callee
		} else {
			node.Callee = b.buildNode(fnNode)
		}
	}

	if argsNode := b.getChildByFieldName(tsNode, "arguments"); argsNode != nil {
		if argsNode.Type() == "template_string" {
			// Tagged template: helper`command`
			node.Arguments = append(node.Arguments, b.buildTemplateString(argsNode))
		} else {
			for i := 0; i < int(argsNode.ChildCount()); i++ {
				child := argsNode.Child(i)
				if child != nil && !b.isTrivia(child) &&
					child.Type() != "(" && child.Type() != ")" && child.Type() != "," {
					argNode := b.buildNode(child)
					if argNode != nil {
						node.Arguments = append(node.Arguments, argNode)
					}
				}
			}
		}
	}

	return node
}

func (b *ASTBuilder) buildMemberExpression(tsNode *sitter.Node) *Node {
	node := NewNode(NodeMemberExpression)
	node.Location = b.getLocation(tsNode)

	if objNode := b.getChildByFieldName(tsNode, "object"); objNode != nil {
		node.Object = b.buildNode(objNode)
	}
	if propNode := b.getChildByFieldName(tsNode, "property"); propNode != nil {
		node.Property = b.buildNode(propNode)
	}

	return node
}

func (b *ASTBuilder) buildAssignmentExpression(tsNode *sitter.Node) *Node {
	node := NewNode(NodeAssignmentExpression)
	node.Location = b.getLocation(tsNode)

	if leftNode := b.getChildByFieldName(tsNode, "left"); leftNode != nil {
		node.Left = b.buildNode(leftNode)
	}
	if rightNode := b.getChildByFieldName(tsNode, "right"); rightNode != nil {
		node.Right = b.buildNode(rightNode)
	}

	return node
}

func (b *ASTBuilder) buildIdentifier(tsNode *sitter.Node) *Node {
	node := NewNode(NodeIdentifier)
	node.Location = b.getLocation(tsNode)
	node.Name = tsNode.Content(b.source)
	return node
}

func (b *ASTBuilder) buildStringLiteral(tsNode *sitter.Node) *Node {
	node := NewNode(NodeStringLiteral)
	node.Location = b.getLocation(tsNode)
	node.Raw = tsNode.Content(b.source)
	return node
}

func (b *ASTBuilder) buildNumberLiteral(tsNode *sitter.Node) *Node {
	node := NewNode(NodeNumberLiteral)
	node.Location = b.getLocation(tsNode)
	node.Raw = tsNode.Content(b.source)
	return node
}

func (b *ASTBuilder) buildTemplateString(tsNode *sitter.Node) *Node {
	node := NewNode(NodeTemplateLiteral)
	node.Location = b.getLocation(tsNode)
	node.Raw = tsNode.Content(b.source)

	// Substitution expressions still carry identifier references
	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && child.Type() == "template_substitution" {
			childNode := b.buildGenericNode(child)
			if childNode != nil {
				node.AddChild(childNode)
			}
		}
	}

	return node
}

func (b *ASTBuilder) buildImportStatement(tsNode *sitter.Node) *Node {
	node := NewNode(NodeImportDeclaration)
	node.Location = b.getLocation(tsNode)

	if sourceNode := b.getChildByFieldName(tsNode, "source"); sourceNode != nil {
		node.Source = b.buildNode(sourceNode)
	}

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child == nil {
			continue
		}

		switch child.Type() {
		case "type":
			// import type { X } from 'y'
			node.Kind = "type"

		case "import_clause":
			b.extractImportClause(child, node)

		case "namespace_import":
			node.Specifiers = append(node.Specifiers, b.buildNamespaceImport(child))

		case "named_imports":
			b.extractNamedImports(child, node)
		}
	}

	return node
}

// extractImportClause extracts specifiers from an import_clause node
func (b *ASTBuilder) extractImportClause(clauseNode *sitter.Node, node *Node) {
	for i := 0; i < int(clauseNode.ChildCount()); i++ {
		child := clauseNode.Child(i)
		if child == nil {
			continue
		}

		switch child.Type() {
		case "identifier":
			// Default import: import React from 'react'
			specNode := NewNode(NodeImportDefaultSpecifier)
			specNode.Location = b.getLocation(child)
			specNode.Name = child.Content(b.source)
			node.Specifiers = append(node.Specifiers, specNode)

		case "namespace_import":
			node.Specifiers = append(node.Specifiers, b.buildNamespaceImport(child))

		case "named_imports":
			b.extractNamedImports(child, node)
		}
	}
}

func (b *ASTBuilder) buildNamespaceImport(tsNode *sitter.Node) *Node {
	specNode := NewNode(NodeImportNamespaceSpecifier)
	specNode.Location = b.getLocation(tsNode)
	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && child.Type() == "identifier" {
			specNode.Name = child.Content(b.source)
		}
	}
	return specNode
}

func (b *ASTBuilder) extractNamedImports(namedNode *sitter.Node, node *Node) {
	for i := 0; i < int(namedNode.ChildCount()); i++ {
		importSpec := namedNode.Child(i)
		if importSpec != nil && importSpec.Type() == "import_specifier" {
			specNode := b.buildImportSpecifier(importSpec)
			if specNode != nil {
				node.Specifiers = append(node.Specifiers, specNode)
			}
		}
	}
}

// buildImportSpecifier builds an import specifier node
func (b *ASTBuilder) buildImportSpecifier(tsNode *sitter.Node) *Node {
	specNode := NewNode(NodeImportSpecifier)
	specNode.Location = b.getLocation(tsNode)

	// An import specifier can be: name, name as alias, or type name
	var identifiers []*sitter.Node
	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "identifier", "type_identifier":
			identifiers = append(identifiers, child)
		case "type":
			// inline type specifier: import { type Foo } from 'bar'
			specNode.Kind = "type"
		}
	}

	if len(identifiers) == 1 {
		// import { foo } - same name for imported and local
		specNode.Name = identifiers[0].Content(b.source)
		specNode.Imported = NewNode(NodeIdentifier)
		specNode.Imported.Name = specNode.Name
	} else if len(identifiers) == 2 {
		// import { foo as bar } - first is imported, second is local
		specNode.Imported = NewNode(NodeIdentifier)
		specNode.Imported.Name = identifiers[0].Content(b.source)
		specNode.Name = identifiers[1].Content(b.source)
	}

	return specNode
}

func (b *ASTBuilder) buildExportStatement(tsNode *sitter.Node) *Node {
	node := NewNode(NodeExportNamedDeclaration)
	node.Location = b.getLocation(tsNode)

	hasDefault := false
	hasWildcard := false

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "default":
			hasDefault = true
		case "*":
			hasWildcard = true
		case "type":
			// export type { X } / export type X = ...
			node.Kind = "type"
		case "export_clause":
			b.extractExportClause(child, node)
		case "namespace_export":
			// export * as ns from 'module'
			hasWildcard = true
			for j := 0; j < int(child.ChildCount()); j++ {
				grandchild := child.Child(j)
				if grandchild != nil &&
					(grandchild.Type() == "identifier" || grandchild.Type() == "module_export_name") {
					node.Name = grandchild.Content(b.source)
				}
			}
		}
	}

	if hasDefault {
		node.Type = NodeExportDefaultDeclaration
	} else if hasWildcard {
		node.Type = NodeExportAllDeclaration
	}

	if declNode := b.getChildByFieldName(tsNode, "declaration"); declNode != nil {
		node.Declaration = b.buildNode(declNode)
	}
	if valueNode := b.getChildByFieldName(tsNode, "value"); valueNode != nil {
		node.Declaration = b.buildNode(valueNode)
	}
	if sourceNode := b.getChildByFieldName(tsNode, "source"); sourceNode != nil {
		node.Source = b.buildNode(sourceNode)
	}

	return node
}

// extractExportClause extracts specifiers from an export_clause node
func (b *ASTBuilder) extractExportClause(clauseNode *sitter.Node, node *Node) {
	for i := 0; i < int(clauseNode.ChildCount()); i++ {
		child := clauseNode.Child(i)
		if child == nil || child.Type() != "export_specifier" {
			continue
		}

		specNode := NewNode(NodeExportSpecifier)
		specNode.Location = b.getLocation(child)

		var identifiers []*sitter.Node
		for j := 0; j < int(child.ChildCount()); j++ {
			grandchild := child.Child(j)
			if grandchild == nil {
				continue
			}
			switch grandchild.Type() {
			case "identifier", "type_identifier", "module_export_name":
				identifiers = append(identifiers, grandchild)
			case "type":
				specNode.Kind = "type"
			}
		}

		if len(identifiers) == 1 {
			// export { foo } - same name
			specNode.Name = identifiers[0].Content(b.source)
			specNode.Local = NewNode(NodeIdentifier)
			specNode.Local.Name = specNode.Name
		} else if len(identifiers) == 2 {
			// export { foo as bar } - first is local, second is exported
			specNode.Local = NewNode(NodeIdentifier)
			specNode.Local.Name = identifiers[0].Content(b.source)
			specNode.Name = identifiers[1].Content(b.source)
		}

		node.Specifiers = append(node.Specifiers, specNode)
	}
}

func (b *ASTBuilder) buildBlockStatement(tsNode *sitter.Node) *Node {
	node := NewNode(NodeBlockStatement)
	node.Location = b.getLocation(tsNode)

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && !b.isTrivia(child) && child.Type() != "{" && child.Type() != "}" {
			childNode := b.buildNode(child)
			if childNode != nil {
				node.Body = append(node.Body, childNode)
			}
		}
	}

	return node
}

// buildGenericNode builds a generic node for unknown types
func (b *ASTBuilder) buildGenericNode(tsNode *sitter.Node) *Node {
	node := NewNode(NodeType(tsNode.Type()))
	node.Location = b.getLocation(tsNode)

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && !b.isTrivia(child) && child.IsNamed() {
			childNode := b.buildNode(child)
			if childNode != nil {
				node.AddChild(childNode)
			}
		}
	}

	return node
}

// Helper methods

// getLocation extracts location information from a tree-sitter node
func (b *ASTBuilder) getLocation(tsNode *sitter.Node) Location {
	return Location{
		File:      b.filename,
		StartLine: int(tsNode.StartPoint().Row) + 1,
		StartCol:  int(tsNode.StartPoint().Column),
		EndLine:   int(tsNode.EndPoint().Row) + 1,
		EndCol:    int(tsNode.EndPoint().Column),
	}
}

// getChildByFieldName gets a child node by field name
func (b *ASTBuilder) getChildByFieldName(tsNode *sitter.Node, fieldName string) *sitter.Node {
	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && tsNode.FieldNameForChild(i) == fieldName {
			return child
		}
	}
	return nil
}

// isTrivia checks if a node is trivia (whitespace, comments, etc.)
func (b *ASTBuilder) isTrivia(tsNode *sitter.Node) bool {
	nodeType := tsNode.Type()
	return nodeType == "comment" ||
		nodeType == "line_comment" ||
		nodeType == "block_comment" ||
		nodeType == ""
}
