package parser

import "fmt"

// NodeType represents the type of AST node
type NodeType string

// JavaScript/TypeScript AST node types relevant to module analysis
const (
	// Program and structure
	NodeProgram NodeType = "Program"

	// Declarations
	NodeFunction            NodeType = "FunctionDeclaration"
	NodeAsyncFunction       NodeType = "AsyncFunctionDeclaration"
	NodeGeneratorFunction   NodeType = "GeneratorFunctionDeclaration"
	NodeClass               NodeType = "ClassDeclaration"
	NodeMethodDefinition    NodeType = "MethodDefinition"
	NodeFieldDefinition     NodeType = "FieldDefinition"
	NodeVariableDeclaration NodeType = "VariableDeclaration"
	NodeVariableDeclarator  NodeType = "VariableDeclarator"
	NodeIdentifier          NodeType = "Identifier"

	// Expressions
	NodeCallExpression       NodeType = "CallExpression"
	NodeMemberExpression     NodeType = "MemberExpression"
	NodeAssignmentExpression NodeType = "AssignmentExpression"
	NodeTemplateLiteral      NodeType = "TemplateLiteral"
	NodeExpressionStatement  NodeType = "ExpressionStatement"

	// Literals
	NodeLiteral       NodeType = "Literal"
	NodeStringLiteral NodeType = "StringLiteral"
	NodeNumberLiteral NodeType = "NumberLiteral"

	// Module system (ESM)
	NodeImportDeclaration        NodeType = "ImportDeclaration"
	NodeImportSpecifier          NodeType = "ImportSpecifier"
	NodeImportDefaultSpecifier   NodeType = "ImportDefaultSpecifier"
	NodeImportNamespaceSpecifier NodeType = "ImportNamespaceSpecifier"
	NodeExportNamedDeclaration   NodeType = "ExportNamedDeclaration"
	NodeExportDefaultDeclaration NodeType = "ExportDefaultDeclaration"
	NodeExportAllDeclaration     NodeType = "ExportAllDeclaration"
	NodeExportSpecifier          NodeType = "ExportSpecifier"

	// TypeScript-specific nodes
	NodeInterfaceDeclaration NodeType = "InterfaceDeclaration"
	NodeTypeAlias            NodeType = "TypeAliasDeclaration"
	NodeEnumDeclaration      NodeType = "EnumDeclaration"

	// Other structure
	NodeBlockStatement NodeType = "StatementBlock"
)

// Location represents the position of a node in the source code
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// String returns a string representation of the location
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.StartLine, l.StartCol)
}

// Node represents an AST node. Fields beyond Type/Children/Location are
// populated only for the node kinds that use them.
type Node struct {
	Type     NodeType
	Children []*Node
	Location Location

	// Name holds identifier/function/class/variable names
	Name string

	// Kind holds declaration kinds (var, let, const) and "type" for
	// TypeScript type-only import/export statements
	Kind string

	// Expression fields
	Left      *Node
	Right     *Node
	Arguments []*Node
	Callee    *Node
	Object    *Node
	Property  *Node

	// Import/Export fields
	Source      *Node
	Specifiers  []*Node
	Declaration *Node
	Imported    *Node
	Local       *Node

	// Body holds statement lists for program/block/class bodies
	Body []*Node

	// Members holds method and field names for class/enum declarations
	Members []*Node

	// Raw is the literal source text for literals and templates
	Raw string
}

// NewNode creates a new AST node
func NewNode(nodeType NodeType) *Node {
	return &Node{Type: nodeType}
}

// AddChild adds a child node
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	n.Children = append(n.Children, child)
}

// Walk traverses the AST depth-first and calls the visitor for each node.
// If the visitor returns false, traversal of that branch is stopped.
func (n *Node) Walk(visitor func(*Node) bool) {
	if n == nil {
		return
	}

	if !visitor(n) {
		return
	}

	for _, child := range n.Children {
		child.Walk(visitor)
	}
	for _, stmt := range n.Body {
		stmt.Walk(visitor)
	}
	for _, arg := range n.Arguments {
		arg.Walk(visitor)
	}
	for _, spec := range n.Specifiers {
		spec.Walk(visitor)
	}
	for _, member := range n.Members {
		member.Walk(visitor)
	}

	if n.Left != nil {
		n.Left.Walk(visitor)
	}
	if n.Right != nil {
		n.Right.Walk(visitor)
	}
	if n.Callee != nil {
		n.Callee.Walk(visitor)
	}
	if n.Object != nil {
		n.Object.Walk(visitor)
	}
	if n.Property != nil {
		n.Property.Walk(visitor)
	}
	if n.Source != nil {
		n.Source.Walk(visitor)
	}
	if n.Declaration != nil {
		n.Declaration.Walk(visitor)
	}
}

// String returns a string representation of the node
func (n *Node) String() string {
	if n.Name != "" {
		return fmt.Sprintf("%s(%s) at %s", n.Type, n.Name, n.Location)
	}
	return fmt.Sprintf("%s at %s", n.Type, n.Location)
}

// IsDeclaration returns true if the node declares a named symbol
func (n *Node) IsDeclaration() bool {
	switch n.Type {
	case NodeFunction, NodeAsyncFunction, NodeGeneratorFunction, NodeClass,
		NodeVariableDeclaration, NodeInterfaceDeclaration, NodeTypeAlias,
		NodeEnumDeclaration:
		return true
	}
	return false
}

// IsTypeDeclaration returns true for TypeScript type-level declarations
func (n *Node) IsTypeDeclaration() bool {
	switch n.Type {
	case NodeInterfaceDeclaration, NodeTypeAlias:
		return true
	}
	return false
}
