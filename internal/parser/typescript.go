package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// newTypeScriptParser creates a tree-sitter parser configured for TypeScript.
func newTypeScriptParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())
	return parser
}

// newJavaScriptParser creates a tree-sitter parser configured for JavaScript.
func newJavaScriptParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	return parser
}

// typeScriptDeclarationKinds maps TypeScript/JavaScript tree-sitter node
// types to declaration kinds.
var typeScriptDeclarationKinds = map[string]string{
	"function_declaration":            "function",
	"generator_function_declaration":  "function",
	"method_definition":               "method",
	"class_declaration":               "class",
	"interface_declaration":           "interface",
	"type_alias_declaration":          "type",
	"enum_declaration":                "enum",
}

// enclosingClassName walks up from a method definition to its class or
// interface and returns that container's name.
func enclosingClassName(node *sitter.Node, source []byte) string {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		switch parent.Type() {
		case "class_declaration", "class_expression", "interface_declaration", "class_definition":
			if name := parent.ChildByFieldName("name"); name != nil {
				return name.Content(source)
			}
			return ""
		}
	}
	return ""
}
