package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// newPythonParser creates a tree-sitter parser configured for Python.
func newPythonParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return parser
}

// pythonDeclarationKinds maps Python tree-sitter node types to declaration
// kinds. A function nested in a class is reported as a method by the lister.
var pythonDeclarationKinds = map[string]string{
	"function_definition": "function",
	"class_definition":    "class",
}
