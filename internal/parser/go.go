package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// newGoParser creates a tree-sitter parser configured for Go.
func newGoParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	return parser
}

// goDeclarationKinds maps Go tree-sitter node types to declaration kinds.
var goDeclarationKinds = map[string]string{
	"function_declaration": "function",
	"method_declaration":   "method",
	"type_spec":            "type",
	"const_spec":           "constant",
}

// goReceiverType extracts the receiver's type name from a method
// declaration, stripping the parameter name and pointer marker.
func goReceiverType(node *sitter.Node, source []byte) string {
	receiver := node.ChildByFieldName("receiver")
	if receiver == nil {
		return ""
	}
	text := strings.Trim(receiver.Content(source), "()")
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	typ := fields[len(fields)-1]
	typ = strings.TrimPrefix(typ, "*")
	if i := strings.IndexByte(typ, '['); i >= 0 {
		typ = typ[:i]
	}
	return typ
}
