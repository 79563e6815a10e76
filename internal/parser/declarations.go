package parser

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Declaration is one named declaration found in a source file. Lines are
// 0-based and EndLine is exclusive, matching the symbol table's ranges.
type Declaration struct {
	Name      string
	Kind      string
	StartLine int
	EndLine   int
	Signature string
	Receiver  string
}

// ListDeclarations parses source and returns its named declarations in
// document order. The language is chosen from the path's extension;
// unsupported extensions return an UnsupportedLanguageError.
func ListDeclarations(path string, source []byte) ([]Declaration, error) {
	ext := strings.ToLower(filepath.Ext(path))
	lang := LanguageFromExtension(ext)
	if lang == "" {
		return nil, &UnsupportedLanguageError{Language: ext}
	}

	p, err := NewParser(lang)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	result, err := p.Parse(source)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	kinds := declarationKinds(lang)

	var decls []Declaration
	result.WalkNodes(func(node *sitter.Node) bool {
		kind, ok := kinds[node.Type()]
		if !ok {
			return true
		}
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return true
		}

		decl := Declaration{
			Name:      nameNode.Content(source),
			Kind:      kind,
			StartLine: int(node.StartPoint().Row),
			EndLine:   int(node.EndPoint().Row) + 1,
			Signature: signatureLine(result.NodeText(node)),
		}

		switch {
		case lang == Go && node.Type() == "method_declaration":
			decl.Receiver = goReceiverType(node, source)
		case node.Type() == "method_definition":
			decl.Receiver = enclosingClassName(node, source)
		case lang == Python && node.Type() == "function_definition":
			if class := enclosingClassName(node, source); class != "" {
				decl.Kind = "method"
				decl.Receiver = class
			}
		}

		decls = append(decls, decl)
		return true
	})

	return decls, nil
}

// declarationKinds returns the node-type-to-kind map for a language.
func declarationKinds(lang Language) map[string]string {
	switch lang {
	case Go:
		return goDeclarationKinds
	case TypeScript, JavaScript:
		return typeScriptDeclarationKinds
	case Python:
		return pythonDeclarationKinds
	default:
		return nil
	}
}

// signatureLine reduces a declaration's text to its first line, without a
// trailing block opener.
func signatureLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "{")
	return strings.TrimSpace(text)
}
