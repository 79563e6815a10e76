package locate

import (
	"unicode"

	"github.com/hargabyte/lens/internal/source"
	"github.com/hargabyte/lens/internal/symbols"
)

// TableProvider answers definition lookups from the symbol table. It reads
// the cursor's line to find the identifier under the cursor and resolves it
// against the table, preferring a declaration in the same file.
//
// The table records declarations only, so References always comes back
// empty; reference locations need an editor-grade host.
type TableProvider struct {
	reader source.Reader
	table  symbols.Table
}

// NewTableProvider creates a Provider backed by the symbol table.
func NewTableProvider(reader source.Reader, table symbols.Table) *TableProvider {
	return &TableProvider{reader: reader, table: table}
}

// Definition resolves the identifier at the cursor to its declaration
// location, or nil when the cursor is not on a known identifier.
func (p *TableProvider) Definition(path string, line, char int) (*Location, error) {
	if p.reader == nil || p.table == nil {
		return nil, nil
	}

	text, err := p.reader.ReadRange(path, line, line+1)
	if err != nil {
		return nil, err
	}
	name := identifierAt(text, char)
	if name == "" {
		return nil, nil
	}

	decls, err := p.table.LookupIn(name, path)
	if err != nil {
		return nil, err
	}
	if len(decls) == 0 {
		decls, err = p.table.Lookup(name)
		if err != nil {
			return nil, err
		}
	}
	if len(decls) == 0 {
		return nil, nil
	}

	d := decls[0]
	return &Location{
		Path:      d.Path,
		StartLine: d.StartLine,
		EndLine:   d.EndLine,
	}, nil
}

// References always returns empty: the table has no reference index.
func (p *TableProvider) References(path string, line, char int) ([]Location, error) {
	return nil, nil
}

// identifierAt returns the identifier covering the 0-based column in one
// line of text. A cursor sitting immediately after an identifier counts as
// being on it.
func identifierAt(line string, char int) string {
	runes := []rune(line)
	pos := char
	if pos > len(runes) {
		return ""
	}
	if pos == len(runes) || !isIdentRune(runes[pos]) {
		if pos == 0 || !isIdentRune(runes[pos-1]) {
			return ""
		}
		pos--
	}

	start := pos
	for start > 0 && isIdentRune(runes[start-1]) {
		start--
	}
	end := pos
	for end < len(runes) && isIdentRune(runes[end]) {
		end++
	}

	name := string(runes[start:end])
	// Pure numbers are not identifiers.
	if name == "" || unicode.IsDigit(rune(name[0])) {
		return ""
	}
	return name
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
