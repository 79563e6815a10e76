// Package source reads file content for the pipeline and scans files for
// their import relationships. Reads are per-file best-effort: a missing file
// is reported with ErrNotFound and callers are expected to skip it rather
// than abort a batch.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a requested file does not exist.
var ErrNotFound = errors.New("file not found")

// Reader supplies full-file and ranged content.
type Reader interface {
	// ReadFile returns the full content of a file.
	ReadFile(path string) (string, error)

	// ReadRange returns the lines [start, end) of a file, 0-based.
	ReadRange(path string, start, end int) (string, error)
}

// FSReader is the filesystem-backed Reader. Paths are resolved against Root
// when relative.
type FSReader struct {
	Root string
}

// NewFSReader creates a Reader rooted at the given directory.
func NewFSReader(root string) *FSReader {
	return &FSReader{Root: root}
}

func (r *FSReader) resolve(path string) string {
	if filepath.IsAbs(path) || r.Root == "" {
		return path
	}
	return filepath.Join(r.Root, path)
}

// ReadFile returns the full content of a file.
func (r *FSReader) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(r.resolve(path))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// ReadRange returns the lines [start, end) of a file, 0-based. The range is
// clamped to the file's bounds.
func (r *FSReader) ReadRange(path string, start, end int) (string, error) {
	content, err := r.ReadFile(path)
	if err != nil {
		return "", err
	}
	return SliceLines(content, start, end), nil
}

// SliceLines returns the lines [start, end) of content, 0-based, clamped to
// the content's bounds.
func SliceLines(content string, start, end int) string {
	lines := strings.Split(content, "\n")
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}

// Import describes one name imported by a file and the path it resolves to.
type Import struct {
	Name string
	Path string
}

// ScanImports extracts the import set of a file from its text: the names the
// file imports and the paths they come from, best-effort across the
// supported languages. Relative specifiers are resolved against the file's
// directory; extensionless specifiers inherit the importing file's
// extension.
func ScanImports(path, content string) []Import {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".tsx", ".js", ".jsx", ".mjs":
		return scanECMAImports(path, content)
	case ".py":
		return scanPythonImports(path, content)
	case ".go":
		return scanGoImports(content)
	default:
		return nil
	}
}

// ImportNeighbors returns the distinct paths a file imports from, preserving
// first-occurrence order.
func ImportNeighbors(path, content string) []string {
	var neighbors []string
	seen := make(map[string]bool)
	for _, imp := range ScanImports(path, content) {
		if imp.Path == "" || seen[imp.Path] {
			continue
		}
		seen[imp.Path] = true
		neighbors = append(neighbors, imp.Path)
	}
	return neighbors
}

// ImportSet returns the name-to-path map of a file's imports, used by the
// dependency planner for strategy assignment.
func ImportSet(path, content string) map[string]string {
	set := make(map[string]string)
	for _, imp := range ScanImports(path, content) {
		if imp.Name == "" || imp.Path == "" {
			continue
		}
		if _, ok := set[imp.Name]; !ok {
			set[imp.Name] = imp.Path
		}
	}
	return set
}

// scanECMAImports handles `import {A, B} from './x'`, default imports, and
// `const {A} = require('./x')`.
func scanECMAImports(path, content string) []Import {
	var imports []Import
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		var names, spec string
		switch {
		case strings.HasPrefix(line, "import "):
			idx := strings.Index(line, " from ")
			if idx < 0 {
				continue
			}
			names = strings.TrimPrefix(line[:idx], "import ")
			spec = extractSpecifier(line[idx+len(" from "):])
		case strings.Contains(line, "require("):
			eq := strings.Index(line, "=")
			open := strings.Index(line, "require(")
			if eq < 0 || open < eq {
				continue
			}
			names = strings.TrimSpace(trimDeclKeyword(line[:eq]))
			spec = extractSpecifier(line[open+len("require("):])
		default:
			continue
		}

		resolved := resolveSpecifier(dir, spec, ext)
		for _, name := range splitImportNames(names) {
			imports = append(imports, Import{Name: name, Path: resolved})
		}
	}

	return imports
}

// scanPythonImports handles `from .x import A, B` and `import x`.
func scanPythonImports(path, content string) []Import {
	var imports []Import
	dir := filepath.Dir(path)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "from ") {
			rest := strings.TrimPrefix(line, "from ")
			idx := strings.Index(rest, " import ")
			if idx < 0 {
				continue
			}
			module := strings.TrimSpace(rest[:idx])
			resolved := resolvePythonModule(dir, module)
			for _, name := range strings.Split(rest[idx+len(" import "):], ",") {
				name = strings.TrimSpace(name)
				if i := strings.Index(name, " as "); i >= 0 {
					name = strings.TrimSpace(name[i+len(" as "):])
				}
				if name != "" {
					imports = append(imports, Import{Name: name, Path: resolved})
				}
			}
		} else if strings.HasPrefix(line, "import ") {
			for _, module := range strings.Split(strings.TrimPrefix(line, "import "), ",") {
				module = strings.TrimSpace(module)
				name := module
				if i := strings.Index(module, " as "); i >= 0 {
					name = strings.TrimSpace(module[i+len(" as "):])
					module = strings.TrimSpace(module[:i])
				}
				if name != "" {
					imports = append(imports, Import{Name: name, Path: resolvePythonModule(dir, module)})
				}
			}
		}
	}

	return imports
}

// scanGoImports extracts import paths from single and grouped import
// statements. The imported name is the package's base path element.
func scanGoImports(content string) []Import {
	var imports []Import
	inBlock := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(line, "import ("):
			inBlock = true
			continue
		case inBlock && line == ")":
			inBlock = false
			continue
		case strings.HasPrefix(line, "import "):
			line = strings.TrimPrefix(line, "import ")
		case !inBlock:
			continue
		}

		spec := extractSpecifier(line)
		if spec == "" {
			continue
		}
		name := filepath.Base(spec)
		if fields := strings.Fields(line); len(fields) == 2 && fields[0] != "_" {
			name = fields[0]
		}
		imports = append(imports, Import{Name: name, Path: spec})
	}

	return imports
}

// extractSpecifier pulls the quoted module specifier out of an import tail.
func extractSpecifier(s string) string {
	for _, quote := range []string{`"`, `'`, "`"} {
		start := strings.Index(s, quote)
		if start < 0 {
			continue
		}
		end := strings.Index(s[start+1:], quote)
		if end < 0 {
			continue
		}
		return s[start+1 : start+1+end]
	}
	return ""
}

// resolveSpecifier turns a relative module specifier into a file path.
// Bare (package) specifiers are returned as-is.
func resolveSpecifier(dir, spec, ext string) string {
	if spec == "" {
		return ""
	}
	if !strings.HasPrefix(spec, ".") {
		return spec
	}
	resolved := filepath.Join(dir, spec)
	if filepath.Ext(resolved) == "" {
		resolved += ext
	}
	return resolved
}

// resolvePythonModule turns a module path into a file path. Leading dots are
// relative to the importing file's directory.
func resolvePythonModule(dir, module string) string {
	if module == "" {
		return ""
	}
	if strings.HasPrefix(module, ".") {
		dots := 0
		for dots < len(module) && module[dots] == '.' {
			dots++
		}
		rel := module[dots:]
		base := dir
		for i := 1; i < dots; i++ {
			base = filepath.Dir(base)
		}
		if rel == "" {
			return ""
		}
		return filepath.Join(base, strings.ReplaceAll(rel, ".", string(filepath.Separator))+".py")
	}
	return strings.ReplaceAll(module, ".", string(filepath.Separator)) + ".py"
}

// splitImportNames splits the clause between `import` and `from` into
// individual imported names.
func splitImportNames(clause string) []string {
	clause = strings.TrimSpace(clause)
	clause = strings.Trim(clause, "{}")

	var names []string
	for _, part := range strings.Split(clause, ",") {
		name := strings.TrimSpace(strings.Trim(part, "{} "))
		if i := strings.Index(name, " as "); i >= 0 {
			name = strings.TrimSpace(name[i+len(" as "):])
		}
		if name == "" || name == "*" || strings.HasPrefix(name, "type ") {
			continue
		}
		names = append(names, name)
	}
	return names
}

// trimDeclKeyword strips a leading const/let/var from a require binding.
func trimDeclKeyword(s string) string {
	s = strings.TrimSpace(s)
	for _, kw := range []string{"const ", "let ", "var "} {
		if strings.HasPrefix(s, kw) {
			return strings.Trim(strings.TrimPrefix(s, kw), "{} ")
		}
	}
	return strings.Trim(s, "{} ")
}
