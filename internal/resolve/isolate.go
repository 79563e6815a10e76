package resolve

import (
	"path/filepath"
	"regexp"
	"strings"
)

// IsolateMethod attempts to extract just one method's body from content.
// The heuristic is picked by the file's language family: indentation-scoped
// for Python-style languages, brace-counting for C-style ones. Returns ""
// when the method cannot be found; callers fall back to the whole content.
//
// Best-effort only: nested definitions and operator-heavy code can
// mis-isolate.
func IsolateMethod(path, content, method string) string {
	if method == "" || content == "" {
		return ""
	}
	if usesIndentationScoping(path) {
		return isolateIndented(content, method)
	}
	return isolateBraced(content, method)
}

// usesIndentationScoping reports whether the file's language delimits blocks
// by indentation.
func usesIndentationScoping(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyi":
		return true
	default:
		return false
	}
}

// isolateIndented extracts a def block: from the definition line until the
// first non-blank line indented at or below the definition's level.
func isolateIndented(content, method string) string {
	defPattern, err := regexp.Compile(`^(\s*)(?:async\s+)?def\s+` + regexp.QuoteMeta(method) + `\s*\(`)
	if err != nil {
		return ""
	}

	lines := strings.Split(content, "\n")
	start := -1
	indent := 0
	for i, line := range lines {
		if m := defPattern.FindStringSubmatch(line); m != nil {
			start = i
			indent = len(m[1])
			break
		}
	}
	if start < 0 {
		return ""
	}

	end := len(lines)
	for i := start + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			continue
		}
		if leadingWhitespace(line) <= indent {
			end = i
			break
		}
	}

	return strings.Join(lines[start:end], "\n")
}

// isolateBraced extracts a method by finding its declaration line and
// counting braces until the opening brace closes.
func isolateBraced(content, method string) string {
	declPattern, err := regexp.Compile(`(?m)^.*\b` + regexp.QuoteMeta(method) + `\s*(?:\(|=\s*(?:async\s*)?\()`)
	if err != nil {
		return ""
	}

	loc := declPattern.FindStringIndex(content)
	if loc == nil {
		return ""
	}

	open := strings.IndexByte(content[loc[0]:], '{')
	if open < 0 {
		return ""
	}
	open += loc[0]

	depth := 0
	for i := open; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[loc[0] : i+1]
			}
		}
	}

	// Unbalanced braces: declaration found but body never closes.
	return ""
}

// leadingWhitespace counts leading space/tab characters.
func leadingWhitespace(line string) int {
	count := 0
	for _, r := range line {
		if r != ' ' && r != '\t' {
			break
		}
		count++
	}
	return count
}
