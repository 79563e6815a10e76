// Package exclude decides which paths the indexer skips: configured glob
// patterns plus automatic detection of dependency directories via their
// marker files (package.json, go.mod, pyvenv.cfg).
package exclude

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Matcher answers skip questions for paths relative to the project root.
type Matcher struct {
	patterns []string
	autoDirs map[string]string // relative dir -> reason
}

// Directories never worth descending into, regardless of configuration.
var alwaysSkipDirs = map[string]bool{
	".git":         true,
	".lens":        true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"__pycache__":  true,
}

// NewMatcher builds a Matcher for the project root. patterns are the
// configured exclude globs; dependency directories detected under root are
// added automatically.
func NewMatcher(root string, patterns []string) *Matcher {
	return &Matcher{
		patterns: patterns,
		autoDirs: detectDependencyDirs(root),
	}
}

// AutoExcluded returns the automatically detected dependency directories and
// the reason each was excluded.
func (m *Matcher) AutoExcluded() map[string]string {
	return m.autoDirs
}

// SkipDir reports whether the walker should not descend into rel.
func (m *Matcher) SkipDir(rel string) bool {
	if alwaysSkipDirs[filepath.Base(rel)] {
		return true
	}
	if _, ok := m.autoDirs[rel]; ok {
		return true
	}
	return m.matchesAny(rel)
}

// SkipFile reports whether rel should not be indexed.
func (m *Matcher) SkipFile(rel string) bool {
	return m.matchesAny(rel)
}

func (m *Matcher) matchesAny(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range m.patterns {
		if matchPattern(pattern, rel) {
			return true
		}
	}
	return false
}

// matchPattern supports the three pattern shapes the config uses:
// "dir/**" (everything under a root-relative directory), "**/name/**"
// (everything under any directory matching name), and plain globs matched
// against the path's base name.
func matchPattern(pattern, rel string) bool {
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		if seg, ok := strings.CutPrefix(prefix, "**/"); ok {
			for _, part := range strings.Split(rel, "/") {
				if matched, _ := path.Match(seg, part); matched {
					return true
				}
			}
			return false
		}
		return rel == prefix || strings.HasPrefix(rel, prefix+"/")
	}

	matched, _ := path.Match(pattern, path.Base(rel))
	return matched
}

// detectDependencyDirs walks root looking for dependency-directory marker
// files. Only file-existence checks; no content sniffing.
func detectDependencyDirs(root string) map[string]string {
	found := make(map[string]string)
	if root == "" {
		return found
	}

	_ = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || p == root {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if alwaysSkipDirs[d.Name()] {
				return filepath.SkipDir
			}
			if _, ok := found[rel]; ok {
				return filepath.SkipDir
			}
			return nil
		}

		dir := filepath.Dir(rel)
		switch d.Name() {
		case "package.json":
			markSibling(root, dir, "node_modules", "Node.js dependencies (package.json detected)", found)
		case "go.mod":
			vendorDir := joinRel(dir, "vendor")
			if fileExists(filepath.Join(root, vendorDir, "modules.txt")) {
				found[vendorDir] = "Go vendored dependencies (vendor/modules.txt detected)"
			}
		case "pyvenv.cfg":
			if dir != "." {
				found[dir] = "Python virtual environment (pyvenv.cfg detected)"
			}
		}
		return nil
	})

	return found
}

// markSibling records dir/name as excluded when it exists.
func markSibling(root, dir, name, reason string, found map[string]string) {
	rel := joinRel(dir, name)
	if dirExists(filepath.Join(root, rel)) {
		found[rel] = reason
	}
}

func joinRel(dir, name string) string {
	if dir == "." {
		return name
	}
	return filepath.Join(dir, name)
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
