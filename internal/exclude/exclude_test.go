package exclude

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		rel     string
		want    bool
	}{
		{"vendor/**", "vendor/lib/a.go", true},
		{"vendor/**", "vendor", true},
		{"vendor/**", "src/vendor.go", false},
		{"**/testdata/**", "pkg/testdata/fix.go", true},
		{"**/testdata/**", "pkg/data/fix.go", false},
		{"*.min.js", "static/app.min.js", true},
		{"*.min.js", "static/app.js", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.rel, func(t *testing.T) {
			if got := matchPattern(tt.pattern, tt.rel); got != tt.want {
				t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.rel, got, tt.want)
			}
		})
	}
}

func TestMatcher_SkipDir(t *testing.T) {
	m := NewMatcher("", []string{"generated/**"})

	for _, rel := range []string{"node_modules", ".git", "sub/node_modules", "generated", "generated/api"} {
		if !m.SkipDir(rel) {
			t.Errorf("SkipDir(%q) = false, want true", rel)
		}
	}
	if m.SkipDir("src") {
		t.Errorf("SkipDir(src) = true")
	}
}

func TestDetectDependencyDirs(t *testing.T) {
	root := t.TempDir()

	// Node project with installed deps.
	if err := os.WriteFile(filepath.Join(root, "package.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "node_modules", "left-pad"), 0755); err != nil {
		t.Fatal(err)
	}

	// Python venv.
	if err := os.MkdirAll(filepath.Join(root, ".venv"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ".venv", "pyvenv.cfg"), []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	found := detectDependencyDirs(root)

	if _, ok := found["node_modules"]; !ok {
		t.Errorf("node_modules not detected: %v", found)
	}
	if _, ok := found[".venv"]; !ok {
		t.Errorf(".venv not detected: %v", found)
	}
}
