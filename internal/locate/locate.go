// Package locate ranks definition and reference locations by proximity to
// the file the user is working in. Locations from the same file come first,
// then locations from the same directory, then everything else.
package locate

import (
	"fmt"
	"path/filepath"
	"sort"
)

// DefaultMaxReferences caps how many reference locations survive ranking.
const DefaultMaxReferences = 3

// Location identifies a half-open line/character range within a file.
type Location struct {
	Path      string `yaml:"path" json:"path"`
	StartLine int    `yaml:"start_line" json:"start_line"`
	StartChar int    `yaml:"start_char" json:"start_char"`
	EndLine   int    `yaml:"end_line" json:"end_line"`
	EndChar   int    `yaml:"end_char" json:"end_char"`
}

// String formats the location as path:line:char.
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.StartLine, l.StartChar)
}

// Provider supplies definition and reference locations for a cursor position.
// Implementations are expected to degrade to empty results on any provider
// failure rather than returning an error the pipeline has to handle.
type Provider interface {
	// Definition returns the definition location for the symbol at the
	// cursor, or nil if none is known.
	Definition(path string, line, char int) (*Location, error)

	// References returns reference locations for the symbol at the cursor.
	References(path string, line, char int) ([]Location, error)
}

// RankReferences orders reference locations by proximity to sourcePath,
// deduplicates them, and caps the result at max (DefaultMaxReferences when
// max <= 0). Ties within a proximity bucket preserve input order.
func RankReferences(refs []Location, sourcePath string, max int) []Location {
	if max <= 0 {
		max = DefaultMaxReferences
	}

	sourceDir := filepath.Dir(sourcePath)

	// Dedupe by exact file+line+char, keeping first occurrence.
	seen := make(map[string]bool, len(refs))
	deduped := make([]Location, 0, len(refs))
	for _, ref := range refs {
		key := fmt.Sprintf("%s:%d:%d", ref.Path, ref.StartLine, ref.StartChar)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, ref)
	}

	// Stable sort by proximity bucket only; input order breaks ties.
	sort.SliceStable(deduped, func(i, j int) bool {
		return proximityBucket(deduped[i].Path, sourcePath, sourceDir) <
			proximityBucket(deduped[j].Path, sourcePath, sourceDir)
	})

	if len(deduped) > max {
		deduped = deduped[:max]
	}
	return deduped
}

// proximityBucket assigns a location's file to a distance bucket relative to
// the source file: 0 same file, 1 same directory, 2 elsewhere.
func proximityBucket(path, sourcePath, sourceDir string) int {
	switch {
	case path == sourcePath:
		return 0
	case filepath.Dir(path) == sourceDir:
		return 1
	default:
		return 2
	}
}
