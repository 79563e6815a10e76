// Package rank combines structural, proximity, and semantic relevance
// signals into one deterministic ordering of context candidates.
//
// Structural facts (is this the definition? a reference? just a similarity
// hit?) set the base score. File and directory proximity to the current file
// add fixed bonuses, import-graph adjacency adds a boost, and the clamped
// semantic similarity contributes a weighted tail. The definition candidate
// is pinned to the front of the output regardless of its numeric score.
package rank

import (
	"math"
	"path/filepath"
	"sort"
)

// Source tags where a candidate came from.
type Source string

const (
	// SourceDefinition marks the symbol's definition location.
	SourceDefinition Source = "definition"
	// SourceReference marks a call site or other reference location.
	SourceReference Source = "reference"
	// SourceSemantic marks a candidate known only from similarity search.
	SourceSemantic Source = "semantic"
)

// Base structural scores by origin.
const (
	definitionBase = 1.0
	referenceBase  = 0.6
	semanticBase   = 0.0
)

// Score bonuses and weights.
const (
	sameFileBonus    = 0.15
	importBoost      = 0.2
	sameDirBoost     = 0.1
	semanticWeight   = 0.3
	scoreEpsilon     = 1e-9
)

// Default output caps.
const (
	DefaultMaxSymbols = 10
	DefaultMaxFiles   = 5
)

// Candidate accumulates relevance signals for one potential context item.
// Candidates are keyed by Identifier; adding the same identifier twice
// merges signals instead of duplicating the item.
type Candidate struct {
	Identifier    string  `yaml:"identifier" json:"identifier"`
	Path          string  `yaml:"path" json:"path"`
	Line          *int    `yaml:"line,omitempty" json:"line,omitempty"`
	BaseScore     float64 `yaml:"base_score" json:"base_score"`
	SemanticScore float64 `yaml:"semantic_score" json:"semantic_score"`
	Source        Source  `yaml:"source" json:"source"`
}

// RankedResult is a candidate with its computed scores.
type RankedResult struct {
	Candidate       `yaml:",inline" json:",inline"`
	StructuralScore float64 `yaml:"structural_score" json:"structural_score"`
	FinalScore      float64 `yaml:"final_score" json:"final_score"`
}

// Options configures ranking caps.
type Options struct {
	MaxSymbols int // max items in output (default 10)
	MaxFiles   int // max distinct files in output (default 5)
}

// Ranker accumulates candidates for one ranking pass.
type Ranker struct {
	currentFile string
	neighbors   map[string]bool
	candidates  map[string]*Candidate
	opts        Options
}

// New creates a Ranker for the given current file. importNeighbors lists
// files directly imported by (or importing) the current file; candidates
// from those files receive a graph boost.
func New(currentFile string, importNeighbors []string, opts Options) *Ranker {
	if opts.MaxSymbols <= 0 {
		opts.MaxSymbols = DefaultMaxSymbols
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}

	neighbors := make(map[string]bool, len(importNeighbors))
	for _, n := range importNeighbors {
		neighbors[n] = true
	}

	return &Ranker{
		currentFile: currentFile,
		neighbors:   neighbors,
		candidates:  make(map[string]*Candidate),
		opts:        opts,
	}
}

// AddDefinition records the definition location of the selected symbol.
func (r *Ranker) AddDefinition(identifier, path string, line *int) {
	r.add(Candidate{
		Identifier: identifier,
		Path:       path,
		Line:       line,
		BaseScore:  definitionBase,
		Source:     SourceDefinition,
	})
}

// AddReference records a reference location.
func (r *Ranker) AddReference(identifier, path string, line *int) {
	r.add(Candidate{
		Identifier: identifier,
		Path:       path,
		Line:       line,
		BaseScore:  referenceBase,
		Source:     SourceReference,
	})
}

// AddSemantic records a similarity-search hit. Similarity may be negative;
// it is clamped to [0,1] at scoring time, not here, so the raw value stays
// observable.
func (r *Ranker) AddSemantic(identifier, path string, line *int, similarity float64) {
	r.add(Candidate{
		Identifier:    identifier,
		Path:          path,
		Line:          line,
		BaseScore:     semanticBase,
		SemanticScore: similarity,
		Source:        SourceSemantic,
	})
}

// add merges a candidate into the accumulator. Repeated identifiers keep
// the strongest origin and the maximum semantic score observed.
func (r *Ranker) add(c Candidate) {
	existing, ok := r.candidates[c.Identifier]
	if !ok {
		r.candidates[c.Identifier] = &c
		return
	}

	if c.SemanticScore > existing.SemanticScore {
		existing.SemanticScore = c.SemanticScore
	}
	if c.BaseScore > existing.BaseScore {
		existing.BaseScore = c.BaseScore
		existing.Source = c.Source
		existing.Path = c.Path
		existing.Line = c.Line
	}
}

// Rank scores all accumulated candidates and returns them in a total,
// deterministic order: the definition first unconditionally, then by
// descending final score, breaking ties by source priority and finally by
// identifier.
func (r *Ranker) Rank() []RankedResult {
	results := make([]RankedResult, 0, len(r.candidates))
	for _, c := range r.candidates {
		structural := c.BaseScore + r.proximityBonus(c.Path) + r.graphBoost(c.Path)
		final := structural + clamp01(c.SemanticScore)*semanticWeight
		results = append(results, RankedResult{
			Candidate:       *c,
			StructuralScore: structural,
			FinalScore:      final,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]

		// Definition is pinned first, not score-derived.
		if (a.Source == SourceDefinition) != (b.Source == SourceDefinition) {
			return a.Source == SourceDefinition
		}

		if math.Abs(a.FinalScore-b.FinalScore) > scoreEpsilon {
			return a.FinalScore > b.FinalScore
		}

		if a.Source != b.Source {
			return sourcePriority(a.Source) < sourcePriority(b.Source)
		}

		return a.Identifier < b.Identifier
	})

	return capResults(results, r.opts.MaxSymbols, r.opts.MaxFiles)
}

// capResults walks the sorted list admitting items until the symbol cap is
// reached. Once the distinct-file cap is exhausted, items from new files are
// skipped but items from already-admitted files keep flowing; the file cap
// is not a prefix-stop.
func capResults(sorted []RankedResult, maxSymbols, maxFiles int) []RankedResult {
	admitted := make([]RankedResult, 0, maxSymbols)
	files := make(map[string]bool)

	for _, res := range sorted {
		if len(admitted) >= maxSymbols {
			break
		}
		if !files[res.Path] && len(files) >= maxFiles {
			continue
		}
		files[res.Path] = true
		admitted = append(admitted, res)
	}

	return admitted
}

// proximityBonus rewards candidates in the current file.
func (r *Ranker) proximityBonus(path string) float64 {
	if path == r.currentFile {
		return sameFileBonus
	}
	return 0
}

// graphBoost rewards import neighbors and directory-mates of the current
// file. Both boosts may apply to the same candidate.
func (r *Ranker) graphBoost(path string) float64 {
	boost := 0.0
	if r.neighbors[path] {
		boost += importBoost
	}
	if path != r.currentFile && filepath.Dir(path) == filepath.Dir(r.currentFile) {
		boost += sameDirBoost
	}
	return boost
}

// sourcePriority orders sources for tie-breaking: definition, reference,
// then semantic.
func sourcePriority(s Source) int {
	switch s {
	case SourceDefinition:
		return 0
	case SourceReference:
		return 1
	default:
		return 2
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
