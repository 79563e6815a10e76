package rank

import (
	"fmt"
	"reflect"
	"testing"
)

func intp(v int) *int { return &v }

func TestRank_DefinitionAlwaysFirst(t *testing.T) {
	r := New("src/app.ts", nil, Options{})

	// Semantic candidate with a huge similarity plus every boost would
	// outscore the definition numerically if the pin were score-derived.
	r.AddDefinition("def:utils.ts:42", "utils.ts", intp(42))
	r.AddSemantic("sem:src/app.ts:1", "src/app.ts", intp(1), 1.0)
	r.AddReference("ref:src/app.ts:5", "src/app.ts", intp(5))

	got := r.Rank()
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	if got[0].Source != SourceDefinition {
		t.Errorf("result[0].Source = %q, want definition", got[0].Source)
	}
}

func TestRank_ScoreFormula(t *testing.T) {
	r := New("src/app.ts", []string{"src/util.ts"}, Options{})

	// Same file: base 0.6 + sameFile 0.15 = 0.75 structural.
	r.AddReference("a", "src/app.ts", intp(5))
	// Import neighbor in same dir: base 0.6 + 0.2 + 0.1 = 0.9 structural.
	r.AddReference("b", "src/util.ts", intp(9))
	// Semantic elsewhere, similarity 0.5: structural 0, final 0.15.
	r.AddSemantic("c", "lib/x.ts", nil, 0.5)

	got := r.Rank()

	scores := map[string][2]float64{}
	for _, res := range got {
		scores[res.Identifier] = [2]float64{res.StructuralScore, res.FinalScore}
	}

	check := func(id string, structural, final float64) {
		t.Helper()
		s := scores[id]
		if diff := s[0] - structural; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s structural = %v, want %v", id, s[0], structural)
		}
		if diff := s[1] - final; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("%s final = %v, want %v", id, s[1], final)
		}
	}

	check("a", 0.75, 0.75)
	check("b", 0.9, 0.9)
	check("c", 0.0, 0.15)
}

func TestRank_NegativeSimilarityClamped(t *testing.T) {
	r := New("src/app.ts", nil, Options{})
	r.AddSemantic("neg", "lib/x.ts", nil, -0.8)

	got := r.Rank()
	if got[0].FinalScore != 0 {
		t.Errorf("final score = %v, want 0 for clamped negative similarity", got[0].FinalScore)
	}
}

func TestRank_MergeTakesMaxSemantic(t *testing.T) {
	r := New("src/app.ts", nil, Options{})
	r.AddSemantic("x", "lib/x.ts", nil, 0.2)
	r.AddSemantic("x", "lib/x.ts", nil, 0.9)
	r.AddSemantic("x", "lib/x.ts", nil, 0.4)

	got := r.Rank()
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1 (merged)", len(got))
	}
	if got[0].SemanticScore != 0.9 {
		t.Errorf("semantic score = %v, want max observed 0.9", got[0].SemanticScore)
	}
}

func TestRank_MergeKeepsStrongestOrigin(t *testing.T) {
	r := New("src/app.ts", nil, Options{})
	r.AddSemantic("x", "lib/x.ts", nil, 0.7)
	r.AddReference("x", "lib/x.ts", intp(3))

	got := r.Rank()
	if got[0].Source != SourceReference {
		t.Errorf("source = %q, want reference (stronger origin)", got[0].Source)
	}
	if got[0].SemanticScore != 0.7 {
		t.Errorf("semantic score = %v, want 0.7 retained across merge", got[0].SemanticScore)
	}
}

func TestRank_TieBreaks(t *testing.T) {
	r := New("src/app.ts", nil, Options{})

	// Identical scores and sources: identifier decides.
	r.AddSemantic("bbb", "lib/b.ts", nil, 0.5)
	r.AddSemantic("aaa", "lib/a.ts", nil, 0.5)

	got := r.Rank()
	if got[0].Identifier != "aaa" || got[1].Identifier != "bbb" {
		t.Errorf("identifier tie-break order = [%s %s], want [aaa bbb]",
			got[0].Identifier, got[1].Identifier)
	}
}

func TestRank_SourceTieBreak(t *testing.T) {
	// Reference elsewhere scores 0.6. Semantic in an import neighbor that
	// shares the current dir scores 0.2+0.1 structural + 1.0*0.3 semantic
	// = 0.6, so the source tie-break decides.
	r := New("src/app.ts", []string{"src/n.ts"}, Options{})
	r.AddReference("ref", "lib/r.ts", intp(1))
	r.AddSemantic("sem", "src/n.ts", nil, 1.0)

	got := r.Rank()
	if got[0].FinalScore != got[1].FinalScore {
		t.Fatalf("test construction broken: finals %v vs %v", got[0].FinalScore, got[1].FinalScore)
	}
	if got[0].Source != SourceReference {
		t.Errorf("equal scores: got %q first, want reference before semantic", got[0].Source)
	}
}

func TestRank_Deterministic(t *testing.T) {
	build := func() []RankedResult {
		r := New("src/app.ts", []string{"src/util.ts"}, Options{})
		for i := 0; i < 8; i++ {
			r.AddSemantic(fmt.Sprintf("s%d", i), fmt.Sprintf("lib/f%d.ts", i%3), nil, 0.5)
		}
		r.AddDefinition("def", "src/util.ts", intp(10))
		r.AddReference("ref", "src/app.ts", intp(2))
		return r.Rank()
	}

	a, b := build(), build()
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two identical ranking calls differ:\n%v\n%v", a, b)
	}
}

func TestRank_SymbolCap(t *testing.T) {
	r := New("src/app.ts", nil, Options{MaxSymbols: 3, MaxFiles: 10})
	for i := 0; i < 6; i++ {
		r.AddReference(fmt.Sprintf("r%d", i), fmt.Sprintf("lib/f%d.ts", i), intp(i))
	}

	got := r.Rank()
	if len(got) != 3 {
		t.Fatalf("got %d results, want symbol cap 3", len(got))
	}
}

func TestRank_FileCapIsNotPrefixStop(t *testing.T) {
	r := New("src/app.ts", nil, Options{MaxSymbols: 10, MaxFiles: 2})

	// Two files admitted first by score, then a third file that must be
	// skipped, then more items from the admitted files that must still land.
	r.AddDefinition("def", "a.ts", intp(1))
	r.AddReference("ref1", "b.ts", intp(2))
	r.AddSemantic("new-file", "c.ts", nil, 0.9)
	r.AddSemantic("a-again", "a.ts", nil, 0.1)
	r.AddSemantic("b-again", "b.ts", nil, 0.1)

	got := r.Rank()

	files := map[string]bool{}
	ids := map[string]bool{}
	for _, res := range got {
		files[res.Path] = true
		ids[res.Identifier] = true
	}

	if len(files) != 2 {
		t.Errorf("distinct files = %d, want 2", len(files))
	}
	if ids["new-file"] {
		t.Errorf("item from a new file admitted after file cap was hit")
	}
	if !ids["a-again"] || !ids["b-again"] {
		t.Errorf("items from already-admitted files were dropped: %v", ids)
	}
}
