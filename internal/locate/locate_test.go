package locate

import (
	"reflect"
	"testing"
)

func loc(path string, line int) Location {
	return Location{Path: path, StartLine: line, EndLine: line + 1}
}

func TestRankReferences_Buckets(t *testing.T) {
	refs := []Location{
		loc("lib/other.ts", 3),
		loc("src/app.ts", 10),
		loc("src/util.ts", 7),
	}

	got := RankReferences(refs, "src/app.ts", 10)

	wantPaths := []string{"src/app.ts", "src/util.ts", "lib/other.ts"}
	if len(got) != len(wantPaths) {
		t.Fatalf("got %d refs, want %d", len(got), len(wantPaths))
	}
	for i, want := range wantPaths {
		if got[i].Path != want {
			t.Errorf("ref[%d].Path = %q, want %q", i, got[i].Path, want)
		}
	}
}

func TestRankReferences_StableWithinBucket(t *testing.T) {
	refs := []Location{
		loc("src/b.ts", 1),
		loc("src/c.ts", 2),
		loc("src/a.ts", 3),
	}

	got := RankReferences(refs, "src/app.ts", 10)

	// All same-directory: input order must survive.
	wantPaths := []string{"src/b.ts", "src/c.ts", "src/a.ts"}
	for i, want := range wantPaths {
		if got[i].Path != want {
			t.Errorf("ref[%d].Path = %q, want %q", i, got[i].Path, want)
		}
	}
}

func TestRankReferences_Dedupe(t *testing.T) {
	refs := []Location{
		loc("src/a.ts", 5),
		loc("src/a.ts", 5),
		{Path: "src/a.ts", StartLine: 5, StartChar: 4},
	}

	got := RankReferences(refs, "src/app.ts", 10)

	if len(got) != 2 {
		t.Fatalf("got %d refs after dedupe, want 2", len(got))
	}
}

func TestRankReferences_Cap(t *testing.T) {
	refs := []Location{
		loc("a.ts", 1), loc("b.ts", 2), loc("c.ts", 3), loc("d.ts", 4),
	}

	got := RankReferences(refs, "src/app.ts", 0)

	if len(got) != DefaultMaxReferences {
		t.Fatalf("got %d refs, want default cap %d", len(got), DefaultMaxReferences)
	}
}

func TestRankReferences_Empty(t *testing.T) {
	got := RankReferences(nil, "src/app.ts", 3)
	if len(got) != 0 {
		t.Fatalf("got %d refs for nil input, want 0", len(got))
	}
}

func TestRankReferences_Deterministic(t *testing.T) {
	refs := []Location{
		loc("lib/z.ts", 1), loc("src/app.ts", 2), loc("src/m.ts", 3),
	}
	a := RankReferences(refs, "src/app.ts", 3)
	b := RankReferences(refs, "src/app.ts", 3)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two identical calls differ: %v vs %v", a, b)
	}
}
