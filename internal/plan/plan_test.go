package plan

import (
	"reflect"
	"testing"

	"github.com/hargabyte/lens/internal/rank"
)

func ranked(identifier, path string, line *int, source rank.Source) rank.RankedResult {
	return rank.RankedResult{
		Candidate: rank.Candidate{
			Identifier: identifier,
			Path:       path,
			Line:       line,
			Source:     source,
		},
	}
}

func intp(v int) *int { return &v }

func TestBuild_OneOpPerPathInFirstOccurrenceOrder(t *testing.T) {
	results := []rank.RankedResult{
		ranked("formatDate", "src/utils.ts", intp(42), rank.SourceDefinition),
		ranked("render", "src/app.ts", intp(5), rank.SourceReference),
	}

	ops := Build(results, Options{})

	if len(ops) != 2 {
		t.Fatalf("ops = %d, want 2", len(ops))
	}
	if ops[0].Path != "src/utils.ts" || ops[1].Path != "src/app.ts" {
		t.Errorf("order = %q, %q", ops[0].Path, ops[1].Path)
	}
	for _, op := range ops {
		if op.Type != "read_file" {
			t.Errorf("type = %q", op.Type)
		}
		if op.MaxBytes != DefaultMaxBytes {
			t.Errorf("max_bytes = %d", op.MaxBytes)
		}
	}

	// Line 42 expands to [0, 122): the lower bound clamps at zero.
	if *ops[0].StartLine != 0 || *ops[0].EndLine != 122 {
		t.Errorf("utils range = [%d, %d), want [0, 122)", *ops[0].StartLine, *ops[0].EndLine)
	}
	if *ops[1].StartLine != 0 || *ops[1].EndLine != 85 {
		t.Errorf("app range = [%d, %d), want [0, 85)", *ops[1].StartLine, *ops[1].EndLine)
	}
}

func TestBuild_MergesRangesForSamePath(t *testing.T) {
	results := []rank.RankedResult{
		ranked("a", "src/big.ts", intp(100), rank.SourceReference),
		ranked("b", "src/big.ts", intp(150), rank.SourceReference),
	}

	ops := Build(results, Options{ExpandLines: 10, MaxBytes: 1 << 20})

	if len(ops) != 1 {
		t.Fatalf("ops = %d, want 1 merged entry", len(ops))
	}
	if *ops[0].StartLine != 90 || *ops[0].EndLine != 160 {
		t.Errorf("merged range = [%d, %d), want [90, 160)", *ops[0].StartLine, *ops[0].EndLine)
	}
}

func TestBuild_WholeFileIsSticky(t *testing.T) {
	results := []rank.RankedResult{
		ranked("a", "src/f.ts", intp(10), rank.SourceReference),
		ranked("b", "src/f.ts", nil, rank.SourceSemantic),
		ranked("c", "src/f.ts", intp(400), rank.SourceReference),
	}

	ops := Build(results, Options{})

	if len(ops) != 1 {
		t.Fatalf("ops = %d, want 1", len(ops))
	}
	if ops[0].StartLine != nil || ops[0].EndLine != nil {
		t.Errorf("whole-file op carries a range: %+v", ops[0])
	}
}

func TestBuild_WholeFileFirstStaysWholeFile(t *testing.T) {
	results := []rank.RankedResult{
		ranked("a", "src/f.ts", nil, rank.SourceSemantic),
		ranked("b", "src/f.ts", intp(10), rank.SourceReference),
	}

	ops := Build(results, Options{})
	if len(ops) != 1 || ops[0].StartLine != nil {
		t.Fatalf("ops = %+v, want one whole-file read", ops)
	}
}

func TestBuild_OversizedRangeShrinksToHeadTailWindow(t *testing.T) {
	// A 20000-line range at 80 bytes/line blows a 500-byte cap; the plan
	// keeps a 5-line window (head 3 + tail 2) around the range midpoint.
	results := []rank.RankedResult{
		ranked("huge", "src/huge.ts", intp(10000), rank.SourceReference),
	}

	ops := Build(results, Options{
		ExpandLines:  10000,
		MaxBytes:     500,
		BytesPerLine: 80,
		HeadLines:    3,
		TailLines:    2,
	})

	if len(ops) != 1 {
		t.Fatalf("ops = %d, want 1", len(ops))
	}
	op := ops[0]
	if op.StartLine == nil || op.EndLine == nil {
		t.Fatalf("shrunk op lost its range: %+v", op)
	}
	if got := *op.EndLine - *op.StartLine; got != 5 {
		t.Errorf("window = %d lines, want 5", got)
	}
	if *op.StartLine != 9997 || *op.EndLine != 10002 {
		t.Errorf("window = [%d, %d), want centered on midpoint", *op.StartLine, *op.EndLine)
	}
}

func TestBuild_SmallRangeKeptWhole(t *testing.T) {
	results := []rank.RankedResult{
		ranked("x", "src/x.ts", intp(50), rank.SourceDefinition),
	}

	ops := Build(results, Options{ExpandLines: 5, MaxBytes: 15000, BytesPerLine: 80})

	if *ops[0].StartLine != 45 || *ops[0].EndLine != 55 {
		t.Errorf("range = [%d, %d), want [45, 55)", *ops[0].StartLine, *ops[0].EndLine)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	results := []rank.RankedResult{
		ranked("a", "a.ts", intp(3), rank.SourceDefinition),
		ranked("b", "b.ts", nil, rank.SourceSemantic),
		ranked("c", "a.ts", intp(900), rank.SourceReference),
	}

	first := Build(results, Options{})
	for i := 0; i < 5; i++ {
		if again := Build(results, Options{}); !reflect.DeepEqual(first, again) {
			t.Fatalf("plans differ across runs:\n%+v\n%+v", first, again)
		}
	}
}

func TestBuild_Empty(t *testing.T) {
	if ops := Build(nil, Options{}); len(ops) != 0 {
		t.Errorf("empty input produced %+v", ops)
	}
}
