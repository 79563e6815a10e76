// Package plan turns ranked context items into byte-bounded file-read
// instructions. Ranked occurrences of the same path collapse into one entry
// whose range is the union of every occurrence's expanded range; an
// occurrence without a line hint upgrades the entry to a whole-file read,
// which later ranged occurrences cannot narrow again.
package plan

import (
	"github.com/hargabyte/lens/internal/rank"
)

// ReadFileOp is one read instruction. StartLine/EndLine are absent for
// whole-file reads; StartLine is 0-based inclusive, EndLine 0-based
// exclusive.
type ReadFileOp struct {
	Type      string `yaml:"type" json:"type"`
	Path      string `yaml:"path" json:"path"`
	StartLine *int   `yaml:"start_line,omitempty" json:"start_line,omitempty"`
	EndLine   *int   `yaml:"end_line,omitempty" json:"end_line,omitempty"`
	MaxBytes  int    `yaml:"max_bytes" json:"max_bytes"`
}

// Options configures plan building.
type Options struct {
	ExpandLines  int // lines added on both sides of a line hint (default 80)
	MaxBytes     int // byte cap per read (default 15000)
	BytesPerLine int // size estimate per line (default 80)
	HeadLines    int // head of a shrunk oversized range (default 60)
	TailLines    int // tail of a shrunk oversized range (default 40)
}

// Defaults for plan building.
const (
	DefaultExpandLines  = 80
	DefaultMaxBytes     = 15000
	DefaultBytesPerLine = 80
	DefaultHeadLines    = 60
	DefaultTailLines    = 40
)

func (o Options) withDefaults() Options {
	if o.ExpandLines <= 0 {
		o.ExpandLines = DefaultExpandLines
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = DefaultMaxBytes
	}
	if o.BytesPerLine <= 0 {
		o.BytesPerLine = DefaultBytesPerLine
	}
	if o.HeadLines <= 0 {
		o.HeadLines = DefaultHeadLines
	}
	if o.TailLines <= 0 {
		o.TailLines = DefaultTailLines
	}
	return o
}

// entry accumulates merged range state for one path during pass one.
type entry struct {
	path      string
	wholeFile bool
	start     int
	end       int
}

// Build produces one read instruction per distinct path in the ranked
// input. Output order follows first occurrence in the input; building is
// pure and idempotent.
func Build(results []rank.RankedResult, opts Options) []ReadFileOp {
	opts = opts.withDefaults()

	// Pass 1: merge occurrences by path.
	entries := make(map[string]*entry)
	var order []string

	for _, res := range results {
		e, ok := entries[res.Path]
		if !ok {
			e = &entry{path: res.Path}
			entries[res.Path] = e
			order = append(order, res.Path)
			if res.Line == nil {
				e.wholeFile = true
			} else {
				e.start, e.end = expand(*res.Line, opts.ExpandLines)
			}
			continue
		}

		// Whole-file is sticky: later ranged occurrences never narrow it.
		if e.wholeFile {
			continue
		}
		if res.Line == nil {
			e.wholeFile = true
			continue
		}

		start, end := expand(*res.Line, opts.ExpandLines)
		if start < e.start {
			e.start = start
		}
		if end > e.end {
			e.end = end
		}
	}

	// Pass 2: convert entries to read instructions.
	ops := make([]ReadFileOp, 0, len(order))
	for _, path := range order {
		ops = append(ops, toOp(entries[path], opts))
	}
	return ops
}

// expand widens a line hint into a half-open range, clamped at zero.
func expand(line, by int) (start, end int) {
	start = line - by
	if start < 0 {
		start = 0
	}
	return start, line + by
}

// toOp converts a merged entry into a read instruction, shrinking oversized
// ranges to a head+tail window centered on the range midpoint.
func toOp(e *entry, opts Options) ReadFileOp {
	op := ReadFileOp{Type: "read_file", Path: e.path, MaxBytes: opts.MaxBytes}
	if e.wholeFile {
		return op
	}

	start, end := e.start, e.end
	window := opts.HeadLines + opts.TailLines

	if (end-start)*opts.BytesPerLine > opts.MaxBytes && end-start > window {
		mid := (start + end) / 2
		start = mid - opts.HeadLines
		if start < e.start {
			start = e.start
		}
		end = start + window
		if end > e.end {
			end = e.end
			start = end - window
		}
		if start < 0 {
			start = 0
		}
	}

	op.StartLine = &start
	op.EndLine = &end
	return op
}
