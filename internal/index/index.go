// Package index builds the symbol table and semantic index by walking the
// project tree and parsing every supported source file. Indexing is
// per-file best-effort: a file that fails to read or parse is counted and
// skipped, never fatal.
package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hargabyte/lens/internal/config"
	"github.com/hargabyte/lens/internal/exclude"
	"github.com/hargabyte/lens/internal/parser"
	"github.com/hargabyte/lens/internal/source"
	"github.com/hargabyte/lens/internal/symbols"
)

// maxEmbedBytes caps the text embedded per declaration.
const maxEmbedBytes = 1000

// VectorWriter is the write surface of the semantic index. Nil disables
// embedding; the symbol table is still built.
type VectorWriter interface {
	Add(ctx context.Context, identifier, path, content string) error
}

// Stats summarizes one indexing run.
type Stats struct {
	Files        int
	Declarations int
	Embedded     int
	Failed       int
}

// Indexer walks a project root and records declarations.
type Indexer struct {
	root      string
	table     *symbols.DB
	vectors   VectorWriter
	matcher   *exclude.Matcher
	languages map[parser.Language]bool

	// Logf receives per-file progress lines. Nil means silent.
	Logf func(format string, args ...any)
}

// New creates an Indexer for the project root.
func New(root string, table *symbols.DB, vectors VectorWriter, cfg config.IndexConfig) *Indexer {
	languages := make(map[parser.Language]bool, len(cfg.Languages))
	for _, lang := range cfg.Languages {
		languages[parser.Language(lang)] = true
	}

	return &Indexer{
		root:      root,
		table:     table,
		vectors:   vectors,
		matcher:   exclude.NewMatcher(root, cfg.Exclude),
		languages: languages,
	}
}

// Run indexes the tree. Per-file failures are counted in Stats.Failed; only
// context cancellation aborts the walk.
func (ix *Indexer) Run(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := filepath.WalkDir(ix.root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, relErr := filepath.Rel(ix.root, p)
		if relErr != nil || rel == "." {
			return nil
		}

		if d.IsDir() {
			if ix.matcher.SkipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		lang := parser.LanguageFromExtension(strings.ToLower(filepath.Ext(p)))
		if lang == "" || !ix.languages[lang] || ix.matcher.SkipFile(rel) {
			return nil
		}

		if fileErr := ix.indexFile(ctx, rel, p, stats); fileErr != nil {
			stats.Failed++
			ix.logf("skip %s: %v", rel, fileErr)
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("index walk: %w", err)
	}

	return stats, nil
}

// indexFile parses one file and records its declarations in the symbol
// table and, when enabled, the semantic index.
func (ix *Indexer) indexFile(ctx context.Context, rel, abs string, stats *Stats) error {
	data, err := os.ReadFile(abs)
	if err != nil {
		return err
	}

	parsed, err := parser.ListDeclarations(rel, data)
	if err != nil {
		return err
	}

	decls := make([]symbols.Declaration, 0, len(parsed))
	for _, d := range parsed {
		decls = append(decls, symbols.Declaration{
			Name:      d.Name,
			Kind:      d.Kind,
			Path:      rel,
			StartLine: d.StartLine,
			EndLine:   d.EndLine,
			Signature: d.Signature,
			Receiver:  d.Receiver,
		})
	}

	if err := ix.table.ReplaceFile(rel, decls); err != nil {
		return err
	}
	stats.Files++
	stats.Declarations += len(decls)

	if ix.vectors == nil {
		return nil
	}

	text := string(data)
	for _, d := range parsed {
		identifier := fmt.Sprintf("%s:%s:%d", rel, d.Name, d.StartLine)
		body := embedText(text, d)
		if err := ix.vectors.Add(ctx, identifier, rel, body); err != nil {
			// Embedding failures degrade to symbol-only search for this
			// declaration.
			stats.Failed++
			ix.logf("embed %s: %v", identifier, err)
			continue
		}
		stats.Embedded++
	}

	return nil
}

// embedText builds the text embedded for one declaration: its signature
// followed by its body, capped.
func embedText(fileText string, d parser.Declaration) string {
	body := source.SliceLines(fileText, d.StartLine, d.EndLine)
	text := d.Signature
	if body != "" {
		text += "\n" + body
	}
	if len(text) > maxEmbedBytes {
		cut := text[:maxEmbedBytes]
		if i := strings.LastIndexByte(cut, '\n'); i > 0 {
			cut = cut[:i]
		}
		text = cut
	}
	return text
}

func (ix *Indexer) logf(format string, args ...any) {
	if ix.Logf != nil {
		ix.Logf(format, args...)
	}
}
