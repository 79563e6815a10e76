// Package resolve turns planned dependencies into concrete source content.
// Resolution runs in rounds: round one applies each dependency's assigned
// strategy, round two retries whatever is still unresolved with cheaper
// fallbacks. Attempts within a round run concurrently and individual
// failures are isolated; a failing lookup leaves its dependency unresolved
// instead of aborting the batch.
//
// A third, emergency round (one broad query over the raw selection) is
// owned by the calling pipeline, not this package; Result exposes the facts
// the caller needs to decide.
package resolve

import (
	"context"
	"strings"
	"sync"

	"github.com/hargabyte/lens/internal/depscan"
	"github.com/hargabyte/lens/internal/semantic"
	"github.com/hargabyte/lens/internal/source"
	"github.com/hargabyte/lens/internal/symbols"
)

// Provenance tags how a dependency's content was obtained.
type Provenance string

const (
	ProvenanceFileRead    Provenance = "file-read"
	ProvenanceSymbolTable Provenance = "symbol-table"
	ProvenanceSemantic    Provenance = "semantic"
)

// Resolved is the outcome of resolving one dependency. Content may be empty
// for semantic-only hits; the plan and read stages fetch it later.
type Resolved struct {
	Dependency depscan.Dependency `yaml:"dependency" json:"dependency"`
	Path       string             `yaml:"path" json:"path"`
	Line       *int               `yaml:"line,omitempty" json:"line,omitempty"`
	Content    string             `yaml:"content,omitempty" json:"content,omitempty"`
	Similarity float64            `yaml:"similarity,omitempty" json:"similarity,omitempty"`
	Provenance Provenance         `yaml:"provenance" json:"provenance"`
}

// Result is the outcome of a full resolution pass.
type Result struct {
	Resolved   []Resolved           `yaml:"resolved" json:"resolved"`
	Unresolved []depscan.Dependency `yaml:"unresolved,omitempty" json:"unresolved,omitempty"`
}

// UnresolvedRatio returns the fraction of planned dependencies that stayed
// unresolved. The pipeline uses this to decide on the emergency fallback.
func (r *Result) UnresolvedRatio() float64 {
	total := len(r.Resolved) + len(r.Unresolved)
	if total == 0 {
		return 0
	}
	return float64(len(r.Unresolved)) / float64(total)
}

// Options bounds resolution work.
type Options struct {
	MaxBytes int // cap on content fetched per dependency (default 15000)
	TopK     int // semantic query result bound (default 3)
}

// DefaultMaxBytes caps per-dependency content.
const DefaultMaxBytes = 15000

// Resolver executes dependency resolution against the injected
// collaborators. Any of them may be nil; the affected strategies then
// simply fail to resolve, which keeps the pipeline degradable.
type Resolver struct {
	reader source.Reader
	table  symbols.Table
	index  semantic.Index
	opts   Options
}

// New creates a Resolver.
func New(reader source.Reader, table symbols.Table, index semantic.Index, opts Options) *Resolver {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.TopK <= 0 {
		opts.TopK = semantic.DefaultTopK
	}
	return &Resolver{reader: reader, table: table, index: index, opts: opts}
}

// Resolve runs rounds one and two over the planned dependencies.
func (r *Resolver) Resolve(ctx context.Context, deps []depscan.Dependency) *Result {
	if len(deps) == 0 {
		return &Result{}
	}

	// Round 1: strategy-based, fan-out/fan-in.
	slots := make([]*Resolved, len(deps))
	var wg sync.WaitGroup
	for i, dep := range deps {
		wg.Add(1)
		go func(i int, dep depscan.Dependency) {
			defer wg.Done()
			slots[i] = r.resolveOne(ctx, dep)
		}(i, dep)
	}
	wg.Wait()

	result := &Result{}
	var retry []int
	for i, slot := range slots {
		if slot != nil {
			result.Resolved = append(result.Resolved, *slot)
		} else {
			retry = append(retry, i)
		}
	}

	if len(retry) == 0 {
		return result
	}

	// Round 2: gap filling. Method calls whose receiver already resolved
	// try isolation against the receiver's fetched content; everything
	// else gets a fresh semantic query.
	receiverContent := contentByName(result.Resolved)

	round2 := make([]*Resolved, len(retry))
	for j, i := range retry {
		wg.Add(1)
		go func(j int, dep depscan.Dependency) {
			defer wg.Done()
			round2[j] = r.resolveGap(ctx, dep, receiverContent)
		}(j, deps[i])
	}
	wg.Wait()

	for j, i := range retry {
		if round2[j] != nil {
			result.Resolved = append(result.Resolved, *round2[j])
		} else {
			result.Unresolved = append(result.Unresolved, deps[i])
		}
	}

	return result
}

// resolveOne applies a dependency's assigned strategy. Returns nil when the
// dependency stays unresolved; errors are absorbed here by design.
func (r *Resolver) resolveOne(ctx context.Context, dep depscan.Dependency) *Resolved {
	switch dep.Strategy {
	case depscan.StrategyReadFile:
		return r.resolveByRead(dep)
	case depscan.StrategySymbolLookup:
		return r.resolveBySymbol(dep)
	case depscan.StrategySemanticSearch:
		return r.resolveBySemantic(ctx, dep)
	default:
		return nil
	}
}

// resolveByRead reads the dependency's known file. Method calls try to
// isolate just the method's body; when isolation fails the whole file is
// kept, capped.
func (r *Resolver) resolveByRead(dep depscan.Dependency) *Resolved {
	if r.reader == nil || dep.KnownPath == "" {
		return nil
	}

	content, err := r.reader.ReadFile(dep.KnownPath)
	if err != nil {
		return nil
	}

	if dep.Kind == depscan.KindMethodCall {
		if body := IsolateMethod(dep.KnownPath, content, methodName(dep)); body != "" {
			content = body
		}
	}

	return &Resolved{
		Dependency: dep,
		Path:       dep.KnownPath,
		Content:    capBytes(content, r.opts.MaxBytes),
		Provenance: ProvenanceFileRead,
	}
}

// resolveBySymbol slices the declaration range recorded in the symbol
// table. For method calls with a known receiver the receiver's declaration
// is sliced and the method isolated inside it.
func (r *Resolver) resolveBySymbol(dep depscan.Dependency) *Resolved {
	if r.table == nil || r.reader == nil {
		return nil
	}

	name := dep.Name
	if dep.Kind == depscan.KindMethodCall {
		if dep.Receiver != "" {
			name = dep.Receiver
		} else {
			name = methodName(dep)
		}
	}

	decls, err := r.table.Lookup(name)
	if err != nil || len(decls) == 0 {
		return nil
	}
	decl := decls[0]

	content, err := r.reader.ReadRange(decl.Path, decl.StartLine, decl.EndLine)
	if err != nil || content == "" {
		return nil
	}

	if dep.Kind == depscan.KindMethodCall && dep.Receiver != "" {
		if body := IsolateMethod(decl.Path, content, methodName(dep)); body != "" {
			content = body
		}
	}

	line := decl.StartLine
	return &Resolved{
		Dependency: dep,
		Path:       decl.Path,
		Line:       &line,
		Content:    capBytes(content, r.opts.MaxBytes),
		Provenance: ProvenanceSymbolTable,
	}
}

// resolveBySemantic records only the top hit's path; content is populated
// later by the plan and read stages.
func (r *Resolver) resolveBySemantic(ctx context.Context, dep depscan.Dependency) *Resolved {
	if r.index == nil {
		return nil
	}

	hits, err := r.index.Query(ctx, dep.Query, r.opts.TopK)
	if err != nil || len(hits) == 0 {
		return nil
	}

	return &Resolved{
		Dependency: dep,
		Path:       hits[0].Path,
		Similarity: hits[0].Similarity,
		Provenance: ProvenanceSemantic,
	}
}

// resolveGap is the round-two attempt for one unresolved dependency.
func (r *Resolver) resolveGap(ctx context.Context, dep depscan.Dependency, receiverContent map[string]resolvedContent) *Resolved {
	if dep.Kind == depscan.KindMethodCall && dep.Receiver != "" {
		if rc, ok := receiverContent[dep.Receiver]; ok {
			if body := IsolateMethod(rc.path, rc.content, methodName(dep)); body != "" {
				return &Resolved{
					Dependency: dep,
					Path:       rc.path,
					Content:    capBytes(body, r.opts.MaxBytes),
					Provenance: rc.provenance,
				}
			}
		}
	}

	return r.resolveBySemantic(ctx, dep)
}

type resolvedContent struct {
	path       string
	content    string
	provenance Provenance
}

// contentByName indexes round-one content by dependency name so method
// calls can isolate against their already-fetched receiver.
func contentByName(resolved []Resolved) map[string]resolvedContent {
	out := make(map[string]resolvedContent, len(resolved))
	for _, res := range resolved {
		if res.Content == "" {
			continue
		}
		out[res.Dependency.Name] = resolvedContent{
			path:       res.Path,
			content:    res.Content,
			provenance: res.Provenance,
		}
	}
	return out
}

// methodName extracts the method part of a receiver.method dependency name.
func methodName(dep depscan.Dependency) string {
	if i := strings.LastIndex(dep.Name, "."); i >= 0 {
		return dep.Name[i+1:]
	}
	return dep.Name
}

// capBytes truncates content to max bytes at the nearest preceding line
// boundary.
func capBytes(content string, max int) string {
	if len(content) <= max {
		return content
	}
	cut := content[:max]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut
}
