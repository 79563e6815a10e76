// Package pipeline wires the context-assembly stages end to end: proximity
// ranking of provider locations, dependency planning and resolution,
// relevance ranking, plan building, plan execution, and prompt assembly.
// Every stage short of the final model call degrades instead of failing;
// a missing provider or index just means fewer signals reach the ranker.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hargabyte/lens/internal/assemble"
	"github.com/hargabyte/lens/internal/depscan"
	"github.com/hargabyte/lens/internal/llm"
	"github.com/hargabyte/lens/internal/locate"
	"github.com/hargabyte/lens/internal/plan"
	"github.com/hargabyte/lens/internal/rank"
	"github.com/hargabyte/lens/internal/resolve"
	"github.com/hargabyte/lens/internal/semantic"
	"github.com/hargabyte/lens/internal/source"
	"github.com/hargabyte/lens/internal/symbols"
)

// ErrEmptySelection is returned when there is nothing to build context for.
var ErrEmptySelection = errors.New("empty selection")

// Selection is the user's code selection plus its cursor position.
type Selection struct {
	Path string
	Line int
	Char int
	Text string
	// FileText is the enclosing file's full text. Optional; when empty the
	// pipeline reads it from the reader.
	FileText string
}

// Options bundles the per-stage knobs.
type Options struct {
	MaxReferences int
	Rank          rank.Options
	Resolve       resolve.Options
	Plan          plan.Options
	Assemble      assemble.Options
}

// Context is everything one invocation produced short of the model call.
type Context struct {
	Ranked     []rank.RankedResult
	Plan       []plan.ReadFileOp
	Snippets   []assemble.Snippet
	Unresolved []depscan.Dependency
	Prompt     assemble.Result

	// Model identifies the model that produced the answer. Set by Explain.
	Model string
}

// Pipeline holds the injected collaborators. Any of provider, table, and
// index may be nil; the stages that need them degrade to empty results.
type Pipeline struct {
	provider locate.Provider
	reader   source.Reader
	table    symbols.Table
	index    semantic.Index
	client   llm.Client
	resolver *resolve.Resolver
	opts     Options
}

// New creates a Pipeline.
func New(provider locate.Provider, reader source.Reader, table symbols.Table, index semantic.Index, client llm.Client, opts Options) *Pipeline {
	return &Pipeline{
		provider: provider,
		reader:   reader,
		table:    table,
		index:    index,
		client:   client,
		resolver: resolve.New(reader, table, index, opts.Resolve),
		opts:     opts,
	}
}

// BuildContext runs every stage up to and including prompt assembly.
func (p *Pipeline) BuildContext(ctx context.Context, sel Selection, instruction string) (*Context, error) {
	if strings.TrimSpace(sel.Text) == "" {
		return nil, ErrEmptySelection
	}

	fileText := sel.FileText
	if fileText == "" && p.reader != nil {
		fileText, _ = p.reader.ReadFile(sel.Path)
	}

	neighbors := source.ImportNeighbors(sel.Path, fileText)
	imports := source.ImportSet(sel.Path, fileText)

	definition, references := p.lookupLocations(sel)

	deps := depscan.New(p.table, imports).Plan(sel.Text, fileText)
	resolved := p.resolver.Resolve(ctx, deps)

	// Emergency fallback: when most dependencies stayed unresolved and the
	// index has nothing for the per-dependency queries, one broad query over
	// the raw selection stands in for all of them.
	var broadHits []semantic.Hit
	if resolved.UnresolvedRatio() > 0.5 && p.index != nil && p.index.Count() == 0 {
		broadHits, _ = p.index.Query(ctx, sel.Text, semantic.DefaultTopK)
	}

	ranked := p.rankAll(sel, neighbors, definition, references, resolved, broadHits)
	ops := plan.Build(ranked, p.opts.Plan)
	snippets := p.executePlan(sel, definition, ops)
	prompt := assemble.Build(instruction, snippets, p.opts.Assemble)

	return &Context{
		Ranked:     ranked,
		Plan:       ops,
		Snippets:   snippets,
		Unresolved: resolved.Unresolved,
		Prompt:     prompt,
	}, nil
}

// Explain builds context and asks the model. Only the model call itself may
// fail; every earlier stage degrades.
func (p *Pipeline) Explain(ctx context.Context, sel Selection, instruction string) (string, *Context, error) {
	built, err := p.BuildContext(ctx, sel, instruction)
	if err != nil {
		return "", nil, err
	}
	if p.client == nil {
		return "", built, errors.New("no model endpoint configured")
	}

	answer, err := p.client.Generate(ctx, built.Prompt.Document)
	if err != nil {
		return "", built, fmt.Errorf("explain: %w", err)
	}
	built.Model = p.client.ModelVersion()
	return answer, built, nil
}

// lookupLocations queries the definition/reference provider, degrading to
// empty results on any provider failure.
func (p *Pipeline) lookupLocations(sel Selection) (*locate.Location, []locate.Location) {
	if p.provider == nil {
		return nil, nil
	}

	definition, err := p.provider.Definition(sel.Path, sel.Line, sel.Char)
	if err != nil {
		definition = nil
	}

	references, err := p.provider.References(sel.Path, sel.Line, sel.Char)
	if err != nil {
		references = nil
	}
	references = locate.RankReferences(references, sel.Path, p.opts.MaxReferences)

	return definition, references
}

// rankAll feeds every gathered signal into one ranking pass.
func (p *Pipeline) rankAll(sel Selection, neighbors []string, definition *locate.Location, references []locate.Location, resolved *resolve.Result, broadHits []semantic.Hit) []rank.RankedResult {
	r := rank.New(sel.Path, neighbors, p.opts.Rank)

	if definition != nil {
		line := definition.StartLine
		r.AddDefinition(fmt.Sprintf("def:%s:%d", definition.Path, definition.StartLine), definition.Path, &line)
	}
	for _, ref := range references {
		line := ref.StartLine
		r.AddReference(fmt.Sprintf("%s:%d", ref.Path, ref.StartLine), ref.Path, &line)
	}

	for _, res := range resolved.Resolved {
		switch res.Provenance {
		case resolve.ProvenanceSemantic:
			r.AddSemantic(res.Dependency.Name, res.Path, res.Line, res.Similarity)
		default:
			r.AddReference(res.Dependency.Name, res.Path, res.Line)
		}
	}

	for _, hit := range broadHits {
		r.AddSemantic(hit.Identifier, hit.Path, nil, hit.Similarity)
	}

	return r.Rank()
}

// executePlan reads every planned range and assembles the snippet list:
// the selection first, then the definition's file, then the related files
// in plan order. Per-file read failures drop that snippet only.
func (p *Pipeline) executePlan(sel Selection, definition *locate.Location, ops []plan.ReadFileOp) []assemble.Snippet {
	snippets := []assemble.Snippet{{
		Path:    sel.Path,
		Role:    assemble.RoleCurrent,
		Content: sel.Text,
	}}
	if p.reader == nil {
		return snippets
	}

	var related []assemble.Snippet
	for _, op := range ops {
		content, err := p.readOp(op)
		if err != nil || content == "" {
			continue
		}
		role := assemble.RoleRelated
		if definition != nil && op.Path == definition.Path {
			role = assemble.RoleDefinition
		}
		snippet := assemble.Snippet{Path: op.Path, Role: role, Content: content}
		if role == assemble.RoleDefinition {
			snippets = append(snippets, snippet)
		} else {
			related = append(related, snippet)
		}
	}

	return append(snippets, related...)
}

// readOp executes one read instruction, enforcing its byte cap at a line
// boundary.
func (p *Pipeline) readOp(op plan.ReadFileOp) (string, error) {
	var content string
	var err error
	if op.StartLine != nil && op.EndLine != nil {
		content, err = p.reader.ReadRange(op.Path, *op.StartLine, *op.EndLine)
	} else {
		content, err = p.reader.ReadFile(op.Path)
	}
	if err != nil {
		return "", err
	}
	return capBytes(content, op.MaxBytes), nil
}

// capBytes truncates content to max bytes at the nearest preceding line
// boundary.
func capBytes(content string, max int) string {
	if max <= 0 || len(content) <= max {
		return content
	}
	cut := content[:max]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut
}
