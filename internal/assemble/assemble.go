// Package assemble renders gathered snippets and the user's instruction into
// a single prompt document, enforcing hard token and character ceilings.
//
// When the document exceeds a ceiling, content is cut back in a fixed
// priority: related snippets first (lowest-ranked, i.e. last, before
// higher-ranked ones), then the definition snippet, and the current-file
// snippet only as the very last resort. Cuts land on line boundaries and the
// result carries a Trimmed flag so callers can surface the loss.
package assemble

import (
	"fmt"
	"strings"
)

// Role classifies a snippet's part in the prompt.
type Role string

const (
	RoleCurrent    Role = "current"
	RoleDefinition Role = "definition"
	RoleRelated    Role = "related"
)

// Snippet is one block of source content headed for the prompt.
type Snippet struct {
	Path    string `yaml:"path" json:"path"`
	Role    Role   `yaml:"role" json:"role"`
	Content string `yaml:"content" json:"content"`
}

// Options sets the prompt ceilings.
type Options struct {
	MaxTokens int // default 20000
	MaxChars  int // default 80000
}

// Default prompt ceilings.
const (
	DefaultMaxTokens = 20000
	DefaultMaxChars  = 80000
)

// Result is the assembled prompt plus its measured size.
type Result struct {
	Document string `yaml:"document" json:"document"`
	Tokens   int    `yaml:"tokens" json:"tokens"`
	Chars    int    `yaml:"chars" json:"chars"`
	Trimmed  bool   `yaml:"trimmed" json:"trimmed"`
}

const trimMarker = "... [trimmed]"

// Build assembles snippets and the instruction into the prompt document,
// trimming as needed to stay under both ceilings. Snippet order in the
// document follows the input.
func Build(instruction string, snippets []Snippet, opts Options) Result {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}

	snips := make([]Snippet, len(snippets))
	copy(snips, snippets)

	trimmed := false
	for {
		doc := render(instruction, snips)
		tokens := CountTokens(doc)
		if tokens <= opts.MaxTokens && len(doc) <= opts.MaxChars {
			return Result{Document: doc, Tokens: tokens, Chars: len(doc), Trimmed: trimmed}
		}

		// Overage in characters; token overage converts via the document's
		// current chars-per-token ratio.
		excess := len(doc) - opts.MaxChars
		if tokens > opts.MaxTokens {
			ratio := float64(len(doc)) / float64(tokens)
			if byTokens := int(float64(tokens-opts.MaxTokens) * ratio); byTokens > excess {
				excess = byTokens
			}
		}

		var ok bool
		snips, ok = shrinkBy(snips, excess)
		if !ok {
			// Nothing left to cut: hard-slice the document itself.
			doc = capChars(doc, opts.MaxChars)
			return Result{Document: doc, Tokens: CountTokens(doc), Chars: len(doc), Trimmed: true}
		}
		trimmed = true
	}
}

// shrinkBy removes roughly excess bytes of snippet content. Related snippets
// shrink first, last (lowest-ranked) to first; a related snippet too small
// to absorb the cut is dropped outright. The definition shrinks next, the
// current file last, and neither is ever dropped.
func shrinkBy(snips []Snippet, excess int) ([]Snippet, bool) {
	for i := len(snips) - 1; i >= 0; i-- {
		if snips[i].Role != RoleRelated {
			continue
		}
		if cutExcess(&snips[i], excess) {
			return snips, true
		}
		return append(snips[:i], snips[i+1:]...), true
	}
	for i := range snips {
		if snips[i].Role == RoleDefinition && cutExcess(&snips[i], excess) {
			return snips, true
		}
	}
	for i := range snips {
		if snips[i].Role == RoleCurrent && cutExcess(&snips[i], excess) {
			return snips, true
		}
	}
	return snips, false
}

// cutExcess trims roughly excess bytes off the snippet's tail at a line
// boundary and appends the trim marker. Returns false when the snippet
// cannot absorb a cut of that size.
func cutExcess(s *Snippet, excess int) bool {
	content := s.Content
	if strings.HasSuffix(content, trimMarker) {
		content = strings.TrimSuffix(content, trimMarker)
		content = strings.TrimSuffix(content, "\n")
	}

	target := len(content) - excess - len(trimMarker) - 1
	if target <= 0 {
		return false
	}
	cut := content[:target]
	i := strings.LastIndexByte(cut, '\n')
	if i <= 0 {
		return false
	}

	next := cut[:i] + "\n" + trimMarker
	if len(next) >= len(s.Content) {
		return false
	}
	s.Content = next
	return true
}

// render lays the document out as tagged snippet blocks followed by the
// instruction.
func render(instruction string, snips []Snippet) string {
	var b strings.Builder
	b.WriteString("<code_context>\n")
	for _, s := range snips {
		fmt.Fprintf(&b, "<snippet path=%q role=%q>\n", s.Path, s.Role)
		b.WriteString(escapeContent(s.Content))
		if !strings.HasSuffix(s.Content, "\n") {
			b.WriteByte('\n')
		}
		b.WriteString("</snippet>\n")
	}
	b.WriteString("</code_context>\n\n<instruction>\n")
	b.WriteString(instruction)
	b.WriteString("\n</instruction>\n")
	return b.String()
}

// escapeContent defuses a closing snippet tag appearing inside source text.
func escapeContent(s string) string {
	return strings.ReplaceAll(s, "</snippet", `<\/snippet`)
}

// capChars slices to max bytes at the nearest preceding line boundary.
func capChars(doc string, max int) string {
	if len(doc) <= max {
		return doc
	}
	cut := doc[:max]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut
}
