package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hargabyte/lens/internal/assemble"
	"github.com/hargabyte/lens/internal/config"
	"github.com/hargabyte/lens/internal/llm"
	"github.com/hargabyte/lens/internal/locate"
	"github.com/hargabyte/lens/internal/pipeline"
	"github.com/hargabyte/lens/internal/plan"
	"github.com/hargabyte/lens/internal/rank"
	"github.com/hargabyte/lens/internal/resolve"
	"github.com/hargabyte/lens/internal/semantic"
	"github.com/hargabyte/lens/internal/source"
	"github.com/hargabyte/lens/internal/symbols"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// explainCmd represents the explain command
var explainCmd = &cobra.Command{
	Use:   "explain FILE:LINE[:COL]",
	Short: "Explain the code at a file position",
	Long: `Explain the code at a file position using a local model.

lens gathers context around the position: the definition of the symbol under
the cursor, the symbols the selection depends on (resolved against the
index), and nearby references. The context is packed into a token-bounded
prompt and sent to the configured model.

Lines and columns are 1-based. The selection defaults to the single target
line; use --lines to widen it.

Examples:
  lens explain src/app.ts:42            # Explain line 42
  lens explain src/app.ts:42:17         # Cursor on column 17
  lens explain src/app.ts:42 --lines 8  # Select 8 lines starting at 42
  lens explain src/app.ts:42 --dry-run  # Show the assembled context only
  lens explain src/app.ts:42 -q "why is this cached?"`,
	Args: cobra.ExactArgs(1),
	RunE: runExplain,
}

var (
	explainQuestion string
	explainLines    int
	explainDryRun   bool
)

func init() {
	rootCmd.AddCommand(explainCmd)

	explainCmd.Flags().StringVarP(&explainQuestion, "question", "q", "Explain what this code does and why.", "Question to ask about the selection")
	explainCmd.Flags().IntVar(&explainLines, "lines", 1, "Number of lines in the selection")
	explainCmd.Flags().BoolVar(&explainDryRun, "dry-run", false, "Print the assembled context instead of calling the model")
}

func runExplain(cmd *cobra.Command, args []string) error {
	target, err := parseTarget(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	root, lensDir, err := projectRoot()
	if err != nil {
		return err
	}

	rel, err := relativizePath(root, target.path)
	if err != nil {
		return err
	}

	reader := source.NewFSReader(root)

	lines := explainLines
	if lines < 1 {
		lines = 1
	}
	text, err := reader.ReadRange(rel, target.line, target.line+lines)
	if err != nil {
		return fmt.Errorf("read selection: %w", err)
	}

	// The symbol table and semantic index are optional: without 'lens index'
	// the pipeline still runs on the selection and its file alone.
	var table symbols.Table
	var index semantic.Index
	var provider locate.Provider
	if lensDir != "" {
		db, err := symbols.Open(lensDir)
		if err == nil {
			defer db.Close()
			table = db
			provider = locate.NewTableProvider(reader, db)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "symbol table unavailable: %v\n", err)
		}

		embedder := semantic.NewOllamaEmbedderWithConfig(cfg.Model.Endpoint, cfg.Index.EmbeddingModel)
		store, err := semantic.NewPersistentStore(filepath.Join(lensDir, "vectors"), embedder)
		if err == nil {
			index = store
		} else if verbose {
			fmt.Fprintf(os.Stderr, "semantic index unavailable: %v\n", err)
		}
	}

	var client llm.Client
	if !explainDryRun {
		client = llm.NewOllamaClientWithConfig(cfg.Model.Endpoint, cfg.Model.Name)
	}

	pipe := pipeline.New(provider, reader, table, index, client, pipelineOptions(cfg))

	sel := pipeline.Selection{
		Path: rel,
		Line: target.line,
		Char: target.col,
		Text: text,
	}

	if explainDryRun {
		built, err := pipe.BuildContext(cmd.Context(), sel, explainQuestion)
		if err != nil {
			return err
		}
		return printDryRun(built)
	}

	answer, built, err := pipe.Explain(cmd.Context(), sel, explainQuestion)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "context: %d snippets, %d tokens, %d chars, trimmed=%v, model=%s\n",
			len(built.Snippets), built.Prompt.Tokens, built.Prompt.Chars, built.Prompt.Trimmed, built.Model)
	}

	fmt.Println(answer)
	return nil
}

// pipelineOptions maps the loaded config onto the per-stage knobs.
func pipelineOptions(cfg *config.Config) pipeline.Options {
	return pipeline.Options{
		MaxReferences: cfg.Context.MaxReferences,
		Rank: rank.Options{
			MaxSymbols: cfg.Context.MaxSymbols,
			MaxFiles:   cfg.Context.MaxFiles,
		},
		Resolve: resolve.Options{
			MaxBytes: cfg.Context.MaxReadBytes,
			TopK:     cfg.Context.SemanticTopK,
		},
		Plan: plan.Options{
			ExpandLines:  cfg.Context.ExpandLines,
			MaxBytes:     cfg.Context.MaxReadBytes,
			BytesPerLine: cfg.Context.BytesPerLine,
			HeadLines:    cfg.Context.HeadLines,
			TailLines:    cfg.Context.TailLines,
		},
		Assemble: assemble.Options{
			MaxTokens: cfg.Prompt.MaxTokens,
			MaxChars:  cfg.Prompt.MaxChars,
		},
	}
}

// explainTarget is a parsed FILE:LINE[:COL] argument, 0-based.
type explainTarget struct {
	path string
	line int
	col  int
}

// parseTarget parses FILE:LINE[:COL] with 1-based line and column.
func parseTarget(arg string) (explainTarget, error) {
	parts := strings.Split(arg, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return explainTarget{}, fmt.Errorf("invalid target %q: expected FILE:LINE[:COL]", arg)
	}

	line, err := strconv.Atoi(parts[1])
	if err != nil || line < 1 {
		return explainTarget{}, fmt.Errorf("invalid line in %q: expected a 1-based line number", arg)
	}

	col := 1
	if len(parts) == 3 {
		col, err = strconv.Atoi(parts[2])
		if err != nil || col < 1 {
			return explainTarget{}, fmt.Errorf("invalid column in %q: expected a 1-based column number", arg)
		}
	}

	return explainTarget{path: parts[0], line: line - 1, col: col - 1}, nil
}

// relativizePath makes path relative to the project root so locations in
// the index and the plan agree.
func relativizePath(root, path string) (string, error) {
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", err
		}
		path = abs
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		// Outside the project; keep the path as given.
		return path, nil
	}
	return rel, nil
}

// dryRunOutput is the YAML shape printed by --dry-run.
type dryRunOutput struct {
	Ranked   []rank.RankedResult `yaml:"ranked"`
	Plan     []plan.ReadFileOp   `yaml:"plan"`
	Tokens   int                 `yaml:"tokens"`
	Chars    int                 `yaml:"chars"`
	Trimmed  bool                `yaml:"trimmed"`
	Document string              `yaml:"document"`
}

func printDryRun(built *pipeline.Context) error {
	out := dryRunOutput{
		Ranked:   built.Ranked,
		Plan:     built.Plan,
		Tokens:   built.Prompt.Tokens,
		Chars:    built.Prompt.Chars,
		Trimmed:  built.Prompt.Trimmed,
		Document: built.Prompt.Document,
	}
	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(out)
}
