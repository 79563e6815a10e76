package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hargabyte/lens/internal/config"
	"github.com/hargabyte/lens/internal/index"
	"github.com/hargabyte/lens/internal/semantic"
	"github.com/hargabyte/lens/internal/symbols"
	"github.com/spf13/cobra"
)

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the symbol table and semantic index",
	Long: `Walk the project tree, parse every supported source file, and record
top-level declarations in the symbol table. Unless disabled, each
declaration is also embedded into the semantic index for similarity search.

Embedding requires a running Ollama endpoint (see model.endpoint in
.lens/config.yaml). Use --no-embed to build the symbol table alone.

Examples:
  lens index             # Full index with embeddings
  lens index --no-embed  # Symbol table only
  lens index -v          # Log every skipped file`,
	RunE: runIndex,
}

var indexNoEmbed bool

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVar(&indexNoEmbed, "no-embed", false, "Skip semantic embedding, build the symbol table only")
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	root, lensDir, err := projectRoot()
	if err != nil {
		return err
	}
	if lensDir == "" {
		lensDir, err = config.EnsureConfigDir(root)
		if err != nil {
			return err
		}
	}

	table, err := symbols.Open(lensDir)
	if err != nil {
		return fmt.Errorf("open symbol table: %w", err)
	}
	defer table.Close()

	var vectors index.VectorWriter
	if !indexNoEmbed {
		embedder := semantic.NewOllamaEmbedderWithConfig(cfg.Model.Endpoint, cfg.Index.EmbeddingModel)
		store, err := semantic.NewPersistentStore(filepath.Join(lensDir, "vectors"), embedder)
		if err != nil {
			return fmt.Errorf("open semantic index: %w", err)
		}
		vectors = store
	}

	ix := index.New(root, table, vectors, cfg.Index)
	if verbose {
		ix.Logf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}

	stats, err := ix.Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("Indexed %d files, %d declarations", stats.Files, stats.Declarations)
	if vectors != nil {
		fmt.Printf(", %d embedded", stats.Embedded)
	}
	if stats.Failed > 0 {
		fmt.Printf(" (%d failed)", stats.Failed)
	}
	fmt.Println()

	return nil
}
