package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hargabyte/lens/internal/config"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the .lens directory and default config",
	Long: `Initialize the .lens directory in the current directory and write the
default config.yaml.

The directory holds the configuration, the symbol table, and the semantic
index. An existing config is never overwritten.

Examples:
  lens init   # Initialize in the current directory`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	existing := filepath.Join(cwd, config.ConfigDirName, config.ConfigFileName)
	if _, statErr := os.Stat(existing); statErr == nil {
		rel, _ := filepath.Rel(cwd, existing)
		fmt.Printf("Already initialized at %s\n", rel)
		return nil
	}

	path, err := config.SaveDefault(cwd)
	if err != nil {
		return err
	}

	rel, relErr := filepath.Rel(cwd, path)
	if relErr != nil {
		rel = path
	}
	fmt.Printf("Initialized lens config at %s\n", rel)
	fmt.Println("Run 'lens index' to build the symbol and semantic index.")
	return nil
}
