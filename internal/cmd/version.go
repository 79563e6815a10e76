package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lens version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lens %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
