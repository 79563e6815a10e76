// Package main is the entry point for the lens CLI tool.
package main

import (
	"github.com/hargabyte/lens/internal/cmd"
)

func main() {
	cmd.Execute()
}
