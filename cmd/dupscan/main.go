package main

import (
	"os"

	"github.com/ludo-technologies/dupscan/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dupscan",
	Short: "A Near-Duplicate Detector for Python Code",
	Long: `dupscan finds near-duplicate Python functions, classes and modules
using SimHash fingerprints over structural token streams.

Features:
  • SimHash fingerprinting with a BK-tree candidate index
  • Exact weighted token similarity confirmation
  • Similarity graphs with adaptive threshold search
  • Renaming-invariant: identifiers never affect the result`,
	Version: version.Short(),
}

func init() {
	rootCmd.AddCommand(NewScanCommand().CreateCobraCommand())
	rootCmd.AddCommand(NewGraphCommand().CreateCobraCommand())
	rootCmd.AddCommand(NewVersionCommand().CreateCobraCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
