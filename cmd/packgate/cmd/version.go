package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/packgate/internal/engine"
)

const Version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("packgate %s\n", Version)
		fmt.Printf("evaluator %s\n", engine.EvaluatorVersion)
		fmt.Printf("fact catalog %s\n", engine.FactCatalogVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
