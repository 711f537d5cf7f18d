package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/solatis/packgate/internal/packfile"
)

var lintCmd = &cobra.Command{
	Use:   "lint <pack-file-or-dir>",
	Short: "Validate policy pack files",
	Args:  cobra.ExactArgs(1),
	RunE:  runLint,

	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(lintCmd)
}

func runLint(cmd *cobra.Command, args []string) error {
	path := args[0]

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	var packs []*packNamed
	if info.IsDir() {
		loaded, err := packfile.LoadDir(path)
		if err != nil {
			return err
		}
		for _, p := range loaded {
			packs = append(packs, &packNamed{name: p.Metadata.ID, issues: packfile.Lint(p)})
		}
	} else {
		p, err := packfile.Load(path)
		if err != nil {
			return err
		}
		packs = append(packs, &packNamed{name: path, issues: packfile.Lint(p)})
	}

	total := 0
	for _, p := range packs {
		for _, issue := range p.issues {
			fmt.Printf("%s: %s\n", p.name, issue)
			total++
		}
	}

	if total > 0 {
		return fmt.Errorf("%d lint issue(s) found", total)
	}
	fmt.Printf("%d pack(s) ok\n", len(packs))
	return nil
}

type packNamed struct {
	name   string
	issues []packfile.Issue
}
