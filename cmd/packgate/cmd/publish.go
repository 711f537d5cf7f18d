package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/solatis/packgate/internal/packfile"
)

var publishCmd = &cobra.Command{
	Use:   "publish <pack-file>",
	Short: "Validate and publish a pack to the database",
	Long: `Validates a pack file and stores it as a published pack record. Published
records participate in scope resolution for evaluations that pull packs
from the database.`,
	Args:         cobra.ExactArgs(1),
	RunE:         runPublish,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	pack, err := packfile.Load(args[0])
	if err != nil {
		return err
	}
	if err := packfile.Validate(pack); err != nil {
		return err
	}

	store, closeDB, err := openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	id, err := store.SavePackRecord(pack, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("published %s version %s as record %s\n", pack.Metadata.ID, pack.Metadata.Version, id)
	return nil
}
