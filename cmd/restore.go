package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore [id...]",
	Short: "Restore notes from the trash",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(_ *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	if len(ids) == 1 {
		err = coordinator.RestoreNote(ids[0])
	} else {
		err = coordinator.RestoreNotes(ids)
	}
	if err != nil {
		return fmt.Errorf("failed to restore notes: %w", err)
	}

	fmt.Printf("Restored %d note(s)\n", len(ids))
	return nil
}
