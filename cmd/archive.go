package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	interrors "github.com/streed/notevault/internal/errors"
)

var archiveCmd = &cobra.Command{
	Use:   "archive [id]",
	Short: "Archive a note",
	Long: `Move an active note to the archive. Archived notes are kept but hidden
from listings and search. Trashed notes cannot be archived; restore
them first.`,
	Args: cobra.ExactArgs(1),
	RunE: runArchive,
}

var unarchiveCmd = &cobra.Command{
	Use:   "unarchive [id]",
	Short: "Move a note from the archive back to active",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnarchive,
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(unarchiveCmd)
}

func runArchive(_ *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s", interrors.ErrInvalidNoteID, args[0])
	}

	if err := coordinator.ArchiveNote(id); err != nil {
		return fmt.Errorf("failed to archive note: %w", err)
	}
	fmt.Printf("Note %d archived\n", id)
	return nil
}

func runUnarchive(_ *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s", interrors.ErrInvalidNoteID, args[0])
	}

	if err := coordinator.UnarchiveNote(id); err != nil {
		return fmt.Errorf("failed to unarchive note: %w", err)
	}
	fmt.Printf("Note %d unarchived\n", id)
	return nil
}
