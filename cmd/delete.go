package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	interrors "github.com/streed/notevault/internal/errors"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [id...]",
	Short: "Move notes to the trash",
	Long: `Move one or more notes to the trash. Trashed notes are excluded from
listings and search but can be restored. Use --permanent to delete
notes and their version history outright.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

var deletePermanent bool

func init() {
	rootCmd.AddCommand(deleteCmd)
	deleteCmd.Flags().BoolVar(&deletePermanent, "permanent", false, "Delete permanently instead of trashing")
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", interrors.ErrInvalidNoteID, arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func runDelete(_ *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}

	if deletePermanent {
		if len(ids) == 1 {
			err = coordinator.DeleteNotePermanently(ids[0])
		} else {
			err = coordinator.DeleteNotesPermanently(ids)
		}
		if err != nil {
			return fmt.Errorf("failed to delete notes: %w", err)
		}
		fmt.Printf("Permanently deleted %d note(s)\n", len(ids))
		return nil
	}

	if len(ids) == 1 {
		err = coordinator.TrashNote(ids[0])
	} else {
		err = coordinator.TrashNotes(ids)
	}
	if err != nil {
		return fmt.Errorf("failed to trash notes: %w", err)
	}
	fmt.Printf("Moved %d note(s) to trash\n", len(ids))
	return nil
}
