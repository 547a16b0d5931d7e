package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	interrors "github.com/streed/notevault/internal/errors"
)

var favoriteCmd = &cobra.Command{
	Use:   "favorite [id]",
	Short: "Mark or unmark a note as a favorite",
	Args:  cobra.ExactArgs(1),
	RunE:  runFavorite,
}

var favoriteUnset bool

func init() {
	rootCmd.AddCommand(favoriteCmd)
	favoriteCmd.Flags().BoolVar(&favoriteUnset, "unset", false, "Remove the favorite mark")
}

func runFavorite(_ *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s", interrors.ErrInvalidNoteID, args[0])
	}

	if err := coordinator.SetFavorite(id, !favoriteUnset); err != nil {
		return fmt.Errorf("failed to update favorite: %w", err)
	}

	if favoriteUnset {
		fmt.Printf("Note %d unfavorited\n", id)
	} else {
		fmt.Printf("Note %d favorited\n", id)
	}
	return nil
}
