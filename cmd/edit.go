package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/streed/notevault/internal/editor"
	interrors "github.com/streed/notevault/internal/errors"
)

var editCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Edit a note in your editor",
	Long: `Open a note in your configured editor. Edits are saved through an
editing session that debounces writes and snapshots a version when the
content has drifted far enough from the last one.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(_ *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s", interrors.ErrInvalidNoteID, args[0])
	}

	session, err := editor.NewSession(coordinator, id, appConfig.DebounceDelay(), appConfig.VersionCheckInterval())
	if err != nil {
		return fmt.Errorf("failed to open editing session: %w", err)
	}

	edited, err := getContentFromEditor(session.Content())
	if err != nil {
		session.Close()
		return err
	}

	if edited != session.Content() {
		session.SetContent(edited)
	}
	if err := session.Close(); err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}

	fmt.Printf("Note %d saved\n", id)
	return nil
}
