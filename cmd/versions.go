package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streed/notevault/internal/constants"
	interrors "github.com/streed/notevault/internal/errors"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "Inspect and manage note versions",
	Long: `Work with a note's version history. Versions are snapshots of the
note's content; regular ones are subject to retention cleanup, pinned
ones survive indefinitely.`,
}

var versionsListCmd = &cobra.Command{
	Use:   "list [note-id]",
	Short: "List a note's versions, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionsList,
}

var versionsShowCmd = &cobra.Command{
	Use:   "show [version-id]",
	Short: "Show one version's full content",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionsShow,
}

var versionsCreateCmd = &cobra.Command{
	Use:   "create [note-id]",
	Short: "Snapshot a note's current content",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionsCreate,
}

var versionsDeleteCmd = &cobra.Command{
	Use:   "delete [version-id]",
	Short: "Delete one version",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionsDelete,
}

var (
	versionsCreatePin   bool
	versionsCreateLabel string
)

func init() {
	rootCmd.AddCommand(versionsCmd)
	versionsCmd.AddCommand(versionsListCmd)
	versionsCmd.AddCommand(versionsShowCmd)
	versionsCmd.AddCommand(versionsCreateCmd)
	versionsCmd.AddCommand(versionsDeleteCmd)
	versionsCreateCmd.Flags().BoolVar(&versionsCreatePin, "pin", false, "Pin the version so retention never deletes it")
	versionsCreateCmd.Flags().StringVar(&versionsCreateLabel, "label", "manual", "Label describing the snapshot")
}

func runVersionsList(_ *cobra.Command, args []string) error {
	noteID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s", interrors.ErrInvalidNoteID, args[0])
	}

	vs, err := coordinator.Versions().Versions(noteID)
	if err != nil {
		return fmt.Errorf("failed to list versions: %w", err)
	}

	if len(vs) == 0 {
		fmt.Printf("No versions for note %d\n", noteID)
		return nil
	}

	for _, v := range vs {
		pin := " "
		if v.Pinned() {
			pin = "P"
		}
		preview := v.Content
		if i := strings.IndexByte(preview, '\n'); i >= 0 {
			preview = preview[:i]
		}
		if len(preview) > constants.ShortPreviewLength {
			preview = preview[:constants.ShortPreviewLength] + "..."
		}
		fmt.Printf("[%d]%s %s  %s\n", v.ID, pin, v.CreatedAt.Format("2006-01-02 15:04:05"), v.Label)
		fmt.Printf("     %s\n", preview)
	}
	fmt.Printf("%d version(s)\n", len(vs))
	return nil
}

func runVersionsShow(_ *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s", interrors.ErrInvalidVersionID, args[0])
	}

	v, err := coordinator.Versions().Get(id)
	if err != nil {
		return fmt.Errorf("failed to get version: %w", err)
	}

	fmt.Printf("Version %d of note %d (%s)\n", v.ID, v.NoteID, v.Kind)
	fmt.Printf("Created: %s\n", v.CreatedAt.Format("2006-01-02 15:04:05"))
	if v.Label != "" {
		fmt.Printf("Label: %s\n", v.Label)
	}
	if v.Tool != "" {
		fmt.Printf("Tool: %s (%dms)\n", v.Tool, v.ToolDurationMs)
	}
	fmt.Println()
	fmt.Println(v.Content)
	return nil
}

func runVersionsCreate(_ *cobra.Command, args []string) error {
	noteID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s", interrors.ErrInvalidNoteID, args[0])
	}

	note, err := coordinator.GetNote(noteID)
	if err != nil {
		return fmt.Errorf("failed to get note: %w", err)
	}

	engine := coordinator.Versions()
	if versionsCreatePin {
		v, err := engine.CreateVersionPinned(noteID, note.Content, versionsCreateLabel)
		if err != nil {
			return fmt.Errorf("failed to create version: %w", err)
		}
		fmt.Printf("Pinned version %d created for note %d\n", v.ID, noteID)
		return nil
	}

	v, err := engine.CreateVersion(noteID, note.Content, versionsCreateLabel)
	if err != nil {
		return fmt.Errorf("failed to create version: %w", err)
	}
	fmt.Printf("Version %d created for note %d\n", v.ID, noteID)
	return nil
}

func runVersionsDelete(_ *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: %s", interrors.ErrInvalidVersionID, args[0])
	}

	deleted, err := coordinator.DeleteVersion(id)
	if err != nil {
		return fmt.Errorf("failed to delete version: %w", err)
	}
	if !deleted {
		return interrors.ErrVersionNotFound
	}
	fmt.Printf("Version %d deleted\n", id)
	return nil
}
