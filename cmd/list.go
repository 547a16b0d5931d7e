package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streed/notevault/internal/constants"
	"github.com/streed/notevault/internal/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Long:  `List active notes, most recently updated first. Use --trash or --archive to list those instead.`,
	RunE:  runList,
}

var (
	listLimit   int
	listOffset  int
	listTrash   bool
	listArchive bool
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listLimit, "limit", "l", constants.DefaultListLimit, "Maximum number of notes to show")
	listCmd.Flags().IntVarP(&listOffset, "offset", "o", 0, "Number of notes to skip")
	listCmd.Flags().BoolVar(&listTrash, "trash", false, "List trashed notes")
	listCmd.Flags().BoolVar(&listArchive, "archive", false, "List archived notes")
}

func runList(_ *cobra.Command, args []string) error {
	var notes []*models.Note
	var err error

	switch {
	case listTrash:
		notes, err = coordinator.ListTrashedNotes()
	case listArchive:
		notes, err = coordinator.ListArchivedNotes()
	default:
		notes, err = coordinator.ListActiveNotes(listLimit, listOffset)
	}
	if err != nil {
		return fmt.Errorf("failed to list notes: %w", err)
	}

	if len(notes) == 0 {
		fmt.Println("No notes found.")
		return nil
	}

	for _, note := range notes {
		marker := " "
		if note.Favorite {
			marker = "*"
		}
		fmt.Printf("[%d]%s %s\n", note.ID, marker, note.Title)
		fmt.Printf("     Updated: %s\n", note.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("%d notes\n", len(notes))

	return nil
}
