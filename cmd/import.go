package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/streed/notevault/internal/models"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import notes from a JSON file",
	Long: `Import notes from a JSON export. The file holds an object with a
"notes" array and an optional "versions" array. Existing notes are
untouched; imported notes get fresh IDs.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

type importFile struct {
	Notes    []*models.Note    `json:"notes"`
	Versions []*models.Version `json:"versions,omitempty"`
}

func runImport(_ *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	var payload importFile
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to parse import file: %w", err)
	}

	if len(payload.Notes) == 0 {
		fmt.Println("Nothing to import.")
		return nil
	}

	// IDs in the export are remapped on insert; remember them so the
	// versions can follow their notes.
	oldIDs := make([]int, len(payload.Notes))
	for i, n := range payload.Notes {
		oldIDs[i] = n.ID
	}

	if err := coordinator.ImportNotes(payload.Notes); err != nil {
		return fmt.Errorf("failed to import notes: %w", err)
	}

	idMap := make(map[int]int, len(payload.Notes))
	for i, n := range payload.Notes {
		idMap[oldIDs[i]] = n.ID
	}

	imported := 0
	if len(payload.Versions) > 0 {
		kept := payload.Versions[:0]
		for _, v := range payload.Versions {
			newID, ok := idMap[v.NoteID]
			if !ok {
				continue
			}
			v.NoteID = newID
			kept = append(kept, v)
		}
		if len(kept) > 0 {
			if err := coordinator.ImportVersions(kept); err != nil {
				return fmt.Errorf("failed to import versions: %w", err)
			}
		}
		imported = len(kept)
	}

	fmt.Printf("Imported %d note(s) and %d version(s)\n", len(payload.Notes), imported)
	return nil
}
