package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	interrors "github.com/streed/notevault/internal/errors"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new note",
	Long: `Add a new note. The title is derived from the first line of the content.

Content can be provided in several ways:
1. Via --content flag: notevault add -c "Shopping list\nmilk, eggs"
2. Via stdin: cat note.txt | notevault add
3. Via editor: notevault add -e`,
	RunE: runAdd,
}

var (
	addContent   string
	addUseEditor bool
)

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addContent, "content", "c", "", "Note content")
	addCmd.Flags().BoolVarP(&addUseEditor, "editor", "e", false, "Use editor for content input")
}

func runAdd(cmd *cobra.Command, args []string) error {
	content := addContent

	if content == "" {
		stat, _ := os.Stdin.Stat()
		isPiped := (stat.Mode() & os.ModeCharDevice) == 0

		if addUseEditor && !isPiped {
			var err error
			content, err = getContentFromEditor("")
			if err != nil {
				return fmt.Errorf("failed to get content from editor: %w", err)
			}
		} else {
			if !isPiped {
				fmt.Println("Enter note content (press Ctrl+D when finished):")
			}
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
			var lines []string
			for scanner.Scan() {
				lines = append(lines, scanner.Text())
			}
			content = strings.Join(lines, "\n")
		}
	}

	if strings.TrimSpace(content) == "" {
		return interrors.ErrEmptyContent
	}

	note, err := coordinator.CreateNote(content)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	fmt.Printf("Note created with ID %d\n", note.ID)
	fmt.Printf("Title: %s\n", note.Title)
	return nil
}
