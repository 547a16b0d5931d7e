package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// getContentFromEditor opens the configured editor on a temp file seeded
// with the initial content and returns what the user saved.
func getContentFromEditor(initial string) (string, error) {
	editor := ""
	if appConfig != nil {
		editor = appConfig.Editor
	}
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	tmpFile, err := os.CreateTemp("", "notevault-*.md")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if initial != "" {
		if _, err := tmpFile.WriteString(initial); err != nil {
			tmpFile.Close()
			return "", fmt.Errorf("failed to seed temp file: %w", err)
		}
	}
	tmpFile.Close()

	parts := strings.Fields(editor)
	parts = append(parts, tmpPath)
	editorCmd := exec.Command(parts[0], parts[1:]...)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	if err := editorCmd.Run(); err != nil {
		return "", fmt.Errorf("editor exited with error: %w", err)
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to read edited file: %w", err)
	}

	return strings.TrimRight(string(data), "\n"), nil
}
