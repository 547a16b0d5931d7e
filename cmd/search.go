package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/streed/notevault/internal/constants"
	"github.com/streed/notevault/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search notes by content or title",
	Long: `Search active notes for a query, case-insensitively, matching either
the content or the title. Repeated identical searches are served from
an in-memory cache. Use --context to see where the query matched.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

var (
	searchLimit   int
	searchContext bool
)

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "l", constants.DefaultSearchLimit, "Maximum number of results to show")
	searchCmd.Flags().BoolVarP(&searchContext, "context", "C", false, "Show match context and positions")
}

func runSearch(_ *cobra.Command, args []string) error {
	query := args[0]

	if searchContext {
		return runSearchWithContext(query)
	}

	notes, err := coordinator.SearchNotes(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(notes) == 0 {
		fmt.Printf("No notes found matching '%s'\n", query)
		return nil
	}

	shown := notes
	if searchLimit > 0 && len(shown) > searchLimit {
		shown = shown[:searchLimit]
	}

	fmt.Printf("Found %d note(s) matching '%s':\n\n", len(notes), query)
	for _, note := range shown {
		fmt.Printf("[%d] %s\n", note.ID, note.Title)
		preview := note.Content
		if i := strings.IndexByte(preview, '\n'); i >= 0 {
			preview = preview[:i]
		}
		if len(preview) > constants.ShortPreviewLength {
			preview = preview[:constants.ShortPreviewLength] + "..."
		}
		fmt.Printf("     %s\n", preview)
	}
	if len(shown) < len(notes) {
		fmt.Printf("\n... and %d more\n", len(notes)-len(shown))
	}
	return nil
}

func runSearchWithContext(query string) error {
	results, err := coordinator.SearchNotesWithHighlights(query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Printf("No notes found matching '%s'\n", query)
		return nil
	}

	shown := results
	if searchLimit > 0 && len(shown) > searchLimit {
		shown = shown[:searchLimit]
	}

	fmt.Printf("Found %d note(s) matching '%s':\n\n", len(results), query)
	for _, r := range shown {
		fmt.Printf("[%d] %s\n", r.Note.ID, r.Note.Title)
		if r.TitleOnly {
			fmt.Printf("     (title match) %s\n", r.Excerpt.Text)
			continue
		}
		fmt.Printf("     %s\n", formatExcerpt(r.Excerpt))
		fmt.Printf("     %d match(es)", r.MatchCount)
		if len(r.Matches) > 0 {
			fmt.Printf(", first on line %d", r.Matches[0].Line)
		}
		fmt.Println()
	}
	if len(shown) < len(results) {
		fmt.Printf("\n... and %d more\n", len(results)-len(shown))
	}
	return nil
}

// formatExcerpt renders an excerpt with the match bracketed and ellipses
// on truncated sides.
func formatExcerpt(e search.Excerpt) string {
	var b strings.Builder
	if e.TruncatedStart {
		b.WriteString("...")
	}
	b.WriteString(e.Text[:e.HighlightStart])
	b.WriteString("[")
	b.WriteString(e.Text[e.HighlightStart:e.HighlightEnd])
	b.WriteString("]")
	b.WriteString(e.Text[e.HighlightEnd:])
	if e.TruncatedEnd {
		b.WriteString("...")
	}
	return strings.ReplaceAll(b.String(), "\n", " ")
}
