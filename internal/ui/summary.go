package ui

import (
	"fmt"
	"strings"

	"github.com/gubarz/tut2nb/internal/convert"
)

// RenderSummary formats the one line report printed after a conversion
func RenderSummary(input, output string, stats convert.Stats) string {
	parts := []string{
		styles.Code.Render(fmt.Sprintf("%d code", stats.CodeCells)),
		styles.Markdown.Render(fmt.Sprintf("%d markdown", stats.MarkdownCells)),
	}
	if stats.Downloads > 0 {
		parts = append(parts, styles.Dim.Render(fmt.Sprintf("%d downloads", stats.Downloads)))
	}
	if stats.Manual > 0 {
		parts = append(parts, styles.Cursor.Render(fmt.Sprintf("%d manual", stats.Manual)))
	}

	return styles.PreviewHeader.Render(input) +
		styles.Dim.Render(" → ") +
		styles.PreviewHeader.Render(output) +
		" " + strings.Join(parts, styles.Dim.Render(" • "))
}
