package output

import (
	"fmt"
	"strings"
)

func renderMarkdown(t Table) string {
	var sb strings.Builder
	if t.Title != "" {
		sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(t.Title)))
	}
	if len(t.Rows) == 0 {
		sb.WriteString("_none_\n")
		return sb.String()
	}

	sb.WriteString("|")
	for _, h := range t.Header {
		sb.WriteString(" " + escapeMarkdownCell(h) + " |")
	}
	sb.WriteString("\n|")
	for _, h := range t.Header {
		sb.WriteString(strings.Repeat("-", len(h)+2) + "|")
	}
	sb.WriteString("\n")

	for _, row := range t.Rows {
		sb.WriteString("|")
		for _, cell := range row {
			sb.WriteString(" " + escapeMarkdownCell(cell) + " |")
		}
		sb.WriteString("\n")
	}

	if t.Footer != "" {
		sb.WriteString(fmt.Sprintf("\n**Total**: %s\n", escapeMarkdownCell(t.Footer)))
	}
	return sb.String()
}

func escapeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.ReplaceAll(value, "|", "\\|")
}
