package output

import (
	"fmt"
	"strings"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Table is the format-neutral form of a listing. JSON output ignores it and
// marshals the source value instead.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
	Footer string
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// Render writes value in the requested format. t is used for the table and
// markdown formats.
func Render(format Format, value any, t Table) (string, error) {
	switch format {
	case FormatJSON:
		return renderJSON(value, true)
	case FormatMarkdown:
		return renderMarkdown(t), nil
	default:
		return renderTable(t), nil
	}
}
