package query

import (
	"slices"
	"strings"

	"github.com/starford/meshgraph/internal/models"
)

// Reserved columns that resolve to page attributes instead of metadata.
const (
	ColumnName     = "name"
	ColumnFilePath = "file_path"
)

// Row is one page projected to the requested columns. A column whose value
// is not populated for the page is absent from Values.
type Row struct {
	Page   string              `json:"page"`
	Values map[string][]string `json:"values"`
}

// Get returns the values for column, or nil when absent.
func (r Row) Get(column string) []string {
	return r.Values[column]
}

// Result is a MetaTable: matched pages restricted to Columns.
type Result struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

func (r Result) Len() int { return len(r.Rows) }

// Project builds the row for p over columns.
func Project(p *models.Page, columns []string) Row {
	row := Row{Page: p.Name, Values: make(map[string][]string, len(columns))}
	for _, col := range columns {
		switch col {
		case ColumnName:
			row.Values[col] = []string{p.Name}
		case ColumnFilePath:
			row.Values[col] = []string{p.FilePath}
		default:
			if v, ok := p.Metadata[col]; ok {
				row.Values[col] = slices.Clone(v)
			}
		}
	}
	return row
}

// RenderMarkdown renders r as a Markdown table. Rows with none of the
// requested columns populated are skipped; multi-values are joined by ", ".
// A result without columns renders the name column.
func RenderMarkdown(r Result) string {
	columns := r.Columns
	if len(columns) == 0 {
		columns = []string{ColumnName}
	}

	var rows [][]string
	for _, row := range r.Rows {
		cells := make([]string, len(columns))
		populated := false
		for i, col := range columns {
			v := row.Get(col)
			if len(v) == 0 && col == ColumnName {
				v = []string{row.Page}
			}
			if len(v) == 0 {
				continue
			}
			populated = true
			cells[i] = escapeCell(strings.Join(v, ", "))
		}
		if populated {
			rows = append(rows, cells)
		}
	}
	if len(rows) == 0 {
		return "_No matching pages found_\n"
	}

	var b strings.Builder
	b.WriteString("| " + strings.Join(columns, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(columns)) + "\n")
	for _, cells := range rows {
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
