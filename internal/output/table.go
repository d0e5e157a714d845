package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Table renders borderless left-aligned listings.
type Table struct {
	table  *tablewriter.Table
	header []string
	rows   [][]string
	quiet  bool
}

// NewTable creates a table writing to w.
func NewTable(w io.Writer, headers []string) *Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	return &Table{table: table, header: headers}
}

// NewQuietTable creates a table that suppresses output when quiet is true.
func NewQuietTable(w io.Writer, headers []string, quiet bool) *Table {
	t := NewTable(w, headers)
	t.quiet = quiet
	return t
}

// AddRow adds a row to the table.
func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

// Render outputs the table.
func (t *Table) Render() {
	if t.quiet {
		return
	}
	t.table.Header(t.header)
	t.table.Bulk(t.rows)
	t.table.Render()
}
