// Package grid renders simple aligned row output for warden's status and
// list commands, replacing the original tool's fixed-width term_grid with
// tablewriter's headerless borderless rendering.
package grid

import (
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Grid accumulates rows of equal column count and renders them as an
// aligned, borderless table.
type Grid struct {
	rows [][]string
}

// Row appends one row. Every row passed to the same Grid must have the
// same number of columns.
func (g *Grid) Row(cols ...string) {
	g.rows = append(g.rows, cols)
}

// Display renders the accumulated rows.
func (g *Grid) Display() string {
	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, row := range g.rows {
		table.Append(row)
	}
	table.Render()
	return b.String()
}
