package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const colGap = 2

// RenderTable renders an aligned table with a header separator line.
// Column widths are measured on visible width so styled cells line up.
func RenderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder

	styled := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = StyleHeader.Render(h)
	}
	writeRow(&b, styled, widths)

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = StyleDim.Render(strings.Repeat("─", w))
	}
	writeRow(&b, sep, widths)

	for _, row := range rows {
		writeRow(&b, row, widths)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		b.WriteString(cell)
		if i < len(widths)-1 {
			pad := max(widths[i]-lipgloss.Width(cell), 0)
			b.WriteString(strings.Repeat(" ", pad+colGap))
		}
	}
	b.WriteString("\n")
}
