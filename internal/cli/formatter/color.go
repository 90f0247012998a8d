package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/termplan/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// BlockStyle returns the style a grid cell of the given type is drawn in.
func BlockStyle(t domain.BlockType) lipgloss.Style {
	switch t {
	case domain.BlockSubject:
		return StyleGreen
	case domain.BlockActivity:
		return StylePurple
	case domain.BlockBreak:
		return StyleYellow
	default:
		return StyleFg
	}
}

// SourceBadge labels where the displayed plan came from.
func SourceBadge(source string) string {
	switch source {
	case "remote":
		return StyleGreen.Render("● dashboard")
	case "local":
		return StyleYellow.Render("○ cached")
	default:
		return StyleDim.Render("○ none")
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
