package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/termplan/internal/cli/formatter"
	"github.com/alexanderramin/termplan/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// termplanHuhTheme is the huh theme matching the formatter palette.
func termplanHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

// termFields holds the editable academic term values as form strings.
type termFields struct {
	Term string
	Type string
	Year string
}

func termFieldsOf(p domain.TermPlan) termFields {
	f := termFields{Term: p.AcademicTerm, Type: p.TermType}
	if p.TermYear > 0 {
		f.Year = strconv.Itoa(p.TermYear)
	}
	return f
}

// mutation binds the fields to domain.SaveAcademicTerm.
func (f termFields) mutation() func(domain.TermPlan) (domain.TermPlan, error) {
	year, _ := strconv.Atoi(strings.TrimSpace(f.Year))
	return func(p domain.TermPlan) (domain.TermPlan, error) {
		return domain.SaveAcademicTerm(p, f.Term, f.Type, year)
	}
}

var termTypes = []string{"semester", "quarter", "trimester", "year"}

// academicTermForm edits the term name, type and year of a plan.
func academicTermForm(f *termFields) *huh.Form {
	options := make([]huh.Option[string], 0, len(termTypes)+1)
	known := false
	for _, t := range termTypes {
		options = append(options, huh.NewOption(t, t))
		known = known || t == f.Type
	}
	if f.Type != "" && !known {
		options = append(options, huh.NewOption(f.Type, f.Type))
	}
	if f.Type == "" {
		f.Type = termTypes[0]
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Academic Term").
				Placeholder("Fall").
				Value(&f.Term).
				Validate(validateRequired),
			huh.NewSelect[string]().
				Title("Term Type").
				Options(options...).
				Value(&f.Type),
			huh.NewInput().
				Title("Year").
				Placeholder("2025").
				Value(&f.Year).
				Validate(validateYear),
		),
	).WithTheme(termplanHuhTheme()).WithShowHelp(false)
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

// validateYear accepts empty or a four-digit year.
func validateYear(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1000 || v > 9999 {
		return fmt.Errorf("enter a four-digit year")
	}
	return nil
}

// validateClock accepts a 24-hour HH:MM time.
func validateClock(s string) error {
	if err := domain.ValidateClock(s); err != nil {
		return fmt.Errorf("use HH:MM (24-hour)")
	}
	return nil
}
