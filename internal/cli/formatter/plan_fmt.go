package formatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/alexanderramin/termplan/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const labelWidth = 12

// TermTitle returns e.g. "Fall Semester 2025", skipping blank parts.
func TermTitle(p domain.TermPlan) string {
	var parts []string
	if p.AcademicTerm != "" {
		parts = append(parts, p.AcademicTerm)
	}
	if p.TermType != "" {
		parts = append(parts, strings.ToUpper(p.TermType[:1])+p.TermType[1:])
	}
	if p.TermYear > 0 {
		parts = append(parts, fmt.Sprint(p.TermYear))
	}
	if len(parts) == 0 {
		return "Untitled Term"
	}
	return strings.Join(parts, " ")
}

// FormatPlan renders the plan summary: term, goals and student roster.
func FormatPlan(p domain.TermPlan, source string, now time.Time) string {
	var b strings.Builder

	b.WriteString(Header(TermTitle(p)))
	b.WriteString("\n")

	meta := []string{TruncID(p.ID), Dim(fmt.Sprintf("v%d", p.Version))}
	if source != "" {
		meta = append(meta, SourceBadge(source))
	}
	if !p.UpdatedAt.IsZero() {
		meta = append(meta, Dim("updated "+RelativeDateFrom(p.UpdatedAt, now)))
	}
	b.WriteString(strings.Join(meta, "  "))
	b.WriteString("\n\n")

	b.WriteString(Bold("Goals"))
	b.WriteString("\n")
	if len(p.Goals) == 0 {
		b.WriteString("  " + Dim("No goals yet") + "\n")
	}
	for _, g := range p.Goals {
		b.WriteString("  • " + g + "\n")
	}

	b.WriteString("\n")
	b.WriteString(Bold("Students") + "  ")
	if p.IsEmpty() {
		b.WriteString(Dim("No students in this plan"))
	} else {
		names := make([]string, 0, len(p.Students))
		for i := range p.Students {
			names = append(names, p.Students[i].DisplayName())
		}
		b.WriteString(strings.Join(names, ", "))
	}
	b.WriteString("\n")
	return b.String()
}

// FormatStudent renders one student's curriculum and weekly grid.
func FormatStudent(sp domain.StudentPlan) string {
	var b strings.Builder

	b.WriteString(Header(sp.DisplayName()))
	b.WriteString("\n")

	rows := [][]string{
		{Dim("Core"), joinOrDash(sp.Subjects.Core)},
		{Dim("Extended"), joinOrDash(sp.Subjects.Extended)},
	}
	for _, subject := range sortedKeys(sp.Subjects.Courses) {
		rows = append(rows, []string{Dim(subject), joinOrDash(sp.Subjects.Courses[subject])})
	}
	rows = append(rows,
		[]string{Dim("Activities"), joinOrDash(sp.StandardActivities())},
		[]string{Dim("Custom"), joinOrDash(sp.CustomActivities())},
	)
	for _, r := range rows {
		pad := max(labelWidth-lipgloss.Width(r[0]), 1)
		b.WriteString("  " + r[0] + strings.Repeat(" ", pad) + r[1] + "\n")
	}

	b.WriteString("\n")
	b.WriteString(WeekGrid(sp))
	return b.String()
}

// WeekGrid renders the student's week as a time-by-day table. Columns
// are the selected days, or every day holding an assignment when none is
// selected. Rows are the union of generated slots and assigned times in
// clock order.
func WeekGrid(sp domain.StudentPlan) string {
	days := sp.Schedule.SelectedDays()
	if len(days) == 0 {
		for _, d := range domain.Days {
			if len(sp.BlockAssignments[d]) > 0 {
				days = append(days, d)
			}
		}
	}
	if len(days) == 0 {
		return Dim("  No schedule yet") + "\n"
	}

	cells := make(map[string]map[domain.Day]domain.BlockAssignment)
	addTime := func(t string) {
		if _, ok := cells[t]; !ok {
			cells[t] = make(map[domain.Day]domain.BlockAssignment)
		}
	}
	for _, d := range days {
		for _, slot := range sp.Schedule.Days[d].Slots() {
			addTime(slot)
		}
		for _, a := range sp.BlockAssignments[d] {
			addTime(a.Time)
			cells[a.Time][d] = a
		}
	}

	times := make([]string, 0, len(cells))
	for t := range cells {
		times = append(times, t)
	}
	sort.Slice(times, func(i, j int) bool {
		a, errA := domain.ClockMinutes(times[i])
		b, errB := domain.ClockMinutes(times[j])
		if errA != nil || errB != nil {
			return times[i] < times[j]
		}
		return a < b
	})

	headers := []string{"Time"}
	for _, d := range days {
		headers = append(headers, d.Short())
	}
	rows := make([][]string, 0, len(times))
	for _, t := range times {
		row := []string{Dim(t)}
		for _, d := range days {
			a, ok := cells[t][d]
			if !ok {
				row = append(row, Dim("·"))
				continue
			}
			row = append(row, BlockStyle(a.Type).Render(BlockLabel(a)))
		}
		rows = append(rows, row)
	}
	return RenderTable(headers, rows)
}

// BlockLabel is the text of a grid cell, e.g. "Math · Algebra".
func BlockLabel(a domain.BlockAssignment) string {
	label := a.Subject
	if label == "" {
		label = string(a.Type)
	}
	if a.Course != "" {
		label += " · " + a.Course
	}
	return label
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
