package formatter

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RelativeDateFrom returns a human-friendly relative date string from a reference time.
func RelativeDateFrom(t time.Time, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < 0:
		return t.Format("Jan 2, 2006")
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	}

	days := int(math.Round(diff.Hours() / 24))
	switch {
	case days == 1:
		return "Yesterday"
	case days < 14:
		return fmt.Sprintf("%dd ago", days)
	case days < 60:
		return fmt.Sprintf("%dw ago", days/7)
	default:
		return t.Format("Jan 2, 2006")
	}
}

// TruncID returns the first 8 characters of an ID, dimmed.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return StyleDim.Render(id)
}

// FormatMinutes converts raw minutes into human-friendly format.
func FormatMinutes(min int) string {
	if min <= 0 {
		return "0m"
	}
	h, m := min/60, min%60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// Notice renders a transient status line.
func Notice(text string) string {
	if text == "" {
		return ""
	}
	return StyleYellow.Render("! ") + StyleFg.Render(text)
}

// ErrorLine renders a user-facing failure message.
func ErrorLine(text string) string {
	return StyleRed.Render("✖ ") + StyleFg.Render(text)
}

// Success renders a confirmation line.
func Success(text string) string {
	return StyleGreen.Render("✔ ") + StyleFg.Render(text)
}

// joinOrDash joins items or returns a dimmed dash when there are none.
func joinOrDash(items []string) string {
	if len(items) == 0 {
		return Dim("—")
	}
	return strings.Join(items, ", ")
}
