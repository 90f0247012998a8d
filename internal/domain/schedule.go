package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

type WeeklySchedule struct {
	Days            map[Day]DaySchedule
	UseSameSchedule bool
}

type DaySchedule struct {
	Selected    bool
	StartTime   string
	EndTime     string
	BlockLength int // minutes
	Blocks      int
}

// Clone returns a deep copy of the schedule.
func (w WeeklySchedule) Clone() WeeklySchedule {
	out := WeeklySchedule{UseSameSchedule: w.UseSameSchedule}
	if w.Days != nil {
		out.Days = make(map[Day]DaySchedule, len(w.Days))
		for d, ds := range w.Days {
			out.Days[d] = ds
		}
	}
	return out
}

// SelectedDays returns the selected days in weekday order.
func (w WeeklySchedule) SelectedDays() []Day {
	var days []Day
	for _, d := range Days {
		if ds, ok := w.Days[d]; ok && ds.Selected {
			days = append(days, d)
		}
	}
	return days
}

// ValidateClock checks that s is a 24-hour "HH:MM" string.
func ValidateClock(s string) error {
	if !clockPattern.MatchString(s) {
		return fmt.Errorf("time %q must be HH:MM (24-hour)", s)
	}
	return nil
}

// ClockMinutes converts "HH:MM" to minutes since midnight.
func ClockMinutes(s string) (int, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("time %q must be HH:MM (24-hour)", s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return h*60 + mm, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Slots derives the ordered time-slot labels of the day: StartTime plus
// k*BlockLength for k < Blocks. Slots past EndTime or midnight are dropped.
// An unparseable StartTime or non-positive BlockLength yields no slots.
func (d DaySchedule) Slots() []string {
	start, err := ClockMinutes(d.StartTime)
	if err != nil || d.BlockLength <= 0 || d.Blocks <= 0 {
		return nil
	}
	end := 24 * 60
	if e, err := ClockMinutes(d.EndTime); err == nil && e > start {
		end = e
	}
	slots := make([]string, 0, d.Blocks)
	for k := 0; k < d.Blocks; k++ {
		at := start + k*d.BlockLength
		if at >= end {
			break
		}
		slots = append(slots, formatClock(at))
	}
	return slots
}
