package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStudentNotFound indicates a student-scoped mutation named an
	// unknown student id.
	ErrStudentNotFound = errors.New("student not found")

	// ErrEmptySlot indicates a block assignment without a time slot.
	ErrEmptySlot = errors.New("time slot is required")
)

// The Save* functions below are pure: the input plan is never modified,
// and on error the input plan is returned unchanged alongside the error.
// Each success bumps Version by one. Timestamps are the caller's concern.

// SaveAcademicTerm replaces the term descriptors.
func SaveAcademicTerm(p TermPlan, term, termType string, year int) (TermPlan, error) {
	out := p.Clone()
	out.AcademicTerm = strings.TrimSpace(term)
	out.TermType = strings.TrimSpace(termType)
	out.TermYear = year
	out.Version++
	return out, nil
}

// SaveGoals replaces the plan goals. Blank goals are dropped.
func SaveGoals(p TermPlan, goals []string) (TermPlan, error) {
	out := p.Clone()
	out.Goals = make([]string, 0, len(goals))
	for _, g := range goals {
		if g = strings.TrimSpace(g); g != "" {
			out.Goals = append(out.Goals, g)
		}
	}
	out.Version++
	return out, nil
}

// SaveSchedule replaces the weekly schedule of one student.
func SaveSchedule(p TermPlan, studentID string, s WeeklySchedule) (TermPlan, error) {
	return updateStudent(p, studentID, func(sp *StudentPlan) {
		sp.Schedule = s.Clone()
	})
}

// SaveSubjects replaces the subjects and courses of one student.
func SaveSubjects(p TermPlan, studentID string, s Subjects) (TermPlan, error) {
	return updateStudent(p, studentID, func(sp *StudentPlan) {
		sp.Subjects = s.Clone()
	})
}

// SaveActivities replaces the activity list of one student. Duplicate
// names keep their first occurrence.
func SaveActivities(p TermPlan, studentID string, activities []Activity) (TermPlan, error) {
	return updateStudent(p, studentID, func(sp *StudentPlan) {
		seen := make(map[string]bool, len(activities))
		sp.Activities = make([]Activity, 0, len(activities))
		for _, a := range activities {
			a.Name = strings.TrimSpace(a.Name)
			if a.Name == "" || seen[a.Name] {
				continue
			}
			if a.Origin != OriginCustom {
				a.Origin = OriginStandard
			}
			seen[a.Name] = true
			sp.Activities = append(sp.Activities, a)
		}
	})
}

// SaveBlockAssignment writes an assignment into the (day, slot) cell of a
// student's week. An existing entry for the slot is replaced in place;
// otherwise the entry is appended, so sequence order is write order and
// not chronological.
func SaveBlockAssignment(p TermPlan, studentID string, day Day, slot string, a BlockAssignment) (TermPlan, error) {
	if slot == "" {
		return p, ErrEmptySlot
	}
	a.Time = slot
	return updateStudent(p, studentID, func(sp *StudentPlan) {
		if sp.BlockAssignments == nil {
			sp.BlockAssignments = make(map[Day][]BlockAssignment)
		}
		list := sp.BlockAssignments[day]
		for i := range list {
			if list[i].Time == slot {
				list[i] = a
				return
			}
		}
		sp.BlockAssignments[day] = append(list, a)
	})
}

func updateStudent(p TermPlan, studentID string, fn func(*StudentPlan)) (TermPlan, error) {
	if _, idx := p.Student(studentID); idx < 0 {
		return p, fmt.Errorf("student %q: %w", studentID, ErrStudentNotFound)
	}
	out := p.Clone()
	sp, _ := out.Student(studentID)
	fn(sp)
	out.Version++
	return out, nil
}
