package codec

import (
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/termplan/internal/domain"
)

// Encode serializes a plan into its cached document form.
func Encode(p domain.TermPlan) ([]byte, error) {
	doc := ToDoc(p)
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding term plan %s: %w", p.ID, err)
	}
	return data, nil
}

// ToDoc converts a plan into its JSON document form.
func ToDoc(p domain.TermPlan) PlanDoc {
	doc := PlanDoc{
		ID:           p.ID,
		UserID:       p.UserID,
		AcademicTerm: p.AcademicTerm,
		TermType:     p.TermType,
		TermYear:     p.TermYear,
		Goals:        nonNil(p.Goals),
		Students:     toStudentsDoc(p.Students),
		Version:      p.Version,
	}
	if !p.UpdatedAt.IsZero() {
		ts := p.UpdatedAt.UTC()
		doc.UpdatedAt = &ts
	}
	return doc
}

func toStudentsDoc(students []domain.StudentPlan) StudentsDoc {
	out := make(StudentsDoc, 0, len(students))
	for _, s := range students {
		out = append(out, StudentEntry{ID: s.ID, Plan: toStudentDoc(s)})
	}
	return out
}

func toStudentDoc(s domain.StudentPlan) StudentDoc {
	doc := StudentDoc{
		FirstName: s.FirstName,
		Schedule: ScheduleDoc{
			Days:            make(map[string]DayDoc, len(s.Schedule.Days)),
			UseSameSchedule: s.Schedule.UseSameSchedule,
		},
		Subjects: SubjectsDoc{
			Core:     nonNil(s.Subjects.Core),
			Extended: nonNil(s.Subjects.Extended),
			Courses:  make(map[string][]string, len(s.Subjects.Courses)),
		},
		Activities:       []string{},
		CustomActivities: []string{},
		BlockAssignments: make(map[string][]BlockDoc, len(s.BlockAssignments)),
	}
	for d, ds := range s.Schedule.Days {
		doc.Schedule.Days[string(d)] = DayDoc{
			Selected:    ds.Selected,
			StartTime:   ds.StartTime,
			EndTime:     ds.EndTime,
			BlockLength: ds.BlockLength,
			Blocks:      ds.Blocks,
		}
	}
	for subject, courses := range s.Subjects.Courses {
		doc.Subjects.Courses[subject] = nonNil(courses)
	}
	// The legacy pair: activities lists every name, customActivities the
	// custom subset.
	for _, a := range s.Activities {
		doc.Activities = append(doc.Activities, a.Name)
		if a.Origin == domain.OriginCustom {
			doc.CustomActivities = append(doc.CustomActivities, a.Name)
		}
	}
	for d, list := range s.BlockAssignments {
		blocks := make([]BlockDoc, 0, len(list))
		for _, b := range list {
			blocks = append(blocks, BlockDoc{Time: b.Time, Subject: b.Subject, Course: b.Course, Type: string(b.Type)})
		}
		doc.BlockAssignments[string(d)] = blocks
	}
	return doc
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
