package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/termplan/internal/domain"
)

// Plan options
type PlanOption func(*domain.TermPlan)

func WithPlanID(id string) PlanOption {
	return func(p *domain.TermPlan) {
		p.ID = id
	}
}

func WithUserID(id string) PlanOption {
	return func(p *domain.TermPlan) {
		p.UserID = id
	}
}

func WithVersion(v int64) PlanOption {
	return func(p *domain.TermPlan) {
		p.Version = v
	}
}

func WithGoals(goals ...string) PlanOption {
	return func(p *domain.TermPlan) {
		p.Goals = goals
	}
}

func WithStudents(students ...domain.StudentPlan) PlanOption {
	return func(p *domain.TermPlan) {
		p.Students = students
	}
}

func WithAcademicTerm(term, termType string, year int) PlanOption {
	return func(p *domain.TermPlan) {
		p.AcademicTerm = term
		p.TermType = termType
		p.TermYear = year
	}
}

// NewTestPlan builds a plan with one student and a fresh id.
func NewTestPlan(opts ...PlanOption) domain.TermPlan {
	p := domain.TermPlan{
		ID:           uuid.New().String(),
		UserID:       "user-1",
		AcademicTerm: "Fall",
		TermType:     "semester",
		TermYear:     2025,
		Goals:        []string{"Finish Algebra I"},
		Students:     []domain.StudentPlan{NewTestStudent("enoch", "Enoch")},
		Version:      1,
		UpdatedAt:    time.Date(2025, 8, 15, 9, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Student options
type StudentOption func(*domain.StudentPlan)

func WithBlock(day domain.Day, a domain.BlockAssignment) StudentOption {
	return func(s *domain.StudentPlan) {
		s.BlockAssignments[day] = append(s.BlockAssignments[day], a)
	}
}

func WithActivities(activities ...domain.Activity) StudentOption {
	return func(s *domain.StudentPlan) {
		s.Activities = activities
	}
}

// NewTestStudent builds a student with a Monday to Friday 08:00 schedule
// of four hour-long blocks.
func NewTestStudent(id, firstName string, opts ...StudentOption) domain.StudentPlan {
	days := make(map[domain.Day]domain.DaySchedule, len(domain.Days))
	for _, d := range domain.Days {
		days[d] = domain.DaySchedule{
			Selected:    d != domain.Saturday && d != domain.Sunday,
			StartTime:   "08:00",
			EndTime:     "12:00",
			BlockLength: 60,
			Blocks:      4,
		}
	}
	s := domain.StudentPlan{
		ID:        id,
		FirstName: firstName,
		Schedule:  domain.WeeklySchedule{Days: days, UseSameSchedule: true},
		Subjects: domain.Subjects{
			Core:     []string{"Math", "Reading"},
			Extended: []string{},
			Courses:  map[string][]string{"Math": {"Algebra I"}},
		},
		Activities:       []domain.Activity{{Name: "Piano", Origin: domain.OriginStandard}},
		BlockAssignments: map[domain.Day][]domain.BlockAssignment{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
