package domain

import "time"

// TermPlan is the root record for one academic term: its goals plus the
// per-student schedule and curriculum.
type TermPlan struct {
	ID           string
	UserID       string
	AcademicTerm string
	TermType     string
	TermYear     int
	Goals        []string

	// Students keeps the insertion order of the stored object so that the
	// "first student" is stable across loads.
	Students []StudentPlan

	// Version is bumped by every successful mutation. Reconciliation
	// compares it to decide whether a remote copy may replace a local one.
	Version   int64
	UpdatedAt time.Time
}

type StudentPlan struct {
	ID               string
	FirstName        string
	Schedule         WeeklySchedule
	Subjects         Subjects
	Activities       []Activity
	BlockAssignments map[Day][]BlockAssignment
}

type Subjects struct {
	Core     []string
	Extended []string
	Courses  map[string][]string
}

type Activity struct {
	Name   string
	Origin ActivityOrigin
}

type BlockAssignment struct {
	Time    string
	Subject string
	Course  string
	Type    BlockType
}

// Student returns the student with the given id and its index, or
// (nil, -1) when absent.
func (p *TermPlan) Student(id string) (*StudentPlan, int) {
	for i := range p.Students {
		if p.Students[i].ID == id {
			return &p.Students[i], i
		}
	}
	return nil, -1
}

// StudentIDs returns student ids in insertion order.
func (p *TermPlan) StudentIDs() []string {
	ids := make([]string, 0, len(p.Students))
	for _, s := range p.Students {
		ids = append(ids, s.ID)
	}
	return ids
}

// IsEmpty reports whether the plan has no students yet.
func (p *TermPlan) IsEmpty() bool {
	return len(p.Students) == 0
}

// DisplayName returns the first name, falling back to the id.
func (s *StudentPlan) DisplayName() string {
	if s.FirstName != "" {
		return s.FirstName
	}
	return s.ID
}

// StandardActivities returns activity names whose origin is standard.
func (s *StudentPlan) StandardActivities() []string {
	return s.activityNames(OriginStandard)
}

// CustomActivities returns activity names whose origin is custom.
func (s *StudentPlan) CustomActivities() []string {
	return s.activityNames(OriginCustom)
}

func (s *StudentPlan) activityNames(origin ActivityOrigin) []string {
	var names []string
	for _, a := range s.Activities {
		if a.Origin == origin {
			names = append(names, a.Name)
		}
	}
	return names
}

// Clone returns a deep copy of the plan.
func (p TermPlan) Clone() TermPlan {
	out := p
	out.Goals = cloneStrings(p.Goals)
	if p.Students != nil {
		out.Students = make([]StudentPlan, len(p.Students))
		for i, s := range p.Students {
			out.Students[i] = s.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the student plan.
func (s StudentPlan) Clone() StudentPlan {
	out := s
	out.Schedule = s.Schedule.Clone()
	out.Subjects = s.Subjects.Clone()
	if s.Activities != nil {
		out.Activities = append([]Activity(nil), s.Activities...)
	}
	if s.BlockAssignments != nil {
		out.BlockAssignments = make(map[Day][]BlockAssignment, len(s.BlockAssignments))
		for d, list := range s.BlockAssignments {
			out.BlockAssignments[d] = append([]BlockAssignment(nil), list...)
		}
	}
	return out
}

// Clone returns a deep copy of the subjects.
func (s Subjects) Clone() Subjects {
	out := Subjects{
		Core:     cloneStrings(s.Core),
		Extended: cloneStrings(s.Extended),
	}
	if s.Courses != nil {
		out.Courses = make(map[string][]string, len(s.Courses))
		for k, v := range s.Courses {
			out.Courses[k] = cloneStrings(v)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
