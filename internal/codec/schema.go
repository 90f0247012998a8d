package codec

import (
	"bytes"
	"encoding/json"
	"time"
)

// PlanDoc is the JSON form of a TermPlan as kept in the local cache.
// Field names follow the dashboard's camelCase payload.
type PlanDoc struct {
	ID           string      `json:"id"`
	UserID       string      `json:"userId,omitempty"`
	AcademicTerm string      `json:"academicTerm"`
	TermType     string      `json:"termType"`
	TermYear     int         `json:"termYear"`
	Goals        []string    `json:"goals"`
	Students     StudentsDoc `json:"students"`
	Version      int64       `json:"version"`
	UpdatedAt    *time.Time  `json:"updatedAt,omitempty"`
}

// DataDoc is the nested payload stored in a backend record's data column.
type DataDoc struct {
	Students StudentsDoc `json:"students"`
}

// StudentsDoc encodes as a JSON object whose keys keep slice order.
type StudentsDoc []StudentEntry

type StudentEntry struct {
	ID   string
	Plan StudentDoc
}

type StudentDoc struct {
	FirstName        string                `json:"firstName"`
	Schedule         ScheduleDoc           `json:"schedule"`
	Subjects         SubjectsDoc           `json:"subjects"`
	Activities       []string              `json:"activities"`
	CustomActivities []string              `json:"customActivities"`
	BlockAssignments map[string][]BlockDoc `json:"blockAssignments"`
}

type ScheduleDoc struct {
	Days            map[string]DayDoc `json:"days"`
	UseSameSchedule bool              `json:"useSameSchedule"`
}

type DayDoc struct {
	Selected    bool   `json:"selected"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	BlockLength int    `json:"blockLength"`
	Blocks      int    `json:"blocks"`
}

type SubjectsDoc struct {
	Core     []string            `json:"core"`
	Extended []string            `json:"extended"`
	Courses  map[string][]string `json:"courses"`
}

type BlockDoc struct {
	Time    string `json:"time"`
	Subject string `json:"subject"`
	Course  string `json:"course"`
	Type    string `json:"type"`
}

func (s StudentsDoc) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, e := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(e.ID)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Plan)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}
