package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/termplan/internal/domain"
)

// Record is the backend's term_plans row. Data carries the nested student
// payload; older writers stored it as a JSON-encoded string, newer ones as
// an object, and readers accept both.
type Record struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	AcademicTerm string          `json:"academic_term"`
	TermType     string          `json:"term_type"`
	TermYear     int             `json:"term_year"`
	Goals        []string        `json:"goals"`
	Data         json.RawMessage `json:"data"`
	Version      int64           `json:"version"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// DecodeRecord leniently decodes a backend record. Only a body that is not
// a JSON object is rejected.
func DecodeRecord(raw []byte) (Record, error) {
	top, ok := asObject(raw)
	if !ok {
		return Record{}, ErrNotObject
	}
	rec := Record{
		ID:           asString(top["id"]),
		UserID:       asString(top["user_id"]),
		AcademicTerm: asString(top["academic_term"]),
		TermType:     asString(top["term_type"]),
		TermYear:     asInt(top["term_year"]),
		Goals:        asStrings(top["goals"]),
		Data:         top["data"],
		Version:      asInt64(top["version"]),
	}
	if ts := asString(top["updated_at"]); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.UpdatedAt = t
		}
	}
	return rec, nil
}

// FromRecord converts a backend record into a plan. An unparseable data
// payload degrades to an empty student set; it never fails.
func FromRecord(rec Record) domain.TermPlan {
	plan := domain.TermPlan{
		ID:           rec.ID,
		UserID:       rec.UserID,
		AcademicTerm: rec.AcademicTerm,
		TermType:     rec.TermType,
		TermYear:     rec.TermYear,
		Goals:        nonNil(rec.Goals),
		Students:     []domain.StudentPlan{},
		Version:      rec.Version,
		UpdatedAt:    rec.UpdatedAt,
	}
	data, ok := asObject(unwrapEncoded(rec.Data))
	if !ok {
		return plan
	}
	plan.Students = decodeStudents(data["students"])
	if len(plan.Goals) == 0 {
		if goals := asStrings(data["goals"]); len(goals) > 0 {
			plan.Goals = goals
		}
	}
	return plan
}

// ToRecord converts a plan into the backend record shape with data as an
// embedded object.
func ToRecord(p domain.TermPlan) (Record, error) {
	data, err := json.Marshal(DataDoc{Students: toStudentsDoc(p.Students)})
	if err != nil {
		return Record{}, fmt.Errorf("encoding term plan data %s: %w", p.ID, err)
	}
	return Record{
		ID:           p.ID,
		UserID:       p.UserID,
		AcademicTerm: p.AcademicTerm,
		TermType:     p.TermType,
		TermYear:     p.TermYear,
		Goals:        nonNil(p.Goals),
		Data:         data,
		Version:      p.Version,
		UpdatedAt:    p.UpdatedAt,
	}, nil
}
