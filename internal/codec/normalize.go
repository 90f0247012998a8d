package codec

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/alexanderramin/termplan/internal/domain"
)

// ErrNotObject indicates the input is not a JSON object, which is the only
// shape Normalize refuses.
var ErrNotObject = errors.New("term plan payload is not a JSON object")

// Normalize canonicalizes a cached plan document. Every field that is
// missing or has the wrong type falls back to its default (goals and
// students become empty), so one bad field never discards the record.
func Normalize(raw []byte) (domain.TermPlan, error) {
	top, ok := asObject(raw)
	if !ok {
		return domain.TermPlan{}, ErrNotObject
	}

	plan := domain.TermPlan{
		ID:           asString(top["id"]),
		UserID:       asString(top["userId"]),
		AcademicTerm: asString(top["academicTerm"]),
		TermType:     asString(top["termType"]),
		TermYear:     asInt(top["termYear"]),
		Goals:        asStrings(top["goals"]),
		Students:     decodeStudents(top["students"]),
		Version:      asInt64(top["version"]),
	}
	if ts := asString(top["updatedAt"]); ts != "" {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			plan.UpdatedAt = t
		}
	}
	return plan, nil
}

// decodeStudents keeps the object's key order. A null or malformed
// student value still yields an entry for its key.
func decodeStudents(raw json.RawMessage) []domain.StudentPlan {
	members, ok := orderedObject(raw)
	if !ok {
		return []domain.StudentPlan{}
	}
	out := make([]domain.StudentPlan, 0, len(members))
	for _, m := range members {
		out = append(out, decodeStudent(m.Key, m.Value))
	}
	return out
}

func decodeStudent(id string, raw json.RawMessage) domain.StudentPlan {
	sp := domain.StudentPlan{
		ID:               id,
		Schedule:         domain.WeeklySchedule{Days: map[domain.Day]domain.DaySchedule{}},
		Subjects:         domain.Subjects{Core: []string{}, Extended: []string{}, Courses: map[string][]string{}},
		Activities:       []domain.Activity{},
		BlockAssignments: map[domain.Day][]domain.BlockAssignment{},
	}
	obj, ok := asObject(raw)
	if !ok {
		return sp
	}

	sp.FirstName = asString(obj["firstName"])
	sp.Schedule = decodeSchedule(obj["schedule"])
	sp.Subjects = decodeSubjects(obj["subjects"])
	sp.Activities = mergeActivities(asStrings(obj["activities"]), asStrings(obj["customActivities"]))
	sp.BlockAssignments = decodeBlocks(obj["blockAssignments"])
	return sp
}

func decodeSchedule(raw json.RawMessage) domain.WeeklySchedule {
	ws := domain.WeeklySchedule{Days: map[domain.Day]domain.DaySchedule{}}
	obj, ok := asObject(raw)
	if !ok {
		return ws
	}
	ws.UseSameSchedule = asBool(obj["useSameSchedule"])
	days, _ := asObject(obj["days"])
	for key, v := range days {
		day, err := domain.ParseDay(key)
		if err != nil {
			continue
		}
		d, ok := asObject(v)
		if !ok {
			continue
		}
		ws.Days[day] = domain.DaySchedule{
			Selected:    asBool(d["selected"]),
			StartTime:   asString(d["startTime"]),
			EndTime:     asString(d["endTime"]),
			BlockLength: asInt(d["blockLength"]),
			Blocks:      asInt(d["blocks"]),
		}
	}
	return ws
}

func decodeSubjects(raw json.RawMessage) domain.Subjects {
	s := domain.Subjects{Core: []string{}, Extended: []string{}, Courses: map[string][]string{}}
	obj, ok := asObject(raw)
	if !ok {
		return s
	}
	s.Core = asStrings(obj["core"])
	s.Extended = asStrings(obj["extended"])
	courses, _ := asObject(obj["courses"])
	for subject, v := range courses {
		s.Courses[subject] = asStrings(v)
	}
	return s
}

// mergeActivities folds the legacy activities/customActivities pair into
// one tagged list. A name present only in customActivities is kept as a
// custom activity.
func mergeActivities(all, custom []string) []domain.Activity {
	isCustom := make(map[string]bool, len(custom))
	for _, c := range custom {
		isCustom[c] = true
	}
	seen := make(map[string]bool, len(all)+len(custom))
	out := make([]domain.Activity, 0, len(all)+len(custom))
	for _, name := range all {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		origin := domain.OriginStandard
		if isCustom[name] {
			origin = domain.OriginCustom
		}
		out = append(out, domain.Activity{Name: name, Origin: origin})
	}
	for _, name := range custom {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, domain.Activity{Name: name, Origin: domain.OriginCustom})
	}
	return out
}

func decodeBlocks(raw json.RawMessage) map[domain.Day][]domain.BlockAssignment {
	out := map[domain.Day][]domain.BlockAssignment{}
	obj, ok := asObject(raw)
	if !ok {
		return out
	}
	for key, v := range obj {
		day, err := domain.ParseDay(key)
		if err != nil {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err != nil {
			continue
		}
		list := make([]domain.BlockAssignment, 0, len(items))
		for _, it := range items {
			b, ok := asObject(it)
			if !ok {
				continue
			}
			bt, err := domain.ParseBlockType(asString(b["type"]))
			if err != nil {
				bt = domain.BlockSubject
			}
			list = append(list, domain.BlockAssignment{
				Time:    asString(b["time"]),
				Subject: asString(b["subject"]),
				Course:  asString(b["course"]),
				Type:    bt,
			})
		}
		out[day] = list
	}
	return out
}
