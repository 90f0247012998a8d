package codec

import (
	"encoding/json"
	"testing"

	"github.com/alexanderramin/termplan/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRecord_DataAsObject(t *testing.T) {
	rec := Record{
		ID:           "plan-1",
		AcademicTerm: "Fall",
		TermYear:     2025,
		Goals:        []string{"g1"},
		Data:         json.RawMessage(`{"students": {"sarah": {"firstName": "Sarah"}}}`),
		Version:      2,
	}

	plan := FromRecord(rec)

	assert.Equal(t, "plan-1", plan.ID)
	assert.Equal(t, []string{"g1"}, plan.Goals)
	assert.Equal(t, []string{"sarah"}, plan.StudentIDs())
	assert.Equal(t, int64(2), plan.Version)
}

func TestFromRecord_DataAsEncodedString(t *testing.T) {
	inner := `{"students": {"enoch": {"firstName": "Enoch"}}, "goals": ["from data"]}`
	encoded, err := json.Marshal(inner)
	require.NoError(t, err)

	plan := FromRecord(Record{ID: "p", Data: encoded})

	assert.Equal(t, []string{"enoch"}, plan.StudentIDs())
	assert.Equal(t, []string{"from data"}, plan.Goals)
}

func TestFromRecord_InvalidJSONStringFallsBackToDefaults(t *testing.T) {
	encoded, err := json.Marshal(`{"students": {oops`)
	require.NoError(t, err)

	plan := FromRecord(Record{ID: "p", Data: encoded})

	assert.Equal(t, "p", plan.ID)
	assert.Equal(t, []string{}, plan.Goals)
	assert.Equal(t, []domain.StudentPlan{}, plan.Students)
}

func TestFromRecord_MissingData(t *testing.T) {
	plan := FromRecord(Record{ID: "p"})
	assert.Empty(t, plan.Students)
	assert.NotNil(t, plan.Students)
}

func TestDecodeRecord_Lenient(t *testing.T) {
	rec, err := DecodeRecord([]byte(`{"id": "p", "term_year": "2024", "goals": null, "version": 3, "data": "{}"}`))
	require.NoError(t, err)

	assert.Equal(t, "p", rec.ID)
	assert.Equal(t, 2024, rec.TermYear)
	assert.Equal(t, []string{}, rec.Goals)
	assert.Equal(t, int64(3), rec.Version)
}

func TestDecodeRecord_RejectsNonObject(t *testing.T) {
	_, err := DecodeRecord([]byte(`null`))
	assert.ErrorIs(t, err, ErrNotObject)
}

func TestToRecordFromRecord(t *testing.T) {
	plan := domain.TermPlan{
		ID:       "p",
		UserID:   "u1",
		TermYear: 2025,
		Goals:    []string{"a"},
		Students: []domain.StudentPlan{{
			ID:        "sarah",
			FirstName: "Sarah",
			BlockAssignments: map[domain.Day][]domain.BlockAssignment{
				domain.Friday: {{Time: "10:00", Subject: "Art", Type: domain.BlockActivity}},
			},
		}},
		Version: 4,
	}

	rec, err := ToRecord(plan)
	require.NoError(t, err)
	back := FromRecord(rec)

	assert.Equal(t, plan.ID, back.ID)
	assert.Equal(t, plan.UserID, back.UserID)
	assert.Equal(t, plan.Version, back.Version)
	sp, _ := back.Student("sarah")
	require.NotNil(t, sp)
	assert.Equal(t, plan.Students[0].BlockAssignments, sp.BlockAssignments)
}
