package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoStudentPlan() TermPlan {
	return TermPlan{
		ID:           "plan-1",
		AcademicTerm: "Fall",
		TermType:     "semester",
		TermYear:     2025,
		Goals:        []string{"Read 20 books"},
		Students: []StudentPlan{
			{ID: "sarah", FirstName: "Sarah"},
			{ID: "enoch", FirstName: "Enoch", BlockAssignments: map[Day][]BlockAssignment{}},
		},
		Version: 3,
	}
}

func mathBlock() BlockAssignment {
	return BlockAssignment{Subject: "Math", Course: "Algebra", Type: BlockSubject}
}

func TestSaveBlockAssignment_SameSlotTwiceReplaces(t *testing.T) {
	plan := twoStudentPlan()

	once, err := SaveBlockAssignment(plan, "enoch", Monday, "09:00", mathBlock())
	require.NoError(t, err)
	twice, err := SaveBlockAssignment(once, "enoch", Monday, "09:00", mathBlock())
	require.NoError(t, err)

	sp, _ := twice.Student("enoch")
	require.Len(t, sp.BlockAssignments[Monday], 1)
	assert.Equal(t, BlockAssignment{Time: "09:00", Subject: "Math", Course: "Algebra", Type: BlockSubject},
		sp.BlockAssignments[Monday][0])

	first, _ := once.Student("enoch")
	assert.Equal(t, first.BlockAssignments[Monday], sp.BlockAssignments[Monday])
}

func TestSaveBlockAssignment_AppendKeepsWriteOrder(t *testing.T) {
	plan := twoStudentPlan()

	plan, err := SaveBlockAssignment(plan, "enoch", Monday, "09:00", mathBlock())
	require.NoError(t, err)
	plan, err = SaveBlockAssignment(plan, "enoch", Monday, "08:00", BlockAssignment{Subject: "Reading", Type: BlockSubject})
	require.NoError(t, err)

	sp, _ := plan.Student("enoch")
	var times []string
	for _, a := range sp.BlockAssignments[Monday] {
		times = append(times, a.Time)
	}
	// Not chronological: sequence order is write order.
	assert.Equal(t, []string{"09:00", "08:00"}, times)
}

func TestSaveBlockAssignment_ReplacePreservesPosition(t *testing.T) {
	plan := twoStudentPlan()
	for _, slot := range []string{"08:00", "09:00", "10:00"} {
		var err error
		plan, err = SaveBlockAssignment(plan, "sarah", Tuesday, slot, mathBlock())
		require.NoError(t, err)
	}

	plan, err := SaveBlockAssignment(plan, "sarah", Tuesday, "09:00",
		BlockAssignment{Subject: "Lunch", Type: BlockBreak})
	require.NoError(t, err)

	sp, _ := plan.Student("sarah")
	require.Len(t, sp.BlockAssignments[Tuesday], 3)
	assert.Equal(t, "09:00", sp.BlockAssignments[Tuesday][1].Time)
	assert.Equal(t, BlockBreak, sp.BlockAssignments[Tuesday][1].Type)
}

func TestSaveBlockAssignment_DoesNotMutateInput(t *testing.T) {
	plan := twoStudentPlan()
	plan, err := SaveBlockAssignment(plan, "enoch", Monday, "09:00", mathBlock())
	require.NoError(t, err)

	next, err := SaveBlockAssignment(plan, "enoch", Monday, "09:00",
		BlockAssignment{Subject: "Art", Type: BlockActivity})
	require.NoError(t, err)

	before, _ := plan.Student("enoch")
	after, _ := next.Student("enoch")
	assert.Equal(t, "Math", before.BlockAssignments[Monday][0].Subject)
	assert.Equal(t, "Art", after.BlockAssignments[Monday][0].Subject)
}

func TestSaveBlockAssignment_UnknownStudentReturnsInputUnchanged(t *testing.T) {
	plan := twoStudentPlan()

	out, err := SaveBlockAssignment(plan, "nobody", Monday, "09:00", mathBlock())

	assert.ErrorIs(t, err, ErrStudentNotFound)
	assert.Equal(t, plan, out)
}

func TestSaveBlockAssignment_EmptySlot(t *testing.T) {
	plan := twoStudentPlan()
	out, err := SaveBlockAssignment(plan, "enoch", Monday, "", mathBlock())
	assert.ErrorIs(t, err, ErrEmptySlot)
	assert.Equal(t, plan.Version, out.Version)
}

func TestMutations_BumpVersion(t *testing.T) {
	plan := twoStudentPlan()

	out, err := SaveGoals(plan, []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, plan.Version+1, out.Version)

	out, err = SaveAcademicTerm(out, "Spring", "quarter", 2026)
	require.NoError(t, err)
	assert.Equal(t, plan.Version+2, out.Version)
	assert.Equal(t, int64(3), plan.Version, "input untouched")
}

func TestSaveGoals_DropsBlanks(t *testing.T) {
	out, err := SaveGoals(twoStudentPlan(), []string{" Finish Algebra ", "", "  "})
	require.NoError(t, err)
	assert.Equal(t, []string{"Finish Algebra"}, out.Goals)
}

func TestSaveAcademicTerm(t *testing.T) {
	plan := twoStudentPlan()
	out, err := SaveAcademicTerm(plan, " Spring ", "quarter", 2026)
	require.NoError(t, err)
	assert.Equal(t, "Spring", out.AcademicTerm)
	assert.Equal(t, "quarter", out.TermType)
	assert.Equal(t, 2026, out.TermYear)
	assert.Equal(t, "Fall", plan.AcademicTerm)
}

func TestSaveSchedule(t *testing.T) {
	plan := twoStudentPlan()
	sched := WeeklySchedule{
		Days: map[Day]DaySchedule{
			Monday: {Selected: true, StartTime: "08:00", EndTime: "12:00", BlockLength: 60, Blocks: 4},
		},
		UseSameSchedule: true,
	}

	out, err := SaveSchedule(plan, "sarah", sched)
	require.NoError(t, err)

	sp, _ := out.Student("sarah")
	assert.Equal(t, sched, sp.Schedule)

	sched.Days[Tuesday] = DaySchedule{Selected: true}
	assert.Len(t, sp.Schedule.Days, 1, "schedule is copied, not aliased")
}

func TestSaveSubjects_UnknownStudent(t *testing.T) {
	plan := twoStudentPlan()
	out, err := SaveSubjects(plan, "ghost", Subjects{Core: []string{"Math"}})
	assert.ErrorIs(t, err, ErrStudentNotFound)
	assert.Equal(t, plan, out)
}

func TestSaveSubjects(t *testing.T) {
	subjects := Subjects{
		Core:     []string{"Math", "Reading"},
		Extended: []string{"Latin"},
		Courses:  map[string][]string{"Math": {"Algebra"}},
	}
	out, err := SaveSubjects(twoStudentPlan(), "enoch", subjects)
	require.NoError(t, err)

	sp, _ := out.Student("enoch")
	assert.Equal(t, subjects, sp.Subjects)
}

func TestSaveActivities_DedupesAndDefaultsOrigin(t *testing.T) {
	out, err := SaveActivities(twoStudentPlan(), "sarah", []Activity{
		{Name: "Piano"},
		{Name: "Robotics", Origin: OriginCustom},
		{Name: "Piano", Origin: OriginCustom},
		{Name: " "},
	})
	require.NoError(t, err)

	sp, _ := out.Student("sarah")
	assert.Equal(t, []Activity{
		{Name: "Piano", Origin: OriginStandard},
		{Name: "Robotics", Origin: OriginCustom},
	}, sp.Activities)
	assert.Equal(t, []string{"Piano"}, sp.StandardActivities())
	assert.Equal(t, []string{"Robotics"}, sp.CustomActivities())
}
