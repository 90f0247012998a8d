package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/termplan/internal/domain"
	"github.com/spf13/cobra"
)

// planFlags are shared by every command that edits a loaded plan.
type planFlags struct {
	planID string
	save   bool
}

func (f *planFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.planID, "id", "", "Term plan ID")
	cmd.Flags().BoolVar(&f.save, "save", false, "Also save the plan to the dashboard")
}

func newAssignCmd(app *App) *cobra.Command {
	var (
		pf        planFlags
		studentID string
		dayStr    string
		slot      string
		subject   string
		course    string
		typeStr   string
	)

	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign a subject, activity or break to a time slot",
		Example: `  termplan assign --id 7f3c... --student enoch --day mon --slot 09:00 --subject Math --course "Algebra I"
  termplan assign --id 7f3c... --student enoch --day fri --slot 12:00 --type break --subject Lunch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := domain.ParseDay(dayStr)
			if err != nil {
				return err
			}
			if err := domain.ValidateClock(slot); err != nil {
				return err
			}
			bt, err := domain.ParseBlockType(typeStr)
			if err != nil {
				return err
			}
			block := domain.BlockAssignment{
				Subject: strings.TrimSpace(subject),
				Course:  strings.TrimSpace(course),
				Type:    bt,
			}

			_, err = mutatePlan(cmd.Context(), app, cmd.OutOrStdout(), pf.planID, "block assignment", pf.save,
				func(p domain.TermPlan) (domain.TermPlan, error) {
					return domain.SaveBlockAssignment(p, studentID, day, slot, block)
				})
			return err
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVar(&studentID, "student", "", "Student ID")
	cmd.Flags().StringVar(&dayStr, "day", "", "Day of week (mon..sun)")
	cmd.Flags().StringVar(&slot, "slot", "", "Slot start time (HH:MM)")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject or label")
	cmd.Flags().StringVar(&course, "course", "", "Course within the subject")
	cmd.Flags().StringVar(&typeStr, "type", string(domain.BlockSubject), "Block type (subject, activity, break)")
	_ = cmd.MarkFlagRequired("student")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("slot")

	return cmd
}

func newGoalsCmd(app *App) *cobra.Command {
	var pf planFlags

	cmd := &cobra.Command{
		Use:   "goals [goal...]",
		Short: "Replace the goals of a term plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := mutatePlan(cmd.Context(), app, cmd.OutOrStdout(), pf.planID, "goals", pf.save,
				func(p domain.TermPlan) (domain.TermPlan, error) {
					return domain.SaveGoals(p, args)
				})
			return err
		},
	}
	pf.register(cmd)
	return cmd
}

func newTermCmd(app *App) *cobra.Command {
	var (
		pf       planFlags
		term     string
		termType string
		year     int
	)

	cmd := &cobra.Command{
		Use:   "term",
		Short: "Edit the academic term; omitted flags keep their current value",
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if year != 0 && (year < 1000 || year > 9999) {
				return fmt.Errorf("year %d: must have four digits", year)
			}
			_, err := mutatePlan(cmd.Context(), app, cmd.OutOrStdout(), pf.planID, "academic term", pf.save,
				func(p domain.TermPlan) (domain.TermPlan, error) {
					t, tt, y := p.AcademicTerm, p.TermType, p.TermYear
					if flags.Changed("term") {
						t = term
					}
					if flags.Changed("type") {
						tt = termType
					}
					if flags.Changed("year") {
						y = year
					}
					return domain.SaveAcademicTerm(p, t, tt, y)
				})
			return err
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVar(&term, "term", "", "Term name, e.g. Fall")
	cmd.Flags().StringVar(&termType, "type", "", "Term type, e.g. semester")
	cmd.Flags().IntVar(&year, "year", 0, "Term year")
	return cmd
}

func newScheduleCmd(app *App) *cobra.Command {
	var (
		pf          planFlags
		studentID   string
		days        []string
		start, end  string
		blockLength int
		blocks      int
		same        bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Replace a student's weekly schedule",
		Example: `  termplan schedule --id 7f3c... --student enoch --days mon,tue,wed,thu,fri --start 08:00 --end 12:00 --block-length 45`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, err := buildSchedule(days, start, end, blockLength, blocks, same)
			if err != nil {
				return err
			}
			_, err = mutatePlan(cmd.Context(), app, cmd.OutOrStdout(), pf.planID, "schedule", pf.save,
				func(p domain.TermPlan) (domain.TermPlan, error) {
					return domain.SaveSchedule(p, studentID, sched)
				})
			return err
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVar(&studentID, "student", "", "Student ID")
	cmd.Flags().StringSliceVar(&days, "days", []string{"mon", "tue", "wed", "thu", "fri"}, "School days")
	cmd.Flags().StringVar(&start, "start", "08:00", "Day start (HH:MM)")
	cmd.Flags().StringVar(&end, "end", "", "Day end (HH:MM)")
	cmd.Flags().IntVar(&blockLength, "block-length", 60, "Block length in minutes")
	cmd.Flags().IntVar(&blocks, "blocks", 0, "Blocks per day (default: fill start to end)")
	cmd.Flags().BoolVar(&same, "same", true, "Use the same schedule every day")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}

// buildSchedule validates the schedule flags. When blocks is zero it is
// derived from the start and end times.
func buildSchedule(days []string, start, end string, blockLength, blocks int, same bool) (domain.WeeklySchedule, error) {
	if err := domain.ValidateClock(start); err != nil {
		return domain.WeeklySchedule{}, err
	}
	if blockLength <= 0 {
		return domain.WeeklySchedule{}, errors.New("block length must be positive")
	}
	if end != "" {
		if err := domain.ValidateClock(end); err != nil {
			return domain.WeeklySchedule{}, err
		}
		s, _ := domain.ClockMinutes(start)
		e, _ := domain.ClockMinutes(end)
		if e <= s {
			return domain.WeeklySchedule{}, fmt.Errorf("end %s must be after start %s", end, start)
		}
		if blocks == 0 {
			blocks = (e - s) / blockLength
		}
	}
	if blocks <= 0 {
		return domain.WeeklySchedule{}, errors.New("blocks must be positive (or give --end)")
	}

	sched := domain.WeeklySchedule{Days: make(map[domain.Day]domain.DaySchedule), UseSameSchedule: same}
	for _, s := range days {
		d, err := domain.ParseDay(s)
		if err != nil {
			return domain.WeeklySchedule{}, err
		}
		sched.Days[d] = domain.DaySchedule{
			Selected:    true,
			StartTime:   start,
			EndTime:     end,
			BlockLength: blockLength,
			Blocks:      blocks,
		}
	}
	return sched, nil
}

func newSubjectsCmd(app *App) *cobra.Command {
	var (
		pf        planFlags
		studentID string
		core      []string
		extended  []string
		courses   []string
	)

	cmd := &cobra.Command{
		Use:   "subjects",
		Short: "Replace a student's subjects and courses",
		Example: `  termplan subjects --id 7f3c... --student enoch --core Math,Reading --extended Latin --course "Math=Algebra I"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			subjects := domain.Subjects{Core: trimAll(core), Extended: trimAll(extended)}
			for _, c := range courses {
				subject, course, ok := strings.Cut(c, "=")
				subject, course = strings.TrimSpace(subject), strings.TrimSpace(course)
				if !ok || subject == "" || course == "" {
					return fmt.Errorf("course %q: want SUBJECT=COURSE", c)
				}
				if subjects.Courses == nil {
					subjects.Courses = make(map[string][]string)
				}
				subjects.Courses[subject] = append(subjects.Courses[subject], course)
			}
			_, err := mutatePlan(cmd.Context(), app, cmd.OutOrStdout(), pf.planID, "subjects", pf.save,
				func(p domain.TermPlan) (domain.TermPlan, error) {
					return domain.SaveSubjects(p, studentID, subjects)
				})
			return err
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVar(&studentID, "student", "", "Student ID")
	cmd.Flags().StringSliceVar(&core, "core", nil, "Core subjects")
	cmd.Flags().StringSliceVar(&extended, "extended", nil, "Extended subjects")
	cmd.Flags().StringArrayVar(&courses, "course", nil, "Course as SUBJECT=COURSE (repeatable)")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}

func newActivitiesCmd(app *App) *cobra.Command {
	var (
		pf        planFlags
		studentID string
		standard  []string
		custom    []string
	)

	cmd := &cobra.Command{
		Use:   "activities",
		Short: "Replace a student's activities",
		RunE: func(cmd *cobra.Command, args []string) error {
			activities := make([]domain.Activity, 0, len(standard)+len(custom))
			for _, name := range standard {
				activities = append(activities, domain.Activity{Name: name, Origin: domain.OriginStandard})
			}
			for _, name := range custom {
				activities = append(activities, domain.Activity{Name: name, Origin: domain.OriginCustom})
			}
			_, err := mutatePlan(cmd.Context(), app, cmd.OutOrStdout(), pf.planID, "activities", pf.save,
				func(p domain.TermPlan) (domain.TermPlan, error) {
					return domain.SaveActivities(p, studentID, activities)
				})
			return err
		},
	}

	pf.register(cmd)
	cmd.Flags().StringVar(&studentID, "student", "", "Student ID")
	cmd.Flags().StringSliceVar(&standard, "standard", nil, "Activities from the standard list")
	cmd.Flags().StringSliceVar(&custom, "custom", nil, "Custom activities")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
