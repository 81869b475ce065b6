// Package planner builds reverse study schedules from a study plan.
package planner

import (
	"time"

	"github.com/example/lexbot/pkg/dates"
	"github.com/example/lexbot/pkg/models"
)

// SubjectTotal is the number of hours a subject gets over a schedule
type SubjectTotal struct {
	Subject string
	Color   string
	Hours   int
}

// MaxHorizonDays is the furthest ahead a schedule reaches, about two years
const MaxHorizonDays = 730

// Generate lays out every day from today through the day before the exam.
//
// Hours are handed out weighted round-robin: the subject under the cursor
// gets min(weight, hours left in the day) and the cursor moves on. The
// cursor is not reset at midnight, so over several days each subject gets
// time in proportion to its weight.
//
// An unparseable exam date, an exam date that is not after today or an
// invalid plan yields an empty schedule. Schedules stop after MaxHorizonDays
// days even when the exam is further away.
func Generate(plan models.StudyPlan, today time.Time) []models.ScheduleDay {
	exam, err := dates.Parse(plan.ExamDate)
	if err != nil {
		return nil
	}
	today = dates.Of(today)
	if !exam.After(today) || !schedulable(plan) {
		return nil
	}

	end := exam
	if limit := dates.AddDays(today, MaxHorizonDays); end.After(limit) {
		end = limit
	}

	subjects := plan.Subjects
	days := make([]models.ScheduleDay, 0, dates.DaysBetween(today, end))
	cursor := 0

	for day := today; day.Before(end); day = dates.AddDays(day, 1) {
		var allocations []models.Allocation
		remaining := plan.DailyHours

		for remaining > 0 {
			subject := subjects[cursor]
			hours := subject.Weight
			if hours > remaining {
				hours = remaining
			}
			allocations = append(allocations, models.Allocation{
				Subject: subject.Name,
				Color:   subject.Color,
				Hours:   hours,
			})
			remaining -= hours
			cursor = (cursor + 1) % len(subjects)
		}

		days = append(days, models.ScheduleDay{Date: day, Allocations: allocations})
	}

	return days
}

// schedulable guards the allocation loop against plans that would never fill a day
func schedulable(plan models.StudyPlan) bool {
	if plan.DailyHours <= 0 || len(plan.Subjects) == 0 {
		return false
	}
	for _, s := range plan.Subjects {
		if s.Weight < 1 {
			return false
		}
	}
	return true
}

// Totals sums the hours per subject in order of first appearance
func Totals(days []models.ScheduleDay) []SubjectTotal {
	var totals []SubjectTotal
	index := make(map[string]int)

	for _, day := range days {
		for _, a := range day.Allocations {
			i, ok := index[a.Subject]
			if !ok {
				i = len(totals)
				index[a.Subject] = i
				totals = append(totals, SubjectTotal{Subject: a.Subject, Color: a.Color})
			}
			totals[i].Hours += a.Hours
		}
	}

	return totals
}
