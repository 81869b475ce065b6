package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lexbot/pkg/dates"
	"github.com/example/lexbot/pkg/models"
)

var today = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func examIn(days int) string {
	return dates.Format(dates.AddDays(today, days))
}

func hoursBySubject(days []models.ScheduleDay) map[string]int {
	out := make(map[string]int)
	for _, t := range Totals(days) {
		out[t.Subject] = t.Hours
	}
	return out
}

func TestGenerate_CivilPenalExample(t *testing.T) {
	plan := models.StudyPlan{
		ExamDate:   examIn(2),
		DailyHours: 3,
		Subjects: []models.StudyPlanSubject{
			{Name: "Civil", Weight: 2, Color: "#ff0000"},
			{Name: "Penal", Weight: 1, Color: "#0000ff"},
		},
	}

	days := Generate(plan, today)

	require.Len(t, days, 2)
	want := []models.Allocation{
		{Subject: "Civil", Color: "#ff0000", Hours: 2},
		{Subject: "Penal", Color: "#0000ff", Hours: 1},
	}
	assert.Equal(t, "2024-06-10", dates.Format(days[0].Date))
	assert.Equal(t, want, days[0].Allocations)
	assert.Equal(t, "2024-06-11", dates.Format(days[1].Date))
	assert.Equal(t, want, days[1].Allocations)
}

func TestGenerate_CursorContinuesAcrossDays(t *testing.T) {
	plan := models.StudyPlan{
		ExamDate:   examIn(3),
		DailyHours: 2,
		Subjects: []models.StudyPlanSubject{
			{Name: "Civil", Weight: 1},
			{Name: "Penal", Weight: 1},
			{Name: "Labor", Weight: 1},
		},
	}

	days := Generate(plan, today)

	require.Len(t, days, 3)
	var got [][]string
	for _, d := range days {
		var names []string
		for _, a := range d.Allocations {
			names = append(names, a.Subject)
		}
		got = append(got, names)
	}
	assert.Equal(t, [][]string{
		{"Civil", "Penal"},
		{"Labor", "Civil"},
		{"Penal", "Labor"},
	}, got)
}

func TestGenerate_TruncatesLastTurnOfDay(t *testing.T) {
	plan := models.StudyPlan{
		ExamDate:   examIn(2),
		DailyHours: 2,
		Subjects: []models.StudyPlanSubject{
			{Name: "Constitutional", Weight: 3},
			{Name: "Tax", Weight: 1},
		},
	}

	days := Generate(plan, today)

	require.Len(t, days, 2)
	assert.Equal(t, []models.Allocation{{Subject: "Constitutional", Hours: 2}}, days[0].Allocations)
	assert.Equal(t, []models.Allocation{
		{Subject: "Tax", Hours: 1},
		{Subject: "Constitutional", Hours: 1},
	}, days[1].Allocations)
}

func TestGenerate_SingleSubject(t *testing.T) {
	plan := models.StudyPlan{
		ExamDate:   examIn(1),
		DailyHours: 5,
		Subjects:   []models.StudyPlanSubject{{Name: "Civil", Weight: 2}},
	}

	days := Generate(plan, today)

	require.Len(t, days, 1)
	assert.Equal(t, []models.Allocation{
		{Subject: "Civil", Hours: 2},
		{Subject: "Civil", Hours: 2},
		{Subject: "Civil", Hours: 1},
	}, days[0].Allocations)
}

func TestGenerate_EveryDayFillsBudget(t *testing.T) {
	subjects := []models.StudyPlanSubject{
		{Name: "Civil", Weight: 3},
		{Name: "Penal", Weight: 2},
		{Name: "Labor", Weight: 1},
	}

	for budget := 1; budget <= 12; budget++ {
		plan := models.StudyPlan{ExamDate: examIn(20), DailyHours: budget, Subjects: subjects}
		days := Generate(plan, today)
		require.Len(t, days, 20)
		for _, d := range days {
			assert.Equal(t, budget, d.TotalHours(), "budget %d on %s", budget, dates.Format(d.Date))
		}
	}
}

func TestGenerate_WeightedFairness(t *testing.T) {
	plan := models.StudyPlan{
		ExamDate:   examIn(6),
		DailyHours: 6,
		Subjects: []models.StudyPlanSubject{
			{Name: "Civil", Weight: 3},
			{Name: "Penal", Weight: 2},
			{Name: "Labor", Weight: 1},
		},
	}

	totals := hoursBySubject(Generate(plan, today))

	assert.Equal(t, map[string]int{"Civil": 18, "Penal": 12, "Labor": 6}, totals)
}

func TestGenerate_EmptySchedules(t *testing.T) {
	subjects := []models.StudyPlanSubject{{Name: "Civil", Weight: 1}}

	tests := []struct {
		name string
		plan models.StudyPlan
	}{
		{name: "exam today", plan: models.StudyPlan{ExamDate: examIn(0), DailyHours: 2, Subjects: subjects}},
		{name: "exam in the past", plan: models.StudyPlan{ExamDate: examIn(-3), DailyHours: 2, Subjects: subjects}},
		{name: "unparseable exam date", plan: models.StudyPlan{ExamDate: "soon", DailyHours: 2, Subjects: subjects}},
		{name: "zero budget", plan: models.StudyPlan{ExamDate: examIn(3), DailyHours: 0, Subjects: subjects}},
		{name: "no subjects", plan: models.StudyPlan{ExamDate: examIn(3), DailyHours: 2}},
		{name: "zero weight", plan: models.StudyPlan{ExamDate: examIn(3), DailyHours: 2,
			Subjects: []models.StudyPlanSubject{{Name: "Civil", Weight: 0}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, Generate(tt.plan, today))
		})
	}
}

func TestGenerate_StopsAtHorizon(t *testing.T) {
	plan := models.StudyPlan{
		ExamDate:   "9999-12-31",
		DailyHours: 24,
		Subjects:   []models.StudyPlanSubject{{Name: "Civil", Weight: 1}},
	}

	days := Generate(plan, today)

	require.Len(t, days, MaxHorizonDays)
	assert.Equal(t, dates.AddDays(today, MaxHorizonDays-1), days[len(days)-1].Date)
	assert.Equal(t, 24, days[len(days)-1].TotalHours())

	plan.ExamDate = examIn(MaxHorizonDays + 5)
	assert.Len(t, Generate(plan, today), MaxHorizonDays)
}

func TestGenerate_Reproducible(t *testing.T) {
	plan := models.StudyPlan{
		ExamDate:   examIn(9),
		DailyHours: 4,
		Subjects: []models.StudyPlanSubject{
			{Name: "Civil", Weight: 3},
			{Name: "Penal", Weight: 2},
		},
	}

	assert.Equal(t, Generate(plan, today), Generate(plan, today.Add(15*time.Hour)))
}

func TestTotals_FirstAppearanceOrder(t *testing.T) {
	days := []models.ScheduleDay{
		{Allocations: []models.Allocation{{Subject: "Penal", Hours: 1}, {Subject: "Civil", Hours: 2}}},
		{Allocations: []models.Allocation{{Subject: "Civil", Hours: 2}, {Subject: "Penal", Hours: 1}}},
	}

	assert.Equal(t, []SubjectTotal{
		{Subject: "Penal", Hours: 2},
		{Subject: "Civil", Hours: 4},
	}, Totals(days))
}
