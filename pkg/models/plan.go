package models

import "time"

// StudyPlanSubject is one weighted subject of a study plan
type StudyPlanSubject struct {
	ID       int64  `json:"id" db:"id"`
	PlanID   int64  `json:"plan_id" db:"plan_id"`
	Position int    `json:"position" db:"position"`
	Name     string `json:"name" db:"name" validate:"required,max=100"`
	Weight   int    `json:"weight" db:"weight" validate:"min=1,max=10"` // priority multiplier
	Color    string `json:"color" db:"color" validate:"omitempty,hexcolor"`
}

// StudyPlan drives the reverse study schedule up to an exam
type StudyPlan struct {
	ID         int64              `json:"id" db:"id"`
	UserID     int64              `json:"user_id" db:"user_id"`
	Title      string             `json:"title" db:"title" validate:"required,max=200"`
	ExamDate   string             `json:"exam_date" db:"exam_date" validate:"required,datetime=2006-01-02"`
	DailyHours int                `json:"daily_hours" db:"daily_hours" validate:"min=1,max=24"`
	Subjects   []StudyPlanSubject `json:"subjects" db:"-" validate:"min=1,dive"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`
}

// Allocation is the time given to one subject on one day
type Allocation struct {
	Subject string `json:"subject"`
	Color   string `json:"color"`
	Hours   int    `json:"hours"`
}

// ScheduleDay is one generated day of a study schedule. It is never stored.
type ScheduleDay struct {
	Date        time.Time    `json:"date"`
	Allocations []Allocation `json:"allocations"`
}

// TotalHours sums the hours allocated on the day
func (d ScheduleDay) TotalHours() int {
	total := 0
	for _, a := range d.Allocations {
		total += a.Hours
	}
	return total
}
