package models

import "time"

// StudyTopic is one unit of material studied on a given calendar date
type StudyTopic struct {
	ID        int64  `json:"id" db:"id"`
	UserID    int64  `json:"user_id" db:"user_id"`
	Subject   string `json:"subject" db:"subject"`
	Name      string `json:"topic" db:"topic"`
	StudyDate string `json:"study_date" db:"study_date"` // YYYY-MM-DD
	// CompletedIntervals holds the review checkpoints already done, in days
	CompletedIntervals []int     `json:"completed_intervals" db:"-"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// HasCompleted reports whether the review for interval was already done
func (t *StudyTopic) HasCompleted(interval int) bool {
	for _, done := range t.CompletedIntervals {
		if done == interval {
			return true
		}
	}
	return false
}
