package models

import "time"

// ReviewStatus classifies a pending review
type ReviewStatus string

const (
	ReviewDueToday ReviewStatus = "due_today"
	ReviewOverdue  ReviewStatus = "overdue"
)

// ReviewObligation is a single pending spaced-repetition review of a topic.
// It is derived from a StudyTopic and never stored.
type ReviewObligation struct {
	TopicID  int64        `json:"topic_id"`
	Subject  string       `json:"subject"`
	Topic    string       `json:"topic"`
	Interval int          `json:"interval"`
	DueDate  time.Time    `json:"due_date"`
	Status   ReviewStatus `json:"status"`
}

// IsOverdue reports whether the review was due before today
func (o ReviewObligation) IsOverdue() bool {
	return o.Status == ReviewOverdue
}
