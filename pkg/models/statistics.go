package models

// SubjectStatistics aggregates review progress for one subject of a user
type SubjectStatistics struct {
	Subject          string `json:"subject" db:"subject"`
	Topics           int    `json:"topics" db:"topics"`
	CompletedReviews int    `json:"completed_reviews" db:"completed_reviews"`
	MasteredTopics   int    `json:"mastered_topics" db:"mastered_topics"`
}
