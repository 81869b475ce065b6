package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexbot/pkg/models"
)

// StatisticsRepository aggregates review progress
type StatisticsRepository struct {
	db *sqlx.DB
}

// NewStatisticsRepository creates a new repository instance
func NewStatisticsRepository(db *sqlx.DB) *StatisticsRepository {
	return &StatisticsRepository{db: db}
}

// GetSubjectStatistics returns per-subject progress of a user. A topic
// counts as mastered once it has masteredAfter completed reviews.
func (r *StatisticsRepository) GetSubjectStatistics(ctx context.Context, userID int64, masteredAfter int) ([]models.SubjectStatistics, error) {
	query := r.db.Rebind(`
		SELECT t.subject,
			COUNT(*) AS topics,
			COALESCE(SUM(r.done), 0) AS completed_reviews,
			COALESCE(SUM(CASE WHEN r.done >= ? THEN 1 ELSE 0 END), 0) AS mastered_topics
		FROM study_topics t
		LEFT JOIN (
			SELECT topic_id, COUNT(*) AS done
			FROM topic_reviews
			GROUP BY topic_id
		) r ON r.topic_id = t.id
		WHERE t.user_id = ?
		GROUP BY t.subject
		ORDER BY t.subject
	`)

	var stats []models.SubjectStatistics
	if err := r.db.SelectContext(ctx, &stats, query, masteredAfter, userID); err != nil {
		return nil, fmt.Errorf("failed to get subject statistics: %w", err)
	}
	return stats, nil
}
