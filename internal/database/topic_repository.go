package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/lexbot/pkg/models"
)

// TopicRepository handles study topics and their completed reviews
type TopicRepository struct {
	db *sqlx.DB
}

// NewTopicRepository creates a new repository instance
func NewTopicRepository(db *sqlx.DB) *TopicRepository {
	return &TopicRepository{db: db}
}

// Create inserts a new topic together with any reviews already done
func (r *TopicRepository) Create(ctx context.Context, topic *models.StudyTopic) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	query := tx.Rebind(`
		INSERT INTO study_topics (user_id, subject, topic, study_date)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)
	err = tx.QueryRowxContext(ctx, query,
		topic.UserID,
		topic.Subject,
		topic.Name,
		topic.StudyDate,
	).Scan(&topic.ID)
	if err != nil {
		return fmt.Errorf("failed to create topic: %w", err)
	}

	for _, interval := range topic.CompletedIntervals {
		if err := insertReview(ctx, tx, topic.ID, interval); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	topic.CreatedAt = time.Now()
	return nil
}

// GetAllByUserID returns all topics of a user with their completed reviews
func (r *TopicRepository) GetAllByUserID(ctx context.Context, userID int64) ([]models.StudyTopic, error) {
	var topics []models.StudyTopic
	query := r.db.Rebind(`
		SELECT id, user_id, subject, topic, study_date, created_at
		FROM study_topics
		WHERE user_id = ?
		ORDER BY study_date, id
	`)
	if err := r.db.SelectContext(ctx, &topics, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}

	var reviews []struct {
		TopicID  int64 `db:"topic_id"`
		Interval int   `db:"interval_days"`
	}
	query = r.db.Rebind(`
		SELECT r.topic_id, r.interval_days
		FROM topic_reviews r
		JOIN study_topics t ON t.id = r.topic_id
		WHERE t.user_id = ?
		ORDER BY r.topic_id, r.interval_days
	`)
	if err := r.db.SelectContext(ctx, &reviews, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	index := make(map[int64]int, len(topics))
	for i, t := range topics {
		index[t.ID] = i
	}
	for _, rv := range reviews {
		if i, ok := index[rv.TopicID]; ok {
			topics[i].CompletedIntervals = append(topics[i].CompletedIntervals, rv.Interval)
		}
	}

	return topics, nil
}

// GetByID returns a topic of the user with its completed reviews
func (r *TopicRepository) GetByID(ctx context.Context, userID, topicID int64) (*models.StudyTopic, error) {
	var topic models.StudyTopic
	query := r.db.Rebind(`
		SELECT id, user_id, subject, topic, study_date, created_at
		FROM study_topics
		WHERE id = ? AND user_id = ?
	`)
	err := r.db.GetContext(ctx, &topic, query, topicID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get topic: %w", err)
	}

	query = r.db.Rebind(`SELECT interval_days FROM topic_reviews WHERE topic_id = ? ORDER BY interval_days`)
	if err := r.db.SelectContext(ctx, &topic.CompletedIntervals, query, topicID); err != nil {
		return nil, fmt.Errorf("failed to get reviews: %w", err)
	}

	return &topic, nil
}

// MarkIntervalComplete records one finished review. Recording the same
// interval twice keeps a single row.
func (r *TopicRepository) MarkIntervalComplete(ctx context.Context, userID, topicID int64, interval int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	var owner int64
	err = tx.GetContext(ctx, &owner, tx.Rebind(`SELECT user_id FROM study_topics WHERE id = ?`), topicID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && owner != userID) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get topic: %w", err)
	}

	if err := insertReview(ctx, tx, topicID, interval); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Delete removes a topic and its whole review history
func (r *TopicRepository) Delete(ctx context.Context, userID, topicID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(`
		DELETE FROM topic_reviews
		WHERE topic_id IN (SELECT id FROM study_topics WHERE id = ? AND user_id = ?)
	`), topicID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete reviews: %w", err)
	}

	result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM study_topics WHERE id = ? AND user_id = ?`), topicID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertReview(ctx context.Context, tx *sqlx.Tx, topicID int64, interval int) error {
	query := tx.Rebind(`
		INSERT INTO topic_reviews (topic_id, interval_days)
		VALUES (?, ?)
		ON CONFLICT (topic_id, interval_days) DO NOTHING
	`)
	if _, err := tx.ExecContext(ctx, query, topicID, interval); err != nil {
		return fmt.Errorf("failed to record review: %w", err)
	}
	return nil
}
