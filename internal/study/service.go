// Package study ties the review calculator and the schedule generator to
// storage. It owns the clock, so "today" is always passed in explicitly to
// the pure parts.
package study

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/lexbot/internal/planner"
	"github.com/example/lexbot/internal/spaced_repetition"
	"github.com/example/lexbot/pkg/dates"
	"github.com/example/lexbot/pkg/models"
)

// ErrEmptyLabel is returned when a subject or topic label is blank
var ErrEmptyLabel = errors.New("subject and topic must not be empty")

// TopicStore persists study topics and completed reviews
type TopicStore interface {
	Create(ctx context.Context, topic *models.StudyTopic) error
	GetAllByUserID(ctx context.Context, userID int64) ([]models.StudyTopic, error)
	GetByID(ctx context.Context, userID, topicID int64) (*models.StudyTopic, error)
	MarkIntervalComplete(ctx context.Context, userID, topicID int64, interval int) error
	Delete(ctx context.Context, userID, topicID int64) error
}

// PlanStore persists study plans
type PlanStore interface {
	Create(ctx context.Context, plan *models.StudyPlan) error
	GetAllByUserID(ctx context.Context, userID int64) ([]models.StudyPlan, error)
	GetByID(ctx context.Context, userID, planID int64) (*models.StudyPlan, error)
	Delete(ctx context.Context, userID, planID int64) error
}

// StatisticsStore aggregates progress
type StatisticsStore interface {
	GetSubjectStatistics(ctx context.Context, userID int64, masteredAfter int) ([]models.SubjectStatistics, error)
}

// Service implements the study operations used by the bot and the scheduler
type Service struct {
	topics TopicStore
	plans  PlanStore
	stats  StatisticsStore
	now    func() time.Time
	loc    *time.Location
	logger *zap.Logger
}

// Option customises a Service
type Option func(*Service)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone in which "today" starts at midnight
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// NewService creates a new study service
func NewService(topics TopicStore, plans PlanStore, stats StatisticsStore, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		topics: topics,
		plans:  plans,
		stats:  stats,
		now:    time.Now,
		loc:    time.Local,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar date in the configured zone
func (s *Service) Today() time.Time {
	return dates.Today(s.now(), s.loc)
}

// LogTopic stores a topic studied on studyDate (YYYY-MM-DD)
func (s *Service) LogTopic(ctx context.Context, userID int64, subject, topic, studyDate string) (*models.StudyTopic, error) {
	subject, topic = strings.TrimSpace(subject), strings.TrimSpace(topic)
	if subject == "" || topic == "" {
		return nil, ErrEmptyLabel
	}
	d, err := dates.Parse(studyDate)
	if err != nil {
		return nil, err
	}

	t := &models.StudyTopic{
		UserID:    userID,
		Subject:   subject,
		Name:      topic,
		StudyDate: dates.Format(d),
	}
	if err := s.topics.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to log topic: %w", err)
	}

	s.logger.Info("Topic logged",
		zap.Int64("user_id", userID),
		zap.Int64("topic_id", t.ID),
		zap.String("study_date", t.StudyDate))
	return t, nil
}

// ImportTopics stores topics read from a spreadsheet as they are. Rows with
// a bad study date are kept; the review calculator skips them.
func (s *Service) ImportTopics(ctx context.Context, userID int64, topics []models.StudyTopic) (int, error) {
	created := 0
	for i := range topics {
		topics[i].UserID = userID
		if err := s.topics.Create(ctx, &topics[i]); err != nil {
			return created, fmt.Errorf("failed to import topic %q: %w", topics[i].Name, err)
		}
		created++
	}
	s.logger.Info("Topics imported", zap.Int64("user_id", userID), zap.Int("count", created))
	return created, nil
}

// Topics returns all topics of the user
func (s *Service) Topics(ctx context.Context, userID int64) ([]models.StudyTopic, error) {
	return s.topics.GetAllByUserID(ctx, userID)
}

// DeleteTopic removes a topic together with its review history
func (s *Service) DeleteTopic(ctx context.Context, userID, topicID int64) error {
	if err := s.topics.Delete(ctx, userID, topicID); err != nil {
		return fmt.Errorf("failed to delete topic: %w", err)
	}
	s.logger.Info("Topic deleted", zap.Int64("user_id", userID), zap.Int64("topic_id", topicID))
	return nil
}

// DueReviews returns the reviews the user must do today, overdue first
func (s *Service) DueReviews(ctx context.Context, userID int64) ([]models.ReviewObligation, error) {
	topics, err := s.topics.GetAllByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load topics: %w", err)
	}
	return spaced_repetition.DueObligations(topics, s.Today()), nil
}

// CompleteReview marks one review interval of a topic as done. It reports
// whether anything changed.
func (s *Service) CompleteReview(ctx context.Context, userID, topicID int64, interval int) (bool, error) {
	topic, err := s.topics.GetByID(ctx, userID, topicID)
	if err != nil {
		return false, err
	}

	changed, err := spaced_repetition.MarkComplete(topic, interval)
	if err != nil || !changed {
		return false, err
	}

	if err := s.topics.MarkIntervalComplete(ctx, userID, topicID, interval); err != nil {
		return false, fmt.Errorf("failed to complete review: %w", err)
	}

	s.logger.Info("Review completed",
		zap.Int64("user_id", userID),
		zap.Int64("topic_id", topicID),
		zap.Int("interval", interval),
		zap.Bool("mastered", spaced_repetition.IsMastered(*topic)))
	return true, nil
}

// NextReview returns the next upcoming review of a topic, if any
func (s *Service) NextReview(topic models.StudyTopic) (models.ReviewObligation, bool) {
	return spaced_repetition.NextReview(topic, s.Today())
}

// CreatePlan validates and stores a study plan
func (s *Service) CreatePlan(ctx context.Context, plan *models.StudyPlan) error {
	if err := planner.Validate(*plan, s.Today()); err != nil {
		return err
	}
	if err := s.plans.Create(ctx, plan); err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	s.logger.Info("Study plan created",
		zap.Int64("user_id", plan.UserID),
		zap.Int64("plan_id", plan.ID),
		zap.String("exam_date", plan.ExamDate),
		zap.Int("subjects", len(plan.Subjects)))
	return nil
}

// Plans returns all plans of the user
func (s *Service) Plans(ctx context.Context, userID int64) ([]models.StudyPlan, error) {
	return s.plans.GetAllByUserID(ctx, userID)
}

// DeletePlan removes a plan and its subjects
func (s *Service) DeletePlan(ctx context.Context, userID, planID int64) error {
	if err := s.plans.Delete(ctx, userID, planID); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	s.logger.Info("Study plan deleted", zap.Int64("user_id", userID), zap.Int64("plan_id", planID))
	return nil
}

// Schedule regenerates the day-by-day schedule of a plan from today
func (s *Service) Schedule(ctx context.Context, userID, planID int64) (*models.StudyPlan, []models.ScheduleDay, error) {
	plan, err := s.plans.GetByID(ctx, userID, planID)
	if err != nil {
		return nil, nil, err
	}
	return plan, planner.Generate(*plan, s.Today()), nil
}

// Statistics returns per-subject review progress
func (s *Service) Statistics(ctx context.Context, userID int64) ([]models.SubjectStatistics, error) {
	return s.stats.GetSubjectStatistics(ctx, userID, len(spaced_repetition.Intervals))
}
