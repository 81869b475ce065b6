package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/lexbot/pkg/models"
)

// Notifier sends review reminders to a chat
type Notifier interface {
	SendReviewReminder(chatID int64, due []models.ReviewObligation) error
}

// UserSource lists the users that want a reminder at a given hour
type UserSource interface {
	GetUsersForNotification(ctx context.Context, hour int) ([]models.User, error)
}

// ReviewSource computes the pending reviews of a user
type ReviewSource interface {
	DueReviews(ctx context.Context, userID int64) ([]models.ReviewObligation, error)
}

// Window is the range of hours (inclusive) in which reminders may be sent
type Window struct {
	StartHour int
	EndHour   int
}

// Contains reports whether hour falls inside the window
func (w Window) Contains(hour int) bool {
	return hour >= w.StartHour && hour <= w.EndHour
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	users     UserSource
	reviews   ReviewSource
	notifier  Notifier
	window    Window
	loc       *time.Location
	logger    *zap.Logger
}

// New creates a new scheduler instance
func New(users UserSource, reviews ReviewSource, notifier Notifier, window Window, loc *time.Location, logger *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		users:     users,
		reviews:   reviews,
		notifier:  notifier,
		window:    window,
		loc:       loc,
		logger:    logger,
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	// Top of every hour, so notification_hour is hit exactly once a day.
	_, err := s.scheduler.Every(1).Hour().StartAt(nextHour(time.Now().In(s.loc))).Do(func() {
		s.checkAndSendReminders(context.Background(), time.Now())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("Reminder scheduler started",
		zap.Int("start_hour", s.window.StartHour),
		zap.Int("end_hour", s.window.EndHour))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("Reminder scheduler stopped")
}

// checkAndSendReminders sends reminders to users whose notification hour is now.
// It returns the number of reminders sent.
func (s *Scheduler) checkAndSendReminders(ctx context.Context, now time.Time) int {
	currentHour := now.In(s.loc).Hour()

	if !s.window.Contains(currentHour) {
		s.logger.Debug("Outside notification hours, skipping reminders",
			zap.Int("hour", currentHour),
			zap.Int("start_hour", s.window.StartHour),
			zap.Int("end_hour", s.window.EndHour))
		return 0
	}

	users, err := s.users.GetUsersForNotification(ctx, currentHour)
	if err != nil {
		s.logger.Error("Failed to get users for notification", zap.Error(err))
		return 0
	}

	sent := 0
	for _, user := range users {
		due, err := s.reviews.DueReviews(ctx, user.ID)
		if err != nil {
			s.logger.Error("Failed to get due reviews", zap.Int64("user_id", user.ID), zap.Error(err))
			continue
		}
		if len(due) == 0 {
			continue
		}

		if err := s.notifier.SendReviewReminder(user.TelegramID, due); err != nil {
			s.logger.Error("Failed to send reminder", zap.Int64("user_id", user.ID), zap.Error(err))
			continue
		}
		sent++
	}

	s.logger.Info("Reminders sent", zap.Int("hour", currentHour), zap.Int("sent", sent))
	return sent
}

// RunManualCheck forces a reminder for a specific user
func (s *Scheduler) RunManualCheck(ctx context.Context, user models.User) error {
	due, err := s.reviews.DueReviews(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}
	return s.notifier.SendReviewReminder(user.TelegramID, due)
}

func nextHour(t time.Time) time.Time {
	return t.Truncate(time.Hour).Add(time.Hour)
}
