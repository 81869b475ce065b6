package database

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lexbot/pkg/models"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect("sqlite3", ":memory:", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUser(t *testing.T, db *sqlx.DB, telegramID int64) *models.User {
	t.Helper()
	user := &models.User{TelegramID: telegramID, Username: "student", NotificationEnabled: true, NotificationHour: 9}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewUserRepository(db)

	user := newTestUser(t, db, 1001)
	assert.NotZero(t, user.ID)

	require.NoError(t, repo.UpdateNotificationSettings(ctx, user.ID, true, 19))

	// Registering again refreshes the profile but keeps the settings.
	again := &models.User{TelegramID: 1001, Username: "renamed", NotificationEnabled: true, NotificationHour: 9}
	require.NoError(t, repo.Create(ctx, again))
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, 19, again.NotificationHour)

	got, err := repo.GetByTelegramID(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Username)
	assert.True(t, got.NotificationEnabled)

	_, err = repo.GetByTelegramID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	users, err := repo.GetUsersForNotification(ctx, 19)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(1001), users[0].TelegramID)

	require.NoError(t, repo.UpdateNotificationSettings(ctx, user.ID, false, 19))
	users, err = repo.GetUsersForNotification(ctx, 19)
	require.NoError(t, err)
	assert.Empty(t, users)

	assert.ErrorIs(t, repo.UpdateNotificationSettings(ctx, 12345, true, 8), ErrNotFound)
}

func TestTopicRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTopicRepository(db)
	user := newTestUser(t, db, 1)
	other := newTestUser(t, db, 2)

	topic := &models.StudyTopic{UserID: user.ID, Subject: "Civil", Name: "Contracts", StudyDate: "2024-03-01", CompletedIntervals: []int{1}}
	require.NoError(t, repo.Create(ctx, topic))
	assert.NotZero(t, topic.ID)

	second := &models.StudyTopic{UserID: user.ID, Subject: "Penal", Name: "Homicide", StudyDate: "2024-02-01"}
	require.NoError(t, repo.Create(ctx, second))

	require.NoError(t, repo.MarkIntervalComplete(ctx, user.ID, topic.ID, 7))
	require.NoError(t, repo.MarkIntervalComplete(ctx, user.ID, topic.ID, 7))

	got, err := repo.GetByID(ctx, user.ID, topic.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 7}, got.CompletedIntervals)
	assert.Equal(t, "Contracts", got.Name)

	all, err := repo.GetAllByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "ordered by study date")
	assert.Empty(t, all[0].CompletedIntervals)
	assert.Equal(t, []int{1, 7}, all[1].CompletedIntervals)

	assert.ErrorIs(t, repo.MarkIntervalComplete(ctx, other.ID, topic.ID, 15), ErrNotFound)
	_, err = repo.GetByID(ctx, other.ID, topic.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, other.ID, topic.ID), ErrNotFound)

	require.NoError(t, repo.Delete(ctx, user.ID, topic.ID))
	_, err = repo.GetByID(ctx, user.ID, topic.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var reviews int
	require.NoError(t, db.Get(&reviews, `SELECT COUNT(*) FROM topic_reviews WHERE topic_id = ?`, topic.ID))
	assert.Zero(t, reviews, "review history goes with the topic")
}

func TestPlanRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewPlanRepository(db)
	user := newTestUser(t, db, 1)

	plan := &models.StudyPlan{
		UserID:     user.ID,
		Title:      "Bar exam",
		ExamDate:   "2024-09-01",
		DailyHours: 4,
		Subjects: []models.StudyPlanSubject{
			{Name: "Penal", Weight: 1, Color: "#0000ff"},
			{Name: "Civil", Weight: 3},
		},
	}
	require.NoError(t, repo.Create(ctx, plan))
	assert.NotZero(t, plan.ID)

	got, err := repo.GetByID(ctx, user.ID, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bar exam", got.Title)
	assert.Equal(t, 4, got.DailyHours)
	require.Len(t, got.Subjects, 2)
	assert.Equal(t, "Penal", got.Subjects[0].Name)
	assert.Equal(t, "#0000ff", got.Subjects[0].Color)
	assert.Equal(t, "Civil", got.Subjects[1].Name)
	assert.Equal(t, 3, got.Subjects[1].Weight)

	earlier := &models.StudyPlan{UserID: user.ID, Title: "Midterm", ExamDate: "2024-07-01", DailyHours: 2,
		Subjects: []models.StudyPlanSubject{{Name: "Tax", Weight: 1}}}
	require.NoError(t, repo.Create(ctx, earlier))

	plans, err := repo.GetAllByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Midterm", plans[0].Title)
	assert.Len(t, plans[1].Subjects, 2)

	require.NoError(t, repo.Delete(ctx, user.ID, plan.ID))
	_, err = repo.GetByID(ctx, user.ID, plan.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, user.ID, plan.ID), ErrNotFound)

	var subjects int
	require.NoError(t, db.Get(&subjects, `SELECT COUNT(*) FROM plan_subjects WHERE plan_id = ?`, plan.ID))
	assert.Zero(t, subjects)
}

func TestStatisticsRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	topics := NewTopicRepository(db)
	stats := NewStatisticsRepository(db)
	user := newTestUser(t, db, 1)

	require.NoError(t, topics.Create(ctx, &models.StudyTopic{UserID: user.ID, Subject: "Civil", Name: "Contracts",
		StudyDate: "2024-01-01", CompletedIntervals: []int{1, 7, 15, 30}}))
	require.NoError(t, topics.Create(ctx, &models.StudyTopic{UserID: user.ID, Subject: "Civil", Name: "Torts",
		StudyDate: "2024-01-02", CompletedIntervals: []int{1}}))
	require.NoError(t, topics.Create(ctx, &models.StudyTopic{UserID: user.ID, Subject: "Penal", Name: "Theft",
		StudyDate: "2024-01-03"}))

	got, err := stats.GetSubjectStatistics(ctx, user.ID, 4)
	require.NoError(t, err)

	assert.Equal(t, []models.SubjectStatistics{
		{Subject: "Civil", Topics: 2, CompletedReviews: 5, MasteredTopics: 1},
		{Subject: "Penal", Topics: 1, CompletedReviews: 0, MasteredTopics: 0},
	}, got)
}
