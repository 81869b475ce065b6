package spaced_repetition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lexbot/pkg/dates"
	"github.com/example/lexbot/pkg/models"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := dates.Parse(s)
	require.NoError(t, err)
	return d
}

func TestDueObligations_DayAfterStudy(t *testing.T) {
	topics := []models.StudyTopic{{ID: 1, Subject: "Civil", Name: "Contracts", StudyDate: "2024-03-01"}}

	due := DueObligations(topics, mustDate(t, "2024-03-02"))
	require.Len(t, due, 1)
	assert.Equal(t, 1, due[0].Interval)
	assert.Equal(t, models.ReviewDueToday, due[0].Status)

	due = DueObligations(topics, mustDate(t, "2024-03-04"))
	require.Len(t, due, 1)
	assert.Equal(t, models.ReviewOverdue, due[0].Status)
	assert.Equal(t, "2024-03-02", dates.Format(due[0].DueDate))
}

func TestDueObligations_NothingBeforeFirstCheckpoint(t *testing.T) {
	topics := []models.StudyTopic{{ID: 1, StudyDate: "2024-03-01"}}

	assert.Empty(t, DueObligations(topics, mustDate(t, "2024-03-01")))
}

func TestDueObligations_Ordering(t *testing.T) {
	topics := []models.StudyTopic{
		{ID: 1, StudyDate: "2024-03-09"}, // 1-day due today
		{ID: 2, StudyDate: "2024-02-01"}, // every checkpoint overdue
		{ID: 3, StudyDate: "2024-03-03"}, // 7-day due today, 1-day overdue
	}

	due := DueObligations(topics, mustDate(t, "2024-03-10"))

	type key struct {
		topic    int64
		interval int
		status   models.ReviewStatus
	}
	var got []key
	for _, o := range due {
		got = append(got, key{o.TopicID, o.Interval, o.Status})
	}

	assert.Equal(t, []key{
		{2, 1, models.ReviewOverdue},
		{3, 1, models.ReviewOverdue},
		{2, 7, models.ReviewOverdue},
		{2, 15, models.ReviewOverdue},
		{2, 30, models.ReviewOverdue},
		{1, 1, models.ReviewDueToday},
		{3, 7, models.ReviewDueToday},
	}, got)
}

func TestDueObligations_SkipsMalformedDates(t *testing.T) {
	topics := []models.StudyTopic{
		{ID: 1, StudyDate: ""},
		{ID: 2, StudyDate: "yesterday"},
		{ID: 3, StudyDate: "2024-03-01"},
	}

	due := DueObligations(topics, mustDate(t, "2024-03-02"))

	require.Len(t, due, 1)
	assert.Equal(t, int64(3), due[0].TopicID)
}

func TestDueObligations_IgnoresClockPartOfToday(t *testing.T) {
	topics := []models.StudyTopic{{ID: 1, StudyDate: "2024-03-01"}}
	today := time.Date(2024, 3, 2, 23, 59, 0, 0, time.UTC)

	due := DueObligations(topics, today)

	require.Len(t, due, 1)
	assert.Equal(t, models.ReviewDueToday, due[0].Status)
}

func TestMarkComplete_RemovesOnlyThatObligation(t *testing.T) {
	topics := []models.StudyTopic{{ID: 1, StudyDate: "2024-01-01"}}
	today := mustDate(t, "2024-03-01")
	require.Len(t, DueObligations(topics, today), 4)

	changed, err := MarkComplete(&topics[0], 1)
	require.NoError(t, err)
	assert.True(t, changed)

	due := DueObligations(topics, today)
	require.Len(t, due, 3)
	for _, o := range due {
		assert.NotEqual(t, 1, o.Interval)
	}
}

func TestMarkComplete_Idempotent(t *testing.T) {
	topic := models.StudyTopic{ID: 1, StudyDate: "2024-01-01", CompletedIntervals: []int{7}}

	changed, err := MarkComplete(&topic, 7)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []int{7}, topic.CompletedIntervals)

	changed, err = MarkComplete(&topic, 1)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []int{1, 7}, topic.CompletedIntervals)
}

func TestMarkComplete_UnknownInterval(t *testing.T) {
	topic := models.StudyTopic{ID: 1}

	_, err := MarkComplete(&topic, 3)

	assert.ErrorIs(t, err, ErrUnknownInterval)
	assert.Empty(t, topic.CompletedIntervals)
}

func TestNextReview(t *testing.T) {
	topic := models.StudyTopic{ID: 1, StudyDate: "2024-03-01", CompletedIntervals: []int{1}}

	next, ok := NextReview(topic, mustDate(t, "2024-03-05"))
	require.True(t, ok)
	assert.Equal(t, 7, next.Interval)
	assert.Equal(t, "2024-03-08", dates.Format(next.DueDate))

	_, ok = NextReview(topic, mustDate(t, "2024-04-30"))
	assert.False(t, ok)
}

func TestProgressAndMastery(t *testing.T) {
	topic := models.StudyTopic{CompletedIntervals: []int{1, 7, 15}}

	done, total := Progress(topic)
	assert.Equal(t, 3, done)
	assert.Equal(t, 4, total)
	assert.False(t, IsMastered(topic))

	topic.CompletedIntervals = append(topic.CompletedIntervals, 30)
	assert.True(t, IsMastered(topic))
}
