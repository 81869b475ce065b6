package spaced_repetition

import (
	"errors"
	"sort"
	"time"

	"github.com/example/lexbot/pkg/dates"
	"github.com/example/lexbot/pkg/models"
)

// Intervals are the review checkpoints in days after the study date.
// They approximate the forgetting curve and are not user-adjustable.
var Intervals = [...]int{1, 7, 15, 30}

// ErrUnknownInterval is returned when marking a checkpoint that is not in Intervals
var ErrUnknownInterval = errors.New("unknown review interval")

// IsInterval reports whether days is one of the review checkpoints
func IsInterval(days int) bool {
	for _, iv := range Intervals {
		if iv == days {
			return true
		}
	}
	return false
}

// DueObligations returns the reviews a learner must act on today.
//
// Overdue reviews come first, then reviews due today; inside a status the
// shorter interval wins. Equal keys keep input order. Topics whose study
// date cannot be parsed are skipped.
func DueObligations(topics []models.StudyTopic, today time.Time) []models.ReviewObligation {
	today = dates.Of(today)
	var due []models.ReviewObligation

	for i := range topics {
		topic := &topics[i]
		studied, err := dates.Parse(topic.StudyDate)
		if err != nil {
			continue
		}

		for _, interval := range Intervals {
			if topic.HasCompleted(interval) {
				continue
			}
			dueDate := dates.AddDays(studied, interval)
			if dueDate.After(today) {
				continue
			}

			status := models.ReviewDueToday
			if dueDate.Before(today) {
				status = models.ReviewOverdue
			}

			due = append(due, models.ReviewObligation{
				TopicID:  topic.ID,
				Subject:  topic.Subject,
				Topic:    topic.Name,
				Interval: interval,
				DueDate:  dueDate,
				Status:   status,
			})
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].IsOverdue() != due[j].IsOverdue() {
			return due[i].IsOverdue()
		}
		return due[i].Interval < due[j].Interval
	})

	return due
}

// MarkComplete records the review for interval on the topic. It returns
// false when the interval was already done, leaving the topic untouched.
func MarkComplete(topic *models.StudyTopic, interval int) (bool, error) {
	if !IsInterval(interval) {
		return false, ErrUnknownInterval
	}
	if topic.HasCompleted(interval) {
		return false, nil
	}
	topic.CompletedIntervals = append(topic.CompletedIntervals, interval)
	sort.Ints(topic.CompletedIntervals)
	return true, nil
}

// NextReview returns the earliest pending checkpoint that is not due yet
func NextReview(topic models.StudyTopic, today time.Time) (models.ReviewObligation, bool) {
	studied, err := dates.Parse(topic.StudyDate)
	if err != nil {
		return models.ReviewObligation{}, false
	}
	today = dates.Of(today)

	for _, interval := range Intervals {
		if topic.HasCompleted(interval) {
			continue
		}
		dueDate := dates.AddDays(studied, interval)
		if !dueDate.After(today) {
			continue
		}
		return models.ReviewObligation{
			TopicID:  topic.ID,
			Subject:  topic.Subject,
			Topic:    topic.Name,
			Interval: interval,
			DueDate:  dueDate,
		}, true
	}
	return models.ReviewObligation{}, false
}

// Progress returns how many checkpoints of the topic are done
func Progress(topic models.StudyTopic) (done, total int) {
	for _, interval := range Intervals {
		if topic.HasCompleted(interval) {
			done++
		}
	}
	return done, len(Intervals)
}

// IsMastered determines if every review of the topic was completed
func IsMastered(topic models.StudyTopic) bool {
	done, total := Progress(topic)
	return done == total
}
