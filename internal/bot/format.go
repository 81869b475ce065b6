package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/lexbot/internal/excel"
	"github.com/example/lexbot/internal/planner"
	"github.com/example/lexbot/internal/spaced_repetition"
	"github.com/example/lexbot/pkg/dates"
	"github.com/example/lexbot/pkg/models"
)

const (
	argSeparator = "|"

	defaultScheduleDays = 7
	maxScheduleDays     = 31
)

const (
	usageAdd  = "Usage: /add Subject | Topic | YYYY-MM-DD\nThe date can be left out for today."
	usagePlan = "Usage: /plan Title | YYYY-MM-DD | hours per day | Subject:weight[:#color], ...\n" +
		"Example: /plan Bar exam | 2024-11-20 | 4 | Civil:3:#1f77b4, Penal:2, Constitutional:1"
)

var errNoArgs = errors.New("missing arguments")

// splitArgs splits "a | b | c" into trimmed parts
func splitArgs(args string) []string {
	parts := strings.Split(args, argSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parseTopicArgs reads "Subject | Topic [| YYYY-MM-DD]". An empty date means today.
func parseTopicArgs(args string) (subject, topic, studyDate string, err error) {
	if strings.TrimSpace(args) == "" {
		return "", "", "", errNoArgs
	}
	parts := splitArgs(args)
	if len(parts) < 2 || len(parts) > 3 {
		return "", "", "", fmt.Errorf("expected 2 or 3 fields separated by %q, got %d", argSeparator, len(parts))
	}
	subject, topic = parts[0], parts[1]
	if len(parts) == 3 {
		studyDate = parts[2]
	}
	return subject, topic, studyDate, nil
}

// parsePlanArgs reads "Title | YYYY-MM-DD | hours | Subject:weight[:#color], ...".
// Field values are checked later by planner.Validate.
func parsePlanArgs(args string) (*models.StudyPlan, error) {
	if strings.TrimSpace(args) == "" {
		return nil, errNoArgs
	}
	parts := splitArgs(args)
	if len(parts) != 4 {
		return nil, fmt.Errorf("expected 4 fields separated by %q, got %d", argSeparator, len(parts))
	}

	hours, err := strconv.Atoi(parts[2])
	if err != nil {
		return nil, fmt.Errorf("hours per day must be a whole number, got %q", parts[2])
	}

	plan := &models.StudyPlan{
		Title:      parts[0],
		ExamDate:   parts[1],
		DailyHours: hours,
	}
	for _, item := range strings.Split(parts[3], ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		subject, err := parseSubject(item)
		if err != nil {
			return nil, err
		}
		plan.Subjects = append(plan.Subjects, subject)
	}
	return plan, nil
}

func parseSubject(item string) (models.StudyPlanSubject, error) {
	fields := strings.Split(item, ":")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	subject := models.StudyPlanSubject{Name: fields[0], Weight: 1}
	if len(fields) > 3 {
		return subject, fmt.Errorf("subject %q: expected Subject:weight[:#color]", item)
	}
	if len(fields) > 1 {
		w, err := strconv.Atoi(fields[1])
		if err != nil {
			return subject, fmt.Errorf("subject %q: weight must be a whole number", fields[0])
		}
		subject.Weight = w
	}
	if len(fields) == 3 {
		subject.Color = fields[2]
	}
	return subject, nil
}

// parseIndex reads a 1-based position in a list of n items
func parseIndex(arg string, n int) (int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, errNoArgs
	}
	i, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", arg)
	}
	if i < 1 || i > n {
		return 0, fmt.Errorf("number must be between 1 and %d", n)
	}
	return i - 1, nil
}

// parseScheduleArgs reads "<n> [days]"
func parseScheduleArgs(args string, n int) (index, days int, err error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, 0, errNoArgs
	}
	if index, err = parseIndex(fields[0], n); err != nil {
		return 0, 0, err
	}
	days = defaultScheduleDays
	if len(fields) > 1 {
		if days, err = strconv.Atoi(fields[1]); err != nil || days < 1 {
			return 0, 0, fmt.Errorf("days must be a positive number")
		}
		if days > maxScheduleDays {
			days = maxScheduleDays
		}
	}
	return index, days, nil
}

func renderTopics(topics []models.StudyTopic, next func(models.StudyTopic) (models.ReviewObligation, bool)) string {
	if len(topics) == 0 {
		return "📭 No topics yet. Log one with /add Subject | Topic | YYYY-MM-DD"
	}

	var sb strings.Builder
	sb.WriteString("📚 Your topics\n\n")
	for i, t := range topics {
		done, total := spaced_repetition.Progress(t)
		sb.WriteString(fmt.Sprintf("%d. %s: %s (studied %s) %d/%d reviews", i+1, t.Subject, t.Name, t.StudyDate, done, total))
		if spaced_repetition.IsMastered(t) {
			sb.WriteString(" ✅ mastered")
		} else if review, ok := next(t); ok {
			sb.WriteString(fmt.Sprintf(", next %s (%s)", dates.Format(review.DueDate), intervalLabel(review.Interval)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nDelete one with /delete <n>")
	return sb.String()
}

func renderReviews(due []models.ReviewObligation) string {
	if len(due) == 0 {
		return "🎉 Nothing to review today."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔄 %d review(s) pending\n\n", len(due)))
	for _, r := range due {
		mark := "📌"
		if r.IsOverdue() {
			mark = "⏰"
		}
		sb.WriteString(fmt.Sprintf("%s %s: %s, %s review, due %s\n", mark, r.Subject, r.Topic, intervalLabel(r.Interval), dates.Format(r.DueDate)))
	}
	sb.WriteString("\nTap a button once the review is done.")
	return sb.String()
}

func renderPlans(plans []models.StudyPlan) string {
	if len(plans) == 0 {
		return "📭 No study plans yet.\n\n" + usagePlan
	}

	var sb strings.Builder
	sb.WriteString("🗓 Your study plans\n\n")
	for i, p := range plans {
		names := make([]string, 0, len(p.Subjects))
		for _, s := range p.Subjects {
			names = append(names, fmt.Sprintf("%s×%d", s.Name, s.Weight))
		}
		sb.WriteString(fmt.Sprintf("%d. %s, exam %s, %dh/day: %s\n", i+1, p.Title, p.ExamDate, p.DailyHours, strings.Join(names, ", ")))
	}
	sb.WriteString("\n/schedule <n> [days] to see the days, /export <n> for a spreadsheet")
	return sb.String()
}

func renderSchedule(plan models.StudyPlan, days []models.ScheduleDay, limit int) string {
	if len(days) == 0 {
		return fmt.Sprintf("📭 %s: nothing left to schedule, the exam date %s is not in the future.", plan.Title, plan.ExamDate)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🗓 %s, exam %s, %d day(s) left\n\n", plan.Title, plan.ExamDate, len(days)))

	shown := days
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, day := range shown {
		parts := make([]string, 0, len(day.Allocations))
		for _, a := range day.Allocations {
			parts = append(parts, fmt.Sprintf("%s %dh", a.Subject, a.Hours))
		}
		sb.WriteString(fmt.Sprintf("%s %s: %s\n", dates.Format(day.Date), day.Date.Weekday().String()[:3], strings.Join(parts, ", ")))
	}
	if len(shown) < len(days) {
		sb.WriteString(fmt.Sprintf("… and %d more day(s)\n", len(days)-len(shown)))
	}

	sb.WriteString("\nTotals:\n")
	for _, t := range planner.Totals(days) {
		sb.WriteString(fmt.Sprintf("• %s: %dh\n", t.Subject, t.Hours))
	}
	return sb.String()
}

func renderStats(stats []models.SubjectStatistics) string {
	if len(stats) == 0 {
		return "📊 No statistics yet. Log a topic with /add first."
	}

	var sb strings.Builder
	sb.WriteString("📊 Progress by subject\n\n")
	var topics, reviews, mastered int
	for _, s := range stats {
		sb.WriteString(fmt.Sprintf("%s: %d topic(s), %d review(s) done, %d mastered\n", s.Subject, s.Topics, s.CompletedReviews, s.MasteredTopics))
		topics += s.Topics
		reviews += s.CompletedReviews
		mastered += s.MasteredTopics
	}
	sb.WriteString(fmt.Sprintf("\nTotal: %d topic(s), %d review(s), %d mastered", topics, reviews, mastered))
	return sb.String()
}

func renderImportResult(result *excel.ImportResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ Import finished\n- Rows: %d\n- Created: %d\n- Skipped: %d\n",
		result.TotalProcessed, result.Created, result.Skipped))

	const maxErrors = 10
	if len(result.Errors) > 0 {
		sb.WriteString(fmt.Sprintf("\n⚠️ Problems (%d):\n", len(result.Errors)))
		for i, msg := range result.Errors {
			if i == maxErrors {
				sb.WriteString(fmt.Sprintf("- … %d more\n", len(result.Errors)-maxErrors))
				break
			}
			sb.WriteString("- " + msg + "\n")
		}
	}
	return sb.String()
}

func renderValidationError(verr *planner.ValidationError) string {
	var sb strings.Builder
	sb.WriteString("❌ The plan is not valid:\n")
	for _, f := range verr.Fields {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", f.Field, f.Message))
	}
	return sb.String()
}

func intervalLabel(days int) string {
	return fmt.Sprintf("%d-day", days)
}
