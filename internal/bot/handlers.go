package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/lexbot/internal/database"
	"github.com/example/lexbot/internal/excel"
	"github.com/example/lexbot/internal/planner"
	"github.com/example/lexbot/internal/spaced_repetition"
	"github.com/example/lexbot/internal/study"
	"github.com/example/lexbot/pkg/dates"
)

const genericErrorText = "❌ Something went wrong. Please try again later."

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return errors.New("invalid message: required fields are missing")
	}

	args := message.CommandArguments()
	var err error
	switch message.Command() {
	case "start":
		err = b.handleStart(ctx, message)
	case "help":
		err = b.handleHelp(message)
	case "add":
		err = b.handleAddTopic(ctx, message, args)
	case "topics", "list":
		err = b.handleListTopics(ctx, message)
	case "reviews":
		err = b.handleReviews(ctx, message)
	case "delete":
		err = b.handleDeleteTopic(ctx, message, args)
	case "plan":
		err = b.handleCreatePlan(ctx, message, args)
	case "plans":
		err = b.handleListPlans(ctx, message)
	case "schedule":
		err = b.handleSchedule(ctx, message, args)
	case "export":
		err = b.handleExport(ctx, message, args)
	case "deleteplan":
		err = b.handleDeletePlan(ctx, message, args)
	case "stats":
		err = b.handleStats(ctx, message)
	case "settings":
		err = b.handleSettings(ctx, message)
	case "notify":
		err = b.handleNotifyCommand(ctx, message, args)
	case "time":
		err = b.handleTimeCommand(ctx, message, args)
	case "import":
		err = b.handleImport(message)
	case "remind":
		err = b.handleRemind(ctx, message)
	default:
		err = b.sendText(message.Chat.ID, "Unknown command. Use /help to see the available commands.")
	}

	if err != nil {
		b.sendText(message.Chat.ID, genericErrorText)
	}
	return err
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, message.From); err != nil {
		return err
	}

	text := "👋 Welcome to LexBot!\n\n" +
		"I help you remember what you study and plan the run-up to your exam.\n\n" +
		"🔹 How it works:\n" +
		"1. Log each topic you study with /add\n" +
		"2. Review it 1, 7, 15 and 30 days later when I remind you\n" +
		"3. Create a study plan with /plan to split your daily hours between subjects\n" +
		"4. Track your progress with /stats"

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard(mainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) error {
	text := "📖 Help\n\n" +
		"📚 Topics and reviews:\n" +
		"/add Subject | Topic | YYYY-MM-DD - log a studied topic\n" +
		"/topics - list your topics\n" +
		"/reviews - reviews due today\n" +
		"/delete <n> - delete topic number n\n" +
		"/import - upload topics from an .xlsx or .csv file\n\n" +
		"🗓 Study plans:\n" +
		"/plan Title | YYYY-MM-DD | hours | Subject:weight[:#color], ...\n" +
		"/plans - list your plans\n" +
		"/schedule <n> [days] - show the schedule of plan n\n" +
		"/export <n> - download the schedule as a spreadsheet\n" +
		"/deleteplan <n> - delete plan n\n\n" +
		"⚙️ Settings:\n" +
		"/stats - progress by subject\n" +
		"/settings - show reminder settings\n" +
		"/notify on|off - turn daily reminders on or off\n" +
		"/time <hour> - reminder hour (0-23)\n" +
		"/remind - send me my reminder now\n\n" +
		"🔄 Every topic is reviewed 1, 7, 15 and 30 days after you study it."

	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{
		{{Text: "⬅️ Menu", CallbackData: callbackMainMenu}},
	})
	return b.sendMessage(msg)
}

func (b *Bot) handleAddTopic(ctx context.Context, message *tgbotapi.Message, args string) error {
	subject, topic, studyDate, err := parseTopicArgs(args)
	if err != nil {
		return b.sendText(message.Chat.ID, usageAdd)
	}
	if studyDate == "" {
		studyDate = dates.Format(b.service.Today())
	}

	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}

	t, err := b.service.LogTopic(ctx, user.ID, subject, topic, studyDate)
	switch {
	case errors.Is(err, study.ErrEmptyLabel):
		return b.sendText(message.Chat.ID, "❌ Subject and topic must not be empty.\n\n"+usageAdd)
	case errors.Is(err, dates.ErrInvalidDate):
		return b.sendText(message.Chat.ID, fmt.Sprintf("❌ %q is not a date, use YYYY-MM-DD.", studyDate))
	case err != nil:
		return err
	}

	text := fmt.Sprintf("✅ Logged %s: %s (studied %s)", t.Subject, t.Name, t.StudyDate)
	if next, ok := b.service.NextReview(*t); ok {
		text += fmt.Sprintf("\nNext review on %s.", dates.Format(next.DueDate))
	}
	return b.sendText(message.Chat.ID, text)
}

func (b *Bot) handleListTopics(ctx context.Context, message *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}

	topics, err := b.service.Topics(ctx, user.ID)
	if err != nil {
		return err
	}
	return b.sendText(message.Chat.ID, renderTopics(topics, b.service.NextReview))
}

func (b *Bot) handleReviews(ctx context.Context, message *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}

	due, err := b.service.DueReviews(ctx, user.ID)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(message.Chat.ID, renderReviews(due))
	if len(due) > 0 {
		msg.ReplyMarkup = reviewKeyboard(due)
	}
	return b.sendMessage(msg)
}

func (b *Bot) handleDeleteTopic(ctx context.Context, message *tgbotapi.Message, args string) error {
	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}

	topics, err := b.service.Topics(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(topics) == 0 {
		return b.sendText(message.Chat.ID, "📭 You have no topics to delete.")
	}

	i, err := parseIndex(args, len(topics))
	if err != nil {
		return b.sendText(message.Chat.ID, fmt.Sprintf("Usage: /delete <n>, %v. See /topics for the numbers.", err))
	}

	topic := topics[i]
	if err := b.service.DeleteTopic(ctx, user.ID, topic.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return b.sendText(message.Chat.ID, "❌ That topic no longer exists.")
		}
		return err
	}
	return b.sendText(message.Chat.ID, fmt.Sprintf("🗑 Deleted %s: %s and its reviews.", topic.Subject, topic.Name))
}

func (b *Bot) handleCreatePlan(ctx context.Context, message *tgbotapi.Message, args string) error {
	plan, err := parsePlanArgs(args)
	if errors.Is(err, errNoArgs) {
		return b.sendText(message.Chat.ID, usagePlan)
	}
	if err != nil {
		return b.sendText(message.Chat.ID, "❌ "+err.Error()+"\n\n"+usagePlan)
	}

	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}
	plan.UserID = user.ID

	if err := b.service.CreatePlan(ctx, plan); err != nil {
		var verr *planner.ValidationError
		if errors.As(err, &verr) {
			return b.sendText(message.Chat.ID, renderValidationError(verr))
		}
		return err
	}

	_, days, err := b.service.Schedule(ctx, user.ID, plan.ID)
	if err != nil {
		return err
	}
	text := "✅ Study plan saved.\n\n" + renderSchedule(*plan, days, defaultScheduleDays)
	return b.sendText(message.Chat.ID, text)
}

func (b *Bot) handleListPlans(ctx context.Context, message *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}

	plans, err := b.service.Plans(ctx, user.ID)
	if err != nil {
		return err
	}
	return b.sendText(message.Chat.ID, renderPlans(plans))
}

func (b *Bot) handleSchedule(ctx context.Context, message *tgbotapi.Message, args string) error {
	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}

	plans, err := b.service.Plans(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		return b.sendText(message.Chat.ID, renderPlans(plans))
	}

	i, limit, err := parseScheduleArgs(args, len(plans))
	if err != nil {
		return b.sendText(message.Chat.ID, fmt.Sprintf("Usage: /schedule <n> [days], %v. See /plans for the numbers.", err))
	}

	plan, days, err := b.service.Schedule(ctx, user.ID, plans[i].ID)
	if err != nil {
		return err
	}
	return b.sendText(message.Chat.ID, renderSchedule(*plan, days, limit))
}

func (b *Bot) handleExport(ctx context.Context, message *tgbotapi.Message, args string) error {
	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}

	plans, err := b.service.Plans(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		return b.sendText(message.Chat.ID, renderPlans(plans))
	}

	i, err := parseIndex(args, len(plans))
	if err != nil {
		return b.sendText(message.Chat.ID, fmt.Sprintf("Usage: /export <n>, %v. See /plans for the numbers.", err))
	}

	plan, days, err := b.service.Schedule(ctx, user.ID, plans[i].ID)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		return b.sendText(message.Chat.ID, renderSchedule(*plan, days, 0))
	}

	var buf bytes.Buffer
	if err := excel.ExportSchedule(&buf, *plan, days); err != nil {
		return err
	}

	doc := tgbotapi.NewDocument(message.Chat.ID, tgbotapi.FileBytes{
		Name:  exportFileName(plan.Title),
		Bytes: buf.Bytes(),
	})
	doc.Caption = fmt.Sprintf("🗓 %s, %d day(s) until %s", plan.Title, len(days), plan.ExamDate)
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("failed to send schedule: %w", err)
	}

	b.logger.Info("Schedule exported", zap.Int64("user_id", user.ID), zap.Int64("plan_id", plan.ID))
	return nil
}

func (b *Bot) handleDeletePlan(ctx context.Context, message *tgbotapi.Message, args string) error {
	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}

	plans, err := b.service.Plans(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		return b.sendText(message.Chat.ID, "📭 You have no plans to delete.")
	}

	i, err := parseIndex(args, len(plans))
	if err != nil {
		return b.sendText(message.Chat.ID, fmt.Sprintf("Usage: /deleteplan <n>, %v. See /plans for the numbers.", err))
	}

	if err := b.service.DeletePlan(ctx, user.ID, plans[i].ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return b.sendText(message.Chat.ID, "❌ That plan no longer exists.")
		}
		return err
	}
	return b.sendText(message.Chat.ID, fmt.Sprintf("🗑 Deleted plan %s.", plans[i].Title))
}

func (b *Bot) handleStats(ctx context.Context, message *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}

	stats, err := b.service.Statistics(ctx, user.ID)
	if err != nil {
		return err
	}
	return b.sendText(message.Chat.ID, renderStats(stats))
}

func (b *Bot) handleSettings(ctx context.Context, message *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}

	text := fmt.Sprintf("⚙️ Settings\n\nReminders: %s\nReminder hour: %d:00\n\n"+
		"Change them with /notify on|off and /time <hour>.",
		boolToEnabledString(user.NotificationEnabled), user.NotificationHour)
	return b.sendText(message.Chat.ID, text)
}

func (b *Bot) handleNotifyCommand(ctx context.Context, message *tgbotapi.Message, args string) error {
	var enabled bool
	switch strings.ToLower(strings.TrimSpace(args)) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return b.sendText(message.Chat.ID, "Usage: /notify on|off")
	}

	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}
	if err := b.users.UpdateNotificationSettings(ctx, user.ID, enabled, user.NotificationHour); err != nil {
		return err
	}
	return b.sendText(message.Chat.ID, fmt.Sprintf("✅ Reminders %s", boolToEnabledString(enabled)))
}

func (b *Bot) handleTimeCommand(ctx context.Context, message *tgbotapi.Message, args string) error {
	hour, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || hour < 0 || hour > 23 {
		return b.sendText(message.Chat.ID, "Usage: /time <hour>, with an hour between 0 and 23")
	}

	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}
	if err := b.users.UpdateNotificationSettings(ctx, user.ID, user.NotificationEnabled, hour); err != nil {
		return err
	}

	text := fmt.Sprintf("✅ Reminders will be sent at %d:00", hour)
	if hour < b.config.NotificationStartHour || hour > b.config.NotificationEndHour {
		text += fmt.Sprintf("\n⚠️ Reminders only go out between %d:00 and %d:00, so this hour will be skipped.",
			b.config.NotificationStartHour, b.config.NotificationEndHour)
	}
	return b.sendText(message.Chat.ID, text)
}

func (b *Bot) handleRemind(ctx context.Context, message *tgbotapi.Message) error {
	if b.reminder == nil {
		return b.sendText(message.Chat.ID, "Reminders are disabled on this bot.")
	}

	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}
	due, err := b.service.DueReviews(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return b.sendText(message.Chat.ID, renderReviews(due))
	}
	return b.reminder.RunManualCheck(ctx, *user)
}

// HandleCallback handles inline button presses
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback == nil || callback.Message == nil || callback.From == nil {
		return errors.New("invalid callback data: required fields are missing")
	}

	// The message the button belongs to, seen as sent by whoever pressed it.
	message := &tgbotapi.Message{
		From: callback.From,
		Chat: callback.Message.Chat,
	}

	if strings.HasPrefix(callback.Data, callbackComplete) {
		return b.handleReviewComplete(ctx, callback)
	}

	b.answerCallback(callback.ID, "")

	var err error
	switch callback.Data {
	case callbackMainMenu:
		msg := tgbotapi.NewMessage(message.Chat.ID, "🤖 Main menu")
		msg.ReplyMarkup = createKeyboard(mainMenuButtons())
		err = b.sendMessage(msg)
	case callbackReviews:
		err = b.handleReviews(ctx, message)
	case callbackTopics:
		err = b.handleListTopics(ctx, message)
	case callbackPlans:
		err = b.handleListPlans(ctx, message)
	case callbackStats:
		err = b.handleStats(ctx, message)
	case callbackHelp:
		err = b.handleHelp(message)
	case callbackImport:
		err = b.handleImport(message)
	case callbackCancel:
		b.setAwaitingUpload(message.Chat.ID, false)
		err = b.sendText(message.Chat.ID, "Cancelled.")
	default:
		err = b.sendText(message.Chat.ID, "⚠️ Unknown action")
	}

	if err != nil {
		b.sendText(message.Chat.ID, genericErrorText)
	}
	return err
}

func (b *Bot) handleReviewComplete(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	topicID, interval, err := parseCompleteCallback(callback.Data)
	if err != nil {
		b.answerCallback(callback.ID, "⚠️ Unknown action")
		return err
	}

	user, err := b.ensureUser(ctx, callback.From)
	if err != nil {
		b.answerCallback(callback.ID, genericErrorText)
		return err
	}

	changed, err := b.service.CompleteReview(ctx, user.ID, topicID, interval)
	switch {
	case errors.Is(err, database.ErrNotFound):
		b.answerCallback(callback.ID, "This topic no longer exists")
	case errors.Is(err, spaced_repetition.ErrUnknownInterval):
		b.answerCallback(callback.ID, "⚠️ Unknown review interval")
	case err != nil:
		b.answerCallback(callback.ID, genericErrorText)
		return err
	case changed:
		b.answerCallback(callback.ID, "✅ Review done")
	default:
		b.answerCallback(callback.ID, "Already done")
	}

	// Refresh the list the button was pressed on.
	due, err := b.service.DueReviews(ctx, user.ID)
	if err != nil {
		return err
	}
	chatID, messageID := callback.Message.Chat.ID, callback.Message.MessageID
	var edit tgbotapi.EditMessageTextConfig
	if len(due) == 0 {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, renderReviews(due))
	} else {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, renderReviews(due), reviewKeyboard(due))
	}
	if _, err := b.api.Send(edit); err != nil {
		return fmt.Errorf("failed to update review list: %w", err)
	}
	return nil
}

// answerCallback removes the loading state of a pressed button
func (b *Bot) answerCallback(id, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.logger.Warn("Failed to answer callback", zap.Error(err))
	}
}

// boolToEnabledString converts a boolean to a human-readable enabled/disabled string
func boolToEnabledString(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func exportFileName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, title)
	if name == "" {
		name = "schedule"
	}
	return name + ".xlsx"
}
