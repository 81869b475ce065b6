package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/lexbot/internal/config"
	"github.com/example/lexbot/internal/database"
	"github.com/example/lexbot/pkg/models"
)

// StudyService is what the bot needs from the study layer
type StudyService interface {
	Today() time.Time
	LogTopic(ctx context.Context, userID int64, subject, topic, studyDate string) (*models.StudyTopic, error)
	ImportTopics(ctx context.Context, userID int64, topics []models.StudyTopic) (int, error)
	Topics(ctx context.Context, userID int64) ([]models.StudyTopic, error)
	DeleteTopic(ctx context.Context, userID, topicID int64) error
	DueReviews(ctx context.Context, userID int64) ([]models.ReviewObligation, error)
	CompleteReview(ctx context.Context, userID, topicID int64, interval int) (bool, error)
	NextReview(topic models.StudyTopic) (models.ReviewObligation, bool)
	CreatePlan(ctx context.Context, plan *models.StudyPlan) error
	Plans(ctx context.Context, userID int64) ([]models.StudyPlan, error)
	DeletePlan(ctx context.Context, userID, planID int64) error
	Schedule(ctx context.Context, userID, planID int64) (*models.StudyPlan, []models.ScheduleDay, error)
	Statistics(ctx context.Context, userID int64) ([]models.SubjectStatistics, error)
}

// UserStore registers users and their reminder settings
type UserStore interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateNotificationSettings(ctx context.Context, userID int64, enabled bool, hour int) error
}

// Reminder sends an out-of-schedule review reminder
type Reminder interface {
	RunManualCheck(ctx context.Context, user models.User) error
}

// telegramAPI is the part of *tgbotapi.BotAPI the handlers use
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

const defaultNotificationHour = 9

// Bot represents the Telegram bot application
type Bot struct {
	api      telegramAPI
	poller   *tgbotapi.BotAPI
	service  StudyService
	users    UserStore
	reminder Reminder
	config   *config.Config
	logger   *zap.Logger
	files    fileFetcher

	mu                 sync.Mutex
	awaitingFileUpload map[int64]bool
	wg                 sync.WaitGroup
}

// New creates a new bot instance and authorizes it with Telegram
func New(cfg *config.Config, service StudyService, users UserStore, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	logger.Info("Authorized on Telegram", zap.String("account", api.Self.UserName))

	b := newBot(api, cfg, service, users, logger)
	b.poller = api
	return b, nil
}

func newBot(api telegramAPI, cfg *config.Config, service StudyService, users UserStore, logger *zap.Logger) *Bot {
	return &Bot{
		api:                api,
		service:            service,
		users:              users,
		config:             cfg,
		logger:             logger,
		files:              httpFetcher{},
		awaitingFileUpload: make(map[int64]bool),
	}
}

// SetReminder enables the /remind command
func (b *Bot) SetReminder(r Reminder) {
	b.reminder = r
}

// Start polls Telegram for updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.poller == nil {
		return errors.New("bot is not connected to Telegram")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.poller.GetUpdatesChan(updateConfig)

	b.logger.Info("Bot started, polling for updates")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.handleUpdate(ctx, update)
			}()
		}
	}
}

// Stop stops polling and waits for in-flight updates or ctx expiry
func (b *Bot) Stop(ctx context.Context) error {
	if b.poller != nil {
		b.poller.StopReceivingUpdates()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("Bot stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for handlers: %w", ctx.Err())
	}
}

// SendReviewReminder implements scheduler.Notifier
func (b *Bot) SendReviewReminder(chatID int64, due []models.ReviewObligation) error {
	overdue := 0
	for _, r := range due {
		if r.IsOverdue() {
			overdue++
		}
	}

	text := fmt.Sprintf("⏰ You have %d review(s) today", len(due))
	if overdue > 0 {
		text += fmt.Sprintf(", %d overdue", overdue)
	}
	text += ".\n\n" + renderReviews(due)

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = reviewKeyboard(due)
	if err := b.sendMessage(msg); err != nil {
		return err
	}

	b.logger.Info("Review reminder sent", zap.Int64("chat_id", chatID), zap.Int("reviews", len(due)))
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Panic while handling update", zap.Int("update_id", update.UpdateID), zap.Any("panic", r))
		}
	}()

	var err error
	switch {
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Document != nil:
		err = b.handleDocument(ctx, update.Message)
	case update.Message != nil:
		err = b.sendText(update.Message.Chat.ID, "Use /help to see what I can do.")
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	}

	if err != nil {
		b.logger.Error("Failed to handle update", zap.Int("update_id", update.UpdateID), zap.Error(err))
	}
}

// ensureUser returns the stored user for a Telegram account, registering it on first contact
func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	if from == nil {
		return nil, errors.New("message has no sender")
	}

	user, err := b.users.GetByTelegramID(ctx, from.ID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	user = &models.User{
		TelegramID:          from.ID,
		Username:            from.UserName,
		FirstName:           from.FirstName,
		LastName:            from.LastName,
		IsAdmin:             b.config.IsAdmin(from.ID),
		NotificationEnabled: true,
		NotificationHour:    defaultNotificationHour,
	}
	if err := b.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	b.logger.Info("User registered", zap.Int64("telegram_id", from.ID), zap.Int64("user_id", user.ID))
	return user, nil
}

func (b *Bot) setAwaitingUpload(chatID int64, waiting bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if waiting {
		b.awaitingFileUpload[chatID] = true
	} else {
		delete(b.awaitingFileUpload, chatID)
	}
}

func (b *Bot) isAwaitingUpload(chatID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.awaitingFileUpload[chatID]
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) error {
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, strings.TrimSpace(text)))
}
