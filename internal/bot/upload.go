package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/example/lexbot/internal/excel"
)

const maxUploadSize = 5 << 20

// fileFetcher downloads a file Telegram stores for us
type fileFetcher interface {
	Fetch(ctx context.Context, url string) (io.ReadCloser, error)
}

type httpFetcher struct{}

func (httpFetcher) Fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

func (b *Bot) handleImport(message *tgbotapi.Message) error {
	b.setAwaitingUpload(message.Chat.ID, true)

	text := "📥 Send an .xlsx or .csv file with one topic per row:\n\n" +
		"Subject | Topic | Study date (YYYY-MM-DD) | Completed intervals (e.g. 1,7)\n\n" +
		"The first row is treated as a header."
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "❌ Cancel", CallbackData: callbackCancel}}})
	return b.sendMessage(msg)
}

func (b *Bot) handleDocument(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	if !b.isAwaitingUpload(chatID) {
		return b.sendText(chatID, "To import topics, send /import first and then the file.")
	}
	doc := message.Document
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext != ".xlsx" && ext != ".csv" {
		return b.sendText(chatID, "❌ "+excel.ErrUnsupportedFormat.Error())
	}
	if doc.FileSize > maxUploadSize {
		return b.sendText(chatID, "❌ The file is too large, the limit is 5 MB.")
	}
	b.setAwaitingUpload(chatID, false)

	user, err := b.ensureUser(ctx, message.From)
	if err != nil {
		return err
	}

	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return fmt.Errorf("failed to get file URL: %w", err)
	}
	body, err := b.files.Fetch(ctx, url)
	if err != nil {
		b.sendText(chatID, "❌ Could not download the file, please try again.")
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxUploadSize+1))
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > maxUploadSize {
		return b.sendText(chatID, "❌ The file is too large, the limit is 5 MB.")
	}

	topics, result, err := excel.ReadTopics(bytes.NewReader(data), doc.FileName, excel.DefaultImportConfig())
	if err != nil {
		b.logger.Warn("Unreadable import file", zap.String("file", doc.FileName), zap.Error(err))
		return b.sendText(chatID, "❌ Could not read the file: "+err.Error())
	}

	created, err := b.service.ImportTopics(ctx, user.ID, topics)
	result.Created = created
	if err != nil {
		b.logger.Error("Import interrupted", zap.Int64("user_id", user.ID), zap.Error(err))
		result.Errors = append(result.Errors, "import stopped early, please retry the remaining rows")
	}

	msg := tgbotapi.NewMessage(chatID, renderImportResult(result))
	msg.ReplyMarkup = createKeyboard(mainMenuButtons())
	return b.sendMessage(msg)
}
