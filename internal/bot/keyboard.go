package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/lexbot/pkg/models"
)

// Callback data
const (
	callbackMainMenu  = "main_menu"
	callbackReviews   = "reviews"
	callbackTopics    = "topics"
	callbackPlans     = "plans"
	callbackStats     = "stats"
	callbackHelp      = "help"
	callbackImport    = "import"
	callbackCancel    = "cancel_action"
	callbackComplete  = "complete_"
	maxReviewButtons  = 20
	maxButtonTextRune = 40
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

func mainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{{Text: "🔄 Reviews", CallbackData: callbackReviews}, {Text: "📚 Topics", CallbackData: callbackTopics}},
		{{Text: "🗓 Plans", CallbackData: callbackPlans}, {Text: "📊 Statistics", CallbackData: callbackStats}},
		{{Text: "📥 Import topics", CallbackData: callbackImport}, {Text: "❓ Help", CallbackData: callbackHelp}},
	}
}

// completeCallbackData encodes "complete_<topicID>_<interval>"
func completeCallbackData(topicID int64, interval int) string {
	return fmt.Sprintf("%s%d_%d", callbackComplete, topicID, interval)
}

// parseCompleteCallback decodes data built by completeCallbackData
func parseCompleteCallback(data string) (topicID int64, interval int, err error) {
	rest, ok := strings.CutPrefix(data, callbackComplete)
	if !ok {
		return 0, 0, fmt.Errorf("not a completion callback: %q", data)
	}
	idPart, intervalPart, ok := strings.Cut(rest, "_")
	if !ok {
		return 0, 0, fmt.Errorf("malformed completion callback: %q", data)
	}
	if topicID, err = strconv.ParseInt(idPart, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid topic ID in callback data: %w", err)
	}
	if interval, err = strconv.Atoi(intervalPart); err != nil {
		return 0, 0, fmt.Errorf("invalid interval in callback data: %w", err)
	}
	return topicID, interval, nil
}

// reviewKeyboard has one "done" button per pending review
func reviewKeyboard(due []models.ReviewObligation) tgbotapi.InlineKeyboardMarkup {
	var buttons [][]MenuButton
	for i, r := range due {
		if i == maxReviewButtons {
			break
		}
		text := truncate(fmt.Sprintf("✅ %s (%s)", r.Topic, intervalLabel(r.Interval)), maxButtonTextRune)
		buttons = append(buttons, []MenuButton{{Text: text, CallbackData: completeCallbackData(r.TopicID, r.Interval)}})
	}
	buttons = append(buttons, []MenuButton{{Text: "⬅️ Menu", CallbackData: callbackMainMenu}})
	return createKeyboard(buttons)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
