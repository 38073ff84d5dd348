package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/coinmews/coinmews/internal/infra/httpclient"
)

const (
	callbackApprove = "approve"
	callbackReject  = "reject"
	callbackPrefix  = "sub"
)

type Bot struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
}

type CommandUpdate struct {
	ChatID   int64
	UserID   int64
	Username string
	Command  string
	Args     string
}

type CallbackUpdate struct {
	CallbackID string
	ChatID     int64
	MessageID  int
	UserID     int64
	Username   string
	Data       string
}

type Handlers struct {
	OnCommand  func(context.Context, CommandUpdate) error
	OnCallback func(context.Context, CallbackUpdate) error
}

// ModerationAction is a decoded Approve/Reject button press.
type ModerationAction struct {
	Approve      bool
	SubmissionID int64
	ReasonCode   string
}

// RejectOption renders one rejection button under a queue message.
type RejectOption struct {
	Code  string
	Label string
}

func NewBot(token string, pollTimeout int) (*Bot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram bot token is empty")
	}

	api, err := tgbotapi.NewBotAPIWithClient(
		strings.TrimSpace(token),
		tgbotapi.APIEndpoint,
		httpclient.New(time.Duration(pollTimeout+30)*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}
	if pollTimeout <= 0 {
		pollTimeout = 30
	}

	return &Bot{api: api, pollTimeout: pollTimeout}, nil
}

func (b *Bot) Listen(ctx context.Context, handlers Handlers) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(updateCfg)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil && update.Message.From != nil &&
				update.Message.IsCommand() && handlers.OnCommand != nil {
				err := handlers.OnCommand(ctx, CommandUpdate{
					ChatID:   update.Message.Chat.ID,
					UserID:   update.Message.From.ID,
					Username: update.Message.From.UserName,
					Command:  update.Message.Command(),
					Args:     update.Message.CommandArguments(),
				})
				if err != nil {
					return err
				}
				continue
			}

			if update.CallbackQuery != nil && update.CallbackQuery.From != nil && handlers.OnCallback != nil {
				var chatID int64
				var messageID int
				if update.CallbackQuery.Message != nil {
					chatID = update.CallbackQuery.Message.Chat.ID
					messageID = update.CallbackQuery.Message.MessageID
				}
				err := handlers.OnCallback(ctx, CallbackUpdate{
					CallbackID: update.CallbackQuery.ID,
					ChatID:     chatID,
					MessageID:  messageID,
					UserID:     update.CallbackQuery.From.ID,
					Username:   update.CallbackQuery.From.UserName,
					Data:       update.CallbackQuery.Data,
				})
				if err != nil {
					return err
				}
			}
		}
	}
}

func (b *Bot) SendText(ctx context.Context, chatID int64, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return fmt.Errorf("chat id is required")
	}

	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	_ = ctx
	return nil
}

// SendSubmissionNotice posts a queue entry with an Approve button and one button per reject option.
func (b *Bot) SendSubmissionNotice(ctx context.Context, chatID int64, text string, submissionID int64, rejects []RejectOption) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 {
		return fmt.Errorf("chat id is required")
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = submissionKeyboard(submissionID, rejects)

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send submission notice: %w", err)
	}

	_ = ctx
	return nil
}

// MarkDecided replaces the buttons of a queue message with the decision text.
func (b *Bot) MarkDecided(ctx context.Context, chatID int64, messageID int, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if chatID == 0 || messageID == 0 {
		return nil
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if _, err := b.api.Request(edit); err != nil {
		return fmt.Errorf("edit submission notice: %w", err)
	}

	_ = ctx
	return nil
}

func (b *Bot) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if b == nil || b.api == nil {
		return fmt.Errorf("telegram bot is not initialized")
	}
	if strings.TrimSpace(callbackID) == "" {
		return nil
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("answer callback query: %w", err)
	}

	_ = ctx
	return nil
}

func submissionKeyboard(submissionID int64, rejects []RejectOption) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Approve", CallbackData(true, submissionID)),
		),
	}
	if len(rejects) == 0 {
		rows[0] = append(rows[0], tgbotapi.NewInlineKeyboardButtonData("Reject", CallbackData(false, submissionID)))
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	var row []tgbotapi.InlineKeyboardButton
	for _, option := range rejects {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Reject: "+option.Label, RejectCallbackData(submissionID, option.Code)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func CallbackData(approve bool, submissionID int64) string {
	action := callbackReject
	if approve {
		action = callbackApprove
	}
	return callbackPrefix + ":" + action + ":" + strconv.FormatInt(submissionID, 10)
}

// RejectCallbackData encodes a rejection carrying a reason code. Telegram caps callback data at 64 bytes.
func RejectCallbackData(submissionID int64, reasonCode string) string {
	return CallbackData(false, submissionID) + ":" + reasonCode
}

func ParseCallbackData(data string) (ModerationAction, bool) {
	parts := strings.Split(strings.TrimSpace(data), ":")
	if len(parts) < 3 || len(parts) > 4 || parts[0] != callbackPrefix {
		return ModerationAction{}, false
	}

	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || id <= 0 {
		return ModerationAction{}, false
	}

	switch parts[1] {
	case callbackApprove:
		if len(parts) == 4 {
			return ModerationAction{}, false
		}
		return ModerationAction{Approve: true, SubmissionID: id}, true
	case callbackReject:
		action := ModerationAction{Approve: false, SubmissionID: id}
		if len(parts) == 4 {
			action.ReasonCode = strings.TrimSpace(parts[3])
			if action.ReasonCode == "" {
				return ModerationAction{}, false
			}
		}
		return action, true
	}
	return ModerationAction{}, false
}
