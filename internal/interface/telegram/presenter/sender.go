// Package presenter maps the conversation layer's transport-neutral replies
// onto concrete Telegram API calls.
package presenter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campus-connect/campus-bot/internal/application/conversation"
	"github.com/campus-connect/campus-bot/internal/infrastructure/external/telegram"
)

// Sender delivers conversation replies to a chat.
type Sender struct {
	client *telegram.Client
	logger *slog.Logger
}

// NewSender creates a Sender.
func NewSender(client *telegram.Client, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{client: client, logger: logger}
}

// Send delivers each reply in order. Delivery stops on the first transport
// error so message ordering is preserved for the retry.
func (s *Sender) Send(ctx context.Context, chatID int64, replies []conversation.Reply) error {
	for _, reply := range replies {
		if err := s.sendOne(ctx, chatID, reply); err != nil {
			return fmt.Errorf("send reply: %w", err)
		}
	}
	return nil
}

func (s *Sender) sendOne(ctx context.Context, chatID int64, reply conversation.Reply) error {
	if reply.Document != nil {
		return s.sendFile(ctx, chatID, reply.Document)
	}

	params := telegram.SendMessageParams{
		ChatID:            chatID,
		Text:              reply.Text,
		DisableWebPreview: reply.DisableWebPreview,
	}
	if reply.Markdown {
		params.ParseMode = "Markdown"
	}
	if len(reply.Buttons) > 0 {
		params.ReplyMarkup = inlineKeyboard(reply.Buttons)
	}
	if reply.MenuButton {
		params.ReplyKeyboard = &telegram.ReplyKeyboardMarkup{
			Keyboard:        [][]telegram.KeyboardButton{{{Text: "Menu"}}},
			ResizeKeyboard:  true,
			OneTimeKeyboard: true,
		}
	}

	_, err := s.client.SendMessage(ctx, params)
	return err
}

func (s *Sender) sendFile(ctx context.Context, chatID int64, file *conversation.File) error {
	switch {
	case file.FileRef != "" && file.Photo:
		_, err := s.client.SendPhotoByRef(ctx, chatID, file.FileRef, file.Caption)
		return err
	case file.FileRef != "":
		_, err := s.client.SendDocumentByRef(ctx, chatID, file.FileRef, file.Caption)
		return err
	default:
		_, err := s.client.SendDocument(ctx, chatID, file.FileName, file.Content, file.Caption)
		return err
	}
}

// inlineKeyboard converts conversation buttons to the wire representation.
func inlineKeyboard(rows [][]conversation.Button) *telegram.InlineKeyboardMarkup {
	kb := telegram.NewKeyboard()
	for _, row := range rows {
		buttons := make([]telegram.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, telegram.URLButton(b.Label, b.URL))
				continue
			}
			buttons = append(buttons, telegram.Button(b.Label, b.Data))
		}
		kb.Row(buttons...)
	}
	return kb.Build()
}
