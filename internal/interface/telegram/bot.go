// Package telegram implements the Telegram interface of the Campus Connect
// bot: it receives updates over long polling, funnels them through rate
// limiting and panic recovery into the conversation manager, and delivers
// the resulting replies back to the chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/campus-connect/campus-bot/internal/application/conversation"
	"github.com/campus-connect/campus-bot/internal/domain/shared"
	"github.com/campus-connect/campus-bot/internal/domain/user"
	"github.com/campus-connect/campus-bot/internal/infrastructure/external/telegram"
	"github.com/campus-connect/campus-bot/internal/interface/telegram/middleware"
	"github.com/campus-connect/campus-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// Token is the Telegram Bot API token.
	Token string

	// PollingTimeout is the long poll timeout in seconds.
	PollingTimeout int

	// MaxConcurrentUpdates limits concurrent update processing.
	MaxConcurrentUpdates int

	// GracefulShutdownTimeout bounds how long Stop waits for in-flight
	// handlers.
	GracefulShutdownTimeout time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig(token string) BotConfig {
	return BotConfig{
		Token:                   token,
		PollingTimeout:          30,
		MaxConcurrentUpdates:    50,
		GracefulShutdownTimeout: 30 * time.Second,
		Logger:                  slog.Default(),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// Bot receives Telegram updates and routes them into the conversation
// manager.
type Bot struct {
	config  BotConfig
	client  *telegram.Client
	manager *conversation.Manager
	sender  *presenter.Sender
	users   user.Repository
	logger  *slog.Logger

	rateLimiter *middleware.RateLimiter
	recovery    *middleware.RecoveryMiddleware

	running   bool
	runningMu sync.RWMutex
	dispatch  *dispatcher
}

// NewBot creates a Bot on an existing API client. The client is shared with
// the transcript file fetcher, so it is constructed by the caller. The user
// repository is needed to resolve reminder recipients to chats.
func NewBot(config BotConfig, client *telegram.Client, manager *conversation.Manager, users user.Repository) (*Bot, error) {
	if config.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	if client == nil {
		return nil, errors.New("telegram client is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxConcurrentUpdates <= 0 {
		config.MaxConcurrentUpdates = 50
	}

	recoveryConfig := middleware.DefaultRecoveryConfig()
	recoveryConfig.Logger = config.Logger

	return &Bot{
		config:      config,
		client:      client,
		manager:     manager,
		sender:      presenter.NewSender(client, config.Logger),
		users:       users,
		logger:      config.Logger,
		rateLimiter: middleware.NewRateLimiter(middleware.DefaultRateLimitConfig()),
		recovery:    middleware.NewRecoveryMiddleware(recoveryConfig),
		dispatch:    newDispatcher(config.MaxConcurrentUpdates),
	}, nil
}

// Client returns the underlying Telegram client. Used for wiring components
// that need direct API access, like the transcript file fetcher.
func (b *Bot) Client() *telegram.Client {
	return b.client
}

// ──────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────────────────────────────────

// Start verifies the token and begins long polling. Blocks until ctx is
// cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.runningMu.Lock()
	if b.running {
		b.runningMu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	b.runningMu.Unlock()

	me, err := b.client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify bot token: %w", err)
	}
	b.logger.Info("bot verified", "id", me.ID, "username", me.Username)

	b.logger.Info("starting long polling", "timeout", b.config.PollingTimeout)
	return b.client.StartPolling(ctx, func(ctx context.Context, update *telegram.Update) error {
		return b.handleUpdate(ctx, update)
	})
}

// Stop waits for in-flight handlers to finish, up to the configured
// shutdown timeout.
func (b *Bot) Stop(ctx context.Context) error {
	b.runningMu.Lock()
	if !b.running {
		b.runningMu.Unlock()
		return nil
	}
	b.running = false
	b.runningMu.Unlock()

	b.logger.Info("stopping telegram bot")

	done := make(chan struct{})
	go func() {
		b.dispatch.wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("all handlers completed")
		return nil
	case <-time.After(b.config.GracefulShutdownTimeout):
		b.logger.Warn("graceful shutdown timeout exceeded")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Update dispatch
// ──────────────────────────────────────────────────────────────────────────────

// handleUpdate hands the update to the dispatcher and returns without
// waiting, so the polling loop is never blocked by a slow conversation.
func (b *Bot) handleUpdate(ctx context.Context, update *telegram.Update) error {
	chatID := updateChatID(update)
	if chatID == 0 {
		return nil
	}

	b.dispatch.Dispatch(ctx, chatID, func(ctx context.Context) {
		b.processUpdate(ctx, update)
	})
	return nil
}

func (b *Bot) processUpdate(ctx context.Context, update *telegram.Update) {
	var err error
	switch {
	case update.Message != nil:
		err = b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		err = b.handleCallbackQuery(ctx, update.CallbackQuery)
	}
	if err != nil {
		b.logger.Error("failed to process update",
			"update_id", update.UpdateID,
			"error", err,
		)
	}
}

// updateChatID resolves the chat an update belongs to, 0 when it carries
// none.
func updateChatID(update *telegram.Update) int64 {
	switch {
	case update.Message != nil && update.Message.Chat != nil:
		return update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil && update.CallbackQuery.Message.Chat != nil:
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg == nil || msg.Chat == nil {
		return nil
	}
	chatID := msg.Chat.ID

	if limit := b.rateLimiter.Check(ctx, chatID); !limit.Allowed {
		_, err := b.client.SendText(ctx, chatID, limit.ResponseMessage)
		return err
	}

	var (
		replies []conversation.Reply
		opName  string
	)

	result, err := b.recovery.RecoverWithHandler(ctx, chatID, "message", func() error {
		var handleErr error
		switch {
		case telegram.ExtractCommand(msg) != "":
			command := telegram.ExtractCommand(msg)
			opName = "/" + command
			replies, handleErr = b.manager.HandleCommand(ctx, chatID, command)
		case msg.Document != nil:
			opName = "document"
			replies, handleErr = b.manager.HandleAttachment(ctx, chatID, conversation.Attachment{
				FileRef:  msg.Document.FileID,
				FileName: msg.Document.FileName,
				MimeType: msg.Document.MimeType,
			})
		case len(msg.Photo) > 0:
			opName = "photo"
			// The last entry is the largest resolution.
			replies, handleErr = b.manager.HandleAttachment(ctx, chatID, conversation.Attachment{
				FileRef: msg.Photo[len(msg.Photo)-1].FileID,
				Photo:   true,
			})
		case msg.Text != "":
			opName = "text"
			replies, handleErr = b.manager.HandleText(ctx, chatID, msg.Text)
		default:
			return nil
		}
		return handleErr
	})
	if result != nil && result.Recovered {
		_, sendErr := b.client.SendText(ctx, chatID, result.UserMessage)
		return sendErr
	}
	if err != nil {
		b.logger.Error("failed to handle message",
			"chat_id", chatID,
			"operation", opName,
			"error", err,
		)
		_, sendErr := b.client.SendText(ctx, chatID, "Something went wrong. Please try again.")
		return sendErr
	}

	return b.sender.Send(ctx, chatID, replies)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, cq *telegram.CallbackQuery) error {
	if cq == nil || cq.Message == nil || cq.Message.Chat == nil {
		return nil
	}
	chatID := cq.Message.Chat.ID

	// Answer first so the client drops its loading spinner.
	defer func() {
		_ = b.client.AnswerCallbackQuery(ctx, cq.ID, "", false)
	}()

	if limit := b.rateLimiter.Check(ctx, chatID); !limit.Allowed {
		_ = b.client.AnswerCallbackQuery(ctx, cq.ID, limit.ResponseMessage, true)
		return nil
	}

	var replies []conversation.Reply
	result, err := b.recovery.RecoverWithHandler(ctx, chatID, "callback:"+cq.Data, func() error {
		var handleErr error
		replies, handleErr = b.manager.HandleCallback(ctx, chatID, cq.Data)
		return handleErr
	})
	if result != nil && result.Recovered {
		_, sendErr := b.client.SendText(ctx, chatID, result.UserMessage)
		return sendErr
	}
	if err != nil {
		b.logger.Error("failed to handle callback",
			"chat_id", chatID,
			"data", cq.Data,
			"error", err,
		)
		_, sendErr := b.client.SendText(ctx, chatID, "Something went wrong. Please try again.")
		return sendErr
	}

	return b.sender.Send(ctx, chatID, replies)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reminder delivery
// ──────────────────────────────────────────────────────────────────────────────

// HandleReminderDue delivers a fired reminder to its owner's chat. It is
// subscribed to the event bus so the scheduler never touches the transport.
func (b *Bot) HandleReminderDue(ctx context.Context, event shared.Event) error {
	due, ok := event.(shared.ReminderDueEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T for %s", event, event.EventType())
	}

	owner, err := b.users.FindByID(ctx, due.UserID)
	if err != nil {
		return fmt.Errorf("resolve reminder recipient: %w", err)
	}

	if _, err := b.client.SendText(ctx, owner.ChatID, fmt.Sprintf("Reminder: %s", due.Message)); err != nil {
		return fmt.Errorf("deliver reminder: %w", err)
	}

	b.logger.Info("reminder delivered",
		"reminder_id", due.ReminderID,
		"user_id", due.UserID,
		"chat_id", owner.ChatID,
	)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// FILE FETCHER
// ══════════════════════════════════════════════════════════════════════════════

// FileFetcher adapts the Telegram client to the conversation manager's
// download contract: resolve the file_id, then fetch the bytes.
type FileFetcher struct {
	client *telegram.Client
}

// NewFileFetcher creates a FileFetcher.
func NewFileFetcher(client *telegram.Client) *FileFetcher {
	return &FileFetcher{client: client}
}

// Fetch downloads the content of an uploaded file by its file_id.
func (f *FileFetcher) Fetch(ctx context.Context, fileRef string) ([]byte, error) {
	file, err := f.client.GetFile(ctx, fileRef)
	if err != nil {
		return nil, err
	}
	return f.client.DownloadFile(ctx, file.FilePath)
}
