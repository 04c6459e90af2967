// Package telegram provides Telegram Bot API integration using the
// go-telegram/bot library.
package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"tuneclip/internal/chat"
)

const (
	chatTypeGroup      = "group"
	chatTypeSuperGroup = "supergroup"
)

// Config holds Telegram-specific configuration
type Config struct {
	BotToken     string
	AllowedChats map[int64]bool // empty means all chats are allowed
}

// Frontend implements the chat.Frontend interface for Telegram
type Frontend struct {
	config *Config
	logger *zap.Logger
	bot    *bot.Bot

	messageHandler func(*chat.Message)
}

// NewFrontend creates a new Telegram frontend
func NewFrontend(config *Config, logger *zap.Logger) *Frontend {
	return &Frontend{
		config: config,
		logger: logger,
	}
}

// Start initializes the Telegram bot
func (f *Frontend) Start(_ context.Context) error {
	f.logger.Info("Starting Telegram frontend")

	b, err := bot.New(f.config.BotToken, bot.WithDefaultHandler(f.handleUpdate))
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}

	f.bot = b

	f.logger.Info("Telegram frontend started successfully")
	return nil
}

// Listen starts listening for messages and calls the handler for each message
func (f *Frontend) Listen(ctx context.Context, handler func(*chat.Message)) error {
	f.messageHandler = handler

	f.bot.Start(ctx)

	return nil
}

// SendText sends a text message to the specified chat, optionally as a reply
func (f *Frontend) SendText(ctx context.Context, chatID, replyToID, text string) (string, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid chat ID: %w", err)
	}

	params := &bot.SendMessageParams{
		ChatID: chatIDInt,
		Text:   text,
	}

	// Link previews add noise under every progress message
	disabled := true
	params.LinkPreviewOptions = &models.LinkPreviewOptions{
		IsDisabled: &disabled,
	}

	if replyToID != "" {
		messageID, parseErr := strconv.Atoi(replyToID)
		if parseErr != nil {
			return "", fmt.Errorf("invalid reply message ID: %w", parseErr)
		}
		params.ReplyParameters = &models.ReplyParameters{
			MessageID: messageID,
		}
	}

	msg, err := f.bot.SendMessage(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	return strconv.Itoa(msg.ID), nil
}

// SendVideo uploads a local video file to the chat with a caption
func (f *Frontend) SendVideo(ctx context.Context, chatID, videoPath, caption string) (string, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid chat ID: %w", err)
	}

	file, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("failed to open video file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	msg, err := f.bot.SendVideo(ctx, &bot.SendVideoParams{
		ChatID: chatIDInt,
		Video: &models.InputFileUpload{
			Filename: filepath.Base(videoPath),
			Data:     file,
		},
		Caption: caption,
	})
	if err != nil {
		return "", fmt.Errorf("failed to send video: %w", err)
	}

	return strconv.Itoa(msg.ID), nil
}

// SendAction shows a chat status indicator
func (f *Frontend) SendAction(ctx context.Context, chatID string, action chat.Action) error {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}

	_, err = f.bot.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatIDInt,
		Action: toChatAction(action),
	})
	if err != nil {
		return fmt.Errorf("failed to send chat action: %w", err)
	}

	return nil
}

// toChatAction maps the frontend-neutral action to the Telegram constant
func toChatAction(action chat.Action) models.ChatAction {
	switch action {
	case chat.ActionUploadVideo:
		return models.ChatActionUploadVideo
	case chat.ActionTyping:
		return models.ChatActionTyping
	default:
		return models.ChatActionTyping
	}
}

// handleUpdate processes incoming Telegram updates
func (f *Frontend) handleUpdate(_ context.Context, _ *bot.Bot, update *models.Update) {
	if update.Message != nil {
		f.handleMessage(update.Message)
	}
}

// handleMessage normalizes an incoming message and hands it off
func (f *Frontend) handleMessage(msg *models.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}

	if len(f.config.AllowedChats) > 0 && !f.config.AllowedChats[msg.Chat.ID] {
		f.logger.Debug("Ignoring message from disallowed chat",
			zap.Int64("chat_id", msg.Chat.ID))
		return
	}

	if msg.Text == "" {
		return
	}

	if f.messageHandler == nil {
		return
	}

	isGroup := msg.Chat.Type == chatTypeGroup || msg.Chat.Type == chatTypeSuperGroup

	f.messageHandler(&chat.Message{
		ID:         strconv.Itoa(msg.ID),
		ChatID:     strconv.FormatInt(msg.Chat.ID, 10),
		SenderID:   strconv.FormatInt(msg.From.ID, 10),
		SenderName: msg.From.FirstName,
		Text:       msg.Text,
		IsGroup:    isGroup,
		Raw:        msg,
	})
}
