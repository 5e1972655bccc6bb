package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xaenox/cvformat-bot/internal/extractor"
	"github.com/xaenox/cvformat-bot/internal/models"
	"go.uber.org/zap"
)

// Handler processes one normalized message.
type Handler interface {
	Handle(ctx context.Context, msg *models.IncomingMessage)
}

type Config struct {
	Token           string
	Workers         int
	PollTimeout     int
	DownloadTimeout time.Duration
	MaxFileSize     int64
}

// Bot is the Telegram side of the relay: it polls for updates, turns them
// into IncomingMessages and renders Replies back.
type Bot struct {
	api         *tgbotapi.BotAPI
	workers     int
	pollTimeout int
	maxFileSize int64
	http        *http.Client
	fileURL     func(fileID string) (string, error)
	logger      *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 60
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 60 * time.Second
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 20 << 20
	}

	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))

	return &Bot{
		api:         api,
		workers:     cfg.Workers,
		pollTimeout: cfg.PollTimeout,
		maxFileSize: cfg.MaxFileSize,
		http:        &http.Client{Timeout: cfg.DownloadTimeout},
		fileURL:     api.GetFileDirectURL,
		logger:      logger,
	}, nil
}

// Start polls until ctx is cancelled, then waits for in-flight turns.
func (b *Bot) Start(ctx context.Context, handler Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout

	updates := b.api.GetUpdatesChan(u)

	// Turns already started run to completion after shutdown begins.
	turnCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for update := range updates {
				b.handleUpdate(turnCtx, handler, update)
			}
		}()
	}

	<-ctx.Done()
	b.logger.Info("Stopping Telegram polling")
	b.api.StopReceivingUpdates()
	wg.Wait()
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, handler Handler, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered panic in update worker",
				zap.Any("panic", r),
				zap.Int("update_id", update.UpdateID))
		}
	}()

	if q := update.CallbackQuery; q != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
			b.logger.Warn("Failed to answer callback query", zap.Error(err))
		}
	}

	msg := toIncoming(update)
	if msg == nil {
		return
	}
	handler.Handle(ctx, msg)
}

// toIncoming normalizes an update. Updates the bot does not act on give nil.
func toIncoming(update tgbotapi.Update) *models.IncomingMessage {
	if q := update.CallbackQuery; q != nil {
		if q.Message == nil || q.Message.Chat == nil {
			return nil
		}
		msg := &models.IncomingMessage{
			ConversationKey: conversationKey(q.Message.Chat.ID),
			ChatID:          q.Message.Chat.ID,
			MessageID:       q.Message.MessageID,
			ButtonValue:     q.Data,
			ReceivedAt:      time.Now(),
		}
		if q.From != nil {
			msg.UserID = q.From.ID
		}
		return msg
	}

	m := update.Message
	if m == nil || m.Chat == nil {
		return nil
	}

	msg := &models.IncomingMessage{
		ConversationKey: conversationKey(m.Chat.ID),
		ChatID:          m.Chat.ID,
		MessageID:       m.MessageID,
		Text:            m.Text,
		ReceivedAt:      m.Time(),
	}
	if m.From != nil {
		msg.UserID = m.From.ID
	}
	if m.Caption != "" {
		msg.Text = m.Caption
	}

	switch {
	case m.Document != nil:
		msg.Attachment = &models.Attachment{
			FileID:   m.Document.FileID,
			Name:     m.Document.FileName,
			MimeType: m.Document.MimeType,
			Kind:     extractor.KindOf(m.Document.FileName, m.Document.MimeType),
			Size:     int64(m.Document.FileSize),
		}
	case len(m.Photo) > 0:
		// Photos are never a readable CV, they are rejected as unsupported.
		photo := m.Photo[len(m.Photo)-1]
		msg.Attachment = &models.Attachment{
			FileID:   photo.FileID,
			Name:     "photo.jpg",
			MimeType: "image/jpeg",
			Kind:     models.FileKindUnknown,
			Size:     int64(photo.FileSize),
		}
	}

	if m.IsCommand() {
		switch m.Command() {
		case "start", "help", "menu":
			msg.ButtonValue = models.ButtonStartNew
			msg.Text = ""
		}
	}

	if msg.Text == "" && msg.Attachment == nil && msg.ButtonValue == "" {
		return nil
	}
	return msg
}

func conversationKey(chatID int64) string {
	return "tg:" + strconv.FormatInt(chatID, 10)
}

var errFileTooLarge = errors.New("file too large")

// Fetch downloads an attachment through the Bot API file endpoint.
func (b *Bot) Fetch(ctx context.Context, att *models.Attachment) ([]byte, error) {
	if att.Size > b.maxFileSize {
		return nil, fmt.Errorf("%w: %d bytes", errFileTooLarge, att.Size)
	}

	url, err := b.fileURL(att.FileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, b.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > b.maxFileSize {
		return nil, errFileTooLarge
	}
	return data, nil
}

// Reply sends reply as a MarkdownV2 message threaded under the user's message.
func (b *Bot) Reply(ctx context.Context, msg *models.IncomingMessage, reply models.Reply) error {
	out := tgbotapi.NewMessage(msg.ChatID, formatReply(reply))
	out.ParseMode = "MarkdownV2"
	if !msg.HasButton() {
		out.ReplyToMessageID = msg.MessageID
	}
	if kb := keyboard(reply); kb != nil {
		out.ReplyMarkup = *kb
	}

	if _, err := b.api.Send(out); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func formatReply(reply models.Reply) string {
	var parts []string
	if reply.Title != "" {
		parts = append(parts, "*"+escapeMarkdown(reply.Title)+"*")
	}
	if reply.Text != "" {
		parts = append(parts, escapeMarkdown(reply.Text))
	}
	if c := reply.Card; c != nil {
		if c.Title != "" {
			parts = append(parts, "*"+escapeMarkdown(c.Title)+"*")
		}
		if c.Body != "" {
			parts = append(parts, escapeMarkdown(c.Body))
		}
	}
	return strings.Join(parts, "\n\n")
}

// keyboard lays out the download link first, then one row per button.
func keyboard(reply models.Reply) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if l := reply.Link; l != nil && l.URL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(l.Label, l.URL)))
	}
	if reply.Card != nil {
		for _, btn := range reply.Card.Buttons {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(btn.Title, btn.Value)))
		}
	}
	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// escapeMarkdown escapes the characters MarkdownV2 reserves.
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}
