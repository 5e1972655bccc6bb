package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/cvformat-bot/internal/models"
	"go.uber.org/zap"
)

func TestToIncoming(t *testing.T) {
	chat := &tgbotapi.Chat{ID: 42}
	from := &tgbotapi.User{ID: 7}

	tests := []struct {
		name   string
		update tgbotapi.Update
		check  func(t *testing.T, msg *models.IncomingMessage)
	}{
		{
			name:   "text",
			update: tgbotapi.Update{Message: &tgbotapi.Message{MessageID: 3, Chat: chat, From: from, Text: "reformat Jane"}},
			check: func(t *testing.T, msg *models.IncomingMessage) {
				assert.Equal(t, "tg:42", msg.ConversationKey)
				assert.Equal(t, int64(7), msg.UserID)
				assert.Equal(t, 3, msg.MessageID)
				assert.Equal(t, "reformat Jane", msg.Text)
				assert.Nil(t, msg.Attachment)
			},
		},
		{
			name: "document with caption",
			update: tgbotapi.Update{Message: &tgbotapi.Message{Chat: chat, Caption: "please", Document: &tgbotapi.Document{
				FileID: "abc", FileName: "Jane.PDF", MimeType: "application/pdf", FileSize: 1024,
			}}},
			check: func(t *testing.T, msg *models.IncomingMessage) {
				require.NotNil(t, msg.Attachment)
				assert.Equal(t, models.FileKindPDF, msg.Attachment.Kind)
				assert.Equal(t, "abc", msg.Attachment.FileID)
				assert.Equal(t, int64(1024), msg.Attachment.Size)
				assert.Equal(t, "please", msg.Text)
			},
		},
		{
			name:   "photo is unsupported",
			update: tgbotapi.Update{Message: &tgbotapi.Message{Chat: chat, Photo: []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "big"}}}},
			check: func(t *testing.T, msg *models.IncomingMessage) {
				require.NotNil(t, msg.Attachment)
				assert.Equal(t, "big", msg.Attachment.FileID)
				assert.False(t, msg.Attachment.Kind.Supported())
			},
		},
		{
			name: "start command resets",
			update: tgbotapi.Update{Message: &tgbotapi.Message{Chat: chat, Text: "/start",
				Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}}}},
			check: func(t *testing.T, msg *models.IncomingMessage) {
				assert.Equal(t, models.ButtonStartNew, msg.ButtonValue)
				assert.Empty(t, msg.Text)
			},
		},
		{
			name: "reformat command kept as text",
			update: tgbotapi.Update{Message: &tgbotapi.Message{Chat: chat, Text: "/reformat Jane Doe",
				Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 9}}}},
			check: func(t *testing.T, msg *models.IncomingMessage) {
				assert.Empty(t, msg.ButtonValue)
				assert.Equal(t, "/reformat Jane Doe", msg.Text)
			},
		},
		{
			name: "callback query",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID: "q", From: from, Data: models.ButtonReformat, Message: &tgbotapi.Message{MessageID: 9, Chat: chat},
			}},
			check: func(t *testing.T, msg *models.IncomingMessage) {
				assert.Equal(t, "tg:42", msg.ConversationKey)
				assert.Equal(t, models.ButtonReformat, msg.ButtonValue)
				assert.True(t, msg.HasButton())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := toIncoming(tt.update)
			require.NotNil(t, msg)
			tt.check(t, msg)
		})
	}
}

func TestToIncoming_Ignored(t *testing.T) {
	assert.Nil(t, toIncoming(tgbotapi.Update{}))
	assert.Nil(t, toIncoming(tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}}))
	assert.Nil(t, toIncoming(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{Data: "x"}}))
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `Jane\_Doe\.docx \(v2\)\!`, escapeMarkdown("Jane_Doe.docx (v2)!"))
	assert.Equal(t, `a\\b`, escapeMarkdown(`a\b`))
}

func TestFormatReply(t *testing.T) {
	text := formatReply(models.Reply{
		Title: "Done",
		Text:  "Link expires in 7 days.",
		Card:  &models.Card{Title: "CV Reformat", Body: "Upload a CV"},
	})
	assert.Equal(t, "*Done*\n\nLink expires in 7 days\\.\n\n*CV Reformat*\n\nUpload a CV", text)
}

func TestKeyboard(t *testing.T) {
	assert.Nil(t, keyboard(models.Reply{Text: "hi"}))

	kb := keyboard(models.Reply{
		Link: &models.Link{URL: "https://blob.example/cv.docx", Label: "Download"},
		Card: &models.Card{Buttons: []models.Button{{Title: "Start New", Value: models.ButtonStartNew}}},
	})
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 2)
	require.NotNil(t, kb.InlineKeyboard[0][0].URL)
	assert.Equal(t, "https://blob.example/cv.docx", *kb.InlineKeyboard[0][0].URL)
	require.NotNil(t, kb.InlineKeyboard[1][0].CallbackData)
	assert.Equal(t, models.ButtonStartNew, *kb.InlineKeyboard[1][0].CallbackData)
}

func newFetchBot(url string, maxSize int64) *Bot {
	return &Bot{
		maxFileSize: maxSize,
		http:        &http.Client{Timeout: time.Second},
		fileURL:     func(string) (string, error) { return url, nil },
		logger:      zap.NewNop(),
	}
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("%PDF-1.4 body"))
	}))
	defer srv.Close()

	data, err := newFetchBot(srv.URL, 1024).Fetch(context.Background(), &models.Attachment{FileID: "f"})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))
}

func TestFetch_Limits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write(make([]byte, 64))
	}))
	defer srv.Close()

	_, err := newFetchBot(srv.URL, 16).Fetch(context.Background(), &models.Attachment{FileID: "f"})
	assert.ErrorIs(t, err, errFileTooLarge)

	_, err = newFetchBot(srv.URL, 16).Fetch(context.Background(), &models.Attachment{FileID: "f", Size: 1 << 20})
	assert.ErrorIs(t, err, errFileTooLarge)

	_, err = newFetchBot(srv.URL+"/missing", 1024).Fetch(context.Background(), &models.Attachment{FileID: "f"})
	assert.Error(t, err)
}
