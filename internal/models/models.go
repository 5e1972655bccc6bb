package models

import "time"

// Action is a user intent the bot can carry out.
type Action string

const (
	ActionReformat Action = "reformat"
)

// Button payloads sent back by menu cards.
const (
	ButtonReformat = "reformat_cv"
	ButtonStartNew = "start_new"
)

// ActionForButton maps a button payload to the action it selects.
func ActionForButton(value string) (Action, bool) {
	switch value {
	case ButtonReformat:
		return ActionReformat, true
	}
	return "", false
}

// PendingState is a recorded intent waiting for the follow-up message
type PendingState struct {
	ConversationKey string    `json:"conversation_key"`
	Action          Action    `json:"action"`
	CreatedAt       time.Time `json:"created_at"`
}

// Expired reports whether the state is older than ttl at now.
func (p *PendingState) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(p.CreatedAt) >= ttl
}

// IncomingMessage represents one inbound chat event
type IncomingMessage struct {
	ConversationKey string      `json:"conversation_key"`
	ChatID          int64       `json:"chat_id"`
	MessageID       int         `json:"message_id"`
	UserID          int64       `json:"user_id"`
	Text            string      `json:"text"`
	ButtonValue     string      `json:"button_value,omitempty"`
	Attachment      *Attachment `json:"attachment,omitempty"`
	ReceivedAt      time.Time   `json:"received_at"`
}

// HasButton reports whether the message came from a menu selection.
func (m *IncomingMessage) HasButton() bool {
	return m.ButtonValue != ""
}

// Reply is what the bot sends back for a turn
type Reply struct {
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
	Card  *Card  `json:"card,omitempty"`
	Link  *Link  `json:"link,omitempty"`
}

type Card struct {
	Title   string   `json:"title,omitempty"`
	Body    string   `json:"body,omitempty"`
	Buttons []Button `json:"buttons"`
}

type Button struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

type Link struct {
	URL       string    `json:"url"`
	Label     string    `json:"label"`
	ExpiresAt time.Time `json:"expires_at"`
}
