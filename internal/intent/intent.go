// Package intent decides what a single inbound message asks the bot to do.
package intent

import "github.com/xaenox/cvformat-bot/internal/models"

type Kind int

const (
	ShowMenu Kind = iota
	AwaitInput
	RunAction
	Reject
)

func (k Kind) String() string {
	switch k {
	case ShowMenu:
		return "show_menu"
	case AwaitInput:
		return "await_input"
	case RunAction:
		return "run_action"
	case Reject:
		return "reject"
	}
	return "unknown"
}

// Input is what an action runs on. When both are set the attachment wins.
type Input struct {
	Text       string
	Attachment *models.Attachment
}

func (in Input) Usable() bool {
	return in.Text != "" || in.Attachment != nil
}

// Intent is the outcome of resolving one message. It is never persisted.
type Intent struct {
	Kind   Kind
	Action models.Action
	Input  Input
	// Reset asks the caller to drop any pending state before showing the menu.
	Reset bool
	// Err explains a Reject.
	Err error
	// Rule names the resolution rule that matched.
	Rule string
}
