package intent

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/xaenox/cvformat-bot/internal/extractor"
	"github.com/xaenox/cvformat-bot/internal/models"
	"go.uber.org/zap"
)

var (
	commandMarkers = []string{"/reformat", "!reformat"}
	triggerWords   = map[string]models.Action{
		"reformat": models.ActionReformat,
		"format":   models.ActionReformat,
	}
)

// Classifier guesses an action for free text that matched no keyword rule.
type Classifier interface {
	ClassifyIntent(ctx context.Context, text string) (models.Action, float64, error)
}

type Option func(*Resolver)

// WithClassifier enables the language model fallback between keyword matching
// and the menu. Guesses below minConfidence show the menu.
func WithClassifier(c Classifier, minConfidence float64) Option {
	return func(r *Resolver) {
		r.classifier = c
		r.minConfidence = minConfidence
	}
}

type Resolver struct {
	classifier    Classifier
	minConfidence float64
	logger        *zap.Logger
}

func NewResolver(logger *zap.Logger, opts ...Option) *Resolver {
	r := &Resolver{logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps a message and the conversation's pending state to exactly one
// intent. The first matching rule wins:
//
//  1. pending state and usable input: run the pending action
//  2. menu button: await input for the selected action
//  3. bare attachment: run reformat on it
//  4. command marker or leading trigger word: run reformat on the rest
//  5. anything else: show the menu
//
// An attachment of an unsupported kind is rejected before any rule.
func (r *Resolver) Resolve(ctx context.Context, msg *models.IncomingMessage, pending *models.PendingState) Intent {
	att := msg.Attachment
	if att != nil && !att.Kind.Supported() {
		return Intent{
			Kind: Reject,
			Err:  fmt.Errorf("%w: %q", extractor.ErrUnsupportedFormat, att.Name),
			Rule: "unsupported_attachment",
		}
	}

	text := strings.TrimSpace(msg.Text)
	remainder, triggered := ParseTrigger(text)

	if pending != nil {
		input := Input{Text: text, Attachment: att}
		if triggered {
			input.Text = remainder
		}
		if input.Usable() {
			return Intent{Kind: RunAction, Action: pending.Action, Input: input, Rule: "pending"}
		}
	}

	if msg.HasButton() {
		if msg.ButtonValue == models.ButtonStartNew {
			return Intent{Kind: ShowMenu, Reset: true, Rule: "start_new"}
		}
		if action, ok := models.ActionForButton(msg.ButtonValue); ok {
			return Intent{Kind: AwaitInput, Action: action, Rule: "button"}
		}
		r.logger.Warn("Unknown button value", zap.String("value", msg.ButtonValue))
		return Intent{Kind: ShowMenu, Rule: "unknown_button"}
	}

	if att != nil {
		return Intent{
			Kind:   RunAction,
			Action: models.ActionReformat,
			Input:  Input{Text: text, Attachment: att},
			Rule:   "attachment",
		}
	}

	if triggered {
		if remainder == "" {
			return Intent{Kind: AwaitInput, Action: models.ActionReformat, Rule: "trigger_only"}
		}
		return Intent{
			Kind:   RunAction,
			Action: models.ActionReformat,
			Input:  Input{Text: remainder},
			Rule:   "trigger",
		}
	}

	if r.classifier != nil && text != "" {
		if in, ok := r.classify(ctx, text); ok {
			return in
		}
	}

	return Intent{Kind: ShowMenu, Rule: "fallback"}
}

func (r *Resolver) classify(ctx context.Context, text string) (Intent, bool) {
	action, confidence, err := r.classifier.ClassifyIntent(ctx, text)
	if err != nil {
		r.logger.Warn("Intent classification failed", zap.Error(err))
		return Intent{}, false
	}
	if action == "" || confidence < r.minConfidence {
		return Intent{}, false
	}
	return Intent{
		Kind:   RunAction,
		Action: action,
		Input:  Input{Text: text},
		Rule:   "classifier",
	}, true
}

// ParseTrigger reports whether text starts with a command marker or a trigger
// word, returning the text after it. Matching is case-insensitive and only the
// first token counts.
func ParseTrigger(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	lower := strings.ToLower(text)
	for _, marker := range commandMarkers {
		if !strings.HasPrefix(lower, marker) {
			continue
		}
		rest := text[len(marker):]
		switch {
		case rest == "":
			return "", true
		case rest[0] == '@':
			// Telegram appends the bot name to commands in groups.
			return strings.TrimSpace(afterFirstToken(rest)), true
		case unicode.IsSpace(rune(rest[0])):
			return strings.TrimSpace(rest), true
		}
	}

	first := strings.TrimRight(strings.ToLower(strings.Fields(text)[0]), ":,.!")
	if _, ok := triggerWords[first]; ok {
		return strings.TrimSpace(afterFirstToken(text)), true
	}
	return "", false
}

func afterFirstToken(s string) string {
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[i:]
	}
	return ""
}
