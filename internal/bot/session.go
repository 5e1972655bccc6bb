package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xaenox/cvformat-bot/internal/action"
	"github.com/xaenox/cvformat-bot/internal/artifact"
	"github.com/xaenox/cvformat-bot/internal/intent"
	"github.com/xaenox/cvformat-bot/internal/models"
	"go.uber.org/zap"
)

// PendingStore is the fail-safe view of the state store: Get never errors.
type PendingStore interface {
	Get(ctx context.Context, key string) *models.PendingState
	Put(ctx context.Context, key string, action models.Action) error
	Clear(ctx context.Context, key string) error
}

type Executor interface {
	Reformat(ctx context.Context, cvText string) (*action.Result, error)
}

type ArtifactStore interface {
	Save(ctx context.Context, doc []byte, candidateName string) (*artifact.Artifact, error)
}

type TextExtractor interface {
	Extract(ctx context.Context, data []byte, kind models.FileKind) (string, error)
}

// Replier delivers a reply to the conversation msg came from.
type Replier interface {
	Reply(ctx context.Context, msg *models.IncomingMessage, reply models.Reply) error
}

// AttachmentFetcher downloads attachment bytes that were not delivered inline.
type AttachmentFetcher interface {
	Fetch(ctx context.Context, att *models.Attachment) ([]byte, error)
}

type Metrics interface {
	ObserveTurn(intent, rule, outcome string)
	ObserveAction(action, outcome string, elapsed time.Duration)
	SummaryDegraded()
}

// SessionDeps are the collaborators a Session wires together.
type SessionDeps struct {
	Resolver  *intent.Resolver
	Store     PendingStore
	Executor  Executor
	Artifacts ArtifactStore
	Extractor TextExtractor
	Fetcher   AttachmentFetcher
	Replier   Replier
	Metrics   Metrics
}

// Session handles one turn at a time for any conversation. It holds no
// per-conversation state of its own; everything lives in the store.
type Session struct {
	SessionDeps
	brand  string
	now    func() time.Time
	logger *zap.Logger
}

func NewSession(deps SessionDeps, brand string, logger *zap.Logger) *Session {
	return &Session{
		SessionDeps: deps,
		brand:       brand,
		now:         time.Now,
		logger:      logger,
	}
}

const (
	outcomeOK       = "ok"
	outcomeDegraded = "degraded"
	outcomeFailed   = "failed"
)

// Handle resolves msg, runs whatever it asks for and always answers.
func (s *Session) Handle(ctx context.Context, msg *models.IncomingMessage) {
	log := s.logger.With(
		zap.String("turn_id", uuid.NewString()),
		zap.String("conversation", msg.ConversationKey),
		zap.Int64("user_id", msg.UserID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered panic while handling message", zap.Any("panic", r))
			s.Store.Clear(ctx, msg.ConversationKey)
			s.send(ctx, log, msg, errorReply(fmt.Errorf("panic: %v", r)))
			s.Metrics.ObserveTurn("panic", "", outcomeFailed)
		}
	}()

	pending := s.Store.Get(ctx, msg.ConversationKey)
	in := s.Resolver.Resolve(ctx, msg, pending)

	log.Info("Resolved intent",
		zap.Stringer("intent", in.Kind),
		zap.String("rule", in.Rule),
		zap.Bool("pending", pending != nil),
		zap.Bool("attachment", msg.Attachment != nil))

	var (
		reply   models.Reply
		outcome = outcomeOK
	)
	switch in.Kind {
	case intent.ShowMenu:
		if in.Reset {
			s.Store.Clear(ctx, msg.ConversationKey)
		}
		reply = menuReply(s.brand)
	case intent.AwaitInput:
		// A failed write only costs the user the shortcut; an upload still
		// resolves on its own.
		s.Store.Put(ctx, msg.ConversationKey, in.Action)
		reply = awaitReply()
	case intent.Reject:
		reply = errorReply(in.Err)
		outcome = outcomeFailed
	case intent.RunAction:
		// Cleared before the run so a retried message cannot start it twice.
		s.Store.Clear(ctx, msg.ConversationKey)
		reply, outcome = s.run(ctx, log, in)
	}

	s.send(ctx, log, msg, reply)
	s.Metrics.ObserveTurn(in.Kind.String(), in.Rule, outcome)
}

func (s *Session) run(ctx context.Context, log *zap.Logger, in intent.Intent) (models.Reply, string) {
	start := s.now()
	finish := func(outcome string) {
		s.Metrics.ObserveAction(string(in.Action), outcome, s.now().Sub(start))
	}

	if in.Action != models.ActionReformat {
		log.Error("No executor for action", zap.String("action", string(in.Action)))
		finish(outcomeFailed)
		return errorReply(fmt.Errorf("unknown action %q", in.Action)), outcomeFailed
	}

	cvText, err := s.inputText(ctx, in.Input)
	if err != nil {
		log.Warn("Failed to read CV input", zap.Error(err))
		finish(outcomeFailed)
		return errorReply(err), outcomeFailed
	}

	res, err := s.Executor.Reformat(ctx, cvText)
	if err != nil {
		log.Error("Failed to reformat CV", zap.Error(err))
		finish(outcomeFailed)
		return errorReply(err), outcomeFailed
	}

	art, err := s.Artifacts.Save(ctx, res.Document, res.Candidate.Name)
	if err != nil {
		log.Error("Failed to store document", zap.Error(err))
		finish(outcomeFailed)
		return errorReply(err), outcomeFailed
	}

	outcome := outcomeOK
	if res.SummaryErr != nil {
		outcome = outcomeDegraded
		s.Metrics.SummaryDegraded()
	}
	finish(outcome)

	log.Info("CV reformatted",
		zap.String("filename", art.Filename),
		zap.Bool("summary", res.SummaryErr == nil),
		zap.Duration("elapsed", s.now().Sub(start)))
	return resultReply(res, art, s.now()), outcome
}

var errDownload = errors.New("attachment download failed")

func (s *Session) inputText(ctx context.Context, in intent.Input) (string, error) {
	att := in.Attachment
	if att == nil {
		return in.Text, nil
	}

	data := att.Content
	if len(data) == 0 {
		fetched, err := s.Fetcher.Fetch(ctx, att)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %w", errDownload, att.Name, err)
		}
		data = fetched
	}
	return s.Extractor.Extract(ctx, data, att.Kind)
}

func (s *Session) send(ctx context.Context, log *zap.Logger, msg *models.IncomingMessage, reply models.Reply) {
	if err := s.Replier.Reply(ctx, msg, reply); err != nil {
		log.Error("Failed to send reply", zap.Error(err), zap.Int64("chat_id", msg.ChatID))
	}
}
