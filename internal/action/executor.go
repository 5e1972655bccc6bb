// Package action runs the CV reformat pipeline: structure, render, summarize.
package action

import (
	"context"
	"fmt"
	"time"

	"github.com/xaenox/cvformat-bot/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Structurer is the language model side of the pipeline.
type Structurer interface {
	Structure(ctx context.Context, cvText string) (*models.CandidateRecord, error)
	Summarize(ctx context.Context, rec *models.CandidateRecord) (string, error)
}

type Renderer interface {
	Render(rec *models.CandidateRecord) ([]byte, error)
}

// Result of a reformat run. SummaryErr is set when the document is fine but
// the summary could not be produced.
type Result struct {
	Candidate  *models.CandidateRecord
	Document   []byte
	Summary    string
	SummaryErr error
	Elapsed    time.Duration
}

type Executor struct {
	ai       Structurer
	renderer Renderer
	logger   *zap.Logger
}

func NewExecutor(ai Structurer, renderer Renderer, logger *zap.Logger) *Executor {
	return &Executor{
		ai:       ai,
		renderer: renderer,
		logger:   logger,
	}
}

// Reformat structures cvText, then renders the document and asks for the
// summary at the same time. A structuring or rendering failure fails the
// whole run; a summary failure does not.
func (e *Executor) Reformat(ctx context.Context, cvText string) (*Result, error) {
	start := time.Now()

	rec, err := e.ai.Structure(ctx, cvText)
	if err != nil {
		return nil, fmt.Errorf("structure cv: %w", err)
	}

	res := &Result{Candidate: rec}

	// The summary goroutine never returns an error so a summary failure
	// cannot cancel rendering.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := e.renderer.Render(rec)
		if err != nil {
			return fmt.Errorf("render document: %w", err)
		}
		res.Document = doc
		return nil
	})
	g.Go(func() error {
		summary, err := e.ai.Summarize(gctx, rec)
		if err != nil {
			e.logger.Warn("Candidate summary unavailable",
				zap.Error(err),
				zap.String("candidate", rec.Name))
			res.SummaryErr = err
			return nil
		}
		res.Summary = summary
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	return res, nil
}
