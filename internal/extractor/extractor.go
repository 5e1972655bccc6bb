// Package extractor turns uploaded CV files into plain text.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xaenox/cvformat-bot/internal/models"
	"go.uber.org/zap"
)

// ErrUnsupportedFormat is returned for files whose kind cannot be read.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrNoText means the file parsed but contained no readable text.
var ErrNoText = errors.New("no readable text found")

// ExtractionError reports a corrupt or unreadable file.
type ExtractionError struct {
	Kind models.FileKind
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

type Config struct {
	Timeout      time.Duration
	AntiwordPath string
}

type Extractor struct {
	timeout      time.Duration
	antiwordPath string
	logger       *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.AntiwordPath == "" {
		cfg.AntiwordPath = "antiword"
	}
	return &Extractor{
		timeout:      cfg.Timeout,
		antiwordPath: cfg.AntiwordPath,
		logger:       logger,
	}
}

// KindOf guesses the file kind from its name, falling back to the MIME type.
func KindOf(name, mimeType string) models.FileKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return models.FileKindPDF
	case ".docx":
		return models.FileKindDocx
	case ".doc":
		return models.FileKindDoc
	case ".html", ".htm":
		return models.FileKindHTML
	}

	mimeType = strings.ToLower(mimeType)
	switch {
	case strings.Contains(mimeType, "pdf"):
		return models.FileKindPDF
	case strings.Contains(mimeType, "wordprocessingml"):
		return models.FileKindDocx
	case mimeType == "application/msword":
		return models.FileKindDoc
	case strings.HasPrefix(mimeType, "text/html"):
		return models.FileKindHTML
	}
	return models.FileKindUnknown
}

// Extract returns the plain text of data. The call is bounded by the
// configured timeout.
func (e *Extractor) Extract(ctx context.Context, data []byte, kind models.FileKind) (string, error) {
	if !kind.Supported() {
		return "", ErrUnsupportedFormat
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			// Parsers of untrusted files can panic on malformed input.
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("parser panic: %v", r)}
			}
		}()
		text, err := e.extract(ctx, data, kind)
		done <- result{text: text, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		res = result{err: ctx.Err()}
	}

	if res.err != nil {
		e.logger.Warn("Failed to extract text",
			zap.Error(res.err),
			zap.String("kind", string(kind)),
			zap.Int("bytes", len(data)))
		return "", &ExtractionError{Kind: kind, Err: res.err}
	}

	text := strings.TrimSpace(res.text)
	if text == "" {
		return "", &ExtractionError{Kind: kind, Err: ErrNoText}
	}
	return text, nil
}

func (e *Extractor) extract(ctx context.Context, data []byte, kind models.FileKind) (string, error) {
	switch kind {
	case models.FileKindPDF:
		return extractPDF(data)
	case models.FileKindDocx:
		return ExtractDocx(data)
	case models.FileKindDoc:
		return e.extractDoc(ctx, data)
	case models.FileKindHTML:
		return extractHTML(data)
	}
	return "", ErrUnsupportedFormat
}
