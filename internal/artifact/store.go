// Package artifact uploads generated documents and hands out expiring links.
package artifact

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
)

const (
	// DefaultLinkTTL is how long a download link stays valid.
	DefaultLinkTTL = 7 * 24 * time.Hour

	DocxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Blob is the object storage the documents are written to.
type Blob interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) error
	SignedURL(ctx context.Context, name string, expiresAt time.Time) (string, error)
}

// StorageError is fatal to a turn: there is no other way to deliver the file.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("artifact %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Artifact is an uploaded document.
type Artifact struct {
	Filename  string
	URL       string
	ExpiresAt time.Time
}

type Config struct {
	Prefix  string
	LinkTTL time.Duration
	Timeout time.Duration
}

type Store struct {
	blob    Blob
	prefix  string
	linkTTL time.Duration
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

func NewStore(blob Blob, cfg Config, logger *zap.Logger) *Store {
	if cfg.Prefix == "" {
		cfg.Prefix = "Meraki_CV"
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = DefaultLinkTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Store{
		blob:    blob,
		prefix:  cfg.Prefix,
		linkTTL: cfg.LinkTTL,
		timeout: cfg.Timeout,
		now:     time.Now,
		logger:  logger,
	}
}

// Save uploads doc and returns a read link valid for the configured TTL.
// Names are made unique only by the timestamp.
func (s *Store) Save(ctx context.Context, doc []byte, candidateName string) (*Artifact, error) {
	createdAt := s.now().UTC()
	filename := s.Filename(candidateName, createdAt)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.blob.Upload(ctx, filename, doc, DocxContentType); err != nil {
		return nil, &StorageError{Op: "upload", Err: err}
	}

	expiresAt := createdAt.Add(s.linkTTL)
	url, err := s.blob.SignedURL(ctx, filename, expiresAt)
	if err != nil {
		return nil, &StorageError{Op: "sign", Err: err}
	}

	s.logger.Info("Document uploaded",
		zap.String("filename", filename),
		zap.Int("bytes", len(doc)),
		zap.Time("expires_at", expiresAt))

	return &Artifact{
		Filename:  filename,
		URL:       url,
		ExpiresAt: expiresAt,
	}, nil
}

// Filename builds <prefix>_<Name>_<YYYYmmdd_HHMMSS>.docx.
func (s *Store) Filename(candidateName string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s.docx", s.prefix, SanitizeName(candidateName), at.UTC().Format("20060102_150405"))
}

// SanitizeName keeps letters and digits, turning every other run of
// characters into a single underscore.
func SanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "Candidate"
	}
	return b.String()
}
