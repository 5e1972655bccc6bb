package artifact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryBlob struct {
	objects   map[string][]byte
	uploadErr error
	signErr   error
	signedFor time.Time
}

func (m *memoryBlob) Upload(ctx context.Context, name string, data []byte, contentType string) error {
	if m.uploadErr != nil {
		return m.uploadErr
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[name] = data
	return nil
}

func (m *memoryBlob) SignedURL(ctx context.Context, name string, expiresAt time.Time) (string, error) {
	if m.signErr != nil {
		return "", m.signErr
	}
	m.signedFor = expiresAt
	return "https://blob.example/cv-outputs/" + name + "?sig=abc", nil
}

func newTestStore(blob Blob) *Store {
	s := NewStore(blob, Config{Prefix: "Meraki_CV"}, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 3, 1, 14, 5, 9, 0, time.UTC) }
	return s
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"Alex Morgan":          "Alex_Morgan",
		"  Zoë   O'Brien-Smith ": "Zoë_O_Brien_Smith",
		"../../etc/passwd":     "etc_passwd",
		"":                     "Candidate",
		"???":                  "Candidate",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeName(in), "input %q", in)
	}
}

func TestStore_Save(t *testing.T) {
	blob := &memoryBlob{}
	s := newTestStore(blob)

	art, err := s.Save(context.Background(), []byte("docx"), "Alex Morgan")
	require.NoError(t, err)

	assert.Equal(t, "Meraki_CV_Alex_Morgan_20260301_140509.docx", art.Filename)
	assert.Equal(t, []byte("docx"), blob.objects[art.Filename])
	assert.Contains(t, art.URL, art.Filename)

	wantExpiry := time.Date(2026, 3, 8, 14, 5, 9, 0, time.UTC)
	assert.Equal(t, wantExpiry, art.ExpiresAt)
	assert.Equal(t, wantExpiry, blob.signedFor)
}

func TestStore_SaveFailures(t *testing.T) {
	boom := errors.New("connection refused")

	for name, blob := range map[string]*memoryBlob{
		"upload": {uploadErr: boom},
		"sign":   {signErr: boom},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := newTestStore(blob).Save(context.Background(), []byte("docx"), "Alex")
			var storageErr *StorageError
			require.True(t, errors.As(err, &storageErr))
			assert.Equal(t, name, storageErr.Op)
			assert.ErrorIs(t, err, boom)
		})
	}
}
