package storage

import (
	"context"
	"errors"
	"time"

	"github.com/xaenox/cvformat-bot/internal/models"
)

// PendingTTL is how long a pending action waits for its follow-up message.
const PendingTTL = 5 * time.Minute

// ErrUnavailable wraps failures of the backing store.
var ErrUnavailable = errors.New("state store unavailable")

// PendingStore keeps at most one PendingState per conversation, last write wins.
// Get returns nil, nil when nothing is pending or the record has expired.
type PendingStore interface {
	Put(ctx context.Context, key string, action models.Action) error
	Get(ctx context.Context, key string) (*models.PendingState, error)
	Clear(ctx context.Context, key string) error
	Close() error
}

// Purger is implemented by stores that need an explicit sweep of expired records.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}
