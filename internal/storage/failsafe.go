package storage

import (
	"context"
	"time"

	"github.com/xaenox/cvformat-bot/internal/models"
	"go.uber.org/zap"
)

// DegradeObserver is told when a store failure was swallowed.
type DegradeObserver interface {
	StateStoreDegraded(op string)
}

// FailSafe bounds every store call with a timeout. Get never fails: an
// unreachable store reads as "nothing pending" so the turn can continue.
type FailSafe struct {
	store    PendingStore
	timeout  time.Duration
	logger   *zap.Logger
	observer DegradeObserver
}

func NewFailSafe(store PendingStore, timeout time.Duration, logger *zap.Logger, observer DegradeObserver) *FailSafe {
	return &FailSafe{
		store:    store,
		timeout:  timeout,
		logger:   logger,
		observer: observer,
	}
}

func (f *FailSafe) Get(ctx context.Context, key string) *models.PendingState {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	state, err := f.store.Get(ctx, key)
	if err != nil {
		f.degraded("get", key, err)
		return nil
	}
	return state
}

func (f *FailSafe) Put(ctx context.Context, key string, action models.Action) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.store.Put(ctx, key, action); err != nil {
		f.degraded("put", key, err)
		return err
	}
	return nil
}

func (f *FailSafe) Clear(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.store.Clear(ctx, key); err != nil {
		f.degraded("clear", key, err)
		return err
	}
	return nil
}

func (f *FailSafe) degraded(op, key string, err error) {
	f.logger.Warn("State store call failed, continuing without it",
		zap.Error(err),
		zap.String("op", op),
		zap.String("conversation", key))
	if f.observer != nil {
		f.observer.StateStoreDegraded(op)
	}
}
