package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Janitor periodically deletes expired pending states from stores that do not
// evict on their own.
type Janitor struct {
	cron    *cron.Cron
	purger  Purger
	timeout time.Duration
	logger  *zap.Logger
}

func NewJanitor(purger Purger, schedule string, logger *zap.Logger) (*Janitor, error) {
	j := &Janitor{
		cron:    cron.New(),
		purger:  purger,
		timeout: 30 * time.Second,
		logger:  logger,
	}
	if _, err := j.cron.AddFunc(schedule, j.sweep); err != nil {
		return nil, fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	return j, nil
}

func (j *Janitor) Start() {
	j.cron.Start()
}

// Stop waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

func (j *Janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		j.logger.Warn("Failed to purge expired pending states", zap.Error(err))
		return
	}
	if n > 0 {
		j.logger.Debug("Purged expired pending states", zap.Int64("count", n))
	}
}
