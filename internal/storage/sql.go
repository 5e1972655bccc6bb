package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xaenox/cvformat-bot/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type dialect int

const (
	dialectPostgres dialect = iota
	dialectSQLite
)

// SQLStorage is the durable PendingStore shared by the Postgres and SQLite backends.
type SQLStorage struct {
	db      *sql.DB
	dialect dialect
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

func newSQLStorage(db *sql.DB, d dialect, logger *zap.Logger) (*SQLStorage, error) {
	s := &SQLStorage{
		db:      db,
		dialect: d,
		ttl:     PendingTTL,
		now:     time.Now,
		logger:  logger,
	}

	if err := s.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return s, nil
}

func (s *SQLStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

// rebind turns ? placeholders into $n for Postgres.
func (s *SQLStorage) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStorage) Put(ctx context.Context, key string, action models.Action) error {
	query := s.rebind(`
		INSERT INTO pending_states (conversation_key, action, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (conversation_key) DO UPDATE
		SET action = excluded.action, created_at = excluded.created_at`)

	if _, err := s.db.ExecContext(ctx, query, key, string(action), s.now().UnixMilli()); err != nil {
		return fmt.Errorf("%w: error saving pending state: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLStorage) Get(ctx context.Context, key string) (*models.PendingState, error) {
	query := s.rebind(`
		SELECT action, created_at
		FROM pending_states
		WHERE conversation_key = ?`)

	var (
		action    string
		createdAt int64
	)
	err := s.db.QueryRowContext(ctx, query, key).Scan(&action, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: error loading pending state: %w", ErrUnavailable, err)
	}

	state := &models.PendingState{
		ConversationKey: key,
		Action:          models.Action(action),
		CreatedAt:       time.UnixMilli(createdAt),
	}
	if state.Expired(s.now(), s.ttl) {
		if err := s.Clear(ctx, key); err != nil {
			s.logger.Warn("Failed to delete expired pending state",
				zap.Error(err),
				zap.String("conversation", key))
		}
		return nil, nil
	}
	return state, nil
}

func (s *SQLStorage) Clear(ctx context.Context, key string) error {
	query := s.rebind(`DELETE FROM pending_states WHERE conversation_key = ?`)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("%w: error clearing pending state: %w", ErrUnavailable, err)
	}
	return nil
}

// PurgeExpired deletes every record older than the TTL and returns how many went.
func (s *SQLStorage) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl).UnixMilli()
	query := s.rebind(`DELETE FROM pending_states WHERE created_at <= ?`)

	result, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("%w: error purging pending states: %w", ErrUnavailable, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error getting rows affected: %w", err)
	}
	return rowsAffected, nil
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}
