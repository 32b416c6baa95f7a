package postgres

import (
	"context"
	"fmt"
	"sync"

	"github.com/hongminglow/carecrate/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// visitsChannel is the NOTIFY channel visit writes publish on.
const visitsChannel = "visits_changed"

// Store provides Postgres-backed persistence for the pantry collections.
// Visit subscribers share one LISTEN connection that lives outside the pool.
type Store struct {
	pool         *pgxpool.Pool
	listenConfig *pgx.ConnConfig
	notifier     *storage.Notifier

	listenMu   sync.Mutex
	closed     bool
	stopListen context.CancelFunc
	listenDone chan struct{}
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	return newStoreWithConfig(ctx, cfg)
}

func newStoreWithConfig(ctx context.Context, cfg *pgxpool.Config) (*Store, error) {
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{
		pool:         pool,
		listenConfig: cfg.ConnConfig.Copy(),
		notifier:     storage.NewNotifier(),
	}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close stops the visit listener, ends every subscription and releases
// database resources.
func (s *Store) Close() {
	s.listenMu.Lock()
	s.closed = true
	stop, done := s.stopListen, s.listenDone
	s.listenMu.Unlock()

	if stop != nil {
		stop()
		<-done
	}
	s.notifier.Close()
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS family_accounts (
			phone_number TEXT PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			household JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS family_members (
			phone_number TEXT NOT NULL,
			member_id TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			household JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (phone_number, member_id)
		);`,
		`CREATE TABLE IF NOT EXISTS visits (
			id BIGINT PRIMARY KEY,
			phone_number TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS family_visits (
			seq BIGSERIAL PRIMARY KEY,
			phone_number TEXT NOT NULL,
			member_id TEXT NOT NULL,
			visit_id TEXT NOT NULL,
			UNIQUE (phone_number, member_id, visit_id),
			FOREIGN KEY (phone_number, member_id) REFERENCES family_members (phone_number, member_id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS waste (
			time_of_waste BIGINT PRIMARY KEY,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS staff_users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			display_name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'volunteer',
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`ALTER TABLE staff_users ADD COLUMN IF NOT EXISTS display_name TEXT NOT NULL DEFAULT '';`,
		`CREATE INDEX IF NOT EXISTS family_members_phone_idx ON family_members (phone_number);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}
