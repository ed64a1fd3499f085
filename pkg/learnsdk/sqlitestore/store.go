// Package sqlitestore persists learnsdk client state (the token pair and
// one-shot flags) in a local SQLite file, so a CLI session survives restarts.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/learnhub/pkg/learnsdk"
	"github.com/aussiebroadwan/learnhub/pkg/learnsdk/sqlitestore/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "modernc.org/sqlite"
)

var (
	_ learnsdk.TokenStore = (*Store)(nil)
	_ learnsdk.FlagStore  = (*Store)(nil)
)

type Store struct {
	db  *sql.DB
	dsn string
}

// Open opens dsn and applies pending migrations.
func Open(dsn string) (*Store, error) {
	s, err := NewStore(dsn)
	if err != nil {
		return nil, err
	}
	if err := s.ApplyMigrations(); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return s, nil
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One writer; also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ApplyMigrations runs the embedded migrations against the store's database.
func (s *Store) ApplyMigrations() error {
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return err
	}

	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}

	instance, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return err
	}

	err = instance.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// withTx executes fn within a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// ============================================================================
// TokenStore
// ============================================================================

// SetTokens replaces both halves of the pair in one transaction.
func (s *Store) SetTokens(ctx context.Context, pair learnsdk.TokenPair) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM tokens`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tokens (id, access_token, refresh_token, updated_at) VALUES (1, ?, ?, CURRENT_TIMESTAMP)`,
			pair.AccessToken, pair.RefreshToken,
		)
		return err
	})
}

func (s *Store) AccessToken(ctx context.Context) (string, error) {
	return s.token(ctx, `SELECT access_token FROM tokens WHERE id = 1`)
}

func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	return s.token(ctx, `SELECT refresh_token FROM tokens WHERE id = 1`)
}

func (s *Store) ClearTokens(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tokens`)
	return err
}

func (s *Store) token(ctx context.Context, query string) (string, error) {
	var tok string
	err := s.db.QueryRowContext(ctx, query).Scan(&tok)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return tok, err
}

// ============================================================================
// FlagStore
// ============================================================================

func (s *Store) SetFlag(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO flags (key) VALUES (?)`, key)
	return err
}

// ConsumeFlag deletes key and reports whether a row was removed.
func (s *Store) ConsumeFlag(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM flags WHERE key = ?`, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
