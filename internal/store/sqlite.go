package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver

	"github.com/muzaffarq/paygent/internal/domain"
	"github.com/muzaffarq/paygent/internal/logging"
)

// SQLiteStore is a CredentialStore backed by a SQLite file, for single-host
// deployments where the front door and the agent workers run as separate
// processes without Redis. Expiry is enforced on read against a unix
// timestamp column.
type SQLiteStore struct {
	db  *sql.DB
	log *logging.Logger
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at path and runs migrations.
// Use ":memory:" for tests.
func OpenSQLite(path string, log *logging.Logger) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// WAL mode so concurrent reader processes don't block the writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, log: log.Sub("store"), now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	s.log.Info().Str("path", path).Msg("credential store opened")
	return s, nil
}

// Put upserts the credentials with an absolute expiry.
func (s *SQLiteStore) Put(ctx context.Context, sessionID string, creds domain.Credentials, ttl time.Duration) error {
	expiresAt := s.now().Add(ttl).Unix()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_credentials (session_id, token, user_id, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   token = excluded.token,
		   user_id = excluded.user_id,
		   expires_at = excluded.expires_at`,
		sessionKey(sessionID), creds.Token, creds.UserID, expiresAt,
	)
	return err
}

// Get returns the credentials if the row exists and has not expired.
// Expired rows are deleted on the way out.
func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (domain.Credentials, bool, error) {
	key := sessionKey(sessionID)

	var creds domain.Credentials
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires_at FROM session_credentials WHERE session_id = ?`, key,
	).Scan(&creds.Token, &creds.UserID, &expiresAt)
	if err == sql.ErrNoRows {
		return domain.Credentials{}, false, nil
	}
	if err != nil {
		return domain.Credentials{}, false, err
	}

	if s.now().Unix() >= expiresAt {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM session_credentials WHERE session_id = ?`, key); err != nil {
			s.log.Error().Err(err).Str("key", key).Msg("failed to purge expired credentials")
		}
		return domain.Credentials{}, false, nil
	}
	return creds, true, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.log.Info().Msg("closing credential store")
	return s.db.Close()
}

// migrate runs all pending migrations.
func (s *SQLiteStore) migrate() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		if _, err := s.db.Exec(m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := s.db.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.Version); err != nil {
			return fmt.Errorf("recording migration %d: %w", m.Version, err)
		}
		s.log.Debug().Int("version", m.Version).Str("name", m.Name).Msg("migration applied")
	}
	return nil
}
