package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"
	"github.com/sheikh-saqib/double-entry-balancer/internal/storage/sqlstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id              TEXT PRIMARY KEY,
    idempotency_key TEXT UNIQUE,
    document_date   DATE NOT NULL,
    currency        TEXT NOT NULL,
    created_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_lines (
    id             TEXT PRIMARY KEY,
    document_id    TEXT NOT NULL REFERENCES documents(id),
    position       INTEGER NOT NULL,
    description    TEXT NOT NULL,
    debit_account  TEXT NOT NULL DEFAULT '',
    credit_account TEXT NOT NULL DEFAULT '',
    debit_amount   TEXT NOT NULL, -- decimal string, keeps full precision
    credit_amount  TEXT NOT NULL,
    currency       TEXT NOT NULL,
    pair_id        TEXT NOT NULL DEFAULT '',
    UNIQUE (document_id, position)
);

CREATE INDEX IF NOT EXISTS idx_ledger_lines_debit_account ON ledger_lines (debit_account);
CREATE INDEX IF NOT EXISTS idx_ledger_lines_credit_account ON ledger_lines (credit_account);
`

type SQLiteBatchStore struct {
	*sqlstore.Store
	path string
}

// Open opens or creates the database file at path. Foreign keys and WAL
// journaling are enabled.
func Open(ctx context.Context, path string) (*SQLiteBatchStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteBatchStore{
		Store: sqlstore.New(db, sqlstore.Dialect{IsUniqueViolation: isUniqueViolation}),
		path:  path,
	}, nil
}

func (s *SQLiteBatchStore) Path() string {
	return s.path
}

func (s *SQLiteBatchStore) Close() error {
	return s.DB().Close()
}

func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
