package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/sheikh-saqib/double-entry-balancer/internal/storage/sqlstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    id              TEXT PRIMARY KEY,
    idempotency_key TEXT UNIQUE,
    document_date   DATE NOT NULL,
    currency        CHAR(3) NOT NULL,
    created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_lines (
    id             TEXT PRIMARY KEY,
    document_id    TEXT NOT NULL REFERENCES documents(id),
    position       INTEGER NOT NULL,
    description    TEXT NOT NULL,
    debit_account  TEXT NOT NULL DEFAULT '',
    credit_account TEXT NOT NULL DEFAULT '',
    debit_amount   NUMERIC(20, 4) NOT NULL,
    credit_amount  NUMERIC(20, 4) NOT NULL,
    currency       CHAR(3) NOT NULL,
    pair_id        TEXT NOT NULL DEFAULT '',
    UNIQUE (document_id, position)
);

CREATE INDEX IF NOT EXISTS idx_ledger_lines_debit_account ON ledger_lines (debit_account);
CREATE INDEX IF NOT EXISTS idx_ledger_lines_credit_account ON ledger_lines (credit_account);
`

type PostgresBatchStore struct {
	*sqlstore.Store
}

// Open connects to PostgreSQL and makes sure the schema exists.
func Open(ctx context.Context, dsn string) (*PostgresBatchStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := NewPostgresBatchStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func NewPostgresBatchStore(db *sql.DB) *PostgresBatchStore {
	return &PostgresBatchStore{
		Store: sqlstore.New(db, sqlstore.Dialect{
			NumberedParams:    true,
			IsUniqueViolation: isUniqueViolation,
		}),
	}
}

func (p *PostgresBatchStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.DB().ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure postgres schema: %w", err)
	}
	return nil
}

func (p *PostgresBatchStore) Close() error {
	return p.DB().Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
