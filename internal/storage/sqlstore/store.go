// Package sqlstore implements interfaces.BatchStore on database/sql. The
// postgres and sqlite packages supply the driver specifics.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	interfaces "github.com/sheikh-saqib/double-entry-balancer/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"github.com/sheikh-saqib/double-entry-balancer/internal/storage"
)

// Dialect captures what differs between SQL engines.
type Dialect struct {
	// Numbered placeholders ($1, $2) instead of "?".
	NumberedParams bool
	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation func(err error) bool
}

type Store struct {
	db      *sql.DB
	dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *Store {
	return &Store{db: db, dialect: dialect}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// rebind rewrites "?" placeholders for dialects with numbered parameters.
func (s *Store) rebind(query string) string {
	if !s.dialect.NumberedParams {
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

func (s *Store) DocumentIDByKey(ctx context.Context, idempotencyKey string) (string, error) {
	query := s.rebind(`SELECT id FROM documents WHERE idempotency_key = ? LIMIT 1`)

	var id string
	err := s.db.QueryRowContext(ctx, query, idempotencyKey).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrDocumentNotFound
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// SaveDocument writes the document row and every line in one transaction.
func (s *Store) SaveDocument(ctx context.Context, doc models.Document) (err error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = dbTx.Rollback()
		}
	}()

	var key sql.NullString
	if doc.IdempotencyKey != "" {
		key = sql.NullString{String: doc.IdempotencyKey, Valid: true}
	}

	_, err = dbTx.ExecContext(ctx, s.rebind(`INSERT INTO documents (id, idempotency_key, document_date, currency, created_at)
	VALUES (?, ?, ?, ?, ?)`), doc.ID, key, doc.Date, doc.Currency, doc.CreatedAt)
	if err != nil {
		if s.dialect.IsUniqueViolation != nil && s.dialect.IsUniqueViolation(err) {
			return storage.ErrDuplicateDocument
		}
		return err
	}

	insertLine := s.rebind(`INSERT INTO ledger_lines
	(id, document_id, position, description, debit_account, credit_account, debit_amount, credit_amount, currency, pair_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	for i, l := range doc.Lines {
		_, err = dbTx.ExecContext(ctx, insertLine,
			l.ID, doc.ID, i, l.Description, l.DebitAccount, l.CreditAccount,
			l.DebitAmount, l.CreditAmount, l.Currency, l.PairID)
		if err != nil {
			return fmt.Errorf("insert line %d: %w", i+1, err)
		}
	}

	if err = dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (models.Document, error) {
	query := s.rebind(`SELECT id, idempotency_key, document_date, currency, created_at FROM documents WHERE id = ?`)

	var doc models.Document
	var key sql.NullString
	err := s.db.QueryRowContext(ctx, query, id).Scan(&doc.ID, &key, &doc.Date, &doc.Currency, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Document{}, storage.ErrDocumentNotFound
	}
	if err != nil {
		return models.Document{}, err
	}
	doc.IdempotencyKey = key.String

	doc.Lines, err = s.queryLines(ctx, `WHERE document_id = ? ORDER BY position`, id)
	if err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

func (s *Store) GetLinesByAccount(ctx context.Context, accountRef string) ([]models.LedgerLine, error) {
	return s.queryLines(ctx, `WHERE debit_account = ? OR credit_account = ? ORDER BY document_id, position`, accountRef, accountRef)
}

func (s *Store) GetLedgerLines(ctx context.Context) ([]models.LedgerLine, error) {
	return s.queryLines(ctx, `ORDER BY document_id, position`)
}

func (s *Store) queryLines(ctx context.Context, where string, args ...any) ([]models.LedgerLine, error) {
	query := s.rebind(`SELECT id, description, debit_account, credit_account, debit_amount, credit_amount, currency, pair_id
	FROM ledger_lines ` + where)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.LedgerLine
	for rows.Next() {
		var l models.LedgerLine
		if err := rows.Scan(
			&l.ID,
			&l.Description,
			&l.DebitAccount,
			&l.CreditAccount,
			&l.DebitAmount,
			&l.CreditAmount,
			&l.Currency,
			&l.PairID,
		); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

var _ interfaces.BatchStore = (*Store)(nil)
