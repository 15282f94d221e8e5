package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"github.com/sheikh-saqib/double-entry-balancer/internal/storage"
	"github.com/shopspring/decimal"
)

func openTestStore(t *testing.T) *SQLiteBatchStore {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func fuelDocument() models.Document {
	return models.Document{
		ID:             "doc-1",
		IdempotencyKey: "key-1",
		Date:           time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		Currency:       "PLN",
		CreatedAt:      time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
		Lines: []models.LedgerLine{
			{ID: "l1", Description: "Zakup paliwa", DebitAccount: "402", CreditAccount: "202", DebitAmount: decimal.RequireFromString("100.00"), CreditAmount: decimal.RequireFromString("70.00"), Currency: "PLN", PairID: "p1"},
			{ID: "l2", Description: "Zakup paliwa", CreditAccount: "131", DebitAmount: decimal.Zero, CreditAmount: decimal.RequireFromString("30.00"), Currency: "PLN", PairID: "p1"},
		},
	}
}

func TestSaveAndLoadDocument(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.SaveDocument(ctx, fuelDocument()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	doc, err := store.GetDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if doc.IdempotencyKey != "key-1" || doc.Currency != "PLN" {
		t.Fatalf("unexpected document %+v", doc)
	}
	if !doc.Date.Equal(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %s", doc.Date)
	}
	if len(doc.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(doc.Lines))
	}
	if !doc.Lines[1].CreditAmount.Equal(decimal.NewFromInt(30)) || doc.Lines[1].PairID != "p1" {
		t.Fatalf("unexpected corrective line %+v", doc.Lines[1])
	}

	id, err := store.DocumentIDByKey(ctx, "key-1")
	if err != nil || id != doc.ID {
		t.Fatalf("expected key to map to %s, got %q %v", doc.ID, id, err)
	}
	if _, err := store.DocumentIDByKey(ctx, "key-9"); !errors.Is(err, storage.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestSaveDocumentDuplicateKey(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_ = store.SaveDocument(ctx, fuelDocument())

	again := fuelDocument()
	again.ID = "doc-2"
	for i := range again.Lines {
		again.Lines[i].ID += "-b"
	}
	if err := store.SaveDocument(ctx, again); !errors.Is(err, storage.ErrDuplicateDocument) {
		t.Fatalf("expected ErrDuplicateDocument, got %v", err)
	}

	lines, _ := store.GetLedgerLines(ctx)
	if len(lines) != 2 {
		t.Fatalf("expected rollback to leave 2 lines, got %d", len(lines))
	}
}

func TestSaveDocumentRollsBackOnLineFailure(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	doc := fuelDocument()
	doc.Lines[1].ID = doc.Lines[0].ID
	if err := store.SaveDocument(ctx, doc); err == nil {
		t.Fatal("expected error for duplicate line id")
	}
	if _, err := store.GetDocument(ctx, "doc-1"); !errors.Is(err, storage.ErrDocumentNotFound) {
		t.Fatalf("expected document rolled back, got %v", err)
	}
}

func TestGetLinesByAccount(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	_ = store.SaveDocument(ctx, fuelDocument())

	lines, err := store.GetLinesByAccount(ctx, "131")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(lines) != 1 || lines[0].ID != "l2" {
		t.Fatalf("unexpected lines %+v", lines)
	}
}
