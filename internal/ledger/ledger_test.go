package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sheikh-saqib/double-entry-balancer/internal/accounts"
	"github.com/sheikh-saqib/double-entry-balancer/internal/balancer"
	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"github.com/sheikh-saqib/double-entry-balancer/internal/models/events"
	"github.com/sheikh-saqib/double-entry-balancer/internal/storage"
	"github.com/sheikh-saqib/double-entry-balancer/internal/storage/memory"
	"github.com/shopspring/decimal"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return p.err
}

type failingStore struct {
	*memory.MemoryBatchStore
	err error
}

func (f *failingStore) SaveDocument(ctx context.Context, doc models.Document) error {
	return f.err
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testDirectory(t *testing.T) *accounts.Directory {
	t.Helper()
	d, err := accounts.NewDirectory([]models.Account{
		{Number: "131", Name: "Kasa"},
		{Number: "202-07", Name: "Rozrachunki z dostawcami"},
		{Number: "402-01", Name: "Zużycie paliwa"},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	return d
}

func newTestLedger(t *testing.T, store *memory.MemoryBatchStore, pub *recordingPublisher) *Ledger {
	t.Helper()
	clock := func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return NewLedger(store, pub, balancer.New(balancer.Options{}),
		WithDirectory(testDirectory(t)),
		WithTopic("batches"),
		WithClock(clock),
	)
}

// splitSession enters a 100/70 fuel purchase and blurs it into a pair.
func splitSession(t *testing.T, l *Ledger) string {
	t.Helper()
	ctx := context.Background()

	snap, err := l.OpenSession(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "pln")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	id := snap.DocumentID

	steps := []func() error{
		func() error { _, err := l.SetDescription(id, "Zakup paliwa"); return err },
		func() error { _, err := l.ChangeAmount(id, models.Debit, dec("100")); return err },
		func() error { _, err := l.Focus(id, models.Credit); return err },
		func() error { _, err := l.ChangeAmount(id, models.Credit, dec("70")); return err },
		func() error { _, err := l.SetAccount(ctx, id, models.Debit, "402-01"); return err },
		func() error { _, err := l.SetAccount(ctx, id, models.Credit, "202-07"); return err },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: expected nil error, got %v", i, err)
		}
	}

	res, err := l.Blur(id, models.Credit)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res.Outcome != balancer.OutcomeSplit {
		t.Fatalf("expected split, got %s", res.Outcome)
	}
	return id
}

// assignCorrective gives the corrective line of a split its credit account.
func assignCorrective(t *testing.T, l *Ledger, id string) {
	t.Helper()
	_, err := l.EditLine(context.Background(), id, 1, models.LedgerLine{
		Description:   "Zakup paliwa",
		CreditAccount: "131",
		DebitAmount:   decimal.Zero,
		CreditAmount:  dec("30"),
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestOpenSessionDefaultsAndValidatesCurrency(t *testing.T) {
	l := newTestLedger(t, memory.NewMemoryBatchStore(), &recordingPublisher{})

	snap, err := l.OpenSession(time.Time{}, "")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if snap.Currency != "PLN" {
		t.Fatalf("expected PLN, got %s", snap.Currency)
	}
	if snap.Date != "2024-03-15" {
		t.Fatalf("expected clock date, got %s", snap.Date)
	}

	if _, err := l.OpenSession(time.Time{}, "zloty"); err == nil {
		t.Fatalf("expected error for unknown currency")
	}
}

func TestCommitRejectsCorrectiveLineWithoutAccount(t *testing.T) {
	store := memory.NewMemoryBatchStore()
	pub := &recordingPublisher{}
	l := newTestLedger(t, store, pub)
	id := splitSession(t, l)

	_, err := l.Commit(context.Background(), id, "key-1")
	if !errors.Is(err, balancer.ErrMissingAccount) {
		t.Fatalf("expected ErrMissingAccount, got %v", err)
	}
	var verr *balancer.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}

	snap, err := l.Snapshot(id)
	if err != nil {
		t.Fatalf("session should survive a rejected commit, got %v", err)
	}
	if len(snap.Lines) != 2 {
		t.Fatalf("expected 2 lines kept, got %d", len(snap.Lines))
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events, got %d", len(pub.events))
	}
}

func TestCommitPersistsPublishesAndClearsSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryBatchStore()
	pub := &recordingPublisher{}
	l := newTestLedger(t, store, pub)

	id := splitSession(t, l)
	assignCorrective(t, l, id)

	verdict, err := l.Check(id)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !verdict.Eligible {
		t.Fatalf("expected eligible batch, got %+v", verdict.Problems)
	}

	res, err := l.Commit(ctx, id, "key-1")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res.Replayed {
		t.Fatalf("first commit must not be a replay")
	}
	if len(res.Document.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(res.Document.Lines))
	}
	for _, line := range res.Document.Lines {
		if line.ID == "" {
			t.Fatalf("committed line without id: %+v", line)
		}
	}

	if _, err := l.Snapshot(id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after commit, got %v", err)
	}

	if len(pub.events) != 1 || pub.topics[0] != "batches" {
		t.Fatalf("expected one event on batches, got %v", pub.topics)
	}
	event, ok := pub.events[0].(events.BatchCommitted)
	if !ok {
		t.Fatalf("expected BatchCommitted, got %T", pub.events[0])
	}
	if event.DocumentID != id || !event.DebitTotal.Equal(dec("100")) || !event.CreditTotal.Equal(dec("100")) {
		t.Fatalf("unexpected event %+v", event)
	}

	doc, err := l.GetDocument(ctx, id)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if doc.IdempotencyKey != "key-1" || doc.Currency != "PLN" {
		t.Fatalf("unexpected document %+v", doc)
	}

	balances := map[string]string{"402-01": "100", "202-07": "-70", "131": "-30"}
	for ref, want := range balances {
		got, err := l.GetBalance(ctx, ref)
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		if !got.Equal(dec(want)) {
			t.Fatalf("%s: expected balance %s, got %s", ref, want, got)
		}
	}
}

func TestCommitReplaysIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryBatchStore()
	l := newTestLedger(t, store, &recordingPublisher{})

	id := splitSession(t, l)
	assignCorrective(t, l, id)
	if _, err := l.Commit(ctx, id, "key-1"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	res, err := l.Commit(ctx, id, "key-1")
	if err != nil {
		t.Fatalf("expected nil error on replay, got %v", err)
	}
	if !res.Replayed {
		t.Fatalf("expected replayed commit")
	}
	if res.Document.ID != id || len(res.Document.Lines) != 2 {
		t.Fatalf("expected the stored document on replay, got %+v", res.Document)
	}

	lines, err := l.GetLedgerLines(ctx)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("replay must not store lines again, got %d", len(lines))
	}
}

func TestCommitRejectsKeyOfAnotherDocument(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMemoryBatchStore()
	l := newTestLedger(t, store, &recordingPublisher{})

	first := splitSession(t, l)
	assignCorrective(t, l, first)
	if _, err := l.Commit(ctx, first, "K"); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	second := splitSession(t, l)
	assignCorrective(t, l, second)
	res, err := l.Commit(ctx, second, "K")
	if !errors.Is(err, storage.ErrDuplicateDocument) {
		t.Fatalf("expected ErrDuplicateDocument, got %v (replayed=%v)", err, res.Replayed)
	}
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PersistenceError, got %T", err)
	}

	if _, err := l.Snapshot(second); err != nil {
		t.Fatalf("second session should be kept, got %v", err)
	}
	if _, err := store.GetDocument(ctx, second); !errors.Is(err, storage.ErrDocumentNotFound) {
		t.Fatalf("second document must not be stored, got %v", err)
	}
}

func TestCommitStoreFailureKeepsSession(t *testing.T) {
	storeErr := errors.New("connection reset")
	store := &failingStore{MemoryBatchStore: memory.NewMemoryBatchStore(), err: storeErr}
	pub := &recordingPublisher{}
	l := NewLedger(store, pub, balancer.New(balancer.Options{}))

	id := splitSession(t, l)
	assignCorrective(t, l, id)

	_, err := l.Commit(context.Background(), id, "")
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PersistenceError, got %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}

	snap, err := l.Snapshot(id)
	if err != nil {
		t.Fatalf("expected session kept, got %v", err)
	}
	if len(snap.Lines) != 2 {
		t.Fatalf("expected 2 lines kept, got %d", len(snap.Lines))
	}
	if len(pub.events) != 0 {
		t.Fatalf("expected no events, got %d", len(pub.events))
	}
}

func TestCommitSurvivesPublishFailure(t *testing.T) {
	store := memory.NewMemoryBatchStore()
	pub := &recordingPublisher{err: errors.New("broker down")}
	l := newTestLedger(t, store, pub)

	id := splitSession(t, l)
	assignCorrective(t, l, id)

	if _, err := l.Commit(context.Background(), id, ""); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	lines, _ := store.GetLedgerLines(context.Background())
	if len(lines) != 2 {
		t.Fatalf("expected 2 stored lines, got %d", len(lines))
	}
}

func TestSetAccountRejectsUnknownAccount(t *testing.T) {
	l := newTestLedger(t, memory.NewMemoryBatchStore(), &recordingPublisher{})
	snap, err := l.OpenSession(time.Time{}, "PLN")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	_, err = l.SetAccount(context.Background(), snap.DocumentID, models.Debit, "999")
	if !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
}

func TestDiscardDropsSession(t *testing.T) {
	l := newTestLedger(t, memory.NewMemoryBatchStore(), &recordingPublisher{})
	id := splitSession(t, l)

	if err := l.Discard(id); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := l.Discard(id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := l.Focus(id, models.Debit); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestConcurrentCommitStoresOnce(t *testing.T) {
	store := memory.NewMemoryBatchStore()
	l := newTestLedger(t, store, &recordingPublisher{})
	id := splitSession(t, l)
	assignCorrective(t, l, id)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Commit(context.Background(), id, "")
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			} else if !errors.Is(err, ErrSessionNotFound) {
				t.Errorf("unexpected error %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one commit, got %d", succeeded)
	}
	lines, _ := store.GetLedgerLines(context.Background())
	if len(lines) != 2 {
		t.Fatalf("expected 2 stored lines, got %d", len(lines))
	}
}
