package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/double-entry-balancer/internal/amount"
	"github.com/sheikh-saqib/double-entry-balancer/internal/balancer"
	interfaces "github.com/sheikh-saqib/double-entry-balancer/internal/interfaces"
	"github.com/sheikh-saqib/double-entry-balancer/internal/logger"
	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"github.com/sheikh-saqib/double-entry-balancer/internal/models/events"
	"github.com/sheikh-saqib/double-entry-balancer/internal/storage"
	"github.com/shopspring/decimal"
)

var (
	ErrSessionNotFound = errors.New("editing session not found")
	ErrUnknownAccount  = errors.New("account is not in the chart of accounts")
)

// PersistenceError carries a failure of the batch store unchanged. The
// session that was being committed is left as it was.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "persist batch: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// session is one editing session plus the lock that serializes its requests.
type session struct {
	mu     sync.Mutex
	s      *balancer.Session
	closed bool
}

// Ledger is the editing and commit service. It owns every open session and
// hands committed batches to the store.
type Ledger struct {
	store     interfaces.BatchStore
	publisher interfaces.EventPublisher
	directory interfaces.AccountDirectory // nil accepts any account ref
	balancer  *balancer.Balancer
	topic     string
	currency  string // used when a session names none
	now       func() time.Time

	mapMu    sync.Mutex          // protects sessions
	sessions map[string]*session // by document id
}

type Option func(*Ledger)

func WithDirectory(d interfaces.AccountDirectory) Option {
	return func(l *Ledger) { l.directory = d }
}

func WithTopic(topic string) Option {
	return func(l *Ledger) { l.topic = topic }
}

func WithDefaultCurrency(code string) Option {
	return func(l *Ledger) { l.currency = code }
}

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func NewLedger(store interfaces.BatchStore, publisher interfaces.EventPublisher, b *balancer.Balancer, opts ...Option) *Ledger {
	l := &Ledger{
		store:     store,
		publisher: publisher,
		balancer:  b,
		topic:     "batch_committed",
		currency:  "PLN",
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OpenSession starts editing a new document dated date in currency.
func (l *Ledger) OpenSession(date time.Time, currency string) (balancer.Snapshot, error) {
	if strings.TrimSpace(currency) == "" {
		currency = l.currency
	}
	code, err := amount.ParseCurrency(currency)
	if err != nil {
		return balancer.Snapshot{}, err
	}
	if date.IsZero() {
		date = l.now()
	}

	id := uuid.NewString()
	s := l.balancer.NewSession(id, date.UTC().Truncate(24*time.Hour), code)

	l.mapMu.Lock()
	l.sessions[id] = &session{s: s}
	l.mapMu.Unlock()

	logger.Info("ledger session opened", logger.Fields{"documentId": id, "currency": code})
	return s.Snapshot(), nil
}

// Sessions is the number of open editing sessions.
func (l *Ledger) Sessions() int {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()
	return len(l.sessions)
}

func (l *Ledger) getSession(id string) (*session, error) {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	entry, ok := l.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}

func (l *Ledger) dropSession(id string) {
	l.mapMu.Lock()
	delete(l.sessions, id)
	l.mapMu.Unlock()
}

// withSession runs fn with the session locked and returns its new state.
func (l *Ledger) withSession(id string, fn func(s *balancer.Session) error) (balancer.Snapshot, error) {
	entry, err := l.getSession(id)
	if err != nil {
		return balancer.Snapshot{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.closed {
		return balancer.Snapshot{}, ErrSessionNotFound
	}
	if err := fn(entry.s); err != nil {
		return entry.s.Snapshot(), err
	}
	return entry.s.Snapshot(), nil
}

func (l *Ledger) Snapshot(id string) (balancer.Snapshot, error) {
	return l.withSession(id, func(*balancer.Session) error { return nil })
}

// Discard drops a session and every unsaved line in it.
func (l *Ledger) Discard(id string) error {
	entry, err := l.getSession(id)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	entry.closed = true
	entry.mu.Unlock()

	l.dropSession(id)
	logger.Info("ledger session discarded", logger.Fields{"documentId": id})
	return nil
}

func (l *Ledger) Focus(id string, side models.Side) (balancer.Snapshot, error) {
	return l.withSession(id, func(s *balancer.Session) error {
		return s.Focus(side)
	})
}

func (l *Ledger) ChangeAmount(id string, side models.Side, value decimal.Decimal) (balancer.Snapshot, error) {
	return l.withSession(id, func(s *balancer.Session) error {
		return s.ChangeAmount(side, value)
	})
}

func (l *Ledger) SetDescription(id, description string) (balancer.Snapshot, error) {
	return l.withSession(id, func(s *balancer.Session) error {
		s.SetDescription(description)
		return nil
	})
}

func (l *Ledger) SetAccount(ctx context.Context, id string, side models.Side, ref string) (balancer.Snapshot, error) {
	if err := l.checkAccount(ctx, ref); err != nil {
		return balancer.Snapshot{}, err
	}
	return l.withSession(id, func(s *balancer.Session) error {
		return s.SetAccount(side, ref)
	})
}

// Blur evaluates the draft after an amount field lost focus.
func (l *Ledger) Blur(id string, side models.Side) (balancer.BlurResult, error) {
	var res balancer.BlurResult
	_, err := l.withSession(id, func(s *balancer.Session) error {
		var err error
		res, err = s.Blur(side)
		return err
	})
	if err == nil && res.Outcome == balancer.OutcomeSplit {
		logger.Debug("ledger draft split", logger.Fields{
			"documentId": id,
			"difference": res.Emitted[0].Difference().StringFixed(2),
		})
	}
	return res, err
}

func (l *Ledger) AcceptDraft(id string) (balancer.Snapshot, error) {
	return l.withSession(id, func(s *balancer.Session) error {
		_, err := s.AcceptDraft()
		return err
	})
}

func (l *Ledger) EditLine(ctx context.Context, id string, index int, line models.LedgerLine) (balancer.Snapshot, error) {
	for _, ref := range []string{line.DebitAccount, line.CreditAccount} {
		if err := l.checkAccount(ctx, ref); err != nil {
			return balancer.Snapshot{}, err
		}
	}
	return l.withSession(id, func(s *balancer.Session) error {
		_, err := s.EditLine(index, line)
		return err
	})
}

func (l *Ledger) RemoveLine(id string, index int) (balancer.Snapshot, error) {
	return l.withSession(id, func(s *balancer.Session) error {
		return s.RemoveLine(index)
	})
}

// Check runs the commit gate on the session without committing.
func (l *Ledger) Check(id string) (balancer.Verdict, error) {
	var verdict balancer.Verdict
	_, err := l.withSession(id, func(s *balancer.Session) error {
		verdict = s.Check()
		return nil
	})
	return verdict, err
}

func (l *Ledger) checkAccount(ctx context.Context, ref string) error {
	ref = strings.TrimSpace(ref)
	if l.directory == nil || ref == "" {
		return nil
	}
	if _, err := l.directory.Lookup(ctx, ref); err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, ref)
	}
	return nil
}

// CommitResult describes a finished commit. Replayed is set when the
// idempotency key had already been committed and nothing was written.
type CommitResult struct {
	Document models.Document `json:"document"`
	Replayed bool            `json:"replayed"`
}

// Commit validates the whole batch and hands it to the store. Either every
// line is stored or none is; on any failure the session is kept as it was.
func (l *Ledger) Commit(ctx context.Context, id, idempotencyKey string) (CommitResult, error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)

	// Idempotency check
	if idempotencyKey != "" {
		docID, err := l.store.DocumentIDByKey(ctx, idempotencyKey)
		switch {
		case errors.Is(err, storage.ErrDocumentNotFound):
		case err != nil:
			return CommitResult{}, &PersistenceError{Err: err}
		case docID != id:
			// The key was used for another document.
			return CommitResult{}, &PersistenceError{Err: storage.ErrDuplicateDocument}
		default:
			doc, err := l.store.GetDocument(ctx, docID)
			if err != nil {
				return CommitResult{}, &PersistenceError{Err: err}
			}
			return CommitResult{Document: doc, Replayed: true}, nil
		}
	}

	entry, err := l.getSession(id)
	if err != nil {
		return CommitResult{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.closed {
		return CommitResult{}, ErrSessionNotFound
	}

	s := entry.s
	verdict := s.Check()
	if err := verdict.Err(); err != nil {
		return CommitResult{}, err
	}

	lines := s.Batch()
	for i := range lines {
		if lines[i].ID == "" {
			lines[i].ID = uuid.NewString()
		}
	}
	doc := models.Document{
		ID:             s.DocumentID,
		IdempotencyKey: idempotencyKey,
		Date:           s.Date,
		Currency:       s.Currency,
		Lines:          lines,
		CreatedAt:      l.now().UTC(),
	}

	if err := l.store.SaveDocument(ctx, doc); err != nil {
		logger.Error("ledger commit failed", err, logger.Fields{"documentId": doc.ID})
		return CommitResult{}, &PersistenceError{Err: err}
	}

	entry.closed = true
	l.dropSession(id)

	totals := balancer.Sum(lines)
	event := events.BatchCommitted{
		DocumentID:  doc.ID,
		Date:        doc.Date.Format(time.DateOnly),
		Currency:    doc.Currency,
		LineCount:   len(lines),
		DebitTotal:  totals.Debit,
		CreditTotal: totals.Credit,
		OccurredAt:  doc.CreatedAt,
	}
	if err := l.publisher.Publish(ctx, l.topic, event); err != nil {
		logger.Error("ledger commit event not published", err, logger.Fields{"documentId": doc.ID, "topic": l.topic})
	}

	logger.Info("ledger batch committed", logger.Fields{
		"documentId": doc.ID,
		"lines":      len(lines),
		"debit":      totals.Debit.StringFixed(2),
		"credit":     totals.Credit.StringFixed(2),
	})
	return CommitResult{Document: doc}, nil
}

// GetBalance is the committed debit minus credit turnover of an account.
func (l *Ledger) GetBalance(ctx context.Context, accountRef string) (decimal.Decimal, error) {
	lines, err := l.store.GetLinesByAccount(ctx, accountRef)
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, line := range lines {
		if line.DebitAccount == accountRef {
			balance = balance.Add(line.DebitAmount)
		}
		if line.CreditAccount == accountRef {
			balance = balance.Sub(line.CreditAmount)
		}
	}
	return balance, nil
}

func (l *Ledger) GetLedgerLines(ctx context.Context) ([]models.LedgerLine, error) {
	lines, err := l.store.GetLedgerLines(ctx)
	if err != nil {
		return []models.LedgerLine{}, err
	}
	return lines, nil
}

func (l *Ledger) GetDocument(ctx context.Context, id string) (models.Document, error) {
	return l.store.GetDocument(ctx, id)
}
