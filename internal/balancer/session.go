package balancer

import (
	"strings"
	"time"

	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"github.com/shopspring/decimal"
)

// Session is the editing state of one document: the lines emitted so far and
// the draft being typed. A session is owned by a single editor and is not
// safe for concurrent use.
type Session struct {
	DocumentID string
	Date       time.Time
	Currency   string

	b     *Balancer
	lines []models.LedgerLine
	draft Draft
}

// NewSession starts an empty session for a document. The currency code is
// upper-cased and shared by every line of the batch.
func (b *Balancer) NewSession(documentID string, date time.Time, currency string) *Session {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	return &Session{
		DocumentID: documentID,
		Date:       date,
		Currency:   currency,
		b:          b,
		draft:      NewDraft(currency),
	}
}

// Snapshot is a read-only copy of a session for callers and transports.
type Snapshot struct {
	DocumentID string              `json:"documentId"`
	Date       string              `json:"date"`
	Currency   string              `json:"currency"`
	Lines      []models.LedgerLine `json:"lines"`
	Draft      Draft               `json:"draft"`
	Totals     DisplayTotals       `json:"totals"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		DocumentID: s.DocumentID,
		Date:       s.Date.Format(time.DateOnly),
		Currency:   s.Currency,
		Lines:      s.Lines(),
		Draft:      s.draft,
		Totals:     s.Totals().Display(),
	}
}

func (s *Session) Draft() Draft {
	return s.draft
}

// Lines returns a copy of the emitted lines.
func (s *Session) Lines() []models.LedgerLine {
	out := make([]models.LedgerLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Batch returns the emitted lines followed by the draft when it holds input.
func (s *Session) Batch() []models.LedgerLine {
	batch := s.Lines()
	if !s.draft.Line.IsBlank() {
		batch = append(batch, s.draft.Line)
	}
	return batch
}

func (s *Session) Totals() Totals {
	return Sum(s.Batch())
}

func (s *Session) Check() Verdict {
	return s.b.Check(s.Batch(), s.Currency)
}

func (s *Session) Focus(side models.Side) error {
	d, err := s.b.Focus(s.draft, side)
	if err != nil {
		return err
	}
	s.draft = d
	return nil
}

func (s *Session) ChangeAmount(side models.Side, value decimal.Decimal) error {
	d, err := s.b.ApplyAmountChange(s.draft, side, value)
	if err != nil {
		return err
	}
	s.draft = d
	return nil
}

// SetDescription sets the description of the draft line.
func (s *Session) SetDescription(description string) {
	s.draft = s.b.SetDescription(s.draft, description)
}

// SetAccount sets the account reference on side of the draft line.
func (s *Session) SetAccount(side models.Side, ref string) error {
	d, err := s.b.SetAccount(s.draft, side, ref)
	if err != nil {
		return err
	}
	s.draft = d
	return nil
}

// Blur evaluates the draft after the amount field on side lost focus. Lines
// emitted by a split are appended to the session.
func (s *Session) Blur(side models.Side) (BlurResult, error) {
	res, err := s.b.EvaluateBlur(s.draft, side)
	if err != nil {
		return res, err
	}
	s.draft = res.Draft
	s.lines = append(s.lines, res.Emitted...)
	return res, nil
}

// AcceptDraft moves a READY draft into the emitted lines and starts a new one.
func (s *Session) AcceptDraft() (models.LedgerLine, error) {
	if s.draft.State != StateReady {
		return models.LedgerLine{}, ErrDraftNotReady
	}
	line := s.draft.Line
	line.ID = s.b.opts.NewID()
	s.lines = append(s.lines, line)
	s.draft = NewDraft(s.Currency)
	return line, nil
}

// EditLine replaces emitted line i. The identity and pairing of the line are
// kept and the replacement must pass the single-line rules.
func (s *Session) EditLine(i int, edited models.LedgerLine) (models.LedgerLine, error) {
	if i < 0 || i >= len(s.lines) {
		return models.LedgerLine{}, ErrLineIndex
	}
	current := s.lines[i]
	edited.ID = current.ID
	edited.PairID = current.PairID
	edited.Description = strings.TrimSpace(edited.Description)
	edited.DebitAccount = strings.TrimSpace(edited.DebitAccount)
	edited.CreditAccount = strings.TrimSpace(edited.CreditAccount)
	if edited.Currency == "" {
		edited.Currency = current.Currency
	}

	if err := s.b.ValidateEdit(s.lines, i, edited, s.Currency); err != nil {
		return models.LedgerLine{}, err
	}
	s.lines[i] = edited
	return edited, nil
}

// RemoveLine deletes emitted line i. Its pair partner, if any, is kept and
// the commit gate reports the broken pair.
func (s *Session) RemoveLine(i int) error {
	if i < 0 || i >= len(s.lines) {
		return ErrLineIndex
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return nil
}

// Reset discards every line and the draft.
func (s *Session) Reset() {
	s.lines = nil
	s.draft = NewDraft(s.Currency)
}
