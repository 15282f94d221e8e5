package balancer

import (
	"fmt"
	"strings"

	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"github.com/shopspring/decimal"
)

// DraftState is the position of an in-progress line in its edit cycle.
type DraftState int

const (
	StateEmpty DraftState = iota
	StateDrafting
	StateReady
)

func (s DraftState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateDrafting:
		return "drafting"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("DraftState(%d)", int(s))
	}
}

func (s DraftState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Draft is the line currently being entered together with the focus history
// of its amount fields. A field is touched once it has had focus and entered
// once the user has typed a value into it.
type Draft struct {
	Line          models.LedgerLine `json:"line"`
	DebitTouched  bool              `json:"debitTouched"`
	CreditTouched bool              `json:"creditTouched"`
	DebitEntered  bool              `json:"debitEntered"`
	CreditEntered bool              `json:"creditEntered"`
	State         DraftState        `json:"state"`
}

// NewDraft returns an empty draft for a batch in currency.
func NewDraft(currency string) Draft {
	return Draft{Line: models.LedgerLine{
		Currency:     currency,
		DebitAmount:  decimal.Zero,
		CreditAmount: decimal.Zero,
	}}
}

func (d Draft) Touched(side models.Side) bool {
	if side == models.Debit {
		return d.DebitTouched
	}
	return d.CreditTouched
}

// Entered reports whether the amount on side was typed rather than mirrored
// or left at zero.
func (d Draft) Entered(side models.Side) bool {
	if side == models.Debit {
		return d.DebitEntered
	}
	return d.CreditEntered
}

func (d Draft) enter(side models.Side) Draft {
	if side == models.Debit {
		d.DebitEntered = true
	} else {
		d.CreditEntered = true
	}
	return d
}

func (d Draft) touch(side models.Side) Draft {
	if side == models.Debit {
		d.DebitTouched = true
	} else {
		d.CreditTouched = true
	}
	return d
}

// edited moves the draft out of EMPTY or READY after any field change.
func (d Draft) edited() Draft {
	if d.Line.IsBlank() {
		d.State = StateEmpty
	} else {
		d.State = StateDrafting
	}
	return d
}

// Outcome tells the caller what a blur evaluation did.
type Outcome int

const (
	// OutcomeWaiting means more input is needed before anything happens.
	OutcomeWaiting Outcome = iota
	OutcomeReady
	OutcomeSplit
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWaiting:
		return "waiting"
	case OutcomeReady:
		return "ready"
	case OutcomeSplit:
		return "split"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// BlurResult is the draft after a blur plus any lines it emitted. On a split
// Emitted holds the original line followed by the corrective line.
type BlurResult struct {
	Draft   Draft               `json:"draft"`
	Outcome Outcome             `json:"outcome"`
	Emitted []models.LedgerLine `json:"emitted,omitempty"`
}

// Focus records that the user entered the amount field on side. A touched
// field is never overwritten by mirroring.
func (b *Balancer) Focus(d Draft, side models.Side) (Draft, error) {
	if !side.Valid() {
		return d, ErrInvalidSide
	}
	return d.touch(side), nil
}

// ApplyAmountChange sets the amount on side. When the opposite field has not
// been touched and value is non-zero, the value is mirrored to it.
func (b *Balancer) ApplyAmountChange(d Draft, side models.Side, value decimal.Decimal) (Draft, error) {
	if !side.Valid() {
		return d, ErrInvalidSide
	}
	if value.IsNegative() {
		return d, fmt.Errorf("%s amount %s: %w", side, value.String(), ErrNegativeAmount)
	}

	// Typing into a field implies it has focus.
	d = d.touch(side).enter(side)
	d.Line = d.Line.WithAmount(side, value)

	opposite := side.Opposite()
	if !d.Touched(opposite) && !value.IsZero() {
		d.Line = d.Line.WithAmount(opposite, value)
	}
	return d.edited(), nil
}

// SetDescription sets the trimmed description of the draft line.
func (b *Balancer) SetDescription(d Draft, description string) Draft {
	d.Line.Description = strings.TrimSpace(description)
	return d.edited()
}

// SetAccount sets the account reference on side. References are not
// resolved here.
func (b *Balancer) SetAccount(d Draft, side models.Side, ref string) (Draft, error) {
	if !side.Valid() {
		return d, ErrInvalidSide
	}
	d.Line = d.Line.WithAccount(side, ref)
	return d.edited(), nil
}

// EvaluateBlur runs when the amount field on side loses focus. A balanced,
// complete draft becomes READY. An unbalanced draft with a description and the
// larger side's account is split: the line is emitted as entered and a
// corrective line carrying the difference on the smaller side follows it, with
// the smaller side's account left for the user. Partial input never splits:
// the smaller side must hold a value the user typed.
func (b *Balancer) EvaluateBlur(d Draft, side models.Side) (BlurResult, error) {
	if !side.Valid() {
		return BlurResult{Draft: d}, ErrInvalidSide
	}

	line := d.Line
	difference := line.Difference()

	if b.within(difference) {
		if ready(line) {
			d.State = StateReady
			return BlurResult{Draft: d, Outcome: OutcomeReady}, nil
		}
		return BlurResult{Draft: d.edited(), Outcome: OutcomeWaiting}, nil
	}

	smaller := models.Debit
	if line.CreditAmount.LessThan(line.DebitAmount) {
		smaller = models.Credit
	}
	if !d.Entered(smaller) {
		return BlurResult{Draft: d.edited(), Outcome: OutcomeWaiting}, nil
	}
	if b.opts.Policy == LastBlur && side != smaller {
		return BlurResult{Draft: d.edited(), Outcome: OutcomeWaiting}, nil
	}
	if strings.TrimSpace(line.Description) == "" || line.Account(smaller.Opposite()) == "" {
		return BlurResult{Draft: d.edited(), Outcome: OutcomeWaiting}, nil
	}

	pairID := b.opts.NewID()

	original := line
	original.ID = b.opts.NewID()
	original.PairID = pairID

	corrective := models.LedgerLine{
		ID:           b.opts.NewID(),
		Description:  line.Description,
		Currency:     line.Currency,
		DebitAmount:  decimal.Zero,
		CreditAmount: decimal.Zero,
		PairID:       pairID,
	}.WithAmount(smaller, difference)

	return BlurResult{
		Draft:   NewDraft(line.Currency),
		Outcome: OutcomeSplit,
		Emitted: []models.LedgerLine{original, corrective},
	}, nil
}

// ready reports whether a balanced line is complete enough to be accepted.
func ready(l models.LedgerLine) bool {
	return strings.TrimSpace(l.Description) != "" &&
		l.DebitAccount != "" && l.CreditAccount != "" &&
		l.DebitAmount.IsPositive() && l.CreditAmount.IsPositive()
}
