package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// LedgerLine is a single double-entry posting line of a document.
type LedgerLine struct {
	ID            string          `json:"id,omitempty" yaml:"id,omitempty"`
	Description   string          `json:"description" yaml:"description"`
	DebitAccount  string          `json:"debitAccount,omitempty" yaml:"debitAccount,omitempty"`   // opaque chart-of-accounts ref
	CreditAccount string          `json:"creditAccount,omitempty" yaml:"creditAccount,omitempty"` // opaque chart-of-accounts ref
	DebitAmount   decimal.Decimal `json:"debitAmount" yaml:"debitAmount"`
	CreditAmount  decimal.Decimal `json:"creditAmount" yaml:"creditAmount"`
	Currency      string          `json:"currency" yaml:"currency"`
	PairID        string          `json:"pairId,omitempty" yaml:"pairId,omitempty"` // shared by the two lines of a split
}

func (l LedgerLine) Amount(side Side) decimal.Decimal {
	if side == Debit {
		return l.DebitAmount
	}
	return l.CreditAmount
}

func (l LedgerLine) Account(side Side) string {
	if side == Debit {
		return l.DebitAccount
	}
	return l.CreditAccount
}

// WithAmount returns a copy of the line with the amount on side replaced.
func (l LedgerLine) WithAmount(side Side, value decimal.Decimal) LedgerLine {
	if side == Debit {
		l.DebitAmount = value
	} else {
		l.CreditAmount = value
	}
	return l
}

func (l LedgerLine) WithAccount(side Side, ref string) LedgerLine {
	ref = strings.TrimSpace(ref)
	if side == Debit {
		l.DebitAccount = ref
	} else {
		l.CreditAccount = ref
	}
	return l
}

// Difference is the absolute gap between the two columns.
func (l LedgerLine) Difference() decimal.Decimal {
	return l.DebitAmount.Sub(l.CreditAmount).Abs()
}

// IsBlank reports whether no field of the line has been filled in.
func (l LedgerLine) IsBlank() bool {
	return strings.TrimSpace(l.Description) == "" &&
		l.DebitAccount == "" && l.CreditAccount == "" &&
		l.DebitAmount.IsZero() && l.CreditAmount.IsZero()
}
