package balancer

import (
	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"github.com/shopspring/decimal"
)

// Totals holds the full-precision column sums of a set of lines.
type Totals struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// DisplayTotals is Totals rounded to two decimals for presentation.
type DisplayTotals struct {
	Debit      string `json:"debit"`
	Credit     string `json:"credit"`
	Difference string `json:"difference"`
}

// Sum adds up both columns of lines. It never mutates its input.
func Sum(lines []models.LedgerLine) Totals {
	t := Totals{Debit: decimal.Zero, Credit: decimal.Zero}
	for _, l := range lines {
		t.Debit = t.Debit.Add(l.DebitAmount)
		t.Credit = t.Credit.Add(l.CreditAmount)
	}
	return t
}

func (t Totals) Difference() decimal.Decimal {
	return t.Debit.Sub(t.Credit).Abs()
}

func (t Totals) Balanced(tolerance decimal.Decimal) bool {
	return t.Difference().LessThanOrEqual(tolerance)
}

func (t Totals) Display() DisplayTotals {
	return DisplayTotals{
		Debit:      t.Debit.StringFixed(2),
		Credit:     t.Credit.StringFixed(2),
		Difference: t.Difference().StringFixed(2),
	}
}
