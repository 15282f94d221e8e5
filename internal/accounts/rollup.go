package accounts

import (
	"sort"

	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"github.com/shopspring/decimal"
)

// RollupRow is the turnover of every account sharing a number prefix.
type RollupRow struct {
	Prefix string          `json:"prefix"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
	Net    decimal.Decimal `json:"net"` // debit minus credit
}

// Rollup aggregates lines by the first prefixLen characters of the account
// number on each side. Refs missing from the chart are grouped by the ref
// itself. A prefixLen of zero or less groups by the full number.
func (d *Directory) Rollup(lines []models.LedgerLine, prefixLen int) []RollupRow {
	rows := make(map[string]*RollupRow)

	add := func(ref string, debit, credit decimal.Decimal) {
		if ref == "" {
			return
		}
		number := ref
		if a, ok := d.byRef[ref]; ok && a.Number != "" {
			number = a.Number
		}
		prefix := number
		if prefixLen > 0 && len(prefix) > prefixLen {
			prefix = prefix[:prefixLen]
		}
		row, ok := rows[prefix]
		if !ok {
			row = &RollupRow{Prefix: prefix, Debit: decimal.Zero, Credit: decimal.Zero}
			rows[prefix] = row
		}
		row.Debit = row.Debit.Add(debit)
		row.Credit = row.Credit.Add(credit)
	}

	for _, l := range lines {
		add(l.DebitAccount, l.DebitAmount, decimal.Zero)
		add(l.CreditAccount, decimal.Zero, l.CreditAmount)
	}

	out := make([]RollupRow, 0, len(rows))
	for _, row := range rows {
		row.Net = row.Debit.Sub(row.Credit)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Prefix < out[j].Prefix })
	return out
}
