package balancer

import (
	"strings"

	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
)

// Verdict is the commit gate's answer for a batch.
type Verdict struct {
	Eligible bool          `json:"eligible"`
	Totals   DisplayTotals `json:"totals"`
	Problems []Problem     `json:"problems,omitempty"`
}

// Err returns a *ValidationError for an ineligible verdict and nil otherwise.
func (v Verdict) Err() error {
	if v.Eligible {
		return nil
	}
	return &ValidationError{Problems: v.Problems}
}

// Check decides whether lines may be persisted as one batch in currency. It is
// a pure function of its input; an empty currency skips the currency rule.
func (b *Balancer) Check(lines []models.LedgerLine, currency string) Verdict {
	totals := Sum(lines)
	verdict := Verdict{Totals: totals.Display()}

	if len(lines) == 0 {
		verdict.Problems = append(verdict.Problems, Problem{Code: ProblemEmptyBatch, Line: -1})
		return verdict
	}

	pairs := make(map[string]Totals)
	var pairOrder []string
	for i, l := range lines {
		verdict.Problems = append(verdict.Problems, b.lineProblems(i, l, currency)...)

		if l.PairID == "" {
			if !b.within(l.Difference()) {
				verdict.Problems = append(verdict.Problems, Problem{
					Code:   ProblemUnbalancedLine,
					Line:   i,
					Detail: "difference " + l.Difference().StringFixed(2),
				})
			}
			continue
		}
		t, seen := pairs[l.PairID]
		if !seen {
			pairOrder = append(pairOrder, l.PairID)
		}
		t.Debit = t.Debit.Add(l.DebitAmount)
		t.Credit = t.Credit.Add(l.CreditAmount)
		pairs[l.PairID] = t
	}

	for _, pairID := range pairOrder {
		if t := pairs[pairID]; !t.Balanced(b.opts.Tolerance) {
			verdict.Problems = append(verdict.Problems, Problem{
				Code:   ProblemUnbalancedPair,
				Line:   firstLineOfPair(lines, pairID),
				Detail: "difference " + t.Difference().StringFixed(2),
			})
		}
	}

	if !totals.Balanced(b.opts.Tolerance) {
		verdict.Problems = append(verdict.Problems, Problem{
			Code:   ProblemUnbalancedBatch,
			Line:   -1,
			Detail: "debit " + totals.Debit.StringFixed(2) + " credit " + totals.Credit.StringFixed(2),
		})
	}

	verdict.Eligible = len(verdict.Problems) == 0
	return verdict
}

// lineProblems checks the rules that concern a single line in isolation.
func (b *Balancer) lineProblems(i int, l models.LedgerLine, currency string) []Problem {
	var problems []Problem

	if strings.TrimSpace(l.Description) == "" {
		problems = append(problems, Problem{Code: ProblemEmptyDescription, Line: i})
	}

	if l.DebitAccount == "" && l.CreditAccount == "" {
		problems = append(problems, Problem{Code: ProblemMissingAccount, Line: i, Detail: "no account on either side"})
	} else {
		for _, side := range []models.Side{models.Debit, models.Credit} {
			if !l.Amount(side).IsZero() && l.Account(side) == "" {
				problems = append(problems, Problem{Code: ProblemMissingAccount, Line: i, Detail: side.String() + " account"})
			}
		}
	}

	for _, side := range []models.Side{models.Debit, models.Credit} {
		if l.Amount(side).IsNegative() {
			problems = append(problems, Problem{Code: ProblemNegativeAmount, Line: i, Detail: side.String()})
		}
	}
	if l.DebitAmount.IsZero() && l.CreditAmount.IsZero() {
		problems = append(problems, Problem{Code: ProblemZeroAmount, Line: i})
	}

	if currency != "" && !strings.EqualFold(l.Currency, currency) {
		problems = append(problems, Problem{Code: ProblemCurrencyMismatch, Line: i, Detail: l.Currency + " != " + currency})
	}

	return problems
}

// ValidateEdit checks a replacement for line i of lines. Split pairs are only
// balanced as a whole, so their balance is left to Check.
func (b *Balancer) ValidateEdit(lines []models.LedgerLine, i int, edited models.LedgerLine, currency string) error {
	if i < 0 || i >= len(lines) {
		return ErrLineIndex
	}

	problems := b.lineProblems(i, edited, currency)
	if edited.PairID == "" && !b.within(edited.Difference()) {
		problems = append(problems, Problem{Code: ProblemUnbalancedLine, Line: i, Detail: "difference " + edited.Difference().StringFixed(2)})
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func firstLineOfPair(lines []models.LedgerLine, pairID string) int {
	for i, l := range lines {
		if l.PairID == pairID {
			return i
		}
	}
	return -1
}
