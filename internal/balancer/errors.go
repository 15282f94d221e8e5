package balancer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyBatch       = errors.New("batch has no lines")
	ErrEmptyDescription = errors.New("description is required")
	ErrMissingAccount   = errors.New("account reference is required")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrZeroAmount       = errors.New("line carries no amount")
	ErrCurrencyMismatch = errors.New("line currency differs from batch currency")
	ErrUnbalancedLine   = errors.New("debit and credit of line differ")
	ErrUnbalancedPair   = errors.New("debit and credit of split pair differ")
	ErrUnbalancedBatch  = errors.New("batch debit and credit totals differ")

	ErrInvalidSide   = errors.New("invalid side")
	ErrDraftNotReady = errors.New("draft is not ready")
	ErrLineIndex     = errors.New("line index out of range")
)

// ProblemCode names the invariant a batch violates.
type ProblemCode int

const (
	ProblemEmptyBatch ProblemCode = iota + 1
	ProblemEmptyDescription
	ProblemMissingAccount
	ProblemNegativeAmount
	ProblemZeroAmount
	ProblemCurrencyMismatch
	ProblemUnbalancedLine
	ProblemUnbalancedPair
	ProblemUnbalancedBatch
)

var problemErrors = map[ProblemCode]error{
	ProblemEmptyBatch:       ErrEmptyBatch,
	ProblemEmptyDescription: ErrEmptyDescription,
	ProblemMissingAccount:   ErrMissingAccount,
	ProblemNegativeAmount:   ErrNegativeAmount,
	ProblemZeroAmount:       ErrZeroAmount,
	ProblemCurrencyMismatch: ErrCurrencyMismatch,
	ProblemUnbalancedLine:   ErrUnbalancedLine,
	ProblemUnbalancedPair:   ErrUnbalancedPair,
	ProblemUnbalancedBatch:  ErrUnbalancedBatch,
}

var problemNames = map[ProblemCode]string{
	ProblemEmptyBatch:       "empty_batch",
	ProblemEmptyDescription: "empty_description",
	ProblemMissingAccount:   "missing_account",
	ProblemNegativeAmount:   "negative_amount",
	ProblemZeroAmount:       "zero_amount",
	ProblemCurrencyMismatch: "currency_mismatch",
	ProblemUnbalancedLine:   "unbalanced_line",
	ProblemUnbalancedPair:   "unbalanced_pair",
	ProblemUnbalancedBatch:  "unbalanced_batch",
}

func (c ProblemCode) String() string {
	if name, ok := problemNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ProblemCode(%d)", int(c))
}

func (c ProblemCode) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Problem is one failed invariant. Line is the zero-based line index, or -1
// for problems that concern the batch as a whole.
type Problem struct {
	Code   ProblemCode `json:"code"`
	Line   int         `json:"line"`
	Detail string      `json:"detail,omitempty"`
}

func (p Problem) Error() string {
	msg := problemErrors[p.Code].Error()
	if p.Line >= 0 {
		msg = fmt.Sprintf("line %d: %s", p.Line+1, msg)
	}
	if p.Detail != "" {
		msg += " (" + p.Detail + ")"
	}
	return msg
}

func (p Problem) Unwrap() error {
	return problemErrors[p.Code]
}

// ValidationError reports every problem that blocks a commit.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Problems))
	for _, p := range e.Problems {
		errs = append(errs, p)
	}
	return errs
}
