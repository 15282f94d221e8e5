// Package balancer holds the double-entry balancing rules shared by every
// editing surface: running totals, amount mirroring, corrective-line
// generation and the commit gate that decides whether a batch may be persisted.
package balancer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTolerance is the largest debit/credit gap still treated as balanced.
var DefaultTolerance = decimal.New(1, -2)

// TriggerPolicy selects how the smaller side of an unbalanced line is resolved
// when a corrective line may be generated.
type TriggerPolicy int

const (
	// FinalState compares the final amounts only. The field that lost focus
	// does not matter, so identical values always give identical outcomes.
	FinalState TriggerPolicy = iota
	// LastBlur splits only when the field that lost focus is the smaller side.
	LastBlur
)

func (p TriggerPolicy) String() string {
	switch p {
	case FinalState:
		return "final-state"
	case LastBlur:
		return "last-blur"
	default:
		return fmt.Sprintf("TriggerPolicy(%d)", int(p))
	}
}

// ParseTriggerPolicy reads a policy name. An empty name selects FinalState.
func ParseTriggerPolicy(raw string) (TriggerPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "final-state", "final":
		return FinalState, nil
	case "last-blur", "blur":
		return LastBlur, nil
	default:
		return 0, fmt.Errorf("unknown split trigger policy %q", raw)
	}
}

// Options configures a Balancer. Zero values select the defaults.
type Options struct {
	// Tolerance is the largest difference still treated as balanced.
	// Zero or negative means DefaultTolerance.
	Tolerance decimal.Decimal
	Policy    TriggerPolicy
	// NewID generates line and pair ids. Defaults to uuid.NewString.
	NewID func() string
}

// Balancer applies the balancing rules with a fixed set of options.
// It has no mutable state and is safe for concurrent use.
type Balancer struct {
	opts Options
}

// New creates a Balancer, filling unset options with their defaults.
func New(opts Options) *Balancer {
	if opts.Tolerance.IsZero() || opts.Tolerance.IsNegative() {
		opts.Tolerance = DefaultTolerance
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Balancer{opts: opts}
}

func (b *Balancer) Tolerance() decimal.Decimal {
	return b.opts.Tolerance
}

func (b *Balancer) Policy() TriggerPolicy {
	return b.opts.Policy
}

func (b *Balancer) within(diff decimal.Decimal) bool {
	return diff.Abs().LessThanOrEqual(b.opts.Tolerance)
}
