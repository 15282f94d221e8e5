package models

import (
	"fmt"
	"strings"
)

// Side identifies one column of a double-entry line.
type Side int

const (
	Debit Side = iota
	Credit
)

func (s Side) String() string {
	switch s {
	case Debit:
		return "debit"
	case Credit:
		return "credit"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Opposite returns the other column of the line.
func (s Side) Opposite() Side {
	if s == Debit {
		return Credit
	}
	return Debit
}

func (s Side) Valid() bool {
	return s == Debit || s == Credit
}

// ParseSide accepts "debit"/"credit" in any case, plus the short forms "dr"/"cr".
func ParseSide(raw string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debit", "dr", "wn":
		return Debit, nil
	case "credit", "cr", "ma":
		return Credit, nil
	default:
		return 0, fmt.Errorf("unknown side %q", raw)
	}
}

func (s Side) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid side %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	parsed, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
