// Package amount converts money amounts between decimal values and the
// localized text shown in and typed into amount fields.
package amount

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

var (
	ErrEmptyAmount   = errors.New("amount is empty")
	ErrInvalidAmount = errors.New("amount is not a number")
	ErrNegative      = errors.New("amount must not be negative")
)

// Locale describes how amounts are written in one language.
type Locale struct {
	Tag        language.Tag
	GroupSep   string
	DecimalSep string
	CodeAfter  bool // "1 234,56 PLN" rather than "PLN 1,234.56"
}

var (
	Polish  = Locale{Tag: language.Polish, GroupSep: "\u00a0", DecimalSep: ",", CodeAfter: true}
	English = Locale{Tag: language.English, GroupSep: ",", DecimalSep: ".", CodeAfter: false}
	German  = Locale{Tag: language.German, GroupSep: ".", DecimalSep: ",", CodeAfter: true}
)

var supported = []Locale{Polish, English, German}

var matcher = language.NewMatcher([]language.Tag{Polish.Tag, English.Tag, German.Tag})

// LocaleFor picks the closest supported locale for a BCP 47 tag such as
// "pl-PL" or "en_US". Unknown tags fall back to Polish.
func LocaleFor(raw string) Locale {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(raw), "_", "-"))
	if err != nil {
		return Polish
	}
	_, idx, confidence := matcher.Match(tag)
	if confidence == language.No {
		return Polish
	}
	return supported[idx]
}

// ParseCurrency validates an ISO 4217 code and returns it in canonical form.
func ParseCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("currency %q: %w", code, err)
	}
	return unit.String(), nil
}

// Scale is the number of minor-unit digits of an ISO 4217 currency.
func Scale(code string) int {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// Format renders value with grouping and the currency code, rounded to the
// currency's minor units.
func Format(value decimal.Decimal, code string, loc Locale) string {
	scale := Scale(code)
	fixed := value.Abs().StringFixed(int32(scale))

	whole, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	if value.IsNegative() && !value.Round(int32(scale)).IsZero() {
		b.WriteString("-")
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteString(loc.GroupSep)
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteString(loc.DecimalSep)
		b.WriteString(frac)
	}

	if code == "" {
		return b.String()
	}
	if loc.CodeAfter {
		return b.String() + " " + code
	}
	return code + " " + b.String()
}

// Parse reads an amount typed by a user: an optional currency code, digit
// grouping with spaces or the locale separator, and either "," or "." as the
// decimal mark. The last separator followed by at most two digits is taken as
// the decimal mark when the text is ambiguous.
func Parse(text string, loc Locale) (decimal.Decimal, error) {
	cleaned := strings.TrimFunc(text, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsSpace(r)
	})
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\'' {
			return -1
		}
		return r
	}, cleaned)

	if cleaned == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	if strings.HasPrefix(cleaned, "-") {
		return decimal.Zero, ErrNegative
	}

	normalized, err := normalize(cleaned, loc)
	if err != nil {
		return decimal.Zero, err
	}

	value, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q: %w", text, ErrInvalidAmount)
	}
	return value, nil
}

func normalize(s string, loc Locale) (string, error) {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	decimalAt := -1
	switch {
	case lastComma >= 0 && lastDot >= 0:
		decimalAt = max(lastComma, lastDot)
	case lastComma >= 0 || lastDot >= 0:
		at := max(lastComma, lastDot)
		sep := s[at : at+1]
		tail := len(s) - at - 1
		repeated := strings.Count(s, sep) > 1
		if !repeated && (sep == loc.DecimalSep || tail != 3) {
			decimalAt = at
		}
	}

	whole := s
	if decimalAt >= 0 {
		whole = s[:decimalAt]
	}
	if strings.ContainsAny(whole, ",.") {
		groups := strings.Split(strings.ReplaceAll(whole, ",", "."), ".")
		for i, g := range groups {
			if (i == 0 && (g == "" || len(g) > 3)) || (i > 0 && len(g) != 3) {
				return "", fmt.Errorf("%q: misplaced grouping separator: %w", s, ErrInvalidAmount)
			}
		}
	}

	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case i == decimalAt:
			b.WriteByte('.')
		case r == ',' || r == '.':
			// grouping separator
		default:
			return "", fmt.Errorf("%q: %w", s, ErrInvalidAmount)
		}
	}
	return b.String(), nil
}
