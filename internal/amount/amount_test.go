package amount

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		value string
		code  string
		loc   Locale
		want  string
	}{
		{"1234.56", "PLN", Polish, "1\u00a0234,56 PLN"},
		{"1234.56", "USD", English, "USD 1,234.56"},
		{"1234567.8", "EUR", German, "1.234.567,80 EUR"},
		{"0.005", "PLN", Polish, "0,01 PLN"},
		{"999", "PLN", Polish, "999,00 PLN"},
		{"1500", "JPY", English, "JPY 1,500"},
		{"12.5", "", Polish, "12,50"},
	}

	for _, tt := range tests {
		got := Format(decimal.RequireFromString(tt.value), tt.code, tt.loc)
		if got != tt.want {
			t.Fatalf("Format(%s, %s) = %q, want %q", tt.value, tt.code, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		text string
		loc  Locale
		want string
	}{
		{"1\u00a0234,56 PLN", Polish, "1234.56"},
		{"1 234,56 PLN", Polish, "1234.56"},
		{"1234.56", Polish, "1234.56"},
		{"USD 1,234.56", English, "1234.56"},
		{"1.234.567,80", German, "1234567.80"},
		{"1,234", English, "1234"},
		{"1,234", Polish, "1.234"},
		{"  70 zł ", Polish, "70"},
		{"1\u00a0000,00", Polish, "1000"},
		{"1 000,00", Polish, "1000"},
	}

	for _, tt := range tests {
		got, err := Parse(tt.text, tt.loc)
		if err != nil {
			t.Fatalf("Parse(%q) returned error %v", tt.text, err)
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("Parse(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse("   ", Polish); !errors.Is(err, ErrEmptyAmount) {
		t.Fatalf("expected ErrEmptyAmount, got %v", err)
	}
	if _, err := Parse("-5,00", Polish); !errors.Is(err, ErrNegative) {
		t.Fatalf("expected ErrNegative, got %v", err)
	}
	for _, text := range []string{"12#4", "1.2.3", "12,34.5", "1234.567,00"} {
		if _, err := Parse(text, Polish); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("Parse(%q): expected ErrInvalidAmount, got %v", text, err)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	tolerance := decimal.New(1, -2)
	values := []string{"1234.56", "0.01", "70", "100.00", "987654321.09", "0.004"}

	for _, loc := range []Locale{Polish, English, German} {
		for _, v := range values {
			want := decimal.RequireFromString(v)
			got, err := Parse(Format(want, "PLN", loc), loc)
			if err != nil {
				t.Fatalf("round trip of %s in %s failed: %v", v, loc.Tag, err)
			}
			if got.Sub(want).Abs().GreaterThan(tolerance) {
				t.Fatalf("round trip of %s in %s gave %s", v, loc.Tag, got)
			}
		}
	}
}

func TestParseCurrency(t *testing.T) {
	got, err := ParseCurrency("pln")
	if err != nil || got != "PLN" {
		t.Fatalf("ParseCurrency(pln) = %q, %v", got, err)
	}
	if _, err := ParseCurrency("XX1"); err == nil {
		t.Fatal("expected error for malformed code")
	}
}

func TestLocaleFor(t *testing.T) {
	if loc := LocaleFor("en_US"); loc.DecimalSep != "." {
		t.Fatalf("expected English separators for en_US, got %+v", loc)
	}
	if loc := LocaleFor("de-AT"); loc.GroupSep != "." {
		t.Fatalf("expected German separators for de-AT, got %+v", loc)
	}
	if loc := LocaleFor("not a tag"); loc.Tag != Polish.Tag {
		t.Fatalf("expected Polish fallback, got %s", loc.Tag)
	}
}
