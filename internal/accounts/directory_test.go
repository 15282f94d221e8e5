package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"github.com/shopspring/decimal"
)

const testChart = `
accounts:
  - ref: "130"
    number: "130"
    name: Rachunek bankowy
  - ref: "131"
    number: "131"
    name: Kasa
  - ref: "202-07"
    number: "202-07"
    name: Rozrachunki z dostawcami
  - number: "402-01"
    name: Zużycie paliwa
  - number: "402-02"
    name: Materiały biurowe
`

func testDirectory(t *testing.T) *Directory {
	t.Helper()
	d, err := ParseChart([]byte(testChart))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	return d
}

func TestParseChartDefaultsRefToNumber(t *testing.T) {
	d := testDirectory(t)
	a, err := d.Lookup(context.Background(), "402-01")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if a.Name != "Zużycie paliwa" {
		t.Fatalf("unexpected account %+v", a)
	}
	if _, err := d.Lookup(context.Background(), "999"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestParseChartRejectsDuplicates(t *testing.T) {
	_, err := ParseChart([]byte("accounts:\n  - number: \"130\"\n  - number: \"130\"\n"))
	if err == nil {
		t.Fatal("expected error for duplicate refs")
	}
}

func TestSearch(t *testing.T) {
	d := testDirectory(t)
	ctx := context.Background()

	got, _ := d.Search(ctx, "13", 0)
	if len(got) != 2 || got[0].Number != "130" || got[1].Number != "131" {
		t.Fatalf("unexpected prefix search result %+v", got)
	}

	got, _ = d.Search(ctx, "paliw", 0)
	if len(got) != 1 || got[0].Number != "402-01" {
		t.Fatalf("unexpected fuzzy search result %+v", got)
	}

	got, _ = d.Search(ctx, "40202", 0)
	if len(got) != 1 || got[0].Number != "402-02" {
		t.Fatalf("expected dashless number match, got %+v", got)
	}

	got, _ = d.Search(ctx, "", 2)
	if len(got) != 2 || got[0].Number != "130" {
		t.Fatalf("unexpected listing %+v", got)
	}
}

func TestRollupByPrefix(t *testing.T) {
	d := testDirectory(t)
	lines := []models.LedgerLine{
		{DebitAccount: "402-01", CreditAccount: "202-07", DebitAmount: decimal.NewFromInt(100), CreditAmount: decimal.NewFromInt(70)},
		{CreditAccount: "131", CreditAmount: decimal.NewFromInt(30), DebitAmount: decimal.Zero},
		{DebitAccount: "402-02", CreditAccount: "130", DebitAmount: decimal.NewFromInt(50), CreditAmount: decimal.NewFromInt(50)},
	}

	rows := d.Rollup(lines, 1)
	if len(rows) != 3 {
		t.Fatalf("expected 3 prefixes, got %+v", rows)
	}
	want := map[string][2]int64{"1": {0, 80}, "2": {0, 70}, "4": {150, 0}}
	for _, row := range rows {
		w := want[row.Prefix]
		if !row.Debit.Equal(decimal.NewFromInt(w[0])) || !row.Credit.Equal(decimal.NewFromInt(w[1])) {
			t.Fatalf("prefix %s: got %s/%s", row.Prefix, row.Debit, row.Credit)
		}
	}
	if !rows[2].Net.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected net 150 for prefix 4, got %s", rows[2].Net)
	}
}
