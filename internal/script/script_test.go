package script

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sheikh-saqib/double-entry-balancer/internal/amount"
	"github.com/sheikh-saqib/double-entry-balancer/internal/balancer"
	"github.com/shopspring/decimal"
)

const fuelScript = `
date: 2024-03-15
currency: PLN
steps:
  - op: description
    value: Zakup paliwa
  - op: amount
    side: debit
    value: "100,00"
  - op: focus
    side: credit
  - op: amount
    side: credit
    value: "70"
  - op: account
    side: debit
    value: 402-01
  - op: account
    side: credit
    value: 202-07
  - op: blur
    side: credit
  - op: edit
    index: 1
    line:
      description: Zakup paliwa
      creditAccount: "131"
      creditAmount: 30
`

func TestReplaySplitsAndRepairsCorrectiveLine(t *testing.T) {
	s, err := ParseScript([]byte(fuelScript))
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	res, err := Replay(balancer.Options{}, s, amount.Polish)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(res.Steps) != 8 {
		t.Fatalf("expected 8 steps, got %d", len(res.Steps))
	}

	blur := res.Steps[6]
	if blur.Outcome != "split" || blur.Emitted != 2 || blur.State != "empty" {
		t.Fatalf("unexpected blur result %+v", blur)
	}
	for _, sr := range res.Steps {
		if sr.Error != "" {
			t.Fatalf("step %d (%s) rejected: %s", sr.Step, sr.Op, sr.Error)
		}
	}

	if len(res.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(res.Lines))
	}
	if !res.Lines[1].CreditAmount.Equal(decimal.NewFromInt(30)) || res.Lines[1].CreditAccount != "131" {
		t.Fatalf("unexpected corrective line %+v", res.Lines[1])
	}
	if !res.Verdict.Eligible {
		t.Fatalf("expected eligible batch, got %+v", res.Verdict.Problems)
	}
	if res.Totals.Debit != "100.00" || res.Totals.Credit != "100.00" {
		t.Fatalf("unexpected totals %+v", res.Totals)
	}
}

func TestReplayLastBlurPolicyWaitsForSmallerSide(t *testing.T) {
	s := Script{
		Currency: "PLN",
		Policy:   "last-blur",
		Steps: []Step{
			{Op: "description", Value: "Zakup paliwa"},
			{Op: "amount", Side: "debit", Value: "100"},
			{Op: "focus", Side: "credit"},
			{Op: "amount", Side: "credit", Value: "70"},
			{Op: "account", Side: "debit", Value: "402-01"},
			{Op: "blur", Side: "debit"},
		},
	}

	res, err := Replay(balancer.Options{}, s, amount.Polish)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got := res.Steps[5].Outcome; got != "waiting" {
		t.Fatalf("expected waiting on larger side blur, got %s", got)
	}
	if len(res.Lines) != 0 {
		t.Fatalf("expected no lines, got %d", len(res.Lines))
	}
}

func TestReplayRecordsRejectedSteps(t *testing.T) {
	s := Script{
		Currency: "EUR",
		Steps:    []Step{{Op: "accept"}},
	}
	res, err := Replay(balancer.Options{}, s, amount.English)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if res.Steps[0].Error == "" {
		t.Fatalf("expected accept of an empty draft to be rejected")
	}
}

func TestReplayStopsOnMalformedStep(t *testing.T) {
	cases := []Step{
		{Op: "jump"},
		{Op: "focus", Side: "left"},
		{Op: "amount", Side: "debit", Value: "abc"},
		{Op: "edit"},
	}
	for _, step := range cases {
		_, err := Replay(balancer.Options{}, Script{Currency: "PLN", Steps: []Step{step}}, amount.Polish)
		if err == nil {
			t.Fatalf("expected error for step %+v", step)
		}
	}

	_, err := Replay(balancer.Options{}, Script{Currency: "PLN", Steps: []Step{{Op: "jump"}}}, amount.Polish)
	if !errors.Is(err, ErrUnknownOp) {
		t.Fatalf("expected ErrUnknownOp, got %v", err)
	}
}

func TestLoadBatchAndCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	batch := `
date: 2024-03-15
currency: pln
lines:
  - description: Zakup paliwa
    debitAccount: 402-01
    creditAccount: 202-07
    debitAmount: 100
    creditAmount: 100
  - description: Wypłata gotówki
    debitAccount: "131"
    debitAmount: 50
`
	if err := os.WriteFile(path, []byte(batch), 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := LoadBatch(path)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if b.Currency != "PLN" || b.Lines[1].Currency != "PLN" {
		t.Fatalf("expected currency defaulted to PLN, got %+v", b)
	}

	verdict := Check(balancer.New(balancer.Options{}), b)
	if verdict.Eligible {
		t.Fatalf("expected ineligible batch")
	}
	err = verdict.Err()
	if !errors.Is(err, balancer.ErrUnbalancedLine) || !errors.Is(err, balancer.ErrUnbalancedBatch) {
		t.Fatalf("expected unbalanced line and batch, got %v", err)
	}
}
