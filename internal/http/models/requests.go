package models

import (
	"errors"
	"strings"
	"time"

	"github.com/sheikh-saqib/double-entry-balancer/internal/amount"
	domain "github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"github.com/shopspring/decimal"
)

type OpenDocumentRequest struct {
	Date     string `json:"date"` // YYYY-MM-DD, today when empty
	Currency string `json:"currency"`
}

func (r OpenDocumentRequest) Validate() error {
	if _, err := r.ParsedDate(); err != nil {
		return errors.New("date must be formatted as YYYY-MM-DD")
	}
	return nil
}

func (r OpenDocumentRequest) ParsedDate() (time.Time, error) {
	if strings.TrimSpace(r.Date) == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.DateOnly, strings.TrimSpace(r.Date))
}

// SideRequest names the amount field an event happened on.
type SideRequest struct {
	Side string `json:"side"`
}

func (r SideRequest) Validate() error {
	_, err := domain.ParseSide(r.Side)
	return err
}

func (r SideRequest) ParsedSide() domain.Side {
	s, _ := domain.ParseSide(r.Side)
	return s
}

// AmountRequest carries the text typed into an amount field, such as
// "1 234,56" or "1,234.56 PLN".
type AmountRequest struct {
	Side  string `json:"side"`
	Value string `json:"value"`
}

func (r AmountRequest) Validate() error {
	var errs []string
	if _, err := domain.ParseSide(r.Side); err != nil {
		errs = append(errs, err.Error())
	}
	if strings.TrimSpace(r.Value) == "" {
		errs = append(errs, "value is required")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (r AmountRequest) ParsedSide() domain.Side {
	s, _ := domain.ParseSide(r.Side)
	return s
}

func (r AmountRequest) Amount(loc amount.Locale) (decimal.Decimal, error) {
	return amount.Parse(r.Value, loc)
}

type DescriptionRequest struct {
	Description string `json:"description"`
}

type AccountRequest struct {
	Side    string `json:"side"`
	Account string `json:"account"`
}

func (r AccountRequest) Validate() error {
	_, err := domain.ParseSide(r.Side)
	return err
}

func (r AccountRequest) ParsedSide() domain.Side {
	s, _ := domain.ParseSide(r.Side)
	return s
}

// LineRequest replaces an emitted line. Empty amounts mean zero.
type LineRequest struct {
	Description   string `json:"description"`
	DebitAccount  string `json:"debitAccount"`
	CreditAccount string `json:"creditAccount"`
	DebitAmount   string `json:"debitAmount"`
	CreditAmount  string `json:"creditAmount"`
}

func (r LineRequest) Validate() error {
	var errs []string
	if strings.TrimSpace(r.Description) == "" {
		errs = append(errs, "description is required")
	}
	if strings.TrimSpace(r.DebitAmount) == "" && strings.TrimSpace(r.CreditAmount) == "" {
		errs = append(errs, "debitAmount or creditAmount is required")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func (r LineRequest) Line(loc amount.Locale) (domain.LedgerLine, error) {
	debit, err := optionalAmount(r.DebitAmount, loc)
	if err != nil {
		return domain.LedgerLine{}, err
	}
	credit, err := optionalAmount(r.CreditAmount, loc)
	if err != nil {
		return domain.LedgerLine{}, err
	}
	return domain.LedgerLine{
		Description:   r.Description,
		DebitAccount:  r.DebitAccount,
		CreditAccount: r.CreditAccount,
		DebitAmount:   debit,
		CreditAmount:  credit,
	}, nil
}

func optionalAmount(text string, loc amount.Locale) (decimal.Decimal, error) {
	if strings.TrimSpace(text) == "" {
		return decimal.Zero, nil
	}
	return amount.Parse(text, loc)
}
