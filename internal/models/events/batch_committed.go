package events

import (
	"time"

	"github.com/shopspring/decimal"
)

type BatchCommitted struct {
	DocumentID  string          `json:"document_id"`
	Date        string          `json:"date"`
	Currency    string          `json:"currency"`
	LineCount   int             `json:"line_count"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// EventKey partitions commit events by document.
func (e BatchCommitted) EventKey() string {
	return e.DocumentID
}
