package models

import "time"

// Document is a finalized batch of ledger lines handed to persistence.
type Document struct {
	ID             string       `json:"id"`
	IdempotencyKey string       `json:"idempotencyKey,omitempty"`
	Date           time.Time    `json:"date"`
	Currency       string       `json:"currency"`
	Lines          []LedgerLine `json:"lines"`
	CreatedAt      time.Time    `json:"createdAt"`
}
