package models

import (
	"github.com/sheikh-saqib/double-entry-balancer/internal/balancer"
	domain "github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"github.com/shopspring/decimal"
)

// DocumentView is either an open editing session or a committed document.
type DocumentView struct {
	Session   *balancer.Snapshot `json:"session,omitempty"`
	Committed *domain.Document   `json:"committed,omitempty"`
}

type BalanceResponse struct {
	Account   string          `json:"account"`
	Name      string          `json:"name,omitempty"`
	Balance   decimal.Decimal `json:"balance"`
	Formatted string          `json:"formatted"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}
