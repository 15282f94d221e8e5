package controller

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sheikh-saqib/double-entry-balancer/internal/accounts"
	"github.com/sheikh-saqib/double-entry-balancer/internal/amount"
	"github.com/sheikh-saqib/double-entry-balancer/internal/auth"
	"github.com/sheikh-saqib/double-entry-balancer/internal/commons"
	httpmodels "github.com/sheikh-saqib/double-entry-balancer/internal/http/models"
	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"github.com/shopspring/decimal"
)

const defaultRollupLength = 3

type ChartService interface {
	Search(ctx context.Context, query string, limit int) ([]models.Account, error)
	Lookup(ctx context.Context, ref string) (models.Account, error)
	Rollup(lines []models.LedgerLine, prefixLen int) []accounts.RollupRow
}

type BalanceService interface {
	GetBalance(ctx context.Context, accountRef string) (decimal.Decimal, error)
	GetLedgerLines(ctx context.Context) ([]models.LedgerLine, error)
}

// AccountController serves chart lookups and committed balances.
type AccountController struct {
	chart    ChartService
	ledger   BalanceService
	locale   amount.Locale
	currency string
}

func NewAccountController(chart ChartService, ledger BalanceService, locale amount.Locale, currency string) *AccountController {
	return &AccountController{chart: chart, ledger: ledger, locale: locale, currency: currency}
}

func (c *AccountController) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(auth.Require(auth.ViewLedger))
		r.Get("/accounts", c.searchAccounts)
		r.Get("/balances/{account}", c.getBalance)
		r.Get("/reports/rollup", c.rollup)
	})
}

func (c *AccountController) searchAccounts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond(w, r, http.StatusBadRequest, commons.ErrorResponse[[]models.Account]("validation failed", "limit must be a non-negative integer"), start)
			return
		}
		limit = n
	}

	found, err := c.chart.Search(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		fail[[]models.Account](w, r, "account search failed", err, start)
		return
	}
	respond(w, r, http.StatusOK, commons.SuccessResponse("accounts found", found), start)
}

func (c *AccountController) getBalance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ref := strings.TrimSpace(chi.URLParam(r, "account"))
	logRequest(r, nil)

	balance, err := c.ledger.GetBalance(r.Context(), ref)
	if err != nil {
		fail[httpmodels.BalanceResponse](w, r, "failed to load balance", err, start)
		return
	}

	resp := httpmodels.BalanceResponse{
		Account:   ref,
		Balance:   balance,
		Formatted: amount.Format(balance, c.currency, c.locale),
	}
	if a, err := c.chart.Lookup(r.Context(), ref); err == nil {
		resp.Name = a.Name
	}
	respond(w, r, http.StatusOK, commons.SuccessResponse("account balance", resp), start)
}

func (c *AccountController) rollup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	length := defaultRollupLength
	if raw := r.URL.Query().Get("length"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond(w, r, http.StatusBadRequest, commons.ErrorResponse[[]accounts.RollupRow]("validation failed", "length must be a non-negative integer"), start)
			return
		}
		length = n
	}

	lines, err := c.ledger.GetLedgerLines(r.Context())
	if err != nil {
		fail[[]accounts.RollupRow](w, r, "failed to load ledger lines", err, start)
		return
	}
	respond(w, r, http.StatusOK, commons.SuccessResponse("rollup", c.chart.Rollup(lines, length)), start)
}
