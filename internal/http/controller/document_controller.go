package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sheikh-saqib/double-entry-balancer/internal/amount"
	"github.com/sheikh-saqib/double-entry-balancer/internal/auth"
	"github.com/sheikh-saqib/double-entry-balancer/internal/balancer"
	"github.com/sheikh-saqib/double-entry-balancer/internal/commons"
	httpmodels "github.com/sheikh-saqib/double-entry-balancer/internal/http/models"
	"github.com/sheikh-saqib/double-entry-balancer/internal/ledger"
	"github.com/sheikh-saqib/double-entry-balancer/internal/models"
	"github.com/shopspring/decimal"
)

type DocumentService interface {
	OpenSession(date time.Time, currency string) (balancer.Snapshot, error)
	Snapshot(id string) (balancer.Snapshot, error)
	Discard(id string) error
	Focus(id string, side models.Side) (balancer.Snapshot, error)
	ChangeAmount(id string, side models.Side, value decimal.Decimal) (balancer.Snapshot, error)
	Blur(id string, side models.Side) (balancer.BlurResult, error)
	SetDescription(id, description string) (balancer.Snapshot, error)
	SetAccount(ctx context.Context, id string, side models.Side, ref string) (balancer.Snapshot, error)
	AcceptDraft(id string) (balancer.Snapshot, error)
	EditLine(ctx context.Context, id string, index int, line models.LedgerLine) (balancer.Snapshot, error)
	RemoveLine(id string, index int) (balancer.Snapshot, error)
	Check(id string) (balancer.Verdict, error)
	Commit(ctx context.Context, id, idempotencyKey string) (ledger.CommitResult, error)
	GetDocument(ctx context.Context, id string) (models.Document, error)
}

type DocumentController struct {
	service DocumentService
	locale  amount.Locale
}

func NewDocumentController(service DocumentService, locale amount.Locale) *DocumentController {
	return &DocumentController{service: service, locale: locale}
}

func (c *DocumentController) RegisterRoutes(r chi.Router) {
	view := auth.Require(auth.ViewLedger)
	edit := auth.Require(auth.EditDrafts)

	r.Route("/documents", func(r chi.Router) {
		r.With(edit).Post("/", c.openDocument)

		r.Route("/{id}", func(r chi.Router) {
			r.With(view).Get("/", c.getDocument)
			r.With(edit).Delete("/", c.discardDocument)
			r.With(view).Get("/check", c.checkDocument)
			r.With(auth.Require(auth.CommitBatches)).Post("/commit", c.commitDocument)

			r.Route("/draft", func(r chi.Router) {
				r.Use(edit)
				r.Post("/focus", c.focus)
				r.Post("/amount", c.changeAmount)
				r.Post("/blur", c.blur)
				r.Post("/description", c.setDescription)
				r.Post("/account", c.setAccount)
				r.Post("/accept", c.acceptDraft)
			})

			r.With(edit).Put("/lines/{index}", c.editLine)
			r.With(edit).Delete("/lines/{index}", c.removeLine)
		})
	})
}

func (c *DocumentController) openDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req httpmodels.OpenDocumentRequest
	if err := decode(r, &req); err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("invalid request body", err.Error()), start)
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("validation failed", err.Error()), start)
		return
	}

	date, _ := req.ParsedDate()
	snap, err := c.service.OpenSession(date, req.Currency)
	if err != nil {
		// An unknown currency is the only failure here.
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("validation failed", err.Error()), start)
		return
	}
	respond(w, r, http.StatusCreated, commons.SuccessResponse("document opened", snap), start)
}

// getDocument returns the open session, or the committed document once the
// session is gone.
func (c *DocumentController) getDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")
	logRequest(r, nil)

	snap, err := c.service.Snapshot(id)
	if err == nil {
		respond(w, r, http.StatusOK, commons.SuccessResponse("document session", httpmodels.DocumentView{Session: &snap}), start)
		return
	}
	if !errors.Is(err, ledger.ErrSessionNotFound) {
		fail[httpmodels.DocumentView](w, r, "failed to load document", err, start)
		return
	}

	doc, err := c.service.GetDocument(r.Context(), id)
	if err != nil {
		fail[httpmodels.DocumentView](w, r, "document not found", err, start)
		return
	}
	respond(w, r, http.StatusOK, commons.SuccessResponse("committed document", httpmodels.DocumentView{Committed: &doc}), start)
}

func (c *DocumentController) discardDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")
	logRequest(r, nil)

	if err := c.service.Discard(id); err != nil {
		fail[string](w, r, "failed to discard document", err, start)
		return
	}
	respond(w, r, http.StatusOK, commons.SuccessResponse("document discarded", id), start)
}

func (c *DocumentController) checkDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	verdict, err := c.service.Check(chi.URLParam(r, "id"))
	if err != nil {
		fail[balancer.Verdict](w, r, "failed to check document", err, start)
		return
	}
	message := "batch can be committed"
	if !verdict.Eligible {
		message = "batch cannot be committed"
	}
	respond(w, r, http.StatusOK, commons.SuccessResponse(message, verdict), start)
}

func (c *DocumentController) commitDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")
	key := r.Header.Get("Idempotency-Key")
	logRequest(r, map[string]string{"idempotencyKey": key})

	result, err := c.service.Commit(r.Context(), id, key)
	if err != nil {
		fail[ledger.CommitResult](w, r, "commit failed", err, start)
		return
	}
	if result.Replayed {
		respond(w, r, http.StatusOK, commons.SuccessResponse("batch already committed", result), start)
		return
	}
	respond(w, r, http.StatusCreated, commons.SuccessResponse("batch committed", result), start)
}

func (c *DocumentController) focus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req httpmodels.SideRequest
	if !c.readSide(w, r, &req, start) {
		return
	}
	snap, err := c.service.Focus(chi.URLParam(r, "id"), req.ParsedSide())
	c.writeSnapshot(w, r, snap, err, "field focused", start)
}

func (c *DocumentController) changeAmount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req httpmodels.AmountRequest
	if err := decode(r, &req); err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("invalid request body", err.Error()), start)
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("validation failed", err.Error()), start)
		return
	}
	value, err := req.Amount(c.locale)
	if err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("validation failed", err.Error()), start)
		return
	}

	snap, err := c.service.ChangeAmount(chi.URLParam(r, "id"), req.ParsedSide(), value)
	c.writeSnapshot(w, r, snap, err, "amount changed", start)
}

func (c *DocumentController) blur(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req httpmodels.SideRequest
	if !c.readSide(w, r, &req, start) {
		return
	}
	res, err := c.service.Blur(chi.URLParam(r, "id"), req.ParsedSide())
	if err != nil {
		fail[balancer.BlurResult](w, r, "blur failed", err, start)
		return
	}
	respond(w, r, http.StatusOK, commons.SuccessResponse("draft "+res.Outcome.String(), res), start)
}

func (c *DocumentController) setDescription(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req httpmodels.DescriptionRequest
	if err := decode(r, &req); err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("invalid request body", err.Error()), start)
		return
	}
	logRequest(r, req)

	snap, err := c.service.SetDescription(chi.URLParam(r, "id"), req.Description)
	c.writeSnapshot(w, r, snap, err, "description set", start)
}

func (c *DocumentController) setAccount(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req httpmodels.AccountRequest
	if err := decode(r, &req); err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("invalid request body", err.Error()), start)
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("validation failed", err.Error()), start)
		return
	}

	snap, err := c.service.SetAccount(r.Context(), chi.URLParam(r, "id"), req.ParsedSide(), req.Account)
	c.writeSnapshot(w, r, snap, err, "account set", start)
}

func (c *DocumentController) acceptDraft(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logRequest(r, nil)

	snap, err := c.service.AcceptDraft(chi.URLParam(r, "id"))
	c.writeSnapshot(w, r, snap, err, "draft accepted", start)
}

func (c *DocumentController) editLine(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	index, ok := lineIndex(w, r, start)
	if !ok {
		return
	}

	var req httpmodels.LineRequest
	if err := decode(r, &req); err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("invalid request body", err.Error()), start)
		return
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("validation failed", err.Error()), start)
		return
	}
	line, err := req.Line(c.locale)
	if err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("validation failed", err.Error()), start)
		return
	}

	snap, err := c.service.EditLine(r.Context(), chi.URLParam(r, "id"), index, line)
	c.writeSnapshot(w, r, snap, err, "line updated", start)
}

func (c *DocumentController) removeLine(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	index, ok := lineIndex(w, r, start)
	if !ok {
		return
	}
	logRequest(r, nil)

	snap, err := c.service.RemoveLine(chi.URLParam(r, "id"), index)
	c.writeSnapshot(w, r, snap, err, "line removed", start)
}

func (c *DocumentController) readSide(w http.ResponseWriter, r *http.Request, req *httpmodels.SideRequest, start time.Time) bool {
	if err := decode(r, req); err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("invalid request body", err.Error()), start)
		return false
	}
	logRequest(r, req)

	if err := req.Validate(); err != nil {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("validation failed", err.Error()), start)
		return false
	}
	return true
}

func (c *DocumentController) writeSnapshot(w http.ResponseWriter, r *http.Request, snap balancer.Snapshot, err error, message string, start time.Time) {
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound && errors.Is(err, ledger.ErrSessionNotFound) {
			respond(w, r, status, commons.ErrorResponse[balancer.Snapshot]("document not found", errorMessages(err)...), start)
			return
		}
		if status >= http.StatusInternalServerError {
			logError(r, err, nil)
		}
		// The session state is returned with the rejection so the editor can redraw.
		respond(w, r, status, commons.FailureWithData(message+" failed", snap, errorMessages(err)...), start)
		return
	}
	respond(w, r, http.StatusOK, commons.SuccessResponse(message, snap), start)
}

func lineIndex(w http.ResponseWriter, r *http.Request, start time.Time) (int, bool) {
	index, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "index")))
	if err != nil || index < 0 {
		respond(w, r, http.StatusBadRequest, commons.ErrorResponse[balancer.Snapshot]("validation failed", "line index must be a non-negative integer"), start)
		return 0, false
	}
	return index, true
}
