package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sheikh-saqib/double-entry-balancer/internal/accounts"
	"github.com/sheikh-saqib/double-entry-balancer/internal/amount"
	"github.com/sheikh-saqib/double-entry-balancer/internal/balancer"
	"github.com/sheikh-saqib/double-entry-balancer/internal/commons"
	"github.com/sheikh-saqib/double-entry-balancer/internal/ledger"
	"github.com/sheikh-saqib/double-entry-balancer/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respond writes payload and logs the response.
func respond(w http.ResponseWriter, r *http.Request, status int, payload any, start time.Time) {
	writeJSON(w, status, payload)
	logResponse(r, status, payload, start)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var verr *balancer.ValidationError
	var perr *ledger.PersistenceError

	switch {
	case errors.As(err, &verr),
		errors.Is(err, balancer.ErrNegativeAmount),
		errors.Is(err, balancer.ErrInvalidSide),
		errors.Is(err, ledger.ErrUnknownAccount),
		errors.Is(err, amount.ErrEmptyAmount),
		errors.Is(err, amount.ErrInvalidAmount),
		errors.Is(err, amount.ErrNegative):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrSessionNotFound),
		errors.Is(err, storage.ErrDocumentNotFound),
		errors.Is(err, accounts.ErrAccountNotFound),
		errors.Is(err, balancer.ErrLineIndex):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateDocument),
		errors.Is(err, balancer.ErrDraftNotReady):
		return http.StatusConflict
	case errors.As(err, &perr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorMessages lists every problem of a validation error, or the error
// itself otherwise.
func errorMessages(err error) []string {
	var verr *balancer.ValidationError
	if errors.As(err, &verr) {
		msgs := make([]string, 0, len(verr.Problems))
		for _, p := range verr.Problems {
			msgs = append(msgs, p.Error())
		}
		return msgs
	}
	return []string{err.Error()}
}

// fail writes the error response for a failed service call.
func fail[T any](w http.ResponseWriter, r *http.Request, message string, err error, start time.Time) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logError(r, err, nil)
	}
	respond(w, r, status, commons.ErrorResponse[T](message, errorMessages(err)...), start)
}

// decode reads a JSON body into v. An empty body leaves v unchanged.
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}
