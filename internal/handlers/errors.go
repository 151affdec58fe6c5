package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/diewo77/literie-pos/httpx"
	"github.com/diewo77/literie-pos/internal/money"
	"github.com/diewo77/literie-pos/internal/services"
	"github.com/diewo77/literie-pos/internal/wizard"
)

// stepBlocked carries a failed verdict out of a session callback.
type stepBlocked struct {
	Step    wizard.Step
	Verdict wizard.Verdict
}

func (e stepBlocked) Error() string { return "step blocked: " + e.Verdict.Reason }

// badRequest is a 400 with a snake_case code.
type badRequest struct {
	Code    string
	Details any
}

func (e badRequest) Error() string { return e.Code }

// writeError maps service and handler errors onto the JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	var blocked stepBlocked
	var bad badRequest
	switch {
	case errors.As(err, &blocked):
		httpx.JSONError(w, http.StatusUnprocessableEntity, "step_blocked", map[string]any{
			"step":   blocked.Step,
			"reason": blocked.Verdict.Reason,
			"fields": blocked.Verdict.Fields,
		})
	case errors.As(err, &bad):
		httpx.JSONError(w, http.StatusBadRequest, bad.Code, bad.Details)
	case errors.Is(err, services.ErrSessionNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", map[string]string{"resource": "wizard_session"})
	case errors.Is(err, services.ErrInvoiceNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", map[string]string{"resource": "invoice"})
	case errors.Is(err, services.ErrProductNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", map[string]string{"resource": "product"})
	case errors.Is(err, services.ErrClientNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", map[string]string{"resource": "client"})
	case errors.Is(err, services.ErrInvoiceLocked):
		httpx.JSONError(w, http.StatusConflict, "invoice_locked", nil)
	case errors.Is(err, services.ErrNumberTaken):
		httpx.JSONError(w, http.StatusConflict, "invoice_number_taken", nil)
	default:
		log.Printf("internal error: %v", err)
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// pathID reads a numeric path value.
func pathID(r *http.Request, name string) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || id == 0 {
		return 0, badRequest{Code: "invalid_id", Details: map[string]string{name: r.PathValue(name)}}
	}
	return uint(id), nil
}

// queryInt reads an optional integer query parameter, def when absent or bad.
func queryInt(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil {
		return v
	}
	return def
}

// queryFloat is queryInt for decimals; NaN and infinities count as bad.
func queryFloat(r *http.Request, name string, def float64) float64 {
	if v, err := strconv.ParseFloat(r.URL.Query().Get(name), 64); err == nil && money.Finite(v) {
		return v
	}
	return def
}
