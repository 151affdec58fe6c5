package handlers

import (
	"net/http"
	"time"

	"github.com/diewo77/literie-pos/httpx"
	"github.com/diewo77/literie-pos/internal/models"
	"github.com/diewo77/literie-pos/internal/services"
	"github.com/diewo77/literie-pos/internal/wizard"
)

type InvoiceHandler struct {
	invoices *services.InvoiceService
}

func NewInvoiceHandler(invoices *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// List filters with ?q=, ?status=, ?from= / ?to= (YYYY-MM-DD, to exclusive), ?limit= and ?page=.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := services.InvoiceFilter{
		Query:  q.Get("q"),
		Status: models.InvoiceStatus(q.Get("status")),
		From:   wizard.ParseDate(q.Get("from")),
		To:     wizard.ParseDate(q.Get("to")),
		Limit:  queryInt(r, "limit", 20),
	}
	if page := queryInt(r, "page", 1); page > 1 {
		f.Offset = (page - 1) * f.Limit
	}
	items, total, err := h.invoices.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total, "limit": f.Limit, "offset": f.Offset})
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	inv, err := h.invoices.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Flat returns the stored flat invoice record, the input of the PDF and webhook exporters.
func (h *InvoiceHandler) Flat(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	_, flat, err := h.invoices.Load(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, flat)
}

func (h *InvoiceHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.invoices.Cancel(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"id": id, "status": models.InvoiceStatusCancelled, "at": time.Now().UTC()})
}
