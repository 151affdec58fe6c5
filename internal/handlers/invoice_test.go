package handlers

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/diewo77/literie-pos/internal/models"
	"github.com/diewo77/literie-pos/internal/services"
	"github.com/diewo77/literie-pos/internal/wizard"
)

func TestInvoiceHandler(t *testing.T) {
	d := setupTestDB(t)
	svc := services.NewInvoiceService(d)
	h := NewInvoiceHandler(svc)

	st := wizard.NewStore()
	st.UpdateInfo(wizard.InfoPatch{EventLocation: wizard.Ptr("Foire de Lyon")})
	st.UpdateClient(wizard.ClientPatch{Name: wizard.Ptr("Alice Martin"), Email: wizard.Ptr("alice@example.fr")})
	st.AddLineItem(wizard.LineItem{Designation: "Matelas 160x200", Quantity: 1, UnitPriceTTC: 1200, Fulfilment: wizard.Pickup})
	inv, err := svc.Save(context.Background(), st, services.SaveOptions{SellerID: 1})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	id := strconv.FormatUint(uint64(inv.ID), 10)

	w := do(t, h.List, http.MethodGet, "/api/invoices?q=alice", "", 1)
	expectStatus(t, w, http.StatusOK)
	list := decodeBody[struct {
		Items []models.Invoice `json:"items"`
		Total int64            `json:"total"`
	}](t, w)
	if list.Total != 1 || list.Items[0].Number != inv.Number {
		t.Fatalf("list = %+v", list)
	}

	w = do(t, h.List, http.MethodGet, "/api/invoices?status=final", "", 1)
	if got := decodeBody[struct {
		Total int64 `json:"total"`
	}](t, w); got.Total != 0 {
		t.Fatalf("final invoices = %d, want 0", got.Total)
	}

	w = do(t, h.Get, http.MethodGet, "/api/invoices/"+id, "", 1, "id", id)
	expectStatus(t, w, http.StatusOK)
	got := decodeBody[models.Invoice](t, w)
	if len(got.Lines) != 1 || got.MontantTTC != 1200 {
		t.Fatalf("invoice = %+v", got)
	}

	w = do(t, h.Flat, http.MethodGet, "/api/invoices/"+id+"/flat", "", 1, "id", id)
	expectStatus(t, w, http.StatusOK)
	flat := decodeBody[wizard.FlatInvoice](t, w)
	if flat.ClientName != "Alice Martin" || float64(flat.MontantHT) != 1000 {
		t.Fatalf("flat = %+v", flat)
	}

	w = do(t, h.Cancel, http.MethodPost, "/api/invoices/"+id+"/cancel", "", 1, "id", id)
	expectStatus(t, w, http.StatusOK)
	w = do(t, h.Cancel, http.MethodPost, "/api/invoices/"+id+"/cancel", "", 1, "id", id)
	expectStatus(t, w, http.StatusConflict)

	w = do(t, h.Get, http.MethodGet, "/api/invoices/99", "", 1, "id", "99")
	expectStatus(t, w, http.StatusNotFound)
}
