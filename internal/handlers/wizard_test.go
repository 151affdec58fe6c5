package handlers

import (
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/diewo77/literie-pos/auth"
	"github.com/diewo77/literie-pos/internal/models"
	"github.com/diewo77/literie-pos/internal/services"
	"github.com/diewo77/literie-pos/internal/wizard"
)

const seller = uint(1)

type viewBody struct {
	ID        string   `json:"id"`
	InvoiceID *uint    `json:"invoice_id"`
	Step      string   `json:"step"`
	Completed []string `json:"completed"`
	Draft     struct {
		InvoiceNumber string `json:"invoice_number"`
		EventLocation string `json:"event_location"`
		Client        struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"client"`
		LineItems []struct {
			ID           string  `json:"id"`
			ProductCode  string  `json:"product_code"`
			Designation  string  `json:"designation"`
			Quantity     int     `json:"quantity"`
			UnitPriceTTC float64 `json:"unit_price_ttc"`
			Fulfilment   string  `json:"fulfilment"`
		} `json:"line_items"`
		Payment struct {
			DepositAmount float64 `json:"deposit_amount"`
			Remaining     float64 `json:"remaining"`
			Cheques       int     `json:"cheques"`
		} `json:"payment"`
	} `json:"draft"`
	Totals struct {
		HT  float64 `json:"ht"`
		TVA float64 `json:"tva"`
		TTC float64 `json:"ttc"`
	} `json:"totals"`
	PaymentDescription string `json:"payment_description"`
	Validation         struct {
		OK     bool   `json:"ok"`
		Reason string `json:"reason"`
	} `json:"validation"`
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func newWizard(t *testing.T) (*WizardHandler, *gorm.DB) {
	t.Helper()
	d := setupTestDB(t)
	seedCatalog(t, d)
	h := NewWizardHandler(
		services.NewWizardSessions(),
		services.NewInvoiceService(d),
		services.NewProductService(d),
		services.NewClientService(d),
		"Foire de Lyon",
	)
	return h, d
}

func create(t *testing.T, h *WizardHandler, target string) viewBody {
	t.Helper()
	w := do(t, h.Create, http.MethodPost, target, "", seller)
	expectStatus(t, w, http.StatusCreated)
	return decodeBody[viewBody](t, w)
}

// call runs a session handler and decodes the view when status is 2xx.
func call(t *testing.T, fn http.HandlerFunc, method, id, body string, status int, path ...string) viewBody {
	t.Helper()
	w := do(t, fn, method, "/api/wizard/"+id, body, seller, append([]string{"id", id}, path...)...)
	expectStatus(t, w, status)
	if status >= 300 {
		return viewBody{}
	}
	return decodeBody[viewBody](t, w)
}

func blocked(t *testing.T, fn http.HandlerFunc, id string) errorBody {
	t.Helper()
	w := do(t, fn, http.MethodPost, "/api/wizard/"+id+"/next", "", seller, "id", id)
	expectStatus(t, w, http.StatusUnprocessableEntity)
	e := decodeBody[errorBody](t, w)
	if e.Error != "step_blocked" {
		t.Fatalf("error = %q, want step_blocked", e.Error)
	}
	return e
}

func TestWizard_FullFlow(t *testing.T) {
	h, d := newWizard(t)

	v := create(t, h, "/api/wizard")
	id := v.ID
	if !strings.HasPrefix(v.Draft.InvoiceNumber, "FAC-") || !strings.HasSuffix(v.Draft.InvoiceNumber, "-0001") {
		t.Fatalf("invoice number = %q", v.Draft.InvoiceNumber)
	}
	if v.Draft.EventLocation != "Foire de Lyon" || v.Step != "invoice-info" || !v.Validation.OK {
		t.Fatalf("fresh view = %+v", v)
	}

	call(t, h.UpdateInfo, http.MethodPatch, id, `{"invoice_date":"2026-10-14"}`, http.StatusOK)
	v = call(t, h.Next, http.MethodPost, id, "", http.StatusOK)
	if v.Step != "client" || len(v.Completed) != 1 || v.Completed[0] != "invoice-info" {
		t.Fatalf("after next: step %q completed %v", v.Step, v.Completed)
	}

	e := blocked(t, h.Next, id)
	if e.Details["step"] != "client" || e.Details["reason"] != "Le nom du client est requis" {
		t.Fatalf("details = %v", e.Details)
	}

	call(t, h.UpdateClient, http.MethodPatch, id, `{
		"name":"Alice Martin","email":"alice@example.fr","phone":"0601020304",
		"address":"12 rue des Lilas","city":"Lyon","postal_code":"69003",
		"housing_type":"maison","no_door_code":true}`, http.StatusOK)
	v = call(t, h.Next, http.MethodPost, id, "", http.StatusOK)
	if v.Step != "products" {
		t.Fatalf("step = %q, want products", v.Step)
	}
	if e := blocked(t, h.Next, id); e.Details["reason"] != "Ajoutez au moins un produit" {
		t.Fatalf("details = %v", e.Details)
	}

	v = call(t, h.AddItem, http.MethodPost, id, `{"product_code":"MAT-160","quantity":1,"fulfilment":"pickup"}`, http.StatusCreated)
	if len(v.Draft.LineItems) != 1 || v.Draft.LineItems[0].UnitPriceTTC != 1200 || v.Draft.LineItems[0].Designation != "Matelas 160x200" {
		t.Fatalf("catalog line = %+v", v.Draft.LineItems)
	}
	v = call(t, h.AddItem, http.MethodPost, id, `{"designation":"Protège-matelas","unit_price_ttc":80,"quantity":2,
		"discount":10,"discount_kind":"percent"}`, http.StatusCreated)
	if !approx(v.Totals.TTC, 1344) || !approx(v.Totals.HT, 1120) || !approx(v.Totals.TVA, 224) {
		t.Fatalf("totals = %+v", v.Totals)
	}
	if e := blocked(t, h.Next, id); !strings.Contains(e.Details["reason"].(string), "Protège-matelas") {
		t.Fatalf("details = %v", e.Details)
	}
	itemID := v.Draft.LineItems[1].ID
	call(t, h.UpdateItem, http.MethodPatch, id, `{"fulfilment":"delivery"}`, http.StatusOK, "itemID", itemID)
	v = call(t, h.Next, http.MethodPost, id, "", http.StatusOK)
	if v.Step != "payment" {
		t.Fatalf("step = %q, want payment", v.Step)
	}

	call(t, h.UpdatePayment, http.MethodPatch, id, `{"method":"cheques_a_venir","cheques":4}`, http.StatusOK)
	v = call(t, h.ApplyCheques, http.MethodPost, id, "", http.StatusOK)
	if !approx(v.Draft.Payment.DepositAmount, 136) || !approx(v.Draft.Payment.Remaining, 1208) {
		t.Fatalf("payment = %+v", v.Draft.Payment)
	}
	if v.PaymentDescription != "Chèque à venir (4 chèques de 302€ + acompte 136.00€)" {
		t.Fatalf("description = %q", v.PaymentDescription)
	}
	if e := blocked(t, h.Next, id); e.Details["reason"] != "Choisissez le mode de paiement de l'acompte" {
		t.Fatalf("details = %v", e.Details)
	}
	call(t, h.UpdatePayment, http.MethodPatch, id, `{"deposit_method":"carte"}`, http.StatusOK)

	for _, want := range []string{"delivery", "signature", "recap"} {
		if want == "signature" {
			call(t, h.UpdateDelivery, http.MethodPatch, id, `{"method":"livraison","date":"2026-10-20"}`, http.StatusOK)
		}
		if v = call(t, h.Next, http.MethodPost, id, "", http.StatusOK); v.Step != want {
			t.Fatalf("step = %q, want %q", v.Step, want)
		}
	}

	if e := blocked(t, h.Next, id); e.Details["step"] != "recap" {
		t.Fatalf("details = %v", e.Details)
	}
	call(t, h.UpdateSignature, http.MethodPatch, id, `{"data":"data:image/png;base64,AAAA"}`, http.StatusOK)
	call(t, h.SetTerms, http.MethodPut, id, `{"accepted":true}`, http.StatusOK)

	v = call(t, h.Next, http.MethodPost, id, "", http.StatusOK)
	if v.Step != "done" || v.InvoiceID == nil || len(v.Completed) != 7 {
		t.Fatalf("finished view: step %q invoice %v completed %v", v.Step, v.InvoiceID, v.Completed)
	}

	var inv models.Invoice
	if err := d.Preload("Lines").First(&inv, *v.InvoiceID).Error; err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if !inv.IsFinal() || inv.ClientID == nil || len(inv.Lines) != 2 || !approx(inv.MontantTTC, 1344) {
		t.Fatalf("invoice = %+v", inv)
	}
	if inv.Number != v.Draft.InvoiceNumber || inv.PaymentType != "cheques_a_venir" {
		t.Fatalf("invoice number %q type %q", inv.Number, inv.PaymentType)
	}
	var clients int64
	d.Model(&models.Client{}).Count(&clients)
	if clients != 1 {
		t.Fatalf("clients = %d, want 1", clients)
	}

	w := do(t, h.Finish, http.MethodPost, "/api/wizard/"+id+"/finish", "", seller, "id", id)
	expectStatus(t, w, http.StatusConflict)

	w = do(t, h.Create, http.MethodPost, "/api/wizard?from="+strconv.Itoa(int(inv.ID)), "", seller)
	expectStatus(t, w, http.StatusConflict)
}

func TestWizard_FinishReportsFirstFailingStep(t *testing.T) {
	h, _ := newWizard(t)
	id := create(t, h, "/api/wizard").ID

	w := do(t, h.Finish, http.MethodPost, "/api/wizard/"+id+"/finish", "", seller, "id", id)
	expectStatus(t, w, http.StatusUnprocessableEntity)
	e := decodeBody[errorBody](t, w)
	if e.Details["step"] != "client" {
		t.Fatalf("details = %v", e.Details)
	}
	fields, _ := e.Details["fields"].(map[string]any)
	if fields["client.name"] != "required" {
		t.Fatalf("fields = %v", fields)
	}
}

func TestWizard_Ownership(t *testing.T) {
	h, _ := newWizard(t)
	id := create(t, h, "/api/wizard").ID

	w := do(t, h.Get, http.MethodGet, "/api/wizard/"+id, "", 2, "id", id)
	expectStatus(t, w, http.StatusNotFound)
	w = do(t, h.Delete, http.MethodDelete, "/api/wizard/"+id, "", 2, "id", id)
	expectStatus(t, w, http.StatusNotFound)

	w = do(t, h.List, http.MethodGet, "/api/wizard", "", seller)
	if got := decodeBody[struct {
		Total int `json:"total"`
	}](t, w); got.Total != 1 {
		t.Fatalf("sessions = %d, want 1", got.Total)
	}

	w = do(t, h.Delete, http.MethodDelete, "/api/wizard/"+id, "", seller, "id", id)
	expectStatus(t, w, http.StatusNoContent)
	w = do(t, h.Get, http.MethodGet, "/api/wizard/"+id, "", seller, "id", id)
	expectStatus(t, w, http.StatusNotFound)
}

func TestWizard_BadInput(t *testing.T) {
	h, _ := newWizard(t)
	id := create(t, h, "/api/wizard").ID

	cases := []struct {
		name   string
		fn     http.HandlerFunc
		body   string
		status int
		code   string
	}{
		{"broken json", h.UpdateInfo, `{"invoice_date":`, http.StatusBadRequest, "invalid_json"},
		{"bad date", h.UpdateInfo, `{"invoice_date":"demain"}`, http.StatusBadRequest, "invalid_date"},
		{"bad delivery date", h.UpdateDelivery, `{"date":"32/13/2026"}`, http.StatusBadRequest, "invalid_date"},
		{"unknown method", h.UpdatePayment, `{"method":"bitcoin"}`, http.StatusBadRequest, "validation_failed"},
		{"unknown delivery", h.UpdateDelivery, `{"method":"drone"}`, http.StatusBadRequest, "validation_failed"},
		{"unknown step", h.SetStep, `{"step":"nowhere"}`, http.StatusBadRequest, "unknown_step"},
		{"unknown fulfilment", h.AddItem, `{"designation":"X","unit_price_ttc":1,"fulfilment":"teleport"}`, http.StatusBadRequest, "invalid_json"},
		{"unknown product", h.AddItem, `{"product_code":"NOPE"}`, http.StatusNotFound, "not_found"},
		{"free line without price", h.AddItem, `{"designation":"Livraison"}`, http.StatusBadRequest, "validation_failed"},
		{"negative price", h.AddItem, `{"designation":"Remise","unit_price_ttc":-5}`, http.StatusBadRequest, "validation_failed"},
		{"terms missing", h.SetTerms, `{}`, http.StatusBadRequest, "validation_failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, tc.fn, http.MethodPost, "/api/wizard/"+id, tc.body, seller, "id", id)
			expectStatus(t, w, tc.status)
			if e := decodeBody[errorBody](t, w); e.Error != tc.code {
				t.Fatalf("error = %q, want %q", e.Error, tc.code)
			}
		})
	}

	v := call(t, h.Get, http.MethodGet, id, "", http.StatusOK)
	if len(v.Draft.LineItems) != 0 || v.Step != "invoice-info" {
		t.Fatalf("rejected input changed the draft: %+v", v)
	}
}

func TestWizard_StepJumpAndPrev(t *testing.T) {
	h, _ := newWizard(t)
	id := create(t, h, "/api/wizard").ID

	v := call(t, h.SetStep, http.MethodPut, id, `{"step":"payment"}`, http.StatusOK)
	if v.Step != "payment" || len(v.Completed) != 0 {
		t.Fatalf("jump: step %q completed %v", v.Step, v.Completed)
	}
	v = call(t, h.Prev, http.MethodPost, id, "", http.StatusOK)
	if v.Step != "products" {
		t.Fatalf("prev: step %q", v.Step)
	}
	call(t, h.SetStep, http.MethodPut, id, `{"step":"invoice-info"}`, http.StatusOK)
	if v = call(t, h.Prev, http.MethodPost, id, "", http.StatusOK); v.Step != "invoice-info" {
		t.Fatalf("prev at first step: %q", v.Step)
	}
}

func TestWizard_Items(t *testing.T) {
	h, _ := newWizard(t)
	id := create(t, h, "/api/wizard").ID

	v := call(t, h.AddItem, http.MethodPost, id, `{"product_code":"SOM-80","quantity":0}`, http.StatusCreated)
	item := v.Draft.LineItems[0]
	if item.Quantity != 1 || item.Fulfilment != "undecided" || item.ProductCode != "SOM-80" {
		t.Fatalf("item = %+v", item)
	}

	v = call(t, h.UpdateItem, http.MethodPatch, id, `{"quantity":3}`, http.StatusOK, "itemID", item.ID)
	if v.Draft.LineItems[0].Quantity != 3 || !approx(v.Totals.TTC, 864) {
		t.Fatalf("after update: %+v totals %+v", v.Draft.LineItems, v.Totals)
	}
	v = call(t, h.UpdateItem, http.MethodPatch, id, `{"quantity":0}`, http.StatusOK, "itemID", item.ID)
	if v.Draft.LineItems[0].Quantity != 1 {
		t.Fatalf("quantity = %d, want 1", v.Draft.LineItems[0].Quantity)
	}

	v = call(t, h.UpdateItem, http.MethodPatch, id, `{"quantity":9}`, http.StatusOK, "itemID", "nope")
	if v.Draft.LineItems[0].Quantity != 1 {
		t.Fatalf("unknown item changed the draft")
	}
	v = call(t, h.RemoveItem, http.MethodDelete, id, "", http.StatusOK, "itemID", "nope")
	if len(v.Draft.LineItems) != 1 {
		t.Fatalf("unknown item removed a line")
	}
	v = call(t, h.RemoveItem, http.MethodDelete, id, "", http.StatusOK, "itemID", item.ID)
	if len(v.Draft.LineItems) != 0 || v.Totals.TTC != 0 {
		t.Fatalf("after remove: %+v", v)
	}
}

func TestWizard_PaymentHelpers(t *testing.T) {
	h, _ := newWizard(t)
	id := create(t, h, "/api/wizard").ID
	call(t, h.AddItem, http.MethodPost, id, `{"designation":"Ensemble literie","unit_price_ttc":1840}`, http.StatusCreated)

	w := do(t, h.Cheques, http.MethodGet, "/api/wizard/"+id+"/cheques?count=9&min_pct=15", "", seller, "id", id)
	expectStatus(t, w, http.StatusOK)
	cheques := decodeBody[struct {
		Plan struct {
			Deposit   float64 `json:"deposit"`
			PerCheque float64 `json:"per_cheque"`
			Count     int     `json:"count"`
		} `json:"plan"`
		ChequesTotal float64 `json:"cheques_total"`
	}](t, w)
	if cheques.Plan.Deposit != 283 || cheques.Plan.PerCheque != 173 || cheques.Plan.Count != 9 || cheques.ChequesTotal != 1557 {
		t.Fatalf("cheques = %+v", cheques)
	}

	w = do(t, h.Cheques, http.MethodGet, "/api/wizard/"+id+"/cheques?count=9&min_pct=NaN", "", seller, "id", id)
	expectStatus(t, w, http.StatusOK)
	if p := decodeBody[struct {
		Plan struct {
			Deposit   float64 `json:"deposit"`
			PerCheque float64 `json:"per_cheque"`
		} `json:"plan"`
	}](t, w).Plan; p.Deposit != 184 || p.PerCheque != 184 {
		t.Fatalf("NaN floor plan = %+v, want the 10%% default", p)
	}

	w = do(t, h.Suggestions, http.MethodGet, "/api/wizard/"+id+"/suggestions", "", seller, "id", id)
	expectStatus(t, w, http.StatusOK)
	sugg := decodeBody[struct {
		Items []struct {
			Remainder float64 `json:"remainder"`
		} `json:"items"`
		Total int `json:"total"`
	}](t, w)
	if sugg.Total != 5 {
		t.Fatalf("suggestions = %d, want 5", sugg.Total)
	}
	for i := 1; i < len(sugg.Items); i++ {
		if sugg.Items[i].Remainder < sugg.Items[i-1].Remainder {
			t.Fatalf("suggestions not ordered by remainder: %+v", sugg.Items)
		}
	}

	call(t, h.UpdatePayment, http.MethodPatch, id, `{"method":"alma","alma_installments":3}`, http.StatusOK)
	w = do(t, h.Alma, http.MethodGet, "/api/wizard/"+id+"/alma", "", seller, "id", id)
	expectStatus(t, w, http.StatusOK)
	alma := decodeBody[struct {
		Installments int       `json:"installments"`
		Plan         []float64 `json:"plan"`
	}](t, w)
	if alma.Installments != 3 || len(alma.Plan) != 3 || alma.Plan[0] != 613.34 || alma.Plan[1] != 613.33 {
		t.Fatalf("alma = %+v", alma)
	}
}

func TestWizard_SaveResumeAndReset(t *testing.T) {
	h, d := newWizard(t)
	id := create(t, h, "/api/wizard").ID
	call(t, h.UpdateClient, http.MethodPatch, id, `{"name":"Bruno Petit"}`, http.StatusOK)
	call(t, h.AddItem, http.MethodPost, id, `{"product_code":"OREILLER","quantity":2,"fulfilment":"pickup"}`, http.StatusCreated)

	v := call(t, h.Save, http.MethodPost, id, "", http.StatusOK)
	if v.InvoiceID == nil {
		t.Fatalf("save did not attach an invoice")
	}
	invoiceID := *v.InvoiceID
	v = call(t, h.Save, http.MethodPost, id, "", http.StatusOK)
	if *v.InvoiceID != invoiceID {
		t.Fatalf("second save created invoice %d", *v.InvoiceID)
	}

	resumed := create(t, h, "/api/wizard?from="+strconv.Itoa(int(invoiceID)))
	if resumed.InvoiceID == nil || *resumed.InvoiceID != invoiceID {
		t.Fatalf("resumed invoice = %v", resumed.InvoiceID)
	}
	if resumed.Draft.Client.Name != "Bruno Petit" || len(resumed.Draft.LineItems) != 1 || resumed.Draft.LineItems[0].Quantity != 2 {
		t.Fatalf("resumed draft = %+v", resumed.Draft)
	}
	if resumed.Draft.LineItems[0].Fulfilment != "pickup" || !approx(resumed.Totals.TTC, 119.8) {
		t.Fatalf("resumed line = %+v totals %+v", resumed.Draft.LineItems[0], resumed.Totals)
	}
	if resumed.Draft.InvoiceNumber != v.Draft.InvoiceNumber {
		t.Fatalf("resumed number = %q, want %q", resumed.Draft.InvoiceNumber, v.Draft.InvoiceNumber)
	}

	var count int64
	d.Model(&models.Invoice{}).Count(&count)
	if count != 1 {
		t.Fatalf("invoices = %d, want 1", count)
	}

	v = call(t, h.Reset, http.MethodPost, id, "", http.StatusOK)
	if v.InvoiceID != nil || len(v.Draft.LineItems) != 0 || v.Draft.Client.Name != "" {
		t.Fatalf("reset view = %+v", v)
	}
	if !strings.HasSuffix(v.Draft.InvoiceNumber, "-0002") || v.Draft.EventLocation != "Foire de Lyon" {
		t.Fatalf("reset prefill = %q at %q", v.Draft.InvoiceNumber, v.Draft.EventLocation)
	}

	w := do(t, h.Create, http.MethodPost, "/api/wizard?from=x", "", seller)
	expectStatus(t, w, http.StatusBadRequest)
	w = do(t, h.Create, http.MethodPost, "/api/wizard?from=404", "", seller)
	expectStatus(t, w, http.StatusNotFound)
}

func TestWizard_SessionsOpenedTogether(t *testing.T) {
	h, _ := newWizard(t)
	a := create(t, h, "/api/wizard")
	b := create(t, h, "/api/wizard")
	if a.Draft.InvoiceNumber != b.Draft.InvoiceNumber {
		t.Fatalf("prefilled %q and %q", a.Draft.InvoiceNumber, b.Draft.InvoiceNumber)
	}

	call(t, h.Save, http.MethodPost, a.ID, "", http.StatusOK)
	v := call(t, h.Save, http.MethodPost, b.ID, "", http.StatusOK)
	if !strings.HasSuffix(v.Draft.InvoiceNumber, "-0002") {
		t.Errorf("second tablet number = %q", v.Draft.InvoiceNumber)
	}

	call(t, h.UpdateInfo, http.MethodPatch, a.ID, `{"invoice_number":"SALON-7"}`, http.StatusOK)
	call(t, h.Save, http.MethodPost, a.ID, "", http.StatusOK)
	c := create(t, h, "/api/wizard")
	call(t, h.UpdateInfo, http.MethodPatch, c.ID, `{"invoice_number":"SALON-7"}`, http.StatusOK)
	w := do(t, h.Save, http.MethodPost, "/api/wizard/"+c.ID+"/save", "", seller, "id", c.ID)
	expectStatus(t, w, http.StatusConflict)
	if e := decodeBody[errorBody](t, w); e.Error != "invoice_number_taken" {
		t.Errorf("error = %q", e.Error)
	}
}

func TestWizard_SlowUploadLeavesSessionUsable(t *testing.T) {
	h, _ := newWizard(t)
	id := create(t, h, "/api/wizard").ID

	pr, pw := io.Pipe()
	req := httptest.NewRequest(http.MethodPatch, "/api/wizard/"+id+"/signature", pr)
	req = req.WithContext(auth.WithSellerID(req.Context(), seller))
	req.SetPathValue("id", id)
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		h.UpdateSignature(rec, req)
		close(done)
	}()
	if _, err := io.WriteString(pw, `{"data":"data:image/png;base64,`); err != nil {
		t.Fatal(err)
	}

	got := make(chan int, 1)
	go func() { got <- do(t, h.Get, http.MethodGet, "/api/wizard/"+id, "", seller, "id", id).Code }()
	select {
	case code := <-got:
		if code != http.StatusOK {
			t.Errorf("get during upload = %d", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session blocked while the signature was uploading")
	}

	io.WriteString(pw, `AAAA"}`)
	pw.Close()
	<-done
	expectStatus(t, rec, http.StatusOK)
	v := decodeBody[struct {
		Draft struct {
			Signature struct {
				Data string `json:"data"`
			} `json:"signature"`
		} `json:"draft"`
	}](t, rec)
	if v.Draft.Signature.Data != "data:image/png;base64,AAAA" {
		t.Errorf("signature = %q", v.Draft.Signature.Data)
	}
}

func TestWizard_FlatRecord(t *testing.T) {
	h, _ := newWizard(t)
	id := create(t, h, "/api/wizard").ID
	call(t, h.SetStep, http.MethodPut, id, `{"step":"payment"}`, http.StatusOK)

	v := call(t, h.ReplaceFlat, http.MethodPut, id, `{
		"invoiceNumber":"FAC-2026-0100","eventLocation":"Salon de Vienne","clientName":"Zoé Morel",
		"products":[{"name":"Matelas 140x190","quantity":"2","priceTTC":"499,50 €","isPickupOnSite":true}],
		"paymentType":"carte","montantAcompte":"abc"}`, http.StatusOK)
	if v.Step != "invoice-info" || v.Draft.InvoiceNumber != "FAC-2026-0100" || v.Draft.Client.Name != "Zoé Morel" {
		t.Fatalf("hydrated view = %+v", v)
	}
	if len(v.Draft.LineItems) != 1 || v.Draft.LineItems[0].Quantity != 2 || v.Draft.LineItems[0].UnitPriceTTC != 499.5 {
		t.Fatalf("hydrated lines = %+v", v.Draft.LineItems)
	}

	w := do(t, h.Flat, http.MethodGet, "/api/wizard/"+id+"/flat", "", seller, "id", id)
	expectStatus(t, w, http.StatusOK)
	flat := decodeBody[wizard.FlatInvoice](t, w)
	if float64(flat.MontantTTC) != 999 || flat.PaymentMethod != "Carte bancaire" || float64(flat.MontantAcompte) != 0 {
		t.Fatalf("flat = %+v", flat)
	}
	if len(flat.Products) != 1 || flat.Products[0].IsPickupOnSite == nil || !*flat.Products[0].IsPickupOnSite {
		t.Fatalf("flat products = %+v", flat.Products)
	}

	v = call(t, h.ReplaceFlat, http.MethodPut, id, `{"paymentType":"alma","montantAcompte":"NaN",
		"products":[{"name":"Couette","quantity":"Infinity","priceTTC":"Infinity","isPickupOnSite":false}]}`, http.StatusOK)
	if v.Draft.Payment.DepositAmount != 0 || v.Totals.TTC != 0 || v.PaymentDescription != "Alma (3x 0.00€)" {
		t.Fatalf("non-finite record = %+v", v)
	}
	call(t, h.Get, http.MethodGet, id, "", http.StatusOK)
	w = do(t, h.Flat, http.MethodGet, "/api/wizard/"+id+"/flat", "", seller, "id", id)
	expectStatus(t, w, http.StatusOK)
}

func TestWizard_UseClient(t *testing.T) {
	h, d := newWizard(t)
	c := models.Client{Name: "Chloé Bernard", Email: "chloe@example.fr", Phone: "0611223344", City: "Grenoble", HousingType: "appartement", DoorCode: "A12"}
	if err := d.Create(&c).Error; err != nil {
		t.Fatalf("client: %v", err)
	}
	id := create(t, h, "/api/wizard").ID

	v := call(t, h.UseClient, http.MethodPost, id, "", http.StatusOK, "clientID", strconv.Itoa(int(c.ID)))
	if v.Draft.Client.Name != "Chloé Bernard" || v.Draft.Client.Email != "chloe@example.fr" {
		t.Fatalf("client = %+v", v.Draft.Client)
	}
	call(t, h.UseClient, http.MethodPost, id, "", http.StatusNotFound, "clientID", "999")
}
