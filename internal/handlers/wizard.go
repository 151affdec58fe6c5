package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/literie-pos/auth"
	"github.com/diewo77/literie-pos/httpx"
	"github.com/diewo77/literie-pos/internal/models"
	"github.com/diewo77/literie-pos/internal/money"
	"github.com/diewo77/literie-pos/internal/payment"
	"github.com/diewo77/literie-pos/internal/services"
	"github.com/diewo77/literie-pos/internal/wizard"
	"github.com/diewo77/literie-pos/validation"
)

// WizardHandler drives the tablet's invoice wizard. Every call works on one
// session of the registry, owned by the logged-in seller.
type WizardHandler struct {
	sessions      *services.WizardSessions
	invoices      *services.InvoiceService
	products      *services.ProductService
	clients       *services.ClientService
	eventLocation string
}

func NewWizardHandler(sessions *services.WizardSessions, invoices *services.InvoiceService, products *services.ProductService, clients *services.ClientService, eventLocation string) *WizardHandler {
	return &WizardHandler{
		sessions:      sessions,
		invoices:      invoices,
		products:      products,
		clients:       clients,
		eventLocation: eventLocation,
	}
}

type sessionView struct {
	ID                 string         `json:"id"`
	InvoiceID          *uint          `json:"invoice_id"`
	Step               wizard.Step    `json:"step"`
	Steps              []wizard.Step  `json:"steps"`
	Completed          []wizard.Step  `json:"completed"`
	Draft              wizard.Draft   `json:"draft"`
	Totals             wizard.Totals  `json:"totals"`
	PaymentDescription string         `json:"payment_description"`
	Validation         wizard.Verdict `json:"validation"`
	CanFinish          wizard.Verdict `json:"can_finish"`
}

func newSessionView(s *services.WizardSession, st *wizard.Store) sessionView {
	d := st.Draft()
	return sessionView{
		ID:                 s.ID,
		InvoiceID:          s.InvoiceID,
		Step:               d.Step,
		Steps:              wizard.Steps,
		Completed:          d.CompletedSteps(),
		Draft:              d,
		Totals:             st.Totals(),
		PaymentDescription: st.PaymentDescription(),
		Validation:         st.Validate(),
		CanFinish:          st.CanFinish(),
	}
}

func sellerID(r *http.Request) uint {
	id, _ := auth.SellerIDFromContext(r.Context())
	return id
}

// mutate runs fn on the session named in the path and replies with the
// resulting view, or with the mapped error. fn runs under the session lock,
// so callers read and check the request body before calling mutate.
func (h *WizardHandler) mutate(w http.ResponseWriter, r *http.Request, status int, fn func(s *services.WizardSession, st *wizard.Store) error) {
	var view sessionView
	err := h.sessions.Do(r.PathValue("id"), sellerID(r), func(s *services.WizardSession, st *wizard.Store) error {
		if err := fn(s, st); err != nil {
			return err
		}
		view = newSessionView(s, st)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, status, view)
}

// parseDatePtr turns an optional date string into an optional time; an empty
// string clears the date.
func parseDatePtr(field string, s *string) (*time.Time, error) {
	if s == nil {
		return nil, nil
	}
	if strings.TrimSpace(*s) == "" {
		return &time.Time{}, nil
	}
	t := wizard.ParseDate(*s)
	if t.IsZero() {
		return nil, badRequest{Code: "invalid_date", Details: map[string]string{field: *s}}
	}
	return &t, nil
}

// Create opens a session. With ?from=<invoice id> the stored draft invoice is
// loaded into it, otherwise it is prefilled with the next number and today's date.
func (h *WizardHandler) Create(w http.ResponseWriter, r *http.Request) {
	seller := sellerID(r)
	var (
		inv  *models.Invoice
		flat wizard.FlatInvoice
	)
	if from := r.URL.Query().Get("from"); from != "" {
		id, err := strconv.ParseUint(from, 10, 64)
		if err != nil || id == 0 {
			writeError(w, badRequest{Code: "invalid_id", Details: map[string]string{"from": from}})
			return
		}
		inv, flat, err = h.invoices.Load(r.Context(), uint(id))
		if err != nil {
			writeError(w, err)
			return
		}
		if !inv.CanEdit() {
			writeError(w, services.ErrInvoiceLocked)
			return
		}
	}

	s := h.sessions.Create(seller)
	var view sessionView
	err := h.sessions.Do(s.ID, seller, func(s *services.WizardSession, st *wizard.Store) error {
		if inv != nil {
			st.SyncFromFlatInvoice(flat)
			s.InvoiceID = &inv.ID
		} else if err := h.invoices.Prefill(r.Context(), st, h.eventLocation); err != nil {
			return err
		}
		view = newSessionView(s, st)
		return nil
	})
	if err != nil {
		_ = h.sessions.Delete(s.ID, seller)
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, view)
}

func (h *WizardHandler) List(w http.ResponseWriter, r *http.Request) {
	items := h.sessions.List(sellerID(r))
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (h *WizardHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(*services.WizardSession, *wizard.Store) error { return nil })
}

func (h *WizardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.PathValue("id"), sellerID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type infoRequest struct {
	InvoiceNumber *string `json:"invoice_number"`
	InvoiceDate   *string `json:"invoice_date"`
	EventLocation *string `json:"event_location"`
}

func (h *WizardHandler) UpdateInfo(w http.ResponseWriter, r *http.Request) {
	var in infoRequest
	if !httpx.DecodeOrFail(w, r, &in) {
		return
	}
	date, err := parseDatePtr("invoice_date", in.InvoiceDate)
	if err != nil {
		writeError(w, err)
		return
	}
	patch := wizard.InfoPatch{InvoiceNumber: in.InvoiceNumber, InvoiceDate: date, EventLocation: in.EventLocation}
	h.mutate(w, r, http.StatusOK, func(_ *services.WizardSession, st *wizard.Store) error {
		st.UpdateInfo(patch)
		return nil
	})
}

func (h *WizardHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	var p wizard.ClientPatch
	if !httpx.DecodeOrFail(w, r, &p) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(_ *services.WizardSession, st *wizard.Store) error {
		st.UpdateClient(p)
		return nil
	})
}

// UseClient copies a known client record into the draft.
func (h *WizardHandler) UseClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "clientID")
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.clients.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	wc := services.ToWizard(c)
	h.mutate(w, r, http.StatusOK, func(_ *services.WizardSession, st *wizard.Store) error {
		st.UpdateClient(wizard.ClientPatch{
			Name:         &wc.Name,
			Email:        &wc.Email,
			Phone:        &wc.Phone,
			Address:      &wc.Address,
			AddressLine2: &wc.AddressLine2,
			City:         &wc.City,
			PostalCode:   &wc.PostalCode,
			HousingType:  &wc.HousingType,
			DoorCode:     &wc.DoorCode,
			NoDoorCode:   &wc.NoDoorCode,
		})
		return nil
	})
}

func checkMethod(field string, m *payment.Method, v validation.Violations) {
	if m != nil && *m != payment.MethodNone && !m.Valid() {
		v[field] = validation.CodeUnknownValue
	}
}

func (h *WizardHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var p wizard.PaymentPatch
	if !httpx.DecodeOrFail(w, r, &p) {
		return
	}
	v := validation.Violations{}
	checkMethod("method", p.Method, v)
	checkMethod("deposit_method", p.DepositMethod, v)
	if !v.Empty() {
		writeError(w, badRequest{Code: "validation_failed", Details: v})
		return
	}
	h.mutate(w, r, http.StatusOK, func(_ *services.WizardSession, st *wizard.Store) error {
		st.UpdatePaiement(p)
		return nil
	})
}

type deliveryRequest struct {
	Method  *wizard.DeliveryMethod `json:"method"`
	Notes   *string                `json:"notes"`
	Address *string                `json:"address"`
	Date    *string                `json:"date"`
}

func (h *WizardHandler) UpdateDelivery(w http.ResponseWriter, r *http.Request) {
	var in deliveryRequest
	if !httpx.DecodeOrFail(w, r, &in) {
		return
	}
	if in.Method != nil && *in.Method != "" && !in.Method.Valid() {
		writeError(w, badRequest{Code: "validation_failed", Details: validation.Violations{"method": validation.CodeUnknownValue}})
		return
	}
	date, err := parseDatePtr("date", in.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	patch := wizard.DeliveryPatch{Method: in.Method, Notes: in.Notes, Address: in.Address, Date: date}
	h.mutate(w, r, http.StatusOK, func(_ *services.WizardSession, st *wizard.Store) error {
		st.UpdateLivraison(patch)
		return nil
	})
}

type signatureRequest struct {
	Data     *string `json:"data"`
	SignedAt *string `json:"signed_at"`
}

func (h *WizardHandler) UpdateSignature(w http.ResponseWriter, r *http.Request) {
	var in signatureRequest
	if !httpx.DecodeOrFail(w, r, &in) {
		return
	}
	at, err := parseDatePtr("signed_at", in.SignedAt)
	if err != nil {
		writeError(w, err)
		return
	}
	if at != nil && at.IsZero() {
		at = nil
	}
	patch := wizard.SignaturePatch{Data: in.Data, SignedAt: at}
	h.mutate(w, r, http.StatusOK, func(_ *services.WizardSession, st *wizard.Store) error {
		st.UpdateSignature(patch)
		return nil
	})
}

func (h *WizardHandler) SetTerms(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Accepted *bool `json:"accepted"`
	}
	if !httpx.DecodeOrFail(w, r, &in) {
		return
	}
	if in.Accepted == nil {
		writeError(w, badRequest{Code: "validation_failed", Details: validation.Violations{"accepted": validation.CodeRequired}})
		return
	}
	h.mutate(w, r, http.StatusOK, func(_ *services.WizardSession, st *wizard.Store) error {
		st.SetTermsAccepted(*in.Accepted)
		return nil
	})
}

type addItemRequest struct {
	ProductCode  string              `json:"product_code"`
	Designation  string              `json:"designation"`
	Category     string              `json:"category"`
	Quantity     int                 `json:"quantity"`
	UnitPriceTTC *float64            `json:"unit_price_ttc"`
	Discount     float64             `json:"discount"`
	DiscountKind *money.DiscountKind `json:"discount_kind"`
	Fulfilment   wizard.Fulfilment   `json:"fulfilment"`
}

// lineItem resolves the request to a draft line: a catalog product by code,
// or a free line with its own designation and price.
func (h *WizardHandler) lineItem(ctx context.Context, in addItemRequest) (wizard.LineItem, error) {
	var li wizard.LineItem
	if code := strings.TrimSpace(in.ProductCode); code != "" {
		p, err := h.products.GetByCode(ctx, code)
		if err != nil {
			return li, err
		}
		li = services.LineItem(p, in.Quantity)
		if in.UnitPriceTTC != nil {
			li.UnitPriceTTC = *in.UnitPriceTTC
		}
	} else {
		v := validation.Violations{}
		validation.Required("designation", in.Designation, v)
		if in.UnitPriceTTC == nil {
			v["unit_price_ttc"] = validation.CodeRequired
		} else if *in.UnitPriceTTC < 0 {
			v["unit_price_ttc"] = validation.CodeMustBePositive
		}
		if !v.Empty() {
			return li, badRequest{Code: "validation_failed", Details: v}
		}
		li = wizard.LineItem{
			Designation:  strings.TrimSpace(in.Designation),
			Category:     in.Category,
			Quantity:     in.Quantity,
			UnitPriceTTC: *in.UnitPriceTTC,
		}
	}
	li.Discount = in.Discount
	if in.DiscountKind != nil {
		li.DiscountKind = money.ParseDiscountKind(string(*in.DiscountKind))
	}
	li.Fulfilment = in.Fulfilment
	return li, nil
}

func (h *WizardHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var in addItemRequest
	if !httpx.DecodeOrFail(w, r, &in) {
		return
	}
	li, err := h.lineItem(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	h.mutate(w, r, http.StatusCreated, func(_ *services.WizardSession, st *wizard.Store) error {
		st.AddLineItem(li)
		return nil
	})
}

// UpdateItem patches a line. An unknown item id leaves the draft unchanged.
func (h *WizardHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var p wizard.LineItemPatch
	if !httpx.DecodeOrFail(w, r, &p) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(_ *services.WizardSession, st *wizard.Store) error {
		st.UpdateLineItem(r.PathValue("itemID"), p)
		return nil
	})
}

func (h *WizardHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(_ *services.WizardSession, st *wizard.Store) error {
		st.RemoveLineItem(r.PathValue("itemID"))
		return nil
	})
}

// Next advances one step when the current one validates. Leaving the recap
// finishes the invoice.
func (h *WizardHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(s *services.WizardSession, st *wizard.Store) error {
		if st.Step() == wizard.StepRecap {
			_, err := h.finish(r.Context(), s, st)
			return err
		}
		if v := st.Advance(); !v.OK {
			return stepBlocked{Step: st.Step(), Verdict: v}
		}
		return nil
	})
}

func (h *WizardHandler) Prev(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(_ *services.WizardSession, st *wizard.Store) error {
		st.Retreat()
		return nil
	})
}

func (h *WizardHandler) SetStep(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Step wizard.Step `json:"step"`
	}
	if !httpx.DecodeOrFail(w, r, &in) {
		return
	}
	if !in.Step.Valid() {
		writeError(w, badRequest{Code: "unknown_step", Details: map[string]wizard.Step{"step": in.Step}})
		return
	}
	h.mutate(w, r, http.StatusOK, func(_ *services.WizardSession, st *wizard.Store) error {
		st.SetStep(in.Step)
		return nil
	})
}

// Reset starts the session over on a freshly prefilled draft, detached from
// any invoice it was saved as.
func (h *WizardHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(s *services.WizardSession, st *wizard.Store) error {
		st.Reset()
		s.InvoiceID = nil
		return h.invoices.Prefill(r.Context(), st, h.eventLocation)
	})
}

// Cheques previews the optimizer. ?count= overrides the draft's cheque count
// and ?min_pct= the configured deposit floor.
func (h *WizardHandler) Cheques(w http.ResponseWriter, r *http.Request) {
	var plan payment.ChequePlan
	err := h.sessions.Do(r.PathValue("id"), sellerID(r), func(_ *services.WizardSession, st *wizard.Store) error {
		count := queryInt(r, "count", st.Draft().Payment.Cheques)
		minPct := queryFloat(r, "min_pct", st.MinDepositPercent())
		plan = payment.OptimizeCheques(st.Totals().TTC, payment.ClampCheques(count), minPct)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"plan": plan, "cheques_total": plan.ChequesTotal()})
}

// ApplyCheques writes the optimized deposit into the payment, the count
// given in the body first when present.
func (h *WizardHandler) ApplyCheques(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Count  *int     `json:"count"`
		MinPct *float64 `json:"min_pct"`
	}
	if err := httpx.Decode(r, &in); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		writeError(w, badRequest{Code: "invalid_json", Details: err.Error()})
		return
	}
	var minPct float64
	if in.MinPct != nil {
		minPct = *in.MinPct
	}
	h.mutate(w, r, http.StatusOK, func(_ *services.WizardSession, st *wizard.Store) error {
		if in.Count != nil {
			st.UpdatePaiement(wizard.PaymentPatch{Cheques: in.Count})
		}
		st.ApplyChequePlan(minPct)
		return nil
	})
}

func (h *WizardHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	var out []payment.DepositSuggestion
	err := h.sessions.Do(r.PathValue("id"), sellerID(r), func(_ *services.WizardSession, st *wizard.Store) error {
		count := queryInt(r, "count", st.Draft().Payment.Cheques)
		out = payment.SuggestDeposits(st.Totals().TTC, count)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if out == nil {
		out = []payment.DepositSuggestion{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": out, "total": len(out)})
}

// Alma returns the installment schedule of the remaining amount.
func (h *WizardHandler) Alma(w http.ResponseWriter, r *http.Request) {
	var (
		plan []float64
		n    int
	)
	err := h.sessions.Do(r.PathValue("id"), sellerID(r), func(_ *services.WizardSession, st *wizard.Store) error {
		pay := st.Draft().Payment
		n = payment.ClampAlmaInstallments(queryInt(r, "n", pay.AlmaInstallments))
		plan = payment.AlmaPlan(pay.Remaining, n)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if plan == nil {
		plan = []float64{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"installments": n, "plan": plan})
}

func (h *WizardHandler) Flat(w http.ResponseWriter, r *http.Request) {
	var flat wizard.FlatInvoice
	err := h.sessions.Do(r.PathValue("id"), sellerID(r), func(_ *services.WizardSession, st *wizard.Store) error {
		flat = st.SyncToFlatInvoice()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, flat)
}

// ReplaceFlat hydrates the draft from a flat record. The wizard restarts at the first step.
func (h *WizardHandler) ReplaceFlat(w http.ResponseWriter, r *http.Request) {
	var f wizard.FlatInvoice
	if !httpx.DecodeOrFail(w, r, &f) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(_ *services.WizardSession, st *wizard.Store) error {
		st.SyncFromFlatInvoice(f)
		return nil
	})
}

// Save stores the draft as a draft invoice; later saves overwrite it.
func (h *WizardHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(s *services.WizardSession, st *wizard.Store) error {
		inv, err := h.invoices.Save(r.Context(), st, services.SaveOptions{SellerID: s.SellerID, InvoiceID: s.InvoiceID})
		if err != nil {
			return err
		}
		s.InvoiceID = &inv.ID
		return nil
	})
}

func (h *WizardHandler) Finish(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(s *services.WizardSession, st *wizard.Store) error {
		_, err := h.finish(r.Context(), s, st)
		return err
	})
}

// finish checks every gated step, then persists the client and the final
// invoice and moves the wizard to done.
func (h *WizardHandler) finish(ctx context.Context, s *services.WizardSession, st *wizard.Store) (*models.Invoice, error) {
	if step, v := wizard.ValidateAll(st.Draft()); !v.OK {
		return nil, stepBlocked{Step: step, Verdict: v}
	}
	inv, err := h.invoices.Finish(ctx, st, s.SellerID, s.InvoiceID)
	if err != nil {
		return nil, err
	}
	s.InvoiceID = &inv.ID
	st.MarkStepDone(wizard.StepRecap)
	st.SetStep(wizard.StepDone)
	return inv, nil
}
