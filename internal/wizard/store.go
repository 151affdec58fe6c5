package wizard

import (
	"time"

	"github.com/google/uuid"

	"github.com/diewo77/literie-pos/internal/money"
	"github.com/diewo77/literie-pos/internal/payment"
)

// Store owns one draft and exposes every mutation the wizard screens need.
// It is not safe for concurrent use; the session registry serialises access.
type Store struct {
	draft         Draft
	vatRate       float64
	minDepositPct float64
	now           func() time.Time
	newID         func() string
}

type Option func(*Store)

// WithVATRate sets the TVA rate in percent (default money.DefaultVATRate).
func WithVATRate(rate float64) Option {
	return func(s *Store) { s.vatRate = rate }
}

// WithMinDepositPercent sets the acompte floor used by the cheque optimizer.
func WithMinDepositPercent(pct float64) Option {
	return func(s *Store) { s.minDepositPct = pct }
}

// WithClock overrides time.Now, for signatures and tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the line item id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		draft:         emptyDraft(),
		vatRate:       money.DefaultVATRate,
		minDepositPct: payment.DefaultMinDepositPercent,
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Draft returns a copy of the current draft.
func (s *Store) Draft() Draft { return s.draft.clone() }

func (s *Store) Step() Step { return s.draft.Step }

func (s *Store) VATRate() float64 { return s.vatRate }

func (s *Store) MinDepositPercent() float64 { return s.minDepositPct }

// Totals of the current line items.
func (s *Store) Totals() Totals { return s.draft.Totals(s.vatRate) }

// SetStep jumps to step. Unknown steps are ignored and false is returned.
func (s *Store) SetStep(step Step) bool {
	if !step.Valid() {
		return false
	}
	s.draft.Step = step
	return true
}

// GoNext moves one step forward without validation; no-op on the last step.
func (s *Store) GoNext() { s.draft.Step = s.draft.Step.Next() }

// GoPrev moves one step back; no-op on the first step.
func (s *Store) GoPrev() { s.draft.Step = s.draft.Step.Prev() }

// MarkStepDone records step in the completion set. Idempotent.
func (s *Store) MarkStepDone(step Step) {
	if step.Valid() {
		s.draft.Completed[step] = true
	}
}

// Reset discards the draft and starts over from an empty one.
func (s *Store) Reset() { s.draft = emptyDraft() }

func (s *Store) UpdateInfo(p InfoPatch) {
	setIf(&s.draft.InvoiceNumber, p.InvoiceNumber)
	setIf(&s.draft.InvoiceDate, p.InvoiceDate)
	setIf(&s.draft.EventLocation, p.EventLocation)
}

func (s *Store) UpdateClient(p ClientPatch) { p.apply(&s.draft.Client) }

func (s *Store) UpdateLivraison(p DeliveryPatch) { p.apply(&s.draft.Delivery) }

// UpdatePaiement merges p then clamps the deposit to [0, total TTC] and the
// counts to their ranges.
func (s *Store) UpdatePaiement(p PaymentPatch) {
	p.apply(&s.draft.Payment)
	s.normalizePayment()
}

// UpdateSignature stores the pad image. A signature without a timestamp is
// stamped with the store clock; clearing the data clears the timestamp.
func (s *Store) UpdateSignature(p SignaturePatch) {
	sig := &s.draft.Signature
	setIf(&sig.Data, p.Data)
	setIf(&sig.SignedAt, p.SignedAt)
	switch {
	case sig.Data == "":
		sig.SignedAt = time.Time{}
	case p.Data != nil && p.SignedAt == nil:
		sig.SignedAt = s.now().UTC()
	}
}

func (s *Store) SetTermsAccepted(v bool) { s.draft.TermsAccepted = v }

// AddLineItem appends item and returns its id, generating one when empty.
// Quantity is raised to 1 when lower.
func (s *Store) AddLineItem(item LineItem) string {
	if item.ID == "" {
		item.ID = s.newID()
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	if item.DiscountKind == "" {
		item.DiscountKind = money.DiscountFixed
	}
	s.draft.LineItems = append(s.draft.LineItems, item)
	s.normalizePayment()
	return item.ID
}

// UpdateLineItem patches the line with id. Unknown ids are a silent no-op (false).
func (s *Store) UpdateLineItem(id string, p LineItemPatch) bool {
	for i := range s.draft.LineItems {
		if s.draft.LineItems[i].ID != id {
			continue
		}
		p.apply(&s.draft.LineItems[i])
		if s.draft.LineItems[i].Quantity < 1 {
			s.draft.LineItems[i].Quantity = 1
		}
		s.normalizePayment()
		return true
	}
	return false
}

// RemoveLineItem drops the line with id. Unknown ids are a silent no-op (false).
func (s *Store) RemoveLineItem(id string) bool {
	for i := range s.draft.LineItems {
		if s.draft.LineItems[i].ID == id {
			s.draft.LineItems = append(s.draft.LineItems[:i], s.draft.LineItems[i+1:]...)
			s.normalizePayment()
			return true
		}
	}
	return false
}

// normalizePayment keeps the payment invariants after any change that can
// move the total.
func (s *Store) normalizePayment() {
	pay := &s.draft.Payment
	total := money.Round2(s.draft.TotalTTC())
	pay.DepositAmount = money.Round2(money.Clamp(pay.DepositAmount, 0, total))
	pay.Remaining = money.Round2(money.Clamp(total-pay.DepositAmount, 0, total))
	pay.Cheques = payment.ClampCheques(pay.Cheques)
	pay.AlmaInstallments = payment.ClampAlmaInstallments(pay.AlmaInstallments)
}

// ChequePlan runs the optimizer on the current total and cheque count.
// minDepositPct <= 0 uses the store's configured floor.
func (s *Store) ChequePlan(minDepositPct float64) payment.ChequePlan {
	if minDepositPct <= 0 {
		minDepositPct = s.minDepositPct
	}
	return payment.OptimizeCheques(money.Round2(s.draft.TotalTTC()), s.draft.Payment.Cheques, minDepositPct)
}

// ApplyChequePlan writes the optimized deposit into the payment and returns the plan.
func (s *Store) ApplyChequePlan(minDepositPct float64) payment.ChequePlan {
	plan := s.ChequePlan(minDepositPct)
	s.draft.Payment.DepositAmount = plan.Deposit
	s.normalizePayment()
	return plan
}

// DepositSuggestions ranks the suggested acomptes for the current cheque count.
func (s *Store) DepositSuggestions() []payment.DepositSuggestion {
	return payment.SuggestDeposits(money.Round2(s.draft.TotalTTC()), s.draft.Payment.Cheques)
}

// PaymentDescription is the human readable payment line, computed on demand.
func (s *Store) PaymentDescription() string {
	return payment.Describe(s.draft.PaymentDetails())
}
