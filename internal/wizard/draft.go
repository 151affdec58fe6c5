// Package wizard holds the invoice draft a seller fills in on the tablet,
// the step sequencing with its per-step validation, and the adapters to and
// from the flat invoice record persisted and exported elsewhere.
package wizard

import (
	"fmt"
	"time"

	"github.com/diewo77/literie-pos/internal/money"
	"github.com/diewo77/literie-pos/internal/payment"
)

// HousingType of the delivery address.
type HousingType string

const (
	HousingHouse     HousingType = "maison"
	HousingApartment HousingType = "appartement"
)

var housingTypes = []string{string(HousingHouse), string(HousingApartment)}

// DeliveryMethod is how the goods reach the customer.
type DeliveryMethod string

const (
	DeliveryHome         DeliveryMethod = "livraison"
	DeliveryWithAssembly DeliveryMethod = "livraison_montage"
	DeliveryStorePickup  DeliveryMethod = "retrait"
)

// Valid reports whether m is a known delivery method.
func (m DeliveryMethod) Valid() bool {
	switch m {
	case DeliveryHome, DeliveryWithAssembly, DeliveryStorePickup:
		return true
	}
	return false
}

// Fulfilment says whether a line leaves with the customer or is delivered.
// Undecided is a real state: the products step refuses to move on while any line has it.
type Fulfilment int

const (
	Undecided Fulfilment = iota
	Pickup
	Delivery
)

func (f Fulfilment) String() string {
	switch f {
	case Pickup:
		return "pickup"
	case Delivery:
		return "delivery"
	default:
		return "undecided"
	}
}

func (f Fulfilment) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Fulfilment) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pickup":
		*f = Pickup
	case "delivery":
		*f = Delivery
	case "undecided", "":
		*f = Undecided
	default:
		return fmt.Errorf("unknown fulfilment %q", b)
	}
	return nil
}

// FulfilmentFromPickupFlag maps the flat record's optional boolean.
func FulfilmentFromPickupFlag(p *bool) Fulfilment {
	if p == nil {
		return Undecided
	}
	if *p {
		return Pickup
	}
	return Delivery
}

// PickupFlag is the inverse of FulfilmentFromPickupFlag.
func (f Fulfilment) PickupFlag() *bool {
	var v bool
	switch f {
	case Pickup:
		v = true
	case Delivery:
		v = false
	default:
		return nil
	}
	return &v
}

type Client struct {
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone"`
	Address      string      `json:"address"`
	AddressLine2 string      `json:"address_line2,omitempty"`
	City         string      `json:"city"`
	PostalCode   string      `json:"postal_code"`
	HousingType  HousingType `json:"housing_type"`
	DoorCode     string      `json:"door_code"`
	NoDoorCode   bool        `json:"no_door_code"`
}

type LineItem struct {
	ID           string             `json:"id"`
	ProductCode  string             `json:"product_code,omitempty"`
	Designation  string             `json:"designation"`
	Category     string             `json:"category,omitempty"`
	Quantity     int                `json:"quantity"`
	UnitPriceTTC float64            `json:"unit_price_ttc"`
	Discount     float64            `json:"discount"`
	DiscountKind money.DiscountKind `json:"discount_kind"`
	Fulfilment   Fulfilment         `json:"fulfilment"`
}

// Total is the line amount TTC after discount, never negative.
func (li LineItem) Total() float64 {
	return money.LineTotal(li.Quantity, li.UnitPriceTTC, li.Discount, li.DiscountKind)
}

type Payment struct {
	Method           payment.Method `json:"method"`
	DepositAmount    float64        `json:"deposit_amount"`
	DepositMethod    payment.Method `json:"deposit_method"`
	Remaining        float64        `json:"remaining"`
	Cheques          int            `json:"cheques"`
	AlmaInstallments int            `json:"alma_installments"`
	Note             string         `json:"note,omitempty"`
}

type DeliveryInfo struct {
	Method  DeliveryMethod `json:"method"`
	Notes   string         `json:"notes,omitempty"`
	Address string         `json:"address,omitempty"`
	Date    time.Time      `json:"date,omitzero"`
}

// Signature holds the signature pad image as a data URL. An empty Data means unsigned.
type Signature struct {
	Data     string    `json:"data,omitempty"`
	SignedAt time.Time `json:"signed_at,omitzero"`
}

func (s Signature) Signed() bool { return s.Data != "" }

// Draft is the invoice in progress. It is owned by a single Store.
type Draft struct {
	Step          Step          `json:"step"`
	InvoiceNumber string        `json:"invoice_number"`
	InvoiceDate   time.Time     `json:"invoice_date,omitzero"`
	EventLocation string        `json:"event_location"`
	Client        Client        `json:"client"`
	LineItems     []LineItem    `json:"line_items"`
	Payment       Payment       `json:"payment"`
	Delivery      DeliveryInfo  `json:"delivery"`
	Signature     Signature     `json:"signature"`
	TermsAccepted bool          `json:"terms_accepted"`
	Completed     map[Step]bool `json:"-"`
}

// Default counts of a fresh draft.
const (
	DefaultCheques          = 3
	DefaultAlmaInstallments = 3
)

func emptyDraft() Draft {
	return Draft{
		Step:      FirstStep,
		LineItems: []LineItem{},
		Payment: Payment{
			Cheques:          DefaultCheques,
			AlmaInstallments: DefaultAlmaInstallments,
		},
		Completed: map[Step]bool{},
	}
}

// clone copies the slices and map so callers cannot reach into the store.
func (d Draft) clone() Draft {
	out := d
	out.LineItems = append([]LineItem{}, d.LineItems...)
	out.Completed = make(map[Step]bool, len(d.Completed))
	for k, v := range d.Completed {
		out.Completed[k] = v
	}
	return out
}

// CompletedSteps lists the done steps in wizard order.
func (d Draft) CompletedSteps() []Step {
	out := []Step{}
	for _, s := range Steps {
		if d.Completed[s] {
			out = append(out, s)
		}
	}
	return out
}

// Totals are the aggregate amounts of a draft.
type Totals struct {
	HT  float64 `json:"ht"`
	TVA float64 `json:"tva"`
	TTC float64 `json:"ttc"`
}

// TotalTTC sums the line totals.
func (d Draft) TotalTTC() float64 {
	var total float64
	for _, li := range d.LineItems {
		total += li.Total()
	}
	return total
}

// Totals derives HT and TVA from the TTC sum at the given rate, rounded to cents.
func (d Draft) Totals(vatRate float64) Totals {
	ttc := money.Round2(d.TotalTTC())
	ht := money.Round2(money.ToExcludingTax(ttc, vatRate))
	return Totals{HT: ht, TVA: money.Round2(ttc - ht), TTC: ttc}
}

// PaymentDetails projects the payment for payment.Describe.
func (d Draft) PaymentDetails() payment.Details {
	return payment.Details{
		Method:           d.Payment.Method,
		DepositMethod:    d.Payment.DepositMethod,
		Deposit:          d.Payment.DepositAmount,
		Total:            money.Round2(d.TotalTTC()),
		Cheques:          d.Payment.Cheques,
		AlmaInstallments: d.Payment.AlmaInstallments,
	}
}
