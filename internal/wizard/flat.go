package wizard

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/literie-pos/internal/money"
	"github.com/diewo77/literie-pos/internal/payment"
)

const (
	flatDateLayout = "2006-01-02"

	// maxFlatAmount is the largest magnitude a stored amount may have. Larger
	// or non-finite values decode as 0.
	maxFlatAmount = 1e12
)

// Amount is a euro amount that decodes leniently: numbers, numeric strings
// ("160.5", "160,50", "160 €") and anything else as 0.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	*a = Amount(lenientNumber(b))
	return nil
}

// Count is an integer that decodes like Amount, truncates and saturates at
// the int32 range.
type Count int

func (c *Count) UnmarshalJSON(b []byte) error {
	f := money.Clamp(lenientNumber(b), math.MinInt32, math.MaxInt32)
	*c = Count(int(f))
	return nil
}

// Flag is a boolean that also accepts "true"/"1"/"oui" strings and numbers.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	s := strings.ToLower(strings.Trim(strings.TrimSpace(string(b)), `"`))
	switch s {
	case "true", "1", "yes", "oui", "on":
		*f = true
	default:
		*f = false
	}
	return nil
}

func lenientNumber(b []byte) float64 {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return 0
	}
	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return 0
		}
	} else {
		s = string(b)
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "€")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !money.Finite(f) || math.Abs(f) > maxFlatAmount {
		return 0
	}
	return f
}

// FlatLineItem is a product line of the flat record.
type FlatLineItem struct {
	ID             string `json:"id"`
	Code           string `json:"code,omitempty"`
	Name           string `json:"name"`
	Category       string `json:"category,omitempty"`
	Quantity       Count  `json:"quantity"`
	PriceTTC       Amount `json:"priceTTC"`
	PriceHT        Amount `json:"priceHT"`
	TotalHT        Amount `json:"totalHT"`
	TotalTTC       Amount `json:"totalTTC"`
	Discount       Amount `json:"discount"`
	DiscountType   string `json:"discountType"`
	IsPickupOnSite *bool  `json:"isPickupOnSite"`
}

// FlatInvoice is the record handed to persistence and the PDF/webhook exporters.
type FlatInvoice struct {
	InvoiceNumber string `json:"invoiceNumber"`
	InvoiceDate   string `json:"invoiceDate"`
	EventLocation string `json:"eventLocation"`

	ClientName         string `json:"clientName"`
	ClientEmail        string `json:"clientEmail"`
	ClientPhone        string `json:"clientPhone"`
	ClientAddress      string `json:"clientAddress"`
	ClientAddressLine2 string `json:"clientAddressLine2"`
	ClientCity         string `json:"clientCity"`
	ClientPostalCode   string `json:"clientPostalCode"`
	ClientHousingType  string `json:"clientHousingType"`
	ClientDoorCode     string `json:"clientDoorCode"`
	ClientNoDoorCode   Flag   `json:"clientNoDoorCode"`

	Products []FlatLineItem `json:"products"`

	PaymentMethod        string `json:"paymentMethod"`
	PaymentType          string `json:"paymentType"`
	MontantAcompte       Amount `json:"montantAcompte"`
	AcomptePaymentMethod string `json:"acomptePaymentMethod"`
	MontantRestant       Amount `json:"montantRestant"`
	NombreChequesAVenir  Count  `json:"nombreChequesAVenir"`
	AlmaInstallments     Count  `json:"almaInstallments"`
	PaymentNotes         string `json:"paymentNotes"`

	DeliveryMethod  string `json:"deliveryMethod"`
	DeliveryNotes   string `json:"deliveryNotes"`
	DeliveryAddress string `json:"deliveryAddress"`
	DeliveryDate    string `json:"deliveryDate"`

	Signature     string `json:"signature"`
	SignatureDate string `json:"signatureDate"`
	IsSigned      Flag   `json:"isSigned"`
	TermsAccepted Flag   `json:"termsAccepted"`

	MontantHT  Amount `json:"montantHT"`
	MontantTTC Amount `json:"montantTTC"`
	MontantTVA Amount `json:"montantTVA"`
}

// DecodeFlatInvoice parses a stored record. Bad amounts decode as zero; only
// structurally broken JSON is an error.
func DecodeFlatInvoice(b []byte) (FlatInvoice, error) {
	var f FlatInvoice
	if err := json.Unmarshal(b, &f); err != nil {
		return FlatInvoice{}, err
	}
	return f, nil
}

// SyncToFlatInvoice projects the draft onto the flat record, deriving the
// totals and the payment description.
func (s *Store) SyncToFlatInvoice() FlatInvoice {
	d := s.draft
	totals := d.Totals(s.vatRate)

	products := make([]FlatLineItem, 0, len(d.LineItems))
	for _, li := range d.LineItems {
		lineTTC := money.Round2(li.Total())
		products = append(products, FlatLineItem{
			ID:             li.ID,
			Code:           li.ProductCode,
			Name:           li.Designation,
			Category:       li.Category,
			Quantity:       Count(li.Quantity),
			PriceTTC:       Amount(money.Round2(li.UnitPriceTTC)),
			PriceHT:        Amount(money.Round2(money.ToExcludingTax(li.UnitPriceTTC, s.vatRate))),
			TotalTTC:       Amount(lineTTC),
			TotalHT:        Amount(money.Round2(money.ToExcludingTax(lineTTC, s.vatRate))),
			Discount:       Amount(li.Discount),
			DiscountType:   string(li.DiscountKind),
			IsPickupOnSite: li.Fulfilment.PickupFlag(),
		})
	}

	return FlatInvoice{
		InvoiceNumber: d.InvoiceNumber,
		InvoiceDate:   formatDate(d.InvoiceDate, flatDateLayout),
		EventLocation: d.EventLocation,

		ClientName:         d.Client.Name,
		ClientEmail:        d.Client.Email,
		ClientPhone:        d.Client.Phone,
		ClientAddress:      d.Client.Address,
		ClientAddressLine2: d.Client.AddressLine2,
		ClientCity:         d.Client.City,
		ClientPostalCode:   d.Client.PostalCode,
		ClientHousingType:  string(d.Client.HousingType),
		ClientDoorCode:     d.Client.DoorCode,
		ClientNoDoorCode:   Flag(d.Client.NoDoorCode),

		Products: products,

		PaymentMethod:        s.PaymentDescription(),
		PaymentType:          string(d.Payment.Method),
		MontantAcompte:       Amount(d.Payment.DepositAmount),
		AcomptePaymentMethod: string(d.Payment.DepositMethod),
		MontantRestant:       Amount(d.Payment.Remaining),
		NombreChequesAVenir:  Count(d.Payment.Cheques),
		AlmaInstallments:     Count(d.Payment.AlmaInstallments),
		PaymentNotes:         d.Payment.Note,

		DeliveryMethod:  string(d.Delivery.Method),
		DeliveryNotes:   d.Delivery.Notes,
		DeliveryAddress: d.Delivery.Address,
		DeliveryDate:    formatDate(d.Delivery.Date, flatDateLayout),

		Signature:     d.Signature.Data,
		SignatureDate: formatDate(d.Signature.SignedAt, time.RFC3339),
		IsSigned:      Flag(d.Signature.Signed()),
		TermsAccepted: Flag(d.TermsAccepted),

		MontantHT:  Amount(totals.HT),
		MontantTTC: Amount(totals.TTC),
		MontantTVA: Amount(totals.TVA),
	}
}

// SyncFromFlatInvoice replaces the draft with the content of f. Missing or
// malformed fields become empty values; the wizard restarts at the first step.
func (s *Store) SyncFromFlatInvoice(f FlatInvoice) {
	d := emptyDraft()
	d.InvoiceNumber = strings.TrimSpace(f.InvoiceNumber)
	d.InvoiceDate = ParseDate(f.InvoiceDate)
	d.EventLocation = f.EventLocation

	d.Client = Client{
		Name:         f.ClientName,
		Email:        f.ClientEmail,
		Phone:        f.ClientPhone,
		Address:      f.ClientAddress,
		AddressLine2: f.ClientAddressLine2,
		City:         f.ClientCity,
		PostalCode:   f.ClientPostalCode,
		HousingType:  HousingType(strings.ToLower(strings.TrimSpace(f.ClientHousingType))),
		DoorCode:     f.ClientDoorCode,
		NoDoorCode:   bool(f.ClientNoDoorCode),
	}

	for _, p := range f.Products {
		price := float64(p.PriceTTC)
		if price == 0 && p.PriceHT != 0 {
			price = money.Round2(money.ToIncludingTax(float64(p.PriceHT), s.vatRate))
		}
		id := strings.TrimSpace(p.ID)
		if id == "" {
			id = s.newID()
		}
		qty := int(p.Quantity)
		if qty < 1 {
			qty = 1
		}
		d.LineItems = append(d.LineItems, LineItem{
			ID:           id,
			ProductCode:  p.Code,
			Designation:  p.Name,
			Category:     p.Category,
			Quantity:     qty,
			UnitPriceTTC: price,
			Discount:     float64(p.Discount),
			DiscountKind: money.ParseDiscountKind(p.DiscountType),
			Fulfilment:   FulfilmentFromPickupFlag(p.IsPickupOnSite),
		})
	}

	method := payment.ParseMethod(f.PaymentType)
	if method == payment.MethodNone {
		method = payment.MethodFromDescription(f.PaymentMethod)
	}
	d.Payment = Payment{
		Method:           method,
		DepositAmount:    float64(f.MontantAcompte),
		DepositMethod:    payment.ParseMethod(f.AcomptePaymentMethod),
		Cheques:          int(f.NombreChequesAVenir),
		AlmaInstallments: int(f.AlmaInstallments),
		Note:             f.PaymentNotes,
	}
	if d.Payment.Cheques == 0 {
		d.Payment.Cheques = DefaultCheques
	}
	if d.Payment.AlmaInstallments == 0 {
		d.Payment.AlmaInstallments = DefaultAlmaInstallments
	}

	d.Delivery = DeliveryInfo{
		Method:  DeliveryMethod(strings.TrimSpace(f.DeliveryMethod)),
		Notes:   f.DeliveryNotes,
		Address: f.DeliveryAddress,
		Date:    ParseDate(f.DeliveryDate),
	}
	if !d.Delivery.Method.Valid() {
		d.Delivery.Method = ""
	}

	d.Signature = Signature{Data: f.Signature}
	if d.Signature.Signed() {
		d.Signature.SignedAt = ParseDate(f.SignatureDate)
	}
	d.TermsAccepted = bool(f.TermsAccepted)

	s.draft = d
	s.normalizePayment()
}

func formatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp; anything else is the zero time.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, flatDateLayout, "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
