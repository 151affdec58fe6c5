package wizard

import (
	"time"

	"github.com/diewo77/literie-pos/internal/money"
	"github.com/diewo77/literie-pos/internal/payment"
)

// Patches carry partial updates: a nil field is left untouched. They decode
// directly from the tablet's JSON bodies.

type InfoPatch struct {
	InvoiceNumber *string    `json:"invoice_number"`
	InvoiceDate   *time.Time `json:"invoice_date"`
	EventLocation *string    `json:"event_location"`
}

type ClientPatch struct {
	Name         *string      `json:"name"`
	Email        *string      `json:"email"`
	Phone        *string      `json:"phone"`
	Address      *string      `json:"address"`
	AddressLine2 *string      `json:"address_line2"`
	City         *string      `json:"city"`
	PostalCode   *string      `json:"postal_code"`
	HousingType  *HousingType `json:"housing_type"`
	DoorCode     *string      `json:"door_code"`
	NoDoorCode   *bool        `json:"no_door_code"`
}

func (p ClientPatch) apply(c *Client) {
	setIf(&c.Name, p.Name)
	setIf(&c.Email, p.Email)
	setIf(&c.Phone, p.Phone)
	setIf(&c.Address, p.Address)
	setIf(&c.AddressLine2, p.AddressLine2)
	setIf(&c.City, p.City)
	setIf(&c.PostalCode, p.PostalCode)
	setIf(&c.HousingType, p.HousingType)
	setIf(&c.DoorCode, p.DoorCode)
	setIf(&c.NoDoorCode, p.NoDoorCode)
}

type LineItemPatch struct {
	Designation  *string             `json:"designation"`
	Category     *string             `json:"category"`
	Quantity     *int                `json:"quantity"`
	UnitPriceTTC *float64            `json:"unit_price_ttc"`
	Discount     *float64            `json:"discount"`
	DiscountKind *money.DiscountKind `json:"discount_kind"`
	Fulfilment   *Fulfilment         `json:"fulfilment"`
}

func (p LineItemPatch) apply(li *LineItem) {
	setIf(&li.Designation, p.Designation)
	setIf(&li.Category, p.Category)
	setIf(&li.Quantity, p.Quantity)
	setIf(&li.UnitPriceTTC, p.UnitPriceTTC)
	setIf(&li.Discount, p.Discount)
	setIf(&li.DiscountKind, p.DiscountKind)
	setIf(&li.Fulfilment, p.Fulfilment)
}

type PaymentPatch struct {
	Method           *payment.Method `json:"method"`
	DepositAmount    *float64        `json:"deposit_amount"`
	DepositMethod    *payment.Method `json:"deposit_method"`
	Cheques          *int            `json:"cheques"`
	AlmaInstallments *int            `json:"alma_installments"`
	Note             *string         `json:"note"`
}

func (p PaymentPatch) apply(pay *Payment) {
	setIf(&pay.Method, p.Method)
	setIf(&pay.DepositAmount, p.DepositAmount)
	setIf(&pay.DepositMethod, p.DepositMethod)
	setIf(&pay.Cheques, p.Cheques)
	setIf(&pay.AlmaInstallments, p.AlmaInstallments)
	setIf(&pay.Note, p.Note)
}

type DeliveryPatch struct {
	Method  *DeliveryMethod `json:"method"`
	Notes   *string         `json:"notes"`
	Address *string         `json:"address"`
	Date    *time.Time      `json:"date"`
}

func (p DeliveryPatch) apply(d *DeliveryInfo) {
	setIf(&d.Method, p.Method)
	setIf(&d.Notes, p.Notes)
	setIf(&d.Address, p.Address)
	setIf(&d.Date, p.Date)
}

type SignaturePatch struct {
	Data     *string    `json:"data"`
	SignedAt *time.Time `json:"signed_at"`
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// Ptr is a small helper for building patches.
func Ptr[T any](v T) *T { return &v }
